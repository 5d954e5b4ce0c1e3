package geometry

import "math/bits"

// RotateLeft rotates the low width bits of mask left by n; higher bits are dropped.
func RotateLeft(mask uint8, n, width uint) uint8 {
	if width == 0 || width > 8 {
		return 0
	}
	full := uint16(1)<<width - 1
	m := uint16(mask) & full
	n %= width
	return uint8((m<<n | m>>(width-n)) & full)
}

// WorldSideMask maps a template-local side mask to board space.
func WorldSideMask(local uint8, r Rotation) uint8 {
	return RotateLeft(local, uint(r&3), 4)
}

// LocalSideMask is the inverse of WorldSideMask.
func LocalSideMask(world uint8, r Rotation) uint8 {
	return RotateLeft(world, uint(4-uint(r&3)), 4)
}

// WorldFarmMask maps a template-local wedge mask to board space; each side owns two wedges.
func WorldFarmMask(local uint8, r Rotation) uint8 {
	return RotateLeft(local, 2*uint(r&3), 8)
}

// Wedge indices: side d owns wedges 2d and 2d+1, counter-clockwise, so
// wedge 0 is the southern half of the east side.
const WedgeCount = 8

func WedgeSide(w uint8) Direction { return Direction(w/2) & 3 }

func WedgeToWorld(w uint8, r Rotation) uint8 { return (w + 2*uint8(r&3)) & 7 }

func WedgeToLocal(w uint8, r Rotation) uint8 { return (w + 8 - 2*uint8(r&3)) & 7 }

// PartnerWedge is the neighbour's wedge that touches w across side WedgeSide(w).
func PartnerWedge(w uint8) uint8 {
	side := uint8(WedgeSide(w).Opposite())
	return 2*side + (1 - w%2)
}

// SideWedges returns the wedge mask for side d.
func SideWedges(d Direction) uint8 { return 3 << (2 * uint8(d&3)) }

// ForEachBit calls fn with the index of every set bit, lowest first.
func ForEachBit(mask uint8, fn func(i uint8)) {
	for mask != 0 {
		i := uint8(bits.TrailingZeros8(mask))
		fn(i)
		mask &= mask - 1
	}
}

func PopCount(mask uint8) int { return bits.OnesCount8(mask) }
