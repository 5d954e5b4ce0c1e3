// Package tile describes immutable tile templates and how their edges, farm
// wedges and content rotate into board space.
package tile

import (
	"fmt"

	"github.com/Ko-stant/tilefeature-engine/internal/geometry"
)

// EdgeType is what runs across one side of a tile.
type EdgeType uint8

const (
	Field EdgeType = iota
	Road
	River
	City
	CloisterLink
	Empty
)

var edgeLetters = [...]byte{Field: 'F', Road: 'R', River: 'V', City: 'C', CloisterLink: 'L', Empty: '-'}

func (e EdgeType) String() string {
	switch e {
	case Field:
		return "field"
	case Road:
		return "road"
	case River:
		return "river"
	case City:
		return "city"
	case CloisterLink:
		return "cloister-link"
	case Empty:
		return "empty"
	}
	return fmt.Sprintf("edge(%d)", uint8(e))
}

func (e EdgeType) Letter() byte {
	if int(e) < len(edgeLetters) {
		return edgeLetters[e]
	}
	return '?'
}

func ParseEdgeType(b byte) (EdgeType, error) {
	for e, l := range edgeLetters {
		if l == b {
			return EdgeType(e), nil
		}
	}
	return 0, fmt.Errorf("unknown edge letter %q", b)
}

// Compatible reports whether two edges may face each other. CloisterLink matches anything.
func Compatible(a, b EdgeType) bool {
	return a == b || a == CloisterLink || b == CloisterLink
}

// HasFarm reports whether the wedges along an edge of this type carry farmland.
func (e EdgeType) HasFarm() bool {
	return e == Field || e == Road || e == River
}

// Content is a bag of whole-tile flags.
type Content uint8

const (
	ContentCloister Content = 1 << iota
	ContentGermanCastle
	ContentRiverSource
	ContentRiverLake
)

func (c Content) Has(flag Content) bool { return c&flag != 0 }

// ID names a template in a Table.
type ID string

// Template is the rotation independent description of one tile type.
// All masks are in template-local space; use the *At accessors for board space.
type Template struct {
	ID    ID
	Edges [4]EdgeType

	// SideLinks[d] holds the local sides joined to d through the tile body, d included.
	SideLinks [4]uint8
	// RoadCenter marks road sides that end at the tile centre.
	RoadCenter uint8

	// FarmLinks[w] holds the wedges sharing w's farm, w included; zero means no farm.
	FarmLinks [8]uint8
	// FarmCities[w] holds the City sides bordering w's farm.
	FarmCities [8]uint8

	// Per-side decorations; each belongs to the group containing its side.
	Pennants  uint8
	Cathedral uint8
	Inn       uint8
	Bridge    uint8

	Content Content
}

// EdgeAt returns the edge facing board side world when placed with rotation r.
func (t *Template) EdgeAt(world geometry.Direction, r geometry.Rotation) EdgeType {
	return t.Edges[geometry.ToLocal(world, r)]
}

// SideLinksAt returns the board-space link mask of the side facing world.
func (t *Template) SideLinksAt(world geometry.Direction, r geometry.Rotation) uint8 {
	return geometry.WorldSideMask(t.SideLinks[geometry.ToLocal(world, r)], r)
}

// FarmLinksAt returns the board-space wedge mask of board wedge w.
func (t *Template) FarmLinksAt(w uint8, r geometry.Rotation) uint8 {
	return geometry.WorldFarmMask(t.FarmLinks[geometry.WedgeToLocal(w, r)], r)
}

// FarmCitiesAt returns the board-space city sides bordering board wedge w.
func (t *Template) FarmCitiesAt(w uint8, r geometry.Rotation) uint8 {
	return geometry.WorldSideMask(t.FarmCities[geometry.WedgeToLocal(w, r)], r)
}

func (t *Template) HasFarmAt(w uint8, r geometry.Rotation) bool {
	return t.FarmLinks[geometry.WedgeToLocal(w, r)] != 0
}

// SideMaskAt rotates any per-side decoration mask into board space.
func (t *Template) SideMaskAt(local uint8, r geometry.Rotation) uint8 {
	return geometry.WorldSideMask(local, r)
}

// RiverSides returns the board-space mask of river edges.
func (t *Template) RiverSides(r geometry.Rotation) uint8 {
	var local uint8
	for d, e := range t.Edges {
		if e == River {
			local |= 1 << d
		}
	}
	return geometry.WorldSideMask(local, r)
}

func (t *Template) String() string {
	b := make([]byte, 4)
	for i, e := range t.Edges {
		b[i] = e.Letter()
	}
	return fmt.Sprintf("%s[%s]", t.ID, b)
}
