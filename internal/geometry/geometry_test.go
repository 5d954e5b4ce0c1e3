package geometry

import "testing"

func TestDirection_OppositeAndRotate(t *testing.T) {
	if East.Opposite() != West || North.Opposite() != South {
		t.Fatalf("unexpected opposites: %v %v", East.Opposite(), North.Opposite())
	}
	if East.Rotate(Rotate90) != North {
		t.Errorf("expected E rotated 90 to be N, got %v", East.Rotate(Rotate90))
	}
	if South.Rotate(Rotate90) != East {
		t.Errorf("expected S rotated 90 to wrap to E, got %v", South.Rotate(Rotate90))
	}
	for _, d := range Directions {
		for _, r := range Rotations {
			if got := ToLocal(ToWorld(d, r), r); got != d {
				t.Errorf("ToLocal(ToWorld(%v,%v)) = %v", d, r, got)
			}
		}
	}
}

func TestCoord_NeighborRoundTrip(t *testing.T) {
	c := Coord{X: 3, Y: -2}
	for _, d := range Directions {
		if back := c.Neighbor(d).Neighbor(d.Opposite()); back != c {
			t.Errorf("neighbor round trip via %v returned %v", d, back)
		}
	}
	if c.Neighbor(North) != (Coord{X: 3, Y: -3}) {
		t.Errorf("north should decrease y, got %v", c.Neighbor(North))
	}
}

func TestRotateLeft(t *testing.T) {
	tests := []struct {
		mask  uint8
		n     uint
		width uint
		want  uint8
	}{
		{0b0001, 1, 4, 0b0010},
		{0b1000, 1, 4, 0b0001},
		{0b1001, 2, 4, 0b0110},
		{0b1111_0000, 0, 4, 0},
		{0b1000_0001, 2, 8, 0b0000_0110},
		{0b1100_0000, 2, 8, 0b0000_0011},
	}
	for _, tc := range tests {
		if got := RotateLeft(tc.mask, tc.n, tc.width); got != tc.want {
			t.Errorf("RotateLeft(%08b,%d,%d) = %08b, want %08b", tc.mask, tc.n, tc.width, got, tc.want)
		}
	}
}

func TestWorldMasks_AgreeWithDirectionRotation(t *testing.T) {
	for _, d := range Directions {
		for _, r := range Rotations {
			if got, want := WorldSideMask(d.Mask(), r), ToWorld(d, r).Mask(); got != want {
				t.Errorf("side %v rot %v: mask %04b, want %04b", d, r, got, want)
			}
			if got := LocalSideMask(WorldSideMask(d.Mask(), r), r); got != d.Mask() {
				t.Errorf("LocalSideMask did not invert rotation for %v/%v", d, r)
			}
			if got, want := WorldFarmMask(SideWedges(d), r), SideWedges(ToWorld(d, r)); got != want {
				t.Errorf("wedges of %v rot %v: %08b, want %08b", d, r, got, want)
			}
		}
	}
	for w := uint8(0); w < WedgeCount; w++ {
		for _, r := range Rotations {
			if WedgeToLocal(WedgeToWorld(w, r), r) != w {
				t.Errorf("wedge %d did not round trip under %v", w, r)
			}
		}
	}
}

func TestPartnerWedge(t *testing.T) {
	// East south half touches the west south half of the eastern neighbour.
	if got := PartnerWedge(0); got != 5 {
		t.Errorf("PartnerWedge(0) = %d, want 5", got)
	}
	if got := PartnerWedge(2); got != 7 {
		t.Errorf("PartnerWedge(2) = %d, want 7", got)
	}
	for w := uint8(0); w < WedgeCount; w++ {
		if PartnerWedge(PartnerWedge(w)) != w {
			t.Errorf("PartnerWedge is not an involution at %d", w)
		}
		if WedgeSide(PartnerWedge(w)) != WedgeSide(w).Opposite() {
			t.Errorf("partner of %d is not on the opposite side", w)
		}
	}
}

func TestRing(t *testing.T) {
	c := Coord{}
	if n := len(c.Neighbors8()); n != 8 {
		t.Fatalf("expected 8 neighbours, got %d", n)
	}
	if n := len(c.Ring(2)); n != 24 {
		t.Fatalf("expected 24 cells at radius 2, got %d", n)
	}
	if !c.Within(Coord{X: 2, Y: -2}, 2) || c.Within(Coord{X: 3, Y: 0}, 2) {
		t.Errorf("Within disagrees with Ring bounds")
	}
}

func TestRiverTurn(t *testing.T) {
	if RiverTurn(West, East) != Straight {
		t.Errorf("west to east should be straight")
	}
	// Entering from the west heading east; leaving north is a left turn.
	if RiverTurn(West, North) != TurnLeft {
		t.Errorf("expected left turn, got %v", RiverTurn(West, North))
	}
	if RiverTurn(West, South) != TurnRight {
		t.Errorf("expected right turn, got %v", RiverTurn(West, South))
	}
	if RiverTurn(West, West) != Reverse {
		t.Errorf("expected reverse")
	}
}

func TestForEachBit(t *testing.T) {
	var got []uint8
	ForEachBit(0b1010_0101, func(i uint8) { got = append(got, i) })
	want := []uint8{0, 2, 5, 7}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	if PopCount(0b1010_0101) != 4 {
		t.Errorf("PopCount mismatch")
	}
}
