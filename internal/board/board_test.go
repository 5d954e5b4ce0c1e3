package board

import (
	"errors"
	"testing"

	"github.com/Ko-stant/tilefeature-engine/internal/geometry"
	"github.com/Ko-stant/tilefeature-engine/internal/tile"
)

func loadTable(t *testing.T) *tile.Table {
	t.Helper()
	table, err := tile.DefaultTable()
	if err != nil {
		t.Fatalf("failed to load default tileset: %v", err)
	}
	return table
}

func at(x, y int) geometry.Coord { return geometry.Coord{X: x, Y: y} }

func mustPlace(t *testing.T, b *Board, tpl *tile.Template, c geometry.Coord, r geometry.Rotation) *PlacedTile {
	t.Helper()
	pt, err := b.Place(tpl, c, r)
	if err != nil {
		t.Fatalf("place %v at %v r%v: %v", tpl.ID, c, r, err)
	}
	return pt
}

func TestBoard_FirstPlacementAnywhereThenNeighbourRequired(t *testing.T) {
	table := loadTable(t)
	b := New()
	start := table.MustGet("start")

	if err := b.Check(start, at(5, 5), geometry.Rotate0); err != nil {
		t.Fatalf("first tile should be placeable anywhere, got %v", err)
	}
	mustPlace(t, b, start, at(0, 0), geometry.Rotate0)

	err := b.Check(table.MustGet("road-straight"), at(3, 0), geometry.Rotate0)
	if !errors.Is(err, ErrNoNeighbor) {
		t.Errorf("expected ErrNoNeighbor, got %v", err)
	}
	err = b.Check(start, at(0, 0), geometry.Rotate0)
	if !errors.Is(err, ErrCellOccupied) {
		t.Errorf("expected ErrCellOccupied, got %v", err)
	}
	if err := b.Check(nil, at(1, 0), geometry.Rotate0); !errors.Is(err, ErrUnknownTemplate) {
		t.Errorf("expected ErrUnknownTemplate, got %v", err)
	}
}

func TestBoard_EdgeMismatchReportsDirection(t *testing.T) {
	table := loadTable(t)
	b := New()
	mustPlace(t, b, table.MustGet("start"), at(0, 0), geometry.Rotate0)

	// A field-only cloister east of the start tile faces its road.
	err := b.Check(table.MustGet("cloister"), at(1, 0), geometry.Rotate0)
	var perr *PlacementError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PlacementError, got %v", err)
	}
	if !errors.Is(err, ErrEdgeMismatch) || perr.Dir != geometry.West {
		t.Errorf("expected mismatch on west side, got %v", err)
	}
	if b.Len() != 1 {
		t.Errorf("failed check must not mutate the board")
	}
}

func TestBoard_CheckIsIdempotent(t *testing.T) {
	table := loadTable(t)
	b := New()
	mustPlace(t, b, table.MustGet("start"), at(0, 0), geometry.Rotate0)
	mustPlace(t, b, table.MustGet("road-curve"), at(1, 0), geometry.Rotate0)

	for _, id := range table.IDs() {
		tpl := table.MustGet(id)
		for y := -2; y <= 2; y++ {
			for x := -2; x <= 3; x++ {
				for _, r := range geometry.Rotations {
					first := b.CanPlace(tpl, at(x, y), r)
					second := b.CanPlace(tpl, at(x, y), r)
					if first != second {
						t.Fatalf("CanPlace(%s,%d,%d,%v) not idempotent", id, x, y, r)
					}
				}
			}
		}
	}
}

func TestBoard_PlaceLinksBothSides(t *testing.T) {
	table := loadTable(t)
	b := New()
	start := mustPlace(t, b, table.MustGet("start"), at(0, 0), geometry.Rotate0)
	road := mustPlace(t, b, table.MustGet("road-straight"), at(1, 0), geometry.Rotate0)

	east := &start.Sides[geometry.East]
	west := &road.Sides[geometry.West]
	if east.OutConnect != west.Ref || west.OutConnect != east.Ref {
		t.Fatalf("road sides not cross-linked: %v %v", east.OutConnect, west.OutConnect)
	}
	if p := b.Partner(east); p != west {
		t.Errorf("Partner returned %v", p)
	}
	// Wedge 1 (east, northern half) touches the neighbour's wedge 4.
	if start.Farms[1].OutConnect != road.Farms[4].Ref || start.Farms[0].OutConnect != road.Farms[5].Ref {
		t.Errorf("farm wedges not linked across the boundary")
	}
	if start.Sides[geometry.North].Linked() {
		t.Errorf("north side has no neighbour and must stay unlinked")
	}
	if start.Sides[geometry.North].Group != NoFeature {
		t.Errorf("new nodes start without a group")
	}
}

func TestBoard_FrontierAndPossiblePositions(t *testing.T) {
	table := loadTable(t)
	b := New()
	start := table.MustGet("start")

	if got := b.FindPossiblePositions(start); len(got) != 4 {
		t.Fatalf("empty board should offer 4 rotations at the origin, got %d", len(got))
	}
	mustPlace(t, b, start, at(0, 0), geometry.Rotate0)
	if n := len(b.Frontier()); n != 4 {
		t.Fatalf("expected frontier of 4, got %d", n)
	}
	mustPlace(t, b, table.MustGet("road-straight"), at(1, 0), geometry.Rotate0)
	if n := len(b.Frontier()); n != 6 {
		t.Fatalf("expected frontier of 6, got %d", n)
	}
	if !b.HasNeighbor(at(2, 0)) || b.HasNeighbor(at(1, 0)) || b.HasNeighbor(at(5, 5)) {
		t.Errorf("HasNeighbor disagrees with the frontier")
	}

	frontier := make(map[geometry.Coord]bool)
	for _, c := range b.Frontier() {
		frontier[c] = true
	}
	cands := b.FindPossiblePositions(table.MustGet("road-curve"))
	if len(cands) == 0 {
		t.Fatalf("expected some legal curve placements")
	}
	for _, c := range cands {
		if !frontier[c.Coord] {
			t.Errorf("candidate %v outside the frontier", c.Coord)
		}
		if !b.CanPlace(table.MustGet("road-curve"), c.Coord, c.Rotation) {
			t.Errorf("candidate %v r%v is not placeable", c.Coord, c.Rotation)
		}
	}
}

func TestBoard_BridgeSpansField(t *testing.T) {
	table := loadTable(t)
	b := New()
	mustPlace(t, b, table.MustGet("cloister"), at(0, 0), geometry.Rotate0)

	if b.CanPlace(table.MustGet("road-straight"), at(1, 0), geometry.Rotate0) {
		t.Fatalf("plain road must not face a field")
	}
	pt := mustPlace(t, b, table.MustGet("road-bridge"), at(1, 0), geometry.Rotate0)
	side := &pt.Sides[geometry.West]
	if side.Linked() || !side.Sealed {
		t.Errorf("bridged side should be sealed, not linked")
	}
	if side.Open() {
		t.Errorf("sealed side must not count as open")
	}
	other, _ := b.At(at(0, 0))
	if !other.Sides[geometry.East].Sealed {
		t.Errorf("neighbour side should be sealed too")
	}
}

func TestBoard_CloisterLinkMatchesAnythingAndSeals(t *testing.T) {
	wild, err := tile.Definition{ID: "wild", Edges: "LFFF", Farms: []string{"234567"}}.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	table := loadTable(t)
	b := New()
	mustPlace(t, b, table.MustGet("city-cap"), at(0, 0), geometry.Rotate0)
	// Wildcard edge faces the city to the north.
	pt := mustPlace(t, b, wild, at(0, -1), geometry.Rotate270)
	if !pt.Sides[geometry.South].Sealed {
		t.Errorf("wildcard boundary should be sealed")
	}
}

func TestBoard_RiverMustContinue(t *testing.T) {
	table := loadTable(t)
	b := New()
	mustPlace(t, b, table.MustGet("river-source"), at(0, 0), geometry.Rotate0)

	err := b.Check(table.MustGet("river-straight"), at(0, 1), geometry.Rotate0)
	if !errors.Is(err, ErrRiverDirectionViolation) {
		t.Fatalf("detached river should be rejected, got %v", err)
	}
	if err := b.Check(table.MustGet("river-straight"), at(1, 0), geometry.Rotate0); err != nil {
		t.Fatalf("continuing river should be accepted, got %v", err)
	}
}

func TestBoard_RiverRejectsUTurn(t *testing.T) {
	table := loadTable(t)
	b := New()
	curve := table.MustGet("river-curve")
	mustPlace(t, b, table.MustGet("river-source"), at(0, 0), geometry.Rotate0)
	mustPlace(t, b, curve, at(1, 0), geometry.Rotate0)
	if b.LastRiverTurn() != geometry.TurnRight {
		t.Fatalf("expected a right bend, got %v", b.LastRiverTurn())
	}

	err := b.Check(curve, at(1, 1), geometry.Rotate270)
	if !errors.Is(err, ErrRiverDirectionViolation) {
		t.Errorf("second right bend should be rejected, got %v", err)
	}
	if err := b.Check(curve, at(1, 1), geometry.Rotate180); err != nil {
		t.Errorf("left bend should be accepted, got %v", err)
	}
}
