// Package board keeps the sparse grid of placed tiles, validates candidate
// placements and cross-links the nodes of neighbouring tiles.
package board

import (
	"slices"

	"github.com/Ko-stant/tilefeature-engine/internal/geometry"
	"github.com/Ko-stant/tilefeature-engine/internal/tile"
)

// Candidate is one legal placement for a template.
type Candidate struct {
	Coord    geometry.Coord    `json:"coord"`
	Rotation geometry.Rotation `json:"rotation"`
}

// Board is the sparse coordinate to tile map plus the frontier of empty
// cells touching it.
type Board struct {
	tiles    []*PlacedTile
	cells    map[geometry.Coord]TileRef
	frontier map[geometry.Coord]struct{}

	lastRiverTurn geometry.Turn
}

func New() *Board {
	return &Board{
		cells:    make(map[geometry.Coord]TileRef),
		frontier: make(map[geometry.Coord]struct{}),
	}
}

func (b *Board) Len() int { return len(b.tiles) }

// Tile dereferences a tile handle; it returns nil for NoTile or unknown refs.
func (b *Board) Tile(ref TileRef) *PlacedTile {
	if ref < 0 || int(ref) >= len(b.tiles) {
		return nil
	}
	return b.tiles[ref]
}

func (b *Board) At(c geometry.Coord) (*PlacedTile, bool) {
	ref, ok := b.cells[c]
	if !ok {
		return nil, false
	}
	return b.tiles[ref], true
}

func (b *Board) Occupied(c geometry.Coord) bool {
	_, ok := b.cells[c]
	return ok
}

// Node dereferences a node handle.
func (b *Board) Node(ref NodeRef) *Node {
	pt := b.Tile(ref.Tile)
	if pt == nil {
		return nil
	}
	return pt.Node(ref.Kind, ref.Index)
}

// Partner returns the node n is linked to, or nil.
func (b *Board) Partner(n *Node) *Node {
	if n == nil || !n.Linked() {
		return nil
	}
	return b.Node(n.OutConnect)
}

// Tiles returns placed tiles in placement order.
func (b *Board) Tiles() []*PlacedTile { return slices.Clone(b.tiles) }

// HasNeighbor reports whether c is empty and touches at least one placed tile.
func (b *Board) HasNeighbor(c geometry.Coord) bool {
	if b.Occupied(c) {
		return false
	}
	_, ok := b.frontier[c]
	return ok
}

// Frontier returns the empty cells adjacent to placed tiles, row-major.
func (b *Board) Frontier() []geometry.Coord {
	out := make([]geometry.Coord, 0, len(b.frontier))
	for c := range b.frontier {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, c geometry.Coord) int {
		switch {
		case a.Less(c):
			return -1
		case c.Less(a):
			return 1
		}
		return 0
	})
	return out
}

func (b *Board) LastRiverTurn() geometry.Turn { return b.lastRiverTurn }

// CanPlace reports whether t may occupy c with rotation r. It never mutates the board.
func (b *Board) CanPlace(t *tile.Template, c geometry.Coord, r geometry.Rotation) bool {
	return b.Check(t, c, r) == nil
}

// Check is CanPlace with the reason for rejection.
func (b *Board) Check(t *tile.Template, c geometry.Coord, r geometry.Rotation) error {
	r = r.Normalize()
	if t == nil {
		return &PlacementError{Reason: ErrUnknownTemplate, Coord: c}
	}
	if b.Occupied(c) {
		return &PlacementError{Reason: ErrCellOccupied, Coord: c}
	}
	if len(b.tiles) == 0 {
		return nil
	}
	if !b.HasNeighbor(c) {
		return &PlacementError{Reason: ErrNoNeighbor, Coord: c}
	}
	for _, d := range geometry.Directions {
		n, ok := b.At(c.Neighbor(d))
		if !ok {
			continue
		}
		mine := t.EdgeAt(d, r)
		theirs := n.Template.EdgeAt(d.Opposite(), n.Rotation)
		if tile.Compatible(mine, theirs) || bridged(t, r, d, n) {
			continue
		}
		return &PlacementError{Reason: ErrEdgeMismatch, Coord: c, Dir: d}
	}
	if _, ok := b.riverTurn(t, c, r); !ok {
		return &PlacementError{Reason: ErrRiverDirectionViolation, Coord: c}
	}
	return nil
}

// bridged reports whether a road carried on a bridge spans a field edge on side d.
func bridged(t *tile.Template, r geometry.Rotation, d geometry.Direction, n *PlacedTile) bool {
	mine := t.EdgeAt(d, r)
	opp := d.Opposite()
	theirs := n.Template.EdgeAt(opp, n.Rotation)
	switch {
	case mine == tile.Road && theirs == tile.Field:
		return t.SideMaskAt(t.Bridge, r)&d.Mask() != 0
	case mine == tile.Field && theirs == tile.Road:
		return n.Template.SideMaskAt(n.Template.Bridge, n.Rotation)&opp.Mask() != 0
	}
	return false
}

// riverTurn applies the continuity rules for river tiles: a river must join
// an existing river edge, and two consecutive bends may not turn the same way.
// It returns the bend this tile introduces.
func (b *Board) riverTurn(t *tile.Template, c geometry.Coord, r geometry.Rotation) (geometry.Turn, bool) {
	rivers := t.RiverSides(r)
	if rivers == 0 || len(b.tiles) == 0 {
		return geometry.NoTurn, true
	}
	var joined uint8
	for _, d := range geometry.Directions {
		if rivers&d.Mask() == 0 {
			continue
		}
		n, ok := b.At(c.Neighbor(d))
		if ok && n.Template.EdgeAt(d.Opposite(), n.Rotation) == tile.River {
			joined |= d.Mask()
		}
	}
	if joined == 0 {
		return geometry.NoTurn, false
	}
	if geometry.PopCount(rivers) != 2 || geometry.PopCount(joined) != 1 {
		return geometry.NoTurn, true
	}
	var in, out geometry.Direction
	for _, d := range geometry.Directions {
		if joined&d.Mask() != 0 {
			in = d
		} else if rivers&d.Mask() != 0 {
			out = d
		}
	}
	turn := geometry.RiverTurn(in, out)
	if (turn == geometry.TurnLeft || turn == geometry.TurnRight) && turn == b.lastRiverTurn {
		return turn, false
	}
	return turn, true
}

// Place validates and then commits a placement: the tile is allocated, every
// boundary with an existing neighbour is linked or sealed, and the frontier
// is updated. On error the board is untouched.
func (b *Board) Place(t *tile.Template, c geometry.Coord, r geometry.Rotation) (*PlacedTile, error) {
	r = r.Normalize()
	if err := b.Check(t, c, r); err != nil {
		return nil, err
	}
	turn, _ := b.riverTurn(t, c, r)

	ref := TileRef(len(b.tiles))
	pt := newPlacedTile(ref, t, c, r)
	b.tiles = append(b.tiles, pt)
	b.cells[c] = ref
	delete(b.frontier, c)

	for _, d := range geometry.Directions {
		nc := c.Neighbor(d)
		n, ok := b.At(nc)
		if !ok {
			b.frontier[nc] = struct{}{}
			continue
		}
		link(pt, n, d)
	}
	if turn == geometry.TurnLeft || turn == geometry.TurnRight {
		b.lastRiverTurn = turn
	}
	return pt, nil
}

// link joins pt to its neighbour n across pt's side d.
func link(pt, n *PlacedTile, d geometry.Direction) {
	mine := &pt.Sides[d]
	theirs := &n.Sides[d.Opposite()]
	if mine.Edge == theirs.Edge {
		mine.OutConnect = theirs.Ref
		theirs.OutConnect = mine.Ref
	} else {
		mine.Sealed = true
		theirs.Sealed = true
	}
	for i := uint8(0); i < 2; i++ {
		w := 2*uint8(d) + i
		fw := &pt.Farms[w]
		pw := &n.Farms[geometry.PartnerWedge(w)]
		if fw.Present() && pw.Present() {
			fw.OutConnect = pw.Ref
			pw.OutConnect = fw.Ref
		}
	}
}

// FindPossiblePositions enumerates legal placements by scanning only the
// frontier. An empty board offers the origin in every rotation.
func (b *Board) FindPossiblePositions(t *tile.Template) []Candidate {
	if t == nil {
		return nil
	}
	if len(b.tiles) == 0 {
		out := make([]Candidate, 0, 4)
		for _, r := range geometry.Rotations {
			out = append(out, Candidate{Coord: geometry.Coord{}, Rotation: r})
		}
		return out
	}
	var out []Candidate
	for _, c := range b.Frontier() {
		for _, r := range geometry.Rotations {
			if b.CanPlace(t, c, r) {
				out = append(out, Candidate{Coord: c, Rotation: r})
			}
		}
	}
	return out
}
