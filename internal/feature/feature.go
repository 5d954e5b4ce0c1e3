// Package feature tracks the connected cities, roads, farms and
// cloister-class regions formed by placed tiles. Features live in an arena
// addressed by ID; a feature absorbed by a merge is tombstoned, never freed.
package feature

import (
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/Ko-stant/tilefeature-engine/internal/board"
	"github.com/Ko-stant/tilefeature-engine/internal/geometry"
)

type ID = board.FeatureID

const None = board.NoFeature

type Kind uint8

const (
	City Kind = iota
	Road
	Farm
	Cloister
	GermanCastle
)

func (k Kind) String() string {
	switch k {
	case City:
		return "city"
	case Road:
		return "road"
	case Farm:
		return "farm"
	case Cloister:
		return "cloister"
	case GermanCastle:
		return "castle"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

type State uint8

const (
	Open State = iota
	Complete
)

func (s State) String() string {
	if s == Complete {
		return "complete"
	}
	return "open"
}

const (
	CloisterRadius    = 1
	CloisterNeighbors = 8
	CastleRadius      = 2
	CastleNeighbors   = 24
)

// Payload carries the per-kind state of a feature. The set of
// implementations is closed; every dispatch site switches over all of them.
type Payload interface {
	kind() Kind
}

type CityPayload struct {
	Pennants  int
	Cathedral bool
}

type RoadPayload struct {
	Inn bool
}

// FarmPayload keeps every city the farm has ever bordered. Entries may be
// tombstoned ids; they are resolved and deduplicated when scoring.
type FarmPayload struct {
	Cities []ID
}

type CloisterPayload struct {
	Center    geometry.Coord
	Neighbors int
}

type CastlePayload struct {
	Center    geometry.Coord
	Neighbors int
}

func (*CityPayload) kind() Kind     { return City }
func (*RoadPayload) kind() Kind     { return Road }
func (*FarmPayload) kind() Kind     { return Farm }
func (*CloisterPayload) kind() Kind { return Cloister }
func (*CastlePayload) kind() Kind   { return GermanCastle }

func newPayload(k Kind, center geometry.Coord) Payload {
	switch k {
	case City:
		return &CityPayload{}
	case Road:
		return &RoadPayload{}
	case Farm:
		return &FarmPayload{}
	case Cloister:
		return &CloisterPayload{Center: center}
	case GermanCastle:
		return &CastlePayload{Center: center}
	}
	panic(fmt.Sprintf("feature: unknown kind %d", k))
}

// Feature is one connected region. Only the engine mutates it.
type Feature struct {
	id       ID
	kind     Kind
	state    State
	retired  bool
	redirect ID

	tiles     map[geometry.Coord]struct{}
	nodes     []board.NodeRef
	open      int
	occupants []Token
	payload   Payload
}

func (f *Feature) ID() ID           { return f.id }
func (f *Feature) Kind() Kind       { return f.kind }
func (f *Feature) State() State     { return f.state }
func (f *Feature) IsComplete() bool { return f.state == Complete }

// Retired features have been scored and keep their data for audit.
func (f *Feature) Retired() bool { return f.retired }

func (f *Feature) OpenEdges() int   { return f.open }
func (f *Feature) TileCount() int   { return len(f.tiles) }
func (f *Feature) Payload() Payload { return f.payload }

func (f *Feature) HasTile(c geometry.Coord) bool {
	_, ok := f.tiles[c]
	return ok
}

// Tiles returns member coordinates row-major.
func (f *Feature) Tiles() []geometry.Coord {
	out := lo.Keys(f.tiles)
	slices.SortFunc(out, func(a, b geometry.Coord) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		}
		return 0
	})
	return out
}

func (f *Feature) Nodes() []board.NodeRef { return slices.Clone(f.nodes) }

func (f *Feature) Occupants() []Token { return slices.Clone(f.occupants) }

func (f *Feature) tombstoned() bool { return f.redirect != None }

func (f *Feature) String() string {
	return fmt.Sprintf("%v#%d(%d tiles, %d open, %v)", f.kind, f.id, len(f.tiles), f.open, f.state)
}

// required returns the neighbour count a cloister-class feature needs.
func (f *Feature) required() int {
	switch f.payload.(type) {
	case *CloisterPayload:
		return CloisterNeighbors
	case *CastlePayload:
		return CastleNeighbors
	}
	return 0
}

// completeNow evaluates the completion predicate for the feature's kind.
func (f *Feature) completeNow() bool {
	switch p := f.payload.(type) {
	case *CityPayload, *RoadPayload:
		return f.open == 0
	case *FarmPayload:
		return false
	case *CloisterPayload:
		return p.Neighbors == CloisterNeighbors
	case *CastlePayload:
		return p.Neighbors == CastleNeighbors
	default:
		panic(fmt.Sprintf("feature: unhandled payload %T", p))
	}
}
