package feature

import (
	"math/rand/v2"
	"testing"

	"github.com/Ko-stant/tilefeature-engine/internal/geometry"
	"github.com/Ko-stant/tilefeature-engine/internal/tile"
)

func tileUnion(e *Engine, k Kind) map[geometry.Coord]struct{} {
	out := make(map[geometry.Coord]struct{})
	for _, f := range e.Live() {
		if f.Kind() != k {
			continue
		}
		for c := range f.tiles {
			out[c] = struct{}{}
		}
	}
	return out
}

// TestRandomGames plays seeded random games, auditing the engine after every
// placement and checking that merges never lose member tiles.
func TestRandomGames(t *testing.T) {
	for seed := uint64(1); seed <= 8; seed++ {
		fx := newFixture(t)
		rng := rand.New(rand.NewPCG(seed, seed*7919))
		ids := fx.table.IDs()

		placed := 0
		for draw := 0; draw < 120; draw++ {
			tpl := fx.tpl(ids[rng.IntN(len(ids))])
			cands := fx.board.FindPossiblePositions(tpl)
			if len(cands) == 0 {
				continue
			}
			c := cands[rng.IntN(len(cands))]

			before := map[Kind]map[geometry.Coord]struct{}{
				City: tileUnion(fx.engine, City),
				Road: tileUnion(fx.engine, Road),
				Farm: tileUnion(fx.engine, Farm),
			}
			pt, _ := fx.place(tpl.ID, c.Coord.X, c.Coord.Y, c.Rotation)
			placed++

			for k, prev := range before {
				after := tileUnion(fx.engine, k)
				for coord := range prev {
					if _, ok := after[coord]; !ok {
						t.Fatalf("seed %d: %v lost tile %v after placing %v", seed, k, coord, pt)
					}
				}
				for coord := range after {
					if _, ok := prev[coord]; !ok && coord != pt.Coord {
						t.Fatalf("seed %d: %v gained unrelated tile %v", seed, k, coord)
					}
				}
			}
		}
		if placed < 20 {
			t.Fatalf("seed %d: only %d placements succeeded", seed, placed)
		}
	}
}

func TestAudit_DetectsCorruptedOpenCount(t *testing.T) {
	fx := newFixture(t)
	pt, _ := fx.place("road-straight", 0, 0, geometry.Rotate0)
	road := fx.featureOf(pt, geometry.East)
	road.open++
	if err := Audit(fx.board, fx.engine); err == nil {
		t.Fatalf("audit should notice the bad open count")
	}
}

func TestAudit_DetectsOrphanNode(t *testing.T) {
	fx := newFixture(t)
	pt, _ := fx.place("road-straight", 0, 0, geometry.Rotate0)
	fx.place("road-straight", 1, 0, geometry.Rotate0)
	pt.Sides[geometry.East].Group = fx.engine.table.alloc(Road, pt.Coord).id
	if err := Audit(fx.board, fx.engine); err == nil {
		t.Fatalf("audit should notice the regrouped node")
	}
}

func TestAudit_DetectsNodeOutsideMemberTiles(t *testing.T) {
	fx := newFixture(t)
	fx.place("road-straight", 0, 0, geometry.Rotate0)
	pt, _ := fx.place("road-straight", 1, 0, geometry.Rotate0)
	road := fx.featureOf(pt, geometry.West)
	delete(road.tiles, pt.Coord)
	if road.HasTile(pt.Coord) {
		t.Fatalf("tile should be gone from the member set")
	}
	if err := Audit(fx.board, fx.engine); err == nil {
		t.Fatalf("audit should notice a node whose tile is not a member")
	}
}

func TestDefaultTableTilesAllProcess(t *testing.T) {
	table, err := tile.DefaultTable()
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range table.IDs() {
		for _, r := range geometry.Rotations {
			fx := newFixture(t)
			fx.place(id, 0, 0, r)
			if len(fx.engine.Live()) == 0 {
				t.Errorf("%s r%v produced no features", id, r)
			}
		}
	}
}
