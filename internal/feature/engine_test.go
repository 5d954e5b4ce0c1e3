package feature

import (
	"errors"
	"testing"

	"github.com/Ko-stant/tilefeature-engine/internal/board"
	"github.com/Ko-stant/tilefeature-engine/internal/geometry"
	"github.com/Ko-stant/tilefeature-engine/internal/tile"
)

type fixture struct {
	t      *testing.T
	table  *tile.Table
	board  *board.Board
	engine *Engine
	extra  map[tile.ID]*tile.Template
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	table, err := tile.DefaultTable()
	if err != nil {
		t.Fatalf("failed to load default tileset: %v", err)
	}
	b := board.New()
	fx := &fixture{
		t:      t,
		table:  table,
		board:  b,
		engine: NewEngine(b, Options{}),
		extra:  make(map[tile.ID]*tile.Template),
	}
	fx.define(tile.Definition{ID: "field", Edges: "FFFF", Farms: []string{"01234567"}})
	fx.define(tile.Definition{ID: "dead-end", Edges: "RFFF", RoadCenter: "E", Farms: []string{"01234567"}})
	fx.define(tile.Definition{ID: "wild", Edges: "LFFF", Farms: []string{"234567"}})
	return fx
}

func (fx *fixture) define(def tile.Definition) {
	fx.t.Helper()
	tpl, err := def.Build()
	if err != nil {
		fx.t.Fatalf("build %s: %v", def.ID, err)
	}
	fx.extra[tpl.ID] = tpl
}

func (fx *fixture) tpl(id tile.ID) *tile.Template {
	if tpl, ok := fx.extra[id]; ok {
		return tpl
	}
	return fx.table.MustGet(id)
}

// place puts a tile down, processes it and audits the whole engine.
func (fx *fixture) place(id tile.ID, x, y int, r geometry.Rotation) (*board.PlacedTile, UpdateResult) {
	fx.t.Helper()
	pt, err := fx.board.Place(fx.tpl(id), geometry.Coord{X: x, Y: y}, r)
	if err != nil {
		fx.t.Fatalf("place %s at (%d,%d) r%v: %v", id, x, y, r, err)
	}
	res, err := fx.engine.ProcessPlacement(pt.Ref)
	if err != nil {
		fx.t.Fatalf("process %s: %v", id, err)
	}
	if err := Audit(fx.board, fx.engine); err != nil {
		fx.t.Fatalf("audit after %s at (%d,%d): %+v", id, x, y, err)
	}
	return pt, res
}

func (fx *fixture) live(kind Kind) []*Feature {
	var out []*Feature
	for _, f := range fx.engine.Live() {
		if f.Kind() == kind {
			out = append(out, f)
		}
	}
	return out
}

func (fx *fixture) featureOf(pt *board.PlacedTile, d geometry.Direction) *Feature {
	fx.t.Helper()
	f, err := fx.engine.Get(pt.Sides[d].Group)
	if err != nil {
		fx.t.Fatalf("side %v of %v: %v", d, pt, err)
	}
	return f
}

func TestProcessPlacement_RoadPair(t *testing.T) {
	fx := newFixture(t)
	fx.place("dead-end", 0, 0, geometry.Rotate0)
	_, res := fx.place("road-straight", 1, 0, geometry.Rotate0)

	roads := fx.live(Road)
	if len(roads) != 1 {
		t.Fatalf("expected exactly one road, got %d", len(roads))
	}
	road := roads[0]
	if road.TileCount() != 2 {
		t.Errorf("expected 2 member tiles, got %d", road.TileCount())
	}
	if road.OpenEdges() != 1 {
		t.Errorf("expected 1 open edge, got %d", road.OpenEdges())
	}
	if !road.HasTile(geometry.Coord{X: 1, Y: 0}) || road.HasTile(geometry.Coord{X: 2, Y: 0}) {
		t.Errorf("unexpected members %v", road.Tiles())
	}
	if nodes := road.Nodes(); len(nodes) != 3 {
		t.Errorf("expected 3 member side nodes, got %v", nodes)
	}
	if road.IsComplete() || len(res.Completed) != 0 {
		t.Errorf("road must still be open")
	}
	if res.Merged != 0 {
		t.Errorf("no merge expected, got %d", res.Merged)
	}
}

func TestProcessPlacement_BridgingCityMerges(t *testing.T) {
	fx := newFixture(t)
	left, _ := fx.place("city-cap", 0, 0, geometry.Rotate270)
	fx.place("cloister", 0, 1, geometry.Rotate0)
	fx.place("cloister", 1, 1, geometry.Rotate0)
	fx.place("cloister", 2, 1, geometry.Rotate0)
	right, _ := fx.place("city-cap", 2, 0, geometry.Rotate90)

	if n := len(fx.live(City)); n != 2 {
		t.Fatalf("expected 2 separate cities, got %d", n)
	}
	leftID := fx.featureOf(left, geometry.East).ID()
	rightID := fx.featureOf(right, geometry.West).ID()

	mid, res := fx.place("city-tube", 1, 0, geometry.Rotate90)
	if res.Merged != 1 {
		t.Fatalf("expected one merge, got %d", res.Merged)
	}
	cities := fx.live(City)
	if len(cities) != 1 {
		t.Fatalf("expected a single merged city, got %d", len(cities))
	}
	city := cities[0]
	if city.TileCount() != 3 {
		t.Errorf("expected 3 tiles, got %d", city.TileCount())
	}
	if city.OpenEdges() != 0 || !city.IsComplete() {
		t.Errorf("merged city should be closed: %v", city)
	}
	if len(res.Completed) != 1 || res.Completed[0] != city.ID() {
		t.Errorf("expected completion of %d, got %v", city.ID(), res.Completed)
	}
	if fx.featureOf(mid, geometry.West).ID() != city.ID() {
		t.Errorf("bridging tile not in the merged city")
	}

	// Exactly one of the two original ids survives; the other is a tombstone.
	dead := leftID
	if city.ID() == leftID {
		dead = rightID
	}
	if !fx.engine.Table().IsTombstoned(dead) {
		t.Fatalf("absorbed id %d should be tombstoned", dead)
	}
	if _, err := fx.engine.Get(dead); !errors.Is(err, ErrStaleHandle) {
		t.Errorf("reading a tombstone should fail with ErrStaleHandle, got %v", err)
	}
	resolved, err := fx.engine.Resolve(dead)
	if err != nil || resolved.ID() != city.ID() {
		t.Errorf("Resolve should follow the tombstone to %d, got %v %v", city.ID(), resolved, err)
	}
}

func TestProcessPlacement_CloisterCompletesOnEighthNeighbour(t *testing.T) {
	fx := newFixture(t)
	center, _ := fx.place("cloister", 0, 0, geometry.Rotate0)
	ring := []geometry.Coord{{X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}, {X: -1, Y: 1}, {X: -1, Y: 0}, {X: -1, Y: -1}, {X: 0, Y: -1}, {X: 1, Y: -1}}

	for i, c := range ring {
		_, res := fx.place("field", c.X, c.Y, geometry.Rotate0)
		f, err := fx.engine.Get(center.Center)
		if err != nil {
			t.Fatalf("cloister lookup: %v", err)
		}
		last := i == len(ring)-1
		if f.IsComplete() != last {
			t.Fatalf("after %d neighbours complete=%v", i+1, f.IsComplete())
		}
		completedNow := false
		for _, id := range res.Completed {
			if id == f.ID() {
				completedNow = true
			}
		}
		if completedNow != last {
			t.Fatalf("completion reported after %d neighbours", i+1)
		}
		if f.OpenEdges() != CloisterNeighbors-(i+1) {
			t.Errorf("expected %d missing neighbours, got %d", CloisterNeighbors-(i+1), f.OpenEdges())
		}
	}
	v, err := fx.engine.Value(center.Center)
	if err != nil || v != 9 {
		t.Errorf("complete cloister should be worth 9, got %d (%v)", v, err)
	}
}

func TestProcessPlacement_CloisterCountsExistingNeighbours(t *testing.T) {
	fx := newFixture(t)
	fx.place("field", 0, 0, geometry.Rotate0)
	fx.place("field", 1, 0, geometry.Rotate0)
	pt, _ := fx.place("cloister", 1, 1, geometry.Rotate0)
	f, err := fx.engine.Get(pt.Center)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	p := f.Payload().(*CloisterPayload)
	if p.Neighbors != 2 || f.TileCount() != 3 {
		t.Errorf("expected 2 neighbours and 3 tiles, got %d and %d", p.Neighbors, f.TileCount())
	}
}

func TestProcessPlacement_CastleUsesLargerNeighbourhood(t *testing.T) {
	fx := newFixture(t)
	pt, _ := fx.place("castle", 0, 0, geometry.Rotate0)
	fx.place("field", 1, 0, geometry.Rotate0)
	fx.place("field", 2, 0, geometry.Rotate0)
	fx.place("field", 3, 0, geometry.Rotate0)
	f, err := fx.engine.Get(pt.Center)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got := f.Payload().(*CastlePayload).Neighbors; got != 2 {
		t.Errorf("castle should count tiles within radius 2 only, got %d", got)
	}
	if f.OpenEdges() != CastleNeighbors-2 {
		t.Errorf("unexpected open count %d", f.OpenEdges())
	}
}

func TestProcessPlacement_WildcardSealsCity(t *testing.T) {
	fx := newFixture(t)
	capTile, _ := fx.place("city-cap", 0, 0, geometry.Rotate0)
	city := fx.featureOf(capTile, geometry.North)
	if city.OpenEdges() != 1 {
		t.Fatalf("expected a single open city edge, got %d", city.OpenEdges())
	}
	_, res := fx.place("wild", 0, -1, geometry.Rotate270)
	if !city.IsComplete() || city.OpenEdges() != 0 {
		t.Errorf("wildcard should close the city: %v", city)
	}
	if len(res.Completed) != 1 {
		t.Errorf("expected the city to complete, got %v", res.Completed)
	}
}

func TestProcessPlacement_BridgeClosesRoad(t *testing.T) {
	fx := newFixture(t)
	fx.place("dead-end", 0, 0, geometry.Rotate0)
	bridge, _ := fx.place("road-bridge", 1, 0, geometry.Rotate0)
	road := fx.featureOf(bridge, geometry.West)
	if road.OpenEdges() != 1 {
		t.Fatalf("expected one open road edge, got %d", road.OpenEdges())
	}
	fx.place("cloister", 2, 0, geometry.Rotate0)
	if road.OpenEdges() != 0 || !road.IsComplete() {
		t.Errorf("bridge over the field should finish the road: %v", road)
	}
}

func TestProcessPlacement_FarmRecordsAdjacentCities(t *testing.T) {
	fx := newFixture(t)
	start, _ := fx.place("start", 0, 0, geometry.Rotate0)
	fx.place("city-cap", 0, -1, geometry.Rotate180)

	city := fx.featureOf(start, geometry.North)
	if !city.IsComplete() || city.TileCount() != 2 {
		t.Fatalf("expected a complete two tile city, got %v", city)
	}
	farm, err := fx.engine.Get(start.Farms[1].Group)
	if err != nil {
		t.Fatalf("farm lookup: %v", err)
	}
	if farm.Kind() != Farm {
		t.Fatalf("wedge 1 should be farmland, got %v", farm.Kind())
	}
	v, err := fx.engine.Value(farm.ID())
	if err != nil || v != FarmPointsPerCity {
		t.Errorf("farm bordering one complete city should be worth %d, got %d (%v)", FarmPointsPerCity, v, err)
	}
	south, err := fx.engine.Get(start.Farms[6].Group)
	if err != nil {
		t.Fatalf("farm lookup: %v", err)
	}
	if v, _ := fx.engine.Value(south.ID()); v != 0 {
		t.Errorf("southern farm borders no city, got %d", v)
	}
}

func TestProcessPlacement_FarmCountsMergedCityOnce(t *testing.T) {
	fx := newFixture(t)
	// The two caps start as separate cities and are joined around the east side.
	caps, _ := fx.place("city-two-caps", 0, 0, geometry.Rotate0)
	farm, err := fx.engine.Get(caps.Farms[0].Group)
	if err != nil {
		t.Fatalf("farm lookup: %v", err)
	}
	if got := len(farm.Payload().(*FarmPayload).Cities); got != 2 {
		t.Fatalf("farm should border two cities, got %d", got)
	}

	fx.place("city-corner", 0, -1, geometry.Rotate180)
	fx.place("city-corner", 1, -1, geometry.Rotate90)
	fx.place("city-tube", 1, 0, geometry.Rotate0)
	fx.place("city-corner", 1, 1, geometry.Rotate0)
	_, res := fx.place("city-corner", 0, 1, geometry.Rotate270)

	cities := fx.live(City)
	if len(cities) != 1 || !cities[0].IsComplete() {
		t.Fatalf("expected one complete city, got %v", cities)
	}
	if len(res.Completed) != 1 {
		t.Errorf("expected the ring to complete the city, got %v", res.Completed)
	}
	farm, err = fx.engine.Resolve(caps.Farms[0].Group)
	if err != nil {
		t.Fatalf("farm lookup: %v", err)
	}
	v, err := fx.engine.Value(farm.ID())
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	if v != FarmPointsPerCity {
		t.Errorf("merged city must count once: got %d", v)
	}
}

func TestEngine_StrictPanicsOnStaleHandle(t *testing.T) {
	b := board.New()
	e := NewEngine(b, Options{Strict: true})
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrStaleHandle) {
			t.Fatalf("expected panic with ErrStaleHandle, got %v", r)
		}
	}()
	_, _ = e.Get(42)
}

func TestEngine_UnknownTileIsAnError(t *testing.T) {
	e := NewEngine(board.New(), Options{})
	if _, err := e.ProcessPlacement(7); err == nil {
		t.Fatalf("expected error for a tile that was never placed")
	}
}
