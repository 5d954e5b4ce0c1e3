package feature

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/Ko-stant/tilefeature-engine/internal/board"
	"github.com/Ko-stant/tilefeature-engine/internal/geometry"
	"github.com/Ko-stant/tilefeature-engine/internal/tile"
)

// Logger interface for logging abstraction
type Logger interface {
	Printf(format string, v ...interface{})
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...interface{}) {}

type Options struct {
	// Strict panics on invariant violations instead of returning them.
	Strict bool
	Logger Logger
}

// UpdateResult reports what one placement did to the feature partition.
type UpdateResult struct {
	Touched   []ID `json:"touched"`
	Merged    int  `json:"merged"`
	Completed []ID `json:"completed"`
}

// Engine incrementally maintains features as tiles are placed on a board.
type Engine struct {
	board   *board.Board
	table   *Table
	centers map[geometry.Coord]ID
	strict  bool
	logger  Logger
}

func NewEngine(b *board.Board, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = nopLogger{}
	}
	return &Engine{
		board:   b,
		table:   NewTable(),
		centers: make(map[geometry.Coord]ID),
		strict:  opts.Strict,
		logger:  logger,
	}
}

func (e *Engine) Table() *Table { return e.table }

// fail surfaces an invariant violation.
func (e *Engine) fail(err error) error {
	if e.strict {
		panic(err)
	}
	return err
}

// Get dereferences a live feature; a tombstoned id is an invariant violation.
func (e *Engine) Get(id ID) (*Feature, error) {
	f, err := e.table.Get(id)
	if err != nil {
		return nil, e.fail(err)
	}
	return f, nil
}

// Resolve follows merges from any id ever handed out to the live feature.
func (e *Engine) Resolve(id ID) (*Feature, error) {
	root, err := e.table.Find(id)
	if err != nil {
		return nil, e.fail(err)
	}
	return e.Get(root)
}

// Live returns the live features in id order.
func (e *Engine) Live() []*Feature { return e.table.Live() }

func (e *Engine) relink(ref board.NodeRef, to ID) {
	if n := e.board.Node(ref); n != nil {
		n.Group = to
	}
}

// touchSet keeps touched ids in first-seen order.
type touchSet struct {
	ids  []ID
	seen map[ID]struct{}
}

func (s *touchSet) add(id ID) {
	if s.seen == nil {
		s.seen = make(map[ID]struct{})
	}
	if _, ok := s.seen[id]; ok {
		return
	}
	s.seen[id] = struct{}{}
	s.ids = append(s.ids, id)
}

// ProcessPlacement folds a freshly placed tile into the partition: each
// linked group of sides or wedges joins, creates or merges features, then
// cloister-class neighbourhoods are counted and completion is evaluated.
func (e *Engine) ProcessPlacement(ref board.TileRef) (UpdateResult, error) {
	var res UpdateResult
	pt := e.board.Tile(ref)
	if pt == nil {
		return res, e.fail(errors.Errorf("feature: tile %d is not on the board", ref))
	}
	var touched touchSet

	for _, links := range pt.Groups(board.SideNode) {
		first := pt.Sides[lowestBit(links)]
		kind, ok := kindForEdge(first.Edge)
		if !ok {
			continue
		}
		f, merged, err := e.joinGroup(pt, board.SideNode, links, kind)
		if err != nil {
			return res, err
		}
		e.decorate(pt, f, links)
		res.Merged += merged
		touched.add(f.id)
	}

	for _, links := range pt.Groups(board.FarmNode) {
		f, merged, err := e.joinGroup(pt, board.FarmNode, links, Farm)
		if err != nil {
			return res, err
		}
		e.linkFarmCities(pt, f, links)
		res.Merged += merged
		touched.add(f.id)
	}

	if err := e.closeSealed(pt, &touched); err != nil {
		return res, err
	}
	if err := e.countCenters(pt, &touched); err != nil {
		return res, err
	}

	for _, id := range touched.ids {
		f, err := e.Resolve(id)
		if err != nil {
			return res, err
		}
		if lo.Contains(res.Touched, f.id) {
			continue
		}
		res.Touched = append(res.Touched, f.id)
		if f.open < 0 {
			return res, e.fail(errors.Wrapf(ErrInconsistentOpenCount, "%v after placing %v", f, pt))
		}
		if f.state == Open && f.completeNow() {
			f.state = Complete
			res.Completed = append(res.Completed, f.id)
			e.logger.Printf("feature %v completed by %v", f, pt)
		}
	}
	return res, nil
}

func lowestBit(mask uint8) uint8 {
	for i := uint8(0); i < 8; i++ {
		if mask&(1<<i) != 0 {
			return i
		}
	}
	return 0
}

func kindForEdge(e tile.EdgeType) (Kind, bool) {
	switch e {
	case tile.City:
		return City, true
	case tile.Road:
		return Road, true
	}
	return 0, false
}

// joinGroup assigns one linked group of the new tile's nodes to a feature.
// Distinct neighbouring features are collected in first-encountered order;
// the first survives and absorbs the rest.
func (e *Engine) joinGroup(pt *board.PlacedTile, kind board.NodeKind, links uint8, fk Kind) (*Feature, int, error) {
	var (
		ids    []ID
		open   int
		closed int
		nodes  []*board.Node
	)
	var err error
	geometry.ForEachBit(links, func(i uint8) {
		if err != nil {
			return
		}
		n := pt.Node(kind, i)
		nodes = append(nodes, n)
		if n.Open() {
			open++
		}
		partner := e.board.Partner(n)
		if partner == nil || partner.Group == None {
			return
		}
		closed++
		root, ferr := e.table.Find(partner.Group)
		if ferr != nil {
			err = e.fail(ferr)
			return
		}
		if !lo.Contains(ids, root) {
			ids = append(ids, root)
		}
	})
	if err != nil {
		return nil, 0, err
	}

	var f *Feature
	merged := 0
	if len(ids) == 0 {
		f = e.table.alloc(fk, pt.Coord)
	} else {
		if f, err = e.Get(ids[0]); err != nil {
			return nil, 0, err
		}
		for _, other := range ids[1:] {
			o, err := e.Get(other)
			if err != nil {
				return nil, 0, err
			}
			survivor := f.id
			if err := e.table.merge(f, o, func(ref board.NodeRef) { e.relink(ref, survivor) }); err != nil {
				return nil, 0, e.fail(err)
			}
			merged++
			e.logger.Printf("merged %v#%d into %v at %v", fk, other, f, pt.Coord)
		}
	}

	for _, n := range nodes {
		n.Group = f.id
		f.nodes = append(f.nodes, n.Ref)
	}
	f.tiles[pt.Coord] = struct{}{}
	f.open += open - closed
	return f, merged, nil
}

// decorate applies per-side tile content to the city or road group owning it.
func (e *Engine) decorate(pt *board.PlacedTile, f *Feature, links uint8) {
	tpl := pt.Template
	has := func(local uint8) bool { return tpl.SideMaskAt(local, pt.Rotation)&links != 0 }
	switch p := f.payload.(type) {
	case *CityPayload:
		if has(tpl.Pennants) {
			p.Pennants++
		}
		if has(tpl.Cathedral) {
			p.Cathedral = true
		}
	case *RoadPayload:
		if has(tpl.Inn) {
			p.Inn = true
		}
	}
}

// linkFarmCities records the city features bordering a farm group.
func (e *Engine) linkFarmCities(pt *board.PlacedTile, f *Feature, links uint8) {
	p, ok := f.payload.(*FarmPayload)
	if !ok {
		return
	}
	var cities uint8
	geometry.ForEachBit(links, func(w uint8) {
		cities |= pt.Template.FarmCitiesAt(w, pt.Rotation)
	})
	geometry.ForEachBit(cities, func(d uint8) {
		g := pt.Sides[d].Group
		if g != None && !lo.Contains(p.Cities, g) {
			p.Cities = append(p.Cities, g)
		}
	})
}

// closeSealed accounts for neighbour slots closed by a wildcard or bridge
// boundary; those slots are never linked so joinGroup cannot see them.
func (e *Engine) closeSealed(pt *board.PlacedTile, touched *touchSet) error {
	for _, d := range geometry.Directions {
		if !pt.Sides[d].Sealed {
			continue
		}
		n, ok := e.board.At(pt.Coord.Neighbor(d))
		if !ok {
			continue
		}
		other := &n.Sides[d.Opposite()]
		if other.Group == None {
			continue
		}
		f, err := e.Resolve(other.Group)
		if err != nil {
			return err
		}
		f.open--
		touched.add(f.id)
	}
	return nil
}

// countCenters updates cloister-class features around the new tile and
// creates one if the tile carries a cloister or castle.
func (e *Engine) countCenters(pt *board.PlacedTile, touched *touchSet) error {
	for _, c := range pt.Coord.Ring(CastleRadius) {
		id, ok := e.centers[c]
		if !ok {
			continue
		}
		f, err := e.Get(id)
		if err != nil {
			return err
		}
		switch p := f.payload.(type) {
		case *CloisterPayload:
			if !c.Within(pt.Coord, CloisterRadius) {
				continue
			}
			p.Neighbors++
		case *CastlePayload:
			p.Neighbors++
		default:
			return e.fail(errors.Wrapf(ErrPartitionMismatch, "centre %v holds %v", c, f))
		}
		f.tiles[pt.Coord] = struct{}{}
		f.open--
		touched.add(f.id)
	}

	var kind Kind
	var radius int
	switch {
	case pt.Template.Content.Has(tile.ContentCloister):
		kind, radius = Cloister, CloisterRadius
	case pt.Template.Content.Has(tile.ContentGermanCastle):
		kind, radius = GermanCastle, CastleRadius
	default:
		return nil
	}
	f := e.table.alloc(kind, pt.Coord)
	f.tiles[pt.Coord] = struct{}{}
	neighbors := 0
	for _, c := range pt.Coord.Ring(radius) {
		if e.board.Occupied(c) {
			neighbors++
			f.tiles[c] = struct{}{}
		}
	}
	switch p := f.payload.(type) {
	case *CloisterPayload:
		p.Neighbors = neighbors
	case *CastlePayload:
		p.Neighbors = neighbors
	}
	f.open = f.required() - neighbors
	pt.Center = f.id
	e.centers[pt.Coord] = f.id
	touched.add(f.id)
	return nil
}
