package feature

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/Ko-stant/tilefeature-engine/internal/board"
	"github.com/Ko-stant/tilefeature-engine/internal/geometry"
)

// Table is the feature arena: a disjoint-set over IDs where merged-away
// slots stay behind as tombstones redirecting to their survivor.
type Table struct {
	slots []*Feature
}

func NewTable() *Table { return &Table{} }

// Len counts every slot ever allocated, tombstones included.
func (t *Table) Len() int { return len(t.slots) }

func (t *Table) alloc(k Kind, center geometry.Coord) *Feature {
	f := &Feature{
		id:       ID(len(t.slots)),
		kind:     k,
		redirect: None,
		tiles:    make(map[geometry.Coord]struct{}),
		payload:  newPayload(k, center),
	}
	t.slots = append(t.slots, f)
	return f
}

// Get dereferences a live id. Tombstoned and unknown ids fail with ErrStaleHandle.
func (t *Table) Get(id ID) (*Feature, error) {
	if id < 0 || int(id) >= len(t.slots) {
		return nil, errors.Wrapf(ErrStaleHandle, "feature %d does not exist", id)
	}
	f := t.slots[id]
	if f.tombstoned() {
		return nil, errors.Wrapf(ErrStaleHandle, "feature %d was merged into %d", id, f.redirect)
	}
	return f, nil
}

// Find resolves id to the live feature that now holds its members,
// compressing the redirect chain on the way.
func (t *Table) Find(id ID) (ID, error) {
	if id < 0 || int(id) >= len(t.slots) {
		return None, errors.Wrapf(ErrStaleHandle, "feature %d does not exist", id)
	}
	root := id
	for t.slots[root].tombstoned() {
		root = t.slots[root].redirect
	}
	for cur := id; cur != root; {
		next := t.slots[cur].redirect
		t.slots[cur].redirect = root
		cur = next
	}
	return root, nil
}

// IsTombstoned reports whether id was merged away.
func (t *Table) IsTombstoned(id ID) bool {
	return id >= 0 && int(id) < len(t.slots) && t.slots[id].tombstoned()
}

// Live returns every live feature in id order.
func (t *Table) Live() []*Feature {
	return lo.Filter(t.slots, func(f *Feature, _ int) bool { return !f.tombstoned() })
}

// merge moves everything src owns into dst and tombstones src. relink is
// called for each moved node so the board can re-point its group.
func (t *Table) merge(dst, src *Feature, relink func(board.NodeRef)) error {
	if dst == src {
		return nil
	}
	if dst.kind != src.kind {
		return errors.Wrapf(ErrPartitionMismatch, "cannot merge %v into %v", src, dst)
	}
	if err := mergePayload(dst.payload, src.payload); err != nil {
		return err
	}
	for _, ref := range src.nodes {
		relink(ref)
	}
	dst.nodes = append(dst.nodes, src.nodes...)
	for c := range src.tiles {
		dst.tiles[c] = struct{}{}
	}
	dst.open += src.open
	dst.occupants = append(dst.occupants, src.occupants...)

	src.nodes = nil
	src.tiles = make(map[geometry.Coord]struct{})
	src.open = 0
	src.occupants = nil
	src.redirect = dst.id
	return nil
}

// mergePayload folds src's accumulated state into dst.
func mergePayload(dst, src Payload) error {
	switch d := dst.(type) {
	case *CityPayload:
		s := src.(*CityPayload)
		d.Pennants += s.Pennants
		d.Cathedral = d.Cathedral || s.Cathedral
	case *RoadPayload:
		s := src.(*RoadPayload)
		d.Inn = d.Inn || s.Inn
	case *FarmPayload:
		s := src.(*FarmPayload)
		d.Cities = lo.Uniq(append(d.Cities, s.Cities...))
	case *CloisterPayload, *CastlePayload:
		return errors.Wrapf(ErrPartitionMismatch, "%T features are not edge linked", d)
	default:
		return errors.Errorf("feature: unhandled payload %T", d)
	}
	return nil
}
