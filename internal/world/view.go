package world

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/Ko-stant/tilefeature-engine/internal/board"
	"github.com/Ko-stant/tilefeature-engine/internal/feature"
	"github.com/Ko-stant/tilefeature-engine/internal/geometry"
)

type Slot string

const (
	SlotSide   Slot = "side"
	SlotFarm   Slot = "farm"
	SlotCenter Slot = "center"
)

// NodeSpec addresses a node of a placed tile in world space: a side by
// direction (0-3), a farm wedge (0-7) or the cloister/castle centre.
type NodeSpec struct {
	Slot  Slot `json:"slot"`
	Index int  `json:"index"`
}

func Side(d geometry.Direction) NodeSpec { return NodeSpec{Slot: SlotSide, Index: int(d)} }
func Wedge(w uint8) NodeSpec             { return NodeSpec{Slot: SlotFarm, Index: int(w)} }
func Center() NodeSpec                   { return NodeSpec{Slot: SlotCenter} }

func (s NodeSpec) String() string {
	if s.Slot == SlotCenter {
		return "center"
	}
	return fmt.Sprintf("%s %d", s.Slot, s.Index)
}

func (s NodeSpec) group(pt *board.PlacedTile) (feature.ID, error) {
	switch s.Slot {
	case SlotSide:
		if s.Index < 0 || s.Index > 3 {
			break
		}
		return pt.Sides[s.Index].Group, nil
	case SlotFarm:
		if s.Index < 0 || s.Index >= geometry.WedgeCount {
			break
		}
		return pt.Farms[s.Index].Group, nil
	case SlotCenter:
		return pt.Center, nil
	}
	return feature.None, fmt.Errorf("%w: %v", ErrBadNode, s)
}

// FeatureView is a read-only snapshot of one feature.
type FeatureView struct {
	ID        feature.ID         `json:"id"`
	Kind      string             `json:"kind"`
	State     string             `json:"state"`
	Retired   bool               `json:"retired"`
	OpenEdges int                `json:"openEdges"`
	Tiles     []geometry.Coord   `json:"tiles"`
	Occupants []feature.Token    `json:"occupants"`
	Value     int                `json:"value"`
	Majority  []feature.PlayerID `json:"majority"`
}

func (w *World) view(f *feature.Feature) (FeatureView, error) {
	v, err := w.engine.Value(f.ID())
	if err != nil {
		return FeatureView{}, err
	}
	return FeatureView{
		ID:        f.ID(),
		Kind:      f.Kind().String(),
		State:     f.State().String(),
		Retired:   f.Retired(),
		OpenEdges: f.OpenEdges(),
		Tiles:     f.Tiles(),
		Occupants: f.Occupants(),
		Value:     v,
		Majority:  f.Majority(),
	}, nil
}

// Features snapshots every live feature in id order.
func (w *World) Features() ([]FeatureView, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	live := w.engine.Live()
	out := make([]FeatureView, 0, len(live))
	for _, f := range live {
		v, err := w.view(f)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Summary is a compact description of the match state.
type Summary struct {
	Tiles      int                      `json:"tiles"`
	Frontier   int                      `json:"frontier"`
	Features   map[string]int           `json:"features"`
	Complete   int                      `json:"complete"`
	Tombstones int                      `json:"tombstones"`
	Scores     map[feature.PlayerID]int `json:"scores"`
	Finished   bool                     `json:"finished"`
}

func (w *World) Summary() Summary {
	w.mu.Lock()
	defer w.mu.Unlock()

	live := w.engine.Live()
	byKind := lo.MapValues(
		lo.GroupBy(live, func(f *feature.Feature) string { return f.Kind().String() }),
		func(fs []*feature.Feature, _ string) int { return len(fs) },
	)
	return Summary{
		Tiles:      w.board.Len(),
		Frontier:   len(w.board.Frontier()),
		Features:   byKind,
		Complete:   lo.CountBy(live, func(f *feature.Feature) bool { return f.IsComplete() }),
		Tombstones: w.engine.Table().Len() - len(live),
		Scores:     lo.Assign(w.scores),
		Finished:   w.finished,
	}
}
