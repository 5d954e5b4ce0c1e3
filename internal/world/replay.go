package world

import (
	"fmt"
	"slices"

	"github.com/Ko-stant/tilefeature-engine/internal/geometry"
	"github.com/Ko-stant/tilefeature-engine/internal/tile"
)

// Placement is one entry of the match log. The engine is deterministic, so
// the log alone rebuilds the full feature state.
type Placement struct {
	Template tile.ID           `json:"template"`
	Coord    geometry.Coord    `json:"coord"`
	Rotation geometry.Rotation `json:"rotation"`
}

func (p Placement) String() string {
	return fmt.Sprintf("%s@%v r%v", p.Template, p.Coord, p.Rotation)
}

// Placements returns a copy of the accepted placement log.
func (w *World) Placements() []Placement {
	w.mu.Lock()
	defer w.mu.Unlock()

	return slices.Clone(w.log)
}

// Replay rebuilds a world from a placement log. The recorder in opts is
// attached only after the log has been applied, so replayed entries are not
// recorded twice.
func Replay(tiles *tile.Table, log []Placement, opts Options) (*World, error) {
	recorder := opts.Recorder
	opts.Recorder = nil
	w := New(tiles, opts)
	for i, p := range log {
		if _, err := w.place(p); err != nil {
			return nil, fmt.Errorf("replay entry %d (%v): %w", i, p, err)
		}
	}
	w.recorder = recorder
	w.recorded = len(w.log)
	w.logger.Printf("replayed %d placements", len(log))
	return w, nil
}
