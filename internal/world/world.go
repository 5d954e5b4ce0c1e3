// Package world puts the template table, the board and the feature engine
// behind one mutex. Every exported method is a single atomic unit: a merge
// may touch any number of features, so nothing finer grained is safe.
package world

import (
	"errors"
	"fmt"
	"sync"

	"github.com/samber/lo"

	"github.com/Ko-stant/tilefeature-engine/internal/board"
	"github.com/Ko-stant/tilefeature-engine/internal/feature"
	"github.com/Ko-stant/tilefeature-engine/internal/geometry"
	"github.com/Ko-stant/tilefeature-engine/internal/tile"
)

var (
	ErrFinished  = errors.New("match already final-scored")
	ErrNoFeature = errors.New("no feature at node")
	ErrBadNode   = errors.New("invalid node spec")
)

// Logger interface for logging abstraction
type Logger interface {
	Printf(format string, v ...interface{})
}

// Recorder receives every accepted placement, in order.
type Recorder interface {
	RecordPlacement(seq int, p Placement) error
}

type Options struct {
	Strict   bool
	Logger   Logger
	Recorder Recorder
}

type World struct {
	mu       sync.Mutex
	tiles    *tile.Table
	board    *board.Board
	engine   *feature.Engine
	log      []Placement
	scores   map[feature.PlayerID]int
	finished bool
	// fault is the invariant error that aborted a turn; the world refuses
	// further mutation once it is set.
	fault    error
	logger   Logger
	recorder Recorder
	// recorded counts the log entries the recorder has accepted.
	recorded int
}

type noopLogger struct{}

func (noopLogger) Printf(string, ...interface{}) {}

func New(tiles *tile.Table, opts Options) *World {
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	b := board.New()
	return &World{
		tiles:    tiles,
		board:    b,
		engine:   feature.NewEngine(b, feature.Options{Strict: opts.Strict, Logger: logger}),
		scores:   make(map[feature.PlayerID]int),
		logger:   logger,
		recorder: opts.Recorder,
	}
}

// Tiles returns the template table the world was built with.
func (w *World) Tiles() *tile.Table { return w.tiles }

func (w *World) template(id tile.ID) (*tile.Template, error) {
	tpl, ok := w.tiles.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", board.ErrUnknownTemplate, id)
	}
	return tpl, nil
}

func (w *World) mutable() error {
	if w.fault != nil {
		return fmt.Errorf("world is inconsistent: %w", w.fault)
	}
	if w.finished {
		return ErrFinished
	}
	return nil
}

// PlaceResult describes one accepted placement.
type PlaceResult struct {
	Sequence  int                  `json:"sequence"`
	Placement Placement            `json:"placement"`
	Update    feature.UpdateResult `json:"update"`
}

// Place validates and places a tile, then folds it into the feature
// partition. A rejected placement leaves the world untouched. If the
// recorder fails the placement still stands and the result is returned
// alongside the error; unrecorded entries are retried on the next Place.
func (w *World) Place(id tile.ID, c geometry.Coord, r geometry.Rotation) (*PlaceResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	res, err := w.place(Placement{Template: id, Coord: c, Rotation: r.Normalize()})
	if err != nil {
		return nil, err
	}
	if err := w.flush(); err != nil {
		return res, err
	}
	return res, nil
}

// flush hands the recorder every entry it has not accepted yet, oldest
// first, so one failed write is caught up by the next placement.
func (w *World) flush() error {
	if w.recorder == nil {
		return nil
	}
	for w.recorded < len(w.log) {
		if err := w.recorder.RecordPlacement(w.recorded, w.log[w.recorded]); err != nil {
			return fmt.Errorf("failed to record placement %d (%d pending): %w", w.recorded, len(w.log)-w.recorded, err)
		}
		w.recorded++
	}
	return nil
}

// Flush retries recording any placements a failed recorder left behind.
func (w *World) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.flush()
}

// Unrecorded reports how many accepted placements the recorder has not stored.
func (w *World) Unrecorded() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.recorder == nil {
		return 0
	}
	return len(w.log) - w.recorded
}

func (w *World) place(p Placement) (*PlaceResult, error) {
	if err := w.mutable(); err != nil {
		return nil, err
	}
	tpl, err := w.template(p.Template)
	if err != nil {
		return nil, err
	}
	pt, err := w.board.Place(tpl, p.Coord, p.Rotation)
	if err != nil {
		return nil, err
	}
	update, err := w.engine.ProcessPlacement(pt.Ref)
	if err != nil {
		w.fault = err
		w.logger.Printf("invariant violation placing %v: %+v", pt, err)
		return nil, err
	}
	w.log = append(w.log, p)
	w.logger.Printf("placed %v (%d touched, %d merged, %d completed)", pt, len(update.Touched), update.Merged, len(update.Completed))
	return &PlaceResult{Sequence: len(w.log) - 1, Placement: p, Update: update}, nil
}

// Check explains why a placement would be rejected, or returns nil.
func (w *World) Check(id tile.ID, c geometry.Coord, r geometry.Rotation) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	tpl, err := w.template(id)
	if err != nil {
		return err
	}
	return w.board.Check(tpl, c, r)
}

func (w *World) CanPlace(id tile.ID, c geometry.Coord, r geometry.Rotation) bool {
	return w.Check(id, c, r) == nil
}

func (w *World) FindPossiblePositions(id tile.ID) ([]board.Candidate, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	tpl, err := w.template(id)
	if err != nil {
		return nil, err
	}
	return w.board.FindPossiblePositions(tpl), nil
}

// Playable reports the template ids that fit somewhere on the board.
func (w *World) Playable() []tile.ID {
	w.mu.Lock()
	defer w.mu.Unlock()

	return lo.Filter(w.tiles.IDs(), func(id tile.ID, _ int) bool {
		return len(w.board.FindPossiblePositions(w.tiles.MustGet(id))) > 0
	})
}

// Feature resolves any id ever handed out, following merges.
func (w *World) Feature(id feature.ID) (FeatureView, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := w.engine.Resolve(id)
	if err != nil {
		return FeatureView{}, err
	}
	return w.view(f)
}

func (w *World) FeatureAt(c geometry.Coord, spec NodeSpec) (FeatureView, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := w.featureAt(c, spec)
	if err != nil {
		return FeatureView{}, err
	}
	return w.view(f)
}

func (w *World) featureAt(c geometry.Coord, spec NodeSpec) (*feature.Feature, error) {
	pt, ok := w.board.At(c)
	if !ok {
		return nil, fmt.Errorf("%w: no tile at %v", ErrNoFeature, c)
	}
	id, err := spec.group(pt)
	if err != nil {
		return nil, err
	}
	if id == feature.None {
		return nil, fmt.Errorf("%w: %v %v", ErrNoFeature, c, spec)
	}
	return w.engine.Resolve(id)
}

// Deploy hands tok to the feature owning the given node.
func (w *World) Deploy(c geometry.Coord, spec NodeSpec, tok feature.Token) (feature.ID, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.mutable(); err != nil {
		return feature.None, err
	}
	f, err := w.featureAt(c, spec)
	if err != nil {
		return feature.None, err
	}
	if err := w.engine.AddOccupant(f.ID(), tok); err != nil {
		return feature.None, err
	}
	w.logger.Printf("%s deployed %v %s on %v", tok.Player, tok.Kind, tok.ID, f)
	return f.ID(), nil
}

// Withdraw takes a token back from a feature without scoring it.
func (w *World) Withdraw(id feature.ID, tokenID string) (feature.Token, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.mutable(); err != nil {
		return feature.Token{}, err
	}
	f, err := w.engine.Resolve(id)
	if err != nil {
		return feature.Token{}, err
	}
	return w.engine.RemoveOccupant(f.ID(), tokenID)
}

func (w *World) tally(scored []feature.Scoring) {
	for player, pts := range feature.Totals(scored) {
		w.scores[player] += pts
	}
}

// ScoreCompleted scores and retires the complete features among ids.
func (w *World) ScoreCompleted(ids []feature.ID) ([]feature.Scoring, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.mutable(); err != nil {
		return nil, err
	}
	scored, err := w.engine.ScoreCompleted(ids)
	w.tally(scored)
	return scored, err
}

// FinalScore scores everything left and closes the match.
func (w *World) FinalScore() ([]feature.Scoring, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.mutable(); err != nil {
		return nil, err
	}
	scored, err := w.engine.FinalScore()
	w.tally(scored)
	if err != nil {
		return scored, err
	}
	w.finished = true
	w.logger.Printf("final scoring: %d features, totals %v", len(scored), w.scores)
	return scored, nil
}

// Scores returns the running totals.
func (w *World) Scores() map[feature.PlayerID]int {
	w.mu.Lock()
	defer w.mu.Unlock()

	return lo.Assign(w.scores)
}

func (w *World) Finished() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.finished
}

// Audit runs the brute-force consistency check over the whole world.
func (w *World) Audit() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return feature.Audit(w.board, w.engine)
}
