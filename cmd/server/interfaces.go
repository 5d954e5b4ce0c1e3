package main

import (
	"github.com/Ko-stant/tilefeature-engine/internal/board"
	"github.com/Ko-stant/tilefeature-engine/internal/feature"
	"github.com/Ko-stant/tilefeature-engine/internal/geometry"
	"github.com/Ko-stant/tilefeature-engine/internal/tile"
	"github.com/Ko-stant/tilefeature-engine/internal/world"
)

// Broadcaster interface for WebSocket communication
type Broadcaster interface {
	BroadcastEvent(eventType string, payload interface{})
}

// Logger interface for logging abstraction
type Logger interface {
	Printf(format string, v ...interface{})
}

// SequenceGenerator interface for sequence number generation
type SequenceGenerator interface {
	Next() uint64
}

// MatchEngine is the part of world.World the handlers drive.
type MatchEngine interface {
	Tiles() *tile.Table
	Place(id tile.ID, c geometry.Coord, r geometry.Rotation) (*world.PlaceResult, error)
	FindPossiblePositions(id tile.ID) ([]board.Candidate, error)
	Playable() []tile.ID
	Deploy(c geometry.Coord, spec world.NodeSpec, tok feature.Token) (feature.ID, error)
	Withdraw(id feature.ID, tokenID string) (feature.Token, error)
	ScoreCompleted(ids []feature.ID) ([]feature.Scoring, error)
	FinalScore() ([]feature.Scoring, error)
	Feature(id feature.ID) (world.FeatureView, error)
	Features() ([]world.FeatureView, error)
	Scores() map[feature.PlayerID]int
	Summary() world.Summary
	Placements() []world.Placement
	Finished() bool
	Audit() error
}

var _ MatchEngine = (*world.World)(nil)
