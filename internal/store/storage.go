// Package store persists match placement logs. A match is nothing more than
// its ordered (template, coord, rotation) entries; the engine rebuilds
// everything else by replay.
package store

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Ko-stant/tilefeature-engine/internal/world"
)

var (
	ErrMatchNotFound = errors.New("match not found")
	ErrSequenceGap   = errors.New("placement out of sequence")
)

// MatchInfo describes a stored match.
type MatchInfo struct {
	ID         string    `json:"id"`
	Tileset    string    `json:"tileset"`
	CreatedAt  time.Time `json:"createdAt"`
	Placements int       `json:"placements"`
}

// Storage defines the interface for data persistence
type Storage interface {
	CreateMatch(tileset string) (*MatchInfo, error)
	LoadMatch(matchID string) (*MatchInfo, error)
	AppendPlacement(matchID string, seq int, p world.Placement) error
	LoadPlacements(matchID string) ([]world.Placement, error)
	Close() error
}

func newMatchID() string { return uuid.NewString() }

// Recorder binds a Storage to one match so it can be handed to a World.
type Recorder struct {
	store   Storage
	matchID string
}

func NewRecorder(s Storage, matchID string) *Recorder {
	return &Recorder{store: s, matchID: matchID}
}

func (r *Recorder) MatchID() string { return r.matchID }

func (r *Recorder) RecordPlacement(seq int, p world.Placement) error {
	return r.store.AppendPlacement(r.matchID, seq, p)
}
