package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/Ko-stant/tilefeature-engine/internal/world"
)

// JSONStore handles data persistence using a local JSON file
type JSONStore struct {
	filePath string
	mutex    sync.RWMutex
	data     *JSONData
}

// JSONData represents the structure of the JSON database
type JSONData struct {
	Matches map[string]*jsonMatch `json:"matches"`
}

type jsonMatch struct {
	Info       MatchInfo         `json:"info"`
	Placements []world.Placement `json:"placements"`
}

// NewJSONStore creates a new JSON storage manager
func NewJSONStore(filePath string) (*JSONStore, error) {
	store := &JSONStore{
		filePath: filePath,
		data:     &JSONData{Matches: make(map[string]*jsonMatch)},
	}

	if _, err := os.Stat(filePath); err == nil {
		if err := store.loadFromFile(); err != nil {
			return nil, fmt.Errorf("failed to load JSON store: %w", err)
		}
	} else if err := store.saveToFile(); err != nil {
		return nil, fmt.Errorf("failed to create JSON store file: %w", err)
	}

	return store, nil
}

func (js *JSONStore) loadFromFile() error {
	js.mutex.Lock()
	defer js.mutex.Unlock()

	file, err := os.ReadFile(js.filePath)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(file, js.data); err != nil {
		return err
	}
	if js.data.Matches == nil {
		js.data.Matches = make(map[string]*jsonMatch)
	}
	return nil
}

// saveToFile must be called with the write lock held.
func (js *JSONStore) saveToFile() error {
	data, err := json.MarshalIndent(js.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(js.filePath, data, 0644)
}

func (js *JSONStore) CreateMatch(tileset string) (*MatchInfo, error) {
	js.mutex.Lock()
	defer js.mutex.Unlock()

	m := &jsonMatch{Info: MatchInfo{ID: newMatchID(), Tileset: tileset, CreatedAt: time.Now().UTC()}}
	js.data.Matches[m.Info.ID] = m
	if err := js.saveToFile(); err != nil {
		delete(js.data.Matches, m.Info.ID)
		return nil, fmt.Errorf("failed to save match: %w", err)
	}
	info := m.Info
	return &info, nil
}

func (js *JSONStore) LoadMatch(matchID string) (*MatchInfo, error) {
	js.mutex.RLock()
	defer js.mutex.RUnlock()

	m, ok := js.data.Matches[matchID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}
	info := m.Info
	info.Placements = len(m.Placements)
	return &info, nil
}

// AppendPlacement adds entry seq to a match log; seq must be the next index.
// Re-sending an entry that is already stored is a no-op.
func (js *JSONStore) AppendPlacement(matchID string, seq int, p world.Placement) error {
	js.mutex.Lock()
	defer js.mutex.Unlock()

	m, ok := js.data.Matches[matchID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}
	if seq < len(m.Placements) && m.Placements[seq] == p {
		return nil
	}
	if seq != len(m.Placements) {
		return fmt.Errorf("%w: got %d, want %d", ErrSequenceGap, seq, len(m.Placements))
	}
	m.Placements = append(m.Placements, p)
	if err := js.saveToFile(); err != nil {
		m.Placements = m.Placements[:seq]
		return fmt.Errorf("failed to save placement: %w", err)
	}
	return nil
}

func (js *JSONStore) LoadPlacements(matchID string) ([]world.Placement, error) {
	js.mutex.RLock()
	defer js.mutex.RUnlock()

	m, ok := js.data.Matches[matchID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}
	out := make([]world.Placement, len(m.Placements))
	copy(out, m.Placements)
	return out, nil
}

// Close closes the store (no-op for JSON store)
func (js *JSONStore) Close() error {
	return nil
}
