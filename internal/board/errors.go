package board

import (
	"errors"
	"fmt"

	"github.com/Ko-stant/tilefeature-engine/internal/geometry"
)

var (
	ErrCellOccupied            = errors.New("cell occupied")
	ErrNoNeighbor              = errors.New("no neighbouring tile")
	ErrEdgeMismatch            = errors.New("edge mismatch")
	ErrRiverDirectionViolation = errors.New("river direction violation")
	ErrUnknownTemplate         = errors.New("unknown tile template")
)

// PlacementError explains why a candidate placement was rejected. It is
// always produced before the board is mutated.
type PlacementError struct {
	Reason error
	Coord  geometry.Coord
	Dir    geometry.Direction
}

func (e *PlacementError) Error() string {
	if errors.Is(e.Reason, ErrEdgeMismatch) {
		return fmt.Sprintf("cannot place at %v: %v on side %v", e.Coord, e.Reason, e.Dir)
	}
	return fmt.Sprintf("cannot place at %v: %v", e.Coord, e.Reason)
}

func (e *PlacementError) Unwrap() error { return e.Reason }
