package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Ko-stant/tilefeature-engine/internal/board"
	"github.com/Ko-stant/tilefeature-engine/internal/feature"
	"github.com/Ko-stant/tilefeature-engine/internal/world"
)

// GameError represents a game logic error
type GameError struct {
	Code    string
	Message string
}

func (e *GameError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

const (
	CodeBadRequest         = "BAD_REQUEST"
	CodeUnknownIntent      = "UNKNOWN_INTENT"
	CodeUnknownTemplate    = "UNKNOWN_TEMPLATE"
	CodeCellOccupied       = "CELL_OCCUPIED"
	CodeNoNeighbor         = "NO_NEIGHBOR"
	CodeEdgeMismatch       = "EDGE_MISMATCH"
	CodeRiverDirection     = "RIVER_DIRECTION"
	CodeNoFeature          = "NO_FEATURE"
	CodeTokenRejected      = "TOKEN_REJECTED"
	CodeMatchFinished      = "MATCH_FINISHED"
	CodeInvariantViolation = "INVARIANT_VIOLATION"
	CodeInternal           = "INTERNAL"
)

var errorCodes = []struct {
	target error
	code   string
}{
	{board.ErrUnknownTemplate, CodeUnknownTemplate},
	{board.ErrCellOccupied, CodeCellOccupied},
	{board.ErrNoNeighbor, CodeNoNeighbor},
	{board.ErrEdgeMismatch, CodeEdgeMismatch},
	{board.ErrRiverDirectionViolation, CodeRiverDirection},
	{world.ErrNoFeature, CodeNoFeature},
	{world.ErrBadNode, CodeBadRequest},
	{world.ErrFinished, CodeMatchFinished},
	{feature.ErrTokenNotAllowed, CodeTokenRejected},
	{feature.ErrDuplicateToken, CodeTokenRejected},
	{feature.ErrTokenNotFound, CodeTokenRejected},
	{feature.ErrFeatureRetired, CodeTokenRejected},
	{feature.ErrStaleHandle, CodeInvariantViolation},
	{feature.ErrInconsistentOpenCount, CodeInvariantViolation},
	{feature.ErrOrphanNode, CodeInvariantViolation},
	{feature.ErrPartitionMismatch, CodeInvariantViolation},
}

// toGameError classifies err for clients.
func toGameError(err error) *GameError {
	var gameErr *GameError
	if errors.As(err, &gameErr) {
		return gameErr
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return &GameError{Code: CodeBadRequest, Message: err.Error()}
	}
	for _, e := range errorCodes {
		if errors.Is(err, e.target) {
			return &GameError{Code: e.code, Message: err.Error()}
		}
	}
	return &GameError{Code: CodeInternal, Message: err.Error()}
}
