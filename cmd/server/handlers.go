package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Ko-stant/tilefeature-engine/internal/feature"
	"github.com/Ko-stant/tilefeature-engine/internal/geometry"
	"github.com/Ko-stant/tilefeature-engine/internal/protocol"
	"github.com/Ko-stant/tilefeature-engine/internal/tile"
	"github.com/Ko-stant/tilefeature-engine/internal/world"
)

// Handlers turns client intents into world operations and broadcasts the
// resulting patches.
type Handlers struct {
	engine      MatchEngine
	broadcaster Broadcaster
	logger      Logger
	metrics     *PerformanceMetrics
	// AutoScore scores completed features right after the placement that
	// completed them.
	AutoScore bool
	// OnFinished runs once final scoring has been broadcast.
	OnFinished func()
}

func NewHandlers(engine MatchEngine, broadcaster Broadcaster, logger Logger) *Handlers {
	return &Handlers{
		engine:      engine,
		broadcaster: broadcaster,
		logger:      logger,
		metrics:     NewPerformanceMetrics(),
		AutoScore:   true,
	}
}

func (h *Handlers) Metrics() *PerformanceMetrics { return h.metrics }

func (h *Handlers) HandleRequestPlaceTile(req protocol.RequestPlaceTile) error {
	start := time.Now()
	c := geometry.Coord{X: req.X, Y: req.Y}
	res, err := h.engine.Place(tile.ID(req.TemplateID), c, geometry.Rotation(req.Rotation))
	if res == nil {
		h.logger.Printf("Placement of %s at %v rejected: %v", req.TemplateID, c, err)
		return err
	}
	if err != nil {
		// The tile is on the board; only persistence failed.
		h.logger.Printf("Placement %d not persisted: %v", res.Sequence, err)
	}
	h.metrics.TrackPlacement(time.Since(start), res.Update.Merged)

	h.broadcaster.BroadcastEvent("TilePlaced", protocol.TilePlaced{
		Sequence:   res.Sequence,
		TemplateID: string(res.Placement.Template),
		X:          res.Placement.Coord.X,
		Y:          res.Placement.Coord.Y,
		Rotation:   int(res.Placement.Rotation),
		Touched:    featureIDs(res.Update.Touched),
		Merged:     res.Update.Merged,
	})

	if len(res.Update.Completed) == 0 {
		return nil
	}
	h.broadcaster.BroadcastEvent("FeaturesCompleted", protocol.FeaturesCompleted{IDs: featureIDs(res.Update.Completed)})
	if !h.AutoScore {
		return nil
	}
	return h.scoreCompleted(res.Update.Completed)
}

func (h *Handlers) scoreCompleted(ids []feature.ID) error {
	scored, err := h.engine.ScoreCompleted(ids)
	if err != nil {
		h.logger.Printf("Scoring failed: %v", err)
		return err
	}
	h.metrics.TrackScoring(len(scored))
	if len(scored) > 0 {
		h.broadcaster.BroadcastEvent("FeaturesScored", protocol.FeaturesScored{
			Scorings: scoringsLite(scored),
			Totals:   scoresLite(h.engine.Scores()),
		})
	}
	return nil
}

func (h *Handlers) HandleRequestPossiblePositions(req protocol.RequestPossiblePositions) error {
	cands, err := h.engine.FindPossiblePositions(tile.ID(req.TemplateID))
	if err != nil {
		return err
	}
	positions := make([]protocol.PositionLite, 0, len(cands))
	for _, c := range cands {
		positions = append(positions, protocol.PositionLite{X: c.Coord.X, Y: c.Coord.Y, Rotation: int(c.Rotation)})
	}
	h.broadcaster.BroadcastEvent("PossiblePositions", protocol.PossiblePositions{
		TemplateID: req.TemplateID,
		Positions:  positions,
	})
	return nil
}

func (h *Handlers) HandleRequestDeployToken(req protocol.RequestDeployToken) error {
	kind, err := feature.ParseTokenKind(req.Kind)
	if err != nil {
		return err
	}
	if req.TokenID == "" || req.Player == "" {
		return &GameError{Code: CodeBadRequest, Message: "token id and player are required"}
	}
	tok := feature.Token{ID: req.TokenID, Player: feature.PlayerID(req.Player), Kind: kind}
	spec := world.NodeSpec{Slot: world.Slot(req.Slot), Index: req.Index}

	id, err := h.engine.Deploy(geometry.Coord{X: req.X, Y: req.Y}, spec, tok)
	if err != nil {
		h.logger.Printf("Deploy of %s rejected: %v", req.TokenID, err)
		return err
	}
	h.broadcaster.BroadcastEvent("TokenDeployed", protocol.TokenDeployed{FeatureID: int(id), Token: tokenLite(tok)})
	return nil
}

func (h *Handlers) HandleRequestWithdrawToken(req protocol.RequestWithdrawToken) error {
	tok, err := h.engine.Withdraw(feature.ID(req.FeatureID), req.TokenID)
	if err != nil {
		return err
	}
	h.broadcaster.BroadcastEvent("TokenWithdrawn", protocol.TokenWithdrawn{FeatureID: req.FeatureID, Token: tokenLite(tok)})
	return nil
}

func (h *Handlers) HandleRequestScoreCompleted(req protocol.RequestScoreCompleted) error {
	ids := make([]feature.ID, 0, len(req.FeatureIDs))
	for _, id := range req.FeatureIDs {
		ids = append(ids, feature.ID(id))
	}
	return h.scoreCompleted(ids)
}

func (h *Handlers) HandleRequestFinalScore() error {
	scored, err := h.engine.FinalScore()
	if err != nil {
		h.logger.Printf("Final scoring failed: %v", err)
		return err
	}
	h.metrics.TrackScoring(len(scored))
	h.broadcaster.BroadcastEvent("FeaturesScored", protocol.FeaturesScored{
		Final:    true,
		Scorings: scoringsLite(scored),
		Totals:   scoresLite(h.engine.Scores()),
	})
	if h.OnFinished != nil {
		h.OnFinished()
	}
	return nil
}

func (h *Handlers) HandleRequestFeature(req protocol.RequestFeature) error {
	v, err := h.engine.Feature(feature.ID(req.FeatureID))
	if err != nil {
		return err
	}
	h.broadcaster.BroadcastEvent("FeatureDetails", protocol.FeatureDetails{Feature: featureLite(v)})
	return nil
}

func decode[T any](payload json.RawMessage) (T, error) {
	var req T
	if len(payload) == 0 {
		return req, nil
	}
	err := json.Unmarshal(payload, &req)
	return req, err
}

func (h *Handlers) dispatch(env protocol.IntentEnvelope) error {
	switch env.Type {
	case "RequestPlaceTile":
		req, err := decode[protocol.RequestPlaceTile](env.Payload)
		if err != nil {
			return err
		}
		return h.HandleRequestPlaceTile(req)

	case "RequestPossiblePositions":
		req, err := decode[protocol.RequestPossiblePositions](env.Payload)
		if err != nil {
			return err
		}
		return h.HandleRequestPossiblePositions(req)

	case "RequestDeployToken":
		req, err := decode[protocol.RequestDeployToken](env.Payload)
		if err != nil {
			return err
		}
		return h.HandleRequestDeployToken(req)

	case "RequestWithdrawToken":
		req, err := decode[protocol.RequestWithdrawToken](env.Payload)
		if err != nil {
			return err
		}
		return h.HandleRequestWithdrawToken(req)

	case "RequestScoreCompleted":
		req, err := decode[protocol.RequestScoreCompleted](env.Payload)
		if err != nil {
			return err
		}
		return h.HandleRequestScoreCompleted(req)

	case "RequestFinalScore":
		return h.HandleRequestFinalScore()

	case "RequestFeature":
		req, err := decode[protocol.RequestFeature](env.Payload)
		if err != nil {
			return err
		}
		return h.HandleRequestFeature(req)

	default:
		return &GameError{Code: CodeUnknownIntent, Message: fmt.Sprintf("unknown message type: %s", env.Type)}
	}
}

// HandleWebSocketMessage decodes one intent and runs it. Rejections are
// broadcast as IntentRejected and also returned.
func (h *Handlers) HandleWebSocketMessage(data []byte) error {
	var env protocol.IntentEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		h.logger.Printf("Malformed intent: %v", err)
		return toGameError(err)
	}

	if err := h.dispatch(env); err != nil {
		gameErr := toGameError(err)
		h.broadcaster.BroadcastEvent("IntentRejected", protocol.IntentRejected{
			Intent:  env.Type,
			Code:    gameErr.Code,
			Message: gameErr.Message,
		})
		return gameErr
	}
	return nil
}
