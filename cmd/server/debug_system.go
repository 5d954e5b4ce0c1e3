package main

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/samber/lo"

	"github.com/Ko-stant/tilefeature-engine/internal/protocol"
	"github.com/Ko-stant/tilefeature-engine/internal/tile"
)

// DebugConfig holds debug mode configuration
type DebugConfig struct {
	Enabled           bool
	AllowStateChanges bool
	LogDebugActions   bool
}

// DebugSystem exposes inspection endpoints for development and testing.
type DebugSystem struct {
	config   DebugConfig
	engine   MatchEngine
	handlers *Handlers
	logger   Logger
}

func NewDebugSystem(config DebugConfig, engine MatchEngine, handlers *Handlers, logger Logger) *DebugSystem {
	return &DebugSystem{
		config:   config,
		engine:   engine,
		handlers: handlers,
		logger:   logger,
	}
}

// Debug API endpoints
func (ds *DebugSystem) RegisterDebugRoutes(mux *http.ServeMux) {
	if !ds.config.Enabled {
		return
	}

	mux.HandleFunc("/debug/audit", ds.handleAudit)
	mux.HandleFunc("/debug/features", ds.handleFeatures)
	mux.HandleFunc("/debug/board/autofill", ds.handleAutofill)

	mux.HandleFunc("/debug/state/export", ds.handleExportState)
	mux.HandleFunc("/debug/info/state", ds.handleGetDebugInfo)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Runs the structural checker over the live match.
func (ds *DebugSystem) handleAudit(w http.ResponseWriter, r *http.Request) {
	if !ds.checkDebugEnabled(w) {
		return
	}

	ds.logDebugAction("audit", nil)
	if err := ds.engine.Audit(); err != nil {
		writeJSON(w, http.StatusConflict, map[string]any{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "all invariants hold",
	})
}

func (ds *DebugSystem) handleFeatures(w http.ResponseWriter, r *http.Request) {
	if !ds.checkDebugEnabled(w) {
		return
	}

	views, err := ds.engine.Features()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	kind := r.URL.Query().Get("kind")
	out := make([]protocol.FeatureLite, 0, len(views))
	for _, v := range views {
		if kind != "" && v.Kind != kind {
			continue
		}
		out = append(out, featureLite(v))
	}
	writeJSON(w, http.StatusOK, out)
}

// Places up to n random tiles at random legal positions through the normal
// placement path, so clients see ordinary TilePlaced patches.
func (ds *DebugSystem) handleAutofill(w http.ResponseWriter, r *http.Request) {
	if !ds.checkDebugEnabled(w) {
		return
	}
	if !ds.config.AllowStateChanges {
		http.Error(w, "State changes not allowed", http.StatusForbidden)
		return
	}

	count := 10
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			http.Error(w, "count must be between 1 and 500", http.StatusBadRequest)
			return
		}
		count = n
	}
	seed := uint64(time.Now().UnixNano())
	if raw := r.URL.Query().Get("seed"); raw != "" {
		s, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			http.Error(w, "invalid seed", http.StatusBadRequest)
			return
		}
		seed = s
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	placed := 0
	for range count {
		ids := ds.engine.Playable()
		if len(ids) == 0 {
			break
		}
		id := ids[rng.IntN(len(ids))]
		cands, err := ds.engine.FindPossiblePositions(id)
		if err != nil || len(cands) == 0 {
			continue
		}
		c := cands[rng.IntN(len(cands))]
		err = ds.handlers.HandleRequestPlaceTile(protocol.RequestPlaceTile{
			TemplateID: string(id),
			X:          c.Coord.X,
			Y:          c.Coord.Y,
			Rotation:   int(c.Rotation),
		})
		if err != nil {
			ds.logger.Printf("Autofill stopped: %v", err)
			break
		}
		placed++
	}

	ds.logDebugAction("autofill", map[string]any{"requested": count, "placed": placed, "seed": seed})
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Placed %d of %d tiles", placed, count),
		"seed":    seed,
	})
}

// Export the placement log; replaying it rebuilds the match.
func (ds *DebugSystem) handleExportState(w http.ResponseWriter, r *http.Request) {
	if !ds.checkDebugEnabled(w) {
		return
	}

	placements := ds.engine.Placements()
	exportData := map[string]any{
		"tileset":    ds.engine.Tiles().Name(),
		"placements": placements,
		"timestamp":  time.Now(),
		"version":    ProtocolVersion,
	}

	ds.logDebugAction("export_state", map[string]any{"placements": len(placements)})
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    exportData,
	})
}

func (ds *DebugSystem) handleGetDebugInfo(w http.ResponseWriter, r *http.Request) {
	if !ds.checkDebugEnabled(w) {
		return
	}

	summary := ds.engine.Summary()
	debugInfo := map[string]any{
		"summary":     summary,
		"playable":    lo.Map(ds.engine.Playable(), func(id tile.ID, _ int) string { return string(id) }),
		"metrics":     ds.handlers.Metrics().Snapshot(),
		"debugConfig": ds.config,
	}
	writeJSON(w, http.StatusOK, debugInfo)
}

// Helper methods

func (ds *DebugSystem) checkDebugEnabled(w http.ResponseWriter) bool {
	if !ds.config.Enabled {
		http.Error(w, "Debug mode not enabled", http.StatusForbidden)
		return false
	}
	return true
}

func (ds *DebugSystem) logDebugAction(actionType string, params map[string]any) {
	if ds.config.LogDebugActions {
		ds.logger.Printf("DEBUG ACTION: %s - %+v", actionType, params)
	}
}

// GetDebugConfigFromEnv creates debug config from environment variables
func GetDebugConfigFromEnv() DebugConfig {
	return DebugConfig{
		Enabled:           getEnvBool("DEBUG_MODE", false),
		AllowStateChanges: getEnvBool("DEBUG_ALLOW_STATE_CHANGES", true),
		LogDebugActions:   getEnvBool("DEBUG_LOG_ACTIONS", true),
	}
}
