package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/coder/websocket"
	"github.com/pkg/errors"

	"github.com/Ko-stant/tilefeature-engine/internal/protocol"
	"github.com/Ko-stant/tilefeature-engine/internal/store"
	"github.com/Ko-stant/tilefeature-engine/internal/tile"
	"github.com/Ko-stant/tilefeature-engine/internal/web/views"
	"github.com/Ko-stant/tilefeature-engine/internal/world"
	"github.com/Ko-stant/tilefeature-engine/internal/ws"
)

func loadTiles(cfg Config) (*tile.Table, error) {
	if cfg.TilesetFile != "" {
		return tile.LoadTableFromFile(cfg.TilesetFile)
	}
	return tile.DefaultTable()
}

func openStorage(cfg Config) (store.Storage, error) {
	if cfg.DBType == "postgres" {
		log.Printf("Using PostgreSQL storage")
		return store.NewPostgresStore(cfg.DatabaseURL)
	}
	log.Printf("Using JSON file storage: %s", cfg.DBFile)
	return store.NewJSONStore(cfg.DBFile)
}

// openMatch resumes cfg.MatchID by replaying its stored placements, or starts
// a fresh match when no id is configured. Only placements are stored: a
// resumed match has no deployed tokens, zero running scores, and features
// completed before the restart come back complete but unscored.
func openMatch(cfg Config, db store.Storage, table *tile.Table, logger Logger) (*world.World, string, error) {
	matchID := cfg.MatchID
	var placements []world.Placement
	if matchID == "" {
		info, err := db.CreateMatch(table.Name())
		if err != nil {
			return nil, "", errors.Wrap(err, "create match")
		}
		matchID = info.ID
		logger.Printf("Created match %s (tileset %s)", matchID, table.Name())
	} else {
		info, err := db.LoadMatch(matchID)
		if err != nil {
			return nil, "", errors.Wrapf(err, "load match %s", matchID)
		}
		if info.Tileset != table.Name() {
			logger.Printf("Match %s was recorded with tileset %s, running %s", matchID, info.Tileset, table.Name())
		}
		placements, err = db.LoadPlacements(matchID)
		if err != nil {
			return nil, "", errors.Wrapf(err, "load placements for %s", matchID)
		}
		logger.Printf("Resuming match %s with %d placements; tokens and scores are not restored", matchID, len(placements))
	}

	w, err := world.Replay(table, placements, world.Options{
		Strict:   cfg.Debug.Enabled,
		Logger:   logger,
		Recorder: store.NewRecorder(db, matchID),
	})
	if err != nil {
		return nil, "", errors.Wrapf(err, "replay match %s", matchID)
	}
	return w, matchID, nil
}

func newMux(engine MatchEngine, matchID string, hub *ws.Hub, handlers *Handlers, debug *DebugSystem, logger Logger) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/stream", func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			return
		}

		s, err := BuildSnapshot(engine, matchID)
		if err != nil {
			logger.Printf("snapshot failed: %v", err)
			_ = conn.Close(websocket.StatusInternalError, "snapshot failed")
			return
		}
		hello, _ := json.Marshal(protocol.PatchEnvelope{
			Type:    "Snapshot",
			Payload: s,
		})
		if err := hub.Send(context.Background(), conn, hello); err != nil {
			_ = conn.Close(websocket.StatusInternalError, "")
			return
		}
		hub.Add(conn)

		go func(c *websocket.Conn) {
			defer hub.Remove(c)
			defer c.Close(websocket.StatusNormalClosure, "")
			for {
				_, data, err := c.Read(context.Background())
				if err != nil {
					return
				}
				if err := handlers.HandleWebSocketMessage(data); err != nil {
					logger.Printf("intent rejected: %v", err)
				}
			}
		}(conn)
	})

	mux.HandleFunc("/api/snapshot", func(w http.ResponseWriter, r *http.Request) {
		s, err := BuildSnapshot(engine, matchID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, s)
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		s, err := BuildSnapshot(engine, matchID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if err := views.IndexPage(s).Render(r.Context(), w); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	debug.RegisterDebugRoutes(mux)
	return mux
}

func main() {
	cfg := LoadConfigFromEnv()
	logger := NewLogger()

	StartProfiling(cfg.Profiling)

	table, err := loadTiles(cfg)
	if err != nil {
		log.Fatalf("Failed to load tileset: %v", err)
	}
	log.Printf("Loaded tileset %s with %d templates", table.Name(), table.Len())

	db, err := openStorage(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer db.Close()

	engine, matchID, err := openMatch(cfg, db, table, logger)
	if err != nil {
		log.Fatalf("Failed to open match: %v", err)
	}

	hub := ws.NewHub()
	broadcaster := NewBroadcaster(hub, NewSequenceGenerator())
	handlers := NewHandlers(engine, broadcaster, logger)
	handlers.OnFinished = func() { hub.CloseAll("match finished") }
	debug := NewDebugSystem(cfg.Debug, engine, handlers, logger)
	if cfg.Debug.Enabled {
		log.Printf("Debug mode enabled")
	}
	StartMetricsReporting(handlers.Metrics(), logger, cfg.Profiling.ReportInterval)

	mux := newMux(engine, matchID, hub, handlers, debug, logger)

	log.Printf("listening on :%s (match %s)", cfg.Port, matchID)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, mux))
}
