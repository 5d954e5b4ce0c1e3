package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/Ko-stant/tilefeature-engine/internal/geometry"
	"github.com/Ko-stant/tilefeature-engine/internal/tile"
	"github.com/Ko-stant/tilefeature-engine/internal/world"
)

// PostgresStore handles database operations using PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL storage manager
func NewPostgresStore(connectionString string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (ps *PostgresStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS matches (
		id TEXT PRIMARY KEY,
		tileset TEXT NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS placements (
		match_id TEXT NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		template TEXT NOT NULL,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		rotation SMALLINT NOT NULL,
		placed_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		PRIMARY KEY (match_id, seq)
	);
	`

	_, err := ps.db.Exec(schema)
	return err
}

func (ps *PostgresStore) CreateMatch(tileset string) (*MatchInfo, error) {
	info := MatchInfo{ID: newMatchID(), Tileset: tileset}
	err := ps.db.QueryRow(
		`INSERT INTO matches (id, tileset) VALUES ($1, $2) RETURNING created_at`,
		info.ID, info.Tileset,
	).Scan(&info.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}
	return &info, nil
}

func (ps *PostgresStore) LoadMatch(matchID string) (*MatchInfo, error) {
	query := `
	SELECT m.id, m.tileset, m.created_at, COUNT(p.seq)
	FROM matches m LEFT JOIN placements p ON p.match_id = m.id
	WHERE m.id = $1
	GROUP BY m.id, m.tileset, m.created_at`

	var info MatchInfo
	err := ps.db.QueryRow(query, matchID).Scan(&info.ID, &info.Tileset, &info.CreatedAt, &info.Placements)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
		}
		return nil, fmt.Errorf("failed to load match: %w", err)
	}
	return &info, nil
}

// AppendPlacement inserts entry seq in the same transaction that checks it
// is the next index. Re-sending an entry that is already stored is a no-op.
func (ps *PostgresStore) AppendPlacement(matchID string, seq int, p world.Placement) error {
	tx, err := ps.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var next int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM placements WHERE match_id = $1`, matchID).Scan(&next); err != nil {
		return fmt.Errorf("failed to count placements: %w", err)
	}
	if seq < next {
		var stored world.Placement
		var template string
		var rotation int
		err := tx.QueryRow(
			`SELECT template, x, y, rotation FROM placements WHERE match_id = $1 AND seq = $2`,
			matchID, seq,
		).Scan(&template, &stored.Coord.X, &stored.Coord.Y, &rotation)
		if err != nil {
			return fmt.Errorf("failed to read placement %d: %w", seq, err)
		}
		stored.Template = tile.ID(template)
		stored.Rotation = geometry.Rotation(rotation)
		if stored == p {
			return nil
		}
	}
	if seq != next {
		return fmt.Errorf("%w: got %d, want %d", ErrSequenceGap, seq, next)
	}

	_, err = tx.Exec(
		`INSERT INTO placements (match_id, seq, template, x, y, rotation) VALUES ($1, $2, $3, $4, $5, $6)`,
		matchID, seq, string(p.Template), p.Coord.X, p.Coord.Y, int(p.Rotation),
	)
	if err != nil {
		return fmt.Errorf("failed to save placement: %w", err)
	}
	return tx.Commit()
}

func (ps *PostgresStore) LoadPlacements(matchID string) ([]world.Placement, error) {
	if _, err := ps.LoadMatch(matchID); err != nil {
		return nil, err
	}
	rows, err := ps.db.Query(
		`SELECT template, x, y, rotation FROM placements WHERE match_id = $1 ORDER BY seq`,
		matchID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load placements: %w", err)
	}
	defer rows.Close()

	var out []world.Placement
	for rows.Next() {
		var (
			id       string
			x, y     int
			rotation int
		)
		if err := rows.Scan(&id, &x, &y, &rotation); err != nil {
			return nil, fmt.Errorf("failed to scan placement: %w", err)
		}
		out = append(out, world.Placement{
			Template: tile.ID(id),
			Coord:    geometry.Coord{X: x, Y: y},
			Rotation: geometry.Rotation(rotation),
		})
	}
	return out, rows.Err()
}

// Close closes the database connection
func (ps *PostgresStore) Close() error {
	log.Println("Closing database connection...")
	return ps.db.Close()
}
