package storage

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/gadakeco/neat-go/neat"

	_ "modernc.org/sqlite"
)

// SQLiteStore archives snapshots in a SQLite database file.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveGeneration(ctx context.Context, state neat.PopulationState) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := encode(state)
	if err != nil {
		return err
	}
	var best sql.NullInt64
	if fitness, ok := bestFitness(state); ok {
		best = sql.NullInt64{Int64: int64(fitness), Valid: true}
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO generations (run_id, generation, size, best_fitness, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id, generation) DO UPDATE SET
			size = excluded.size,
			best_fitness = excluded.best_fitness,
			payload = excluded.payload
	`, state.Name, state.Generation, len(state.Networks), best, payload)
	return err
}

func (s *SQLiteStore) LoadGeneration(ctx context.Context, runID string, generation int) (neat.PopulationState, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return neat.PopulationState{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM generations WHERE run_id = ? AND generation = ?`, runID, generation).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return neat.PopulationState{}, false, nil
		}
		return neat.PopulationState{}, false, err
	}

	state, err := decode(runID, generation, payload)
	if err != nil {
		return neat.PopulationState{}, false, err
	}
	return state, true, nil
}

func (s *SQLiteStore) LatestGeneration(ctx context.Context, runID string) (neat.PopulationState, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return neat.PopulationState{}, false, err
	}

	var generation int
	var payload []byte
	err = db.QueryRowContext(ctx, `
		SELECT generation, payload FROM generations
		WHERE run_id = ?
		ORDER BY generation DESC
		LIMIT 1
	`, runID).Scan(&generation, &payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return neat.PopulationState{}, false, nil
		}
		return neat.PopulationState{}, false, err
	}

	state, err := decode(runID, generation, payload)
	if err != nil {
		return neat.PopulationState{}, false, err
	}
	return state, true, nil
}

func (s *SQLiteStore) ListGenerations(ctx context.Context, runID string) ([]int, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT generation FROM generations WHERE run_id = ? ORDER BY generation`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	generations := []int{}
	for rows.Next() {
		var g int
		if err := rows.Scan(&g); err != nil {
			return nil, err
		}
		generations = append(generations, g)
	}
	return generations, rows.Err()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, ErrNotInitialized
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS generations (
			run_id TEXT NOT NULL,
			generation INTEGER NOT NULL,
			size INTEGER NOT NULL,
			best_fitness INTEGER,
			payload BLOB NOT NULL,
			PRIMARY KEY (run_id, generation)
		);
	`)
	return err
}
