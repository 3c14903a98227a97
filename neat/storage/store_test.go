package storage

import (
	"context"
	"database/sql"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gadakeco/neat-go/neat"
)

func testPopulation(t *testing.T) *neat.Population {
	t.Helper()
	cfg := neat.DefaultConfig()
	cfg.Neat.PopSize = 10
	cfg.Neat.Workers = 2
	cfg.Grid.Rows, cfg.Grid.Cols = 3, 4
	cfg.Grid.PlayerRow, cfg.Grid.PlayerCol = 1, 1
	pop, err := neat.NewPopulation(cfg)
	require.NoError(t, err)
	pop.Out = io.Discard
	return pop
}

func evaluate(pop *neat.Population) {
	for i, n := range pop.Current() {
		n.UpdateFitness(i%4, 0)
	}
}

func exerciseStore(t *testing.T, store Store) {
	ctx := context.Background()
	require.NoError(t, store.Init(ctx))
	t.Cleanup(func() { _ = store.Close() })

	pop := testPopulation(t)
	first := pop.State()
	require.NoError(t, store.SaveGeneration(ctx, first))

	evaluate(pop)
	require.NoError(t, pop.CreateNextGeneration())
	second := pop.State()
	require.NoError(t, store.SaveGeneration(ctx, second))

	generations, err := store.ListGenerations(ctx, pop.Name)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, generations)

	loaded, ok, err := store.LoadGeneration(ctx, pop.Name, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first, loaded)

	latest, ok, err := store.LatestGeneration(ctx, pop.Name)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, second, latest)

	_, ok, err = store.LoadGeneration(ctx, pop.Name, 7)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = store.LatestGeneration(ctx, "unknown-run")
	require.NoError(t, err)
	assert.False(t, ok)

	// Saving a generation again replaces it.
	require.NoError(t, store.SaveGeneration(ctx, second))
	generations, err = store.ListGenerations(ctx, pop.Name)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, generations)

	restored, err := neat.RestorePopulation(pop.Config, latest)
	require.NoError(t, err)
	assert.Equal(t, pop.Size(), restored.Size())
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	exerciseStore(t, NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db")))
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "runs.db")
	pop := testPopulation(t)

	store := NewSQLiteStore(path)
	require.NoError(t, store.Init(ctx))
	require.NoError(t, store.SaveGeneration(ctx, pop.State()))
	require.NoError(t, store.Close())

	reopened := NewSQLiteStore(path)
	require.NoError(t, reopened.Init(ctx))
	t.Cleanup(func() { _ = reopened.Close() })

	loaded, ok, err := reopened.LoadGeneration(ctx, pop.Name, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, pop.State(), loaded)
}

func TestStoreRequiresInit(t *testing.T) {
	ctx := context.Background()
	state := testPopulation(t).State()

	for _, store := range []Store{NewMemoryStore(), NewSQLiteStore("unused.db")} {
		assert.ErrorIs(t, store.SaveGeneration(ctx, state), ErrNotInitialized)
		_, _, err := store.LoadGeneration(ctx, state.Name, 1)
		assert.ErrorIs(t, err, ErrNotInitialized)
		_, err = store.ListGenerations(ctx, state.Name)
		assert.ErrorIs(t, err, ErrNotInitialized)
	}
}

func TestStoreRejectsUnnamedRun(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Init(ctx))

	state := testPopulation(t).State()
	state.Name = ""
	assert.Error(t, store.SaveGeneration(ctx, state))
}

func TestNewStore(t *testing.T) {
	store, err := NewStore("memory", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	store, err = NewStore("sqlite", filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, store)

	_, err = NewStore("postgres", "")
	assert.Error(t, err)

	assert.Error(t, NewSQLiteStore("").Init(context.Background()))
}

func TestBestFitnessIgnoresUnevaluated(t *testing.T) {
	state := neat.PopulationState{Networks: []neat.NetworkState{
		{Fitness: 9},
		{Fitness: -4, Evaluated: true},
		{Fitness: 3, Evaluated: true},
	}}
	best, ok := bestFitness(state)
	assert.True(t, ok)
	assert.Equal(t, 3, best)

	_, ok = bestFitness(neat.PopulationState{Networks: []neat.NetworkState{{Fitness: 9}}})
	assert.False(t, ok)
}

func TestSQLiteStoreRecordsBestFitness(t *testing.T) {
	ctx := context.Background()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, store.Init(ctx))
	t.Cleanup(func() { _ = store.Close() })

	pop := testPopulation(t)
	require.NoError(t, store.SaveGeneration(ctx, pop.State()))

	_, err := pop.EvaluateGeneration(func(networks []*neat.Network) error {
		for i, n := range networks {
			n.UpdateFitness(i, 0)
		}
		return nil
	})
	require.NoError(t, err)
	evaluated := pop.State()
	evaluated.Generation = 2
	require.NoError(t, store.SaveGeneration(ctx, evaluated))

	db, err := store.getDB()
	require.NoError(t, err)
	bestByGeneration := map[int]sql.NullInt64{}
	rows, err := db.QueryContext(ctx, `SELECT generation, best_fitness FROM generations WHERE run_id = ?`, pop.Name)
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var g int
		var best sql.NullInt64
		require.NoError(t, rows.Scan(&g, &best))
		bestByGeneration[g] = best
	}
	require.NoError(t, rows.Err())

	assert.False(t, bestByGeneration[1].Valid)
	assert.Equal(t, sql.NullInt64{Int64: 9, Valid: true}, bestByGeneration[2])
}
