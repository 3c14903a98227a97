// Package storage archives population snapshots, one per run and generation.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/gadakeco/neat-go/neat"
)

// ErrNotInitialized is returned by a store used before Init.
var ErrNotInitialized = errors.New("store is not initialized")

// Store persists population states keyed by run name and generation.
type Store interface {
	Init(ctx context.Context) error
	SaveGeneration(ctx context.Context, state neat.PopulationState) error
	LoadGeneration(ctx context.Context, runID string, generation int) (neat.PopulationState, bool, error)
	LatestGeneration(ctx context.Context, runID string) (neat.PopulationState, bool, error)
	ListGenerations(ctx context.Context, runID string) ([]int, error)
	Close() error
}

// NewStore returns the backend named by kind.
func NewStore(kind, sqlitePath string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(sqlitePath), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

func encode(state neat.PopulationState) ([]byte, error) {
	if state.Name == "" {
		return nil, errors.New("population state has no run name")
	}
	var buf bytes.Buffer
	if err := neat.EncodeState(&buf, state); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(runID string, generation int, payload []byte) (neat.PopulationState, error) {
	state, err := neat.DecodeState(bytes.NewReader(payload))
	if err != nil {
		return neat.PopulationState{}, fmt.Errorf("decode run %s generation %d: %w", runID, generation, err)
	}
	return state, nil
}

// bestFitness is the highest fitness among the evaluated networks. ok is
// false when nothing in the state has been evaluated.
func bestFitness(state neat.PopulationState) (best int, ok bool) {
	for _, n := range state.Networks {
		if !n.Evaluated {
			continue
		}
		if !ok || n.Fitness > best {
			best, ok = n.Fitness, true
		}
	}
	return best, ok
}
