package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/gadakeco/neat-go/neat"
)

// MemoryStore keeps encoded snapshots in memory. Stored states are encoded
// so that later changes to a population never leak into the archive.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]map[int][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	s.initialized = true
	s.runs = make(map[string]map[int][]byte)
	return nil
}

func (s *MemoryStore) SaveGeneration(_ context.Context, state neat.PopulationState) error {
	payload, err := encode(state)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	run, ok := s.runs[state.Name]
	if !ok {
		run = make(map[int][]byte)
		s.runs[state.Name] = run
	}
	run[state.Generation] = payload
	return nil
}

func (s *MemoryStore) LoadGeneration(_ context.Context, runID string, generation int) (neat.PopulationState, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return neat.PopulationState{}, false, ErrNotInitialized
	}
	payload, ok := s.runs[runID][generation]
	if !ok {
		return neat.PopulationState{}, false, nil
	}
	state, err := decode(runID, generation, payload)
	if err != nil {
		return neat.PopulationState{}, false, err
	}
	return state, true, nil
}

func (s *MemoryStore) LatestGeneration(ctx context.Context, runID string) (neat.PopulationState, bool, error) {
	generations, err := s.ListGenerations(ctx, runID)
	if err != nil || len(generations) == 0 {
		return neat.PopulationState{}, false, err
	}
	return s.LoadGeneration(ctx, runID, generations[len(generations)-1])
}

func (s *MemoryStore) ListGenerations(_ context.Context, runID string) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, ErrNotInitialized
	}
	generations := make([]int, 0, len(s.runs[runID]))
	for g := range s.runs[runID] {
		generations = append(generations, g)
	}
	sort.Ints(generations)
	return generations, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
