package neat

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

// testConfig is a small, fast configuration on a 3x4 grid.
func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.Neat.PopSize = 20
	cfg.Neat.Workers = 4
	cfg.Grid.Rows, cfg.Grid.Cols = 3, 4
	cfg.Grid.PlayerRow, cfg.Grid.PlayerCol = 1, 1
	cfg.Grid.SigmaRow, cfg.Grid.SigmaCol = 1, 1
	return cfg
}

func newTestPopulation(t *testing.T, cfg *Config) *Population {
	t.Helper()
	p, err := NewPopulation(cfg)
	require.NoError(t, err)
	p.Out = io.Discard
	return p
}

// populationWithFitness builds a population whose networks carry the given
// fitness values in order. Every network has at least one edge.
func populationWithFitness(t *testing.T, cfg *Config, fitness []int) *Population {
	t.Helper()
	p := &Population{Config: cfg, Name: "test", Seed: cfg.Neat.Seed, Generation: 1, Out: io.Discard}
	for i, f := range fitness {
		n := NewNetwork(cfg.NumInputs(), cfg.Grid.NumOutputs)
		require.NoError(t, n.EdgeMutation(newRand(uint64(i)+100), cfg.MutationOptions()))
		n.SetTimePenalty(cfg.Fitness.TimePenalty)
		n.UpdateFitness(f, 0)
		p.current = append(p.current, n)
	}
	return p
}
