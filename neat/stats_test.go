package neat

import (
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeStats(t *testing.T) {
	networks := make([]*Network, 4)
	for i, f := range []int{4, -2, 10, 4} {
		networks[i] = NewNetwork(1, 1)
		networks[i].Fitness = f
	}
	_, err := networks[2].AddEdge(0, 1, 1)
	assert.NoError(t, err)

	s := ComputeStats(3, networks)
	assert.Equal(t, 3, s.Generation)
	assert.Equal(t, 4, s.Size)
	assert.Equal(t, 10.0, s.Best)
	assert.Equal(t, -2.0, s.Worst)
	assert.Equal(t, 4.0, s.Mean)
	assert.InDelta(t, math.Sqrt(24), s.Stdev, 1e-9)
	assert.Equal(t, 4.0, s.Median)
	assert.Equal(t, 1, s.MaxEdges)
	assert.Equal(t, 0, s.MaxHidden)
	assert.Contains(t, s.String(), "best 10")

	empty := ComputeStats(1, nil)
	assert.True(t, math.IsNaN(empty.Mean))
}

func TestMedian(t *testing.T) {
	assert.True(t, math.IsNaN(Median(nil)))
	assert.Equal(t, 2.0, Median([]float64{3, 1, 2}))
	assert.Equal(t, 2.5, Median([]float64{4, 1, 3, 2}))
}

func TestParallelFor(t *testing.T) {
	var calls atomic.Int64
	seen := make([]bool, 50)
	err := parallelFor(4, len(seen), func(i int) error {
		calls.Add(1)
		seen[i] = true
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(50), calls.Load())
	for i, ok := range seen {
		assert.True(t, ok, "index %d", i)
	}

	boom := errors.New("boom")
	err = parallelFor(0, 5, func(i int) error {
		if i == 3 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)

	assert.NoError(t, parallelFor(8, 0, func(int) error { return errors.New("never called") }))
}

func TestStreamSeedsDiffer(t *testing.T) {
	seen := map[uint64]bool{}
	for g := 0; g < 10; g++ {
		for i := -1; i < 100; i++ {
			s := streamSeed(1, g, i)
			assert.False(t, seen[s], "generation %d index %d", g, i)
			seen[s] = true
		}
	}
	assert.NotEqual(t, streamSeed(1, 0, 0), streamSeed(2, 0, 0))
	assert.Equal(t, newRand(7).Uint64(), newRand(7).Uint64())
}

func TestMedianOfSmallSamples(t *testing.T) {
	assert.Equal(t, 7.0, Median([]float64{7}))
	assert.Equal(t, 1.5, Median([]float64{2, 1}))
	assert.Equal(t, -1.0, Median([]float64{-1, 5, -3, -1, 0}))

	values := []float64{3, 1, 2, 4}
	Median(values)
	assert.Equal(t, []float64{3, 1, 2, 4}, values)
}
