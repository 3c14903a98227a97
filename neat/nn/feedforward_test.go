package nn

import (
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gadakeco/neat-go/neat"
)

func evolvedNetworks(t *testing.T) []*neat.Network {
	t.Helper()
	cfg := neat.DefaultConfig()
	cfg.Neat.PopSize = 10
	cfg.Grid.Rows, cfg.Grid.Cols = 3, 3
	cfg.Grid.PlayerRow, cfg.Grid.PlayerCol = 1, 1
	pop, err := neat.NewPopulation(cfg)
	require.NoError(t, err)
	pop.Out = io.Discard

	for g := 0; g < 4; g++ {
		for i, n := range pop.Current() {
			n.UpdateFitness(len(n.Edges)+n.HiddenCount()*(i%2), 0)
		}
		require.NoError(t, pop.CreateNextGeneration())
	}
	return pop.Current()
}

// frames enumerates every input vector for a 3x3 grid.
func frames() [][]int {
	out := [][]int{{}}
	for i := 0; i < 9; i++ {
		var next [][]int
		for _, prefix := range out {
			for _, v := range []int{-1, 0, 1} {
				next = append(next, append(append([]int(nil), prefix...), v))
			}
		}
		out = next
	}
	return out
}

func TestActivateMatchesEvaluate(t *testing.T) {
	inputs := frames()
	for i, g := range evolvedNetworks(t) {
		net, err := CreateFeedForwardNetwork(g)
		require.NoError(t, err)
		assert.Equal(t, 9, net.NumInputs)
		assert.Len(t, net.OutputKeys, 3)

		for _, in := range inputs {
			want, err := g.Evaluate(in)
			require.NoError(t, err)
			got, err := net.Activate(in)
			require.NoError(t, err)
			require.Equal(t, want, got, "network %d, inputs %v", i, in)
		}
	}
}

func TestActivateIsSafeForConcurrentUse(t *testing.T) {
	g := evolvedNetworks(t)[0]
	net, err := CreateFeedForwardNetwork(g)
	require.NoError(t, err)

	in := []int{1, 0, -1, 1, 1, 0, 0, -1, 1}
	want, err := g.Evaluate(in)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := 0; k < 100; k++ {
				got, err := net.Activate(in)
				assert.NoError(t, err)
				assert.Equal(t, want, got)
			}
		}()
	}
	wg.Wait()
}

func TestActivateRejectsBadInput(t *testing.T) {
	g := neat.NewNetwork(2, 1)
	_, err := g.AddEdge(0, 2, 1)
	require.NoError(t, err)
	net, err := CreateFeedForwardNetwork(g)
	require.NoError(t, err)

	_, err = net.Activate([]int{1})
	assert.Error(t, err)
	_, err = net.Activate([]int{1, -2})
	assert.Error(t, err)

	out, err := net.Activate([]int{1, 0})
	require.NoError(t, err)
	assert.Equal(t, []bool{true}, out)
}

func TestCreateFeedForwardNetworkDetectsCycle(t *testing.T) {
	g := neat.NewNetwork(1, 1)
	_, err := g.AddEdge(0, 1, 1)
	require.NoError(t, err)
	// Hand-edited edges bypass AddEdge's checks.
	g.Edges = append(g.Edges, neat.Edge{Begin: 1, End: 1, Weight: 1})

	_, err = CreateFeedForwardNetwork(g)
	assert.ErrorContains(t, err, "cycle")

	g.Edges[1] = neat.Edge{Begin: 0, End: 7, Weight: 1}
	_, err = CreateFeedForwardNetwork(g)
	assert.ErrorContains(t, err, "missing node")
}
