package neat

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	// ErrNoValidEdge is returned by EdgeMutation when every legal edge
	// already exists.
	ErrNoValidEdge = errors.New("no valid edge can be added")
	// ErrNoEdgeToSplit is returned by NodeMutation on a network without edges.
	ErrNoEdgeToSplit = errors.New("no edge to split")
)

// maxPlacementDraws bounds the Gaussian retries for one input cell before the
// draw is clamped into the grid.
const maxPlacementDraws = 32

// MutationOptions configures the structural mutation operators.
type MutationOptions struct {
	Grid            GridConfig
	MaxEdgeAttempts int
}

// MutationOptions extracts the mutation parameters from the config.
func (c *Config) MutationOptions() MutationOptions {
	return MutationOptions{
		Grid:            c.Grid,
		MaxEdgeAttempts: c.Reproduction.MaxEdgeAttempts,
	}
}

// inputSampler draws input cells around the player's position on screen.
type inputSampler struct {
	rows, cols int
	row, col   distuv.Normal
	rng        *rand.Rand
	uniform    bool
	count      int
}

func newInputSampler(grid GridConfig, inputCount int, rng *rand.Rand) *inputSampler {
	s := &inputSampler{
		rows:  grid.Rows,
		cols:  grid.Cols,
		row:   distuv.Normal{Mu: grid.PlayerRow, Sigma: grid.SigmaRow, Src: rng},
		col:   distuv.Normal{Mu: grid.PlayerCol, Sigma: grid.SigmaCol, Src: rng},
		rng:   rng,
		count: inputCount,
	}
	// Networks that do not match the grid fall back to uniform draws.
	if grid.Rows <= 0 || grid.Cols <= 0 || grid.Rows*grid.Cols != inputCount {
		s.uniform = true
	}
	return s
}

// sample returns a flat, row-major input index.
func (s *inputSampler) sample() int {
	if s.uniform {
		return s.rng.Intn(s.count)
	}
	var r, c int
	for i := 0; i < maxPlacementDraws; i++ {
		r = int(math.Round(s.row.Rand()))
		c = int(math.Round(s.col.Rand()))
		if r >= 0 && r < s.rows && c >= 0 && c < s.cols {
			return r*s.cols + c
		}
	}
	r = clampInt(r, 0, s.rows-1)
	c = clampInt(c, 0, s.cols-1)
	return r*s.cols + c
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func randomWeight(rng *rand.Rand) int {
	if rng.Intn(2) == 0 {
		return -1
	}
	return 1
}

// EdgeMutation adds exactly one new edge. Candidates are drawn by rejection
// sampling for at most opts.MaxEdgeAttempts rounds; after that every legal
// pair is enumerated and one is picked uniformly. ErrNoValidEdge is returned
// only when no legal pair exists.
func (n *Network) EdgeMutation(rng *rand.Rand, opts MutationOptions) error {
	hidden := n.HiddenCount()
	sources := n.inputCount + hidden
	targets := hidden + n.outputCount
	if sources == 0 || targets == 0 {
		return ErrNoValidEdge
	}
	sampler := newInputSampler(opts.Grid, n.inputCount, rng)

	for attempt := 0; attempt < opts.MaxEdgeAttempts; attempt++ {
		var begin int
		if rng.Intn(sources) < n.inputCount {
			begin = sampler.sample()
		} else {
			begin = n.firstHidden() + rng.Intn(hidden)
		}
		// Outputs and hidden nodes are contiguous from inputCount on.
		end := n.inputCount + rng.Intn(targets)
		weight := randomWeight(rng)
		if begin == end {
			continue
		}

		b, e := n.Nodes[begin], n.Nodes[end]
		if e.Kind == HiddenNode && e.Layer <= b.Layer {
			if b.Kind != HiddenNode || b.Layer == e.Layer {
				continue
			}
			begin, end = end, begin
		}
		if n.HasEdge(begin, end) {
			continue
		}
		if _, err := n.AddEdge(begin, end, weight); err != nil {
			continue
		}
		return nil
	}

	candidates := n.openEdges()
	if len(candidates) == 0 {
		return ErrNoValidEdge
	}
	pick := candidates[rng.Intn(len(candidates))]
	if _, err := n.AddEdge(pick.Begin, pick.End, randomWeight(rng)); err != nil {
		return fmt.Errorf("failed to add enumerated edge %d -> %d: %w", pick.Begin, pick.End, err)
	}
	return nil
}

// openEdges lists every (begin, end) pair that could be added right now.
func (n *Network) openEdges() []EdgeKey {
	var open []EdgeKey
	for begin := range n.Nodes {
		if n.Nodes[begin].Kind == OutputNode {
			continue
		}
		for end := n.inputCount; end < len(n.Nodes); end++ {
			if begin == end || n.HasEdge(begin, end) {
				continue
			}
			if checkEdge(n.Nodes, begin, end, 1) != nil {
				continue
			}
			open = append(open, EdgeKey{Begin: begin, End: end})
		}
	}
	return open
}

// NodeMutation splits a random edge begin -> end (weight w) into
// begin -> h (+1) and h -> end (w) through a new hidden node h one layer
// above begin.
func (n *Network) NodeMutation(rng *rand.Rand) error {
	if len(n.Edges) == 0 {
		return ErrNoEdgeToSplit
	}
	id := rng.Intn(len(n.Edges))
	split := n.Edges[id]

	h := n.addHiddenNode(n.Nodes[split.Begin].Layer + 1)
	if n.Nodes[split.End].Kind != OutputNode {
		n.raiseLayer(split.End, n.Nodes[h].Layer+1)
	}
	n.removeEdge(id)

	if _, err := n.AddEdge(split.Begin, h, 1); err != nil {
		return fmt.Errorf("failed to connect split source: %w", err)
	}
	if _, err := n.AddEdge(h, split.End, split.Weight); err != nil {
		return fmt.Errorf("failed to connect split target: %w", err)
	}
	return nil
}
