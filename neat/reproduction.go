package neat

import (
	"errors"
	"fmt"
	"sort"

	"golang.org/x/exp/rand"
)

// ErrNotEvaluated is returned when a turnover is requested before every
// network of the generation reported its fitness.
var ErrNotEvaluated = errors.New("network has not been evaluated")

type mutationKind int

const (
	keepElite mutationKind = iota
	mutateEdge
	mutateNode
)

// offspringJob describes one member of the next generation.
type offspringJob struct {
	parent int
	kind   mutationKind
}

// CreateNextGeneration replaces the current generation with its elites plus
// mutated copies of them:
//
//  1. rank by fitness, shuffling the top tie block when it is larger than
//     the elite fraction
//  2. keep the top ceil(EliteFraction*N) unmutated
//  3. EdgeMutationRounds copies of every elite with one new edge each
//  4. NodeMutationRounds copies of every elite with one split edge each
//
// The new generation holds Config.NextGenerationSize(N) networks.
func (p *Population) CreateNextGeneration() error {
	p.mu.RLock()
	current := p.current
	generation := p.Generation
	p.mu.RUnlock()

	if len(current) == 0 {
		return fmt.Errorf("generation %d is empty", generation)
	}
	for i, n := range current {
		if !n.Evaluated {
			return fmt.Errorf("%w: network %d of generation %d", ErrNotEvaluated, i, generation)
		}
	}

	rng := newRand(streamSeed(p.Seed, generation, -1))
	elites := selectElites(current, p.Config.Reproduction.EliteFraction, p.Config.EliteCount(len(current)), rng)
	next, warnings := p.reproduce(elites, generation)
	for _, w := range warnings {
		fmt.Fprintf(p.out(), "Warning: %s\n", w)
	}

	p.mu.Lock()
	p.current = next
	p.Generation = generation + 1
	p.mu.Unlock()
	return nil
}

// selectElites ranks networks by descending fitness with a stable sort and
// returns the first count of them. When more than fraction of the networks
// share the top fitness, that block is shuffled first so that no insertion
// order is favoured.
func selectElites(networks []*Network, fraction float64, count int, rng *rand.Rand) []*Network {
	ranked := append([]*Network(nil), networks...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Fitness > ranked[j].Fitness
	})

	ties := 1
	for ties < len(ranked) && ranked[ties].Fitness == ranked[0].Fitness {
		ties++
	}
	if float64(ties) > fraction*float64(len(ranked)) {
		rng.Shuffle(ties, func(i, j int) { ranked[i], ranked[j] = ranked[j], ranked[i] })
	}

	if count > len(ranked) {
		count = len(ranked)
	}
	return ranked[:count]
}

// offspringPlan lists the next generation in order: elites, then the edge
// rounds, then the node rounds, every round covering all elites.
func (p *Population) offspringPlan(elites int) []offspringJob {
	cfg := p.Config.Reproduction
	plan := make([]offspringJob, 0, elites*(1+cfg.EdgeMutationRounds+cfg.NodeMutationRounds))
	for j := 0; j < elites; j++ {
		plan = append(plan, offspringJob{parent: j, kind: keepElite})
	}
	for r := 0; r < cfg.EdgeMutationRounds; r++ {
		for j := 0; j < elites; j++ {
			plan = append(plan, offspringJob{parent: j, kind: mutateEdge})
		}
	}
	for r := 0; r < cfg.NodeMutationRounds; r++ {
		for j := 0; j < elites; j++ {
			plan = append(plan, offspringJob{parent: j, kind: mutateNode})
		}
	}
	return plan
}

// reproduce builds the next generation from the elites. Offspring are
// mutated in parallel; offspring i always uses the stream derived from
// (seed, generation, i).
func (p *Population) reproduce(elites []*Network, generation int) ([]*Network, []string) {
	plan := p.offspringPlan(len(elites))
	next := make([]*Network, len(plan))
	warnings := make([]string, len(plan))
	opts := p.Config.MutationOptions()

	_ = parallelFor(p.Config.WorkerCount(), len(plan), func(i int) error {
		job := plan[i]
		parent := elites[job.parent]
		if job.kind == keepElite {
			child := parent.Copy()
			child.Evaluated = false
			next[i] = child
			return nil
		}
		child := parent.offspring()
		warnings[i] = mutate(child, job.kind, newRand(streamSeed(p.Seed, generation, i)), opts)
		next[i] = child
		return nil
	})

	var out []string
	for i, w := range warnings {
		if w != "" {
			out = append(out, fmt.Sprintf("offspring %d of generation %d: %s", i, generation, w))
		}
	}
	return next, out
}

// mutate applies one structural mutation. A node mutation on a network
// without edges is replaced by an edge mutation; when nothing can be applied
// the child stays an unmutated copy and a warning is returned.
func mutate(child *Network, kind mutationKind, rng *rand.Rand, opts MutationOptions) string {
	if kind == mutateNode {
		err := child.NodeMutation(rng)
		if err == nil {
			return ""
		}
		if !errors.Is(err, ErrNoEdgeToSplit) {
			return fmt.Sprintf("node mutation failed: %v", err)
		}
	}
	if err := child.EdgeMutation(rng, opts); err != nil {
		return fmt.Sprintf("edge mutation failed, keeping unmutated copy: %v", err)
	}
	return ""
}
