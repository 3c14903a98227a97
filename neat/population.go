package neat

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FitnessFunc is the type for the function provided by the game loop to play
// one episode per network. It should call UpdateFitness on every network of
// the slice; the slice holds working copies owned by the call.
type FitnessFunc func(networks []*Network) error

// Population holds the state of the evolutionary process. It is the unit of
// save and restore.
type Population struct {
	Config      *Config
	Name        string   // Run identifier.
	Seed        uint64   // Seed every random stream is derived from.
	Generation  int      // Number of the current generation, starting at 1.
	BestNetwork *Network // Best network found so far; guarded by mu, see Best.
	Out         io.Writer

	mu      sync.RWMutex
	current []*Network
}

// NewPopulation creates a new Population of config.Neat.PopSize minimal
// networks, each given one random edge.
func NewPopulation(config *Config) (*Population, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	p := &Population{
		Config:     config,
		Name:       uuid.NewString(),
		Seed:       config.Neat.Seed,
		Generation: 1,
		Out:        os.Stdout,
	}

	opts := config.MutationOptions()
	initial := make([]*Network, config.Neat.PopSize)
	err := parallelFor(config.WorkerCount(), len(initial), func(i int) error {
		net := NewNetwork(config.NumInputs(), config.Grid.NumOutputs)
		net.SetTimePenalty(config.Fitness.TimePenalty)
		if err := net.EdgeMutation(newRand(streamSeed(p.Seed, 0, i)), opts); err != nil {
			return fmt.Errorf("failed to seed network %d: %w", i, err)
		}
		initial[i] = net
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create initial generation: %w", err)
	}
	p.current = initial
	return p, nil
}

// Current returns the networks of the current generation. The slice is a
// snapshot; a concurrent turnover never shows through it.
func (p *Population) Current() []*Network {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]*Network(nil), p.current...)
}

// Size returns the number of networks in the current generation. After a
// turnover it is Config.NextGenerationSize of the previous size, not
// Config.Neat.PopSize.
func (p *Population) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.current)
}

// GenerationNumber returns the current generation counter.
func (p *Population) GenerationNumber() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Generation
}

func (p *Population) out() io.Writer {
	if p.Out == nil {
		return io.Discard
	}
	return p.Out
}

// RunGeneration evaluates the current generation with fitnessFunc, records
// the best network and reproduces the next generation. It returns the best
// network of the evaluated generation.
func (p *Population) RunGeneration(fitnessFunc FitnessFunc) (*Network, error) {
	genStartTime := time.Now()
	generation := p.GenerationNumber()

	currentBest, err := p.EvaluateGeneration(fitnessFunc)
	if err != nil {
		return nil, err
	}

	fmt.Fprintln(p.out(), " Reproducing...")
	if err := p.CreateNextGeneration(); err != nil {
		return currentBest, fmt.Errorf("reproduction failed in generation %d: %w", generation, err)
	}

	fmt.Fprintf(p.out(), "Generation %d finished in %s\n\n", generation, time.Since(genStartTime))
	return currentBest, nil
}

// EvaluateGeneration plays the current generation without reproducing it, so
// that the evaluated generation can be inspected or archived before
// CreateNextGeneration replaces it.
//
// fitnessFunc works on copies of the networks. Their fitness is committed to
// the generation under the population lock once it returns, so State and
// Current may be called from other goroutines meanwhile.
func (p *Population) EvaluateGeneration(fitnessFunc FitnessFunc) (*Network, error) {
	current := p.Current()
	generation := p.GenerationNumber()
	fmt.Fprintf(p.out(), "****** Generation %d ******\n", generation)

	fmt.Fprintf(p.out(), " Evaluating fitness of %d networks...\n", len(current))
	working := make([]*Network, len(current))
	for i, n := range current {
		working[i] = n.Copy()
	}
	if err := fitnessFunc(working); err != nil {
		return nil, fmt.Errorf("fitness evaluation failed in generation %d: %w", generation, err)
	}

	p.mu.Lock()
	for i, n := range working {
		current[i].Fitness = n.Fitness
		current[i].Evaluated = n.Evaluated
	}
	currentBest := bestOf(current)
	improved := currentBest != nil && (p.BestNetwork == nil || currentBest.Fitness > p.BestNetwork.Fitness)
	if improved {
		p.BestNetwork = currentBest.Copy()
	}
	p.mu.Unlock()

	if improved {
		fmt.Fprintf(p.out(), " New best network found! Fitness: %d, Hidden: %d, Edges: %d\n",
			currentBest.Fitness, currentBest.HiddenCount(), len(currentBest.Edges))
	}
	fmt.Fprintf(p.out(), " %s\n", ComputeStats(generation, current))
	return currentBest, nil
}

// Best returns the best network found so far, or nil before the first
// evaluated generation.
func (p *Population) Best() *Network {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.BestNetwork
}

// bestOf returns the first network with the highest fitness.
func bestOf(networks []*Network) *Network {
	var best *Network
	for _, n := range networks {
		if best == nil || n.Fitness > best.Fitness {
			best = n
		}
	}
	return best
}
