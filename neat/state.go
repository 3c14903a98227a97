package neat

import (
	"errors"
	"fmt"
	"os"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// ErrCorruptState is returned when persisted state does not describe a valid
// population. Loading fails closed; nothing is repaired.
var ErrCorruptState = errors.New("corrupt population state")

// NodeState is the persisted form of a Node.
type NodeState struct {
	Kind        NodeKind
	Layer       int
	Value       int
	InputEdges  []int
	OutputEdges []int
}

// NetworkState is the persisted form of a Network. Nodes and edges keep
// their index order.
type NetworkState struct {
	Inputs    int
	Outputs   int
	Nodes     []NodeState
	Edges     []Edge
	Fitness   int
	Evaluated bool
}

// PopulationState is a total, order-preserving view of a Population.
type PopulationState struct {
	Name       string
	Seed       uint64
	Generation int
	Networks   []NetworkState
	Best       *NetworkState
}

func cloneIDs(ids []int) []int {
	if len(ids) == 0 {
		return nil
	}
	return append([]int(nil), ids...)
}

// State returns the persisted form of the network.
func (n *Network) State() NetworkState {
	s := NetworkState{
		Inputs:    n.inputCount,
		Outputs:   n.outputCount,
		Nodes:     make([]NodeState, len(n.Nodes)),
		Fitness:   n.Fitness,
		Evaluated: n.Evaluated,
	}
	if len(n.Edges) > 0 {
		s.Edges = append([]Edge(nil), n.Edges...)
	}
	for i, node := range n.Nodes {
		s.Nodes[i] = NodeState{
			Kind:        node.Kind,
			Layer:       node.Layer,
			Value:       node.Value,
			InputEdges:  cloneIDs(node.InputEdges),
			OutputEdges: cloneIDs(node.OutputEdges),
		}
	}
	return s
}

// NetworkFromState rebuilds a network and checks every invariant, including
// acyclicity of the edge graph.
func NetworkFromState(s NetworkState) (*Network, error) {
	if s.Inputs < 0 || s.Outputs < 0 || len(s.Nodes) < s.Inputs+s.Outputs {
		return nil, fmt.Errorf("%w: %d nodes for %d inputs and %d outputs", ErrCorruptState, len(s.Nodes), s.Inputs, s.Outputs)
	}
	n := &Network{
		Nodes:       make([]*Node, len(s.Nodes)),
		Fitness:     s.Fitness,
		Evaluated:   s.Evaluated,
		inputCount:  s.Inputs,
		outputCount: s.Outputs,
		timePenalty: DefaultTimePenalty,
		edgeIndex:   make(map[EdgeKey]int, len(s.Edges)),
	}
	if len(s.Edges) > 0 {
		n.Edges = append([]Edge(nil), s.Edges...)
	}
	for i, ns := range s.Nodes {
		n.Nodes[i] = &Node{
			Kind:        ns.Kind,
			Layer:       ns.Layer,
			Value:       ns.Value,
			InputEdges:  cloneIDs(ns.InputEdges),
			OutputEdges: cloneIDs(ns.OutputEdges),
		}
	}
	for id, e := range n.Edges {
		if _, dup := n.edgeIndex[e.Key()]; dup {
			return nil, fmt.Errorf("%w: edge %d: %v", ErrCorruptState, id, ErrDuplicateEdge)
		}
		n.edgeIndex[e.Key()] = id
	}
	if err := n.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	if err := validateAcyclic(n); err != nil {
		return nil, err
	}
	return n, nil
}

// validateAcyclic checks that the edges admit a topological order.
func validateAcyclic(n *Network) error {
	g := simple.NewDirectedGraph()
	for i := range n.Nodes {
		g.AddNode(simple.Node(i))
	}
	for _, e := range n.Edges {
		g.SetEdge(simple.Edge{F: simple.Node(e.Begin), T: simple.Node(e.End)})
	}
	if _, err := topo.Sort(g); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	return nil
}

// State returns a total, order-preserving view of the population.
func (p *Population) State() PopulationState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s := PopulationState{
		Name:       p.Name,
		Seed:       p.Seed,
		Generation: p.Generation,
		Networks:   make([]NetworkState, len(p.current)),
	}
	for i, n := range p.current {
		s.Networks[i] = n.State()
	}
	if p.BestNetwork != nil {
		best := p.BestNetwork.State()
		s.Best = &best
	}
	return s
}

// RestorePopulation rebuilds a population from its state. Every network must
// match the grid and output count of config.
func RestorePopulation(config *Config, s PopulationState) (*Population, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if s.Generation < 1 {
		return nil, fmt.Errorf("%w: generation %d", ErrCorruptState, s.Generation)
	}
	if len(s.Networks) == 0 {
		return nil, fmt.Errorf("%w: no networks", ErrCorruptState)
	}
	restore := func(ns NetworkState) (*Network, error) {
		if ns.Inputs != config.NumInputs() || ns.Outputs != config.Grid.NumOutputs {
			return nil, fmt.Errorf("%w: network has %d inputs and %d outputs, config expects %d and %d",
				ErrCorruptState, ns.Inputs, ns.Outputs, config.NumInputs(), config.Grid.NumOutputs)
		}
		n, err := NetworkFromState(ns)
		if err != nil {
			return nil, err
		}
		n.SetTimePenalty(config.Fitness.TimePenalty)
		return n, nil
	}

	p := &Population{
		Config:     config,
		Name:       s.Name,
		Seed:       s.Seed,
		Generation: s.Generation,
		Out:        os.Stdout,
		current:    make([]*Network, len(s.Networks)),
	}
	for i, ns := range s.Networks {
		n, err := restore(ns)
		if err != nil {
			return nil, fmt.Errorf("network %d: %w", i, err)
		}
		p.current[i] = n
	}
	if s.Best != nil {
		best, err := restore(*s.Best)
		if err != nil {
			return nil, fmt.Errorf("best network: %w", err)
		}
		p.BestNetwork = best
	}
	return p, nil
}
