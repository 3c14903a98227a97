package neat

import (
	"fmt"
	"math"
	"sort"
)

// Output indices of the reference action layout.
const (
	ActionLeft = iota
	ActionRight
	ActionJump
)

// Network is a genome: a layered DAG of ternary threshold units with weights
// in {-1, +1}. Nodes are stored inputs first, then outputs, then hidden nodes
// in creation order. Edges live in an arena and are referenced by index.
type Network struct {
	Nodes     []*Node
	Edges     []Edge
	Fitness   int  // Fitness score of the last episode.
	Evaluated bool // Whether Fitness belongs to the current topology.

	inputCount  int
	outputCount int
	timePenalty float64

	edgeIndex map[EdgeKey]int
	order     []int // cached evaluation order of non-input nodes
}

// NewNetwork creates a network with the given input and output nodes and no
// edges.
func NewNetwork(inputCount, outputCount int) *Network {
	n := &Network{
		Nodes:       make([]*Node, 0, inputCount+outputCount),
		inputCount:  inputCount,
		outputCount: outputCount,
		timePenalty: DefaultTimePenalty,
		edgeIndex:   make(map[EdgeKey]int),
	}
	for i := 0; i < inputCount; i++ {
		n.Nodes = append(n.Nodes, newNode(InputNode, InputLayer))
	}
	for i := 0; i < outputCount; i++ {
		n.Nodes = append(n.Nodes, newNode(OutputNode, OutputLayer))
	}
	return n
}

// InputCount returns the number of input nodes.
func (n *Network) InputCount() int { return n.inputCount }

// OutputCount returns the number of output nodes.
func (n *Network) OutputCount() int { return n.outputCount }

// HiddenCount returns the number of hidden nodes.
func (n *Network) HiddenCount() int { return len(n.Nodes) - n.inputCount - n.outputCount }

// OutputIndex returns the node index of the i-th output.
func (n *Network) OutputIndex(i int) int { return n.inputCount + i }

// firstHidden is the node index of the first hidden node.
func (n *Network) firstHidden() int { return n.inputCount + n.outputCount }

// HasEdge reports whether begin -> end is connected.
func (n *Network) HasEdge(begin, end int) bool {
	_, ok := n.edgeIndex[EdgeKey{Begin: begin, End: end}]
	return ok
}

// AddEdge validates and inserts a new edge, registers it with both endpoints
// and lifts the end node's layer if needed. On error the network is left
// unchanged.
func (n *Network) AddEdge(begin, end, weight int) (int, error) {
	if err := checkEdge(n.Nodes, begin, end, weight); err != nil {
		return -1, err
	}
	key := EdgeKey{Begin: begin, End: end}
	if _, ok := n.edgeIndex[key]; ok {
		return -1, fmt.Errorf("%w: %d -> %d", ErrDuplicateEdge, begin, end)
	}

	id := len(n.Edges)
	n.Edges = append(n.Edges, Edge{Begin: begin, End: end, Weight: weight})
	n.edgeIndex[key] = id
	n.Nodes[begin].addOutputEdge(id)
	n.Nodes[end].addInputEdge(id)
	n.updateLayer(end)
	n.order = nil
	return id, nil
}

// removeEdge deletes edge id from the arena and from its endpoints. The last
// edge is moved into the freed slot and its references are rewritten.
func (n *Network) removeEdge(id int) {
	e := n.Edges[id]
	n.Nodes[e.Begin].OutputEdges = removeEdgeID(n.Nodes[e.Begin].OutputEdges, id)
	n.Nodes[e.End].InputEdges = removeEdgeID(n.Nodes[e.End].InputEdges, id)
	delete(n.edgeIndex, e.Key())

	last := len(n.Edges) - 1
	if id != last {
		moved := n.Edges[last]
		n.Edges[id] = moved
		replaceEdgeID(n.Nodes[moved.Begin].OutputEdges, last, id)
		replaceEdgeID(n.Nodes[moved.End].InputEdges, last, id)
		n.edgeIndex[moved.Key()] = id
	}
	n.Edges = n.Edges[:last]
	n.order = nil
}

// addHiddenNode appends a hidden node at the given layer and returns its
// index.
func (n *Network) addHiddenNode(layer int) int {
	n.Nodes = append(n.Nodes, newNode(HiddenNode, layer))
	n.order = nil
	return len(n.Nodes) - 1
}

// updateLayer recomputes the layer of node idx from its predecessors and
// pushes any increase forward along output edges. Layers never decrease and
// output nodes keep their sentinel layer.
func (n *Network) updateLayer(idx int) {
	node := n.Nodes[idx]
	if node.Kind != HiddenNode {
		return
	}
	layer := node.Layer
	for _, id := range node.InputEdges {
		if l := n.Nodes[n.Edges[id].Begin].Layer + 1; l > layer {
			layer = l
		}
	}
	n.raiseLayer(idx, layer)
}

// raiseLayer sets node idx to at least layer and walks forward with a
// worklist, lifting every successor that no longer sits above its
// predecessor.
func (n *Network) raiseLayer(idx, layer int) {
	node := n.Nodes[idx]
	if node.Kind != HiddenNode || layer <= node.Layer {
		return
	}
	node.Layer = layer
	n.order = nil

	queue := []int{idx}
	for len(queue) > 0 {
		cur := n.Nodes[queue[0]]
		queue = queue[1:]
		for _, id := range cur.OutputEdges {
			next := n.Edges[id].End
			succ := n.Nodes[next]
			if succ.Kind != HiddenNode || succ.Layer > cur.Layer {
				continue
			}
			succ.Layer = cur.Layer + 1
			queue = append(queue, next)
		}
	}
}

// evalOrder returns the non-input nodes in activation order: hidden nodes by
// non-decreasing layer (ties by index), then outputs.
func (n *Network) evalOrder() []int {
	if n.order != nil {
		return n.order
	}
	hidden := make([]int, 0, n.HiddenCount())
	for i := n.firstHidden(); i < len(n.Nodes); i++ {
		hidden = append(hidden, i)
	}
	sort.SliceStable(hidden, func(a, b int) bool {
		return n.Nodes[hidden[a]].Layer < n.Nodes[hidden[b]].Layer
	})
	order := make([]int, 0, len(hidden)+n.outputCount)
	order = append(order, hidden...)
	for i := 0; i < n.outputCount; i++ {
		order = append(order, n.OutputIndex(i))
	}
	n.order = order
	return order
}

// Evaluate feeds one frame of grid cells through the network and returns one
// boolean per output, true when the output's value is positive. Inputs must
// hold exactly InputCount values, each in {-1, 0, 1}.
func (n *Network) Evaluate(inputs []int) ([]bool, error) {
	if len(inputs) != n.inputCount {
		return nil, fmt.Errorf("mismatch between input count (%d) and network input nodes (%d)", len(inputs), n.inputCount)
	}
	for i, v := range inputs {
		if v < -1 || v > 1 {
			return nil, fmt.Errorf("input %d has value %d outside {-1, 0, 1}", i, v)
		}
	}

	for i, v := range inputs {
		n.Nodes[i].Value = v
	}
	for _, idx := range n.evalOrder() {
		n.Nodes[idx].activate(n.Nodes, n.Edges)
	}

	outputs := make([]bool, n.outputCount)
	for i := range outputs {
		outputs[i] = n.Nodes[n.OutputIndex(i)].Value > 0
	}
	return outputs, nil
}

// Score computes points - penalty*elapsed rounded to the nearest integer.
func Score(points int, elapsed, penalty float64) int {
	return int(math.Round(float64(points) - penalty*elapsed))
}

// UpdateFitness records the outcome of an episode.
func (n *Network) UpdateFitness(points int, elapsed float64) {
	n.Fitness = Score(points, elapsed, n.timePenalty)
	n.Evaluated = true
}

// SetTimePenalty sets the per-second penalty used by UpdateFitness.
func (n *Network) SetTimePenalty(penalty float64) {
	n.timePenalty = penalty
}

// Copy returns a deep copy of the network, fitness included.
func (n *Network) Copy() *Network {
	c := &Network{
		Nodes:       make([]*Node, len(n.Nodes)),
		Edges:       append([]Edge(nil), n.Edges...),
		Fitness:     n.Fitness,
		Evaluated:   n.Evaluated,
		inputCount:  n.inputCount,
		outputCount: n.outputCount,
		timePenalty: n.timePenalty,
		edgeIndex:   make(map[EdgeKey]int, len(n.edgeIndex)),
	}
	for i, node := range n.Nodes {
		c.Nodes[i] = node.copy()
	}
	for k, v := range n.edgeIndex {
		c.edgeIndex[k] = v
	}
	return c
}

// offspring returns a copy with the fitness cleared, ready for mutation.
func (n *Network) offspring() *Network {
	c := n.Copy()
	c.Fitness = 0
	c.Evaluated = false
	return c
}

// InputsInUse returns the input indices that have at least one outgoing edge.
func (n *Network) InputsInUse() []int {
	var used []int
	for i := 0; i < n.inputCount; i++ {
		if len(n.Nodes[i].OutputEdges) > 0 {
			used = append(used, i)
		}
	}
	return used
}

// HiddenByLayer groups hidden node indices by layer.
func (n *Network) HiddenByLayer() map[int][]int {
	layers := make(map[int][]int)
	for i := n.firstHidden(); i < len(n.Nodes); i++ {
		l := n.Nodes[i].Layer
		layers[l] = append(layers[l], i)
	}
	return layers
}

// Validate checks every structural invariant: node kinds and layers, edge
// direction, weights, layer ordering, uniqueness and incidence lists.
func (n *Network) Validate() error {
	if n.inputCount < 0 || n.outputCount < 0 || len(n.Nodes) < n.inputCount+n.outputCount {
		return fmt.Errorf("%d nodes cannot hold %d inputs and %d outputs", len(n.Nodes), n.inputCount, n.outputCount)
	}
	for i, node := range n.Nodes {
		want := HiddenNode
		switch {
		case i < n.inputCount:
			want = InputNode
		case i < n.firstHidden():
			want = OutputNode
		}
		if node.Kind != want {
			return fmt.Errorf("node %d is %s, want %s", i, node.Kind, want)
		}
		switch node.Kind {
		case InputNode:
			if node.Layer != InputLayer {
				return fmt.Errorf("input node %d has layer %d", i, node.Layer)
			}
		case OutputNode:
			if node.Layer != OutputLayer {
				return fmt.Errorf("output node %d has layer %d", i, node.Layer)
			}
		case HiddenNode:
			if node.Layer <= InputLayer || node.Layer >= OutputLayer {
				return fmt.Errorf("hidden node %d has layer %d", i, node.Layer)
			}
		}
	}

	seen := make(map[EdgeKey]int, len(n.Edges))
	inDeg := make([]int, len(n.Nodes))
	outDeg := make([]int, len(n.Nodes))
	for id, e := range n.Edges {
		if err := checkEdge(n.Nodes, e.Begin, e.End, e.Weight); err != nil {
			return fmt.Errorf("edge %d: %w", id, err)
		}
		if prev, ok := seen[e.Key()]; ok {
			return fmt.Errorf("edge %d: %w: same pair as edge %d", id, ErrDuplicateEdge, prev)
		}
		seen[e.Key()] = id
		if got, ok := n.edgeIndex[e.Key()]; !ok || got != id {
			return fmt.Errorf("edge %d is not indexed", id)
		}
		inDeg[e.End]++
		outDeg[e.Begin]++
	}
	if len(n.edgeIndex) != len(n.Edges) {
		return fmt.Errorf("edge index holds %d entries for %d edges", len(n.edgeIndex), len(n.Edges))
	}
	for i, node := range n.Nodes {
		if len(node.InputEdges) != inDeg[i] || len(node.OutputEdges) != outDeg[i] {
			return fmt.Errorf("node %d incidence lists do not match its edges", i)
		}
		listed := make(map[int]bool, len(node.InputEdges))
		for _, id := range node.InputEdges {
			if id < 0 || id >= len(n.Edges) || n.Edges[id].End != i {
				return fmt.Errorf("node %d lists input edge %d it does not end", i, id)
			}
			if listed[id] {
				return fmt.Errorf("node %d lists input edge %d twice", i, id)
			}
			listed[id] = true
		}
		clear(listed)
		for _, id := range node.OutputEdges {
			if id < 0 || id >= len(n.Edges) || n.Edges[id].Begin != i {
				return fmt.Errorf("node %d lists output edge %d it does not begin", i, id)
			}
			if listed[id] {
				return fmt.Errorf("node %d lists output edge %d twice", i, id)
			}
			listed[id] = true
		}
	}
	return nil
}
