package nn

import (
	"fmt"
	"sort"

	"github.com/gadakeco/neat-go/neat"
)

// neuralNode is a non-input node prepared for activation.
type neuralNode struct {
	Key     int
	Sources []int // node keys of incoming edges
	Weights []int // matching weights
}

// FeedForwardNetwork is a read-only snapshot of a neat.Network. Activate
// does not touch the genome and may be called from several goroutines.
type FeedForwardNetwork struct {
	NumInputs     int
	OutputKeys    []int        // node keys of the outputs, in action order
	NodeEvalOrder []neuralNode // topologically sorted non-input nodes
	NumNodes      int
}

// CreateFeedForwardNetwork builds a runnable network from a genome. It
// performs its own topological sort and fails on a cycle.
func CreateFeedForwardNetwork(g *neat.Network) (*FeedForwardNetwork, error) {
	numNodes := len(g.Nodes)
	incoming := make([][]int, numNodes) // node key -> edge ids
	graph := make([][]int, numNodes)    // node key -> successor keys
	inDegree := make([]int, numNodes)
	for id, e := range g.Edges {
		if e.Begin < 0 || e.Begin >= numNodes || e.End < 0 || e.End >= numNodes {
			return nil, fmt.Errorf("edge %d references a missing node (%d -> %d)", id, e.Begin, e.End)
		}
		incoming[e.End] = append(incoming[e.End], id)
		graph[e.Begin] = append(graph[e.Begin], e.End)
		inDegree[e.End]++
	}

	// Kahn's algorithm; the queue is kept sorted so the order is deterministic.
	queue := []int{}
	for k := 0; k < numNodes; k++ {
		if inDegree[k] == 0 {
			queue = append(queue, k)
		}
	}
	evalOrder := make([]int, 0, numNodes)
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		evalOrder = append(evalOrder, u)

		neighbors := graph[u]
		sort.Ints(neighbors)
		for _, v := range neighbors {
			inDegree[v]--
			if inDegree[v] == 0 {
				queue = append(queue, v)
			}
		}
		sort.Ints(queue)
	}
	if len(evalOrder) != numNodes {
		return nil, fmt.Errorf("failed topological sort: cycle detected (expected %d nodes, got %d)", numNodes, len(evalOrder))
	}

	net := &FeedForwardNetwork{
		NumInputs:  g.InputCount(),
		OutputKeys: make([]int, g.OutputCount()),
		NumNodes:   numNodes,
	}
	for i := range net.OutputKeys {
		net.OutputKeys[i] = g.OutputIndex(i)
	}
	for _, key := range evalOrder {
		if g.Nodes[key].Kind == neat.InputNode {
			continue
		}
		node := neuralNode{Key: key}
		for _, id := range incoming[key] {
			node.Sources = append(node.Sources, g.Edges[id].Begin)
			node.Weights = append(node.Weights, g.Edges[id].Weight)
		}
		net.NodeEvalOrder = append(net.NodeEvalOrder, node)
	}
	return net, nil
}

// Activate computes the actions for one frame of grid cells.
func (net *FeedForwardNetwork) Activate(inputs []int) ([]bool, error) {
	if len(inputs) != net.NumInputs {
		return nil, fmt.Errorf("mismatch between input count (%d) and network input nodes (%d)", len(inputs), net.NumInputs)
	}

	nodeValues := make([]int, net.NumNodes)
	for i, v := range inputs {
		if v < -1 || v > 1 {
			return nil, fmt.Errorf("input %d has value %d outside {-1, 0, 1}", i, v)
		}
		nodeValues[i] = v
	}

	for _, node := range net.NodeEvalOrder {
		sum := 0
		for i, src := range node.Sources {
			sum += node.Weights[i] * nodeValues[src]
		}
		switch {
		case sum > 0:
			nodeValues[node.Key] = 1
		case sum < 0:
			nodeValues[node.Key] = -1
		}
	}

	outputs := make([]bool, len(net.OutputKeys))
	for i, key := range net.OutputKeys {
		outputs[i] = nodeValues[key] > 0
	}
	return outputs, nil
}
