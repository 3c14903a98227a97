package neat

import (
	"fmt"
	"math"
)

// NodeKind distinguishes the three roles a node can play in a network.
type NodeKind int

const (
	InputNode NodeKind = iota
	HiddenNode
	OutputNode
)

func (k NodeKind) String() string {
	switch k {
	case InputNode:
		return "input"
	case HiddenNode:
		return "hidden"
	case OutputNode:
		return "output"
	default:
		return fmt.Sprintf("NodeKind(%d)", int(k))
	}
}

const (
	// InputLayer is the fixed layer of every input node.
	InputLayer = 1
	// OutputLayer is the sentinel layer of output nodes. Nothing may follow an
	// output, so it compares greater than any layer a hidden node can reach.
	OutputLayer = math.MaxInt32
)

// Node is a vertex of a Network. Its identity is its index in Network.Nodes.
// Incident edges are referenced by index into Network.Edges; the node owns
// none of them.
type Node struct {
	Kind        NodeKind
	Layer       int
	Value       int
	InputEdges  []int
	OutputEdges []int
}

func newNode(kind NodeKind, layer int) *Node {
	return &Node{Kind: kind, Layer: layer}
}

// String returns a string representation of the Node.
func (n *Node) String() string {
	return fmt.Sprintf("Node(Kind: %s, Layer: %d, Value: %d, In: %d, Out: %d)",
		n.Kind, n.Layer, n.Value, len(n.InputEdges), len(n.OutputEdges))
}

func (n *Node) addInputEdge(id int) {
	n.InputEdges = append(n.InputEdges, id)
}

func (n *Node) addOutputEdge(id int) {
	n.OutputEdges = append(n.OutputEdges, id)
}

// removeEdgeID drops id from list, keeping the remaining order.
func removeEdgeID(list []int, id int) []int {
	for i, e := range list {
		if e == id {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// replaceEdgeID rewrites every occurrence of from to to.
func replaceEdgeID(list []int, from, to int) {
	for i, e := range list {
		if e == from {
			list[i] = to
		}
	}
}

// copy returns a deep copy of the node, incidence lists included.
func (n *Node) copy() *Node {
	c := *n
	c.InputEdges = append([]int(nil), n.InputEdges...)
	c.OutputEdges = append([]int(nil), n.OutputEdges...)
	return &c
}

// activate sets Value to the sign of the weighted sum over incoming edges.
// All predecessors must already hold their value for this pass.
func (n *Node) activate(nodes []*Node, edges []Edge) {
	sum := 0
	for _, id := range n.InputEdges {
		e := edges[id]
		sum += e.Weight * nodes[e.Begin].Value
	}
	n.Value = sign(sum)
}

// sign maps x to -1, 0 or 1.
func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}
