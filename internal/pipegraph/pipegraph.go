// Package pipegraph answers whether a graph of connected pipes contains a
// cycle.
package pipegraph

import (
	"errors"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Graph is a directed graph whose nodes are pipes, identified by caller-
// chosen IDs, and whose edges point in the direction messages flow.
type Graph struct {
	g        *simple.DirectedGraph
	selfLoop bool
}

func New() *Graph {
	return &Graph{
		g: simple.NewDirectedGraph(),
	}
}

// AddNode adds a pipe with no connections. Adding the same ID more than
// once is allowed.
func (g *Graph) AddNode(id int64) {
	if g.g.Node(id) == nil {
		g.g.AddNode(simple.Node(id))
	}
}

// AddEdge records that messages flow from the pipe from to the pipe to,
// adding either node if necessary.
func (g *Graph) AddEdge(from, to int64) {
	// simple.DirectedGraph refuses self edges, but a pipe wired to itself
	// is still a cycle for our purposes.
	if from == to {
		g.AddNode(from)
		g.selfLoop = true
		return
	}
	g.g.SetEdge(g.g.NewEdge(simple.Node(from), simple.Node(to)))
}

// Nodes returns the number of pipes in the graph.
func (g *Graph) Nodes() int {
	return g.g.Nodes().Len()
}

// HasCycle reports whether any cycle, including a pipe connected to
// itself, exists in the graph.
func (g *Graph) HasCycle() bool {
	if g.selfLoop {
		return true
	}
	_, err := topo.Sort(g.g)
	var unorderable topo.Unorderable
	return errors.As(err, &unorderable)
}
