package louvain

import (
	"errors"
	"fmt"
)

// ErrInvalidGraph is returned when the input edge set cannot describe a valid
// weighted undirected graph over dense vertex IDs.
var ErrInvalidGraph = errors.New("invalid graph")

// Edge is a single weighted input triple over dense vertex IDs.
type Edge struct {
	From   int
	To     int
	Weight float64
}

// Graph is a weighted undirected graph over vertices 0..NumNodes-1, stored as
// parallel adjacency/weight slices. Every edge appears in both endpoints'
// lists; a self-loop appears once in its vertex's list but contributes its
// weight twice to that vertex's degree.
type Graph struct {
	NumNodes    int
	Adjacency   [][]int
	Weights     [][]float64
	Degrees     []float64
	TotalWeight float64
}

// NewGraph creates an empty graph with numNodes vertices and no edges.
func NewGraph(numNodes int) *Graph {
	return &Graph{
		NumNodes:  numNodes,
		Adjacency: make([][]int, numNodes),
		Weights:   make([][]float64, numNodes),
		Degrees:   make([]float64, numNodes),
	}
}

// NewGraphFromEdges builds a graph from a sequence of (from, to, weight)
// triples. Parallel edges over the same vertex pair, in either orientation,
// are aggregated by summing their weights. Vertex IDs must lie in
// [0, numNodes) and weights must be non-negative; violations surface as
// ErrInvalidGraph.
func NewGraphFromEdges(numNodes int, edges []Edge) (*Graph, error) {
	if numNodes < 0 {
		return nil, fmt.Errorf("%w: negative vertex count %d", ErrInvalidGraph, numNodes)
	}

	// Aggregate parallel edges on the unordered vertex pair.
	type pair struct{ u, v int }
	merged := make(map[pair]float64, len(edges))
	order := make([]pair, 0, len(edges))

	for _, e := range edges {
		if e.From < 0 || e.From >= numNodes || e.To < 0 || e.To >= numNodes {
			return nil, fmt.Errorf("%w: edge (%d, %d) out of range for %d vertices",
				ErrInvalidGraph, e.From, e.To, numNodes)
		}
		if e.Weight < 0 {
			return nil, fmt.Errorf("%w: negative weight %f on edge (%d, %d)",
				ErrInvalidGraph, e.Weight, e.From, e.To)
		}

		p := pair{e.From, e.To}
		if p.u > p.v {
			p.u, p.v = p.v, p.u
		}
		if _, seen := merged[p]; !seen {
			order = append(order, p)
		}
		merged[p] += e.Weight
	}

	g := NewGraph(numNodes)
	for _, p := range order {
		if err := g.AddEdge(p.u, p.v, merged[p]); err != nil {
			return nil, err
		}
	}

	return g, nil
}

// AddEdge adds a weighted edge between two vertices, mirroring the adjacency
// entry on both endpoints. The caller is responsible for not adding the same
// vertex pair twice; NewGraphFromEdges aggregates duplicates before calling.
func (g *Graph) AddEdge(u, v int, weight float64) error {
	if u < 0 || u >= g.NumNodes || v < 0 || v >= g.NumNodes {
		return fmt.Errorf("%w: vertex out of range: u=%d, v=%d, numNodes=%d",
			ErrInvalidGraph, u, v, g.NumNodes)
	}
	if weight < 0 {
		return fmt.Errorf("%w: negative weight %f on edge (%d, %d)", ErrInvalidGraph, weight, u, v)
	}

	g.Adjacency[u] = append(g.Adjacency[u], v)
	g.Weights[u] = append(g.Weights[u], weight)
	g.Degrees[u] += weight

	if u != v {
		g.Adjacency[v] = append(g.Adjacency[v], u)
		g.Weights[v] = append(g.Weights[v], weight)
		g.Degrees[v] += weight
	} else {
		// Self-loop: degree counts the weight twice, the edge itself once.
		g.Degrees[u] += weight
	}

	g.TotalWeight += weight
	return nil
}

// Degree returns the weighted degree of a vertex.
func (g *Graph) Degree(node int) float64 {
	return g.Degrees[node]
}

// Neighbors returns the neighbor list and matching edge weights for a vertex.
// The returned slices are views into graph storage and must not be modified.
func (g *Graph) Neighbors(node int) ([]int, []float64) {
	if node < 0 || node >= g.NumNodes {
		return nil, nil
	}
	return g.Adjacency[node], g.Weights[node]
}

// EdgeWeight returns the weight of the edge between u and v, or 0 when no
// such edge exists.
func (g *Graph) EdgeWeight(u, v int) float64 {
	if u < 0 || u >= g.NumNodes || v < 0 || v >= g.NumNodes {
		return 0.0
	}
	for i, neighbor := range g.Adjacency[u] {
		if neighbor == v {
			return g.Weights[u][i]
		}
	}
	return 0.0
}

// SelfLoop returns the weight of the self-loop on a vertex, or 0.
func (g *Graph) SelfLoop(node int) float64 {
	return g.EdgeWeight(node, node)
}

// Clone creates a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	clone := NewGraph(g.NumNodes)
	clone.TotalWeight = g.TotalWeight
	copy(clone.Degrees, g.Degrees)

	for i := 0; i < g.NumNodes; i++ {
		clone.Adjacency[i] = make([]int, len(g.Adjacency[i]))
		clone.Weights[i] = make([]float64, len(g.Weights[i]))
		copy(clone.Adjacency[i], g.Adjacency[i])
		copy(clone.Weights[i], g.Weights[i])
	}

	return clone
}

// Validate checks internal adjacency consistency.
func (g *Graph) Validate() error {
	for i := 0; i < g.NumNodes; i++ {
		if len(g.Adjacency[i]) != len(g.Weights[i]) {
			return fmt.Errorf("%w: adjacency and weights inconsistent for vertex %d", ErrInvalidGraph, i)
		}
		for j, neighbor := range g.Adjacency[i] {
			if neighbor < 0 || neighbor >= g.NumNodes {
				return fmt.Errorf("%w: invalid neighbor %d for vertex %d", ErrInvalidGraph, neighbor, i)
			}
			if g.Weights[i][j] < 0 {
				return fmt.Errorf("%w: negative weight %f on edge %d-%d",
					ErrInvalidGraph, g.Weights[i][j], i, neighbor)
			}
		}
	}
	return nil
}
