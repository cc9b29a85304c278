package louvain

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/graph/simple"
)

// ToGonum converts the graph to a gonum weighted undirected graph, vertex i
// becoming node ID i. gonum's simple graphs reject self edges, so graphs
// carrying self-loops cannot be converted.
func (g *Graph) ToGonum() (*simple.WeightedUndirectedGraph, error) {
	wg := simple.NewWeightedUndirectedGraph(0, math.Inf(1))

	for i := 0; i < g.NumNodes; i++ {
		wg.AddNode(simple.Node(i))
	}

	for u := 0; u < g.NumNodes; u++ {
		neighbors, weights := g.Neighbors(u)
		for i, v := range neighbors {
			if v == u {
				return nil, fmt.Errorf("vertex %d has a self-loop; gonum simple graphs reject self edges", u)
			}
			if v < u {
				continue
			}
			wg.SetWeightedEdge(simple.WeightedEdge{
				F: simple.Node(u),
				T: simple.Node(v),
				W: weights[i],
			})
		}
	}

	return wg, nil
}

// FromGonum converts a gonum weighted undirected graph into a Graph over
// dense vertex IDs. gonum node IDs are renumbered in ascending order; the
// returned slice maps dense vertex ID back to the gonum node ID.
func FromGonum(wg *simple.WeightedUndirectedGraph) (*Graph, []int64, error) {
	var ids []int64
	nodes := wg.Nodes()
	for nodes.Next() {
		ids = append(ids, nodes.Node().ID())
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	dense := make(map[int64]int, len(ids))
	for i, id := range ids {
		dense[id] = i
	}

	var edges []Edge
	weightedEdges := wg.WeightedEdges()
	for weightedEdges.Next() {
		e := weightedEdges.WeightedEdge()
		edges = append(edges, Edge{
			From:   dense[e.From().ID()],
			To:     dense[e.To().ID()],
			Weight: e.Weight(),
		})
	}

	g, err := NewGraphFromEdges(len(ids), edges)
	if err != nil {
		return nil, nil, err
	}
	return g, ids, nil
}
