package louvain

import (
	"fmt"
	"math"
	"sort"
)

// Contract collapses each community of the partition into a single vertex of
// a new graph. The partition must already be dense (community IDs 0..k-1, as
// produced by Community.DensePartition). Inter-community edge weights are
// accumulated on the super-vertex pair; intra-community edges and original
// self-loops become self-loops on the super-vertex.
//
// Total edge weight is conserved exactly; a relative drift beyond 1e-9 is
// reported as an error since it indicates corrupted adjacency state.
func Contract(g *Graph, partition []int, numCommunities int) (*Graph, error) {
	if len(partition) != g.NumNodes {
		return nil, fmt.Errorf("%w: partition covers %d of %d vertices",
			ErrInvalidGraph, len(partition), g.NumNodes)
	}
	for node, comm := range partition {
		if comm < 0 || comm >= numCommunities {
			return nil, fmt.Errorf("%w: vertex %d assigned to community %d of %d",
				ErrInvalidGraph, node, comm, numCommunities)
		}
	}

	type pair struct{ u, v int }
	superEdges := make(map[pair]float64)

	// Each undirected edge appears in both endpoints' lists; visiting only
	// neighbor >= node counts it once. Self-loops appear once already.
	for node := 0; node < g.NumNodes; node++ {
		cu := partition[node]
		neighbors, weights := g.Neighbors(node)
		for i, neighbor := range neighbors {
			if neighbor < node {
				continue
			}
			cv := partition[neighbor]
			p := pair{cu, cv}
			if p.u > p.v {
				p.u, p.v = p.v, p.u
			}
			superEdges[p] += weights[i]
		}
	}

	// Deterministic insertion order for reproducible adjacency layout.
	pairs := make([]pair, 0, len(superEdges))
	for p := range superEdges {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].u != pairs[j].u {
			return pairs[i].u < pairs[j].u
		}
		return pairs[i].v < pairs[j].v
	})

	super := NewGraph(numCommunities)
	for _, p := range pairs {
		if err := super.AddEdge(p.u, p.v, superEdges[p]); err != nil {
			return nil, err
		}
	}

	if err := checkWeightConserved(g.TotalWeight, super.TotalWeight); err != nil {
		return nil, err
	}

	return super, nil
}

func checkWeightConserved(before, after float64) error {
	diff := math.Abs(before - after)
	if diff > 1e-9*math.Max(1.0, math.Abs(before)) {
		return fmt.Errorf("contraction lost edge weight: %g before, %g after", before, after)
	}
	return nil
}
