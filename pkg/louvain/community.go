package louvain

import "sort"

// Community tracks the partition of a graph's vertices into communities along
// with the aggregate weights needed for O(deg) modularity-gain evaluation.
//
// Internal weights are stored doubled: every intra-community edge contributes
// its weight twice and every self-loop twice, so In[c]/(2m) is the fraction of
// edge weight internal to c.
type Community struct {
	NodeToCommunity []int
	In              []float64 // doubled internal weight per community
	Tot             []float64 // summed weighted degree per community
	Size            []int     // member count per community

	graph *Graph
}

// NewCommunity puts every vertex in its own singleton community.
func NewCommunity(g *Graph) *Community {
	n := g.NumNodes
	c := &Community{
		NodeToCommunity: make([]int, n),
		In:              make([]float64, n),
		Tot:             make([]float64, n),
		Size:            make([]int, n),
		graph:           g,
	}

	for i := 0; i < n; i++ {
		c.NodeToCommunity[i] = i
		c.Tot[i] = g.Degrees[i]
		c.In[i] = 2 * g.SelfLoop(i)
		c.Size[i] = 1
	}

	return c
}

// NewCommunityFromPartition builds the aggregate table for an existing
// assignment. Community IDs must lie in [0, numNodes).
func NewCommunityFromPartition(g *Graph, partition []int) *Community {
	n := g.NumNodes
	c := &Community{
		NodeToCommunity: make([]int, n),
		In:              make([]float64, n),
		Tot:             make([]float64, n),
		Size:            make([]int, n),
		graph:           g,
	}
	copy(c.NodeToCommunity, partition)

	for i := 0; i < n; i++ {
		comm := partition[i]
		c.Tot[comm] += g.Degrees[i]
		c.Size[comm]++

		neighbors, weights := g.Neighbors(i)
		for j, neighbor := range neighbors {
			if neighbor == i {
				// Self-loop appears once in the list; count it doubled.
				c.In[comm] += 2 * weights[j]
			} else if partition[neighbor] == comm {
				// Each intra-community edge is visited from both endpoints,
				// accumulating its doubled contribution.
				c.In[comm] += weights[j]
			}
		}
	}

	return c
}

// Modularity computes Newman's modularity of the current partition:
// Q = sum_c [ in_c/(2m) - (tot_c/(2m))^2 ] with in_c stored doubled.
// A graph with no edges has modularity 0.
func (c *Community) Modularity() float64 {
	m := c.graph.TotalWeight
	if m == 0 {
		return 0.0
	}

	q := 0.0
	m2 := 2.0 * m
	for comm := range c.Size {
		if c.Size[comm] == 0 {
			continue
		}
		q += c.In[comm]/m2 - (c.Tot[comm]/m2)*(c.Tot[comm]/m2)
	}
	return q
}

// Gain returns the modularity delta from inserting a currently unassigned
// vertex into a community: [k_v_c - tot_c * k_v / (2m)] / m, where
// weightToComm is k_v_c, the edge weight from the vertex to current members.
// The vertex's own degree must already be removed from the community's total
// (see Remove). Zero total weight yields no gain anywhere.
func (c *Community) Gain(node, comm int, weightToComm float64) float64 {
	m := c.graph.TotalWeight
	if m == 0 {
		return 0.0
	}
	return (weightToComm - c.Tot[comm]*c.graph.Degrees[node]/(2.0*m)) / m
}

// WeightToCommunities accumulates, per neighboring community, the total edge
// weight from node to that community's members. Self-loops are excluded: a
// vertex is not its own neighbor for gain purposes. The node's current
// community is always present in the result, possibly with weight 0.
func (c *Community) WeightToCommunities(node int) map[int]float64 {
	weights := map[int]float64{c.NodeToCommunity[node]: 0}

	neighbors, edgeWeights := c.graph.Neighbors(node)
	for i, neighbor := range neighbors {
		if neighbor == node {
			continue
		}
		weights[c.NodeToCommunity[neighbor]] += edgeWeights[i]
	}

	return weights
}

// Remove detaches a vertex from its current community, updating aggregates.
// weightToComm is the edge weight from the vertex to the community's other
// members (self-loop excluded). The vertex is left unassigned until Insert.
func (c *Community) Remove(node int, weightToComm float64) {
	comm := c.NodeToCommunity[node]
	c.Tot[comm] -= c.graph.Degrees[node]
	c.In[comm] -= 2*weightToComm + 2*c.graph.SelfLoop(node)
	c.Size[comm]--
	c.NodeToCommunity[node] = -1
}

// Insert attaches a previously removed vertex to a community.
func (c *Community) Insert(node, comm int, weightToComm float64) {
	c.Tot[comm] += c.graph.Degrees[node]
	c.In[comm] += 2*weightToComm + 2*c.graph.SelfLoop(node)
	c.Size[comm]++
	c.NodeToCommunity[node] = comm
}

// Move reassigns a vertex to a target community, computing the connecting
// weights itself. Used when applying batched move decisions.
func (c *Community) Move(node, target int) {
	if c.NodeToCommunity[node] == target {
		return
	}
	weights := c.WeightToCommunities(node)
	c.Remove(node, weights[c.NodeToCommunity[node]])
	c.Insert(node, target, weights[target])
}

// NumCommunities counts non-empty communities.
func (c *Community) NumCommunities() int {
	count := 0
	for _, size := range c.Size {
		if size > 0 {
			count++
		}
	}
	return count
}

// DensePartition renumbers the non-empty communities to 0..k-1 in ascending
// order of their current IDs and returns the per-vertex assignment plus k.
func (c *Community) DensePartition() ([]int, int) {
	ids := make([]int, 0, len(c.Size))
	for comm, size := range c.Size {
		if size > 0 {
			ids = append(ids, comm)
		}
	}
	sort.Ints(ids)

	remap := make(map[int]int, len(ids))
	for dense, comm := range ids {
		remap[comm] = dense
	}

	partition := make([]int, len(c.NodeToCommunity))
	for node, comm := range c.NodeToCommunity {
		partition[node] = remap[comm]
	}

	return partition, len(ids)
}
