package louvain

import (
	"math"
	"testing"
)

func triangleGraph(t *testing.T) *Graph {
	t.Helper()
	g, err := NewGraphFromEdges(3, []Edge{
		{0, 1, 1.0},
		{1, 2, 1.0},
		{0, 2, 1.0},
	})
	if err != nil {
		t.Fatalf("failed to build triangle: %v", err)
	}
	return g
}

func TestSingletonModularity(t *testing.T) {
	g := triangleGraph(t)
	comm := NewCommunity(g)

	// Three singleton communities on a triangle: Q = 3 * (0 - (2/6)^2) = -1/3.
	q := comm.Modularity()
	if math.Abs(q-(-1.0/3.0)) > 1e-12 {
		t.Errorf("expected singleton modularity -1/3, got %f", q)
	}
}

func TestMergedTriangleModularity(t *testing.T) {
	g := triangleGraph(t)
	comm := NewCommunityFromPartition(g, []int{0, 0, 0})

	// All intra-community: Q = 6/6 - (6/6)^2 = 0.
	if q := comm.Modularity(); math.Abs(q) > 1e-12 {
		t.Errorf("expected merged modularity 0, got %f", q)
	}
}

func TestZeroWeightGraphModularity(t *testing.T) {
	g, err := NewGraphFromEdges(4, nil)
	if err != nil {
		t.Fatalf("failed to build edgeless graph: %v", err)
	}
	comm := NewCommunity(g)

	if q := comm.Modularity(); q != 0.0 {
		t.Errorf("expected modularity 0 for edgeless graph, got %f", q)
	}
	if gain := comm.Gain(0, 1, 0); gain != 0.0 {
		t.Errorf("expected zero gain on edgeless graph, got %f", gain)
	}
}

// Gain must equal the actual modularity difference of performing the move.
func TestGainMatchesModularityDelta(t *testing.T) {
	g, err := NewGraphFromEdges(5, []Edge{
		{0, 1, 1.0},
		{1, 2, 2.0},
		{2, 3, 1.0},
		{3, 4, 1.5},
		{0, 4, 0.5},
		{1, 1, 1.0},
	})
	if err != nil {
		t.Fatalf("failed to build graph: %v", err)
	}

	comm := NewCommunity(g)

	for node := 0; node < g.NumNodes; node++ {
		weights := comm.WeightToCommunities(node)
		old := comm.NodeToCommunity[node]

		before := comm.Modularity()
		comm.Remove(node, weights[old])
		removeGain := comm.Gain(node, old, weights[old])

		for target, w := range weights {
			if target == old {
				continue
			}
			insertGain := comm.Gain(node, target, w)
			comm.Insert(node, target, w)
			after := comm.Modularity()

			delta := insertGain - removeGain
			if math.Abs((after-before)-delta) > 1e-12 {
				t.Errorf("node %d -> community %d: predicted delta %g, actual %g",
					node, target, delta, after-before)
			}

			// Undo for the next candidate.
			comm.Remove(node, w)
		}

		comm.Insert(node, old, weights[old])
	}
}

func TestIncrementalAggregatesStayConsistent(t *testing.T) {
	g, err := NewGraphFromEdges(6, []Edge{
		{0, 1, 1.0}, {1, 2, 1.0}, {0, 2, 1.0},
		{3, 4, 1.0}, {4, 5, 1.0}, {3, 5, 1.0},
		{2, 3, 0.2},
	})
	if err != nil {
		t.Fatalf("failed to build graph: %v", err)
	}

	comm := NewCommunity(g)
	comm.Move(1, 0)
	comm.Move(2, 0)
	comm.Move(4, 3)
	comm.Move(5, 3)

	rebuilt := NewCommunityFromPartition(g, comm.NodeToCommunity)
	if math.Abs(comm.Modularity()-rebuilt.Modularity()) > 1e-12 {
		t.Errorf("incremental modularity %f diverged from rebuilt %f",
			comm.Modularity(), rebuilt.Modularity())
	}

	for c := range comm.Size {
		if comm.Size[c] != rebuilt.Size[c] {
			t.Errorf("community %d: incremental size %d, rebuilt %d", c, comm.Size[c], rebuilt.Size[c])
		}
		if math.Abs(comm.Tot[c]-rebuilt.Tot[c]) > 1e-12 {
			t.Errorf("community %d: incremental tot %f, rebuilt %f", c, comm.Tot[c], rebuilt.Tot[c])
		}
		if math.Abs(comm.In[c]-rebuilt.In[c]) > 1e-12 {
			t.Errorf("community %d: incremental in %f, rebuilt %f", c, comm.In[c], rebuilt.In[c])
		}
	}
}

func TestDensePartition(t *testing.T) {
	g, err := NewGraphFromEdges(4, []Edge{{0, 1, 1.0}, {2, 3, 1.0}})
	if err != nil {
		t.Fatalf("failed to build graph: %v", err)
	}

	comm := NewCommunity(g)
	comm.Move(1, 0)
	comm.Move(3, 2)

	partition, k := comm.DensePartition()
	if k != 2 {
		t.Fatalf("expected 2 communities, got %d", k)
	}

	want := []int{0, 0, 1, 1}
	for i, comm := range partition {
		if comm != want[i] {
			t.Errorf("vertex %d: expected dense community %d, got %d", i, want[i], comm)
		}
	}
}
