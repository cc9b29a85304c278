package louvain

import (
	"errors"
	"math"
	"testing"
)

func TestContractConservesTotalWeight(t *testing.T) {
	g, err := NewGraphFromEdges(6, []Edge{
		{0, 1, 1.0}, {1, 2, 1.0}, {0, 2, 1.0},
		{3, 4, 2.0}, {4, 5, 2.0}, {3, 5, 2.0},
		{2, 3, 0.5},
		{0, 0, 1.5},
	})
	if err != nil {
		t.Fatalf("failed to build graph: %v", err)
	}

	super, err := Contract(g, []int{0, 0, 0, 1, 1, 1}, 2)
	if err != nil {
		t.Fatalf("contraction failed: %v", err)
	}

	if math.Abs(super.TotalWeight-g.TotalWeight) > 1e-9*g.TotalWeight {
		t.Errorf("total weight not conserved: %f before, %f after", g.TotalWeight, super.TotalWeight)
	}
	if super.NumNodes != 2 {
		t.Errorf("expected 2 super-vertices, got %d", super.NumNodes)
	}

	// Intra-community edges (3x1.0) plus the original self-loop (1.5)
	// collapse into the community-0 self-loop.
	if w := super.SelfLoop(0); math.Abs(w-4.5) > 1e-12 {
		t.Errorf("expected community-0 self-loop weight 4.5, got %f", w)
	}
	if w := super.SelfLoop(1); math.Abs(w-6.0) > 1e-12 {
		t.Errorf("expected community-1 self-loop weight 6.0, got %f", w)
	}
	if w := super.EdgeWeight(0, 1); math.Abs(w-0.5) > 1e-12 {
		t.Errorf("expected inter-community weight 0.5, got %f", w)
	}
}

func TestContractAccumulatesParallelCommunityEdges(t *testing.T) {
	// Two edges between the same community pair must merge.
	g, err := NewGraphFromEdges(4, []Edge{
		{0, 2, 1.0},
		{1, 3, 2.0},
		{0, 1, 1.0},
		{2, 3, 1.0},
	})
	if err != nil {
		t.Fatalf("failed to build graph: %v", err)
	}

	super, err := Contract(g, []int{0, 0, 1, 1}, 2)
	if err != nil {
		t.Fatalf("contraction failed: %v", err)
	}

	if w := super.EdgeWeight(0, 1); math.Abs(w-3.0) > 1e-12 {
		t.Errorf("expected accumulated inter-community weight 3.0, got %f", w)
	}
	if len(super.Adjacency[0]) != 2 {
		// One self-loop entry and one inter-community entry.
		t.Errorf("expected 2 adjacency entries for super-vertex 0, got %d", len(super.Adjacency[0]))
	}
}

func TestContractRejectsBadPartition(t *testing.T) {
	g, err := NewGraphFromEdges(3, []Edge{{0, 1, 1.0}})
	if err != nil {
		t.Fatalf("failed to build graph: %v", err)
	}

	tests := []struct {
		name      string
		partition []int
		k         int
	}{
		{"short partition", []int{0, 0}, 1},
		{"community out of range", []int{0, 1, 2}, 2},
		{"negative community", []int{0, -1, 0}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Contract(g, tt.partition, tt.k)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrInvalidGraph) {
				t.Errorf("expected ErrInvalidGraph, got: %v", err)
			}
		})
	}
}

func TestContractOnOptimizedPartition(t *testing.T) {
	g, err := NewGraphFromEdges(6, []Edge{
		{0, 1, 1.0}, {1, 2, 1.0}, {0, 2, 1.0},
		{3, 4, 1.0}, {4, 5, 1.0}, {3, 5, 1.0},
	})
	if err != nil {
		t.Fatalf("failed to build graph: %v", err)
	}

	comm, _, _ := runOptimizer(t, g, NewConfig())
	partition, k := comm.DensePartition()

	super, err := Contract(g, partition, k)
	if err != nil {
		t.Fatalf("contraction failed: %v", err)
	}

	if super.NumNodes != 2 {
		t.Fatalf("expected 2 super-vertices, got %d", super.NumNodes)
	}
	if math.Abs(super.TotalWeight-g.TotalWeight) > 1e-9*g.TotalWeight {
		t.Errorf("total weight not conserved: %f vs %f", g.TotalWeight, super.TotalWeight)
	}
	// Disconnected cliques produce no inter-community edge.
	if w := super.EdgeWeight(0, 1); w != 0 {
		t.Errorf("expected no inter-community edge, got weight %f", w)
	}
}
