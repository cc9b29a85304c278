package louvain

import (
	"context"
	"fmt"
	"runtime"
	"time"
)

// Result is the algorithm output. FinalCommunities maps every vertex of the
// input graph to a dense community ID; Modularity is the score of that
// assignment evaluated on the input graph, not on any contracted level.
type Result struct {
	FinalCommunities []int       `json:"final_communities"`
	Modularity       float64     `json:"modularity"`
	NumLevels        int         `json:"num_levels"`
	IterationCapped  bool        `json:"iteration_capped"`
	Levels           []LevelInfo `json:"levels"`
	Statistics       Statistics  `json:"statistics"`
}

// LevelInfo describes one contraction level. Modularity is measured on the
// original graph after composing assignments through this level.
type LevelInfo struct {
	Level          int     `json:"level"`
	NumVertices    int     `json:"num_vertices"`
	NumCommunities int     `json:"num_communities"`
	Iterations     int     `json:"iterations"`
	Moves          int     `json:"moves"`
	Modularity     float64 `json:"modularity"`
	State          string  `json:"state"`
	RuntimeMS      int64   `json:"runtime_ms"`
}

// Statistics contains algorithm performance metrics.
type Statistics struct {
	TotalIterations int   `json:"total_iterations"`
	TotalMoves      int   `json:"total_moves"`
	RuntimeMS       int64 `json:"runtime_ms"`
	MemoryPeakMB    int64 `json:"memory_peak_mb"`
}

// NumCommunities returns the number of distinct communities in the result.
func (r *Result) NumCommunities() int {
	seen := make(map[int]struct{})
	for _, comm := range r.FinalCommunities {
		seen[comm] = struct{}{}
	}
	return len(seen)
}

// Communities groups vertex IDs by assigned community.
func (r *Result) Communities() map[int][]int {
	grouped := make(map[int][]int)
	for node, comm := range r.FinalCommunities {
		grouped[comm] = append(grouped[comm], node)
	}
	return grouped
}

// Run executes the complete Louvain algorithm: repeated local-move
// optimization and graph contraction until no level merges any vertices or
// the level cap is reached. Per-level assignments are composed back onto the
// original vertex set after every level and the best-scoring composition is
// the one returned.
//
// An empty graph yields an empty mapping and modularity 0. Hitting the
// per-level iteration cap or the overall time budget is surfaced through
// Result.IterationCapped, never as an error.
func Run(ctx context.Context, graph *Graph, cfg *Config) (*Result, error) {
	start := time.Now()
	if cfg == nil {
		cfg = NewConfig()
	}
	logger := cfg.CreateLogger()

	if err := graph.Validate(); err != nil {
		return nil, err
	}

	result := &Result{
		FinalCommunities: make([]int, graph.NumNodes),
		Levels:           []LevelInfo{},
	}
	if graph.NumNodes == 0 {
		return result, nil
	}

	logger.Info().
		Int("vertices", graph.NumNodes).
		Float64("total_weight", graph.TotalWeight).
		Msg("starting Louvain")

	var deadline time.Time
	if budget := cfg.TimeBudget(); budget > 0 {
		deadline = start.Add(budget)
	}

	// mapping composes per-level assignments back to original vertex IDs.
	mapping := make([]int, graph.NumNodes)
	for i := range mapping {
		mapping[i] = i
	}
	best := append([]int(nil), mapping...)
	bestQ := NewCommunityFromPartition(graph, mapping).Modularity()

	current := graph
	for level := 0; level < cfg.MaxLevels(); level++ {
		levelStart := time.Now()

		comm := NewCommunity(current)
		state, iterations, moves, err := newOptimizer(current, comm, cfg, logger).run(ctx, deadline)
		if err != nil {
			return nil, err
		}

		partition, numCommunities := comm.DensePartition()

		composed := make([]int, graph.NumNodes)
		for i, prev := range mapping {
			composed[i] = partition[prev]
		}
		mapping = composed

		q := NewCommunityFromPartition(graph, mapping).Modularity()

		result.Levels = append(result.Levels, LevelInfo{
			Level:          level,
			NumVertices:    current.NumNodes,
			NumCommunities: numCommunities,
			Iterations:     iterations,
			Moves:          moves,
			Modularity:     q,
			State:          state.String(),
			RuntimeMS:      time.Since(levelStart).Milliseconds(),
		})
		result.Statistics.TotalIterations += iterations
		result.Statistics.TotalMoves += moves
		if state == IterationCapped {
			result.IterationCapped = true
		}

		if q > bestQ {
			bestQ = q
			best = append(best[:0], mapping...)
		}

		logger.Info().
			Int("level", level).
			Int("communities", numCommunities).
			Int("moves", moves).
			Float64("modularity", q).
			Str("state", state.String()).
			Msg("level complete")

		// Identity partition: no community merged any vertices.
		if moves == 0 || numCommunities == current.NumNodes {
			break
		}
		if numCommunities == 1 {
			break
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			result.IterationCapped = true
			break
		}

		super, err := Contract(current, partition, numCommunities)
		if err != nil {
			return nil, fmt.Errorf("contraction failed at level %d: %w", level, err)
		}
		current = super
	}

	copy(result.FinalCommunities, best)
	result.Modularity = bestQ
	result.NumLevels = len(result.Levels)
	result.Statistics.RuntimeMS = time.Since(start).Milliseconds()
	result.Statistics.MemoryPeakMB = memoryUsageMB()

	logger.Info().
		Int("levels", result.NumLevels).
		Int("communities", result.NumCommunities()).
		Float64("modularity", result.Modularity).
		Int64("runtime_ms", result.Statistics.RuntimeMS).
		Msg("Louvain complete")

	return result, nil
}

func memoryUsageMB() int64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return int64(m.Alloc / 1024 / 1024)
}
