package louvain

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// SweepState is the terminal state of one level's local-move optimization.
type SweepState int

const (
	// Scanning means sweeps are still in progress.
	Scanning SweepState = iota
	// Converged means a full sweep produced no moves.
	Converged
	// IterationCapped means the per-level iteration cap or the overall time
	// budget stopped the sweeps first. Not an error: the partition is valid.
	IterationCapped
)

func (s SweepState) String() string {
	switch s {
	case Scanning:
		return "scanning"
	case Converged:
		return "converged"
	case IterationCapped:
		return "iteration_capped"
	default:
		return "unknown"
	}
}

// optimizer runs local-move sweeps over one level's graph until convergence
// or the iteration cap. Visitation order is ascending vertex ID unless a
// non-negative seed selects a shuffled order, reshuffled before each sweep.
type optimizer struct {
	graph  *Graph
	comm   *Community
	cfg    *Config
	logger zerolog.Logger
	order  []int
	rng    *rand.Rand
}

func newOptimizer(g *Graph, comm *Community, cfg *Config, logger zerolog.Logger) *optimizer {
	order := make([]int, g.NumNodes)
	for i := range order {
		order[i] = i
	}

	o := &optimizer{graph: g, comm: comm, cfg: cfg, logger: logger, order: order}
	if seed := cfg.RandomSeed(); seed >= 0 {
		o.rng = rand.New(rand.NewSource(seed))
	}
	return o
}

// run performs sweeps until a terminal state. deadline is the overall wall
// clock budget; zero means unbounded. Returns the terminal state, the number
// of sweeps performed and the total number of moves.
func (o *optimizer) run(ctx context.Context, deadline time.Time) (SweepState, int, int, error) {
	totalMoves := 0

	for iteration := 0; iteration < o.cfg.MaxIterations(); iteration++ {
		if err := ctx.Err(); err != nil {
			return IterationCapped, iteration, totalMoves, err
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			o.logger.Debug().Int("iteration", iteration).Msg("time budget exhausted mid-level")
			return IterationCapped, iteration, totalMoves, nil
		}

		if o.rng != nil {
			o.rng.Shuffle(len(o.order), func(i, j int) {
				o.order[i], o.order[j] = o.order[j], o.order[i]
			})
		}

		var moves int
		if o.cfg.Parallel() && o.graph.NumNodes > o.cfg.ChunkSize() {
			moves = o.parallelSweep()
		} else {
			moves = o.sweep()
		}
		totalMoves += moves

		if o.cfg.EnableProgress() {
			o.logger.Info().
				Int("iteration", iteration+1).
				Int("moves", moves).
				Float64("modularity", o.comm.Modularity()).
				Msg("local optimization progress")
		}

		if moves == 0 {
			return Converged, iteration + 1, totalMoves, nil
		}
	}

	return IterationCapped, o.cfg.MaxIterations(), totalMoves, nil
}

// sweep visits every vertex once in the current order, greedily reassigning
// each to the neighboring community with the highest modularity gain.
func (o *optimizer) sweep() int {
	moves := 0
	for _, node := range o.order {
		if o.tryMove(node) {
			moves++
		}
	}
	return moves
}

// tryMove detaches a vertex, evaluates every neighboring community plus its
// previous one, and re-attaches it to the best. Candidates are scanned in
// ascending community ID so equal gains resolve to the lowest ID. The move
// is kept only when it beats staying put by more than the tolerance.
func (o *optimizer) tryMove(node int) bool {
	weights := o.comm.WeightToCommunities(node)
	old := o.comm.NodeToCommunity[node]
	o.comm.Remove(node, weights[old])

	candidates := make([]int, 0, len(weights))
	for comm := range weights {
		candidates = append(candidates, comm)
	}
	sort.Ints(candidates)

	stayGain := o.comm.Gain(node, old, weights[old])
	best, bestGain := old, stayGain

	for _, cand := range candidates {
		if cand == old {
			continue
		}
		if gain := o.comm.Gain(node, cand, weights[cand]); gain > bestGain {
			best, bestGain = cand, gain
		}
	}

	if best != old && bestGain-stayGain > o.cfg.Tolerance() {
		o.comm.Insert(node, best, weights[best])
		return true
	}

	o.comm.Insert(node, old, weights[old])
	return false
}

// parallelSweep partitions the visitation order into disjoint batches. Within
// a batch all move candidates are computed by workers against the current
// aggregate table, read-only, then the chosen moves are applied sequentially
// before the next batch starts. Decisions within one batch may be mutually
// stale, which bounds the divergence from the serial sweep to one batch.
func (o *optimizer) parallelSweep() int {
	chunkSize := o.cfg.ChunkSize()
	workers := o.cfg.NumWorkers()
	if workers < 1 {
		workers = 1
	}

	moves := 0
	for start := 0; start < len(o.order); start += chunkSize {
		end := start + chunkSize
		if end > len(o.order) {
			end = len(o.order)
		}
		batch := o.order[start:end]
		proposals := make([]int, len(batch))

		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func(offset int) {
				defer wg.Done()
				for i := offset; i < len(batch); i += workers {
					proposals[i] = o.propose(batch[i])
				}
			}(w)
		}
		wg.Wait()

		for i, node := range batch {
			target := proposals[i]
			if target >= 0 && target != o.comm.NodeToCommunity[node] {
				o.comm.Move(node, target)
				moves++
			}
		}
	}

	return moves
}

// propose evaluates the best move for a vertex without mutating any state.
// Returns the target community, or -1 to stay. The vertex's own contribution
// is subtracted from its current community's total before comparing.
func (o *optimizer) propose(node int) int {
	m := o.graph.TotalWeight
	if m == 0 {
		return -1
	}

	weights := o.comm.WeightToCommunities(node)
	old := o.comm.NodeToCommunity[node]
	degree := o.graph.Degrees[node]

	gain := func(comm int, weightToComm float64) float64 {
		tot := o.comm.Tot[comm]
		if comm == old {
			tot -= degree
		}
		return (weightToComm - tot*degree/(2.0*m)) / m
	}

	candidates := make([]int, 0, len(weights))
	for comm := range weights {
		candidates = append(candidates, comm)
	}
	sort.Ints(candidates)

	stayGain := gain(old, weights[old])
	best, bestGain := old, stayGain
	for _, cand := range candidates {
		if cand == old {
			continue
		}
		if g := gain(cand, weights[cand]); g > bestGain {
			best, bestGain = cand, g
		}
	}

	if best != old && bestGain-stayGain > o.cfg.Tolerance() {
		return best
	}
	return -1
}
