package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/graphmine/community-detection/pkg/louvain"
	"github.com/graphmine/community-detection/pkg/parser"
)

func main() {
	var (
		configFile  = flag.String("config", "", "optional configuration file (yaml/json/toml)")
		maxLevels   = flag.Int("max-levels", 0, "maximum number of contraction levels (0 = default)")
		maxIter     = flag.Int("max-iter", 0, "maximum sweeps per level (0 = default)")
		tolerance   = flag.Float64("tolerance", 0, "minimum gain to accept a move (0 = default)")
		seed        = flag.Int64("seed", -1, "random seed for vertex order (negative = deterministic order)")
		parallel    = flag.Bool("parallel", false, "use parallel local-move sweeps")
		timeBudget  = flag.Duration("time-budget", 0, "overall wall-clock budget (0 = unlimited)")
		outputFile  = flag.String("output", "", "write community assignments to this file (default stdout summary only)")
		showLevels  = flag.Bool("levels", false, "print per-level statistics")
		logLevel    = flag.String("log-level", "warn", "log level (trace, debug, info, warn, error, disabled)")
	)
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: louvain [flags] <edgelist_file>")
		flag.PrintDefaults()
		os.Exit(1)
	}
	edgelistFile := flag.Arg(0)

	edgeList, err := parser.ParseFile(edgelistFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading edge list: %v\n", err)
		os.Exit(1)
	}

	graph, err := edgeList.Graph()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building graph: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Graph loaded: %d nodes, %d edges\n", edgeList.NumNodes, len(edgeList.Edges))

	cfg := louvain.NewConfig()
	if *configFile != "" {
		if err := cfg.LoadFromFile(*configFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	cfg.Set("logging.level", *logLevel)
	if *maxLevels > 0 {
		cfg.Set("algorithm.max_levels", *maxLevels)
	}
	if *maxIter > 0 {
		cfg.Set("algorithm.max_iterations", *maxIter)
	}
	if *tolerance > 0 {
		cfg.Set("algorithm.tolerance", *tolerance)
	}
	if *seed >= 0 {
		cfg.Set("algorithm.random_seed", *seed)
	}
	if *parallel {
		cfg.Set("performance.parallel", true)
	}
	if *timeBudget > 0 {
		cfg.Set("algorithm.time_budget", *timeBudget)
	}

	start := time.Now()
	result, err := louvain.Run(context.Background(), graph, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Clustering failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\n=== Louvain Results ===\n")
	fmt.Printf("Final modularity: %.6f\n", result.Modularity)
	fmt.Printf("Number of levels: %d\n", result.NumLevels)
	fmt.Printf("Number of communities: %d\n", result.NumCommunities())
	fmt.Printf("Total iterations: %d\n", result.Statistics.TotalIterations)
	fmt.Printf("Total moves: %d\n", result.Statistics.TotalMoves)
	fmt.Printf("Runtime: %v\n", time.Since(start).Round(time.Millisecond))
	if result.IterationCapped {
		fmt.Println("Note: at least one level hit the iteration cap before converging")
	}

	if *showLevels {
		fmt.Printf("\n=== Per-Level Statistics ===\n")
		for _, level := range result.Levels {
			fmt.Printf("Level %d: %d vertices -> %d communities, %d iterations, %d moves, Q=%.6f (%s, %d ms)\n",
				level.Level, level.NumVertices, level.NumCommunities,
				level.Iterations, level.Moves, level.Modularity, level.State, level.RuntimeMS)
		}
	}

	if *outputFile != "" {
		if err := writeCommunities(*outputFile, edgeList, result.FinalCommunities); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Communities written to: %s\n", *outputFile)
	}
}

// writeCommunities writes one "vertex community" line per vertex, using the
// identifiers from the input file.
func writeCommunities(path string, edgeList *parser.EdgeList, assignment []int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	groups := edgeList.CommunitiesByOriginalID(assignment)

	communityIDs := make([]int, 0, len(groups))
	for id := range groups {
		communityIDs = append(communityIDs, id)
	}
	sort.Ints(communityIDs)

	for _, commID := range communityIDs {
		for _, vertex := range groups[commID] {
			if _, err := fmt.Fprintf(w, "%s %d\n", vertex, commID); err != nil {
				return err
			}
		}
	}

	return w.Flush()
}
