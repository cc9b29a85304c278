// Package parser turns textual edge lists over arbitrary vertex identifiers
// into graphs over dense 0-based vertex IDs, keeping the mapping so results
// can be reported against the original identifiers.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/graphmine/community-detection/pkg/louvain"
)

// EdgeList is a parsed edge list with its vertex renumbering.
type EdgeList struct {
	Edges    []louvain.Edge
	NumNodes int

	// OriginalToDense maps an input identifier to its dense vertex ID;
	// DenseToOriginal is the reverse, indexed by dense ID.
	OriginalToDense map[string]int
	DenseToOriginal []string
}

// ParseFile reads an edge list from a file. See Parse for the format.
func ParseFile(path string) (*EdgeList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open edge list: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a whitespace-separated edge list: one "from to [weight]" triple
// per line, weight defaulting to 1.0. Blank lines and lines starting with '#'
// are skipped. Vertex identifiers may be arbitrary strings; they are
// renumbered to a dense 0-based range, numerically when every identifier is
// an integer and lexicographically otherwise, so the numbering is stable for
// a given input set.
func Parse(r io.Reader) (*EdgeList, error) {
	type rawEdge struct {
		from, to string
		weight   float64
	}

	var raw []rawEdge
	nodeSet := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) < 2 {
			return nil, fmt.Errorf("%w: line %d: expected \"from to [weight]\", got %q",
				louvain.ErrInvalidGraph, lineNo, line)
		}

		weight := 1.0
		if len(parts) >= 3 {
			w, err := strconv.ParseFloat(parts[2], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: bad weight %q: %v",
					louvain.ErrInvalidGraph, lineNo, parts[2], err)
			}
			if w < 0 {
				return nil, fmt.Errorf("%w: line %d: negative weight %f",
					louvain.ErrInvalidGraph, lineNo, w)
			}
			weight = w
		}

		raw = append(raw, rawEdge{from: parts[0], to: parts[1], weight: weight})
		nodeSet[parts[0]] = true
		nodeSet[parts[1]] = true
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read edge list: %w", err)
	}

	el := &EdgeList{
		NumNodes:        len(nodeSet),
		OriginalToDense: make(map[string]int, len(nodeSet)),
		DenseToOriginal: sortedIdentifiers(nodeSet),
	}
	for dense, id := range el.DenseToOriginal {
		el.OriginalToDense[id] = dense
	}

	el.Edges = make([]louvain.Edge, len(raw))
	for i, e := range raw {
		el.Edges[i] = louvain.Edge{
			From:   el.OriginalToDense[e.from],
			To:     el.OriginalToDense[e.to],
			Weight: e.weight,
		}
	}

	return el, nil
}

// Graph builds the dense-ID graph from the parsed edges.
func (el *EdgeList) Graph() (*louvain.Graph, error) {
	return louvain.NewGraphFromEdges(el.NumNodes, el.Edges)
}

// OriginalID returns the input identifier for a dense vertex ID.
func (el *EdgeList) OriginalID(dense int) string {
	if dense < 0 || dense >= len(el.DenseToOriginal) {
		return ""
	}
	return el.DenseToOriginal[dense]
}

// CommunitiesByOriginalID groups original vertex identifiers by their
// assigned community, reversing the renumbering on the algorithm's output.
func (el *EdgeList) CommunitiesByOriginalID(assignment []int) map[int][]string {
	grouped := make(map[int][]string)
	for dense, comm := range assignment {
		grouped[comm] = append(grouped[comm], el.OriginalID(dense))
	}
	return grouped
}

// sortedIdentifiers orders identifiers numerically when all parse as
// integers, lexicographically otherwise.
func sortedIdentifiers(nodeSet map[string]bool) []string {
	ids := make([]string, 0, len(nodeSet))
	allIntegers := true
	for id := range nodeSet {
		ids = append(ids, id)
		if _, err := strconv.Atoi(id); err != nil {
			allIntegers = false
		}
	}

	if allIntegers {
		sort.Slice(ids, func(i, j int) bool {
			a, _ := strconv.Atoi(ids[i])
			b, _ := strconv.Atoi(ids[j])
			return a < b
		})
	} else {
		sort.Strings(ids)
	}
	return ids
}
