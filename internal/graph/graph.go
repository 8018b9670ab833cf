// Package graph builds a similarity graph over article embeddings and
// expands retrieval seeds along its edges.
package graph

import (
	"log/slog"
	"sort"

	"medrag/internal/vecmath"
)

// Graph is an undirected similarity graph over article ids. An edge connects
// two articles whose embedding cosine similarity meets the build threshold.
type Graph struct {
	adjacency map[int64]map[int64]float64
	threshold float64
}

// Build computes pairwise cosine similarities over the embedding map and
// connects every pair at or above threshold. Nodes with no qualifying
// neighbor are kept as isolated nodes. Pairs whose similarity cannot be
// computed (zero vector, dimension conflict) are skipped.
func Build(embeddings map[int64][]float32, threshold float64, logger *slog.Logger) *Graph {
	if logger == nil {
		logger = slog.Default()
	}

	g := &Graph{
		adjacency: make(map[int64]map[int64]float64, len(embeddings)),
		threshold: threshold,
	}

	ids := make([]int64, 0, len(embeddings))
	for id := range embeddings {
		ids = append(ids, id)
		g.adjacency[id] = make(map[int64]float64)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	edges := 0
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			sim, err := vecmath.Cosine(embeddings[ids[i]], embeddings[ids[j]])
			if err != nil {
				continue
			}
			if sim >= threshold {
				g.adjacency[ids[i]][ids[j]] = sim
				g.adjacency[ids[j]][ids[i]] = sim
				edges++
			}
		}
	}

	logger.Info("similarity graph built",
		"nodes", len(ids), "edges", edges, "threshold", threshold)
	return g
}

// Len reports the number of nodes.
func (g *Graph) Len() int { return len(g.adjacency) }

// HasEdge reports whether a and b are connected.
func (g *Graph) HasEdge(a, b int64) bool {
	_, ok := g.adjacency[a][b]
	return ok
}

// Weight returns the similarity on edge (a, b), or 0 when absent.
func (g *Graph) Weight(a, b int64) float64 {
	return g.adjacency[a][b]
}

// Neighbors returns a's neighbor ids, sorted ascending.
func (g *Graph) Neighbors(a int64) []int64 {
	out := make([]int64, 0, len(g.adjacency[a]))
	for id := range g.adjacency[a] {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Expand walks up to hops breadth-first steps out from the seed ids and
// returns the union of seeds and everything reached, deduplicated and sorted
// ascending. With hops 0 the result is just the deduplicated seeds. Seeds
// not present in the graph contribute themselves and nothing else.
func (g *Graph) Expand(seeds []int64, hops int) []int64 {
	visited := make(map[int64]struct{}, len(seeds))
	frontier := make([]int64, 0, len(seeds))
	for _, id := range seeds {
		if _, ok := visited[id]; ok {
			continue
		}
		visited[id] = struct{}{}
		frontier = append(frontier, id)
	}

	for step := 0; step < hops && len(frontier) > 0; step++ {
		var next []int64
		for _, id := range frontier {
			for neighbor := range g.adjacency[id] {
				if _, ok := visited[neighbor]; ok {
					continue
				}
				visited[neighbor] = struct{}{}
				next = append(next, neighbor)
			}
		}
		frontier = next
	}

	out := make([]int64, 0, len(visited))
	for id := range visited {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
