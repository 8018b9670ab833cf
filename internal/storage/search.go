package storage

import (
	"context"
	"fmt"
	"log/slog"
)

// searchExecutor runs one nearest-neighbor query against a collection with a
// fully shaped parameter map. The production executor is SQL-backed; tests
// substitute executors that reject particular parameter shapes.
type searchExecutor interface {
	execute(ctx context.Context, name string, spec CollectionSpec, vector []float32, topK int, params map[string]any) ([]Hit, error)
}

// searchStrategy is one tier of the parameter negotiation: a name for log
// output and a shaper producing the parameter map that tier sends.
type searchStrategy struct {
	name  string
	shape func(metric string, p SearchParams) map[string]any
}

// searchStrategies is the ordered fallback ladder. Each tier is tried in
// order and the first accepted shape wins; results are identical across
// tiers, only the parameter encoding differs.
var searchStrategies = []searchStrategy{
	{
		// Structured form: tuning knobs nested under a params field.
		name: "structured",
		shape: func(metric string, p SearchParams) map[string]any {
			inner := map[string]any{"nprobe": p.Nprobe}
			for k, v := range p.Extra {
				inner[k] = v
			}
			return map[string]any{"metric_type": metric, "params": inner}
		},
	},
	{
		// Flattened form: every knob merged into one level.
		name: "flattened",
		shape: func(metric string, p SearchParams) map[string]any {
			flat := map[string]any{"metric_type": metric, "nprobe": p.Nprobe}
			for k, v := range p.Extra {
				flat[k] = v
			}
			return flat
		},
	},
	{
		// Minimal form: search breadth only, metric left to the collection
		// schema.
		name: "minimal",
		shape: func(_ string, p SearchParams) map[string]any {
			return map[string]any{"nprobe": p.Nprobe}
		},
	},
}

// Search returns the topK nearest neighbors of vector in the named
// collection, best-first. Parameter-shape rejections are absorbed by the
// fallback ladder: each tier failure is logged and the next tier tried, and
// when every tier fails the result is empty with a nil error so retrieval
// callers degrade instead of aborting. A query vector whose dimension
// conflicts with the collection schema is a real error, not a negotiation
// failure.
func (s *Store) Search(ctx context.Context, name string, vector []float32, topK int, params SearchParams) ([]Hit, error) {
	spec, err := s.collectionSpec(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	if len(vector) != spec.Dim {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, collection %q expects %d",
			ErrDimensionMismatch, len(vector), name, spec.Dim)
	}
	if topK <= 0 {
		return nil, nil
	}
	exec := &sqlExecutor{db: s.db}
	return negotiateSearch(ctx, exec, s.logger, name, spec, vector, topK, params), nil
}

// negotiateSearch walks the strategy ladder until one tier's parameter shape
// is accepted. Exhausting the ladder yields an empty result.
func negotiateSearch(ctx context.Context, exec searchExecutor, logger *slog.Logger, name string, spec CollectionSpec, vector []float32, topK int, params SearchParams) []Hit {
	for _, strategy := range searchStrategies {
		shaped := strategy.shape(spec.Metric, params)
		hits, err := exec.execute(ctx, name, spec, vector, topK, shaped)
		if err == nil {
			return hits
		}
		logger.Warn("search parameter shape rejected, trying next tier",
			"collection", name, "tier", strategy.name, "error", err)
	}
	logger.Warn("all search parameter tiers rejected, returning no results", "collection", name)
	return nil
}
