package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shapeOf classifies a parameter map by which tier produced it.
func shapeOf(params map[string]any) string {
	if _, ok := params["params"]; ok {
		return "structured"
	}
	if _, ok := params["metric_type"]; ok {
		return "flattened"
	}
	return "minimal"
}

// pickyExecutor accepts only the named parameter shapes and records every
// attempt.
type pickyExecutor struct {
	accepts map[string]bool
	hits    []Hit
	shapes  []string
}

func (e *pickyExecutor) execute(_ context.Context, _ string, _ CollectionSpec, _ []float32, _ int, params map[string]any) ([]Hit, error) {
	shape := shapeOf(params)
	e.shapes = append(e.shapes, shape)
	if !e.accepts[shape] {
		return nil, fmt.Errorf("%w: shape %s", ErrSearchParams, shape)
	}
	return e.hits, nil
}

func TestNegotiateSearchUsesFirstAcceptedTier(t *testing.T) {
	want := []Hit{{ID: 1, Distance: 0.1}, {ID: 2, Distance: 0.2}}
	exec := &pickyExecutor{accepts: map[string]bool{"structured": true}, hits: want}

	hits := negotiateSearch(context.Background(), exec, testLogger(),
		"articles", cosineSpec(3), []float32{1, 0, 0}, 2, SearchParams{Nprobe: 16})

	assert.Equal(t, want, hits)
	assert.Equal(t, []string{"structured"}, exec.shapes)
}

func TestNegotiateSearchFallsBackToMinimalTier(t *testing.T) {
	want := []Hit{{ID: 3, Distance: 0.3}}
	exec := &pickyExecutor{accepts: map[string]bool{"minimal": true}, hits: want}

	hits := negotiateSearch(context.Background(), exec, testLogger(),
		"articles", cosineSpec(3), []float32{1, 0, 0}, 1, SearchParams{Nprobe: 16})

	assert.Equal(t, want, hits, "results must not depend on which tier succeeded")
	assert.Equal(t, []string{"structured", "flattened", "minimal"}, exec.shapes)
}

func TestNegotiateSearchExhaustedReturnsEmpty(t *testing.T) {
	exec := &pickyExecutor{accepts: map[string]bool{}}

	hits := negotiateSearch(context.Background(), exec, testLogger(),
		"articles", cosineSpec(3), []float32{1, 0, 0}, 5, SearchParams{Nprobe: 16})

	assert.Empty(t, hits)
	assert.Len(t, exec.shapes, 3, "every tier should have been tried")
}

func TestSearchStrategyShapes(t *testing.T) {
	params := SearchParams{Nprobe: 16, Extra: map[string]int{"ef": 64}}

	structured := searchStrategies[0].shape(MetricCosine, params)
	require.Contains(t, structured, "params")
	inner, ok := structured["params"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 16, inner["nprobe"])
	assert.Equal(t, 64, inner["ef"])
	assert.Equal(t, MetricCosine, structured["metric_type"])

	flattened := searchStrategies[1].shape(MetricCosine, params)
	assert.Equal(t, 16, flattened["nprobe"])
	assert.Equal(t, 64, flattened["ef"])
	assert.NotContains(t, flattened, "params")

	minimal := searchStrategies[2].shape(MetricCosine, params)
	assert.Equal(t, map[string]any{"nprobe": 16}, minimal)
}
