package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// sqlExecutor runs nearest-neighbor queries with the registered vector
// functions. Distances are normalized so ascending order is best-first for
// every metric; inner product scores are negated to that end.
type sqlExecutor struct {
	db *sql.DB
}

func (e *sqlExecutor) execute(ctx context.Context, name string, spec CollectionSpec, vector []float32, topK int, params map[string]any) ([]Hit, error) {
	if _, ok := params["nprobe"]; !ok {
		if _, ok := params["params"]; !ok {
			return nil, fmt.Errorf("%w: missing search breadth", ErrSearchParams)
		}
	}

	var distance string
	switch spec.Metric {
	case MetricCosine:
		distance = "1.0 - vec_cosine(embedding, ?)"
	case MetricL2:
		distance = "vec_l2(embedding, ?)"
	case MetricIP:
		distance = "-vec_dot(embedding, ?)"
	default:
		return nil, fmt.Errorf("%w: unsupported metric %q", ErrSearchParams, spec.Metric)
	}

	query := fmt.Sprintf(
		`SELECT id, %s AS distance FROM %s ORDER BY distance ASC LIMIT ?`,
		distance, quoteIdent(name))

	rows, err := e.db.QueryContext(ctx, query, EncodeVector(vector), topK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.ID, &h.Distance); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}
