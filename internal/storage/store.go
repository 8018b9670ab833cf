// Package storage implements the vector collection lifecycle over a local
// SQLite file: schema setup, cardinality reporting, batched upserts and
// nearest-neighbor search with fallback parameter negotiation.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v4"
	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// upsertBatchSize bounds the number of records written per transaction.
const upsertBatchSize = 100

// Store owns a local persistent vector store backed by a single SQLite file.
// Each named collection is a table of (id, embedding BLOB, content_preview)
// rows plus a registry entry recording its schema and index configuration.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open opens or creates the store file at path, creating parent directories
// as needed. An unusable path (permission denied, corrupt file) fails with
// an error wrapping ErrConnection.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	registerVectorFunctions()

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create data directory: %v", ErrConnection, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	// Verify the file is actually usable; sql.Open is lazy.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS collections (
		name         TEXT PRIMARY KEY,
		dim          INTEGER NOT NULL,
		metric       TEXT NOT NULL,
		index_type   TEXT NOT NULL,
		index_params TEXT NOT NULL DEFAULT '{}'
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: initialize registry: %v", ErrConnection, err)
	}

	return &Store{db: db, path: path, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the store's file path.
func (s *Store) Path() string { return s.path }

// Health verifies the store file is still reachable.
func (s *Store) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// EnsureCollection creates the named collection with the given schema and
// index if it does not exist. When the collection already exists its stored
// dimension and metric are validated against spec; a conflict fails with
// ErrSchemaMismatch rather than silently trusting the existing schema.
func (s *Store) EnsureCollection(ctx context.Context, name string, spec CollectionSpec) error {
	if spec.Dim <= 0 {
		return fmt.Errorf("%w: non-positive dimension %d", ErrSetup, spec.Dim)
	}
	metric := normalizeMetric(spec.Metric)
	if metric == "" {
		return fmt.Errorf("%w: unknown metric %q", ErrSetup, spec.Metric)
	}

	existing, err := s.collectionSpec(ctx, name)
	if err == nil {
		if existing.Dim != spec.Dim {
			return fmt.Errorf("%w: collection %q has dim %d, configured %d",
				ErrSchemaMismatch, name, existing.Dim, spec.Dim)
		}
		if existing.Metric != metric {
			return fmt.Errorf("%w: collection %q has metric %s, configured %s",
				ErrSchemaMismatch, name, existing.Metric, metric)
		}
		return nil
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("%w: read registry: %v", ErrSetup, err)
	}

	params, err := json.Marshal(spec.IndexParams)
	if err != nil {
		return fmt.Errorf("%w: encode index params: %v", ErrSetup, err)
	}

	create := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id              INTEGER PRIMARY KEY,
		embedding       BLOB NOT NULL,
		content_preview TEXT
	)`, quoteIdent(name))
	if _, err := s.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("%w: create collection %q: %v", ErrSetup, name, err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO collections(name, dim, metric, index_type, index_params) VALUES(?, ?, ?, ?, ?)`,
		name, spec.Dim, metric, spec.IndexType, string(params)); err != nil {
		return fmt.Errorf("%w: register collection %q: %v", ErrSetup, name, err)
	}

	s.logger.Info("collection created",
		"collection", name, "dim", spec.Dim, "metric", metric, "index", spec.IndexType)
	return nil
}

// Count returns the current entity count of the collection. The direct count
// is tried first; on failure the sqlite_stat1 statistics row is parsed
// instead, with a missing or unparsable statistic treated as zero. When both
// paths fail the error wraps ErrCountUnavailable.
func (s *Store) Count(ctx context.Context, name string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s`, quoteIdent(name))).Scan(&n)
	if err == nil {
		return n, nil
	}
	s.logger.Warn("direct count failed, falling back to statistics", "collection", name, "error", err)

	var stat string
	statErr := s.db.QueryRowContext(ctx,
		`SELECT stat FROM sqlite_stat1 WHERE tbl = ?`, name).Scan(&stat)
	if statErr != nil {
		if statErr == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrCountUnavailable, err)
	}
	// The stat column's leading integer is the table's row estimate.
	fields := strings.Fields(stat)
	if len(fields) == 0 {
		return 0, nil
	}
	parsed, perr := strconv.ParseInt(fields[0], 10, 64)
	if perr != nil {
		return 0, nil
	}
	return parsed, nil
}

// Upsert inserts or overwrites records keyed by id, in batches of 100 with
// exponential-backoff retry per batch. Every embedding is validated against
// the collection's registered dimension before any write happens. After a
// successful upsert the statistics tables are refreshed so the count
// fallback stays meaningful.
func (s *Store) Upsert(ctx context.Context, name string, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	spec, err := s.collectionSpec(ctx, name)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
		}
		return fmt.Errorf("read registry: %w", err)
	}
	for i, r := range records {
		if len(r.Embedding) != spec.Dim {
			return fmt.Errorf("%w: record %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(r.Embedding), spec.Dim)
		}
	}

	for start := 0; start < len(records); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(records))
		if err := s.upsertBatchWithRetry(ctx, name, records[start:end]); err != nil {
			return fmt.Errorf("upsert batch %d-%d: %w", start, end, err)
		}
	}

	if _, err := s.db.ExecContext(ctx, `ANALYZE`); err != nil {
		s.logger.Warn("statistics refresh failed", "collection", name, "error", err)
	}
	return nil
}

// upsertBatchWithRetry writes one batch inside a transaction, retrying with
// exponential backoff. Initial interval 500ms, max interval 10s, max elapsed
// 30s.
func (s *Store) upsertBatchWithRetry(ctx context.Context, name string, batch []Record) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	stmt := fmt.Sprintf(
		`INSERT OR REPLACE INTO %s(id, embedding, content_preview) VALUES(?, ?, ?)`,
		quoteIdent(name))

	operation := func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()
		for _, r := range batch {
			preview := r.ContentPreview
			if len(preview) > ContentPreviewMax {
				cut := ContentPreviewMax
				for cut > 0 && !utf8.RuneStart(preview[cut]) {
					cut--
				}
				preview = preview[:cut]
			}
			if _, err := tx.ExecContext(ctx, stmt, r.ID, EncodeVector(r.Embedding), preview); err != nil {
				return err
			}
		}
		return tx.Commit()
	}

	return backoff.Retry(operation, backoff.WithContext(b, ctx))
}

// LoadEmbeddings reads every id→embedding pair of the collection. The
// indexer uses this to re-hydrate the in-memory embedding map when indexing
// was verified complete without re-embedding.
func (s *Store) LoadEmbeddings(ctx context.Context, name string) (map[int64][]float32, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, embedding FROM %s`, quoteIdent(name)))
	if err != nil {
		return nil, fmt.Errorf("load embeddings: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]float32)
	for rows.Next() {
		var id int64
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, err
		}
		vec, err := DecodeVector(blob)
		if err != nil {
			return nil, err
		}
		out[id] = vec
	}
	return out, rows.Err()
}

// collectionSpec reads a collection's registered schema. Returns
// sql.ErrNoRows when the collection is not registered.
func (s *Store) collectionSpec(ctx context.Context, name string) (CollectionSpec, error) {
	var spec CollectionSpec
	var params string
	err := s.db.QueryRowContext(ctx,
		`SELECT dim, metric, index_type, index_params FROM collections WHERE name = ?`,
		name).Scan(&spec.Dim, &spec.Metric, &spec.IndexType, &params)
	if err != nil {
		return CollectionSpec{}, err
	}
	if params != "" {
		_ = json.Unmarshal([]byte(params), &spec.IndexParams)
	}
	return spec, nil
}

func normalizeMetric(metric string) string {
	switch strings.ToUpper(strings.TrimSpace(metric)) {
	case "", MetricCosine, "COS":
		return MetricCosine
	case MetricL2, "EUCLIDEAN":
		return MetricL2
	case MetricIP, "DOT", "INNER_PRODUCT":
		return MetricIP
	default:
		return ""
	}
}

// quoteIdent quotes a SQL identifier, escaping embedded quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
