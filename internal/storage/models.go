package storage

// Metric names accepted by CollectionSpec and the search executor.
const (
	MetricCosine = "COSINE"
	MetricL2     = "L2"
	MetricIP     = "IP"
)

// ContentPreviewMax is the maximum stored length of a record's content
// preview.
const ContentPreviewMax = 500

// CollectionSpec describes a vector collection's schema and index.
type CollectionSpec struct {
	Dim         int
	Metric      string
	IndexType   string
	IndexParams map[string]int
}

// Record is one row of a vector collection: the document's primary key, its
// embedding, and a short content preview for display.
type Record struct {
	ID             int64
	Embedding      []float32
	ContentPreview string
}

// Hit is one nearest-neighbor search result. Distance follows the metric's
// own convention with smaller-is-better normalization: cosine distance
// (1 - similarity) and L2 ascend, inner product is reported negated so that
// ascending distance is always best-first.
type Hit struct {
	ID       int64
	Distance float64
}

// SearchParams carries the tuning knobs negotiated with the store. Nprobe is
// the search breadth and is the single essential knob kept by the minimal
// fallback tier.
type SearchParams struct {
	Nprobe int
	Extra  map[string]int
}
