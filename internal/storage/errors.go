package storage

import "errors"

var (
	// ErrConnection indicates the store file could not be opened or created.
	// Fatal for the whole session; no retry.
	ErrConnection = errors.New("vector store unreachable")

	// ErrSetup indicates collection or index creation failed. Fatal for the
	// session.
	ErrSetup = errors.New("collection setup failed")

	// ErrSchemaMismatch indicates an existing collection's dimension or
	// metric conflicts with the requested configuration.
	ErrSchemaMismatch = errors.New("collection schema mismatch")

	// ErrCountUnavailable indicates the entity count could not be determined
	// by either the direct count or the statistics fallback. Transient; the
	// indexer re-runs collection setup once before giving up.
	ErrCountUnavailable = errors.New("entity count unavailable")

	// ErrSearchParams indicates a search parameter shape was rejected by the
	// store. Captured per fallback tier inside Search and never surfaced to
	// callers.
	ErrSearchParams = errors.New("search parameters rejected")

	// ErrDimensionMismatch indicates an embedding's dimension conflicts with
	// the collection schema.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrCollectionNotFound indicates an operation referenced a collection
	// that was never set up.
	ErrCollectionNotFound = errors.New("collection not found")
)
