// Package store defines the document-store contract the pipeline persists
// events through, plus the two implementations: a file-backed in-memory store
// for local runs and tests, and a Postgres-backed store for real deployments.
//
// The batch is the pipeline's single point of shared-state mutation. A commit
// is all-or-nothing; a failed commit leaves the collection untouched and the
// failure propagates to the run report. Stream and Delete exist for the thin
// admin surface (inspection dumps and bulk clears) only.
package store

import (
	"context"

	"github.com/MarkitIt/markitit-xc475/internal/event"
)

// Document pairs a store-assigned id with a persisted event. The id is
// distinct from the event's identity key.
type Document struct {
	ID    string
	Event *event.Event
}

// Batch stages new events for one all-or-nothing write.
type Batch interface {
	Set(e *event.Event)
	Len() int
	Commit(ctx context.Context) error
}

// Store is the events collection.
type Store interface {
	// QueryByIdentityKey returns every document whose stored identity key
	// equals key. The dedup engine treats a non-empty result as "duplicate".
	QueryByIdentityKey(ctx context.Context, key string) ([]Document, error)

	// NewBatch starts an empty batch bound to this store.
	NewBatch() Batch

	// Stream visits every document in the collection, stopping early when
	// fn returns an error.
	Stream(ctx context.Context, fn func(Document) error) error

	// Delete removes one document by store id.
	Delete(ctx context.Context, id string) error

	Close() error
}
