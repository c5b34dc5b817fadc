// Package dedupe computes event identity keys and checks the store for prior
// insertions of the same real-world event.
//
// The key deliberately excludes the source and the date: the same market
// scraped from two sites, or a recurring market with an unchanged name,
// collides and the later copy is dropped as a duplicate. That recurring-event
// suppression is intended behavior.
package dedupe

import (
	"context"
	"fmt"

	"github.com/MarkitIt/markitit-xc475/internal/event"
	"github.com/MarkitIt/markitit-xc475/internal/store"
)

// KeySeparator joins the identity key's components.
const KeySeparator = "-"

// Key derives the deduplication key for an event. It is a pure function of
// the name, the primary category tag, and the city; two events agreeing on
// all three are the same event regardless of source.
func Key(e *event.Event) string {
	return e.Name + KeySeparator + e.PrimaryType() + KeySeparator + e.Location.City
}

// Checker answers duplicate queries against a store. It holds the store
// client as an explicit dependency scoped to the run.
type Checker struct {
	store store.Store
}

// NewChecker creates a Checker backed by the given store.
func NewChecker(s store.Store) *Checker {
	return &Checker{store: s}
}

// IsDuplicate reports whether any persisted document carries the key. The
// check is query-then-write with no transaction; single-run, single-writer
// execution is a precondition, not something enforced here.
func (c *Checker) IsDuplicate(ctx context.Context, key string) (bool, error) {
	docs, err := c.store.QueryByIdentityKey(ctx, key)
	if err != nil {
		return false, fmt.Errorf("checking identity key %q: %w", key, err)
	}
	return len(docs) > 0, nil
}
