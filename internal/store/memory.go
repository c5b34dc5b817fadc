package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MarkitIt/markitit-xc475/internal/event"
)

// MemoryStore keeps the events collection in memory, optionally mirrored to a
// JSON snapshot on disk so repeated runs on one machine dedup against each
// other. It is the default store when no Postgres DSN is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	events  map[string]*event.Event
	dataDir string // empty disables the on-disk snapshot
}

// snapshot is the on-disk shape of the collection.
type snapshot struct {
	UpdatedAt string                  `json:"updated_at"`
	Events    map[string]*event.Event `json:"events"`
}

// NewMemoryStore creates an empty store with no disk mirror.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: make(map[string]*event.Event)}
}

// NewFileStore creates a store mirrored to dataDir/events.json, loading any
// existing snapshot. A leading ~ in dataDir expands to the home directory.
func NewFileStore(dataDir string) (*MemoryStore, error) {
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	s := &MemoryStore{events: make(map[string]*event.Event), dataDir: dataDir}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MemoryStore) snapshotPath() string {
	return filepath.Join(s.dataDir, "events.json")
}

func (s *MemoryStore) load() error {
	data, err := os.ReadFile(s.snapshotPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("parsing snapshot: %w", err)
	}
	if snap.Events != nil {
		s.events = snap.Events
	}
	return nil
}

// save writes the given collection to disk. Caller holds the lock.
func (s *MemoryStore) save(events map[string]*event.Event) error {
	if s.dataDir == "" {
		return nil
	}

	snap := snapshot{
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
		Events:    events,
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := os.WriteFile(s.snapshotPath(), data, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// QueryByIdentityKey scans the collection for documents with the given key.
func (s *MemoryStore) QueryByIdentityKey(_ context.Context, key string) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var docs []Document
	for id, evt := range s.events {
		if evt.IdentityKey == key {
			docs = append(docs, Document{ID: id, Event: evt})
		}
	}
	return docs, nil
}

// NewBatch starts an empty batch.
func (s *MemoryStore) NewBatch() Batch {
	return &memoryBatch{store: s}
}

// Stream visits every document.
func (s *MemoryStore) Stream(_ context.Context, fn func(Document) error) error {
	s.mu.RLock()
	docs := make([]Document, 0, len(s.events))
	for id, evt := range s.events {
		docs = append(docs, Document{ID: id, Event: evt})
	}
	s.mu.RUnlock()

	for _, doc := range docs {
		if err := fn(doc); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes one document and persists the shrunk collection.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[id]; !ok {
		return fmt.Errorf("document not found: %s", id)
	}

	updated := make(map[string]*event.Event, len(s.events))
	for k, v := range s.events {
		if k != id {
			updated[k] = v
		}
	}
	if err := s.save(updated); err != nil {
		return err
	}
	s.events = updated
	return nil
}

// Len reports the number of stored documents.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

func (s *MemoryStore) Close() error { return nil }

type memoryBatch struct {
	store  *MemoryStore
	staged []*event.Event
}

func (b *memoryBatch) Set(e *event.Event) {
	b.staged = append(b.staged, e)
}

func (b *memoryBatch) Len() int { return len(b.staged) }

// Commit applies the staged events and persists the snapshot. The in-memory
// collection only advances when the snapshot write succeeds, so a failed
// commit leaves the store exactly as it was.
func (b *memoryBatch) Commit(_ context.Context) error {
	if len(b.staged) == 0 {
		return nil
	}

	s := b.store
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := make(map[string]*event.Event, len(s.events)+len(b.staged))
	for k, v := range s.events {
		updated[k] = v
	}
	for _, evt := range b.staged {
		updated[uuid.NewString()] = evt
	}

	if err := s.save(updated); err != nil {
		return err
	}
	s.events = updated
	b.staged = nil
	return nil
}
