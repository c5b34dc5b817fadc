package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MarkitIt/markitit-xc475/internal/event"
)

// PostgresStore keeps the events collection as jsonb documents in a single
// table, with the identity key denormalized into an indexed column for the
// dedup lookup.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id UUID PRIMARY KEY,
		identity_key TEXT NOT NULL,
		doc JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	// The unique index is a second guard behind the query-based dedup
	// check: under the single-writer assumption it never fires, and a
	// conflicting insert is skipped rather than failing the batch.
	`CREATE UNIQUE INDEX IF NOT EXISTS events_identity_key_uidx ON events (identity_key)`,
}

// NewPostgresStore connects to the database and ensures the schema exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ensuring schema: %w", err)
		}
	}
	return &PostgresStore{pool: pool}, nil
}

// QueryByIdentityKey returns the documents stored under key.
func (s *PostgresStore) QueryByIdentityKey(ctx context.Context, key string) ([]Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, doc FROM events WHERE identity_key = $1`, key)
	if err != nil {
		return nil, fmt.Errorf("querying identity key: %w", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

// NewBatch starts an empty batch.
func (s *PostgresStore) NewBatch() Batch {
	return &postgresBatch{store: s}
}

// Stream visits every document in the collection.
func (s *PostgresStore) Stream(ctx context.Context, fn func(Document) error) error {
	rows, err := s.pool.Query(ctx, `SELECT id, doc FROM events ORDER BY created_at`)
	if err != nil {
		return fmt.Errorf("streaming events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Delete removes one document by store id.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

type postgresBatch struct {
	store  *PostgresStore
	staged []*event.Event
}

func (b *postgresBatch) Set(e *event.Event) {
	b.staged = append(b.staged, e)
}

func (b *postgresBatch) Len() int { return len(b.staged) }

// Commit writes every staged event inside one transaction.
func (b *postgresBatch) Commit(ctx context.Context) error {
	if len(b.staged) == 0 {
		return nil
	}

	tx, err := b.store.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning batch transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, evt := range b.staged {
		doc, err := json.Marshal(evt)
		if err != nil {
			return fmt.Errorf("encoding event %q: %w", evt.Name, err)
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO events (id, identity_key, doc) VALUES ($1, $2, $3)
			 ON CONFLICT (identity_key) DO NOTHING`,
			uuid.NewString(), evt.IdentityKey, doc)
		if err != nil {
			return fmt.Errorf("staging event %q: %w", evt.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}
	b.staged = nil
	return nil
}

func scanDocuments(rows pgx.Rows) ([]Document, error) {
	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func scanDocument(rows pgx.Rows) (Document, error) {
	var (
		id   string
		body []byte
	)
	if err := rows.Scan(&id, &body); err != nil {
		return Document{}, fmt.Errorf("scanning event row: %w", err)
	}

	var evt event.Event
	if err := json.Unmarshal(body, &evt); err != nil {
		return Document{}, fmt.Errorf("decoding event document %s: %w", id, err)
	}
	return Document{ID: id, Event: &evt}, nil
}
