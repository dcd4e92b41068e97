// Package docstore persists raw scraped payloads as-is, upserted by id
// into named collections. It mirrors the document-store side of the
// pipeline; the typed record store lives in internal/store.
package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	// Collections written by the crawl orchestrator.
	CollectionJob       = "job"
	CollectionJobDetail = "job_detail"

	writeAttempts = 2
	writeBackoff  = 2 * time.Second
)

type Store struct {
	db *pgxpool.Pool
}

// Connect opens the document-store pool and verifies connectivity.
func Connect(ctx context.Context, connString string) (*Store, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse docstore url: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour

	// Connection poolers in transaction mode don't play well with prepared
	// statements, so the statement cache stays off.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to docstore: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("docstore unreachable: %w", err)
	}

	return &Store{db: pool}, nil
}

func (s *Store) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

// Migrate creates the raw document table.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS raw_document (
			collection TEXT NOT NULL,
			id         TEXT NOT NULL,
			document   JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (collection, id)
		)`)
	if err != nil {
		return fmt.Errorf("failed to create raw_document table: %w", err)
	}
	return nil
}

// Upsert inserts or replaces one document by (collection, id). Repeated
// writes of the same id refresh the payload without duplicating rows.
func (s *Store) Upsert(ctx context.Context, collection, id string, document any) error {
	if id == "" {
		return fmt.Errorf("document id is required for collection %s", collection)
	}
	raw, err := json.Marshal(document)
	if err != nil {
		return fmt.Errorf("failed to marshal document %s/%s: %w", collection, id, err)
	}

	query := `
		INSERT INTO raw_document (collection, id, document, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (collection, id)
		DO UPDATE SET document = EXCLUDED.document, updated_at = now()`

	for attempt := 0; ; attempt++ {
		_, err = s.db.Exec(ctx, query, collection, id, raw)
		if err == nil {
			return nil
		}
		if attempt >= writeAttempts-1 {
			return fmt.Errorf("failed to upsert document %s/%s: %w", collection, id, err)
		}
		time.Sleep(writeBackoff)
	}
}

// Get returns one document, or nil when absent.
func (s *Store) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	var raw json.RawMessage
	err := s.db.QueryRow(ctx,
		`SELECT document FROM raw_document WHERE collection = $1 AND id = $2`,
		collection, id).Scan(&raw)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s/%s: %w", collection, id, err)
	}
	return raw, nil
}
