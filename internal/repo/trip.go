// Package repo is the persistence gateway for trip records.
// A record is an opaque JSON document keyed by trip ID; encoding and
// validation live in the service layer. No business logic lives here.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pkordes/trip-planner/internal/domain"
)

// TripStore maps a trip ID to its stored document.
// The service layer depends on this interface, not on a concrete store,
// which allows the service to be unit-tested with a mock.
type TripStore interface {
	// Load returns the document for id, or domain.ErrNotFound.
	Load(ctx context.Context, id uuid.UUID) ([]byte, error)

	// Save writes doc under id, replacing any previous document.
	// Concurrent writers to the same id: the last Save wins.
	Save(ctx context.Context, id uuid.UUID, doc []byte) error

	// Delete removes the document for id and reports whether one existed.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)

	// List returns every stored document, most recently created first.
	List(ctx context.Context) ([][]byte, error)
}

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, pgx.Tx
// and pgxmock pools. Integration tests pass a transaction that is rolled
// back after each test.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgStore keeps documents in the trip_records table as jsonb.
type PgStore struct {
	db db
}

// NewPgStore constructs a PgStore backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx or a pgxmock pool.
func NewPgStore(db db) *PgStore {
	return &PgStore{db: db}
}

// Load retrieves a document by primary key.
func (s *PgStore) Load(ctx context.Context, id uuid.UUID) ([]byte, error) {
	const q = `SELECT document FROM trip_records WHERE id = $1`

	var doc []byte
	if err := s.db.QueryRow(ctx, q, id).Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("repo.PgStore.Load: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("repo.PgStore.Load: %w", err)
	}
	return doc, nil
}

// Save upserts the document for id.
func (s *PgStore) Save(ctx context.Context, id uuid.UUID, doc []byte) error {
	const q = `
		INSERT INTO trip_records (id, document)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE
		SET document   = EXCLUDED.document,
		    updated_at = now()`

	if _, err := s.db.Exec(ctx, q, id, doc); err != nil {
		return fmt.Errorf("repo.PgStore.Save: %w", err)
	}
	return nil
}

// Delete removes a document by primary key.
func (s *PgStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	const q = `DELETE FROM trip_records WHERE id = $1`

	tag, err := s.db.Exec(ctx, q, id)
	if err != nil {
		return false, fmt.Errorf("repo.PgStore.Delete: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// List returns all documents ordered by created_at descending.
func (s *PgStore) List(ctx context.Context) ([][]byte, error) {
	const q = `SELECT document FROM trip_records ORDER BY created_at DESC, id`

	rows, err := s.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.PgStore.List: %w", err)
	}
	defer rows.Close()

	docs := [][]byte{}
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("repo.PgStore.List: scan: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.PgStore.List: rows: %w", err)
	}
	return docs, nil
}
