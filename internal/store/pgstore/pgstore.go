// Package pgstore stores links in a PostgreSQL table with a unique
// constraint on short_code.
package pgstore

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sundayezeilo/shorty/internal/idgen"
	"github.com/sundayezeilo/shorty/internal/store"
)

//go:embed schema.sql
var schema string

const (
	uniqueViolation  = "23505"
	uniqueConstraint = "links_short_code_unique"
)

// dbtx is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is a store.Store backed by PostgreSQL.
type Store struct {
	db  dbtx
	ids idgen.Generator
}

// Config holds optional settings for the store.
type Config struct {
	IDGenerator idgen.Generator
}

// New returns a Store using db. Row ids default to UUID v7 for index locality.
func New(db dbtx, cfg *Config) *Store {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.IDGenerator == nil {
		cfg.IDGenerator = idgen.NewV7(idgen.WithRetries(1))
	}
	return &Store{db: db, ids: cfg.IDGenerator}
}

// Migrate creates the links table if it does not exist.
func Migrate(ctx context.Context, db dbtx) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, code string) (store.Link, error) {
	const op = "store.postgres.Get"

	var link store.Link
	err := s.db.QueryRow(ctx,
		`SELECT short_code, long_url, created_at, clicks FROM links WHERE short_code = $1`,
		code,
	).Scan(&link.ShortCode, &link.LongURL, &link.CreatedAt, &link.Clicks)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Link{}, store.NotFound(op, code)
		}
		return store.Link{}, store.Unavailable(op, err)
	}
	link.CreatedAt = link.CreatedAt.UTC()
	return link, nil
}

func (s *Store) Exists(ctx context.Context, code string) (bool, error) {
	const op = "store.postgres.Exists"

	var ok bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM links WHERE short_code = $1)`,
		code,
	).Scan(&ok)
	if err != nil {
		return false, store.Unavailable(op, err)
	}
	return ok, nil
}

func (s *Store) Put(ctx context.Context, link store.Link) error {
	const op = "store.postgres.Put"

	id, err := s.ids.Generate()
	if err != nil {
		return store.Unavailable(op, err)
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO links (id, short_code, long_url, created_at, clicks) VALUES ($1, $2, $3, $4, $5)`,
		id, link.ShortCode, link.LongURL, link.CreatedAt.UTC(), link.Clicks,
	)
	if err != nil {
		if isShortCodeUniqueViolation(err) {
			return store.Duplicate(op, link.ShortCode)
		}
		return store.Unavailable(op, err)
	}
	return nil
}

func (s *Store) IncrementClicks(ctx context.Context, code string) error {
	const op = "store.postgres.IncrementClicks"

	tag, err := s.db.Exec(ctx,
		`UPDATE links SET clicks = clicks + 1 WHERE short_code = $1`,
		code,
	)
	if err != nil {
		return store.Unavailable(op, err)
	}
	if tag.RowsAffected() == 0 {
		return store.NotFound(op, code)
	}
	return nil
}

func isShortCodeUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == uniqueViolation &&
		pgErr.ConstraintName == uniqueConstraint
}

var _ store.Store = (*Store)(nil)
