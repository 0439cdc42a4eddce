// Package store defines the persistence contract for link records.
//
// Backends live in subpackages (filestore, mongostore, pgstore) and are
// selected once at startup. Every backend reports failures as *errx.Error
// values wrapping one of the sentinels below so callers can branch with
// errors.Is or errx.KindOf without knowing which backend is in use.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no record exists for a short code.
	ErrNotFound = errors.New("link not found")

	// ErrDuplicateCode is returned by Put when the short code is already stored.
	ErrDuplicateCode = errors.New("short code already exists")

	// ErrUnavailable wraps I/O failures of the underlying backend.
	ErrUnavailable = errors.New("store unavailable")
)

// Link is a persisted short code -> long URL association.
type Link struct {
	ShortCode string
	LongURL   string
	CreatedAt time.Time
	Clicks    int64
}

// Store is implemented by every backend.
type Store interface {
	// Get returns the record for code or an error wrapping ErrNotFound.
	Get(ctx context.Context, code string) (Link, error)

	// Exists reports whether code is stored.
	Exists(ctx context.Context, code string) (bool, error)

	// Put persists a new record. It must fail with ErrDuplicateCode if the
	// code is already present and must never expose a partial write.
	Put(ctx context.Context, link Link) error

	// IncrementClicks adds one to the click counter of code or fails with
	// ErrNotFound.
	IncrementClicks(ctx context.Context, code string) error
}
