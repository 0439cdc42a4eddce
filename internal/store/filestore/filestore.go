// Package filestore keeps every link in a single JSON document on disk.
//
// The document is an object keyed by short code:
//
//	{
//	  "abc123": { "longUrl": "https://...", "createdAt": "2024-05-01T10:00:00Z", "clicks": 3 }
//	}
//
// Every mutation re-reads the whole file, changes it in memory and rewrites
// it. The rewrite goes to a temporary file that is renamed over the target,
// so readers always see either the old or the new document.
//
// Limitation: mutations are serialized with a mutex inside one process only.
// Two processes sharing the same file can both pass the duplicate check for a
// code and the last writer wins; concurrent redirects from different
// processes can lose click increments. Use this backend for single-process,
// low-traffic deployments; the mongo and postgres backends enforce
// uniqueness in the database.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sundayezeilo/shorty/internal/store"
)

type entry struct {
	LongURL   string    `json:"longUrl"`
	CreatedAt time.Time `json:"createdAt"`
	Clicks    int64     `json:"clicks"`
}

type document map[string]entry

// filePerm is the mode of a newly created document.
const filePerm fs.FileMode = 0o644

// Store is a store.Store backed by one JSON file.
type Store struct {
	path string

	// mu guards the read-modify-write cycle; the whole file is the unit of mutation.
	mu sync.Mutex
}

// Open returns a Store for path, writing an empty document if the file does
// not exist yet.
func Open(path string) (*Store, error) {
	const op = "store.file.Open"

	if path == "" {
		return nil, store.Unavailable(op, errors.New("file path is empty"))
	}

	s := &Store{path: path}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, store.Unavailable(op, err)
		}
	}

	_, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := s.write(document{}); err != nil {
			return nil, store.Unavailable(op, err)
		}
	case err != nil:
		return nil, store.Unavailable(op, err)
	}

	// Fail fast on a corrupt document instead of on the first request.
	if _, err := s.read(); err != nil {
		return nil, store.Unavailable(op, err)
	}

	return s, nil
}

// Path returns the location of the backing file.
func (s *Store) Path() string { return s.path }

func (s *Store) Get(ctx context.Context, code string) (store.Link, error) {
	const op = "store.file.Get"

	if err := ctx.Err(); err != nil {
		return store.Link{}, store.Unavailable(op, err)
	}

	doc, err := s.read()
	if err != nil {
		return store.Link{}, store.Unavailable(op, err)
	}

	e, ok := doc[code]
	if !ok {
		return store.Link{}, store.NotFound(op, code)
	}
	return toLink(code, e), nil
}

func (s *Store) Exists(ctx context.Context, code string) (bool, error) {
	const op = "store.file.Exists"

	if err := ctx.Err(); err != nil {
		return false, store.Unavailable(op, err)
	}

	doc, err := s.read()
	if err != nil {
		return false, store.Unavailable(op, err)
	}
	_, ok := doc[code]
	return ok, nil
}

func (s *Store) Put(ctx context.Context, link store.Link) error {
	const op = "store.file.Put"

	if err := ctx.Err(); err != nil {
		return store.Unavailable(op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return store.Unavailable(op, err)
	}
	if _, ok := doc[link.ShortCode]; ok {
		return store.Duplicate(op, link.ShortCode)
	}

	doc[link.ShortCode] = entry{
		LongURL:   link.LongURL,
		CreatedAt: link.CreatedAt.UTC(),
		Clicks:    link.Clicks,
	}

	if err := s.write(doc); err != nil {
		return store.Unavailable(op, err)
	}
	return nil
}

func (s *Store) IncrementClicks(ctx context.Context, code string) error {
	const op = "store.file.IncrementClicks"

	if err := ctx.Err(); err != nil {
		return store.Unavailable(op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return store.Unavailable(op, err)
	}

	e, ok := doc[code]
	if !ok {
		return store.NotFound(op, code)
	}
	e.Clicks++
	doc[code] = e

	if err := s.write(doc); err != nil {
		return store.Unavailable(op, err)
	}
	return nil
}

// read loads the whole document. A missing or empty file and a JSON null
// all read as {}.
func (s *Store) read() (document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return document{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return document{}, nil
	}

	doc := document{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	if doc == nil {
		doc = document{}
	}
	return doc, nil
}

// write replaces the file with doc via a temp file and rename. The new file
// keeps the permissions of the one it replaces, or filePerm for a new file.
func (s *Store) write(doc document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	mode := filePerm
	if info, err := os.Stat(s.path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".links-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	cleanup := func(cause error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return cause
	}

	if err := tmp.Chmod(mode); err != nil {
		return cleanup(err)
	}
	if _, err := tmp.Write(data); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

func toLink(code string, e entry) store.Link {
	return store.Link{
		ShortCode: code,
		LongURL:   e.LongURL,
		CreatedAt: e.CreatedAt,
		Clicks:    e.Clicks,
	}
}

var _ store.Store = (*Store)(nil)
