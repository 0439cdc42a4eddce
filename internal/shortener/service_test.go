package shortener

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/sundayezeilo/shorty/internal/errx"
	"github.com/sundayezeilo/shorty/internal/store"
)

/***************
 * Mocks
 ***************/

// mockStore implements store.Store for testing.
type mockStore struct {
	getFunc       func(ctx context.Context, code string) (store.Link, error)
	existsFunc    func(ctx context.Context, code string) (bool, error)
	putFunc       func(ctx context.Context, link store.Link) error
	incrementFunc func(ctx context.Context, code string) error

	puts       []store.Link
	increments []string
}

func (m *mockStore) Get(ctx context.Context, code string) (store.Link, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, code)
	}
	return store.Link{}, store.NotFound("mock.Get", code)
}

func (m *mockStore) Exists(ctx context.Context, code string) (bool, error) {
	if m.existsFunc != nil {
		return m.existsFunc(ctx, code)
	}
	return false, nil
}

func (m *mockStore) Put(ctx context.Context, link store.Link) error {
	m.puts = append(m.puts, link)
	if m.putFunc != nil {
		return m.putFunc(ctx, link)
	}
	return nil
}

func (m *mockStore) IncrementClicks(ctx context.Context, code string) error {
	m.increments = append(m.increments, code)
	if m.incrementFunc != nil {
		return m.incrementFunc(ctx, code)
	}
	return nil
}

// mockCodeGenerator hands out codes in order, then repeats the last one.
type mockCodeGenerator struct {
	codes     []string
	err       error
	callCount int
	lengths   []int
}

func (m *mockCodeGenerator) Generate(length int) (string, error) {
	m.callCount++
	m.lengths = append(m.lengths, length)
	if m.err != nil {
		return "", m.err
	}
	if len(m.codes) == 0 {
		return "abc123", nil
	}
	idx := min(m.callCount-1, len(m.codes)-1)
	return m.codes[idx], nil
}

type mockCache struct {
	entries map[string]string
	getErr  error
	setErr  error
	sets    int
}

func (m *mockCache) LongURL(_ context.Context, code string) (string, bool, error) {
	if m.getErr != nil {
		return "", false, m.getErr
	}
	u, ok := m.entries[code]
	return u, ok, nil
}

func (m *mockCache) SetLongURL(_ context.Context, code, longURL string) error {
	m.sets++
	if m.setErr != nil {
		return m.setErr
	}
	if m.entries == nil {
		m.entries = map[string]string{}
	}
	m.entries[code] = longURL
	return nil
}

type mockRecorder struct {
	created       []bool
	attempts      []int
	redirects     []bool
	clickFailures int
	cacheLookups  []bool
}

func (m *mockRecorder) LinkCreated(custom bool) { m.created = append(m.created, custom) }
func (m *mockRecorder) AllocationAttempts(n int) { m.attempts = append(m.attempts, n) }
func (m *mockRecorder) Redirect(found bool) { m.redirects = append(m.redirects, found) }
func (m *mockRecorder) ClickTrackingFailed() { m.clickFailures++ }
func (m *mockRecorder) CacheLookup(hit bool) { m.cacheLookups = append(m.cacheLookups, hit) }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestService(st store.Store, cfg *ServiceConfig) Service {
	if cfg == nil {
		cfg = &ServiceConfig{}
	}
	if cfg.Logger == nil {
		cfg.Logger = discardLogger()
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return fixedNow }
	}
	return NewService(st, cfg)
}

func duplicateErr(code string) error {
	return store.Duplicate("mock.Put", code)
}

/***************
 * Constructor Tests
 ***************/

func TestNewService(t *testing.T) {
	t.Run("creates service with nil config", func(t *testing.T) {
		if svc := NewService(&mockStore{}, nil); svc == nil {
			t.Fatal("NewService() returned nil")
		}
	})

	t.Run("uses default code length when out of range", func(t *testing.T) {
		for _, length := range []int{0, 2, 21, 100} {
			gen := &mockCodeGenerator{}
			svc := newTestService(&mockStore{}, &ServiceConfig{CodeGenerator: gen, CodeLength: length})

			if _, err := svc.Shorten(context.Background(), ShortenRequest{LongURL: "https://example.com"}); err != nil {
				t.Fatalf("Shorten() unexpected error: %v", err)
			}
			if gen.lengths[0] != DefaultCodeLength {
				t.Errorf("CodeLength %d: generator got length %d, want %d", length, gen.lengths[0], DefaultCodeLength)
			}
		}
	})

	t.Run("respects configured code length", func(t *testing.T) {
		gen := &mockCodeGenerator{}
		svc := newTestService(&mockStore{}, &ServiceConfig{CodeGenerator: gen, CodeLength: 8})

		if _, err := svc.Shorten(context.Background(), ShortenRequest{LongURL: "https://example.com"}); err != nil {
			t.Fatalf("Shorten() unexpected error: %v", err)
		}
		if gen.lengths[0] != 8 {
			t.Errorf("generator got length %d, want 8", gen.lengths[0])
		}
	})

	t.Run("default generator produces six base62 characters", func(t *testing.T) {
		st := &mockStore{}
		svc := newTestService(st, nil)

		res, err := svc.Shorten(context.Background(), ShortenRequest{LongURL: "https://example.com"})
		if err != nil {
			t.Fatalf("Shorten() unexpected error: %v", err)
		}
		if len(res.Link.ShortCode) != DefaultCodeLength {
			t.Errorf("code %q has length %d, want %d", res.Link.ShortCode, len(res.Link.ShortCode), DefaultCodeLength)
		}
	})
}

/***************
 * Shorten Tests
 ***************/

func TestServiceShorten_Validation(t *testing.T) {
	tests := []struct {
		name       string
		req        ShortenRequest
		wantErr    error
		wantReason string
	}{
		{
			name:       "missing url",
			req:        ShortenRequest{LongURL: ""},
			wantErr:    ErrInvalidURL,
			wantReason: "longUrl is required",
		},
		{
			name:       "whitespace url",
			req:        ShortenRequest{LongURL: "   "},
			wantErr:    ErrInvalidURL,
			wantReason: "longUrl is required",
		},
		{
			name:    "not absolute",
			req:     ShortenRequest{LongURL: "not a url"},
			wantErr: ErrInvalidURL,
		},
		{
			name:    "scheme without host",
			req:     ShortenRequest{LongURL: "mailto:someone"},
			wantErr: ErrInvalidURL,
		},
		{
			name:    "too long",
			req:     ShortenRequest{LongURL: "https://example.com/" + strings.Repeat("a", MaxURLLength)},
			wantErr: ErrInvalidURL,
		},
		{
			name:       "custom code too short",
			req:        ShortenRequest{LongURL: "https://example.com", CustomCode: "ab"},
			wantErr:    ErrInvalidCode,
			wantReason: "Custom code must be between 3 and 20 characters",
		},
		{
			name:    "custom code too long",
			req:     ShortenRequest{LongURL: "https://example.com", CustomCode: strings.Repeat("a", 21)},
			wantErr: ErrInvalidCode,
		},
		{
			name:       "custom code with illegal characters",
			req:        ShortenRequest{LongURL: "https://example.com", CustomCode: "my code!"},
			wantErr:    ErrInvalidCode,
			wantReason: "Only letters, numbers, hyphens, and underscores allowed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &mockStore{}
			svc := newTestService(st, nil)

			_, err := svc.Shorten(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Shorten() error = %v, want %v", err, tt.wantErr)
			}
			if errx.KindOf(err) != errx.Invalid {
				t.Errorf("KindOf() = %v, want %v", errx.KindOf(err), errx.Invalid)
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error %v does not carry a ValidationError", err)
			}
			if tt.wantReason != "" && verr.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", verr.Reason, tt.wantReason)
			}
			if len(st.puts) != 0 {
				t.Errorf("store.Put called %d times, want 0", len(st.puts))
			}
		})
	}
}

func TestServiceShorten_CustomCode(t *testing.T) {
	t.Run("stores custom code", func(t *testing.T) {
		st := &mockStore{}
		rec := &mockRecorder{}
		svc := newTestService(st, &ServiceConfig{Metrics: rec})

		res, err := svc.Shorten(context.Background(), ShortenRequest{
			LongURL:    "https://example.com/page",
			CustomCode: "my-link_1",
			BaseURL:    "http://localhost:3000/",
		})
		if err != nil {
			t.Fatalf("Shorten() unexpected error: %v", err)
		}

		if res.ShortURL != "http://localhost:3000/my-link_1" {
			t.Errorf("ShortURL = %q", res.ShortURL)
		}
		want := store.Link{ShortCode: "my-link_1", LongURL: "https://example.com/page", CreatedAt: fixedNow}
		if len(st.puts) != 1 || st.puts[0] != want {
			t.Errorf("stored %+v, want %+v", st.puts, want)
		}
		if len(rec.created) != 1 || !rec.created[0] {
			t.Errorf("LinkCreated calls = %v, want [true]", rec.created)
		}
	})

	t.Run("existing code is taken", func(t *testing.T) {
		st := &mockStore{
			existsFunc: func(_ context.Context, code string) (bool, error) {
				return code == "taken", nil
			},
		}
		svc := newTestService(st, nil)

		_, err := svc.Shorten(context.Background(), ShortenRequest{LongURL: "https://example.com", CustomCode: "taken"})
		if !errors.Is(err, ErrCodeTaken) {
			t.Fatalf("Shorten() error = %v, want ErrCodeTaken", err)
		}
		if errx.KindOf(err) != errx.Conflict {
			t.Errorf("KindOf() = %v, want %v", errx.KindOf(err), errx.Conflict)
		}
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Reason != "Custom code already exists" {
			t.Errorf("reason = %v", err)
		}
		if len(st.puts) != 0 {
			t.Error("store.Put must not be called for a taken code")
		}
	})

	t.Run("duplicate from concurrent put is taken", func(t *testing.T) {
		st := &mockStore{
			putFunc: func(_ context.Context, link store.Link) error {
				return duplicateErr(link.ShortCode)
			},
		}
		svc := newTestService(st, nil)

		_, err := svc.Shorten(context.Background(), ShortenRequest{LongURL: "https://example.com", CustomCode: "racer"})
		if !errors.Is(err, ErrCodeTaken) {
			t.Fatalf("Shorten() error = %v, want ErrCodeTaken", err)
		}
		if errx.KindOf(err) != errx.Conflict {
			t.Errorf("KindOf() = %v, want %v", errx.KindOf(err), errx.Conflict)
		}
	})

	t.Run("store failure is unavailable", func(t *testing.T) {
		st := &mockStore{
			existsFunc: func(context.Context, string) (bool, error) {
				return false, store.Unavailable("mock.Exists", errors.New("disk gone"))
			},
		}
		svc := newTestService(st, nil)

		_, err := svc.Shorten(context.Background(), ShortenRequest{LongURL: "https://example.com", CustomCode: "fine"})
		if !errors.Is(err, store.ErrUnavailable) {
			t.Fatalf("Shorten() error = %v, want ErrUnavailable", err)
		}
		if errx.KindOf(err) != errx.Unavailable {
			t.Errorf("KindOf() = %v, want %v", errx.KindOf(err), errx.Unavailable)
		}
	})
}

func TestServiceShorten_RandomCode(t *testing.T) {
	t.Run("first free code wins", func(t *testing.T) {
		st := &mockStore{}
		rec := &mockRecorder{}
		svc := newTestService(st, &ServiceConfig{
			CodeGenerator: &mockCodeGenerator{codes: []string{"Ab3xY9"}},
			Metrics:       rec,
		})

		res, err := svc.Shorten(context.Background(), ShortenRequest{
			LongURL: "  https://example.com  ",
			BaseURL: "https://sho.rt",
		})
		if err != nil {
			t.Fatalf("Shorten() unexpected error: %v", err)
		}
		if res.ShortURL != "https://sho.rt/Ab3xY9" {
			t.Errorf("ShortURL = %q", res.ShortURL)
		}
		if res.Link.LongURL != "https://example.com" {
			t.Errorf("LongURL = %q, want trimmed", res.Link.LongURL)
		}
		if res.Link.Clicks != 0 {
			t.Errorf("Clicks = %d, want 0", res.Link.Clicks)
		}
		if len(rec.attempts) != 1 || rec.attempts[0] != 1 {
			t.Errorf("AllocationAttempts = %v, want [1]", rec.attempts)
		}
		if len(rec.created) != 1 || rec.created[0] {
			t.Errorf("LinkCreated calls = %v, want [false]", rec.created)
		}
	})

	t.Run("skips codes that exist", func(t *testing.T) {
		st := &mockStore{
			existsFunc: func(_ context.Context, code string) (bool, error) {
				return code != "free01", nil
			},
		}
		gen := &mockCodeGenerator{codes: []string{"used01", "used02", "free01"}}
		svc := newTestService(st, &ServiceConfig{CodeGenerator: gen})

		res, err := svc.Shorten(context.Background(), ShortenRequest{LongURL: "https://example.com"})
		if err != nil {
			t.Fatalf("Shorten() unexpected error: %v", err)
		}
		if res.Link.ShortCode != "free01" {
			t.Errorf("ShortCode = %q, want free01", res.Link.ShortCode)
		}
		if gen.callCount != 3 {
			t.Errorf("generator calls = %d, want 3", gen.callCount)
		}
	})

	t.Run("retries when put races", func(t *testing.T) {
		st := &mockStore{
			putFunc: func(_ context.Context, link store.Link) error {
				if link.ShortCode == "raced1" {
					return duplicateErr(link.ShortCode)
				}
				return nil
			},
		}
		svc := newTestService(st, &ServiceConfig{
			CodeGenerator: &mockCodeGenerator{codes: []string{"raced1", "winner"}},
		})

		res, err := svc.Shorten(context.Background(), ShortenRequest{LongURL: "https://example.com"})
		if err != nil {
			t.Fatalf("Shorten() unexpected error: %v", err)
		}
		if res.Link.ShortCode != "winner" {
			t.Errorf("ShortCode = %q, want winner", res.Link.ShortCode)
		}
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		st := &mockStore{
			existsFunc: func(context.Context, string) (bool, error) { return true, nil },
		}
		gen := &mockCodeGenerator{}
		rec := &mockRecorder{}
		svc := newTestService(st, &ServiceConfig{CodeGenerator: gen, Metrics: rec})

		_, err := svc.Shorten(context.Background(), ShortenRequest{LongURL: "https://example.com"})
		if !errors.Is(err, ErrAllocationExhausted) {
			t.Fatalf("Shorten() error = %v, want ErrAllocationExhausted", err)
		}
		if errx.KindOf(err) != errx.Exhausted {
			t.Errorf("KindOf() = %v, want %v", errx.KindOf(err), errx.Exhausted)
		}
		if gen.callCount != DefaultMaxAttempts {
			t.Errorf("generator calls = %d, want %d", gen.callCount, DefaultMaxAttempts)
		}
		if len(st.puts) != 0 {
			t.Errorf("store.Put called %d times, want 0", len(st.puts))
		}
		if len(rec.created) != 0 {
			t.Errorf("LinkCreated recorded on failure: %v", rec.created)
		}
	})

	t.Run("respects MaxAttempts", func(t *testing.T) {
		st := &mockStore{
			putFunc: func(_ context.Context, link store.Link) error { return duplicateErr(link.ShortCode) },
		}
		gen := &mockCodeGenerator{}
		svc := newTestService(st, &ServiceConfig{CodeGenerator: gen, MaxAttempts: 3})

		_, err := svc.Shorten(context.Background(), ShortenRequest{LongURL: "https://example.com"})
		if errx.KindOf(err) != errx.Exhausted {
			t.Fatalf("KindOf() = %v, want %v", errx.KindOf(err), errx.Exhausted)
		}
		if gen.callCount != 3 {
			t.Errorf("generator calls = %d, want 3", gen.callCount)
		}
	})

	t.Run("generator failure is internal", func(t *testing.T) {
		svc := newTestService(&mockStore{}, &ServiceConfig{
			CodeGenerator: &mockCodeGenerator{err: errors.New("entropy exhausted")},
		})

		_, err := svc.Shorten(context.Background(), ShortenRequest{LongURL: "https://example.com"})
		if errx.KindOf(err) != errx.Internal {
			t.Errorf("KindOf() = %v, want %v", errx.KindOf(err), errx.Internal)
		}
	})

	t.Run("store failure stops retrying", func(t *testing.T) {
		st := &mockStore{
			putFunc: func(context.Context, store.Link) error {
				return store.Unavailable("mock.Put", errors.New("write failed"))
			},
		}
		gen := &mockCodeGenerator{}
		svc := newTestService(st, &ServiceConfig{CodeGenerator: gen})

		_, err := svc.Shorten(context.Background(), ShortenRequest{LongURL: "https://example.com"})
		if errx.KindOf(err) != errx.Unavailable {
			t.Fatalf("KindOf() = %v, want %v", errx.KindOf(err), errx.Unavailable)
		}
		if gen.callCount != 1 {
			t.Errorf("generator calls = %d, want 1", gen.callCount)
		}
	})
}

/***************
 * Resolve Tests
 ***************/

func TestServiceResolve(t *testing.T) {
	found := store.Link{ShortCode: "abc123", LongURL: "https://example.com/target", CreatedAt: fixedNow}

	t.Run("found counts a click", func(t *testing.T) {
		st := &mockStore{
			getFunc: func(context.Context, string) (store.Link, error) { return found, nil },
		}
		rec := &mockRecorder{}
		svc := newTestService(st, &ServiceConfig{Metrics: rec})

		got, err := svc.Resolve(context.Background(), "abc123")
		if err != nil {
			t.Fatalf("Resolve() unexpected error: %v", err)
		}
		if got != found.LongURL {
			t.Errorf("Resolve() = %q, want %q", got, found.LongURL)
		}
		if len(st.increments) != 1 || st.increments[0] != "abc123" {
			t.Errorf("increments = %v, want [abc123]", st.increments)
		}
		if len(rec.redirects) != 1 || !rec.redirects[0] {
			t.Errorf("Redirect calls = %v, want [true]", rec.redirects)
		}
	})

	t.Run("missing code", func(t *testing.T) {
		st := &mockStore{}
		svc := newTestService(st, nil)

		_, err := svc.Resolve(context.Background(), "nope12")
		if !errors.Is(err, ErrCodeNotFound) {
			t.Fatalf("Resolve() error = %v, want ErrCodeNotFound", err)
		}
		if errx.KindOf(err) != errx.NotFound {
			t.Errorf("KindOf() = %v, want %v", errx.KindOf(err), errx.NotFound)
		}
		if len(st.increments) != 0 {
			t.Error("IncrementClicks must not be called for a missing code")
		}
	})

	t.Run("malformed code never reaches the store", func(t *testing.T) {
		for _, code := range []string{"", "ab", "has space", "semi;colon", strings.Repeat("x", 21)} {
			st := &mockStore{
				getFunc: func(context.Context, string) (store.Link, error) {
					t.Fatalf("store.Get called for %q", code)
					return store.Link{}, nil
				},
			}
			svc := newTestService(st, nil)

			if _, err := svc.Resolve(context.Background(), code); errx.KindOf(err) != errx.NotFound {
				t.Errorf("Resolve(%q) kind = %v, want NotFound", code, errx.KindOf(err))
			}
		}
	})

	t.Run("click failure does not fail the redirect", func(t *testing.T) {
		st := &mockStore{
			getFunc: func(context.Context, string) (store.Link, error) { return found, nil },
			incrementFunc: func(context.Context, string) error {
				return store.Unavailable("mock.IncrementClicks", errors.New("read-only fs"))
			},
		}
		rec := &mockRecorder{}
		svc := newTestService(st, &ServiceConfig{Metrics: rec})

		got, err := svc.Resolve(context.Background(), "abc123")
		if err != nil {
			t.Fatalf("Resolve() unexpected error: %v", err)
		}
		if got != found.LongURL {
			t.Errorf("Resolve() = %q, want %q", got, found.LongURL)
		}
		if rec.clickFailures != 1 {
			t.Errorf("ClickTrackingFailed calls = %d, want 1", rec.clickFailures)
		}
	})

	t.Run("store failure is surfaced", func(t *testing.T) {
		st := &mockStore{
			getFunc: func(context.Context, string) (store.Link, error) {
				return store.Link{}, store.Unavailable("mock.Get", errors.New("corrupt"))
			},
		}
		svc := newTestService(st, nil)

		_, err := svc.Resolve(context.Background(), "abc123")
		if errx.KindOf(err) != errx.Unavailable {
			t.Errorf("KindOf() = %v, want %v", errx.KindOf(err), errx.Unavailable)
		}
	})
}

func TestServiceResolve_Cache(t *testing.T) {
	found := store.Link{ShortCode: "abc123", LongURL: "https://example.com/cached"}

	t.Run("hit skips the store read but still counts", func(t *testing.T) {
		st := &mockStore{
			getFunc: func(context.Context, string) (store.Link, error) {
				t.Fatal("store.Get called on cache hit")
				return store.Link{}, nil
			},
		}
		cache := &mockCache{entries: map[string]string{"abc123": found.LongURL}}
		rec := &mockRecorder{}
		svc := newTestService(st, &ServiceConfig{Cache: cache, Metrics: rec})

		got, err := svc.Resolve(context.Background(), "abc123")
		if err != nil {
			t.Fatalf("Resolve() unexpected error: %v", err)
		}
		if got != found.LongURL {
			t.Errorf("Resolve() = %q", got)
		}
		if len(st.increments) != 1 {
			t.Errorf("increments = %d, want 1", len(st.increments))
		}
		if len(rec.cacheLookups) != 1 || !rec.cacheLookups[0] {
			t.Errorf("CacheLookup calls = %v, want [true]", rec.cacheLookups)
		}
	})

	t.Run("miss fills the cache", func(t *testing.T) {
		st := &mockStore{
			getFunc: func(context.Context, string) (store.Link, error) { return found, nil },
		}
		cache := &mockCache{}
		svc := newTestService(st, &ServiceConfig{Cache: cache})

		if _, err := svc.Resolve(context.Background(), "abc123"); err != nil {
			t.Fatalf("Resolve() unexpected error: %v", err)
		}
		if cache.entries["abc123"] != found.LongURL {
			t.Errorf("cache entry = %q, want %q", cache.entries["abc123"], found.LongURL)
		}
	})

	t.Run("cache errors fall back to the store", func(t *testing.T) {
		st := &mockStore{
			getFunc: func(context.Context, string) (store.Link, error) { return found, nil },
		}
		cache := &mockCache{getErr: errors.New("redis down"), setErr: errors.New("redis down")}
		svc := newTestService(st, &ServiceConfig{Cache: cache})

		got, err := svc.Resolve(context.Background(), "abc123")
		if err != nil {
			t.Fatalf("Resolve() unexpected error: %v", err)
		}
		if got != found.LongURL {
			t.Errorf("Resolve() = %q", got)
		}
	})

	t.Run("missing code is not cached", func(t *testing.T) {
		cache := &mockCache{}
		svc := newTestService(&mockStore{}, &ServiceConfig{Cache: cache})

		if _, err := svc.Resolve(context.Background(), "nope12"); errx.KindOf(err) != errx.NotFound {
			t.Fatalf("Resolve() kind = %v, want NotFound", errx.KindOf(err))
		}
		if cache.sets != 0 {
			t.Errorf("cache sets = %d, want 0", cache.sets)
		}
	})
}

/***************
 * Stats Tests
 ***************/

func TestServiceStats(t *testing.T) {
	link := store.Link{ShortCode: "abc123", LongURL: "https://example.com", CreatedAt: fixedNow, Clicks: 7}

	t.Run("returns link without counting", func(t *testing.T) {
		st := &mockStore{
			getFunc: func(context.Context, string) (store.Link, error) { return link, nil },
		}
		svc := newTestService(st, nil)

		got, err := svc.Stats(context.Background(), "abc123")
		if err != nil {
			t.Fatalf("Stats() unexpected error: %v", err)
		}
		if got != link {
			t.Errorf("Stats() = %+v, want %+v", got, link)
		}
		if len(st.increments) != 0 {
			t.Error("Stats must not count a click")
		}
	})

	t.Run("missing code", func(t *testing.T) {
		svc := newTestService(&mockStore{}, nil)

		_, err := svc.Stats(context.Background(), "nope12")
		if !errors.Is(err, ErrCodeNotFound) {
			t.Errorf("Stats() error = %v, want ErrCodeNotFound", err)
		}
	})
}
