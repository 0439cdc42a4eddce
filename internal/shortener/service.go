package shortener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/sundayezeilo/shorty/internal/codegen"
	"github.com/sundayezeilo/shorty/internal/errx"
	"github.com/sundayezeilo/shorty/internal/store"
)

const (
	DefaultCodeLength  = 6
	MinCodeLength      = 3
	MaxCodeLength      = 20
	MaxURLLength       = 2048
	DefaultMaxAttempts = 10
)

var (
	ErrInvalidURL          = errors.New("invalid url")
	ErrInvalidCode         = errors.New("invalid custom code")
	ErrCodeTaken           = errors.New("custom code already taken")
	ErrAllocationExhausted = errors.New("short code allocation exhausted")
	ErrCodeNotFound        = errors.New("short code not found")
)

// codePattern is the shape of every code the service will ever store.
var codePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,20}$`)

// ValidationError carries a message that is safe to show to clients.
type ValidationError struct {
	Err    error
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }
func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(sentinel error, reason string) *ValidationError {
	return &ValidationError{Err: sentinel, Reason: reason}
}

// ShortenRequest holds the parameters for creating a short link.
type ShortenRequest struct {
	LongURL    string
	CustomCode string // Optional: if empty, a code is generated
	BaseURL    string // Origin the short URL is built on, e.g. "https://sho.rt"
}

// ShortenResult is the created record plus its fully qualified short URL.
type ShortenResult struct {
	Link     store.Link
	ShortURL string
}

// Cache is an optional read-through cache for code -> long URL.
type Cache interface {
	LongURL(ctx context.Context, code string) (string, bool, error)
	SetLongURL(ctx context.Context, code, longURL string) error
}

// Recorder receives domain events for metrics.
type Recorder interface {
	LinkCreated(custom bool)
	AllocationAttempts(n int)
	Redirect(found bool)
	ClickTrackingFailed()
	CacheLookup(hit bool)
}

// Service defines the business logic operations for URL shortening.
type Service interface {
	Shorten(ctx context.Context, req ShortenRequest) (ShortenResult, error)
	Resolve(ctx context.Context, code string) (string, error)
	Stats(ctx context.Context, code string) (store.Link, error)
}

type service struct {
	store       store.Store
	codes       codegen.Generator
	codeLength  int
	maxAttempts int
	cache       Cache
	metrics     Recorder
	logger      *slog.Logger
	now         func() time.Time
}

// ServiceConfig holds configuration for the service.
type ServiceConfig struct {
	CodeGenerator codegen.Generator
	CodeLength    int
	MaxAttempts   int // random code attempts before giving up (default: 10)
	Cache         Cache
	Metrics       Recorder
	Logger        *slog.Logger
	Now           func() time.Time
}

// NewService creates a new service instance.
func NewService(st store.Store, config *ServiceConfig) Service {
	if config == nil {
		config = &ServiceConfig{}
	}

	codes := config.CodeGenerator
	if codes == nil {
		codes = codegen.NewBase62()
	}

	codeLength := config.CodeLength
	if codeLength < MinCodeLength || codeLength > MaxCodeLength {
		codeLength = DefaultCodeLength
	}

	attempts := config.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}

	recorder := config.Metrics
	if recorder == nil {
		recorder = noopRecorder{}
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := config.Now
	if now == nil {
		now = time.Now
	}

	return &service{
		store:       st,
		codes:       codes,
		codeLength:  codeLength,
		maxAttempts: attempts,
		cache:       config.Cache,
		metrics:     recorder,
		logger:      logger,
		now:         now,
	}
}

// Shorten validates the request, allocates or accepts a code and stores a new link.
func (s *service) Shorten(ctx context.Context, req ShortenRequest) (ShortenResult, error) {
	const op = "shortener.service.Shorten"

	longURL := strings.TrimSpace(req.LongURL)
	if err := validateURL(longURL); err != nil {
		return ShortenResult{}, errx.E(op, errx.Invalid, err)
	}

	link := store.Link{
		LongURL:   longURL,
		CreatedAt: s.now().UTC(),
	}

	custom := strings.TrimSpace(req.CustomCode)

	var err error
	if custom != "" {
		link.ShortCode, err = s.putCustom(ctx, link, custom)
	} else {
		link.ShortCode, err = s.putGenerated(ctx, link)
	}
	if err != nil {
		return ShortenResult{}, errx.Wrap(op, err)
	}

	s.metrics.LinkCreated(custom != "")

	return ShortenResult{
		Link:     link,
		ShortURL: strings.TrimRight(req.BaseURL, "/") + "/" + link.ShortCode,
	}, nil
}

func (s *service) putCustom(ctx context.Context, link store.Link, code string) (string, error) {
	const op = "shortener.service.putCustom"

	if err := validateCode(code); err != nil {
		return "", errx.E(op, errx.Invalid, err)
	}

	taken, err := s.store.Exists(ctx, code)
	if err != nil {
		return "", errx.Wrap(op, err)
	}
	if taken {
		return "", errx.E(op, errx.Conflict, invalid(ErrCodeTaken, "Custom code already exists"))
	}

	link.ShortCode = code
	if err := s.store.Put(ctx, link); err != nil {
		// Another request stored the same code between Exists and Put.
		if errors.Is(err, store.ErrDuplicateCode) {
			return "", errx.E(op, errx.Conflict, invalid(ErrCodeTaken, "Custom code already exists"))
		}
		return "", errx.Wrap(op, err)
	}
	return code, nil
}

func (s *service) putGenerated(ctx context.Context, link store.Link) (string, error) {
	const op = "shortener.service.putGenerated"

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		code, err := s.codes.Generate(s.codeLength)
		if err != nil {
			return "", errx.E(op, errx.Internal, err)
		}

		taken, err := s.store.Exists(ctx, code)
		if err != nil {
			return "", errx.Wrap(op, err)
		}
		if taken {
			continue
		}

		link.ShortCode = code
		err = s.store.Put(ctx, link)
		if err == nil {
			s.metrics.AllocationAttempts(attempt)
			return code, nil
		}
		if !errors.Is(err, store.ErrDuplicateCode) {
			return "", errx.Wrap(op, err)
		}
	}

	s.metrics.AllocationAttempts(s.maxAttempts)
	return "", errx.E(op, errx.Exhausted,
		fmt.Errorf("%w: no free code after %d attempts", ErrAllocationExhausted, s.maxAttempts))
}

// Resolve returns the long URL for code and counts the click. A failure to
// count the click is logged and never fails the lookup.
func (s *service) Resolve(ctx context.Context, code string) (string, error) {
	const op = "shortener.service.Resolve"

	if !codePattern.MatchString(code) {
		s.metrics.Redirect(false)
		return "", errx.E(op, errx.NotFound, ErrCodeNotFound)
	}

	if longURL, ok := s.cachedLongURL(ctx, code); ok {
		s.metrics.Redirect(true)
		s.trackClick(ctx, code)
		return longURL, nil
	}

	link, err := s.store.Get(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.metrics.Redirect(false)
			return "", errx.E(op, errx.NotFound, fmt.Errorf("%w: %w", ErrCodeNotFound, err))
		}
		return "", errx.Wrap(op, err)
	}

	s.fillCache(ctx, code, link.LongURL)
	s.metrics.Redirect(true)
	s.trackClick(ctx, code)

	return link.LongURL, nil
}

// Stats returns the stored record without counting a click.
func (s *service) Stats(ctx context.Context, code string) (store.Link, error) {
	const op = "shortener.service.Stats"

	if !codePattern.MatchString(code) {
		return store.Link{}, errx.E(op, errx.NotFound, ErrCodeNotFound)
	}

	link, err := s.store.Get(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Link{}, errx.E(op, errx.NotFound, fmt.Errorf("%w: %w", ErrCodeNotFound, err))
		}
		return store.Link{}, errx.Wrap(op, err)
	}
	return link, nil
}

func (s *service) cachedLongURL(ctx context.Context, code string) (string, bool) {
	if s.cache == nil {
		return "", false
	}

	longURL, hit, err := s.cache.LongURL(ctx, code)
	if err != nil {
		s.logger.WarnContext(ctx, "cache lookup failed", "code", code, "error", err.Error())
		return "", false
	}
	s.metrics.CacheLookup(hit)
	return longURL, hit
}

func (s *service) fillCache(ctx context.Context, code, longURL string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetLongURL(ctx, code, longURL); err != nil {
		s.logger.WarnContext(ctx, "cache fill failed", "code", code, "error", err.Error())
	}
}

func (s *service) trackClick(ctx context.Context, code string) {
	if err := s.store.IncrementClicks(ctx, code); err != nil {
		s.metrics.ClickTrackingFailed()
		s.logger.WarnContext(ctx, "click tracking failed",
			"code", code,
			"error", err.Error(),
			"error_kind", errx.KindOf(err),
		)
	}
}

func validateURL(rawURL string) error {
	if rawURL == "" {
		return invalid(ErrInvalidURL, "longUrl is required")
	}
	if len(rawURL) > MaxURLLength {
		return invalid(ErrInvalidURL, "longUrl is too long (max 2048 characters)")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		return invalid(ErrInvalidURL, "Please enter a valid URL (e.g., https://example.com)")
	}
	return nil
}

func validateCode(code string) error {
	if len(code) < MinCodeLength || len(code) > MaxCodeLength {
		return invalid(ErrInvalidCode, "Custom code must be between 3 and 20 characters")
	}
	if !codePattern.MatchString(code) {
		return invalid(ErrInvalidCode, "Only letters, numbers, hyphens, and underscores allowed")
	}
	return nil
}

type noopRecorder struct{}

func (noopRecorder) LinkCreated(bool) {}
func (noopRecorder) AllocationAttempts(int) {}
func (noopRecorder) Redirect(bool) {}
func (noopRecorder) ClickTrackingFailed() {}
func (noopRecorder) CacheLookup(bool) {}
