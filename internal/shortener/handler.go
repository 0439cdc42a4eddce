package shortener

import (
	"context"
	_ "embed"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sundayezeilo/shorty/internal/errx"
	"github.com/sundayezeilo/shorty/internal/httpx"
)

//go:embed notfound.html
var defaultNotFoundPage []byte

// HTTPShortenRequest is the JSON body of POST /shorten.
type HTTPShortenRequest struct {
	LongURL    string `json:"longUrl"`
	CustomCode string `json:"customCode,omitempty"`
}

// ShortenResponse is the JSON body of a successful POST /shorten.
type ShortenResponse struct {
	ShortURL string `json:"shortUrl"`
}

// LinkResponse is the JSON body of GET /api/links/{code}.
type LinkResponse struct {
	ShortCode string `json:"shortCode"`
	ShortURL  string `json:"shortUrl"`
	LongURL   string `json:"longUrl"`
	CreatedAt string `json:"createdAt"`
	Clicks    int64  `json:"clicks"`
}

const internalErrorMessage = "Internal server error"

// Handler provides HTTP handlers for the URL shortener service.
type Handler struct {
	service      Service
	logger       *slog.Logger
	baseURL      string
	notFoundPage []byte
}

// HandlerConfig holds configuration for the handler.
type HandlerConfig struct {
	Service      Service
	Logger       *slog.Logger
	BaseURL      string // Public origin for short URLs; derived from the request when empty
	NotFoundPage []byte // HTML served for unknown codes; a built-in page when nil
}

// NewHandler creates a new Handler instance.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	page := cfg.NotFoundPage
	if len(page) == 0 {
		page = defaultNotFoundPage
	}

	return &Handler{
		service:      cfg.Service,
		logger:       logger,
		baseURL:      cfg.BaseURL,
		notFoundPage: page,
	}
}

// Shorten handles POST /shorten.
func (h *Handler) Shorten(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	logger := h.logger.With(
		"request_id", httpx.GetRequestID(ctx),
		"method", r.Method,
		"path", r.URL.Path,
	)

	req, err := httpx.DecodeJSON[HTTPShortenRequest](r)
	if err != nil {
		logger.WarnContext(ctx, "failed to decode request", "error", err.Error())
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.service.Shorten(ctx, ShortenRequest{
		LongURL:    req.LongURL,
		CustomCode: req.CustomCode,
		BaseURL:    h.origin(r),
	})
	if err != nil {
		h.handleShortenError(ctx, logger, w, err)
		return
	}

	logger.InfoContext(ctx, "link created",
		"code", res.Link.ShortCode,
		"custom_code", req.CustomCode != "",
	)

	httpx.WriteJSON(w, http.StatusCreated, ShortenResponse{ShortURL: res.ShortURL})
}

// Redirect handles GET /{code}: 302 to the long URL or the HTML 404 page.
// HEAD requests get the same answer without counting a click.
func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := r.PathValue("code")

	longURL, err := h.target(ctx, r.Method, code)
	if err != nil {
		h.handleResolveError(ctx, w, err, code)
		return
	}

	h.logger.DebugContext(ctx, "code resolved",
		"request_id", httpx.GetRequestID(ctx),
		"code", code,
		"referer", r.Referer(),
	)

	http.Redirect(w, r, longURL, http.StatusFound)
}

// Stats handles GET /api/links/{code}. It never counts a click.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := r.PathValue("code")

	link, err := h.service.Stats(ctx, code)
	if err != nil {
		kind := errx.KindOf(err)
		if kind == errx.NotFound {
			httpx.WriteError(w, http.StatusNotFound, "Short code not found")
			return
		}
		h.logger.ErrorContext(ctx, "stats lookup failed",
			"request_id", httpx.GetRequestID(ctx),
			"code", code,
			"error", err.Error(),
			"error_kind", kind,
			"operation", errx.OpOf(err),
		)
		httpx.WriteError(w, httpx.ErrorKindToStatus(kind), internalErrorMessage)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, LinkResponse{
		ShortCode: link.ShortCode,
		ShortURL:  h.origin(r) + "/" + link.ShortCode,
		LongURL:   link.LongURL,
		CreatedAt: link.CreatedAt.UTC().Format(time.RFC3339Nano),
		Clicks:    link.Clicks,
	})
}

// target resolves code for a redirect. Only GET counts a click; HEAD is a
// read-only lookup.
func (h *Handler) target(ctx context.Context, method, code string) (string, error) {
	if method != http.MethodHead {
		return h.service.Resolve(ctx, code)
	}
	link, err := h.service.Stats(ctx, code)
	if err != nil {
		return "", err
	}
	return link.LongURL, nil
}

func (h *Handler) origin(r *http.Request) string {
	if h.baseURL != "" {
		return h.baseURL
	}
	return httpx.RequestOrigin(r)
}

func (h *Handler) handleShortenError(ctx context.Context, logger *slog.Logger, w http.ResponseWriter, err error) {
	kind := errx.KindOf(err)

	logAttrs := []any{
		"error", err.Error(),
		"error_kind", kind,
		"operation", errx.OpOf(err),
	}

	switch kind {
	case errx.Invalid, errx.Conflict:
		logger.WarnContext(ctx, "shorten request rejected", logAttrs...)
		httpx.WriteError(w, httpx.ErrorKindToStatus(kind), clientMessage(err))

	case errx.Exhausted:
		logger.ErrorContext(ctx, "short code allocation exhausted", logAttrs...)
		httpx.WriteError(w, http.StatusInternalServerError, internalErrorMessage)

	default:
		logger.ErrorContext(ctx, "unexpected error creating link", logAttrs...)
		httpx.WriteError(w, http.StatusInternalServerError, internalErrorMessage)
	}
}

func (h *Handler) handleResolveError(ctx context.Context, w http.ResponseWriter, err error, code string) {
	kind := errx.KindOf(err)

	if kind == errx.NotFound {
		h.logger.DebugContext(ctx, "code not found", "code", code)
		httpx.WriteHTML(w, http.StatusNotFound, h.notFoundPage)
		return
	}

	h.logger.ErrorContext(ctx, "unexpected error resolving link",
		"request_id", httpx.GetRequestID(ctx),
		"code", code,
		"error", err.Error(),
		"error_kind", kind,
		"operation", errx.OpOf(err),
	)
	httpx.WriteError(w, http.StatusInternalServerError, internalErrorMessage)
}

// clientMessage returns the reason attached to a validation failure, never
// the wrapped error chain.
func clientMessage(err error) string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Reason
	}
	return "Invalid request"
}
