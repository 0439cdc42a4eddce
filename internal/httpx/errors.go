package httpx

import (
	"net/http"

	"github.com/sundayezeilo/shorty/internal/errx"
)

// ErrorKindToStatus maps errx.Kind to HTTP status codes.
// Conflicts are client input errors here: a taken custom code is answered with 400.
func ErrorKindToStatus(kind errx.Kind) int {
	switch kind {
	case errx.NotFound:
		return http.StatusNotFound
	case errx.Invalid, errx.Conflict:
		return http.StatusBadRequest
	case errx.Exhausted, errx.Unavailable, errx.Internal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
