package middleware

import (
	"net/http"
	"strings"

	"github.com/mugiliam/hatchreposrv/internal/httpx"
	"github.com/rs/zerolog/log"
)

// ValidatePath rejects any request whose path contains a parent-directory
// traversal segment before any other processing. Applied to all bucket
// routes, reads included.
func ValidatePath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "..") {
			log.Ctx(r.Context()).Warn().Str("path", r.URL.Path).Msg("rejected path traversal attempt")
			httpx.ErrForbidden().Send(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}
