// Package auth implements the publish authorization gate: HTTP Basic
// credentials are checked against stored PublishAuthority records and, on
// success, a PublishPrincipal with the authority's path prefixes is placed
// on the request context. No principal ever reaches a handler for a failed
// authentication.
package auth

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/mugiliam/hatchreposrv/internal/common"
	"github.com/mugiliam/hatchreposrv/internal/db"
	"github.com/mugiliam/hatchreposrv/internal/httpx"
	"github.com/rs/zerolog/log"
)

// Realm is the HTTP Basic authentication realm for publishing.
const Realm = "hatchrepo.publishing"

type Gate struct {
	store db.Store
}

func NewGate(store db.Store) *Gate {
	return &Gate{store: store}
}

// Authenticate validates a credential pair. It returns the principal on
// success and nil on any failure: unknown identity, mismatched digest, or
// an undecodable stored digest. Failures are not errors; the caller must
// treat a nil principal as deny.
func (g *Gate) Authenticate(ctx context.Context, username, password string) *common.PublishPrincipal {
	authority, err := g.store.GetPublishAuthority(ctx, username)
	if err != nil {
		log.Ctx(ctx).Debug().Str("username", username).Msg("no publish authority for credentials")
		return nil
	}

	stored, err := base64.StdEncoding.DecodeString(authority.KeyDigest)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("username", username).Msg("stored key digest is not valid base64")
		return nil
	}

	digest := sha256.Sum256([]byte(password))
	if !bytes.Equal(stored, digest[:]) {
		log.Ctx(ctx).Debug().Str("username", username).Msg("key digest mismatch")
		return nil
	}

	return &common.PublishPrincipal{
		Username:  username,
		Authority: append([]string(nil), authority.Authority...),
	}
}

// Permitted reports whether the request path falls under one of the
// principal's authorized prefixes.
func Permitted(p *common.PublishPrincipal, path string) bool {
	if p == nil {
		return false
	}
	for _, prefix := range p.Authority {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// RequirePublish is middleware for routes that mutate bucket contents. A
// request without credentials gets a 401 challenge; bad credentials get
// 403. The principal is attached to the context before the next handler
// runs; prefix authorization stays with the handler, which knows the
// request path it is about to touch.
func (g *Gate) RequirePublish(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="`+Realm+`"`)
			httpx.ErrUnauthorized().Send(w)
			return
		}
		principal := g.Authenticate(r.Context(), username, password)
		if principal == nil {
			httpx.ErrForbidden().Send(w)
			return
		}
		ctx := common.SetPrincipalInContext(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
