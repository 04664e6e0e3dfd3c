package auth

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mugiliam/hatchreposrv/internal/common"
	"github.com/mugiliam/hatchreposrv/internal/db"
	"github.com/mugiliam/hatchreposrv/internal/db/memory"
	"github.com/mugiliam/hatchreposrv/internal/db/models"
	"github.com/stretchr/testify/assert"
)

func digestOf(password string) string {
	sum := sha256.Sum256([]byte(password))
	return base64.StdEncoding.EncodeToString(sum[:])
}

func storeWithUser(t *testing.T, username, password string, authority []string) db.Store {
	t.Helper()
	s := memory.New()
	err := s.PutPublishAuthority(context.Background(), &models.PublishAuthority{
		Username:  username,
		KeyDigest: digestOf(password),
		Authority: authority,
	})
	assert.NoError(t, err)
	return s
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	s := storeWithUser(t, "ci-bot", "hunter2", []string{"/public/com/example/"})
	g := NewGate(s)

	p := g.Authenticate(ctx, "ci-bot", "hunter2")
	assert.NotNil(t, p)
	assert.Equal(t, "ci-bot", p.Username)
	assert.Equal(t, []string{"/public/com/example/"}, p.Authority)

	assert.Nil(t, g.Authenticate(ctx, "ci-bot", "wrong"))
	assert.Nil(t, g.Authenticate(ctx, "nobody", "hunter2"))
}

func TestAuthenticateBadStoredDigest(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	err := s.PutPublishAuthority(ctx, &models.PublishAuthority{
		Username:  "ci-bot",
		KeyDigest: "not base64!!",
	})
	assert.NoError(t, err)

	g := NewGate(s)
	assert.Nil(t, g.Authenticate(ctx, "ci-bot", "anything"))
}

func TestPermitted(t *testing.T) {
	p := &common.PublishPrincipal{
		Username:  "ci-bot",
		Authority: []string{"/public/com/example/", "/tools/"},
	}
	assert.True(t, Permitted(p, "/public/com/example/lib/1.0/lib-1.0.jar"))
	assert.True(t, Permitted(p, "/tools/com/other/tool.jar"))
	assert.False(t, Permitted(p, "/public/org/other/lib.jar"))
	assert.False(t, Permitted(p, "/native/com/example/lib.so"))
	assert.False(t, Permitted(nil, "/public/com/example/lib.jar"))
}

func TestRequirePublish(t *testing.T) {
	s := storeWithUser(t, "ci-bot", "hunter2", []string{"/public/"})
	g := NewGate(s)

	var principal *common.PublishPrincipal
	handler := g.RequirePublish(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal = common.PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// No credentials at all gets the 401 challenge.
	req := httptest.NewRequest(http.MethodPut, "/public/a", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Header().Get("WWW-Authenticate"), Realm)
	assert.Nil(t, principal)

	// Wrong password is forbidden, not challenged again.
	req = httptest.NewRequest(http.MethodPut, "/public/a", nil)
	req.SetBasicAuth("ci-bot", "wrong")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Nil(t, principal)

	// Valid credentials put the principal on the context.
	req = httptest.NewRequest(http.MethodPut, "/public/a", nil)
	req.SetBasicAuth("ci-bot", "hunter2")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotNil(t, principal)
	assert.Equal(t, "ci-bot", principal.Username)
}
