package server

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/mugiliam/hatchreposrv/internal/buildcache"
	"github.com/mugiliam/hatchreposrv/internal/config"
	"github.com/mugiliam/hatchreposrv/internal/db"
	"github.com/mugiliam/hatchreposrv/internal/db/memory"
	"github.com/mugiliam/hatchreposrv/internal/db/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

const testBlobBaseURL = "https://blobs.example.com/repository-data"

type testServer struct {
	*HatchRepoServer
	store db.Store
	redis *miniredis.Miniredis
}

func newTestServer(t *testing.T, devMode bool) *testServer {
	t.Helper()

	cfg := &config.ServerConfig{
		ListenAddr:      ":0",
		DataPath:        t.TempDir(),
		DevelopmentMode: devMode,
		BlobBaseURL:     testBlobBaseURL,
		Storage:         "memory",
	}

	store := memory.New()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	s, err := CreateNewServer(cfg, store, buildcache.NewTracker(rdb))
	assert.NoError(t, err, "create new server")
	s.MountHandlers()

	return &testServer{HatchRepoServer: s, store: store, redis: mr}
}

func (ts *testServer) execute(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	ts.Router.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) seedAuthority(t *testing.T, username, password string, prefixes []string) {
	t.Helper()
	sum := sha256.Sum256([]byte(password))
	err := ts.store.PutPublishAuthority(context.Background(), &models.PublishAuthority{
		Username:  username,
		KeyDigest: base64.StdEncoding.EncodeToString(sum[:]),
		Authority: prefixes,
	})
	assert.NoError(t, err)
}

func putRequest(path, body, username, password string) *http.Request {
	req := httptest.NewRequest(http.MethodPut, path, strings.NewReader(body))
	if username != "" {
		req.SetBasicAuth(username, password)
	}
	return req
}
