package server

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/mugiliam/hatchreposrv/internal/apis"
	"github.com/mugiliam/hatchreposrv/internal/auth"
	"github.com/mugiliam/hatchreposrv/internal/bucket"
	"github.com/mugiliam/hatchreposrv/internal/buildcache"
	"github.com/mugiliam/hatchreposrv/internal/catalog"
	"github.com/mugiliam/hatchreposrv/internal/config"
	"github.com/mugiliam/hatchreposrv/internal/db"
	"github.com/mugiliam/hatchreposrv/internal/httpx"
	"github.com/mugiliam/hatchreposrv/internal/server/middleware"
	itypes "github.com/mugiliam/hatchreposrv/internal/types"
	"github.com/mugiliam/hatchreposrv/pkg/api"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type HatchRepoServer struct {
	Router  *chi.Mux
	store   db.Store
	tracker *buildcache.Tracker
	cfg     *config.ServerConfig
}

func CreateNewServer(cfg *config.ServerConfig, store db.Store, tracker *buildcache.Tracker) (*HatchRepoServer, error) {
	if store == nil {
		return nil, fmt.Errorf("server requires a catalog store")
	}
	s := &HatchRepoServer{
		Router:  chi.NewRouter(),
		store:   store,
		tracker: tracker,
		cfg:     cfg,
	}
	return s, nil
}

func (s *HatchRepoServer) MountHandlers() {
	s.Router.Use(middleware.RequestLogger)
	if s.cfg.HandleCORS {
		s.Router.Use(s.HandleCORS)
	}
	s.Router.Handle("/metrics", promhttp.Handler())
	s.Router.Get("/version", s.getVersion)

	apis.Router(s.Router, s.store)

	gate := auth.NewGate(s.store)
	writer := catalog.NewWriter(s.store)
	for _, repo := range itypes.AllRepositories {
		s.mountBucket(repo, gate, writer)
	}
}

func (s *HatchRepoServer) mountBucket(repo itypes.RepositoryName, gate *auth.Gate, writer *catalog.Writer) {
	h := bucket.NewHandler(
		repo,
		filepath.Join(s.cfg.DataPath, repo.String()),
		writer,
		s.tracker,
		s.cfg.DevelopmentMode,
		s.cfg.BlobBaseURL,
	)
	s.Router.Route("/"+repo.String(), func(r chi.Router) {
		r.Use(middleware.ValidatePath)
		r.Get("/*", h.Serve)
		r.With(gate.RequirePublish).Put("/*", h.Upload)
	})
}

func (s *HatchRepoServer) getVersion(w http.ResponseWriter, r *http.Request) {
	log.Ctx(r.Context()).Debug().Msg("GetVersion")
	rsp := &api.GetVersionRsp{
		ServerVersion: "RepoSrv: 1.0.0",
		ApiVersion:    api.ApiVersion_1_0,
	}
	httpx.SendJsonRsp(r.Context(), w, http.StatusOK, rsp)
}

func (s *HatchRepoServer) HandleCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Set CORS headers
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization")

		// Check if the request method is OPTIONS
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
