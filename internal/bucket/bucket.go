// Package bucket implements the ingress for repository namespaces: PUT
// persists uploaded bytes under the repository root and dispatches
// descriptor cataloging; GET serves bytes locally in development and
// redirects to the external blob store otherwise.
package bucket

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mugiliam/hatchreposrv/internal/auth"
	"github.com/mugiliam/hatchreposrv/internal/buildcache"
	"github.com/mugiliam/hatchreposrv/internal/catalog"
	"github.com/mugiliam/hatchreposrv/internal/common"
	"github.com/mugiliam/hatchreposrv/internal/httpx"
	"github.com/mugiliam/hatchreposrv/internal/metrics"
	itypes "github.com/mugiliam/hatchreposrv/internal/types"
	"github.com/rs/zerolog/log"
)

// Handler serves one repository namespace rooted at a directory.
type Handler struct {
	Repo        itypes.RepositoryName
	Root        string // absolute directory backing this repository
	Writer      *catalog.Writer
	Tracker     *buildcache.Tracker
	DevMode     bool
	BlobBaseURL string
}

func NewHandler(repo itypes.RepositoryName, root string, writer *catalog.Writer, tracker *buildcache.Tracker, devMode bool, blobBaseURL string) *Handler {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	return &Handler{
		Repo:        repo,
		Root:        abs,
		Writer:      writer,
		Tracker:     tracker,
		DevMode:     devMode,
		BlobBaseURL: blobBaseURL,
	}
}

// resolve joins the request-relative path onto the repository root and
// verifies the result is still contained in it. This is a second safety
// net beyond the ".." middleware; a containment failure is Forbidden.
func (h *Handler) resolve(rel string) (string, bool) {
	target, err := filepath.Abs(filepath.Join(h.Root, filepath.FromSlash(rel)))
	if err != nil {
		return "", false
	}
	if target != h.Root && !strings.HasPrefix(target, h.Root+string(filepath.Separator)) {
		return "", false
	}
	return target, true
}

// Upload handles PUT. Order matters: authorization and path safety are
// checked before any filesystem or catalog mutation.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	principal := common.PrincipalFromContext(ctx)
	if principal == nil {
		httpx.ErrForbidden().Send(w)
		return
	}
	if !auth.Permitted(principal, r.URL.Path) {
		log.Ctx(ctx).Warn().
			Str("username", principal.Username).
			Str("path", r.URL.Path).
			Msg("path not covered by publish authority")
		httpx.ErrForbidden().Send(w)
		metrics.Uploads.WithLabelValues(h.Repo.String(), strconv.Itoa(http.StatusForbidden)).Inc()
		return
	}

	rel := chi.URLParam(r, "*")
	target, ok := h.resolve(rel)
	if !ok {
		log.Ctx(ctx).Warn().Str("path", r.URL.Path).Msg("resolved path escapes repository root")
		httpx.ErrForbidden().Send(w)
		metrics.Uploads.WithLabelValues(h.Repo.String(), strconv.Itoa(http.StatusForbidden)).Inc()
		return
	}

	updating := false
	if _, err := os.Stat(target); err == nil {
		updating = true
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("path", target).Msg("failed to create parent directories")
		httpx.ErrApplicationError().Send(w)
		return
	}
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("path", target).Msg("failed to open target file")
		httpx.ErrApplicationError().Send(w)
		return
	}
	_, err = io.Copy(f, r.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("path", target).Msg("failed to persist upload")
		httpx.ErrApplicationError().Send(w)
		return
	}

	status := http.StatusCreated
	if updating {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	metrics.Uploads.WithLabelValues(h.Repo.String(), strconv.Itoa(status)).Inc()

	// The upload has already been acknowledged; everything below is best
	// effort and must never surface to the client.
	if h.Repo.IsMavenRepository() {
		if catalog.IsDescriptor(rel) {
			h.catalogDescriptor(r, rel, target)
		}
	} else {
		h.Tracker.Touch(ctx, rel, time.Now())
	}
}

func (h *Handler) catalogDescriptor(r *http.Request, rel, target string) {
	ctx := r.Context()

	f, err := os.Open(target)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("path", target).Msg("failed to reopen descriptor")
		return
	}
	defer f.Close()

	var events []catalog.Event
	if path.Base(rel) == catalog.VersionIndexFilename {
		events, err = catalog.ParseVersionIndex(f)
	} else {
		var event *catalog.Event
		event, err = catalog.ParseProjectDescriptor(f)
		if event != nil {
			events = []catalog.Event{*event}
		}
	}
	if err != nil {
		if errors.Is(err, catalog.ErrIncompleteDescriptor) {
			log.Ctx(ctx).Warn().Err(err).Str("path", rel).Msg("descriptor incomplete, cataloging skipped")
			metrics.DescriptorSkips.Inc()
			return
		}
		log.Ctx(ctx).Error().Err(err).Str("path", rel).Msg("failed to parse descriptor")
		return
	}

	if err := h.Writer.Apply(ctx, h.Repo, events); err != nil {
		metrics.CatalogFailures.Inc()
		return
	}
	metrics.CatalogEvents.Add(float64(len(events)))
}

// Serve handles GET. Development deployments serve local bytes; everything
// else delegates byte serving to the blob store via redirect.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	if !h.DevMode {
		http.Redirect(w, r, h.BlobBaseURL+r.URL.Path, http.StatusFound)
		return
	}

	rel := chi.URLParam(r, "*")
	target, ok := h.resolve(rel)
	if !ok {
		httpx.ErrForbidden().Send(w)
		return
	}
	info, err := os.Stat(target)
	if err != nil || info.IsDir() {
		httpx.ErrNotFound().Send(w)
		return
	}
	http.ServeFile(w, r, target)
}
