package apis

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/mugiliam/hatchreposrv/internal/db"
	"github.com/mugiliam/hatchreposrv/internal/db/models"
	"github.com/mugiliam/hatchreposrv/internal/httpx"
	itypes "github.com/mugiliam/hatchreposrv/internal/types"
	"github.com/rs/zerolog/log"
)

// listing responses are safe to cache for a day; the catalog only moves on
// new publishes.
const cacheControl = "public, max-age=86400"

type specRefRsp struct {
	GroupID              string                  `json:"groupId"`
	ArtifactID           string                  `json:"artifactId"`
	Version              string                  `json:"version"`
	Repository           string                  `json:"repository"`
	LatestVersion        *string                 `json:"latestVersion"`
	LatestReleaseVersion *string                 `json:"latestReleaseVersion"`
	IsPlugin             bool                    `json:"isPlugin"`
	Metadata             models.ArtifactMetadata `json:"metadata"`
}

type headRefRsp struct {
	GroupID              string                  `json:"groupId"`
	ArtifactID           string                  `json:"artifactId"`
	Repository           string                  `json:"repository"`
	LatestVersion        *string                 `json:"latestVersion"`
	LatestReleaseVersion *string                 `json:"latestReleaseVersion"`
	IsPlugin             bool                    `json:"isPlugin"`
	Metadata             models.ArtifactMetadata `json:"metadata"`
}

func toSpecRefRsp(ref *models.SpecRef) specRefRsp {
	return specRefRsp{
		GroupID:              ref.GroupID,
		ArtifactID:           ref.ArtifactID,
		Version:              ref.Version,
		Repository:           ref.Repository.String(),
		LatestVersion:        ref.LatestVersion.Ptr(),
		LatestReleaseVersion: ref.LatestReleaseVersion.Ptr(),
		IsPlugin:             ref.IsPlugin,
		Metadata:             ref.Metadata,
	}
}

func toHeadRefRsp(ref *models.HeadRef) headRefRsp {
	return headRefRsp{
		GroupID:              ref.GroupID,
		ArtifactID:           ref.ArtifactID,
		Repository:           ref.Repository.String(),
		LatestVersion:        ref.LatestVersion.Ptr(),
		LatestReleaseVersion: ref.LatestReleaseVersion.Ptr(),
		IsPlugin:             ref.IsPlugin,
		Metadata:             ref.Metadata,
	}
}

func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 0 {
		return 0
	}
	return page
}

func (api *specApi) listSpecRefs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter := db.SpecRefFilter{
		Repository: itypes.RepositoryName(r.URL.Query().Get("repository")),
		GroupID:    r.URL.Query().Get("group_id"),
		ArtifactID: r.URL.Query().Get("artifact_id"),
	}
	refs, err := api.store.ListSpecRefs(ctx, filter, pageParam(r))
	if err != nil {
		httpx.SendError(ctx, w, err)
		return
	}

	rsp := make([]specRefRsp, 0, len(refs))
	for i := range refs {
		rsp = append(rsp, toSpecRefRsp(&refs[i]))
	}
	w.Header().Set("Cache-Control", cacheControl)
	httpx.SendJsonRsp(ctx, w, http.StatusOK, rsp)
}

// getSpecRef fetches one spec ref by its composite key
// groupId:artifactId:version, scoped by the repository query parameter.
func (api *specApi) getSpecRef(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	fullSpec := chi.URLParam(r, "fullSpec")
	parts := strings.Split(fullSpec, ":")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		httpx.ErrInvalidRequest("expected groupId:artifactId:version").Send(w)
		return
	}

	repo := r.URL.Query().Get("repository")
	if !itypes.ValidRepository(repo) {
		httpx.ErrInvalidRequest("unknown repository").Send(w)
		return
	}

	ref, err := api.store.GetSpecRef(ctx, itypes.RepositoryName(repo), parts[0], parts[1], parts[2])
	if err != nil {
		log.Ctx(ctx).Debug().Str("full_spec", fullSpec).Str("repository", repo).Msg("spec ref lookup failed")
		httpx.SendError(ctx, w, err)
		return
	}
	httpx.SendJsonRsp(ctx, w, http.StatusOK, toSpecRefRsp(ref))
}

func (api *specApi) listHeadRefs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	repo := chi.URLParam(r, "repo")
	if !itypes.ValidRepository(repo) {
		httpx.ErrInvalidRequest("unknown repository").Send(w)
		return
	}

	refs, err := api.store.ListHeadRefs(ctx, itypes.RepositoryName(repo), pageParam(r))
	if err != nil {
		httpx.SendError(ctx, w, err)
		return
	}

	rsp := make([]headRefRsp, 0, len(refs))
	for i := range refs {
		rsp = append(rsp, toHeadRefRsp(&refs[i]))
	}
	w.Header().Set("Cache-Control", cacheControl)
	httpx.SendJsonRsp(ctx, w, http.StatusOK, rsp)
}
