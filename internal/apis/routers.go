// Package apis exposes the read-only catalog query endpoints. These are
// projections over the catalog store; they never mutate it.
package apis

import (
	"github.com/go-chi/chi/v5"
	"github.com/mugiliam/hatchreposrv/internal/db"
)

type specApi struct {
	store db.Store
}

// Router mounts the catalog query endpoints on r.
func Router(r chi.Router, store db.Store) {
	api := &specApi{store: store}
	r.Get("/spec", api.listSpecRefs)
	r.Get("/spec/{fullSpec}", api.getSpecRef)
	r.Get("/head/{repo}", api.listHeadRefs)
}
