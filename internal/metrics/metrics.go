// Package metrics holds the service's prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Uploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reposrv_uploads_total",
		Help: "Bucket uploads by repository and response status.",
	}, []string{"repository", "status"})

	CatalogEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reposrv_catalog_events_total",
		Help: "Cataloging events applied to the catalog store.",
	})

	CatalogFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reposrv_catalog_failures_total",
		Help: "Catalog transactions rolled back after a persisted upload.",
	})

	DescriptorSkips = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reposrv_descriptor_skips_total",
		Help: "Uploaded descriptors skipped for missing required fields.",
	})
)
