package api

import (
	"net/http"

	"github.com/gatehouse-io/gatehouse/internal/config"
	"github.com/gatehouse-io/gatehouse/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) {
	media := newMediaHandler(
		runtime.Storage,
		runtime.Logger,
		cfg.API.MaxUploadSizeBytes(),
	)

	routes.Register(
		mux,
		domain.Submissions.Handler().Routes(),
		domain.Dispositions.Handler().Routes(),
		moderationRoutes(domain, runtime),
		media.routes(),
	)
}
