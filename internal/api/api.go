// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"fmt"
	"net/http"

	"github.com/gatehouse-io/gatehouse/internal/config"
	"github.com/gatehouse-io/gatehouse/internal/infrastructure"
	"github.com/gatehouse-io/gatehouse/internal/moderation"
	"github.com/gatehouse-io/gatehouse/pkg/middleware"
	"github.com/gatehouse-io/gatehouse/pkg/module"
	"github.com/gatehouse-io/gatehouse/pkg/routes"
)

// NewModule creates the API module with all domain handlers and middleware.
// The moderation engine's sweeper is registered with the lifecycle coordinator
// so join timeouts resolve even when no verdicts arrive.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	if err := domain.Engine.Start(runtime.Lifecycle); err != nil {
		return nil, fmt.Errorf("start moderation engine: %w", err)
	}

	mux := http.NewServeMux()
	registerRoutes(mux, domain, cfg, runtime)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))

	return m, nil
}

func moderationRoutes(domain *Domain, runtime *Runtime) routes.Group {
	return moderation.NewHandler(domain.Engine, runtime.Logger).Routes()
}
