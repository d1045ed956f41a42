// Package api assembles the API module: domain systems, the summarization
// engine, and route registration.
package api

import (
	"net/http"

	"github.com/precislabs/precis/internal/config"
	"github.com/precislabs/precis/internal/infrastructure"
	"github.com/precislabs/precis/pkg/middleware"
	"github.com/precislabs/precis/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
// The returned Domain carries the engine so the server can bind it to the
// lifecycle coordinator.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, *Domain, error) {
	runtime := NewRuntime(cfg, infra)

	domain, err := NewDomain(cfg, runtime)
	if err != nil {
		return nil, nil, err
	}

	mux := http.NewServeMux()
	registerRoutes(mux, domain, runtime)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))

	return m, domain, nil
}
