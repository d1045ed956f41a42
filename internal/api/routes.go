package api

import (
	"net/http"

	"github.com/precislabs/precis/internal/history"
	"github.com/precislabs/precis/internal/trigger"
	"github.com/precislabs/precis/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	runtime *Runtime,
) {
	routes.Register(
		mux,
		domain.Programs.Handler().Routes(),
		trigger.NewHandler(domain.Listener, runtime.Logger).Routes(),
		history.NewHandler(domain.History, runtime.Logger).Routes(),
	)
}
