package history

import (
	"log/slog"
	"net/http"

	"github.com/precislabs/precis/pkg/handlers"
	"github.com/precislabs/precis/pkg/routes"
)

// Handler exposes read-only instance inspection endpoints for operators.
// Permanently failed instances have no alerting path; this surface is how
// their recorded attempt history gets examined.
type Handler struct {
	store  Store
	logger *slog.Logger
}

// NewHandler creates a Handler over the given store.
func NewHandler(store Store, logger *slog.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: logger.With("handler", "instances"),
	}
}

// Routes returns the route group definition for instance endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/instances",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
		},
	}
}

// InstanceView is an instance with its ordered history.
type InstanceView struct {
	Instance
	History []Event `json:"history"`
}

// Find returns an instance and its full history by id.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	inst, err := h.store.Instance(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	events, err := h.store.Load(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, InstanceView{
		Instance: *inst,
		History:  events,
	})
}
