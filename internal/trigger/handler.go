package trigger

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/precislabs/precis/pkg/handlers"
	"github.com/precislabs/precis/pkg/routes"
)

// UploadEvent is the ingress payload for a document upload notification,
// as forwarded by the storage account's event subscription.
type UploadEvent struct {
	ProgramID string `json:"program_id"`
	BlobName  string `json:"blob_name"`
}

// Handler exposes the upload notification ingress endpoint.
type Handler struct {
	listener *Listener
	logger   *slog.Logger
}

// NewHandler creates a Handler over the given listener.
func NewHandler(listener *Listener, logger *slog.Logger) *Handler {
	return &Handler{
		listener: listener,
		logger:   logger.With("handler", "events"),
	}
}

// Routes returns the route group definition for event ingress.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/events",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/document-uploaded", Handler: h.DocumentUploaded},
		},
	}
}

// DocumentUploaded accepts an upload notification and schedules
// summarization. Responds 202 whether the event started new work or was a
// redundant delivery; the notifier cannot distinguish the two and retries
// anything else.
func (h *Handler) DocumentUploaded(w http.ResponseWriter, r *http.Request) {
	var event UploadEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("invalid event payload: %w", err))
		return
	}

	if event.ProgramID == "" || event.BlobName == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("program_id and blob_name are required"))
		return
	}

	if err := h.listener.OnDocumentUploaded(r.Context(), event.ProgramID, event.BlobName); err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}
