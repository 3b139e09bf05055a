package moderation

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/gatehouse-io/gatehouse/pkg/handlers"
	"github.com/gatehouse-io/gatehouse/pkg/routes"
)

// Handler exposes the verdict ingestion endpoint for external classifiers.
// Delivery is at-least-once: replays and out-of-order posts are absorbed.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given engine and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "moderation"),
	}
}

// Routes returns the route group definition for verdict ingestion.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/verdicts",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Record},
		},
	}
}

// Record ingests one verdict delivery. Missing produced_at and nonce values
// are stamped on arrival.
func (h *Handler) Record(w http.ResponseWriter, r *http.Request) {
	var v Verdict
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	if v.ProducedAt.IsZero() {
		v.ProducedAt = time.Now()
	}
	if v.Nonce == uuid.Nil {
		v.Nonce = uuid.New()
	}

	if err := h.sys.Record(r.Context(), v); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusAccepted, map[string]string{
		"submission_id": v.SubmissionID.String(),
		"modality":      string(v.Modality),
	})
}
