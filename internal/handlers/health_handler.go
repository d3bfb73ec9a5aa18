package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/custodia-app/custodia/internal/database"
	"github.com/custodia-app/custodia/internal/logging"
)

// HealthHandler reports service liveness
type HealthHandler struct {
	*BaseHandler
	db      *database.DB
	webhook *WebhookHandler
	logger  zerolog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(baseHandler *BaseHandler, db *database.DB, webhook *WebhookHandler) *HealthHandler {
	return &HealthHandler{
		BaseHandler: baseHandler,
		db:          db,
		webhook:     webhook,
		logger:      logging.GetLogger("health"),
	}
}

// RegisterRoutes registers health related routes
func (h *HealthHandler) RegisterRoutes() {
	http.HandleFunc("GET /health", h.handleHealth)
}

// HealthResponse is the health endpoint body.
type HealthResponse struct {
	Status   string       `json:"status"`
	Webhooks WebhookStats `json:"webhooks"`
}

func (h *HealthHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Conn().PingContext(r.Context()); err != nil {
		h.logger.Error().Err(err).Msg("Database ping failed")
		h.RespondJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:   "degraded",
			Webhooks: h.webhook.Stats(),
		})
		return
	}

	h.RespondJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Webhooks: h.webhook.Stats(),
	})
}
