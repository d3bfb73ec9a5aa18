package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/custodia-app/custodia/internal/logging"
	"github.com/custodia-app/custodia/internal/service"
)

// SettingsHandler manages the service-wide calendar window setting
type SettingsHandler struct {
	*BaseHandler
	settings service.SettingsStoreInterface
	logger   zerolog.Logger
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(baseHandler *BaseHandler, settings service.SettingsStoreInterface) *SettingsHandler {
	return &SettingsHandler{
		BaseHandler: baseHandler,
		settings:    settings,
		logger:      logging.GetLogger("settings-handler"),
	}
}

// RegisterRoutes registers settings related routes
func (h *SettingsHandler) RegisterRoutes() {
	http.HandleFunc("GET /api/settings/window", h.handleGetWindow)
	http.HandleFunc("PUT /api/settings/window", h.handleUpdateWindow)
}

// CalendarWindowSettings is the default merged-calendar window, in whole
// months around the center date.
type CalendarWindowSettings struct {
	MonthsBack    int `json:"months_back"`
	MonthsForward int `json:"months_forward"`
}

func (h *SettingsHandler) handleGetWindow(w http.ResponseWriter, r *http.Request) {
	handlerLogger := h.logger.With().Str("handler", "handleGetWindow").Logger()

	if _, ok := h.RequireCaller(w, r, handlerLogger); !ok {
		return
	}

	back, forward, err := h.settings.GetCalendarWindow(r.Context())
	if err != nil {
		handlerLogger.Error().Err(err).Msg("Failed to load calendar window setting")
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to load settings")
		return
	}

	h.RespondJSON(w, http.StatusOK, CalendarWindowSettings{MonthsBack: back, MonthsForward: forward})
}

func (h *SettingsHandler) handleUpdateWindow(w http.ResponseWriter, r *http.Request) {
	handlerLogger := h.logger.With().Str("handler", "handleUpdateWindow").Logger()

	if _, ok := h.RequireCaller(w, r, handlerLogger); !ok {
		return
	}

	var req CalendarWindowSettings
	if !h.DecodeBody(w, r, handlerLogger, &req) {
		return
	}
	if req.MonthsBack < 0 {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "months_back cannot be negative")
		return
	}
	if req.MonthsForward < 1 {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "months_forward must be at least 1")
		return
	}

	if err := h.settings.SetCalendarWindow(r.Context(), req.MonthsBack, req.MonthsForward); err != nil {
		handlerLogger.Error().Err(err).Msg("Failed to save calendar window setting")
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to save settings")
		return
	}

	handlerLogger.Info().
		Int("months_back", req.MonthsBack).
		Int("months_forward", req.MonthsForward).
		Msg("Calendar window setting updated")
	h.RespondJSON(w, http.StatusOK, req)
}
