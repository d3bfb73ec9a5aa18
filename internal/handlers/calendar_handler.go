package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/custodia-app/custodia/internal/logging"
	"github.com/custodia-app/custodia/internal/service"
	"github.com/custodia-app/custodia/internal/viewhelpers"
)

// CalendarHandler serves the merged family calendar, as JSON and as an
// iCalendar feed.
type CalendarHandler struct {
	*BaseHandler
	calendar *service.CalendarService
	logger   zerolog.Logger
}

// NewCalendarHandler creates a new calendar handler
func NewCalendarHandler(baseHandler *BaseHandler, calendar *service.CalendarService) *CalendarHandler {
	return &CalendarHandler{
		BaseHandler: baseHandler,
		calendar:    calendar,
		logger:      logging.GetLogger("calendar-handler"),
	}
}

// RegisterRoutes registers calendar related routes
func (h *CalendarHandler) RegisterRoutes() {
	http.HandleFunc("GET /api/families/{id}/calendar", h.handleMergedCalendar)
	http.HandleFunc("GET /api/families/{id}/calendar.ics", h.handleICalFeed)
}

// CalendarResponse is the merged calendar, flat and grouped by day.
type CalendarResponse struct {
	FamilyID uuid.UUID                 `json:"family_id"`
	Entries  []service.CalendarEntry   `json:"entries"`
	Days     []viewhelpers.CalendarDay `json:"days"`
}

func (h *CalendarHandler) handleMergedCalendar(w http.ResponseWriter, r *http.Request) {
	handlerLogger := h.logger.With().Str("handler", "handleMergedCalendar").Logger()

	caller, ok := h.RequireCaller(w, r, handlerLogger)
	if !ok {
		return
	}

	familyID, ok := h.pathID(w, r, handlerLogger)
	if !ok {
		return
	}

	entries, err := h.calendar.MergedCalendar(r.Context(), caller.ID, familyID, r.URL.Query().Get("center"))
	if err != nil {
		h.RespondError(w, handlerLogger, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, CalendarResponse{
		FamilyID: familyID,
		Entries:  entries,
		Days:     viewhelpers.GroupEntriesByDay(entries),
	})
}

func (h *CalendarHandler) handleICalFeed(w http.ResponseWriter, r *http.Request) {
	handlerLogger := h.logger.With().Str("handler", "handleICalFeed").Logger()

	caller, ok := h.RequireCaller(w, r, handlerLogger)
	if !ok {
		return
	}

	familyID, ok := h.pathID(w, r, handlerLogger)
	if !ok {
		return
	}

	feed, err := h.calendar.ICalFeed(r.Context(), caller.ID, familyID)
	if err != nil {
		h.RespondError(w, handlerLogger, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="custody-calendar.ics"`)
	if _, err := w.Write([]byte(feed)); err != nil {
		handlerLogger.Error().Err(err).Msg("Failed to write iCal feed")
	}
}
