package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/custodia-app/custodia/internal/logging"
	"github.com/custodia-app/custodia/internal/service"
	"github.com/custodia-app/custodia/internal/visitation"
)

// EventHandler handles visitation event endpoints
type EventHandler struct {
	*BaseHandler
	events *service.EventService
	logger zerolog.Logger
}

// NewEventHandler creates a new visitation event handler
func NewEventHandler(baseHandler *BaseHandler, events *service.EventService) *EventHandler {
	return &EventHandler{
		BaseHandler: baseHandler,
		events:      events,
		logger:      logging.GetLogger("event-handler"),
	}
}

// RegisterRoutes registers visitation event related routes
func (h *EventHandler) RegisterRoutes() {
	http.HandleFunc("POST /api/events", h.handleCreate)
	http.HandleFunc("GET /api/events", h.handleList)
	http.HandleFunc("PATCH /api/events/{id}", h.handleUpdate)
	http.HandleFunc("DELETE /api/events/{id}", h.handleDelete)
}

// EventRequest is the JSON body for creating or rewriting an event. Updates
// replace the whole event; fields left out of the body fall back to their
// zero values, not to the stored ones.
type EventRequest struct {
	FamilyID         uuid.UUID              `json:"family_id"`
	ChildID          uuid.UUID              `json:"child_id"`
	ParentID         uuid.UUID              `json:"parent_id"`
	Start            string                 `json:"start"`
	End              string                 `json:"end"`
	Recurrence       *visitation.Recurrence `json:"recurrence,omitempty"`
	HolidayException bool                   `json:"holiday_exception"`
	Notes            string                 `json:"notes"`
}

func (req EventRequest) params() service.EventParams {
	return service.EventParams{
		FamilyID:         req.FamilyID,
		ChildID:          req.ChildID,
		ParentID:         req.ParentID,
		Start:            req.Start,
		End:              req.End,
		Recurrence:       req.Recurrence,
		HolidayException: req.HolidayException,
		Notes:            req.Notes,
	}
}

// EventResponse is the JSON shape of a stored event.
type EventResponse struct {
	ID               uuid.UUID              `json:"id"`
	FamilyID         uuid.UUID              `json:"family_id"`
	ChildID          uuid.UUID              `json:"child_id"`
	ParentID         uuid.UUID              `json:"parent_id"`
	Start            string                 `json:"start"`
	End              string                 `json:"end"`
	Recurring        bool                   `json:"recurring"`
	Recurrence       *visitation.Recurrence `json:"recurrence,omitempty"`
	HolidayException bool                   `json:"holiday_exception"`
	Notes            string                 `json:"notes,omitempty"`
	CreatedAt        string                 `json:"created_at"`
	UpdatedAt        string                 `json:"updated_at"`
}

func toEventResponse(ev visitation.Event) EventResponse {
	return EventResponse{
		ID:               ev.ID,
		FamilyID:         ev.FamilyID,
		ChildID:          ev.ChildID,
		ParentID:         ev.ParentID,
		Start:            ev.Start.UTC().Format(timeFormat),
		End:              ev.End.UTC().Format(timeFormat),
		Recurring:        ev.Recurring,
		Recurrence:       ev.Recurrence,
		HolidayException: ev.HolidayException,
		Notes:            ev.Notes,
		CreatedAt:        ev.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt:        ev.UpdatedAt.UTC().Format(timeFormat),
	}
}

func (h *EventHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	handlerLogger := h.logger.With().Str("handler", "handleCreate").Logger()

	caller, ok := h.RequireCaller(w, r, handlerLogger)
	if !ok {
		return
	}

	var req EventRequest
	if !h.DecodeBody(w, r, handlerLogger, &req) {
		return
	}

	ev, err := h.events.Create(r.Context(), caller.ID, req.params())
	if err != nil {
		h.RespondError(w, handlerLogger, err)
		return
	}

	h.RespondJSON(w, http.StatusCreated, toEventResponse(*ev))
}

func (h *EventHandler) handleList(w http.ResponseWriter, r *http.Request) {
	handlerLogger := h.logger.With().Str("handler", "handleList").Logger()

	caller, ok := h.RequireCaller(w, r, handlerLogger)
	if !ok {
		return
	}

	var childID *uuid.UUID
	if raw := r.URL.Query().Get("child_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			handlerLogger.Warn().Str("child_id", raw).Msg("Malformed child_id parameter")
			writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "malformed child_id")
			return
		}
		childID = &parsed
	}

	events, err := h.events.ListEvents(r.Context(), caller.ID,
		r.URL.Query().Get("start"), r.URL.Query().Get("end"), childID)
	if err != nil {
		h.RespondError(w, handlerLogger, err)
		return
	}

	resp := make([]EventResponse, 0, len(events))
	for _, ev := range events {
		resp = append(resp, toEventResponse(ev))
	}
	h.RespondJSON(w, http.StatusOK, resp)
}

func (h *EventHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	handlerLogger := h.logger.With().Str("handler", "handleUpdate").Logger()

	caller, ok := h.RequireCaller(w, r, handlerLogger)
	if !ok {
		return
	}

	eventID, ok := h.pathID(w, r, handlerLogger)
	if !ok {
		return
	}

	var req EventRequest
	if !h.DecodeBody(w, r, handlerLogger, &req) {
		return
	}

	ev, err := h.events.Update(r.Context(), caller.ID, eventID, req.params())
	if err != nil {
		h.RespondError(w, handlerLogger, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, toEventResponse(*ev))
}

func (h *EventHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	handlerLogger := h.logger.With().Str("handler", "handleDelete").Logger()

	caller, ok := h.RequireCaller(w, r, handlerLogger)
	if !ok {
		return
	}

	eventID, ok := h.pathID(w, r, handlerLogger)
	if !ok {
		return
	}

	if err := h.events.Delete(r.Context(), caller.ID, eventID); err != nil {
		h.RespondError(w, handlerLogger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
