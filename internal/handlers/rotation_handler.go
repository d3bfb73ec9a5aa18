package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/custodia-app/custodia/internal/logging"
	"github.com/custodia-app/custodia/internal/rotation"
	"github.com/custodia-app/custodia/internal/service"
)

// RotationHandler handles custody rotation endpoints
type RotationHandler struct {
	*BaseHandler
	rotations *service.RotationService
	logger    zerolog.Logger
}

// NewRotationHandler creates a new rotation handler
func NewRotationHandler(baseHandler *BaseHandler, rotations *service.RotationService) *RotationHandler {
	return &RotationHandler{
		BaseHandler: baseHandler,
		rotations:   rotations,
		logger:      logging.GetLogger("rotation-handler"),
	}
}

// RegisterRoutes registers rotation related routes
func (h *RotationHandler) RegisterRoutes() {
	http.HandleFunc("POST /api/rotations", h.handleCreate)
	http.HandleFunc("GET /api/rotations", h.handleList)
	http.HandleFunc("GET /api/rotations/{id}/events", h.handleCalendarEvents)
	http.HandleFunc("DELETE /api/rotations/{id}", h.handleDelete)
}

// CreateRotationRequest is the JSON body for rotation creation.
type CreateRotationRequest struct {
	FamilyID          uuid.UUID `json:"family_id"`
	Name              string    `json:"name"`
	Pattern           string    `json:"pattern"`
	StartDate         string    `json:"start_date"`
	EndDate           *string   `json:"end_date,omitempty"`
	PrimaryParentID   uuid.UUID `json:"primary_parent_id"`
	SecondaryParentID uuid.UUID `json:"secondary_parent_id"`
}

// RotationResponse is the JSON shape of a stored rotation.
type RotationResponse struct {
	ID                  uuid.UUID `json:"id"`
	FamilyID            uuid.UUID `json:"family_id"`
	Name                string    `json:"name"`
	Pattern             string    `json:"pattern"`
	StartDate           string    `json:"start_date"`
	EndDate             *string   `json:"end_date,omitempty"`
	PrimaryParentID     uuid.UUID `json:"primary_parent_id"`
	PrimaryParentName   string    `json:"primary_parent_name,omitempty"`
	SecondaryParentID   uuid.UUID `json:"secondary_parent_id"`
	SecondaryParentName string    `json:"secondary_parent_name,omitempty"`
	Active              bool      `json:"active"`
	CreatedAt           string    `json:"created_at"`
}

func toRotationResponse(r rotation.Rotation) RotationResponse {
	resp := RotationResponse{
		ID:                  r.ID,
		FamilyID:            r.FamilyID,
		Name:                r.Name,
		Pattern:             string(r.Pattern),
		StartDate:           r.Start.String(),
		PrimaryParentID:     r.PrimaryParentID,
		PrimaryParentName:   r.PrimaryParentName,
		SecondaryParentID:   r.SecondaryParentID,
		SecondaryParentName: r.SecondaryParentName,
		Active:              r.Active,
		CreatedAt:           r.CreatedAt.UTC().Format(timeFormat),
	}
	if r.End != nil {
		end := r.End.String()
		resp.EndDate = &end
	}
	return resp
}

func (h *RotationHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	handlerLogger := h.logger.With().Str("handler", "handleCreate").Logger()

	caller, ok := h.RequireCaller(w, r, handlerLogger)
	if !ok {
		return
	}

	var req CreateRotationRequest
	if !h.DecodeBody(w, r, handlerLogger, &req) {
		return
	}

	rot, err := h.rotations.Create(r.Context(), caller.ID, service.CreateRotationParams{
		FamilyID:          req.FamilyID,
		Name:              req.Name,
		Pattern:           req.Pattern,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		PrimaryParentID:   req.PrimaryParentID,
		SecondaryParentID: req.SecondaryParentID,
	})
	if err != nil {
		h.RespondError(w, handlerLogger, err)
		return
	}

	h.RespondJSON(w, http.StatusCreated, toRotationResponse(*rot))
}

func (h *RotationHandler) handleList(w http.ResponseWriter, r *http.Request) {
	handlerLogger := h.logger.With().Str("handler", "handleList").Logger()

	caller, ok := h.RequireCaller(w, r, handlerLogger)
	if !ok {
		return
	}

	rotations, err := h.rotations.List(r.Context(), caller.ID)
	if err != nil {
		h.RespondError(w, handlerLogger, err)
		return
	}

	resp := make([]RotationResponse, 0, len(rotations))
	for _, rot := range rotations {
		resp = append(resp, toRotationResponse(rot))
	}
	h.RespondJSON(w, http.StatusOK, resp)
}

func (h *RotationHandler) handleCalendarEvents(w http.ResponseWriter, r *http.Request) {
	handlerLogger := h.logger.With().Str("handler", "handleCalendarEvents").Logger()

	caller, ok := h.RequireCaller(w, r, handlerLogger)
	if !ok {
		return
	}

	rotationID, ok := h.pathID(w, r, handlerLogger)
	if !ok {
		return
	}

	events, err := h.rotations.CalendarEvents(r.Context(), caller.ID, rotationID,
		r.URL.Query().Get("start"), r.URL.Query().Get("end"))
	if err != nil {
		h.RespondError(w, handlerLogger, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, events)
}

func (h *RotationHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	handlerLogger := h.logger.With().Str("handler", "handleDelete").Logger()

	caller, ok := h.RequireCaller(w, r, handlerLogger)
	if !ok {
		return
	}

	rotationID, ok := h.pathID(w, r, handlerLogger)
	if !ok {
		return
	}

	if err := h.rotations.Delete(r.Context(), caller.ID, rotationID); err != nil {
		h.RespondError(w, handlerLogger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
