package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/custodia-app/custodia/internal/logging"
	"github.com/custodia-app/custodia/internal/service"
	"github.com/custodia-app/custodia/internal/visitation"
)

// SwapHandler handles swap request endpoints
type SwapHandler struct {
	*BaseHandler
	swaps  *service.SwapService
	logger zerolog.Logger
}

// NewSwapHandler creates a new swap request handler
func NewSwapHandler(baseHandler *BaseHandler, swaps *service.SwapService) *SwapHandler {
	return &SwapHandler{
		BaseHandler: baseHandler,
		swaps:       swaps,
		logger:      logging.GetLogger("swap-handler"),
	}
}

// RegisterRoutes registers swap request related routes
func (h *SwapHandler) RegisterRoutes() {
	http.HandleFunc("POST /api/swaps", h.handleCreate)
	http.HandleFunc("GET /api/swaps", h.handleList)
	http.HandleFunc("POST /api/swaps/{id}/approve", h.handleApprove)
	http.HandleFunc("POST /api/swaps/{id}/reject", h.handleReject)
}

// SwapRequestBody is the JSON body for proposing a swap.
type SwapRequestBody struct {
	EventID       uuid.UUID `json:"event_id"`
	ProposedStart string    `json:"proposed_start"`
	ProposedEnd   string    `json:"proposed_end"`
	Reason        string    `json:"reason"`
}

// SwapResponse is the JSON shape of a stored swap request.
type SwapResponse struct {
	ID            uuid.UUID  `json:"id"`
	FamilyID      uuid.UUID  `json:"family_id"`
	EventID       uuid.UUID  `json:"event_id"`
	RequestedBy   uuid.UUID  `json:"requested_by"`
	ProposedStart string     `json:"proposed_start"`
	ProposedEnd   string     `json:"proposed_end"`
	Reason        string     `json:"reason,omitempty"`
	Status        string     `json:"status"`
	ResolvedBy    *uuid.UUID `json:"resolved_by,omitempty"`
	ResolvedAt    *string    `json:"resolved_at,omitempty"`
	CreatedAt     string     `json:"created_at"`
}

func toSwapResponse(req visitation.SwapRequest) SwapResponse {
	resp := SwapResponse{
		ID:            req.ID,
		FamilyID:      req.FamilyID,
		EventID:       req.EventID,
		RequestedBy:   req.RequestedBy,
		ProposedStart: req.ProposedStart.UTC().Format(timeFormat),
		ProposedEnd:   req.ProposedEnd.UTC().Format(timeFormat),
		Reason:        req.Reason,
		Status:        string(req.Status),
		ResolvedBy:    req.ResolvedBy,
		CreatedAt:     req.CreatedAt.UTC().Format(timeFormat),
	}
	if req.ResolvedAt != nil {
		at := req.ResolvedAt.UTC().Format(timeFormat)
		resp.ResolvedAt = &at
	}
	return resp
}

func (h *SwapHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	handlerLogger := h.logger.With().Str("handler", "handleCreate").Logger()

	caller, ok := h.RequireCaller(w, r, handlerLogger)
	if !ok {
		return
	}

	var req SwapRequestBody
	if !h.DecodeBody(w, r, handlerLogger, &req) {
		return
	}

	swap, err := h.swaps.Create(r.Context(), caller.ID, service.SwapParams{
		EventID:       req.EventID,
		ProposedStart: req.ProposedStart,
		ProposedEnd:   req.ProposedEnd,
		Reason:        req.Reason,
	})
	if err != nil {
		h.RespondError(w, handlerLogger, err)
		return
	}

	h.RespondJSON(w, http.StatusCreated, toSwapResponse(*swap))
}

func (h *SwapHandler) handleList(w http.ResponseWriter, r *http.Request) {
	handlerLogger := h.logger.With().Str("handler", "handleList").Logger()

	caller, ok := h.RequireCaller(w, r, handlerLogger)
	if !ok {
		return
	}

	familyID, err := uuid.Parse(r.URL.Query().Get("family_id"))
	if err != nil {
		handlerLogger.Warn().Msg("Missing or malformed family_id parameter")
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "missing or malformed family_id")
		return
	}

	swaps, err := h.swaps.List(r.Context(), caller.ID, familyID)
	if err != nil {
		h.RespondError(w, handlerLogger, err)
		return
	}

	resp := make([]SwapResponse, 0, len(swaps))
	for _, swap := range swaps {
		resp = append(resp, toSwapResponse(swap))
	}
	h.RespondJSON(w, http.StatusOK, resp)
}

func (h *SwapHandler) handleApprove(w http.ResponseWriter, r *http.Request) {
	handlerLogger := h.logger.With().Str("handler", "handleApprove").Logger()

	caller, ok := h.RequireCaller(w, r, handlerLogger)
	if !ok {
		return
	}

	swapID, ok := h.pathID(w, r, handlerLogger)
	if !ok {
		return
	}

	moved, err := h.swaps.Approve(r.Context(), caller.ID, swapID)
	if err != nil {
		h.RespondError(w, handlerLogger, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, toEventResponse(*moved))
}

func (h *SwapHandler) handleReject(w http.ResponseWriter, r *http.Request) {
	handlerLogger := h.logger.With().Str("handler", "handleReject").Logger()

	caller, ok := h.RequireCaller(w, r, handlerLogger)
	if !ok {
		return
	}

	swapID, ok := h.pathID(w, r, handlerLogger)
	if !ok {
		return
	}

	if err := h.swaps.Reject(r.Context(), caller.ID, swapID); err != nil {
		h.RespondError(w, handlerLogger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
