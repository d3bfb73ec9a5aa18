package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/custodia-app/custodia/internal/apperrors"
)

// Error codes for failures that happen before a request reaches the service
// layer. Service-layer failures carry their own code via apperrors.Kind.
const (
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeForbidden        = "forbidden"
	ErrCodeBadRequest       = "bad_request"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error"
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	// Conflict responses carry the span of the entity that is in the way.
	ConflictStart *time.Time `json:"conflict_start,omitempty"`
	ConflictEnd   *time.Time `json:"conflict_end,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: code, Message: message})
}

// publicMessage returns the client-facing message for err. Internal failures
// get a generic message so storage details never leak into responses.
func publicMessage(err error, kind apperrors.Kind) string {
	if kind == apperrors.KindInternal {
		return "internal server error"
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
