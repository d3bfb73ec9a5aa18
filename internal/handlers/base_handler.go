// Package handlers implements the JSON API surface. Each feature gets its
// own handler struct registering its routes; BaseHandler carries the pieces
// they all share (token validation, caller resolution, response encoding).
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/custodia-app/custodia/internal/apperrors"
	"github.com/custodia-app/custodia/internal/auth"
	"github.com/custodia-app/custodia/internal/database"
	"github.com/custodia-app/custodia/internal/logging"
)

// UserResolver resolves bearer-token subjects to stored user rows.
type UserResolver interface {
	GetByProviderID(ctx context.Context, providerUserID string) (*database.User, error)
}

var _ UserResolver = (*database.UserStore)(nil)

// BaseHandler provides common functionality for all handlers
type BaseHandler struct {
	Tokens *auth.TokenService
	Users  UserResolver
	logger zerolog.Logger
}

// NewBaseHandler creates a new base handler with common functionality
func NewBaseHandler(tokens *auth.TokenService, users UserResolver) *BaseHandler {
	return &BaseHandler{
		Tokens: tokens,
		Users:  users,
		logger: logging.GetLogger("handlers"),
	}
}

// RequireCaller validates the request's bearer token and resolves it to a
// stored user. On failure it writes the error response itself and returns
// false; handlers just return.
func (h *BaseHandler) RequireCaller(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) (*database.User, bool) {
	claims, err := h.Tokens.FromRequest(r)
	if err != nil {
		if errors.Is(err, auth.ErrMissingToken) {
			logger.Warn().Msg("Request without bearer token")
			writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "missing bearer token")
			return nil, false
		}
		logger.Warn().Err(err).Msg("Rejected invalid bearer token")
		writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid bearer token")
		return nil, false
	}

	user, err := h.Users.GetByProviderID(r.Context(), claims.ProviderUserID)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to resolve token subject")
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to resolve user")
		return nil, false
	}
	if user == nil {
		logger.Warn().Str("subject", claims.ProviderUserID).Msg("Token subject has no user row")
		writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "unknown user")
		return nil, false
	}
	if user.Disabled {
		logger.Warn().Str("user_id", user.ID.String()).Msg("Disabled user attempted access")
		writeError(w, http.StatusForbidden, ErrCodeForbidden, "account is disabled")
		return nil, false
	}
	return user, true
}

// RespondJSON encodes v as the response body with the given status.
func (h *BaseHandler) RespondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// RespondError translates a service-layer error into its HTTP shape.
func (h *BaseHandler) RespondError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	kind := apperrors.KindOf(err)
	if kind == apperrors.KindInternal {
		logger.Error().Err(err).Msg("Request failed")
	} else {
		logger.Debug().Err(err).Str("kind", kind.String()).Msg("Request rejected")
	}

	body := ErrorResponse{Error: kind.String(), Message: publicMessage(err, kind)}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) && kind == apperrors.KindConflict {
		start, end := appErr.ConflictStart, appErr.ConflictEnd
		body.ConflictStart = &start
		body.ConflictEnd = &end
	}
	h.RespondJSON(w, kind.HTTPStatus(), body)
}

// timeFormat is how instants are rendered in response bodies.
const timeFormat = time.RFC3339

// pathID parses the {id} path segment as a UUID. On failure it writes the
// 400 response and returns false.
func (h *BaseHandler) pathID(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		logger.Warn().Str("id", r.PathValue("id")).Msg("Malformed id path segment")
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "malformed id")
		return uuid.Nil, false
	}
	return id, true
}

// DecodeBody parses the JSON request body into dst, rejecting unknown
// fields. On failure it writes the 400 response and returns false.
func (h *BaseHandler) DecodeBody(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		logger.Warn().Err(err).Msg("Failed to decode request body")
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "malformed JSON body")
		return false
	}
	return true
}
