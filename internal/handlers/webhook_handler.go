package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"github.com/custodia-app/custodia/internal/database"
	"github.com/custodia-app/custodia/internal/logging"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw request body,
// computed by the auth provider with the shared webhook secret.
const SignatureHeader = "X-Webhook-Signature"

// Webhook event types sent by the auth provider.
const (
	WebhookUserCreated = "user.created"
	WebhookUserUpdated = "user.updated"
	WebhookUserDeleted = "user.deleted"
)

// maxWebhookBody bounds how much of a webhook request we read before
// verifying its signature.
const maxWebhookBody = 1 << 20

// WebhookHandler ingests user lifecycle notifications from the auth
// provider. It is the only writer of the users table.
type WebhookHandler struct {
	*BaseHandler
	db        *database.DB
	userStore *database.UserStore
	secret    []byte
	processed *atomic.Int64
	rejected  *atomic.Int64
	logger    zerolog.Logger
}

// NewWebhookHandler creates a new auth webhook handler
func NewWebhookHandler(baseHandler *BaseHandler, db *database.DB, userStore *database.UserStore, secret string) *WebhookHandler {
	return &WebhookHandler{
		BaseHandler: baseHandler,
		db:          db,
		userStore:   userStore,
		secret:      []byte(secret),
		processed:   atomic.NewInt64(0),
		rejected:    atomic.NewInt64(0),
		logger:      logging.GetLogger("webhook"),
	}
}

// RegisterRoutes registers webhook related routes
func (h *WebhookHandler) RegisterRoutes() {
	http.HandleFunc("POST /api/webhook/auth", h.handleAuthWebhook)
}

// WebhookStats counts webhook deliveries since startup.
type WebhookStats struct {
	Processed int64 `json:"processed"`
	Rejected  int64 `json:"rejected"`
}

// Stats returns delivery counters for the health endpoint.
func (h *WebhookHandler) Stats() WebhookStats {
	return WebhookStats{Processed: h.processed.Load(), Rejected: h.rejected.Load()}
}

// AuthWebhookPayload is the auth provider's notification body.
type AuthWebhookPayload struct {
	Type string `json:"type"`
	User struct {
		ID          string `json:"id"`
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
	} `json:"user"`
}

func (h *WebhookHandler) handleAuthWebhook(w http.ResponseWriter, r *http.Request) {
	requestLogger := h.logger.With().
		Str("handler", "handleAuthWebhook").
		Str("remote_addr", r.RemoteAddr).
		Logger()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		requestLogger.Warn().Err(err).Msg("Failed to read webhook body")
		h.rejected.Inc()
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "unreadable body")
		return
	}

	if !h.verifySignature(body, r.Header.Get(SignatureHeader)) {
		requestLogger.Warn().Msg("Webhook signature verification failed")
		h.rejected.Inc()
		writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid signature")
		return
	}

	var payload AuthWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		requestLogger.Warn().Err(err).Msg("Failed to decode webhook payload")
		h.rejected.Inc()
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "malformed payload")
		return
	}
	if payload.User.ID == "" {
		requestLogger.Warn().Str("type", payload.Type).Msg("Webhook payload without user id")
		h.rejected.Inc()
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "missing user id")
		return
	}

	requestLogger = requestLogger.With().
		Str("type", payload.Type).
		Str("provider_user_id", payload.User.ID).
		Logger()

	switch payload.Type {
	case WebhookUserCreated, WebhookUserUpdated:
		err = h.db.WithTransaction(r.Context(), func(tx *sql.Tx) error {
			_, err := h.userStore.UpsertTx(r.Context(), tx, payload.User.ID, payload.User.Email, payload.User.DisplayName)
			return err
		})
	case WebhookUserDeleted:
		err = h.db.WithTransaction(r.Context(), func(tx *sql.Tx) error {
			_, err := h.userStore.DisableTx(r.Context(), tx, payload.User.ID)
			return err
		})
	default:
		requestLogger.Warn().Msg("Unknown webhook event type")
		h.rejected.Inc()
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "unknown event type")
		return
	}
	if err != nil {
		requestLogger.Error().Err(err).Msg("Failed to apply webhook event")
		writeError(w, http.StatusInternalServerError, ErrCodeInternal, "failed to apply event")
		return
	}

	h.processed.Inc()
	requestLogger.Info().Msg("Applied auth webhook event")
	w.WriteHeader(http.StatusOK)
}

func (h *WebhookHandler) verifySignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	provided, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, h.secret)
	mac.Write(body)
	return hmac.Equal(provided, mac.Sum(nil))
}
