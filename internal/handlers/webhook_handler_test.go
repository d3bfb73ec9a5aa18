package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-app/custodia/internal/auth"
	"github.com/custodia-app/custodia/internal/database"
)

const testWebhookSecret = "webhook-test-secret"

func setupWebhookHandler(t *testing.T, dbPath string) (*WebhookHandler, *database.UserStore, func()) {
	t.Helper()
	os.Remove(dbPath)

	db, err := database.New(database.NewDefaultOptions(dbPath))
	require.NoError(t, err, "Failed to create test database")
	require.NoError(t, db.MigrateDatabase(), "Failed to run migrations")

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
		os.Remove(dbPath + "-shm")
		os.Remove(dbPath + "-wal")
	}

	users := database.NewUserStore(db)
	base := NewBaseHandler(auth.NewTokenService("jwt-test-secret", "custodia-test"), users)
	handler := NewWebhookHandler(base, db, users, testWebhookSecret)
	return handler, users, cleanup
}

func signedWebhookRequest(t *testing.T, body string) *http.Request {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write([]byte(body))

	req := httptest.NewRequest(http.MethodPost, "/api/webhook/auth", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, hex.EncodeToString(mac.Sum(nil)))
	return req
}

func TestWebhookHandlerUserLifecycle(t *testing.T) {
	handler, users, cleanup := setupWebhookHandler(t, "webhook_lifecycle_test.db")
	defer cleanup()
	ctx := context.Background()

	created := `{"type":"user.created","user":{"id":"provider-wanda","email":"wanda@example.com","display_name":"Wanda"}}`
	rec := httptest.NewRecorder()
	handler.handleAuthWebhook(rec, signedWebhookRequest(t, created))
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	user, err := users.GetByProviderID(ctx, "provider-wanda")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "Wanda", user.DisplayName)
	assert.False(t, user.Disabled)

	updated := `{"type":"user.updated","user":{"id":"provider-wanda","email":"wanda.m@example.com","display_name":"Wanda M"}}`
	rec = httptest.NewRecorder()
	handler.handleAuthWebhook(rec, signedWebhookRequest(t, updated))
	require.Equal(t, http.StatusOK, rec.Code)

	refreshed, err := users.GetByProviderID(ctx, "provider-wanda")
	require.NoError(t, err)
	require.NotNil(t, refreshed)
	assert.Equal(t, user.ID, refreshed.ID, "updates must keep the internal id")
	assert.Equal(t, "wanda.m@example.com", refreshed.Email)

	deleted := `{"type":"user.deleted","user":{"id":"provider-wanda"}}`
	rec = httptest.NewRecorder()
	handler.handleAuthWebhook(rec, signedWebhookRequest(t, deleted))
	require.Equal(t, http.StatusOK, rec.Code)

	disabled, err := users.GetByProviderID(ctx, "provider-wanda")
	require.NoError(t, err)
	require.NotNil(t, disabled, "deletion keeps the row")
	assert.True(t, disabled.Disabled)

	stats := handler.Stats()
	assert.Equal(t, int64(3), stats.Processed)
	assert.Equal(t, int64(0), stats.Rejected)
}

func TestWebhookHandlerRejections(t *testing.T) {
	handler, users, cleanup := setupWebhookHandler(t, "webhook_reject_test.db")
	defer cleanup()

	t.Run("wrong signature", func(t *testing.T) {
		body := `{"type":"user.created","user":{"id":"provider-mallory"}}`
		req := httptest.NewRequest(http.MethodPost, "/api/webhook/auth", bytes.NewBufferString(body))
		req.Header.Set(SignatureHeader, "deadbeef")

		rec := httptest.NewRecorder()
		handler.handleAuthWebhook(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		user, err := users.GetByProviderID(context.Background(), "provider-mallory")
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("missing signature", func(t *testing.T) {
		body := `{"type":"user.created","user":{"id":"provider-mallory"}}`
		req := httptest.NewRequest(http.MethodPost, "/api/webhook/auth", bytes.NewBufferString(body))

		rec := httptest.NewRecorder()
		handler.handleAuthWebhook(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown event type", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.handleAuthWebhook(rec, signedWebhookRequest(t, `{"type":"user.exploded","user":{"id":"x"}}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("payload without user id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.handleAuthWebhook(rec, signedWebhookRequest(t, `{"type":"user.created","user":{}}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("signed garbage body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.handleAuthWebhook(rec, signedWebhookRequest(t, `{"type":`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	stats := handler.Stats()
	assert.Equal(t, int64(0), stats.Processed)
	assert.Equal(t, int64(5), stats.Rejected)
}

func TestHealthHandler(t *testing.T) {
	webhook, _, cleanup := setupWebhookHandler(t, "health_test.db")
	defer cleanup()

	handler := NewHealthHandler(webhook.BaseHandler, webhook.db, webhook)

	rec := httptest.NewRecorder()
	handler.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	decode(t, rec, &resp)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, int64(0), resp.Webhooks.Processed)
}
