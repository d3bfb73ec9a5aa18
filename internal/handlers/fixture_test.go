package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/custodia-app/custodia/internal/auth"
	"github.com/custodia-app/custodia/internal/constants"
	"github.com/custodia-app/custodia/internal/database"
	"github.com/custodia-app/custodia/internal/service"
	"github.com/custodia-app/custodia/internal/visitation"
)

const testTokenTTL = time.Hour

// mockUserResolver is an in-memory UserResolver for handler tests.
type mockUserResolver struct {
	users map[string]*database.User
}

func newMockUserResolver() *mockUserResolver {
	return &mockUserResolver{users: make(map[string]*database.User)}
}

func (m *mockUserResolver) add(providerID, email, name string) *database.User {
	u := &database.User{
		ID:             uuid.New(),
		ProviderUserID: providerID,
		Email:          email,
		DisplayName:    name,
	}
	m.users[providerID] = u
	return u
}

func (m *mockUserResolver) GetByProviderID(_ context.Context, providerUserID string) (*database.User, error) {
	return m.users[providerUserID], nil
}

// harness wires the full handler stack over in-memory stores: one family
// with two custody parents, a read-only viewer, one child, and an outsider.
type harness struct {
	Base     *BaseHandler
	Tokens   *auth.TokenService
	Resolver *mockUserResolver

	RotationService *service.RotationService
	EventService    *service.EventService
	SwapService     *service.SwapService
	CalendarService *service.CalendarService
	SettingsStore   *service.MockSettingsStore

	EventStore *service.MockEventStore
	Families   *service.MockFamilyStore

	FamilyID uuid.UUID
	ChildID  uuid.UUID
	ParentA  *database.User
	ParentB  *database.User
	Viewer   *database.User
	Outsider *database.User
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		Tokens:   auth.NewTokenService("handler-test-secret", "custodia-test"),
		Resolver: newMockUserResolver(),
		FamilyID: uuid.New(),
		ChildID:  uuid.New(),
	}
	h.Base = NewBaseHandler(h.Tokens, h.Resolver)

	h.ParentA = h.Resolver.add("provider-alice", "alice@example.com", "Alice")
	h.ParentB = h.Resolver.add("provider-bob", "bob@example.com", "Bob")
	h.Viewer = h.Resolver.add("provider-vera", "vera@example.com", "Vera")
	h.Outsider = h.Resolver.add("provider-oscar", "oscar@example.com", "Oscar")

	h.Families = service.NewMockFamilyStore()
	h.Families.AddFamily(h.FamilyID, "Smith Household")
	h.Families.AddMember(h.FamilyID, h.ParentA.ID, constants.RoleParent, true)
	h.Families.AddMember(h.FamilyID, h.ParentB.ID, constants.RoleParent, true)
	h.Families.AddMember(h.FamilyID, h.Viewer.ID, constants.RoleViewer, false)
	h.Families.AddChild(h.ChildID, h.FamilyID, "Charlie")

	rotations := service.NewMockRotationStore()
	h.EventStore = service.NewMockEventStore()
	swaps := service.NewMockSwapStore(h.EventStore)
	h.SettingsStore = service.NewMockSettingsStore(1, 2)

	h.RotationService = service.NewRotationService(rotations, h.Families)
	h.EventService = service.NewEventService(h.EventStore, h.Families)
	h.SwapService = service.NewSwapService(swaps, h.EventStore, h.Families)
	h.CalendarService = service.NewCalendarService(rotations, h.EventStore, h.Families, h.SettingsStore)

	return h
}

// request builds an authenticated JSON request. A nil user leaves the
// Authorization header off; a nil body sends no payload.
func (h *harness) request(t *testing.T, method, target string, body any, user *database.User) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		token, err := h.Tokens.GenerateToken(user.ProviderUserID, user.Email, user.DisplayName, testTokenTTL)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func weeklyMondays() *visitation.Recurrence {
	return &visitation.Recurrence{
		Frequency: visitation.FrequencyWeekly,
		Interval:  1,
		Weekdays:  []time.Weekday{time.Monday},
	}
}

// decode unmarshals the recorded response body into dst.
func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), "body: %s", rec.Body.String())
}
