package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-app/custodia/internal/constants"
	"github.com/custodia-app/custodia/internal/database"
	"github.com/custodia-app/custodia/internal/interval"
	"github.com/custodia-app/custodia/internal/rotation"
	"github.com/custodia-app/custodia/internal/visitation"
)

// In-memory store implementations for testing. They mirror the SQLite
// stores' contracts, including running check callbacks before writes.

// MockRotationStore is an in-memory RotationStoreInterface
type MockRotationStore struct {
	rotations []rotation.Rotation
}

// NewMockRotationStore creates a new MockRotationStore
func NewMockRotationStore() *MockRotationStore {
	return &MockRotationStore{}
}

// CreateChecked runs check against the family's active rotations, then appends
func (m *MockRotationStore) CreateChecked(_ context.Context, rot *rotation.Rotation, check func(existing []rotation.Rotation) error) error {
	var existing []rotation.Rotation
	for _, r := range m.rotations {
		if r.FamilyID == rot.FamilyID && r.Active {
			existing = append(existing, r)
		}
	}
	if err := check(existing); err != nil {
		return err
	}
	now := time.Now().UTC()
	rot.CreatedAt = now
	rot.UpdatedAt = now
	m.rotations = append(m.rotations, *rot)
	return nil
}

// ActiveByFamily returns the family's active rotations
func (m *MockRotationStore) ActiveByFamily(_ context.Context, familyID uuid.UUID) ([]rotation.Rotation, error) {
	var out []rotation.Rotation
	for _, r := range m.rotations {
		if r.FamilyID == familyID && r.Active {
			out = append(out, r)
		}
	}
	return out, nil
}

// ActiveByFamilies returns active rotations across several families
func (m *MockRotationStore) ActiveByFamilies(ctx context.Context, familyIDs []uuid.UUID) ([]rotation.Rotation, error) {
	var out []rotation.Rotation
	for _, id := range familyIDs {
		rotations, err := m.ActiveByFamily(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, rotations...)
	}
	return out, nil
}

// GetByID returns one rotation, or nil when absent
func (m *MockRotationStore) GetByID(_ context.Context, id uuid.UUID) (*rotation.Rotation, error) {
	for i := range m.rotations {
		if m.rotations[i].ID == id {
			r := m.rotations[i]
			return &r, nil
		}
	}
	return nil, nil
}

// Deactivate soft-deletes a rotation
func (m *MockRotationStore) Deactivate(_ context.Context, id uuid.UUID) (bool, error) {
	for i := range m.rotations {
		if m.rotations[i].ID == id {
			m.rotations[i].Active = false
			m.rotations[i].UpdatedAt = time.Now().UTC()
			return true, nil
		}
	}
	return false, nil
}

// MockEventStore is an in-memory EventStoreInterface
type MockEventStore struct {
	events []visitation.Event
}

// NewMockEventStore creates a new MockEventStore
func NewMockEventStore() *MockEventStore {
	return &MockEventStore{}
}

// CreateChecked runs check against the child's events, then appends
func (m *MockEventStore) CreateChecked(_ context.Context, ev *visitation.Event, check func(existing []visitation.Event) error) error {
	if err := check(m.byChild(ev.ChildID, nil)); err != nil {
		return err
	}
	now := time.Now().UTC()
	ev.CreatedAt = now
	ev.UpdatedAt = now
	m.events = append(m.events, *ev)
	return nil
}

// UpdateChecked runs check against the child's other events, then rewrites
func (m *MockEventStore) UpdateChecked(_ context.Context, ev *visitation.Event, check func(existing []visitation.Event) error) error {
	if err := check(m.byChild(ev.ChildID, &ev.ID)); err != nil {
		return err
	}
	for i := range m.events {
		if m.events[i].ID == ev.ID {
			ev.UpdatedAt = time.Now().UTC()
			m.events[i] = *ev
			return nil
		}
	}
	return sql.ErrNoRows
}

// GetByID returns one event, or nil when absent
func (m *MockEventStore) GetByID(_ context.Context, id uuid.UUID) (*visitation.Event, error) {
	for i := range m.events {
		if m.events[i].ID == id {
			ev := m.events[i]
			return &ev, nil
		}
	}
	return nil, nil
}

// ByChild returns every stored event for one child
func (m *MockEventStore) ByChild(_ context.Context, childID uuid.UUID) ([]visitation.Event, error) {
	return m.byChild(childID, nil), nil
}

// ByFamilyWindow returns the family's events intersecting the window, plus
// every recurring event
func (m *MockEventStore) ByFamilyWindow(_ context.Context, familyID uuid.UUID, windowStart, windowEnd time.Time) ([]visitation.Event, error) {
	var out []visitation.Event
	for _, ev := range m.events {
		if ev.FamilyID != familyID {
			continue
		}
		if ev.Recurring || interval.Overlaps(ev.Start, ev.End, windowStart, windowEnd) {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

// Delete hard-deletes an event
func (m *MockEventStore) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	for i := range m.events {
		if m.events[i].ID == id {
			m.events = append(m.events[:i], m.events[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *MockEventStore) byChild(childID uuid.UUID, exclude *uuid.UUID) []visitation.Event {
	var out []visitation.Event
	for _, ev := range m.events {
		if ev.ChildID != childID {
			continue
		}
		if exclude != nil && ev.ID == *exclude {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// MockSwapStore is an in-memory SwapStoreInterface. It needs the event store
// to mirror the SQLite store's approve-moves-the-event behavior.
type MockSwapStore struct {
	swaps  []visitation.SwapRequest
	events *MockEventStore
}

// NewMockSwapStore creates a new MockSwapStore backed by the given event store
func NewMockSwapStore(events *MockEventStore) *MockSwapStore {
	return &MockSwapStore{events: events}
}

// Create inserts a pending swap request
func (m *MockSwapStore) Create(_ context.Context, req *visitation.SwapRequest) error {
	req.Status = visitation.SwapPending
	req.CreatedAt = time.Now().UTC()
	m.swaps = append(m.swaps, *req)
	return nil
}

// GetByID returns one swap request, or nil when absent
func (m *MockSwapStore) GetByID(_ context.Context, id uuid.UUID) (*visitation.SwapRequest, error) {
	for i := range m.swaps {
		if m.swaps[i].ID == id {
			req := m.swaps[i]
			return &req, nil
		}
	}
	return nil, nil
}

// ByFamily returns the family's swap requests
func (m *MockSwapStore) ByFamily(_ context.Context, familyID uuid.UUID) ([]visitation.SwapRequest, error) {
	var out []visitation.SwapRequest
	for _, req := range m.swaps {
		if req.FamilyID == familyID {
			out = append(out, req)
		}
	}
	return out, nil
}

// Approve resolves a pending swap and moves its event
func (m *MockSwapStore) Approve(ctx context.Context, swapID, resolvedBy uuid.UUID, check func(moved visitation.Event, others []visitation.Event) error) (*visitation.Event, error) {
	idx := -1
	for i := range m.swaps {
		if m.swaps[i].ID == swapID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, sql.ErrNoRows
	}
	req := &m.swaps[idx]
	if !req.Pending() {
		return nil, database.ErrSwapResolved
	}

	ev, err := m.events.GetByID(ctx, req.EventID)
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, sql.ErrNoRows
	}

	moved := *ev
	moved.Start = req.ProposedStart
	moved.End = req.ProposedEnd
	if err := check(moved, m.events.byChild(moved.ChildID, &moved.ID)); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	moved.UpdatedAt = now
	for i := range m.events.events {
		if m.events.events[i].ID == moved.ID {
			m.events.events[i] = moved
		}
	}
	req.Status = visitation.SwapApproved
	req.ResolvedBy = &resolvedBy
	req.ResolvedAt = &now
	return &moved, nil
}

// Reject resolves a pending swap without touching its event
func (m *MockSwapStore) Reject(_ context.Context, swapID, resolvedBy uuid.UUID) error {
	for i := range m.swaps {
		if m.swaps[i].ID == swapID {
			if !m.swaps[i].Pending() {
				return database.ErrSwapResolved
			}
			now := time.Now().UTC()
			m.swaps[i].Status = visitation.SwapRejected
			m.swaps[i].ResolvedBy = &resolvedBy
			m.swaps[i].ResolvedAt = &now
			return nil
		}
	}
	return sql.ErrNoRows
}

// mockMember is one membership row in the MockFamilyStore
type mockMember struct {
	FamilyID uuid.UUID
	UserID   uuid.UUID
	Role     constants.MemberRole
	CanEdit  bool
}

// MockFamilyStore is an in-memory FamilyStoreInterface
type MockFamilyStore struct {
	families []database.Family
	members  []mockMember
	children []database.Child
}

// NewMockFamilyStore creates a new MockFamilyStore
func NewMockFamilyStore() *MockFamilyStore {
	return &MockFamilyStore{}
}

// AddFamily registers a family
func (m *MockFamilyStore) AddFamily(id uuid.UUID, name string) {
	m.families = append(m.families, database.Family{ID: id, Name: name, CreatedAt: time.Now().UTC()})
}

// AddMember registers a membership
func (m *MockFamilyStore) AddMember(familyID, userID uuid.UUID, role constants.MemberRole, canEdit bool) {
	m.members = append(m.members, mockMember{FamilyID: familyID, UserID: userID, Role: role, CanEdit: canEdit})
}

// AddChild registers a child
func (m *MockFamilyStore) AddChild(id, familyID uuid.UUID, name string) {
	m.children = append(m.children, database.Child{ID: id, FamilyID: familyID, Name: name})
}

// IsMember reports whether the user belongs to the family
func (m *MockFamilyStore) IsMember(_ context.Context, userID, familyID uuid.UUID) (bool, error) {
	for _, mem := range m.members {
		if mem.UserID == userID && mem.FamilyID == familyID {
			return true, nil
		}
	}
	return false, nil
}

// CanEdit reports whether the user may change the family's schedule
func (m *MockFamilyStore) CanEdit(_ context.Context, userID, familyID uuid.UUID) (bool, error) {
	for _, mem := range m.members {
		if mem.UserID == userID && mem.FamilyID == familyID {
			return mem.CanEdit, nil
		}
	}
	return false, nil
}

// MemberRole returns the user's role in the family
func (m *MockFamilyStore) MemberRole(_ context.Context, userID, familyID uuid.UUID) (constants.MemberRole, bool, error) {
	for _, mem := range m.members {
		if mem.UserID == userID && mem.FamilyID == familyID {
			return mem.Role, true, nil
		}
	}
	return "", false, nil
}

// FamiliesFor returns the families the user belongs to
func (m *MockFamilyStore) FamiliesFor(_ context.Context, userID uuid.UUID) ([]database.Family, error) {
	var out []database.Family
	for _, f := range m.families {
		for _, mem := range m.members {
			if mem.UserID == userID && mem.FamilyID == f.ID {
				out = append(out, f)
				break
			}
		}
	}
	return out, nil
}

// GetChild returns one child, or nil when absent
func (m *MockFamilyStore) GetChild(_ context.Context, childID uuid.UUID) (*database.Child, error) {
	for i := range m.children {
		if m.children[i].ID == childID {
			c := m.children[i]
			return &c, nil
		}
	}
	return nil, nil
}

// MockSettingsStore is an in-memory SettingsStoreInterface
type MockSettingsStore struct {
	monthsBack    int
	monthsForward int
	seeded        bool
}

// NewMockSettingsStore creates a new MockSettingsStore with the given window
func NewMockSettingsStore(monthsBack, monthsForward int) *MockSettingsStore {
	return &MockSettingsStore{monthsBack: monthsBack, monthsForward: monthsForward, seeded: true}
}

// GetCalendarWindow retrieves the window
func (m *MockSettingsStore) GetCalendarWindow(_ context.Context) (int, int, error) {
	if !m.seeded {
		return 0, 0, fmt.Errorf("settings not seeded")
	}
	return m.monthsBack, m.monthsForward, nil
}

// SetCalendarWindow saves the window
func (m *MockSettingsStore) SetCalendarWindow(_ context.Context, monthsBack, monthsForward int) error {
	if monthsBack < 0 {
		return fmt.Errorf("months back cannot be negative")
	}
	if monthsForward < 1 {
		return fmt.Errorf("months forward must be positive")
	}
	m.monthsBack = monthsBack
	m.monthsForward = monthsForward
	m.seeded = true
	return nil
}

// Ensure the mocks implement the interfaces
var _ RotationStoreInterface = (*MockRotationStore)(nil)
var _ EventStoreInterface = (*MockEventStore)(nil)
var _ SwapStoreInterface = (*MockSwapStore)(nil)
var _ FamilyStoreInterface = (*MockFamilyStore)(nil)
var _ SettingsStoreInterface = (*MockSettingsStore)(nil)
