package service

import (
	"github.com/google/uuid"

	"github.com/custodia-app/custodia/internal/constants"
)

// world is the shared test scenario: one family with two custody parents,
// one read-only viewer, one child, and one outsider with no membership.
type world struct {
	Families *MockFamilyStore

	FamilyID uuid.UUID
	ParentA  uuid.UUID
	ParentB  uuid.UUID
	Viewer   uuid.UUID
	Outsider uuid.UUID
	ChildID  uuid.UUID
}

func newWorld() *world {
	w := &world{
		Families: NewMockFamilyStore(),
		FamilyID: uuid.New(),
		ParentA:  uuid.New(),
		ParentB:  uuid.New(),
		Viewer:   uuid.New(),
		Outsider: uuid.New(),
		ChildID:  uuid.New(),
	}
	w.Families.AddFamily(w.FamilyID, "Smith Household")
	w.Families.AddMember(w.FamilyID, w.ParentA, constants.RoleParent, true)
	w.Families.AddMember(w.FamilyID, w.ParentB, constants.RoleParent, true)
	w.Families.AddMember(w.FamilyID, w.Viewer, constants.RoleViewer, false)
	w.Families.AddChild(w.ChildID, w.FamilyID, "Charlie")
	return w
}

func strPtr(s string) *string { return &s }
