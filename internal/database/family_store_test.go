package database

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-app/custodia/internal/constants"
)

func TestFamilyStoreMembership(t *testing.T) {
	f, cleanup := setupTestFixture(t, "test_family_store.db")
	defer cleanup()
	ctx := context.Background()

	ok, err := f.Families.IsMember(ctx, f.ParentA, f.FamilyID)
	require.NoError(t, err)
	assert.True(t, ok)

	stranger := f.createUser(t, "provider-carol", "carol@example.com", "Carol")
	ok, err = f.Families.IsMember(ctx, stranger, f.FamilyID)
	require.NoError(t, err)
	assert.False(t, ok)

	role, found, err := f.Families.MemberRole(ctx, f.ParentA, f.FamilyID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, constants.RoleParent, role)

	_, found, err = f.Families.MemberRole(ctx, stranger, f.FamilyID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFamilyStoreCanEdit(t *testing.T) {
	f, cleanup := setupTestFixture(t, "test_family_canedit.db")
	defer cleanup()
	ctx := context.Background()

	viewer := f.createUser(t, "provider-dave", "dave@example.com", "Dave")
	require.NoError(t, f.Families.AddMember(ctx, f.FamilyID, viewer, constants.RoleViewer, false))

	ok, err := f.Families.CanEdit(ctx, f.ParentA, f.FamilyID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.Families.CanEdit(ctx, viewer, f.FamilyID)
	require.NoError(t, err)
	assert.False(t, ok)

	// Non-members read as cannot-edit, not as an error.
	ok, err = f.Families.CanEdit(ctx, uuid.New(), f.FamilyID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFamilyStoreFamiliesFor(t *testing.T) {
	f, cleanup := setupTestFixture(t, "test_family_list.db")
	defer cleanup()
	ctx := context.Background()

	second, err := f.Families.CreateFamily(ctx, "Jones Household")
	require.NoError(t, err)
	require.NoError(t, f.Families.AddMember(ctx, second.ID, f.ParentA, constants.RoleParent, true))

	families, err := f.Families.FamiliesFor(ctx, f.ParentA)
	require.NoError(t, err)
	assert.Len(t, families, 2)

	families, err = f.Families.FamiliesFor(ctx, f.ParentB)
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Equal(t, f.FamilyID, families[0].ID)
}

func TestFamilyStoreMembersAndChildren(t *testing.T) {
	f, cleanup := setupTestFixture(t, "test_family_children.db")
	defer cleanup()
	ctx := context.Background()

	members, err := f.Families.Members(ctx, f.FamilyID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	names := []string{members[0].Name, members[1].Name}
	assert.ElementsMatch(t, []string{"Alice", "Bob"}, names)

	second, err := f.Families.AddChild(ctx, f.FamilyID, "Dana")
	require.NoError(t, err)

	children, err := f.Families.Children(ctx, f.FamilyID)
	require.NoError(t, err)
	assert.Len(t, children, 2)

	got, err := f.Families.GetChild(ctx, second.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Dana", got.Name)
	assert.Equal(t, f.FamilyID, got.FamilyID)

	got, err = f.Families.GetChild(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)
}
