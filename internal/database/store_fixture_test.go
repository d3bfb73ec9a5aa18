package database

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/custodia-app/custodia/internal/constants"
)

// testFixture holds a migrated database plus one family with two parents and
// one child, which is the smallest world the scheduling stores can operate
// in given the foreign keys.
type testFixture struct {
	DB       *DB
	Users    *UserStore
	Families *FamilyStore

	FamilyID uuid.UUID
	ParentA  uuid.UUID
	ParentB  uuid.UUID
	ChildID  uuid.UUID
}

func setupTestFixture(t *testing.T, dbPath string) (*testFixture, func()) {
	t.Helper()
	os.Remove(dbPath)

	db, err := New(NewDefaultOptions(dbPath))
	require.NoError(t, err, "Failed to create test database")

	err = db.MigrateDatabase()
	require.NoError(t, err, "Failed to run migrations")

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
		os.Remove(dbPath + "-shm")
		os.Remove(dbPath + "-wal")
	}

	ctx := context.Background()
	f := &testFixture{
		DB:       db,
		Users:    NewUserStore(db),
		Families: NewFamilyStore(db),
	}

	parentA := f.createUser(t, "provider-alice", "alice@example.com", "Alice")
	parentB := f.createUser(t, "provider-bob", "bob@example.com", "Bob")
	f.ParentA = parentA
	f.ParentB = parentB

	family, err := f.Families.CreateFamily(ctx, "Smith Household")
	require.NoError(t, err)
	f.FamilyID = family.ID

	require.NoError(t, f.Families.AddMember(ctx, family.ID, parentA, constants.RoleParent, true))
	require.NoError(t, f.Families.AddMember(ctx, family.ID, parentB, constants.RoleParent, true))

	child, err := f.Families.AddChild(ctx, family.ID, "Charlie")
	require.NoError(t, err)
	f.ChildID = child.ID

	return f, cleanup
}

func (f *testFixture) createUser(t *testing.T, providerID, email, name string) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := f.DB.WithTransaction(context.Background(), func(tx *sql.Tx) error {
		u, err := f.Users.UpsertTx(context.Background(), tx, providerID, email, name)
		if err != nil {
			return err
		}
		id = u.ID
		return nil
	})
	require.NoError(t, err)
	return id
}
