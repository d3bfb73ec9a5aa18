package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-app/custodia/internal/constants"
)

// Family is the multi-tenancy boundary: a household with members and children.
type Family struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

// Member is one user's membership in a family.
type Member struct {
	FamilyID uuid.UUID
	UserID   uuid.UUID
	Name     string
	Role     constants.MemberRole
	CanEdit  bool
}

// Child belongs to exactly one family.
type Child struct {
	ID       uuid.UUID
	FamilyID uuid.UUID
	Name     string
}

// FamilyStore handles family, membership and child rows in SQLite
type FamilyStore struct {
	db *DB
}

// NewFamilyStore creates a new family store
func NewFamilyStore(db *DB) *FamilyStore {
	return &FamilyStore{db: db}
}

// CreateFamily inserts a family row.
func (s *FamilyStore) CreateFamily(ctx context.Context, name string) (*Family, error) {
	f := &Family{ID: uuid.New(), Name: name}
	_, err := s.db.Conn().ExecContext(ctx, `
INSERT INTO families (id, name) VALUES (?, ?)`, f.ID.String(), name)
	if err != nil {
		return nil, fmt.Errorf("failed to create family: %w", err)
	}
	return f, nil
}

// AddMember attaches a user to a family with a role and edit capability.
func (s *FamilyStore) AddMember(ctx context.Context, familyID, userID uuid.UUID, role constants.MemberRole, canEdit bool) error {
	_, err := s.db.Conn().ExecContext(ctx, `
INSERT INTO family_members (family_id, user_id, role, can_edit)
VALUES (?, ?, ?, ?)`, familyID.String(), userID.String(), role.String(), boolToInt(canEdit))
	if err != nil {
		return fmt.Errorf("failed to add family member: %w", err)
	}
	return nil
}

// AddChild attaches a child to a family.
func (s *FamilyStore) AddChild(ctx context.Context, familyID uuid.UUID, name string) (*Child, error) {
	c := &Child{ID: uuid.New(), FamilyID: familyID, Name: name}
	_, err := s.db.Conn().ExecContext(ctx, `
INSERT INTO children (id, family_id, name) VALUES (?, ?, ?)`, c.ID.String(), familyID.String(), name)
	if err != nil {
		return nil, fmt.Errorf("failed to add child: %w", err)
	}
	return c, nil
}

// IsMember reports whether the user belongs to the family.
func (s *FamilyStore) IsMember(ctx context.Context, userID, familyID uuid.UUID) (bool, error) {
	var n int
	err := s.db.Conn().QueryRowContext(ctx, `
SELECT COUNT(*) FROM family_members WHERE family_id = ? AND user_id = ?`,
		familyID.String(), userID.String()).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return n > 0, nil
}

// CanEdit reports whether the user has edit rights on the family.
func (s *FamilyStore) CanEdit(ctx context.Context, userID, familyID uuid.UUID) (bool, error) {
	var canEdit int
	err := s.db.Conn().QueryRowContext(ctx, `
SELECT can_edit FROM family_members WHERE family_id = ? AND user_id = ?`,
		familyID.String(), userID.String()).Scan(&canEdit)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check edit rights: %w", err)
	}
	return canEdit != 0, nil
}

// MemberRole returns the user's role in the family. The boolean is false
// when the user is not a member at all.
func (s *FamilyStore) MemberRole(ctx context.Context, userID, familyID uuid.UUID) (constants.MemberRole, bool, error) {
	var role string
	err := s.db.Conn().QueryRowContext(ctx, `
SELECT role FROM family_members WHERE family_id = ? AND user_id = ?`,
		familyID.String(), userID.String()).Scan(&role)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query member role: %w", err)
	}
	parsed, err := constants.ParseMemberRole(role)
	if err != nil {
		return "", false, err
	}
	return parsed, true, nil
}

// FamiliesFor returns every family the user belongs to.
func (s *FamilyStore) FamiliesFor(ctx context.Context, userID uuid.UUID) ([]Family, error) {
	rows, err := s.db.Conn().QueryContext(ctx, `
SELECT f.id, f.name
FROM families f
JOIN family_members m ON m.family_id = f.id
WHERE m.user_id = ?
ORDER BY f.name`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query families: %w", err)
	}
	defer rows.Close()

	var families []Family
	for rows.Next() {
		var f Family
		var id string
		if err := rows.Scan(&id, &f.Name); err != nil {
			return nil, fmt.Errorf("failed to scan family: %w", err)
		}
		if f.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("failed to parse family id: %w", err)
		}
		families = append(families, f)
	}
	return families, rows.Err()
}

// Members returns the family's membership with display names.
func (s *FamilyStore) Members(ctx context.Context, familyID uuid.UUID) ([]Member, error) {
	rows, err := s.db.Conn().QueryContext(ctx, `
SELECT m.family_id, m.user_id, u.display_name, m.role, m.can_edit
FROM family_members m
JOIN users u ON u.id = m.user_id
WHERE m.family_id = ?
ORDER BY u.display_name`, familyID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		var familyIDStr, userIDStr, role string
		var canEdit int
		if err := rows.Scan(&familyIDStr, &userIDStr, &m.Name, &role, &canEdit); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		if m.FamilyID, err = uuid.Parse(familyIDStr); err != nil {
			return nil, fmt.Errorf("failed to parse family id: %w", err)
		}
		if m.UserID, err = uuid.Parse(userIDStr); err != nil {
			return nil, fmt.Errorf("failed to parse user id: %w", err)
		}
		if m.Role, err = constants.ParseMemberRole(role); err != nil {
			return nil, err
		}
		m.CanEdit = canEdit != 0
		members = append(members, m)
	}
	return members, rows.Err()
}

// GetChild returns a child row, or nil when absent.
func (s *FamilyStore) GetChild(ctx context.Context, childID uuid.UUID) (*Child, error) {
	var c Child
	var id, familyID string
	err := s.db.Conn().QueryRowContext(ctx, `
SELECT id, family_id, name FROM children WHERE id = ?`, childID.String()).
		Scan(&id, &familyID, &c.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query child: %w", err)
	}
	if c.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("failed to parse child id: %w", err)
	}
	if c.FamilyID, err = uuid.Parse(familyID); err != nil {
		return nil, fmt.Errorf("failed to parse family id: %w", err)
	}
	return &c, nil
}

// Children returns all children of a family.
func (s *FamilyStore) Children(ctx context.Context, familyID uuid.UUID) ([]Child, error) {
	rows, err := s.db.Conn().QueryContext(ctx, `
SELECT id, family_id, name FROM children WHERE family_id = ? ORDER BY name`, familyID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query children: %w", err)
	}
	defer rows.Close()

	var children []Child
	for rows.Next() {
		var c Child
		var id, famID string
		if err := rows.Scan(&id, &famID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan child: %w", err)
		}
		if c.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("failed to parse child id: %w", err)
		}
		if c.FamilyID, err = uuid.Parse(famID); err != nil {
			return nil, fmt.Errorf("failed to parse family id: %w", err)
		}
		children = append(children, c)
	}
	return children, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
