package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// User is an account mirrored from the external auth provider. Rows are
// written only by the auth webhook; the rest of the app treats them as
// read-only.
type User struct {
	ID             uuid.UUID
	ProviderUserID string
	Email          string
	DisplayName    string
	Disabled       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// UserStore handles auth-provider user rows in SQLite
type UserStore struct {
	db *DB
}

// NewUserStore creates a new user store
func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

// UpsertTx inserts or refreshes a user row keyed by the provider's stable
// user id, inside the caller's transaction.
func (s *UserStore) UpsertTx(ctx context.Context, tx *sql.Tx, providerUserID, email, displayName string) (*User, error) {
	existing, err := s.byProviderID(ctx, tx, providerUserID)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		u := &User{
			ID:             uuid.New(),
			ProviderUserID: providerUserID,
			Email:          email,
			DisplayName:    displayName,
		}
		_, err = tx.ExecContext(ctx, `
INSERT INTO users (id, provider_user_id, email, display_name, disabled)
VALUES (?, ?, ?, ?, 0)`, u.ID.String(), providerUserID, email, displayName)
		if err != nil {
			return nil, fmt.Errorf("failed to insert user: %w", err)
		}
		return u, nil
	}

	_, err = tx.ExecContext(ctx, `
UPDATE users SET email = ?, display_name = ?, disabled = 0, updated_at = CURRENT_TIMESTAMP
WHERE provider_user_id = ?`, email, displayName, providerUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	existing.Email = email
	existing.DisplayName = displayName
	existing.Disabled = false
	return existing, nil
}

// DisableTx marks a user deleted at the provider. The row is kept so audit
// fields on rotations and events stay resolvable.
func (s *UserStore) DisableTx(ctx context.Context, tx *sql.Tx, providerUserID string) (bool, error) {
	res, err := tx.ExecContext(ctx, `
UPDATE users SET disabled = 1, updated_at = CURRENT_TIMESTAMP
WHERE provider_user_id = ?`, providerUserID)
	if err != nil {
		return false, fmt.Errorf("failed to disable user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

// GetByProviderID retrieves a user by the auth provider's stable id.
// Returns nil without error when no such user exists.
func (s *UserStore) GetByProviderID(ctx context.Context, providerUserID string) (*User, error) {
	return s.byProviderID(ctx, s.db.Conn(), providerUserID)
}

// GetByID retrieves a user by internal id. Returns nil when absent.
func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	row := s.db.Conn().QueryRowContext(ctx, `
SELECT id, provider_user_id, email, display_name, disabled
FROM users WHERE id = ?`, id.String())
	return scanUser(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *UserStore) byProviderID(ctx context.Context, q querier, providerUserID string) (*User, error) {
	row := q.QueryRowContext(ctx, `
SELECT id, provider_user_id, email, display_name, disabled
FROM users WHERE provider_user_id = ?`, providerUserID)
	return scanUser(row)
}

func scanUser(row rowScanner) (*User, error) {
	var u User
	var id string
	var disabled int
	err := row.Scan(&id, &u.ProviderUserID, &u.Email, &u.DisplayName, &disabled)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("failed to parse user id: %w", err)
	}
	u.ID = parsed
	u.Disabled = disabled != 0
	return &u, nil
}
