package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-app/custodia/internal/dateutil"
	"github.com/custodia-app/custodia/internal/rotation"
)

// RotationStore handles rotation rows in SQLite. Rotations are append-only:
// creation and deactivation are the only writes, and deactivation keeps the
// row for audit.
type RotationStore struct {
	db *DB
}

// NewRotationStore creates a new rotation store
func NewRotationStore(db *DB) *RotationStore {
	return &RotationStore{db: db}
}

const rotationColumns = `
r.id, r.family_id, r.name, r.pattern_type, r.start_date, r.end_date,
r.primary_parent_id, r.secondary_parent_id, pp.display_name, sp.display_name,
r.is_active, r.created_by, r.created_at, r.updated_at`

const rotationJoins = `
FROM rotations r
JOIN users pp ON pp.id = r.primary_parent_id
JOIN users sp ON sp.id = r.secondary_parent_id`

// CreateChecked inserts a rotation after running the supplied check against
// the family's active rotations, all inside one transaction. The check
// callback is where the overlap guard runs; its error aborts the insert and
// nothing is written.
func (s *RotationStore) CreateChecked(ctx context.Context, rot *rotation.Rotation, check func(existing []rotation.Rotation) error) error {
	return s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		existing, err := queryRotations(ctx, tx, `
SELECT `+rotationColumns+rotationJoins+`
WHERE r.family_id = ? AND r.is_active = 1`, rot.FamilyID.String())
		if err != nil {
			return err
		}
		if err := check(existing); err != nil {
			return err
		}

		var endDate any
		if rot.End != nil {
			endDate = rot.End.String()
		}
		now := time.Now().UTC()
		rot.CreatedAt = now
		rot.UpdatedAt = now
		_, err = tx.ExecContext(ctx, `
INSERT INTO rotations (id, family_id, name, pattern_type, start_date, end_date,
	primary_parent_id, secondary_parent_id, is_active, created_by, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?, ?)`,
			rot.ID.String(), rot.FamilyID.String(), rot.Name, string(rot.Pattern),
			rot.Start.String(), endDate,
			rot.PrimaryParentID.String(), rot.SecondaryParentID.String(),
			rot.CreatedBy.String(), formatTimestamp(now), formatTimestamp(now))
		if err != nil {
			return fmt.Errorf("failed to insert rotation: %w", err)
		}
		return nil
	})
}

// ActiveByFamily returns the family's active rotations with parent display
// names resolved.
func (s *RotationStore) ActiveByFamily(ctx context.Context, familyID uuid.UUID) ([]rotation.Rotation, error) {
	return queryRotations(ctx, s.db.Conn(), `
SELECT `+rotationColumns+rotationJoins+`
WHERE r.family_id = ? AND r.is_active = 1
ORDER BY r.start_date`, familyID.String())
}

// ActiveByFamilies returns active rotations across several families.
func (s *RotationStore) ActiveByFamilies(ctx context.Context, familyIDs []uuid.UUID) ([]rotation.Rotation, error) {
	var all []rotation.Rotation
	for _, id := range familyIDs {
		rotations, err := s.ActiveByFamily(ctx, id)
		if err != nil {
			return nil, err
		}
		all = append(all, rotations...)
	}
	return all, nil
}

// GetByID returns one rotation (active or not), or nil when absent.
func (s *RotationStore) GetByID(ctx context.Context, id uuid.UUID) (*rotation.Rotation, error) {
	rotations, err := queryRotations(ctx, s.db.Conn(), `
SELECT `+rotationColumns+rotationJoins+`
WHERE r.id = ?`, id.String())
	if err != nil {
		return nil, err
	}
	if len(rotations) == 0 {
		return nil, nil
	}
	return &rotations[0], nil
}

// Deactivate soft-deletes a rotation: only is_active and updated_at change,
// every other field stays queryable forever. Returns false when no such
// rotation exists.
func (s *RotationStore) Deactivate(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.Conn().ExecContext(ctx, `
UPDATE rotations SET is_active = 0, updated_at = ?
WHERE id = ?`, formatTimestamp(time.Now()), id.String())
	if err != nil {
		return false, fmt.Errorf("failed to deactivate rotation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

type queryExecutor interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryRotations(ctx context.Context, q queryExecutor, query string, args ...any) ([]rotation.Rotation, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rotations: %w", err)
	}
	defer rows.Close()

	var rotations []rotation.Rotation
	for rows.Next() {
		r, err := scanRotation(rows)
		if err != nil {
			return nil, err
		}
		rotations = append(rotations, r)
	}
	return rotations, rows.Err()
}

func scanRotation(rows *sql.Rows) (rotation.Rotation, error) {
	var r rotation.Rotation
	var id, familyID, pattern, startDate, primaryID, secondaryID, createdBy string
	var endDate sql.NullString
	var active int
	var createdAt, updatedAt string

	err := rows.Scan(&id, &familyID, &r.Name, &pattern, &startDate, &endDate,
		&primaryID, &secondaryID, &r.PrimaryParentName, &r.SecondaryParentName,
		&active, &createdBy, &createdAt, &updatedAt)
	if err != nil {
		return r, fmt.Errorf("failed to scan rotation: %w", err)
	}

	if r.ID, err = uuid.Parse(id); err != nil {
		return r, fmt.Errorf("failed to parse rotation id: %w", err)
	}
	if r.FamilyID, err = uuid.Parse(familyID); err != nil {
		return r, fmt.Errorf("failed to parse family id: %w", err)
	}
	if r.PrimaryParentID, err = uuid.Parse(primaryID); err != nil {
		return r, fmt.Errorf("failed to parse primary parent id: %w", err)
	}
	if r.SecondaryParentID, err = uuid.Parse(secondaryID); err != nil {
		return r, fmt.Errorf("failed to parse secondary parent id: %w", err)
	}
	if r.CreatedBy, err = uuid.Parse(createdBy); err != nil {
		return r, fmt.Errorf("failed to parse creator id: %w", err)
	}
	r.Pattern = rotation.PatternType(pattern)
	if r.Start, err = dateutil.ParseDate(startDate); err != nil {
		return r, fmt.Errorf("failed to parse start date: %w", err)
	}
	if endDate.Valid {
		end, err := dateutil.ParseDate(endDate.String)
		if err != nil {
			return r, fmt.Errorf("failed to parse end date: %w", err)
		}
		r.End = &end
	}
	r.Active = active != 0
	if r.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return r, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if r.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return r, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return r, nil
}

// sqlTimeLayout is RFC3339 with a fixed-width nine-digit fraction. Instants
// are stored as TEXT and compared with plain string operators in SQL, so the
// encoding must sort lexically the way the instants sort temporally.
// RFC3339Nano drops trailing fractional zeros and breaks that within a
// second; this layout never does.
const sqlTimeLayout = "2006-01-02T15:04:05.000000000Z"

// formatTimestamp renders an instant for an instant column or for a SQL
// comparison against one.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(sqlTimeLayout)
}

// parseTimestamp accepts both the RFC3339 values this app writes and the
// CURRENT_TIMESTAMP format SQLite writes for column defaults.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
