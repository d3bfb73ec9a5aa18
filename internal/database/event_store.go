package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-app/custodia/internal/visitation"
)

// EventStore handles visitation event rows in SQLite.
type EventStore struct {
	db *DB
}

// NewEventStore creates a new event store
func NewEventStore(db *DB) *EventStore {
	return &EventStore{db: db}
}

const eventColumns = `
id, family_id, child_id, parent_id, start_time, end_time,
is_recurring, recurrence_rule, is_holiday_exception, notes,
created_by, created_at, updated_at`

// CreateChecked inserts an event after running the supplied check against the
// child's existing events, all inside one transaction so a concurrent insert
// cannot slip between the check and the write.
func (s *EventStore) CreateChecked(ctx context.Context, ev *visitation.Event, check func(existing []visitation.Event) error) error {
	return s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		existing, err := queryEvents(ctx, tx, `
SELECT `+eventColumns+` FROM visitation_events WHERE child_id = ?`, ev.ChildID.String())
		if err != nil {
			return err
		}
		if err := check(existing); err != nil {
			return err
		}

		rule, err := encodeRecurrence(ev.Recurrence)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		ev.CreatedAt = now
		ev.UpdatedAt = now
		_, err = tx.ExecContext(ctx, `
INSERT INTO visitation_events (`+eventColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			ev.ID.String(), ev.FamilyID.String(), ev.ChildID.String(), ev.ParentID.String(),
			formatTimestamp(ev.Start), formatTimestamp(ev.End),
			boolToInt(ev.Recurring), rule, boolToInt(ev.HolidayException), ev.Notes,
			ev.CreatedBy.String(), formatTimestamp(now), formatTimestamp(now))
		if err != nil {
			return fmt.Errorf("failed to insert event: %w", err)
		}
		return nil
	})
}

// UpdateChecked rewrites an event's mutable fields after running the check
// against the child's other events, atomically. The check sees the stored
// state minus the event itself, which is how an update avoids conflicting
// with its own old time span.
func (s *EventStore) UpdateChecked(ctx context.Context, ev *visitation.Event, check func(existing []visitation.Event) error) error {
	return s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		existing, err := queryEvents(ctx, tx, `
SELECT `+eventColumns+` FROM visitation_events WHERE child_id = ? AND id <> ?`,
			ev.ChildID.String(), ev.ID.String())
		if err != nil {
			return err
		}
		if err := check(existing); err != nil {
			return err
		}

		rule, err := encodeRecurrence(ev.Recurrence)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		ev.UpdatedAt = now
		res, err := tx.ExecContext(ctx, `
UPDATE visitation_events
SET child_id = ?, parent_id = ?, start_time = ?, end_time = ?,
	is_recurring = ?, recurrence_rule = ?, is_holiday_exception = ?, notes = ?, updated_at = ?
WHERE id = ?`,
			ev.ChildID.String(), ev.ParentID.String(),
			formatTimestamp(ev.Start), formatTimestamp(ev.End),
			boolToInt(ev.Recurring), rule, boolToInt(ev.HolidayException), ev.Notes,
			formatTimestamp(now), ev.ID.String())
		if err != nil {
			return fmt.Errorf("failed to update event: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		if n == 0 {
			return sql.ErrNoRows
		}
		return nil
	})
}

// GetByID returns one event, or nil when absent.
func (s *EventStore) GetByID(ctx context.Context, id uuid.UUID) (*visitation.Event, error) {
	events, err := queryEvents(ctx, s.db.Conn(), `
SELECT `+eventColumns+` FROM visitation_events WHERE id = ?`, id.String())
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}
	return &events[0], nil
}

// ByChild returns every stored event for one child, recurring bases included.
func (s *EventStore) ByChild(ctx context.Context, childID uuid.UUID) ([]visitation.Event, error) {
	return queryEvents(ctx, s.db.Conn(), `
SELECT `+eventColumns+` FROM visitation_events WHERE child_id = ? ORDER BY start_time`,
		childID.String())
}

// ByFamilyWindow returns the family's events whose base interval intersects
// the half-open window, plus every recurring event regardless of its base
// span since occurrences may land inside the window.
func (s *EventStore) ByFamilyWindow(ctx context.Context, familyID uuid.UUID, windowStart, windowEnd time.Time) ([]visitation.Event, error) {
	return queryEvents(ctx, s.db.Conn(), `
SELECT `+eventColumns+` FROM visitation_events
WHERE family_id = ? AND (is_recurring = 1 OR (start_time < ? AND ? < end_time))
ORDER BY start_time`,
		familyID.String(),
		formatTimestamp(windowEnd), formatTimestamp(windowStart))
}

// Delete hard-deletes an event. Swap requests for it go with it via the
// foreign key cascade. Returns false when no such event exists.
func (s *EventStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.Conn().ExecContext(ctx, `DELETE FROM visitation_events WHERE id = ?`, id.String())
	if err != nil {
		return false, fmt.Errorf("failed to delete event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

func encodeRecurrence(r *visitation.Recurrence) (any, error) {
	if r == nil {
		return nil, nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode recurrence rule: %w", err)
	}
	return string(b), nil
}

func queryEvents(ctx context.Context, q queryExecutor, query string, args ...any) ([]visitation.Event, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []visitation.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func scanEvent(rows *sql.Rows) (visitation.Event, error) {
	var ev visitation.Event
	var id, familyID, childID, parentID, createdBy string
	var startTime, endTime, createdAt, updatedAt string
	var recurring, holiday int
	var rule sql.NullString

	err := rows.Scan(&id, &familyID, &childID, &parentID, &startTime, &endTime,
		&recurring, &rule, &holiday, &ev.Notes, &createdBy, &createdAt, &updatedAt)
	if err != nil {
		return ev, fmt.Errorf("failed to scan event: %w", err)
	}

	if ev.ID, err = uuid.Parse(id); err != nil {
		return ev, fmt.Errorf("failed to parse event id: %w", err)
	}
	if ev.FamilyID, err = uuid.Parse(familyID); err != nil {
		return ev, fmt.Errorf("failed to parse family id: %w", err)
	}
	if ev.ChildID, err = uuid.Parse(childID); err != nil {
		return ev, fmt.Errorf("failed to parse child id: %w", err)
	}
	if ev.ParentID, err = uuid.Parse(parentID); err != nil {
		return ev, fmt.Errorf("failed to parse parent id: %w", err)
	}
	if ev.CreatedBy, err = uuid.Parse(createdBy); err != nil {
		return ev, fmt.Errorf("failed to parse creator id: %w", err)
	}
	if ev.Start, err = parseTimestamp(startTime); err != nil {
		return ev, fmt.Errorf("failed to parse start time: %w", err)
	}
	if ev.End, err = parseTimestamp(endTime); err != nil {
		return ev, fmt.Errorf("failed to parse end time: %w", err)
	}
	ev.Recurring = recurring != 0
	ev.HolidayException = holiday != 0
	if rule.Valid && rule.String != "" {
		var rec visitation.Recurrence
		if err := json.Unmarshal([]byte(rule.String), &rec); err != nil {
			return ev, fmt.Errorf("failed to decode recurrence rule: %w", err)
		}
		ev.Recurrence = &rec
	}
	if ev.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return ev, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if ev.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return ev, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return ev, nil
}
