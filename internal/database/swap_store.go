package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-app/custodia/internal/visitation"
)

// ErrSwapResolved is returned when approving or rejecting a swap request
// that has already been resolved.
var ErrSwapResolved = fmt.Errorf("swap request already resolved")

// SwapStore handles swap request rows in SQLite.
type SwapStore struct {
	db *DB
}

// NewSwapStore creates a new swap store
func NewSwapStore(db *DB) *SwapStore {
	return &SwapStore{db: db}
}

const swapColumns = `
id, event_id, family_id, requested_by, new_start_time, new_end_time,
status, notes, resolved_by, resolved_at, created_at`

// Create inserts a pending swap request.
func (s *SwapStore) Create(ctx context.Context, req *visitation.SwapRequest) error {
	now := time.Now().UTC()
	req.Status = visitation.SwapPending
	req.CreatedAt = now
	_, err := s.db.Conn().ExecContext(ctx, `
INSERT INTO swap_requests (id, event_id, family_id, requested_by, new_start_time, new_end_time, status, notes, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID.String(), req.EventID.String(), req.FamilyID.String(), req.RequestedBy.String(),
		formatTimestamp(req.ProposedStart), formatTimestamp(req.ProposedEnd),
		string(visitation.SwapPending), req.Reason, formatTimestamp(now))
	if err != nil {
		return fmt.Errorf("failed to insert swap request: %w", err)
	}
	return nil
}

// GetByID returns one swap request, or nil when absent.
func (s *SwapStore) GetByID(ctx context.Context, id uuid.UUID) (*visitation.SwapRequest, error) {
	return s.getByID(ctx, s.db.Conn(), id)
}

// ByFamily returns the family's swap requests, newest first.
func (s *SwapStore) ByFamily(ctx context.Context, familyID uuid.UUID) ([]visitation.SwapRequest, error) {
	return querySwaps(ctx, s.db.Conn(), `
SELECT `+swapColumns+` FROM swap_requests WHERE family_id = ? ORDER BY created_at DESC`,
		familyID.String())
}

// Approve resolves a pending swap and moves its event to the proposed span,
// all in one transaction. The check callback runs the overlap guard against
// the event as it would look after the move, seen next to the child's other
// events; its error aborts everything and the request stays pending.
func (s *SwapStore) Approve(ctx context.Context, swapID, resolvedBy uuid.UUID, check func(moved visitation.Event, others []visitation.Event) error) (*visitation.Event, error) {
	var moved *visitation.Event
	err := s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		req, err := s.getByID(ctx, tx, swapID)
		if err != nil {
			return err
		}
		if req == nil {
			return sql.ErrNoRows
		}
		if !req.Pending() {
			return ErrSwapResolved
		}

		events, err := queryEvents(ctx, tx, `
SELECT `+eventColumns+` FROM visitation_events WHERE id = ?`, req.EventID.String())
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return sql.ErrNoRows
		}
		ev := events[0]

		others, err := queryEvents(ctx, tx, `
SELECT `+eventColumns+` FROM visitation_events WHERE child_id = ? AND id <> ?`,
			ev.ChildID.String(), ev.ID.String())
		if err != nil {
			return err
		}

		ev.Start = req.ProposedStart
		ev.End = req.ProposedEnd
		if err := check(ev, others); err != nil {
			return err
		}

		now := time.Now().UTC()
		ev.UpdatedAt = now
		_, err = tx.ExecContext(ctx, `
UPDATE visitation_events SET start_time = ?, end_time = ?, updated_at = ? WHERE id = ?`,
			formatTimestamp(ev.Start), formatTimestamp(ev.End),
			formatTimestamp(now), ev.ID.String())
		if err != nil {
			return fmt.Errorf("failed to move event: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
UPDATE swap_requests SET status = ?, resolved_by = ?, resolved_at = ? WHERE id = ?`,
			string(visitation.SwapApproved), resolvedBy.String(),
			formatTimestamp(now), swapID.String())
		if err != nil {
			return fmt.Errorf("failed to resolve swap request: %w", err)
		}
		moved = &ev
		return nil
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}

// Reject resolves a pending swap without touching its event.
func (s *SwapStore) Reject(ctx context.Context, swapID, resolvedBy uuid.UUID) error {
	return s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		req, err := s.getByID(ctx, tx, swapID)
		if err != nil {
			return err
		}
		if req == nil {
			return sql.ErrNoRows
		}
		if !req.Pending() {
			return ErrSwapResolved
		}
		_, err = tx.ExecContext(ctx, `
UPDATE swap_requests SET status = ?, resolved_by = ?, resolved_at = ? WHERE id = ?`,
			string(visitation.SwapRejected), resolvedBy.String(),
			formatTimestamp(time.Now()), swapID.String())
		if err != nil {
			return fmt.Errorf("failed to resolve swap request: %w", err)
		}
		return nil
	})
}

func (s *SwapStore) getByID(ctx context.Context, q queryExecutor, id uuid.UUID) (*visitation.SwapRequest, error) {
	swaps, err := querySwaps(ctx, q, `
SELECT `+swapColumns+` FROM swap_requests WHERE id = ?`, id.String())
	if err != nil {
		return nil, err
	}
	if len(swaps) == 0 {
		return nil, nil
	}
	return &swaps[0], nil
}

func querySwaps(ctx context.Context, q queryExecutor, query string, args ...any) ([]visitation.SwapRequest, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query swap requests: %w", err)
	}
	defer rows.Close()

	var swaps []visitation.SwapRequest
	for rows.Next() {
		req, err := scanSwap(rows)
		if err != nil {
			return nil, err
		}
		swaps = append(swaps, req)
	}
	return swaps, rows.Err()
}

func scanSwap(rows *sql.Rows) (visitation.SwapRequest, error) {
	var req visitation.SwapRequest
	var id, eventID, familyID, requestedBy, status string
	var newStart, newEnd, createdAt string
	var resolvedBy, resolvedAt sql.NullString

	err := rows.Scan(&id, &eventID, &familyID, &requestedBy, &newStart, &newEnd,
		&status, &req.Reason, &resolvedBy, &resolvedAt, &createdAt)
	if err != nil {
		return req, fmt.Errorf("failed to scan swap request: %w", err)
	}

	if req.ID, err = uuid.Parse(id); err != nil {
		return req, fmt.Errorf("failed to parse swap id: %w", err)
	}
	if req.EventID, err = uuid.Parse(eventID); err != nil {
		return req, fmt.Errorf("failed to parse event id: %w", err)
	}
	if req.FamilyID, err = uuid.Parse(familyID); err != nil {
		return req, fmt.Errorf("failed to parse family id: %w", err)
	}
	if req.RequestedBy, err = uuid.Parse(requestedBy); err != nil {
		return req, fmt.Errorf("failed to parse requester id: %w", err)
	}
	if req.ProposedStart, err = parseTimestamp(newStart); err != nil {
		return req, fmt.Errorf("failed to parse proposed start: %w", err)
	}
	if req.ProposedEnd, err = parseTimestamp(newEnd); err != nil {
		return req, fmt.Errorf("failed to parse proposed end: %w", err)
	}
	req.Status = visitation.SwapStatus(status)
	if resolvedBy.Valid {
		r, err := uuid.Parse(resolvedBy.String)
		if err != nil {
			return req, fmt.Errorf("failed to parse resolver id: %w", err)
		}
		req.ResolvedBy = &r
	}
	if resolvedAt.Valid {
		t, err := parseTimestamp(resolvedAt.String)
		if err != nil {
			return req, fmt.Errorf("failed to parse resolved_at: %w", err)
		}
		req.ResolvedAt = &t
	}
	if req.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return req, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return req, nil
}
