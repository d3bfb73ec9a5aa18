package visitation

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-app/custodia/internal/constants"
)

// SwapStatus is the lifecycle state of a swap request.
type SwapStatus string

const (
	SwapPending  SwapStatus = "pending"
	SwapApproved SwapStatus = "approved"
	SwapRejected SwapStatus = "rejected"
)

// IsValid reports whether s names a known status.
func (s SwapStatus) IsValid() bool {
	return s == SwapPending || s == SwapApproved || s == SwapRejected
}

// SwapRequest is one parent's proposal to move an existing visitation event
// to a different time span. Approval rewrites the event; rejection leaves it
// untouched. Either way the request row keeps the outcome.
type SwapRequest struct {
	ID            uuid.UUID
	FamilyID      uuid.UUID
	EventID       uuid.UUID
	RequestedBy   uuid.UUID
	ProposedStart time.Time
	ProposedEnd   time.Time
	Reason        string
	Status        SwapStatus
	ResolvedBy    *uuid.UUID
	ResolvedAt    *time.Time
	CreatedAt     time.Time
}

// Validate checks the request's field-level invariants.
func (r SwapRequest) Validate() error {
	if !r.ProposedEnd.After(r.ProposedStart) {
		return fmt.Errorf("proposed end %s must be after start %s",
			r.ProposedEnd.Format(time.RFC3339), r.ProposedStart.Format(time.RFC3339))
	}
	if len(r.Reason) > constants.MaxNotesLength {
		return fmt.Errorf("reason exceeds %d characters", constants.MaxNotesLength)
	}
	return nil
}

// Pending reports whether the request can still be resolved.
func (r SwapRequest) Pending() bool {
	return r.Status == SwapPending
}
