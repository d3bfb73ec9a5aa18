package rotation

import (
	"time"

	"github.com/google/uuid"

	"github.com/custodia-app/custodia/internal/dateutil"
)

// Rotation is a persisted custody rotation for one family. End is nil for an
// open-ended rotation. Rotations are never hard-deleted or edited after
// creation; "delete" flips Active to false and keeps the row for audit.
type Rotation struct {
	ID                  uuid.UUID
	FamilyID            uuid.UUID
	Name                string
	Pattern             PatternType
	Start               dateutil.Date
	End                 *dateutil.Date
	PrimaryParentID     uuid.UUID
	SecondaryParentID   uuid.UUID
	PrimaryParentName   string
	SecondaryParentName string
	Active              bool
	CreatedBy           uuid.UUID
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Span returns the rotation's date span for overlap checks.
func (r Rotation) Span() Span {
	return Span{Start: r.Start, End: r.End}
}

// ParentFor returns the id and display name assigned to the given custodian
// label.
func (r Rotation) ParentFor(c Custodian) (uuid.UUID, string) {
	if c == Primary {
		return r.PrimaryParentID, r.PrimaryParentName
	}
	return r.SecondaryParentID, r.SecondaryParentName
}
