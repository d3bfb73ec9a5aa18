// Package constants provides shared constants for the custodia application
package constants

// AppIdentifier is the unique identifier used to mark calendar entries
// produced by this application (iCal PRODID, feed metadata).
const AppIdentifier = "Custodia"

// MaxNotesLength bounds the free-text notes field on visitation events and
// swap requests.
const MaxNotesLength = 2000

// MaxNameLength bounds human-readable names (rotations, families).
const MaxNameLength = 200

// MaxRecurrenceOccurrences caps how many occurrences a single recurring
// visitation event may expand to inside one query window.
const MaxRecurrenceOccurrences = 400
