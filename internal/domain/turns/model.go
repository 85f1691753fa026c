package turns

import "time"

// Turn statuses. A turn moves forward only: pending -> called -> attended,
// with cancellation allowed from pending and called. attended and cancelled
// are terminal.
const (
	StatusPending   = "pending"
	StatusCalled    = "called"
	StatusAttended  = "attended"
	StatusCancelled = "cancelled"
)

// Request types. Digital turns count against the pharmacy's daily cap;
// physical turns are walk-ins entered at the counter and are uncapped.
const (
	RequestTypeDigital  = "digital"
	RequestTypePhysical = "physical"
)

// Turn maps to the turns table. turn_number is unique per pharmacy per day
// and restarts at 1 each day.
type Turn struct {
	ID           int64      `db:"id" json:"id"`
	PharmacyID   int64      `db:"pharmacy_id" json:"pharmacy_id"`
	UserID       *int64     `db:"user_id" json:"user_id,omitempty"`
	UserName     string     `db:"user_name" json:"user_name"`
	UserDocument *string    `db:"user_document" json:"user_document,omitempty"`
	TurnDate     time.Time  `db:"turn_date" json:"turn_date"`
	TurnNumber   int        `db:"turn_number" json:"turn_number"`
	Status       string     `db:"status" json:"status"`
	RequestType  string     `db:"request_type" json:"request_type"`
	RequestedAt  time.Time  `db:"requested_at" json:"requested_at"`
	CalledAt     *time.Time `db:"called_at" json:"called_at,omitempty"`
	AttendedAt   *time.Time `db:"attended_at" json:"attended_at,omitempty"`
}

// QueueLess is the display order of a pharmacy's daily queue: pending turns
// first in call order (ascending turn_number), then the already-handled ones
// with the most recently called on top (descending called_at, never-called
// last). ListToday's SQL mirrors this comparator.
func QueueLess(a, b *Turn) bool {
	aPending := a.Status == StatusPending
	bPending := b.Status == StatusPending
	if aPending != bPending {
		return aPending
	}
	if aPending {
		return a.TurnNumber < b.TurnNumber
	}
	switch {
	case a.CalledAt == nil && b.CalledAt == nil:
		return false
	case a.CalledAt == nil:
		return false
	case b.CalledAt == nil:
		return true
	}
	return a.CalledAt.After(*b.CalledAt)
}

// ValidStatus reports whether s is a known turn status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusCalled, StatusAttended, StatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether a turn may move from one status to another.
// Setting the same status again is allowed (a no-op at the service level).
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	switch from {
	case StatusPending:
		return to == StatusCalled || to == StatusCancelled
	case StatusCalled:
		return to == StatusAttended || to == StatusCancelled
	}
	return false
}
