package turns

import "context"

// AllocateRequest carries the fields of a digital turn request.
type AllocateRequest struct {
	PharmacyID   int64
	UserID       *int64
	UserName     string
	UserDocument *string
}

type Repository interface {
	// Allocate runs the whole allocation in one transaction: it locks the
	// pharmacy row, checks today's digital count against the cap, assigns
	// max(turn_number)+1 and inserts. Returns ErrPharmacyNotFound or
	// ErrCapacityExceeded with nothing written.
	Allocate(ctx context.Context, req AllocateRequest) (*Turn, error)
	GetByID(ctx context.Context, id int64) (*Turn, error)
	// UpdateStatus persists a status change, stamping called_at/attended_at
	// on first entry into called/attended and never overwriting them. The
	// update only applies while the turn is still in the from status; if a
	// concurrent operator moved it first, ErrConflict is returned.
	UpdateStatus(ctx context.Context, id int64, from, to string) (*Turn, error)
	ListToday(ctx context.Context, pharmacyID int64) ([]*Turn, error)
}
