package inventory

import "context"

// DispenseRequest carries the fields of a dispense operation, matching the
// scan-at-the-counter flow: a code scan, a quantity and the operator.
type DispenseRequest struct {
	PharmacyID     int64
	MedicationCode string
	Quantity       int
	BatchNumber    *string
	OperatorID     *string
}

type Repository interface {
	// Dispense runs the whole dispense in one transaction: conditional
	// decrement (never below zero), ledger append and demand metric upsert.
	// On ErrInsufficientStock or ErrInventoryNotFound nothing is written.
	Dispense(ctx context.Context, req DispenseRequest) error
	// Restock increments stock and appends a restocked ledger row.
	Restock(ctx context.Context, req DispenseRequest) error
	// Adjust applies a signed correction; it fails with ErrInsufficientStock
	// if the delta would take stock below zero.
	Adjust(ctx context.Context, pharmacyID int64, medicationCode string, delta int, operatorID *string) error

	UpsertItem(ctx context.Context, item *Item) error
	GetItem(ctx context.Context, pharmacyID int64, medicationCode string) (*Item, error)
	ListByPharmacy(ctx context.Context, pharmacyID int64) ([]*View, error)
	ListTransactions(ctx context.Context, pharmacyID int64, limit, offset int) ([]*Transaction, int, error)
}
