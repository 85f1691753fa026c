package inventory

import "time"

// Stock statuses, derived at read time and never stored.
const (
	StatusAvailable  = "available"
	StatusLowStock   = "low_stock"
	StatusOutOfStock = "out_of_stock"
)

// Transaction types recorded in the append-only ledger.
const (
	TxTypeDispensed  = "dispensed"
	TxTypeRestocked  = "restocked"
	TxTypeAdjustment = "adjustment"
)

// StockStatus derives the availability status from the current stock level
// and the low-stock threshold.
func StockStatus(currentStock, minThreshold int) string {
	switch {
	case currentStock == 0:
		return StatusOutOfStock
	case currentStock <= minThreshold:
		return StatusLowStock
	default:
		return StatusAvailable
	}
}

// Item maps to the inventory table: one row per pharmacy per medication.
type Item struct {
	ID             int64     `db:"id" json:"id"`
	PharmacyID     int64     `db:"pharmacy_id" json:"pharmacy_id"`
	MedicationCode string    `db:"medication_code" json:"medication_code"`
	CurrentStock   int       `db:"current_stock" json:"current_stock"`
	MinThreshold   int       `db:"min_threshold" json:"min_threshold"`
	LastUpdated    time.Time `db:"last_updated" json:"last_updated"`
}

// Transaction maps to the inventory_transactions table.
type Transaction struct {
	ID              int64     `db:"id" json:"id"`
	PharmacyID      int64     `db:"pharmacy_id" json:"pharmacy_id"`
	MedicationCode  string    `db:"medication_code" json:"medication_code"`
	TransactionType string    `db:"transaction_type" json:"transaction_type"`
	Quantity        int       `db:"quantity" json:"quantity"`
	BatchNumber     *string   `db:"batch_number" json:"batch_number,omitempty"`
	OperatorID      *string   `db:"operator_id" json:"operator_id,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// View is the read model served to pharmacy inventory screens: inventory
// joined with the medication catalog and today's demand metric.
type View struct {
	MedicationCode string    `json:"medication_code"`
	MedicationName string    `json:"medication_name"`
	CurrentStock   int       `json:"current_stock"`
	MinThreshold   int       `json:"min_threshold"`
	Status         string    `json:"status"`
	DemandScore    float64   `json:"demand_score"`
	DispensedToday int       `json:"dispensed_today"`
	LastUpdated    time.Time `json:"last_updated"`
}
