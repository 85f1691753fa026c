package pharmacy

import "time"

// DefaultDailyTurnLimit is applied when an administrator creates a pharmacy
// without an explicit digital turn cap.
const DefaultDailyTurnLimit = 50

// Pharmacy maps to the pharmacies table.
type Pharmacy struct {
	ID                    int64     `db:"id" json:"id"`
	Name                  string    `db:"name" json:"name"`
	Address               *string   `db:"address" json:"address,omitempty"`
	Phone                 *string   `db:"phone" json:"phone,omitempty"`
	DailyDigitalTurnLimit int       `db:"daily_digital_turn_limit" json:"daily_digital_turn_limit"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
}

// Medication maps to the medications table. The code is the scannable
// identifier printed on the package and is the primary key.
type Medication struct {
	Code        string    `db:"code" json:"code"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
