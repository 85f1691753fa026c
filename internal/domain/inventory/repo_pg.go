package inventory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/farmaconnect/farmaconnect/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *repoPG) Dispense(ctx context.Context, req DispenseRequest) error {
	return db.RunInTx(ctx, r.pool, func(ctx context.Context) error {
		q := r.conn(ctx)

		// Conditional decrement: the stock guard in the WHERE clause makes
		// concurrent dispenses safe without an explicit row lock.
		tag, err := q.Exec(ctx, `
			UPDATE inventory
			SET current_stock = current_stock - $3, last_updated = NOW()
			WHERE pharmacy_id = $1 AND medication_code = $2 AND current_stock >= $3`,
			req.PharmacyID, req.MedicationCode, req.Quantity)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return r.decrementFailure(ctx, req.PharmacyID, req.MedicationCode)
		}

		_, err = q.Exec(ctx, `
			INSERT INTO inventory_transactions
				(pharmacy_id, medication_code, transaction_type, quantity, batch_number, operator_id)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			req.PharmacyID, req.MedicationCode, TxTypeDispensed, req.Quantity, req.BatchNumber, req.OperatorID)
		if err != nil {
			return err
		}

		// First dispense of the day seeds the metric at 1.0; each further
		// dispense adds 0.1, clamped at 10.0.
		_, err = q.Exec(ctx, `
			INSERT INTO demand_metrics (pharmacy_id, medication_code, date, request_count, dispensed_count, demand_score)
			VALUES ($1, $2, CURRENT_DATE, 0, 1, 1.0)
			ON CONFLICT (pharmacy_id, medication_code, date) DO UPDATE SET
				dispensed_count = demand_metrics.dispensed_count + 1,
				demand_score = LEAST(10.0, demand_metrics.demand_score + 0.1)`,
			req.PharmacyID, req.MedicationCode)
		return err
	})
}

func (r *repoPG) Restock(ctx context.Context, req DispenseRequest) error {
	return db.RunInTx(ctx, r.pool, func(ctx context.Context) error {
		q := r.conn(ctx)

		tag, err := q.Exec(ctx, `
			UPDATE inventory
			SET current_stock = current_stock + $3, last_updated = NOW()
			WHERE pharmacy_id = $1 AND medication_code = $2`,
			req.PharmacyID, req.MedicationCode, req.Quantity)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrInventoryNotFound
		}

		_, err = q.Exec(ctx, `
			INSERT INTO inventory_transactions
				(pharmacy_id, medication_code, transaction_type, quantity, batch_number, operator_id)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			req.PharmacyID, req.MedicationCode, TxTypeRestocked, req.Quantity, req.BatchNumber, req.OperatorID)
		return err
	})
}

func (r *repoPG) Adjust(ctx context.Context, pharmacyID int64, medicationCode string, delta int, operatorID *string) error {
	return db.RunInTx(ctx, r.pool, func(ctx context.Context) error {
		q := r.conn(ctx)

		tag, err := q.Exec(ctx, `
			UPDATE inventory
			SET current_stock = current_stock + $3, last_updated = NOW()
			WHERE pharmacy_id = $1 AND medication_code = $2 AND current_stock + $3 >= 0`,
			pharmacyID, medicationCode, delta)
		if err != nil {
			if db.IsCheckViolation(err) {
				return ErrInsufficientStock
			}
			return err
		}
		if tag.RowsAffected() == 0 {
			return r.decrementFailure(ctx, pharmacyID, medicationCode)
		}

		_, err = q.Exec(ctx, `
			INSERT INTO inventory_transactions
				(pharmacy_id, medication_code, transaction_type, quantity, operator_id)
			VALUES ($1, $2, $3, $4, $5)`,
			pharmacyID, medicationCode, TxTypeAdjustment, delta, operatorID)
		return err
	})
}

// decrementFailure distinguishes a guarded update that matched no rows:
// either the inventory record is missing or the stock is too low.
func (r *repoPG) decrementFailure(ctx context.Context, pharmacyID int64, medicationCode string) error {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM inventory WHERE pharmacy_id = $1 AND medication_code = $2)`,
		pharmacyID, medicationCode,
	).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return ErrInsufficientStock
	}
	return ErrInventoryNotFound
}

func (r *repoPG) UpsertItem(ctx context.Context, item *Item) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO inventory (pharmacy_id, medication_code, current_stock, min_threshold)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (pharmacy_id, medication_code) DO UPDATE SET
			current_stock = EXCLUDED.current_stock,
			min_threshold = EXCLUDED.min_threshold,
			last_updated = NOW()
		RETURNING id, last_updated`,
		item.PharmacyID, item.MedicationCode, item.CurrentStock, item.MinThreshold,
	).Scan(&item.ID, &item.LastUpdated)
}

func (r *repoPG) GetItem(ctx context.Context, pharmacyID int64, medicationCode string) (*Item, error) {
	var item Item
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, pharmacy_id, medication_code, current_stock, min_threshold, last_updated
		FROM inventory WHERE pharmacy_id = $1 AND medication_code = $2`,
		pharmacyID, medicationCode,
	).Scan(&item.ID, &item.PharmacyID, &item.MedicationCode, &item.CurrentStock, &item.MinThreshold, &item.LastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInventoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repoPG) ListByPharmacy(ctx context.Context, pharmacyID int64) ([]*View, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT i.medication_code, m.name, i.current_stock, i.min_threshold, i.last_updated,
		       COALESCE(dm.demand_score, 0), COALESCE(dm.dispensed_count, 0)
		FROM inventory i
		JOIN medications m ON m.code = i.medication_code
		LEFT JOIN demand_metrics dm
		  ON dm.pharmacy_id = i.pharmacy_id
		 AND dm.medication_code = i.medication_code
		 AND dm.date = CURRENT_DATE
		WHERE i.pharmacy_id = $1
		ORDER BY m.name`,
		pharmacyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []*View
	for rows.Next() {
		var v View
		if err := rows.Scan(&v.MedicationCode, &v.MedicationName, &v.CurrentStock, &v.MinThreshold,
			&v.LastUpdated, &v.DemandScore, &v.DispensedToday); err != nil {
			return nil, err
		}
		v.Status = StockStatus(v.CurrentStock, v.MinThreshold)
		views = append(views, &v)
	}
	return views, rows.Err()
}

func (r *repoPG) ListTransactions(ctx context.Context, pharmacyID int64, limit, offset int) ([]*Transaction, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM inventory_transactions WHERE pharmacy_id = $1`, pharmacyID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, pharmacy_id, medication_code, transaction_type, quantity, batch_number, operator_id, created_at
		FROM inventory_transactions
		WHERE pharmacy_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`,
		pharmacyID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var txns []*Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.PharmacyID, &t.MedicationCode, &t.TransactionType,
			&t.Quantity, &t.BatchNumber, &t.OperatorID, &t.CreatedAt); err != nil {
			return nil, 0, err
		}
		txns = append(txns, &t)
	}
	return txns, total, rows.Err()
}
