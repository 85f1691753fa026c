package turns

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

const turnCols = `id, pharmacy_id, user_id, user_name, user_document, turn_date,
	turn_number, status, request_type, requested_at, called_at, attended_at`

func (r *repoPG) Allocate(ctx context.Context, req AllocateRequest) (*Turn, error) {
	var turn *Turn
	err := db.RunInTx(ctx, r.pool, func(ctx context.Context) error {
		q := r.conn(ctx)

		// The row lock serializes allocations per pharmacy, which makes the
		// cap check and max+1 numbering race-free.
		var limit int
		err := q.QueryRow(ctx,
			`SELECT daily_digital_turn_limit FROM pharmacies WHERE id = $1 FOR UPDATE`,
			req.PharmacyID,
		).Scan(&limit)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrPharmacyNotFound
		}
		if err != nil {
			return err
		}

		var digitalCount, maxNumber int
		err = q.QueryRow(ctx, `
			SELECT COUNT(*) FILTER (WHERE request_type = 'digital'),
			       COALESCE(MAX(turn_number), 0)
			FROM turns
			WHERE pharmacy_id = $1 AND turn_date = CURRENT_DATE`,
			req.PharmacyID,
		).Scan(&digitalCount, &maxNumber)
		if err != nil {
			return err
		}
		if digitalCount >= limit {
			return ErrCapacityExceeded
		}

		t := &Turn{
			PharmacyID:   req.PharmacyID,
			UserID:       req.UserID,
			UserName:     req.UserName,
			UserDocument: req.UserDocument,
			TurnNumber:   maxNumber + 1,
			Status:       StatusPending,
			RequestType:  RequestTypeDigital,
		}
		err = q.QueryRow(ctx, `
			INSERT INTO turns (pharmacy_id, user_id, user_name, user_document,
				turn_date, turn_number, status, request_type)
			VALUES ($1, $2, $3, $4, CURRENT_DATE, $5, $6, $7)
			RETURNING id, turn_date, requested_at`,
			t.PharmacyID, t.UserID, t.UserName, t.UserDocument,
			t.TurnNumber, t.Status, t.RequestType,
		).Scan(&t.ID, &t.TurnDate, &t.RequestedAt)
		if err != nil {
			return err
		}
		turn = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return turn, nil
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Turn, error) {
	t, err := scanTurn(r.conn(ctx).QueryRow(ctx,
		`SELECT `+turnCols+` FROM turns WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTurnNotFound
	}
	return t, err
}

func (r *repoPG) UpdateStatus(ctx context.Context, id int64, from, to string) (*Turn, error) {
	// The status guard makes the transition atomic: the service validated the
	// move against $3, and the row only changes while it is still there.
	// COALESCE keeps the first stamp: a repeated 'called' or a later
	// cancellation never rewrites called_at.
	t, err := scanTurn(r.conn(ctx).QueryRow(ctx, `
		UPDATE turns SET
			status = $2,
			called_at = COALESCE(called_at, CASE WHEN $2 = 'called' THEN NOW() END),
			attended_at = COALESCE(attended_at, CASE WHEN $2 = 'attended' THEN NOW() END)
		WHERE id = $1 AND status = $3
		RETURNING `+turnCols, id, to, from))
	if errors.Is(err, pgx.ErrNoRows) {
		// No row matched: either the turn is gone or it already left the
		// from status under a concurrent update.
		var exists bool
		if err := r.conn(ctx).QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM turns WHERE id = $1)`, id,
		).Scan(&exists); err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrConflict
		}
		return nil, ErrTurnNotFound
	}
	return t, err
}

func (r *repoPG) ListToday(ctx context.Context, pharmacyID int64) ([]*Turn, error) {
	// Pending turns first in call order, then the already-handled ones with
	// the most recently called on top.
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+turnCols+`
		FROM turns
		WHERE pharmacy_id = $1 AND turn_date = CURRENT_DATE
		ORDER BY
			CASE WHEN status = 'pending' THEN 0 ELSE 1 END,
			CASE WHEN status = 'pending' THEN turn_number END ASC,
			CASE WHEN status <> 'pending' THEN called_at END DESC NULLS LAST`,
		pharmacyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []*Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(
			&t.ID, &t.PharmacyID, &t.UserID, &t.UserName, &t.UserDocument, &t.TurnDate,
			&t.TurnNumber, &t.Status, &t.RequestType, &t.RequestedAt, &t.CalledAt, &t.AttendedAt,
		); err != nil {
			return nil, err
		}
		turns = append(turns, &t)
	}
	return turns, rows.Err()
}

func scanTurn(row pgx.Row) (*Turn, error) {
	var t Turn
	err := row.Scan(
		&t.ID, &t.PharmacyID, &t.UserID, &t.UserName, &t.UserDocument, &t.TurnDate,
		&t.TurnNumber, &t.Status, &t.RequestType, &t.RequestedAt, &t.CalledAt, &t.AttendedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
