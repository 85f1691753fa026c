package pharmacy

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

const pharmacyCols = `id, name, address, phone, daily_digital_turn_limit, created_at`

func (r *repoPG) Create(ctx context.Context, p *Pharmacy) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO pharmacies (name, address, phone, daily_digital_turn_limit)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		p.Name, p.Address, p.Phone, p.DailyDigitalTurnLimit,
	).Scan(&p.ID, &p.CreatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Pharmacy, error) {
	var p Pharmacy
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+pharmacyCols+` FROM pharmacies WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Address, &p.Phone, &p.DailyDigitalTurnLimit, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPharmacyNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repoPG) List(ctx context.Context) ([]*Pharmacy, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+pharmacyCols+` FROM pharmacies ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pharmacies []*Pharmacy
	for rows.Next() {
		var p Pharmacy
		if err := rows.Scan(&p.ID, &p.Name, &p.Address, &p.Phone, &p.DailyDigitalTurnLimit, &p.CreatedAt); err != nil {
			return nil, err
		}
		pharmacies = append(pharmacies, &p)
	}
	return pharmacies, rows.Err()
}

func (r *repoPG) CreateMedication(ctx context.Context, m *Medication) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO medications (code, name, description)
		VALUES ($1, $2, $3)
		RETURNING created_at`,
		m.Code, m.Name, m.Description,
	).Scan(&m.CreatedAt)
	if db.IsUniqueViolation(err) {
		return ErrDuplicateMedication
	}
	return err
}

func (r *repoPG) GetMedication(ctx context.Context, code string) (*Medication, error) {
	var m Medication
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT code, name, description, created_at FROM medications WHERE code = $1`, code,
	).Scan(&m.Code, &m.Name, &m.Description, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMedicationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *repoPG) ListMedications(ctx context.Context) ([]*Medication, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT code, name, description, created_at FROM medications ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meds []*Medication
	for rows.Next() {
		var m Medication
		if err := rows.Scan(&m.Code, &m.Name, &m.Description, &m.CreatedAt); err != nil {
			return nil, err
		}
		meds = append(meds, &m)
	}
	return meds, rows.Err()
}
