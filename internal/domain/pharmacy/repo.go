package pharmacy

import "context"

type Repository interface {
	Create(ctx context.Context, p *Pharmacy) error
	GetByID(ctx context.Context, id int64) (*Pharmacy, error)
	List(ctx context.Context) ([]*Pharmacy, error)

	CreateMedication(ctx context.Context, m *Medication) error
	GetMedication(ctx context.Context, code string) (*Medication, error)
	ListMedications(ctx context.Context) ([]*Medication, error)
}
