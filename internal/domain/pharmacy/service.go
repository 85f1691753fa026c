package pharmacy

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

var (
	ErrPharmacyNotFound    = errors.New("pharmacy not found")
	ErrMedicationNotFound  = errors.New("medication not found")
	ErrDuplicateMedication = errors.New("medication code already exists")
)

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) Create(ctx context.Context, p *Pharmacy) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.DailyDigitalTurnLimit == 0 {
		p.DailyDigitalTurnLimit = DefaultDailyTurnLimit
	}
	if p.DailyDigitalTurnLimit < 1 {
		return fmt.Errorf("daily_digital_turn_limit must be positive")
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return err
	}
	s.logger.Info().
		Int64("pharmacy_id", p.ID).
		Str("name", p.Name).
		Int("daily_digital_turn_limit", p.DailyDigitalTurnLimit).
		Msg("pharmacy created")
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Pharmacy, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Pharmacy, error) {
	return s.repo.List(ctx)
}

func (s *Service) CreateMedication(ctx context.Context, m *Medication) error {
	if m.Code == "" {
		return fmt.Errorf("code is required")
	}
	if m.Name == "" {
		return fmt.Errorf("name is required")
	}
	if err := s.repo.CreateMedication(ctx, m); err != nil {
		return err
	}
	s.logger.Info().
		Str("code", m.Code).
		Str("name", m.Name).
		Msg("medication created")
	return nil
}

func (s *Service) GetMedication(ctx context.Context, code string) (*Medication, error) {
	return s.repo.GetMedication(ctx, code)
}

func (s *Service) ListMedications(ctx context.Context) ([]*Medication, error) {
	return s.repo.ListMedications(ctx)
}
