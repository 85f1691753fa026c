package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/farmaconnect/farmaconnect/internal/platform/websocket"
)

var (
	ErrInventoryNotFound = errors.New("inventory record not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type Service struct {
	repo   Repository
	pub    websocket.EventPublisher
	logger zerolog.Logger
}

// NewService wires the inventory ledger. pub may be nil when no real-time
// fan-out is attached.
func NewService(repo Repository, pub websocket.EventPublisher, logger zerolog.Logger) *Service {
	return &Service{repo: repo, pub: pub, logger: logger}
}

// Dispense atomically decrements stock, appends the ledger row and bumps
// today's demand metric. A rejected dispense writes nothing.
func (s *Service) Dispense(ctx context.Context, req DispenseRequest) error {
	if req.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive")
	}
	if req.MedicationCode == "" {
		return fmt.Errorf("medication code is required")
	}

	if err := s.repo.Dispense(ctx, req); err != nil {
		return err
	}

	s.logger.Info().
		Int64("pharmacy_id", req.PharmacyID).
		Str("medication_code", req.MedicationCode).
		Int("quantity", req.Quantity).
		Msg("medication dispensed")

	s.publish(ctx, req.PharmacyID, req.MedicationCode)
	return nil
}

// Restock increments stock and records a restocked ledger row. Restocks do
// not feed the demand score.
func (s *Service) Restock(ctx context.Context, req DispenseRequest) error {
	if req.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive")
	}
	if req.MedicationCode == "" {
		return fmt.Errorf("medication code is required")
	}

	if err := s.repo.Restock(ctx, req); err != nil {
		return err
	}

	s.logger.Info().
		Int64("pharmacy_id", req.PharmacyID).
		Str("medication_code", req.MedicationCode).
		Int("quantity", req.Quantity).
		Msg("medication restocked")

	s.publish(ctx, req.PharmacyID, req.MedicationCode)
	return nil
}

// Adjust applies a signed stock correction (cycle counts, breakage).
func (s *Service) Adjust(ctx context.Context, pharmacyID int64, medicationCode string, delta int, operatorID *string) error {
	if delta == 0 {
		return fmt.Errorf("delta must be non-zero")
	}
	if medicationCode == "" {
		return fmt.Errorf("medication code is required")
	}

	if err := s.repo.Adjust(ctx, pharmacyID, medicationCode, delta, operatorID); err != nil {
		return err
	}

	s.logger.Info().
		Int64("pharmacy_id", pharmacyID).
		Str("medication_code", medicationCode).
		Int("delta", delta).
		Msg("inventory adjusted")

	s.publish(ctx, pharmacyID, medicationCode)
	return nil
}

func (s *Service) GetInventory(ctx context.Context, pharmacyID int64) ([]*View, error) {
	return s.repo.ListByPharmacy(ctx, pharmacyID)
}

func (s *Service) GetItem(ctx context.Context, pharmacyID int64, medicationCode string) (*Item, error) {
	return s.repo.GetItem(ctx, pharmacyID, medicationCode)
}

func (s *Service) UpsertItem(ctx context.Context, item *Item) error {
	if item.CurrentStock < 0 {
		return fmt.Errorf("current_stock must not be negative")
	}
	if item.MinThreshold < 0 {
		return fmt.Errorf("min_threshold must not be negative")
	}
	return s.repo.UpsertItem(ctx, item)
}

func (s *Service) ListTransactions(ctx context.Context, pharmacyID int64, limit, offset int) ([]*Transaction, int, error) {
	return s.repo.ListTransactions(ctx, pharmacyID, limit, offset)
}

// publish tells the pharmacy's viewers to re-query the inventory. Advisory
// only: a publish failure never fails the write.
func (s *Service) publish(ctx context.Context, pharmacyID int64, medicationCode string) {
	if s.pub == nil {
		return
	}
	event, err := websocket.NewEvent(websocket.EventInventoryUpdated, pharmacyID, map[string]interface{}{
		"pharmacy_id":     pharmacyID,
		"medication_code": medicationCode,
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("build event failed")
		return
	}
	if err := s.pub.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Msg("publish failed")
	}
}
