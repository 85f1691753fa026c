package turns

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/farmaconnect/farmaconnect/internal/platform/db"
	"github.com/farmaconnect/farmaconnect/internal/platform/websocket"
)

var (
	ErrPharmacyNotFound  = errors.New("pharmacy not found")
	ErrTurnNotFound      = errors.New("turn not found")
	ErrCapacityExceeded  = errors.New("daily digital turn limit reached")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrConflict          = errors.New("concurrent turn update conflict")
)

type Service struct {
	repo   Repository
	pub    websocket.EventPublisher
	logger zerolog.Logger
}

// NewService wires the allocator. pub may be nil when no real-time fan-out
// is attached (tests, seed command).
func NewService(repo Repository, pub websocket.EventPublisher, logger zerolog.Logger) *Service {
	return &Service{repo: repo, pub: pub, logger: logger}
}

// RequestTurn allocates the next digital turn of the day. The repository
// serializes allocations per pharmacy; the unique (pharmacy, date, number)
// index backstops the race, and a single retry absorbs a loser of that race.
func (s *Service) RequestTurn(ctx context.Context, req AllocateRequest) (*Turn, error) {
	if req.PharmacyID <= 0 {
		return nil, fmt.Errorf("pharmacy_id is required")
	}
	if req.UserName == "" {
		return nil, fmt.Errorf("user_name is required")
	}

	turn, err := s.repo.Allocate(ctx, req)
	if db.IsUniqueViolation(err) {
		turn, err = s.repo.Allocate(ctx, req)
		if db.IsUniqueViolation(err) {
			return nil, ErrConflict
		}
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("turn_id", turn.ID).
		Int64("pharmacy_id", turn.PharmacyID).
		Int("turn_number", turn.TurnNumber).
		Msg("turn allocated")

	s.publish(ctx, websocket.EventNewTurn, turn)
	return turn, nil
}

// UpdateStatus moves a turn through its lifecycle. Re-setting the current
// status is a no-op success; backward or terminal transitions fail with
// ErrInvalidTransition.
func (s *Service) UpdateStatus(ctx context.Context, turnID int64, newStatus string) (*Turn, error) {
	if !ValidStatus(newStatus) {
		return nil, fmt.Errorf("unknown status %q: %w", newStatus, ErrInvalidTransition)
	}

	turn, err := s.repo.GetByID(ctx, turnID)
	if err != nil {
		return nil, err
	}
	if turn.Status == newStatus {
		return turn, nil
	}
	if !CanTransition(turn.Status, newStatus) {
		return nil, fmt.Errorf("%s -> %s: %w", turn.Status, newStatus, ErrInvalidTransition)
	}

	updated, err := s.repo.UpdateStatus(ctx, turnID, turn.Status, newStatus)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("turn_id", updated.ID).
		Int64("pharmacy_id", updated.PharmacyID).
		Str("status", updated.Status).
		Msg("turn status updated")

	s.publish(ctx, websocket.EventTurnUpdated, updated)
	return updated, nil
}

func (s *Service) ListToday(ctx context.Context, pharmacyID int64) ([]*Turn, error) {
	return s.repo.ListToday(ctx, pharmacyID)
}

func (s *Service) Get(ctx context.Context, turnID int64) (*Turn, error) {
	return s.repo.GetByID(ctx, turnID)
}

// publish fans a turn event out to the pharmacy's subscribers. Events are
// advisory; a publish failure never fails the write that produced it.
func (s *Service) publish(ctx context.Context, eventType string, turn *Turn) {
	if s.pub == nil {
		return
	}
	event, err := websocket.NewEvent(eventType, turn.PharmacyID, map[string]interface{}{
		"id":          turn.ID,
		"pharmacy_id": turn.PharmacyID,
		"turn_number": turn.TurnNumber,
		"user_name":   turn.UserName,
		"status":      turn.Status,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("build event failed")
		return
	}
	if err := s.pub.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("publish failed")
	}
}
