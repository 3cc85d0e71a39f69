package reservation

import (
	"context"
	"errors"
	"time"

	"github.com/kseat/cinema-reservation-core/internal/bus"
	"github.com/kseat/cinema-reservation-core/internal/model"
	"github.com/kseat/cinema-reservation-core/internal/repository"
)

// DefaultHoldTTL is the lifetime of a newly created pending hold.
const DefaultHoldTTL = 10 * time.Minute

// Service implements the reservation service. It is constructed once
// at startup and passed explicitly to handlers rather than as a
// globally instantiated singleton.
type Service struct {
	Holds     *repository.HoldRepo
	Showtimes *repository.ShowtimeRepo
	Seats     *repository.SeatRepo
	Bus       bus.Bus
	HoldTTL   time.Duration
}

// NewService constructs a Service. ttl of zero defaults to DefaultHoldTTL.
func NewService(holds *repository.HoldRepo, showtimes *repository.ShowtimeRepo, seats *repository.SeatRepo, b bus.Bus, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultHoldTTL
	}
	return &Service{Holds: holds, Showtimes: showtimes, Seats: seats, Bus: b, HoldTTL: ttl}
}

func (s *Service) validate(ctx context.Context, showtimeID uint64, seatIDs []uint64) error {
	if _, err := s.Showtimes.GetByID(ctx, showtimeID); err != nil {
		if errors.Is(err, repository.ErrShowtimeNotFound) {
			return ErrNotFound
		}
		return err
	}
	for _, seatID := range seatIDs {
		if _, err := s.Seats.GetByID(ctx, seatID); err != nil {
			if errors.Is(err, repository.ErrSeatNotFound) {
				return ErrNotFound
			}
			return err
		}
	}
	return nil
}

func conflictToError(err error) error {
	var c *repository.Conflict
	if errors.As(err, &c) {
		if c.ExistingStatus == string(model.HoldConfirmed) {
			return ErrSeatSold
		}
		return ErrSeatHeld
	}
	return err
}

// Reserve validates the showtime and seat, creates a single pending
// hold, and publishes seats_reserved on success.
func (s *Service) Reserve(ctx context.Context, showtimeID, seatID uint64, sessionID string, userID *uint64) (model.Hold, error) {
	if err := s.validate(ctx, showtimeID, []uint64{seatID}); err != nil {
		return model.Hold{}, err
	}
	hold, err := s.Holds.TryCreate(ctx, showtimeID, seatID, sessionID, userID, s.HoldTTL)
	if err != nil {
		return model.Hold{}, conflictToError(err)
	}
	_ = s.Bus.Publish(bus.Event{
		Type:       bus.EventSeatsReserved,
		ShowtimeID: showtimeID,
		SeatIDs:    []uint64{seatID},
		SessionID:  sessionID,
		ExpiresAt:  hold.ExpiresAt,
	})
	return hold, nil
}

// ReserveBulk validates every (showtime, seat) pair and creates all
// holds in one all-or-nothing transaction. On success it publishes a
// single seats_reserved event carrying every reserved seat id.
func (s *Service) ReserveBulk(ctx context.Context, showtimeID uint64, seatIDs []uint64, sessionID string, userID *uint64) ([]model.Hold, error) {
	if err := s.validate(ctx, showtimeID, seatIDs); err != nil {
		return nil, err
	}
	holds, err := s.Holds.TryCreateBulk(ctx, showtimeID, seatIDs, sessionID, userID, s.HoldTTL)
	if err != nil {
		return nil, conflictToError(err)
	}
	reservedSeats := make([]uint64, len(holds))
	var latestExpiry time.Time
	for i, h := range holds {
		reservedSeats[i] = h.SeatID
		if h.ExpiresAt.After(latestExpiry) {
			latestExpiry = h.ExpiresAt
		}
	}
	_ = s.Bus.Publish(bus.Event{
		Type:       bus.EventSeatsReserved,
		ShowtimeID: showtimeID,
		SeatIDs:    reservedSeats,
		SessionID:  sessionID,
		ExpiresAt:  latestExpiry,
	})
	return holds, nil
}

// Cancel releases pending holds owned by session, publishing one
// seat_released event carrying every seat actually released. If any explicitly
// requested seat carries a live pending hold owned by a different
// session, the whole call is rejected as Forbidden rather than
// silently skipping that seat.
func (s *Service) Cancel(ctx context.Context, showtimeID uint64, seatIDs []uint64, sessionID string) ([]uint64, error) {
	if len(seatIDs) > 0 {
		owners, err := s.Holds.PendingOwners(ctx, showtimeID, seatIDs)
		if err != nil {
			return nil, err
		}
		for _, seatID := range seatIDs {
			if owner, ok := owners[seatID]; ok && owner != sessionID {
				return nil, ErrForbidden
			}
		}
	}
	released, err := s.Holds.CancelByOwner(ctx, showtimeID, seatIDs, sessionID)
	if err != nil {
		return nil, err
	}
	if len(released) > 0 {
		_ = s.Bus.Publish(bus.Event{
			Type:       bus.EventSeatReleased,
			ShowtimeID: showtimeID,
			SeatIDs:    released,
			SessionID:  sessionID,
			Reason:     "user_cancelled",
		})
	}
	return released, nil
}

// Snapshot returns every live (pending-unexpired or confirmed) hold
// for a showtime, used to seed a new subscriber's initial_data frame.
func (s *Service) Snapshot(ctx context.Context, showtimeID uint64) ([]model.Hold, error) {
	return s.Holds.List(ctx, showtimeID)
}
