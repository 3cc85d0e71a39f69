// Package reaper implements the periodic hold-expiry task, generalized
// from the inline ExpireHoldsTx-before-every-handler pattern in
// internal/handler/customer_reservation.go into a standalone background
// task that owns no state and is safe to restart.
package reaper

import (
	"context"
	"log"
	"time"

	"github.com/kseat/cinema-reservation-core/internal/bus"
	"github.com/kseat/cinema-reservation-core/internal/repository"
)

// DefaultPeriod is the reaper's normal tick interval.
const DefaultPeriod = 30 * time.Second

// BackoffPeriod is the interval used for the single cycle following an
// unexpected sweep error.
const BackoffPeriod = 60 * time.Second

// Reaper periodically sweeps expired pending holds and republishes
// their release on the bus. Running more than one Reaper against the
// same Holds store is unsupported — each tick would double-count a
// release.
type Reaper struct {
	Holds  *repository.HoldRepo
	Bus    bus.Bus
	Period time.Duration
}

// New constructs a Reaper. period of zero defaults to DefaultPeriod.
func New(holds *repository.HoldRepo, b bus.Bus, period time.Duration) *Reaper {
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Reaper{Holds: holds, Bus: b, Period: period}
}

// Run blocks, ticking until ctx is cancelled. It is meant to be
// launched in its own goroutine from cmd/server.
func (r *Reaper) Run(ctx context.Context) {
	period := r.Period
	timer := time.NewTimer(period)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if err := r.tick(ctx); err != nil {
				log.Printf("reaper: sweep failed: %v", err)
				period = BackoffPeriod
			} else {
				period = r.Period
			}
			timer.Reset(period)
		}
	}
}

func (r *Reaper) tick(ctx context.Context) error {
	released, err := r.Holds.SweepExpired(ctx, time.Now().UTC())
	if err != nil {
		return err
	}
	for showtimeID, seatIDs := range released {
		if len(seatIDs) == 0 {
			continue
		}
		_ = r.Bus.Publish(bus.Event{
			Type:       bus.EventSeatReleased,
			ShowtimeID: showtimeID,
			SeatIDs:    seatIDs,
			Reason:     "expired",
		})
	}
	return nil
}
