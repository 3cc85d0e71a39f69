package reservation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kseat/cinema-reservation-core/internal/model"
	"github.com/kseat/cinema-reservation-core/internal/repository"
)

func TestConflictToErrorMapsConfirmedToSeatSold(t *testing.T) {
	err := conflictToError(&repository.Conflict{
		ShowtimeID:     1,
		SeatID:         2,
		ExistingStatus: string(model.HoldConfirmed),
	})
	assert.ErrorIs(t, err, ErrSeatSold)
}

func TestConflictToErrorMapsPendingToSeatHeld(t *testing.T) {
	err := conflictToError(&repository.Conflict{
		ShowtimeID:     1,
		SeatID:         2,
		ExistingStatus: string(model.HoldPending),
	})
	assert.ErrorIs(t, err, ErrSeatHeld)
}

func TestConflictToErrorPassesThroughNonConflictErrors(t *testing.T) {
	other := errors.New("boom")
	assert.Same(t, other, conflictToError(other))
}
