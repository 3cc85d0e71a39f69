package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeatTypePriceMultiplier(t *testing.T) {
	cases := []struct {
		seatType SeatType
		want     float64
	}{
		{SeatRegular, 1.0},
		{SeatVIP, 1.5},
		{SeatCouple, 2.0},
		{SeatType("unknown"), 1.0},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.seatType.PriceMultiplier(), "type=%s", c.seatType)
	}
}

func TestSeatTypeValid(t *testing.T) {
	assert.True(t, SeatRegular.Valid())
	assert.True(t, SeatVIP.Valid())
	assert.True(t, SeatCouple.Valid())
	assert.False(t, SeatType("imax").Valid())
	assert.False(t, SeatType("").Valid())
}
