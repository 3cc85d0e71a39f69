package ticket

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignQRPayloadRoundTrips(t *testing.T) {
	secret := "qr-secret"
	raw, err := signQRPayload(secret, 101, 202, 303, 404, 25000, "BK202601020001")
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	tok, err := jwt.ParseWithClaims(raw, &qrClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	require.True(t, tok.Valid)

	claims, ok := tok.Claims.(*qrClaims)
	require.True(t, ok)
	assert.Equal(t, uint64(101), claims.TicketID)
	assert.Equal(t, uint64(202), claims.UserID)
	assert.Equal(t, uint64(303), claims.ShowtimeID)
	assert.Equal(t, uint64(404), claims.SeatID)
	assert.Equal(t, uint32(25000), claims.Price)
	assert.Equal(t, "BK202601020001", claims.BookingCode)
	assert.NotNil(t, claims.ExpiresAt)
	assert.True(t, claims.ExpiresAt.After(*claims.IssuedAt))
}

func TestSignQRPayloadRejectsWrongSecret(t *testing.T) {
	raw, err := signQRPayload("right-secret", 1, 0, 1, 1, 1000, "BK1")
	require.NoError(t, err)

	_, err = jwt.ParseWithClaims(raw, &qrClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte("wrong-secret"), nil
	})
	assert.Error(t, err)
}

func TestRandomAlnumProducesExpectedLengthAndAlphabet(t *testing.T) {
	s, err := randomAlnum(4)
	require.NoError(t, err)
	require.Len(t, s, 4)
	for _, r := range s {
		assert.Contains(t, bookingCodeAlphabet, string(r))
	}
}

func TestRandomAlnumVariesAcrossCalls(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		s, err := randomAlnum(6)
		require.NoError(t, err)
		seen[s] = true
	}
	assert.Greater(t, len(seen), 1, "20 draws of a 6-char alnum string should not all collide")
}
