package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaymentMethodValid(t *testing.T) {
	assert.True(t, MethodVNPay.Valid())
	assert.True(t, MethodCash.Valid())
	assert.True(t, MethodMomo.Valid())
	assert.True(t, MethodBank.Valid())
	assert.True(t, MethodZalo.Valid())
	assert.False(t, PaymentMethod("paypal").Valid())
}

func TestPaymentStatusTerminal(t *testing.T) {
	assert.False(t, PaymentPending.Terminal())
	assert.True(t, PaymentSuccess.Terminal())
	assert.True(t, PaymentFailed.Terminal())
	assert.False(t, PaymentCancelled.Terminal(), "cancelled predates a gateway response, not a rewrite target of I5")
}
