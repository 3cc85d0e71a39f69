package payment

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGateway() *vnpayGateway {
	return &vnpayGateway{cfg: GatewayConfig{
		TmnCode:    "TESTCODE",
		HashSecret: "s3cr3t",
		PaymentURL: "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		ReturnURL:  "https://example.test/payments/vnpay/return",
	}}
}

func TestBuildPaymentURLIncludesSignature(t *testing.T) {
	g := testGateway()
	raw, err := g.BuildPaymentURL(GatewayRequest{
		OrderID:   "ORD123",
		Amount:    150000,
		OrderDesc: "Seat A1, A2",
		ClientIP:  "127.0.0.1",
		Locale:    "vn",
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	require.NoError(t, err)

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	q := parsed.Query()

	assert.Equal(t, "TESTCODE", q.Get("vnp_TmnCode"))
	assert.Equal(t, "ORD123", q.Get("vnp_TxnRef"))
	assert.Equal(t, "15000000", q.Get("vnp_Amount"))
	assert.Equal(t, "20260102030405", q.Get("vnp_CreateDate"))
	assert.NotEmpty(t, q.Get("vnp_SecureHash"))
}

func TestBuildPaymentURLTruncatesLongDescription(t *testing.T) {
	g := testGateway()
	longDesc := ""
	for i := 0; i < 80; i++ {
		longDesc += "x"
	}
	raw, err := g.BuildPaymentURL(GatewayRequest{OrderID: "ORD1", Amount: 1, OrderDesc: longDesc, CreatedAt: time.Now()})
	require.NoError(t, err)

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Len(t, parsed.Query().Get("vnp_OrderInfo"), 50)
}

func TestValidateCallbackAcceptsOwnSignedRequest(t *testing.T) {
	g := testGateway()
	raw, err := g.BuildPaymentURL(GatewayRequest{OrderID: "ORD9", Amount: 5000, CreatedAt: time.Now()})
	require.NoError(t, err)

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	q := parsed.Query()
	q.Set("vnp_ResponseCode", "00")
	// The gateway signs its callback over every parameter it sends,
	// response code included.
	q.Del("vnp_SecureHash")
	q.Set("vnp_SecureHash", signParams(q, g.cfg.HashSecret))

	result := g.ValidateCallback(q)
	assert.True(t, result.Valid)
	assert.True(t, result.Success)
	assert.Equal(t, "ORD9", result.OrderID)
	assert.Equal(t, uint32(5000), result.Amount)
}

func TestValidateCallbackRejectsTamperedSignature(t *testing.T) {
	g := testGateway()
	raw, err := g.BuildPaymentURL(GatewayRequest{OrderID: "ORD9", Amount: 5000, CreatedAt: time.Now()})
	require.NoError(t, err)

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	q := parsed.Query()
	q.Set("vnp_Amount", "999999999")

	result := g.ValidateCallback(q)
	assert.False(t, result.Valid)
}
