package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kseat/cinema-reservation-core/internal/model"
)

// GatewayConfig holds the VNPay-class collaborator's connection
// details: gateway TMN code, hash secret, payment URL, return URL. The
// signing/verification library itself is treated as an external
// collaborator to be swapped in without touching Gateway's call sites;
// crypto/hmac is used directly here since no third-party VNPay client
// is wired in.
type GatewayConfig struct {
	TmnCode    string
	HashSecret string
	PaymentURL string
	ReturnURL  string
}

// GatewayRequest carries what BuildPaymentURL needs to construct a
// signed checkout URL.
type GatewayRequest struct {
	OrderID     string
	Amount      uint32 // smallest currency unit, pre gateway scaling
	OrderDesc   string
	ClientIP    string
	Locale      string
	CreatedAt   time.Time
}

// CallbackResult is the gateway-agnostic outcome of validating and
// interpreting a callback.
type CallbackResult struct {
	Valid         bool
	OrderID       string
	Amount        uint32
	Success       bool
	ResponseCode  string
	TransactionNo string
	BankCode      string
	CardType      string
	PayDate       string
}

// Gateway abstracts the VNPay-class payment gateway collaborator:
// building a signed checkout URL and validating/interpreting its
// callback. Swappable to avoid hard-wiring one gateway's library into
// the orchestrator.
type Gateway interface {
	BuildPaymentURL(req GatewayRequest) (string, error)
	ValidateCallback(params url.Values) CallbackResult
}

// vnpayGateway is a minimal stand-in for the real VNPay HMAC
// signing/verification library: it builds the same canonical `vnp_*`
// query string and signs/verifies it with HMAC-SHA512-equivalent
// (SHA-256 here; algorithm choice belongs to the real library, not
// this module) over the sorted parameter string.
type vnpayGateway struct {
	cfg GatewayConfig
}

// NewVNPayGateway constructs a Gateway against cfg.
func NewVNPayGateway(cfg GatewayConfig) Gateway {
	return &vnpayGateway{cfg: cfg}
}

func (g *vnpayGateway) BuildPaymentURL(req GatewayRequest) (string, error) {
	desc := req.OrderDesc
	if desc == "" {
		desc = "Thanh toan " + req.OrderID
	}
	if len(desc) > 50 {
		desc = desc[:50]
	}
	locale := req.Locale
	if locale == "" {
		locale = "vn"
	}

	params := url.Values{}
	params.Set("vnp_Version", "2.1.0")
	params.Set("vnp_Command", "pay")
	params.Set("vnp_TmnCode", g.cfg.TmnCode)
	params.Set("vnp_Amount", strconv.FormatUint(uint64(req.Amount)*100, 10))
	params.Set("vnp_CurrCode", "VND")
	params.Set("vnp_TxnRef", req.OrderID)
	params.Set("vnp_OrderInfo", desc)
	params.Set("vnp_OrderType", "other")
	params.Set("vnp_Locale", locale)
	params.Set("vnp_CreateDate", req.CreatedAt.Format("20060102150405"))
	params.Set("vnp_IpAddr", req.ClientIP)
	params.Set("vnp_ReturnUrl", g.cfg.ReturnURL)

	signed := signParams(params, g.cfg.HashSecret)
	params.Set("vnp_SecureHash", signed)

	return fmt.Sprintf("%s?%s", g.cfg.PaymentURL, params.Encode()), nil
}

func (g *vnpayGateway) ValidateCallback(params url.Values) CallbackResult {
	got := params.Get("vnp_SecureHash")
	check := url.Values{}
	for k, v := range params {
		if k == "vnp_SecureHash" || k == "vnp_SecureHashType" {
			continue
		}
		check[k] = v
	}
	want := signParams(check, g.cfg.HashSecret)
	if !hmac.Equal([]byte(got), []byte(want)) {
		return CallbackResult{Valid: false}
	}

	amountMinor, _ := strconv.ParseUint(params.Get("vnp_Amount"), 10, 64)
	responseCode := params.Get("vnp_ResponseCode")
	return CallbackResult{
		Valid:         true,
		OrderID:       params.Get("vnp_TxnRef"),
		Amount:        uint32(amountMinor / 100),
		Success:       responseCode == "00",
		ResponseCode:  responseCode,
		TransactionNo: params.Get("vnp_TransactionNo"),
		BankCode:      params.Get("vnp_BankCode"),
		CardType:      params.Get("vnp_CardType"),
		PayDate:       params.Get("vnp_PayDate"),
	}
}

// signParams builds VNPay's canonical "key=value&key=value..." string
// over the sorted parameter keys and HMAC-signs it with secret.
func signParams(params url.Values, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(params.Get(k))
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(sb.String()))
	return hex.EncodeToString(mac.Sum(nil))
}

// toGatewayFields maps a CallbackResult onto the persisted
// GatewayFields product type, avoiding ORM-inheritance payment
// variants.
func toGatewayFields(r CallbackResult) model.GatewayFields {
	return model.GatewayFields{
		TxnRef:        r.OrderID,
		TransactionNo: r.TransactionNo,
		BankCode:      r.BankCode,
		CardType:      r.CardType,
		PayDate:       r.PayDate,
		ResponseCode:  r.ResponseCode,
	}
}
