package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/kseat/cinema-reservation-core/internal/payment"
)

// PaymentHandler adapts the payment orchestrator to Echo, grounded on
// auth.go's token-endpoint shape for request binding and error-mapping
// conventions, but driving payment.Service rather than credential
// verification.
type PaymentHandler struct {
	Payment *payment.Service
}

// NewPaymentHandler constructs a PaymentHandler.
func NewPaymentHandler(svc *payment.Service) *PaymentHandler {
	return &PaymentHandler{Payment: svc}
}

// Create handles POST /payments/create.
func (h *PaymentHandler) Create(c echo.Context) error {
	var req payment.CreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.SessionID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "session_id is required"})
	}
	userID := requestUserID(c)
	resp, err := h.Payment.Create(c.Request().Context(), req, userID, c.RealIP())
	if err != nil {
		return mapPaymentError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Return handles GET /payments/vnpay/return — the gateway's browser
// redirect. The gateway contract requires 200 always; the settlement
// outcome is reported in the body, not the status.
func (h *PaymentHandler) Return(c echo.Context) error {
	result, err := h.Payment.HandleCallback(c.Request().Context(), c.QueryParams())
	if err != nil {
		if errors.Is(err, payment.ErrGatewaySignature) {
			return c.JSON(http.StatusOK, echo.Map{"success": false, "message": "Invalid signature"})
		}
		return c.JSON(http.StatusOK, echo.Map{"success": false, "message": err.Error()})
	}
	return c.JSON(http.StatusOK, result)
}

// IPN handles GET /payments/vnpay/ipn — the gateway's server-to-server
// notification. Always responds 200 with the gateway's own
// {RspCode, Message} protocol shape, regardless of internal outcome,
// so the gateway does not retry indefinitely.
func (h *PaymentHandler) IPN(c echo.Context) error {
	_, err := h.Payment.HandleCallback(c.Request().Context(), c.QueryParams())
	if err != nil {
		if errors.Is(err, payment.ErrGatewaySignature) {
			return c.JSON(http.StatusOK, echo.Map{"RspCode": "97", "Message": "Invalid signature"})
		}
		return c.JSON(http.StatusOK, echo.Map{"RspCode": "99", "Message": "Unknown error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"RspCode": "00", "Message": "Confirm Success"})
}

// Status handles GET /payments/payment-status/{order_id}.
func (h *PaymentHandler) Status(c echo.Context) error {
	orderID := c.Param("order_id")
	if orderID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "order_id is required"})
	}
	p, err := h.Payment.Status(c.Request().Context(), orderID)
	if err != nil {
		return mapPaymentError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// requestUserID extracts the authenticated user id set by
// middleware.OptionalJWTAuth, if any. Anonymous callers (no bearer
// token) settle to 0 — Payment.UserID is informational for receipts
// here, not an authorization gate; auth/session issuance is handled by
// an external collaborator.
func requestUserID(c echo.Context) uint64 {
	v := c.Get("user_id")
	if v == nil {
		return 0
	}
	switch t := v.(type) {
	case float64:
		return uint64(t)
	case string:
		id, err := strconv.ParseUint(t, 10, 64)
		if err != nil {
			return 0
		}
		return id
	default:
		return 0
	}
}

func mapPaymentError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, payment.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, payment.ErrNoReservations):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no reservations"})
	case errors.Is(err, payment.ErrExpired):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reservation expired"})
	case errors.Is(err, payment.ErrInvalidMethod):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment method"})
	case errors.Is(err, payment.ErrBusy):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "busy, retry"})
	case errors.Is(err, payment.ErrGatewaySignature):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid signature"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
