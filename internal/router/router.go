package router

import (
	"github.com/labstack/echo/v4"

	"github.com/kseat/cinema-reservation-core/internal/handler"
	"github.com/kseat/cinema-reservation-core/internal/middleware"
)

// Handlers bundles every handler RegisterRoutes wires up, constructed
// once at startup in cmd/server/main.go and passed down explicitly —
// no globally instantiated service singletons.
type Handlers struct {
	Reservation *handler.ReservationHandler
	Payment     *handler.PaymentHandler
	WS          *handler.WSHandler
	Cache       echo.MiddlewareFunc // optional Redis response cache, nil to disable
	RateLimit   echo.MiddlewareFunc // optional Redis token-bucket limiter, nil to disable
}

// RegisterRoutes wires the full HTTP/WebSocket surface. Reservation and
// payment endpoints accept an optional bearer token
// (middleware.OptionalJWTAuth) since the caller is identified by
// session_id, not by a mandatory account — user auth/issuance is
// handled by an external collaborator.
func RegisterRoutes(e *echo.Echo, h Handlers, jwtSecret string) {
	e.GET("/healthz", handler.Health)

	auth := middleware.OptionalJWTAuth(jwtSecret)

	reservations := e.Group("/reservations", auth)
	if h.RateLimit != nil {
		reservations.Use(h.RateLimit)
	}
	var cacheMW []echo.MiddlewareFunc
	if h.Cache != nil {
		cacheMW = append(cacheMW, h.Cache)
	}

	reservations.POST("", h.Reservation.Reserve)
	reservations.POST("/multiple", h.Reservation.ReserveMultiple)
	reservations.DELETE("/:showtime", h.Reservation.CancelReservation)
	reservations.GET("/:showtime", h.Reservation.ShowtimeSnapshot, cacheMW...)

	payments := e.Group("/payments", auth)
	if h.RateLimit != nil {
		payments.Use(h.RateLimit)
	}
	payments.POST("/create", h.Payment.Create)
	payments.GET("/vnpay/return", h.Payment.Return)
	payments.GET("/vnpay/ipn", h.Payment.IPN)
	payments.GET("/payment-status/:order_id", h.Payment.Status, cacheMW...)

	e.GET("/ws/seats/:showtime_id", h.WS.Subscribe)
	e.GET("/ws/status/:showtime_id", h.WS.Status)
}
