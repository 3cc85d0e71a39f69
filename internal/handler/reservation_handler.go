package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/kseat/cinema-reservation-core/internal/reservation"
)

// ReservationHandler adapts the reservation service to Echo,
// generalized from CustomerHandler.HoldSeats / ReleaseHolds /
// ConfirmSeats's trio in customer_reservation.go into a thin
// typed-error-mapping layer: the service returns sentinel errors, this
// layer alone decides the HTTP status.
type ReservationHandler struct {
	Reservation *reservation.Service
}

// NewReservationHandler constructs a ReservationHandler.
func NewReservationHandler(svc *reservation.Service) *ReservationHandler {
	return &ReservationHandler{Reservation: svc}
}

type reserveRequest struct {
	ShowtimeID uint64  `json:"showtime_id"`
	SeatID     uint64  `json:"seat_id"`
	SessionID  string  `json:"session_id"`
	UserID     *uint64 `json:"user_id,omitempty"`
}

type reserveBulkItem struct {
	ShowtimeID uint64  `json:"showtime_id"`
	SeatID     uint64  `json:"seat_id"`
	SessionID  string  `json:"session_id"`
	UserID     *uint64 `json:"user_id,omitempty"`
}

// Reserve handles POST /reservations.
func (h *ReservationHandler) Reserve(c echo.Context) error {
	var req reserveRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.ShowtimeID == 0 || req.SeatID == 0 || req.SessionID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "showtime_id, seat_id and session_id are required"})
	}
	hold, err := h.Reservation.Reserve(c.Request().Context(), req.ShowtimeID, req.SeatID, req.SessionID, req.UserID)
	if err != nil {
		return mapReservationError(c, err)
	}
	return c.JSON(http.StatusOK, hold)
}

// ReserveMultiple handles POST /reservations/multiple. Every item must
// target the same showtime; the request fails fast otherwise rather
// than silently collapsing to the first item's showtime. Seats are
// reserved all-or-nothing per showtime.
func (h *ReservationHandler) ReserveMultiple(c echo.Context) error {
	var items []reserveBulkItem
	if err := c.Bind(&items); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if len(items) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "at least one reservation item is required"})
	}
	showtimeID := items[0].ShowtimeID
	sessionID := items[0].SessionID
	var userID *uint64
	seatIDs := make([]uint64, 0, len(items))
	for _, it := range items {
		if it.ShowtimeID != showtimeID || it.SessionID != sessionID {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "all items must share showtime_id and session_id"})
		}
		if it.SeatID == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_id is required"})
		}
		if it.UserID != nil {
			userID = it.UserID
		}
		seatIDs = append(seatIDs, it.SeatID)
	}
	holds, err := h.Reservation.ReserveBulk(c.Request().Context(), showtimeID, seatIDs, sessionID, userID)
	if err != nil {
		return mapReservationError(c, err)
	}
	return c.JSON(http.StatusOK, holds)
}

// CancelReservation handles DELETE /reservations/{showtime}.
func (h *ReservationHandler) CancelReservation(c echo.Context) error {
	showtimeID, err := strconv.ParseUint(c.Param("showtime"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	sessionID := c.QueryParam("session_id")
	if sessionID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "session_id is required"})
	}
	seatIDs, err := parseSeatIDs(c.QueryParam("seat_ids"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat_ids"})
	}
	released, err := h.Reservation.Cancel(c.Request().Context(), showtimeID, seatIDs, sessionID)
	if err != nil {
		return mapReservationError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"released_seat_ids": released})
}

// ShowtimeSnapshot handles GET /reservations/{showtime}.
func (h *ReservationHandler) ShowtimeSnapshot(c echo.Context) error {
	showtimeID, err := strconv.ParseUint(c.Param("showtime"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	holds, err := h.Reservation.Snapshot(c.Request().Context(), showtimeID)
	if err != nil {
		return mapReservationError(c, err)
	}
	return c.JSON(http.StatusOK, holds)
}

func parseSeatIDs(raw string) ([]uint64, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	seatIDs := make([]uint64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, err
		}
		seatIDs = append(seatIDs, id)
	}
	return seatIDs, nil
}

func mapReservationError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, reservation.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, reservation.ErrSeatSold):
		return c.JSON(http.StatusConflict, echo.Map{"error": "seat sold"})
	case errors.Is(err, reservation.ErrSeatHeld):
		return c.JSON(http.StatusConflict, echo.Map{"error": "seat held"})
	case errors.Is(err, reservation.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
