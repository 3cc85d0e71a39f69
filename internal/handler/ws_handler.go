package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/kseat/cinema-reservation-core/internal/ws"
)

// WSHandler adapts the websocket hub to Echo's request/response cycle.
type WSHandler struct {
	Hub *ws.Hub
}

// NewWSHandler constructs a WSHandler.
func NewWSHandler(hub *ws.Hub) *WSHandler {
	return &WSHandler{Hub: hub}
}

// Subscribe handles WS /ws/seats/{showtime_id}?session_id=….
func (h *WSHandler) Subscribe(c echo.Context) error {
	showtimeID, err := strconv.ParseUint(c.Param("showtime_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	sessionID := c.QueryParam("session_id")
	var userID *uint64
	if uid := requestUserID(c); uid != 0 {
		userID = &uid
	}
	if err := h.Hub.ServeShowtime(c.Response(), c.Request(), showtimeID, sessionID, userID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "websocket upgrade failed"})
	}
	return nil
}

// Status handles GET /ws/status/{showtime_id}.
func (h *WSHandler) Status(c echo.Context) error {
	showtimeID, err := strconv.ParseUint(c.Param("showtime_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	return c.JSON(http.StatusOK, echo.Map{"showtime_id": showtimeID, "subscribers": ws.Status(h.Hub.Bus, showtimeID)})
}
