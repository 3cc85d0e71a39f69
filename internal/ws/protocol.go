// Package ws implements the websocket transport for the seat-event fan
// out: one connection per subscriber, a JSON envelope carrying {type,
// showtime_id, data, timestamp}, and the ping/heartbeat/reserve_seat
// message vocabulary the core understands. Grounded on
// gorilla/websocket's canonical hub/client pattern and wired to this
// module's own bus.Bus, session.Registry and reservation.Service.
package ws

import "time"

// MessageType is the full wire vocabulary: both the bus-distributed
// event types and the connection-level types generated per-connection
// by the hub (initial_data, error, ping, pong, heartbeat,
// heartbeat_ack).
type MessageType string

const (
	TypeInitialData   MessageType = "initial_data"
	TypeSeatUpdate    MessageType = "seat_update"
	TypeSeatsReserved MessageType = "seats_reserved"
	TypeSeatReleased  MessageType = "seat_released"
	TypeError         MessageType = "error"
	TypePing          MessageType = "ping"
	TypePong          MessageType = "pong"
	TypeHeartbeat     MessageType = "heartbeat"
	TypeHeartbeatAck  MessageType = "heartbeat_ack"
	TypeReserveSeat   MessageType = "reserve_seat"
)

// Envelope is the wire format for every frame in either direction:
// JSON, with required fields type, showtime_id, data, timestamp.
type Envelope struct {
	Type       MessageType `json:"type"`
	ShowtimeID uint64      `json:"showtime_id"`
	Data       interface{} `json:"data,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

func newEnvelope(t MessageType, showtimeID uint64, data interface{}) Envelope {
	return Envelope{Type: t, ShowtimeID: showtimeID, Data: data, Timestamp: time.Now().UTC()}
}

// reserveSeatPayload is the inbound data of a reserve_seat message.
type reserveSeatPayload struct {
	SeatID  uint64 `json:"seat_id"`
	UserID  *uint64 `json:"user_id,omitempty"`
}

// heartbeatPayload carries the timestamp echoed back on heartbeat_ack:
// the one in the heartbeat's data, else the frame's own timestamp.
type heartbeatPayload struct {
	Timestamp time.Time `json:"timestamp"`
}

// seatIDsData is the data payload shape for seats_reserved/seat_released.
type seatIDsData struct {
	SeatIDs     []uint64 `json:"seat_ids"`
	UserSession string   `json:"user_session,omitempty"`
	Reason      string   `json:"reason,omitempty"`
}

// seatUpdateData is the data payload shape for seat_update.
type seatUpdateData struct {
	SeatID uint64 `json:"seat_id"`
	Status string `json:"status"`
}

// errorData carries a human-readable message for type=error frames.
type errorData struct {
	Message string `json:"message"`
}
