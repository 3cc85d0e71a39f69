package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kseat/cinema-reservation-core/internal/bus"
	"github.com/kseat/cinema-reservation-core/internal/reservation"
	"github.com/kseat/cinema-reservation-core/internal/session"
)

const (
	readDeadline  = 60 * time.Second
	writeDeadline = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub bridges one websocket connection to the event bus and the
// reservation service's subscriber handshake. One Hub instance is
// shared across every connection; ServeShowtime spawns the
// per-connection read/write pumps.
type Hub struct {
	Bus         bus.Bus
	Reservation *reservation.Service
	Sessions    *session.Registry
}

// NewHub constructs a Hub.
func NewHub(b bus.Bus, reservationSvc *reservation.Service, sessions *session.Registry) *Hub {
	return &Hub{Bus: b, Reservation: reservationSvc, Sessions: sessions}
}

// ServeShowtime upgrades the HTTP request to a websocket, attaches a
// session (from the sessionID query parameter or a freshly minted
// one), sends the initial_data snapshot, and runs the connection's
// read and write pumps until it disconnects.
func (h *Hub) ServeShowtime(w http.ResponseWriter, r *http.Request, showtimeID uint64, sessionID string, userID *uint64) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	sess := h.Sessions.New(showtimeID, userID)
	if sessionID != "" {
		sess.ID = sessionID
	}

	events, unsubscribe := h.Bus.Subscribe(showtimeID)
	defer unsubscribe()
	defer h.Sessions.Drop(sess.ID)
	defer conn.Close()

	holds, err := h.Reservation.Snapshot(context.Background(), showtimeID)
	if err != nil {
		log.Printf("ws: snapshot showtime %d: %v", showtimeID, err)
		holds = nil
	}
	if err := writeEnvelope(conn, newEnvelope(TypeInitialData, showtimeID, holds)); err != nil {
		return err
	}

	done := make(chan struct{})
	go h.writePump(conn, events, done)
	go func() {
		// Unblock readPump's blocking ReadJSON call as soon as the
		// write side gives up on this connection.
		<-done
		_ = conn.Close()
	}()
	h.readPump(conn, showtimeID, sess, done)
	return nil
}

// writePump relays bus events to the connection until the events
// channel closes or a write fails, enforcing the 5s write deadline per
// frame; it closes done when it returns.
func (h *Hub) writePump(conn *websocket.Conn, events <-chan bus.Event, done chan struct{}) {
	defer close(done)
	for ev := range events {
		env := eventToEnvelope(ev)
		if err := writeEnvelope(conn, env); err != nil {
			return
		}
	}
}

// readPump processes inbound frames until the connection errors, the
// read deadline lapses (60s idle), or the writer side closes done
// first.
func (h *Hub) readPump(conn *websocket.Conn, showtimeID uint64, sess *session.Session, done chan struct{}) {
	conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})
	for {
		select {
		case <-done:
			return
		default:
		}
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		h.Sessions.Touch(sess.ID)
		h.handleInbound(conn, showtimeID, sess, env)
	}
}

func (h *Hub) handleInbound(conn *websocket.Conn, showtimeID uint64, sess *session.Session, env Envelope) {
	switch env.Type {
	case TypePing:
		_ = writeEnvelope(conn, newEnvelope(TypePong, showtimeID, nil))
	case TypeHeartbeat:
		hb := heartbeatPayload{Timestamp: env.Timestamp}
		if raw, err := json.Marshal(env.Data); err == nil {
			_ = json.Unmarshal(raw, &hb)
		}
		_ = writeEnvelope(conn, newEnvelope(TypeHeartbeatAck, showtimeID, hb))
	case TypeReserveSeat:
		h.handleReserveSeat(conn, showtimeID, sess, env)
	default:
		_ = writeEnvelope(conn, newEnvelope(TypeError, showtimeID, errorData{Message: "unrecognised message type"}))
	}
}

func (h *Hub) handleReserveSeat(conn *websocket.Conn, showtimeID uint64, sess *session.Session, env Envelope) {
	raw, err := json.Marshal(env.Data)
	if err != nil {
		_ = writeEnvelope(conn, newEnvelope(TypeError, showtimeID, errorData{Message: "malformed reserve_seat payload"}))
		return
	}
	var payload reserveSeatPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.SeatID == 0 {
		_ = writeEnvelope(conn, newEnvelope(TypeError, showtimeID, errorData{Message: "malformed reserve_seat payload"}))
		return
	}
	if _, err := h.Reservation.Reserve(context.Background(), showtimeID, payload.SeatID, sess.ID, payload.UserID); err != nil {
		_ = writeEnvelope(conn, newEnvelope(TypeError, showtimeID, errorData{Message: err.Error()}))
	}
	// On success the reservation service already published
	// seats_reserved on the bus; this connection receives it like any
	// other subscriber via writePump.
}

func eventToEnvelope(ev bus.Event) Envelope {
	switch ev.Type {
	case bus.EventSeatUpdate:
		return newEnvelope(TypeSeatUpdate, ev.ShowtimeID, seatUpdateData{SeatID: ev.SeatID, Status: ev.Status})
	case bus.EventSeatsReserved:
		return newEnvelope(TypeSeatsReserved, ev.ShowtimeID, seatIDsData{SeatIDs: ev.SeatIDs, UserSession: ev.SessionID})
	case bus.EventSeatReleased:
		return newEnvelope(TypeSeatReleased, ev.ShowtimeID, seatIDsData{SeatIDs: ev.SeatIDs, Reason: ev.Reason})
	default:
		return newEnvelope(MessageType(ev.Type), ev.ShowtimeID, ev)
	}
}

func writeEnvelope(conn *websocket.Conn, env Envelope) error {
	conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	return conn.WriteJSON(env)
}

// Status returns the number of live subscribers for a showtime,
// backing GET /ws/status/{showtime_id}. Only MemoryBus exposes a count
// directly; for a RedisBus-backed deployment this reports 0 and
// callers should rely on the cache's own subscriber introspection.
func Status(b bus.Bus, showtimeID uint64) int {
	if mb, ok := b.(*bus.MemoryBus); ok {
		return mb.ConnectionCount(showtimeID)
	}
	return 0
}
