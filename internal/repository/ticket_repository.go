package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/kseat/cinema-reservation-core/internal/model"
)

// ErrTicketNotFound is returned when a booking code resolves to no rows.
var ErrTicketNotFound = errors.New("ticket not found")

// TicketRepo persists Ticket rows.
//
//	CREATE TABLE tickets (
//	  id              BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
//	  user_id         BIGINT UNSIGNED NOT NULL,
//	  showtime_id     BIGINT UNSIGNED NOT NULL,
//	  seat_id         BIGINT UNSIGNED NOT NULL,
//	  price           BIGINT UNSIGNED NOT NULL,
//	  status          ENUM('pending','confirmed','cancelled') NOT NULL,
//	  booking_code    VARCHAR(32) NOT NULL,
//	  qr_payload      TEXT NOT NULL,
//	  transaction_id  BIGINT UNSIGNED NOT NULL,
//	  booking_time    DATETIME NOT NULL,
//	  KEY ix_tickets_code (booking_code),
//	  KEY ix_tickets_txn (transaction_id)
//	);
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo constructs a TicketRepo with the given DB handle.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

const ticketCols = `id, user_id, showtime_id, seat_id, price, status, booking_code, qr_payload, transaction_id, booking_time`

func scanTicket(row interface{ Scan(...interface{}) error }) (model.Ticket, error) {
	var t model.Ticket
	var userID sql.NullInt64
	var status string
	if err := row.Scan(&t.ID, &userID, &t.ShowtimeID, &t.SeatID, &t.Price, &status, &t.BookingCode, &t.QRPayload, &t.TransactionID, &t.BookingTime); err != nil {
		return model.Ticket{}, err
	}
	t.Status = model.TicketStatus(status)
	t.UserID = uint64(userID.Int64)
	return t, nil
}

// CreateBulkTx inserts one ticket row per seat in tickets, all sharing
// the same booking code and transaction id, within the caller's
// transaction.
func (r *TicketRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, tickets []model.Ticket) ([]model.Ticket, error) {
	const q = `INSERT INTO tickets (user_id, showtime_id, seat_id, price, status, booking_code, qr_payload, transaction_id, booking_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	out := make([]model.Ticket, 0, len(tickets))
	for _, t := range tickets {
		res, err := tx.ExecContext(ctx, q, t.UserID, t.ShowtimeID, t.SeatID, t.Price, string(t.Status), t.BookingCode, t.QRPayload, t.TransactionID, t.BookingTime)
		if err != nil {
			return nil, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		t.ID = uint64(id)
		out = append(out, t)
	}
	return out, nil
}

// UpdateQRPayloadTx persists the signed QR payload for a ticket whose
// row already exists (qr signing needs the DB-generated ticket id, so
// it necessarily happens after CreateBulkTx, in the same transaction).
func (r *TicketRepo) UpdateQRPayloadTx(ctx context.Context, tx *sql.Tx, ticketID uint64, qrPayload string) error {
	const q = `UPDATE tickets SET qr_payload = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, qrPayload, ticketID)
	return err
}

// GetByBookingCode returns every ticket sharing a booking code, used to
// render a single e-ticket/email covering all seats in a purchase.
func (r *TicketRepo) GetByBookingCode(ctx context.Context, code string) ([]model.Ticket, error) {
	const q = `SELECT ` + ticketCols + ` FROM tickets WHERE booking_code = ?`
	rows, err := r.db.QueryContext(ctx, q, code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrTicketNotFound
	}
	return out, nil
}

// GetByTransactionID returns every ticket issued for a transaction.
func (r *TicketRepo) GetByTransactionID(ctx context.Context, transactionID uint64) ([]model.Ticket, error) {
	const q = `SELECT ` + ticketCols + ` FROM tickets WHERE transaction_id = ?`
	rows, err := r.db.QueryContext(ctx, q, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
