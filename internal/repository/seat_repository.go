package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/kseat/cinema-reservation-core/internal/model"
)

// ErrSeatNotFound is returned when a seat lookup yields no rows.
var ErrSeatNotFound = errors.New("seat not found")

// SeatRepo is a read-only accessor over the seats table. Seat CRUD
// (creating rooms/layouts) belongs to an external catalog collaborator;
// this module only ever needs to resolve a seat's type to price a hold
// or ticket.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

// GetByID retrieves a seat by ID.
func (r *SeatRepo) GetByID(ctx context.Context, id uint64) (*model.Seat, error) {
	const q = `SELECT id, room_id, seat_code, seat_type FROM seats WHERE id = ? LIMIT 1`
	var s model.Seat
	err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.RoomID, &s.SeatCode, &s.Type)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeatNotFound
		}
		return nil, err
	}
	return &s, nil
}

// GetByIDsTx resolves multiple seats within an existing transaction,
// used by the reservation service to validate and price a bulk hold
// request in one round trip.
func (r *SeatRepo) GetByIDsTx(ctx context.Context, tx *sql.Tx, ids []uint64) (map[uint64]model.Seat, error) {
	out := make(map[uint64]model.Seat, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args := buildInQuery(`SELECT id, room_id, seat_code, seat_type FROM seats WHERE id IN (`, ids)
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.RoomID, &s.SeatCode, &s.Type); err != nil {
			return nil, err
		}
		out[s.ID] = s
	}
	return out, rows.Err()
}
