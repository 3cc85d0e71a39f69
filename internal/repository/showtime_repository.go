package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/kseat/cinema-reservation-core/internal/model"
)

// ErrShowtimeNotFound is returned when a showtime lookup yields no rows.
var ErrShowtimeNotFound = errors.New("showtime not found")

// ShowtimeRepo is a read-only accessor over the showtimes table.
// Showtime CRUD belongs to an external catalog collaborator; this
// module only needs start time and base price to validate and price
// holds.
type ShowtimeRepo struct {
	db *sql.DB
}

// NewShowtimeRepo constructs a ShowtimeRepo with the given DB handle.
func NewShowtimeRepo(db *sql.DB) *ShowtimeRepo {
	return &ShowtimeRepo{db: db}
}

// DB returns the underlying handle so callers can begin their own
// transactions spanning multiple repositories, mirroring ShowRepo.DB()'s
// pattern.
func (r *ShowtimeRepo) DB() *sql.DB { return r.db }

func (r *ShowtimeRepo) GetByID(ctx context.Context, id uint64) (*model.Showtime, error) {
	const q = `SELECT id, movie_id, room_id, start_time, base_price, language, format
	           FROM showtimes WHERE id = ? LIMIT 1`
	var s model.Showtime
	err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.MovieID, &s.RoomID, &s.StartTime, &s.BasePrice, &s.Language, &s.Format)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShowtimeNotFound
		}
		return nil, err
	}
	return &s, nil
}
