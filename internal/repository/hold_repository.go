package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/kseat/cinema-reservation-core/internal/model"
)

// HoldRepo is the durable store for Hold rows. Uniqueness of a live
// (showtime, seat) pair is enforced two ways at once:
//
//  1. a generated stored column `live_seat` (seat_id when status is
//     pending or confirmed, NULL otherwise) carrying a regular UNIQUE
//     KEY on (showtime_id, live_seat) — MySQL/InnoDB has no native
//     partial index, so this generated-column trick is the idiomatic
//     MySQL equivalent of Postgres's `WHERE status IN (...)` partial
//     unique index;
//  2. hold inserts, cancellations and sweeps run inside a
//     sql.LevelSerializable transaction, so
//     a losing INSERT surfaces as a duplicate-key error rather than a
//     race two callers can both "win".
//
// Expected DDL:
//
//	CREATE TABLE holds (
//	  id              BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
//	  showtime_id     BIGINT UNSIGNED NOT NULL,
//	  seat_id         BIGINT UNSIGNED NOT NULL,
//	  session_id      VARCHAR(128) NOT NULL,
//	  user_id         BIGINT UNSIGNED NULL,
//	  reserved_at     DATETIME NOT NULL,
//	  expires_at      DATETIME NOT NULL,
//	  status          ENUM('pending','confirmed','cancelled') NOT NULL,
//	  payment_id      BIGINT UNSIGNED NULL,
//	  transaction_id  BIGINT UNSIGNED NULL,
//	  live_seat       BIGINT UNSIGNED GENERATED ALWAYS AS
//	                     (CASE WHEN status IN ('pending','confirmed') THEN seat_id ELSE NULL END) STORED,
//	  UNIQUE KEY ux_holds_live (showtime_id, live_seat),
//	  KEY ix_holds_session (session_id),
//	  KEY ix_holds_payment (payment_id)
//	);
type HoldRepo struct {
	db *sql.DB
}

// NewHoldRepo returns a new HoldRepo bound to the provided database.
func NewHoldRepo(db *sql.DB) *HoldRepo { return &HoldRepo{db: db} }

// DB returns the underlying handle so callers needing a shared
// transaction across repositories can begin one here, mirroring the
// teacher's ShowRepo.DB() pattern.
func (r *HoldRepo) DB() *sql.DB { return r.db }

const holdCols = `id, showtime_id, seat_id, session_id, user_id, reserved_at, expires_at, status, payment_id, transaction_id`

func scanHold(row interface{ Scan(...interface{}) error }) (model.Hold, error) {
	var h model.Hold
	var userID sql.NullInt64
	var paymentID, txnID sql.NullInt64
	var status string
	if err := row.Scan(&h.ID, &h.ShowtimeID, &h.SeatID, &h.SessionID, &userID, &h.ReservedAt, &h.ExpiresAt, &status, &paymentID, &txnID); err != nil {
		return model.Hold{}, err
	}
	h.Status = model.HoldStatus(status)
	if userID.Valid {
		v := uint64(userID.Int64)
		h.UserID = &v
	}
	if paymentID.Valid {
		v := uint64(paymentID.Int64)
		h.PaymentID = &v
	}
	if txnID.Valid {
		v := uint64(txnID.Int64)
		h.TransactionID = &v
	}
	return h, nil
}

// List returns all holds for a showtime whose status is pending
// (not expired) or confirmed. Used to seed new subscribers.
func (r *HoldRepo) List(ctx context.Context, showtimeID uint64) ([]model.Hold, error) {
	const q = `SELECT ` + holdCols + ` FROM holds
	           WHERE showtime_id = ? AND (status = 'confirmed' OR (status = 'pending' AND expires_at > UTC_TIMESTAMP()))
	           ORDER BY seat_id`
	rows, err := r.db.QueryContext(ctx, q, showtimeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Hold
	for rows.Next() {
		h, err := scanHold(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// ListPendingBySession returns every pending, unexpired hold owned by
// sessionID across all showtimes, used by the payment orchestrator to
// gather what a Create(request) is paying for.
func (r *HoldRepo) ListPendingBySession(ctx context.Context, sessionID string) ([]model.Hold, error) {
	const q = `SELECT ` + holdCols + ` FROM holds
	           WHERE session_id = ? AND status = 'pending' AND expires_at > UTC_TIMESTAMP()
	           ORDER BY seat_id`
	rows, err := r.db.QueryContext(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Hold
	for rows.Next() {
		h, err := scanHold(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// TryCreate inserts a pending hold for (showtime, seat). On a
// unique-constraint violation it loads the existing live hold and
// returns it wrapped in *repository.Conflict so the caller can tell
// SeatSold (existing confirmed) apart from SeatHeld (existing pending,
// unexpired). An existing pending hold that has already expired is
// cancelled and the insert is retried instead.
func (r *HoldRepo) TryCreate(ctx context.Context, showtimeID, seatID uint64, sessionID string, userID *uint64, ttl time.Duration) (model.Hold, error) {
	holds, err := r.tryCreateTx(ctx, nil, showtimeID, []uint64{seatID}, sessionID, userID, ttl)
	if err != nil {
		return model.Hold{}, err
	}
	return holds[0], nil
}

// TryCreateBulk inserts pending holds for every (showtimeID, seatID)
// pair in one all-or-nothing transaction: either every seat inserts or
// none does. On the first conflict, the transaction is rolled back and
// the conflict is returned.
func (r *HoldRepo) TryCreateBulk(ctx context.Context, showtimeID uint64, seatIDs []uint64, sessionID string, userID *uint64, ttl time.Duration) ([]model.Hold, error) {
	return r.tryCreateTx(ctx, nil, showtimeID, seatIDs, sessionID, userID, ttl)
}

func (r *HoldRepo) tryCreateTx(ctx context.Context, extTx *sql.Tx, showtimeID uint64, seatIDs []uint64, sessionID string, userID *uint64, ttl time.Duration) ([]model.Hold, error) {
	tx := extTx
	if tx == nil {
		var err error
		tx, err = r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
		if err != nil {
			return nil, err
		}
		defer func() { _ = tx.Rollback() }()
	}

	now := time.Now().UTC()
	expiresAt := now.Add(ttl)
	const ins = `INSERT INTO holds (showtime_id, seat_id, session_id, user_id, reserved_at, expires_at, status)
	             VALUES (?, ?, ?, ?, ?, ?, 'pending')`
	out := make([]model.Hold, 0, len(seatIDs))
	for _, seatID := range seatIDs {
		res, err := tx.ExecContext(ctx, ins, showtimeID, seatID, sessionID, nullableUint64(userID), now, expiresAt)
		if err != nil {
			var mysqlErr *mysql.MySQLError
			if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
				existing, lookupErr := r.liveHoldTx(ctx, tx, showtimeID, seatID)
				if lookupErr != nil {
					return nil, lookupErr
				}
				if !existing.Expired(now) {
					return nil, &Conflict{ShowtimeID: showtimeID, SeatID: seatID, ExistingStatus: string(existing.Status)}
				}
				// A lapsed pending hold no longer occupies the seat even
				// before the reaper sweeps it: cancel it and insert again.
				if _, err := tx.ExecContext(ctx, `UPDATE holds SET status = 'cancelled' WHERE id = ?`, existing.ID); err != nil {
					return nil, err
				}
				res, err = tx.ExecContext(ctx, ins, showtimeID, seatID, sessionID, nullableUint64(userID), now, expiresAt)
			}
			if err != nil {
				return nil, err
			}
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		out = append(out, model.Hold{
			ID: uint64(id), ShowtimeID: showtimeID, SeatID: seatID, SessionID: sessionID,
			UserID: userID, ReservedAt: now, ExpiresAt: expiresAt, Status: model.HoldPending,
		})
	}

	if extTx == nil {
		if err := tx.Commit(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *HoldRepo) liveHoldTx(ctx context.Context, tx *sql.Tx, showtimeID, seatID uint64) (model.Hold, error) {
	const q = `SELECT ` + holdCols + ` FROM holds
	           WHERE showtime_id = ? AND seat_id = ? AND live_seat IS NOT NULL LIMIT 1`
	h, err := scanHold(tx.QueryRowContext(ctx, q, showtimeID, seatID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Hold{}, ErrNotFound
		}
		return model.Hold{}, err
	}
	return h, nil
}

// PendingOwners returns, for every seat in seatIDs that currently
// carries a pending unexpired hold on showtimeID, the session_id that
// owns it. Seats with no live hold are simply absent from the map.
// Used to tell "nothing to release" apart from "session doesn't own
// this seat".
func (r *HoldRepo) PendingOwners(ctx context.Context, showtimeID uint64, seatIDs []uint64) (map[uint64]string, error) {
	if len(seatIDs) == 0 {
		return nil, nil
	}
	q, args := buildInQuery(`SELECT seat_id, session_id FROM holds
	           WHERE showtime_id = ? AND status = 'pending' AND expires_at > UTC_TIMESTAMP() AND seat_id IN (`, seatIDs)
	args = append([]interface{}{showtimeID}, args...)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	owners := make(map[uint64]string, len(seatIDs))
	for rows.Next() {
		var seatID uint64
		var sessionID string
		if err := rows.Scan(&seatID, &sessionID); err != nil {
			return nil, err
		}
		owners[seatID] = sessionID
	}
	return owners, rows.Err()
}

// CancelByOwner marks as cancelled the pending holds owned by session for the given
// seats (or all of the session's seats on that showtime when seatIDs is
// empty) and returns the seat ids actually released.
func (r *HoldRepo) CancelByOwner(ctx context.Context, showtimeID uint64, seatIDs []uint64, sessionID string) ([]uint64, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var rows *sql.Rows
	if len(seatIDs) == 0 {
		rows, err = tx.QueryContext(ctx, `SELECT seat_id FROM holds WHERE showtime_id = ? AND session_id = ? AND status = 'pending'`, showtimeID, sessionID)
	} else {
		q, args := buildInQuery(`SELECT seat_id FROM holds WHERE showtime_id = ? AND session_id = ? AND status = 'pending' AND seat_id IN (`, seatIDs)
		args = append([]interface{}{showtimeID, sessionID}, args...)
		rows, err = tx.QueryContext(ctx, q, args...)
	}
	if err != nil {
		return nil, err
	}
	var released []uint64
	for rows.Next() {
		var sid uint64
		if err := rows.Scan(&sid); err != nil {
			rows.Close()
			return nil, err
		}
		released = append(released, sid)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if len(released) == 0 {
		return nil, tx.Commit()
	}

	q, args := buildInQuery(`UPDATE holds SET status = 'cancelled' WHERE showtime_id = ? AND session_id = ? AND status = 'pending' AND seat_id IN (`, released)
	args = append([]interface{}{showtimeID, sessionID}, args...)
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return nil, err
	}
	return released, tx.Commit()
}

// BindPayment sets payment_id on every pending hold owned by session,
// across every showtime the session holds seats on. Returns the number
// of holds bound.
func (r *HoldRepo) BindPayment(ctx context.Context, sessionID string, paymentID uint64) (int64, error) {
	const q = `UPDATE holds SET payment_id = ? WHERE session_id = ? AND status = 'pending'`
	res, err := r.db.ExecContext(ctx, q, paymentID, sessionID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// BindPaymentTx is BindPayment run inside the caller's transaction, so
// the Payment insert and the hold binding commit or roll back together.
func (r *HoldRepo) BindPaymentTx(ctx context.Context, tx *sql.Tx, sessionID string, paymentID uint64) (int64, error) {
	const q = `UPDATE holds SET payment_id = ? WHERE session_id = ? AND status = 'pending'`
	res, err := tx.ExecContext(ctx, q, paymentID, sessionID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// PendingBoundTo returns the pending holds bound to a payment, used by
// the payment orchestrator to validate before issuing tickets.
func (r *HoldRepo) PendingBoundTo(ctx context.Context, paymentID uint64) ([]model.Hold, error) {
	const q = `SELECT ` + holdCols + ` FROM holds WHERE payment_id = ? AND status = 'pending'`
	rows, err := r.db.QueryContext(ctx, q, paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Hold
	for rows.Next() {
		h, err := scanHold(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// ConfirmByPaymentTx transitions every pending hold bound to paymentID
// to confirmed, stamping transactionID, within the caller's
// transaction. It fails (returning ErrConflict) if any bound hold has
// drifted out of pending between validation and this call.
func (r *HoldRepo) ConfirmByPaymentTx(ctx context.Context, tx *sql.Tx, paymentID, transactionID uint64, seatIDs []uint64) error {
	if len(seatIDs) == 0 {
		return nil
	}
	q, args := buildInQuery(`UPDATE holds SET status = 'confirmed', transaction_id = ?
	           WHERE payment_id = ? AND status = 'pending' AND seat_id IN (`, seatIDs)
	args = append([]interface{}{transactionID, paymentID}, args...)
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != int64(len(seatIDs)) {
		return ErrConflict
	}
	return nil
}

// SweepExpired cancels every pending hold whose expires_at has passed
// and returns the released seat ids grouped by showtime.
func (r *HoldRepo) SweepExpired(ctx context.Context, now time.Time) (map[uint64][]uint64, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `SELECT showtime_id, seat_id FROM holds WHERE status = 'pending' AND expires_at <= ?`, now)
	if err != nil {
		return nil, err
	}
	out := make(map[uint64][]uint64)
	for rows.Next() {
		var showtimeID, seatID uint64
		if err := rows.Scan(&showtimeID, &seatID); err != nil {
			rows.Close()
			return nil, err
		}
		out[showtimeID] = append(out[showtimeID], seatID)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, tx.Commit()
	}
	if _, err := tx.ExecContext(ctx, `UPDATE holds SET status = 'cancelled' WHERE status = 'pending' AND expires_at <= ?`, now); err != nil {
		return nil, err
	}
	return out, tx.Commit()
}

func nullableUint64(v *uint64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
