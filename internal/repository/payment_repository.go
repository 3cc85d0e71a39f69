package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/kseat/cinema-reservation-core/internal/model"
)

// ErrPaymentNotFound is returned when an order id resolves to no row.
var ErrPaymentNotFound = errors.New("payment not found")

// PaymentRepo persists Payment rows.
//
//	CREATE TABLE payments (
//	  id              BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
//	  order_id        VARCHAR(64) NOT NULL UNIQUE,
//	  user_id         BIGINT UNSIGNED NOT NULL,
//	  amount          BIGINT UNSIGNED NOT NULL,
//	  method          VARCHAR(16) NOT NULL,
//	  status          ENUM('pending','success','failed','cancelled') NOT NULL,
//	  gateway_url     TEXT NULL,
//	  txn_ref         VARCHAR(64) NULL,
//	  transaction_no  VARCHAR(64) NULL,
//	  bank_code       VARCHAR(32) NULL,
//	  card_type       VARCHAR(32) NULL,
//	  pay_date        VARCHAR(32) NULL,
//	  response_code   VARCHAR(8)  NULL,
//	  failure_reason  VARCHAR(255) NULL,
//	  expires_at      DATETIME NOT NULL,
//	  client_ip       VARCHAR(64) NOT NULL,
//	  description     VARCHAR(255) NOT NULL,
//	  customer_email  VARCHAR(255) NOT NULL,
//	  created_at      DATETIME NOT NULL,
//	  updated_at      DATETIME NOT NULL,
//	  KEY ix_payments_txnref (txn_ref)
//	);
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo constructs a PaymentRepo with the given DB handle.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// DB returns the underlying handle for callers needing a shared
// transaction with other repositories.
func (r *PaymentRepo) DB() *sql.DB { return r.db }

const paymentCols = `id, order_id, user_id, amount, method, status, gateway_url,
	txn_ref, transaction_no, bank_code, card_type, pay_date, response_code,
	failure_reason, expires_at, client_ip, description, customer_email, created_at, updated_at`

func scanPayment(row interface{ Scan(...interface{}) error }) (model.Payment, error) {
	var p model.Payment
	var userID sql.NullInt64
	var gatewayURL, txnRef, txnNo, bankCode, cardType, payDate, respCode, failureReason sql.NullString
	var method, status string
	if err := row.Scan(&p.ID, &p.OrderID, &userID, &p.Amount, &method, &status, &gatewayURL,
		&txnRef, &txnNo, &bankCode, &cardType, &payDate, &respCode, &failureReason,
		&p.ExpiresAt, &p.ClientIP, &p.Description, &p.CustomerEmail, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return model.Payment{}, err
	}
	p.FailureReason = failureReason.String
	p.Method = model.PaymentMethod(method)
	p.Status = model.PaymentStatus(status)
	p.UserID = uint64(userID.Int64)
	p.GatewayURL = gatewayURL.String
	p.Gateway = model.GatewayFields{
		TxnRef:        txnRef.String,
		TransactionNo: txnNo.String,
		BankCode:      bankCode.String,
		CardType:      cardType.String,
		PayDate:       payDate.String,
		ResponseCode:  respCode.String,
	}
	return p, nil
}

// CreateTx inserts a new pending payment within the caller's
// transaction, returning the populated model with its generated id.
func (r *PaymentRepo) CreateTx(ctx context.Context, tx *sql.Tx, p model.Payment) (model.Payment, error) {
	const q = `INSERT INTO payments (order_id, user_id, amount, method, status, gateway_url,
		expires_at, client_ip, description, customer_email, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, p.OrderID, p.UserID, p.Amount, string(p.Method),
		string(p.Status), p.GatewayURL, p.ExpiresAt, p.ClientIP, p.Description, p.CustomerEmail, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return model.Payment{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Payment{}, err
	}
	p.ID = uint64(id)
	return p, nil
}

// GetByOrderID fetches a payment by its external order id.
func (r *PaymentRepo) GetByOrderID(ctx context.Context, orderID string) (model.Payment, error) {
	const q = `SELECT ` + paymentCols + ` FROM payments WHERE order_id = ? LIMIT 1`
	p, err := scanPayment(r.db.QueryRowContext(ctx, q, orderID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Payment{}, ErrPaymentNotFound
		}
		return model.Payment{}, err
	}
	return p, nil
}

// GetByOrderIDForUpdateTx locks the payment row for the duration of
// the caller's transaction, used by Settle to serialize concurrent
// gateway callbacks on the same order.
func (r *PaymentRepo) GetByOrderIDForUpdateTx(ctx context.Context, tx *sql.Tx, orderID string) (model.Payment, error) {
	const q = `SELECT ` + paymentCols + ` FROM payments WHERE order_id = ? LIMIT 1 FOR UPDATE`
	p, err := scanPayment(tx.QueryRowContext(ctx, q, orderID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Payment{}, ErrPaymentNotFound
		}
		return model.Payment{}, err
	}
	return p, nil
}

// SettleTx transitions a payment to a terminal or failed status and
// records the gateway's response fields, within the caller's
// transaction. reason is only meaningful for a Failed transition; it is
// always written to failure_reason, so a Success transition stores the
// empty string the caller passes.
func (r *PaymentRepo) SettleTx(ctx context.Context, tx *sql.Tx, id uint64, status model.PaymentStatus, g model.GatewayFields, reason string) error {
	const q = `UPDATE payments SET status = ?, txn_ref = ?, transaction_no = ?, bank_code = ?,
		card_type = ?, pay_date = ?, response_code = ?, failure_reason = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, string(status), g.TxnRef, g.TransactionNo, g.BankCode, g.CardType, g.PayDate, g.ResponseCode, reason, id)
	return err
}

// ExpirePendingTx cancels payments whose expires_at has passed and are
// still pending, returning their order ids so the caller can release
// the holds bound to them.
func (r *PaymentRepo) ExpirePendingTx(ctx context.Context, tx *sql.Tx, now time.Time) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `SELECT order_id FROM payments WHERE status = 'pending' AND expires_at <= ?`, now)
	if err != nil {
		return nil, err
	}
	var orderIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		orderIDs = append(orderIDs, id)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if len(orderIDs) == 0 {
		return orderIDs, nil
	}
	if _, err := tx.ExecContext(ctx, `UPDATE payments SET status = 'cancelled', updated_at = UTC_TIMESTAMP() WHERE status = 'pending' AND expires_at <= ?`, now); err != nil {
		return nil, err
	}
	return orderIDs, nil
}
