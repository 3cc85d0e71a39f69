package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/kseat/cinema-reservation-core/internal/bus"
	"github.com/kseat/cinema-reservation-core/internal/model"
	"github.com/kseat/cinema-reservation-core/internal/queue"
	"github.com/kseat/cinema-reservation-core/internal/repository"
	"github.com/kseat/cinema-reservation-core/internal/ticket"
	"github.com/kseat/cinema-reservation-core/internal/uow"
)

// TicketPublisher is satisfied by *queue.Publisher; narrowed to the one
// method Service needs so tests can fake it without a RabbitMQ broker.
type TicketPublisher interface {
	PublishTicketConfirmed(ctx context.Context, event queue.TicketConfirmedEvent) error
}

// Service implements Create, HandleCallback and Settle, grounded on
// original_source/app/services/payments_service.py's create_payment /
// handle_vnpay_callback / update_payment_status trio, re-architected
// into explicit context+handle passing and typed errors instead of
// request-scoped sessions and HTTPException control flow.
type Service struct {
	Payments     *repository.PaymentRepo
	Transactions *repository.TransactionRepo
	Holds        *repository.HoldRepo
	Showtimes    *repository.ShowtimeRepo
	Seats        *repository.SeatRepo
	Tickets      *ticket.Service
	Gateway      Gateway
	Bus          bus.Bus
	Queue        TicketPublisher
	UoW          *uow.UoW
	Mutex        *KeyedMutex

	// PaymentTTL is stored on the Service but not read by it: Create
	// takes a payment's expiry from its earliest hold, and nothing in
	// this package reclaims unsettled payments.
	PaymentTTL time.Duration
}

// NewService constructs a payment Service.
func NewService(payments *repository.PaymentRepo, transactions *repository.TransactionRepo, holds *repository.HoldRepo, showtimes *repository.ShowtimeRepo, seats *repository.SeatRepo, tickets *ticket.Service, gw Gateway, b bus.Bus, q TicketPublisher, u *uow.UoW, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Service{
		Payments: payments, Transactions: transactions, Holds: holds,
		Showtimes: showtimes, Seats: seats, Tickets: tickets,
		Gateway: gw, Bus: b, Queue: q, UoW: u, Mutex: NewKeyedMutex(),
		PaymentTTL: ttl,
	}
}

// Create gathers the session's pending holds, prices them, and opens a
// pending Payment+Transaction pair.
func (s *Service) Create(ctx context.Context, req CreateRequest, userID uint64, clientIP string) (CreateResponse, error) {
	holds, err := s.Holds.ListPendingBySession(ctx, req.SessionID)
	if err != nil {
		return CreateResponse{}, err
	}
	if len(holds) == 0 {
		return CreateResponse{}, ErrNoReservations
	}
	if !req.Method.Valid() {
		return CreateResponse{}, ErrInvalidMethod
	}

	total, err := s.priceHolds(ctx, holds)
	if err != nil {
		return CreateResponse{}, err
	}

	expiresAt := holds[0].ExpiresAt
	for _, h := range holds[1:] {
		if h.ExpiresAt.Before(expiresAt) {
			expiresAt = h.ExpiresAt
		}
	}

	orderID := uuid.NewString()
	now := time.Now().UTC()
	payment := model.Payment{
		OrderID:       orderID,
		UserID:        userID,
		Amount:        total,
		Method:        req.Method,
		Status:        model.PaymentPending,
		ExpiresAt:     expiresAt,
		ClientIP:      clientIP,
		Description:   req.OrderDesc,
		CustomerEmail: req.CustomerEmail,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	var resp CreateResponse
	err = s.UoW.Do(ctx, func(ctx context.Context, tx *sql.Tx, after func(uow.AfterCommit)) error {
		created, err := s.Payments.CreateTx(ctx, tx, payment)
		if err != nil {
			return err
		}
		txn := model.Transaction{
			UserID:      userID,
			TotalAmount: total,
			Method:      req.Method,
			Status:      model.TransactionPending,
			PaymentID:   created.ID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if _, err := s.Transactions.CreateTx(ctx, tx, txn); err != nil {
			return err
		}
		if _, err := s.Holds.BindPaymentTx(ctx, tx, req.SessionID, created.ID); err != nil {
			return err
		}

		paymentURL := ""
		if req.Method == model.MethodVNPay {
			paymentURL, err = s.Gateway.BuildPaymentURL(GatewayRequest{
				OrderID:   orderID,
				Amount:    total,
				OrderDesc: req.OrderDesc,
				ClientIP:  clientIP,
				Locale:    req.Locale,
				CreatedAt: now,
			})
			if err != nil {
				return fmt.Errorf("payment: build gateway url: %w", err)
			}
		}

		resp = CreateResponse{
			PaymentURL: paymentURL,
			OrderID:    orderID,
			Amount:     total,
			Method:     req.Method,
			Status:     model.PaymentPending,
		}
		return nil
	})
	if err != nil {
		return CreateResponse{}, err
	}
	return resp, nil
}

func (s *Service) priceHolds(ctx context.Context, holds []model.Hold) (uint32, error) {
	var total uint32
	showtimeCache := map[uint64]*model.Showtime{}
	for _, h := range holds {
		showtime, ok := showtimeCache[h.ShowtimeID]
		if !ok {
			var err error
			showtime, err = s.Showtimes.GetByID(ctx, h.ShowtimeID)
			if err != nil {
				return 0, err
			}
			showtimeCache[h.ShowtimeID] = showtime
		}
		seat, err := s.Seats.GetByID(ctx, h.SeatID)
		if err != nil {
			return 0, err
		}
		total += uint32(float64(showtime.BasePrice) * seat.Type.PriceMultiplier())
	}
	return total, nil
}

// HandleCallback validates the gateway's HMAC and interprets the
// callback, then delegates to Settle.
func (s *Service) HandleCallback(ctx context.Context, params url.Values) (SettleResult, error) {
	result := s.Gateway.ValidateCallback(params)
	if !result.Valid {
		return SettleResult{Status: model.PaymentFailed, Reason: "Invalid signature"}, ErrGatewaySignature
	}
	return s.Settle(ctx, result.OrderID, result)
}

// Settle is the critical section of settlement: it is idempotent on
// re-entry, serialized per order-id via Mutex, and hands confirmed
// holds to the ticket issuer only after validating that every bound
// hold is still pending and unexpired.
func (s *Service) Settle(ctx context.Context, orderID string, result CallbackResult) (SettleResult, error) {
	release, err := s.Mutex.Lock(ctx, orderID)
	if err != nil {
		return SettleResult{}, err
	}
	defer release()

	var (
		out        SettleResult
		afterIssue *ticket.IssueResult
	)

	err = s.UoW.DoWithOpts(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable}, func(ctx context.Context, tx *sql.Tx, after func(uow.AfterCommit)) error {
		p, err := s.Payments.GetByOrderIDForUpdateTx(ctx, tx, orderID)
		if err != nil {
			if errors.Is(err, repository.ErrPaymentNotFound) {
				return ErrNotFound
			}
			return err
		}

		// Idempotency gate: a terminal payment never mutates again — a
		// duplicate callback only observes the outcome the first one
		// already committed.
		if p.Status == model.PaymentSuccess {
			txn, err := s.Transactions.GetByPaymentIDTx(ctx, tx, p.ID)
			if err != nil {
				return err
			}
			tickets, err := s.Tickets.Tickets.GetByTransactionID(ctx, txn.ID)
			if err != nil {
				return err
			}
			code := "PROCESSED"
			if len(tickets) > 0 {
				code = tickets[0].BookingCode
			}
			out = SettleResult{Status: model.PaymentSuccess, BookingCode: code}
			return nil
		}
		if p.Status == model.PaymentFailed {
			out = SettleResult{Status: model.PaymentFailed, Reason: p.FailureReason}
			return nil
		}

		if !result.Success {
			reason := fmt.Sprintf("gateway response code %s", result.ResponseCode)
			if err := s.Payments.SettleTx(ctx, tx, p.ID, model.PaymentFailed, toGatewayFields(result), reason); err != nil {
				return err
			}
			if err := s.Transactions.SettleTx(ctx, tx, p.ID, model.TransactionFailed, result.TransactionNo); err != nil {
				return err
			}
			out = SettleResult{Status: model.PaymentFailed, Reason: reason}
			return nil
		}

		holds, err := s.Holds.PendingBoundTo(ctx, p.ID)
		if err != nil {
			return err
		}
		if len(holds) == 0 {
			const reason = "no reservations"
			if err := s.Payments.SettleTx(ctx, tx, p.ID, model.PaymentFailed, toGatewayFields(result), reason); err != nil {
				return err
			}
			if err := s.Transactions.SettleTx(ctx, tx, p.ID, model.TransactionFailed, result.TransactionNo); err != nil {
				return err
			}
			out = SettleResult{Status: model.PaymentFailed, Reason: reason}
			return nil
		}
		now := time.Now().UTC()
		for _, h := range holds {
			if h.ExpiresAt.Before(now) {
				const reason = "expired"
				if err := s.Payments.SettleTx(ctx, tx, p.ID, model.PaymentFailed, toGatewayFields(result), reason); err != nil {
					return err
				}
				if err := s.Transactions.SettleTx(ctx, tx, p.ID, model.TransactionFailed, result.TransactionNo); err != nil {
					return err
				}
				out = SettleResult{Status: model.PaymentFailed, Reason: reason}
				return nil
			}
		}

		txn, err := s.Transactions.GetByPaymentIDTx(ctx, tx, p.ID)
		if err != nil {
			return err
		}
		issued, err := s.Tickets.Issue(ctx, tx, p.UserID, p.ID, txn.ID, result.TransactionNo)
		if err != nil {
			return err
		}
		if err := s.Payments.SettleTx(ctx, tx, p.ID, model.PaymentSuccess, toGatewayFields(result), ""); err != nil {
			return err
		}

		out = SettleResult{Status: model.PaymentSuccess, BookingCode: issued.BookingCode}
		afterIssue = &issued
		email := p.CustomerEmail

		after(func(ctx context.Context) {
			s.publishConfirmedSeats(*afterIssue)
			if email == "" {
				return
			}
			if err := s.Queue.PublishTicketConfirmed(ctx, queue.TicketConfirmedEvent{
				BookingCode:   afterIssue.BookingCode,
				TransactionID: afterIssue.TransactionID,
				CustomerEmail: email,
				ShowtimeIDs:   afterIssue.ShowtimeIDs,
				SeatCodes:     afterIssue.SeatCodes,
				TicketIDs:     afterIssue.TicketIDs,
				TotalAmount:   afterIssue.TotalAmount,
				ConfirmedAt:   time.Now().UTC().Format(time.RFC3339),
			}); err != nil {
				log.Printf("payment: enqueue confirmation email for %s: %v", afterIssue.BookingCode, err)
			}
		})
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return SettleResult{}, ErrNotFound
		default:
			return SettleResult{}, err
		}
	}
	return out, nil
}

// publishConfirmedSeats broadcasts seat_update:{status:confirmed} for
// every seat a successful Settle just issued tickets for, against each
// seat's own showtime — a session's holds are not guaranteed to share
// one. Best-effort: publish failures are never surfaced.
func (s *Service) publishConfirmedSeats(issued ticket.IssueResult) {
	for i, seatID := range issued.SeatIDs {
		_ = s.Bus.Publish(bus.Event{
			Type:       bus.EventSeatUpdate,
			ShowtimeID: issued.ShowtimeIDs[i],
			SeatID:     seatID,
			Status:     string(model.HoldConfirmed),
		})
	}
}

// Status looks up a payment by order id for the read-only
// payment-status endpoint.
func (s *Service) Status(ctx context.Context, orderID string) (model.Payment, error) {
	p, err := s.Payments.GetByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return model.Payment{}, ErrNotFound
		}
		return model.Payment{}, err
	}
	return p, nil
}
