package ticket

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kseat/cinema-reservation-core/internal/model"
	"github.com/kseat/cinema-reservation-core/internal/repository"
)

// bookingCodeAlphabet mirrors payments_service.py's
// string.ascii_uppercase + string.digits suffix pool.
const bookingCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// maxBookingCodeAttempts bounds the collision-retry loop; the
// 4-character suffix gives 36^4 (~1.68M) codes per day, so a collision
// on retry is vanishingly unlikely in practice.
const maxBookingCodeAttempts = 5

// IssueResult is everything the payment orchestrator needs after a
// successful issue, to confirm the transaction and enqueue the
// confirmation email. ShowtimeIDs is parallel to SeatIDs/SeatCodes/
// TicketIDs: a session's pending holds can span more than one
// showtime, so there is no single showtime to report, only a
// per-ticket one.
type IssueResult struct {
	BookingCode   string
	TicketIDs     []uint64
	SeatIDs       []uint64
	SeatCodes     []string
	ShowtimeIDs   []uint64
	TotalAmount   uint32
	TransactionID uint64
}

// Service implements C7: turning a set of confirmed holds bound to one
// payment into Ticket rows sharing a booking code, grounded on
// original_source/app/services/payments_service.py's
// process_successful_payment.
type Service struct {
	Tickets      *repository.TicketRepo
	Holds        *repository.HoldRepo
	Transactions *repository.TransactionRepo
	Seats        *repository.SeatRepo
	Showtimes    *repository.ShowtimeRepo
	QRSecret     string
}

// NewService constructs a ticket Service.
func NewService(tickets *repository.TicketRepo, holds *repository.HoldRepo, transactions *repository.TransactionRepo, seats *repository.SeatRepo, showtimes *repository.ShowtimeRepo, qrSecret string) *Service {
	return &Service{Tickets: tickets, Holds: holds, Transactions: transactions, Seats: seats, Showtimes: showtimes, QRSecret: qrSecret}
}

// Issue confirms every pending hold bound to paymentID, creates one
// Ticket row per hold sharing a freshly minted booking code, signs each
// ticket's QR payload, and stamps the transaction as settled. It must
// run inside tx so a failure anywhere leaves neither tickets nor a
// confirmed hold behind. Holds bound to the same payment are not
// required to share a showtime, so pricing resolves each hold's own
// showtime rather than assuming a single one for the whole batch
// (mirrors payment.Service.priceHolds).
func (s *Service) Issue(ctx context.Context, tx *sql.Tx, userID uint64, paymentID, transactionID uint64, externalRef string) (IssueResult, error) {
	holds, err := s.Holds.PendingBoundTo(ctx, paymentID)
	if err != nil {
		return IssueResult{}, err
	}
	if len(holds) == 0 {
		return IssueResult{}, ErrNoHolds
	}

	seatIDs := make([]uint64, len(holds))
	for i, h := range holds {
		seatIDs[i] = h.SeatID
	}
	seats, err := s.Seats.GetByIDsTx(ctx, tx, seatIDs)
	if err != nil {
		return IssueResult{}, err
	}

	bookingCode, err := s.mintBookingCode(ctx)
	if err != nil {
		return IssueResult{}, err
	}

	now := time.Now().UTC()
	tickets := make([]model.Ticket, len(holds))
	showtimeCache := map[uint64]*model.Showtime{}
	var totalAmount uint32
	for i, h := range holds {
		seat, ok := seats[h.SeatID]
		if !ok {
			return IssueResult{}, repository.ErrSeatNotFound
		}
		showtime, ok := showtimeCache[h.ShowtimeID]
		if !ok {
			var err error
			showtime, err = s.Showtimes.GetByID(ctx, h.ShowtimeID)
			if err != nil {
				return IssueResult{}, err
			}
			showtimeCache[h.ShowtimeID] = showtime
		}
		price := uint32(float64(showtime.BasePrice) * seat.Type.PriceMultiplier())
		totalAmount += price
		tickets[i] = model.Ticket{
			UserID:        userID,
			ShowtimeID:    h.ShowtimeID,
			SeatID:        h.SeatID,
			Price:         price,
			Status:        model.TicketConfirmed,
			BookingCode:   bookingCode,
			TransactionID: transactionID,
			BookingTime:   now,
		}
	}

	created, err := s.Tickets.CreateBulkTx(ctx, tx, tickets)
	if err != nil {
		return IssueResult{}, err
	}

	seatCodes := make([]string, len(created))
	ticketIDs := make([]uint64, len(created))
	showtimeIDs := make([]uint64, len(created))
	for i, t := range created {
		seat := seats[t.SeatID]
		qr, err := signQRPayload(s.QRSecret, t.ID, t.UserID, t.ShowtimeID, t.SeatID, t.Price, bookingCode)
		if err != nil {
			return IssueResult{}, fmt.Errorf("ticket: sign qr payload: %w", err)
		}
		if err := s.Tickets.UpdateQRPayloadTx(ctx, tx, t.ID, qr); err != nil {
			return IssueResult{}, err
		}
		seatCodes[i] = seat.SeatCode
		ticketIDs[i] = t.ID
		showtimeIDs[i] = t.ShowtimeID
	}

	if err := s.Holds.ConfirmByPaymentTx(ctx, tx, paymentID, transactionID, seatIDs); err != nil {
		return IssueResult{}, err
	}
	if err := s.Transactions.SettleTx(ctx, tx, paymentID, model.TransactionSuccess, externalRef); err != nil {
		return IssueResult{}, err
	}

	return IssueResult{
		BookingCode:   bookingCode,
		TicketIDs:     ticketIDs,
		SeatIDs:       seatIDs,
		SeatCodes:     seatCodes,
		ShowtimeIDs:   showtimeIDs,
		TotalAmount:   totalAmount,
		TransactionID: transactionID,
	}, nil
}

// mintBookingCode generates a "BK" + yyyymmdd + 4 random alphanumeric
// characters code, retrying on the rare collision against an existing
// booking (payments_service.py's f-string generator, made collision-safe).
func (s *Service) mintBookingCode(ctx context.Context) (string, error) {
	prefix := "BK" + time.Now().UTC().Format("20060102")
	for attempt := 0; attempt < maxBookingCodeAttempts; attempt++ {
		suffix, err := randomAlnum(4)
		if err != nil {
			return "", err
		}
		code := prefix + suffix
		if _, err := s.Tickets.GetByBookingCode(ctx, code); err != nil {
			if errors.Is(err, repository.ErrTicketNotFound) {
				return code, nil
			}
			return "", err
		}
	}
	return "", fmt.Errorf("ticket: could not mint a unique booking code after %d attempts", maxBookingCodeAttempts)
}

func randomAlnum(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = bookingCodeAlphabet[int(b)%len(bookingCodeAlphabet)]
	}
	return string(out), nil
}
