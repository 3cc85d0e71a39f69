package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"strings"

	"github.com/skip2/go-qrcode"
	gomail "gopkg.in/gomail.v2"

	"github.com/kseat/cinema-reservation-core/internal/queue"
)

const confirmationTemplate = `<!doctype html>
<html>
  <body style="margin:0;padding:0;background:#f4f6fb;font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,Arial;">
    <center style="width:100%;background:#f4f6fb;padding:28px 12px;">
      <table role="presentation" width="680" cellpadding="0" cellspacing="0" border="0" style="max-width:680px;width:100%;background:#ffffff;border-radius:12px;overflow:hidden;box-shadow:0 8px 30px rgba(15,23,42,0.06);">
        <tr>
          <td style="padding:18px 20px;background:linear-gradient(90deg,#0f172a,#0f3b91);color:#ffffff;">
            <div style="font-size:18px;font-weight:700;">Your tickets are confirmed</div>
          </td>
        </tr>
        <tr>
          <td style="padding:18px 20px;">
            <div style="font-size:13px;color:#6b7280;margin-bottom:6px;">Booking reference</div>
            <div style="font-size:18px;font-weight:700;color:#0f172a;margin-bottom:12px;">{{ .BookingCode }}</div>
            <div style="font-size:13px;color:#374151;margin-bottom:10px;">Seats: {{ range .SeatCodes }}<span style="display:inline-block;margin:2px 4px;padding:4px 8px;border-radius:999px;background:#eef2ff;color:#0f3b91;font-weight:700;">{{ . }}</span>{{ end }}</div>
            <img src="cid:{{ .QRFilename }}" alt="Ticket QR" width="130" height="130" style="display:block;margin:12px 0;border-radius:8px;"/>
          </td>
        </tr>
      </table>
    </center>
  </body>
</html>`

type confirmationData struct {
	BookingCode string
	SeatCodes   []string
	QRFilename  string
}

// SendConfirmation renders the booking-confirmed template and sends it
// to ev.CustomerEmail, embedding a QR image encoding the booking code
// by content-id exactly as overbookr's SendConfirmationMail does.
// Satisfies queue.Mailer so the AMQP consumer can drive it directly.
func (s *Sender) SendConfirmation(ctx context.Context, ev queue.TicketConfirmedEvent) error {
	if ev.CustomerEmail == "" {
		return fmt.Errorf("mailer: recipient email is empty")
	}

	qrFilename := fmt.Sprintf("qr_%s.png", strings.ReplaceAll(ev.BookingCode, "-", ""))
	png, err := qrcode.Encode(ev.BookingCode, qrcode.Medium, 256)
	var tempPath string
	if err == nil {
		tmp, tmpErr := os.CreateTemp("", qrFilename)
		if tmpErr == nil {
			if _, writeErr := tmp.Write(png); writeErr == nil {
				tempPath = tmp.Name()
			}
			_ = tmp.Close()
		}
	}

	t, err := template.New("confirmation").Parse(confirmationTemplate)
	if err != nil {
		return fmt.Errorf("mailer: parse template: %w", err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, confirmationData{
		BookingCode: ev.BookingCode,
		SeatCodes:   ev.SeatCodes,
		QRFilename:  qrFilename,
	}); err != nil {
		return fmt.Errorf("mailer: execute template: %w", err)
	}

	msg := gomail.NewMessage()
	from := s.SenderName
	if from == "" {
		from = "Cinema <noreply@cinema.local>"
	}
	msg.SetHeader("From", from)
	msg.SetHeader("To", ev.CustomerEmail)
	msg.SetHeader("Subject", fmt.Sprintf("Your tickets — booking %s", ev.BookingCode))
	msg.SetBody("text/html", buf.String())
	if tempPath != "" {
		msg.Embed(tempPath)
		defer os.Remove(tempPath)
	}

	if err := s.send(msg); err != nil {
		return fmt.Errorf("mailer: send confirmation: %w", err)
	}
	return nil
}
