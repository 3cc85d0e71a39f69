// Package mailer sends best-effort ticket-confirmation emails,
// adapted from abhinandanwadwa-overbookr's internal/api/utils
// gomail.go/emails.go: the same gomail dialer, the same
// embed-QR-by-cid technique, generalized from a generic-event booking
// confirmation to a cinema ticket confirmation.
package mailer

import (
	"crypto/tls"

	gomail "gopkg.in/gomail.v2"
)

// Sender holds SMTP dialer configuration: host/port/username/password/
// sender.
type Sender struct {
	Host       string
	Port       int
	Username   string
	Password   string
	SenderName string

	// InsecureSkipVerify disables TLS certificate verification, useful
	// against a self-signed dev SMTP server.
	InsecureSkipVerify bool
}

// NewSender constructs a Sender.
func NewSender(host string, port int, username, password, senderName string) *Sender {
	return &Sender{Host: host, Port: port, Username: username, Password: password, SenderName: senderName}
}

func (s *Sender) dialer() *gomail.Dialer {
	d := gomail.NewDialer(s.Host, s.Port, s.Username, s.Password)
	if s.InsecureSkipVerify {
		d.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return d
}

func (s *Sender) send(msg *gomail.Message) error {
	return s.dialer().DialAndSend(msg)
}
