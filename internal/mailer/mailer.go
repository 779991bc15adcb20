package mailer

import (
	"fmt"
	"log/slog"
	"net/smtp"
)

// Mailer sends transactional mail. Services depend on the interface so tests
// can capture messages instead of dialing SMTP.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer sends mail over plain-auth SMTP.
type SMTPMailer struct {
	host string
	port string
	user string
	pass string
	from string
}

func NewSMTP(host, port, user, pass, from string) *SMTPMailer {
	return &SMTPMailer{host: host, port: port, user: user, pass: pass, from: from}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	auth := smtp.PlainAuth("", m.user, m.pass, m.host)
	msg := []byte(fmt.Sprintf("To: %s\r\nFrom: %s\r\nSubject: %s\r\n\r\n%s", to, m.from, subject, body))
	return smtp.SendMail(m.host+":"+m.port, auth, m.from, []string{to}, msg)
}

// LogMailer logs mail instead of sending it, for environments without SMTP.
type LogMailer struct{}

func (LogMailer) Send(to, subject, _ string) error {
	slog.Info("mail suppressed (no SMTP configured)", "to", to, "subject", subject)
	return nil
}
