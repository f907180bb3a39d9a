package utils

import (
	"github.com/meinhoongagan/healthcoach-api/logger"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type Mailer interface {
	Send(to, subject, htmlBody string) error
}

// SMTPMailer delivers HTML mail through an SMTP relay.
type SMTPMailer struct {
	from   string
	dialer *gomail.Dialer
}

func NewSMTPMailer(host string, port int, user, pass string) *SMTPMailer {
	return &SMTPMailer{
		from:   user,
		dialer: gomail.NewDialer(host, port, user, pass),
	}
}

func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	return m.dialer.DialAndSend(msg)
}

// NopMailer drops mail. Used when SMTP is not configured.
type NopMailer struct{}

func (NopMailer) Send(to, subject, _ string) error {
	logger.Log.Debug("mail disabled, dropping message", zap.String("to", to), zap.String("subject", subject))
	return nil
}
