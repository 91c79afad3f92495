package mailer

import (
	"log/slog"
	"vetgate/internal/config"
	"vetgate/lib/sl"

	"gopkg.in/gomail.v2"
)

// Mailer sends transactional email over SMTP. Callers treat delivery as
// fire-and-forget; a failure is logged by the caller and never rolls back
// the business operation that triggered the send.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	log    *slog.Logger
}

func New(conf config.SmtpConfig, log *slog.Logger) *Mailer {
	if !conf.Enabled {
		return nil
	}
	return &Mailer{
		dialer: gomail.NewDialer(conf.Host, conf.Port, conf.UserName, conf.Password),
		from:   conf.From,
		log:    log.With(sl.Module("mailer")),
	}
}

func (m *Mailer) Send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return err
	}
	m.log.With(
		slog.String("to", to),
		slog.String("subject", subject),
	).Debug("email sent")
	return nil
}
