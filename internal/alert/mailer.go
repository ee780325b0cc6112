package alert

import (
	"fmt"
	"log"
	"net/smtp"

	mailyak "github.com/domodwyer/mailyak/v3"

	"waves-on-map-backend/config"
)

// Mailer delivers a rendered alert email.
type Mailer interface {
	Send(subject, textBody, htmlBody string) error
}

// smtpMailer sends via an authenticated SMTP submission (STARTTLS on 587).
type smtpMailer struct {
	cfg config.SMTPConfig
}

// NewSMTPMailer creates a Mailer backed by the configured SMTP account.
func NewSMTPMailer(cfg config.SMTPConfig) Mailer {
	return &smtpMailer{cfg: cfg}
}

func (m *smtpMailer) Send(subject, textBody, htmlBody string) error {
	to := m.cfg.To
	if to == "" {
		to = m.cfg.User
	}
	from := m.cfg.From
	if from == "" {
		from = m.cfg.User
	}

	if m.cfg.User == "" || m.cfg.Pass == "" || to == "" {
		log.Println("Missing SMTP credentials or recipient; skip sending.")
		return nil
	}

	mail := mailyak.New(
		fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port),
		smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host),
	)
	mail.To(to)
	mail.From(from)
	mail.Subject(subject)
	mail.Plain().Set(textBody)
	if htmlBody != "" {
		mail.HTML().Set(htmlBody)
	}

	log.Printf("Sending alert email to %s with subject %q", to, subject)
	if err := mail.Send(); err != nil {
		return fmt.Errorf("failed to send alert email: %w", err)
	}
	log.Println("Alert email sent.")
	return nil
}
