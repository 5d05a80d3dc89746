// Package mailer delivers transactional email over SMTP.
package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/facultyreview/internal/logging"
	"gopkg.in/gomail.v2"
)

// Email is a single plain-text message.
type Email struct {
	To      []string
	Subject string
	Body    string
}

// Config holds SMTP settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func (c Config) Validate() error {
	if c.Host == "" {
		return errors.New("missing smtp host")
	}
	if c.Port == 0 {
		return errors.New("missing smtp port")
	}
	if c.From == "" {
		return errors.New("missing smtp from address")
	}
	return nil
}

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer sends email through a gomail dialer.
type Mailer struct {
	from   string
	dialer sender
}

// New validates cfg and builds a Mailer.
func New(cfg Config) (*Mailer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("mailer config: %w", err)
	}
	return &Mailer{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}, nil
}

func (m *Mailer) Send(ctx context.Context, email Email) error {
	if len(email.To) == 0 {
		return errors.New("no recipients specified")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email.To...)
	msg.SetHeader("Subject", email.Subject)
	msg.SetBody("text/plain", email.Body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// LogMailer stands in for Mailer when SMTP is disabled. Messages are written
// to the debug log so local signups can still be completed.
type LogMailer struct {
	logger logging.Logger
}

func NewLogMailer(l logging.Logger) *LogMailer {
	return &LogMailer{logger: l.With("module", "mailer")}
}

func (m *LogMailer) Send(ctx context.Context, email Email) error {
	if len(email.To) == 0 {
		return errors.New("no recipients specified")
	}
	m.logger.Warn(ctx, "smtp disabled, email not delivered", "to", email.To, "subject", email.Subject)
	m.logger.Debug(ctx, "undelivered email body", "to", email.To, "body", email.Body)
	return nil
}
