package email

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"
)

// Sender delivers verification codes to pending accounts
type Sender interface {
	SendOTP(ctx context.Context, to, name, code string) error
}

// SMTPConfig holds outbound mail settings
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type smtpSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPSender creates a Sender that delivers over SMTP
func NewSMTPSender(cfg SMTPConfig) Sender {
	return &smtpSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpSender) SendOTP(_ context.Context, to, name, code string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Your verification code")
	m.SetBody("text/html", fmt.Sprintf(
		"<p>Hi %s,</p><p>Your verification code is <b>%s</b>. It expires in 10 minutes.</p>",
		name, code,
	))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}

type logSender struct{}

// NewLogSender creates a Sender that only logs the code; used in development
// and in tests.
func NewLogSender() Sender {
	return logSender{}
}

func (logSender) SendOTP(_ context.Context, to, _, code string) error {
	log.Info().Str("email", to).Str("code", code).Msg("verification code issued")
	return nil
}
