// internal/app/system/mailer/mailer.go
package mailer

import (
	"time"

	"github.com/dalemusser/waffle/pantry/email"
)

// Email is a single outgoing message.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Message converts e into a pantry email message.
func (e Email) Message() email.Message {
	return email.Message{
		To:       []string{e.To},
		Subject:  e.Subject,
		TextBody: e.TextBody,
		HTMLBody: e.HTMLBody,
	}
}

// Config holds SMTP settings. An empty Host disables sending.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
	Timeout  time.Duration
}

// Enabled reports whether SMTP delivery is configured.
func (c Config) Enabled() bool {
	return c.Host != "" && c.From != ""
}

// senderConfig maps c onto the pantry sender settings. Port 465 speaks
// implicit TLS; every other port upgrades with STARTTLS.
func (c Config) senderConfig() email.Config {
	port := c.Port
	if port == 0 {
		port = 587
	}
	return email.Config{
		Host:        c.Host,
		Port:        port,
		Username:    c.User,
		Password:    c.Password,
		FromAddress: c.From,
		FromName:    c.FromName,
		UseSSL:      port == 465,
		Timeout:     c.Timeout,
	}
}

// NewSender builds the SMTP sender for cfg.
func NewSender(cfg Config) *email.Sender {
	return email.NewSender(cfg.senderConfig())
}
