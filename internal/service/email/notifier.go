package email

import (
	"context"
	"crypto/tls"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/mamadbah2/isp-dashboard/internal/domain/models"
)

// SettingsSource returns the SMTP settings saved from the dashboard.
type SettingsSource interface {
	EmailSettings(ctx context.Context) (models.EmailSettings, error)
}

// sendFunc delivers a composed message with the given SMTP settings.
type sendFunc func(settings models.EmailSettings, m *gomail.Message) error

// Notifier emails operator summaries to the configured admin address. The
// SMTP settings are read on every send so dashboard changes apply at once.
type Notifier struct {
	settings SettingsSource
	send     sendFunc
	logger   *zap.Logger
}

// NewNotifier wires an SMTP notifier.
func NewNotifier(settings SettingsSource, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{settings: settings, send: dialAndSend, logger: logger}
}

// Name identifies the notifier in logs.
func (n *Notifier) Name() string {
	return "email"
}

// Notify sends a plain-text mail. It is a no-op until SMTP is configured.
func (n *Notifier) Notify(ctx context.Context, subject, body string) error {
	settings, err := n.settings.EmailSettings(ctx)
	if err != nil {
		return fmt.Errorf("load email settings: %w", err)
	}
	if !settings.Configured() {
		n.logger.Info("email not configured, summary not mailed")
		return nil
	}

	from := settings.From
	if from == "" {
		from = settings.User
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", settings.AdminEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := n.send(settings, m); err != nil {
		return fmt.Errorf("send email to %s: %w", settings.AdminEmail, err)
	}
	return nil
}

func dialAndSend(settings models.EmailSettings, m *gomail.Message) error {
	port := settings.Port
	if port == 0 {
		port = 587
		if settings.Secure {
			port = 465
		}
	}

	d := gomail.NewDialer(settings.Host, port, settings.User, settings.Password)
	d.SSL = settings.Secure
	d.TLSConfig = &tls.Config{ServerName: settings.Host}
	return d.DialAndSend(m)
}
