package factory

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ab7289/dining-concierge/internal/config"
	"github.com/ab7289/dining-concierge/internal/notify"
)

// NewNotifier creates the mail notifier from config.
func NewNotifier(cfg *config.Config, log zerolog.Logger) (notify.Notifier, error) {
	if cfg.MailAPIURL == "" {
		return nil, fmt.Errorf("mail API URL not configured - required for suggestion delivery")
	}
	return notify.NewMailer(notify.Config{
		BaseURL: cfg.MailAPIURL,
		APIKey:  cfg.MailAPIKey,
		Sender:  cfg.MailSender,
		Subject: cfg.MailSubject,
	}, log)
}
