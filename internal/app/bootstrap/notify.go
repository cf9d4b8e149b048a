package bootstrap

import (
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/ateliercarvalho/atelier/internal/config"
	"github.com/ateliercarvalho/atelier/internal/notify"
	"github.com/ateliercarvalho/atelier/pkg/logging"
)

// BuildEmailSender selects the alert email transport. A provider that is
// missing its credentials falls back to the stub, which only logs.
func BuildEmailSender(cfg *appconfig.Config, ses *sesv2.Client, logger *logging.Logger) notify.EmailSender {
	switch cfg.EmailProvider {
	case "sendgrid":
		if s := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); s != nil {
			return s
		}
		logger.Warn("sendgrid selected without an API key; using stub email sender")
	case "ses":
		if s := notify.NewSESSender(ses, notify.SESConfig{
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); s != nil {
			return s
		}
		logger.Warn("ses selected without a client; using stub email sender")
	}
	return notify.NewStubEmailSender(logger)
}

// BuildNotifier returns the studio alert service. It is disabled when no
// alert address is configured.
func BuildNotifier(cfg *appconfig.Config, ses *sesv2.Client, logger *logging.Logger) *notify.Service {
	var recipients []string
	for _, r := range strings.Split(cfg.StudioAlertEmail, ",") {
		if r = strings.TrimSpace(r); r != "" {
			recipients = append(recipients, r)
		}
	}
	return notify.NewService(BuildEmailSender(cfg, ses, logger), recipients, cfg.SendGridFromName, logger)
}
