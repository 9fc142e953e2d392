// Package providers builds outbound transports by name.
package providers

import (
	"fmt"

	"github.com/saberonline/quick-mail-wp-plugin/internal/core"
	"github.com/saberonline/quick-mail-wp-plugin/internal/providers/mailgun"
	"github.com/saberonline/quick-mail-wp-plugin/internal/providers/sendgrid"
	"github.com/saberonline/quick-mail-wp-plugin/internal/providers/ses"
	"github.com/saberonline/quick-mail-wp-plugin/internal/providers/smtp"
	"github.com/saberonline/quick-mail-wp-plugin/internal/providers/sparkpost"
)

// Transport names accepted by New.
const (
	Mailgun   = "mailgun"
	SparkPost = "sparkpost"
	SendGrid  = "sendgrid"
	SES       = "ses"
	SMTP      = "smtp"
)

// New creates the transport registered under name.
func New(name string, settings core.ProviderSettings) (core.Provider, error) {
	switch name {
	case Mailgun:
		return mailgun.NewProvider(settings)
	case SparkPost:
		return sparkpost.NewProvider(settings)
	case SendGrid:
		return sendgrid.NewProvider(settings)
	case SES:
		return ses.NewProvider(settings)
	case SMTP:
		return smtp.NewProvider(settings)
	default:
		return nil, fmt.Errorf("unsupported transport: %q", name)
	}
}
