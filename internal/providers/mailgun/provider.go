// Package mailgun delivers messages through the Mailgun HTTP API with the
// key and domain the Mailgun plugin stores.
package mailgun

import (
	"context"
	"errors"
	"time"

	"github.com/mailgun/mailgun-go/v4"

	"github.com/saberonline/quick-mail-wp-plugin/internal/core"
)

// Provider implements core.Provider for Mailgun.
type Provider struct {
	client   mailgun.Mailgun
	settings core.ProviderSettings
}

// NewProvider creates a Mailgun provider from api_key, domain and the
// optional base_url.
func NewProvider(settings core.ProviderSettings) (core.Provider, error) {
	p := &Provider{settings: settings}
	if err := p.ValidateConfig(); err != nil {
		return nil, err
	}

	client := mailgun.NewMailgun(settings.Get("domain"), settings.Get("api_key"))
	// EU accounts use a different API host.
	if baseURL := settings.Get("base_url"); baseURL != "" {
		client.SetAPIBase(baseURL)
	}
	p.client = client

	return p, nil
}

// Send posts msg to the domain's messages endpoint.
func (p *Provider) Send(ctx context.Context, msg *core.Message) (*core.SendResult, error) {
	recipients := msg.Recipients()
	m := mailgun.NewMessage(msg.From.String(), msg.Subject, msg.TextBody, recipients[0])
	for _, to := range recipients[1:] {
		if err := m.AddRecipient(to); err != nil {
			return nil, core.NewProviderError(p.Name(), "recipient_add_failed", err.Error())
		}
	}

	if msg.HTMLBody != "" {
		m.SetHTML(msg.HTMLBody)
	}
	if msg.ReplyTo != "" {
		m.SetReplyTo(msg.ReplyTo)
	}
	for k, v := range msg.Headers {
		m.AddHeader(k, v)
	}
	for _, a := range msg.Attachments {
		m.AddBufferAttachment(a.Filename, a.Data)
	}

	_, id, err := p.client.Send(ctx, m)
	if err != nil {
		return nil, sendError(err)
	}

	return &core.SendResult{
		MessageID: id,
		Provider:  p.Name(),
		Timestamp: time.Now(),
	}, nil
}

// sendError keeps the HTTP status of API failures so 4xx rejections are not
// retried. Transport failures are.
func sendError(err error) error {
	var ue *mailgun.UnexpectedResponseError
	if errors.As(err, &ue) {
		pe := core.NewProviderError("mailgun", "send_failed", err.Error())
		pe.StatusCode = ue.Actual
		pe.IsRetryable = core.StatusRetryable(ue.Actual)
		pe.Cause = err
		return pe
	}
	pe := core.NewRetryableProviderError("mailgun", "send_failed", err.Error())
	pe.Cause = err
	return pe
}

// ValidateConfig checks that a key and a sending domain are set.
func (p *Provider) ValidateConfig() error {
	if p.settings.Get("api_key") == "" {
		return core.NewValidationError("api_key", "Mailgun API key is required")
	}
	if p.settings.Get("domain") == "" {
		return core.NewValidationError("domain", "Mailgun domain is required")
	}
	return nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "mailgun"
}
