package sendgrid

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/saberonline/quick-mail-wp-plugin/internal/core"
)

// Provider implements the core.Provider interface for SendGrid.
type Provider struct {
	client *sendgrid.Client
	config core.ProviderSettings
}

// NewProvider creates a new SendGrid provider.
func NewProvider(settings core.ProviderSettings) (core.Provider, error) {
	apiKey := settings.Get("api_key")
	if apiKey == "" {
		return nil, core.NewValidationError("api_key", "SendGrid API key is required")
	}

	return &Provider{
		client: sendgrid.NewSendClient(apiKey),
		config: settings,
	}, nil
}

// Build converts msg into a SendGrid v3 mail body.
func Build(msg *core.Message) *mail.SGMailV3 {
	from := mail.NewEmail(msg.From.Name, msg.From.Email)
	to := mail.NewEmail(msg.To[0].Name, msg.To[0].Email)

	message := mail.NewSingleEmail(from, msg.Subject, to, msg.TextBody, msg.HTMLBody)

	if len(msg.To) > 1 {
		personalization := mail.NewPersonalization()
		for _, recipient := range msg.To {
			personalization.AddTos(mail.NewEmail(recipient.Name, recipient.Email))
		}
		message.Personalizations = []*mail.Personalization{personalization}
	}

	if msg.ReplyTo != "" {
		message.SetReplyTo(mail.NewEmail("", msg.ReplyTo))
	}

	if len(msg.Headers) > 0 {
		if message.Headers == nil {
			message.Headers = make(map[string]string)
		}
		for key, value := range msg.Headers {
			message.Headers[key] = value
		}
	}

	for i := range msg.Attachments {
		att := &msg.Attachments[i]
		a := mail.NewAttachment()
		a.SetContent(base64.StdEncoding.EncodeToString(att.Data))
		a.SetType(att.DetectContentType())
		a.SetFilename(att.Filename)
		a.SetDisposition("attachment")
		message.AddAttachment(a)
	}

	return message
}

// Send sends a single message using SendGrid.
func (p *Provider) Send(ctx context.Context, msg *core.Message) (*core.SendResult, error) {
	if len(msg.To) == 0 {
		return nil, core.NewValidationError("to", "at least one recipient is required")
	}

	response, err := p.client.SendWithContext(ctx, Build(msg))
	if err != nil {
		return nil, core.NewRetryableProviderError("sendgrid", "send_error", "failed to send email: "+err.Error())
	}

	if response.StatusCode >= 400 {
		pe := core.NewProviderError("sendgrid", "api_error", "SendGrid API error: "+response.Body)
		pe.StatusCode = response.StatusCode
		pe.IsRetryable = core.StatusRetryable(response.StatusCode)
		return nil, pe
	}

	// SendGrid reports the id in X-Message-Id.
	messageID := response.Headers["X-Message-Id"]
	if len(messageID) == 0 {
		messageID = []string{"unknown"}
	}

	return &core.SendResult{
		MessageID: messageID[0],
		Provider:  p.Name(),
		Timestamp: time.Now(),
	}, nil
}

// ValidateConfig validates the provider configuration.
func (p *Provider) ValidateConfig() error {
	if p.config.Get("api_key") == "" {
		return core.NewValidationError("api_key", "SendGrid API key is required")
	}
	return nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "sendgrid"
}
