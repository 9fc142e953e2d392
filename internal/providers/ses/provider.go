package ses

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/google/uuid"

	"github.com/saberonline/quick-mail-wp-plugin/internal/core"
)

// API is the subset of the SES client used by the provider.
type API interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
	SendRawEmail(ctx context.Context, params *ses.SendRawEmailInput, optFns ...func(*ses.Options)) (*ses.SendRawEmailOutput, error)
}

// Provider implements the core.Provider interface for AWS SES.
type Provider struct {
	client API
	config core.ProviderSettings
}

// NewProvider creates a new AWS SES provider.
func NewProvider(settings core.ProviderSettings) (core.Provider, error) {
	region := settings.Get("region")
	if region == "" {
		return nil, core.NewValidationError("region", "AWS region is required")
	}

	cfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, core.NewProviderError("aws_ses", "config_error", "failed to load AWS config: "+err.Error())
	}

	if accessKey := settings.Get("access_key"); accessKey != "" {
		secretKey := settings.Get("secret_key")
		if secretKey == "" {
			return nil, core.NewValidationError("secret_key", "secret key is required when access key is provided")
		}

		cfg.Credentials = aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     accessKey,
				SecretAccessKey: secretKey,
				SessionToken:    settings.Get("session_token"),
			}, nil
		})
	}

	return NewWithClient(ses.NewFromConfig(cfg), settings), nil
}

// NewWithClient wraps an existing SES client.
func NewWithClient(client API, settings core.ProviderSettings) *Provider {
	return &Provider{client: client, config: settings}
}

// Send delivers msg through SES. Messages with attachments go through
// SendRawEmail since SendEmail only carries bodies.
func (p *Provider) Send(ctx context.Context, msg *core.Message) (*core.SendResult, error) {
	if msg.HasAttachments() {
		return p.sendRaw(ctx, msg)
	}

	input := &ses.SendEmailInput{
		Source: aws.String(msg.From.String()),
		Destination: &types.Destination{
			ToAddresses: addresses(msg.To),
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(msg.Subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{},
		},
	}

	if msg.ReplyTo != "" {
		input.ReplyToAddresses = []string{msg.ReplyTo}
	}

	if msg.TextBody != "" {
		input.Message.Body.Text = &types.Content{Data: aws.String(msg.TextBody), Charset: aws.String("UTF-8")}
	}
	if msg.HTMLBody != "" {
		input.Message.Body.Html = &types.Content{Data: aws.String(msg.HTMLBody), Charset: aws.String("UTF-8")}
	}

	if configSet := p.config.Get("configuration_set"); configSet != "" {
		input.ConfigurationSetName = aws.String(configSet)
	}

	output, err := p.client.SendEmail(ctx, input)
	if err != nil {
		return nil, core.NewRetryableProviderError("aws_ses", "send_error", "failed to send email: "+err.Error())
	}

	return &core.SendResult{
		MessageID: aws.ToString(output.MessageId),
		Provider:  p.Name(),
		Timestamp: time.Now(),
	}, nil
}

func (p *Provider) sendRaw(ctx context.Context, msg *core.Message) (*core.SendResult, error) {
	data, err := core.Render(msg, uuid.NewString()+"@"+domainOf(msg.From.Email), time.Now())
	if err != nil {
		return nil, core.NewProviderError("aws_ses", "message_build_error", "failed to build message: "+err.Error())
	}

	input := &ses.SendRawEmailInput{
		Source:       aws.String(msg.From.String()),
		Destinations: msg.Recipients(),
		RawMessage:   &types.RawMessage{Data: data},
	}
	if configSet := p.config.Get("configuration_set"); configSet != "" {
		input.ConfigurationSetName = aws.String(configSet)
	}

	output, err := p.client.SendRawEmail(ctx, input)
	if err != nil {
		return nil, core.NewRetryableProviderError("aws_ses", "send_error", "failed to send raw email: "+err.Error())
	}

	return &core.SendResult{
		MessageID: aws.ToString(output.MessageId),
		Provider:  p.Name(),
		Timestamp: time.Now(),
	}, nil
}

// ValidateConfig validates the provider configuration.
func (p *Provider) ValidateConfig() error {
	if p.config.Get("region") == "" {
		return core.NewValidationError("region", "AWS region is required")
	}
	return nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "aws_ses"
}

func addresses(list []core.Address) []string {
	out := make([]string, len(list))
	for i, a := range list {
		out[i] = a.String()
	}
	return out
}

func domainOf(email string) string {
	for i := len(email) - 1; i >= 0; i-- {
		if email[i] == '@' {
			return email[i+1:]
		}
	}
	return "localhost"
}
