// Package sparkpost delivers mail through the SparkPost transmissions API.
package sparkpost

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/saberonline/quick-mail-wp-plugin/internal/core"
)

const defaultBaseURL = "https://api.sparkpost.com/api/v1"

// Provider implements the core.Provider interface for SparkPost.
type Provider struct {
	httpClient *http.Client
	baseURL    string
	config     core.ProviderSettings
}

// NewProvider creates a new SparkPost provider. The "api_key" setting holds
// the key the SparkPost plugin stores as its SMTP password.
func NewProvider(settings core.ProviderSettings) (core.Provider, error) {
	return New(settings, &http.Client{Timeout: 30 * time.Second})
}

// New creates a provider using client for API calls.
func New(settings core.ProviderSettings, client *http.Client) (*Provider, error) {
	p := &Provider{
		httpClient: client,
		baseURL:    defaultBaseURL,
		config:     settings,
	}
	if err := p.ValidateConfig(); err != nil {
		return nil, err
	}
	if u := settings.Get("base_url"); u != "" {
		p.baseURL = u
	}
	return p, nil
}

type transmission struct {
	Options    options     `json:"options"`
	Recipients []recipient `json:"recipients"`
	Content    content     `json:"content"`
}

type options struct {
	Transactional bool `json:"transactional"`
}

type recipient struct {
	Address recipientAddress `json:"address"`
}

type recipientAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type content struct {
	From        sender            `json:"from"`
	Subject     string            `json:"subject"`
	ReplyTo     string            `json:"reply_to,omitempty"`
	Text        string            `json:"text,omitempty"`
	HTML        string            `json:"html,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	Attachments []attachment      `json:"attachments,omitempty"`
}

type sender struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type attachment struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Data string `json:"data"`
}

type response struct {
	Results struct {
		ID string `json:"id"`
	} `json:"results"`
	Errors []struct {
		Message     string `json:"message"`
		Description string `json:"description"`
		Code        string `json:"code"`
	} `json:"errors"`
}

// Transactional reports whether msg is flagged transactional. The flag is
// dropped when files are attached.
func (p *Provider) Transactional(msg *core.Message) bool {
	v, _ := strconv.ParseBool(p.config.Get("transactional"))
	return v && !msg.HasAttachments()
}

func (p *Provider) build(msg *core.Message) transmission {
	t := transmission{
		Options: options{Transactional: p.Transactional(msg)},
		Content: content{
			From:    sender{Email: msg.From.Email, Name: msg.From.Name},
			Subject: msg.Subject,
			ReplyTo: msg.ReplyTo,
			Text:    msg.TextBody,
			HTML:    msg.HTMLBody,
			Headers: msg.Headers,
		},
	}
	for _, to := range msg.To {
		t.Recipients = append(t.Recipients, recipient{Address: recipientAddress{Email: to.Email, Name: to.Name}})
	}
	for i := range msg.Attachments {
		att := &msg.Attachments[i]
		t.Content.Attachments = append(t.Content.Attachments, attachment{
			Name: att.Filename,
			Type: att.DetectContentType(),
			Data: base64.StdEncoding.EncodeToString(att.Data),
		})
	}
	return t
}

// Send posts msg as a single transmission.
func (p *Provider) Send(ctx context.Context, msg *core.Message) (*core.SendResult, error) {
	body, err := json.Marshal(p.build(msg))
	if err != nil {
		return nil, core.NewProviderError("sparkpost", "encode_error", err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/transmissions", bytes.NewReader(body))
	if err != nil {
		return nil, core.NewProviderError("sparkpost", "request_error", err.Error())
	}
	req.Header.Set("Authorization", p.config.Get("api_key"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, core.NewRetryableProviderError("sparkpost", "send_error", "failed to send email: "+err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, core.NewRetryableProviderError("sparkpost", "read_error", err.Error())
	}

	var out response
	decodeErr := json.Unmarshal(raw, &out)

	if resp.StatusCode >= 400 {
		message := string(raw)
		if len(out.Errors) > 0 {
			message = out.Errors[0].Message
			if out.Errors[0].Description != "" {
				message = fmt.Sprintf("%s: %s", message, out.Errors[0].Description)
			}
		}
		pe := core.NewProviderError("sparkpost", "api_error", "SparkPost API error: "+message)
		pe.StatusCode = resp.StatusCode
		pe.IsRetryable = core.StatusRetryable(resp.StatusCode)
		return nil, pe
	}
	// The transmission may have been accepted, so this is not retried.
	if decodeErr != nil {
		pe := core.NewProviderError("sparkpost", "decode_failed", "invalid SparkPost response: "+decodeErr.Error())
		pe.StatusCode = resp.StatusCode
		pe.Cause = decodeErr
		return nil, pe
	}

	return &core.SendResult{
		MessageID: out.Results.ID,
		Provider:  p.Name(),
		Timestamp: time.Now(),
	}, nil
}

// ValidateConfig validates the provider configuration.
func (p *Provider) ValidateConfig() error {
	if p.config.Get("api_key") == "" {
		return core.NewValidationError("api_key", "SparkPost API key is required")
	}
	return nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "sparkpost"
}
