package smtp

import (
	"context"
	"crypto/tls"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/saberonline/quick-mail-wp-plugin/internal/core"
)

// SendFunc delivers a rendered message. It matches smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Provider implements the core.Provider interface for SMTP.
type Provider struct {
	config core.ProviderSettings
	send   SendFunc
	now    func() time.Time
}

// NewProvider creates a new SMTP provider.
func NewProvider(settings core.ProviderSettings) (core.Provider, error) {
	p := &Provider{config: settings, now: time.Now}
	if err := p.ValidateConfig(); err != nil {
		return nil, err
	}
	p.send = smtp.SendMail
	if settings.Get("tls") == "true" {
		p.send = p.sendMailTLS
	}
	return p, nil
}

// NewWithSender creates a provider that hands rendered messages to send.
func NewWithSender(settings core.ProviderSettings, send SendFunc) (*Provider, error) {
	p := &Provider{config: settings, send: send, now: time.Now}
	if err := p.ValidateConfig(); err != nil {
		return nil, err
	}
	return p, nil
}

// Send renders msg and delivers it to the configured relay.
func (p *Provider) Send(ctx context.Context, msg *core.Message) (*core.SendResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	host := p.config.Get("host")
	addr := net.JoinHostPort(host, p.config.Get("port"))

	messageID := uuid.NewString() + "@" + host
	data, err := core.Render(msg, messageID, p.now())
	if err != nil {
		return nil, core.NewProviderError("smtp", "message_build_error", "failed to build message: "+err.Error())
	}

	var auth smtp.Auth
	if username, password := p.config.Get("username"), p.config.Get("password"); username != "" && password != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	if err := p.send(addr, auth, msg.From.Email, msg.Recipients(), data); err != nil {
		return nil, core.NewRetryableProviderError("smtp", "send_error", "failed to send email: "+err.Error())
	}

	return &core.SendResult{
		MessageID: messageID,
		Provider:  p.Name(),
		Timestamp: p.now(),
	}, nil
}

// ValidateConfig validates the provider configuration.
func (p *Provider) ValidateConfig() error {
	if p.config.Get("host") == "" {
		return core.NewValidationError("host", "SMTP host is required")
	}

	port := p.config.Get("port")
	if port == "" {
		return core.NewValidationError("port", "SMTP port is required")
	}

	if _, err := strconv.Atoi(port); err != nil {
		return core.NewValidationErrorWithValue("port", "invalid port number", port)
	}

	return nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "smtp"
}

// sendMailTLS delivers over an implicit TLS connection (port 465 style).
func (p *Provider) sendMailTLS(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}

	conn, err := tls.Dial("tcp", addr, &tls.Config{
		ServerName:         host,
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: p.config.Get("tls_skip_verify") == "true",
	})
	if err != nil {
		return err
	}

	c, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	if auth != nil {
		if err := c.Auth(auth); err != nil {
			return err
		}
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}

	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}
