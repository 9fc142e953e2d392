package quickmail

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/saberonline/quick-mail-wp-plugin/internal/address"
	"github.com/saberonline/quick-mail-wp-plugin/internal/providers"
	"github.com/saberonline/quick-mail-wp-plugin/internal/sender"
)

// Client implements the Mailer interface.
// All methods are safe for concurrent use.
type Client struct {
	config       Config
	validator    *address.Validator
	settings     sender.Settings
	newProvider  func(name string, settings ProviderSettings) (Provider, error)
	retryManager *RetryManager
	logger       *log.Logger
	tracer       trace.Tracer
	mu           sync.RWMutex
	closed       bool
}

// New creates a new client with the given configuration.
func New(config Config, opts ...Option) (*Client, error) {
	for _, opt := range opts {
		opt(&config)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}

	client := &Client{
		config:      config,
		validator:   newValidator(config),
		settings:    config.Settings(),
		newProvider: providers.New,
		logger:      config.Logger,
	}

	if client.logger == nil {
		client.logger = NewLogger(os.Stderr, config.Logging)
	}

	if config.Tracing.Enabled {
		client.tracer = otel.Tracer(config.Tracing.ServiceName)
	} else {
		client.tracer = noop.NewTracerProvider().Tracer(config.Tracing.ServiceName)
	}

	if config.Retry.Enabled {
		client.retryManager = NewRetryManager(config.Retry)
	}

	return client, nil
}

func newValidator(cfg Config) *address.Validator {
	return address.NewValidator(
		address.WithVerify(cfg.Validation.VerifyDomains),
		address.WithLookupTimeout(cfg.Validation.DNSTimeout),
		address.WithDuplicateLabel(cfg.Validation.DuplicateLabel),
		address.WithResolver(cfg.Resolver),
	)
}

// NewLogger builds a logger writing to w at the configured level and format.
func NewLogger(w io.Writer, cfg LoggingConfig) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "quickmail",
	})
	if level, err := log.ParseLevel(cfg.Level); err == nil {
		logger.SetLevel(level)
	}
	switch cfg.Format {
	case "json":
		logger.SetFormatter(log.JSONFormatter)
	case "logfmt":
		logger.SetFormatter(log.LogfmtFormatter)
	}
	return logger
}

// Config returns a copy of the client's configuration.
func (c *Client) Config() Config {
	return c.config
}

// Logger returns the client's logger.
func (c *Client) Logger() *log.Logger {
	return c.logger
}

// Verifying reports whether MX verification is enabled.
func (c *Client) Verifying() bool {
	return c.validator.Verifying()
}

// WithVerify returns a client sharing c's settings whose MX verification
// is switched to verify.
func (c *Client) WithVerify(verify bool) *Client {
	if verify == c.validator.Verifying() {
		return c
	}
	cfg := c.config
	cfg.Validation.VerifyDomains = verify
	return &Client{
		config:       cfg,
		validator:    newValidator(cfg),
		settings:     c.settings,
		newProvider:  c.newProvider,
		retryManager: c.retryManager,
		logger:       c.logger,
		tracer:       c.tracer,
	}
}

// ValidEmail reports whether addr is a usable address.
func (c *Client) ValidEmail(ctx context.Context, addr string) bool {
	return c.Classify(ctx, addr) == address.Valid
}

// Classify returns why addr is or is not usable.
func (c *Client) Classify(ctx context.Context, addr string) Outcome {
	ctx, span := c.tracer.Start(ctx, "quickmail.Client.Classify")
	defer span.End()

	outcome := c.validator.Classify(ctx, addr)
	span.SetAttributes(
		attribute.Bool("quickmail.verify", c.validator.Verifying()),
		attribute.String("quickmail.outcome", outcome.String()),
	)
	return outcome
}

// FilterRecipients splits a comma separated recipient list.
func (c *Client) FilterRecipients(ctx context.Context, to, candidates string) FilterResult {
	ctx, span := c.tracer.Start(ctx, "quickmail.Client.FilterRecipients")
	defer span.End()

	result := c.validator.FilterRecipients(ctx, to, candidates)
	span.SetAttributes(
		attribute.Int("quickmail.accepted", len(result.Accepted)),
		attribute.Int("quickmail.invalid", len(result.Invalid)),
		attribute.Int("quickmail.duplicates", len(result.Duplicates)),
	)

	if !result.Clean() {
		c.logger.Debug("recipient list filtered",
			"invalid", len(result.Invalid), "duplicates", len(result.Duplicates))
	}
	return result
}

// ResolveSender applies the active provider's sender rules to requested.
func (c *Client) ResolveSender(ctx context.Context, requested Identity) (Identity, Active) {
	_, span := c.tracer.Start(ctx, "quickmail.Client.ResolveSender")
	defer span.End()

	active := sender.Detect(sender.EnvironmentFrom(c.settings))
	resolved := active.Apply(requested)

	span.SetAttributes(
		attribute.String("quickmail.provider", active.Kind.String()),
		attribute.Bool("quickmail.sender_changed", resolved != requested),
	)
	c.logger.Debug("sender resolved", "provider", active.Kind, "email", resolved.Email)

	return resolved, active
}

// Send validates the addresses on msg, applies the active provider's sender
// rules and delivers the result.
func (c *Client) Send(ctx context.Context, msg *Message) (*SendResult, error) {
	ctx, span := c.tracer.Start(ctx, "quickmail.Client.Send")
	defer span.End()

	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		span.RecordError(ErrClientClosed)
		span.SetStatus(codes.Error, ErrClientClosed.Error())
		return nil, ErrClientClosed
	}
	c.mu.RUnlock()

	span.SetAttributes(
		attribute.String("quickmail.from", msg.From.Email),
		attribute.Int("quickmail.recipients", len(msg.To)),
		attribute.Int("quickmail.attachments", len(msg.Attachments)),
	)

	if !c.validator.Valid(ctx, msg.From.Email) {
		span.RecordError(ErrInvalidSender)
		span.SetStatus(codes.Error, "invalid sender")
		return nil, ErrInvalidSender
	}
	if len(msg.To) == 0 {
		span.SetStatus(codes.Error, "no recipients")
		return nil, ErrInvalidRecipient
	}
	for _, to := range msg.To {
		if !c.validator.Valid(ctx, to.Email) {
			err := fmt.Errorf("%w: %s", ErrInvalidRecipient, to.Email)
			span.RecordError(err)
			span.SetStatus(codes.Error, "invalid recipient")
			return nil, err
		}
	}

	identity, active := c.ResolveSender(ctx, Identity{
		Name:    msg.From.Name,
		Email:   msg.From.Email,
		ReplyTo: msg.ReplyTo,
	})

	out := *msg
	out.From = Address{Name: identity.Name, Email: identity.Email}
	out.ReplyTo = identity.ReplyTo

	if err := out.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return nil, err
	}

	provider, err := c.transportFor(active, &out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "no transport")
		return nil, err
	}
	span.SetAttributes(attribute.String("quickmail.transport", provider.Name()))

	var result *SendResult
	sendFn := func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, c.config.Transport.Timeout)
		defer cancel()

		start := time.Now()
		var sendErr error
		result, sendErr = provider.Send(attemptCtx, &out)
		span.SetAttributes(attribute.Int64("quickmail.transport.duration_ms", time.Since(start).Milliseconds()))
		if sendErr != nil {
			c.logger.Warn("delivery attempt failed", "transport", provider.Name(), "err", sendErr)
		}
		return sendErr
	}

	if c.retryManager != nil {
		err = c.retryManager.Retry(ctx, sendFn)
	} else {
		err = sendFn()
	}

	if err != nil {
		c.logger.Error("send failed", "transport", provider.Name(), "to", out.Recipients(), "err", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "send failed")
		return nil, err
	}

	c.logger.Info("message sent", "transport", result.Provider, "id", result.MessageID, "to", out.Recipients())
	span.SetAttributes(attribute.String("quickmail.message_id", result.MessageID))
	span.SetStatus(codes.Ok, "message sent")

	return result, nil
}

// Close marks the client closed. Further sends fail with ErrClientClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	return nil
}

// transportFor picks the transport for msg. The API of the active provider
// plugin wins under "auto"; otherwise the configured default is used.
func (c *Client) transportFor(active Active, msg *Message) (Provider, error) {
	if c.config.Transport.Provider != nil {
		return c.config.Transport.Provider, nil
	}

	t := c.config.Transport.Type
	if t == TransportAuto {
		var (
			name     string
			settings ProviderSettings
		)
		switch active.Kind {
		case sender.Mailgun:
			name, settings = providers.Mailgun, ProviderSettings{
				"api_key":  active.Mailgun.APIKey,
				"domain":   active.Mailgun.Domain,
				"base_url": active.Mailgun.BaseURL,
			}
		case sender.SparkPost:
			name, settings = providers.SparkPost, ProviderSettings{
				"api_key":       active.SparkPost.Password,
				"transactional": strconv.FormatBool(sender.TransactionalFor(active.SparkPost, len(msg.Attachments))),
			}
		case sender.SendGrid:
			name, settings = providers.SendGrid, ProviderSettings{
				"api_key": active.SendGrid.APIKey,
			}
		}
		if name != "" {
			p, err := c.newProvider(name, settings)
			if err != nil {
				return nil, fmt.Errorf("failed to create %s transport: %w", name, err)
			}
			return p, nil
		}

		if c.config.Transport.Default == "" {
			return nil, ErrNoTransport
		}
		t = c.config.Transport.Default
	}

	p, err := c.newProvider(string(t), c.config.Transport.Settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s transport: %w", t, err)
	}
	return p, nil
}
