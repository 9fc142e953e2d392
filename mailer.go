package quickmail

import (
	"context"

	"github.com/saberonline/quick-mail-wp-plugin/internal/address"
	"github.com/saberonline/quick-mail-wp-plugin/internal/core"
	"github.com/saberonline/quick-mail-wp-plugin/internal/sender"
)

// Type aliases to re-export internal types for the public API.
type (
	Provider         = core.Provider
	ProviderSettings = core.ProviderSettings
	Message          = core.Message
	Address          = core.Address
	Attachment       = core.Attachment
	SendResult       = core.SendResult
	ValidationError  = core.ValidationError
	ProviderError    = core.ProviderError

	Outcome      = address.Outcome
	FilterResult = address.FilterResult
	MXResolver   = address.MXResolver

	Identity = sender.Identity
	Active   = sender.Active
	User     = sender.User
)

// Validation outcomes.
const (
	Valid         = address.Valid
	InvalidFormat = address.InvalidFormat
	InvalidDomain = address.InvalidDomain
)

// Error constructor functions
var (
	NewValidationError        = core.NewValidationError
	NewProviderError          = core.NewProviderError
	NewRetryableProviderError = core.NewRetryableProviderError
	IsRetryable               = core.IsRetryable
)

// Public interfaces for the quick mail library
type (
	// Validator checks and filters addresses typed into a compose form.
	// All methods are safe for concurrent use.
	Validator interface {
		// ValidEmail reports whether addr is usable.
		ValidEmail(ctx context.Context, addr string) bool

		// FilterRecipients splits a recipient list into accepted, invalid
		// and duplicate entries.
		FilterRecipients(ctx context.Context, to, candidates string) FilterResult
	}

	// Mailer resolves the sender and delivers messages.
	Mailer interface {
		Validator

		// ResolveSender applies the active provider's sender rules.
		ResolveSender(ctx context.Context, requested Identity) (Identity, Active)

		// Send delivers msg. Returns an error if validation or delivery fails.
		Send(ctx context.Context, msg *Message) (*SendResult, error)

		// Close closes the mailer and releases any resources.
		// After calling Close, the mailer should not be used.
		Close() error
	}
)
