package quickmail

import (
	"errors"
)

// Predefined sentinel errors for common cases.
var (
	// ErrInvalidSender indicates the sender address failed validation.
	ErrInvalidSender = errors.New("Invalid Sender Address")

	// ErrInvalidRecipient indicates a recipient address failed validation.
	ErrInvalidRecipient = errors.New("Invalid Recipient Address")

	// ErrNotAdministrator indicates the sender is not an administrator.
	ErrNotAdministrator = errors.New("Only administrators can send mail.")

	// ErrNoTransport indicates no provider is active and no default
	// transport is configured.
	ErrNoTransport = errors.New("no mail transport configured")

	// ErrInvalidConfiguration indicates invalid configuration.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrClientClosed indicates the client has been closed.
	ErrClientClosed = errors.New("client closed")
)
