// Package core holds the message model shared by the client and the
// transports.
package core

import (
	"context"
	"mime"
	"net/mail"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Provider delivers messages through one transport.
type Provider interface {
	// Send delivers msg. Failures worth another attempt are reported with
	// a retryable *ProviderError.
	Send(ctx context.Context, msg *Message) (*SendResult, error)

	// ValidateConfig reports missing or malformed settings.
	ValidateConfig() error

	// Name identifies the transport in logs and results.
	Name() string
}

// ProviderSettings are the string settings of a transport, keyed as in the
// transport section of the config file.
type ProviderSettings map[string]string

// Get returns the value for key, or "".
func (ps ProviderSettings) Get(key string) string {
	return ps[key]
}

// Set stores value under key.
func (ps ProviderSettings) Set(key, value string) {
	ps[key] = value
}

// Address is a mailbox with an optional display name.
type Address struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// String renders the address for a header. Non-ASCII names are Q-encoded.
func (a Address) String() string {
	if a.Name == "" {
		return a.Email
	}
	return mime.QEncoding.Encode("UTF-8", a.Name) + " <" + a.Email + ">"
}

// Valid reports whether the address parses as an RFC 5322 mailbox.
func (a Address) Valid() bool {
	if a.Email == "" {
		return false
	}
	_, err := mail.ParseAddress(a.String())
	return err == nil
}

// Attachment is a file sent with a message.
type Attachment struct {
	Filename    string
	ContentType string // detected from Filename when empty
	Data        []byte
}

// DetectContentType returns ContentType, or a type guessed from the file
// extension, or application/octet-stream.
func (a *Attachment) DetectContentType() string {
	if a.ContentType != "" {
		return a.ContentType
	}
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(a.Filename))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// Message is one outgoing mail after the sender has been resolved.
type Message struct {
	From        Address           `json:"from"`
	ReplyTo     string            `json:"reply_to"`
	To          []Address         `json:"to"`
	Subject     string            `json:"subject"`
	HTMLBody    string            `json:"html_body"`
	TextBody    string            `json:"text_body"`
	Attachments []Attachment      `json:"attachments"`
	Headers     map[string]string `json:"headers"`
}

// Validate checks that msg can be handed to a transport.
func (m *Message) Validate() error {
	switch {
	case !m.From.Valid():
		return NewValidationError("from", "invalid or missing sender address")
	case len(m.To) == 0:
		return NewValidationError("to", "at least one recipient required")
	}
	for i, to := range m.To {
		if !to.Valid() {
			return NewValidationError("to", "invalid recipient address at index "+strconv.Itoa(i))
		}
	}
	if strings.TrimSpace(m.Subject) == "" {
		return NewValidationError("subject", "subject is required")
	}
	if strings.TrimSpace(m.TextBody) == "" && strings.TrimSpace(m.HTMLBody) == "" {
		return NewValidationError("body", "either text or HTML body is required")
	}
	return nil
}

// HasAttachments reports whether msg carries files.
func (m *Message) HasAttachments() bool {
	return len(m.Attachments) > 0
}

// Recipients returns the bare recipient addresses.
func (m *Message) Recipients() []string {
	out := make([]string, 0, len(m.To))
	for _, to := range m.To {
		out = append(out, to.Email)
	}
	return out
}

// SendResult is what a transport reports for an accepted message.
type SendResult struct {
	MessageID string
	Provider  string
	Timestamp time.Time
}
