// Package sender decides which name, address and reply-to an outgoing
// message carries once the site's mail provider plugin has had its say.
//
// At most one provider applies, checked in the order Mailgun, SparkPost,
// SendGrid. Each provider rewrites the identity its own way; the three
// branches share only the plugin check and the domain comparison.
package sender

import (
	"strings"

	"github.com/saberonline/quick-mail-wp-plugin/internal/address"
)

// Identity is the sender of one message.
type Identity struct {
	Name    string `json:"name" yaml:"name"`
	Email   string `json:"email" yaml:"email"`
	ReplyTo string `json:"reply_to" yaml:"reply_to"`
}

// Kind names the provider that owns the outbound sender.
type Kind int

const (
	// None means no provider overrides the requested identity.
	None Kind = iota

	// Mailgun is the Mailgun plugin.
	Mailgun

	// SparkPost is the SparkPost plugin.
	SparkPost

	// SendGrid is the SendGrid plugin.
	SendGrid
)

// String returns the plugin slug of the provider.
func (k Kind) String() string {
	switch k {
	case Mailgun:
		return "mailgun"
	case SparkPost:
		return "sparkpost"
	case SendGrid:
		return "sendgrid"
	default:
		return "none"
	}
}

// MailgunSettings mirrors the Mailgun plugin's options.
type MailgunSettings struct {
	APIKey       string
	Domain       string
	UseAPI       bool
	OverrideFrom bool
	FromAddress  string
	FromName     string
	BaseURL      string
}

// SparkPostSettings mirrors the SparkPost plugin's options.
type SparkPostSettings struct {
	Enabled       bool
	Password      string
	FromName      string
	FromEmail     string
	Transactional bool
}

// SendGridSettings mirrors the SendGrid plugin's options.
type SendGridSettings struct {
	APIKey    string
	FromEmail string
	FromName  string
	ReplyTo   string
}

// SparkPostFilters are the extension points the SparkPost plugin runs over
// the sender. A nil func leaves its value unchanged.
type SparkPostFilters struct {
	SenderName  func(string) string
	SenderEmail func(string) string
	ReplyTo     func(string) string
}

func apply(f func(string) string, v string) string {
	if f == nil {
		return v
	}
	return f(v)
}

// Environment is everything the host knows about installed providers for
// the current request.
type Environment struct {
	// Plugins lists active plugin identifiers, site and network wide.
	Plugins   []string
	Mailgun   MailgunSettings
	SparkPost SparkPostSettings
	SendGrid  SendGridSettings
	Filters   SparkPostFilters
}

// Active is the provider chosen for a request, with its settings.
// Only the field matching Kind is meaningful.
type Active struct {
	Kind      Kind
	Mailgun   MailgunSettings
	SparkPost SparkPostSettings
	SendGrid  SendGridSettings
	Filters   SparkPostFilters
}

// PluginActive reports whether any active plugin identifier contains name,
// ignoring case. A substring match lets "mailgun" match
// "mailgun/mailgun.php" and renamed forks alike.
func PluginActive(plugins []string, name string) bool {
	name = strings.ToLower(name)
	for _, p := range plugins {
		if strings.Contains(strings.ToLower(p), name) {
			return true
		}
	}
	return false
}

// Detect picks at most one provider for env.
func Detect(env Environment) Active {
	switch {
	case MailgunInstalled(env):
		return Active{Kind: Mailgun, Mailgun: env.Mailgun}
	case sparkPostReady(env):
		return Active{Kind: SparkPost, SparkPost: env.SparkPost, Filters: env.Filters}
	case sendGridReady(env):
		return Active{Kind: SendGrid, SendGrid: env.SendGrid}
	default:
		return Active{Kind: None}
	}
}

// MailgunInstalled reports whether Mailgun is active with API credentials,
// regardless of its sender settings.
func MailgunInstalled(env Environment) bool {
	return PluginActive(env.Plugins, "mailgun") && env.Mailgun.APIKey != "" && env.Mailgun.Domain != ""
}

// SparkPostInstalled reports whether SparkPost is active, enabled and has an API key.
func SparkPostInstalled(env Environment) bool {
	sp := env.SparkPost
	return PluginActive(env.Plugins, "sparkpost") && sp.Enabled && sp.Password != ""
}

func sparkPostReady(env Environment) bool {
	if MailgunInstalled(env) || !SparkPostInstalled(env) {
		return false
	}
	name := apply(env.Filters.SenderName, env.SparkPost.FromName)
	email := apply(env.Filters.SenderEmail, env.SparkPost.FromEmail)
	return name != "" || email != ""
}

// SendGridInstalled reports whether SendGrid may handle mail at all. It
// cannot while Mailgun is active or SparkPost is enabled.
func SendGridInstalled(env Environment) bool {
	if PluginActive(env.Plugins, "mailgun") {
		return false
	}
	if PluginActive(env.Plugins, "sparkpost") && env.SparkPost.Enabled {
		return false
	}
	return PluginActive(env.Plugins, "sendgrid")
}

func sendGridReady(env Environment) bool {
	return SendGridInstalled(env) && env.SendGrid.FromEmail != ""
}

// Resolve returns the identity a message from requested actually carries.
func Resolve(requested Identity, env Environment) Identity {
	return Detect(env).Apply(requested)
}

// Apply rewrites requested according to the chosen provider.
func (a Active) Apply(requested Identity) Identity {
	switch a.Kind {
	case Mailgun:
		return applyMailgun(requested, a.Mailgun)
	case SparkPost:
		return applySparkPost(requested, a.SparkPost, a.Filters)
	case SendGrid:
		return applySendGrid(requested, a.SendGrid)
	default:
		return requested
	}
}

// Mailgun has no reply-to setting. The sender is only rewritten in API mode
// with override-from set, and the from address is only forced when the
// user's own address is outside the Mailgun domain.
func applyMailgun(id Identity, mg MailgunSettings) Identity {
	if !mg.UseAPI || !mg.OverrideFrom {
		return id
	}
	out := id
	if mg.FromAddress != "" && !address.MatchesDomain(id.Email, mg.FromAddress) {
		out.Email = mg.FromAddress
	}
	if mg.FromName != "" {
		out.Name = mg.FromName
	}
	return out
}

func applySparkPost(id Identity, sp SparkPostSettings, f SparkPostFilters) Identity {
	out := id

	email := sp.FromEmail
	if email == "" {
		email = apply(f.SenderEmail, id.Email)
	}
	if email != "" {
		out.Email = email
	}

	name := sp.FromName
	if name == "" {
		name = apply(f.SenderName, id.Name)
	}
	if name != "" {
		out.Name = name
	}

	out.ReplyTo = apply(f.ReplyTo, id.ReplyTo)
	return out
}

func applySendGrid(id Identity, sg SendGridSettings) Identity {
	out := id
	if sg.FromEmail != "" {
		out.Email = sg.FromEmail
	}
	if sg.FromName != "" {
		out.Name = sg.FromName
	}

	switch {
	case sg.ReplyTo != "":
		out.ReplyTo = sg.ReplyTo
	case id.ReplyTo == "":
		out.ReplyTo = out.Email
	}
	return out
}

// UsingSparkPostDomain reports whether the user's address is on the same
// domain as the SparkPost sender.
func UsingSparkPostDomain(userEmail string, sp SparkPostSettings) bool {
	spDomain := address.Domain(sp.FromEmail)
	return spDomain != "" && spDomain == address.Domain(userEmail)
}

// TransactionalFor reports whether a SparkPost transmission should be sent as
// transactional. Messages with attachments never are.
func TransactionalFor(sp SparkPostSettings, attachments int) bool {
	return sp.Transactional && attachments == 0
}
