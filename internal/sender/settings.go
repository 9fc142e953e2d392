package sender

import (
	"strings"
)

// Option bag names, as stored by each plugin.
const (
	MailgunOption   = "mailgun"
	SparkPostOption = "sparkpost"
	SendGridOption  = "sendgrid"
)

// Settings is a read-only view of the host's plugin configuration.
type Settings interface {
	// ActivePlugins lists the active plugin identifiers.
	ActivePlugins() []string

	// Option returns the named option bag, or nil when unset.
	Option(name string) map[string]string
}

// StaticSettings is a fixed Settings value, typically loaded from a file.
type StaticSettings struct {
	Plugins []string
	Options map[string]map[string]string
}

// ActivePlugins implements Settings.
func (s StaticSettings) ActivePlugins() []string {
	return s.Plugins
}

// Option implements Settings.
func (s StaticSettings) Option(name string) map[string]string {
	return s.Options[name]
}

// Layered consults each source in turn. Plugin lists are merged; an option
// bag comes whole from the first source that has a non-empty one. Ordering
// the network scope before the site scope reproduces the multisite fallback.
type Layered []Settings

// ActivePlugins implements Settings.
func (l Layered) ActivePlugins() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, s := range l {
		for _, p := range s.ActivePlugins() {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

// Option implements Settings.
func (l Layered) Option(name string) map[string]string {
	for _, s := range l {
		if bag := s.Option(name); len(bag) > 0 {
			return bag
		}
	}
	return nil
}

// Overridden sets individual option keys on top of Base. Empty override
// values are ignored.
type Overridden struct {
	Base    Settings
	Options map[string]map[string]string
}

// ActivePlugins implements Settings.
func (o Overridden) ActivePlugins() []string {
	return o.Base.ActivePlugins()
}

// Option implements Settings.
func (o Overridden) Option(name string) map[string]string {
	base := o.Base.Option(name)
	over := o.Options[name]
	if len(over) == 0 {
		return base
	}
	out := make(map[string]string, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		if v != "" {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// EnvironmentFrom reads provider settings out of s.
func EnvironmentFrom(s Settings) Environment {
	mg := s.Option(MailgunOption)
	sp := s.Option(SparkPostOption)
	sg := s.Option(SendGridOption)

	return Environment{
		Plugins: s.ActivePlugins(),
		Mailgun: MailgunSettings{
			APIKey:       mg["apiKey"],
			Domain:       mg["domain"],
			UseAPI:       truthy(mg["useAPI"]),
			OverrideFrom: truthy(mg["override-from"]),
			FromAddress:  mg["from-address"],
			FromName:     mg["from-name"],
			BaseURL:      mg["base_url"],
		},
		SparkPost: SparkPostSettings{
			Enabled:       truthy(sp["enable_sparkpost"]),
			Password:      sp["password"],
			FromName:      sp["from_name"],
			FromEmail:     sp["from_email"],
			Transactional: truthy(sp["transactional"]),
		},
		SendGrid: SendGridSettings{
			APIKey:    sg["api_key"],
			FromEmail: sg["from_email"],
			FromName:  sg["from_name"],
			ReplyTo:   sg["reply_to"],
		},
	}
}

// truthy treats the usual spellings of "off" as false and anything else
// non-empty as true.
func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "false", "no", "n", "off":
		return false
	default:
		return true
	}
}
