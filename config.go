package quickmail

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/saberonline/quick-mail-wp-plugin/internal/address"
	"github.com/saberonline/quick-mail-wp-plugin/internal/sender"
)

// Config holds the complete quick mail configuration.
type Config struct {
	// Includes lists further YAML files merged into this one. Relative
	// paths are resolved against the including file; globs are allowed.
	Includes []string `yaml:"includes,omitempty"`

	// Validation controls address checking.
	Validation ValidationConfig `yaml:"validation"`

	// Plugins lists plugins active on the current site.
	Plugins []string `yaml:"plugins,omitempty"`

	// NetworkPlugins lists plugins active network wide.
	NetworkPlugins []string `yaml:"network_plugins,omitempty"`

	// SiteOptions holds network level option bags keyed by provider
	// ("mailgun", "sparkpost", "sendgrid"). They win over BlogOptions.
	SiteOptions map[string]map[string]string `yaml:"site_options,omitempty"`

	// BlogOptions holds per-site option bags keyed by provider.
	BlogOptions map[string]map[string]string `yaml:"blog_options,omitempty"`

	// Overrides holds single option keys set from the environment. They
	// apply on top of whichever bag the layering picked.
	Overrides map[string]map[string]string `yaml:"-"`

	// Transport selects how messages leave.
	Transport TransportConfig `yaml:"transport"`

	// Retry contains retry policy configuration.
	Retry RetryConfig `yaml:"retry"`

	// Users is the account directory used by the CLI.
	Users []sender.User `yaml:"users,omitempty"`

	// Server configures the validation endpoint.
	Server ServerConfig `yaml:"server"`

	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`

	// Resolver replaces the system DNS resolver for MX lookups.
	Resolver address.MXResolver `yaml:"-"`

	// Logger replaces the logger built from Logging.
	Logger *log.Logger `yaml:"-"`
}

// ValidationConfig controls address validation.
type ValidationConfig struct {
	// VerifyDomains enables MX lookups for recipient domains.
	VerifyDomains bool `yaml:"verify_domains"`

	// DNSTimeout bounds a single MX lookup.
	DNSTimeout time.Duration `yaml:"dns_timeout"`

	// DuplicateLabel is the word used for duplicates in filter responses.
	DuplicateLabel string `yaml:"duplicate_label"`
}

// TransportType names a way of delivering mail.
type TransportType string

const (
	// TransportAuto uses the provider whose plugin is active, falling back
	// to TransportConfig.Default.
	TransportAuto TransportType = "auto"

	// TransportMailgun sends through the Mailgun API.
	TransportMailgun TransportType = "mailgun"

	// TransportSparkPost sends through the SparkPost API.
	TransportSparkPost TransportType = "sparkpost"

	// TransportSendGrid sends through the SendGrid API.
	TransportSendGrid TransportType = "sendgrid"

	// TransportSES sends through Amazon SES.
	TransportSES TransportType = "ses"

	// TransportSMTP sends through an SMTP relay.
	TransportSMTP TransportType = "smtp"
)

// Valid checks if the transport type is supported.
func (t TransportType) Valid() bool {
	switch t {
	case TransportAuto, TransportMailgun, TransportSparkPost, TransportSendGrid, TransportSES, TransportSMTP:
		return true
	default:
		return false
	}
}

// TransportConfig selects and configures delivery.
type TransportConfig struct {
	// Type is the transport to use. "auto" follows the active provider.
	Type TransportType `yaml:"type"`

	// Default is used by "auto" when no provider plugin is active.
	// Empty means such messages are refused.
	Default TransportType `yaml:"default,omitempty"`

	// Settings configures Default, or Type when it is explicit.
	Settings ProviderSettings `yaml:"settings,omitempty"`

	// Timeout bounds one delivery attempt.
	Timeout time.Duration `yaml:"timeout"`

	// Provider, when set, handles every message regardless of Type.
	Provider Provider `yaml:"-"`
}

// RetryConfig contains retry policy configuration.
type RetryConfig struct {
	// Enabled indicates whether retries are enabled.
	Enabled bool `yaml:"enabled"`

	// MaxAttempts is the maximum number of attempts, including the first.
	MaxAttempts int `yaml:"max_attempts"`

	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration `yaml:"initial_delay"`

	// MaxDelay caps the delay between retries.
	MaxDelay time.Duration `yaml:"max_delay"`

	// Multiplier is the backoff multiplier.
	Multiplier float64 `yaml:"multiplier"`

	// Jitter adds up to 10% random delay.
	Jitter bool `yaml:"jitter"`
}

// ServerConfig configures the HTTP validation endpoint.
type ServerConfig struct {
	Listen          string        `yaml:"listen"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the logging level (debug, info, warn, error).
	Level string `yaml:"level"`

	// Format is the log format (text, json, logfmt).
	Format string `yaml:"format"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Validation: ValidationConfig{
			DNSTimeout:     5 * time.Second,
			DuplicateLabel: "Duplicate",
		},
		Transport: TransportConfig{
			Type:    TransportAuto,
			Timeout: 30 * time.Second,
		},
		Retry: DefaultRetryConfig(),
		Server: ServerConfig{
			Listen:          ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Tracing: TracingConfig{
			ServiceName: "quickmail",
		},
	}
}

// DefaultRetryConfig returns default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Enabled:      true,
		MaxAttempts:  3,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// Load reads a YAML configuration file over the defaults. Environment
// variables in the file are expanded, includes fill fields the file left
// empty and provider environment variables are applied last.
func Load(path string) (*Config, error) {
	base := DefaultConfig()
	cfg, err := readFile(path, &base)
	if err != nil {
		return nil, err
	}

	baseDir := filepath.Dir(path)
	for _, include := range cfg.Includes {
		includePath := include
		if !filepath.IsAbs(includePath) {
			includePath = filepath.Join(baseDir, include)
		}

		matches, err := filepath.Glob(includePath)
		if err != nil {
			return nil, fmt.Errorf("invalid include pattern %s: %w", include, err)
		}

		for _, match := range matches {
			inc, err := readFile(match, &Config{})
			if err != nil {
				return nil, fmt.Errorf("failed to load include %s: %w", match, err)
			}
			if err := mergo.Merge(cfg, inc, mergo.WithAppendSlice); err != nil {
				return nil, fmt.Errorf("failed to merge include %s: %w", match, err)
			}
		}
	}

	cfg.applyEnvVars()

	return cfg, nil
}

// FromEnv returns the defaults with environment variables applied.
func FromEnv() *Config {
	cfg := DefaultConfig()
	cfg.applyEnvVars()
	return &cfg
}

func readFile(path string, cfg *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	data = []byte(os.ExpandEnv(string(data)))

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// providerEnv maps environment variables onto provider options. Set
// variables win over anything in the file.
var providerEnv = []struct {
	env, option, key string
}{
	{"MAILGUN_APIKEY", sender.MailgunOption, "apiKey"},
	{"MAILGUN_DOMAIN", sender.MailgunOption, "domain"},
	{"MAILGUN_FROM_ADDRESS", sender.MailgunOption, "from-address"},
	{"MAILGUN_FROM_NAME", sender.MailgunOption, "from-name"},
	{"SENDGRID_API_KEY", sender.SendGridOption, "api_key"},
	{"SENDGRID_FROM_EMAIL", sender.SendGridOption, "from_email"},
	{"SENDGRID_FROM_NAME", sender.SendGridOption, "from_name"},
	{"SENDGRID_REPLY_TO", sender.SendGridOption, "reply_to"},
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values.
func (c *Config) applyEnvVars() {
	for _, e := range providerEnv {
		v := os.Getenv(e.env)
		if v == "" {
			continue
		}
		if c.Overrides == nil {
			c.Overrides = make(map[string]map[string]string)
		}
		if c.Overrides[e.option] == nil {
			c.Overrides[e.option] = make(map[string]string)
		}
		c.Overrides[e.option][e.key] = v
	}

	if v := os.Getenv("QUICKMAIL_VERIFY_DOMAINS"); v != "" {
		c.Validation.VerifyDomains = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("QUICKMAIL_LISTEN"); v != "" {
		c.Server.Listen = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}

// Settings returns the layered provider settings: network options and
// plugins first, then the site's own, with environment overrides on top.
func (c *Config) Settings() sender.Settings {
	return sender.Overridden{
		Base: sender.Layered{
			sender.StaticSettings{Plugins: c.NetworkPlugins, Options: c.SiteOptions},
			sender.StaticSettings{Plugins: c.Plugins, Options: c.BlogOptions},
		},
		Options: c.Overrides,
	}
}

// Directory returns the configured users.
func (c *Config) Directory() sender.Directory {
	return sender.Directory(c.Users)
}

// Validate checks if the configuration is valid and complete.
func (c *Config) Validate() error {
	if !c.Transport.Type.Valid() {
		return &ValidationError{
			Field:   "transport.type",
			Message: "invalid or unsupported transport type: " + string(c.Transport.Type),
		}
	}

	if c.Transport.Default != "" && (c.Transport.Default == TransportAuto || !c.Transport.Default.Valid()) {
		return &ValidationError{
			Field:   "transport.default",
			Message: "invalid default transport: " + string(c.Transport.Default),
		}
	}

	if c.Transport.Timeout <= 0 {
		return &ValidationError{
			Field:   "transport.timeout",
			Message: "timeout must be greater than 0",
		}
	}

	if c.Validation.DNSTimeout <= 0 {
		return &ValidationError{
			Field:   "validation.dns_timeout",
			Message: "DNS timeout must be greater than 0",
		}
	}

	if c.Retry.Enabled {
		if c.Retry.MaxAttempts < 1 {
			return &ValidationError{
				Field:   "retry.max_attempts",
				Message: "max attempts must be at least 1",
			}
		}
		if c.Retry.Multiplier <= 1.0 {
			return &ValidationError{
				Field:   "retry.multiplier",
				Message: "multiplier must be greater than 1.0",
			}
		}
	}

	if c.Logging.Level != "" {
		if _, err := log.ParseLevel(c.Logging.Level); err != nil {
			return &ValidationError{
				Field:   "logging.level",
				Message: "unknown log level: " + c.Logging.Level,
			}
		}
	}

	return nil
}
