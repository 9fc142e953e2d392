package quickmail

import (
	"time"

	"github.com/charmbracelet/log"
)

// Option is a functional option for configuring the client.
type Option func(*Config)

// WithVerifyDomains enables or disables MX verification.
func WithVerifyDomains(verify bool) Option {
	return func(c *Config) {
		c.Validation.VerifyDomains = verify
	}
}

// WithDNSTimeout bounds each MX lookup.
func WithDNSTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Validation.DNSTimeout = d
	}
}

// WithResolver replaces the DNS resolver used for MX lookups.
func WithResolver(r MXResolver) Option {
	return func(c *Config) {
		c.Resolver = r
	}
}

// WithDuplicateLabel sets the word used for duplicates in filter results.
func WithDuplicateLabel(word string) Option {
	return func(c *Config) {
		c.Validation.DuplicateLabel = word
	}
}

// WithPlugins sets the plugins active on the site.
func WithPlugins(plugins ...string) Option {
	return func(c *Config) {
		c.Plugins = plugins
	}
}

// WithNetworkPlugins sets the plugins active network wide.
func WithNetworkPlugins(plugins ...string) Option {
	return func(c *Config) {
		c.NetworkPlugins = plugins
	}
}

// WithSiteOptions sets the network level options for one provider.
func WithSiteOptions(provider string, options map[string]string) Option {
	return func(c *Config) {
		if c.SiteOptions == nil {
			c.SiteOptions = make(map[string]map[string]string)
		}
		c.SiteOptions[provider] = options
	}
}

// WithBlogOptions sets the site's own options for one provider.
func WithBlogOptions(provider string, options map[string]string) Option {
	return func(c *Config) {
		if c.BlogOptions == nil {
			c.BlogOptions = make(map[string]map[string]string)
		}
		c.BlogOptions[provider] = options
	}
}

// WithUsers sets the user directory.
func WithUsers(users ...User) Option {
	return func(c *Config) {
		c.Users = users
	}
}

// WithTransport routes every message through p.
func WithTransport(p Provider) Option {
	return func(c *Config) {
		c.Transport.Provider = p
	}
}

// WithTransportType selects a named transport for every message.
func WithTransportType(t TransportType, settings ProviderSettings) Option {
	return func(c *Config) {
		c.Transport.Type = t
		c.Transport.Settings = settings
	}
}

// WithDefaultTransport sets the transport used when no provider plugin is active.
func WithDefaultTransport(t TransportType, settings ProviderSettings) Option {
	return func(c *Config) {
		c.Transport.Default = t
		c.Transport.Settings = settings
	}
}

// WithTimeout sets the per-attempt delivery timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Transport.Timeout = timeout
	}
}

// WithSMTP uses an SMTP relay when no provider plugin is active.
func WithSMTP(host, port string) Option {
	return WithDefaultTransport(TransportSMTP, ProviderSettings{
		"host": host,
		"port": port,
	})
}

// WithSMTPAuth uses an authenticated SMTP relay when no provider plugin is active.
func WithSMTPAuth(host, port, username, password string) Option {
	return WithDefaultTransport(TransportSMTP, ProviderSettings{
		"host":     host,
		"port":     port,
		"username": username,
		"password": password,
	})
}

// WithAWSSES uses Amazon SES when no provider plugin is active.
func WithAWSSES(region string) Option {
	return WithDefaultTransport(TransportSES, ProviderSettings{
		"region": region,
	})
}

// WithRetry configures retry behavior.
func WithRetry(maxAttempts int, initialDelay, maxDelay time.Duration, multiplier float64) Option {
	return func(c *Config) {
		c.Retry.Enabled = true
		c.Retry.MaxAttempts = maxAttempts
		c.Retry.InitialDelay = initialDelay
		c.Retry.MaxDelay = maxDelay
		c.Retry.Multiplier = multiplier
	}
}

// WithoutRetry disables retry functionality.
func WithoutRetry() Option {
	return func(c *Config) {
		c.Retry.Enabled = false
	}
}

// WithTracing enables OpenTelemetry spans under serviceName.
func WithTracing(serviceName string) Option {
	return func(c *Config) {
		c.Tracing.Enabled = true
		c.Tracing.ServiceName = serviceName
	}
}

// WithLogging configures logging.
func WithLogging(level, format string) Option {
	return func(c *Config) {
		c.Logging.Level = level
		c.Logging.Format = format
	}
}

// WithLogger replaces the logger built from the logging configuration.
func WithLogger(l *log.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}
