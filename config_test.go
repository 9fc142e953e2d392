package quickmail

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/saberonline/quick-mail-wp-plugin/internal/sender"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestDefaultConfig_Valid(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() error = %v", err)
	}
	if cfg.Transport.Type != TransportAuto {
		t.Errorf("Transport.Type = %q, want auto", cfg.Transport.Type)
	}
	if cfg.Validation.DNSTimeout != 5*time.Second {
		t.Errorf("DNSTimeout = %v, want 5s", cfg.Validation.DNSTimeout)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad transport", func(c *Config) { c.Transport.Type = "fax" }, "transport.type"},
		{"auto default", func(c *Config) { c.Transport.Default = TransportAuto }, "transport.default"},
		{"zero timeout", func(c *Config) { c.Transport.Timeout = 0 }, "transport.timeout"},
		{"zero dns timeout", func(c *Config) { c.Validation.DNSTimeout = 0 }, "validation.dns_timeout"},
		{"no attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }, "retry.max_attempts"},
		{"flat backoff", func(c *Config) { c.Retry.Multiplier = 1 }, "retry.multiplier"},
		{"log level", func(c *Config) { c.Logging.Level = "chatty" }, "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			ve, ok := err.(*ValidationError)
			if !ok || ve.Field != tt.field {
				t.Errorf("Validate() error = %v, want field %s", err, tt.field)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("QM_TEST_SG_KEY", "from-env")
	t.Setenv("MAILGUN_DOMAIN", "")

	writeFile(t, dir, "users.yaml", `
users:
  - id: 2
    email: editor@example.com
    display_name: Ed
transport:
  default: smtp
  settings:
    host: relay.example.com
    port: "25"
`)
	path := writeFile(t, dir, "quickmail.yaml", `
includes:
  - users.yaml
validation:
  verify_domains: true
  dns_timeout: 2s
plugins:
  - sendgrid-email-delivery-simplified/wpsendgrid.php
blog_options:
  sendgrid:
    api_key: ${QM_TEST_SG_KEY}
    from_email: site@example.com
users:
  - id: 1
    email: admin@example.com
    admin: true
server:
  listen: 127.0.0.1:9000
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !cfg.Validation.VerifyDomains || cfg.Validation.DNSTimeout != 2*time.Second {
		t.Errorf("Validation = %+v", cfg.Validation)
	}
	if cfg.Server.Listen != "127.0.0.1:9000" {
		t.Errorf("Listen = %q", cfg.Server.Listen)
	}
	if cfg.Server.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, want default", cfg.Server.ShutdownTimeout)
	}
	if len(cfg.Users) != 2 {
		t.Errorf("Users = %+v, want both files' users", cfg.Users)
	}
	if cfg.Transport.Default != TransportSMTP || cfg.Transport.Settings.Get("host") != "relay.example.com" {
		t.Errorf("Transport = %+v", cfg.Transport)
	}
	if got := cfg.BlogOptions[sender.SendGridOption]["api_key"]; got != "from-env" {
		t.Errorf("api_key = %q, want expanded env var", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	env := sender.EnvironmentFrom(cfg.Settings())
	if sender.Detect(env).Kind != sender.SendGrid {
		t.Errorf("Detect().Kind = %v, want sendgrid", sender.Detect(env).Kind)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MAILGUN_APIKEY", "env-key")
	t.Setenv("MAILGUN_FROM_ADDRESS", "env@mg.example.com")
	t.Setenv("SENDGRID_REPLY_TO", "reply@example.com")
	t.Setenv("LOG_LEVEL", "DEBUG")

	path := writeFile(t, dir, "quickmail.yaml", `
site_options:
  mailgun:
    apiKey: file-key
    domain: mg.example.com
blog_options:
  mailgun:
    from-address: blog@mg.example.com
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	mg := cfg.Settings().Option(sender.MailgunOption)
	if mg["apiKey"] != "env-key" {
		t.Errorf("apiKey = %q, want env-key", mg["apiKey"])
	}
	if mg["domain"] != "mg.example.com" {
		t.Errorf("domain = %q", mg["domain"])
	}
	if mg["from-address"] != "env@mg.example.com" {
		t.Errorf("from-address = %q, want env value over blog option", mg["from-address"])
	}
	if got := cfg.Settings().Option(sender.SendGridOption)["reply_to"]; got != "reply@example.com" {
		t.Errorf("reply_to = %q", got)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestSettings_NetworkBagReplacesSiteBag(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "quickmail.yaml", `
site_options:
  mailgun:
    apiKey: network-key
blog_options:
  mailgun:
    apiKey: blog-key
    domain: mg.blog.org
  sendgrid:
    api_key: sg-blog
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	mg := cfg.Settings().Option(sender.MailgunOption)
	if mg["apiKey"] != "network-key" {
		t.Errorf("apiKey = %q, want network-key", mg["apiKey"])
	}
	if mg["domain"] != "" {
		t.Errorf("domain = %q, want empty: blog bag must not be merged in", mg["domain"])
	}
	if got := cfg.Settings().Option(sender.SendGridOption)["api_key"]; got != "sg-blog" {
		t.Errorf("sendgrid api_key = %q, want blog fallback", got)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
