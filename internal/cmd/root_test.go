package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		cfgFile = ""
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestFilterCommand(t *testing.T) {
	out, err := execute(t, "filter", "--to", "me@example.com", "a@example.com,b@example.com,a@example.com,me@example.com")
	if err != nil {
		t.Fatalf("filter error = %v", err)
	}
	if !strings.HasSuffix(strings.TrimSpace(out), "\ta@example.com,b@example.com") {
		t.Errorf("output = %q", out)
	}
}

func TestValidateCommand(t *testing.T) {
	out, err := execute(t, "validate", "a@example.com", "nope")
	if err == nil {
		t.Error("validate with an invalid address succeeded")
	}
	if !strings.Contains(out, "OK\ta@example.com") || !strings.Contains(out, "INVALID\tnope") {
		t.Errorf("output = %q", out)
	}
}

func TestResolveCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quickmail.yaml")
	cfg := `
plugins:
  - sendgrid-email-delivery-simplified/wpsendgrid.php
site_options:
  sendgrid:
    api_key: sg-key
    from_email: news@shop.example.com
    from_name: Shop
`
	if err := os.WriteFile(path, []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "--config", path, "resolve", "--name", "Ada", "--email", "ada@corp.example.com")
	if err != nil {
		t.Fatalf("resolve error = %v", err)
	}
	for _, want := range []string{"Provider: sendgrid", "Email:    news@shop.example.com", "Name:     Shop"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(out, "Quick Mail") {
		t.Errorf("output = %q", out)
	}
}

func TestLoadConfig_Missing(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "none.yaml"), "resolve")
	if err == nil || !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("error = %v", err)
	}
}
