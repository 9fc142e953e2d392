package smtp

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/saberonline/quick-mail-wp-plugin/internal/core"
)

func TestNewProvider_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		settings core.ProviderSettings
		field    string
	}{
		{"missing host", core.ProviderSettings{"port": "25"}, "host"},
		{"missing port", core.ProviderSettings{"host": "mail"}, "port"},
		{"bad port", core.ProviderSettings{"host": "mail", "port": "smtp"}, "port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewProvider(tt.settings)
			var ve *core.ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Errorf("NewProvider() error = %v, want field %s", err, tt.field)
			}
		})
	}
}

func TestSend(t *testing.T) {
	t.Parallel()

	var (
		gotAddr string
		gotFrom string
		gotTo   []string
		gotMsg  string
		gotAuth smtp.Auth
	)
	send := func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotFrom, gotTo, gotMsg = addr, a, from, to, string(msg)
		return nil
	}

	p, err := NewWithSender(core.ProviderSettings{"host": "mail.example.com", "port": "587", "username": "u", "password": "p"}, send)
	if err != nil {
		t.Fatalf("NewWithSender() error = %v", err)
	}

	msg := &core.Message{
		From:        core.Address{Name: "Sender", Email: "sender@example.com"},
		ReplyTo:     "reply@example.com",
		To:          []core.Address{{Email: "a@example.com"}, {Email: "b@example.com"}},
		Subject:     "Report",
		TextBody:    "see attached",
		Attachments: []core.Attachment{{Filename: "r.txt", Data: []byte("hello")}},
	}

	res, err := p.Send(context.Background(), msg)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if gotAddr != "mail.example.com:587" {
		t.Errorf("addr = %q", gotAddr)
	}
	if gotAuth == nil {
		t.Error("expected auth")
	}
	if gotFrom != "sender@example.com" || len(gotTo) != 2 {
		t.Errorf("envelope = %q %v", gotFrom, gotTo)
	}
	for _, want := range []string{
		"Reply-To: reply@example.com\r\n",
		"Message-ID: <" + res.MessageID + ">\r\n",
		"multipart/mixed",
		"filename=r.txt",
		"aGVsbG8=",
	} {
		if !strings.Contains(gotMsg, want) {
			t.Errorf("message missing %q", want)
		}
	}
	if !strings.HasSuffix(res.MessageID, "@mail.example.com") {
		t.Errorf("MessageID = %q", res.MessageID)
	}
}

func TestSend_FailureIsRetryable(t *testing.T) {
	t.Parallel()

	p, err := NewWithSender(core.ProviderSettings{"host": "mail", "port": "25"}, func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("421 try later")
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = p.Send(context.Background(), &core.Message{
		From: core.Address{Email: "a@b.co"}, To: []core.Address{{Email: "c@d.co"}}, Subject: "s", TextBody: "b",
	})
	if !core.IsRetryable(err) {
		t.Errorf("expected retryable error, got %v", err)
	}
}
