package sendgrid

import (
	"testing"

	"github.com/saberonline/quick-mail-wp-plugin/internal/core"
)

func TestBuild(t *testing.T) {
	t.Parallel()

	msg := &core.Message{
		From:        core.Address{Name: "Site", Email: "site@example.com"},
		ReplyTo:     "owner@example.com",
		To:          []core.Address{{Email: "a@example.com"}, {Name: "Bee", Email: "b@example.com"}},
		Subject:     "Hi",
		TextBody:    "plain",
		HTMLBody:    "<b>rich</b>",
		Headers:     map[string]string{"X-Mailer": "quick-mail"},
		Attachments: []core.Attachment{{Filename: "notes.pdf", Data: []byte("hi")}},
	}

	m := Build(msg)

	if m.From.Address != "site@example.com" || m.From.Name != "Site" {
		t.Errorf("From = %+v", m.From)
	}
	if m.ReplyTo == nil || m.ReplyTo.Address != "owner@example.com" {
		t.Errorf("ReplyTo = %+v", m.ReplyTo)
	}
	if len(m.Personalizations) != 1 || len(m.Personalizations[0].To) != 2 {
		t.Fatalf("Personalizations = %+v", m.Personalizations)
	}
	if m.Headers["X-Mailer"] != "quick-mail" {
		t.Errorf("Headers = %v", m.Headers)
	}
	if len(m.Attachments) != 1 {
		t.Fatalf("Attachments = %+v", m.Attachments)
	}
	a := m.Attachments[0]
	if a.Content != "aGk=" || a.Filename != "notes.pdf" || a.Type != "application/pdf" {
		t.Errorf("attachment = %+v", a)
	}
}

func TestBuild_NoReplyTo(t *testing.T) {
	t.Parallel()

	m := Build(&core.Message{
		From:     core.Address{Email: "site@example.com"},
		To:       []core.Address{{Email: "a@example.com"}},
		Subject:  "Hi",
		TextBody: "plain",
	})
	if m.ReplyTo != nil {
		t.Errorf("ReplyTo = %+v, want nil", m.ReplyTo)
	}
	if len(m.Personalizations) != 1 || len(m.Personalizations[0].To) != 1 {
		t.Errorf("Personalizations = %+v", m.Personalizations)
	}
}
