package ses

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"

	"github.com/saberonline/quick-mail-wp-plugin/internal/core"
)

type fakeSES struct {
	plain *ses.SendEmailInput
	raw   *ses.SendRawEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.plain = in
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("plain-id")}, nil
}

func (f *fakeSES) SendRawEmail(_ context.Context, in *ses.SendRawEmailInput, _ ...func(*ses.Options)) (*ses.SendRawEmailOutput, error) {
	f.raw = in
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendRawEmailOutput{MessageId: aws.String("raw-id")}, nil
}

func testMessage() *core.Message {
	return &core.Message{
		From:     core.Address{Name: "Sender", Email: "sender@example.com"},
		ReplyTo:  "reply@example.com",
		To:       []core.Address{{Email: "a@example.com"}, {Email: "b@example.com"}},
		Subject:  "Hello",
		TextBody: "text",
		HTMLBody: "<p>html</p>",
	}
}

func TestSend_Plain(t *testing.T) {
	t.Parallel()

	fake := &fakeSES{}
	p := NewWithClient(fake, core.ProviderSettings{"region": "us-east-1", "configuration_set": "cs"})

	res, err := p.Send(context.Background(), testMessage())
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if res.MessageID != "plain-id" || res.Provider != "aws_ses" {
		t.Errorf("result = %+v", res)
	}
	if fake.raw != nil {
		t.Error("SendRawEmail used without attachments")
	}
	if got := fake.plain.ReplyToAddresses; len(got) != 1 || got[0] != "reply@example.com" {
		t.Errorf("ReplyToAddresses = %v", got)
	}
	if got := fake.plain.Destination.ToAddresses; len(got) != 2 {
		t.Errorf("ToAddresses = %v", got)
	}
	if aws.ToString(fake.plain.ConfigurationSetName) != "cs" {
		t.Error("configuration set not applied")
	}
}

func TestSend_RawWithAttachment(t *testing.T) {
	t.Parallel()

	fake := &fakeSES{}
	p := NewWithClient(fake, core.ProviderSettings{"region": "us-east-1"})

	msg := testMessage()
	msg.Attachments = []core.Attachment{{Filename: "report.pdf", Data: []byte("%PDF-1.4")}}

	res, err := p.Send(context.Background(), msg)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if res.MessageID != "raw-id" {
		t.Errorf("MessageID = %q", res.MessageID)
	}
	if fake.plain != nil {
		t.Error("SendEmail used with attachments")
	}
	if !bytes.Contains(fake.raw.RawMessage.Data, []byte(`filename=report.pdf`)) {
		t.Error("raw message missing attachment")
	}
	if len(fake.raw.Destinations) != 2 {
		t.Errorf("Destinations = %v", fake.raw.Destinations)
	}
}

func TestSend_ErrorIsRetryable(t *testing.T) {
	t.Parallel()

	p := NewWithClient(&fakeSES{err: errors.New("throttled")}, core.ProviderSettings{"region": "us-east-1"})

	_, err := p.Send(context.Background(), testMessage())
	if !core.IsRetryable(err) {
		t.Errorf("expected retryable error, got %v", err)
	}
}
