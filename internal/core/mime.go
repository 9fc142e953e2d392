package core

import (
	"bytes"
	"mime"
	"strings"
	"time"

	"github.com/emersion/go-message"
)

// Render builds msg in RFC 5322 form for transports that take raw messages.
// Text parts are quoted-printable and attachments base64, so no body line
// exceeds 76 characters.
func Render(msg *Message, messageID string, date time.Time) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("From: " + msg.From.String() + "\r\n")

	to := make([]string, 0, len(msg.To))
	for _, a := range msg.To {
		to = append(to, a.String())
	}
	buf.WriteString("To: " + strings.Join(to, ", ") + "\r\n")

	if msg.ReplyTo != "" {
		buf.WriteString("Reply-To: " + msg.ReplyTo + "\r\n")
	}
	buf.WriteString("Subject: " + mime.QEncoding.Encode("UTF-8", msg.Subject) + "\r\n")
	buf.WriteString("Date: " + date.Format(time.RFC1123Z) + "\r\n")
	if messageID != "" {
		buf.WriteString("Message-ID: <" + messageID + ">\r\n")
	}
	buf.WriteString("MIME-Version: 1.0\r\n")

	for key, value := range msg.Headers {
		buf.WriteString(key + ": " + value + "\r\n")
	}

	if !msg.HasAttachments() {
		if err := writeBody(topWriter{&buf}, msg); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	var h message.Header
	h.SetContentType("multipart/mixed", nil)
	mw, err := message.CreateWriter(&buf, h)
	if err != nil {
		return nil, err
	}
	if err := writeBody(partWriter{mw}, msg); err != nil {
		return nil, err
	}

	for i := range msg.Attachments {
		att := &msg.Attachments[i]
		var ah message.Header
		ah.SetContentType(att.DetectContentType(), nil)
		ah.Set("Content-Transfer-Encoding", "base64")
		ah.SetContentDisposition("attachment", map[string]string{"filename": att.Filename})
		if err := writeEntity(partWriter{mw}, ah, att.Data); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// entityWriter is where an entity's header and body go: the top of the
// message, or the next part of an enclosing multipart.
type entityWriter interface {
	create(h message.Header) (*message.Writer, error)
}

type topWriter struct{ buf *bytes.Buffer }

func (t topWriter) create(h message.Header) (*message.Writer, error) {
	return message.CreateWriter(t.buf, h)
}

type partWriter struct{ mw *message.Writer }

func (p partWriter) create(h message.Header) (*message.Writer, error) {
	return p.mw.CreatePart(h)
}

// writeBody writes the text entity of msg. A message carrying both text and
// HTML becomes multipart/alternative.
func writeBody(w entityWriter, msg *Message) error {
	if msg.HTMLBody == "" || msg.TextBody == "" {
		typ, body := "text/plain", msg.TextBody
		if msg.HTMLBody != "" {
			typ, body = "text/html", msg.HTMLBody
		}
		return writeEntity(w, textHeader(typ), []byte(body+"\r\n"))
	}

	var h message.Header
	h.SetContentType("multipart/alternative", nil)
	alt, err := w.create(h)
	if err != nil {
		return err
	}
	for _, p := range []struct{ typ, body string }{
		{"text/plain", msg.TextBody},
		{"text/html", msg.HTMLBody},
	} {
		if err := writeEntity(partWriter{alt}, textHeader(p.typ), []byte(p.body+"\r\n")); err != nil {
			return err
		}
	}
	return alt.Close()
}

func textHeader(typ string) message.Header {
	var h message.Header
	h.SetContentType(typ, map[string]string{"charset": "UTF-8"})
	h.Set("Content-Transfer-Encoding", "quoted-printable")
	return h
}

// writeEntity writes a single part; the writer applies the header's
// Content-Transfer-Encoding to body.
func writeEntity(w entityWriter, h message.Header, body []byte) error {
	ew, err := w.create(h)
	if err != nil {
		return err
	}
	if _, err := ew.Write(body); err != nil {
		_ = ew.Close()
		return err
	}
	return ew.Close()
}
