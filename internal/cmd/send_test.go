package cmd

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	quickmail "github.com/saberonline/quick-mail-wp-plugin"
	"github.com/saberonline/quick-mail-wp-plugin/internal/address"
	"github.com/saberonline/quick-mail-wp-plugin/internal/fetch"
	"github.com/saberonline/quick-mail-wp-plugin/internal/sender"
)

const pngHeader = "\x89PNG\r\n\x1a\n0000"

type fakeMailer struct {
	sent []*quickmail.Message
	err  error
}

func (f *fakeMailer) ValidEmail(_ context.Context, addr string) bool {
	return address.ValidEmail(addr, false)
}

func (f *fakeMailer) Send(_ context.Context, msg *quickmail.Message) (*quickmail.SendResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, msg)
	return &quickmail.SendResult{MessageID: "1", Provider: "fake"}, nil
}

var testUsers = sender.Directory{
	{ID: 1, Email: "admin@corp.example.com", FirstName: "Ada", LastName: "Lovelace", Admin: true},
	{ID: 7, Email: "bob@example.org", DisplayName: "Bob"},
}

func newJob(t *testing.T, m *fakeMailer, client *http.Client) *sendJob {
	t.Helper()
	return &sendJob{
		client:  m,
		users:   testUsers,
		fetcher: fetch.New(client),
		tempDir: t.TempDir(),
		logger:  log.New(io.Discard),
		now:     func() time.Time { return time.Unix(1700000000, 0) },
	}
}

func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSendJob_Addresses(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	note := writeFile(t, dir, "note.txt", "hello")

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"non-admin sender", []string{"7", "bob@example.org", note}, quickmail.ErrNotAdministrator},
		{"unknown sender", []string{"99", "bob@example.org", note}, quickmail.ErrNotAdministrator},
		{"unknown recipient id", []string{"1", "42", note}, quickmail.ErrInvalidRecipient},
		{"invalid recipient", []string{"1", "bob@", note}, quickmail.ErrInvalidRecipient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := &fakeMailer{}
			_, err := newJob(t, m, nil).run(context.Background(), tt.args)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("run() error = %v, want %v", err, tt.wantErr)
			}
			if len(m.sent) != 0 {
				t.Errorf("sent %d messages", len(m.sent))
			}
		})
	}
}

func TestSendJob_Files(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	note := writeFile(t, dir, "note.txt", "hello there")
	page := writeFile(t, dir, "page.html", "<html><body><p>hi</p></body></html>")
	image := writeFile(t, dir, "image.png", pngHeader)
	replacement := writeFile(t, dir, "msg.txt", "See the picture")
	binaryReplacement := writeFile(t, dir, "msg.png", pngHeader)
	empty := writeFile(t, dir, "empty.txt", "")

	tests := []struct {
		name        string
		args        []string
		wantOut     string
		wantErr     string
		wantSubject string
		wantText    string
		wantHTML    bool
		wantAttach  string
	}{
		{
			name:        "text file",
			args:        []string{"1", "7", note},
			wantOut:     "Sent note.txt to bob@example.org",
			wantSubject: "For Your Eyes Only",
			wantText:    "hello there",
		},
		{
			name:        "html file with subject",
			args:        []string{"admin@corp.example.com", "mary@example.com", page, "Tom &amp; Jerry"},
			wantOut:     "Sent page.html to mary@example.com",
			wantSubject: "Tom & Jerry",
			wantHTML:    true,
		},
		{
			name:        "attachment",
			args:        []string{"1", "7", image, "Beautiful Image"},
			wantOut:     "Sent image.png to bob@example.org",
			wantSubject: "Beautiful Image",
			wantText:    "Please see attachment : image.png",
			wantAttach:  "image.png",
		},
		{
			name:       "attachment with message file",
			args:       []string{"1", "7", image, "", replacement},
			wantOut:    "Sent image.png to bob@example.org",
			wantText:   "See the picture",
			wantAttach: "image.png",
		},
		{
			name:       "attachment with binary message file",
			args:       []string{"1", "7", image, "", binaryReplacement},
			wantOut:    "Sent image.png to bob@example.org",
			wantText:   "You have an attachment.",
			wantAttach: "image.png",
		},
		{
			name:    "attachment with missing message file",
			args:    []string{"1", "7", image, "", filepath.Join(dir, "nope.txt")},
			wantErr: "Invalid file attachment.",
		},
		{
			name:    "missing file",
			args:    []string{"1", "7", filepath.Join(dir, "missing.txt")},
			wantErr: "File not found",
		},
		{
			name:    "empty file",
			args:    []string{"1", "7", empty},
			wantErr: "Empty file: empty.txt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := &fakeMailer{}
			out, err := newJob(t, m, nil).run(context.Background(), tt.args)
			if tt.wantErr != "" {
				if err == nil || !strings.HasPrefix(err.Error(), tt.wantErr) {
					t.Fatalf("run() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("run() error = %v", err)
			}
			if out != tt.wantOut {
				t.Errorf("output = %q, want %q", out, tt.wantOut)
			}

			msg := m.sent[0]
			if msg.From.Email != "admin@corp.example.com" || msg.From.Name != "Ada Lovelace" {
				t.Errorf("From = %+v", msg.From)
			}
			wantSubject := tt.wantSubject
			if wantSubject == "" {
				wantSubject = "For Your Eyes Only"
			}
			if msg.Subject != wantSubject {
				t.Errorf("Subject = %q, want %q", msg.Subject, wantSubject)
			}
			if tt.wantText != "" && msg.TextBody != tt.wantText {
				t.Errorf("TextBody = %q, want %q", msg.TextBody, tt.wantText)
			}
			if tt.wantHTML && msg.HTMLBody == "" {
				t.Error("HTMLBody is empty")
			}
			if tt.wantAttach != "" {
				if len(msg.Attachments) != 1 || msg.Attachments[0].Filename != tt.wantAttach {
					t.Fatalf("Attachments = %+v", msg.Attachments)
				}
				if msg.Attachments[0].ContentType != "image/png" {
					t.Errorf("ContentType = %q", msg.Attachments[0].ContentType)
				}
			}
		})
	}
}

func TestSendJob_URL(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/news", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><head><title>Today's News</title></head><body>news</body></html>"))
	})
	mux.HandleFunc("/untitled", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body>nothing</body></html>"))
	})
	mux.HandleFunc("/logo", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(pngHeader))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	t.Run("page title", func(t *testing.T) {
		m := &fakeMailer{}
		out, err := newJob(t, m, srv.Client()).run(context.Background(), []string{"1", "7", srv.URL + "/news"})
		if err != nil {
			t.Fatalf("run() error = %v", err)
		}
		if out != "Sent email to bob@example.org" {
			t.Errorf("output = %q", out)
		}
		if m.sent[0].Subject != "Today's News" || !strings.Contains(m.sent[0].HTMLBody, "news") {
			t.Errorf("message = %+v", m.sent[0])
		}
	})

	t.Run("host subject", func(t *testing.T) {
		m := &fakeMailer{}
		if _, err := newJob(t, m, srv.Client()).run(context.Background(), []string{"1", "7", srv.URL + "/untitled"}); err != nil {
			t.Fatalf("run() error = %v", err)
		}
		if m.sent[0].Subject != "127.0.0.1" {
			t.Errorf("Subject = %q", m.sent[0].Subject)
		}
	})

	t.Run("download attached", func(t *testing.T) {
		m := &fakeMailer{}
		job := newJob(t, m, srv.Client())
		out, err := job.run(context.Background(), []string{"1", "7", srv.URL + "/logo"})
		if err != nil {
			t.Fatalf("run() error = %v", err)
		}
		if out != "Sent qm1700000000.png to bob@example.org" {
			t.Errorf("output = %q", out)
		}
		if _, err := os.Stat(filepath.Join(job.tempDir, "qm1700000000.png")); err != nil {
			t.Errorf("saved file: %v", err)
		}
		if m.sent[0].Subject != "For Your Eyes Only" {
			t.Errorf("Subject = %q", m.sent[0].Subject)
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, err := newJob(t, &fakeMailer{}, srv.Client()).run(context.Background(), []string{"1", "7", srv.URL + "/gone"})
		if err == nil || err.Error() != "Not found "+srv.URL+"/gone" {
			t.Errorf("run() error = %v", err)
		}
	})

	t.Run("invalid url", func(t *testing.T) {
		_, err := newJob(t, &fakeMailer{}, nil).run(context.Background(), []string{"1", "7", "http//nowhere"})
		if err == nil || err.Error() != "Invalid URL: http//nowhere" {
			t.Errorf("run() error = %v", err)
		}
	})
}

func TestSendJob_SendFailure(t *testing.T) {
	t.Parallel()

	note := writeFile(t, t.TempDir(), "note.txt", "hello")
	m := &fakeMailer{err: errors.New("relay down")}

	_, err := newJob(t, m, nil).run(context.Background(), []string{"1", "7", note})
	if err == nil || err.Error() != "Error sending mail: relay down" {
		t.Errorf("run() error = %v", err)
	}
}
