// Package fetch downloads a web page or file so it can be mailed.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"
)

// UserAgent is sent with every request. Some sites refuse unknown clients.
const UserAgent = "Mozilla/5.0 (Windows NT 6.2) AppleWebKit/536.3 (KHTML, like Gecko) Chrome/19.0.1062.0 Safari/536.3"

// ErrNoContent is returned when a page has an empty body.
var ErrNoContent = errors.New("No content")

// StatusError is returned for any response other than 200.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	if e.Code == http.StatusNotFound {
		return "Not found " + e.URL
	}
	return fmt.Sprintf("(%d) Cannot connect to %s", e.Code, e.URL)
}

// Page is a downloaded document.
type Page struct {
	URL   string
	Host  string
	Body  []byte
	MIME  string
	Title string
}

// IsText reports whether the page can be sent as a message body.
func (p *Page) IsText() bool {
	return IsText(p.MIME)
}

// Fetcher retrieves pages over HTTP.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// New returns a Fetcher using client, or a client with a 30s timeout if nil.
func New(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Fetcher{client: client, userAgent: UserAgent}
}

// Get downloads rawURL. HTML bodies are converted to UTF-8.
func (f *Fetcher) Get(ctx context.Context, rawURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, URL: rawURL}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, ErrNoContent
	}

	page := &Page{
		URL:  rawURL,
		Host: req.URL.Hostname(),
		Body: body,
		MIME: Sniff(body),
	}

	if page.MIME == "text/html" {
		if decoded, err := toUTF8(body, resp.Header.Get("Content-Type")); err == nil {
			page.Body = decoded
		}
		page.Title = Title(page.Body)
	}

	return page, nil
}

// Sniff returns the bare MIME type of data, without parameters.
func Sniff(data []byte) string {
	ct := mimetype.Detect(data).String()
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.TrimSpace(ct)
}

// IsText reports whether mime is text/html or text/plain.
func IsText(mime string) bool {
	return mime == "text/html" || mime == "text/plain"
}

// Title returns the text of the first <title> element, or "".
func Title(doc []byte) string {
	z := html.NewTokenizer(bytes.NewReader(doc))
	inTitle := false
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			name, _ := z.TagName()
			inTitle = string(name) == "title"
		case html.EndTagToken:
			if inTitle {
				return ""
			}
		case html.TextToken:
			if inTitle {
				return strings.TrimSpace(string(z.Text()))
			}
		}
	}
}

func toUTF8(body []byte, contentType string) ([]byte, error) {
	enc, _, _ := charset.DetermineEncoding(body, contentType)
	out, _, err := transform.Bytes(enc.NewDecoder(), body)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Extension maps a MIME type to a file extension: the subtype with '+'
// replaced by '_', or "unknown".
func Extension(mime string) string {
	_, sub, ok := strings.Cut(mime, "/")
	if !ok || sub == "" {
		return "unknown"
	}
	return strings.ReplaceAll(sub, "+", "_")
}

// SaveTemp writes data to dir/qm<unix>.<ext> and returns the path.
func SaveTemp(dir string, data []byte, mime string, now time.Time) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	name := filepath.Join(dir, "qm"+strconv.FormatInt(now.Unix(), 10)+"."+Extension(mime))
	if err := os.WriteFile(name, data, 0o600); err != nil {
		return "", fmt.Errorf("Error saving content : %s: %w", mime, err)
	}
	return name, nil
}

// ReadFile reads a local file and sniffs its type. A missing file and an
// empty file are reported with the messages the CLI prints.
func ReadFile(path string) ([]byte, string, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, "", errors.New("File not found")
	}
	if info.Size() == 0 {
		return nil, "", fmt.Errorf("Empty file: %s", filepath.Base(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	return data, Sniff(data), nil
}
