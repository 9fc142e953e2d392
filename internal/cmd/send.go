package cmd

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	quickmail "github.com/saberonline/quick-mail-wp-plugin"
	"github.com/saberonline/quick-mail-wp-plugin/internal/fetch"
	"github.com/saberonline/quick-mail-wp-plugin/internal/sender"
)

const (
	defaultSubject        = "For Your Eyes Only"
	replacementFallback   = "You have an attachment."
	invalidReplacementMsg = "Invalid file attachment."
)

var errInvalidUser = errors.New("Invalid user")

var sendTempDir string

var sendCmd = &cobra.Command{
	Use:   "send <from> <to> <url|filename> [subject] [message_file]",
	Short: "Send a web page or a file",
	Long: `Send the contents of a web page or a file to one address.

<from> is the ID or address of an administrator. <to> is a user ID or any
address. HTML and text are sent as the message; anything else is attached.

The subject of a web page defaults to its title, or its host name. The
subject of a file defaults to "For Your Eyes Only". When sending an
attachment, the text of message_file replaces the default message.`,
	Args: cobra.RangeArgs(3, 5),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client, err := newClient(cfg)
		if err != nil {
			return err
		}
		defer client.Close()

		job := &sendJob{
			client:  client,
			users:   cfg.Directory(),
			fetcher: fetch.New(nil),
			tempDir: sendTempDir,
			logger:  client.Logger(),
			now:     time.Now,
		}
		msg, err := job.run(cmd.Context(), args)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	},
}

func init() {
	sendCmd.Flags().StringVar(&sendTempDir, "temp-dir", "", "directory for downloaded attachments (default: system temp)")
}

// mailer is the part of the client send needs.
type mailer interface {
	ValidEmail(ctx context.Context, addr string) bool
	Send(ctx context.Context, msg *quickmail.Message) (*quickmail.SendResult, error)
}

// sendJob carries what one send command needs.
type sendJob struct {
	client  mailer
	users   sender.Directory
	fetcher *fetch.Fetcher
	tempDir string
	logger  *log.Logger
	now     func() time.Time
}

// content is the resolved third argument.
type content struct {
	path  string // local file, set when sending a file or a saved download
	data  []byte
	mime  string
	host  string
	title string
}

// run sends one message and returns the success line.
func (j *sendJob) run(ctx context.Context, args []string) (string, error) {
	from := j.users.ResolveAddress(args[0], true)
	if from == "" {
		return "", quickmail.ErrNotAdministrator
	}
	if !j.client.ValidEmail(ctx, from) {
		return "", quickmail.ErrInvalidSender
	}

	to := j.users.ResolveAddress(args[1], false)
	if to == "" || !j.client.ValidEmail(ctx, to) {
		return "", quickmail.ErrInvalidRecipient
	}

	src, err := j.load(ctx, args[2])
	if err != nil {
		return "", err
	}

	subject := ""
	if len(args) > 3 {
		subject = html.UnescapeString(args[3])
	}

	user, ok := j.users.Lookup(from, true)
	if !ok {
		return "", errInvalidUser
	}
	identity, err := user.Identity()
	if err != nil {
		return "", errInvalidUser
	}

	msg := &quickmail.Message{
		From: quickmail.Address{Name: identity.Name, Email: identity.Email},
		To:   []quickmail.Address{{Email: to}},
	}

	switch {
	case src.path == "":
		// Web page sent as the body.
		msg.HTMLBody = string(src.data)
		if subject == "" {
			subject = src.title
		}
		if subject == "" {
			subject = src.host
		}
	case fetch.IsText(src.mime):
		if src.mime == "text/html" {
			msg.HTMLBody = string(src.data)
		} else {
			msg.TextBody = string(src.data)
		}
	default:
		body, err := j.attachmentMessage(src.path, args)
		if err != nil {
			return "", err
		}
		msg.TextBody = body
		msg.Attachments = []quickmail.Attachment{{
			Filename:    filepath.Base(src.path),
			ContentType: src.mime,
			Data:        src.data,
		}}
	}

	if subject == "" {
		subject = defaultSubject
	}
	msg.Subject = subject

	if _, err := j.client.Send(ctx, msg); err != nil {
		return "", fmt.Errorf("Error sending mail: %w", err)
	}

	if src.path != "" {
		return fmt.Sprintf("Sent %s to %s", filepath.Base(src.path), to), nil
	}
	return "Sent email to " + to, nil
}

// load reads a local file, or downloads a URL. Downloads that cannot be a
// message body are saved to a temporary file and sent as a file.
func (j *sendJob) load(ctx context.Context, arg string) (*content, error) {
	if !strings.HasPrefix(arg, "http") {
		data, mime, err := fetch.ReadFile(arg)
		if err != nil {
			return nil, err
		}
		return &content{path: arg, data: data, mime: mime}, nil
	}

	u, err := url.Parse(arg)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("Invalid URL: %s", html.EscapeString(arg))
	}

	page, err := j.fetcher.Get(ctx, u.String())
	if err != nil {
		return nil, err
	}
	if page.IsText() {
		return &content{data: page.Body, mime: page.MIME, host: page.Host, title: page.Title}, nil
	}

	path, err := fetch.SaveTemp(j.tempDir, page.Body, page.MIME, j.now())
	if err != nil {
		return nil, err
	}
	j.logger.Debug("saved download", "url", arg, "path", path, "mime", page.MIME)
	return &content{path: path, data: page.Body, mime: page.MIME, host: page.Host}, nil
}

// attachmentMessage returns the body sent with an attachment: the optional
// replacement file when it is text, a fixed notice when it is not, or the
// default "Please see attachment" line.
func (j *sendJob) attachmentMessage(path string, args []string) (string, error) {
	if len(args) < 5 || args[4] == "" {
		return "Please see attachment : " + filepath.Base(path), nil
	}

	replacement := args[4]
	info, err := os.Stat(replacement)
	if err != nil || info.IsDir() || info.Size() == 0 {
		return "", fmt.Errorf("%s %s", invalidReplacementMsg, replacement)
	}
	j.logger.Info("Replaced attachment message.")

	data, mime, err := fetch.ReadFile(replacement)
	if err != nil || !fetch.IsText(mime) {
		return replacementFallback, nil
	}
	return string(data), nil
}
