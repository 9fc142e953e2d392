// Package server exposes address validation to the compose page, which
// checks each recipient as it is typed.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/saberonline/quick-mail-wp-plugin/internal/address"
)

// loginCookie is the prefix of the cookie WordPress sets for a signed in user.
const loginCookie = "wordpress_logged_in"

// Checker validates and filters addresses.
type Checker interface {
	ValidEmail(ctx context.Context, addr string) bool
	FilterRecipients(ctx context.Context, to, candidates string) address.FilterResult
}

// Config configures the HTTP server.
type Config struct {
	Listen          string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	ServerHeader    string
}

// Server answers validation requests.
type Server struct {
	cfg     Config
	strict  Checker
	lenient Checker
	logger  *log.Logger
}

// New creates a server. strict verifies domains, lenient does not; each
// request picks one with its quick-mail-verify parameter.
func New(cfg Config, strict, lenient Checker, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{cfg: cfg, strict: strict, lenient: lenient, logger: logger}
}

// Handler returns the routes served.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	if s.cfg.ServerHeader != "" {
		r.Use(middleware.SetHeader("Server", s.cfg.ServerHeader))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/validate", s.handleValidate)
	r.Post("/validate", s.handleValidate)

	return r
}

// Serve listens on the configured address until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return err
	}
	return s.ServeListener(ctx, listener)
}

// ServeListener serves on l until ctx is done, then shuts down gracefully.
func (s *Server) ServeListener(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout())
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	s.logger.Info("server listening", "addr", l.Addr().String())
	if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) shutdownTimeout() time.Duration {
	if s.cfg.ShutdownTimeout > 0 {
		return s.cfg.ShutdownTimeout
	}
	return 5 * time.Second
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		bye(w)
		return
	}

	verify := strings.TrimSpace(r.Form.Get("quick-mail-verify"))
	if !loggedIn(r) || blank(verify) {
		bye(w)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte(Respond(r.Context(), s.checker(verify), r.Form)))
}

func (s *Server) checker(verify string) Checker {
	if verify == "N" {
		return s.lenient
	}
	return s.strict
}

// Respond computes the plain text answer for a validation request.
//
//   - one: "OK" if valid, else the address itself (may be replaced below).
//   - filter without to: "OK", or the address after two spaces.
//   - filter with to: the filter diagnostic.
//   - otherwise dup and email: " "+email when email is already listed in
//     dup, email itself when invalid, else "OK".
func Respond(ctx context.Context, c Checker, form map[string][]string) string {
	get := func(k string) string {
		if v := form[k]; len(v) > 0 {
			return v[0]
		}
		return ""
	}
	_, hasTo := form["to"]

	to := strings.ToLower(get("email"))
	message := ""

	if one := get("one"); !blank(one) {
		if c.ValidEmail(ctx, one) {
			message = "OK"
		} else {
			message = one
		}
	}

	if filter := get("filter"); !blank(filter) {
		if hasTo {
			return c.FilterRecipients(ctx, get("to"), filter).String()
		}
		if c.ValidEmail(ctx, filter) {
			return "OK"
		}
		return "  " + filter
	}

	if dup := get("dup"); !blank(dup) {
		listed := address.Unique(strings.Split(strings.ToLower(dup), ","))
		switch {
		case blank(to):
			message = "OK"
		case contains(listed, to):
			message = " " + to
		}
	}

	if message == "" && !c.ValidEmail(ctx, to) {
		message = to
	}
	if message == "" {
		return "OK"
	}
	return message
}

// bye ends a request that is not signed in or lacks the verify parameter.
func bye(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html")
	w.Header().Set("Content-Length", "0")
	w.WriteHeader(http.StatusNoContent)
}

func loggedIn(r *http.Request) bool {
	for _, c := range r.Cookies() {
		if strings.Contains(c.Name, loginCookie) {
			return true
		}
	}
	return false
}

// blank matches the host's notion of an empty request value.
func blank(v string) bool {
	return v == "" || v == "0"
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
