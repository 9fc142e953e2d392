// Package address parses, validates and de-duplicates recipient lists typed
// into the compose form.
//
// Nothing in this package returns an error to the caller. Every failure,
// including a DNS lookup that times out, is reported as a classification.
package address

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/badoux/checkmail"
	"golang.org/x/net/idna"
)

const (
	minLength = 5
	maxLength = 255

	defaultLookupTimeout = 5 * time.Second
	defaultDuplicateWord = "Duplicate"
)

// Outcome classifies a single address.
type Outcome int

const (
	// Valid means the address passed every enabled check.
	Valid Outcome = iota

	// InvalidFormat means the address failed a length or syntax check.
	InvalidFormat

	// InvalidDomain means verification was requested and no MX record resolved.
	InvalidDomain
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case Valid:
		return "valid"
	case InvalidFormat:
		return "invalid_format"
	case InvalidDomain:
		return "invalid_domain"
	default:
		return "unknown"
	}
}

// MXResolver looks up mail exchangers. *net.Resolver satisfies it.
type MXResolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
}

// Validator checks addresses and filters recipient lists.
// A Validator holds no per-call state and is safe for concurrent use.
type Validator struct {
	resolver      MXResolver
	verify        bool
	timeout       time.Duration
	duplicateWord string
}

// Option configures a Validator.
type Option func(*Validator)

// WithVerify turns MX verification of the domain part on or off.
func WithVerify(verify bool) Option {
	return func(v *Validator) {
		v.verify = verify
	}
}

// WithResolver replaces the DNS resolver used for MX lookups.
func WithResolver(r MXResolver) Option {
	return func(v *Validator) {
		if r != nil {
			v.resolver = r
		}
	}
}

// WithLookupTimeout bounds each MX lookup.
func WithLookupTimeout(d time.Duration) Option {
	return func(v *Validator) {
		if d > 0 {
			v.timeout = d
		}
	}
}

// WithDuplicateLabel sets the word that introduces the duplicate section of
// the filter diagnostic, for translated UIs.
func WithDuplicateLabel(word string) Option {
	return func(v *Validator) {
		if word != "" {
			v.duplicateWord = word
		}
	}
}

// NewValidator creates a Validator. Verification is off by default.
func NewValidator(opts ...Option) *Validator {
	v := &Validator{
		resolver:      net.DefaultResolver,
		timeout:       defaultLookupTimeout,
		duplicateWord: defaultDuplicateWord,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verifying reports whether MX verification is enabled.
func (v *Validator) Verifying() bool {
	return v.verify
}

// Valid reports whether addr is a usable address.
func (v *Validator) Valid(ctx context.Context, addr string) bool {
	return v.Classify(ctx, addr) == Valid
}

// Classify runs the checks in order: length, a single @ with both sides
// present, syntax, then the domain rules. The MX lookup only happens when
// verification is enabled.
func (v *Validator) Classify(ctx context.Context, addr string) Outcome {
	if len(addr) < minLength || len(addr) > maxLength {
		return InvalidFormat
	}

	local, domain, ok := split(addr)
	if !ok {
		return InvalidFormat
	}

	if ip, literal := ipLiteral(domain); literal {
		// checkmail has no domain-literal support; check the local part alone.
		if checkmail.ValidateFormat(local+"@localhost") != nil {
			return InvalidFormat
		}
		if !v.verify {
			return Valid
		}
		// The IP is looked up as an MX name.
		return v.lookup(ctx, ip)
	}

	if checkmail.ValidateFormat(strings.TrimSpace(addr)) != nil {
		return InvalidFormat
	}

	// Bare hostnames (localhost) are rejected, as is a leading dot.
	if strings.Index(domain, ".") < 1 {
		return InvalidFormat
	}

	if ascii, err := idna.Lookup.ToASCII(domain); err == nil && ascii != "" {
		domain = ascii
	}

	if !v.verify {
		return Valid
	}
	return v.lookup(ctx, domain)
}

func (v *Validator) lookup(ctx context.Context, name string) Outcome {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	mx, err := v.resolver.LookupMX(ctx, name)
	if err != nil || len(mx) == 0 {
		return InvalidDomain
	}
	return Valid
}

// split returns the local and domain parts when addr holds exactly one @.
func split(addr string) (string, string, bool) {
	parts := strings.Split(strings.TrimSpace(addr), "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// ipLiteral accepts both bare (1.2.3.4) and bracketed ([1.2.3.4], [IPv6:::1]) forms.
func ipLiteral(domain string) (string, bool) {
	d := domain
	if strings.HasPrefix(d, "[") && strings.HasSuffix(d, "]") {
		d = strings.TrimSuffix(strings.TrimPrefix(d, "["), "]")
		if len(d) > 5 && strings.EqualFold(d[:5], "ipv6:") {
			d = d[5:]
		}
	}
	if net.ParseIP(d) == nil {
		return "", false
	}
	return d, true
}

// ValidEmail checks a single address with a default Validator.
func ValidEmail(addr string, verify bool) bool {
	return NewValidator(WithVerify(verify)).Valid(context.Background(), addr)
}
