package address

import "testing"

func TestMatchesDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want bool
	}{
		{"user@corp.com", "mg@corp.com", true},
		{"user@other.com", "mg@corp.com", false},
		{"user@mail.corp.com", "mg@corp.com", true},
		{"mg@corp.com", "user@mail.corp.com", true},
		{"user@CORP.com", "mg@corp.COM", true},
		{"broken", "mg@corp.com", true},
	}

	for _, tt := range tests {
		if got := MatchesDomain(tt.a, tt.b); got != tt.want {
			t.Errorf("MatchesDomain(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestDomain(t *testing.T) {
	t.Parallel()

	if got := Domain(" user@example.com "); got != "example.com" {
		t.Errorf("Domain() = %q", got)
	}
	if got := Domain("a@b@c"); got != "" {
		t.Errorf("Domain(a@b@c) = %q, want empty", got)
	}
}

func TestCheckCharCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text     string
		min, max int
		want     bool
	}{
		{"hello", 1, 80, true},
		{"", 1, 80, false},
		{"   ", 1, 80, false},
		{"héllo", 5, 5, true},
		{"toolong", 1, 3, false},
		{" a ", 2, 80, false},
	}

	for _, tt := range tests {
		if got := CheckCharCount(tt.text, tt.min, tt.max); got != tt.want {
			t.Errorf("CheckCharCount(%q, %d, %d) = %v, want %v", tt.text, tt.min, tt.max, got, tt.want)
		}
	}
}

func TestCountRecipients(t *testing.T) {
	t.Parallel()

	got := CountRecipients([]string{"Cc: a@x.com, b@x.com", "Bcc: c@x.com", "X-Mailer: quick-mail"})
	if got != 5 {
		t.Errorf("CountRecipients() = %d, want 5", got)
	}
	if got := CountRecipients(nil); got != 2 {
		t.Errorf("CountRecipients(nil) = %d, want 2", got)
	}
}

func TestStripTags(t *testing.T) {
	t.Parallel()

	if got := StripTags("<i>a</i>@<b>x.com</b>"); got != "a@x.com" {
		t.Errorf("StripTags() = %q", got)
	}
	if got := StripTags("plain@x.com"); got != "plain@x.com" {
		t.Errorf("StripTags() = %q", got)
	}
}
