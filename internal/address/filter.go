package address

import (
	"context"
	"html"
	"strings"
	"unicode/utf8"
)

// separators turns the encodings a browser may send for a list into commas.
// Input is lowercased first, so matching is case-insensitive.
var separators = strings.NewReplacer(
	"%40", "@",
	"%20", ",",
	"+", ",",
	" ", ",",
	"%2c", ",",
)

// FilterResult is the outcome of filtering a recipient list.
// All three slices hold normalized tokens in first-seen order.
type FilterResult struct {
	Accepted   []string
	Invalid    []string
	Duplicates []string

	duplicateWord string
}

// Clean reports whether nothing was rejected or flagged.
func (r FilterResult) Clean() bool {
	return len(r.Invalid) == 0 && len(r.Duplicates) == 0
}

// AcceptedList returns the accepted addresses joined by commas.
func (r FilterResult) AcceptedList() string {
	return strings.Join(r.Accepted, ",")
}

// String renders the diagnostic consumed by the compose form. The browser
// splits on the tab: everything before it is shown to the user, everything
// after it replaces the field value.
func (r FilterResult) String() string {
	saved := r.AcceptedList()
	invalid := displayList(r.Invalid)
	dups := displayList(r.Duplicates)

	if invalid != "" {
		if dups == "" {
			return invalid + "\t" + saved
		}
		word := r.duplicateWord
		if word == "" {
			word = defaultDuplicateWord
		}
		return invalid + "<br><br>" + word + ":<br>" + dups + "\t" + saved
	}

	if dups != "" {
		return " " + dups + "\t" + saved
	}

	return saved
}

func displayList(tokens []string) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(Display(t))
		b.WriteString("<br>")
	}
	return b.String()
}

// Display makes a user-typed token safe to echo inside HTML.
func Display(token string) string {
	return html.EscapeString(html.UnescapeString(StripTags(token)))
}

// NormalizeList canonicalizes separators, lowercases and trims a raw list.
func NormalizeList(raw string) string {
	return separators.Replace(strings.ToLower(strings.TrimSpace(raw)))
}

// Tokens splits a raw list into normalized tokens, keeping empties and repeats.
func Tokens(raw string) []string {
	return strings.Split(NormalizeList(raw), ",")
}

// Unique drops repeated tokens, keeping the first occurrence.
func Unique(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// FindDuplicates returns every token of at least two characters that occurs
// more than once, each reported once, in order of first occurrence.
func FindDuplicates(tokens []string) []string {
	counts := make(map[string]int, len(tokens))
	for _, t := range tokens {
		counts[t]++
	}

	var dups []string
	for _, t := range Unique(tokens) {
		if utf8.RuneCountInString(t) < 2 || counts[t] < 2 {
			continue
		}
		dups = append(dups, t)
	}
	return dups
}

// FilterRecipients splits candidates into accepted, invalid and duplicate
// addresses. An address equal to to (the sender) is treated as a duplicate.
func (v *Validator) FilterRecipients(ctx context.Context, to, candidates string) FilterResult {
	sender := NormalizeList(to)
	tokens := Tokens(candidates)

	result := FilterResult{
		Duplicates:    FindDuplicates(tokens),
		duplicateWord: v.duplicateWord,
	}

	for _, name := range Unique(tokens) {
		if name == "" {
			continue
		}

		if !v.Valid(ctx, name) {
			result.Invalid = append(result.Invalid, name)
			continue
		}

		if name == sender {
			if !contains(result.Duplicates, name) {
				result.Duplicates = append(result.Duplicates, name)
			}
			continue
		}

		result.Accepted = append(result.Accepted, name)
	}

	return result
}

// FilterRecipients filters with a default Validator.
func FilterRecipients(to, candidates string, verify bool) FilterResult {
	return NewValidator(WithVerify(verify)).FilterRecipients(context.Background(), to, candidates)
}

// FilterUserEmails keeps the valid addresses of a space or comma separated
// list, lowercased and de-duplicated. Domains are not verified.
func FilterUserEmails(original string) []string {
	v := NewValidator()
	var out []string
	for _, a := range strings.Split(strings.ToLower(strings.ReplaceAll(original, " ", ",")), ",") {
		if v.Valid(context.Background(), a) {
			out = append(out, a)
		}
	}
	return Unique(out)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
