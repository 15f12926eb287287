package moderation

import (
	"regexp"
	"strings"
)

// Filter screens chat messages before they are accepted. Flagged messages
// are persisted blocked and never pushed to the counterpart; the rule set is
// contact-information patterns plus a configurable word list, aimed at
// keeping negotiation on-platform.
type Filter struct {
	blocklist []string
}

var (
	phonePattern = regexp.MustCompile(`(\+?\d{2}\s?)?\(?\d{2}\)?\s?9?\d{4}[-\s]?\d{4}`)
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	urlPattern   = regexp.MustCompile(`(?i)(https?://|www\.)\S+`)
)

var defaultBlocklist = []string{
	"whatsapp",
	"zap",
	"telegram",
	"pix direto",
	"fora da plataforma",
	"por fora",
}

// NewFilter builds a filter from the default rules plus extra blocklist words
func NewFilter(extraWords []string) *Filter {
	words := make([]string, 0, len(defaultBlocklist)+len(extraWords))
	words = append(words, defaultBlocklist...)
	for _, w := range extraWords {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			words = append(words, w)
		}
	}
	return &Filter{blocklist: words}
}

// Check evaluates message content. It returns blocked=true and a reason when
// the content trips a rule.
func (f *Filter) Check(content string) (blocked bool, reason string) {
	if phonePattern.MatchString(content) {
		return true, "contains a phone number"
	}
	if emailPattern.MatchString(content) {
		return true, "contains an email address"
	}
	if urlPattern.MatchString(content) {
		return true, "contains an external link"
	}

	lower := strings.ToLower(content)
	for _, word := range f.blocklist {
		if strings.Contains(lower, word) {
			return true, "contains a blocked term: " + word
		}
	}
	return false, ""
}
