package history

import (
	"regexp"
	"strings"
)

// Sanitizer redacts PII-bearing substrings from turn text before storage.
// Citation-shaped lines ("[S1] ...") are protected verbatim: they reference
// knowledge-base sources, not caller data, and redacting them would break
// grounding in later turns.
type Sanitizer struct {
	email *regexp.Regexp
	phone *regexp.Regexp
	nino  *regexp.Regexp
}

var citationLine = regexp.MustCompile(`^\[S\d+\]\s`)

func NewSanitizer() *Sanitizer {
	return &Sanitizer{
		email: regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`),
		phone: regexp.MustCompile(`(\+?\d[\d\s\-()]{8,}\d)`),
		nino:  regexp.MustCompile(`\b[A-CEGHJ-PR-TW-Z]{2}\s?\d{2}\s?\d{2}\s?\d{2}\s?[A-D]\b`),
	}
}

// Sanitize redacts each non-citation line independently.
func (s *Sanitizer) Sanitize(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if citationLine.MatchString(line) {
			continue
		}
		line = s.email.ReplaceAllString(line, "[email]")
		line = s.phone.ReplaceAllString(line, "[phone]")
		line = s.nino.ReplaceAllString(line, "[id]")
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}
