package response

import (
	"regexp"
	"strings"
)

// Email-shape heuristic: a salutation marker plus a sign-off marker. Only
// then do the placeholder repairs run; prose answers never match.
var (
	salutation = regexp.MustCompile(`(?m)^(Dear|Hi|Hello)\b`)
	signOff    = regexp.MustCompile(`(?mi)^(Kind regards|Regards|Best wishes|Sincerely|Best,)`)

	danglingDear   = regexp.MustCompile(`(?m)^(Dear|Hi|Hello)\s*[.,;]`)
	bracePlacehold = regexp.MustCompile(`\{\{\s*[\w .]*\s*\}\}`)
	emptySignature = regexp.MustCompile(`(?mi)^(Kind regards|Regards|Best wishes|Sincerely),\s*[.]\s*$`)
)

// LooksLikeEmail reports whether text resembles an email template.
func LooksLikeEmail(text string) bool {
	return salutation.MatchString(text) && signOff.MatchString(text)
}

// RepairEmailPlaceholders fixes dangling template artifacts in generated
// email drafts. Idempotent: every rewrite produces text its own patterns no
// longer match, so repairing twice equals repairing once.
func RepairEmailPlaceholders(text string) string {
	text = danglingDear.ReplaceAllStringFunc(text, func(m string) string {
		word := strings.Fields(m)[0]
		return word + " [Name],"
	})
	text = bracePlacehold.ReplaceAllString(text, "[Name]")
	text = emptySignature.ReplaceAllString(text, "$1,\n[Your Name]")
	return text
}
