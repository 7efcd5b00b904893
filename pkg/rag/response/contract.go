package response

import (
	"strings"

	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/cache"
)

// Contract modes form a closed enumeration, validated at the boundary.
const (
	ContractModeAdvice    = "advice"
	ContractModeEmail     = "email"
	ContractModeBriefing  = "briefing"
	ContractModeChecklist = "checklist"
)

// Contract is a declarative spec of output constraints. Never mutated after
// construction; consumed once per answer.
type Contract struct {
	Mode     string   `json:"mode"`
	Course   string   `json:"course,omitempty"`
	Must     []string `json:"must"`
	Context  string   `json:"context,omitempty"`
	Audience string   `json:"audience,omitempty"`
}

// ValidMode reports whether mode is part of the closed enumeration.
func ValidMode(mode string) bool {
	switch mode {
	case ContractModeAdvice, ContractModeEmail, ContractModeBriefing, ContractModeChecklist:
		return true
	}
	return false
}

// fingerprint folds every contract field into a stable string for
// memoization keys.
func (c *Contract) fingerprint() string {
	return strings.Join(append([]string{c.Mode, c.Course, c.Context, c.Audience}, c.Must...), "\x00")
}

// Enforce rewrites text to satisfy the contract's must requirements. Pure
// and idempotent: a requirement already covered is left untouched, missing
// ones are appended as a coverage section, so enforcing the same contract
// twice on the same text returns byte-identical output. Results are
// memoized by hash of (text, contract fields).
func (e *Composer) Enforce(text string, contract *Contract) string {
	if contract == nil || len(contract.Must) == 0 {
		return text
	}

	key := cache.Key("narration", map[string]string{
		"text":     text,
		"contract": contract.fingerprint(),
	})
	if v, ok := e.narration.Get(key); ok {
		return v.(string)
	}

	out := enforceOnce(text, contract)
	e.narration.Set(key, out)
	return out
}

func enforceOnce(text string, contract *Contract) string {
	lower := strings.ToLower(text)

	var missing []string
	for _, req := range contract.Must {
		if req == "" {
			continue
		}
		if !strings.Contains(lower, strings.ToLower(req)) {
			missing = append(missing, req)
		}
	}
	if len(missing) == 0 {
		return text
	}

	var b strings.Builder
	b.WriteString(strings.TrimRight(text, "\n"))
	b.WriteString("\n\nAlso worth covering:\n")
	for _, req := range missing {
		b.WriteString("- ")
		b.WriteString(req)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
