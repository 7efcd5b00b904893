package actions

import (
	"strings"

	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/store"
)

// Canonical action vocabulary. This set is the single source of truth and
// must never grow at runtime; everything else is an alias resolved here.
const (
	ActionViewProfile     = "view_profile"
	ActionCallConsole     = "open_call_console"
	ActionEmailComposer   = "open_email_composer"
	ActionMeetingSchedule = "open_meeting_scheduler"
)

// hintTypeChip marks UI decoration, not a real action. Chips are filtered
// out entirely rather than defaulted.
const hintTypeChip = "CHIP"

var canonical = map[string]bool{
	ActionViewProfile:     true,
	ActionCallConsole:     true,
	ActionEmailComposer:   true,
	ActionMeetingSchedule: true,
}

// legacyAliases maps retired action names onto the canonical set.
var legacyAliases = map[string]string{
	"open_chat":    ActionCallConsole,
	"open_profile": ActionViewProfile,
}

// keywordSets drive tokenized matching for free-form action text. Checked
// in a fixed order so resolution is deterministic.
var keywordSets = []struct {
	action   string
	keywords []string
}{
	{ActionMeetingSchedule, []string{"meeting", "schedule", "book", "booking", "calendar", "appointment", "1-1", "slot"}},
	{ActionEmailComposer, []string{"email", "compose", "write", "message", "mail"}},
	{ActionViewProfile, []string{"profile", "record", "details"}},
}

var defaultLabels = map[string]string{
	ActionViewProfile:     "View profile",
	ActionCallConsole:     "Open call console",
	ActionEmailComposer:   "Compose email",
	ActionMeetingSchedule: "Schedule meeting",
}

// Hint is a partially-specified action request from the generation layer or
// the UI. Raw free-form strings are wrapped in a Hint with only Action set.
type Hint struct {
	Label  string `json:"label,omitempty"`
	Action string `json:"action,omitempty"`
	Type   string `json:"type,omitempty"`
}

// Normalize maps a hint onto the canonical vocabulary. The second return is
// false when the hint is filtered (chip decoration) and must be omitted.
// Resolution order: literal match, legacy alias, keyword match, then the
// call-console default.
func Normalize(h Hint) (store.ActionSpec, bool) {
	if strings.EqualFold(h.Type, hintTypeChip) {
		return store.ActionSpec{}, false
	}

	name := resolve(h.Action)
	label := h.Label
	if label == "" {
		label = defaultLabels[name]
	}
	return store.ActionSpec{Label: label, Action: name}, true
}

// NormalizeAll normalizes a list, silently omitting filtered entries.
func NormalizeAll(hints []Hint) []store.ActionSpec {
	out := make([]store.ActionSpec, 0, len(hints))
	for _, h := range hints {
		if spec, ok := Normalize(h); ok {
			out = append(out, spec)
		}
	}
	return out
}

// NormalizeString normalizes a free-form action name.
func NormalizeString(raw string) store.ActionSpec {
	spec, _ := Normalize(Hint{Action: raw})
	return spec
}

func resolve(raw string) string {
	name := strings.ToLower(strings.TrimSpace(raw))

	if canonical[name] {
		return name
	}
	if mapped, ok := legacyAliases[name]; ok {
		return mapped
	}

	tokens := tokenize(name)
	for _, set := range keywordSets {
		for _, kw := range set.keywords {
			if tokens[kw] {
				return set.action
			}
		}
	}
	return ActionCallConsole
}

func tokenize(s string) map[string]bool {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '_' || r == '/' || r == ','
	})
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}
