package intent

import (
	"strings"
)

// Intent names. Closed at startup; the resolver validates LLM output
// against this set and falls back to IntentGeneralSearch otherwise.
const (
	IntentCourseInfo     = "course_info"
	IntentFeesFunding    = "fees_funding"
	IntentAccommodation  = "accommodation"
	IntentMeetingBooking = "meeting_booking"
	IntentAppStatus      = "application_status"
	IntentGeneralSearch  = "general_search"
)

// Known reports whether name is part of the closed intent set.
func Known(name string) bool {
	switch name {
	case IntentCourseInfo, IntentFeesFunding, IntentAccommodation,
		IntentMeetingBooking, IntentAppStatus, IntentGeneralSearch:
		return true
	}
	return false
}

// keyword sets per intent, checked in order. Earlier sets win on overlap so
// scheduling tokens beat generic course words.
var ruleSets = []struct {
	intent   string
	keywords []string
}{
	{IntentMeetingBooking, []string{"meeting", "book", "booking", "schedule", "appointment", "call", "visit", "1-1", "slot", "interview"}},
	{IntentFeesFunding, []string{"fee", "fees", "tuition", "funding", "scholarship", "bursary", "loan", "payment", "cost"}},
	{IntentAccommodation, []string{"accommodation", "halls", "housing", "residence", "rent", "dorm"}},
	{IntentAppStatus, []string{"application", "status", "offer", "decision", "ucas", "submitted", "progress"}},
	{IntentCourseInfo, []string{"course", "module", "degree", "curriculum", "entry", "requirements", "syllabus", "placement"}},
}

// ClassifyByRules runs the deterministic keyword classifier. Confidence is
// the fraction of query tokens matched by the winning set, clamped to
// [0, 0.95] so the rule path never claims certainty.
func ClassifyByRules(query string) (string, float64) {
	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return IntentGeneralSearch, 0
	}
	tokenSet := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		tokenSet[strings.Trim(tok, ".,!?:;\"'")] = true
	}

	bestIntent := IntentGeneralSearch
	bestHits := 0
	for _, set := range ruleSets {
		hits := 0
		for _, kw := range set.keywords {
			if tokenSet[kw] {
				hits++
			}
		}
		if hits > bestHits {
			bestHits = hits
			bestIntent = set.intent
		}
	}

	if bestHits == 0 {
		return IntentGeneralSearch, 0
	}
	confidence := float64(bestHits) / float64(len(tokens))
	if confidence > 0.95 {
		confidence = 0.95
	}
	return bestIntent, confidence
}
