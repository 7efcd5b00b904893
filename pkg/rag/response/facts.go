package response

import (
	"sort"
	"strconv"
	"strings"
)

// allowedFactFields is the closed set of context fields that may ever be
// echoed back to the caller. Anything outside it is dropped at the boundary:
// a requested facet outside this set is refused, never fabricated.
var allowedFactFields = map[string]bool{
	"name":        true,
	"course":      true,
	"campus":      true,
	"status":      true,
	"stage":       true,
	"score":       true,
	"intake":      true,
	"source":      true,
	"last_touch":  true,
	"owner":       true,
	"preferences": true,
}

// FilterFacts reduces a raw context map to the allowlisted field set,
// flattening values to strings. Non-scalar values are dropped: nested
// free-text content never reaches the prompt.
func FilterFacts(context map[string]interface{}) map[string]string {
	facts := make(map[string]string)
	for k, v := range context {
		key := strings.ToLower(k)
		if !allowedFactFields[key] {
			continue
		}
		switch val := v.(type) {
		case string:
			facts[key] = val
		case float64:
			facts[key] = trimFloat(val)
		case int:
			facts[key] = trimFloat(float64(val))
		case bool:
			if val {
				facts[key] = "yes"
			} else {
				facts[key] = "no"
			}
		}
	}
	return facts
}

// Allowed reports whether a field may be echoed to the caller.
func Allowed(field string) bool {
	return allowedFactFields[strings.ToLower(field)]
}

// sortedKeys gives deterministic iteration for templated output.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func trimFloat(f float64) string {
	s := strings.TrimRight(strings.TrimRight(strconv.FormatFloat(f, 'f', 2, 64), "0"), ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}
