package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/pkg/logger"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/cache"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/llm"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/store"
)

// Defaults substituted when the generation service is unavailable or emits
// malformed JSON.
const (
	defaultTimeRange = "90d"
	defaultLimit     = "25"
)

// Resolver classifies a query's intent. The deterministic rule pass runs
// first at near-zero latency; the generation service is consulted only when
// rule confidence falls below the threshold, under the helper budget.
//
// Normalization and parse results are cached by query text. The final
// classification is NOT cached: confidence depends on conversational
// context and must be produced fresh per request.
type Resolver struct {
	llmProvider   llm.LLMProvider
	normCache     *cache.Store
	parseCache    *cache.Store
	log           logger.ILogger
	threshold     float64
	helperTimeout time.Duration
}

func NewResolver(llmProvider llm.LLMProvider, normCache, parseCache *cache.Store, log logger.ILogger, threshold float64, helperTimeout time.Duration) *Resolver {
	if threshold <= 0 {
		threshold = 0.2
	}
	if helperTimeout <= 0 {
		helperTimeout = 3 * time.Second
	}
	return &Resolver{
		llmProvider:   llmProvider,
		normCache:     normCache,
		parseCache:    parseCache,
		log:           log,
		threshold:     threshold,
		helperTimeout: helperTimeout,
	}
}

// Resolve produces a fresh classification for the query. conversational is
// the condensed session context, included in the fallback prompt only.
func (r *Resolver) Resolve(ctx context.Context, query, conversational string) store.Classification {
	normalized := r.normalize(query)

	intentName, confidence := ClassifyByRules(normalized)
	if confidence >= r.threshold {
		return store.Classification{
			Intent:     intentName,
			Confidence: confidence,
			Meta:       map[string]string{"source": "rules"},
		}
	}

	if r.llmProvider == nil {
		return r.safeDefault("generation disabled")
	}

	parsed, ok := r.classifyByLLM(ctx, normalized, conversational)
	if !ok {
		return r.safeDefault("llm classification failed")
	}
	return parsed
}

// normalize lowercases and strips punctuation, memoized by raw query text.
func (r *Resolver) normalize(query string) string {
	key := cache.Key("normalize", map[string]string{"q": query})
	if v, ok := r.normCache.Get(key); ok {
		return v.(string)
	}
	normalized := strings.Join(strings.Fields(strings.ToLower(stripPunct(query))), " ")
	r.normCache.Set(key, normalized)
	return normalized
}

var punct = regexp.MustCompile(`[^\w\s£$€%-]`)

func stripPunct(s string) string {
	return punct.ReplaceAllString(s, " ")
}

type llmClassification struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	TimeRange  string  `json:"time_range"`
	Limit      int     `json:"limit"`
}

func (r *Resolver) classifyByLLM(ctx context.Context, query, conversational string) (store.Classification, bool) {
	// Parse results memoized by query text; the classification envelope
	// built from them stays per-request.
	parseKey := cache.Key("parse", map[string]string{"q": query})
	if v, ok := r.parseCache.Get(parseKey); ok {
		return r.toClassification(v.(llmClassification)), true
	}

	helperCtx, cancel := context.WithTimeout(ctx, r.helperTimeout)
	defer cancel()

	response, err := r.llmProvider.Chat(helperCtx, []llm.Message{
		{Role: "system", Content: classifyPrompt},
		{Role: "user", Content: fmt.Sprintf("Conversation so far:\n%s\n\nQuery: %s", conversational, query)},
	}, llm.WithTemperature(0.0))
	if err != nil {
		r.log.Warn("intent", "llm classification failed", map[string]interface{}{"error": err.Error()})
		return store.Classification{}, false
	}

	jsonContent := extractJSON(response)
	if jsonContent == "" {
		r.log.Warn("intent", "no JSON in classification response", nil)
		return store.Classification{}, false
	}

	var parsed llmClassification
	if err := json.Unmarshal([]byte(jsonContent), &parsed); err != nil {
		r.log.Warn("intent", "malformed classification JSON", map[string]interface{}{"error": err.Error()})
		return store.Classification{}, false
	}
	if !Known(parsed.Intent) {
		parsed.Intent = IntentGeneralSearch
	}
	if parsed.TimeRange == "" {
		parsed.TimeRange = defaultTimeRange
	}
	if parsed.Limit <= 0 {
		parsed.Limit = 25
	}
	if parsed.Confidence < 0 || parsed.Confidence > 1 {
		parsed.Confidence = 0.5
	}

	r.parseCache.Set(parseKey, parsed)
	return r.toClassification(parsed), true
}

func (r *Resolver) toClassification(parsed llmClassification) store.Classification {
	return store.Classification{
		Intent:     parsed.Intent,
		Confidence: parsed.Confidence,
		Meta: map[string]string{
			"source":     "llm",
			"time_range": parsed.TimeRange,
			"limit":      fmt.Sprintf("%d", parsed.Limit),
		},
	}
}

func (r *Resolver) safeDefault(reason string) store.Classification {
	return store.Classification{
		Intent:     IntentGeneralSearch,
		Confidence: 0.3,
		Meta: map[string]string{
			"source":     "fallback",
			"reason":     reason,
			"time_range": defaultTimeRange,
			"limit":      defaultLimit,
		},
	}
}

const classifyPrompt = `You are an intent classifier for an admissions assistant.
Classify the query as exactly one of: course_info, fees_funding, accommodation, meeting_booking, application_status, general_search.
Respond with ONLY valid JSON:
{"intent": "...", "confidence": 0.0, "time_range": "90d", "limit": 25}`

func extractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")
	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}
	return response[startIdx : endIdx+1]
}
