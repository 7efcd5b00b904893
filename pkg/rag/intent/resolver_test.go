package intent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/pkg/logger"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/cache"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/llm"
)

type scriptedLLM struct {
	response string
	err      error
	calls    int
}

func (s *scriptedLLM) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	s.calls++
	return s.response, s.err
}

func (s *scriptedLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return s.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

func newTestResolver(provider llm.LLMProvider) *Resolver {
	return NewResolver(provider,
		cache.New(32, time.Minute),
		cache.New(32, time.Minute),
		logger.Nop(), 0.2, time.Second)
}

func TestClassifyByRules(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"can I book a campus visit", IntentMeetingBooking},
		{"how much are tuition fees", IntentFeesFunding},
		{"what halls of residence are there", IntentAccommodation},
		{"what is my application status", IntentAppStatus},
		{"entry requirements for the nursing course", IntentCourseInfo},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, conf := ClassifyByRules(tt.query)
			if got != tt.want {
				t.Errorf("intent = %q, want %q", got, tt.want)
			}
			if conf <= 0 {
				t.Errorf("confidence = %v, want > 0", conf)
			}
		})
	}
}

func TestClassifyByRulesNoMatch(t *testing.T) {
	got, conf := ClassifyByRules("hello there")
	if got != IntentGeneralSearch || conf != 0 {
		t.Errorf("got (%q, %v), want (general_search, 0)", got, conf)
	}
}

func TestResolveRulePathSkipsLLM(t *testing.T) {
	provider := &scriptedLLM{response: `{"intent":"course_info","confidence":0.9}`}
	r := newTestResolver(provider)

	c := r.Resolve(context.Background(), "book a meeting about fees", "")
	if c.Intent != IntentMeetingBooking {
		t.Errorf("intent = %q", c.Intent)
	}
	if provider.calls != 0 {
		t.Error("high-confidence rule match must not invoke generation")
	}
}

func TestResolveLLMFallback(t *testing.T) {
	provider := &scriptedLLM{response: `Sure! {"intent":"fees_funding","confidence":0.8,"time_range":"30d","limit":10}`}
	r := newTestResolver(provider)

	c := r.Resolve(context.Background(), "wondering about that thing we discussed", "")
	if c.Intent != IntentFeesFunding {
		t.Errorf("intent = %q, want fees_funding", c.Intent)
	}
	if c.Meta["time_range"] != "30d" {
		t.Errorf("time_range = %q", c.Meta["time_range"])
	}
}

func TestResolveMalformedJSONFallsBackSafely(t *testing.T) {
	provider := &scriptedLLM{response: "I think the user wants to know about fees."}
	r := newTestResolver(provider)

	c := r.Resolve(context.Background(), "hmm", "")
	if c.Intent != IntentGeneralSearch {
		t.Errorf("intent = %q, want general_search", c.Intent)
	}
	if c.Meta["time_range"] != "90d" || c.Meta["limit"] != "25" {
		t.Errorf("safe defaults missing: %+v", c.Meta)
	}
}

func TestResolveLLMErrorFallsBackSafely(t *testing.T) {
	provider := &scriptedLLM{err: errors.New("context deadline exceeded")}
	r := newTestResolver(provider)

	c := r.Resolve(context.Background(), "hmm", "")
	if c.Intent != IntentGeneralSearch {
		t.Errorf("intent = %q, want general_search", c.Intent)
	}
}

func TestResolveNilProvider(t *testing.T) {
	r := newTestResolver(nil)
	c := r.Resolve(context.Background(), "hmm", "")
	if c.Intent != IntentGeneralSearch {
		t.Errorf("intent = %q, want general_search", c.Intent)
	}
}

func TestResolveParseResultMemoized(t *testing.T) {
	provider := &scriptedLLM{response: `{"intent":"accommodation","confidence":0.7}`}
	r := newTestResolver(provider)

	r.Resolve(context.Background(), "hmm", "")
	r.Resolve(context.Background(), "hmm", "")
	if provider.calls != 1 {
		t.Errorf("parse result should be memoized by query text, calls = %d", provider.calls)
	}
}

func TestResolveUnknownIntentNameNormalized(t *testing.T) {
	provider := &scriptedLLM{response: `{"intent":"order_pizza","confidence":0.9}`}
	r := newTestResolver(provider)

	c := r.Resolve(context.Background(), "hmm", "")
	if c.Intent != IntentGeneralSearch {
		t.Errorf("unknown intent names must map to general_search, got %q", c.Intent)
	}
}
