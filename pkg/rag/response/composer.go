package response

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/pkg/logger"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/cache"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/llm"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/store"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/utils"
)

// Sampling jitter ranges. Re-sampled per call so identical fact payloads do
// not produce identical phrasing run after run.
const (
	tempLow   = 0.6
	tempHigh  = 0.8
	wordsLow  = 60
	wordsHigh = 120
)

// Clamp limits bound the UI payload.
const (
	defaultMaxLines   = 30
	defaultMaxLineLen = 200
)

// Composer assembles facts, condensed conversation and retrieved passages
// into a grounded answer. When the generation service is nil or fails, a
// deterministic template takes over: never empty, never an error, never a
// fact that is not in the input map.
type Composer struct {
	llmProvider llm.LLMProvider
	narration   *cache.Store
	log         logger.ILogger
	mainTimeout time.Duration
	maxLines    int
	maxLineLen  int

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewComposer(llmProvider llm.LLMProvider, narration *cache.Store, log logger.ILogger, mainTimeout time.Duration) *Composer {
	if mainTimeout <= 0 {
		mainTimeout = 7 * time.Second
	}
	return &Composer{
		llmProvider: llmProvider,
		narration:   narration,
		log:         log,
		mainTimeout: mainTimeout,
		maxLines:    defaultMaxLines,
		maxLineLen:  defaultMaxLineLen,
		rnd:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Compose produces the final answer text. facts must already be filtered
// through the allowlist (FilterFacts); contract may be nil.
func (e *Composer) Compose(ctx context.Context, mode string, facts map[string]string, passages []store.RankedCandidate, conversation string, contract *Contract) string {
	text := e.generate(ctx, mode, facts, passages, conversation)
	text = e.Clamp(text)
	if contract != nil {
		text = e.Enforce(text, contract)
	}
	if LooksLikeEmail(text) {
		text = RepairEmailPlaceholders(text)
	}
	return text
}

func (e *Composer) generate(ctx context.Context, mode string, facts map[string]string, passages []store.RankedCandidate, conversation string) string {
	if e.llmProvider == nil {
		return e.Fallback(facts, passages)
	}

	temp, words := e.sample()
	prompt := buildPrompt(mode, facts, passages, conversation, words)

	genCtx, cancel := context.WithTimeout(ctx, e.mainTimeout)
	defer cancel()

	// Token cap tracks the sampled word target with headroom for markdown
	// and citations, so a rambling completion cannot blow the clamp.
	text, err := e.llmProvider.Chat(genCtx, []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: prompt},
	}, llm.WithTemperature(temp), llm.WithMaxTokens(words*2))
	if err != nil {
		e.log.Warn("composer", "generation failed, using templated fallback", map[string]interface{}{"error": err.Error()})
		return e.Fallback(facts, passages)
	}
	if strings.TrimSpace(text) == "" {
		return e.Fallback(facts, passages)
	}
	return text
}

func (e *Composer) sample() (float64, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	temp := tempLow + e.rnd.Float64()*(tempHigh-tempLow)
	words := wordsLow + e.rnd.Intn(wordsHigh-wordsLow+1)
	return temp, words
}

// Fallback is the deterministic templated composition built purely from the
// fact map. Sorted keys keep the output stable across runs.
func (e *Composer) Fallback(facts map[string]string, passages []store.RankedCandidate) string {
	var b strings.Builder

	name := facts["name"]
	if name != "" {
		b.WriteString(fmt.Sprintf("Here's what I can confirm for %s:\n", name))
	} else {
		b.WriteString("Here's what I can confirm from the record:\n")
	}

	wrote := false
	for _, k := range sortedKeys(facts) {
		if k == "name" {
			continue
		}
		b.WriteString(fmt.Sprintf("- %s: %s\n", labelFor(k), facts[k]))
		wrote = true
	}
	if !wrote {
		b.WriteString("- No further details are on file for this enquiry.\n")
	}

	if len(passages) > 0 {
		b.WriteString("\nRelevant guidance:\n")
		for i, p := range passages {
			if i >= 3 {
				break
			}
			b.WriteString(fmt.Sprintf("[S%d] %s\n", i+1, p.Title))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// Clamp caps total lines and per-line length to bound the UI payload.
// Truncation is rune aware so a cut never leaves invalid UTF-8 behind.
func (e *Composer) Clamp(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) > e.maxLines {
		lines = lines[:e.maxLines]
	}
	for i, line := range lines {
		lines[i] = utils.TruncateRunes(line, e.maxLineLen)
	}
	return strings.Join(lines, "\n")
}

func labelFor(field string) string {
	switch field {
	case "last_touch":
		return "Last contact"
	default:
		return strings.ToUpper(field[:1]) + field[1:]
	}
}

const systemPrompt = `You are an admissions assistant. Answer ONLY from the facts and sources provided.
Never invent details. Cite sources as [S1], [S2] where used. Keep the answer in markdown.`

func buildPrompt(mode string, facts map[string]string, passages []store.RankedCandidate, conversation string, targetWords int) string {
	var b strings.Builder

	if conversation != "" {
		b.WriteString("<conversation>\n")
		b.WriteString(conversation)
		b.WriteString("\n</conversation>\n\n")
	}

	b.WriteString("<facts>\n")
	for _, k := range sortedKeys(facts) {
		b.WriteString(fmt.Sprintf("%s: %s\n", k, facts[k]))
	}
	b.WriteString("</facts>\n\n")

	if len(passages) > 0 {
		b.WriteString("<sources>\n")
		for i, p := range passages {
			b.WriteString(fmt.Sprintf("[S%d] %s\n%s\n\n", i+1, p.Title, p.Content))
		}
		b.WriteString("</sources>\n\n")
	}

	b.WriteString(fmt.Sprintf("Respond in %s mode, aiming for about %d words.\n", mode, targetWords))
	return b.String()
}
