package history

import (
	"math"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/store"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/utils"
)

const (
	// DefaultCapacity is the per-session ring size; oldest turns are
	// silently dropped on overflow.
	DefaultCapacity = 12

	decayBase   = 0.6
	decayFloor  = 0.02
	floorIndex  = 5
	dropBelow   = 0.1
	perTurnCap  = 280 // character budget per surviving turn
	sessionTTL  = time.Hour
	purgePeriod = 10 * time.Minute
)

// styleHints rotate weekly by wall clock so repeated sessions do not read
// identically. The set is fixed; only the index moves.
var styleHints = []string{
	"Style: warm and direct, lead with the answer.",
	"Style: concise and factual, no filler.",
	"Style: helpful peer, plain language.",
	"Style: brisk and practical, short sentences.",
}

// Buffer holds per-session rolling windows of sanitized conversation turns.
// Sessions live in a TTL cache so abandoned conversations age out on their
// own. Safe for concurrent use.
type Buffer struct {
	mu        sync.Mutex
	sessions  *gocache.Cache
	sanitizer *Sanitizer
	capacity  int

	now func() time.Time
}

type sessionWindow struct {
	Turns []store.ConversationTurn
}

// NewBuffer creates a Buffer with the default 12-turn capacity.
func NewBuffer(sanitizer *Sanitizer) *Buffer {
	return &Buffer{
		sessions:  gocache.New(sessionTTL, purgePeriod),
		sanitizer: sanitizer,
		capacity:  DefaultCapacity,
		now:       time.Now,
	}
}

// Append records a turn for the session. Text is sanitized before storage;
// once the ring is full the oldest turn is dropped without error.
func (b *Buffer) Append(sessionID, role, text string) {
	clean := text
	if b.sanitizer != nil {
		clean = b.sanitizer.Sanitize(text)
	}
	turn := store.ConversationTurn{
		Role:      role,
		Text:      clean,
		Timestamp: b.now(),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var win *sessionWindow
	if v, found := b.sessions.Get(sessionID); found {
		win = v.(*sessionWindow)
	} else {
		win = &sessionWindow{}
	}
	win.Turns = append(win.Turns, turn)
	if len(win.Turns) > b.capacity {
		win.Turns = win.Turns[len(win.Turns)-b.capacity:]
	}
	b.sessions.Set(sessionID, win, gocache.DefaultExpiration)
}

// Turns returns a copy of the session's current window, oldest first.
func (b *Buffer) Turns(sessionID string) []store.ConversationTurn {
	b.mu.Lock()
	defer b.mu.Unlock()

	v, found := b.sessions.Get(sessionID)
	if !found {
		return nil
	}
	win := v.(*sessionWindow)
	out := make([]store.ConversationTurn, len(win.Turns))
	copy(out, win.Turns)
	return out
}

// Condensed renders the last maxTurns turns into a weighted context string.
// Recency weighting: the newest turn gets weight 1.0, the i-th oldest gets
// 0.6^i with a 0.02 floor past index 5. Turns whose weight falls below 0.1
// are dropped. Survivors keep chronological order, are truncated to a fixed
// per-turn budget, labeled by role, and the joined result is hard-truncated
// to maxChars. A rotating style hint is always prepended.
//
// Pure function of buffer state and the wall clock; no external calls.
func (b *Buffer) Condensed(sessionID string, maxTurns, maxChars int) string {
	turns := b.Turns(sessionID)
	if maxTurns > 0 && len(turns) > maxTurns {
		turns = turns[len(turns)-maxTurns:]
	}

	var parts []string
	for i, turn := range turns {
		// Distance from the newest turn.
		age := len(turns) - 1 - i
		if DecayWeight(age) < dropBelow {
			continue
		}
		text := turn.Text
		if truncated := utils.TruncateRunes(text, perTurnCap); truncated != text {
			text = truncated + "…"
		}
		parts = append(parts, turn.Role+": "+text)
	}

	joined := b.styleHint() + "\n" + strings.Join(parts, "\n")
	if maxChars > 0 {
		joined = utils.TruncateRunes(joined, maxChars)
	}
	return joined
}

// DecayWeight returns the recency weight for a turn 'age' steps behind the
// newest turn.
func DecayWeight(age int) float64 {
	if age <= 0 {
		return 1.0
	}
	if age > floorIndex {
		return decayFloor
	}
	return math.Pow(decayBase, float64(age))
}

func (b *Buffer) styleHint() string {
	week := b.now().Unix() / int64(7*24*time.Hour/time.Second)
	return styleHints[int(week)%len(styleHints)]
}
