package ratelimit

import (
	"errors"
	"sync"
	"time"
)

// ErrRateLimited is returned by callers of Admit when admission is refused,
// so transport layers can map it to a 429 with a Retry-After header.
var ErrRateLimited = errors.New("rate limit exceeded")

// Config controls admission limits. ProfileMultiplier exists so automated
// test environments can raise the limits without code branches; production
// leaves it at 1.
type Config struct {
	PerMinute         int           // per-user admissions per sliding minute
	OrgPerMinute      int           // per-organization; 0 means 3x PerMinute
	Burst             int           // per-user admissions per sliding 10s
	CompactEvery      time.Duration // background compaction interval
	ProfileMultiplier int           // 10 for "test"/"ci" profiles, else 1
}

// DefaultConfig returns production limits.
func DefaultConfig() Config {
	return Config{
		PerMinute:         60,
		Burst:             10,
		CompactEvery:      5 * time.Minute,
		ProfileMultiplier: 1,
	}
}

const (
	minuteWindow = time.Minute
	burstWindow  = 10 * time.Second
	retainFor    = time.Hour
)

// Limiter is a sliding-window admission controller with two identity scopes:
// a narrow user scope and a broader organization scope. Admission requires
// all three checks to pass; on admission the timestamp is recorded in both
// scopes. Safe for concurrent use.
type Limiter struct {
	mu     sync.Mutex
	users  map[string][]time.Time
	orgs   map[string][]time.Time
	limit  int
	orgCap int
	burst  int

	compactEvery time.Duration
	stop         chan struct{}
	stopOnce     sync.Once

	now func() time.Time
}

// New builds a Limiter and starts its background compaction loop.
// Call Close when the limiter is no longer needed.
func New(cfg Config) *Limiter {
	mult := cfg.ProfileMultiplier
	if mult < 1 {
		mult = 1
	}
	limit := cfg.PerMinute * mult
	orgCap := cfg.OrgPerMinute * mult
	if cfg.OrgPerMinute == 0 {
		orgCap = 3 * limit
	}
	compact := cfg.CompactEvery
	if compact <= 0 {
		compact = 5 * time.Minute
	}

	l := &Limiter{
		users:        make(map[string][]time.Time),
		orgs:         make(map[string][]time.Time),
		limit:        limit,
		orgCap:       orgCap,
		burst:        cfg.Burst * mult,
		compactEvery: compact,
		stop:         make(chan struct{}),
		now:          time.Now,
	}
	go l.compactLoop()
	return l
}

// Admit reports whether a request from userID within orgID may proceed.
// Denied requests are not recorded.
func (l *Limiter) Admit(userID, orgID string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	userTimes := l.users[userID]
	orgTimes := l.orgs[orgID]

	if countSince(userTimes, now.Add(-minuteWindow)) >= l.limit {
		return false
	}
	if countSince(orgTimes, now.Add(-minuteWindow)) >= l.orgCap {
		return false
	}
	if countSince(userTimes, now.Add(-burstWindow)) >= l.burst {
		return false
	}

	l.users[userID] = append(userTimes, now)
	l.orgs[orgID] = append(orgTimes, now)
	return true
}

// RetryAfter is the guidance attached to 429 responses.
func (l *Limiter) RetryAfter() time.Duration { return minuteWindow }

// Close stops the compaction loop.
func (l *Limiter) Close() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func countSince(times []time.Time, cutoff time.Time) int {
	n := 0
	for _, ts := range times {
		if ts.After(cutoff) {
			n++
		}
	}
	return n
}

// compactLoop prunes timestamps older than an hour. This is the only place
// old entries are dropped: Admit stays append-and-count so the hot path
// never pays for compaction.
func (l *Limiter) compactLoop() {
	ticker := time.NewTicker(l.compactEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.compact()
		case <-l.stop:
			return
		}
	}
}

func (l *Limiter) compact() {
	cutoff := l.now().Add(-retainFor)

	l.mu.Lock()
	defer l.mu.Unlock()
	pruneMap(l.users, cutoff)
	pruneMap(l.orgs, cutoff)
}

func pruneMap(m map[string][]time.Time, cutoff time.Time) {
	for id, times := range m {
		kept := times[:0]
		for _, ts := range times {
			if ts.After(cutoff) {
				kept = append(kept, ts)
			}
		}
		if len(kept) == 0 {
			delete(m, id)
		} else {
			m[id] = kept
		}
	}
}
