package llm

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrBreakerOpen is returned while the circuit is open; callers treat it
// like any other generation failure and use their deterministic fallback.
var ErrBreakerOpen = errors.New("generation circuit open")

const (
	defaultTripThreshold = 3
	defaultCooldown      = 30 * time.Second
)

// Breaker decorates a provider with a consecutive-failure circuit. After
// tripThreshold failures in a row the circuit opens and calls are rejected
// immediately until the cooldown elapses; one success closes it again.
// Shields a down generation backend from absorbing the main timeout on
// every request.
type Breaker struct {
	inner LLMProvider

	mu        sync.Mutex
	failures  int
	openUntil time.Time

	tripThreshold int
	cooldown      time.Duration
	now           func() time.Time
}

func NewBreaker(inner LLMProvider, tripThreshold int, cooldown time.Duration) *Breaker {
	if tripThreshold <= 0 {
		tripThreshold = defaultTripThreshold
	}
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}
	return &Breaker{
		inner:         inner,
		tripThreshold: tripThreshold,
		cooldown:      cooldown,
		now:           time.Now,
	}
}

func (b *Breaker) Chat(ctx context.Context, history []Message, options ...Option) (string, error) {
	if !b.allow() {
		return "", ErrBreakerOpen
	}
	text, err := b.inner.Chat(ctx, history, options...)
	b.record(err)
	return text, err
}

func (b *Breaker) Generate(ctx context.Context, prompt string, options ...Option) (string, error) {
	if !b.allow() {
		return "", ErrBreakerOpen
	}
	text, err := b.inner.Generate(ctx, prompt, options...)
	b.record(err)
	return text, err
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.now().After(b.openUntil) || b.openUntil.IsZero()
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		b.failures = 0
		b.openUntil = time.Time{}
		return
	}
	b.failures++
	if b.failures >= b.tripThreshold {
		b.openUntil = b.now().Add(b.cooldown)
		b.failures = 0
	}
}
