package genai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// Breaker stops calling a failing Generator for a cooldown period so that an
// outage degrades straight to the rule-based fallback.
type Breaker struct {
	next Generator
	cb   *gobreaker.CircuitBreaker[string]
}

func NewBreaker(next Generator, maxFailures uint32, cooldown time.Duration, log *zap.Logger) *Breaker {
	if maxFailures == 0 {
		maxFailures = 5
	}
	if log == nil {
		log = zap.NewNop()
	}
	settings := gobreaker.Settings{
		Name:        "genai",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		// A caller hanging up says nothing about the upstream's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}
	return &Breaker{next: next, cb: gobreaker.NewCircuitBreaker[string](settings)}
}

func (b *Breaker) Generate(ctx context.Context, prompt string, img *Image) (string, error) {
	text, err := b.cb.Execute(func() (string, error) {
		return b.next.Generate(ctx, prompt, img)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return text, err
}

func (b *Breaker) State() string {
	return b.cb.State().String()
}
