// Package rerank provides the pluggable second-pass scoring stage applied
// after base ranking. Providers are strictly additive: on timeout or error
// the caller falls back to the base ranking.
package rerank

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hyperjump/mitsukeru/internal/models"
)

// DefaultTimeout bounds a provider invocation when no timeout is configured.
const DefaultTimeout = 300 * time.Millisecond

// ErrTimeout marks a provider call abandoned for exceeding its deadline.
var ErrTimeout = errors.New("re-ranking timed out")

// UserContext carries the preferences a provider may personalize with.
type UserContext struct {
	UserID     string
	Categories []string
	Brands     []string
	PriceRange *models.PriceRange
}

// Provider scores candidates a second time. Implementations must be pure
// relative to their inputs: same query, candidates, and user context always
// produce the same output.
type Provider interface {
	// Name identifies the provider in logs and metrics.
	Name() string
	// Score returns the candidates with adjusted scores, best first.
	Score(ctx context.Context, query models.Query, candidates []models.ScoredResult, user *UserContext) ([]models.ScoredResult, error)
}

// Personalization resolves a user's stored preferences. Optional; a nil
// implementation means no personalization boosts.
type Personalization interface {
	Preferences(ctx context.Context, userID string) (*UserContext, error)
}

// Invoke runs the provider under a deadline. The provider call is abandoned,
// not awaited, when the deadline passes or the caller's context is cancelled.
func Invoke(ctx context.Context, p Provider, timeout time.Duration, query models.Query, candidates []models.ScoredResult, user *UserContext) ([]models.ScoredResult, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		results []models.ScoredResult
		err     error
	}
	// Buffered so the abandoned goroutine can still complete and exit.
	ch := make(chan outcome, 1)
	go func() {
		results, err := p.Score(ctx, query, candidates, user)
		ch <- outcome{results: results, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
	case out := <-ch:
		return out.results, out.err
	}
}
