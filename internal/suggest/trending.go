package suggest

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"
)

// TrendingSource supplies currently popular query terms.
type TrendingSource interface {
	// Top returns up to n trending terms, most popular first.
	Top(ctx context.Context, n int) ([]string, error)
	// Record notes that a query was served, feeding popularity.
	Record(ctx context.Context, query string) error
}

// StaticTrending serves a curated list, rotating its starting offset daily so
// the same handful of promotions does not lead every day.
type StaticTrending struct {
	terms []string
	now   func() time.Time
}

// NewStaticTrending creates a rotating trending source over terms.
func NewStaticTrending(terms []string) *StaticTrending {
	return &StaticTrending{terms: terms, now: time.Now}
}

// WithClock overrides the rotation clock. Used in tests.
func (s *StaticTrending) WithClock(now func() time.Time) *StaticTrending {
	s.now = now
	return s
}

// Top returns up to n terms starting from the day's rotation offset.
func (s *StaticTrending) Top(_ context.Context, n int) ([]string, error) {
	if len(s.terms) == 0 || n <= 0 {
		return nil, nil
	}
	if n > len(s.terms) {
		n = len(s.terms)
	}
	offset := s.now().YearDay() % len(s.terms)
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, s.terms[(offset+i)%len(s.terms)])
	}
	return out, nil
}

// Record is a no-op; the static list is curated, not learned.
func (s *StaticTrending) Record(context.Context, string) error {
	return nil
}

// RedisTrending tracks query popularity in a Redis sorted set via rueidis.
type RedisTrending struct {
	client rueidis.Client
	key    string
}

// RedisTrendingConfig holds connection parameters for the trending store.
type RedisTrendingConfig struct {
	Addrs    []string
	Password string
	// Key is the sorted-set key; defaults to "mitsukeru:trending".
	Key string
}

// NewRedisTrending connects to Redis and returns a trending source backed by
// a sorted set.
func NewRedisTrending(cfg RedisTrendingConfig) (*RedisTrending, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: cfg.Addrs,
		Password:    cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	key := cfg.Key
	if key == "" {
		key = "mitsukeru:trending"
	}
	return &RedisTrending{client: client, key: key}, nil
}

// Top returns the n highest-scored terms from the sorted set.
func (r *RedisTrending) Top(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	cmd := r.client.B().Zrange().Key(r.key).Min("0").Max(fmt.Sprintf("%d", n-1)).Rev().Build()
	terms, err := r.client.Do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, fmt.Errorf("trending top: %w", err)
	}
	return terms, nil
}

// Record increments the term's popularity.
func (r *RedisTrending) Record(ctx context.Context, query string) error {
	cmd := r.client.B().Zincrby().Key(r.key).Increment(1).Member(query).Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("trending record: %w", err)
	}
	return nil
}

// Close shuts down the Redis client.
func (r *RedisTrending) Close() {
	r.client.Close()
}
