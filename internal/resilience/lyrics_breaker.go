package resilience

import (
	"context"

	"github.com/aurelink/aurelink/pkg/lyrics"
	"github.com/aurelink/aurelink/pkg/track"
)

// BreakerLyricsProvider wraps a [lyrics.Provider] so LoadLyrics runs
// behind a dedicated [CircuitBreaker]. A scraping-based provider like
// genius or lrclib that starts failing (layout change, rate limiting,
// an outage) trips its breaker, so [lyrics.Manager]'s fan-out stops
// waiting out that provider's full request timeout on every track until
// the reset period elapses.
type BreakerLyricsProvider struct {
	lyrics.Provider
	breaker *CircuitBreaker
}

// Compile-time interface assertion.
var _ lyrics.Provider = (*BreakerLyricsProvider)(nil)

// WrapLyricsProvider decorates provider with a circuit breaker so it can
// be registered with a [lyrics.Manager] exactly like any other provider.
func WrapLyricsProvider(provider lyrics.Provider, cfg CircuitBreakerConfig) *BreakerLyricsProvider {
	if cfg.Name == "" {
		cfg.Name = provider.Name()
	}
	return &BreakerLyricsProvider{Provider: provider, breaker: NewCircuitBreaker(cfg)}
}

// LoadLyrics fetches lyrics through the wrapped provider, guarded by the
// breaker. When the breaker is open this returns [ErrCircuitOpen]
// immediately, which [lyrics.Manager] treats the same as any other
// provider error: log and move on to the next provider.
func (b *BreakerLyricsProvider) LoadLyrics(ctx context.Context, info track.Info) (*lyrics.Data, error) {
	var result *lyrics.Data
	err := b.breaker.Execute(func() error {
		var innerErr error
		result, innerErr = b.Provider.LoadLyrics(ctx, info)
		return innerErr
	})
	return result, err
}

// Breaker returns the underlying circuit breaker.
func (b *BreakerLyricsProvider) Breaker() *CircuitBreaker { return b.breaker }
