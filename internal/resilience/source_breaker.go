package resilience

import (
	"context"

	"github.com/aurelink/aurelink/pkg/routeplanner"
	"github.com/aurelink/aurelink/pkg/source"
	"github.com/aurelink/aurelink/pkg/track"
)

// BreakerSource wraps a [source.Plugin] so its network-calling methods
// (Load, GetTrack, LoadSearch) run behind a dedicated [CircuitBreaker]. A
// source that is persistently timing out or erroring — a third-party API
// outage, a dead mirror host — trips its breaker and then fails fast with
// [ErrCircuitOpen] instead of paying the full request timeout on every
// lookup, until the reset period has passed. Metadata methods (Name,
// CanHandle, SearchPrefixes, ISRCPrefixes, RecPrefixes, IsMirror) do no
// I/O and pass straight through.
type BreakerSource struct {
	source.Plugin
	breaker *CircuitBreaker
}

// Compile-time interface assertion.
var _ source.Plugin = (*BreakerSource)(nil)

// WrapSource decorates plugin with a circuit breaker so it can be
// registered with a [github.com/aurelink/aurelink/pkg/source.Registry]
// exactly like any other plugin.
func WrapSource(plugin source.Plugin, cfg CircuitBreakerConfig) *BreakerSource {
	if cfg.Name == "" {
		cfg.Name = plugin.Name()
	}
	return &BreakerSource{Plugin: plugin, breaker: NewCircuitBreaker(cfg)}
}

// Load resolves identifier through the wrapped plugin, guarded by the
// breaker.
func (b *BreakerSource) Load(ctx context.Context, identifier string, planner routeplanner.Planner) (track.LoadResult, error) {
	var result track.LoadResult
	err := b.breaker.Execute(func() error {
		var innerErr error
		result, innerErr = b.Plugin.Load(ctx, identifier, planner)
		return innerErr
	})
	return result, err
}

// GetTrack resolves a playable track through the wrapped plugin, guarded
// by the breaker.
func (b *BreakerSource) GetTrack(ctx context.Context, identifier string, planner routeplanner.Planner) (source.PlayableTrack, error) {
	var result source.PlayableTrack
	err := b.breaker.Execute(func() error {
		var innerErr error
		result, innerErr = b.Plugin.GetTrack(ctx, identifier, planner)
		return innerErr
	})
	return result, err
}

// LoadSearch performs a LavaSearch-style lookup through the wrapped
// plugin, guarded by the breaker.
func (b *BreakerSource) LoadSearch(ctx context.Context, query string, types []source.SearchType, planner routeplanner.Planner) (*source.SearchResult, error) {
	var result *source.SearchResult
	err := b.breaker.Execute(func() error {
		var innerErr error
		result, innerErr = b.Plugin.LoadSearch(ctx, query, types, planner)
		return innerErr
	})
	return result, err
}

// Breaker returns the underlying circuit breaker, mainly so callers can
// report its state (e.g. in a readiness check or an admin endpoint).
func (b *BreakerSource) Breaker() *CircuitBreaker { return b.breaker }
