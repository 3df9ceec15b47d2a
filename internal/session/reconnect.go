// Package session manages a guild's voice gateway lifecycle: dialing,
// monitoring for unexpected closes, and reconnecting with exponential
// backoff.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aurelink/aurelink/pkg/voice"
)

// Default reconnection parameters.
const (
	defaultMaxRetries = 10
	defaultBackoff    = 1 * time.Second
	defaultMaxBackoff = 30 * time.Second
)

// Reconnector owns a guild's voice gateway and keeps it alive across
// unexpected closes.
//
// Callers obtain the initial gateway via [Reconnector.Connect], then call
// [Reconnector.Monitor] to start a background goroutine that watches for
// [voice.ClosedEvent]s the gateway reports through its own OnClosed
// callback. On a close, the monitor first retries through the gateway's
// own Resume-under-backoff path ([voice.Gateway.Reconnect]); if that is
// exhausted the session is no longer resumable, so the monitor falls
// back to a fresh redial via Dial, itself retried with exponential
// backoff, and invokes the configured OnReconnect callback on success.
//
// All methods are safe for concurrent use.
type Reconnector struct {
	dial        func(ctx context.Context) (*voice.Gateway, error)
	maxRetries  int
	backoff     time.Duration
	maxBackoff  time.Duration
	onReconnect func(*voice.Gateway)

	onGiveUp func()

	mu       sync.Mutex
	gw       *voice.Gateway
	done     chan struct{}
	stopOnce sync.Once
	closed   chan voice.ClosedEvent // signalled when the gateway reports a close
}

// ReconnectorConfig configures a [Reconnector].
type ReconnectorConfig struct {
	// Dial establishes a fresh voice gateway, already past Connect/Ready.
	Dial func(ctx context.Context) (*voice.Gateway, error)

	// MaxRetries is the maximum number of redial attempts before giving up
	// once Resume is no longer possible. Defaults to 10 if zero.
	MaxRetries int

	// Backoff is the initial backoff duration between redial attempts.
	// Doubles each attempt up to MaxBackoff. Defaults to 1s if zero.
	Backoff time.Duration

	// MaxBackoff is the upper limit on backoff duration. Defaults to 30s if zero.
	MaxBackoff time.Duration

	// OnReconnect is called after a successful reconnect (resumed or
	// redialed) with the active gateway. May be nil.
	OnReconnect func(*voice.Gateway)

	// OnGiveUp is called once redial attempts are exhausted, letting the
	// owner surface a non-resumable close (WebSocketClosed) to its
	// client instead of silently leaving the player disconnected. May be
	// nil.
	OnGiveUp func()
}

// NewReconnector creates a new [Reconnector] with the given configuration.
func NewReconnector(cfg ReconnectorConfig) *Reconnector {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	maxBackoff := cfg.MaxBackoff
	if maxBackoff <= 0 {
		maxBackoff = defaultMaxBackoff
	}
	return &Reconnector{
		dial:        cfg.Dial,
		maxRetries:  maxRetries,
		backoff:     backoff,
		maxBackoff:  maxBackoff,
		onReconnect: cfg.OnReconnect,
		onGiveUp:    cfg.OnGiveUp,
		done:        make(chan struct{}),
		closed:      make(chan voice.ClosedEvent, 1),
	}
}

// Connect performs the initial dial and registers this Reconnector to
// observe the gateway's close events.
func (r *Reconnector) Connect(ctx context.Context) (*voice.Gateway, error) {
	gw, err := r.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("reconnector initial connect: %w", err)
	}
	gw.OnClosed(r.handleClosed)

	r.mu.Lock()
	r.gw = gw
	r.mu.Unlock()

	return gw, nil
}

// Monitor starts monitoring the gateway in a background goroutine. On
// a reported close, it attempts reconnection per the configured policy.
func (r *Reconnector) Monitor(ctx context.Context) {
	go r.monitorLoop(ctx)
}

// handleClosed is registered as the gateway's OnClosed callback. Safe to
// call multiple times; only the first close per reconnection cycle has
// effect.
func (r *Reconnector) handleClosed(ev voice.ClosedEvent) {
	select {
	case r.closed <- ev:
	default:
		// Already signalled; avoid blocking.
	}
}

// Stop halts monitoring and closes the current gateway. Safe to call
// multiple times.
func (r *Reconnector) Stop() error {
	r.stopOnce.Do(func() {
		close(r.done)
	})

	r.mu.Lock()
	gw := r.gw
	r.gw = nil
	r.mu.Unlock()

	if gw != nil {
		return gw.Close()
	}
	return nil
}

// Gateway returns the currently active gateway. May return nil during
// reconnection.
func (r *Reconnector) Gateway() *voice.Gateway {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gw
}

// monitorLoop waits for close notifications and attempts reconnection.
func (r *Reconnector) monitorLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.done:
			return
		case ev := <-r.closed:
			r.attemptReconnect(ctx, ev)
		}
	}
}

// attemptReconnect first tries to resume the existing gateway under its
// own backoff policy, then falls back to a full redial with exponential
// backoff if the session can no longer be resumed.
func (r *Reconnector) attemptReconnect(ctx context.Context, ev voice.ClosedEvent) {
	slog.Warn("voice gateway closed, reconnecting",
		"code", ev.Code,
		"reason", ev.Reason,
		"by_remote", ev.ByRemote,
	)

	r.mu.Lock()
	gw := r.gw
	r.mu.Unlock()

	if gw != nil {
		if err := gw.Reconnect(ctx); err == nil {
			slog.Info("voice gateway resumed")
			if r.onReconnect != nil {
				r.onReconnect(gw)
			}
			return
		}
		slog.Warn("voice gateway resume exhausted, redialing from scratch")
	}

	currentBackoff := r.backoff

	for attempt := 1; attempt <= r.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-r.done:
			return
		default:
		}

		slog.Info("attempting voice gateway redial",
			"attempt", attempt,
			"max_retries", r.maxRetries,
			"backoff", currentBackoff,
		)

		newGw, err := r.dial(ctx)
		if err == nil {
			newGw.OnClosed(r.handleClosed)

			r.mu.Lock()
			oldGw := r.gw
			r.gw = newGw
			r.mu.Unlock()

			if oldGw != nil {
				_ = oldGw.Close()
			}

			slog.Info("voice gateway redial successful", "attempt", attempt)

			if r.onReconnect != nil {
				r.onReconnect(newGw)
			}
			return
		}

		slog.Warn("voice gateway redial attempt failed", "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return
		case <-r.done:
			return
		case <-time.After(currentBackoff):
		}

		currentBackoff *= 2
		if currentBackoff > r.maxBackoff {
			currentBackoff = r.maxBackoff
		}
	}

	slog.Error("voice gateway redial failed after max retries", "max_retries", r.maxRetries)
	if r.onGiveUp != nil {
		r.onGiveUp()
	}
}
