// Package app wires all Aurelink subsystems into a running audio node.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run starts the background loops (stats heartbeat, resumable
// session reaper) and blocks until ctx is cancelled, and Shutdown tears
// everything down in order.
//
// For testing, inject test doubles via functional options. When an option
// is not provided, New creates a real implementation from config.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aurelink/aurelink/internal/config"
	"github.com/aurelink/aurelink/internal/health"
	"github.com/aurelink/aurelink/internal/observe"
	"github.com/aurelink/aurelink/internal/player"
	"github.com/aurelink/aurelink/internal/rest"
	"github.com/aurelink/aurelink/internal/resilience"
	"github.com/aurelink/aurelink/internal/session"
	"github.com/aurelink/aurelink/internal/voicelink"
	"github.com/aurelink/aurelink/internal/ws"
	"github.com/aurelink/aurelink/pkg/lyrics"
	"github.com/aurelink/aurelink/pkg/lyrics/genius"
	"github.com/aurelink/aurelink/pkg/lyrics/lrclib"
	"github.com/aurelink/aurelink/pkg/pool"
	"github.com/aurelink/aurelink/pkg/resample"
	"github.com/aurelink/aurelink/pkg/routeplanner"
	"github.com/aurelink/aurelink/pkg/source"
	"github.com/aurelink/aurelink/pkg/source/httpsource"
	"github.com/aurelink/aurelink/pkg/source/mirror"
)

// App owns every subsystem's lifetime and serves the Lavalink v4-compatible
// WS/REST surface.
type App struct {
	cfg *config.Config

	sourceRegistry  *source.Registry
	lyricsManager   *lyrics.Manager
	routePlanner    routeplanner.Planner
	sessionRegistry *session.Registry
	voiceLinks      *voicelink.Registry
	metrics         *observe.Metrics
	router          chi.Router

	startedAt time.Time

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New, used to inject test doubles.
type Option func(*App)

// WithSourceRegistry injects a source registry instead of building one
// from config.
func WithSourceRegistry(r *source.Registry) Option {
	return func(a *App) { a.sourceRegistry = r }
}

// WithLyricsManager injects a lyrics manager instead of building one from
// config.
func WithLyricsManager(m *lyrics.Manager) Option {
	return func(a *App) { a.lyricsManager = m }
}

// WithRoutePlanner injects a route planner instead of building one from
// config.
func WithRoutePlanner(p routeplanner.Planner) Option {
	return func(a *App) { a.routePlanner = p }
}

// New wires every subsystem together: source registry, route planner,
// lyrics manager, session registry, and the chi router serving the WS
// upgrade, REST API, health checks, and Prometheus metrics. Use Option
// functions to inject test doubles for any subsystem.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg, startedAt: time.Now()}
	for _, o := range opts {
		o(a)
	}

	if a.routePlanner == nil {
		if err := a.initRoutePlanner(); err != nil {
			return nil, fmt.Errorf("app: init route planner: %w", err)
		}
	}

	if a.sourceRegistry == nil {
		if err := a.initSources(); err != nil {
			return nil, fmt.Errorf("app: init sources: %w", err)
		}
	}

	if a.lyricsManager == nil {
		a.initLyrics()
	}

	a.sessionRegistry = session.NewRegistry(a.cfg.Player.MaxQueueSize, 0)
	a.voiceLinks = voicelink.NewRegistry()
	a.metrics = observe.DefaultMetrics()

	a.router = a.buildRouter()

	return a, nil
}

// initRoutePlanner builds the rotating-IP planner when enabled in config.
// A nil planner (route planning disabled) is valid everywhere it's
// threaded through pkg/source and pkg/remote.
func (a *App) initRoutePlanner() error {
	rp := a.cfg.RoutePlanner
	if !rp.Enabled {
		return nil
	}
	if len(rp.CIDRs) == 0 {
		return fmt.Errorf("route_planner.enabled requires at least one cidr")
	}
	planner, err := routeplanner.NewRotatingIP(rp.CIDRs[0], rp.ExcludedIPs)
	if err != nil {
		return err
	}
	a.routePlanner = planner
	return nil
}

// initSources builds every enabled source plugin from config, wraps each
// in a circuit breaker, and registers them with the registry. The mirror
// plugin is built last since it wraps the other plugins as its backing
// search targets.
func (a *App) initSources() error {
	registry := config.NewRegistry()
	registry.RegisterSource("http", func(entry config.SourceConfig) (source.Plugin, error) {
		quality := resample.QualityHermite
		if q, ok := entry.Options["resample_quality"].(string); ok && q == "sinc" {
			quality = resample.QualitySinc
		}
		return httpsource.New(quality), nil
	})

	sourcesCfg := make(map[string]config.SourceConfig, len(a.cfg.Sources))
	for name, entry := range a.cfg.Sources {
		if name == "mirror" {
			continue
		}
		sourcesCfg[name] = entry
	}

	plugins, errs := registry.BuildEnabled(sourcesCfg)
	for _, err := range errs {
		slog.Warn("source registration skipped", "error", err)
	}

	reg := source.NewRegistry()
	for _, p := range plugins {
		reg.Register(resilience.WrapSource(p, resilience.CircuitBreakerConfig{Name: p.Name()}))
	}

	if mirrorCfg, ok := a.cfg.Sources["mirror"]; ok && mirrorCfg.Enabled {
		threshold := mirror.DefaultThreshold
		if t, ok := mirrorCfg.Options["threshold"].(float64); ok {
			threshold = t
		}
		mp := mirror.New(threshold, plugins...)
		reg.Register(resilience.WrapSource(mp, resilience.CircuitBreakerConfig{Name: mp.Name()}))
	}

	a.sourceRegistry = reg
	return nil
}

// initLyrics registers every lyrics provider enabled in config, wrapping
// each in a circuit breaker.
func (a *App) initLyrics() {
	var providers []lyrics.Provider
	if a.cfg.Lyrics.LRCLib {
		p := lrclib.New()
		providers = append(providers, resilience.WrapLyricsProvider(p, resilience.CircuitBreakerConfig{Name: p.Name()}))
	}
	if a.cfg.Lyrics.Genius {
		p := genius.New()
		providers = append(providers, resilience.WrapLyricsProvider(p, resilience.CircuitBreakerConfig{Name: p.Name()}))
	}
	a.lyricsManager = lyrics.NewManager(providers...)
}

// playerConfig translates the node-wide player tuning knobs into the
// per-player Config the session/WS layer hands to every player.New call.
func (a *App) playerConfig() player.Config {
	cfg := a.cfg.Player
	return player.Config{
		UpdateInterval: time.Duration(cfg.UpdateIntervalSecs) * time.Second,
		StuckThreshold: time.Duration(cfg.StuckThresholdMs) * time.Millisecond,
		TapeRampMs:     cfg.TapeEnterMs,
	}
}

// buildRouter assembles the chi router serving /v4/websocket, the REST
// API, health checks, and the Prometheus metrics endpoint.
func (a *App) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Lavalink-Api-Version", "4")
			next.ServeHTTP(w, req)
		})
	})

	healthHandler := health.New(
		health.Checker{Name: "sources", Check: func(context.Context) error {
			if a.sourceRegistry == nil {
				return fmt.Errorf("no source plugins registered")
			}
			return nil
		}},
		health.PoolChecker(pool.Global()),
		health.RoutePlannerChecker(a.routePlanner),
	)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	r.Handle("/metrics", observe.MetricsHandler())

	wsHandler := ws.NewHandler(ws.Config{
		Password:     a.cfg.Server.Password,
		Sessions:     a.sessionRegistry,
		Sources:      a.sourceRegistry,
		Planner:      a.routePlanner,
		LyricsMgr:    a.lyricsManager,
		PlayerConfig: a.playerConfig(),
		VoiceLinks:   a.voiceLinks,
		StartedAt:    a.startedAt,
	})
	r.Get("/v4/websocket", wsHandler.ServeHTTP)

	restHandler := rest.NewHandler(rest.Config{
		Password:     a.cfg.Server.Password,
		Sessions:     a.sessionRegistry,
		Sources:      a.sourceRegistry,
		Planner:      a.routePlanner,
		PlayerConfig: a.playerConfig(),
		VoiceLinks:   a.voiceLinks,
		StartedAt:    a.startedAt,
	})
	r.Mount("/v4", restHandler.Routes())

	return r
}

// Router returns the assembled chi router for main.go to serve.
func (a *App) Router() chi.Router { return a.router }

// Run starts the node's background loops (stats heartbeat, resumable
// session reaper) and blocks until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.sessionRegistry.RunReaper(ctx, 5*time.Second)

	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()

	slog.Info("aurelink node running")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			a.broadcastStats()
		}
	}
}

// broadcastStats computes the node-wide Stats snapshot and sends it to
// every actively-connected session, per the 60s heartbeat spec.
func (a *App) broadcastStats() {
	stats := a.sessionRegistry.ComputeStats(a.startedAt)
	for _, s := range a.sessionRegistry.ActiveSessions() {
		if err := s.SendJSON(statsMessage{Op: "stats", Stats: stats}); err != nil {
			slog.Warn("stats broadcast failed", "session", s.ID(), "error", err)
		}
	}
}

type statsMessage struct {
	Op string `json:"op"`
	session.Stats
}

// Shutdown tears down all subsystems in order. It respects the context
// deadline: if ctx expires before all closers finish, remaining closers
// are skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))
		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}
		slog.Info("shutdown complete")
	})
	return shutdownErr
}
