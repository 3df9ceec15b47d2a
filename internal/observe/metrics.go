// Package observe provides application-wide observability primitives for
// Aurelink: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Aurelink metrics.
const meterName = "github.com/aurelink/aurelink"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// TrackLoadDuration tracks how long loadtracks/search resolution takes
	// per source plugin.
	TrackLoadDuration metric.Float64Histogram

	// DecodeDuration tracks per-frame decode pipeline latency.
	DecodeDuration metric.Float64Histogram

	// --- Counters ---

	// FramesEncoded counts Opus frames written to players.
	FramesEncoded metric.Int64Counter

	// FramesDropped counts frames dropped by the flow controller (buffer
	// underrun, filter error, or a player being paused).
	FramesDropped metric.Int64Counter

	// RTPPacketsSent counts RTP packets sent over the voice UDP transport.
	// Use with attribute: attribute.String("guild_id", ...)
	RTPPacketsSent metric.Int64Counter

	// TrackLoads counts loadtracks/search requests by outcome. Use with
	// attributes: attribute.String("source", ...), attribute.String("load_type", ...)
	TrackLoads metric.Int64Counter

	// --- Error counters ---

	// PlayerErrors counts player-level track exceptions. Use with
	// attributes: attribute.String("guild_id", ...), attribute.String("severity", ...)
	PlayerErrors metric.Int64Counter

	// SourceErrors counts source plugin fetch/resolve errors. Use with
	// attribute: attribute.String("source", ...)
	SourceErrors metric.Int64Counter

	// --- Gauges ---

	// ActivePlayers tracks the number of currently active players.
	ActivePlayers metric.Int64UpDownCounter

	// ActiveSessions tracks the number of live WebSocket sessions.
	ActiveSessions metric.Int64UpDownCounter

	// ConnectedVoiceLinks tracks the number of established Discord voice
	// gateway connections across all players.
	ConnectedVoiceLinks metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds), tuned for
// sub-frame-period audio pipeline latencies (Opus frames are 20ms).
var latencyBuckets = []float64{
	0.001, 0.0025, 0.005, 0.01, 0.02, 0.05, 0.1, 0.25, 0.5, 1,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.TrackLoadDuration, err = m.Float64Histogram("aurelink.track_load.duration",
		metric.WithDescription("Latency of loadtracks/search resolution per source."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.DecodeDuration, err = m.Float64Histogram("aurelink.decode.duration",
		metric.WithDescription("Latency of the per-frame decode pipeline."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.FramesEncoded, err = m.Int64Counter("aurelink.frames.encoded",
		metric.WithDescription("Total Opus frames written to players."),
	); err != nil {
		return nil, err
	}
	if met.FramesDropped, err = m.Int64Counter("aurelink.frames.dropped",
		metric.WithDescription("Total frames dropped by the flow controller."),
	); err != nil {
		return nil, err
	}
	if met.RTPPacketsSent, err = m.Int64Counter("aurelink.rtp.packets_sent",
		metric.WithDescription("Total RTP packets sent over voice UDP transports."),
	); err != nil {
		return nil, err
	}
	if met.TrackLoads, err = m.Int64Counter("aurelink.track.loads",
		metric.WithDescription("Total loadtracks/search requests by source and outcome."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.PlayerErrors, err = m.Int64Counter("aurelink.player.errors",
		metric.WithDescription("Total player track exceptions by guild and severity."),
	); err != nil {
		return nil, err
	}
	if met.SourceErrors, err = m.Int64Counter("aurelink.source.errors",
		metric.WithDescription("Total source plugin errors by source."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActivePlayers, err = m.Int64UpDownCounter("aurelink.active_players",
		metric.WithDescription("Number of currently active players."),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter("aurelink.active_sessions",
		metric.WithDescription("Number of live WebSocket sessions."),
	); err != nil {
		return nil, err
	}
	if met.ConnectedVoiceLinks, err = m.Int64UpDownCounter("aurelink.connected_voice_links",
		metric.WithDescription("Number of established Discord voice gateway connections."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("aurelink.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordTrackLoad is a convenience method that records a loadtracks/search
// request counter increment with the standard attribute set.
func (m *Metrics) RecordTrackLoad(ctx context.Context, source, loadType string) {
	m.TrackLoads.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("source", source),
			attribute.String("load_type", loadType),
		),
	)
}

// RecordPlayerError is a convenience method that records a player track
// exception counter increment with the standard attribute set.
func (m *Metrics) RecordPlayerError(ctx context.Context, guildID, severity string) {
	m.PlayerErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("guild_id", guildID),
			attribute.String("severity", severity),
		),
	)
}

// RecordSourceError is a convenience method that records a source plugin
// error counter increment.
func (m *Metrics) RecordSourceError(ctx context.Context, source string) {
	m.SourceErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("source", source)),
	)
}

// RecordRTPPacketSent is a convenience method that records an RTP packet
// sent counter increment for a guild's voice link.
func (m *Metrics) RecordRTPPacketSent(ctx context.Context, guildID string) {
	m.RTPPacketsSent.Add(ctx, 1,
		metric.WithAttributes(attribute.String("guild_id", guildID)),
	)
}
