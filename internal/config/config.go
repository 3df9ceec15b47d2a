// Package config provides the configuration schema, loader, and hot-reload
// watcher for the Aurelink audio node.
package config

// Config is the root configuration structure for Aurelink.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server       ServerConfig            `yaml:"server"`
	RoutePlanner RoutePlannerConfig      `yaml:"route_planner"`
	Sources      map[string]SourceConfig `yaml:"sources"`
	Lyrics       LyricsConfig            `yaml:"lyrics"`
	Filters      FiltersConfig           `yaml:"filters"`
	Player       PlayerConfig            `yaml:"player"`
}

// ServerConfig holds network, auth, and logging settings.
type ServerConfig struct {
	// Host is the interface the WS/REST listener binds to (e.g., "0.0.0.0").
	Host string `yaml:"host"`

	// Port is the TCP port the listener binds to.
	Port int `yaml:"port"`

	// Password is the shared secret clients present via the Authorization
	// header on WS upgrade and every REST call.
	Password string `yaml:"password"`

	// LogLevel controls verbosity. Valid values: "debug", "info", "warn", "error".
	LogLevel LogLevel `yaml:"log_level"`
}

// RoutePlannerConfig configures outbound IP rotation for remote source
// fetches, mirroring Lavalink's route-planner block.
type RoutePlannerConfig struct {
	Enabled     bool     `yaml:"enabled"`
	CIDRs       []string `yaml:"cidrs"`
	ExcludedIPs []string `yaml:"excluded_ips"`
}

// SourceConfig is the per-plugin configuration block. Options holds
// plugin-specific values (API keys, search prefixes, thresholds) not
// covered by the common Enabled flag.
type SourceConfig struct {
	Enabled bool           `yaml:"enabled"`
	Options map[string]any `yaml:"options"`
}

// LyricsConfig toggles which lyrics providers the node registers, matching
// the Rust original's per-provider config-gated registration.
type LyricsConfig struct {
	LRCLib     bool `yaml:"lrclib"`
	Genius     bool `yaml:"genius"`
	Musixmatch bool `yaml:"musixmatch"`
	Netease    bool `yaml:"netease"`
	Yandex     bool `yaml:"yandex"`
	Deezer     bool `yaml:"deezer"`
	YouTube    bool `yaml:"youtube"`
}

// FiltersConfig declares which filter kinds the DSP chain admits. Unknown
// filter names in an incoming `filters` REST payload are admitted by
// default regardless of this block (per spec), so this only controls
// whether the node advertises/enables the named built-ins.
type FiltersConfig struct {
	Enabled FilterToggles `yaml:"enabled"`
}

// FilterToggles enables or disables each built-in filter kind.
type FilterToggles struct {
	Volume     bool `yaml:"volume"`
	Equalizer  bool `yaml:"equalizer"`
	Karaoke    bool `yaml:"karaoke"`
	Timescale  bool `yaml:"timescale"`
	Tremolo    bool `yaml:"tremolo"`
	Vibrato    bool `yaml:"vibrato"`
	Distortion bool `yaml:"distortion"`
	Rotation   bool `yaml:"rotation"`
	ChannelMix bool `yaml:"channel_mix"`
	LowPass    bool `yaml:"low_pass"`
}

// PlayerConfig holds per-player runtime tuning shared across all sessions.
type PlayerConfig struct {
	StuckThresholdMs   int `yaml:"stuck_threshold_ms"`
	BufferDurationMs   int `yaml:"buffer_duration_ms"`
	UpdateIntervalSecs int `yaml:"update_interval_secs"`
	TapeEnterMs        int `yaml:"tape_enter_ms"`
	TapeLeaveMs        int `yaml:"tape_leave_ms"`
	MaxQueueSize       int `yaml:"max_queue_size"`
}
