package config_test

import (
	"strings"
	"testing"

	"github.com/aurelink/aurelink/internal/config"
)

const sampleYAML = `
server:
  host: "0.0.0.0"
  port: 2333
  password: youshallnotpass
  log_level: info

route_planner:
  enabled: true
  cidrs:
    - 10.0.0.0/24
  excluded_ips:
    - 10.0.0.1

sources:
  http:
    enabled: true
  mirror:
    enabled: true
    options:
      threshold: 0.85

lyrics:
  lrclib: true
  genius: true

filters:
  enabled:
    volume: true
    equalizer: true
    timescale: true

player:
  stuck_threshold_ms: 10000
  buffer_duration_ms: 400
  update_interval_secs: 5
  max_queue_size: 1000
`

func TestLoadFromReaderParsesFullConfig(t *testing.T) {
	cfg, err := config.LoadFromReader(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Server.Port != 2333 || cfg.Server.Password != "youshallnotpass" {
		t.Fatalf("server = %+v", cfg.Server)
	}
	if !cfg.RoutePlanner.Enabled || len(cfg.RoutePlanner.CIDRs) != 1 {
		t.Fatalf("route_planner = %+v", cfg.RoutePlanner)
	}
	if !cfg.Sources["http"].Enabled {
		t.Fatal("sources.http.enabled = false, want true")
	}
	if cfg.Sources["mirror"].Options["threshold"] != 0.85 {
		t.Fatalf("mirror threshold = %v, want 0.85", cfg.Sources["mirror"].Options["threshold"])
	}
	if !cfg.Lyrics.LRCLib || !cfg.Lyrics.Genius || cfg.Lyrics.Yandex {
		t.Fatalf("lyrics = %+v", cfg.Lyrics)
	}
	if !cfg.Filters.Enabled.Volume || !cfg.Filters.Enabled.Timescale || cfg.Filters.Enabled.Karaoke {
		t.Fatalf("filters = %+v", cfg.Filters.Enabled)
	}
	if cfg.Player.MaxQueueSize != 1000 {
		t.Fatalf("player.max_queue_size = %d, want 1000", cfg.Player.MaxQueueSize)
	}
}

func TestLoadFromReaderRejectsUnknownFields(t *testing.T) {
	_, err := config.LoadFromReader(strings.NewReader("server:\n  bogus_field: 1\n"))
	if err == nil {
		t.Fatal("expected an error for an unknown field")
	}
}
