package config_test

import (
	"strings"
	"testing"

	"github.com/aurelink/aurelink/internal/config"
)

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := &config.Config{Server: config.ServerConfig{LogLevel: "verbose"}}
	if err := config.Validate(cfg); err == nil {
		t.Fatal("expected an error for an invalid log_level")
	}
}

func TestValidateRejectsPortOutOfRange(t *testing.T) {
	cfg := &config.Config{Server: config.ServerConfig{Port: 70000}}
	if err := config.Validate(cfg); err == nil {
		t.Fatal("expected an error for a port out of range")
	}
}

func TestValidateRejectsRoutePlannerEnabledWithNoCIDRs(t *testing.T) {
	cfg := &config.Config{RoutePlanner: config.RoutePlannerConfig{Enabled: true}}
	if err := config.Validate(cfg); err == nil {
		t.Fatal("expected an error when route_planner is enabled with no cidrs")
	}
}

func TestValidateRejectsNegativePlayerTuning(t *testing.T) {
	cfg := &config.Config{Player: config.PlayerConfig{MaxQueueSize: -1}}
	if err := config.Validate(cfg); err == nil {
		t.Fatal("expected an error for a negative max_queue_size")
	}
}

func TestValidateAcceptsAnEmptyConfig(t *testing.T) {
	if err := config.Validate(&config.Config{}); err != nil {
		t.Fatalf("Validate(empty) = %v, want nil", err)
	}
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	if _, err := config.Load("/nonexistent/path/to/config.yaml"); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestLoadFromReaderPropagatesYAMLSyntaxErrors(t *testing.T) {
	_, err := config.LoadFromReader(strings.NewReader("server: [unterminated"))
	if err == nil {
		t.Fatal("expected a YAML decode error")
	}
}
