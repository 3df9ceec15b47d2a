package session

import (
	"testing"
	"time"

	"github.com/aurelink/aurelink/internal/player"
)

func TestRegistry_ComputeStatsCountsPlayersAcrossSessions(t *testing.T) {
	r := newTestRegistry()

	pm1 := player.NewManager(nil, nil, player.Config{})
	pm1.GetOrCreate("g1")
	pm1.GetOrCreate("g2")
	r.NewSession("u1", &fakeSender{}, pm1)

	pm2 := player.NewManager(nil, nil, player.Config{})
	pm2.GetOrCreate("g3")
	r.NewSession("u2", &fakeSender{}, pm2)

	stats := r.ComputeStats(time.Now().Add(-time.Minute))

	if stats.Players != 3 {
		t.Errorf("Players = %d, want 3", stats.Players)
	}
	if stats.PlayingPlayers != 0 {
		t.Errorf("PlayingPlayers = %d, want 0 (nothing started playback)", stats.PlayingPlayers)
	}
	if stats.UptimeMs < 59000 {
		t.Errorf("UptimeMs = %d, want at least ~60000", stats.UptimeMs)
	}
	if stats.CPU.Cores <= 0 {
		t.Error("expected CPU.Cores to be positive")
	}
}

func TestRegistry_ComputeStatsEmptyRegistry(t *testing.T) {
	r := newTestRegistry()
	stats := r.ComputeStats(time.Now())

	if stats.Players != 0 || stats.PlayingPlayers != 0 {
		t.Errorf("expected zero players on an empty registry, got %+v", stats)
	}
}
