package session

import (
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Stats is the Lavalink v4 `stats` WS payload: a node-wide snapshot
// broadcast to every connected session every 60s.
type Stats struct {
	Players        int         `json:"players"`
	PlayingPlayers int         `json:"playingPlayers"`
	UptimeMs       int64       `json:"uptime"`
	Memory         MemoryStats `json:"memory"`
	CPU            CPUStats    `json:"cpu"`
	FrameStats     *FrameStats `json:"frameStats,omitempty"`
}

// MemoryStats mirrors the JVM-shaped memory block Lavalink clients expect,
// populated here from the Go runtime's own heap accounting.
type MemoryStats struct {
	Reserved  uint64 `json:"reserved"`
	Used      uint64 `json:"used"`
	Free      uint64 `json:"free"`
	Allocated uint64 `json:"allocated"`
}

// CPUStats reports core count and load, best-effort since Go's runtime
// doesn't expose an OS load average the way the JVM stats block assumes.
type CPUStats struct {
	Cores        int     `json:"cores"`
	SystemLoad   float64 `json:"systemLoad"`
	LavalinkLoad float64 `json:"lavalinkLoad"`
}

// FrameStats is the optional frame-counter block of a Stats message.
// ComputeStats leaves it nil and no code path fills it, so it is always
// omitted from the JSON.
type FrameStats struct {
	Sent    uint64 `json:"sent"`
	Nulled  uint64 `json:"nulled"`
	Deficit int64  `json:"deficit"`
}

// ComputeStats aggregates player counts across every active session and
// reads current Go runtime memory stats, matching the node-wide heartbeat
// the spec's session manager sends every 60s. startedAt is the node's own
// start time (not any one session's).
func (r *Registry) ComputeStats(startedAt time.Time) Stats {
	sessions := r.ActiveSessions()

	var players, playing int
	for _, s := range sessions {
		if s.Players == nil {
			continue
		}
		players += s.Players.Len()
		playing += s.Players.PlayingCount()
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return Stats{
		Players:        players,
		PlayingPlayers: playing,
		UptimeMs:       time.Since(startedAt).Milliseconds(),
		Memory: MemoryStats{
			Reserved:  mem.Sys,
			Used:      mem.HeapInuse,
			Free:      mem.HeapIdle,
			Allocated: mem.HeapAlloc,
		},
		CPU: CPUStats{
			Cores:        runtime.NumCPU(),
			SystemLoad:   systemLoadAvg(),
			LavalinkLoad: mem.GCCPUFraction,
		},
	}
}

// systemLoadAvg reads the 1-minute load average from /proc/loadavg. It
// returns 0 on any platform or error where that file doesn't exist
// (non-Linux), since Go's runtime has no portable load-average API.
func systemLoadAvg() float64 {
	data, err := os.ReadFile("/proc/loadavg")
	if err != nil {
		return 0
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return 0
	}
	load, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0
	}
	return load
}
