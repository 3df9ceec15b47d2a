package player

import (
	"github.com/aurelink/aurelink/pkg/lyrics"
	"github.com/aurelink/aurelink/pkg/track"
)

// EndReason classifies why a track stopped playing, matching the
// `event.reason` values of the Lavalink v4 TrackEnd payload.
type EndReason string

const (
	EndFinished   EndReason = "finished"
	EndLoadFailed EndReason = "loadFailed"
	EndStopped    EndReason = "stopped"
	EndReplaced   EndReason = "replaced"
	EndCleanup    EndReason = "cleanup"
)

// EventSink receives every player event the WS layer forwards to its
// client, plus the periodic PlayerUpdate. A Manager/Player never blocks
// waiting on a sink call, so implementations that need to do I/O (write
// to a websocket) should queue internally rather than making the caller
// wait.
type EventSink interface {
	TrackStart(guildID string, t track.Track)
	TrackEnd(guildID string, t track.Track, reason EndReason)
	TrackException(guildID string, t track.Track, message string, severity track.Severity)
	TrackStuck(guildID string, t track.Track, thresholdMs int64)
	WebSocketClosed(guildID string, code int, reason string, byRemote bool)
	PlayerUpdate(guildID string, state PlayerState)
	LyricsFound(guildID string, data *lyrics.Data)
	LyricsNotFound(guildID string)
	LyricsLine(guildID string, line lyrics.Line)
}

// NopSink discards every event; useful for tests and for a player built
// before its owning session has a WS client attached.
type NopSink struct{}

func (NopSink) TrackStart(string, track.Track)                             {}
func (NopSink) TrackEnd(string, track.Track, EndReason)                    {}
func (NopSink) TrackException(string, track.Track, string, track.Severity) {}
func (NopSink) TrackStuck(string, track.Track, int64)                      {}
func (NopSink) WebSocketClosed(string, int, string, bool)                  {}
func (NopSink) PlayerUpdate(string, PlayerState)                           {}
func (NopSink) LyricsFound(string, *lyrics.Data)                           {}
func (NopSink) LyricsNotFound(string)                                      {}
func (NopSink) LyricsLine(string, lyrics.Line)                             {}
