package ws

import (
	"encoding/json"
	"sync"

	"github.com/aurelink/aurelink/internal/player"
	"github.com/aurelink/aurelink/internal/session"
	"github.com/aurelink/aurelink/pkg/lyrics"
	"github.com/aurelink/aurelink/pkg/track"
)

// eventEnvelope is the common shape of every `event` op Lavalink v4
// clients expect, keyed by Type with the event-specific fields folded
// in via Extra at marshal time.
type eventEnvelope struct {
	Op      string         `json:"op"`
	Type    string         `json:"type"`
	GuildID string         `json:"guildId"`
	Extra   map[string]any `json:"-"`
}

func (e eventEnvelope) MarshalJSON() ([]byte, error) {
	m := map[string]any{"op": e.Op, "type": e.Type, "guildId": e.GuildID}
	for k, v := range e.Extra {
		m[k] = v
	}
	return json.Marshal(m)
}

type playerUpdateMessage struct {
	Op      string             `json:"op"`
	GuildID string             `json:"guildId"`
	State   player.PlayerState `json:"state"`
}

// sink is the player.EventSink every player created over this WS
// connection's session shares. Session.Send queues while the transport is
// paused; while it is live, Send writes directly and can block for up to
// the session's write timeout.
type sink struct {
	mu   sync.Mutex
	sess *session.Session
}

func newSink() *sink { return &sink{} }

func (s *sink) attach(sess *session.Session) {
	s.mu.Lock()
	s.sess = sess
	s.mu.Unlock()
}

func (s *sink) session() *session.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess
}

func (s *sink) send(v any) {
	if sess := s.session(); sess != nil {
		sess.SendJSON(v)
	}
}

func (s *sink) TrackStart(guildID string, t track.Track) {
	s.send(eventEnvelope{Op: "event", Type: "TrackStart", GuildID: guildID, Extra: map[string]any{"track": t}})
}

func (s *sink) TrackEnd(guildID string, t track.Track, reason player.EndReason) {
	s.send(eventEnvelope{Op: "event", Type: "TrackEnd", GuildID: guildID, Extra: map[string]any{"track": t, "reason": reason}})
}

func (s *sink) TrackException(guildID string, t track.Track, message string, severity track.Severity) {
	s.send(eventEnvelope{Op: "event", Type: "TrackException", GuildID: guildID, Extra: map[string]any{
		"track":     t,
		"exception": map[string]any{"message": message, "severity": severity},
	}})
}

func (s *sink) TrackStuck(guildID string, t track.Track, thresholdMs int64) {
	s.send(eventEnvelope{Op: "event", Type: "TrackStuck", GuildID: guildID, Extra: map[string]any{"track": t, "thresholdMs": thresholdMs}})
}

func (s *sink) WebSocketClosed(guildID string, code int, reason string, byRemote bool) {
	s.send(eventEnvelope{Op: "event", Type: "WebSocketClosed", GuildID: guildID, Extra: map[string]any{
		"code": code, "reason": reason, "byRemote": byRemote,
	}})
}

func (s *sink) PlayerUpdate(guildID string, state player.PlayerState) {
	s.send(playerUpdateMessage{Op: "playerUpdate", GuildID: guildID, State: state})
}

func (s *sink) LyricsFound(guildID string, data *lyrics.Data) {
	s.send(eventEnvelope{Op: "event", Type: "LyricsFound", GuildID: guildID, Extra: map[string]any{"lyrics": data}})
}

func (s *sink) LyricsNotFound(guildID string) {
	s.send(eventEnvelope{Op: "event", Type: "LyricsNotFound", GuildID: guildID})
}

func (s *sink) LyricsLine(guildID string, line lyrics.Line) {
	s.send(eventEnvelope{Op: "event", Type: "LyricsLine", GuildID: guildID, Extra: map[string]any{"line": line}})
}
