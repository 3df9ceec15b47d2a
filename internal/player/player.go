// Package player implements the per-guild Lavalink player: the
// voice-connection/track/filter state a WS or REST client manipulates,
// and the audio pipeline (decode stream -> flow controller -> overlay
// mixer) that feeds a pkg/voice.SpeakLoop.
package player

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aurelink/aurelink/pkg/codec"
	"github.com/aurelink/aurelink/pkg/flow"
	"github.com/aurelink/aurelink/pkg/lyrics"
	"github.com/aurelink/aurelink/pkg/mixer"
	"github.com/aurelink/aurelink/pkg/source"
	"github.com/aurelink/aurelink/pkg/track"
)

// VoiceState is the voice-connection half of a Player, set by the
// voiceUpdate op and echoed back verbatim in the Player response.
type VoiceState struct {
	Token     string `json:"token"`
	Endpoint  string `json:"endpoint"`
	SessionID string `json:"sessionId"`
	ChannelID string `json:"channelId,omitempty"`
}

// PlayerState is the `state` block of a Player response: a snapshot of
// timing and connectivity at the moment it was read.
type PlayerState struct {
	Time      int64 `json:"time"`
	Position  int64 `json:"position"`
	Connected bool  `json:"connected"`
	Ping      int64 `json:"ping"`
}

// Response is the full JSON shape of a Lavalink v4 Player object, as
// returned by GET/PATCH /v4/sessions/{id}/players/{guildId} and embedded
// in player events.
type Response struct {
	GuildID string         `json:"guildId"`
	Track   *track.Track   `json:"track"`
	Volume  int            `json:"volume"`
	Paused  bool           `json:"paused"`
	State   PlayerState    `json:"state"`
	Voice   VoiceState     `json:"voice"`
	Filters map[string]any `json:"filters"`
}

// Config bounds a Player's monitor loop and pause/resume ramp.
type Config struct {
	// UpdateInterval is how often a PlayerUpdate is emitted while a
	// track is playing. Defaults to 5s.
	UpdateInterval time.Duration
	// StuckThreshold is how long a track's position may stay unchanged
	// before it's declared stuck. Defaults to 10s.
	StuckThreshold time.Duration
	// ColdStuckThreshold is the stuck-detection window used while
	// position is still zero, giving slow-starting streams room to
	// buffer. Defaults to 30s; never applied if smaller than
	// StuckThreshold.
	ColdStuckThreshold time.Duration
	// TapeRampMs is the duration of the smooth pause/resume ramp.
	// Defaults to 40ms.
	TapeRampMs int
	// MonitorTick is how often the playback monitor loop wakes up to
	// check position/errors/lyrics. Defaults to 500ms; tests override it
	// to something much shorter to avoid slow, wall-clock-bound cases.
	MonitorTick time.Duration
}

func (c Config) withDefaults() Config {
	if c.UpdateInterval <= 0 {
		c.UpdateInterval = 5 * time.Second
	}
	if c.StuckThreshold <= 0 {
		c.StuckThreshold = 10 * time.Second
	}
	if c.ColdStuckThreshold <= 0 {
		c.ColdStuckThreshold = 30 * time.Second
	}
	if c.TapeRampMs <= 0 {
		c.TapeRampMs = 40
	}
	if c.MonitorTick <= 0 {
		c.MonitorTick = 500 * time.Millisecond
	}
	return c
}

// Player owns one guild's playback state: the current track and its
// decode stream, the per-track effects chain, an overlay mixer for
// soundboard-style layers, and the voice-connection state a WS client
// negotiated. It implements pkg/voice.FrameSource so a SpeakLoop can
// drive it directly.
type Player struct {
	guildID string
	sink    EventSink
	cfg     Config

	Mixer *mixer.Mixer
	Flow  *flow.Controller

	lyricsMgr *lyrics.Manager

	mu         sync.Mutex
	voice      VoiceState
	volume     int
	paused     bool
	connected  bool
	current    *track.Track
	stream     *source.DecodeStream
	handle     *source.TrackHandle
	endTimeMs  *int64
	filtersRaw map[string]any
	lyricsData *lyrics.Data
	lyricsSent int

	streamEnded atomic.Bool
	userStopped atomic.Bool

	tape      *flow.Tape
	tapeStash []int16

	monitorCancel context.CancelFunc
	monitorDone   chan struct{}

	pingMs atomic.Int64
}

// New creates an idle Player for guildID. sink receives every event this
// player emits; lyricsMgr may be nil to disable lyrics fetching.
func New(guildID string, sink EventSink, lyricsMgr *lyrics.Manager, cfg Config) *Player {
	if sink == nil {
		sink = NopSink{}
	}
	p := &Player{
		guildID:   guildID,
		sink:      sink,
		cfg:       cfg.withDefaults(),
		Mixer:     mixer.New(),
		Flow:      flow.NewController(codec.SampleRate, codec.Channels),
		lyricsMgr: lyricsMgr,
		volume:    100,
	}
	p.pingMs.Store(-1)
	return p
}

// GuildID returns the guild this player belongs to.
func (p *Player) GuildID() string { return p.guildID }

// SetVoiceState upserts the voice-connection half of the player.
// Returns true if token, endpoint, or session ID actually changed,
// signalling the caller should (re)start the voice gateway.
func (p *Player) SetVoiceState(vs VoiceState) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	changed := p.voice.Token != vs.Token || p.voice.Endpoint != vs.Endpoint || p.voice.SessionID != vs.SessionID
	p.voice = vs
	return changed
}

// SetConnected records whether the underlying voice gateway is currently
// in the Ready state, for the `state.connected` field of the player
// response. The player itself never dials a gateway; whatever owns the
// voice.Gateway/session.Reconnector for this guild calls this.
func (p *Player) SetConnected(connected bool) {
	p.mu.Lock()
	p.connected = connected
	p.mu.Unlock()
}

// SetPing records the voice gateway's heartbeat round-trip time in
// milliseconds, or -1 if unknown/disconnected.
func (p *Player) SetPing(ms int64) { p.pingMs.Store(ms) }

// SetVolume sets the player volume (0-1000 baseline, values above 1000
// are allowed and compressed by the flow controller's soft limiter).
func (p *Player) SetVolume(v int) {
	if v < 0 {
		v = 0
	}
	p.mu.Lock()
	p.volume = v
	p.mu.Unlock()
	p.Flow.Volume.SetVolume(float64(v) / 1000.0)
}

// Volume returns the current player volume.
func (p *Player) Volume() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// SetPaused toggles playback, ramping smoothly through a Tape effect
// rather than cutting the audio off mid-sample.
func (p *Player) SetPaused(paused bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.paused == paused {
		return
	}
	p.paused = paused
	if p.handle == nil {
		return
	}
	if paused {
		p.handle.Pause()
		p.tape = flow.NewTape(flow.TapeStopping, p.cfg.TapeRampMs, codec.SampleRate)
	} else {
		p.handle.Play()
		p.tape = flow.NewTape(flow.TapeStarting, p.cfg.TapeRampMs, codec.SampleRate)
	}
}

// Paused reports whether the player is currently paused.
func (p *Player) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// SetFilters stores the raw filters payload for echoing back in the
// player response. Translating it onto the DSP chain (Player.Flow) is
// the REST/WS layer's job, since the wire shape is a JSON document and
// pkg/filters operates purely on typed Go fields.
func (p *Player) SetFilters(raw map[string]any) {
	p.mu.Lock()
	p.filtersRaw = raw
	p.mu.Unlock()
}

// SetEndTime sets or clears the track's scheduled end position.
func (p *Player) SetEndTime(endTimeMs *int64) {
	p.mu.Lock()
	p.endTimeMs = endTimeMs
	p.mu.Unlock()
}

// CurrentTrack returns the currently playing track, or nil.
func (p *Player) CurrentTrack() *track.Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Handle returns the TrackHandle for the currently playing track, or
// nil if nothing is playing.
func (p *Player) Handle() *source.TrackHandle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handle
}

// ToResponse snapshots the player into its wire representation.
func (p *Player) ToResponse() Response {
	p.mu.Lock()
	defer p.mu.Unlock()

	var position int64
	if p.handle != nil {
		position = int64(p.handle.PositionMs())
	}

	return Response{
		GuildID: p.guildID,
		Track:   p.current,
		Volume:  p.volume,
		Paused:  p.paused,
		State: PlayerState{
			Time:      time.Now().UnixMilli(),
			Position:  position,
			Connected: p.connected,
			Ping:      p.pingMs.Load(),
		},
		Voice:   p.voice,
		Filters: p.filtersRaw,
	}
}

// Destroy stops any in-flight track and tears down the player,
// emitting TrackEnd(Cleanup) if a track was live. The caller is
// responsible for separately tearing down the voice gateway/speak loop
// this player was feeding.
func (p *Player) Destroy() {
	p.mu.Lock()
	prev, handle := p.current, p.handle
	p.stopMonitorLocked()
	p.current, p.stream, p.handle = nil, nil, nil
	p.mu.Unlock()

	if handle != nil {
		p.userStopped.Store(true)
		handle.Stop()
	}
	if prev != nil {
		p.sink.TrackEnd(p.guildID, *prev, EndCleanup)
	}
}

// Stop halts the current track without destroying the player, emitting
// TrackEnd(Stopped) once the monitor loop observes the decode stream has
// drained.
func (p *Player) Stop() {
	p.mu.Lock()
	handle := p.handle
	p.mu.Unlock()
	if handle == nil {
		return
	}
	p.userStopped.Store(true)
	handle.Stop()
}

func (p *Player) stopMonitorLocked() {
	if p.monitorCancel != nil {
		p.monitorCancel()
		p.monitorCancel = nil
	}
}

// NextOpusFrame implements pkg/voice.FrameSource. It only returns a
// frame when the current track is Opus-passthrough-eligible, no overlay
// layers are active (they'd require PCM to blend), and no per-track
// filter needs PCM rewrite.
func (p *Player) NextOpusFrame() ([]byte, bool) {
	p.mu.Lock()
	stream := p.stream
	paused := p.paused
	tape := p.tape
	mix := p.Mixer
	chain := p.Flow.Filters
	p.mu.Unlock()

	if stream == nil || stream.Opus == nil || paused || tape != nil {
		return nil, false
	}
	if mix.LayerCount() > 0 || chain.IsEnabled() {
		return nil, false
	}

	select {
	case packet, ok := <-stream.Opus:
		if !ok {
			p.streamEnded.Store(true)
			return nil, false
		}
		return packet, true
	default:
		return nil, false
	}
}

// MixPCM implements pkg/voice.FrameSource: it pulls the next decoded
// frame (running it through the per-track flow controller), blends in
// any overlay mixer layers, and reports whether anything audible landed
// in buf this tick.
func (p *Player) MixPCM(buf []int16) bool {
	p.mu.Lock()
	stream := p.stream
	paused := p.paused
	tape := p.tape
	flowCtl := p.Flow
	mix := p.Mixer
	p.mu.Unlock()

	trackAudio := false

	switch {
	case tape != nil:
		trackAudio = p.runTape(buf, stream, tape)
	case stream != nil && !paused:
		trackAudio = p.fillFromStream(buf, stream, flowCtl)
	}

	overlayAudio := mix.Mix(buf)
	return trackAudio || overlayAudio
}

func (p *Player) fillFromStream(buf []int16, stream *source.DecodeStream, flowCtl *flow.Controller) bool {
	if stream.PCM == nil {
		return false
	}
	select {
	case frame, ok := <-stream.PCM:
		if !ok {
			p.streamEnded.Store(true)
			return false
		}
		n := copy(buf, frame)
		for i := n; i < len(buf); i++ {
			buf[i] = 0
		}
		flowCtl.ProcessFrame(buf)
		return true
	default:
		return false
	}
}

// runTape drives a pause/resume ramp, refilling its lookahead stash
// straight from the decode stream's PCM channel. Once the ramp
// completes (or the stream has nothing left to refill it with) the tape
// is cleared so MixPCM goes back to the normal path next tick.
func (p *Player) runTape(buf []int16, stream *source.DecodeStream, tape *flow.Tape) bool {
	// The stash only ever grows for the few frames a ramp spans, so it's
	// appended to in place rather than trimmed: Tape.Process addresses
	// it by an ever-increasing read position, not a sliding window.
	refill := func(stash []int16) []int16 {
		if stream == nil || stream.PCM == nil {
			return stash
		}
		select {
		case frame, ok := <-stream.PCM:
			if !ok {
				p.streamEnded.Store(true)
				return stash
			}
			p.tapeStash = append(p.tapeStash, frame...)
			return p.tapeStash
		default:
			return stash
		}
	}

	tape.Process(buf, p.tapeStash, refill)
	p.Flow.ProcessFrame(buf)

	if tape.Done() {
		p.mu.Lock()
		p.tape = nil
		p.tapeStash = nil
		p.mu.Unlock()
	}
	return true
}

var errNoHandle = fmt.Errorf("player: no track currently playing")
