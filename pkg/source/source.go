// Package source defines the plugin contract every track source (HTTP,
// mirror/ISRC cross-matching, and any future platform-specific plugin)
// implements, plus the Registry that owns an ordered list of them and the
// PlayableTrack factory shape a resolved track starts decoding from.
package source

import (
	"context"
	"math"
	"sync/atomic"

	"github.com/aurelink/aurelink/pkg/routeplanner"
	"github.com/aurelink/aurelink/pkg/track"
)

// SearchResult is the LavaSearch-compatible payload load_search returns:
// results grouped by entity type rather than a single flat track list.
type SearchResult struct {
	Tracks    []track.Track    `json:"tracks"`
	Albums    []track.Playlist `json:"albums"`
	Artists   []track.Playlist `json:"artists"`
	Playlists []track.Playlist `json:"playlists"`
	Texts     []SearchText     `json:"texts"`
	Plugin    map[string]any   `json:"plugin"`
}

// SearchText is a free-text search hit a plugin can return alongside
// tracks and playlists (e.g. a lyrics snippet or voice-prompt match).
type SearchText struct {
	Text   string         `json:"text"`
	Plugin map[string]any `json:"plugin"`
}

// SearchType selects which SearchResult categories load_search should
// populate; an empty slice passed to Registry.LoadSearch means "all of
// them".
type SearchType string

const (
	SearchTypeTrack    SearchType = "track"
	SearchTypeAlbum    SearchType = "album"
	SearchTypeArtist   SearchType = "artist"
	SearchTypePlaylist SearchType = "playlist"
	SearchTypeText     SearchType = "text"
)

// Plugin is the interface every source implements. Load and GetTrack are
// mandatory; LoadSearch, SearchPrefixes, ISRCPrefixes, RecPrefixes, and
// IsMirror have zero-value defaults (nil/empty/false) a plugin can leave
// unimplemented by embedding NopExtras.
type Plugin interface {
	// Name identifies this source in Track.Info.SourceName and log lines.
	Name() string
	// CanHandle reports whether identifier's prefix or URL shape belongs
	// to this source.
	CanHandle(identifier string) bool
	// Load resolves identifier into a track.LoadResult. planner may be
	// nil.
	Load(ctx context.Context, identifier string, planner routeplanner.Planner) (track.LoadResult, error)
	// GetTrack returns a PlayableTrack factory for a track this plugin
	// owns, or nil if it can't produce one (e.g. identifier resolves to
	// a track from a different source than expected).
	GetTrack(ctx context.Context, identifier string, planner routeplanner.Planner) (PlayableTrack, error)
	// LoadSearch performs a LavaSearch-style multi-category search, or
	// returns nil if this plugin doesn't support search.
	LoadSearch(ctx context.Context, query string, types []SearchType, planner routeplanner.Planner) (*SearchResult, error)
	// SearchPrefixes lists the "xxsearch:" prefixes this plugin claims
	// (e.g. "ytsearch", "spsearch").
	SearchPrefixes() []string
	// ISRCPrefixes lists the "xxisrc:" prefixes this plugin claims.
	ISRCPrefixes() []string
	// RecPrefixes lists the "xxrec:" (recommendation/radio) prefixes
	// this plugin claims.
	RecPrefixes() []string
	// IsMirror reports whether this plugin only ever runs as a fallback
	// once every non-mirror plugin has failed to resolve a track.
	IsMirror() bool
}

// NopExtras gives a concrete Plugin the Rust trait's default-method
// behavior for the optional parts of the contract: no search support, no
// prefixes, not a mirror. Embed it and override what's needed.
type NopExtras struct{}

func (NopExtras) LoadSearch(ctx context.Context, query string, types []SearchType, planner routeplanner.Planner) (*SearchResult, error) {
	return nil, nil
}
func (NopExtras) SearchPrefixes() []string { return nil }
func (NopExtras) ISRCPrefixes() []string   { return nil }
func (NopExtras) RecPrefixes() []string    { return nil }
func (NopExtras) IsMirror() bool           { return false }

// DecoderCommandKind distinguishes the two commands a decode loop accepts
// from its TrackHandle.
type DecoderCommandKind int

const (
	CommandSeek DecoderCommandKind = iota
	CommandStop
)

// DecoderCommand is sent on a PlayableTrack's command channel to control
// an in-progress decode.
type DecoderCommand struct {
	Kind       DecoderCommandKind
	PositionMs uint64
}

// PlaybackState mirrors the three states a decode loop can be in,
// observable through TrackHandle without touching the decode goroutine.
type PlaybackState int32

const (
	PlaybackPlaying PlaybackState = iota
	PlaybackPaused
	PlaybackStopped
)

// DecodeStream is what Start returns: the channel quartet the player
// manager wires into the mixer and its monitor loop.
type DecodeStream struct {
	// PCM carries fixed-size 20ms stereo frames for tracks that need
	// decoding.
	PCM <-chan []int16
	// Opus carries raw Opus packets for passthrough containers (nil
	// channel when the track isn't passthrough-eligible); the player
	// manager adds whichever of PCM/Opus is non-nil to the mixer.
	Opus <-chan []byte
	// Errors receives at most one value: a fatal decode/IO error that
	// ends the stream early.
	Errors <-chan error
	// Handle lets callers pause/play/stop/seek/set-volume and observe
	// position without touching the decode goroutine directly.
	Handle *TrackHandle
}

// PlayableTrack is a factory for a single playback of a resolved track:
// calling Start spins up the decode goroutine and returns the channels
// and handle the player manager drives it with.
type PlayableTrack interface {
	Start(ctx context.Context) (*DecodeStream, error)
}

// TrackHandle is the control surface for one in-flight decode: atomic
// state/volume/position fields so the REST and WS layers can read them
// without a lock, plus a command channel for seek/stop.
type TrackHandle struct {
	state    atomic.Int32
	volume   atomic.Uint32 // float32 bits, IEEE 754
	position atomic.Uint64 // position in samples at 48kHz

	commands chan<- DecoderCommand
}

// NewTrackHandle builds a handle in the Playing state at unity volume,
// sending commands on commands.
func NewTrackHandle(commands chan<- DecoderCommand) *TrackHandle {
	h := &TrackHandle{commands: commands}
	h.state.Store(int32(PlaybackPlaying))
	h.volume.Store(math.Float32bits(1.0))
	return h
}

func (h *TrackHandle) Pause() { h.state.Store(int32(PlaybackPaused)) }
func (h *TrackHandle) Play()  { h.state.Store(int32(PlaybackPlaying)) }
func (h *TrackHandle) Stop() {
	h.state.Store(int32(PlaybackStopped))
	select {
	case h.commands <- DecoderCommand{Kind: CommandStop}:
	default:
	}
}

// State reports the current playback state.
func (h *TrackHandle) State() PlaybackState {
	return PlaybackState(h.state.Load())
}

// SetVolume stores a new linear gain; the decode loop's flow controller
// reads this through whatever wiring the player manager set up.
func (h *TrackHandle) SetVolume(v float32) { h.volume.Store(math.Float32bits(v)) }

// Volume reads the current linear gain.
func (h *TrackHandle) Volume() float32 { return math.Float32frombits(h.volume.Load()) }

// PositionMs converts the stored sample position to milliseconds at the
// fixed 48kHz pipeline rate.
func (h *TrackHandle) PositionMs() uint64 {
	return h.position.Load() * 1000 / 48000
}

// SetPositionSamples lets the decode loop publish its progress; called
// once per frame by the loop that owns this handle.
func (h *TrackHandle) SetPositionSamples(samples uint64) { h.position.Store(samples) }

// Seek requests the decode loop jump to positionMs, updating the visible
// position immediately (optimistic, matching the Rust handle's same
// store-then-send order) even though the actual seek happens
// asynchronously on the decode goroutine.
func (h *TrackHandle) Seek(positionMs uint64) {
	h.position.Store(positionMs * 48000 / 1000)
	select {
	case h.commands <- DecoderCommand{Kind: CommandSeek, PositionMs: positionMs}:
	default:
	}
}
