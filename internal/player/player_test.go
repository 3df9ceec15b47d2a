package player

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aurelink/aurelink/pkg/lyrics"
	"github.com/aurelink/aurelink/pkg/routeplanner"
	"github.com/aurelink/aurelink/pkg/source"
	"github.com/aurelink/aurelink/pkg/track"
)

var errDecodeBoom = errors.New("decode boom")

// recordingSink captures every event a Player emits for assertions.
type recordingSink struct {
	mu          sync.Mutex
	starts      []track.Track
	ends        []endCall
	exceptions  []track.Track
	stuck       []track.Track
	updates     []PlayerState
	lyricsFound int
	lyricsMiss  int
	lyricsLines []lyrics.Line
}

type endCall struct {
	t      track.Track
	reason EndReason
}

func (s *recordingSink) TrackStart(_ string, t track.Track) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.starts = append(s.starts, t)
}
func (s *recordingSink) TrackEnd(_ string, t track.Track, reason EndReason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ends = append(s.ends, endCall{t, reason})
}
func (s *recordingSink) TrackException(_ string, t track.Track, _ string, _ track.Severity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exceptions = append(s.exceptions, t)
}
func (s *recordingSink) TrackStuck(_ string, t track.Track, _ int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stuck = append(s.stuck, t)
}
func (s *recordingSink) WebSocketClosed(string, int, string, bool) {}
func (s *recordingSink) PlayerUpdate(_ string, state PlayerState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, state)
}
func (s *recordingSink) LyricsFound(string, *lyrics.Data) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lyricsFound++
}
func (s *recordingSink) LyricsNotFound(string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lyricsMiss++
}
func (s *recordingSink) LyricsLine(_ string, l lyrics.Line) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lyricsLines = append(s.lyricsLines, l)
}

func (s *recordingSink) endCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ends)
}

func (s *recordingSink) lastEnd() (endCall, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.ends) == 0 {
		return endCall{}, false
	}
	return s.ends[len(s.ends)-1], true
}

// fakePlayableTrack hands back channels the test drives directly.
type fakePlayableTrack struct {
	pcm    chan []int16
	errs   chan error
	handle *source.TrackHandle
}

func newFakePlayableTrack() *fakePlayableTrack {
	commands := make(chan source.DecoderCommand, 4)
	return &fakePlayableTrack{
		pcm:    make(chan []int16, 8),
		errs:   make(chan error, 1),
		handle: source.NewTrackHandle(commands),
	}
}

func (f *fakePlayableTrack) Start(ctx context.Context) (*source.DecodeStream, error) {
	return &source.DecodeStream{PCM: f.pcm, Errors: f.errs, Handle: f.handle}, nil
}

type fakePlugin struct {
	source.NopExtras
	name string
	pt   source.PlayableTrack
}

func (f *fakePlugin) Name() string                    { return f.name }
func (f *fakePlugin) CanHandle(identifier string) bool { return true }
func (f *fakePlugin) Load(ctx context.Context, identifier string, planner routeplanner.Planner) (track.LoadResult, error) {
	return track.EmptyResult(), nil
}
func (f *fakePlugin) GetTrack(ctx context.Context, identifier string, planner routeplanner.Planner) (source.PlayableTrack, error) {
	return f.pt, nil
}

func testConfig() Config {
	return Config{MonitorTick: 2 * time.Millisecond, UpdateInterval: 4 * time.Millisecond, StuckThreshold: 20 * time.Millisecond, ColdStuckThreshold: 20 * time.Millisecond}
}

func TestPlayer_VolumeClampAndSnapshot(t *testing.T) {
	p := New("g1", nil, nil, Config{})

	p.SetVolume(-50)
	if v := p.Volume(); v != 0 {
		t.Errorf("Volume() = %d, want 0", v)
	}

	p.SetVolume(500)
	if v := p.Volume(); v != 500 {
		t.Errorf("Volume() = %d, want 500", v)
	}
	if gain := p.Flow.Volume.CurrentVolume(); gain < 0 || gain > 1 {
		t.Errorf("CurrentVolume() = %v, want a value in [0,1]", gain)
	}
}

func TestPlayer_SetVoiceStateReportsChange(t *testing.T) {
	p := New("g1", nil, nil, Config{})

	changed := p.SetVoiceState(VoiceState{Token: "t1", Endpoint: "e1", SessionID: "s1"})
	if !changed {
		t.Error("expected first SetVoiceState to report a change")
	}

	changed = p.SetVoiceState(VoiceState{Token: "t1", Endpoint: "e1", SessionID: "s1"})
	if changed {
		t.Error("expected identical SetVoiceState to report no change")
	}

	changed = p.SetVoiceState(VoiceState{Token: "t2", Endpoint: "e1", SessionID: "s1"})
	if !changed {
		t.Error("expected token change to report a change")
	}
}

func TestPlayer_ToResponseReflectsState(t *testing.T) {
	p := New("g1", nil, nil, Config{})
	p.SetVoiceState(VoiceState{Token: "t", Endpoint: "e", SessionID: "s", ChannelID: "c"})
	p.SetConnected(true)
	p.SetPing(42)
	p.SetVolume(200)

	resp := p.ToResponse()
	if resp.GuildID != "g1" {
		t.Errorf("GuildID = %q, want g1", resp.GuildID)
	}
	if resp.Volume != 200 {
		t.Errorf("Volume = %d, want 200", resp.Volume)
	}
	if !resp.State.Connected {
		t.Error("expected Connected = true")
	}
	if resp.State.Ping != 42 {
		t.Errorf("Ping = %d, want 42", resp.State.Ping)
	}
	if resp.Voice.ChannelID != "c" {
		t.Errorf("Voice.ChannelID = %q, want c", resp.Voice.ChannelID)
	}
	if resp.Track != nil {
		t.Error("expected nil Track before any playback")
	}
}

func TestPlayer_MixPCMPullsAndProcessesFrame(t *testing.T) {
	p := New("g1", nil, nil, Config{})
	ft := newFakePlayableTrack()
	p.stream = &source.DecodeStream{PCM: ft.pcm, Errors: ft.errs, Handle: ft.handle}
	p.handle = ft.handle

	frame := make([]int16, 1920)
	for i := range frame {
		frame[i] = 1000
	}
	ft.pcm <- frame

	buf := make([]int16, 1920)
	if ok := p.MixPCM(buf); !ok {
		t.Fatal("expected MixPCM to report audio contributed")
	}
	if buf[0] == 0 {
		t.Error("expected buf to be filled with non-zero samples")
	}
}

func TestPlayer_MixPCMNoFrameReady(t *testing.T) {
	p := New("g1", nil, nil, Config{})
	ft := newFakePlayableTrack()
	p.stream = &source.DecodeStream{PCM: ft.pcm, Errors: ft.errs, Handle: ft.handle}
	p.handle = ft.handle

	buf := make([]int16, 1920)
	if ok := p.MixPCM(buf); ok {
		t.Error("expected MixPCM to report no audio when channel is empty")
	}
}

func TestPlayer_MixPCMDetectsStreamClosed(t *testing.T) {
	p := New("g1", nil, nil, Config{})
	ft := newFakePlayableTrack()
	p.stream = &source.DecodeStream{PCM: ft.pcm, Errors: ft.errs, Handle: ft.handle}
	p.handle = ft.handle
	close(ft.pcm)

	buf := make([]int16, 1920)
	if ok := p.MixPCM(buf); ok {
		t.Error("expected MixPCM to report no audio from a closed channel")
	}
	if !p.streamEnded.Load() {
		t.Error("expected streamEnded to be set after observing a closed PCM channel")
	}
}

func TestPlayer_PauseRunsTapeRamp(t *testing.T) {
	p := New("g1", nil, nil, Config{TapeRampMs: 5})
	ft := newFakePlayableTrack()
	p.stream = &source.DecodeStream{PCM: ft.pcm, Errors: ft.errs, Handle: ft.handle}
	p.handle = ft.handle

	for i := 0; i < 4; i++ {
		frame := make([]int16, 1920)
		for j := range frame {
			frame[j] = 500
		}
		ft.pcm <- frame
	}

	p.SetPaused(true)
	if !p.Paused() {
		t.Fatal("expected Paused() true")
	}

	buf := make([]int16, 1920)
	for i := 0; i < 10 && p.tape != nil; i++ {
		p.MixPCM(buf)
	}
	if p.tape != nil {
		t.Error("expected tape ramp to complete within a handful of ticks")
	}
}

func TestPlayer_DestroyEmitsCleanup(t *testing.T) {
	sink := &recordingSink{}
	p := New("g1", sink, nil, Config{})
	ft := newFakePlayableTrack()
	tr := track.New(track.Info{Identifier: "x", SourceName: "fake"})
	p.current = &tr
	p.stream = &source.DecodeStream{PCM: ft.pcm, Errors: ft.errs, Handle: ft.handle}
	p.handle = ft.handle

	p.Destroy()

	if p.CurrentTrack() != nil {
		t.Error("expected CurrentTrack to be nil after Destroy")
	}
	if got, ok := sink.lastEnd(); !ok || got.reason != EndCleanup {
		t.Errorf("expected a Cleanup TrackEnd, got %+v ok=%v", got, ok)
	}
}

func TestPlayer_StartPlaybackEmitsStartAndReplaced(t *testing.T) {
	sink := &recordingSink{}
	p := New("g1", sink, nil, testConfig())

	ft1 := newFakePlayableTrack()
	plugin1 := &fakePlugin{name: "fake", pt: ft1}
	reg1 := source.NewRegistry(plugin1)

	info1 := track.New(track.Info{Identifier: "one", SourceName: "fake"})
	if err := p.StartPlayback(context.Background(), reg1, nil, info1.Encoded, nil, nil); err != nil {
		t.Fatalf("StartPlayback #1: %v", err)
	}

	ft2 := newFakePlayableTrack()
	plugin2 := &fakePlugin{name: "fake", pt: ft2}
	reg2 := source.NewRegistry(plugin2)
	info2 := track.New(track.Info{Identifier: "two", SourceName: "fake"})
	if err := p.StartPlayback(context.Background(), reg2, nil, info2.Encoded, nil, nil); err != nil {
		t.Fatalf("StartPlayback #2: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		sink.mu.Lock()
		n := len(sink.starts)
		sink.mu.Unlock()
		if n >= 2 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.starts) != 2 {
		t.Fatalf("expected 2 TrackStart events, got %d", len(sink.starts))
	}
	if len(sink.ends) == 0 || sink.ends[0].reason != EndReplaced {
		t.Fatalf("expected first TrackEnd to be Replaced, got %+v", sink.ends)
	}
}

func TestPlayer_MonitorLoopEmitsFinishedOnStreamDrain(t *testing.T) {
	sink := &recordingSink{}
	p := New("g1", sink, nil, testConfig())

	ft := newFakePlayableTrack()
	plugin := &fakePlugin{name: "fake", pt: ft}
	reg := source.NewRegistry(plugin)
	info := track.New(track.Info{Identifier: "one", SourceName: "fake"})

	if err := p.StartPlayback(context.Background(), reg, nil, info.Encoded, nil, nil); err != nil {
		t.Fatalf("StartPlayback: %v", err)
	}

	close(ft.pcm)
	close(ft.errs)

	// A closed PCM channel only flips streamEnded once something actually
	// pulls from it, same as the real speak loop would via MixPCM.
	buf := make([]int16, 1920)
	p.MixPCM(buf)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if sink.endCount() > 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	got, ok := sink.lastEnd()
	if !ok {
		t.Fatal("expected a TrackEnd event")
	}
	if got.reason != EndFinished {
		t.Errorf("reason = %v, want Finished", got.reason)
	}
}

func TestPlayer_MonitorLoopEmitsExceptionOnDecodeError(t *testing.T) {
	sink := &recordingSink{}
	p := New("g1", sink, nil, testConfig())

	ft := newFakePlayableTrack()
	plugin := &fakePlugin{name: "fake", pt: ft}
	reg := source.NewRegistry(plugin)
	info := track.New(track.Info{Identifier: "one", SourceName: "fake"})

	if err := p.StartPlayback(context.Background(), reg, nil, info.Encoded, nil, nil); err != nil {
		t.Fatalf("StartPlayback: %v", err)
	}

	ft.errs <- errDecodeBoom

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if sink.endCount() > 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	got, ok := sink.lastEnd()
	if !ok {
		t.Fatal("expected a TrackEnd event")
	}
	if got.reason != EndLoadFailed {
		t.Errorf("reason = %v, want LoadFailed", got.reason)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.exceptions) == 0 {
		t.Error("expected a TrackException event")
	}
}

func TestPlayer_DestroyWithoutPlaybackIsNoop(t *testing.T) {
	sink := &recordingSink{}
	p := New("g1", sink, nil, Config{})
	p.Destroy()
	if sink.endCount() != 0 {
		t.Error("expected no TrackEnd when nothing was playing")
	}
}

func TestPlayer_SeekWithoutTrackErrors(t *testing.T) {
	p := New("g1", nil, nil, Config{})
	if err := p.Seek(1000); err == nil {
		t.Error("expected an error seeking with no active track")
	}
}
