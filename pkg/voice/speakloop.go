package voice

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/aurelink/aurelink/pkg/codec"
	"github.com/aurelink/aurelink/pkg/filters"
	"github.com/aurelink/aurelink/pkg/voice/transport"
)

// maxSilenceFrames is how many consecutive silent ticks still send a
// packet (so Discord sees a clean ramp-down) before the loop stops
// sending entirely.
const maxSilenceFrames = 5

const defaultOpusBitrate = 64000

// FrameSource supplies audio to a SpeakLoop tick. Opus passthrough is
// tried first (skipping PCM mixing and re-encoding entirely); when it
// has nothing ready, MixPCM fills a PCM frame from the session's
// mixer/layers.
type FrameSource interface {
	// NextOpusFrame returns a pre-encoded Opus packet ready to send
	// as-is, and true, if a passthrough-enabled track has one buffered
	// this tick.
	NextOpusFrame() ([]byte, bool)
	// MixPCM fills buf (exactly codec.FrameSamples*codec.Channels
	// int16s) with this tick's mixed PCM, returning whether any track
	// contributed audio.
	MixPCM(buf []int16) bool
}

// SpeakLoop drives the 20ms tick that pulls audio from a FrameSource,
// applies an optional session-level filter chain, encodes to Opus,
// DAVE-encrypts, and sends over the RTP/UDP transport. One SpeakLoop
// runs per connected player voice session.
type SpeakLoop struct {
	gateway *Gateway
	source  FrameSource
	filters *filters.Chain

	framesSent   atomic.Uint64
	framesNulled atomic.Uint64
}

// NewSpeakLoop creates a SpeakLoop bound to a gateway (already in the
// Ready state) and a frame source. filterChain may be nil to skip the
// session-level filter pass.
func NewSpeakLoop(gw *Gateway, source FrameSource, filterChain *filters.Chain) *SpeakLoop {
	return &SpeakLoop{gateway: gw, source: source, filters: filterChain}
}

// FramesSent returns the number of RTP packets sent so far.
func (s *SpeakLoop) FramesSent() uint64 { return s.framesSent.Load() }

// FramesNulled returns the number of ticks where no track contributed
// audio (folded into the owning session's frame totals by voicelink).
func (s *SpeakLoop) FramesNulled() uint64 { return s.framesNulled.Load() }

// Run ticks every 20ms until ctx is cancelled, pulling frames from the
// source and sending them over the gateway's UDP transport. Returns
// when ctx is done or a fatal encoder/transport setup error occurs.
func (s *SpeakLoop) Run(ctx context.Context) error {
	encoder, err := codec.NewEncoder(defaultOpusBitrate)
	if err != nil {
		return err
	}
	udp, err := s.gateway.NewSpeakLoop()
	if err != nil {
		return err
	}
	defer udp.Close()

	ticker := time.NewTicker(codec.FrameSizeMs * time.Millisecond)
	defer ticker.Stop()

	pcmBuf := make([]int16, codec.FrameSamples*codec.Channels)
	silenceFrames := 0

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.tick(pcmBuf, &silenceFrames, encoder, udp)
		}
	}
}

func (s *SpeakLoop) tick(pcmBuf []int16, silenceFrames *int, encoder *codec.Encoder, udp *transport.Backend) {
	if opusFrame, ok := s.source.NextOpusFrame(); ok {
		*silenceFrames = 0
		s.framesSent.Add(1)
		s.sendEncrypted(udp, opusFrame)
		return
	}

	hasAudio := s.source.MixPCM(pcmBuf)
	if hasAudio {
		*silenceFrames = 0
		s.framesSent.Add(1)
	} else {
		s.framesNulled.Add(1)
		*silenceFrames++
		if *silenceFrames > maxSilenceFrames {
			return
		}
	}

	if s.filters != nil && s.filters.IsEnabled() {
		s.filters.Process(pcmBuf)
	}

	pcmBytes := int16ToBytes(pcmBuf)
	opus, err := encoder.Encode(pcmBytes)
	if err != nil {
		slog.Warn("voice: opus encode failed", "error", err)
		return
	}
	if len(opus) == 0 {
		return
	}
	s.sendEncrypted(udp, opus)
}

func (s *SpeakLoop) sendEncrypted(udp *transport.Backend, packet []byte) {
	encrypted, err := s.gateway.DAVE().EncryptOpus(packet)
	if err != nil {
		slog.Error("voice: dave encryption failed", "error", err)
		return
	}
	if err := udp.SendOpusPacket(encrypted); err != nil {
		slog.Warn("voice: udp send failed", "error", err)
	}
}

func int16ToBytes(pcm []int16) []byte {
	b := make([]byte, len(pcm)*2)
	for i, v := range pcm {
		b[i*2] = byte(v)
		b[i*2+1] = byte(v >> 8)
	}
	return b
}
