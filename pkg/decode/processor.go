// Package decode wires the demux, codec, and resample layers into a single
// audio processor: it pulls packets from a container, decodes or
// passes through Opus, resamples anything that isn't already 48kHz
// stereo, and reframes the result into exact 20ms (960-sample) stereo
// blocks for the flow controller and mixer.
package decode

import (
	"fmt"
	"io"

	"github.com/aurelink/aurelink/pkg/codec"
	"github.com/aurelink/aurelink/pkg/demux"
	"github.com/aurelink/aurelink/pkg/format"
	"github.com/aurelink/aurelink/pkg/resample"
)

// frameSamples is the number of interleaved int16 values (960 frames *
// 2 channels) in one 20ms stereo block.
const frameSamples = codec.FrameSamples * codec.Channels

// Processor turns a container stream into a sequence of fixed-size 20ms
// stereo PCM frames, or (for WebM/Ogg Opus) raw Opus packets the voice
// transport can forward without decoding at all.
type Processor struct {
	demuxer demux.Demuxer
	format  format.Format
	quality resample.Quality

	opusDecoder *codec.Decoder
	resampler   resample.Resampler

	pcmBuf  []int16 // leftover samples not yet forming a full frame
	stopped bool
	seeker  io.Seeker
}

// New opens r as a container and builds the pipeline stages its detected
// format requires.
func New(r io.Reader, quality resample.Quality) (*Processor, error) {
	d, f, err := demux.Open(r)
	if err != nil {
		return nil, fmt.Errorf("decode: open: %w", err)
	}

	p := &Processor{demuxer: d, format: f, quality: quality}
	if s, ok := r.(io.Seeker); ok {
		p.seeker = s
	}

	if d.Kind() == demux.KindPCM && (d.SampleRate() != codec.SampleRate || d.Channels() != codec.Channels) {
		p.resampler = resample.New(quality, d.SampleRate(), codec.SampleRate, codec.Channels)
	}
	return p, nil
}

// Format reports the container format detected at Open.
func (p *Processor) Format() format.Format { return p.format }

// IsOpusPassthrough reports whether NextOpusPacket should be used instead
// of NextFrame: the container already carries 48kHz stereo Opus packets
// that can be forwarded to the voice transport without a decode step.
func (p *Processor) IsOpusPassthrough() bool {
	return p.demuxer.Kind() == demux.KindOpus
}

// NextOpusPacket returns the next raw Opus packet for passthrough
// containers. Only valid when IsOpusPassthrough is true.
func (p *Processor) NextOpusPacket() ([]byte, error) {
	if p.stopped {
		return nil, io.EOF
	}
	return p.demuxer.NextPacket()
}

// NextFrame returns the next exact 20ms stereo PCM frame (960*2 int16
// samples). It buffers partial frames across NextPacket calls and returns
// io.EOF once the source is exhausted and no partial frame remains.
func (p *Processor) NextFrame() ([]int16, error) {
	if p.stopped {
		return nil, io.EOF
	}

	for len(p.pcmBuf) < frameSamples {
		pkt, err := p.demuxer.NextPacket()
		if err != nil {
			if err == io.EOF {
				return p.drainPartial()
			}
			return nil, fmt.Errorf("decode: next packet: %w", err)
		}

		samples, err := p.toPCM(pkt)
		if err != nil {
			return nil, err
		}
		p.pcmBuf = append(p.pcmBuf, samples...)
	}

	frame := make([]int16, frameSamples)
	copy(frame, p.pcmBuf[:frameSamples])
	p.pcmBuf = append(p.pcmBuf[:0], p.pcmBuf[frameSamples:]...)
	return frame, nil
}

// drainPartial flushes a final, shorter-than-960-sample frame, zero-padded
// to the full frame size so the mixer never sees a ragged block.
func (p *Processor) drainPartial() ([]int16, error) {
	if len(p.pcmBuf) == 0 {
		p.stopped = true
		return nil, io.EOF
	}
	frame := make([]int16, frameSamples)
	copy(frame, p.pcmBuf)
	p.pcmBuf = p.pcmBuf[:0]
	p.stopped = true
	return frame, nil
}

// toPCM converts one demuxed packet into interleaved stereo int16 samples
// at the 48kHz target rate, decoding Opus or resampling PCM as needed.
func (p *Processor) toPCM(pkt []byte) ([]int16, error) {
	switch p.demuxer.Kind() {
	case demux.KindOpus:
		if p.opusDecoder == nil {
			dec, err := codec.NewDecoder()
			if err != nil {
				return nil, fmt.Errorf("decode: new opus decoder: %w", err)
			}
			p.opusDecoder = dec
		}
		pcmBytes, err := p.opusDecoder.Decode(pkt, false)
		if err != nil {
			return nil, fmt.Errorf("decode: opus decode: %w", err)
		}
		return resample.BytesToInt16(pcmBytes), nil

	case demux.KindPCM:
		samples := resample.BytesToInt16(pkt)
		if p.demuxer.Channels() == 1 {
			samples = monoToStereo(samples)
		}
		if p.resampler != nil {
			out := make([]int16, 0, len(samples)*2)
			return p.resampler.Process(samples, out), nil
		}
		return samples, nil

	default:
		return nil, fmt.Errorf("decode: unknown packet kind %v", p.demuxer.Kind())
	}
}

func monoToStereo(samples []int16) []int16 {
	out := make([]int16, len(samples)*2)
	for i, s := range samples {
		out[i*2] = s
		out[i*2+1] = s
	}
	return out
}

// ErrSeekUnsupported is returned by Seek when the underlying reader does
// not implement io.Seeker.
var ErrSeekUnsupported = fmt.Errorf("decode: underlying reader does not support seeking")

// Seek discards buffered PCM and resampler/decoder state, then seeks the
// underlying reader to byteOffset. Callers resolve a playback position to
// a byte offset themselves (container-specific), since Processor has no
// notion of timestamps once packets have been handed off to the demuxer.
func (p *Processor) Seek(byteOffset int64) error {
	if p.seeker == nil {
		return ErrSeekUnsupported
	}
	if _, err := p.seeker.Seek(byteOffset, io.SeekStart); err != nil {
		return fmt.Errorf("decode: seek: %w", err)
	}
	p.pcmBuf = p.pcmBuf[:0]
	p.stopped = false
	if p.resampler != nil {
		p.resampler.Reset()
	}
	p.opusDecoder = nil
	return nil
}

// Stop marks the processor exhausted; subsequent NextFrame/NextOpusPacket
// calls return io.EOF without touching the underlying reader.
func (p *Processor) Stop() {
	p.stopped = true
}
