// Package codec wraps Opus encode/decode for the mixer's output stage and
// the decode pipeline's non-passthrough path, producing the 20ms,
// 48kHz stereo frames the Discord voice transport expects.
package codec

import (
	"fmt"

	"layeh.com/gopus"
)

const (
	// SampleRate is the fixed Opus sample rate Discord voice uses.
	SampleRate = 48000
	// Channels is the fixed Opus channel count Discord voice uses.
	Channels = 2
	// FrameSizeMs is the tick interval every stage of the pipeline is
	// built around.
	FrameSizeMs = 20
	// FrameSamples is samples-per-channel in one 20ms frame at 48kHz.
	FrameSamples = SampleRate * FrameSizeMs / 1000 // 960
	// FrameBytes is the size in bytes of one 20ms stereo int16 PCM frame.
	FrameBytes = FrameSamples * Channels * 2
)

// Decoder decodes Opus packets into 48kHz stereo PCM. Each track gets its
// own decoder instance so decoder state (packet-loss concealment history)
// stays correct across consecutive frames.
type Decoder struct {
	dec *gopus.Decoder
}

// NewDecoder creates an Opus decoder for Discord-format audio.
func NewDecoder() (*Decoder, error) {
	dec, err := gopus.NewDecoder(SampleRate, Channels)
	if err != nil {
		return nil, fmt.Errorf("codec: create opus decoder: %w", err)
	}
	return &Decoder{dec: dec}, nil
}

// Decode decodes a single Opus packet into interleaved PCM int16 bytes
// (little-endian). fec requests forward-error-concealment decoding for a
// packet known to be lost.
func (d *Decoder) Decode(packet []byte, fec bool) ([]byte, error) {
	pcm, err := d.dec.Decode(packet, FrameSamples, fec)
	if err != nil {
		return nil, fmt.Errorf("codec: opus decode: %w", err)
	}
	return int16sToBytes(pcm), nil
}

// Encoder encodes 48kHz stereo PCM into Opus packets at a fixed bitrate.
type Encoder struct {
	enc *gopus.Encoder
}

// NewEncoder creates an Opus encoder tuned for music at the given bitrate
// in bits per second.
func NewEncoder(bitrate int) (*Encoder, error) {
	enc, err := gopus.NewEncoder(SampleRate, Channels, gopus.Audio)
	if err != nil {
		return nil, fmt.Errorf("codec: create opus encoder: %w", err)
	}
	if bitrate > 0 {
		enc.SetBitrate(bitrate)
	}
	return &Encoder{enc: enc}, nil
}

// Encode encodes one 20ms frame of interleaved PCM int16 bytes
// (little-endian) into an Opus packet.
func (e *Encoder) Encode(pcmBytes []byte) ([]byte, error) {
	pcm := bytesToInt16s(pcmBytes)
	opus, err := e.enc.Encode(pcm, FrameSamples, len(pcmBytes))
	if err != nil {
		return nil, fmt.Errorf("codec: opus encode: %w", err)
	}
	return opus, nil
}

func int16sToBytes(pcm []int16) []byte {
	b := make([]byte, len(pcm)*2)
	for i, s := range pcm {
		b[i*2] = byte(s)
		b[i*2+1] = byte(s >> 8)
	}
	return b
}

func bytesToInt16s(b []byte) []int16 {
	pcm := make([]int16, len(b)/2)
	for i := range pcm {
		pcm[i] = int16(b[i*2]) | int16(b[i*2+1])<<8
	}
	return pcm
}
