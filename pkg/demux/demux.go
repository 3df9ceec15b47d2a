// Package demux extracts raw codec packets from audio containers. Two
// paths are opus-passthrough (WebM and Ogg, whose Opus payloads can be
// forwarded straight to the voice transport) and one is PCM (WAV); any
// other container falls back to a reduced-fidelity path since no
// pack-available Go library decodes arbitrary codecs the way symphonia
// does on the Rust side.
package demux

import (
	"fmt"
	"io"

	"github.com/aurelink/aurelink/pkg/format"
)

// PacketKind distinguishes what a Demuxer's packets contain.
type PacketKind int

const (
	// KindOpus packets are raw Opus frames ready for the voice transport.
	KindOpus PacketKind = iota
	// KindPCM packets are interleaved int16 PCM ready for the flow
	// controller and mixer, already at the container's native rate.
	KindPCM
)

// Demuxer yields successive codec packets from a container stream.
type Demuxer interface {
	// Kind reports whether NextPacket returns Opus or PCM payloads.
	Kind() PacketKind
	// SampleRate is the stream's native sample rate.
	SampleRate() int
	// Channels is the stream's channel count.
	Channels() int
	// NextPacket returns the next packet, io.EOF at end of stream.
	NextPacket() ([]byte, error)
}

// Open detects the container format from the stream's first bytes (peeking
// through a buffered reader so detection never consumes data the demuxer
// needs) and returns a Demuxer for it.
func Open(r io.Reader) (Demuxer, format.Format, error) {
	br := newPeekReader(r, 12)
	header, err := br.Peek(12)
	if err != nil && err != io.EOF {
		return nil, format.Unknown, fmt.Errorf("demux: read header: %w", err)
	}

	f := format.Detect(header)
	switch f {
	case format.WebmOpus:
		d, err := newWebmOpusDemuxer(br)
		return d, f, err
	case format.Ogg:
		d, err := newOggOpusDemuxer(br)
		return d, f, err
	case format.WAV:
		d, err := newWavDemuxer(br)
		return d, f, err
	default:
		return newFallbackDemuxer(br), f, nil
	}
}

// peekReader buffers up to n bytes so the caller can inspect them without
// consuming the underlying reader, then replays them before live reads.
type peekReader struct {
	r       io.Reader
	peeked  []byte
	replay  int
}

func newPeekReader(r io.Reader, n int) *peekReader {
	return &peekReader{r: r}
}

func (p *peekReader) Peek(n int) ([]byte, error) {
	if p.peeked == nil {
		buf := make([]byte, n)
		read, err := io.ReadFull(p.r, buf)
		p.peeked = buf[:read]
		if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			return p.peeked, err
		}
		return p.peeked, nil
	}
	if len(p.peeked) >= n {
		return p.peeked[:n], nil
	}
	return p.peeked, nil
}

func (p *peekReader) Read(buf []byte) (int, error) {
	if p.replay < len(p.peeked) {
		n := copy(buf, p.peeked[p.replay:])
		p.replay += n
		return n, nil
	}
	return p.r.Read(buf)
}
