package demux

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// wavDemuxer reads canonical RIFF/WAVE PCM, yielding fixed-size int16 PCM
// chunks from the data sub-chunk.
type wavDemuxer struct {
	r          io.Reader
	sampleRate int
	channels   int
	bitsPerSample int
	remaining  uint32
}

const wavChunkBytes = 4096

func newWavDemuxer(r io.Reader) (*wavDemuxer, error) {
	var riffHdr [12]byte
	if _, err := io.ReadFull(r, riffHdr[:]); err != nil {
		return nil, fmt.Errorf("demux: wav: read RIFF header: %w", err)
	}
	if string(riffHdr[0:4]) != "RIFF" || string(riffHdr[8:12]) != "WAVE" {
		return nil, errors.New("demux: wav: not a RIFF/WAVE file")
	}

	d := &wavDemuxer{r: r}
	for {
		var chunkHdr [8]byte
		if _, err := io.ReadFull(r, chunkHdr[:]); err != nil {
			return nil, fmt.Errorf("demux: wav: read chunk header: %w", err)
		}
		chunkID := string(chunkHdr[0:4])
		chunkSize := binary.LittleEndian.Uint32(chunkHdr[4:8])

		switch chunkID {
		case "fmt ":
			fmtBody := make([]byte, chunkSize)
			if _, err := io.ReadFull(r, fmtBody); err != nil {
				return nil, fmt.Errorf("demux: wav: read fmt chunk: %w", err)
			}
			if len(fmtBody) < 16 {
				return nil, errors.New("demux: wav: truncated fmt chunk")
			}
			d.channels = int(binary.LittleEndian.Uint16(fmtBody[2:4]))
			d.sampleRate = int(binary.LittleEndian.Uint32(fmtBody[4:8]))
			d.bitsPerSample = int(binary.LittleEndian.Uint16(fmtBody[14:16]))
		case "data":
			d.remaining = chunkSize
			if d.channels == 0 || d.sampleRate == 0 {
				return nil, errors.New("demux: wav: data chunk before fmt chunk")
			}
			return d, nil
		default:
			if _, err := io.CopyN(io.Discard, r, int64(chunkSize)); err != nil {
				return nil, fmt.Errorf("demux: wav: skip chunk %q: %w", chunkID, err)
			}
		}
	}
}

func (d *wavDemuxer) Kind() PacketKind { return KindPCM }
func (d *wavDemuxer) SampleRate() int  { return d.sampleRate }
func (d *wavDemuxer) Channels() int    { return d.channels }

func (d *wavDemuxer) NextPacket() ([]byte, error) {
	if d.remaining == 0 {
		return nil, io.EOF
	}
	want := uint32(wavChunkBytes)
	if want > d.remaining {
		want = d.remaining
	}
	buf := make([]byte, want)
	n, err := io.ReadFull(d.r, buf)
	d.remaining -= uint32(n)
	if n == 0 {
		return nil, io.EOF
	}
	if err != nil && err != io.ErrUnexpectedEOF {
		return buf[:n], err
	}

	if d.bitsPerSample == 8 {
		return pcm8ToPCM16(buf[:n]), nil
	}
	return buf[:n], nil
}

// pcm8ToPCM16 converts unsigned 8-bit PCM (WAV's native 8-bit format) to
// signed little-endian 16-bit PCM.
func pcm8ToPCM16(in []byte) []byte {
	out := make([]byte, len(in)*2)
	for i, b := range in {
		s := int16(int(b)-128) << 8
		out[i*2] = byte(s)
		out[i*2+1] = byte(s >> 8)
	}
	return out
}
