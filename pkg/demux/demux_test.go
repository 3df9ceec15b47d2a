package demux

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
)

func buildWavFile(sampleRate, channels, bitsPerSample int, data []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	var sizePlaceholder [4]byte
	buf.Write(sizePlaceholder[:])
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	fmtChunk := make([]byte, 16)
	binary.LittleEndian.PutUint16(fmtChunk[0:2], 1) // PCM
	binary.LittleEndian.PutUint16(fmtChunk[2:4], uint16(channels))
	binary.LittleEndian.PutUint32(fmtChunk[4:8], uint32(sampleRate))
	byteRate := sampleRate * channels * bitsPerSample / 8
	binary.LittleEndian.PutUint32(fmtChunk[8:12], uint32(byteRate))
	blockAlign := channels * bitsPerSample / 8
	binary.LittleEndian.PutUint16(fmtChunk[12:14], uint16(blockAlign))
	binary.LittleEndian.PutUint16(fmtChunk[14:16], uint16(bitsPerSample))
	var fmtSize [4]byte
	binary.LittleEndian.PutUint32(fmtSize[:], uint32(len(fmtChunk)))
	buf.Write(fmtSize[:])
	buf.Write(fmtChunk)

	buf.WriteString("data")
	var dataSize [4]byte
	binary.LittleEndian.PutUint32(dataSize[:], uint32(len(data)))
	buf.Write(dataSize[:])
	buf.Write(data)

	out := buf.Bytes()
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(out)-8))
	return out
}

func TestWavDemuxerReadsPCM16(t *testing.T) {
	samples := make([]byte, 0, 16)
	for i := int16(0); i < 8; i++ {
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, uint16(i*100))
		samples = append(samples, b...)
	}
	wavBytes := buildWavFile(48000, 2, 16, samples)

	d, err := newWavDemuxer(bytes.NewReader(wavBytes))
	if err != nil {
		t.Fatalf("newWavDemuxer: %v", err)
	}
	if d.SampleRate() != 48000 || d.Channels() != 2 {
		t.Fatalf("got rate=%d channels=%d", d.SampleRate(), d.Channels())
	}

	var out []byte
	for {
		pkt, err := d.NextPacket()
		out = append(out, pkt...)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("NextPacket: %v", err)
		}
	}
	if !bytes.Equal(out, samples) {
		t.Fatalf("got %v, want %v", out, samples)
	}
}

func TestWavDemuxerConverts8BitPCM(t *testing.T) {
	data := []byte{0, 128, 255}
	wavBytes := buildWavFile(44100, 1, 8, data)

	d, err := newWavDemuxer(bytes.NewReader(wavBytes))
	if err != nil {
		t.Fatalf("newWavDemuxer: %v", err)
	}
	pkt, err := d.NextPacket()
	if err != nil && err != io.EOF {
		t.Fatalf("NextPacket: %v", err)
	}
	if len(pkt) != len(data)*2 {
		t.Fatalf("expected 8-bit samples widened to 16-bit: got %d bytes for %d input samples", len(pkt), len(data))
	}
}

func buildOggOpusPage(payloads ...[]byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("OggS")
	buf.WriteByte(0) // version
	buf.WriteByte(2) // header type: BOS
	var granule [8]byte
	buf.Write(granule[:])
	var serial [4]byte
	buf.Write(serial[:])
	var seq [4]byte
	buf.Write(seq[:])
	var crc [4]byte
	buf.Write(crc[:])

	var segTable []byte
	var body []byte
	for _, p := range payloads {
		remaining := len(p)
		for remaining >= 255 {
			segTable = append(segTable, 255)
			remaining -= 255
		}
		segTable = append(segTable, byte(remaining))
		body = append(body, p...)
	}
	buf.WriteByte(byte(len(segTable)))
	buf.Write(segTable)
	buf.Write(body)
	return buf.Bytes()
}

func TestOggOpusDemuxerSkipsHeaderPages(t *testing.T) {
	opusHead := make([]byte, 19)
	copy(opusHead, "OpusHead")
	opusHead[8] = 1 // version
	opusHead[9] = 2 // channels

	opusTags := []byte("OpusTags\x00\x00\x00\x00")
	frame1 := []byte{0xFC, 0x01, 0x02, 0x03}

	var stream bytes.Buffer
	stream.Write(buildOggOpusPage(opusHead))
	stream.Write(buildOggOpusPage(opusTags))
	stream.Write(buildOggOpusPage(frame1))

	d, err := newOggOpusDemuxer(bytes.NewReader(stream.Bytes()))
	if err != nil {
		t.Fatalf("newOggOpusDemuxer: %v", err)
	}
	if d.Channels() != 2 {
		t.Fatalf("Channels() = %d, want 2", d.Channels())
	}

	pkt, err := d.NextPacket()
	if err != nil {
		t.Fatalf("NextPacket: %v", err)
	}
	if !bytes.Equal(pkt, frame1) {
		t.Fatalf("got %v, want %v", pkt, frame1)
	}
}
