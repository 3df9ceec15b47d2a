package codec

import (
	"bytes"
	"testing"
)

func TestInt16ByteRoundTrip(t *testing.T) {
	pcm := []int16{0, 1, -1, 32767, -32768, 12345}
	b := int16sToBytes(pcm)
	back := bytesToInt16s(b)

	if len(back) != len(pcm) {
		t.Fatalf("len mismatch: got %d want %d", len(back), len(pcm))
	}
	for i := range pcm {
		if back[i] != pcm[i] {
			t.Fatalf("sample %d: got %d want %d", i, back[i], pcm[i])
		}
	}
}

func TestFrameConstantsMatchDiscordTick(t *testing.T) {
	if FrameSamples != 960 {
		t.Fatalf("FrameSamples = %d, want 960 for 20ms @ 48kHz", FrameSamples)
	}
	if FrameBytes != FrameSamples*Channels*2 {
		t.Fatal("FrameBytes must equal samples * channels * 2 bytes")
	}
}

func TestInt16sToBytesEmpty(t *testing.T) {
	if got := int16sToBytes(nil); !bytes.Equal(got, []byte{}) {
		t.Fatalf("expected empty slice, got %v", got)
	}
}
