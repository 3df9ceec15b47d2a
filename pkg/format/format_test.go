package format

import "testing"

func TestDetectWebm(t *testing.T) {
	hdr := []byte{0x1A, 0x45, 0xDF, 0xA3, 0x00, 0x00, 0x00, 0x00}
	if got := Detect(hdr); got != WebmOpus {
		t.Fatalf("Detect = %v, want WebmOpus", got)
	}
}

func TestDetectMP4(t *testing.T) {
	hdr := []byte("\x00\x00\x00\x1cftypisom")
	if got := Detect(hdr); got != MP4 {
		t.Fatalf("Detect = %v, want MP4", got)
	}
}

func TestDetectOgg(t *testing.T) {
	if got := Detect([]byte("OggS\x00")); got != Ogg {
		t.Fatalf("Detect = %v, want Ogg", got)
	}
}

func TestDetectFlac(t *testing.T) {
	if got := Detect([]byte("fLaC\x00")); got != FLAC {
		t.Fatalf("Detect = %v, want FLAC", got)
	}
}

func TestDetectWav(t *testing.T) {
	hdr := append([]byte("RIFF\x24\x00\x00\x00"), []byte("WAVE")...)
	if got := Detect(hdr); got != WAV {
		t.Fatalf("Detect = %v, want WAV", got)
	}
}

func TestDetectMP3ID3(t *testing.T) {
	if got := Detect([]byte("ID3\x03\x00")); got != MP3 {
		t.Fatalf("Detect = %v, want MP3", got)
	}
}

func TestDetectMP3SyncWord(t *testing.T) {
	if got := Detect([]byte{0xFF, 0xFB, 0x90, 0x00}); got != MP3 {
		t.Fatalf("Detect = %v, want MP3", got)
	}
}

func TestDetectUnknown(t *testing.T) {
	if got := Detect([]byte{0, 0, 0, 0}); got != Unknown {
		t.Fatalf("Detect = %v, want Unknown", got)
	}
}

func TestDetectTooShort(t *testing.T) {
	if got := Detect([]byte{0x1A, 0x45}); got != Unknown {
		t.Fatalf("Detect = %v, want Unknown for short header", got)
	}
}

func TestOpusPassthroughFormats(t *testing.T) {
	if !WebmOpus.IsOpusPassthrough() {
		t.Fatal("WebmOpus should be opus-passthrough")
	}
	if !Ogg.IsOpusPassthrough() {
		t.Fatal("Ogg should be opus-passthrough")
	}
	if MP3.IsOpusPassthrough() {
		t.Fatal("MP3 should not be opus-passthrough")
	}
}
