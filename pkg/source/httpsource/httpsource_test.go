package httpsource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aurelink/aurelink/pkg/resample"
	"github.com/aurelink/aurelink/pkg/track"
)

func TestCanHandle(t *testing.T) {
	p := New(resample.QualityLinear)
	cases := map[string]bool{
		"https://cdn.example.com/song.ogg": true,
		"http://cdn.example.com/song.ogg":  true,
		"ytsearch:some song":               false,
		"spotify:track:abc123":             false,
	}
	for id, want := range cases {
		if got := p.CanHandle(id); got != want {
			t.Errorf("CanHandle(%q) = %v, want %v", id, got, want)
		}
	}
}

func TestLoadReturnsTrackForReachableURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Accept-Ranges", "bytes")
		w.Header().Set("Content-Length", "1024")
	}))
	defer server.Close()

	p := New(resample.QualityLinear)
	result, err := p.Load(context.Background(), server.URL+"/clip.wav", nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.LoadType != track.LoadTypeTrack {
		t.Fatalf("LoadType = %v, want track", result.LoadType)
	}
	loaded, ok := result.Data.(track.Track)
	if !ok {
		t.Fatalf("Data is %T, want track.Track", result.Data)
	}
	if !loaded.Info.IsSeekable {
		t.Fatal("expected IsSeekable given Accept-Ranges: bytes")
	}
	if loaded.Info.SourceName != Name {
		t.Fatalf("SourceName = %q, want %q", loaded.Info.SourceName, Name)
	}
}

func TestLoadReturnsErrorForUnreachableURL(t *testing.T) {
	p := New(resample.QualityLinear)
	result, err := p.Load(context.Background(), "http://127.0.0.1:1/missing", nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.LoadType != track.LoadTypeError {
		t.Fatalf("LoadType = %v, want error", result.LoadType)
	}
}

func TestStartStreamsWAVAsPCMFrames(t *testing.T) {
	wav := buildTestWAV(t, 48000*2) // 2 seconds of silence at 48kHz stereo 16-bit
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "")
		w.Write(wav)
	}))
	defer server.Close()

	p := New(resample.QualityLinear)
	pt, err := p.GetTrack(context.Background(), server.URL+"/clip.wav", nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := pt.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}

	frames := 0
	for range stream.PCM {
		frames++
		if frames > 100 {
			break
		}
	}
	if frames == 0 {
		t.Fatal("expected at least one PCM frame")
	}
}

// buildTestWAV builds a minimal canonical WAV header for n 16-bit stereo
// frames at 48kHz, all zero-valued.
func buildTestWAV(t *testing.T, n int) []byte {
	t.Helper()
	dataSize := n * 2 * 2
	buf := make([]byte, 44+dataSize)
	copy(buf[0:4], "RIFF")
	putUint32(buf[4:8], uint32(36+dataSize))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	putUint32(buf[16:20], 16)
	putUint16(buf[20:22], 1) // PCM
	putUint16(buf[22:24], 2) // channels
	putUint32(buf[24:28], 48000)
	putUint32(buf[28:32], 48000*2*2)
	putUint16(buf[32:34], 4)
	putUint16(buf[34:36], 16)
	copy(buf[36:40], "data")
	putUint32(buf[40:44], uint32(dataSize))
	return buf
}

func putUint32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func putUint16(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}
