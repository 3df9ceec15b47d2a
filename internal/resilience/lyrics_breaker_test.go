package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aurelink/aurelink/pkg/lyrics"
	"github.com/aurelink/aurelink/pkg/track"
)

type fakeLyricsProvider struct {
	name string
	data *lyrics.Data
	err  error
}

func (p *fakeLyricsProvider) Name() string { return p.name }

func (p *fakeLyricsProvider) LoadLyrics(ctx context.Context, info track.Info) (*lyrics.Data, error) {
	return p.data, p.err
}

func TestBreakerLyricsProvider_NamePassesThrough(t *testing.T) {
	p := &fakeLyricsProvider{name: "fake"}
	b := WrapLyricsProvider(p, CircuitBreakerConfig{})
	if b.Name() != "fake" {
		t.Errorf("Name() = %q, want %q", b.Name(), "fake")
	}
}

func TestBreakerLyricsProvider_LoadLyricsSucceeds(t *testing.T) {
	want := &lyrics.Data{Name: "Song", Provider: "fake"}
	p := &fakeLyricsProvider{name: "fake", data: want}
	b := WrapLyricsProvider(p, CircuitBreakerConfig{})

	got, err := b.LoadLyrics(context.Background(), track.Info{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Errorf("LoadLyrics() = %v, want %v", got, want)
	}
}

func TestBreakerLyricsProvider_TripsAfterRepeatedFailures(t *testing.T) {
	wantErr := errors.New("scrape failed")
	p := &fakeLyricsProvider{name: "fake", err: wantErr}
	b := WrapLyricsProvider(p, CircuitBreakerConfig{MaxFailures: 2, ResetTimeout: time.Hour})

	for i := 0; i < 2; i++ {
		if _, err := b.LoadLyrics(context.Background(), track.Info{}); !errors.Is(err, wantErr) {
			t.Fatalf("call %d: err = %v, want %v", i, err, wantErr)
		}
	}

	if _, err := b.LoadLyrics(context.Background(), track.Info{}); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen", err)
	}
}
