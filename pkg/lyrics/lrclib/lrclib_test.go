package lrclib

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aurelink/aurelink/pkg/track"
)

func newTestProvider(srv *httptest.Server) *Provider {
	p := New()
	p.client = srv.Client()
	p.baseURL = srv.URL
	return p
}

func TestLoadLyricsReturnsSyncedLines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{
			"trackName": "Wrecking Ball",
			"artistName": "Miley Cyrus",
			"instrumental": false,
			"syncedLyrics": "[00:01.00]I came in like a wrecking ball\n[00:05.50]All I wanted was to break your walls",
			"plainLyrics": ""
		}]`))
	}))
	defer srv.Close()

	p := newTestProvider(srv)

	result, err := p.LoadLyrics(context.Background(), track.Info{Title: "Wrecking Ball", Author: "Miley Cyrus"})
	if err != nil {
		t.Fatal(err)
	}
	if result == nil || !result.Synced() {
		t.Fatalf("result = %+v, want synced lyrics", result)
	}
	if len(result.Lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(result.Lines))
	}
	if result.Lines[0].Timestamp != 1000 || result.Lines[1].Timestamp != 5500 {
		t.Fatalf("timestamps = %+v, want [1000 5500]", result.Lines)
	}
}

func TestLoadLyricsFallsBackToPlainText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"trackName":"X","artistName":"Y","instrumental":false,"plainLyrics":"line one\nline two"}]`))
	}))
	defer srv.Close()

	p := newTestProvider(srv)

	result, err := p.LoadLyrics(context.Background(), track.Info{Title: "X", Author: "Y"})
	if err != nil {
		t.Fatal(err)
	}
	if result == nil || result.Synced() {
		t.Fatalf("result = %+v, want plain text (no Lines)", result)
	}
	if result.Text != "line one\nline two" {
		t.Fatalf("text = %q", result.Text)
	}
}

func TestLoadLyricsReturnsNilOnEmptyResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	p := newTestProvider(srv)

	result, err := p.LoadLyrics(context.Background(), track.Info{Title: "nope"})
	if err != nil {
		t.Fatal(err)
	}
	if result != nil {
		t.Fatalf("result = %+v, want nil", result)
	}
}

func TestCleanStripsNoiseAndFeatTags(t *testing.T) {
	if got := clean("Song Title (Official Lyrics Video)", true); got != "Song Title" {
		t.Fatalf("clean title = %q", got)
	}
	if got := clean("Artist feat. Someone Else", true); got != "Artist" {
		t.Fatalf("clean feat = %q", got)
	}
}
