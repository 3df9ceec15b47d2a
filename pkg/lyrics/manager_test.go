package lyrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aurelink/aurelink/pkg/track"
)

type fakeProvider struct {
	name  string
	delay time.Duration
	data  *Data
	err   error
}

func (f *fakeProvider) Name() string { return f.name }
func (f *fakeProvider) LoadLyrics(ctx context.Context, info track.Info) (*Data, error) {
	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return f.data, f.err
}

func TestFetchReturnsSyncedResultEvenWhenSlower(t *testing.T) {
	fast := &fakeProvider{name: "fast", delay: time.Millisecond, data: &Data{Provider: "fast", Text: "plain"}}
	slow := &fakeProvider{name: "slow", delay: 20 * time.Millisecond, data: &Data{Provider: "slow", Text: "synced", Lines: []Line{{Text: "la la", Timestamp: 0}}}}
	m := NewManager(fast, slow)

	got := m.Fetch(context.Background(), track.Info{Title: "x"})
	if got == nil || !got.Synced() || got.Provider != "slow" {
		t.Fatalf("got %+v, want synced result from slow provider", got)
	}
}

func TestFetchFallsBackToPlainTextWhenNoneSynced(t *testing.T) {
	a := &fakeProvider{name: "a", data: &Data{Provider: "a", Text: "first"}}
	b := &fakeProvider{name: "b", delay: 5 * time.Millisecond, data: &Data{Provider: "b", Text: "second"}}
	m := NewManager(a, b)

	got := m.Fetch(context.Background(), track.Info{Title: "x"})
	if got == nil || got.Synced() || got.Provider != "a" {
		t.Fatalf("got %+v, want plain-text fallback from first-completing provider a", got)
	}
}

func TestFetchReturnsNilWhenNoProviderMatches(t *testing.T) {
	a := &fakeProvider{name: "a", data: nil}
	m := NewManager(a)

	if got := m.Fetch(context.Background(), track.Info{Title: "x"}); got != nil {
		t.Fatalf("got %+v, want nil", got)
	}
}

func TestFetchTreatsProviderErrorAsMiss(t *testing.T) {
	failing := &fakeProvider{name: "failing", err: errors.New("upstream down")}
	ok := &fakeProvider{name: "ok", delay: 2 * time.Millisecond, data: &Data{Provider: "ok", Text: "still works"}}
	m := NewManager(failing, ok)

	got := m.Fetch(context.Background(), track.Info{Title: "x"})
	if got == nil || got.Provider != "ok" {
		t.Fatalf("got %+v, want fallback from ok provider despite failing's error", got)
	}
}

func TestFetchSkippingSourceExcludesMatchingProvider(t *testing.T) {
	self := &fakeProvider{name: "catalogA", data: &Data{Provider: "catalogA", Text: "should be skipped"}}
	other := &fakeProvider{name: "lrclib", delay: 2 * time.Millisecond, data: &Data{Provider: "lrclib", Text: "from elsewhere"}}
	m := NewManager(self, other)

	got := m.FetchSkippingSource(context.Background(), track.Info{Title: "x", SourceName: "catalogA"})
	if got == nil || got.Provider != "lrclib" {
		t.Fatalf("got %+v, want result from lrclib only (catalogA skipped)", got)
	}
}
