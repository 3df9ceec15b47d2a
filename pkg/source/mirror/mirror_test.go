package mirror

import (
	"context"
	"testing"

	"github.com/aurelink/aurelink/pkg/routeplanner"
	"github.com/aurelink/aurelink/pkg/source"
	"github.com/aurelink/aurelink/pkg/track"
)

// fakeBacking is a minimal source.Plugin whose LoadSearch returns a fixed
// track list, standing in for a real catalog-backed plugin in tests.
type fakeBacking struct {
	source.NopExtras
	name   string
	tracks []track.Track
}

func (f *fakeBacking) Name() string                { return f.name }
func (f *fakeBacking) CanHandle(identifier string) bool { return false }
func (f *fakeBacking) Load(ctx context.Context, identifier string, planner routeplanner.Planner) (track.LoadResult, error) {
	return track.EmptyResult(), nil
}
func (f *fakeBacking) GetTrack(ctx context.Context, identifier string, planner routeplanner.Planner) (source.PlayableTrack, error) {
	return nil, nil
}
func (f *fakeBacking) LoadSearch(ctx context.Context, query string, types []source.SearchType, planner routeplanner.Planner) (*source.SearchResult, error) {
	return &source.SearchResult{Tracks: f.tracks}, nil
}

func mustInfo(title, author, isrc, sourceName string) track.Info {
	return track.Info{
		Identifier: title,
		Title:      title,
		Author:     author,
		ISRC:       isrc,
		SourceName: sourceName,
	}
}

func TestLoadFindsBestFuzzyTitleMatch(t *testing.T) {
	backing := &fakeBacking{
		name: "catalogA",
		tracks: []track.Track{
			track.New(mustInfo("Wrecking Ball", "Miley Cyrus", "", "catalogA")),
			track.New(mustInfo("Totally Unrelated Song", "Someone Else", "", "catalogA")),
		},
	}
	p := New(0.5, backing)

	result, err := p.Load(context.Background(), "mirror:Wrecking Ball Miley Cyrus", nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.LoadType != track.LoadTypeTrack {
		t.Fatalf("LoadType = %v, want track", result.LoadType)
	}
	got := result.Data.(track.Track)
	if got.Info.Title != "Wrecking Ball" {
		t.Fatalf("matched title = %q, want Wrecking Ball", got.Info.Title)
	}
	if got.Info.SourceName != "catalogA" {
		t.Fatalf("SourceName = %q, want catalogA (rewritten to backing plugin)", got.Info.SourceName)
	}
}

func TestLoadExactISRCMatchWins(t *testing.T) {
	backing := &fakeBacking{
		name: "catalogB",
		tracks: []track.Track{
			track.New(mustInfo("Some Track", "Some Artist", "USRC17607839", "catalogB")),
			track.New(mustInfo("Some Trackk", "Some Artistt", "", "catalogB")),
		},
	}
	p := New(DefaultThreshold, backing)

	result, err := p.Load(context.Background(), "isrc:USRC17607839", nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.LoadType != track.LoadTypeTrack {
		t.Fatalf("LoadType = %v, want track", result.LoadType)
	}
	got := result.Data.(track.Track)
	if got.Info.ISRC != "USRC17607839" {
		t.Fatalf("matched ISRC = %q", got.Info.ISRC)
	}
}

func TestLoadBelowThresholdReturnsEmpty(t *testing.T) {
	backing := &fakeBacking{
		name: "catalogC",
		tracks: []track.Track{
			track.New(mustInfo("Completely Different", "Nobody", "", "catalogC")),
		},
	}
	p := New(0.95, backing)

	result, err := p.Load(context.Background(), "mirror:xyz123 nonsense query", nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.LoadType != track.LoadTypeEmpty {
		t.Fatalf("LoadType = %v, want empty", result.LoadType)
	}
}

func TestGetTrackAlwaysErrors(t *testing.T) {
	p := New(DefaultThreshold)
	if _, err := p.GetTrack(context.Background(), "anything", nil); err == nil {
		t.Fatal("expected an error since mirror never hosts playable tracks")
	}
}

func TestIsMirrorTrue(t *testing.T) {
	p := New(DefaultThreshold)
	if !p.IsMirror() {
		t.Fatal("expected IsMirror() == true")
	}
}
