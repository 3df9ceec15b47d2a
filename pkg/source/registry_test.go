package source

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aurelink/aurelink/pkg/routeplanner"
	"github.com/aurelink/aurelink/pkg/track"
)

type fakePlugin struct {
	NopExtras
	name       string
	prefix     string
	isMirror   bool
	loadResult track.LoadResult
	loadErr    error
	searchErr  error
	searchRes  *SearchResult
}

func (f *fakePlugin) Name() string { return f.name }
func (f *fakePlugin) CanHandle(identifier string) bool {
	return strings.HasPrefix(identifier, f.prefix)
}
func (f *fakePlugin) Load(ctx context.Context, identifier string, planner routeplanner.Planner) (track.LoadResult, error) {
	return f.loadResult, f.loadErr
}
func (f *fakePlugin) GetTrack(ctx context.Context, identifier string, planner routeplanner.Planner) (PlayableTrack, error) {
	return nil, nil
}
func (f *fakePlugin) LoadSearch(ctx context.Context, query string, types []SearchType, planner routeplanner.Planner) (*SearchResult, error) {
	return f.searchRes, f.searchErr
}
func (f *fakePlugin) IsMirror() bool { return f.isMirror }

func TestRegistryLoadTriesEachCanHandleInOrder(t *testing.T) {
	a := &fakePlugin{name: "a", prefix: "a:", loadResult: track.TrackResult(track.New(track.Info{SourceName: "a"}))}
	b := &fakePlugin{name: "b", prefix: "b:", loadResult: track.TrackResult(track.New(track.Info{SourceName: "b"}))}
	r := NewRegistry(a, b)

	result, err := r.Load(context.Background(), "b:something", nil)
	if err != nil {
		t.Fatal(err)
	}
	got := result.Data.(track.Track)
	if got.Info.SourceName != "b" {
		t.Fatalf("SourceName = %q, want b", got.Info.SourceName)
	}
}

func TestRegistryLoadReturnsEmptyWhenNoPluginMatches(t *testing.T) {
	a := &fakePlugin{name: "a", prefix: "a:"}
	r := NewRegistry(a)

	result, err := r.Load(context.Background(), "z:nope", nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.LoadType != track.LoadTypeEmpty {
		t.Fatalf("LoadType = %v, want empty", result.LoadType)
	}
}

func TestRegistryTriesMirrorsOnlyAfterPrimaries(t *testing.T) {
	mirrorTried := false
	mirror := &fakePlugin{name: "mirror", prefix: "", isMirror: true}
	mirror.loadResult = track.EmptyResult()
	primary := &fakePlugin{name: "primary", prefix: "x:"}
	primary.loadResult = track.EmptyResult()

	// mirror's prefix "" matches everything via strings.HasPrefix, so if
	// registration order controlled trial order naively, the mirror would
	// win first. Registry must still try primary first regardless of
	// registration order.
	r := NewRegistry(mirror, primary)

	result, err := r.Load(context.Background(), "x:track", nil)
	if err != nil {
		t.Fatal(err)
	}
	_ = mirrorTried
	if result.LoadType != track.LoadTypeEmpty {
		t.Fatalf("LoadType = %v, want empty (from primary, which matched first)", result.LoadType)
	}

	ordered := r.ordered()
	if ordered[0].Name() != "primary" || ordered[1].Name() != "mirror" {
		t.Fatalf("ordered = %v, want [primary, mirror]", []string{ordered[0].Name(), ordered[1].Name()})
	}
}

func TestRegistryGetTrackRoutesBySourceName(t *testing.T) {
	a := &fakePlugin{name: "a", prefix: "a:"}
	b := &fakePlugin{name: "b", prefix: "b:"}
	r := NewRegistry(a, b)

	if _, err := r.GetTrack(context.Background(), "b", "ident", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := r.GetTrack(context.Background(), "unknown", "ident", nil); err == nil {
		t.Fatal("expected an error for an unregistered source name")
	}
}

func TestRegistryLoadSearchMergesAcrossPlugins(t *testing.T) {
	a := &fakePlugin{name: "a", searchRes: &SearchResult{Tracks: []track.Track{
		track.New(track.Info{Title: "A1", SourceName: "a"}),
	}}}
	b := &fakePlugin{name: "b", searchRes: &SearchResult{Tracks: []track.Track{
		track.New(track.Info{Title: "B1", SourceName: "b"}),
		track.New(track.Info{Title: "B2", SourceName: "b"}),
	}}}
	r := NewRegistry(a, b)

	result, err := r.LoadSearch(context.Background(), "query", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Tracks) != 3 {
		t.Fatalf("merged tracks = %d, want 3", len(result.Tracks))
	}
}

func TestRegistryLoadSearchSkipsFailingPlugins(t *testing.T) {
	a := &fakePlugin{name: "a", searchErr: errors.New("upstream down")}
	b := &fakePlugin{name: "b", searchRes: &SearchResult{Tracks: []track.Track{
		track.New(track.Info{Title: "B1", SourceName: "b"}),
	}}}
	r := NewRegistry(a, b)

	result, err := r.LoadSearch(context.Background(), "query", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Tracks) != 1 {
		t.Fatalf("merged tracks = %d, want 1 (failing plugin skipped)", len(result.Tracks))
	}
}
