package source

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/aurelink/aurelink/pkg/routeplanner"
	"github.com/aurelink/aurelink/pkg/track"
)

// Registry holds an ordered list of source plugins and resolves
// identifiers and tracks against them. Plugins are tried in registration
// order, except that every plugin with IsMirror() true is deferred to the
// end of the list regardless of where it was registered, so a primary
// source always gets first refusal.
type Registry struct {
	primary []Plugin
	mirrors []Plugin
}

// NewRegistry builds a Registry from plugins in the given order,
// partitioning mirrors out for last-resort use.
func NewRegistry(plugins ...Plugin) *Registry {
	r := &Registry{}
	for _, p := range plugins {
		r.Register(p)
	}
	return r
}

// Register appends a plugin, filing it under mirrors or primary sources
// by IsMirror().
func (r *Registry) Register(p Plugin) {
	if p.IsMirror() {
		r.mirrors = append(r.mirrors, p)
		return
	}
	r.primary = append(r.primary, p)
}

// ordered returns every plugin, primary sources first, mirrors last.
func (r *Registry) ordered() []Plugin {
	all := make([]Plugin, 0, len(r.primary)+len(r.mirrors))
	all = append(all, r.primary...)
	all = append(all, r.mirrors...)
	return all
}

// Names returns every registered plugin's Name(), primary sources
// first, for the REST /info source manager list.
func (r *Registry) Names() []string {
	ordered := r.ordered()
	names := make([]string, len(ordered))
	for i, p := range ordered {
		names[i] = p.Name()
	}
	return names
}

// Load tries each plugin's CanHandle in turn (primary sources before
// mirrors) and returns the first one's Load result. A track.EmptyResult
// is returned if no plugin claims the identifier.
func (r *Registry) Load(ctx context.Context, identifier string, planner routeplanner.Planner) (track.LoadResult, error) {
	for _, p := range r.ordered() {
		if p.CanHandle(identifier) {
			return p.Load(ctx, identifier, planner)
		}
	}
	return track.EmptyResult(), nil
}

// GetTrack resolves a previously-loaded track back into a PlayableTrack
// factory by walking the plugin list for one whose Name matches
// sourceName, then asking it for a track via identifier.
func (r *Registry) GetTrack(ctx context.Context, sourceName, identifier string, planner routeplanner.Planner) (PlayableTrack, error) {
	for _, p := range r.ordered() {
		if p.Name() == sourceName {
			return p.GetTrack(ctx, identifier, planner)
		}
	}
	return nil, fmt.Errorf("source: no plugin registered for source %q", sourceName)
}

// LoadSearch fans a LavaSearch query out to every plugin that declares
// search support in parallel, merging their SearchResults. A plugin
// returning a nil result or an error is skipped rather than failing the
// whole call, since one source's outage shouldn't blank out every
// other's results.
func (r *Registry) LoadSearch(ctx context.Context, query string, types []SearchType, planner routeplanner.Planner) (*SearchResult, error) {
	plugins := r.ordered()
	results := make([]*SearchResult, len(plugins))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range plugins {
		i, p := i, p
		g.Go(func() error {
			res, err := p.LoadSearch(gctx, query, types, planner)
			if err != nil {
				slog.Warn("source: load_search failed", "plugin", p.Name(), "error", err)
				return nil
			}
			results[i] = res
			return nil
		})
	}
	g.Wait()

	merged := &SearchResult{Plugin: map[string]any{}}
	for _, res := range results {
		if res == nil {
			continue
		}
		merged.Tracks = append(merged.Tracks, res.Tracks...)
		merged.Albums = append(merged.Albums, res.Albums...)
		merged.Artists = append(merged.Artists, res.Artists...)
		merged.Playlists = append(merged.Playlists, res.Playlists...)
		merged.Texts = append(merged.Texts, res.Texts...)
	}
	return merged, nil
}
