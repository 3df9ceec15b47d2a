// Package mirror implements the "mirror" source plugin: it holds no
// tracks of its own, but cross-matches an ISRC or a loose title/author
// query against a set of backing plugins' search results, picking the
// best fuzzy match by Jaro-Winkler similarity (the same algorithm and
// library the teacher uses for phonetic entity matching). The registry
// only ever tries a mirror plugin after every primary plugin's CanHandle
// has failed, so this is a last-resort "find this track somewhere else"
// path — e.g. resolving a metadata-only catalog entry to a backing
// source that can actually stream it.
package mirror

import (
	"context"
	"fmt"
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/aurelink/aurelink/pkg/routeplanner"
	"github.com/aurelink/aurelink/pkg/source"
	"github.com/aurelink/aurelink/pkg/track"
)

// Name is this plugin's source name.
const Name = "mirror"

// DefaultThreshold is the minimum Jaro-Winkler score a candidate needs to
// be accepted; below this, Load reports LoadTypeEmpty rather than risk
// returning the wrong track.
const DefaultThreshold = 0.85

// Plugin cross-matches identifiers against a fixed set of backing
// plugins, never resolving tracks itself.
type Plugin struct {
	source.NopExtras
	backing   []source.Plugin
	threshold float64
}

// New builds a mirror Plugin that searches backing in order, accepting
// matches scoring at least threshold (use DefaultThreshold if unsure).
func New(threshold float64, backing ...source.Plugin) *Plugin {
	return &Plugin{backing: backing, threshold: threshold}
}

func (p *Plugin) Name() string   { return Name }
func (p *Plugin) IsMirror() bool { return true }

// CanHandle accepts the "mirror:" prefix, plus a bare "isrc:" prefix for
// direct ISRC lookups (mirroring Lavalink convention's "dzisrc:"-style
// source-scoped prefixes, generalized since this plugin isn't tied to one
// backing catalog).
func (p *Plugin) CanHandle(identifier string) bool {
	return strings.HasPrefix(identifier, "mirror:") || strings.HasPrefix(identifier, "isrc:")
}

func (p *Plugin) SearchPrefixes() []string { return nil }
func (p *Plugin) ISRCPrefixes() []string   { return []string{"isrc"} }

// Load parses identifier into a search query, fans it out to every
// backing plugin's LoadSearch, and returns the single best-scoring track
// across all of their results, re-tagged with that backing plugin's own
// source name so a later Registry.GetTrack routes straight to it.
func (p *Plugin) Load(ctx context.Context, identifier string, planner routeplanner.Planner) (track.LoadResult, error) {
	query, isISRC := parseIdentifier(identifier)

	var candidates []track.Track
	for _, b := range p.backing {
		res, err := b.LoadSearch(ctx, query, nil, planner)
		if err != nil || res == nil {
			continue
		}
		for _, tr := range res.Tracks {
			tr.Info.SourceName = b.Name()
			tr.Encoded = track.Encode(tr.Info)
			candidates = append(candidates, tr)
		}
	}

	if len(candidates) == 0 {
		return track.EmptyResult(), nil
	}

	best, score := bestMatch(query, isISRC, candidates)
	if score < p.threshold {
		return track.EmptyResult(), nil
	}
	return track.TrackResult(best), nil
}

// GetTrack always returns nil: by the time a player asks for a
// PlayableTrack, Load has already rewritten the track's source name to
// whichever backing plugin supplied it, so Registry.GetTrack never routes
// here.
func (p *Plugin) GetTrack(ctx context.Context, identifier string, planner routeplanner.Planner) (source.PlayableTrack, error) {
	return nil, fmt.Errorf("mirror: does not host playable tracks directly")
}

func parseIdentifier(identifier string) (query string, isISRC bool) {
	switch {
	case strings.HasPrefix(identifier, "mirror:"):
		return strings.TrimPrefix(identifier, "mirror:"), false
	case strings.HasPrefix(identifier, "isrc:"):
		return strings.TrimPrefix(identifier, "isrc:"), true
	default:
		return identifier, false
	}
}

// bestMatch scores every candidate against query and returns the highest
// scorer. An ISRC query short-circuits to a score of 1.0 on an exact
// (case-insensitive) ISRC match, since that's an unambiguous identifier
// rather than a fuzzy one.
func bestMatch(query string, isISRC bool, candidates []track.Track) (track.Track, float64) {
	var best track.Track
	var bestScore float64

	for _, c := range candidates {
		var score float64
		if isISRC && c.Info.ISRC != "" && strings.EqualFold(c.Info.ISRC, query) {
			score = 1.0
		} else {
			score = titleScore(query, c.Info.Title, c.Info.Author)
		}
		if score > bestScore {
			bestScore = score
			best = c
		}
	}
	return best, bestScore
}

// titleScore runs the same three-strategy Jaro-Winkler comparison the
// teacher's transcript-matching package uses: full-string, then
// space-stripped, then best pairwise token score, returning the highest.
func titleScore(query, title, author string) float64 {
	candidate := strings.TrimSpace(title + " " + author)
	score := matchr.JaroWinkler(query, candidate, false)

	queryTokens := strings.Fields(query)
	candidateTokens := strings.Fields(candidate)
	if len(queryTokens) > 1 || len(candidateTokens) > 1 {
		if s := matchr.JaroWinkler(strings.Join(queryTokens, ""), strings.Join(candidateTokens, ""), false); s > score {
			score = s
		}
	}
	for _, qt := range queryTokens {
		for _, ct := range candidateTokens {
			if s := matchr.JaroWinkler(qt, ct, false); s > score {
				score = s
			}
		}
	}
	return score
}
