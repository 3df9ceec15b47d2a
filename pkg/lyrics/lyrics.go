// Package lyrics implements lyrics retrieval: a Provider contract mirroring
// each backing lyrics site or API, and a Manager that fans a track lookup
// out to every registered provider and returns the first synced-line
// result to arrive, falling back to the first plain-text result if no
// provider has timed lines.
package lyrics

import (
	"context"

	"github.com/aurelink/aurelink/pkg/track"
)

// Line is a single lyrics line, optionally timestamped for synced display.
type Line struct {
	Text      string `json:"text"`
	Timestamp uint64 `json:"timestamp"`
	Duration  uint64 `json:"duration"`
}

// Data is the result of a successful lyrics lookup. Lines is nil for
// plain-text-only results; a non-nil (possibly empty) Lines means the
// provider returned time-synced lyrics.
type Data struct {
	Name     string `json:"name"`
	Author   string `json:"author"`
	Provider string `json:"provider"`
	Text     string `json:"text"`
	Lines    []Line `json:"lines,omitempty"`
}

// Synced reports whether this result carries timed lines rather than a
// plain-text blob.
func (d Data) Synced() bool { return d.Lines != nil }

// Provider looks up lyrics for a track from one backing catalog or API.
// LoadLyrics returns (nil, nil) — not an error — when the provider simply
// has no match; a non-nil error indicates the provider itself failed
// (network error, bad response, etc.) and the Manager logs and otherwise
// ignores it exactly like a miss.
type Provider interface {
	Name() string
	LoadLyrics(ctx context.Context, info track.Info) (*Data, error)
}
