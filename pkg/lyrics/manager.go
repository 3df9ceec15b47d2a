package lyrics

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/aurelink/aurelink/pkg/track"
)

// Manager holds the set of enabled providers and fans a lookup out across
// all of them concurrently.
type Manager struct {
	providers []Provider
}

// NewManager builds a Manager from an already-constructed provider list;
// callers build that list from config the way the teacher wires any other
// optional-by-config component, registering only the providers their
// config enables.
func NewManager(providers ...Provider) *Manager {
	return &Manager{providers: providers}
}

// Fetch looks up lyrics for info, trying every registered provider.
func (m *Manager) Fetch(ctx context.Context, info track.Info) *Data {
	return m.fetch(ctx, info, false)
}

// FetchSkippingSource is Fetch, but skips any provider whose Name matches
// info.SourceName (case-insensitively) — used when re-querying lyrics for
// a track that was itself resolved via a lyrics-hosting source, to avoid
// asking that same source to mirror its own track back at itself.
func (m *Manager) FetchSkippingSource(ctx context.Context, info track.Info) *Data {
	return m.fetch(ctx, info, true)
}

// fetch fans info out to every eligible provider and returns as soon as a
// synced (timed) result arrives. If every provider finishes without
// producing synced lines, it falls back to the first plain-text result
// seen, or nil if nothing matched at all.
//
// Go has no FuturesUnordered: each provider runs in its own goroutine and
// feeds a single shared, unbuffered-from-the-consumer's-view channel, and
// the consumer loop below drains it in whatever order results complete,
// exactly mirroring FuturesUnordered's completion-order semantics.
func (m *Manager) fetch(ctx context.Context, info track.Info, skipSource bool) *Data {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan *Data)
	var wg sync.WaitGroup

	n := 0
	for _, p := range m.providers {
		if skipSource && strings.EqualFold(p.Name(), info.SourceName) {
			continue
		}
		n++
		wg.Add(1)
		go func(p Provider) {
			defer wg.Done()
			data, err := p.LoadLyrics(ctx, info)
			if err != nil {
				slog.Warn("lyrics: provider failed", "provider", p.Name(), "error", err)
				data = nil
			}
			select {
			case results <- data:
			case <-ctx.Done():
			}
		}(p)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var fallback *Data
	for i := 0; i < n; i++ {
		data, ok := <-results
		if !ok {
			break
		}
		if data == nil {
			continue
		}
		if data.Synced() {
			return data
		}
		if fallback == nil {
			fallback = data
		}
	}
	return fallback
}
