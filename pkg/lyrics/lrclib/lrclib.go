// Package lrclib implements a lyrics.Provider backed by the LRCLIB public
// API, a free synced-lyrics catalog keyed by loose title/artist search
// rather than an ISRC or platform ID.
package lrclib

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aurelink/aurelink/pkg/lyrics"
	"github.com/aurelink/aurelink/pkg/track"
)

// Name is this provider's identifier, also usable as a lyrics-source hint.
const Name = "lrclib"

const defaultBaseURL = "https://lrclib.net/api/search"

var (
	bracketNoise = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\s*\([^)]*(?:official|lyrics?|video|audio|mv|visualizer|color\s*coded|hd|4k|prod\.)[^)]*\)`),
		regexp.MustCompile(`(?i)\s*\[[^\]]*(?:official|lyrics?|video|audio|mv|visualizer|color\s*coded|hd|4k|prod\.)[^\]]*\]`),
		regexp.MustCompile(`(?i)\s*-\s*Topic$`),
		regexp.MustCompile(`(?i)VEVO$`),
	}
	featTag  = regexp.MustCompile(`(?i)\s*[([]\s*(?:ft\.?|feat\.?|featuring)\s+[^)\]]+[)\]]`)
	featTail = regexp.MustCompile(`(?i)\s+(?:ft\.?|feat\.?|featuring)\s+.*$`)
	lrcStamp = regexp.MustCompile(`\[(\d+):(\d{2})(?:\.(\d{2,3}))?\]`)
)

// Provider queries lrclib.net for synced or plain lyrics.
type Provider struct {
	client  *http.Client
	baseURL string
}

// New builds a Provider using a short-timeout default client, matching the
// ambient-stack convention of binding a bounded HTTP timeout at
// construction rather than relying on context alone.
func New() *Provider {
	return &Provider{client: &http.Client{Timeout: 8 * time.Second}, baseURL: defaultBaseURL}
}

func (p *Provider) Name() string { return Name }

type searchHit struct {
	TrackName    string `json:"trackName"`
	ArtistName   string `json:"artistName"`
	Instrumental bool   `json:"instrumental"`
	SyncedLyrics string `json:"syncedLyrics"`
	PlainLyrics  string `json:"plainLyrics"`
}

// LoadLyrics searches lrclib by cleaned title and author, preferring an
// exact title+author match, then a title-only match, then the first
// non-instrumental hit, in that order — mirroring the teacher's general
// pattern of falling back through successively looser matches rather than
// failing outright.
func (p *Provider) LoadLyrics(ctx context.Context, info track.Info) (*lyrics.Data, error) {
	title := clean(info.Title, true)
	author := clean(info.Author, false)
	query := strings.TrimSpace(title + " " + author)

	reqURL := fmt.Sprintf("%s?q=%s", p.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("lrclib: build request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lrclib: search request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("lrclib: search returned status %d", resp.StatusCode)
	}

	var hits []searchHit
	if err := json.NewDecoder(resp.Body).Decode(&hits); err != nil {
		return nil, fmt.Errorf("lrclib: decode response: %w", err)
	}
	if len(hits) == 0 {
		return nil, nil
	}

	titleLower := strings.ToLower(title)
	authorLower := strings.ToLower(author)

	best := findHit(hits, func(h searchHit) bool {
		return !h.Instrumental &&
			strings.ToLower(clean(h.TrackName, true)) == titleLower &&
			strings.ToLower(clean(h.ArtistName, false)) == authorLower
	})
	if best == nil {
		best = findHit(hits, func(h searchHit) bool {
			return !h.Instrumental && strings.ToLower(clean(h.TrackName, true)) == titleLower
		})
	}
	if best == nil {
		best = findHit(hits, func(h searchHit) bool { return !h.Instrumental })
	}
	if best == nil {
		return nil, nil
	}

	var lines []lyrics.Line
	synced := false
	switch {
	case best.SyncedLyrics != "":
		lines = parseLRC(best.SyncedLyrics)
		synced = true
	case best.PlainLyrics != "":
		lines = parsePlain(best.PlainLyrics)
	}
	if len(lines) == 0 {
		return nil, nil
	}

	texts := make([]string, len(lines))
	for i, l := range lines {
		texts[i] = l.Text
	}

	data := &lyrics.Data{
		Name:     orDefault(best.TrackName, info.Title),
		Author:   orDefault(best.ArtistName, info.Author),
		Provider: Name,
		Text:     strings.Join(texts, "\n"),
	}
	if synced {
		data.Lines = lines
	}
	return data, nil
}

func findHit(hits []searchHit, match func(searchHit) bool) *searchHit {
	for i := range hits {
		if match(hits[i]) {
			return &hits[i]
		}
	}
	return nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func clean(text string, removeFeat bool) string {
	result := text
	for _, re := range bracketNoise {
		result = re.ReplaceAllString(result, "")
	}
	if removeFeat {
		result = featTag.ReplaceAllString(result, "")
		result = featTail.ReplaceAllString(result, "")
	}
	return strings.TrimSpace(result)
}

func parseLRC(lrc string) []lyrics.Line {
	var lines []lyrics.Line
	for _, raw := range strings.Split(lrc, "\n") {
		matches := lrcStamp.FindAllStringSubmatch(raw, -1)
		if len(matches) == 0 {
			continue
		}
		text := strings.TrimSpace(lrcStamp.ReplaceAllString(raw, ""))
		if text == "" {
			continue
		}
		for _, m := range matches {
			minutes, _ := strconv.ParseUint(m[1], 10, 64)
			seconds, _ := strconv.ParseUint(m[2], 10, 64)
			ms := parseMillis(m[3])
			lines = append(lines, lyrics.Line{
				Text:      text,
				Timestamp: minutes*60*1000 + seconds*1000 + ms,
			})
		}
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Timestamp < lines[j].Timestamp })
	return lines
}

// parseMillis pads a 2-or-3-digit fractional-second capture to
// milliseconds, matching LRC's "either centiseconds or milliseconds"
// ambiguity (e.g. "[00:12.5]" means 500ms, not 5ms).
func parseMillis(raw string) uint64 {
	if raw == "" {
		return 0
	}
	for len(raw) < 3 {
		raw += "0"
	}
	ms, _ := strconv.ParseUint(raw[:3], 10, 64)
	return ms
}

func parsePlain(text string) []lyrics.Line {
	var lines []lyrics.Line
	for _, raw := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		lines = append(lines, lyrics.Line{Text: trimmed})
	}
	return lines
}
