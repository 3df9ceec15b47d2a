// Package genius implements a lyrics.Provider backed by Genius's public
// song-search endpoint and the embedded JSON state on a song's page — the
// only page Genius itself publishes the lyrics body on, so this provider
// scrapes that page rather than calling a documented lyrics API. It never
// returns timed lines, only plain text, so the Manager only ever uses it
// as a fallback behind a synced-lyrics provider.
package genius

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/aurelink/aurelink/pkg/lyrics"
	"github.com/aurelink/aurelink/pkg/track"
)

// Name is this provider's identifier.
const Name = "genius"

const searchEndpoint = "https://genius.com/api/search/multi"

var bracketNoise = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s*\([^)]*(?:official|lyrics?|video|audio|mv|visualizer|color\s*coded|hd|4k|prod\.)[^)]*\)`),
	regexp.MustCompile(`(?i)\s*\[[^\]]*(?:official|lyrics?|video|audio|mv|visualizer|color\s*coded|hd|4k|prod\.)[^\]]*\]`),
	regexp.MustCompile(`(?i)\s*[([]\s*(?:ft\.?|feat\.?|featuring)\s+[^)\]]+[)\]]`),
	regexp.MustCompile(`(?i)\s*-\s*Topic$`),
	regexp.MustCompile(`(?i)VEVO$`),
	regexp.MustCompile(`(?i)\s*[(\[]\s*Remastered\s*[)\]]`),
}

var (
	preloadedState  = regexp.MustCompile(`(?s)window\.__PRELOADED_STATE__\s*=\s*JSON\.parse\('(.*?)'\);`)
	backslashEscape = regexp.MustCompile(`\\(.)`)
	htmlTag         = regexp.MustCompile(`<[^>]*>`)
	htmlUnescaper   = strings.NewReplacer(
		"&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`,
		"&#39;", "'", "&apos;", "'", "&nbsp;", " ",
	)
)

// Provider scrapes genius.com for a song's lyrics body.
type Provider struct {
	client      *http.Client
	baseURL     string
	pageBaseURL string
}

// New builds a Provider with a bounded-timeout client.
func New() *Provider {
	return &Provider{
		client:      &http.Client{Timeout: 10 * time.Second},
		baseURL:     searchEndpoint,
		pageBaseURL: "https://genius.com",
	}
}

func (p *Provider) Name() string { return Name }

// LoadLyrics searches Genius's multi-search endpoint for a matching song
// hit, follows its page path, and extracts the lyrics body embedded in
// the page's preloaded React state — the only place Genius exposes the
// lyrics text to an unauthenticated client.
func (p *Provider) LoadLyrics(ctx context.Context, info track.Info) (*lyrics.Data, error) {
	title := clean(info.Title)
	author := clean(info.Author)

	query := title
	if !strings.HasPrefix(strings.ToLower(title), strings.ToLower(author)) {
		query = strings.TrimSpace(title + " " + author)
	}

	search, err := p.get(ctx, fmt.Sprintf("%s?q=%s", p.baseURL, url.QueryEscape(query)))
	if err != nil {
		return nil, fmt.Errorf("genius: search: %w", err)
	}

	var searchData struct {
		Response struct {
			Sections []struct {
				Type string `json:"type"`
				Hits []struct {
					Result json.RawMessage `json:"result"`
				} `json:"hits"`
			} `json:"sections"`
		} `json:"response"`
	}
	if err := json.Unmarshal(search, &searchData); err != nil {
		return nil, fmt.Errorf("genius: decode search response: %w", err)
	}

	var song struct {
		Title  string `json:"title"`
		Path   string `json:"path"`
		Artist struct {
			Name string `json:"name"`
		} `json:"primary_artist"`
	}
	found := false
	for _, section := range searchData.Response.Sections {
		if section.Type != "song" || len(section.Hits) == 0 {
			continue
		}
		if err := json.Unmarshal(section.Hits[0].Result, &song); err == nil {
			found = true
		}
		break
	}
	if !found || song.Path == "" {
		return nil, nil
	}

	page, err := p.get(ctx, p.pageBaseURL+song.Path)
	if err != nil {
		return nil, fmt.Errorf("genius: fetch song page: %w", err)
	}

	caps := preloadedState.FindSubmatch(page)
	if caps == nil {
		return nil, nil
	}
	unescaped := backslashEscape.ReplaceAll(caps[1], []byte("$1"))

	var pageState struct {
		SongPage struct {
			LyricsData struct {
				Body struct {
					HTML string `json:"html"`
				} `json:"body"`
			} `json:"lyricsData"`
		} `json:"songPage"`
	}
	if err := json.Unmarshal(unescaped, &pageState); err != nil {
		return nil, fmt.Errorf("genius: decode page state: %w", err)
	}

	text := pageState.SongPage.LyricsData.Body.HTML
	if text == "" {
		return nil, nil
	}
	text = strings.NewReplacer("<br>", "\n", "<br/>", "\n", "<br />", "\n").Replace(text)
	text = htmlUnescaper.Replace(htmlTag.ReplaceAllString(text, ""))

	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			continue
		}
		lines = append(lines, trimmed)
	}
	if len(lines) == 0 {
		return nil, nil
	}

	name := song.Title
	if name == "" {
		name = "original"
	}
	author = song.Artist.Name
	if author == "" {
		author = info.Author
	}

	return &lyrics.Data{
		Name:     name,
		Author:   author,
		Provider: Name,
		Text:     strings.Join(lines, "\n"),
	}, nil
}

func (p *Provider) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func clean(text string) string {
	result := text
	for _, re := range bracketNoise {
		result = re.ReplaceAllString(result, "")
	}
	return strings.TrimSpace(result)
}
