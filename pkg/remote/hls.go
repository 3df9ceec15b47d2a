package remote

import (
	"fmt"
	"io"
	"net/http"
)

// HLSReader reads a sequence of HLS media segments as one continuous
// byte stream, fetching each segment lazily as the previous one drains.
// HLS streams are not seekable.
type HLSReader struct {
	client *http.Client

	buf []byte
	pos int

	mapURL     string
	mapFetched bool
	hasMap     bool

	pending []m3u8Segment
}

// NewHLSReader resolves a (possibly master) M3U8 manifest down to a
// media playlist's segment list, following the same variant-selection
// rule Discord streaming clients use: prefer an audio-only variant,
// otherwise the best variant with a referenced audio group, otherwise
// the highest-bandwidth variant available.
func NewHLSReader(manifestURL string) (*HLSReader, error) {
	client := &http.Client{Timeout: clientTimeout}

	segments, mapURL, hasMap, err := resolveHLSPlaylist(client, manifestURL)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("remote: hls playlist has no segments")
	}

	r := &HLSReader{
		client:  client,
		buf:     make([]byte, 0, 512*1024),
		mapURL:  mapURL,
		hasMap:  hasMap,
		pending: segments,
	}

	if r.hasMap {
		if err := fetchSegmentInto(client, r.mapURL, &r.buf); err != nil {
			return nil, err
		}
		r.mapFetched = true
	}
	if err := r.fetchNextSegment(); err != nil {
		return nil, err
	}
	return r, nil
}

func resolveHLSPlaylist(client *http.Client, manifestURL string) ([]m3u8Segment, string, bool, error) {
	text, err := fetchText(client, manifestURL)
	if err != nil {
		return nil, "", false, err
	}
	playlist := parseM3U8(text, manifestURL)

	if !playlist.isMaster {
		return playlist.segments, playlist.mapURL, playlist.hasMap, nil
	}

	best := selectVariant(playlist.variants)
	if best == nil {
		return nil, "", false, fmt.Errorf("remote: hls master playlist has no variants")
	}

	if best.audioGroup != "" {
		if group, ok := playlist.audioGroups[best.audioGroup]; ok {
			if uri := pickAudioRendition(group); uri != "" {
				return resolveHLSPlaylist(client, uri)
			}
		}
	}
	return resolveHLSPlaylist(client, best.url)
}

// selectVariant prefers an audio-only variant with the highest
// bandwidth, then a variant that references an audio group, then the
// highest-bandwidth variant overall.
func selectVariant(variants []m3u8Variant) *m3u8Variant {
	var audioOnly, withGroup, any *m3u8Variant
	for i := range variants {
		v := &variants[i]
		if v.audioOnly && (audioOnly == nil || v.bandwidth > audioOnly.bandwidth) {
			audioOnly = v
		}
		if v.audioGroup != "" && (withGroup == nil || v.bandwidth > withGroup.bandwidth) {
			withGroup = v
		}
		if any == nil || v.bandwidth > any.bandwidth {
			any = v
		}
	}
	if audioOnly != nil {
		return audioOnly
	}
	if withGroup != nil {
		return withGroup
	}
	return any
}

func pickAudioRendition(group []m3u8Media) string {
	for _, m := range group {
		if m.isDefault && m.uri != "" {
			return m.uri
		}
	}
	for _, m := range group {
		if m.uri != "" {
			return m.uri
		}
	}
	return ""
}

func fetchText(client *http.Client, url string) (string, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("remote: build hls request: %w", err)
	}
	req.Header.Set("Accept", "application/x-mpegURL, */*")
	req.Header.Set("User-Agent", userAgent)
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("remote: fetch hls playlist %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("remote: hls playlist fetch failed %s: %s", url, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("remote: read hls playlist %s: %w", url, err)
	}
	return string(body), nil
}

func fetchSegmentInto(client *http.Client, url string, out *[]byte) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("remote: build hls segment request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("remote: fetch hls segment %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("remote: hls segment fetch failed %s: %s", url, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("remote: read hls segment %s: %w", url, err)
	}
	*out = append(*out, body...)
	return nil
}

func (r *HLSReader) fetchNextSegment() error {
	if len(r.pending) == 0 {
		return io.EOF
	}
	seg := r.pending[0]
	r.pending = r.pending[1:]
	r.buf = r.buf[:0]
	r.pos = 0
	return fetchSegmentInto(r.client, seg.url, &r.buf)
}

func (r *HLSReader) Read(p []byte) (int, error) {
	for r.pos >= len(r.buf) {
		if len(r.pending) == 0 {
			return 0, io.EOF
		}
		if err := r.fetchNextSegment(); err != nil {
			return 0, err
		}
	}
	n := copy(p, r.buf[r.pos:])
	r.pos += n
	return n, nil
}
