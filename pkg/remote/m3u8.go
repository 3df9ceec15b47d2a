package remote

import (
	"strconv"
	"strings"
)

// m3u8Variant is one entry in a master playlist's EXT-X-STREAM-INF list.
type m3u8Variant struct {
	url        string
	bandwidth  uint64
	codecs     string
	audioOnly  bool
	audioGroup string
}

// m3u8Media is an EXT-X-MEDIA rendition (used for audio groups referenced
// by a video variant that has no inline audio track).
type m3u8Media struct {
	uri       string
	isDefault bool
}

// m3u8Segment is one media-playlist entry: a fetchable resource plus its
// optional byte range.
type m3u8Segment struct {
	url         string
	rangeLength int64
	rangeOffset int64
	hasRange    bool
}

// m3u8Playlist is either a master (variant list) or a media (segment
// list) playlist, distinguished by the presence of EXT-X-STREAM-INF.
type m3u8Playlist struct {
	isMaster bool

	variants    []m3u8Variant
	audioGroups map[string][]m3u8Media

	segments []m3u8Segment
	mapURL   string
	hasMap   bool
}

// parseM3U8 is a minimal M3U8 parser covering just what variant selection
// and segment enumeration need: EXT-X-STREAM-INF/EXT-X-MEDIA for master
// playlists, EXT-X-MAP/EXT-X-BYTERANGE/EXTINF for media playlists.
func parseM3U8(text, baseURL string) m3u8Playlist {
	lines := splitTrimmedLines(text)
	isMaster := false
	for _, l := range lines {
		if strings.HasPrefix(l, "#EXT-X-STREAM-INF") {
			isMaster = true
			break
		}
	}

	if isMaster {
		return parseMasterPlaylist(lines, baseURL)
	}
	return parseMediaPlaylist(lines, baseURL)
}

func splitTrimmedLines(text string) []string {
	raw := strings.Split(text, "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		out = append(out, strings.TrimSpace(l))
	}
	return out
}

func parseMasterPlaylist(lines []string, baseURL string) m3u8Playlist {
	playlist := m3u8Playlist{isMaster: true, audioGroups: map[string][]m3u8Media{}}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		switch {
		case strings.HasPrefix(line, "#EXT-X-MEDIA"):
			typ := extractAttr(line, "TYPE")
			group := extractAttr(line, "GROUP-ID")
			uri := extractAttr(line, "URI")
			isDefault := extractAttr(line, "DEFAULT") == "YES"
			if typ == "AUDIO" && group != "" {
				media := m3u8Media{isDefault: isDefault}
				if uri != "" {
					media.uri = resolveURL(baseURL, uri)
				}
				playlist.audioGroups[group] = append(playlist.audioGroups[group], media)
			}

		case strings.HasPrefix(line, "#EXT-X-STREAM-INF"):
			bandwidth, _ := strconv.ParseUint(extractAttr(line, "BANDWIDTH"), 10, 64)
			codecs := extractAttr(line, "CODECS")
			audioGroup := extractAttr(line, "AUDIO")
			hasAudio := strings.Contains(codecs, "mp4a") || strings.Contains(codecs, "opus") || strings.Contains(codecs, "aac")
			hasVideo := containsAny(codecs, "avc1", "hvc1", "hev1", "vp09", "av01", "vp9", "av1", "vp8", "h264", "h265", "mp4v")

			j := i + 1
			for j < len(lines) && strings.HasPrefix(lines[j], "#") {
				j++
			}
			if j < len(lines) && lines[j] != "" {
				v := m3u8Variant{
					url:       resolveURL(baseURL, lines[j]),
					bandwidth: bandwidth,
					codecs:    codecs,
					audioOnly: hasAudio && !hasVideo,
				}
				if audioGroup != "" {
					v.audioGroup = audioGroup
				}
				playlist.variants = append(playlist.variants, v)
			}
			i = j
		}
	}
	return playlist
}

func parseMediaPlaylist(lines []string, baseURL string) m3u8Playlist {
	playlist := m3u8Playlist{}
	var nextOffset int64
	var pending *m3u8Segment

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		switch {
		case strings.HasPrefix(line, "#EXT-X-MAP"):
			if uri := extractAttr(line, "URI"); uri != "" {
				playlist.mapURL = resolveURL(baseURL, uri)
				playlist.hasMap = true
			}

		case strings.HasPrefix(line, "#EXT-X-BYTERANGE:"):
			seg := parseByteRange(line[len("#EXT-X-BYTERANGE:"):], nextOffset)
			nextOffset = seg.rangeOffset + seg.rangeLength
			pending = &seg

		case strings.HasPrefix(line, "#EXTINF:"):
			j := i + 1
			for j < len(lines) && strings.HasPrefix(lines[j], "#") {
				if strings.HasPrefix(lines[j], "#EXT-X-BYTERANGE:") {
					seg := parseByteRange(lines[j][len("#EXT-X-BYTERANGE:"):], nextOffset)
					nextOffset = seg.rangeOffset + seg.rangeLength
					pending = &seg
				}
				j++
			}
			if j < len(lines) {
				seg := m3u8Segment{url: resolveURL(baseURL, lines[j])}
				if pending != nil {
					seg.rangeLength, seg.rangeOffset, seg.hasRange = pending.rangeLength, pending.rangeOffset, true
					pending = nil
				}
				playlist.segments = append(playlist.segments, seg)
			}
			i = j - 1
		}
	}
	return playlist
}

func parseByteRange(attr string, lastEndOffset int64) m3u8Segment {
	attr = strings.Trim(strings.TrimSpace(attr), `"`)
	parts := strings.SplitN(attr, "@", 2)
	length, _ := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	offset := lastEndOffset
	if len(parts) > 1 {
		if o, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64); err == nil {
			offset = o
		}
	}
	return m3u8Segment{rangeLength: length, rangeOffset: offset, hasRange: true}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// extractAttr pulls a KEY=value or KEY="value" attribute off an M3U8 tag
// line, where attributes are separated by a leading ':' or ','.
func extractAttr(line, key string) string {
	keyEq := key + "="
	pos := strings.Index(line, ":"+keyEq)
	if pos >= 0 {
		pos++
	} else {
		pos = strings.Index(line, ","+keyEq)
		if pos < 0 {
			return ""
		}
		pos++
	}
	rest := line[pos+len(keyEq):]
	if strings.HasPrefix(rest, `"`) {
		end := strings.Index(rest[1:], `"`)
		if end < 0 {
			return ""
		}
		return rest[1 : 1+end]
	}
	if end := strings.IndexByte(rest, ','); end >= 0 {
		return strings.TrimSpace(rest[:end])
	}
	return strings.TrimSpace(rest)
}

// resolveURL turns a playlist-relative URL into an absolute one, per
// HLS's usual resolution rules: absolute URLs pass through, a leading
// slash replaces the path on base's host, anything else is appended to
// base's directory.
func resolveURL(base, maybeRelative string) string {
	if strings.HasPrefix(maybeRelative, "http://") || strings.HasPrefix(maybeRelative, "https://") {
		return maybeRelative
	}

	baseClean := base
	if i := strings.IndexByte(baseClean, '?'); i >= 0 {
		baseClean = baseClean[:i]
	}
	if i := strings.IndexByte(baseClean, '#'); i >= 0 {
		baseClean = baseClean[:i]
	}

	if strings.HasPrefix(maybeRelative, "/") {
		if schemeEnd := strings.Index(baseClean, "://"); schemeEnd >= 0 {
			hostStart := schemeEnd + 3
			hostEnd := len(baseClean)
			if p := strings.IndexByte(baseClean[hostStart:], '/'); p >= 0 {
				hostEnd = hostStart + p
			}
			return baseClean[:hostEnd] + maybeRelative
		}
	}

	baseDir := baseClean
	if i := strings.LastIndexByte(baseClean, '/'); i >= 0 {
		baseDir = baseClean[:i+1]
	}
	return baseDir + maybeRelative
}
