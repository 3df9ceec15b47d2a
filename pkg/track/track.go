// Package track implements the Lavalink v4 Track model, including the
// versioned binary encoding used for the opaque "encoded" field that
// clients pass back on play requests.
package track

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
)

// encodingVersion is the binary track format version this node writes.
// Versions up to 3 are accepted on decode for compatibility with tracks
// minted by older Lavalink nodes and clients.
const encodingVersion = 3

// Info carries the metadata Lavalink clients display and use to resume
// playback.
type Info struct {
	Identifier  string `json:"identifier"`
	IsSeekable  bool   `json:"isSeekable"`
	Author      string `json:"author"`
	Length      uint64 `json:"length"`
	IsStream    bool   `json:"isStream"`
	Position    uint64 `json:"position"`
	Title       string `json:"title"`
	URI         string `json:"uri,omitempty"`
	ArtworkURL  string `json:"artworkUrl,omitempty"`
	ISRC        string `json:"isrc,omitempty"`
	SourceName  string `json:"sourceName"`
}

// Track pairs the opaque encoded form with its decoded metadata, mirroring
// what the REST API and player event payloads expose to clients.
type Track struct {
	Encoded    string         `json:"encoded"`
	Info       Info           `json:"info"`
	PluginInfo map[string]any `json:"pluginInfo"`
	UserData   map[string]any `json:"userData"`
}

// New builds a Track from Info, immediately encoding it so Encoded is
// always consistent with Info.
func New(info Info) Track {
	t := Track{
		Info:       info,
		PluginInfo: map[string]any{},
		UserData:   map[string]any{},
	}
	t.Encoded = Encode(info)
	return t
}

// Encode serializes Info into the Lavalink v4 binary track format and
// returns it base64-standard encoded.
func Encode(info Info) string {
	var buf []byte
	buf = append(buf, encodingVersion)
	buf = writeUTF(buf, info.Title)
	buf = writeUTF(buf, info.Author)
	buf = binary.BigEndian.AppendUint64(buf, info.Length)
	buf = writeUTF(buf, info.Identifier)
	buf = append(buf, boolByte(info.IsStream))
	buf = writeOptUTF(buf, info.URI)
	buf = writeOptUTF(buf, info.ArtworkURL)
	buf = writeOptUTF(buf, info.ISRC)
	buf = writeUTF(buf, info.SourceName)
	buf = binary.BigEndian.AppendUint64(buf, info.Position)
	return base64.StdEncoding.EncodeToString(buf)
}

// ErrUnsupportedVersion is returned when a track's binary version byte is
// newer than this node understands.
var ErrUnsupportedVersion = errors.New("track: unsupported encoding version")

// Decode parses a base64-encoded track back into a Track, reconstructing
// Encoded verbatim from the input so round-tripping through the REST API
// never perturbs the string clients hold onto.
func Decode(encoded string) (Track, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return Track{}, fmt.Errorf("track: decode base64: %w", err)
	}
	r := &reader{buf: data}

	version, ok := r.readByte()
	if !ok {
		return Track{}, truncated("version")
	}
	if version > encodingVersion {
		return Track{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	title, ok := r.readUTF()
	if !ok {
		return Track{}, truncated("title")
	}
	author, ok := r.readUTF()
	if !ok {
		return Track{}, truncated("author")
	}
	length, ok := r.readUint64()
	if !ok {
		return Track{}, truncated("length")
	}
	identifier, ok := r.readUTF()
	if !ok {
		return Track{}, truncated("identifier")
	}
	streamByte, ok := r.readByte()
	if !ok {
		return Track{}, truncated("isStream")
	}
	isStream := streamByte != 0

	uri := r.readOptUTF()

	var artworkURL, isrc string
	if version >= 3 {
		artworkURL = r.readOptUTF()
		isrc = r.readOptUTF()
	}

	sourceName, ok := r.readUTF()
	if !ok {
		return Track{}, truncated("sourceName")
	}

	var position uint64
	if version >= 2 {
		position, _ = r.readUint64()
	}

	info := Info{
		Identifier: identifier,
		IsSeekable: !isStream,
		Author:     author,
		Length:     length,
		IsStream:   isStream,
		Position:   position,
		Title:      title,
		URI:        uri,
		ArtworkURL: artworkURL,
		ISRC:       isrc,
		SourceName: sourceName,
	}

	return Track{
		Encoded:    encoded,
		Info:       info,
		PluginInfo: map[string]any{},
		UserData:   map[string]any{},
	}, nil
}

func truncated(field string) error {
	return fmt.Errorf("track: truncated %s field", field)
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func writeUTF(buf []byte, s string) []byte {
	b := []byte(s)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(b)))
	return append(buf, b...)
}

func writeOptUTF(buf []byte, s string) []byte {
	if s == "" {
		return append(buf, 0)
	}
	buf = append(buf, 1)
	return writeUTF(buf, s)
}

// reader is a small cursor over the binary track payload, returning ok=false
// on any out-of-bounds access instead of panicking.
type reader struct {
	buf []byte
	pos int
}

func (r *reader) readByte() (byte, bool) {
	if r.pos >= len(r.buf) {
		return 0, false
	}
	b := r.buf[r.pos]
	r.pos++
	return b, true
}

func (r *reader) readUint64() (uint64, bool) {
	if r.pos+8 > len(r.buf) {
		return 0, false
	}
	v := binary.BigEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, true
}

func (r *reader) readUint16() (uint16, bool) {
	if r.pos+2 > len(r.buf) {
		return 0, false
	}
	v := binary.BigEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, true
}

func (r *reader) readUTF() (string, bool) {
	n, ok := r.readUint16()
	if !ok {
		return "", false
	}
	if r.pos+int(n) > len(r.buf) {
		return "", false
	}
	s := string(r.buf[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s, true
}

func (r *reader) readOptUTF() string {
	present, ok := r.readByte()
	if !ok || present == 0 {
		return ""
	}
	s, _ := r.readUTF()
	return s
}
