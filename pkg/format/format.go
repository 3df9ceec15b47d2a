// Package format sniffs an audio container format from the first bytes of
// a stream, letting the decode pipeline pick a demux path before handing
// the stream to a full demuxer.
package format

import "bytes"

// Format identifies a container the pipeline can handle, or Unknown.
type Format int

const (
	Unknown Format = iota
	WebmOpus
	MP4
	MP3
	Ogg
	FLAC
	WAV
)

// String returns a human-readable name for f.
func (f Format) String() string {
	switch f {
	case WebmOpus:
		return "WebM/Opus"
	case MP4:
		return "MPEG-4"
	case MP3:
		return "MP3"
	case Ogg:
		return "OGG"
	case FLAC:
		return "FLAC"
	case WAV:
		return "WAV"
	default:
		return "Unknown"
	}
}

// Ext returns the filename extension most associated with f, or "" for
// Unknown.
func (f Format) Ext() string {
	switch f {
	case WebmOpus:
		return "webm"
	case MP4:
		return "m4a"
	case MP3:
		return "mp3"
	case Ogg:
		return "ogg"
	case FLAC:
		return "flac"
	case WAV:
		return "wav"
	default:
		return ""
	}
}

// IsOpusPassthrough reports whether f carries raw Opus that can be handed
// straight to the voice transport without re-encoding.
func (f Format) IsOpusPassthrough() bool {
	return f == WebmOpus || f == Ogg
}

// Detect sniffs the container format from the first bytes of a stream.
// Requires at least 4 bytes; returns Unknown for anything not recognized.
func Detect(header []byte) Format {
	if len(header) < 4 {
		return Unknown
	}

	// EBML magic (WebM / Matroska).
	if bytes.HasPrefix(header, []byte{0x1A, 0x45, 0xDF, 0xA3}) {
		return WebmOpus
	}

	if len(header) >= 8 && bytes.Equal(header[4:8], []byte("ftyp")) {
		return MP4
	}

	if bytes.HasPrefix(header, []byte("OggS")) {
		return Ogg
	}

	if bytes.HasPrefix(header, []byte("fLaC")) {
		return FLAC
	}

	if bytes.HasPrefix(header, []byte("RIFF")) && len(header) >= 12 && bytes.Equal(header[8:12], []byte("WAVE")) {
		return WAV
	}

	if bytes.HasPrefix(header, []byte("ID3")) {
		return MP3
	}
	if header[0] == 0xFF && header[1]&0xE0 == 0xE0 {
		return MP3
	}

	return Unknown
}
