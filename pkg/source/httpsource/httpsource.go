// Package httpsource implements the "http" source plugin: any bare
// http(s):// URL is playable directly, with no platform-specific metadata
// lookup. It's the simplest possible Plugin, and the one every other
// concrete source's PlayableTrack ultimately delegates its byte stream to
// (mirroring the original's HttpTrack, which AudiomackTrack/BandcampTrack
// wrap once they've resolved a signed stream URL).
package httpsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/aurelink/aurelink/pkg/decode"
	"github.com/aurelink/aurelink/pkg/remote"
	"github.com/aurelink/aurelink/pkg/resample"
	"github.com/aurelink/aurelink/pkg/routeplanner"
	"github.com/aurelink/aurelink/pkg/source"
	"github.com/aurelink/aurelink/pkg/track"
)

// Name is this plugin's source-name, stored in every Track.Info it loads
// so Registry.GetTrack can route back to it later.
const Name = "http"

// Plugin resolves and plays back plain HTTP(S) URLs.
type Plugin struct {
	source.NopExtras
	quality resample.Quality
}

// New builds an http Plugin decoding at the given resample quality.
func New(quality resample.Quality) *Plugin {
	return &Plugin{quality: quality}
}

func (p *Plugin) Name() string { return Name }

// CanHandle accepts any http:// or https:// identifier; it is the
// fallback every other plugin's CanHandle should be checked before, since
// it never rejects a URL it merely can't play well.
func (p *Plugin) CanHandle(identifier string) bool {
	return strings.HasPrefix(identifier, "http://") || strings.HasPrefix(identifier, "https://")
}

// Load sends a HEAD request through the planner-bound client to discover
// content length and seekability, then returns a single-track LoadResult. No remote metadata
// service exists for a bare URL, so Title/Author fall back to the last
// path segment.
func (p *Plugin) Load(ctx context.Context, identifier string, planner routeplanner.Planner) (track.LoadResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, identifier, nil)
	if err != nil {
		return track.ErrorResult(track.LoadError{
			Message:  "invalid URL",
			Severity: track.SeverityCommon,
			Cause:    err.Error(),
		}), nil
	}
	client := boundClient(planner)
	resp, err := client.Do(req)
	if err != nil {
		return track.ErrorResult(track.LoadError{
			Message:  "failed to reach URL",
			Severity: track.SeveritySuspicious,
			Cause:    err.Error(),
		}), nil
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		return track.ErrorResult(track.LoadError{
			Message:  fmt.Sprintf("HTTP %s", resp.Status),
			Severity: track.SeverityCommon,
			Cause:    "non-2xx response to HEAD request",
		}), nil
	}

	title := path.Base(identifier)
	info := track.Info{
		Identifier: identifier,
		IsSeekable: resp.Header.Get("Accept-Ranges") == "bytes",
		Author:     "unknown",
		IsStream:   resp.ContentLength < 0,
		Title:      title,
		URI:        identifier,
		SourceName: Name,
	}
	return track.TrackResult(track.New(info)), nil
}

// GetTrack returns a PlayableTrack that streams identifier directly.
func (p *Plugin) GetTrack(ctx context.Context, identifier string, planner routeplanner.Planner) (source.PlayableTrack, error) {
	return &Track{url: identifier, quality: p.quality, planner: planner}, nil
}

// boundClient returns an *http.Client whose outbound connections bind to
// whatever address planner hands out, or http.DefaultClient if planner is
// nil.
func boundClient(planner routeplanner.Planner) *http.Client {
	if planner == nil {
		return http.DefaultClient
	}
	return &http.Client{Transport: &http.Transport{DialContext: routeplanner.DialContext(planner)}}
}

// Track is the PlayableTrack for a direct HTTP(S) URL.
type Track struct {
	url     string
	quality resample.Quality
	planner routeplanner.Planner
}

// Start opens the URL, builds a decode.Processor over it, and runs the
// decode loop on its own goroutine until Stop is requested or the stream
// ends. Seek commands are ignored.
func (t *Track) Start(ctx context.Context) (*source.DecodeStream, error) {
	reader, err := remote.NewHTTPReaderWithClient(t.url, boundClient(t.planner))
	if err != nil {
		return nil, fmt.Errorf("httpsource: open %s: %w", t.url, err)
	}

	proc, err := decode.New(reader, t.quality)
	if err != nil {
		reader.Close()
		return nil, fmt.Errorf("httpsource: decode %s: %w", t.url, err)
	}

	commands := make(chan source.DecoderCommand, 1)
	handle := source.NewTrackHandle(commands)

	errs := make(chan error, 1)

	if proc.IsOpusPassthrough() {
		opus := make(chan []byte, 64)
		go runOpusLoop(ctx, proc, reader, opus, commands, errs, handle)
		return &source.DecodeStream{Opus: opus, Errors: errs, Handle: handle}, nil
	}

	pcm := make(chan []int16, 64)
	go runPCMLoop(ctx, proc, reader, pcm, commands, errs, handle)
	return &source.DecodeStream{PCM: pcm, Errors: errs, Handle: handle}, nil
}

func runPCMLoop(ctx context.Context, proc *decode.Processor, closer interface{ Close() error }, out chan<- []int16, commands <-chan source.DecoderCommand, errs chan<- error, handle *source.TrackHandle) {
	defer close(out)
	defer close(errs)
	defer closer.Close()

	var samples uint64
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-commands:
			if applyCommand(cmd, proc) == commandStop {
				return
			}
			continue
		default:
		}

		frame, err := proc.NextFrame()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				errs <- fmt.Errorf("httpsource: decode: %w", err)
			}
			return
		}
		samples += uint64(len(frame) / 2)
		handle.SetPositionSamples(samples)

		select {
		case out <- frame:
		case <-ctx.Done():
			return
		}
	}
}

func runOpusLoop(ctx context.Context, proc *decode.Processor, closer interface{ Close() error }, out chan<- []byte, commands <-chan source.DecoderCommand, errs chan<- error, handle *source.TrackHandle) {
	defer close(out)
	defer close(errs)
	defer closer.Close()

	var packets uint64
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-commands:
			if applyCommand(cmd, proc) == commandStop {
				return
			}
			continue
		default:
		}

		packet, err := proc.NextOpusPacket()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				errs <- fmt.Errorf("httpsource: decode: %w", err)
			}
			return
		}
		packets++
		handle.SetPositionSamples(packets * 960) // 20ms per packet at 48kHz

		select {
		case out <- packet:
		case <-ctx.Done():
			return
		}
	}
}

type commandOutcome int

const (
	commandContinue commandOutcome = iota
	commandStop
)

// applyCommand is a best-effort seek: without per-track bitrate/duration
// metadata there's no exact byte offset for a given millisecond, so this
// generic plugin only honors Stop and ignores Seek (a seek-capable source
// plugin overrides this by wrapping its own *decode.Processor directly).
func applyCommand(cmd source.DecoderCommand, proc *decode.Processor) commandOutcome {
	switch cmd.Kind {
	case source.CommandStop:
		proc.Stop()
		return commandStop
	default:
		return commandContinue
	}
}
