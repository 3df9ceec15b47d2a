package player

import (
	"context"
	"fmt"
	"time"

	"github.com/aurelink/aurelink/pkg/lyrics"
	"github.com/aurelink/aurelink/pkg/routeplanner"
	"github.com/aurelink/aurelink/pkg/source"
	"github.com/aurelink/aurelink/pkg/track"
)

// StartPlayback resolves encodedTrack through registry, starts decoding
// it, and swaps it in as the player's current track: any previous track
// is ended with EndReplaced, the new one emits TrackStart, and a monitor
// goroutine is spawned to produce PlayerUpdates, detect stuck playback,
// surface decode errors, sync lyrics lines, and emit the eventual
// TrackEnd.
func (p *Player) StartPlayback(ctx context.Context, registry *source.Registry, planner routeplanner.Planner, encodedTrack string, userData map[string]any, endTimeMs *int64) error {
	info, err := track.Decode(encodedTrack)
	if err != nil {
		return fmt.Errorf("player: decode track: %w", err)
	}
	playable, err := registry.GetTrack(ctx, info.Info.SourceName, info.Info.Identifier, planner)
	if err != nil {
		return fmt.Errorf("player: resolve track: %w", err)
	}

	trackCtx, cancel := context.WithCancel(ctx)
	stream, err := playable.Start(trackCtx)
	if err != nil {
		cancel()
		return fmt.Errorf("player: start decode: %w", err)
	}

	info.UserData = userData

	p.mu.Lock()
	prev := p.current
	p.stopMonitorLocked()
	prevHandle := p.handle
	p.current = &info
	p.stream = stream
	p.handle = stream.Handle
	p.endTimeMs = endTimeMs
	p.lyricsData = nil
	p.lyricsSent = 0
	p.Flow.Crossfade.Clear()
	p.streamEnded.Store(false)
	p.userStopped.Store(false)
	if p.paused {
		stream.Handle.Pause()
	}
	p.monitorCancel = cancel
	p.monitorDone = make(chan struct{})
	monitorDone := p.monitorDone
	p.mu.Unlock()

	if prevHandle != nil {
		prevHandle.Stop()
	}
	if prev != nil {
		p.sink.TrackEnd(p.guildID, *prev, EndReplaced)
	}

	p.sink.TrackStart(p.guildID, info)

	if p.lyricsMgr != nil {
		go p.fetchLyrics(trackCtx, info.Info)
	}

	go p.monitorLoop(trackCtx, monitorDone)

	return nil
}

func (p *Player) fetchLyrics(ctx context.Context, info track.Info) {
	data := p.lyricsMgr.FetchSkippingSource(ctx, info)
	p.mu.Lock()
	p.lyricsData = data
	p.mu.Unlock()

	if data == nil {
		p.sink.LyricsNotFound(p.guildID)
		return
	}
	p.sink.LyricsFound(p.guildID, data)
}

// monitorLoop ticks every 500ms: it emits a PlayerUpdate every
// cfg.UpdateInterval, watches for a stuck position, drains the track's
// error channel, advances synced lyrics lines, and emits the final
// TrackEnd once the decode stream has drained.
func (p *Player) monitorLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.cfg.MonitorTick)
	defer ticker.Stop()

	var lastPos uint64
	var lastPosChangedAt time.Time
	var lastUpdateAt time.Time
	haveLastPos := false

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		p.mu.Lock()
		handle := p.handle
		stream := p.stream
		current := p.current
		lyricsData := p.lyricsData
		lyricsSent := p.lyricsSent
		p.mu.Unlock()

		if handle == nil || current == nil {
			return
		}

		if err := p.drainError(stream); err != nil {
			p.sink.TrackException(p.guildID, *current, err.Error(), track.SeverityFault)
			p.endTrack(current, EndLoadFailed)
			return
		}

		pos := handle.PositionMs()
		now := time.Now()
		if !haveLastPos {
			lastPos, lastPosChangedAt, haveLastPos = pos, now, true
		} else if pos != lastPos {
			lastPos, lastPosChangedAt = pos, now
		} else {
			threshold := p.cfg.StuckThreshold
			if pos == 0 && threshold < p.cfg.ColdStuckThreshold {
				threshold = p.cfg.ColdStuckThreshold
			}
			if now.Sub(lastPosChangedAt) >= threshold {
				p.sink.TrackStuck(p.guildID, *current, threshold.Milliseconds())
				p.userStopped.Store(true)
				handle.Stop()
				p.endTrack(current, EndStopped)
				return
			}
		}

		if endAt := p.endTimeMsSnapshot(); endAt != nil && int64(pos) >= *endAt {
			p.userStopped.Store(true)
			handle.Stop()
			p.endTrack(current, EndFinished)
			return
		}

		if lyricsData != nil && lyricsData.Synced() {
			lyricsSent = p.emitLyricsLines(lyricsData, lyricsSent, pos)
		}

		if lastUpdateAt.IsZero() || now.Sub(lastUpdateAt) >= p.cfg.UpdateInterval {
			p.sink.PlayerUpdate(p.guildID, p.ToResponse().State)
			lastUpdateAt = now
		}

		if p.streamEnded.Load() {
			reason := EndFinished
			if p.userStopped.Load() {
				reason = EndStopped
			}
			p.endTrack(current, reason)
			return
		}
	}
}

func (p *Player) drainError(stream *source.DecodeStream) error {
	if stream == nil || stream.Errors == nil {
		return nil
	}
	select {
	case err, ok := <-stream.Errors:
		if !ok || err == nil {
			return nil
		}
		return err
	default:
		return nil
	}
}

func (p *Player) endTimeMsSnapshot() *int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.endTimeMs
}

func (p *Player) emitLyricsLines(data *lyrics.Data, sent int, posMs uint64) int {
	for sent < len(data.Lines) && data.Lines[sent].Timestamp <= posMs {
		p.sink.LyricsLine(p.guildID, data.Lines[sent])
		sent++
	}
	p.mu.Lock()
	p.lyricsSent = sent
	p.mu.Unlock()
	return sent
}

// endTrack clears the player's current-track state (if it's still the
// one that ended) and emits TrackEnd. Guarded so a concurrent
// StartPlayback that already replaced the track doesn't get its new
// state clobbered by a stale monitor loop winding down.
func (p *Player) endTrack(ended *track.Track, reason EndReason) {
	p.mu.Lock()
	if p.current != nil && p.current.Encoded == ended.Encoded {
		p.current, p.stream, p.handle = nil, nil, nil
	}
	p.mu.Unlock()

	p.sink.TrackEnd(p.guildID, *ended, reason)
}

// Seek requests the current track jump to positionMs. Returns an error
// if nothing is playing.
func (p *Player) Seek(positionMs uint64) error {
	handle := p.Handle()
	if handle == nil {
		return errNoHandle
	}
	handle.Seek(positionMs)
	return nil
}
