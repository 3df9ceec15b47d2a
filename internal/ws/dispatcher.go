package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/aurelink/aurelink/internal/player"
	"github.com/aurelink/aurelink/internal/session"
	"github.com/aurelink/aurelink/internal/voicelink"
	"github.com/aurelink/aurelink/pkg/routeplanner"
	"github.com/aurelink/aurelink/pkg/source"
)

// dispatcher decodes and routes one session's incoming WS ops.
type dispatcher struct {
	sources *source.Registry
	planner routeplanner.Planner
	sess    *session.Session
	vlink   *voicelink.Manager
	userID  string
}

type incomingOp struct {
	Op      string `json:"op"`
	GuildID string `json:"guildId"`
}

type voiceUpdateOp struct {
	incomingOp
	SessionID string `json:"sessionId"`
	Event     struct {
		Token    string `json:"token"`
		Endpoint string `json:"endpoint"`
	} `json:"event"`
}

type playOp struct {
	incomingOp
	Track string `json:"track"`
}

func (d *dispatcher) dispatch(ctx context.Context, data []byte) {
	var head incomingOp
	if err := json.Unmarshal(data, &head); err != nil {
		slog.Warn("ws: malformed op", "error", err)
		return
	}

	switch head.Op {
	case "voiceUpdate":
		var op voiceUpdateOp
		if err := json.Unmarshal(data, &op); err != nil {
			slog.Warn("ws: malformed voiceUpdate", "error", err)
			return
		}
		d.handleVoiceUpdate(ctx, op)
	case "play":
		var op playOp
		if err := json.Unmarshal(data, &op); err != nil {
			slog.Warn("ws: malformed play", "error", err)
			return
		}
		d.handlePlay(ctx, op)
	case "stop":
		d.handleStop(head.GuildID)
	case "destroy":
		d.handleDestroy(head.GuildID)
	default:
		slog.Warn("ws: unknown op", "op", head.Op)
	}
}

func (d *dispatcher) handleVoiceUpdate(ctx context.Context, op voiceUpdateOp) {
	p := d.sess.Players.GetOrCreate(op.GuildID)
	vs := player.VoiceState{
		Token:     op.Event.Token,
		Endpoint:  op.Event.Endpoint,
		SessionID: op.SessionID,
	}
	if err := d.vlink.Update(ctx, p, d.sess, d.userID, vs); err != nil {
		slog.Warn("ws: voice update failed", "guild", op.GuildID, "error", err)
	}
}

func (d *dispatcher) handlePlay(ctx context.Context, op playOp) {
	p := d.sess.Players.GetOrCreate(op.GuildID)
	if err := p.StartPlayback(ctx, d.sources, d.planner, op.Track, nil, nil); err != nil {
		slog.Warn("ws: play failed", "guild", op.GuildID, "error", err)
	}
}

func (d *dispatcher) handleStop(guildID string) {
	if p := d.sess.Players.Get(guildID); p != nil {
		p.Stop()
	}
}

func (d *dispatcher) handleDestroy(guildID string) {
	d.sess.Players.Destroy(guildID)
	d.vlink.Close(guildID)
}
