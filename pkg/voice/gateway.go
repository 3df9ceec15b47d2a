// Package voice implements a Discord voice gateway v8 client: the
// WebSocket handshake/heartbeat/resume state machine, IP discovery, and
// the 20ms speak loop that ties the flow controller and mixer to the
// RTP/UDP transport. It is a from-scratch state machine rather than a
// discordgo.VoiceConnection wrapper, since the voice protocol needs to
// be driven directly to support DAVE and the two cipher modes.
package voice

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/aurelink/aurelink/pkg/voice/dave"
	"github.com/aurelink/aurelink/pkg/voice/transport"
)

// State is a Gateway's position in the connect/identify/ready/reconnect
// lifecycle.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateIdentifying
	StateReady
	StateRunning
	StateReconnecting
)

const (
	maxReconnectAttempts  = 5
	backoffBaseMs         = 1000
	reconnectFreshDelayMs = 500
	ipDiscoveryTimeout    = 2 * time.Second
)

// ServerUpdate is the voice-server info a player receives from Discord
// (relayed via the main bot gateway's VOICE_SERVER_UPDATE), needed to
// dial the voice WebSocket.
type ServerUpdate struct {
	Token     string
	Endpoint  string
	GuildID   string
	UserID    string
	SessionID string
}

// ClosedEvent is emitted when the gateway connection closes for a
// reason the owning session needs to know about (non-resumable close).
type ClosedEvent struct {
	Code     int
	Reason   string
	ByRemote bool
}

// Gateway drives one player's Discord voice WebSocket connection:
// handshake, heartbeats, IP discovery, session resume, and handing off
// to the RTP/UDP transport once ready. Safe for concurrent use of its
// exported methods.
type Gateway struct {
	server ServerUpdate
	ssrc   uint32

	mu          sync.Mutex
	state       State
	conn        *websocket.Conn
	secretKey   [32]byte
	mode        string
	udpAddr     *net.UDPAddr
	socket      *net.UDPConn
	heartbeatMs time.Duration

	dave *dave.Handler

	onClosed func(ClosedEvent)

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// New creates a Gateway for a voice server update, with SSRC assigned
// by the voice server during the handshake (populated after Ready).
func New(server ServerUpdate, userID, channelID uint64) *Gateway {
	return &Gateway{
		server: server,
		dave:   dave.New(userID, channelID),
		state:  StateDisconnected,
	}
}

// OnClosed registers the callback invoked when the gateway connection
// closes for a reason the session must observe (non-resumable close).
func (g *Gateway) OnClosed(cb func(ClosedEvent)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onClosed = cb
}

func (g *Gateway) setState(s State) {
	g.mu.Lock()
	g.state = s
	g.mu.Unlock()
}

// State returns the gateway's current lifecycle state.
func (g *Gateway) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Connect dials the voice WebSocket, performs Identify, waits for
// Ready + Session Description, and returns once the UDP transport is
// established and usable (the Ready state).
func (g *Gateway) Connect(ctx context.Context) error {
	g.ctx, g.cancel = context.WithCancel(context.Background())
	if err := g.connectOnce(ctx, false); err != nil {
		return err
	}
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for g.State() != StateReady {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-g.ctx.Done():
			return g.ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// Resume re-establishes a previously-interrupted session using OP 7
// instead of a fresh Identify, per the session-invalid-close reconnect
// path.
func (g *Gateway) Resume(ctx context.Context) error {
	return g.connectOnce(ctx, true)
}

func (g *Gateway) connectOnce(ctx context.Context, resume bool) error {
	g.setState(StateConnecting)

	url := fmt.Sprintf("wss://%s/?v=%d", g.server.Endpoint, voiceGatewayVersion)
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		g.setState(StateDisconnected)
		return fmt.Errorf("voice: dial gateway: %w", err)
	}

	g.mu.Lock()
	g.conn = conn
	g.mu.Unlock()

	var hello struct {
		HeartbeatIntervalMs float64 `json:"heartbeat_interval"`
	}
	if err := g.readOp(ctx, OpHello, &hello); err != nil {
		conn.Close(websocket.StatusInternalError, "hello failed")
		return fmt.Errorf("voice: hello: %w", err)
	}
	g.heartbeatMs = time.Duration(hello.HeartbeatIntervalMs) * time.Millisecond

	g.setState(StateIdentifying)
	if resume {
		if err := g.sendResume(ctx); err != nil {
			return err
		}
	} else {
		if err := g.sendIdentify(ctx); err != nil {
			return err
		}
	}

	go g.heartbeatLoop()
	go g.readLoop()

	return nil
}

func (g *Gateway) sendIdentify(ctx context.Context) error {
	return g.writeOp(ctx, OpIdentify, map[string]any{
		"server_id":  g.server.GuildID,
		"user_id":    g.server.UserID,
		"session_id": g.server.SessionID,
		"token":      g.server.Token,
	})
}

func (g *Gateway) sendResume(ctx context.Context) error {
	return g.writeOp(ctx, OpResume, map[string]any{
		"server_id":  g.server.GuildID,
		"session_id": g.server.SessionID,
		"token":      g.server.Token,
	})
}

func (g *Gateway) writeOp(ctx context.Context, op Opcode, data any) error {
	b, err := json.Marshal(payload{Op: op, D: data})
	if err != nil {
		return fmt.Errorf("voice: marshal op %d: %w", op, err)
	}
	g.mu.Lock()
	conn := g.conn
	g.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("voice: no active connection")
	}
	return conn.Write(ctx, websocket.MessageText, b)
}

func (g *Gateway) readOp(ctx context.Context, want Opcode, into any) error {
	g.mu.Lock()
	conn := g.conn
	g.mu.Unlock()

	_, data, err := conn.Read(ctx)
	if err != nil {
		return err
	}
	var p struct {
		Op Opcode          `json:"op"`
		D  json.RawMessage `json:"d"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("voice: unmarshal envelope: %w", err)
	}
	if p.Op != want {
		return fmt.Errorf("voice: expected op %d, got %d", want, p.Op)
	}
	if into != nil {
		return json.Unmarshal(p.D, into)
	}
	return nil
}

func (g *Gateway) heartbeatLoop() {
	if g.heartbeatMs <= 0 {
		return
	}
	ticker := time.NewTicker(g.heartbeatMs)
	defer ticker.Stop()
	for {
		select {
		case <-g.ctx.Done():
			return
		case <-ticker.C:
			if err := g.writeOp(g.ctx, OpHeartbeat, time.Now().UnixMilli()); err != nil {
				slog.Warn("voice: heartbeat send failed", "error", err)
				return
			}
		}
	}
}

// readLoop processes gateway events after the initial handshake:
// heartbeat acks, session description (secret key + mode), client
// connect/disconnect notifications, and DAVE opcodes.
func (g *Gateway) readLoop() {
	for {
		g.mu.Lock()
		conn := g.conn
		g.mu.Unlock()
		if conn == nil {
			return
		}

		_, data, err := conn.Read(g.ctx)
		if err != nil {
			if g.ctx.Err() != nil {
				return
			}
			g.emitClosed(err)
			return
		}

		var p struct {
			Op Opcode          `json:"op"`
			D  json.RawMessage `json:"d"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			continue
		}
		g.dispatch(p.Op, p.D)
	}
}

func (g *Gateway) dispatch(op Opcode, d json.RawMessage) {
	switch op {
	case OpReady:
		var ready struct {
			SSRC uint32 `json:"ssrc"`
			IP   string `json:"ip"`
			Port int    `json:"port"`
		}
		if err := json.Unmarshal(d, &ready); err != nil {
			return
		}
		g.ssrc = ready.SSRC
		g.handleReady(ready.IP, ready.Port)

	case OpSessionDescription:
		var desc struct {
			Mode      string `json:"mode"`
			SecretKey []int  `json:"secret_key"`
		}
		if err := json.Unmarshal(d, &desc); err != nil {
			return
		}
		g.mode = desc.Mode
		var key [32]byte
		for i := 0; i < len(desc.SecretKey) && i < 32; i++ {
			key[i] = byte(desc.SecretKey[i])
		}
		g.secretKey = key
		g.setState(StateReady)

	case OpHeartbeatACK:
		// nothing to track beyond liveness; the heartbeat loop already
		// assumes the connection is alive unless Write fails.

	case OpDAVEPrepareEpoch:
		var msg struct {
			Epoch           uint64 `json:"epoch"`
			ProtocolVersion int    `json:"protocol_version"`
		}
		if json.Unmarshal(d, &msg) == nil {
			g.dave.PrepareEpoch(msg.Epoch, msg.ProtocolVersion)
		}

	case OpDAVEPrepareTransition:
		var msg struct {
			TransitionID    uint16 `json:"transition_id"`
			ProtocolVersion int    `json:"protocol_version"`
		}
		if json.Unmarshal(d, &msg) == nil {
			g.dave.PrepareTransition(msg.TransitionID, msg.ProtocolVersion)
		}

	case OpDAVEExecuteTransition:
		var msg struct {
			TransitionID uint16 `json:"transition_id"`
		}
		if json.Unmarshal(d, &msg) == nil {
			g.dave.ExecuteTransition(msg.TransitionID)
		}
	}
}

// handleReady performs IP discovery over the UDP socket and sends
// OP 1 (Select Protocol) with the discovered external address.
func (g *Gateway) handleReady(ip string, port int) {
	addr := &net.UDPAddr{IP: net.ParseIP(ip), Port: port}
	sock, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		slog.Error("voice: udp dial failed", "error", err)
		return
	}

	externalIP, externalPort, err := discoverIP(sock, g.ssrc)
	if err != nil {
		slog.Error("voice: ip discovery failed", "error", err)
		sock.Close()
		return
	}

	g.mu.Lock()
	g.udpAddr = addr
	g.socket = sock
	g.mu.Unlock()

	_ = g.writeOp(g.ctx, OpSelectProtocol, map[string]any{
		"protocol": "udp",
		"data": map[string]any{
			"address": externalIP,
			"port":    externalPort,
			"mode":    "aead_aes256_gcm_rtpsize",
		},
	})
}

// discoverIP sends the 74-byte IP discovery probe and parses the
// response's external (IP, port), per Discord's UDP discovery format.
func discoverIP(sock *net.UDPConn, ssrc uint32) (string, uint16, error) {
	probe := make([]byte, 74)
	probe[0], probe[1] = 0, 1  // type = 1
	probe[2], probe[3] = 0, 70 // length = 70
	probe[4] = byte(ssrc >> 24)
	probe[5] = byte(ssrc >> 16)
	probe[6] = byte(ssrc >> 8)
	probe[7] = byte(ssrc)

	if _, err := sock.Write(probe); err != nil {
		return "", 0, fmt.Errorf("voice: send discovery probe: %w", err)
	}

	sock.SetReadDeadline(time.Now().Add(ipDiscoveryTimeout))
	resp := make([]byte, 74)
	n, err := sock.Read(resp)
	sock.SetReadDeadline(time.Time{})
	if err != nil {
		return "", 0, fmt.Errorf("voice: discovery response: %w", err)
	}
	if n < 74 {
		return "", 0, fmt.Errorf("voice: discovery response too short (%d bytes)", n)
	}

	ip := trimNullBytes(resp[8:72])
	port := uint16(resp[72]) | uint16(resp[73])<<8
	return ip, port, nil
}

func trimNullBytes(b []byte) string {
	n := len(b)
	for n > 0 && b[n-1] == 0 {
		n--
	}
	return string(b[:n])
}

// NewSpeakLoop builds the UDP transport backend from this gateway's
// negotiated session description, ready for the speak loop to drive.
func (g *Gateway) NewSpeakLoop() (*transport.Backend, error) {
	g.mu.Lock()
	addr, ssrc, key, mode := g.udpAddr, g.ssrc, g.secretKey, g.mode
	g.mu.Unlock()
	if addr == nil {
		return nil, fmt.Errorf("voice: gateway not ready (no udp address)")
	}
	return transport.NewBackend(addr, ssrc, key, mode)
}

func (g *Gateway) emitClosed(err error) {
	g.mu.Lock()
	cb := g.onClosed
	g.mu.Unlock()
	if cb != nil {
		cb(ClosedEvent{Reason: err.Error(), ByRemote: true})
	}
}

// Close tears down the WebSocket and UDP socket. Safe to call more
// than once.
func (g *Gateway) Close() error {
	var err error
	g.closeOnce.Do(func() {
		if g.cancel != nil {
			g.cancel()
		}
		g.mu.Lock()
		conn, sock := g.conn, g.socket
		g.conn, g.socket = nil, nil
		g.mu.Unlock()

		if conn != nil {
			err = conn.Close(websocket.StatusNormalClosure, "")
		}
		if sock != nil {
			sock.Close()
		}
		g.setState(StateDisconnected)
	})
	return err
}

// DAVE exposes the gateway's DAVE handler for the speak loop's
// per-frame encryption call.
func (g *Gateway) DAVE() *dave.Handler { return g.dave }

// Reconnect re-establishes this gateway's connection after an
// unexpected close, retrying Resume under exponential backoff. The
// session and voice server token are unchanged, so every attempt
// dials a fresh WebSocket and sends OP 7 against the existing
// ServerUpdate rather than starting a new Identify handshake.
func (g *Gateway) Reconnect(ctx context.Context) error {
	g.setState(StateReconnecting)
	return connectWithBackoff(ctx, func(ctx context.Context) error {
		return g.connectOnce(ctx, true)
	})
}

// connectWithBackoff implements the reconnect policy: exponential
// backoff from backoffBaseMs up to maxReconnectAttempts tries. On a
// session-invalid close (isFresh), callers should instead wait
// reconnectFreshDelayMs and re-Identify rather than resume.
func connectWithBackoff(ctx context.Context, attempt func(context.Context) error) error {
	backoff := time.Duration(backoffBaseMs) * time.Millisecond
	var lastErr error
	for i := 0; i < maxReconnectAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := attempt(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return fmt.Errorf("voice: reconnect failed after %d attempts: %w", maxReconnectAttempts, lastErr)
}
