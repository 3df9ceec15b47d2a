package voice

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/aurelink/aurelink/pkg/codec"
	"github.com/aurelink/aurelink/pkg/voice/dave"
)

type fakeSource struct {
	opusFrames [][]byte
	mixResult  bool
}

func (f *fakeSource) NextOpusFrame() ([]byte, bool) {
	if len(f.opusFrames) == 0 {
		return nil, false
	}
	frame := f.opusFrames[0]
	f.opusFrames = f.opusFrames[1:]
	return frame, true
}

func (f *fakeSource) MixPCM(buf []int16) bool {
	if f.mixResult {
		for i := range buf {
			buf[i] = 100
		}
	}
	return f.mixResult
}

func newTestGateway(t *testing.T) (*Gateway, *net.UDPConn) {
	t.Helper()
	server, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { server.Close() })

	gw := &Gateway{
		dave:    dave.New(1, 2),
		udpAddr: server.LocalAddr().(*net.UDPAddr),
		ssrc:    42,
		mode:    "xsalsa20_poly1305",
	}
	return gw, server
}

func TestSpeakLoopSendsMixedAudio(t *testing.T) {
	gw, server := newTestGateway(t)
	source := &fakeSource{mixResult: true}
	loop := NewSpeakLoop(gw, source, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	server.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	buf := make([]byte, 1500)
	n, _, err := server.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("expected to receive an RTP packet: %v", err)
	}
	if n < 12 {
		t.Fatalf("packet too short: %d bytes", n)
	}
	if buf[0] != 0x80 || buf[1] != 0x78 {
		t.Fatalf("unexpected RTP header bytes: % x", buf[:2])
	}

	<-done
	if loop.FramesSent() == 0 {
		t.Fatal("expected at least one frame sent")
	}
}

func TestSpeakLoopPassthroughSkipsEncoding(t *testing.T) {
	gw, server := newTestGateway(t)
	opusPacket := []byte{1, 2, 3, 4}
	source := &fakeSource{opusFrames: [][]byte{opusPacket}}
	loop := NewSpeakLoop(gw, source, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()
	go loop.Run(ctx)

	server.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	buf := make([]byte, 1500)
	n, _, err := server.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("expected passthrough packet: %v", err)
	}
	// header (12) + payload (4) + poly1305 tag (16)
	if n != 12+len(opusPacket)+16 {
		t.Fatalf("packet length = %d, want %d", n, 12+len(opusPacket)+16)
	}
}

func TestSpeakLoopSilenceStopsAfterMaxSilenceFrames(t *testing.T) {
	gw, _ := newTestGateway(t)
	source := &fakeSource{mixResult: false}
	loop := NewSpeakLoop(gw, source, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	loop.Run(ctx)

	if loop.FramesNulled() == 0 {
		t.Fatal("expected silent ticks to be counted")
	}
}

func TestFrameConstantsAgreeWithCodec(t *testing.T) {
	if codec.FrameSamples*codec.Channels != 1920 {
		t.Fatal("pcm frame size assumption changed")
	}
}
