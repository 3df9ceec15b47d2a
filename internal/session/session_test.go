package session

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/aurelink/aurelink/internal/player"
)

type fakeSender struct {
	mu   sync.Mutex
	sent [][]byte
}

func (f *fakeSender) Send(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	f.sent = append(f.sent, cp)
	return nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func TestSession_SendGoesToTransportWhenNotPaused(t *testing.T) {
	sender := &fakeSender{}
	s := New("s1", "", sender, 0, player.NewManager(nil, nil, player.Config{}))

	if err := s.Send([]byte("hello")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if sender.count() != 1 {
		t.Errorf("count = %d, want 1", sender.count())
	}
}

func TestSession_SendQueuesWhilePaused(t *testing.T) {
	sender := &fakeSender{}
	s := New("s1", "", sender, 0, nil)

	s.Pause()
	if err := s.Send([]byte("queued-1")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if sender.count() != 0 {
		t.Error("expected nothing delivered to the transport while paused")
	}

	queued := s.Resume(sender)
	if len(queued) != 1 || string(queued[0]) != "queued-1" {
		t.Errorf("Resume() = %v, want 1 queued message", queued)
	}
}

func TestSession_QueueDropsOldestOnOverflow(t *testing.T) {
	s := New("s1", "", nil, 2, nil)
	s.Pause()

	s.Send([]byte("a"))
	s.Send([]byte("b"))
	s.Send([]byte("c"))

	queued := s.Resume(&fakeSender{})
	if len(queued) != 2 {
		t.Fatalf("expected queue bounded to 2, got %d", len(queued))
	}
	if string(queued[0]) != "b" || string(queued[1]) != "c" {
		t.Errorf("queued = %v, want [b c]", stringsOf(queued))
	}
}

func stringsOf(bs [][]byte) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = string(b)
	}
	return out
}

func TestSession_SendJSONMarshalsAndSends(t *testing.T) {
	sender := &fakeSender{}
	s := New("s1", "", sender, 0, nil)

	if err := s.SendJSON(map[string]string{"op": "ready"}); err != nil {
		t.Fatalf("SendJSON: %v", err)
	}
	if sender.count() != 1 {
		t.Fatalf("count = %d, want 1", sender.count())
	}
	var got map[string]string
	if err := json.Unmarshal(sender.sent[0], &got); err != nil {
		t.Fatalf("unmarshal sent payload: %v", err)
	}
	if got["op"] != "ready" {
		t.Errorf("op = %q, want ready", got["op"])
	}
}

func TestSession_ResumeTTLDefault(t *testing.T) {
	s := New("s1", "", nil, 0, nil)
	if s.ResumeTTL() != 60*time.Second {
		t.Errorf("ResumeTTL() = %v, want 60s", s.ResumeTTL())
	}

	s.SetResumable(true, 10*time.Second)
	if s.ResumeTTL() != 10*time.Second {
		t.Errorf("ResumeTTL() = %v, want 10s", s.ResumeTTL())
	}
}

func TestSession_FrameStatsAccumulate(t *testing.T) {
	s := New("s1", "", nil, 0, nil)
	s.AddFrameStats(10, 2)
	s.AddFrameStats(5, 1)

	sent, nulled := s.FrameStats()
	if sent != 15 || nulled != 3 {
		t.Errorf("FrameStats() = (%d, %d), want (15, 3)", sent, nulled)
	}
}

func TestSession_ShutdownDestroysPlayers(t *testing.T) {
	pm := player.NewManager(nil, nil, player.Config{})
	pm.GetOrCreate("g1")
	pm.GetOrCreate("g2")

	s := New("s1", "", nil, 0, pm)
	s.Shutdown()

	if pm.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after Shutdown", pm.Len())
	}
}
