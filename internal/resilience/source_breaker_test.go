package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aurelink/aurelink/pkg/routeplanner"
	"github.com/aurelink/aurelink/pkg/source"
	"github.com/aurelink/aurelink/pkg/track"
)

type fakePlugin struct {
	source.NopExtras
	name    string
	loadErr error
}

func (p *fakePlugin) Name() string                      { return p.name }
func (p *fakePlugin) CanHandle(identifier string) bool   { return true }
func (p *fakePlugin) Load(ctx context.Context, identifier string, planner routeplanner.Planner) (track.LoadResult, error) {
	if p.loadErr != nil {
		return track.EmptyResult(), p.loadErr
	}
	return track.LoadResult{LoadType: track.LoadTypeEmpty}, nil
}
func (p *fakePlugin) GetTrack(ctx context.Context, identifier string, planner routeplanner.Planner) (source.PlayableTrack, error) {
	return nil, p.loadErr
}

func TestBreakerSource_PassesThroughMetadata(t *testing.T) {
	p := &fakePlugin{name: "fake"}
	b := WrapSource(p, CircuitBreakerConfig{})

	if b.Name() != "fake" {
		t.Errorf("Name() = %q, want %q", b.Name(), "fake")
	}
	if !b.CanHandle("anything") {
		t.Error("CanHandle should pass through to the wrapped plugin")
	}
	if b.IsMirror() {
		t.Error("IsMirror should pass through NopExtras default of false")
	}
}

func TestBreakerSource_LoadSucceeds(t *testing.T) {
	p := &fakePlugin{name: "fake"}
	b := WrapSource(p, CircuitBreakerConfig{})

	_, err := b.Load(context.Background(), "id", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBreakerSource_TripsAfterRepeatedFailures(t *testing.T) {
	wantErr := errors.New("upstream down")
	p := &fakePlugin{name: "fake", loadErr: wantErr}
	b := WrapSource(p, CircuitBreakerConfig{MaxFailures: 2, ResetTimeout: time.Hour})

	for i := 0; i < 2; i++ {
		if _, err := b.Load(context.Background(), "id", nil); !errors.Is(err, wantErr) {
			t.Fatalf("call %d: err = %v, want %v", i, err, wantErr)
		}
	}

	_, err := b.Load(context.Background(), "id", nil)
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen", err)
	}
	if b.Breaker().State() != StateOpen {
		t.Errorf("breaker state = %v, want open", b.Breaker().State())
	}
}
