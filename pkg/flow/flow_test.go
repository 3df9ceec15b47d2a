package flow

import "testing"

func toneFrame(n int, amplitude int16) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = amplitude
	}
	return out
}

func TestFadeUnityGainIsNoop(t *testing.T) {
	f := NewFade(1.0)
	frame := toneFrame(1920, 5000)
	before := append([]int16(nil), frame...)
	f.Process(frame)
	for i := range frame {
		if frame[i] != before[i] {
			t.Fatalf("unity fade modified sample %d", i)
		}
	}
}

func TestFadeToZeroReachesSilence(t *testing.T) {
	f := NewFade(1.0)
	f.FadeTo(0.0, 20, FadeLinear, 48000) // exactly one 20ms frame at 48kHz
	frame := toneFrame(1920, 10000)
	f.Process(frame)
	if !f.IsDone() {
		t.Fatal("fade should complete within exactly one frame's worth of samples")
	}
	if frame[len(frame)-1] != 0 {
		t.Fatalf("last sample should reach target gain 0: got %d", frame[len(frame)-1])
	}
}

func TestVolumeSoftLimiterPreventsHardClip(t *testing.T) {
	v := NewVolume(1.0, 48000)
	v.SetVolume(4.0) // extreme gain to force the limiter
	v.currentVolume = 4.0
	v.targetVolume = 4.0
	v.fadeActive = false

	frame := toneFrame(960, 30000)
	v.Process(frame)
	for _, s := range frame {
		if s > 32767 || s < -32768 {
			t.Fatalf("sample escaped int16 range: %d", s)
		}
	}
}

func TestVolumeUnityIsNearIdentity(t *testing.T) {
	v := NewVolume(1.0, 48000)
	frame := toneFrame(960, 1000)
	before := append([]int16(nil), frame...)
	v.Process(frame)
	for i := range frame {
		if frame[i] != before[i] {
			t.Fatalf("unity volume with no limiting should be identity: sample %d got %d want %d", i, frame[i], before[i])
		}
	}
}

func TestTapeStartingRampsUpToFullRate(t *testing.T) {
	tape := NewTape(TapeStarting, 20, 48000)
	stash := make([]int16, 0, 4000)
	for i := 0; i < 2000; i++ {
		stash = append(stash, int16(i%100))
	}
	refillCalls := 0
	refill := func(s []int16) []int16 {
		refillCalls++
		return s // no more data available
	}

	out := make([]int16, 1920)
	tape.Process(out, stash, refill)

	if tape.rate < 0.999 {
		t.Fatalf("starting ramp did not reach full rate: %v", tape.rate)
	} else if tape.rate > 1.0001 {
		t.Fatalf("rate overshot 1.0: %v", tape.rate)
	}
}

func TestCrossfadeNotReadyBeforePrepare(t *testing.T) {
	cf := NewCrossfade(48000, 2)
	if cf.IsReady() {
		t.Fatal("crossfade should not be ready before Prepare")
	}
	if cf.Start(1000, FadeSinusoidal) {
		t.Fatal("Start should fail before Prepare")
	}
}

func TestCrossfadeBecomesReadyAfterFeeding(t *testing.T) {
	cf := NewCrossfade(48000, 2)
	cf.Prepare(100) // 100ms lookahead
	bytesPerMs := 48000 * 2 * 2 / 1000
	data := make([]byte, bytesPerMs*100)
	cf.Feed(data)
	if !cf.IsReady() {
		t.Fatal("crossfade should be ready after feeding a full lookahead worth of data")
	}
	if !cf.Start(50, FadeSinusoidal) {
		t.Fatal("Start should succeed once ready")
	}
	if !cf.IsActive() {
		t.Fatal("crossfade should be active after Start")
	}
}

func TestControllerProcessFrameNoopByDefault(t *testing.T) {
	c := NewController(48000, 2)
	frame := toneFrame(1920, 8000)
	before := append([]int16(nil), frame...)
	c.ProcessFrame(frame)
	for i := range frame {
		if frame[i] != before[i] {
			t.Fatalf("default controller should be a no-op: sample %d changed %d -> %d", i, before[i], frame[i])
		}
	}
}
