// Package flow implements the per-track PCM effects chain: filters, a
// tape-style start/stop ramp, volume with a soft limiter, a fade gain
// ramp, and constant-power crossfading into the next track. It mirrors
// NodeLink's FlowController: Filters -> Tape -> Volume -> Fade ->
// Crossfade, operating on fixed 960-sample (20ms) stereo frames.
package flow

import "math"

// FadeCurve selects the gain-ramp shape used by Fade, Volume, and
// Crossfade.
type FadeCurve int

const (
	// FadeLinear ramps gain proportionally to elapsed time.
	FadeLinear FadeCurve = iota
	// FadeSinusoidal eases in/out, avoiding the audible "linear ramp"
	// click at the start and end of a transition.
	FadeSinusoidal
)

func (c FadeCurve) value(t float64) float64 {
	if c == FadeLinear {
		return t
	}
	return 0.5 * (1 - math.Cos(t*math.Pi))
}

const int16MaxF = 32767.0
const int16MinF = -32768.0

func clampSample(v float64) int16 {
	if v > int16MaxF {
		return int16MaxF
	}
	if v < int16MinF {
		return int16MinF
	}
	return int16(math.Round(v))
}

// Fade is a standalone gain ramp: FadeTo schedules a transition from the
// current gain to a target over a duration, and Process applies the
// per-sample interpolated gain for whatever frame length it's given (it
// doesn't assume exactly one frame per call).
type Fade struct {
	currentGain float64
	targetGain  float64
	startGain   float64

	samplesTotal   int
	samplesElapsed int
	active         bool
	curve          FadeCurve
}

// NewFade creates a Fade effect holding a constant gain until FadeTo is
// called.
func NewFade(initialGain float64) *Fade {
	return &Fade{currentGain: initialGain, targetGain: initialGain, startGain: initialGain}
}

// SetGain jumps to gain immediately, cancelling any in-progress ramp.
func (f *Fade) SetGain(gain float64) {
	f.currentGain = gain
	f.targetGain = gain
	f.startGain = gain
	f.active = false
}

// FadeTo schedules a ramp from the current gain to target over
// durationMs at the given sample rate.
func (f *Fade) FadeTo(target float64, durationMs int, curve FadeCurve, sampleRate int) {
	if durationMs <= 0 {
		f.SetGain(target)
		return
	}
	f.startGain = f.currentGain
	f.targetGain = target
	// Process counts interleaved samples, so the total spans both channels.
	f.samplesTotal = sampleRate * durationMs / 1000 * tapeChannels
	f.samplesElapsed = 0
	f.active = f.samplesTotal > 0
	f.curve = curve
}

func (f *Fade) CurrentGain() float64 { return f.currentGain }
func (f *Fade) IsDone() bool         { return !f.active }

func (f *Fade) IsEnabled() bool {
	return f.active || math.Abs(f.currentGain-1.0) > 1e-9
}

func (f *Fade) Reset() {
	f.SetGain(1.0)
}

// Process applies the gain ramp across frame in place. frame holds
// interleaved stereo samples; FadeTo's duration assumes two channels.
func (f *Fade) Process(frame []int16) {
	n := len(frame)
	if n == 0 {
		return
	}
	if !f.active && math.Abs(f.currentGain-1.0) < 1e-9 {
		return
	}

	var gainStart, gainEnd float64
	if f.active && f.samplesTotal > 0 {
		prev := f.samplesElapsed
		next := prev + n
		if next > f.samplesTotal {
			next = f.samplesTotal
		}
		t0 := float64(prev) / float64(f.samplesTotal)
		t1 := float64(next) / float64(f.samplesTotal)
		rng := f.targetGain - f.startGain
		gainStart = f.startGain + rng*f.curve.value(t0)
		gainEnd = f.startGain + rng*f.curve.value(t1)

		f.samplesElapsed = next
		if next >= f.samplesTotal {
			f.active = false
			f.currentGain = f.targetGain
		} else {
			f.currentGain = gainEnd
		}
	} else {
		gainStart, gainEnd = f.currentGain, f.currentGain
	}

	step := 0.0
	if n > 1 {
		step = (gainEnd - gainStart) / float64(n-1)
	}
	gain := gainStart
	for i, s := range frame {
		frame[i] = clampSample(float64(s) * gain)
		gain += step
	}
}
