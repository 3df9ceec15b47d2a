package flow

import "math"

// Volume applies a gain (with a sinusoidal fade when the target changes)
// plus a soft exponential limiter so a gain above 1.0 compresses
// peaks instead of hard-clipping them.
type Volume struct {
	currentVolume float64
	targetVolume  float64
	startVolume   float64

	fadeSamplesTotal   int
	fadeSamplesElapsed int
	fadeActive         bool
	curve              FadeCurve

	limiterThreshold float64
	limiterSoftness  float64
	thresholdValue   float64
	limitHeadroom    float64

	sampleRate int
}

// NewVolume creates a Volume effect at the given initial linear gain
// (1.0 = unity) for interleaved stereo audio at sampleRate.
func NewVolume(initial float64, sampleRate int) *Volume {
	threshold := 0.95
	v := &Volume{
		currentVolume:    initial,
		targetVolume:     initial,
		startVolume:      initial,
		limiterThreshold: threshold,
		limiterSoftness:  0.4,
		curve:            FadeSinusoidal,
		sampleRate:       sampleRate,
	}
	v.thresholdValue = threshold * int16MaxF
	v.limitHeadroom = int16MaxF - v.thresholdValue
	return v
}

// SetVolume starts a 1-second sinusoidal fade from the current gain to
// volume, matching the teacher-grounded default transition length.
func (v *Volume) SetVolume(volume float64) {
	if math.Abs(volume-v.targetVolume) < 1e-9 {
		return
	}
	v.startVolume = v.currentVolume
	v.targetVolume = volume
	// Process counts interleaved samples, so one second spans both channels.
	v.fadeSamplesTotal = v.sampleRate * tapeChannels
	v.fadeSamplesElapsed = 0
	v.fadeActive = v.fadeSamplesTotal > 0
	if !v.fadeActive {
		v.currentVolume = volume
	}
}

func (v *Volume) CurrentVolume() float64 { return v.currentVolume }

func (v *Volume) IsEnabled() bool {
	return v.fadeActive || math.Abs(v.currentVolume-1.0) > 1e-9
}

func (v *Volume) Reset() {
	v.SetVolume(1.0)
	v.currentVolume = 1.0
	v.fadeActive = false
}

func (v *Volume) applyLimiter(value float64) float64 {
	abs := math.Abs(value)
	if abs <= v.thresholdValue || v.limitHeadroom <= 0 {
		return value
	}
	overshoot := (abs - v.thresholdValue) / v.limitHeadroom
	softened := 1 - math.Exp(-overshoot*v.limiterSoftness)
	limited := v.thresholdValue + v.limitHeadroom*softened
	if limited > int16MaxF {
		limited = int16MaxF
	}
	return math.Copysign(limited, value)
}

// Process applies gain and the soft limiter to frame in place.
func (v *Volume) Process(frame []int16) {
	n := len(frame)
	if n == 0 {
		return
	}

	var gainStart, gainEnd float64
	if v.fadeActive && v.fadeSamplesTotal > 0 {
		prev := v.fadeSamplesElapsed
		next := prev + n
		if next > v.fadeSamplesTotal {
			next = v.fadeSamplesTotal
		}
		t0 := float64(prev) / float64(v.fadeSamplesTotal)
		t1 := float64(next) / float64(v.fadeSamplesTotal)
		rng := v.targetVolume - v.startVolume
		gainStart = v.startVolume + rng*v.curve.value(t0)
		gainEnd = v.startVolume + rng*v.curve.value(t1)

		v.fadeSamplesElapsed = next
		if next >= v.fadeSamplesTotal {
			v.fadeActive = false
			v.currentVolume = v.targetVolume
		} else {
			v.currentVolume = gainEnd
		}
	} else {
		gainStart, gainEnd = v.targetVolume, v.targetVolume
	}

	step := 0.0
	if n > 1 {
		step = (gainEnd - gainStart) / float64(n-1)
	}
	gain := gainStart
	for i, s := range frame {
		scaled := float64(s) * gain
		limited := v.applyLimiter(scaled)
		frame[i] = clampSample(limited)
		gain += step
	}
}
