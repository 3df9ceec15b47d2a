package filters

import "math"

// Spatial widens the stereo image by panning each channel's delay tap in
// opposite directions with a shared LFO, giving the signal a sense of
// motion around the listener.
type Spatial struct {
	Frequency float64
	Width     float64

	osc       *lfo
	left      *delayLine
	right     *delayLine
	baseDelay float64
}

const spatialMaxDelayMs = 20.0

func NewSpatial() *Spatial {
	size := int(spatialMaxDelayMs * sampleRate / 1000)
	return &Spatial{
		Frequency: 0.2,
		Width:     0.5,
		osc:       newLFO(),
		left:      newDelayLine(size),
		right:     newDelayLine(size),
		baseDelay: float64(size) / 2,
	}
}

func (f *Spatial) IsEnabled() bool { return f.Width > 0 }

func (f *Spatial) Reset() {
	f.osc.Reset()
	f.left.Clear()
	f.right.Clear()
}

func (f *Spatial) Process(samples []int16) {
	if !f.IsEnabled() {
		return
	}
	f.osc.Update(f.Frequency, f.Width)
	maxDelay := float64(len(f.left.buf) - 2)

	for i := 0; i+1 < len(samples); i += 2 {
		v := f.osc.Value()
		f.osc.Advance(float64(sampleRate))

		delayL := f.baseDelay + v*f.baseDelay*0.5
		delayR := f.baseDelay - v*f.baseDelay*0.5
		delayL = math.Max(0, math.Min(maxDelay, delayL))
		delayR = math.Max(0, math.Min(maxDelay, delayR))

		outL := f.left.Read(float32(delayL))
		outR := f.right.Read(float32(delayR))
		f.left.Write(float32(samples[i]))
		f.right.Write(float32(samples[i+1]))

		samples[i] = clampInt16(float64(outL))
		samples[i+1] = clampInt16(float64(outR))
	}
}
