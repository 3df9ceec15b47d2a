package filters

// Vibrato modulates pitch by reading a delay line at an LFO-varying depth:
// a sinusoidally moving read tap produces a Doppler-like pitch wobble.
type Vibrato struct {
	Frequency float64
	Depth     float64

	osc       *lfo
	left      *delayLine
	right     *delayLine
	baseDelay float64
}

const vibratoMaxDelayMs = 15.0

func NewVibrato() *Vibrato {
	size := int(vibratoMaxDelayMs * sampleRate / 1000)
	return &Vibrato{
		Frequency: 2.0,
		Depth:     0.5,
		osc:       newLFO(),
		left:      newDelayLine(size),
		right:     newDelayLine(size),
		baseDelay: float64(size) / 2,
	}
}

func (f *Vibrato) IsEnabled() bool { return f.Depth > 0 }

func (f *Vibrato) Reset() {
	f.osc.Reset()
	f.left.Clear()
	f.right.Clear()
}

func (f *Vibrato) Process(samples []int16) {
	f.osc.Update(f.Frequency, f.Depth)
	if !f.IsEnabled() {
		return
	}
	maxDelay := float64(len(f.left.buf) - 2)

	for i := 0; i+1 < len(samples); i += 2 {
		mod := f.osc.Unipolar() * f.baseDelay
		f.osc.Advance(float64(sampleRate))
		delay := f.baseDelay + mod
		if delay > maxDelay {
			delay = maxDelay
		}
		if delay < 0 {
			delay = 0
		}

		dl := f.left.Read(float32(delay))
		dr := f.right.Read(float32(delay))
		f.left.Write(float32(samples[i]))
		f.right.Write(float32(samples[i+1]))

		samples[i] = clampInt16(float64(dl))
		samples[i+1] = clampInt16(float64(dr))
	}
}
