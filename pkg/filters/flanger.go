package filters

// Flanger sweeps a very short LFO-modulated delay with feedback, producing
// the characteristic jet-sweep comb effect.
type Flanger struct {
	Frequency float64
	Depth     float64
	Feedback  float64
	Mix       float64

	osc       *lfo
	left      *delayLine
	right     *delayLine
	baseDelay float64
}

const flangerMaxDelayMs = 10.0

func NewFlanger() *Flanger {
	size := int(flangerMaxDelayMs * sampleRate / 1000)
	return &Flanger{
		Frequency: 0.25,
		Depth:     0.5,
		Feedback:  0.3,
		Mix:       0.5,
		osc:       newLFO(),
		left:      newDelayLine(size),
		right:     newDelayLine(size),
		baseDelay: float64(size) / 2,
	}
}

func (f *Flanger) IsEnabled() bool { return f.Mix > 0 && f.Depth > 0 }

func (f *Flanger) Reset() {
	f.osc.Reset()
	f.left.Clear()
	f.right.Clear()
}

func (f *Flanger) Process(samples []int16) {
	if !f.IsEnabled() {
		return
	}
	f.osc.Update(f.Frequency, f.Depth)
	maxDelay := float64(len(f.left.buf) - 2)

	for i := 0; i+1 < len(samples); i += 2 {
		mod := f.osc.Unipolar() * f.baseDelay
		f.osc.Advance(float64(sampleRate))
		delay := f.baseDelay + mod
		if delay > maxDelay {
			delay = maxDelay
		}

		delayedL := f.left.Read(float32(delay))
		delayedR := f.right.Read(float32(delay))

		inL := float64(samples[i])
		inR := float64(samples[i+1])
		f.left.Write(float32(inL + float64(delayedL)*f.Feedback))
		f.right.Write(float32(inR + float64(delayedR)*f.Feedback))

		samples[i] = clampInt16(inL*(1-f.Mix) + float64(delayedL)*f.Mix)
		samples[i+1] = clampInt16(inR*(1-f.Mix) + float64(delayedR)*f.Mix)
	}
}
