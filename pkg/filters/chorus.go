package filters

// Chorus mixes the dry signal with one or more LFO-modulated delayed
// copies, thickening the sound the way multiple slightly-detuned voices
// would.
type Chorus struct {
	Frequency float64
	Depth     float64
	Mix       float64

	osc       *lfo
	left      *delayLine
	right     *delayLine
	baseDelay float64
}

const chorusMaxDelayMs = 40.0

func NewChorus() *Chorus {
	size := int(chorusMaxDelayMs * sampleRate / 1000)
	return &Chorus{
		Frequency: 1.5,
		Depth:     0.3,
		Mix:       0.5,
		osc:       newLFO(),
		left:      newDelayLine(size),
		right:     newDelayLine(size),
		baseDelay: float64(size) / 2,
	}
}

func (f *Chorus) IsEnabled() bool { return f.Mix > 0 && f.Depth > 0 }

func (f *Chorus) Reset() {
	f.osc.Reset()
	f.left.Clear()
	f.right.Clear()
}

func (f *Chorus) Process(samples []int16) {
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

		wetL := f.left.Read(float32(delay))
		wetR := f.right.Read(float32(delay))
		inL := float64(samples[i])
		inR := float64(samples[i+1])
		f.left.Write(float32(inL))
		f.right.Write(float32(inR))

		samples[i] = clampInt16(inL*(1-f.Mix) + float64(wetL)*f.Mix)
		samples[i+1] = clampInt16(inR*(1-f.Mix) + float64(wetR)*f.Mix)
	}
}
