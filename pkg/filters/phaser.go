package filters

import "math"

const phaserStages = 4

type allpassState struct {
	xPrev, yPrev float64
}

func (s *allpassState) process(a, in float64) float64 {
	out := -a*in + s.xPrev + a*s.yPrev
	s.xPrev = in
	s.yPrev = out
	return out
}

// Phaser sweeps a cascade of first-order allpass filters with an LFO,
// creating notches that move through the spectrum and combine with the
// dry signal for the classic sweeping "swoosh".
type Phaser struct {
	Frequency float64
	Depth     float64
	Feedback  float64
	Mix       float64

	osc           *lfo
	leftStages    [phaserStages]allpassState
	rightStages   [phaserStages]allpassState
	leftFeedback  float64
	rightFeedback float64
}

func NewPhaser() *Phaser {
	return &Phaser{Frequency: 0.5, Depth: 0.8, Feedback: 0.3, Mix: 0.5, osc: newLFO()}
}

func (f *Phaser) IsEnabled() bool { return f.Mix > 0 && f.Depth > 0 }

func (f *Phaser) Reset() {
	f.osc.Reset()
	f.leftStages = [phaserStages]allpassState{}
	f.rightStages = [phaserStages]allpassState{}
	f.leftFeedback = 0
	f.rightFeedback = 0
}

func (f *Phaser) Process(samples []int16) {
	if !f.IsEnabled() {
		return
	}
	f.osc.Update(f.Frequency, f.Depth)

	const minFreq, maxFreq = 200.0, 2000.0
	for i := 0; i+1 < len(samples); i += 2 {
		sweep := f.osc.Unipolar() / math.Max(f.Depth, 1e-9)
		f.osc.Advance(float64(sampleRate))
		centerFreq := minFreq + sweep*(maxFreq-minFreq)
		tanArg := math.Tan(math.Pi * centerFreq / float64(sampleRate))
		a := (tanArg - 1) / (tanArg + 1)

		inL := float64(samples[i])
		inR := float64(samples[i+1])

		stageL := inL + f.leftFeedback*f.Feedback
		stageR := inR + f.rightFeedback*f.Feedback
		for s := 0; s < phaserStages; s++ {
			stageL = f.leftStages[s].process(a, stageL)
			stageR = f.rightStages[s].process(a, stageR)
		}
		f.leftFeedback = stageL
		f.rightFeedback = stageR

		samples[i] = clampInt16(inL*(1-f.Mix) + stageL*f.Mix)
		samples[i+1] = clampInt16(inR*(1-f.Mix) + stageR*f.Mix)
	}
}
