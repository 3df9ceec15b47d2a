package filters

// Classic Freeverb-style tuning: 8 comb delays and 4 allpass delays per
// channel, at 44.1kHz; scaled to the pipeline's 48kHz sample rate below.
// The right channel uses a small stereo-spread offset on each length so
// the two channels decorrelate instead of reverberating identically.
var combLengthsMs = [8]float64{
	29.7, 37.1, 41.1, 43.7, 31.0, 38.3, 42.5, 44.9,
}
var allpassLengthsMs = [4]float64{5.0, 1.7, 1.3, 1.0}

const reverbStereoSpreadMs = 0.5

type combFilter struct {
	line        *delayLine
	filterStore float32
}

func (c *combFilter) process(input, feedback, damp float32) float32 {
	out := c.line.Read(0)
	c.filterStore = out*(1-damp) + c.filterStore*damp
	c.line.Write(input + c.filterStore*feedback)
	return out
}

type schroederAllpass struct {
	line *delayLine
	gain float32
}

func (a *schroederAllpass) process(input float32) float32 {
	buffered := a.line.Read(0)
	out := -input*a.gain + buffered
	a.line.Write(input + buffered*a.gain)
	return out
}

// Reverb is a Schroeder/Freeverb-style reverberator: each channel runs
// eight comb filters in parallel, summed and passed through four allpass
// filters in series.
type Reverb struct {
	RoomSize float64
	Damp     float64
	Wet      float64
	Dry      float64

	left, right []*combFilter
	leftAP      []*schroederAllpass
	rightAP     []*schroederAllpass
	built       bool
}

func NewReverb() *Reverb {
	return &Reverb{RoomSize: 0.5, Damp: 0.5, Wet: 0.33, Dry: 0.7}
}

func (f *Reverb) IsEnabled() bool { return f.Wet > 0 }

func (f *Reverb) Reset() {
	f.built = false
	f.left, f.right, f.leftAP, f.rightAP = nil, nil, nil, nil
}

func (f *Reverb) ensureBuilt() {
	if f.built {
		return
	}
	for _, ms := range combLengthsMs {
		f.left = append(f.left, &combFilter{line: newDelayLine(msToSamples(ms))})
		f.right = append(f.right, &combFilter{line: newDelayLine(msToSamples(ms + reverbStereoSpreadMs))})
	}
	for _, ms := range allpassLengthsMs {
		f.leftAP = append(f.leftAP, &schroederAllpass{line: newDelayLine(msToSamples(ms)), gain: 0.5})
		f.rightAP = append(f.rightAP, &schroederAllpass{line: newDelayLine(msToSamples(ms + reverbStereoSpreadMs)), gain: 0.5})
	}
	f.built = true
}

func msToSamples(ms float64) int {
	n := int(ms * sampleRate / 1000)
	if n < 1 {
		n = 1
	}
	return n
}

func (f *Reverb) Process(samples []int16) {
	if !f.IsEnabled() {
		return
	}
	f.ensureBuilt()

	feedback := float32(0.28 + f.RoomSize*0.7)
	damp := float32(f.Damp)

	for i := 0; i+1 < len(samples); i += 2 {
		inL := float32(samples[i])
		inR := float32(samples[i+1])

		var combL, combR float32
		for _, c := range f.left {
			combL += c.process(inL, feedback, damp)
		}
		for _, c := range f.right {
			combR += c.process(inR, feedback, damp)
		}

		for _, a := range f.leftAP {
			combL = a.process(combL)
		}
		for _, a := range f.rightAP {
			combR = a.process(combR)
		}

		samples[i] = clampInt16(float64(inL)*f.Dry + float64(combL)*f.Wet)
		samples[i+1] = clampInt16(float64(inR)*f.Dry + float64(combR)*f.Wet)
	}
}
