package filters

// Tremolo modulates amplitude with an LFO. Not present in original_source
// (which has Vibrato's delay-modulation but no amplitude-modulation
// sibling); this is the amplitude-domain counterpart built the same way
// Vibrato wraps lfo.
type Tremolo struct {
	Frequency float64
	Depth     float64

	osc *lfo
}

func NewTremolo() *Tremolo {
	return &Tremolo{Frequency: 2.0, Depth: 0.5, osc: newLFO()}
}

func (f *Tremolo) IsEnabled() bool { return f.Depth > 0 }

func (f *Tremolo) Reset() { f.osc.Reset() }

func (f *Tremolo) Process(samples []int16) {
	if !f.IsEnabled() {
		return
	}
	f.osc.Update(f.Frequency, f.Depth)
	for i := 0; i+1 < len(samples); i += 2 {
		gain := 1 - f.osc.Unipolar()
		f.osc.Advance(float64(sampleRate))
		samples[i] = clampInt16(float64(samples[i]) * gain)
		samples[i+1] = clampInt16(float64(samples[i+1]) * gain)
	}
}
