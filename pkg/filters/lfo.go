package filters

import "math"

// lfo is a sine oscillator driving every modulation-based filter (tremolo,
// vibrato, chorus, flanger, phaser, spatial). Value() returns a sample in
// [-depth, depth]; Unipolar() rescales that to [0, depth] for filters that
// modulate a strictly positive quantity (gain, delay length).
type lfo struct {
	frequency float64
	depth     float64
	phase     float64
}

func newLFO() *lfo {
	return &lfo{}
}

// Update sets the oscillation frequency (Hz) and depth for the next Value
// call. Safe to call every block to support live filter reconfiguration.
func (l *lfo) Update(frequency, depth float64) {
	l.frequency = frequency
	l.depth = depth
}

// Advance moves the oscillator forward by one sample at the given sample
// rate and returns the new value.
func (l *lfo) Advance(sampleRateHz float64) float64 {
	v := l.Value()
	l.phase += 2 * math.Pi * l.frequency / sampleRateHz
	if l.phase > 2*math.Pi {
		l.phase -= 2 * math.Pi
	}
	return v
}

// Value returns the oscillator's current sample without advancing phase.
func (l *lfo) Value() float64 {
	return math.Sin(l.phase) * l.depth
}

// Unipolar returns the current value rescaled to [0, depth].
func (l *lfo) Unipolar() float64 {
	return (math.Sin(l.phase) + 1) / 2 * l.depth
}

func (l *lfo) Reset() {
	l.phase = 0
}

func (l *lfo) SetPhase(phase float64) {
	l.phase = phase
}
