package filters

import "math"

// Karaoke attenuates center-panned vocals: it bandpass-filters the mono sum
// of both channels around the vocal range, subtracts the filtered energy
// from each channel (classic center-channel cancellation), and mixes back a
// configurable amount of the original mono signal.
type Karaoke struct {
	Level       float64
	MonoLevel   float64
	FilterBand  float64
	FilterWidth float64

	bandState  biquadState
	coeffs     biquadCoeffs
	built      bool
	smoothGain float64
}

func NewKaraoke() *Karaoke {
	return &Karaoke{Level: 1.0, MonoLevel: 1.0, FilterBand: 220.0, FilterWidth: 100.0}
}

func (f *Karaoke) IsEnabled() bool {
	return f.Level != 0 || f.MonoLevel != 0
}

func (f *Karaoke) Reset() {
	f.bandState.reset()
	f.built = false
	f.smoothGain = 0
}

func (f *Karaoke) ensureBuilt() {
	if f.built {
		return
	}
	q := f.FilterBand / math.Max(f.FilterWidth, 1)
	f.coeffs = bandpassCoeffs(float64(sampleRate), f.FilterBand, q)
	f.built = true
}

func (f *Karaoke) Process(samples []int16) {
	if !f.IsEnabled() {
		return
	}
	f.ensureBuilt()

	for i := 0; i+1 < len(samples); i += 2 {
		left := float64(samples[i])
		right := float64(samples[i+1])
		mid := (left + right) / 2

		filtered := f.coeffs.process(&f.bandState, mid)

		// Smooth the cancellation gain so the effect doesn't pump on
		// transients; tracks the filtered band's instantaneous energy.
		energy := math.Abs(filtered) / 32768
		f.smoothGain += (energy - f.smoothGain) * 0.1

		cancel := filtered * f.Level
		newLeft := left - cancel + mid*f.MonoLevel*f.smoothGain
		newRight := right - cancel + mid*f.MonoLevel*f.smoothGain

		samples[i] = clampInt16(newLeft)
		samples[i+1] = clampInt16(newRight)
	}
}
