package filters

import "math"

// eqBandCount matches Lavalink's 15-band equalizer contract (bands 0-14).
const eqBandCount = 15

// eqCenterFrequencies are the fixed ISO-style center frequencies for each
// band, in Hz, lowest to highest.
var eqCenterFrequencies = [eqBandCount]float64{
	25, 40, 63, 100, 160, 250, 400, 630,
	1000, 1600, 2500, 4000, 6300, 10000, 16000,
}

type eqBandState struct {
	coeffs biquadCoeffs
	left   biquadState
	right  biquadState
}

// Equalizer is a 15-band parallel graphic equalizer: each band extracts a
// resonant slice of the signal via a bandpass biquad, scales it by the
// band's gain, and sums the result back onto the dry signal. Output is
// soft-clipped with tanh to avoid harsh clipping when many bands boost at
// once.
type Equalizer struct {
	Gains [eqBandCount]float64

	bands [eqBandCount]eqBandState
	built bool
}

func NewEqualizer() *Equalizer {
	return &Equalizer{}
}

func (f *Equalizer) IsEnabled() bool {
	for _, g := range f.Gains {
		if g != 0 {
			return true
		}
	}
	return false
}

func (f *Equalizer) Reset() {
	for i := range f.bands {
		f.bands[i].left.reset()
		f.bands[i].right.reset()
	}
	f.built = false
}

func (f *Equalizer) SetGain(band int, gain float64) {
	if band < 0 || band >= eqBandCount {
		return
	}
	if gain < -0.25 {
		gain = -0.25
	}
	if gain > 1.0 {
		gain = 1.0
	}
	f.Gains[band] = gain
}

func (f *Equalizer) ensureBuilt() {
	if f.built {
		return
	}
	for i, freq := range eqCenterFrequencies {
		f.bands[i].coeffs = bandpassCoeffs(float64(sampleRate), freq, 1.4)
	}
	f.built = true
}

func (f *Equalizer) Process(samples []int16) {
	if !f.IsEnabled() {
		return
	}
	f.ensureBuilt()

	for i := 0; i+1 < len(samples); i += 2 {
		left := float64(samples[i])
		right := float64(samples[i+1])
		sumL, sumR := left, right

		for b := range f.bands {
			gain := f.Gains[b]
			if gain == 0 {
				continue
			}
			bandL := f.bands[b].coeffs.process(&f.bands[b].left, left)
			bandR := f.bands[b].coeffs.process(&f.bands[b].right, right)
			sumL += bandL * gain
			sumR += bandR * gain
		}

		samples[i] = clampInt16(softClip(sumL))
		samples[i+1] = clampInt16(softClip(sumR))
	}
}

// softClip keeps parallel band summation from hard-clipping when several
// bands boost the same transient simultaneously.
func softClip(v float64) float64 {
	const ceiling = 32767.0
	if v > ceiling || v < -ceiling {
		return ceiling * math.Tanh(v/ceiling)
	}
	return v
}
