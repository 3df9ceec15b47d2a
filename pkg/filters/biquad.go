package filters

import "math"

// biquadCoeffs holds a Direct Form I biquad's transfer-function
// coefficients, normalized so a0 == 1.
type biquadCoeffs struct {
	b0, b1, b2 float64
	a1, a2     float64
}

// biquadState holds the two-sample input/output history a Direct Form I
// biquad needs between calls.
type biquadState struct {
	x1, x2 float64
	y1, y2 float64
}

func (s *biquadState) reset() {
	*s = biquadState{}
}

// process runs one sample through the biquad, guarding against NaN/Inf
// blowing up the feedback history (which would otherwise silence the
// channel permanently once a bad value enters x1/x2/y1/y2).
func (c biquadCoeffs) process(s *biquadState, in float64) float64 {
	out := c.b0*in + c.b1*s.x1 + c.b2*s.x2 - c.a1*s.y1 - c.a2*s.y2
	if math.IsNaN(out) || math.IsInf(out, 0) {
		out = 0
		s.reset()
	}
	s.x2, s.x1 = s.x1, in
	s.y2, s.y1 = s.y1, out
	return out
}

func lowpassCoeffs(sampleRateHz, cutoffHz, q float64) biquadCoeffs {
	omega := 2 * math.Pi * cutoffHz / sampleRateHz
	sinW, cosW := math.Sin(omega), math.Cos(omega)
	alpha := sinW / (2 * q)

	a0 := 1 + alpha
	b0 := (1 - cosW) / 2 / a0
	b1 := (1 - cosW) / a0
	b2 := b0
	a1 := -2 * cosW / a0
	a2 := (1 - alpha) / a0
	return biquadCoeffs{b0: b0, b1: b1, b2: b2, a1: a1, a2: a2}
}

func highpassCoeffs(sampleRateHz, cutoffHz, q float64) biquadCoeffs {
	omega := 2 * math.Pi * cutoffHz / sampleRateHz
	sinW, cosW := math.Sin(omega), math.Cos(omega)
	alpha := sinW / (2 * q)

	a0 := 1 + alpha
	b0 := (1 + cosW) / 2 / a0
	b1 := -(1 + cosW) / a0
	b2 := b0
	a1 := -2 * cosW / a0
	a2 := (1 - alpha) / a0
	return biquadCoeffs{b0: b0, b1: b1, b2: b2, a1: a1, a2: a2}
}

func bandpassCoeffs(sampleRateHz, centerHz, q float64) biquadCoeffs {
	omega := 2 * math.Pi * centerHz / sampleRateHz
	sinW, cosW := math.Sin(omega), math.Cos(omega)
	alpha := sinW / (2 * q)

	a0 := 1 + alpha
	b0 := alpha / a0
	b1 := 0.0
	b2 := -alpha / a0
	a1 := -2 * cosW / a0
	a2 := (1 - alpha) / a0
	return biquadCoeffs{b0: b0, b1: b1, b2: b2, a1: a1, a2: a2}
}
