package resample

import "math"

const sincTaps = 32

// Sinc is a professional-grade Blackman-windowed sinc resampler: the
// highest quality tier, suitable for critical listening, at the highest
// CPU cost of the three modes.
type Sinc struct {
	ratio    float32
	index    float32
	channels int
	taps     int
	// history is a per-channel sliding window of the last `taps` samples
	// used for the convolution.
	history [][]float32
}

// NewSinc constructs a Sinc resampler from sourceRate to targetRate.
func NewSinc(sourceRate, targetRate, channels int) *Sinc {
	h := make([][]float32, channels)
	for i := range h {
		h[i] = make([]float32, sincTaps)
	}
	return &Sinc{
		ratio:    float32(sourceRate) / float32(targetRate),
		channels: channels,
		taps:     sincTaps,
		history:  h,
	}
}

func sincFn(x float32) float32 {
	if x < 0 {
		x = -x
	}
	if x < 1e-6 {
		return 1.0
	}
	piX := math.Pi * float64(x)
	return float32(math.Sin(piX) / piX)
}

func blackman(n, m float32) float32 {
	const a0, a1, a2 = 0.42, 0.5, 0.08
	piNM := 2.0 * math.Pi * float64(n) / float64(m)
	return float32(a0 - a1*math.Cos(piNM) + a2*math.Cos(2.0*piNM))
}

// Process resamples input and appends into output.
func (s *Sinc) Process(input []int16, output []int16) []int16 {
	numFrames := len(input) / s.channels
	halfTaps := float32(s.taps) / 2

	for frame := 0; frame < numFrames; frame++ {
		for ch := 0; ch < s.channels; ch++ {
			hist := s.history[ch]
			copy(hist, hist[1:])
			hist[s.taps-1] = float32(input[frame*s.channels+ch])
		}

		for s.index < 1.0 {
			for ch := 0; ch < s.channels; ch++ {
				hist := s.history[ch]
				var sum float32
				for i := 0; i < s.taps; i++ {
					offset := (float32(i) - halfTaps) - s.index
					window := blackman(float32(i), float32(s.taps-1))
					sum += hist[i] * sincFn(offset) * window
				}
				output = append(output, clampInt16(sum))
			}
			s.index += s.ratio
		}
		s.index -= 1.0
	}

	return output
}

// Reset clears the convolution history.
func (s *Sinc) Reset() {
	s.index = 0
	for _, h := range s.history {
		for i := range h {
			h[i] = 0
		}
	}
}

// IsPassthrough reports whether source and target rates are equal.
func (s *Sinc) IsPassthrough() bool {
	d := s.ratio - 1.0
	return d > -epsilon && d < epsilon
}
