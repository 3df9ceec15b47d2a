package resample

// Hermite is a high-quality cubic Hermite (Catmull-Rom) resampler using
// four-point interpolation, the default quality tier for music: noticeably
// better alias rejection than Linear at modest extra CPU cost, and well
// suited to the 44.1kHz -> 48kHz conversion most tracks need before mixing.
type Hermite struct {
	ratio    float32
	index    float32
	channels int
	// hist holds the last 4 frames per channel, newest at index 3, used
	// to seed interpolation across block boundaries.
	hist [][4]int16
}

// NewHermite constructs a Hermite resampler from sourceRate to targetRate.
func NewHermite(sourceRate, targetRate, channels int) *Hermite {
	return &Hermite{
		ratio:    float32(sourceRate) / float32(targetRate),
		channels: channels,
		hist:     make([][4]int16, channels),
	}
}

func hermiteInterp(p [4]float32, t float32) float32 {
	c0 := p[1]
	c1 := 0.5 * (p[2] - p[0])
	c2 := p[0] - 2.5*p[1] + 2.0*p[2] - 0.5*p[3]
	c3 := 0.5*(p[3]-p[0]) + 1.5*(p[1]-p[2])
	return ((c3*t+c2)*t+c1)*t + c0
}

// Process resamples input and appends into output.
func (h *Hermite) Process(input []int16, output []int16) []int16 {
	numFrames := len(input) / h.channels

	for h.index < float32(numFrames) {
		base := int(h.index)
		t := h.index - float32(base)

		for ch := 0; ch < h.channels; ch++ {
			var p [4]float32

			// p[-1]
			if base-1 < 0 {
				p[0] = float32(h.hist[ch][(4+(base-1))%4])
			} else {
				p[0] = float32(input[(base-1)*h.channels+ch])
			}
			// p[0]
			if base < 0 {
				p[1] = float32(h.hist[ch][(4+base)%4])
			} else {
				p[1] = float32(input[base*h.channels+ch])
			}
			// p[1]
			if i := base + 1; i < numFrames {
				p[2] = float32(input[i*h.channels+ch])
			} else {
				p[2] = float32(input[(numFrames-1)*h.channels+ch])
			}
			// p[2]
			if i := base + 2; i < numFrames {
				p[3] = float32(input[i*h.channels+ch])
			} else {
				p[3] = float32(input[(numFrames-1)*h.channels+ch])
			}

			s := clampInt16(hermiteInterp(p, t))
			output = append(output, s)
		}

		h.index += h.ratio
	}

	h.index -= float32(numFrames)

	kept := min(numFrames, 4)
	for k := 0; k < kept; k++ {
		src := numFrames - kept + k
		for ch := 0; ch < h.channels; ch++ {
			h.hist[ch][k] = input[src*h.channels+ch]
		}
	}

	return output
}

// Reset clears cross-block interpolation history.
func (h *Hermite) Reset() {
	h.index = 0
	for i := range h.hist {
		h.hist[i] = [4]int16{}
	}
}

// IsPassthrough reports whether source and target rates are equal.
func (h *Hermite) IsPassthrough() bool {
	d := h.ratio - 1.0
	return d > -epsilon && d < epsilon
}

func clampInt16(v float32) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
