package resample

// Linear is a fast linear-interpolation resampler: the cheapest of the
// three modes, used for voice-grade tracks where CPU budget matters more
// than alias rejection.
type Linear struct {
	ratio       float32
	index       float32
	channels    int
	lastSamples []int16
}

// NewLinear constructs a Linear resampler from sourceRate to targetRate.
func NewLinear(sourceRate, targetRate, channels int) *Linear {
	return &Linear{
		ratio:       float32(sourceRate) / float32(targetRate),
		channels:    channels,
		lastSamples: make([]int16, channels),
	}
}

// Process resamples input and appends into output.
func (l *Linear) Process(input []int16, output []int16) []int16 {
	numFrames := len(input) / l.channels

	for l.index < float32(numFrames) {
		idx := int(l.index)
		fract := l.index - float32(idx)

		for c := 0; c < l.channels; c++ {
			var s1 float32
			if idx == 0 {
				s1 = float32(l.lastSamples[c])
			} else {
				s1 = float32(input[(idx-1)*l.channels+c])
			}

			var s2 float32
			if idx < numFrames {
				s2 = float32(input[idx*l.channels+c])
			} else {
				s2 = float32(input[(numFrames-1)*l.channels+c])
			}

			output = append(output, int16(s1*(1-fract)+s2*fract))
		}

		l.index += l.ratio
	}

	l.index -= float32(numFrames)

	if numFrames > 0 {
		for c := 0; c < l.channels; c++ {
			l.lastSamples[c] = input[(numFrames-1)*l.channels+c]
		}
	}

	return output
}

// Reset clears cross-block interpolation history.
func (l *Linear) Reset() {
	l.index = 0
	for i := range l.lastSamples {
		l.lastSamples[i] = 0
	}
}

// IsPassthrough reports whether source and target rates are equal.
func (l *Linear) IsPassthrough() bool {
	d := l.ratio - 1.0
	return d > -epsilon && d < epsilon
}

const epsilon = 1e-6
