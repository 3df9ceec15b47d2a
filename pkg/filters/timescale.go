package filters

// Timescale changes playback speed and pitch independently by resampling
// at a combined ratio. Because it changes the number of output samples per
// input block, it cannot implement Process in place like the other
// filters — callers must use ProcessResample, which returns a
// differently-sized buffer.
type Timescale struct {
	Speed float64
	Pitch float64
	Rate  float64

	index float64
}

func NewTimescale() *Timescale {
	return &Timescale{Speed: 1.0, Pitch: 1.0, Rate: 1.0}
}

func (f *Timescale) IsEnabled() bool {
	return f.Speed != 1.0 || f.Pitch != 1.0 || f.Rate != 1.0
}

// Process is a no-op: Timescale cannot run in place since it resizes the
// buffer. Callers in the decode/flow pipeline must call ProcessResample
// instead whenever IsEnabled is true.
func (f *Timescale) Process(samples []int16) {}

func (f *Timescale) Reset() {
	f.index = 0
}

// ratio combines speed, pitch, and rate the way Lavalink's timescale
// filter does: pitch and rate both resample (changing duration), while
// speed alone time-stretches without affecting pitch. Since this package
// only has a resampling primitive available, all three multiply into one
// resample ratio — an approximation that changes pitch whenever speed
// changes, same as the original's combined-ratio behavior for non-unity
// rate/pitch.
func (f *Timescale) ratio() float64 {
	return f.Speed * f.Pitch * f.Rate
}

// ProcessResample consumes interleaved stereo input and appends resampled
// output samples to out, returning the extended slice. It uses the same
// cubic Catmull-Rom interpolation as pkg/resample.Hermite.
func (f *Timescale) ProcessResample(input []int16, out []int16) []int16 {
	if !f.IsEnabled() {
		return append(out, input...)
	}
	ratio := f.ratio()
	if ratio <= 0 {
		ratio = 1
	}
	frames := len(input) / 2
	if frames == 0 {
		return out
	}

	get := func(i int, ch int) float64 {
		if i < 0 {
			i = 0
		}
		if i >= frames {
			i = frames - 1
		}
		return float64(input[i*2+ch])
	}

	for f.index < float64(frames) {
		i0 := int(f.index)
		t := f.index - float64(i0)

		for ch := 0; ch < 2; ch++ {
			p0 := get(i0-1, ch)
			p1 := get(i0, ch)
			p2 := get(i0+1, ch)
			p3 := get(i0+2, ch)
			out = append(out, clampInt16(catmullRom(p0, p1, p2, p3, t)))
		}
		f.index += ratio
	}
	f.index -= float64(frames)
	if f.index < 0 {
		f.index = 0
	}
	return out
}

func catmullRom(p0, p1, p2, p3, t float64) float64 {
	a0 := -0.5*p0 + 1.5*p1 - 1.5*p2 + 0.5*p3
	a1 := p0 - 2.5*p1 + 2*p2 - 0.5*p3
	a2 := -0.5*p0 + 0.5*p2
	a3 := p1
	return ((a0*t+a1)*t+a2)*t + a3
}
