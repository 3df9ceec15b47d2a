package flow

// TapeState is which direction a Tape ramp is running.
type TapeState int

const (
	// TapeStopping ramps playback rate from 1.0 down to 0.0 — a smooth
	// pause instead of an abrupt stop.
	TapeStopping TapeState = iota
	// TapeStarting ramps playback rate from 0.0 up to 1.0 — a smooth
	// resume instead of a jump to full speed.
	TapeStarting
)

// Tape is a playback-rate ramp effect used for smooth pause/resume: it
// reads from a caller-supplied stash of upcoming stereo samples at a
// linearly-interpolated, ramping read rate, so a "stop" eases to silence
// over the ramp duration instead of cutting off mid-sample.
type Tape struct {
	state TapeState
	rate  float32
	pos   float32
	step  float32
	done  bool
}

const tapeChannels = 2

// NewTape builds a ramp that completes in durationMs at the given sample
// rate.
func NewTape(state TapeState, durationMs int, sampleRate int) *Tape {
	rate := float32(1.0)
	if state == TapeStarting {
		rate = 0.0
	}
	framesPerMs := float32(sampleRate) / 1000
	frames := float32(durationMs) * framesPerMs
	if frames < 1 {
		frames = 1
	}
	return &Tape{state: state, rate: rate, step: 1.0 / frames}
}

// Done reports whether the ramp has fully completed (rate reached its
// terminal value).
func (t *Tape) Done() bool { return t.done }

// IsEnabled reports whether the ramp still needs running; once done, the
// flow controller can drop the Tape stage entirely.
func (t *Tape) IsEnabled() bool { return !t.done }

func (t *Tape) Reset() {
	t.pos = 0
	t.done = false
	if t.state == TapeStarting {
		t.rate = 0
	} else {
		t.rate = 1
	}
}

// Process reads len(out)/2 ramped stereo frames from stash starting at
// the tape's current fractional read position, linearly interpolating
// between adjacent frames, and writes them into out. refill is called
// when the stash runs low; it should append more stereo samples to
// stash and return the grown slice, or return stash unchanged if no
// more data is available (signalling end of input to the ramp).
func (t *Tape) Process(out []int16, stash []int16, refill func([]int16) []int16) {
	i := 0
	for i < len(out) {
		switch t.state {
		case TapeStopping:
			t.rate -= t.step
			if t.rate <= 0 {
				t.rate = 0
				t.done = true
			}
		case TapeStarting:
			t.rate += t.step
			if t.rate >= 1 {
				t.rate = 1
				t.done = true
			}
		}

		readIdx := int(t.pos)
		frac := t.pos - float32(readIdx)

		if (readIdx+1)*tapeChannels+1 >= len(stash) {
			grown := refill(stash)
			if len(grown) <= len(stash) {
				break // no more data available; leave remainder of out untouched
			}
			stash = grown
			if (readIdx+1)*tapeChannels+1 >= len(stash) {
				break
			}
		}

		for ch := 0; ch < tapeChannels; ch++ {
			s0 := float32(stash[readIdx*tapeChannels+ch])
			s1 := float32(stash[(readIdx+1)*tapeChannels+ch])
			out[i+ch] = int16(s0 + (s1-s0)*frac)
		}

		t.pos += t.rate
		i += tapeChannels

		if t.rate == 0 && t.done {
			break
		}
	}
}
