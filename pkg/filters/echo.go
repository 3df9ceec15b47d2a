package filters

// Echo feeds a delayed, attenuated copy of the signal back into itself,
// producing discrete repeats rather than a continuous wash like Reverb.
type Echo struct {
	DelayMs float64
	Decay   float64

	left  *delayLine
	right *delayLine
	built bool
}

const echoMaxDelayMs = 2000.0

func NewEcho() *Echo {
	return &Echo{DelayMs: 300, Decay: 0.5}
}

func (f *Echo) IsEnabled() bool { return f.Decay > 0 && f.DelayMs > 0 }

func (f *Echo) Reset() {
	if f.left != nil {
		f.left.Clear()
		f.right.Clear()
	}
}

func (f *Echo) ensureBuilt() {
	if f.built {
		return
	}
	size := int(echoMaxDelayMs * sampleRate / 1000)
	f.left = newDelayLine(size)
	f.right = newDelayLine(size)
	f.built = true
}

func (f *Echo) Process(samples []int16) {
	if !f.IsEnabled() {
		return
	}
	f.ensureBuilt()
	delaySamples := float32(f.DelayMs * sampleRate / 1000)
	maxDelay := float32(len(f.left.buf) - 2)
	if delaySamples > maxDelay {
		delaySamples = maxDelay
	}

	for i := 0; i+1 < len(samples); i += 2 {
		echoL := f.left.Read(delaySamples)
		echoR := f.right.Read(delaySamples)

		inL := float64(samples[i])
		inR := float64(samples[i+1])
		f.left.Write(float32(inL) + echoL*float32(f.Decay))
		f.right.Write(float32(inR) + echoR*float32(f.Decay))

		samples[i] = clampInt16(inL + float64(echoL)*f.Decay)
		samples[i+1] = clampInt16(inR + float64(echoR)*f.Decay)
	}
}
