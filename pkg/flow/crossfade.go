package flow

import (
	"math"

	"github.com/aurelink/aurelink/pkg/pool"
	"github.com/aurelink/aurelink/pkg/resample"
	"github.com/aurelink/aurelink/pkg/ring"
)

const halfPi = math.Pi / 2

// Crossfade blends the outgoing track with a buffered prefix of the
// incoming one using constant-power (cos/sin) gain curves, so perceived
// loudness stays constant through the transition instead of dipping.
type Crossfade struct {
	sampleRate int
	channels   int
	bytesPerMs int

	buf               *ring.Buffer
	targetBufferBytes int

	active     bool
	durationMs float64
	elapsedMs  float64
	curve      FadeCurve
}

func NewCrossfade(sampleRate, channels int) *Crossfade {
	return &Crossfade{
		sampleRate: sampleRate,
		channels:   channels,
		bytesPerMs: sampleRate * channels * 2 / 1000,
	}
}

// Prepare allocates a lookahead ring buffer sized for durationMs of
// audio (minimum 8KiB), ready to receive the next track's PCM via Feed.
func (c *Crossfade) Prepare(durationMs int) {
	c.Clear()
	size := durationMs * c.bytesPerMs
	if size < 8192 {
		size = 8192
	}
	c.buf = ring.New(size)
	c.targetBufferBytes = size
}

// Feed appends incoming-track PCM bytes to the lookahead buffer.
func (c *Crossfade) Feed(pcmBytes []byte) {
	if c.buf != nil {
		c.buf.Write(pcmBytes)
	}
}

// IsReady reports whether enough of the incoming track is buffered to
// start a crossfade: 80% of the target size, capped at one second.
func (c *Crossfade) IsReady() bool {
	if c.buf == nil {
		return false
	}
	threshold := c.targetBufferBytes * 8 / 10
	oneSecond := c.sampleRate * c.channels * 2
	if oneSecond < threshold {
		threshold = oneSecond
	}
	return c.buf.Len() >= threshold
}

// Start begins the crossfade if the lookahead buffer is ready. Returns
// false if crossfade cannot start yet (Prepare not called, or not
// enough buffered audio).
func (c *Crossfade) Start(durationMs int, curve FadeCurve) bool {
	if c.buf == nil || !c.IsReady() {
		return false
	}
	c.active = true
	c.durationMs = float64(durationMs)
	c.elapsedMs = 0
	c.curve = curve
	return true
}

func (c *Crossfade) IsActive() bool { return c.active }

func (c *Crossfade) Clear() {
	c.buf = nil
	c.targetBufferBytes = 0
	c.active = false
}

// Process mixes the buffered incoming track into frame. Returns true if
// the crossfade completed during this call.
func (c *Crossfade) Process(frame []int16) bool {
	if !c.active || c.buf == nil {
		return false
	}

	byteCount := len(frame) * 2
	nextBytes := c.buf.Read(byteCount)
	if nextBytes == nil {
		return false
	}
	next := resample.BytesToInt16(nextBytes)
	defer pool.Global().Release(nextBytes)

	chunkMs := float64(len(frame)) / float64(c.channels) / float64(c.sampleRate) * 1000

	tStart := math.Min(c.elapsedMs/c.durationMs, 1.0)
	tEnd := math.Min((c.elapsedMs+chunkMs)/c.durationMs, 1.0)

	outStart, inStart := c.fadeGains(tStart)
	outEnd, inEnd := c.fadeGains(tEnd)

	n := len(frame)
	stepOut, stepIn := 0.0, 0.0
	if n > 1 {
		stepOut = (outEnd - outStart) / float64(n-1)
		stepIn = (inEnd - inStart) / float64(n-1)
	}
	gOut, gIn := outStart, inStart

	for i := range frame {
		var nextVal int16
		if i < len(next) {
			nextVal = next[i]
		}
		mixed := float64(frame[i])*gOut + float64(nextVal)*gIn
		frame[i] = clampSample(mixed)
		gOut += stepOut
		gIn += stepIn
	}

	c.elapsedMs += chunkMs
	if c.elapsedMs >= c.durationMs {
		c.active = false
		return true
	}
	return false
}

func (c *Crossfade) fadeGains(t float64) (out, in float64) {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	if c.curve == FadeLinear {
		return 1 - t, t
	}
	return math.Cos(t * halfPi), math.Sin(t * halfPi)
}
