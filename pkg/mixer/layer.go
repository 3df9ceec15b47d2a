package mixer

import "github.com/aurelink/aurelink/pkg/ring"

// layerBufferBytes sizes each layer's ring buffer at roughly 5.4s of
// stereo 48kHz PCM, enough lookahead that a bursty overlay producer
// (e.g. a TTS clip or sound effect) doesn't stall waiting on the mixer.
const layerBufferBytes = 1024 * 1024

// Layer is one overlay audio source mixed additively onto the main
// stream: a sound effect, an announcement, or any secondary track that
// plays alongside the primary track rather than replacing it.
type Layer struct {
	id       string
	buf      *ring.Buffer
	volume   float32
	finished bool
}

func newLayer(id string, volume float32) *Layer {
	return &Layer{
		id:     id,
		buf:    ring.New(layerBufferBytes),
		volume: clampVolume(volume),
	}
}

func clampVolume(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
