// Package filters implements the Lavalink v4 DSP filter chain: in-place
// stereo int16 processors for EQ, karaoke, time-scaling, modulation
// effects (tremolo/vibrato/chorus/flanger/phaser/spatial), distortion,
// echo, reverb, compression, normalization, and channel routing, composed
// into a single ordered Chain.
package filters

// Filter processes one block of interleaved stereo int16 PCM in place.
// Implementations that cannot operate in place (Timescale) instead expose
// their own resizing entry point and implement Process as a no-op.
type Filter interface {
	Process(samples []int16)
	IsEnabled() bool
	Reset()
}

const sampleRate = 48000
