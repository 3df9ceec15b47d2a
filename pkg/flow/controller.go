package flow

import "github.com/aurelink/aurelink/pkg/filters"

// Controller is the per-track PCM effects pipeline: Filters -> Volume ->
// Fade -> Crossfade, applied in place to fixed-size stereo frames
// produced by pkg/decode. Tape is exposed separately (see Tape) since it
// generates its own output from a lookahead stash rather than
// transforming an already-produced frame, and only runs during a
// pause/resume transition rather than on every frame.
type Controller struct {
	Filters   *filters.Chain
	Volume    *Volume
	Fade      *Fade
	Crossfade *Crossfade

	sampleRate int
	channels   int
}

// NewController builds a Controller with every stage present but neutral
// (unity gain, no active fade, no filters enabled), so ProcessFrame is a
// cheap no-op chain until a player configures one of its stages.
func NewController(sampleRate, channels int) *Controller {
	return &Controller{
		Filters:    filters.NewChain(),
		Volume:     NewVolume(1.0, sampleRate),
		Fade:       NewFade(1.0),
		Crossfade:  NewCrossfade(sampleRate, channels),
		sampleRate: sampleRate,
		channels:   channels,
	}
}

// ProcessFrame runs one fixed-size stereo frame through the full chain in
// place: filters, volume (with soft limiter), the fade ramp, and —  if a
// crossfade is in progress — a constant-power blend with the buffered
// next track.
func (c *Controller) ProcessFrame(frame []int16) {
	c.Filters.Process(frame)
	c.Volume.Process(frame)
	c.Fade.Process(frame)
	if c.Crossfade.IsActive() {
		c.Crossfade.Process(frame)
	}
}

// Reset clears all stage state, e.g. when a player seeks or changes
// tracks outright (as opposed to crossfading into the next one).
func (c *Controller) Reset() {
	c.Filters.Reset()
	c.Volume.Reset()
	c.Fade.Reset()
	c.Crossfade.Clear()
}
