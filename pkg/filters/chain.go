package filters

// Chain runs an ordered sequence of filters over each block, matching the
// Lavalink v4 /v4/sessions/{id}/players/{id} filters payload: equalizer,
// karaoke, timescale, tremolo, vibrato, rotation, distortion, channelMix,
// lowPass, plus the non-Lavalink-standard echo/reverb/compressor/
// normalization/chorus/flanger/phaser/spatial effects this node also
// supports. Volume, fade, and crossfade are not part of the chain; they
// live in pkg/flow, which runs downstream of it.
type Chain struct {
	Equalizer     *Equalizer
	Karaoke       *Karaoke
	Timescale     *Timescale
	Tremolo       *Tremolo
	Vibrato       *Vibrato
	Rotation      *Rotation
	Distortion    *Distortion
	ChannelMix    *ChannelMix
	Lowpass       *Lowpass
	Echo          *Echo
	Reverb        *Reverb
	Compressor    *Compressor
	Normalization *Normalization
	Chorus        *Chorus
	Flanger       *Flanger
	Phaser        *Phaser
	Spatial       *Spatial
}

// NewChain builds a chain with every filter present but disabled (their
// IsEnabled defaults all evaluate false), so Process is a cheap no-op
// until a client configures one.
func NewChain() *Chain {
	vibrato := NewVibrato()
	vibrato.Depth = 0
	chorus := NewChorus()
	chorus.Depth, chorus.Mix = 0, 0
	flanger := NewFlanger()
	flanger.Depth, flanger.Mix = 0, 0

	return &Chain{
		Equalizer:     NewEqualizer(),
		Karaoke:       &Karaoke{},
		Timescale:     NewTimescale(),
		Tremolo:       &Tremolo{osc: newLFO()},
		Vibrato:       vibrato,
		Rotation:      &Rotation{},
		Distortion:    NewDistortion(),
		ChannelMix:    NewChannelMix(),
		Lowpass:       &Lowpass{},
		Echo:          &Echo{},
		Reverb:        &Reverb{},
		Compressor:    &Compressor{Ratio: 1},
		Normalization: &Normalization{},
		Chorus:        chorus,
		Flanger:       flanger,
		Phaser:        &Phaser{osc: newLFO()},
		Spatial:       &Spatial{osc: newLFO()},
	}
}

// ordered returns every filter in the fixed processing order, EQ/karaoke
// first (tonal shaping), modulation effects in the middle, dynamics and
// spatial effects last.
func (c *Chain) ordered() []Filter {
	return []Filter{
		c.Equalizer, c.Karaoke, c.Lowpass,
		c.Tremolo, c.Vibrato, c.Chorus, c.Flanger, c.Phaser, c.Rotation, c.Spatial,
		c.Distortion, c.ChannelMix,
		c.Echo, c.Reverb,
		c.Compressor, c.Normalization,
	}
}

// Process runs every enabled filter over samples in order, in place.
// Timescale is excluded — it resizes the buffer and must be driven through
// ProcessResample by the caller (pkg/decode) before or after this call.
func (c *Chain) Process(samples []int16) {
	for _, f := range c.ordered() {
		if f.IsEnabled() {
			f.Process(samples)
		}
	}
}

// IsEnabled reports whether any filter (including Timescale) is active.
func (c *Chain) IsEnabled() bool {
	if c.Timescale.IsEnabled() {
		return true
	}
	for _, f := range c.ordered() {
		if f.IsEnabled() {
			return true
		}
	}
	return false
}

// Reset clears all filter state, e.g. on seek.
func (c *Chain) Reset() {
	c.Timescale.Reset()
	for _, f := range c.ordered() {
		f.Reset()
	}
}
