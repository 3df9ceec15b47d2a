// Package wire translates the JSON documents REST/WS clients send and
// receive into the typed Go structs the DSP and player packages operate
// on. It exists because pkg/filters' structs are plain DSP state (no json
// tags) while the wire shape follows Lavalink v4's filters payload plus
// this node's own effect extensions.
package wire

import (
	"encoding/json"
	"fmt"

	"github.com/aurelink/aurelink/pkg/filters"
)

type eqBand struct {
	Band int     `json:"band"`
	Gain float64 `json:"gain"`
}

type karaokePayload struct {
	Level       *float64 `json:"level"`
	MonoLevel   *float64 `json:"monoLevel"`
	FilterBand  *float64 `json:"filterBand"`
	FilterWidth *float64 `json:"filterWidth"`
}

type timescalePayload struct {
	Speed *float64 `json:"speed"`
	Pitch *float64 `json:"pitch"`
	Rate  *float64 `json:"rate"`
}

type tremoloPayload struct {
	Frequency *float64 `json:"frequency"`
	Depth     *float64 `json:"depth"`
}

type vibratoPayload struct {
	Frequency *float64 `json:"frequency"`
	Depth     *float64 `json:"depth"`
}

type rotationPayload struct {
	RotationHz *float64 `json:"rotationHz"`
}

type distortionPayload struct {
	SinOffset *float64 `json:"sinOffset"`
	SinScale  *float64 `json:"sinScale"`
	CosOffset *float64 `json:"cosOffset"`
	CosScale  *float64 `json:"cosScale"`
	TanOffset *float64 `json:"tanOffset"`
	TanScale  *float64 `json:"tanScale"`
	Offset    *float64 `json:"offset"`
	Scale     *float64 `json:"scale"`
}

type channelMixPayload struct {
	LeftToLeft   *float64 `json:"leftToLeft"`
	LeftToRight  *float64 `json:"leftToRight"`
	RightToLeft  *float64 `json:"rightToLeft"`
	RightToRight *float64 `json:"rightToRight"`
}

type lowPassPayload struct {
	Smoothing *float64 `json:"smoothing"`
}

type echoPayload struct {
	DelayMs *float64 `json:"delayMs"`
	Decay   *float64 `json:"decay"`
}

type reverbPayload struct {
	RoomSize *float64 `json:"roomSize"`
	Damp     *float64 `json:"damp"`
	Wet      *float64 `json:"wet"`
	Dry      *float64 `json:"dry"`
}

type compressorPayload struct {
	ThresholdDb *float64 `json:"thresholdDb"`
	Ratio       *float64 `json:"ratio"`
	AttackMs    *float64 `json:"attackMs"`
	ReleaseMs   *float64 `json:"releaseMs"`
	MakeupDb    *float64 `json:"makeupDb"`
}

type normalizationPayload struct {
	Enabled  *bool    `json:"enabled"`
	Adaptive *bool    `json:"adaptive"`
	Ceiling  *float64 `json:"ceiling"`
}

type chorusPayload struct {
	Frequency *float64 `json:"frequency"`
	Depth     *float64 `json:"depth"`
	Mix       *float64 `json:"mix"`
}

type flangerPayload struct {
	Frequency *float64 `json:"frequency"`
	Depth     *float64 `json:"depth"`
	Feedback  *float64 `json:"feedback"`
	Mix       *float64 `json:"mix"`
}

type phaserPayload struct {
	Frequency *float64 `json:"frequency"`
	Depth     *float64 `json:"depth"`
	Feedback  *float64 `json:"feedback"`
	Mix       *float64 `json:"mix"`
}

type spatialPayload struct {
	Frequency *float64 `json:"frequency"`
	Width     *float64 `json:"width"`
}

// filtersPayload is the full `filters` object a PATCH player body or a
// voiceUpdate-adjacent filters op carries. Every field is optional;
// fields the client omits are left at the chain's current value.
type filtersPayload struct {
	Equalizer     []eqBand              `json:"equalizer"`
	Karaoke       *karaokePayload       `json:"karaoke"`
	Timescale     *timescalePayload     `json:"timescale"`
	Tremolo       *tremoloPayload       `json:"tremolo"`
	Vibrato       *vibratoPayload       `json:"vibrato"`
	Rotation      *rotationPayload      `json:"rotation"`
	Distortion    *distortionPayload    `json:"distortion"`
	ChannelMix    *channelMixPayload    `json:"channelMix"`
	LowPass       *lowPassPayload       `json:"lowPass"`
	Echo          *echoPayload          `json:"echo"`
	Reverb        *reverbPayload        `json:"reverb"`
	Compressor    *compressorPayload    `json:"compressor"`
	Normalization *normalizationPayload `json:"normalization"`
	Chorus        *chorusPayload        `json:"chorus"`
	Flanger       *flangerPayload       `json:"flanger"`
	Phaser        *phaserPayload        `json:"phaser"`
	Spatial       *spatialPayload       `json:"spatial"`
}

func orDefault(p *float64, cur float64) float64 {
	if p == nil {
		return cur
	}
	return *p
}

// decodePayload round-trips raw through encoding/json onto a
// filtersPayload: a field this node doesn't recognize (or Lavalink's
// pluginFilters namespace) is silently dropped, matching "unknown filter
// names are admitted by default".
func decodePayload(raw map[string]any) (*filtersPayload, error) {
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("wire: marshal filters payload: %w", err)
	}
	var p filtersPayload
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("wire: decode filters payload: %w", err)
	}
	return &p, nil
}

// ApplyFilters decodes raw (the parsed JSON `filters` object from a PATCH
// player body or WS filters op) onto chain, leaving any field the client
// didn't mention at its current value. Unknown keys in raw are ignored,
// matching spec's "unknown filter names are admitted by default".
func ApplyFilters(chain *filters.Chain, raw map[string]any) error {
	p, err := decodePayload(raw)
	if err != nil {
		return err
	}

	if p.Equalizer != nil {
		for _, b := range p.Equalizer {
			if b.Band >= 0 && b.Band < len(chain.Equalizer.Gains) {
				chain.Equalizer.Gains[b.Band] = b.Gain
			}
		}
	}
	if k := p.Karaoke; k != nil {
		chain.Karaoke.Level = orDefault(k.Level, chain.Karaoke.Level)
		chain.Karaoke.MonoLevel = orDefault(k.MonoLevel, chain.Karaoke.MonoLevel)
		chain.Karaoke.FilterBand = orDefault(k.FilterBand, chain.Karaoke.FilterBand)
		chain.Karaoke.FilterWidth = orDefault(k.FilterWidth, chain.Karaoke.FilterWidth)
	}
	if t := p.Timescale; t != nil {
		chain.Timescale.Speed = orDefault(t.Speed, chain.Timescale.Speed)
		chain.Timescale.Pitch = orDefault(t.Pitch, chain.Timescale.Pitch)
		chain.Timescale.Rate = orDefault(t.Rate, chain.Timescale.Rate)
	}
	if t := p.Tremolo; t != nil {
		chain.Tremolo.Frequency = orDefault(t.Frequency, chain.Tremolo.Frequency)
		chain.Tremolo.Depth = orDefault(t.Depth, chain.Tremolo.Depth)
	}
	if v := p.Vibrato; v != nil {
		chain.Vibrato.Frequency = orDefault(v.Frequency, chain.Vibrato.Frequency)
		chain.Vibrato.Depth = orDefault(v.Depth, chain.Vibrato.Depth)
	}
	if r := p.Rotation; r != nil {
		chain.Rotation.RotationHz = orDefault(r.RotationHz, chain.Rotation.RotationHz)
	}
	if d := p.Distortion; d != nil {
		chain.Distortion.SinOffset = orDefault(d.SinOffset, chain.Distortion.SinOffset)
		chain.Distortion.SinScale = orDefault(d.SinScale, chain.Distortion.SinScale)
		chain.Distortion.CosOffset = orDefault(d.CosOffset, chain.Distortion.CosOffset)
		chain.Distortion.CosScale = orDefault(d.CosScale, chain.Distortion.CosScale)
		chain.Distortion.TanOffset = orDefault(d.TanOffset, chain.Distortion.TanOffset)
		chain.Distortion.TanScale = orDefault(d.TanScale, chain.Distortion.TanScale)
		chain.Distortion.Offset = orDefault(d.Offset, chain.Distortion.Offset)
		chain.Distortion.Scale = orDefault(d.Scale, chain.Distortion.Scale)
	}
	if c := p.ChannelMix; c != nil {
		chain.ChannelMix.LeftToLeft = orDefault(c.LeftToLeft, chain.ChannelMix.LeftToLeft)
		chain.ChannelMix.LeftToRight = orDefault(c.LeftToRight, chain.ChannelMix.LeftToRight)
		chain.ChannelMix.RightToLeft = orDefault(c.RightToLeft, chain.ChannelMix.RightToLeft)
		chain.ChannelMix.RightToRight = orDefault(c.RightToRight, chain.ChannelMix.RightToRight)
	}
	if l := p.LowPass; l != nil {
		chain.Lowpass.Smoothing = orDefault(l.Smoothing, chain.Lowpass.Smoothing)
	}
	if e := p.Echo; e != nil {
		chain.Echo.DelayMs = orDefault(e.DelayMs, chain.Echo.DelayMs)
		chain.Echo.Decay = orDefault(e.Decay, chain.Echo.Decay)
	}
	if r := p.Reverb; r != nil {
		chain.Reverb.RoomSize = orDefault(r.RoomSize, chain.Reverb.RoomSize)
		chain.Reverb.Damp = orDefault(r.Damp, chain.Reverb.Damp)
		chain.Reverb.Wet = orDefault(r.Wet, chain.Reverb.Wet)
		chain.Reverb.Dry = orDefault(r.Dry, chain.Reverb.Dry)
	}
	if c := p.Compressor; c != nil {
		chain.Compressor.ThresholdDb = orDefault(c.ThresholdDb, chain.Compressor.ThresholdDb)
		chain.Compressor.Ratio = orDefault(c.Ratio, chain.Compressor.Ratio)
		chain.Compressor.AttackMs = orDefault(c.AttackMs, chain.Compressor.AttackMs)
		chain.Compressor.ReleaseMs = orDefault(c.ReleaseMs, chain.Compressor.ReleaseMs)
		chain.Compressor.MakeupDb = orDefault(c.MakeupDb, chain.Compressor.MakeupDb)
	}
	if n := p.Normalization; n != nil {
		if n.Enabled != nil {
			chain.Normalization.Enabled = *n.Enabled
		}
		if n.Adaptive != nil {
			chain.Normalization.Adaptive = *n.Adaptive
		}
		chain.Normalization.Ceiling = orDefault(n.Ceiling, chain.Normalization.Ceiling)
	}
	if c := p.Chorus; c != nil {
		chain.Chorus.Frequency = orDefault(c.Frequency, chain.Chorus.Frequency)
		chain.Chorus.Depth = orDefault(c.Depth, chain.Chorus.Depth)
		chain.Chorus.Mix = orDefault(c.Mix, chain.Chorus.Mix)
	}
	if f := p.Flanger; f != nil {
		chain.Flanger.Frequency = orDefault(f.Frequency, chain.Flanger.Frequency)
		chain.Flanger.Depth = orDefault(f.Depth, chain.Flanger.Depth)
		chain.Flanger.Feedback = orDefault(f.Feedback, chain.Flanger.Feedback)
		chain.Flanger.Mix = orDefault(f.Mix, chain.Flanger.Mix)
	}
	if ph := p.Phaser; ph != nil {
		chain.Phaser.Frequency = orDefault(ph.Frequency, chain.Phaser.Frequency)
		chain.Phaser.Depth = orDefault(ph.Depth, chain.Phaser.Depth)
		chain.Phaser.Feedback = orDefault(ph.Feedback, chain.Phaser.Feedback)
		chain.Phaser.Mix = orDefault(ph.Mix, chain.Phaser.Mix)
	}
	if s := p.Spatial; s != nil {
		chain.Spatial.Frequency = orDefault(s.Frequency, chain.Spatial.Frequency)
		chain.Spatial.Width = orDefault(s.Width, chain.Spatial.Width)
	}

	return nil
}
