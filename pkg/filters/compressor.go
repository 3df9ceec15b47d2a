package filters

import "math"

// Compressor is a feedforward envelope-follower dynamics processor:
// threshold/ratio reduce gain above the threshold, with separate
// attack/release time constants shaping how quickly the gain reduction
// engages and decays.
type Compressor struct {
	ThresholdDb float64
	Ratio       float64
	AttackMs    float64
	ReleaseMs   float64
	MakeupDb    float64

	envelope float64
}

func NewCompressor() *Compressor {
	return &Compressor{ThresholdDb: -18, Ratio: 4, AttackMs: 10, ReleaseMs: 100, MakeupDb: 0}
}

func (f *Compressor) IsEnabled() bool { return f.Ratio > 1 }

func (f *Compressor) Reset() { f.envelope = 0 }

func linearToDb(v float64) float64 {
	if v < 1e-9 {
		v = 1e-9
	}
	return 20 * math.Log10(v)
}

func dbToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

func (f *Compressor) Process(samples []int16) {
	if !f.IsEnabled() {
		return
	}
	attackCoeff := timeConstant(f.AttackMs)
	releaseCoeff := timeConstant(f.ReleaseMs)
	makeup := dbToLinear(f.MakeupDb)

	for i := 0; i+1 < len(samples); i += 2 {
		left := float64(samples[i])
		right := float64(samples[i+1])

		peak := math.Max(math.Abs(left), math.Abs(right)) / 32768

		var coeff float64
		if peak > f.envelope {
			coeff = attackCoeff
		} else {
			coeff = releaseCoeff
		}
		f.envelope += (peak - f.envelope) * coeff

		levelDb := linearToDb(f.envelope)
		gainReduction := 0.0
		if levelDb > f.ThresholdDb {
			excess := levelDb - f.ThresholdDb
			gainReduction = excess - excess/f.Ratio
		}
		gain := dbToLinear(-gainReduction) * makeup

		samples[i] = clampInt16(left * gain)
		samples[i+1] = clampInt16(right * gain)
	}
}

// timeConstant converts a millisecond attack/release time into a one-pole
// smoothing coefficient for the 48kHz processing rate.
func timeConstant(ms float64) float64 {
	if ms <= 0 {
		return 1
	}
	return 1 - math.Exp(-1/(ms/1000*sampleRate))
}
