package mixer

import (
	"github.com/aurelink/aurelink/pkg/pool"
	"github.com/aurelink/aurelink/pkg/resample"
)

// readLayerSamples pulls up to byteCount bytes out of a layer's ring
// buffer and returns them as int16 samples, releasing the pool-acquired
// byte slice back once converted.
func readLayerSamples(l *Layer, byteCount int) []int16 {
	raw := l.buf.Read(byteCount)
	if raw == nil {
		return nil
	}
	defer pool.Global().Release(raw)
	samples := resample.BytesToInt16(raw[:len(raw)-len(raw)%2])
	out := make([]int16, len(samples))
	copy(out, samples)
	return out
}
