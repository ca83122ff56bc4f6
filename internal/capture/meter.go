package capture

import (
	"encoding/binary"
	"math"
)

// meterBands is the fixed size of one visualization snapshot.
const meterBands = 20

// bandMagnitudes computes one amplitude-per-band frame from a PCM
// window using a per-band Goertzel filter. Band centers are spread
// linearly below the Nyquist frequency; magnitudes are normalized to
// the 0..1 range. Purely a visualization side channel.
func bandMagnitudes(samples []int16, sampleRate int) []float64 {
	out := make([]float64, meterBands)
	n := len(samples)
	if n == 0 || sampleRate <= 0 {
		return out
	}

	nyquist := float64(sampleRate) / 2
	step := (nyquist - 150) / float64(meterBands)

	for band := 0; band < meterBands; band++ {
		freq := 150 + step*(float64(band)+0.5)
		coeff := 2 * math.Cos(2*math.Pi*freq/float64(sampleRate))

		var s0, s1, s2 float64
		for _, sample := range samples {
			s0 = float64(sample)/32768 + coeff*s1 - s2
			s2 = s1
			s1 = s0
		}

		power := s1*s1 + s2*s2 - coeff*s1*s2
		if power < 0 {
			power = 0
		}
		magnitude := math.Sqrt(power) * 2 / float64(n)
		if magnitude > 1 {
			magnitude = 1
		}
		out[band] = magnitude
	}
	return out
}

// pcmToSamples reinterprets little-endian s16le bytes as samples. A
// trailing odd byte is ignored.
func pcmToSamples(pcm []byte) []int16 {
	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	return samples
}
