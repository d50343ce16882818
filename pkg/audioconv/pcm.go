// Package audioconv converts between the PCM representations used across the
// pipeline: int16 microphone frames, float32 model input, and audio files on
// disk. Everything converges on 16 kHz mono float32 in [-1, 1].
package audioconv

import "math"

const scale16 = 1.0 / 32768.0

// Int16ToFloat32 converts signed 16-bit samples to float32 in [-1, 1].
func Int16ToFloat32(in []int16) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(float64(v) * scale16)
	}
	return out
}

// RMS16 returns the root-mean-square amplitude of an int16 frame, in the
// int16 sample domain (0..32767). An empty frame has RMS 0.
func RMS16(frame []int16) float64 {
	if len(frame) == 0 {
		return 0
	}
	var s float64
	for _, v := range frame {
		f := float64(v)
		s += f * f
	}
	return math.Sqrt(s / float64(len(frame)))
}

// DownmixInterleaved averages interleaved multi-channel samples into mono.
func DownmixInterleaved(in []float32, channels int) []float32 {
	if channels <= 1 {
		return in
	}
	frames := len(in) / channels
	out := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		base := i * channels
		for c := 0; c < channels; c++ {
			sum += float64(in[base+c])
		}
		out[i] = float32(sum / float64(channels))
	}
	return out
}

// ResampleLinear resamples in from inRate to outRate using linear
// interpolation. Returns in unchanged when the rates already match.
func ResampleLinear(in []float32, inRate, outRate int) []float32 {
	if inRate == outRate || len(in) == 0 {
		return in
	}
	ratio := float64(outRate) / float64(inRate)
	n := int(math.Ceil(float64(len(in)) * ratio))
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		src := float64(i) / ratio
		i0 := int(math.Floor(src))
		i1 := i0 + 1
		if i0 >= len(in) {
			out[i] = in[len(in)-1]
			continue
		}
		if i1 >= len(in) {
			out[i] = in[i0]
			continue
		}
		a := float32(src - float64(i0))
		out[i] = in[i0]*(1-a) + in[i1]*a
	}
	return out
}

func intsToFloat32(data []int, bitDepth int) []float32 {
	out := make([]float32, len(data))
	s := 1.0 / float64(int64(1)<<(bitDepth-1))
	for i, v := range data {
		out[i] = float32(clamp(float64(v)*s, -1, 1))
	}
	return out
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
