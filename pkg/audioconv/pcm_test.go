package audioconv

import (
	"math"
	"testing"
)

func TestInt16ToFloat32(t *testing.T) {
	out := Int16ToFloat32([]int16{0, 16384, -16384, 32767, -32768})

	want := []float32{0, 0.5, -0.5, 32767.0 / 32768.0, -1}
	if len(out) != len(want) {
		t.Fatalf("got %d samples, want %d", len(out), len(want))
	}
	for i := range want {
		if math.Abs(float64(out[i]-want[i])) > 1e-6 {
			t.Errorf("sample %d: got %v, want %v", i, out[i], want[i])
		}
	}
}

func TestRMS16(t *testing.T) {
	t.Run("empty frame", func(t *testing.T) {
		if got := RMS16(nil); got != 0 {
			t.Errorf("got %v, want 0", got)
		}
	})

	t.Run("constant amplitude", func(t *testing.T) {
		frame := make([]int16, 512)
		for i := range frame {
			frame[i] = 1000
		}
		if got := RMS16(frame); math.Abs(got-1000) > 1e-9 {
			t.Errorf("got %v, want 1000", got)
		}
	})

	t.Run("sine wave", func(t *testing.T) {
		frame := make([]int16, 1600)
		for i := range frame {
			frame[i] = int16(10000 * math.Sin(2*math.Pi*float64(i)/16))
		}
		got := RMS16(frame)
		want := 10000 / math.Sqrt2
		if math.Abs(got-want) > 50 {
			t.Errorf("got %v, want ~%v", got, want)
		}
	})
}

func TestDownmixInterleaved(t *testing.T) {
	in := []float32{1, 0, 0.5, 0.5, -1, 1}
	out := DownmixInterleaved(in, 2)
	want := []float32{0.5, 0.5, 0}
	if len(out) != len(want) {
		t.Fatalf("got %d frames, want %d", len(out), len(want))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("frame %d: got %v, want %v", i, out[i], want[i])
		}
	}
}

func TestResampleLinear(t *testing.T) {
	t.Run("same rate is identity", func(t *testing.T) {
		in := []float32{0.1, 0.2, 0.3}
		out := ResampleLinear(in, 16000, 16000)
		if &out[0] != &in[0] {
			t.Error("expected input slice back unchanged")
		}
	})

	t.Run("halving the rate halves the length", func(t *testing.T) {
		in := make([]float32, 32000)
		out := ResampleLinear(in, 32000, 16000)
		if len(out) != 16000 {
			t.Errorf("got %d samples, want 16000", len(out))
		}
	})

	t.Run("constant signal survives resampling", func(t *testing.T) {
		in := make([]float32, 4410)
		for i := range in {
			in[i] = 0.25
		}
		for _, v := range ResampleLinear(in, 44100, 16000) {
			if math.Abs(float64(v-0.25)) > 1e-6 {
				t.Fatalf("got %v, want 0.25", v)
			}
		}
	})
}
