package wake

import (
	"math"
	"testing"
)

// noiseFrame returns a deterministic pseudo-noise frame. Different seeds give
// different spectra, so consecutive frames produce a small non-zero flux.
func noiseFrame(seed int, amp float64) []int16 {
	frame := make([]int16, 512)
	for i := range frame {
		v := math.Sin(float64(i*(seed+3))*0.7) * amp
		frame[i] = int16(v)
	}
	return frame
}

func TestFluxGate(t *testing.T) {
	g := newFluxGate()

	// Establish a quiet baseline by alternating two low-level noise frames.
	quiet := [][]int16{noiseFrame(1, 20), noiseFrame(2, 20)}
	for i := 0; i < 6; i++ {
		if g.feed(quiet[i%2]) {
			t.Fatalf("gate opened on quiet frame %d", i)
		}
	}

	// A loud onset must open the gate.
	if !g.feed(noiseFrame(3, 12000)) {
		t.Fatal("gate did not open on loud onset")
	}

	// Back to the quiet baseline the gate must close again within a few
	// frames (the first quiet frame still carries a large flux from the
	// loud-to-quiet transition).
	closed := false
	for i := 0; i < 6; i++ {
		if !g.feed(quiet[i%2]) {
			closed = true
			break
		}
	}
	if !closed {
		t.Fatal("gate did not close after the burst ended")
	}
}
