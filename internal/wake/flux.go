package wake

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Activity factors: the gate opens when spectral flux jumps to 1.75x the
// rolling baseline and closes when it falls back below baseline/1.75.
const (
	riseFactor = 1.75
	fallFactor = 1.75
)

// fluxGate is a cheap activity detector over spectral flux. It tells the
// keyword scanner when something worth transcribing happened; it makes no
// attempt to distinguish speech from other sounds.
type fluxGate struct {
	prev   []float64
	last   float64
	active bool
}

func newFluxGate() *fluxGate { return &fluxGate{} }

// feed processes one frame and reports whether the gate is open.
func (g *fluxGate) feed(frame []int16) bool {
	flux := g.flux(frame)

	if g.last == 0 {
		g.last = flux
		return g.active
	}

	if g.active {
		if flux*fallFactor <= g.last {
			g.active = false
			g.last = flux
		} else {
			g.last = flux
		}
	} else {
		if flux >= g.last*riseFactor {
			g.active = true
		} else {
			g.last = flux
		}
	}
	return g.active
}

// flux returns the L2 spectral flux between this frame and the previous one.
func (g *fluxGate) flux(frame []int16) float64 {
	x := make([]float64, len(frame))
	for i, v := range frame {
		x[i] = float64(v)
	}

	spectrum := fft.FFTReal(x)
	mags := make([]float64, len(spectrum)/2+1)
	for i := range mags {
		mags[i] = cmplx.Abs(spectrum[i])
	}

	var sum float64
	if g.prev != nil && len(g.prev) == len(mags) {
		for i := range mags {
			d := mags[i] - g.prev[i]
			sum += d * d
		}
	}
	g.prev = mags
	return math.Sqrt(sum)
}
