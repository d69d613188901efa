// Package dsp provides the small numeric engines in front of the frame
// synchronizer: a numerically controlled oscillator and an arbitrary-rate
// resampler.
package dsp

import "math"

// NCO is a numerically controlled oscillator. Frequency is in radians per
// sample, phase in radians. It rotates complex baseband samples to apply
// externally estimated frequency and phase offsets.
type NCO struct {
	freq  float64
	phase float64
}

// NewNCO creates an oscillator at zero frequency and phase.
func NewNCO() *NCO {
	return &NCO{}
}

// Frequency returns the oscillator frequency in radians per sample.
func (n *NCO) Frequency() float64 { return n.freq }

// SetFrequency sets the oscillator frequency in radians per sample.
func (n *NCO) SetFrequency(f float64) { n.freq = f }

// Phase returns the current phase in [0, 2π).
func (n *NCO) Phase() float64 { return n.phase }

// SetPhase sets the phase, wrapped into [0, 2π).
func (n *NCO) SetPhase(p float64) { n.phase = wrapPhase(p) }

// AdjustPhase increments the phase by delta radians.
func (n *NCO) AdjustPhase(delta float64) { n.phase = wrapPhase(n.phase + delta) }

// Step advances the phase by one sample period.
func (n *NCO) Step() { n.phase = wrapPhase(n.phase + n.freq) }

// MixUp rotates one sample by the current phase. The phase is not advanced.
func (n *NCO) MixUp(x complex64) complex64 {
	sin, cos := math.Sincos(n.phase)
	return x * complex64(complex(cos, sin))
}

// MixDown rotates one sample by the negated current phase.
func (n *NCO) MixDown(x complex64) complex64 {
	sin, cos := math.Sincos(n.phase)
	return x * complex64(complex(cos, -sin))
}

// MixBlockUp rotates buf in place, stepping the oscillator once per sample.
func (n *NCO) MixBlockUp(buf []complex64) {
	for i := range buf {
		buf[i] = n.MixUp(buf[i])
		n.Step()
	}
}

// MixBlockDown rotates buf in place by the conjugate carrier, stepping once
// per sample.
func (n *NCO) MixBlockDown(buf []complex64) {
	for i := range buf {
		buf[i] = n.MixDown(buf[i])
		n.Step()
	}
}

// Reset returns frequency and phase to zero.
func (n *NCO) Reset() {
	n.freq = 0
	n.phase = 0
}

func wrapPhase(p float64) float64 {
	p = math.Mod(p, 2*math.Pi)
	if p < 0 {
		p += 2 * math.Pi
	}
	return p
}
