package main

import "github.com/F-L-X-S/WLAN-CSI/pkg/trigger"

// frameGate runs the power trigger over a float sample stream and passes
// only the samples inside an active packet window downstream. Samples are
// packed into the Q15 int32 format the trigger operates on.
type frameGate struct {
	trig *trigger.PowerTrigger
	out  []complex64
}

func newFrameGate(cfg TriggerConfig) *frameGate {
	return &frameGate{
		trig: trigger.New(cfg.PowerThreshold, cfg.WindowSize, cfg.SkipSamples),
	}
}

// Filter returns the samples for which the trigger is active. The returned
// slice is reused across calls.
func (g *frameGate) Filter(samples []complex64) []complex64 {
	g.out = g.out[:0]
	for _, x := range samples {
		if g.trig.GetTrigger(packQ15(x)) {
			g.out = append(g.out, x)
		}
	}
	return g.out
}

// Reset forces the trigger back to its initial skip state.
func (g *frameGate) Reset() {
	g.trig.Reset()
}

// packQ15 packs a unit-range complex sample into the int32 wire layout
// with I in the upper and Q in the lower 16 bits.
func packQ15(x complex64) int32 {
	return int32(clampQ15(real(x)))<<16 | int32(uint16(clampQ15(imag(x))))
}

func clampQ15(v float32) int16 {
	s := v * 32767
	switch {
	case s > 32767:
		return 32767
	case s < -32768:
		return -32768
	}
	return int16(s)
}
