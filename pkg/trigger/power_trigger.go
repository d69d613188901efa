// Package trigger implements a power-threshold frame trigger: a small state
// machine over the in-phase component of packed IQ samples, modeled on the
// openofdm power_trigger logic.
package trigger

// Default trigger parameters.
const (
	DefaultPowerThreshold = 100
	DefaultWindowSize     = 80
	DefaultSkipSamples    = 5000000
)

type state uint8

const (
	stateSkip state = iota
	stateIdle
	statePacket
)

// PowerTrigger detects packet activity from the magnitude of the in-phase
// component. After construction or any parameter change the first
// skipSamples samples are ignored, then the trigger asserts on the first
// sample whose |I| exceeds the threshold and deasserts once windowSize
// consecutive samples stayed below it.
type PowerTrigger struct {
	powerThres  uint16
	windowSize  uint16
	skipSamples uint32

	state         state
	paramsChanged bool
	sampleCount   uint32
	trigger       bool
}

// New creates a trigger with the given threshold, deassert window and
// initial skip count.
func New(powerThres uint16, windowSize uint16, skipSamples uint32) *PowerTrigger {
	return &PowerTrigger{
		powerThres:  powerThres,
		windowSize:  windowSize,
		skipSamples: skipSamples,
	}
}

// NewDefault creates a trigger with the default parameters.
func NewDefault() *PowerTrigger {
	return New(DefaultPowerThreshold, DefaultWindowSize, DefaultSkipSamples)
}

// GetTrigger consumes one packed IQ sample (I in the upper 16 bits, Q in the
// lower 16) and returns the trigger state after advancing the machine by
// exactly one sample. Each call evaluates exactly one state; there is no
// fall-through between states within a single sample.
func (t *PowerTrigger) GetTrigger(sample int32) bool {
	inputI := int16(sample >> 16)
	var absI uint16
	if inputI < 0 {
		absI = uint16(-int32(inputI))
	} else {
		absI = uint16(inputI)
	}

	// restart the skip phase after any parameter change
	if t.paramsChanged {
		t.paramsChanged = false
		t.sampleCount = 0
		t.state = stateSkip
	}

	switch t.state {
	case stateSkip:
		if t.sampleCount >= t.skipSamples {
			t.state = stateIdle
		} else {
			t.sampleCount++
		}

	case stateIdle:
		if absI > t.powerThres {
			t.trigger = true
			t.sampleCount = 0
			t.state = statePacket
		}

	case statePacket:
		if absI < t.powerThres {
			if t.sampleCount >= uint32(t.windowSize) {
				t.trigger = false
				t.state = stateIdle
			} else {
				t.sampleCount++
			}
		} else {
			// active signal keeps the deassert window from starting
			t.sampleCount = 0
		}
	}

	return t.trigger
}

// SetPowerThreshold changes the assert threshold and forces the machine back
// through the skip phase before the next evaluation.
func (t *PowerTrigger) SetPowerThreshold(v uint16) {
	t.powerThres = v
	t.paramsChanged = true
}

// SetWindowSize changes the deassert window and forces the skip phase.
func (t *PowerTrigger) SetWindowSize(v uint16) {
	t.windowSize = v
	t.paramsChanged = true
}

// SetSkipSamples changes the skip count and forces the skip phase.
func (t *PowerTrigger) SetSkipSamples(v uint32) {
	t.skipSamples = v
	t.paramsChanged = true
}

// Reset clears all counters and returns the machine to the skip phase with
// the trigger deasserted.
func (t *PowerTrigger) Reset() {
	t.sampleCount = 0
	t.trigger = false
	t.paramsChanged = false
	t.state = stateSkip
}
