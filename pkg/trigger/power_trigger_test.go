package trigger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func packIQ(i, q int16) int32 {
	return int32(uint32(uint16(i))<<16 | uint32(uint16(q)))
}

func TestPowerTriggerHoldsWindow(t *testing.T) {
	pt := New(1000, 5, 2)

	low := packIQ(10, 5)
	high := packIQ(1001, 800)

	// skip phase: high power is still ignored
	for i := 0; i < 2; i++ {
		assert.False(t, pt.GetTrigger(high), "skip sample %d", i)
	}

	// idle: low power keeps the trigger deasserted
	for i := 0; i < 8; i++ {
		assert.False(t, pt.GetTrigger(low), "idle sample %d", i)
	}

	// packet: asserts on the first high-power sample
	for i := 0; i < 3; i++ {
		assert.True(t, pt.GetTrigger(high), "high sample %d", i)
	}

	// low power within the window keeps the trigger asserted
	for i := 0; i < 5; i++ {
		assert.True(t, pt.GetTrigger(low), "window sample %d", i)
	}

	// one more low-power sample exceeds the window
	for i := 0; i < 8; i++ {
		assert.False(t, pt.GetTrigger(low), "post-window sample %d", i)
	}
}

func TestPowerTriggerNegativeI(t *testing.T) {
	pt := New(1000, 5, 0)

	assert.False(t, pt.GetTrigger(packIQ(10, 5))) // consumes the skip transition
	assert.False(t, pt.GetTrigger(packIQ(10, 5)))
	assert.True(t, pt.GetTrigger(packIQ(-1001, 800)), "negative I above threshold must assert")
}

func TestPowerTriggerResetDuringWindow(t *testing.T) {
	pt := New(1000, 5, 2)

	low := packIQ(10, 5)
	high := packIQ(-1001, 800)

	for i := 0; i < 2; i++ {
		assert.False(t, pt.GetTrigger(high))
	}
	for i := 0; i < 8; i++ {
		assert.False(t, pt.GetTrigger(low))
	}
	for i := 0; i < 3; i++ {
		assert.True(t, pt.GetTrigger(high))
	}
	for i := 0; i < 2; i++ {
		assert.True(t, pt.GetTrigger(low))
	}

	// reset mid-window: the remaining window budget must not keep the
	// trigger asserted
	pt.Reset()
	for i := 0; i < 8; i++ {
		assert.False(t, pt.GetTrigger(low), "post-reset sample %d", i)
	}
}

func TestPowerTriggerParameterChangeForcesSkip(t *testing.T) {
	pt := New(1000, 5, 1)

	assert.False(t, pt.GetTrigger(packIQ(2000, 0))) // skip
	assert.False(t, pt.GetTrigger(packIQ(2000, 0))) // skip -> idle transition
	assert.True(t, pt.GetTrigger(packIQ(2000, 0)))  // asserts

	// changing the threshold mid-packet restarts the skip phase
	pt.SetPowerThreshold(500)
	assert.True(t, pt.GetTrigger(packIQ(2000, 0)), "skip phase retains the last trigger value")

	// the machine is back in skip: high power is not re-evaluated until the
	// skip budget is spent again
	pt.Reset()
	assert.False(t, pt.GetTrigger(packIQ(2000, 0)))
}
