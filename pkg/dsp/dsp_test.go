package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNCOPhaseWrap(t *testing.T) {
	n := NewNCO()
	n.SetPhase(3 * math.Pi)
	assert.InDelta(t, math.Pi, n.Phase(), 1e-12)

	n.SetPhase(0)
	n.AdjustPhase(-math.Pi / 2)
	assert.InDelta(t, 3*math.Pi/2, n.Phase(), 1e-12)
}

func TestNCOStepAdvancesByFrequency(t *testing.T) {
	n := NewNCO()
	n.SetFrequency(0.25)
	for i := 0; i < 4; i++ {
		n.Step()
	}
	assert.InDelta(t, 1.0, n.Phase(), 1e-12)
}

func TestNCOMixUpDownRoundTrip(t *testing.T) {
	n := NewNCO()
	n.SetPhase(0.7)

	x := complex64(complex(0.6, -0.3))
	y := n.MixUp(x)
	back := n.MixDown(y)
	assert.InDelta(t, real(x), real(back), 1e-6)
	assert.InDelta(t, imag(x), imag(back), 1e-6)
}

func TestNCOMixBlockMatchesPerSample(t *testing.T) {
	block := NewNCO()
	single := NewNCO()
	block.SetFrequency(0.1)
	single.SetFrequency(0.1)

	buf := []complex64{1, 1, 1, 1, 1}
	block.MixBlockUp(buf)

	for i, got := range buf {
		want := single.MixUp(1)
		single.Step()
		assert.InDelta(t, real(want), real(got), 1e-6, "sample %d", i)
		assert.InDelta(t, imag(want), imag(got), 1e-6, "sample %d", i)
	}
	assert.InDelta(t, block.Phase(), single.Phase(), 1e-12)
}

func TestResamplerRejectsBadRate(t *testing.T) {
	_, err := NewResampler(0)
	require.Error(t, err)
	_, err = NewResampler(-1)
	require.Error(t, err)
}

func TestResamplerUnityRate(t *testing.T) {
	r, err := NewResampler(1.0)
	require.NoError(t, err)

	in := []complex64{1, 2, 3, 4}
	var out []complex64
	for _, s := range in {
		out = append(out, r.Execute(s)...)
	}
	// one output per input, delayed by one sample
	require.Len(t, out, len(in))
	assert.Equal(t, []complex64{0, 1, 2, 3}, out)
}

func TestResamplerDecimation(t *testing.T) {
	r, err := NewResampler(0.5)
	require.NoError(t, err)

	produced := 0
	skipped := 0
	for i := 0; i < 100; i++ {
		out := r.Execute(complex(float32(i), 0))
		if len(out) == 0 {
			skipped++
		}
		produced += len(out)
	}
	assert.Equal(t, 50, produced, "rate 0.5 halves the stream")
	assert.Equal(t, 50, skipped, "every other input yields no output")
}

func TestResamplerInterpolation(t *testing.T) {
	r, err := NewResampler(2.0)
	require.NoError(t, err)

	r.Execute(0)
	out := r.Execute(complex(1, 0))
	require.Len(t, out, 2)
	// midpoints between 0 and 1
	assert.InDelta(t, 0.0, real(out[0]), 1e-6)
	assert.InDelta(t, 0.5, real(out[1]), 1e-6)
}
