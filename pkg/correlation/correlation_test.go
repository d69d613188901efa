package correlation

import (
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDelayLine(t *testing.T) {
	const delay = 3
	line := NewDelayLine[int32](delay)

	// pack synthetic IQ samples so ordering mistakes show up in both halves
	iComponent, qComponent := int32(7), int32(13)
	for i := int32(0); i < 100; i++ {
		sample := (iComponent * i << 16) | ((qComponent + i) & 0xFFFF)
		got := line.Push(sample)

		var want int32
		if i >= delay {
			j := i - delay
			want = (iComponent * j << 16) | ((qComponent + j) & 0xFFFF)
		}
		assert.Equal(t, want, got, "delayed sample at index %d", i)
	}
}

func TestDelayLineReset(t *testing.T) {
	line := NewDelayLine[complex64](2)
	line.Push(1)
	line.Push(2)
	line.Reset()
	assert.Equal(t, complex64(0), line.Push(3), "reset line must return zero while refilling")
}

var avgSamples = []int32{
	-1024, 2031, 578, -4300, 1234,
	6000, -3050, 0, 1450, -1250,
	3000, 4200, -6000, 1700, 800,
	-400, 1100, -1100, 2900, -2900,
}

func TestMovingAverageInt(t *testing.T) {
	const window = 5
	avg := NewMovingAverage[int32](window)

	var sum int32
	for i, s := range avgSamples {
		sum += s
		if i >= window {
			sum -= avgSamples[i-window]
		}
		avg.Push(s)
		assert.Equal(t, sum/window, avg.Avg(), "at sample %d", i)
	}
}

func TestMovingAverageFloat(t *testing.T) {
	const window = 5
	avg := NewMovingAverage[float32](window)

	var sum float32
	for i, s := range avgSamples {
		sum += float32(s)
		if i >= window {
			sum -= float32(avgSamples[i-window])
		}
		avg.Push(float32(s))
		assert.InDelta(t, sum/window, avg.Avg(), 1e-3, "at sample %d", i)
	}
}

func TestAutoCorrTriangular(t *testing.T) {
	// real-valued triangular signal, lag 3
	x := []complex64{1, 2, 3, 4, 5, 5, 4, 3, 2, 1}
	wantRxx := []float64{0, 0, 0, 4, 14, 29, 41, 46, 41, 29}

	ac := NewAutoCorr(0.9, 3)
	for i, s := range x {
		ac.Push(s)
		assert.InDelta(t, wantRxx[i], cmplx.Abs(complex128(ac.Rxx())), 1e-4, "at sample %d", i)
	}
}

func TestAutoCorrZeroInput(t *testing.T) {
	ac := NewAutoCorr(0.1, 4)
	for i := 0; i < 64; i++ {
		ac.Push(0)
		assert.Equal(t, complex64(0), ac.Rxx())
		assert.False(t, ac.PlateauDetected(), "zero input must never report a plateau")
	}
}

func TestAutoCorrPlateauOnRepeatingPattern(t *testing.T) {
	// a pattern repeating with period 4 drives |Rxx| up at lag 4
	pattern := []complex64{1, complex(0, 1), -1, complex(0, -1)}
	ac := NewAutoCorr(3.5, 4)
	for i := 0; i < 4*len(pattern); i++ {
		ac.Push(pattern[i%len(pattern)])
	}
	assert.True(t, ac.PlateauDetected())
}

func TestAutoCorrSetMinPlateauResets(t *testing.T) {
	ac := NewAutoCorr(0.5, 2)
	ac.Push(1).Push(1).Push(1).Push(1)
	assert.NotEqual(t, complex64(0), ac.Rxx())

	// a threshold change must not be judged against stale history
	ac.SetMinPlateau(0.1)
	assert.Equal(t, complex64(0), ac.Rxx())
	assert.False(t, ac.PlateauDetected())
}
