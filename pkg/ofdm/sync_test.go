package ofdm

import (
	"math"
	"math/cmplx"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testParams = Params{Subcarriers: 64, CyclicPrefix: 16, TaperLen: 4}

// rotate applies a common phase offset to every sample, imitating a
// channel with a pure phase shift.
func rotate(samples []complex64, phase float64) []complex64 {
	s, c := math.Sincos(phase)
	rot := complex64(complex(c, s))
	out := make([]complex64, len(samples))
	for i, x := range samples {
		out[i] = x * rot
	}
	return out
}

func TestSyncRecoversPayload(t *testing.T) {
	gen, err := NewFrameGen(testParams)
	require.NoError(t, err)

	payload := [][]complex64{
		bpskPayload(gen.Alloc(), 1),
		bpskPayload(gen.Alloc(), 2),
		bpskPayload(gen.Alloc(), 3),
	}
	frame, err := gen.GenerateFrame(payload)
	require.NoError(t, err)

	const channelPhase = 0.7

	var got [][]complex64
	sync, err := NewSync(testParams, func(X []complex64, alloc []SubcarrierType) int {
		sym := make([]complex64, len(X))
		copy(sym, X)
		got = append(got, sym)
		if len(got) == len(payload) {
			return FrameComplete
		}
		return FrameContinue
	})
	require.NoError(t, err)

	sync.Execute(make([]complex64, 200))
	sync.Execute(rotate(frame, channelPhase))

	require.Len(t, got, len(payload), "one callback per payload symbol")
	for i, want := range payload {
		for k, typ := range gen.Alloc() {
			if typ != SubcarrierData {
				continue
			}
			assert.InDelta(t, real(want[k]), real(got[i][k]), 0.02, "symbol %d bin %d", i, k)
			assert.InDelta(t, imag(want[k]), imag(got[i][k]), 0.02, "symbol %d bin %d", i, k)
		}
	}

	cfr := sync.Cfr()
	require.Len(t, cfr, testParams.Subcarriers)
	for k, typ := range gen.Alloc() {
		if typ == SubcarrierNull {
			assert.Equal(t, complex64(0), cfr[k], "null bin %d", k)
			continue
		}
		assert.InDelta(t, 1.0, cmplx.Abs(complex128(cfr[k])), 0.02, "gain on bin %d", k)
		assert.InDelta(t, channelPhase, cmplx.Phase(complex128(cfr[k])), 0.02, "phase on bin %d", k)
	}
}

func TestSyncRearmsBetweenFrames(t *testing.T) {
	gen, err := NewFrameGen(testParams)
	require.NoError(t, err)

	payload := [][]complex64{bpskPayload(gen.Alloc(), 7)}
	frame, err := gen.GenerateFrame(payload)
	require.NoError(t, err)

	count := 0
	sync, err := NewSync(testParams, func(X []complex64, alloc []SubcarrierType) int {
		count++
		return FrameComplete
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		sync.Execute(frame)
		sync.Execute(make([]complex64, 150))
	}
	assert.Equal(t, 3, count, "each frame must be demodulated after rearming")
}

func TestSyncIgnoresNoise(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	noise := make([]complex64, 20000)
	for i := range noise {
		noise[i] = complex64(complex(rng.NormFloat64(), rng.NormFloat64()))
	}

	sync, err := NewSync(testParams, func(X []complex64, alloc []SubcarrierType) int {
		t.Fatal("callback must not fire on noise")
		return FrameComplete
	})
	require.NoError(t, err)
	sync.Execute(noise)
}

func TestSyncResetClearsCfr(t *testing.T) {
	gen, err := NewFrameGen(testParams)
	require.NoError(t, err)
	frame, err := gen.GenerateFrame([][]complex64{bpskPayload(gen.Alloc(), 5)})
	require.NoError(t, err)

	sync, err := NewSync(testParams, func(X []complex64, alloc []SubcarrierType) int {
		return FrameComplete
	})
	require.NoError(t, err)

	sync.Execute(frame)
	nonZero := false
	for _, v := range sync.Cfr() {
		if v != 0 {
			nonZero = true
		}
	}
	require.True(t, nonZero, "frame must leave a CFR estimate behind")

	sync.Reset()
	for k, v := range sync.Cfr() {
		assert.Equal(t, complex64(0), v, "bin %d after reset", k)
	}
}
