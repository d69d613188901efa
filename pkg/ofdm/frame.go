// Package ofdm implements a self-contained OFDM frame generator and frame
// synchronizer. A frame consists of two short training symbols (S0a, S0b,
// periodic with half the FFT size so an autocorrelator can flag them), one
// long training symbol (S1, from which the channel frequency response is
// estimated) and the payload symbols. Every symbol carries a cyclic prefix.
package ofdm

import (
	"fmt"
	"math"
)

// SubcarrierType describes the role of one subcarrier bin.
type SubcarrierType byte

const (
	SubcarrierNull SubcarrierType = iota
	SubcarrierPilot
	SubcarrierData
)

// Params holds the frame parameters shared by generator and synchronizer.
type Params struct {
	Subcarriers  int // FFT size, power of two >= 16
	CyclicPrefix int
	TaperLen     int              // raised-cosine ramp applied to each prefix
	Alloc        []SubcarrierType // per-bin allocation; nil selects DefaultAlloc
}

// Validate checks the parameter combination.
func (p Params) Validate() error {
	m := p.Subcarriers
	if m < 16 || m&(m-1) != 0 {
		return fmt.Errorf("ofdm: subcarrier count must be a power of two >= 16, got %d", m)
	}
	if p.CyclicPrefix < 0 || p.CyclicPrefix > m {
		return fmt.Errorf("ofdm: cyclic prefix %d out of range [0, %d]", p.CyclicPrefix, m)
	}
	if p.TaperLen < 0 || p.TaperLen > p.CyclicPrefix {
		return fmt.Errorf("ofdm: taper length %d exceeds cyclic prefix %d", p.TaperLen, p.CyclicPrefix)
	}
	if p.Alloc != nil && len(p.Alloc) != m {
		return fmt.Errorf("ofdm: allocation length %d does not match %d subcarriers", len(p.Alloc), m)
	}
	return nil
}

// FrameLen returns the number of time-domain samples per OFDM symbol
// including the cyclic prefix.
func (p Params) FrameLen() int {
	return p.Subcarriers + p.CyclicPrefix
}

func (p Params) allocation() []SubcarrierType {
	if p.Alloc != nil {
		return p.Alloc
	}
	return DefaultAlloc(p.Subcarriers)
}

// DefaultAlloc builds the default subcarrier allocation for m bins: DC and
// the outer guard band are null, every eighth used bin is a pilot, the rest
// carry data. Bins are in FFT order (negative frequencies in the upper
// half).
func DefaultAlloc(m int) []SubcarrierType {
	alloc := make([]SubcarrierType, m)
	guard := m / 10
	const pilotSpacing = 8
	for k := range alloc {
		f := k
		if f >= m/2 {
			f -= m
		}
		switch {
		case f == 0:
			alloc[k] = SubcarrierNull
		case f < -(m/2-guard) || f >= m/2-guard:
			alloc[k] = SubcarrierNull
		case (k % pilotSpacing) == pilotSpacing/2:
			alloc[k] = SubcarrierPilot
		default:
			alloc[k] = SubcarrierData
		}
	}
	return alloc
}

// CountSubcarriers returns the number of null, pilot and data bins.
func CountSubcarriers(alloc []SubcarrierType) (nulls, pilots, data int) {
	for _, t := range alloc {
		switch t {
		case SubcarrierNull:
			nulls++
		case SubcarrierPilot:
			pilots++
		default:
			data++
		}
	}
	return
}

// lfsr is a 16-bit Fibonacci LFSR used to derive deterministic training
// sequences shared by generator and synchronizer.
type lfsr struct {
	state uint16
}

func newLfsr(seed uint16) *lfsr {
	if seed == 0 {
		seed = 0xACE1
	}
	return &lfsr{state: seed}
}

// next returns one pseudo-random bit. Taps: x^16 + x^14 + x^13 + x^11 + 1.
func (l *lfsr) next() bool {
	bit := (l.state ^ (l.state >> 2) ^ (l.state >> 3) ^ (l.state >> 5)) & 1
	l.state = l.state>>1 | bit<<15
	return bit == 1
}

func (l *lfsr) bpsk() complex64 {
	if l.next() {
		return 1
	}
	return -1
}

// s0Sequence returns the S0 training symbol in the frequency domain: BPSK
// values on the even non-null bins scaled by sqrt(2), zero elsewhere. Only
// even bins are occupied, so the time-domain symbol is periodic with period
// Subcarriers/2.
func s0Sequence(alloc []SubcarrierType) []complex64 {
	seq := make([]complex64, len(alloc))
	gen := newLfsr(0x1D4B)
	scale := complex64(complex(math.Sqrt2, 0))
	for k, t := range alloc {
		if t == SubcarrierNull || k%2 != 0 {
			continue
		}
		seq[k] = gen.bpsk() * scale
	}
	return seq
}

// s1Sequence returns the S1 long training symbol in the frequency domain:
// BPSK values on every non-null bin.
func s1Sequence(alloc []SubcarrierType) []complex64 {
	seq := make([]complex64, len(alloc))
	gen := newLfsr(0x632D)
	for k, t := range alloc {
		if t == SubcarrierNull {
			continue
		}
		seq[k] = gen.bpsk()
	}
	return seq
}

// pilotSequence returns the fixed pilot values inserted into payload
// symbols.
func pilotSequence(alloc []SubcarrierType) []complex64 {
	seq := make([]complex64, len(alloc))
	gen := newLfsr(0x70C7)
	for k, t := range alloc {
		if t == SubcarrierPilot {
			seq[k] = gen.bpsk()
		}
	}
	return seq
}
