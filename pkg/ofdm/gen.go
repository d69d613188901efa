package ofdm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// FrameGen generates the time-domain samples of an OFDM frame symbol by
// symbol: S0a, S0b, S1, then payload symbols. Each Write produces
// FrameLen() samples (cyclic prefix plus symbol body).
type FrameGen struct {
	p     Params
	alloc []SubcarrierType

	fft    *fourier.CmplxFFT
	s0Time []complex64
	s1Time []complex64
	pilots []complex64
	taper  []float32

	freq []complex128
	time []complex128
}

// NewFrameGen creates a generator for the given frame parameters.
func NewFrameGen(p Params) (*FrameGen, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	g := &FrameGen{
		p:     p,
		alloc: p.allocation(),
		fft:   fourier.NewCmplxFFT(p.Subcarriers),
		freq:  make([]complex128, p.Subcarriers),
		time:  make([]complex128, p.Subcarriers),
	}
	g.s0Time = g.modulate(s0Sequence(g.alloc))
	g.s1Time = g.modulate(s1Sequence(g.alloc))
	g.pilots = pilotSequence(g.alloc)

	g.taper = make([]float32, p.TaperLen)
	for i := range g.taper {
		// raised-cosine ramp over the start of the prefix
		g.taper[i] = float32(0.5 - 0.5*math.Cos(math.Pi*float64(i+1)/float64(p.TaperLen+1)))
	}
	return g, nil
}

// Params returns the frame parameters.
func (g *FrameGen) Params() Params { return g.p }

// Alloc returns the subcarrier allocation in use.
func (g *FrameGen) Alloc() []SubcarrierType { return g.alloc }

// FrameLen returns the samples per symbol including the cyclic prefix.
func (g *FrameGen) FrameLen() int { return g.p.FrameLen() }

// S1Time returns the time-domain body of the long training symbol.
func (g *FrameGen) S1Time() []complex64 { return g.s1Time }

// modulate converts one frequency-domain symbol into its unitary-scaled
// time-domain body of Subcarriers samples.
func (g *FrameGen) modulate(X []complex64) []complex64 {
	for k := range g.freq {
		g.freq[k] = complex128(X[k])
	}
	g.fft.Sequence(g.time, g.freq)
	scale := 1 / math.Sqrt(float64(g.p.Subcarriers))
	out := make([]complex64, g.p.Subcarriers)
	for n := range out {
		out[n] = complex64(g.time[n] * complex(scale, 0))
	}
	return out
}

// writeWithPrefix assembles [cyclic prefix | body] into out and applies the
// taper ramp to the start of the prefix.
func (g *FrameGen) writeWithPrefix(body, out []complex64) {
	cp := g.p.CyclicPrefix
	copy(out[:cp], body[len(body)-cp:])
	copy(out[cp:], body)
	for i, w := range g.taper {
		out[i] *= complex(w, 0)
	}
}

// WriteS0a writes the first short training symbol. out must hold FrameLen()
// samples.
func (g *FrameGen) WriteS0a(out []complex64) {
	g.writeWithPrefix(g.s0Time, out)
}

// WriteS0b writes the second short training symbol.
func (g *FrameGen) WriteS0b(out []complex64) {
	g.writeWithPrefix(g.s0Time, out)
}

// WriteS1 writes the long training symbol.
func (g *FrameGen) WriteS1(out []complex64) {
	g.writeWithPrefix(g.s1Time, out)
}

// WriteSymbol modulates one payload symbol. X supplies the data bins in FFT
// order; pilot and null bins in X are ignored and replaced by the fixed
// pilot sequence and zeros. out must hold FrameLen() samples.
func (g *FrameGen) WriteSymbol(X, out []complex64) error {
	if len(X) != g.p.Subcarriers {
		return fmt.Errorf("ofdm: symbol length %d does not match %d subcarriers", len(X), g.p.Subcarriers)
	}
	sym := make([]complex64, g.p.Subcarriers)
	for k, t := range g.alloc {
		switch t {
		case SubcarrierData:
			sym[k] = X[k]
		case SubcarrierPilot:
			sym[k] = g.pilots[k]
		}
	}
	g.writeWithPrefix(g.modulate(sym), out)
	return nil
}

// GenerateFrame builds a complete frame with the given payload symbols and
// returns its time-domain samples.
func (g *FrameGen) GenerateFrame(payload [][]complex64) ([]complex64, error) {
	frameLen := g.FrameLen()
	out := make([]complex64, (3+len(payload))*frameLen)
	n := 0
	g.WriteS0a(out[n : n+frameLen])
	n += frameLen
	g.WriteS0b(out[n : n+frameLen])
	n += frameLen
	g.WriteS1(out[n : n+frameLen])
	n += frameLen
	for _, X := range payload {
		if err := g.WriteSymbol(X, out[n:n+frameLen]); err != nil {
			return nil, err
		}
		n += frameLen
	}
	return out, nil
}
