package ofdm

import (
	"math"
	"math/cmplx"

	"github.com/F-L-X-S/WLAN-CSI/pkg/correlation"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Callback receives the equalized subcarrier values of one demodulated
// payload symbol together with the subcarrier allocation. The return code
// steers the synchronizer: FrameContinue keeps demodulating payload symbols
// of the current frame, FrameComplete rearms for the next frame.
type Callback func(X []complex64, alloc []SubcarrierType) int

// Callback return codes.
const (
	FrameContinue = 0
	FrameComplete = 1
)

type syncState uint8

const (
	stateSeekPlateau syncState = iota
	stateSeekS1
	stateDemod
)

// plateau detection and timing thresholds
const (
	plateauRatio  = 0.6  // |Rxx| against short-training energy
	s1MatchRatio  = 0.85 // normalized cross-correlation against S1
	minEnergy     = 1e-9
	searchSymbols = 4 // S1 search budget in symbol lengths
)

// Sync recovers OFDM frames from a sample stream: it arms on the short
// training plateau, aligns symbol timing on the long training symbol,
// estimates the channel frequency response from it and then demodulates
// payload symbols, handing the equalized subcarriers to the callback.
type Sync struct {
	p     Params
	alloc []SubcarrierType
	cb    Callback

	fft    *fourier.CmplxFFT
	s1Time []complex64
	s1Freq []complex64
	s1Norm float64

	state   syncState
	plateau *correlation.AutoCorr
	energy  *correlation.MovingAverage[float64]

	window      []complex64 // ring of the last Subcarriers samples
	windowIdx   int
	windowFill  int
	searchCount int

	cfr    []complex64
	symBuf []complex64
	skip   int

	freq []complex128
	time []complex128
}

// NewSync creates a frame synchronizer invoking cb for every demodulated
// payload symbol.
func NewSync(p Params, cb Callback) (*Sync, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	alloc := p.allocation()
	gen, err := NewFrameGen(p)
	if err != nil {
		return nil, err
	}

	s := &Sync{
		p:       p,
		alloc:   alloc,
		cb:      cb,
		fft:     fourier.NewCmplxFFT(p.Subcarriers),
		s1Time:  gen.S1Time(),
		s1Freq:  s1Sequence(alloc),
		plateau: correlation.NewAutoCorr(0, p.Subcarriers/2),
		energy:  correlation.NewMovingAverage[float64](p.Subcarriers / 2),
		window:  make([]complex64, p.Subcarriers),
		cfr:     make([]complex64, p.Subcarriers),
		symBuf:  make([]complex64, 0, p.Subcarriers),
		freq:    make([]complex128, p.Subcarriers),
		time:    make([]complex128, p.Subcarriers),
	}
	for _, v := range s.s1Time {
		s.s1Norm += float64(real(v)*real(v) + imag(v)*imag(v))
	}
	s.s1Norm = math.Sqrt(s.s1Norm)
	return s, nil
}

// Subcarriers returns the FFT size, which is also the CFR length.
func (s *Sync) Subcarriers() int { return s.p.Subcarriers }

// Execute feeds samples into the synchronizer. The callback may be invoked
// synchronously zero or more times.
func (s *Sync) Execute(samples []complex64) {
	for _, x := range samples {
		s.push(x)
	}
}

func (s *Sync) push(x complex64) {
	s.window[s.windowIdx] = x
	s.windowIdx = (s.windowIdx + 1) % len(s.window)
	if s.windowFill < len(s.window) {
		s.windowFill++
	}

	switch s.state {
	case stateSeekPlateau:
		s.plateau.Push(x)
		s.energy.Push(float64(real(x)*real(x) + imag(x)*imag(x)))
		e := s.energy.Sum()
		if e > minEnergy && cmplx.Abs(complex128(s.plateau.Rxx())) > plateauRatio*e {
			s.state = stateSeekS1
			s.searchCount = 0
		}

	case stateSeekS1:
		s.searchCount++
		if s.searchCount > searchSymbols*s.p.FrameLen() {
			s.rearm()
			return
		}
		if s.windowFill < len(s.window) {
			return
		}
		if s.matchS1() {
			s.estimateCfr()
			s.state = stateDemod
			s.skip = s.p.CyclicPrefix
			s.symBuf = s.symBuf[:0]
		}

	case stateDemod:
		if s.skip > 0 {
			s.skip--
			return
		}
		s.symBuf = append(s.symBuf, x)
		if len(s.symBuf) == s.p.Subcarriers {
			rc := s.demodSymbol()
			if rc == FrameComplete {
				s.rearm()
			} else {
				s.skip = s.p.CyclicPrefix
				s.symBuf = s.symBuf[:0]
			}
		}
	}
}

// matchS1 cross-correlates the current window against the known long
// training symbol.
func (s *Sync) matchS1() bool {
	var xc complex128
	var norm float64
	for i := 0; i < len(s.window); i++ {
		w := s.window[(s.windowIdx+i)%len(s.window)]
		ref := s.s1Time[i]
		xc += complex128(w * complex(real(ref), -imag(ref)))
		norm += float64(real(w)*real(w) + imag(w)*imag(w))
	}
	norm = math.Sqrt(norm)
	if norm*s.s1Norm < minEnergy {
		return false
	}
	return cmplx.Abs(xc)/(norm*s.s1Norm) > s1MatchRatio
}

// estimateCfr divides the received long training symbol by the reference in
// the frequency domain.
func (s *Sync) estimateCfr() {
	for i := 0; i < len(s.window); i++ {
		s.time[i] = complex128(s.window[(s.windowIdx+i)%len(s.window)])
	}
	s.fft.Coefficients(s.freq, s.time)
	scale := complex(1/math.Sqrt(float64(s.p.Subcarriers)), 0)
	for k := range s.cfr {
		if s.alloc[k] == SubcarrierNull {
			s.cfr[k] = 0
			continue
		}
		x := complex64(s.freq[k] * scale)
		s.cfr[k] = x / s.s1Freq[k]
	}
}

// demodSymbol equalizes the buffered symbol body and invokes the callback.
func (s *Sync) demodSymbol() int {
	for i, v := range s.symBuf {
		s.time[i] = complex128(v)
	}
	s.fft.Coefficients(s.freq, s.time)
	scale := complex(1/math.Sqrt(float64(s.p.Subcarriers)), 0)

	X := make([]complex64, s.p.Subcarriers)
	for k := range X {
		if s.alloc[k] == SubcarrierNull {
			continue
		}
		h := s.cfr[k]
		if real(h)*real(h)+imag(h)*imag(h) < minEnergy {
			continue
		}
		X[k] = complex64(s.freq[k]*scale) / h
	}
	return s.cb(X, s.alloc)
}

// rearm returns to plateau seeking for the next frame, keeping the last CFR
// estimate readable.
func (s *Sync) rearm() {
	s.state = stateSeekPlateau
	s.plateau.Reset()
	s.energy.Reset()
	s.windowFill = 0
	s.searchCount = 0
	s.symBuf = s.symBuf[:0]
	s.skip = 0
}

// Reset clears all synchronizer state including the CFR estimate.
func (s *Sync) Reset() {
	s.rearm()
	for k := range s.cfr {
		s.cfr[k] = 0
	}
}

// Cfr returns a copy of the most recent channel-frequency-response
// estimate, one complex gain per subcarrier.
func (s *Sync) Cfr() []complex64 {
	out := make([]complex64, len(s.cfr))
	copy(out, s.cfr)
	return out
}
