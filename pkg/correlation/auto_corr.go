package correlation

import "math/cmplx"

// AutoCorr computes the unnormalized autocorrelation of a complex sample
// stream at a fixed lag: the sum over the last `delay` lag products
// x[n]*conj(x[n-delay]). A sustained training pattern with period `delay`
// drives |Rxx| onto a plateau, which is the frame-arrival indicator.
type AutoCorr struct {
	lag        *DelayLine[complex64]
	products   *DelayLine[complex64]
	rxx        complex64
	minPlateau float64
}

// NewAutoCorr creates an autocorrelator with the given plateau threshold and
// lag. The summation window equals the lag.
func NewAutoCorr(minPlateau float64, delay int) *AutoCorr {
	return &AutoCorr{
		lag:        NewDelayLine[complex64](delay),
		products:   NewDelayLine[complex64](delay),
		minPlateau: minPlateau,
	}
}

// Push feeds one sample and updates the autocorrelation value.
func (a *AutoCorr) Push(sample complex64) *AutoCorr {
	lagged := a.lag.Push(sample)
	p := sample * complex(real(lagged), -imag(lagged))
	a.rxx += p - a.products.Push(p)
	return a
}

// Rxx returns the current unnormalized complex autocorrelation value.
func (a *AutoCorr) Rxx() complex64 {
	return a.rxx
}

// PlateauDetected reports whether |Rxx| exceeds the plateau threshold.
func (a *AutoCorr) PlateauDetected() bool {
	return cmplx.Abs(complex128(a.rxx)) > a.minPlateau
}

// SetMinPlateau changes the plateau threshold. The accumulator is reset so
// the new threshold is never judged against stale history.
func (a *AutoCorr) SetMinPlateau(minPlateau float64) *AutoCorr {
	a.Reset()
	a.minPlateau = minPlateau
	return a
}

// Reset clears the delay line and the accumulated correlation.
func (a *AutoCorr) Reset() *AutoCorr {
	a.lag.Reset()
	a.products.Reset()
	a.rxx = 0
	return a
}
