package dsp

import "fmt"

// Resampler converts a sample stream by an arbitrary rate (output samples
// per input sample) using linear interpolation. A call may yield zero
// outputs when decimating; callers skip downstream processing for those
// inputs. The output stream lags the input by one sample.
type Resampler struct {
	rate float64
	mu   float64
	prev complex64
	out  []complex64
}

// NewResampler creates a resampler with the given rate. rate must be
// positive; 1.0 passes samples through unchanged.
func NewResampler(rate float64) (*Resampler, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("resampler: rate must be positive, got %g", rate)
	}
	return &Resampler{rate: rate, out: make([]complex64, 0, int(rate)+1)}, nil
}

// Rate returns the configured resampling rate.
func (r *Resampler) Rate() float64 { return r.rate }

// Execute consumes one input sample and returns the resampled outputs. The
// returned slice is reused across calls.
func (r *Resampler) Execute(x complex64) []complex64 {
	r.out = r.out[:0]
	step := 1.0 / r.rate
	for r.mu < 1.0 {
		frac := complex64(complex(r.mu, 0))
		r.out = append(r.out, r.prev+frac*(x-r.prev))
		r.mu += step
	}
	r.mu -= 1.0
	r.prev = x
	return r.out
}

// Reset clears the interpolation state.
func (r *Resampler) Reset() {
	r.mu = 0
	r.prev = 0
}
