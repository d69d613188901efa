// Package correlation provides the stream primitives used for frame
// detection: a fixed delay line, a moving average, and an unnormalized
// autocorrelator with plateau detection.
package correlation

// DelayLine is a fixed-length circular buffer delaying a sample stream by
// its length.
type DelayLine[T any] struct {
	buf []T
	idx int
}

// NewDelayLine creates a delay line of the given length. delay must be > 0.
func NewDelayLine[T any](delay int) *DelayLine[T] {
	if delay <= 0 {
		panic("correlation: delay must be positive")
	}
	return &DelayLine[T]{buf: make([]T, delay)}
}

// Push stores sample and returns the sample pushed delay calls earlier.
// While the line is still filling it returns the zero value.
func (d *DelayLine[T]) Push(sample T) T {
	out := d.buf[d.idx]
	d.buf[d.idx] = sample
	d.idx = (d.idx + 1) % len(d.buf)
	return out
}

// Len returns the configured delay.
func (d *DelayLine[T]) Len() int {
	return len(d.buf)
}

// Reset clears the buffered samples.
func (d *DelayLine[T]) Reset() {
	var zero T
	for i := range d.buf {
		d.buf[i] = zero
	}
	d.idx = 0
}
