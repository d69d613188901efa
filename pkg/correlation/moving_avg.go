package correlation

// Real is the set of sample types the moving average operates on.
type Real interface {
	~int32 | ~int64 | ~float32 | ~float64
}

// MovingAverage keeps a running average over the last window samples.
type MovingAverage[T Real] struct {
	line   *DelayLine[T]
	sum    T
	window int
}

// NewMovingAverage creates a moving average over the given window size.
func NewMovingAverage[T Real](window int) *MovingAverage[T] {
	return &MovingAverage[T]{
		line:   NewDelayLine[T](window),
		window: window,
	}
}

// Push adds a sample to the window, dropping the oldest one.
func (m *MovingAverage[T]) Push(sample T) {
	m.sum += sample - m.line.Push(sample)
}

// Avg returns the current average over the window. Samples not yet pushed
// count as zero, matching a window that is still filling.
func (m *MovingAverage[T]) Avg() T {
	return m.sum / T(m.window)
}

// Sum returns the current sum over the window.
func (m *MovingAverage[T]) Sum() T {
	return m.sum
}

// Reset clears the window and the running sum.
func (m *MovingAverage[T]) Reset() {
	m.line.Reset()
	m.sum = 0
}
