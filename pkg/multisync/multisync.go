// Package multisync drives one frame-synchronizer engine per receive
// channel behind a common front: every channel owns an oscillator that
// pre-rotates its samples before they reach the engine, and the oscillators
// can be re-aligned across channels so cross-channel phase comparisons stay
// meaningful over a capture session.
package multisync

import (
	"fmt"

	"github.com/F-L-X-S/WLAN-CSI/pkg/dsp"
)

// Engine is the per-channel frame synchronizer. Execute may synchronously
// invoke whatever detection callback the engine was built with.
type Engine interface {
	Execute(samples []complex64)
	Reset()
	Cfr() []complex64
}

type channelState struct {
	engine Engine
	nco    *dsp.NCO
	mix    []complex64
}

// MultiSync owns the per-channel engines and oscillators. It is not safe
// for concurrent use; all calls must come from a single goroutine.
type MultiSync struct {
	channels []channelState
}

// New builds n channels, calling build once per channel index to construct
// that channel's engine.
func New(n int, build func(channel int) (Engine, error)) (*MultiSync, error) {
	if n < 1 {
		return nil, fmt.Errorf("multisync: channel count must be positive, got %d", n)
	}
	m := &MultiSync{channels: make([]channelState, n)}
	for i := range m.channels {
		engine, err := build(i)
		if err != nil {
			return nil, fmt.Errorf("multisync: channel %d: %w", i, err)
		}
		m.channels[i] = channelState{engine: engine, nco: dsp.NewNCO()}
	}
	return m, nil
}

// Channels returns the number of channels.
func (m *MultiSync) Channels() int { return len(m.channels) }

func (m *MultiSync) channel(ch int) (*channelState, error) {
	if ch < 0 || ch >= len(m.channels) {
		return nil, fmt.Errorf("multisync: channel %d out of range [0, %d)", ch, len(m.channels))
	}
	return &m.channels[ch], nil
}

// Execute rotates samples through the channel's oscillator and feeds the
// result into the channel's engine. The input slice is left untouched.
func (m *MultiSync) Execute(ch int, samples []complex64) error {
	c, err := m.channel(ch)
	if err != nil {
		return err
	}
	if cap(c.mix) < len(samples) {
		c.mix = make([]complex64, len(samples))
	}
	c.mix = c.mix[:len(samples)]
	copy(c.mix, samples)
	c.nco.MixBlockUp(c.mix)
	c.engine.Execute(c.mix)
	return nil
}

// Cfr returns the channel's most recent channel-frequency-response
// estimate.
func (m *MultiSync) Cfr(ch int) ([]complex64, error) {
	c, err := m.channel(ch)
	if err != nil {
		return nil, err
	}
	return c.engine.Cfr(), nil
}

// Reset clears every channel's engine state. Oscillators are untouched.
func (m *MultiSync) Reset() {
	for i := range m.channels {
		m.channels[i].engine.Reset()
	}
}

// ResetChannel clears one channel's engine state.
func (m *MultiSync) ResetChannel(ch int) error {
	c, err := m.channel(ch)
	if err != nil {
		return err
	}
	c.engine.Reset()
	return nil
}

// AdjustNcoPhase adds delta radians to the channel's oscillator phase.
func (m *MultiSync) AdjustNcoPhase(ch int, delta float64) error {
	c, err := m.channel(ch)
	if err != nil {
		return err
	}
	c.nco.AdjustPhase(delta)
	return nil
}

// NcoPhase returns the channel's oscillator phase in [0, 2π).
func (m *MultiSync) NcoPhase(ch int) (float64, error) {
	c, err := m.channel(ch)
	if err != nil {
		return 0, err
	}
	return c.nco.Phase(), nil
}

// SetNcoPhase sets the channel's oscillator phase.
func (m *MultiSync) SetNcoPhase(ch int, phase float64) error {
	c, err := m.channel(ch)
	if err != nil {
		return err
	}
	c.nco.SetPhase(phase)
	return nil
}

// NcoFrequency returns the channel's oscillator frequency in radians per
// sample.
func (m *MultiSync) NcoFrequency(ch int) (float64, error) {
	c, err := m.channel(ch)
	if err != nil {
		return 0, err
	}
	return c.nco.Frequency(), nil
}

// SetNcoFrequency sets the channel's oscillator frequency.
func (m *MultiSync) SetNcoFrequency(ch int, freq float64) error {
	c, err := m.channel(ch)
	if err != nil {
		return err
	}
	c.nco.SetFrequency(freq)
	return nil
}

// SynchronizeNcos sets every oscillator to the arithmetic mean of all
// current frequencies and the arithmetic mean of all current phases.
func (m *MultiSync) SynchronizeNcos() {
	var freq, phase float64
	for i := range m.channels {
		freq += m.channels[i].nco.Frequency()
		phase += m.channels[i].nco.Phase()
	}
	n := float64(len(m.channels))
	freq /= n
	phase /= n
	for i := range m.channels {
		m.channels[i].nco.SetFrequency(freq)
		m.channels[i].nco.SetPhase(phase)
	}
}

// SynchronizeNcosMaster copies the master channel's oscillator frequency
// and phase onto every other channel.
func (m *MultiSync) SynchronizeNcosMaster(master int) error {
	c, err := m.channel(master)
	if err != nil {
		return err
	}
	freq, phase := c.nco.Frequency(), c.nco.Phase()
	for i := range m.channels {
		if i == master {
			continue
		}
		m.channels[i].nco.SetFrequency(freq)
		m.channels[i].nco.SetPhase(phase)
	}
	return nil
}
