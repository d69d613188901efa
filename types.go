package main

import "time"

// SampleBlock is one burst of IQ samples from a receive channel, tagged
// with the hardware timestamp of its first sample.
type SampleBlock struct {
	Channel   int
	Timestamp time.Time
	Samples   []complex64
}

// CfrEvent carries one channel-frequency-response estimate. Emitted by the
// sync worker when a channel's engine recognizes a frame header.
type CfrEvent struct {
	Channel   int
	Timestamp time.Time
	Cfr       []complex64
}

// SymbolEvent carries the equalized data symbols demodulated from one
// frame on one channel.
type SymbolEvent struct {
	Channel   int
	Timestamp time.Time
	Symbols   []complex64
}

// Group is one complete set of CFRs, exactly one per channel, all captured
// within the aggregation window. Cfrs is indexed by channel id.
type Group struct {
	Timestamp time.Time
	Cfrs      [][]complex64
}

// PhaseCorrection is an externally injected phase trim for one channel's
// oscillator, applied by the sync worker before its next pass.
type PhaseCorrection struct {
	Channel int
	Delta   float64 // radians
}

// NcoSnapshot is a read-only copy of one channel's oscillator state,
// published by the sync worker for the status API.
type NcoSnapshot struct {
	Channel   int     `json:"channel"`
	Frequency float64 `json:"frequency"`
	Phase     float64 `json:"phase"`
}
