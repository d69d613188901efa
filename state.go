package main

import (
	"sync"
	"time"
)

// PipelineState holds the runtime counters and oscillator readbacks the
// status API serves. Workers update it; handlers only ever read a copy.
type PipelineState struct {
	mu sync.RWMutex

	Running   bool
	StartedAt time.Time

	BlocksProcessed  uint64
	SamplesProcessed uint64
	FramesDetected   uint64
	GroupsExported   uint64
	SymbolsExported  uint64
	EventsEvicted    uint64

	Ncos []NcoSnapshot
}

var pipelineState = &PipelineState{}

func (s *PipelineState) setRunning(running bool) {
	s.mu.Lock()
	s.Running = running
	if running {
		s.StartedAt = time.Now()
	}
	s.mu.Unlock()
}

func (s *PipelineState) addBlock(samples int) {
	s.mu.Lock()
	s.BlocksProcessed++
	s.SamplesProcessed += uint64(samples)
	s.mu.Unlock()
}

func (s *PipelineState) addDetection() {
	s.mu.Lock()
	s.FramesDetected++
	s.mu.Unlock()
}

func (s *PipelineState) addGroup() {
	s.mu.Lock()
	s.GroupsExported++
	s.mu.Unlock()
}

func (s *PipelineState) addSymbols(n int) {
	s.mu.Lock()
	s.SymbolsExported += uint64(n)
	s.mu.Unlock()
}

func (s *PipelineState) addEvicted(n int) {
	s.mu.Lock()
	s.EventsEvicted += uint64(n)
	s.mu.Unlock()
}

func (s *PipelineState) setNcos(ncos []NcoSnapshot) {
	s.mu.Lock()
	s.Ncos = ncos
	s.mu.Unlock()
}

// StatusSnapshot is the JSON shape served by /api/status.
type StatusSnapshot struct {
	Running          bool          `json:"running"`
	Uptime           string        `json:"uptime"`
	BlocksProcessed  uint64        `json:"blocks_processed"`
	SamplesProcessed uint64        `json:"samples_processed"`
	FramesDetected   uint64        `json:"frames_detected"`
	GroupsExported   uint64        `json:"groups_exported"`
	SymbolsExported  uint64        `json:"symbols_exported"`
	EventsEvicted    uint64        `json:"events_evicted"`
	Ncos             []NcoSnapshot `json:"ncos"`
}

func (s *PipelineState) snapshot() StatusSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	uptime := ""
	if s.Running {
		uptime = time.Since(s.StartedAt).Round(time.Millisecond).String()
	}
	ncos := make([]NcoSnapshot, len(s.Ncos))
	copy(ncos, s.Ncos)
	return StatusSnapshot{
		Running:          s.Running,
		Uptime:           uptime,
		BlocksProcessed:  s.BlocksProcessed,
		SamplesProcessed: s.SamplesProcessed,
		FramesDetected:   s.FramesDetected,
		GroupsExported:   s.GroupsExported,
		SymbolsExported:  s.SymbolsExported,
		EventsEvicted:    s.EventsEvicted,
		Ncos:             ncos,
	}
}
