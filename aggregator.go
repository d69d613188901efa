package main

import (
	"context"
	"log"
	"sort"
	"time"
)

// GroupExporter receives completed CFR groups. Close flushes whatever
// bookkeeping the export format keeps.
type GroupExporter interface {
	ExportGroup(g Group) error
	Close() error
}

// cfrAggregator drains CFR events and groups them across channels: a
// group is complete when every channel has contributed exactly one event
// and all events lie within maxAge of the group's base timestamp.
type cfrAggregator struct {
	channels int
	maxAge   time.Duration
	cfrQ     *queue[CfrEvent]
	exporter GroupExporter

	buffer []CfrEvent // kept sorted by timestamp ascending
}

func newCfrAggregator(channels int, maxAge time.Duration, cfrQ *queue[CfrEvent], exporter GroupExporter) *cfrAggregator {
	return &cfrAggregator{
		channels: channels,
		maxAge:   maxAge,
		cfrQ:     cfrQ,
		exporter: exporter,
	}
}

// Run consumes CFR events until the queue is closed and drained, then
// closes the exporter.
func (a *cfrAggregator) Run(ctx context.Context) {
	defer func() {
		if err := a.exporter.Close(); err != nil {
			log.Printf("CFR exporter close: %v", err)
		}
	}()
	for {
		events, ok := a.cfrQ.Drain()
		if !ok {
			return
		}
		a.ingest(events)
		for a.groupOnce() {
		}
		a.evict()
	}
}

func (a *cfrAggregator) ingest(events []CfrEvent) {
	a.buffer = append(a.buffer, events...)
	sort.SliceStable(a.buffer, func(i, j int) bool {
		return a.buffer[i].Timestamp.Before(a.buffer[j].Timestamp)
	})
}

// groupOnce scans the buffer for one complete group. On success the group
// is exported, the buffer is cut past the last consumed event, and true is
// returned so the caller can try again on the remainder.
func (a *cfrAggregator) groupOnce() bool {
	for i := range a.buffer {
		slots := make([]*CfrEvent, a.channels)
		slots[a.buffer[i].Channel] = &a.buffer[i]
		filled := 1
		last := i

		for j := i + 1; j < len(a.buffer); j++ {
			if a.buffer[j].Timestamp.Sub(a.buffer[i].Timestamp) > a.maxAge {
				break
			}
			ch := a.buffer[j].Channel
			if slots[ch] != nil {
				// first event within the window wins; later ones stay
				// buffered for a future pass
				continue
			}
			slots[ch] = &a.buffer[j]
			filled++
			last = j
			if filled == a.channels {
				break
			}
		}

		if filled < a.channels {
			continue
		}

		group := Group{
			Timestamp: a.buffer[i].Timestamp,
			Cfrs:      make([][]complex64, a.channels),
		}
		for ch, ev := range slots {
			group.Cfrs[ch] = ev.Cfr
		}
		if err := a.exporter.ExportGroup(group); err != nil {
			log.Printf("Group export: %v", err)
		}
		pipelineState.addGroup()

		a.buffer = append(a.buffer[:0], a.buffer[last+1:]...)
		return true
	}
	return false
}

// evict drops the oldest entries that can no longer join a group, but
// always keeps at least one potential entry per channel so a late arrival
// can still complete a match.
func (a *cfrAggregator) evict() {
	if len(a.buffer) <= a.channels {
		return
	}
	newest := a.buffer[len(a.buffer)-1].Timestamp
	cut := 0
	for cut < len(a.buffer)-a.channels && newest.Sub(a.buffer[cut].Timestamp) > a.maxAge {
		cut++
	}
	if cut == 0 {
		return
	}
	a.buffer = append(a.buffer[:0], a.buffer[cut:]...)
	pipelineState.addEvicted(cut)
}
