package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingExporter struct {
	groups []Group
	closed bool
}

func (r *recordingExporter) ExportGroup(g Group) error {
	r.groups = append(r.groups, g)
	return nil
}

func (r *recordingExporter) Close() error {
	r.closed = true
	return nil
}

func cfrEvent(ch int, offset time.Duration, gain float32) CfrEvent {
	base := time.Unix(1000, 0)
	return CfrEvent{
		Channel:   ch,
		Timestamp: base.Add(offset),
		Cfr:       []complex64{complex(gain, 0)},
	}
}

func newTestAggregator(channels int, maxAge time.Duration) (*cfrAggregator, *recordingExporter) {
	exp := &recordingExporter{}
	agg := newCfrAggregator(channels, maxAge, newQueue[CfrEvent](), exp)
	return agg, exp
}

func TestAggregatorCompletesGroup(t *testing.T) {
	agg, exp := newTestAggregator(2, 50*time.Millisecond)

	agg.ingest([]CfrEvent{
		cfrEvent(0, 0, 1),
		cfrEvent(1, 10*time.Millisecond, 2),
	})
	require.True(t, agg.groupOnce())

	require.Len(t, exp.groups, 1)
	g := exp.groups[0]
	require.Len(t, g.Cfrs, 2)
	assert.Equal(t, []complex64{1}, g.Cfrs[0], "slot 0 must hold channel 0")
	assert.Equal(t, []complex64{2}, g.Cfrs[1], "slot 1 must hold channel 1")
	assert.Empty(t, agg.buffer, "consumed events must leave the buffer")
}

func TestAggregatorRetainsSinglePartialEntry(t *testing.T) {
	agg, exp := newTestAggregator(2, 50*time.Millisecond)

	agg.ingest([]CfrEvent{cfrEvent(0, 0, 1)})
	assert.False(t, agg.groupOnce())
	agg.evict()

	assert.Empty(t, exp.groups)
	assert.Len(t, agg.buffer, 1, "partial entry within the floor must survive eviction")
}

func TestAggregatorIdempotentAfterExport(t *testing.T) {
	agg, exp := newTestAggregator(2, 50*time.Millisecond)

	agg.ingest([]CfrEvent{
		cfrEvent(0, 0, 1),
		cfrEvent(1, 10*time.Millisecond, 2),
	})
	require.True(t, agg.groupOnce())
	assert.False(t, agg.groupOnce(), "exhausted buffer must not export again")
	assert.Len(t, exp.groups, 1)
}

func TestAggregatorWindowIsInclusive(t *testing.T) {
	agg, exp := newTestAggregator(2, 50*time.Millisecond)

	agg.ingest([]CfrEvent{
		cfrEvent(0, 0, 1),
		cfrEvent(1, 50*time.Millisecond, 2),
	})
	assert.True(t, agg.groupOnce(), "events exactly max_age apart must group")
	assert.Len(t, exp.groups, 1)
}

func TestAggregatorRejectsBeyondWindow(t *testing.T) {
	agg, exp := newTestAggregator(2, 50*time.Millisecond)

	agg.ingest([]CfrEvent{
		cfrEvent(0, 0, 1),
		cfrEvent(1, 51*time.Millisecond, 2),
	})
	assert.False(t, agg.groupOnce())
	assert.Empty(t, exp.groups)
	assert.Len(t, agg.buffer, 2, "both entries stay within the retention floor")
}

func TestAggregatorFirstWithinWindowWins(t *testing.T) {
	agg, exp := newTestAggregator(2, 50*time.Millisecond)

	agg.ingest([]CfrEvent{
		cfrEvent(0, 0, 1),
		cfrEvent(0, 20*time.Millisecond, 9),
		cfrEvent(1, 30*time.Millisecond, 2),
	})
	require.True(t, agg.groupOnce())

	require.Len(t, exp.groups, 1)
	assert.Equal(t, []complex64{1}, exp.groups[0].Cfrs[0], "earlier channel 0 event must win")
	assert.Empty(t, agg.buffer, "everything up to the last consumed event is erased")
}

func TestAggregatorSortsOutOfOrderArrivals(t *testing.T) {
	agg, exp := newTestAggregator(2, 50*time.Millisecond)

	agg.ingest([]CfrEvent{
		cfrEvent(1, 40*time.Millisecond, 2),
		cfrEvent(0, 0, 1),
	})
	require.True(t, agg.groupOnce())
	require.Len(t, exp.groups, 1)
	assert.Equal(t, exp.groups[0].Timestamp, time.Unix(1000, 0), "base is the earliest event")
}

func TestAggregatorEvictionKeepsFloor(t *testing.T) {
	agg, _ := newTestAggregator(2, 10*time.Millisecond)

	// all same channel, spread far beyond the window
	var events []CfrEvent
	for i := 0; i < 6; i++ {
		events = append(events, cfrEvent(0, time.Duration(i)*time.Second, float32(i)))
	}
	agg.ingest(events)
	require.False(t, agg.groupOnce())
	agg.evict()

	require.Len(t, agg.buffer, 2, "eviction keeps one potential entry per channel")
	assert.Equal(t, []complex64{4}, agg.buffer[0].Cfr, "oldest entries are evicted first")
	assert.Equal(t, []complex64{5}, agg.buffer[1].Cfr)
}

func TestAggregatorGroupsRemainderAfterExport(t *testing.T) {
	agg, exp := newTestAggregator(2, 50*time.Millisecond)

	agg.ingest([]CfrEvent{
		cfrEvent(0, 0, 1),
		cfrEvent(1, 10*time.Millisecond, 2),
		cfrEvent(0, 200*time.Millisecond, 3),
		cfrEvent(1, 220*time.Millisecond, 4),
	})
	for agg.groupOnce() {
	}

	require.Len(t, exp.groups, 2)
	assert.Equal(t, []complex64{3}, exp.groups[1].Cfrs[0])
	assert.Equal(t, []complex64{4}, exp.groups[1].Cfrs[1])
	assert.Empty(t, agg.buffer)
}

func TestAggregatorRunDrainsAndClosesExporter(t *testing.T) {
	exp := &recordingExporter{}
	cfrQ := newQueue[CfrEvent]()
	agg := newCfrAggregator(2, 50*time.Millisecond, cfrQ, exp)

	cfrQ.Push(cfrEvent(0, 0, 1))
	cfrQ.Push(cfrEvent(1, 10*time.Millisecond, 2))
	cfrQ.Close()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	done := make(chan struct{})
	go func() {
		agg.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("aggregator did not stop on closed queue")
	}
	assert.Len(t, exp.groups, 1)
	assert.True(t, exp.closed, "exporter must be flushed on shutdown")
}
