package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/F-L-X-S/WLAN-CSI/pkg/dsp"
	"github.com/F-L-X-S/WLAN-CSI/pkg/multisync"
	"github.com/F-L-X-S/WLAN-CSI/pkg/ofdm"
)

// correctionWait bounds how long the worker waits for phase corrections
// when it is otherwise idle, so injected trims stay responsive without
// stalling sample processing.
const correctionWait = 100 * time.Millisecond

// syncWorker is the single goroutine that owns all MultiSync state. It
// drains every channel's sample queue, drives the engines, and emits CFR
// and symbol events on detections. No other goroutine may touch the
// engines or oscillators.
type syncWorker struct {
	cfg   Config
	msync *multisync.MultiSync

	sampleQs    []*queue[SampleBlock]
	corrections chan PhaseCorrection
	cfrQ        *queue[CfrEvent]
	symQ        *queue[SymbolEvent]

	resamplers []*dsp.Resampler
	gates      []*frameGate
	resampled  []complex64

	// per-channel detection scratch, filled synchronously by the engine
	// callbacks during Execute
	symBufs  [][]complex64
	symCount []int
}

func newSyncWorker(cfg Config, sampleQs []*queue[SampleBlock], cfrQ *queue[CfrEvent], symQ *queue[SymbolEvent]) (*syncWorker, error) {
	w := &syncWorker{
		cfg:         cfg,
		sampleQs:    sampleQs,
		corrections: make(chan PhaseCorrection, 64),
		cfrQ:        cfrQ,
		symQ:        symQ,
		symBufs:     make([][]complex64, cfg.Channels),
		symCount:    make([]int, cfg.Channels),
	}

	params := cfg.FrameParams()
	msync, err := multisync.New(cfg.Channels, func(ch int) (multisync.Engine, error) {
		return ofdm.NewSync(params, func(X []complex64, alloc []ofdm.SubcarrierType) int {
			for k, typ := range alloc {
				if typ == ofdm.SubcarrierData {
					w.symBufs[ch] = append(w.symBufs[ch], X[k])
				}
			}
			w.symCount[ch]++
			if w.symCount[ch] >= cfg.Frame.PayloadSymbols {
				w.symCount[ch] = 0
				return ofdm.FrameComplete
			}
			return ofdm.FrameContinue
		})
	})
	if err != nil {
		return nil, fmt.Errorf("sync worker: %w", err)
	}
	w.msync = msync

	if cfg.ResampleRate != 1.0 {
		w.resamplers = make([]*dsp.Resampler, cfg.Channels)
		for ch := range w.resamplers {
			r, err := dsp.NewResampler(cfg.ResampleRate)
			if err != nil {
				return nil, fmt.Errorf("sync worker: %w", err)
			}
			w.resamplers[ch] = r
		}
	}
	if cfg.Trigger.Enabled {
		w.gates = make([]*frameGate, cfg.Channels)
		for ch := range w.gates {
			w.gates[ch] = newFrameGate(cfg.Trigger)
		}
	}
	return w, nil
}

// InjectPhase queues a phase trim for the worker to apply before its next
// pass. Safe to call from any goroutine.
func (w *syncWorker) InjectPhase(pc PhaseCorrection) {
	select {
	case w.corrections <- pc:
	default:
		log.Printf("Dropping phase correction for channel %d: queue full", pc.Channel)
	}
}

// Run processes sample blocks until ctx is cancelled and the sample queues
// are closed and drained.
func (w *syncWorker) Run(ctx context.Context) {
	for {
		w.drainCorrections(ctx)

		for ch, q := range w.sampleQs {
			blocks, ok := q.Drain()
			if !ok {
				return
			}
			for _, blk := range blocks {
				w.processBlock(ch, blk)
			}
		}

		w.synchronizeNcos()
		w.publishNcos()

		if ctx.Err() != nil && w.pendingSamples() == 0 {
			return
		}
	}
}

// drainCorrections applies queued phase trims. When nothing is queued and
// no samples are waiting it blocks briefly so corrections injected during
// a lull are picked up promptly.
func (w *syncWorker) drainCorrections(ctx context.Context) {
	applied := false
	for {
		select {
		case pc := <-w.corrections:
			w.applyCorrection(pc)
			applied = true
			continue
		default:
		}
		break
	}
	if applied || w.pendingSamples() > 0 || ctx.Err() != nil {
		return
	}

	timer := time.NewTimer(correctionWait)
	defer timer.Stop()
	select {
	case pc := <-w.corrections:
		w.applyCorrection(pc)
	case <-timer.C:
	case <-ctx.Done():
	}
}

func (w *syncWorker) applyCorrection(pc PhaseCorrection) {
	if err := w.msync.AdjustNcoPhase(pc.Channel, pc.Delta); err != nil {
		log.Printf("Phase correction rejected: %v", err)
		return
	}
	log.Printf("Applied phase correction: channel %d, delta %.4f rad", pc.Channel, pc.Delta)
}

func (w *syncWorker) pendingSamples() int {
	n := 0
	for _, q := range w.sampleQs {
		n += q.Len()
	}
	return n
}

// processBlock feeds one sample block through the channel's resampler,
// trigger gate and engine, then emits events if the engine completed a
// frame.
func (w *syncWorker) processBlock(ch int, blk SampleBlock) {
	pipelineState.addBlock(len(blk.Samples))

	samples := blk.Samples
	if w.resamplers != nil {
		w.resampled = w.resampled[:0]
		for _, x := range samples {
			w.resampled = append(w.resampled, w.resamplers[ch].Execute(x)...)
		}
		samples = w.resampled
	}
	if w.gates != nil {
		samples = w.gates[ch].Filter(samples)
	}
	if len(samples) == 0 {
		return
	}

	if err := w.msync.Execute(ch, samples); err != nil {
		log.Printf("Channel %d execute: %v", ch, err)
		return
	}

	if len(w.symBufs[ch]) == 0 {
		return
	}

	cfr, err := w.msync.Cfr(ch)
	if err != nil {
		log.Printf("Channel %d CFR: %v", ch, err)
		return
	}
	w.cfrQ.Push(CfrEvent{Channel: ch, Timestamp: blk.Timestamp, Cfr: cfr})

	syms := make([]complex64, len(w.symBufs[ch]))
	copy(syms, w.symBufs[ch])
	w.symQ.Push(SymbolEvent{Channel: ch, Timestamp: blk.Timestamp, Symbols: syms})
	w.symBufs[ch] = w.symBufs[ch][:0]

	pipelineState.addDetection()
}

func (w *syncWorker) synchronizeNcos() {
	switch w.cfg.NcoSync.Mode {
	case "average":
		w.msync.SynchronizeNcos()
	case "master":
		if err := w.msync.SynchronizeNcosMaster(w.cfg.NcoSync.Master); err != nil {
			log.Printf("NCO sync: %v", err)
		}
	}
}

func (w *syncWorker) publishNcos() {
	ncos := make([]NcoSnapshot, w.cfg.Channels)
	for ch := range ncos {
		freq, _ := w.msync.NcoFrequency(ch)
		phase, _ := w.msync.NcoPhase(ch)
		ncos[ch] = NcoSnapshot{Channel: ch, Frequency: freq, Phase: phase}
	}
	pipelineState.setNcos(ncos)
}
