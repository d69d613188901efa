package main

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// Pipeline wires sources, queues and workers together:
// source[c] -> sampleQ[c] -> syncWorker -> {cfrQ, symQ} -> {aggregator, sink}.
type Pipeline struct {
	cfg     Config
	sources []SampleSource

	sampleQs []*queue[SampleBlock]
	cfrQ     *queue[CfrEvent]
	symQ     *queue[SymbolEvent]

	worker *syncWorker
	agg    *cfrAggregator
	sink   *symbolSink

	cancel context.CancelFunc
	rxWg   sync.WaitGroup
	wkWg   sync.WaitGroup
	outWg  sync.WaitGroup
}

// NewPipeline builds a stopped pipeline. Sources must be indexed by
// channel id and are owned by the pipeline from here on.
func NewPipeline(cfg Config, sources []SampleSource, groupExp GroupExporter, symbolExp SymbolExporter) (*Pipeline, error) {
	if len(sources) != cfg.Channels {
		return nil, fmt.Errorf("pipeline: %d sources for %d channels", len(sources), cfg.Channels)
	}

	p := &Pipeline{
		cfg:      cfg,
		sources:  sources,
		sampleQs: make([]*queue[SampleBlock], cfg.Channels),
		cfrQ:     newQueue[CfrEvent](),
		symQ:     newQueue[SymbolEvent](),
	}
	for ch := range p.sampleQs {
		p.sampleQs[ch] = newQueue[SampleBlock]()
	}

	worker, err := newSyncWorker(cfg, p.sampleQs, p.cfrQ, p.symQ)
	if err != nil {
		return nil, err
	}
	p.worker = worker
	p.agg = newCfrAggregator(cfg.Channels, cfg.MaxAge(), p.cfrQ, groupExp)
	p.sink = newSymbolSink(p.symQ, symbolExp)
	return p, nil
}

// Start launches all workers.
func (p *Pipeline) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	pipelineState.setRunning(true)

	for ch, src := range p.sources {
		p.rxWg.Add(1)
		go func(ch int, src SampleSource) {
			defer p.rxWg.Done()
			runReceiver(ctx, ch, src, p.sampleQs[ch])
		}(ch, src)
	}

	p.wkWg.Add(1)
	go func() {
		defer p.wkWg.Done()
		p.worker.Run(ctx)
	}()

	p.outWg.Add(2)
	go func() {
		defer p.outWg.Done()
		p.agg.Run(ctx)
	}()
	go func() {
		defer p.outWg.Done()
		p.sink.Run(ctx)
	}()
}

// InjectPhase forwards an external phase trim to the sync worker.
func (p *Pipeline) InjectPhase(pc PhaseCorrection) {
	p.worker.InjectPhase(pc)
}

// Stop shuts the pipeline down in dataflow order so nothing blocks: stop
// the sources first, then let each stage drain before closing the queue it
// feeds from.
func (p *Pipeline) Stop() {
	p.cancel()
	for _, src := range p.sources {
		if err := src.Close(); err != nil {
			log.Printf("Source close: %v", err)
		}
	}
	p.rxWg.Wait()

	for _, q := range p.sampleQs {
		q.Close()
	}
	p.wkWg.Wait()

	p.cfrQ.Close()
	p.symQ.Close()
	p.outWg.Wait()

	pipelineState.setRunning(false)
	log.Println("Pipeline stopped")
}
