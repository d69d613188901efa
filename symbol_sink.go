package main

import (
	"context"
	"log"
)

// SymbolExporter receives demodulated symbol events.
type SymbolExporter interface {
	ExportSymbols(ev SymbolEvent) error
	Close() error
}

// symbolSink drains the symbol event queue into its exporter.
type symbolSink struct {
	symQ     *queue[SymbolEvent]
	exporter SymbolExporter
}

func newSymbolSink(symQ *queue[SymbolEvent], exporter SymbolExporter) *symbolSink {
	return &symbolSink{symQ: symQ, exporter: exporter}
}

// Run consumes symbol events until the queue is closed and drained, then
// closes the exporter.
func (s *symbolSink) Run(ctx context.Context) {
	defer func() {
		if err := s.exporter.Close(); err != nil {
			log.Printf("Symbol exporter close: %v", err)
		}
	}()
	for {
		events, ok := s.symQ.Drain()
		if !ok {
			return
		}
		for _, ev := range events {
			if err := s.exporter.ExportSymbols(ev); err != nil {
				log.Printf("Symbol export: %v", err)
				continue
			}
			pipelineState.addSymbols(len(ev.Symbols))
		}
	}
}
