package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	// Common flags
	configFile := flag.String("c", "", "YAML config file")

	// CLI-specific flags
	duration := flag.Duration("t", 10*time.Second, "Capture duration (CLI mode only)")
	output := flag.String("o", "", "Output basename for parquet files")

	// Server-specific flags
	isServer := flag.Bool("server", false, "Run in WebSocket server mode")
	port := flag.Int("p", 8080, "Port to listen on (Server mode only)")

	// Simulation flags
	isSim := flag.Bool("sim", false, "Simulate the radio front-end in-process")
	isTx := flag.Bool("tx", false, "Run the pipe transmitter instead of a capture")

	// Custom usage message
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "  CLI Mode:    go run . [options]")
		fmt.Fprintln(os.Stderr, "  Server Mode: go run . --server [options]")
		fmt.Fprintln(os.Stderr, "  TX Mode:     go run . --tx [options]")
		fmt.Fprintln(os.Stderr, "\nOptions:")
		flag.PrintDefaults()
	}

	flag.Parse()

	cfg := DefaultConfig()
	if *configFile != "" {
		loaded, err := LoadConfig(*configFile)
		if err != nil {
			log.Fatalf("Config: %v", err)
		}
		cfg = loaded
	}
	if *isSim {
		cfg.Source.Type = "sim"
	}
	if *output != "" {
		cfg.Export.CfrFile = *output + "_cfr.parquet"
		cfg.Export.SymbolFile = *output + "_symbols.parquet"
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Config: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Transmitter mode feeds the named pipes and never builds a pipeline
	if *isTx {
		if err := RunTransmitter(ctx, cfg); err != nil {
			log.Fatalf("Transmitter: %v", err)
		}
		return
	}

	sources, err := buildSources(ctx, cfg)
	if err != nil {
		log.Fatalf("Sources: %v", err)
	}

	groupExp, symbolExp, err := buildExporters(cfg, *isServer)
	if err != nil {
		log.Fatalf("Exporters: %v", err)
	}

	pipeline, err := NewPipeline(cfg, sources, groupExp, symbolExp)
	if err != nil {
		log.Fatalf("Pipeline: %v", err)
	}
	pipeline.Start(ctx)

	if *isServer {
		go func() {
			<-ctx.Done()
			pipeline.Stop()
			os.Exit(0)
		}()
		runServer(*port, cfg, pipeline)
	} else {
		runCLI(ctx, cancel, pipeline, cfg, *duration)
	}
}

// buildSources creates one SampleSource per channel from the configured
// front-end.
func buildSources(ctx context.Context, cfg Config) ([]SampleSource, error) {
	sources := make([]SampleSource, cfg.Channels)
	switch cfg.Source.Type {
	case "sim":
		sim, err := newAirSim(cfg)
		if err != nil {
			return nil, err
		}
		sim.Start(ctx)
		for ch := range sources {
			sources[ch] = sim.Source(ch)
		}
	case "pipe":
		for ch := range sources {
			src, err := newPipeSource(cfg.Source.Path, ch, cfg.BlockSize)
			if err != nil {
				return nil, err
			}
			sources[ch] = src
		}
	}
	return sources, nil
}

// buildExporters wires the parquet writers, plus the websocket broadcast
// in server mode.
func buildExporters(cfg Config, withWs bool) (GroupExporter, SymbolExporter, error) {
	cfrExp, err := newParquetGroupExporter(cfg.Export.CfrFile, cfg)
	if err != nil {
		return nil, nil, err
	}
	symExp, err := newParquetSymbolExporter(cfg.Export.SymbolFile, cfg)
	if err != nil {
		cfrExp.Close()
		return nil, nil, err
	}
	if withWs {
		return &teeGroupExporter{exporters: []GroupExporter{cfrExp, wsGroupExporter{}}}, symExp, nil
	}
	return cfrExp, symExp, nil
}
