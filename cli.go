package main

import (
	"context"
	"fmt"
	"time"
)

// runCLI executes a fixed-length capture session and prints the summary.
func runCLI(ctx context.Context, cancel context.CancelFunc, pipeline *Pipeline, cfg Config, duration time.Duration) {
	fmt.Println("--- Capture Session Start ---")
	fmt.Printf("Channels: %d | Sample rate: %.0f | Duration: %v\n", cfg.Channels, cfg.SampleRate, duration)
	fmt.Println(">>> CAPTURING...")

	start := time.Now()
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		fmt.Println(">>> Interrupted")
	}

	cancel()
	pipeline.Stop()
	elapsed := time.Since(start)

	snap := pipelineState.snapshot()
	fmt.Println("--- Results ---")
	fmt.Printf("Duration:        %v\n", elapsed.Round(time.Millisecond))
	fmt.Printf("Blocks:          %d\n", snap.BlocksProcessed)
	fmt.Printf("Samples:         %d\n", snap.SamplesProcessed)
	fmt.Printf("Frames detected: %d\n", snap.FramesDetected)
	fmt.Printf("Groups exported: %d\n", snap.GroupsExported)
	fmt.Printf("Symbols:         %d\n", snap.SymbolsExported)
	fmt.Printf("Evicted events:  %d\n", snap.EventsEvicted)
	if elapsed.Seconds() > 0 {
		fmt.Printf("Throughput:      %.2f Msamples/s\n", float64(snap.SamplesProcessed)/elapsed.Seconds()/1e6)
	}
	fmt.Printf("CFR file:        %s\n", cfg.Export.CfrFile)
	fmt.Printf("Symbol file:     %s\n", cfg.Export.SymbolFile)
}
