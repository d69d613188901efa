package main

import (
	"context"
	"errors"
	"io"
	"log"
)

// SampleSource yields timestamped sample blocks for one receive channel.
// ReadBlock blocks until a block is available and returns io.EOF once the
// source is exhausted or closed.
type SampleSource interface {
	ReadBlock() (SampleBlock, error)
	Close() error
}

// runReceiver moves blocks from one source into that channel's queue. The
// push path never blocks on downstream consumers; a stalled consumer only
// grows the queue.
func runReceiver(ctx context.Context, ch int, src SampleSource, q *queue[SampleBlock]) {
	for {
		blk, err := src.ReadBlock()
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				log.Printf("Channel %d receive: %v", ch, err)
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
		q.Push(blk)
	}
}
