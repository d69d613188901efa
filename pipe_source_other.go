//go:build !linux

package main

import (
	"context"
	"errors"
)

var errPipesUnsupported = errors.New("named-pipe sources require linux")

func newPipeSource(pathTemplate string, channel, blockSize int) (SampleSource, error) {
	return nil, errPipesUnsupported
}

// RunTransmitter is only available on linux, where named pipes back the
// simulated front-end.
func RunTransmitter(ctx context.Context, cfg Config) error {
	return errPipesUnsupported
}
