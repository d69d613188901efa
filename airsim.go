package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"time"

	"github.com/F-L-X-S/WLAN-CSI/pkg/ofdm"
)

// airSim synthesizes the multi-channel air interface: a transmitter that
// sends one OFDM frame per cycle and N receive channels that observe it
// with a fixed per-channel phase offset plus noise. All channels share one
// timebase so their blocks can be grouped downstream.
type airSim struct {
	cfg    Config
	gen    *ofdm.FrameGen
	phases []float64
	chans  []chan SampleBlock
}

const (
	simNoiseAmplitude = 0.005
	simGapBlocks      = 2 // idle blocks between frames
	simPhaseStep      = math.Pi / 8
)

func newAirSim(cfg Config) (*airSim, error) {
	gen, err := ofdm.NewFrameGen(cfg.FrameParams())
	if err != nil {
		return nil, fmt.Errorf("air sim: %w", err)
	}
	s := &airSim{
		cfg:    cfg,
		gen:    gen,
		phases: make([]float64, cfg.Channels),
		chans:  make([]chan SampleBlock, cfg.Channels),
	}
	for ch := range s.chans {
		// phase offset grows along the array, imitating a plane wave
		s.phases[ch] = float64(ch) * simPhaseStep
		s.chans[ch] = make(chan SampleBlock, 16)
	}
	return s, nil
}

// Start launches the generator goroutine. Channels are closed when ctx is
// cancelled.
func (s *airSim) Start(ctx context.Context) {
	go s.run(ctx)
}

func (s *airSim) run(ctx context.Context) {
	defer func() {
		for _, c := range s.chans {
			close(c)
		}
	}()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	alloc := s.gen.Alloc()
	base := time.Now()
	sampleCount := int64(0)
	samplePeriod := float64(time.Second) / s.cfg.SampleRate
	frameIdx := 0

	for ctx.Err() == nil {
		burst := s.nextBurst(rng, alloc, frameIdx)
		frameIdx++

		for off := 0; off < len(burst); off += s.cfg.BlockSize {
			end := off + s.cfg.BlockSize
			if end > len(burst) {
				end = len(burst)
			}
			chunk := burst[off:end]
			ts := base.Add(time.Duration(float64(sampleCount) * samplePeriod))
			sampleCount += int64(len(chunk))

			for ch := range s.chans {
				blk := SampleBlock{
					Channel:   ch,
					Timestamp: ts,
					Samples:   s.observe(rng, chunk, s.phases[ch]),
				}
				select {
				case s.chans[ch] <- blk:
				case <-ctx.Done():
					return
				}
			}
			time.Sleep(time.Duration(float64(len(chunk)) * samplePeriod))
		}
	}
}

// nextBurst is one transmit cycle: idle gap followed by a frame carrying
// pseudo-random BPSK payload.
func (s *airSim) nextBurst(rng *rand.Rand, alloc []ofdm.SubcarrierType, frameIdx int) []complex64 {
	payload := make([][]complex64, s.cfg.Frame.PayloadSymbols)
	for i := range payload {
		X := make([]complex64, len(alloc))
		for k, typ := range alloc {
			if typ != ofdm.SubcarrierData {
				continue
			}
			if rng.Intn(2) == 1 {
				X[k] = 1
			} else {
				X[k] = -1
			}
		}
		payload[i] = X
	}
	frame, err := s.gen.GenerateFrame(payload)
	if err != nil {
		log.Printf("Sim frame %d: %v", frameIdx, err)
		return make([]complex64, s.cfg.BlockSize)
	}
	gap := make([]complex64, simGapBlocks*s.cfg.BlockSize)
	return append(gap, frame...)
}

// observe applies the channel's phase rotation and additive noise.
func (s *airSim) observe(rng *rand.Rand, chunk []complex64, phase float64) []complex64 {
	sin, cos := math.Sincos(phase)
	rot := complex64(complex(cos, sin))
	out := make([]complex64, len(chunk))
	for i, x := range chunk {
		n := complex64(complex(rng.NormFloat64()*simNoiseAmplitude, rng.NormFloat64()*simNoiseAmplitude))
		out[i] = x*rot + n
	}
	return out
}

// Source returns the SampleSource for one channel.
func (s *airSim) Source(ch int) SampleSource {
	return &chanSource{c: s.chans[ch]}
}

// chanSource adapts a block channel to the SampleSource interface.
type chanSource struct {
	c <-chan SampleBlock
}

func (s *chanSource) ReadBlock() (SampleBlock, error) {
	blk, ok := <-s.c
	if !ok {
		return SampleBlock{}, io.EOF
	}
	return blk, nil
}

func (s *chanSource) Close() error { return nil }
