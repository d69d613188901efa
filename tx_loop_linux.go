//go:build linux

package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// RunTransmitter streams the simulated air interface into one named pipe
// per channel, for exercising the pipe source without radio hardware. It
// blocks until every pipe has a reader, then transmits frames on a fixed
// cycle.
func RunTransmitter(ctx context.Context, cfg Config) error {
	sim, err := newAirSim(cfg)
	if err != nil {
		return err
	}

	fds := make([]int, cfg.Channels)
	for ch := range fds {
		path := fmt.Sprintf(cfg.Source.Path, ch)
		_ = os.Remove(path)
		if err := syscall.Mkfifo(path, 0666); err != nil {
			return fmt.Errorf("mkfifo %s: %w", path, err)
		}
		log.Printf("[TX] Streaming channel %d to %s", ch, path)
		fd, err := unix.Open(path, unix.O_WRONLY, 0)
		if err != nil {
			return fmt.Errorf("open pipe %s: %w", path, err)
		}
		const maxPipeSize = 1024 * 1024
		_, _ = unix.FcntlInt(uintptr(fd), unix.F_SETPIPE_SZ, maxPipeSize)
		fds[ch] = fd
	}
	defer func() {
		for _, fd := range fds {
			unix.Close(fd)
		}
	}()

	sim.Start(ctx)
	srcs := make([]SampleSource, cfg.Channels)
	for ch := range srcs {
		srcs[ch] = sim.Source(ch)
	}

	buf := make([]byte, 0, cfg.BlockSize*8)
	for ctx.Err() == nil {
		for ch, src := range srcs {
			blk, err := src.ReadBlock()
			if err != nil {
				return nil
			}
			buf = buf[:0]
			for _, x := range blk.Samples {
				buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(real(x)))
				buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(imag(x)))
			}
			if err := writeFull(fds[ch], buf); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("channel %d: %w", ch, err)
			}
		}
	}
	return nil
}

func writeFull(fd int, buf []byte) error {
	for len(buf) > 0 {
		n, err := unix.Write(fd, buf)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return err
		}
		buf = buf[n:]
	}
	return nil
}
