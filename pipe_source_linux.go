//go:build linux

package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"

	"golang.org/x/sys/unix"
)

func float32frombytes(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

// pipeSource reads complex float32 baseband samples from a named pipe, the
// hand-off format of the external receive front-end. Samples are
// little-endian interleaved I/Q pairs.
type pipeSource struct {
	channel   int
	fd        int
	blockSize int
	raw       []byte
}

// newPipeSource opens the pipe for one channel. The path template gets the
// channel id substituted in.
func newPipeSource(pathTemplate string, channel, blockSize int) (*pipeSource, error) {
	path := fmt.Sprintf(pathTemplate, channel)
	fd, err := unix.Open(path, unix.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open pipe %s: %w", path, err)
	}
	const maxPipeSize = 1024 * 1024
	_, _ = unix.FcntlInt(uintptr(fd), unix.F_SETPIPE_SZ, maxPipeSize)
	return &pipeSource{
		channel:   channel,
		fd:        fd,
		blockSize: blockSize,
		raw:       make([]byte, blockSize*8),
	}, nil
}

// ReadBlock fills one block from the pipe. A short final read still yields
// the complete samples it contains; a zero-length read is end of stream.
func (p *pipeSource) ReadBlock() (SampleBlock, error) {
	filled := 0
	for filled < len(p.raw) {
		n, err := unix.Read(p.fd, p.raw[filled:])
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return SampleBlock{}, fmt.Errorf("pipe read: %w", err)
		}
		if n == 0 {
			break
		}
		filled += n
	}
	samples := filled / 8
	if samples == 0 {
		return SampleBlock{}, io.EOF
	}

	blk := SampleBlock{
		Channel:   p.channel,
		Timestamp: time.Now(),
		Samples:   make([]complex64, samples),
	}
	for i := 0; i < samples; i++ {
		re := float32frombytes(p.raw[i*8:])
		im := float32frombytes(p.raw[i*8+4:])
		blk.Samples[i] = complex(re, im)
	}
	return blk, nil
}

func (p *pipeSource) Close() error {
	return unix.Close(p.fd)
}
