package main

import (
	"encoding/binary"
	"math"
)

// encodeGroup packs a CFR group into the binary frame sent to streaming
// clients: a channel count, the per-channel sample count, then each
// channel's CFR as little-endian float32 pairs, ordered by channel id.
func encodeGroup(g Group) []byte {
	perChannel := 0
	if len(g.Cfrs) > 0 {
		perChannel = len(g.Cfrs[0])
	}
	buf := make([]byte, 8+len(g.Cfrs)*perChannel*8)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(g.Cfrs)))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(perChannel))
	off := 8
	for _, cfr := range g.Cfrs {
		for _, v := range cfr {
			binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(real(v)))
			binary.LittleEndian.PutUint32(buf[off+4:], math.Float32bits(imag(v)))
			off += 8
		}
	}
	return buf
}

// wsGroupExporter broadcasts every completed group to the connected
// websocket clients.
type wsGroupExporter struct{}

func (wsGroupExporter) ExportGroup(g Group) error {
	broadcast(encodeGroup(g))
	return nil
}

func (wsGroupExporter) Close() error { return nil }

// teeGroupExporter fans a group out to several exporters. Export errors
// are returned but do not stop the remaining exporters.
type teeGroupExporter struct {
	exporters []GroupExporter
}

func (t *teeGroupExporter) ExportGroup(g Group) error {
	var firstErr error
	for _, e := range t.exporters {
		if err := e.ExportGroup(g); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (t *teeGroupExporter) Close() error {
	var firstErr error
	for _, e := range t.exporters {
		if err := e.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
