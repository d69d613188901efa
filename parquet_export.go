package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/segmentio/parquet-go"
)

// CfrRow is one subcarrier of one channel of one exported group.
type CfrRow struct {
	Group       int64   `parquet:"group"`
	Channel     int32   `parquet:"channel"`
	Subcarrier  int32   `parquet:"subcarrier"`
	TimestampNs int64   `parquet:"timestamp_ns"`
	Real        float32 `parquet:"real"`
	Imag        float32 `parquet:"imag"`
}

// SymbolRow is one demodulated data symbol.
type SymbolRow struct {
	Channel     int32   `parquet:"channel"`
	Index       int32   `parquet:"index"`
	TimestampNs int64   `parquet:"timestamp_ns"`
	Real        float32 `parquet:"real"`
	Imag        float32 `parquet:"imag"`
}

// configMetadata serializes the session config into the file's key-value
// metadata so captures stay self-describing.
func configMetadata(cfg Config) parquet.WriterOption {
	b, err := json.Marshal(cfg)
	if err != nil {
		return parquet.KeyValueMetadata("config", "{}")
	}
	return parquet.KeyValueMetadata("config", string(b))
}

// parquetGroupExporter appends one CfrRow per subcarrier per channel for
// every exported group.
type parquetGroupExporter struct {
	file   io.Closer
	writer *parquet.GenericWriter[CfrRow]
	groups int64
}

func newParquetGroupExporter(path string, cfg Config) (*parquetGroupExporter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create CFR file: %w", err)
	}
	return &parquetGroupExporter{
		file:   f,
		writer: parquet.NewGenericWriter[CfrRow](f, configMetadata(cfg)),
	}, nil
}

func (e *parquetGroupExporter) ExportGroup(g Group) error {
	ts := g.Timestamp.UnixNano()
	var rows []CfrRow
	for ch, cfr := range g.Cfrs {
		for k, v := range cfr {
			rows = append(rows, CfrRow{
				Group:       e.groups,
				Channel:     int32(ch),
				Subcarrier:  int32(k),
				TimestampNs: ts,
				Real:        real(v),
				Imag:        imag(v),
			})
		}
	}
	e.groups++
	_, err := e.writer.Write(rows)
	return err
}

func (e *parquetGroupExporter) Close() error {
	if err := e.writer.Close(); err != nil {
		e.file.Close()
		return err
	}
	return e.file.Close()
}

// parquetSymbolExporter appends one SymbolRow per demodulated symbol.
type parquetSymbolExporter struct {
	file   io.Closer
	writer *parquet.GenericWriter[SymbolRow]
}

func newParquetSymbolExporter(path string, cfg Config) (*parquetSymbolExporter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create symbol file: %w", err)
	}
	return &parquetSymbolExporter{
		file:   f,
		writer: parquet.NewGenericWriter[SymbolRow](f, configMetadata(cfg)),
	}, nil
}

func (e *parquetSymbolExporter) ExportSymbols(ev SymbolEvent) error {
	ts := ev.Timestamp.UnixNano()
	rows := make([]SymbolRow, len(ev.Symbols))
	for i, v := range ev.Symbols {
		rows[i] = SymbolRow{
			Channel:     int32(ev.Channel),
			Index:       int32(i),
			TimestampNs: ts,
			Real:        real(v),
			Imag:        imag(v),
		}
	}
	_, err := e.writer.Write(rows)
	return err
}

func (e *parquetSymbolExporter) Close() error {
	if err := e.writer.Close(); err != nil {
		e.file.Close()
		return err
	}
	return e.file.Close()
}
