// Package sink provides the file-backed RecordSink/FeatureSink
// implementations the CLI wires the WFE and BFE to (spec §6 "Output file").
//
// Grounded on the teacher's internal/snapshot.Writer: os.Create, wrapped
// error messages via fmt.Errorf("%w", ...), deferred Close.
package sink

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// jsonArrayWriter streams values into a single JSON array on disk one at a
// time, so memory usage for the output file tracks the sink's buffer, not
// the whole record sequence — the same "independent of file size" property
// the Packet Source holds for input (spec §4.1).
type jsonArrayWriter struct {
	file   *os.File
	buf    *bufio.Writer
	wrote  bool
	closed bool
}

func newJSONArrayWriter(path string) (*jsonArrayWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("sink: create %q: %w", path, err)
	}
	buf := bufio.NewWriter(f)
	if _, err := buf.WriteString("["); err != nil {
		f.Close()
		return nil, fmt.Errorf("sink: write array open: %w", err)
	}
	return &jsonArrayWriter{file: f, buf: buf}, nil
}

func (w *jsonArrayWriter) writeValue(v interface{}) error {
	if w.closed {
		return fmt.Errorf("sink: write after close")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("sink: marshal: %w", err)
	}
	if w.wrote {
		if _, err := w.buf.WriteString(","); err != nil {
			return fmt.Errorf("sink: write separator: %w", err)
		}
	}
	w.wrote = true
	if _, err := w.buf.Write(b); err != nil {
		return fmt.Errorf("sink: write value: %w", err)
	}
	return nil
}

// Close terminates the array and flushes the underlying file. It must be
// called exactly once, after the last Write, on every exit path (spec §9
// "scoped acquisition").
func (w *jsonArrayWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if _, err := w.buf.WriteString("]"); err != nil {
		w.file.Close()
		return fmt.Errorf("sink: write array close: %w", err)
	}
	if err := w.buf.Flush(); err != nil {
		w.file.Close()
		return fmt.Errorf("sink: flush: %w", err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("sink: close: %w", err)
	}
	return nil
}
