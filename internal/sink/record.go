package sink

import "github.com/go2netspectra/wfe/internal/model"

// RecordWriter is the model.RecordSink that backs the CLI's <output.json>
// argument: a single JSON array of WindowRecord objects in window order
// (spec §6).
type RecordWriter struct {
	w *jsonArrayWriter
}

// NewRecordWriter creates the output file at path, truncating it if it
// already exists.
func NewRecordWriter(path string) (*RecordWriter, error) {
	w, err := newJSONArrayWriter(path)
	if err != nil {
		return nil, err
	}
	return &RecordWriter{w: w}, nil
}

// Write implements model.RecordSink.
func (rw *RecordWriter) Write(rec model.WindowRecord) error {
	return rw.w.writeValue(rec)
}

// Close writes the closing bracket and flushes the output file. Callers must
// invoke it after the last Write to produce a valid JSON array; an
// unflushed writer leaves the file truncated.
func (rw *RecordWriter) Close() error {
	return rw.w.Close()
}
