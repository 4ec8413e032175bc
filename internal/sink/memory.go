package sink

import "github.com/go2netspectra/wfe/internal/model"

// MemoryRecordSink buffers every WindowRecord it receives, in order. The CLI
// uses it to hold the WFE's output long enough to hand the same sequence to
// the BFE afterward; tests use it to assert on what Extract produced without
// touching disk.
type MemoryRecordSink struct {
	Records []model.WindowRecord
}

// Write implements model.RecordSink.
func (s *MemoryRecordSink) Write(rec model.WindowRecord) error {
	s.Records = append(s.Records, rec)
	return nil
}

// MemoryFeatureSink is the FeatureRow analogue of MemoryRecordSink.
type MemoryFeatureSink struct {
	Rows []model.FeatureRow
}

// Write implements model.FeatureSink.
func (s *MemoryFeatureSink) Write(row model.FeatureRow) error {
	s.Rows = append(s.Rows, row)
	return nil
}
