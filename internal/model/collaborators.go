package model

// RecordSink receives WindowRecords in order as the engine closes windows.
// It is the consumer side of the WFE's one public operation, Extract (§4.3);
// the engine is the sole producer and never retries a failed Write.
type RecordSink interface {
	Write(rec WindowRecord) error
}

// FeatureSink receives FeatureRows in order as the BFE transforms the
// WindowRecord sequence.
type FeatureSink interface {
	Write(row FeatureRow) error
}

// Scorer is the external, black-box collaborator of §6: given a feature
// matrix (rows in FeatureRow.Columns() order) it returns one anomaly score
// and one label per row. Lower score is more anomalous; label is -1
// (anomaly) or 1 (normal). Model loading and representation are entirely
// external to this module.
type Scorer interface {
	Score(matrix [][]float64) (scores []float64, labels []float64, err error)
}
