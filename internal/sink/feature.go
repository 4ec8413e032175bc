package sink

import "github.com/go2netspectra/wfe/internal/model"

// FeatureWriter is the model.FeatureSink that optionally persists the BFE's
// FeatureRow sequence alongside the WindowRecord output, for offline
// inspection of what the Scorer Adapter actually saw (supplementing §6,
// which otherwise treats FeatureRows as purely internal to the pipeline).
type FeatureWriter struct {
	w *jsonArrayWriter
}

// NewFeatureWriter creates the feature file at path, truncating it if it
// already exists.
func NewFeatureWriter(path string) (*FeatureWriter, error) {
	w, err := newJSONArrayWriter(path)
	if err != nil {
		return nil, err
	}
	return &FeatureWriter{w: w}, nil
}

// Write implements model.FeatureSink.
func (fw *FeatureWriter) Write(row model.FeatureRow) error {
	return fw.w.writeValue(row)
}

// Close finalizes the feature file.
func (fw *FeatureWriter) Close() error {
	return fw.w.Close()
}
