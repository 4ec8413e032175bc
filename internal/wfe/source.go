package wfe

import "github.com/go2netspectra/wfe/internal/model"

// DecodedSource is a finite, ordered sequence of decoded packets (spec
// §4.3's "finite Decoded sequence" input). Next returns io.EOF once the
// sequence is exhausted. Implementations are expected to fold decode
// failures into their own bookkeeping rather than surface them here — the
// WFE only ever sees successfully decoded (possibly "other", possibly
// truncated-but-still-counted) records.
type DecodedSource interface {
	Next() (model.Decoded, error)
}
