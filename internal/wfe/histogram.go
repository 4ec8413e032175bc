package wfe

import (
	"fmt"
	"sort"
)

// sizeHistogram buckets packet sizes against a sorted, immutable set of
// edges (spec §9 "Histogram edges"): bucket i counts values in
// [edges[i-1], edges[i]), with the final bucket catching everything >=
// edges[len(edges)-1].
type sizeHistogram struct {
	edges  []uint32
	counts []uint64
}

func newSizeHistogram(edges []uint32) *sizeHistogram {
	return &sizeHistogram{edges: edges, counts: make([]uint64, len(edges)+1)}
}

func (h *sizeHistogram) add(size uint32) {
	idx := sort.Search(len(h.edges), func(i int) bool { return size < h.edges[i] })
	h.counts[idx]++
}

// labels renders bin labels the way spec §6 specifies: "<edge" for every
// finite bucket, ">=<prev>" for the open-ended last bucket.
func (h *sizeHistogram) labels() map[string]uint64 {
	out := make(map[string]uint64, len(h.counts))
	for i, c := range h.counts {
		if i < len(h.edges) {
			out[fmt.Sprintf("<%d", h.edges[i])] = c
		} else {
			prev := uint32(0)
			if len(h.edges) > 0 {
				prev = h.edges[len(h.edges)-1]
			}
			out[fmt.Sprintf(">=%d", prev)] = c
		}
	}
	return out
}

// durationHistogram is the flow-duration analogue of sizeHistogram.
type durationHistogram struct {
	edges  []float64
	counts []uint64
}

func newDurationHistogram(edges []float64) *durationHistogram {
	return &durationHistogram{edges: edges, counts: make([]uint64, len(edges)+1)}
}

func (h *durationHistogram) add(d float64) {
	idx := sort.Search(len(h.edges), func(i int) bool { return d < h.edges[i] })
	h.counts[idx]++
}

func (h *durationHistogram) labels() map[string]uint64 {
	out := make(map[string]uint64, len(h.counts))
	for i, c := range h.counts {
		if i < len(h.edges) {
			out[fmt.Sprintf("<%g", h.edges[i])] = c
		} else {
			prev := 0.0
			if len(h.edges) > 0 {
				prev = h.edges[len(h.edges)-1]
			}
			out[fmt.Sprintf(">=%g", prev)] = c
		}
	}
	return out
}
