package wfe

import (
	"container/heap"
	"sort"

	"github.com/go2netspectra/wfe/internal/model"
)

// flowCandidate is the bounded top-K working copy of a flow's aggregate,
// independent of the live flow table so the table can keep mutating (or be
// dropped) after selection.
type flowCandidate struct {
	key   model.FlowKey
	agg   flowAgg
}

// flowBetter reports whether a ranks strictly before b in the final top-K
// ordering: bytes desc, then pkts desc, then FlowKey lexicographically asc
// (spec §4.3's deterministic tie-break chain).
func flowBetter(a, b flowCandidate) bool {
	if a.agg.bytes != b.agg.bytes {
		return a.agg.bytes > b.agg.bytes
	}
	if a.agg.pkts != b.agg.pkts {
		return a.agg.pkts > b.agg.pkts
	}
	return flowKeyLess(a.key, b.key)
}

func flowKeyLess(a, b model.FlowKey) bool {
	if a.SrcIP != b.SrcIP {
		return a.SrcIP.Less(b.SrcIP)
	}
	if a.SrcPort != b.SrcPort {
		return a.SrcPort < b.SrcPort
	}
	if a.DstIP != b.DstIP {
		return a.DstIP.Less(b.DstIP)
	}
	if a.DstPort != b.DstPort {
		return a.DstPort < b.DstPort
	}
	return a.L4Proto < b.L4Proto
}

// flowMinHeap is a bounded min-heap over flowCandidate, ordered so the root
// is the current worst-ranked member: when a new candidate beats the root,
// the root is evicted. This keeps top-K selection at O(n log k) instead of
// sorting the whole per-window flow table (spec §9 "ordering is imposed at
// top-K selection time").
type flowMinHeap []flowCandidate

func (h flowMinHeap) Len() int { return len(h) }
func (h flowMinHeap) Less(i, j int) bool {
	// Root should be the worst: worst(i) < worst(j) in heap terms means i
	// should bubble toward the root, i.e. i ranks worse than j.
	return flowBetter(h[j], h[i])
}
func (h flowMinHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *flowMinHeap) Push(x interface{}) { *h = append(*h, x.(flowCandidate)) }
func (h *flowMinHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// selectTopFlows returns the k largest flows by bytes, deterministically
// ordered (spec §4.3).
func selectTopFlows(flows map[model.FlowKey]*flowAgg, k uint32) []flowCandidate {
	if k == 0 {
		return nil
	}
	h := make(flowMinHeap, 0, k)
	heap.Init(&h)

	for key, agg := range flows {
		cand := flowCandidate{key: key, agg: *agg}
		if uint32(h.Len()) < k {
			heap.Push(&h, cand)
			continue
		}
		if flowBetter(cand, h[0]) {
			h[0] = cand
			heap.Fix(&h, 0)
		}
	}

	result := make([]flowCandidate, len(h))
	copy(result, h)
	sort.Slice(result, func(i, j int) bool { return flowBetter(result[i], result[j]) })
	return result
}

// portCandidate mirrors flowCandidate for PortKey aggregates.
type portCandidate struct {
	key model.PortKey
	agg portAgg
}

func portBetter(a, b portCandidate) bool {
	if a.agg.bytes != b.agg.bytes {
		return a.agg.bytes > b.agg.bytes
	}
	if a.agg.pkts != b.agg.pkts {
		return a.agg.pkts > b.agg.pkts
	}
	if a.key.Port != b.key.Port {
		return a.key.Port < b.key.Port
	}
	return a.key.L4Proto < b.key.L4Proto
}

type portMinHeap []portCandidate

func (h portMinHeap) Len() int            { return len(h) }
func (h portMinHeap) Less(i, j int) bool  { return portBetter(h[j], h[i]) }
func (h portMinHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *portMinHeap) Push(x interface{}) { *h = append(*h, x.(portCandidate)) }
func (h *portMinHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func selectTopPorts(ports map[model.PortKey]*portAgg, k uint32) []portCandidate {
	if k == 0 {
		return nil
	}
	h := make(portMinHeap, 0, k)
	heap.Init(&h)

	for key, agg := range ports {
		cand := portCandidate{key: key, agg: *agg}
		if uint32(h.Len()) < k {
			heap.Push(&h, cand)
			continue
		}
		if portBetter(cand, h[0]) {
			h[0] = cand
			heap.Fix(&h, 0)
		}
	}

	result := make([]portCandidate, len(h))
	copy(result, h)
	sort.Slice(result, func(i, j int) bool { return portBetter(result[i], result[j]) })
	return result
}
