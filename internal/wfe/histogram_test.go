package wfe

import "testing"

func TestSizeHistogramBucketing(t *testing.T) {
	h := newSizeHistogram([]uint32{64, 128, 256})
	sizes := []uint32{10, 64, 100, 200, 1000}
	for _, s := range sizes {
		h.add(s)
	}
	labels := h.labels()

	want := map[string]uint64{
		"<64":   1, // 10
		"<128":  2, // 64, 100
		"<256":  1, // 200
		">=256": 1, // 1000
	}
	for k, v := range want {
		if labels[k] != v {
			t.Errorf("labels[%q] = %d, want %d (full: %v)", k, labels[k], v, labels)
		}
	}

	var total uint64
	for _, c := range labels {
		total += c
	}
	if total != uint64(len(sizes)) {
		t.Errorf("sum of bins = %d, want %d", total, len(sizes))
	}
}

func TestDurationHistogramBucketing(t *testing.T) {
	h := newDurationHistogram([]float64{0.1, 1, 10, 60})
	h.add(0.05)
	h.add(0.5)
	h.add(5)
	h.add(30)
	h.add(120)

	labels := h.labels()
	var total uint64
	for _, c := range labels {
		total += c
	}
	if total != 5 {
		t.Errorf("sum of bins = %d, want 5", total)
	}
	if labels[">=60"] != 1 {
		t.Errorf("open-ended bucket = %d, want 1", labels[">=60"])
	}
}
