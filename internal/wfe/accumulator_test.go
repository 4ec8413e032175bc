package wfe

import (
	"math"
	"testing"

	"github.com/go2netspectra/wfe/internal/config"
)

func TestWindowAccumulatorSizeStats(t *testing.T) {
	cfg := config.Default()
	w := newWindowAccumulator(cfg, 0, nil)

	sizes := []uint32{100, 200, 300}
	for _, s := range sizes {
		w.add(tcpPacket(0, s, 1, 2, 1, 80))
	}

	if w.minSize != 100 {
		t.Errorf("minSize = %d, want 100", w.minSize)
	}
	if w.maxSize != 300 {
		t.Errorf("maxSize = %d, want 300", w.maxSize)
	}

	wantMean := 200.0
	if w.welfordMean != wantMean {
		t.Errorf("welfordMean = %v, want %v", w.welfordMean, wantMean)
	}

	wantStd := math.Sqrt(((100.0-200)*(100.0-200) + (200.0-200)*(200.0-200) + (300.0-200)*(300.0-200)) / 3)
	if got := w.stdDev(); math.Abs(got-wantStd) > 1e-9 {
		t.Errorf("stdDev() = %v, want %v", got, wantStd)
	}
}

func TestRetransmissionScopedToWindow(t *testing.T) {
	cfg := config.Default()
	w := newWindowAccumulator(cfg, 0, nil)

	p := tcpPacket(0, 100, 1, 2, 1, 80)
	p.TCPSeq, p.PayloadLen = 10, 20
	w.add(p)
	w.add(p) // exact duplicate within the same window

	if w.tcpRetransmissions != 1 {
		t.Errorf("tcpRetransmissions = %d, want 1", w.tcpRetransmissions)
	}
}

func TestNewFlowOpeningsCountsDistinctFlowsOnce(t *testing.T) {
	cfg := config.Default()
	w := newWindowAccumulator(cfg, 0, nil)

	w.add(tcpPacket(0, 100, 1, 2, 1, 80))
	w.add(tcpPacket(1, 100, 1, 2, 1, 80)) // same flow again
	w.add(tcpPacket(2, 100, 3, 4, 2, 80)) // distinct flow

	if w.newFlowOpenings != 2 {
		t.Errorf("newFlowOpenings = %d, want 2", w.newFlowOpenings)
	}
}
