package bfe

import (
	"math"
	"testing"

	"github.com/go2netspectra/wfe/internal/config"
	"github.com/go2netspectra/wfe/internal/model"
)

// TestRollingBaselineScenario mirrors spec scenario 5: ten windows with
// packet_count 10,10,...,10,100 and R=5. Window 10's pct_change_packets
// should be (100-28)/29 ≈ 2.4828.
func TestRollingBaselineScenario(t *testing.T) {
	cfg := config.Default()
	cfg.RollingWindow = 5

	tr := NewTransformer(cfg)
	counts := []uint64{10, 10, 10, 10, 10, 10, 10, 10, 10, 100}

	var last model.FeatureRow
	for _, c := range counts {
		rec := model.WindowRecord{PacketCount: c}
		last = tr.Transform(rec)
	}

	want := 2.4828
	if math.Abs(last.PctChangePackets-want) > 1e-3 {
		t.Errorf("PctChangePackets = %v, want ≈ %v", last.PctChangePackets, want)
	}
}

func TestFirstWindowHasZeroPctChange(t *testing.T) {
	cfg := config.Default()
	tr := NewTransformer(cfg)
	row := tr.Transform(model.WindowRecord{PacketCount: 42, FlowCount: 3, BytesPerSec: 99})

	if row.PctChangePackets != 0 {
		t.Errorf("PctChangePackets = %v, want 0 on the first window", row.PctChangePackets)
	}
	if row.PctChangeFlows != 0 {
		t.Errorf("PctChangeFlows = %v, want 0 on the first window", row.PctChangeFlows)
	}
	if row.PctChangeBytesPS != 0 {
		t.Errorf("PctChangeBytesPS = %v, want 0 on the first window", row.PctChangeBytesPS)
	}
}

func TestLengthPreservation(t *testing.T) {
	cfg := config.Default()
	records := make([]model.WindowRecord, 7)
	for i := range records {
		records[i] = model.WindowRecord{PacketCount: uint64(i + 1)}
	}
	rows := ProcessAll(records, cfg)
	if len(rows) != len(records) {
		t.Fatalf("len(rows) = %d, want %d", len(rows), len(records))
	}
}

func TestNaNIsSanitizedToZero(t *testing.T) {
	cfg := config.Default()
	tr := NewTransformer(cfg)
	// A NaN average packet size makes packet_size_range 0/NaN = NaN; the
	// NaN policy must zero it.
	row := tr.Transform(model.WindowRecord{AvgPacketSize: math.NaN()})
	if row.PacketSizeRange != 0 {
		t.Errorf("PacketSizeRange = %v, want 0 after sanitization", row.PacketSizeRange)
	}
}

func TestProtocolDiversityExcludesOther(t *testing.T) {
	rec := model.WindowRecord{TCPRatio: 0.5, UDPRatio: 0.5, ICMPRatio: 0, OtherRatio: 10} // OtherRatio deliberately absurd
	got := protocolDiversity(rec)
	want := -(0.5*math.Log(0.5+1e-6) + 0.5*math.Log(0.5+1e-6))
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("protocolDiversity = %v, want %v (OtherRatio must not contribute)", got, want)
	}
}
