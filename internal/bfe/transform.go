package bfe

import (
	"math"

	"github.com/go2netspectra/wfe/internal/config"
	"github.com/go2netspectra/wfe/internal/model"
)

// Transformer holds the rolling-baseline state across a WindowRecord
// sequence (spec §4.4): one roller per baseline ("pure function modulo a
// rolling-window parameter R"). A fresh Transformer must be used per
// capture — it is not safe to reuse across unrelated sequences.
type Transformer struct {
	packets   *roller
	bytesPS   *roller
	flows     *roller
}

// NewTransformer builds a Transformer with rolling window length
// cfg.RollingWindow (default 10).
func NewTransformer(cfg *config.Config) *Transformer {
	r := cfg.RollingWindow
	if r < 1 {
		r = 1
	}
	return &Transformer{
		packets: newRoller(r),
		bytesPS: newRoller(r),
		flows:   newRoller(r),
	}
}

// Transform consumes the next model.WindowRecord in sequence and returns its
// FeatureRow, updating the rolling baselines. Calls must be made in window
// order (spec §5 "BFE must process them in the same order").
func (t *Transformer) Transform(rec model.WindowRecord) model.FeatureRow {
	n := float64(rec.PacketCount)

	rp := t.packets.push(n)
	rb := t.bytesPS.push(rec.BytesPerSec)
	rf := t.flows.push(float64(rec.FlowCount))

	row := model.FeatureRow{
		WindowStart:      rec.WindowStart,
		WindowEnd:        rec.WindowEnd,
		LogPacketCount:   math.Log1p(n),
		BytesPerPacket:   float64(rec.TotalBytes) / math.Max(n, 1),
		PctChangePackets: (n - rp) / (rp + 1),
		PctChangeBytesPS: (rec.BytesPerSec - rb) / (rb + 1),
		PctChangeFlows:   (float64(rec.FlowCount) - rf) / (rf + 1),
		TCPRatio:         rec.TCPRatio,
		UDPRatio:         rec.UDPRatio,
		ICMPRatio:        rec.ICMPRatio,
		SrcIPsPerPacket:  float64(rec.UniqueSrcIPs) / (n + 1),
		DstIPsPerPacket:  float64(rec.UniqueDstIPs) / (n + 1),
		FlowPerPacket:    float64(rec.FlowCount) / (n + 1),
		ProtocolDiversity: protocolDiversity(rec),
		PacketSizeRange:  (float64(rec.MaxPacketSize) - float64(rec.MinPacketSize)) / (rec.AvgPacketSize + 1),
	}

	return sanitize(row)
}

// protocolDiversity is the Shannon entropy over the tcp/udp/icmp ratios only
// — "other" is intentionally excluded (spec §4.4, §9).
func protocolDiversity(rec model.WindowRecord) float64 {
	const eps = 1e-6
	h := 0.0
	for _, r := range []float64{rec.TCPRatio, rec.UDPRatio, rec.ICMPRatio} {
		h -= r * math.Log(r+eps)
	}
	return h
}

// sanitize replaces any non-finite field with 0 (spec §4.4 "NaN/Inf
// policy"), deterministically.
func sanitize(row model.FeatureRow) model.FeatureRow {
	fix := func(x float64) float64 {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0
		}
		return x
	}
	row.LogPacketCount = fix(row.LogPacketCount)
	row.BytesPerPacket = fix(row.BytesPerPacket)
	row.PctChangePackets = fix(row.PctChangePackets)
	row.PctChangeBytesPS = fix(row.PctChangeBytesPS)
	row.PctChangeFlows = fix(row.PctChangeFlows)
	row.TCPRatio = fix(row.TCPRatio)
	row.UDPRatio = fix(row.UDPRatio)
	row.ICMPRatio = fix(row.ICMPRatio)
	row.SrcIPsPerPacket = fix(row.SrcIPsPerPacket)
	row.DstIPsPerPacket = fix(row.DstIPsPerPacket)
	row.FlowPerPacket = fix(row.FlowPerPacket)
	row.ProtocolDiversity = fix(row.ProtocolDiversity)
	row.PacketSizeRange = fix(row.PacketSizeRange)
	return row
}

// ProcessAll runs a fresh Transformer over a complete, ordered
// WindowRecord sequence and returns the FeatureRow sequence of the same
// length (spec §8 "Length preservation").
func ProcessAll(records []model.WindowRecord, cfg *config.Config) []model.FeatureRow {
	t := NewTransformer(cfg)
	rows := make([]model.FeatureRow, len(records))
	for i, rec := range records {
		rows[i] = t.Transform(rec)
	}
	return rows
}
