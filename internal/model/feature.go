package model

// FeatureRow is the Behavioral Feature Engineering output for one window: a
// scale-robust vector consumed by the Scorer Adapter. One row is produced per
// input WindowRecord, in the same order.
type FeatureRow struct {
	WindowStart float64 `json:"window_start"`
	WindowEnd   float64 `json:"window_end"`

	LogPacketCount    float64 `json:"log_packet_count"`
	BytesPerPacket    float64 `json:"bytes_per_packet"`
	PctChangePackets  float64 `json:"pct_change_packets"`
	PctChangeBytesPS  float64 `json:"pct_change_bytes_ps"`
	PctChangeFlows    float64 `json:"pct_change_flows"`
	TCPRatio          float64 `json:"tcp_ratio"`
	UDPRatio          float64 `json:"udp_ratio"`
	ICMPRatio         float64 `json:"icmp_ratio"`
	SrcIPsPerPacket   float64 `json:"src_ips_per_packet"`
	DstIPsPerPacket   float64 `json:"dst_ips_per_packet"`
	FlowPerPacket     float64 `json:"flow_per_packet"`
	ProtocolDiversity float64 `json:"protocol_diversity"`
	PacketSizeRange   float64 `json:"packet_size_range"`
}

// Columns returns the fixed column order the Scorer Adapter selects (§4.5).
// The order is part of the contract with the external detector: changing it
// changes what the detector's trained weights mean.
func (r FeatureRow) Columns() []float64 {
	return []float64{
		r.LogPacketCount,
		r.BytesPerPacket,
		r.PctChangePackets,
		r.PctChangeBytesPS,
		r.PctChangeFlows,
		r.TCPRatio,
		r.UDPRatio,
		r.ICMPRatio,
		r.SrcIPsPerPacket,
		r.DstIPsPerPacket,
		r.FlowPerPacket,
		r.ProtocolDiversity,
		r.PacketSizeRange,
	}
}

// ColumnNames names the columns in the same order as Columns, for
// attribution reporting.
var ColumnNames = []string{
	"log_packet_count",
	"bytes_per_packet",
	"pct_change_packets",
	"pct_change_bytes_ps",
	"pct_change_flows",
	"tcp_ratio",
	"udp_ratio",
	"icmp_ratio",
	"src_ips_per_packet",
	"dst_ips_per_packet",
	"flow_per_packet",
	"protocol_diversity",
	"packet_size_range",
}
