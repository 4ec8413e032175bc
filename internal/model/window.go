package model

// FlowSummary is the serialized view of a flow selected into a WindowRecord's
// top-K list.
type FlowSummary struct {
	SrcIP           string  `json:"src_ip"`
	DstIP           string  `json:"dst_ip"`
	SrcPort         uint16  `json:"src_port"`
	DstPort         uint16  `json:"dst_port"`
	Protocol        string  `json:"protocol"`
	PacketCount     uint64  `json:"packet_count"`
	TotalBytes      uint64  `json:"total_bytes"`
	DurationSeconds float64 `json:"duration_seconds"`
	StartTimestamp  float64 `json:"start_timestamp"`
	EndTimestamp    float64 `json:"end_timestamp"`
}

// PortSummary is the serialized view of a port selected into a WindowRecord's
// top-K list.
type PortSummary struct {
	Port        uint16 `json:"port"`
	Protocol    string `json:"protocol"`
	PacketCount uint64 `json:"packet_count"`
	TotalBytes  uint64 `json:"total_bytes"`
}

// WindowRecord is the immutable record emitted once per closed window.
type WindowRecord struct {
	WindowStart float64 `json:"window_start"`
	WindowEnd   float64 `json:"window_end"`

	PacketCount uint64 `json:"packet_count"`
	TotalBytes  uint64 `json:"total_bytes"`

	TCPCount   uint64 `json:"tcp_count"`
	UDPCount   uint64 `json:"udp_count"`
	ICMPCount  uint64 `json:"icmp_count"`
	OtherCount uint64 `json:"other_count"`

	TCPRatio   float64 `json:"tcp_ratio"`
	UDPRatio   float64 `json:"udp_ratio"`
	ICMPRatio  float64 `json:"icmp_ratio"`
	OtherRatio float64 `json:"other_ratio"`

	SYNCount              uint64 `json:"syn_count"`
	ACKCount              uint64 `json:"ack_count"`
	FINCount              uint64 `json:"fin_count"`
	RSTCount              uint64 `json:"rst_count"`
	PSHCount              uint64 `json:"psh_count"`
	URGCount              uint64 `json:"urg_count"`
	TCPRetransmissions    uint64 `json:"tcp_retransmissions"`

	AvgPacketSize float64 `json:"avg_packet_size"`
	MinPacketSize uint32  `json:"min_packet_size"`
	MaxPacketSize uint32  `json:"max_packet_size"`
	PacketSizeStd float64 `json:"packet_size_std"`

	UniqueSrcIPs   uint64  `json:"unique_src_ips"`
	UniqueDstIPs   uint64  `json:"unique_dst_ips"`
	UniqueSrcRatio float64 `json:"unique_src_ratio"`
	UniqueDstRatio float64 `json:"unique_dst_ratio"`

	FlowCount      uint64  `json:"flow_count"`
	FlowRatio      float64 `json:"flow_ratio"`
	AvgFlowPackets float64 `json:"avg_flow_packets"`
	AvgFlowBytes   float64 `json:"avg_flow_bytes"`

	PacketsPerSec float64 `json:"packets_per_sec"`
	BytesPerSec   float64 `json:"bytes_per_sec"`

	PortDiversity      uint64  `json:"port_diversity"`
	AvgInterArrival    float64 `json:"avg_inter_arrival_time"`
	ConnectionRate     float64 `json:"connection_rate"`

	PacketSizeDistribution  map[string]uint64 `json:"packet_size_distribution"`
	FlowDurationDistribution map[string]uint64 `json:"flow_duration_distribution"`

	TopFlows []FlowSummary `json:"top_flows"`
	TopPorts []PortSummary `json:"top_ports"`
}

// Stats summarizes one Extract() run: counts useful for observability that
// never appear on a WindowRecord itself (§4.2, §7).
type Stats struct {
	WindowsEmitted       uint64
	PacketsSeen          uint64
	// DecodeErrors is left at zero by Extract, which only sees records that
	// are already decoded.
	DecodeErrors         uint64
	NonMonotonicClamped  uint64
	DiversityCapsFrozen  uint64
}
