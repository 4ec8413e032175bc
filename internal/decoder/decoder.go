// Package decoder is the Packet Decoder (spec §4.2): it turns one
// model.Packet into a model.Decoded record, walking Ethernet/VLAN framing
// down to the IPv4/IPv6 and TCP/UDP/ICMP headers.
//
// Grounded on the teacher's internal/engine/protocol.ParsePacket, generalized
// from "IPv4+TCP/UDP only, error otherwise" to the full spec contract: IPv6,
// ICMP, arbitrary L4 protocols, and non-IP/truncated frames all produce a
// Decoded record instead of an error, because every packet must be
// accounted for in exactly one window (spec §3 invariant).
package decoder

import (
	"net/netip"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/go2netspectra/wfe/internal/model"
)

// Decode turns a raw Packet into a Decoded record. truncated reports whether
// the frame was shorter than its headers declared; the caller is expected to
// fold that into an internal decode_errors counter (spec §4.2), never into
// the WindowRecord itself.
func Decode(pkt model.Packet) (dec model.Decoded, truncated bool) {
	dec.TSSeconds = pkt.TSSeconds
	dec.Size = pkt.WireLen
	dec.L3Proto = model.L3Other
	dec.L4Proto = model.L4Other

	packet := gopacket.NewPacket(pkt.LinkFrame, layers.LayerTypeEthernet, gopacket.DecodeOptions{
		Lazy:                     true,
		NoCopy:                   true,
		SkipDecodeRecovery:       true,
		DecodeStreamsAsDatagrams: true,
	})

	// Only a decode failure at or below the transport layer marks the frame
	// truncated. gopacket also decodes payloads by well-known port (DNS on
	// UDP/53, for one); a failure there leaves the TCP/UDP layer intact.
	if errLayer := packet.ErrorLayer(); errLayer != nil && packet.TransportLayer() == nil {
		truncated = true
	}

	ipLayer := packet.Layer(layers.LayerTypeIPv4)
	if ipLayer == nil {
		ipLayer = packet.Layer(layers.LayerTypeIPv6)
	}
	if ipLayer == nil {
		// Non-IP frame: counted as other, length-only, no addresses.
		return dec, truncated
	}

	switch v := ipLayer.(type) {
	case *layers.IPv4:
		dec.L3Proto = model.L3IPv4
		addr, ok := addrFromBytes(v.SrcIP)
		if !ok {
			return dec, true
		}
		dec.SrcIP = addr
		dstAddr, ok := addrFromBytes(v.DstIP)
		if !ok {
			return dec, true
		}
		dec.DstIP = dstAddr
		dec.HasIPs = true
		decodeL4(packet, &dec)
	case *layers.IPv6:
		dec.L3Proto = model.L3IPv6
		addr, ok := addrFromBytes(v.SrcIP)
		if !ok {
			return dec, true
		}
		dec.SrcIP = addr
		dstAddr, ok := addrFromBytes(v.DstIP)
		if !ok {
			return dec, true
		}
		dec.DstIP = dstAddr
		dec.HasIPs = true
		decodeL4(packet, &dec)
	}

	return dec, truncated
}

func decodeL4(packet gopacket.Packet, dec *model.Decoded) {
	if tcpLayer := packet.Layer(layers.LayerTypeTCP); tcpLayer != nil {
		tcp := tcpLayer.(*layers.TCP)
		dec.L4Proto = model.L4TCP
		dec.SrcPort = uint16(tcp.SrcPort)
		dec.DstPort = uint16(tcp.DstPort)
		dec.HasPorts = true
		dec.TCPFlags = tcpFlagByte(tcp)
		dec.TCPSeq = tcp.Seq
		dec.PayloadLen = uint32(len(tcp.LayerPayload()))
		return
	}
	if udpLayer := packet.Layer(layers.LayerTypeUDP); udpLayer != nil {
		udp := udpLayer.(*layers.UDP)
		dec.L4Proto = model.L4UDP
		dec.SrcPort = uint16(udp.SrcPort)
		dec.DstPort = uint16(udp.DstPort)
		dec.HasPorts = true
		return
	}
	if packet.Layer(layers.LayerTypeICMPv4) != nil || packet.Layer(layers.LayerTypeICMPv6) != nil {
		dec.L4Proto = model.L4ICMP
		return
	}

	dec.L4Proto = model.L4Other
	if netLayer := packet.NetworkLayer(); netLayer != nil {
		if ip4, ok := netLayer.(*layers.IPv4); ok {
			dec.L4ProtoNum = uint8(ip4.Protocol)
		} else if ip6, ok := netLayer.(*layers.IPv6); ok {
			dec.L4ProtoNum = uint8(ip6.NextHeader)
		}
	}
}

func tcpFlagByte(tcp *layers.TCP) uint8 {
	var flags uint8
	if tcp.FIN {
		flags |= model.TCPFlagFIN
	}
	if tcp.SYN {
		flags |= model.TCPFlagSYN
	}
	if tcp.RST {
		flags |= model.TCPFlagRST
	}
	if tcp.PSH {
		flags |= model.TCPFlagPSH
	}
	if tcp.ACK {
		flags |= model.TCPFlagACK
	}
	if tcp.URG {
		flags |= model.TCPFlagURG
	}
	return flags
}

func addrFromBytes(b []byte) (netip.Addr, bool) {
	switch len(b) {
	case 4:
		return netip.AddrFrom4([4]byte(b)), true
	case 16:
		return netip.AddrFrom16([16]byte(b)), true
	default:
		return netip.Addr{}, false
	}
}
