package wfe

import (
	"math"

	"github.com/go2netspectra/wfe/internal/config"
	"github.com/go2netspectra/wfe/internal/model"
)

// flowAgg is the mutable per-flow counter kept inside an open window.
type flowAgg struct {
	pkts    uint64
	bytes   uint64
	firstTS float64
	lastTS  float64
}

// portAgg is the mutable per-destination-port counter kept inside an open
// window (spec §4.3: only the destination port is tracked).
type portAgg struct {
	pkts  uint64
	bytes uint64
}

// retransKey identifies a single TCP segment for the duplicate-segment
// heuristic (spec §4.3): an exact match of (flow, seq, payload length) seen
// twice within the same window counts as one retransmission.
type retransKey struct {
	flow model.FlowKey
	seq  uint32
	plen uint32
}

// windowAccumulator is the mutable state of one open window. It is created
// at window open and sealed into a model.WindowRecord at close; nothing
// mutates it afterward (spec §3 invariant).
type windowAccumulator struct {
	cfg *config.Config

	windowStart float64
	windowEnd   float64

	packetCount uint64
	totalBytes  uint64

	tcpCount, udpCount, icmpCount, otherCount uint64
	synCount, ackCount, finCount, rstCount, pshCount, urgCount uint64
	tcpRetransmissions uint64

	minSize uint32
	maxSize uint32
	// Welford's online mean/variance.
	welfordMean float64
	welfordM2   float64

	sizeHist *sizeHistogram

	uniqueSrcIPs *diversitySet
	uniqueDstIPs *diversitySet

	flows map[model.FlowKey]*flowAgg
	ports map[model.PortKey]*portAgg

	seenSegments map[retransKey]struct{}

	newFlowOpenings uint64

	lastPacketTS     float64
	havePacketTS     bool
	interArrivalSum  float64
}

func newWindowAccumulator(cfg *config.Config, start float64, onIPCapFreeze func()) *windowAccumulator {
	end := start + cfg.WindowSeconds
	srcSet := newDiversitySet(cfg.UniqueIPCap)
	dstSet := newDiversitySet(cfg.UniqueIPCap)
	srcSet.onFreeze = onIPCapFreeze
	dstSet.onFreeze = onIPCapFreeze

	return &windowAccumulator{
		cfg:          cfg,
		windowStart:  start,
		windowEnd:    end,
		sizeHist:     newSizeHistogram(cfg.SizeBinEdges),
		uniqueSrcIPs: srcSet,
		uniqueDstIPs: dstSet,
		flows:        make(map[model.FlowKey]*flowAgg),
		ports:        make(map[model.PortKey]*portAgg),
		seenSegments: make(map[retransKey]struct{}),
	}
}

// add updates the accumulator with one decoded packet. Caller guarantees
// dec.TSSeconds falls within [windowStart, windowEnd).
func (w *windowAccumulator) add(dec model.Decoded) {
	w.packetCount++
	w.totalBytes += uint64(dec.Size)

	if w.packetCount == 1 {
		w.minSize = dec.Size
		w.maxSize = dec.Size
	} else {
		if dec.Size < w.minSize {
			w.minSize = dec.Size
		}
		if dec.Size > w.maxSize {
			w.maxSize = dec.Size
		}
	}
	w.updateWelford(float64(dec.Size))
	w.sizeHist.add(dec.Size)

	switch dec.L4Proto {
	case model.L4TCP:
		w.tcpCount++
	case model.L4UDP:
		w.udpCount++
	case model.L4ICMP:
		w.icmpCount++
	default:
		w.otherCount++
	}

	if dec.L4Proto == model.L4TCP {
		w.addTCPFlags(dec.TCPFlags)
	}

	if dec.HasIPs {
		w.uniqueSrcIPs.add(dec.SrcIP)
		w.uniqueDstIPs.add(dec.DstIP)
	}

	// Every packet belongs to exactly one flow, even non-IP frames: they
	// carry no addresses or ports, so they all share one FlowKey (zero
	// addresses and ports, L4Proto Other), which still satisfies
	// sum(flow.pkts) == packet_count (spec §3 invariant).
	flowKey := model.FlowKey{
		SrcIP:   dec.SrcIP,
		SrcPort: dec.SrcPort,
		DstIP:   dec.DstIP,
		DstPort: dec.DstPort,
		L4Proto: dec.L4Proto,
	}
	w.addFlow(flowKey, dec)

	if dec.L4Proto == model.L4TCP || dec.L4Proto == model.L4UDP {
		w.addPort(model.PortKey{Port: dec.DstPort, L4Proto: dec.L4Proto}, dec.Size)
	}

	if dec.L4Proto == model.L4TCP {
		w.checkRetransmission(dec)
	}

	if w.havePacketTS {
		w.interArrivalSum += dec.TSSeconds - w.lastPacketTS
	}
	w.lastPacketTS = dec.TSSeconds
	w.havePacketTS = true
}

func (w *windowAccumulator) updateWelford(x float64) {
	n := float64(w.packetCount)
	delta := x - w.welfordMean
	w.welfordMean += delta / n
	delta2 := x - w.welfordMean
	w.welfordM2 += delta * delta2
}

func (w *windowAccumulator) addTCPFlags(flags uint8) {
	if flags&model.TCPFlagSYN != 0 {
		w.synCount++
	}
	if flags&model.TCPFlagACK != 0 {
		w.ackCount++
	}
	if flags&model.TCPFlagFIN != 0 {
		w.finCount++
	}
	if flags&model.TCPFlagRST != 0 {
		w.rstCount++
	}
	if flags&model.TCPFlagPSH != 0 {
		w.pshCount++
	}
	if flags&model.TCPFlagURG != 0 {
		w.urgCount++
	}
}

func (w *windowAccumulator) addFlow(key model.FlowKey, dec model.Decoded) {
	agg, ok := w.flows[key]
	if !ok {
		w.flows[key] = &flowAgg{
			pkts:    1,
			bytes:   uint64(dec.Size),
			firstTS: dec.TSSeconds,
			lastTS:  dec.TSSeconds,
		}
		w.newFlowOpenings++
		return
	}
	agg.pkts++
	agg.bytes += uint64(dec.Size)
	agg.lastTS = dec.TSSeconds
}

func (w *windowAccumulator) addPort(key model.PortKey, size uint32) {
	agg, ok := w.ports[key]
	if !ok {
		w.ports[key] = &portAgg{pkts: 1, bytes: uint64(size)}
		return
	}
	agg.pkts++
	agg.bytes += uint64(size)
}

func (w *windowAccumulator) checkRetransmission(dec model.Decoded) {
	key := retransKey{
		flow: model.FlowKey{
			SrcIP:   dec.SrcIP,
			SrcPort: dec.SrcPort,
			DstIP:   dec.DstIP,
			DstPort: dec.DstPort,
			L4Proto: dec.L4Proto,
		},
		seq:  dec.TCPSeq,
		plen: dec.PayloadLen,
	}
	if _, seen := w.seenSegments[key]; seen {
		w.tcpRetransmissions++
		return
	}
	w.seenSegments[key] = struct{}{}
}

// stdDev returns the Welford-derived population standard deviation.
func (w *windowAccumulator) stdDev() float64 {
	if w.packetCount == 0 {
		return 0
	}
	return math.Sqrt(w.welfordM2 / float64(w.packetCount))
}
