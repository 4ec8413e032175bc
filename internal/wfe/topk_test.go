package wfe

import (
	"net/netip"
	"testing"

	"github.com/go2netspectra/wfe/internal/model"
)

func flowKey(srcLastOctet byte, port uint16) model.FlowKey {
	return model.FlowKey{
		SrcIP:   netip.AddrFrom4([4]byte{10, 0, 0, srcLastOctet}),
		SrcPort: port,
		DstIP:   netip.AddrFrom4([4]byte{10, 0, 1, 1}),
		DstPort: 80,
		L4Proto: model.L4TCP,
	}
}

// TestSelectTopFlowsTieBreak mirrors spec scenario 3: three flows with bytes
// 1000, 1000, 500 and top_k_flows=2. The two 1000-byte flows are chosen;
// between them, ordering follows (pkts desc, FlowKey lex asc).
func TestSelectTopFlowsTieBreak(t *testing.T) {
	keyA := flowKey(1, 100) // 1000 bytes, 5 pkts
	keyB := flowKey(2, 200) // 1000 bytes, 3 pkts
	keyC := flowKey(3, 300) // 500 bytes

	flows := map[model.FlowKey]*flowAgg{
		keyA: {bytes: 1000, pkts: 5},
		keyB: {bytes: 1000, pkts: 3},
		keyC: {bytes: 500, pkts: 1},
	}

	got := selectTopFlows(flows, 2)
	if len(got) != 2 {
		t.Fatalf("selectTopFlows returned %d entries, want 2", len(got))
	}
	if got[0].key != keyA {
		t.Errorf("first entry should be the 5-pkt 1000-byte flow (higher pkts wins the tie)")
	}
	if got[1].key != keyB {
		t.Errorf("second entry should be the 3-pkt 1000-byte flow")
	}
	for _, c := range got {
		if c.key == keyC {
			t.Error("the 500-byte flow should not be selected with top_k_flows=2")
		}
	}
}

func TestSelectTopFlowsDeterministicOnExactTie(t *testing.T) {
	keyLow := flowKey(1, 1)
	keyHigh := flowKey(2, 1)
	flows := map[model.FlowKey]*flowAgg{
		keyLow:  {bytes: 100, pkts: 1},
		keyHigh: {bytes: 100, pkts: 1},
	}
	got := selectTopFlows(flows, 1)
	if len(got) != 1 {
		t.Fatalf("want 1 result, got %d", len(got))
	}
	if got[0].key != keyLow {
		t.Errorf("expected lexicographically smaller FlowKey to win a full tie, got %+v", got[0].key)
	}
}

func TestSelectTopFlowsZeroKReturnsEmpty(t *testing.T) {
	flows := map[model.FlowKey]*flowAgg{flowKey(1, 1): {bytes: 1, pkts: 1}}
	if got := selectTopFlows(flows, 0); len(got) != 0 {
		t.Errorf("selectTopFlows(k=0) = %v, want empty", got)
	}
}

func TestSelectTopPortsOrdering(t *testing.T) {
	ports := map[model.PortKey]*portAgg{
		{Port: 80, L4Proto: model.L4TCP}:  {bytes: 500, pkts: 2},
		{Port: 443, L4Proto: model.L4TCP}: {bytes: 900, pkts: 1},
		{Port: 53, L4Proto: model.L4UDP}:  {bytes: 100, pkts: 1},
	}
	got := selectTopPorts(ports, 2)
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if got[0].key.Port != 443 {
		t.Errorf("highest-byte port should rank first, got %d", got[0].key.Port)
	}
	if got[1].key.Port != 80 {
		t.Errorf("second place should be port 80, got %d", got[1].key.Port)
	}
}
