// Package obs carries the ambient observability surface for internal
// signals spec.md deliberately keeps off the WindowRecord: decode errors,
// clamped timestamps, and frozen diversity estimators (§4.1, §4.2, §7).
//
// Grounded on the teacher's log.Printf-at-milestones idiom, enriched with
// Prometheus counters/gauges (github.com/prometheus/client_golang, pulled in
// from grimm-is-glacic) so these internal-only signals are still visible to
// an operator without polluting the feature schema the detector consumes.
package obs

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the counters/gauges exposed by one Extract run. Callers
// that don't care about observability can use NewMetrics(nil) to get a
// functional-but-unregistered set.
type Metrics struct {
	DecodeErrors        prometheus.Counter
	NonMonotonicClamped prometheus.Counter
	DiversityCapsFrozen prometheus.Counter
	WindowsEmitted      prometheus.Counter
}

// NewMetrics creates a Metrics bundle and registers it with reg, unless reg
// is nil, in which case the counters are still usable but not exported.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DecodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wfe",
			Name:      "decode_errors_total",
			Help:      "Packets that failed to fully decode (truncated frames), counted but never aborting.",
		}),
		NonMonotonicClamped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wfe",
			Name:      "nonmonotonic_clamped_total",
			Help:      "Packets whose timestamp preceded the current window and were clamped under the clamp policy.",
		}),
		DiversityCapsFrozen: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wfe",
			Name:      "diversity_caps_frozen_total",
			Help:      "Times a window's IP diversity set hit unique_ip_cap and froze to an estimator.",
		}),
		WindowsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wfe",
			Name:      "windows_emitted_total",
			Help:      "WindowRecords emitted across all Extract runs in this process.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.DecodeErrors, m.NonMonotonicClamped, m.DiversityCapsFrozen, m.WindowsEmitted)
	}
	return m
}
