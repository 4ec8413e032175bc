package model

import "errors"

// Sentinel errors for the taxonomy in spec §7. Per-packet anomalies
// (DecodeSkipped, BudgetExceeded) are never surfaced as errors. Frozen
// diversity sets are counted in Stats.DiversityCapsFrozen; decode errors are
// counted by the DecodedSource that decodes the packets, not by Extract.
var (
	// ErrUsage is returned for invalid CLI arguments or configuration.
	ErrUsage = errors.New("usage error")

	// ErrUnsupportedContainer is returned when a pcapng file is given where
	// a classic pcap file is required.
	ErrUnsupportedContainer = errors.New("unsupported container: pcapng is not handled by this source")

	// ErrEmptyCapture is returned when a capture decodes to zero packets.
	ErrEmptyCapture = errors.New("empty capture: no packets decoded")

	// ErrNonMonotonicTimestamp is returned under the "reject" nonmonotonic
	// policy when a packet's timestamp is older than the current window.
	ErrNonMonotonicTimestamp = errors.New("packet timestamp precedes current window start")

	// ErrSourceIO wraps a read failure from the packet source.
	ErrSourceIO = errors.New("packet source read failure")

	// ErrSourceLimit is returned when a configured read timeout or
	// maximum-bytes guard is exceeded.
	ErrSourceLimit = errors.New("packet source limit exceeded")

	// ErrSinkError is returned when the WindowRecord sink cannot commit.
	ErrSinkError = errors.New("sink failed to commit record")
)
