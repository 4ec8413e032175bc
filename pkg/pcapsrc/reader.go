// Package pcapsrc is the Packet Source (spec §4.1): it turns a pcap file
// into a lazy, finite, non-restartable sequence of model.Packet values.
//
// It is built on gopacket's pure-Go pcapgo sub-package rather than the
// cgo/libpcap-backed gopacket/pcap package the teacher repo uses for live
// capture (cmd/ns-probe) — an offline, single-file reader has no need for a
// live capture handle, and a pure-Go decoder keeps this component free of a
// libpcap runtime dependency.
package pcapsrc

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcapgo"

	"github.com/go2netspectra/wfe/internal/model"
)

// pcapngMagic is the block-type of a pcapng Section Header Block, which
// occupies the same four leading bytes a classic pcap file uses for its
// magic number. Pcapng is explicitly out of scope here (spec §1, §4.1): the
// caller must convert upstream.
const pcapngMagic = 0x0A0D0D0A

// Reader streams Packet records from a pcap file in capture order. Memory
// usage is independent of file size: it never seeks and holds at most one
// packet's bytes at a time.
type Reader struct {
	file    *os.File
	counter *limitedReader
	inner   *pcapgo.Reader

	readTimeout time.Duration
}

// Option configures optional bounds on a Reader.
type Option func(*Reader)

// WithMaxBytesRead fails the source with model.ErrSourceLimit once more than
// n bytes have been read from the underlying file.
func WithMaxBytesRead(n int64) Option {
	return func(r *Reader) {
		if n > 0 {
			r.counter.limit = n
		}
	}
}

// WithReadTimeout fails a single ReadPacketData call with
// model.ErrSourceLimit if it takes longer than d.
func WithReadTimeout(d time.Duration) Option {
	return func(r *Reader) {
		r.readTimeout = d
	}
}

// NewReader opens filePath and validates its magic number. It returns
// model.ErrUnsupportedContainer for a pcapng file without reading further,
// and model.ErrSourceIO wrapping any other read failure.
func NewReader(filePath string, opts ...Option) (*Reader, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrSourceIO, err)
	}

	var magic [4]byte
	if _, err := io.ReadFull(f, magic[:]); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: reading magic number: %v", model.ErrSourceIO, err)
	}
	if binary.BigEndian.Uint32(magic[:]) == pcapngMagic || binary.LittleEndian.Uint32(magic[:]) == pcapngMagic {
		f.Close()
		return nil, model.ErrUnsupportedContainer
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", model.ErrSourceIO, err)
	}

	cr := &limitedReader{r: bufio.NewReader(f)}
	inner, err := pcapgo.NewReader(cr)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", model.ErrSourceIO, err)
	}

	r := &Reader{file: f, counter: cr, inner: inner}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Close releases the underlying file handle. Safe to call more than once.
func (r *Reader) Close() error {
	return r.file.Close()
}

// Next returns the next Packet in capture order, or io.EOF when the
// capture is exhausted. It never blocks past the configured read timeout.
func (r *Reader) Next() (model.Packet, error) {
	type result struct {
		data []byte
		ci   gopacket.CaptureInfo
		err  error
	}

	if r.readTimeout <= 0 {
		data, ci, err := r.inner.ReadPacketData()
		if err != nil {
			return model.Packet{}, r.classifyErr(err)
		}
		return toPacket(data, ci), nil
	}

	done := make(chan result, 1)
	go func() {
		data, ci, err := r.inner.ReadPacketData()
		done <- result{data: data, ci: ci, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return model.Packet{}, r.classifyErr(res.err)
		}
		return toPacket(res.data, res.ci), nil
	case <-time.After(r.readTimeout):
		return model.Packet{}, fmt.Errorf("%w: read timed out after %s", model.ErrSourceLimit, r.readTimeout)
	}
}

func (r *Reader) classifyErr(err error) error {
	if err == io.EOF {
		return io.EOF
	}
	if err == errLimitExceeded {
		return fmt.Errorf("%w: %v", model.ErrSourceLimit, err)
	}
	return fmt.Errorf("%w: %v", model.ErrSourceIO, err)
}

// toPacket copies a pcapgo read result into a model.Packet. WireLen must come
// from ci.Length, the pcap record's original on-wire length, not from
// len(data)/ci.CaptureLength: a capture taken with a snaplen shorter than the
// packet (e.g. "tcpdump -s 96") truncates data but must not understate any
// byte-denominated statistic downstream. LinkFrame legitimately holds only
// the captured bytes.
func toPacket(data []byte, ci gopacket.CaptureInfo) model.Packet {
	return model.Packet{
		TSSeconds: float64(ci.Timestamp.UnixNano()) / 1e9,
		WireLen:   uint32(ci.Length),
		LinkFrame: data,
	}
}

// limitedReader wraps a reader with a byte budget, returning errLimitExceeded
// once the budget is exhausted (spec §4.1's "maximum bytes-read guard").
type limitedReader struct {
	r     io.Reader
	limit int64 // 0 means unbounded
	read  int64
}

var errLimitExceeded = fmt.Errorf("maximum bytes-read guard exceeded")

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.limit > 0 && l.read >= l.limit {
		return 0, errLimitExceeded
	}
	if l.limit > 0 && l.read+int64(len(p)) > l.limit {
		p = p[:l.limit-l.read]
	}
	n, err := l.r.Read(p)
	l.read += int64(n)
	return n, err
}
