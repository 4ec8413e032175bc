// Command extractor is the CLI surface of the Windowed Feature Extraction
// Engine and Behavioral Feature Engineering transform (spec §6):
//
//	extractor <input.pcap> <output.json> [--window-seconds F] [--top-k-flows N] [--top-k-ports N]
//
// Exit codes: 0 success, 2 usage error, 3 unsupported container (pcapng),
// 4 source I/O error, 5 empty capture.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"github.com/go2netspectra/wfe/internal/bfe"
	"github.com/go2netspectra/wfe/internal/config"
	"github.com/go2netspectra/wfe/internal/decoder"
	"github.com/go2netspectra/wfe/internal/model"
	"github.com/go2netspectra/wfe/internal/obs"
	"github.com/go2netspectra/wfe/internal/scorer"
	"github.com/go2netspectra/wfe/internal/sink"
	"github.com/go2netspectra/wfe/internal/wfe"
	"github.com/go2netspectra/wfe/pkg/pcapsrc"
)

const (
	exitOK                   = 0
	exitUsageError           = 2
	exitUnsupportedContainer = 3
	exitSourceError          = 4
	exitEmptyCapture         = 5
)

func main() {
	runID := uuid.New().String()
	os.Exit(run(runID, os.Args[1:]))
}

func run(runID string, args []string) int {
	fs := flag.NewFlagSet("extractor", flag.ContinueOnError)

	configPath := fs.String("config", "", "optional YAML config overlay on top of compiled-in defaults")
	windowSeconds := fs.Float64("window-seconds", 0, "window duration in seconds (overrides config/default)")
	topKFlows := fs.Uint32("top-k-flows", 0, "number of largest flows by bytes to retain per window (overrides config/default)")
	topKPorts := fs.Uint32("top-k-ports", 0, "number of largest ports by bytes to retain per window (overrides config/default)")
	rollingWindow := fs.Int("rolling-window", 0, "BFE rolling-baseline window R (overrides config/default)")
	maxBytesRead := fs.Int64("max-bytes-read", 0, "abort the packet source after reading this many bytes (0 = unbounded)")
	readTimeout := fs.Duration("read-timeout", 0, "abort a single packet read after this long (0 = unbounded)")
	featuresOut := fs.String("features-out", "", "optional path to also write the BFE FeatureRow sequence as JSON")
	metricsAddr := fs.String("metrics-addr", "", "optional host:port to serve Prometheus metrics on while running")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: extractor <input.pcap> <output.json> [flags]\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsageError
	}

	if fs.NArg() != 2 {
		fs.Usage()
		return exitUsageError
	}
	inputPath, outputPath := fs.Arg(0), fs.Arg(1)

	cfg := config.Default()
	if *configPath != "" {
		if err := config.LoadYAML(cfg, *configPath); err != nil {
			log.Printf("[%s] %v", runID, err)
			return exitUsageError
		}
	}
	if fs.Changed("window-seconds") {
		cfg.WindowSeconds = *windowSeconds
	}
	if fs.Changed("top-k-flows") {
		cfg.TopKFlows = *topKFlows
	}
	if fs.Changed("top-k-ports") {
		cfg.TopKPorts = *topKPorts
	}
	if fs.Changed("rolling-window") {
		cfg.RollingWindow = *rollingWindow
	}
	if fs.Changed("max-bytes-read") {
		cfg.MaxBytesRead = *maxBytesRead
	}
	if fs.Changed("read-timeout") {
		cfg.ReadTimeoutSeconds = readTimeout.Seconds()
	}

	if err := cfg.Validate(); err != nil {
		log.Printf("[%s] invalid configuration: %v", runID, err)
		return exitUsageError
	}

	var registry *prometheus.Registry
	if *metricsAddr != "" {
		registry = prometheus.NewRegistry()
		go serveMetrics(runID, *metricsAddr, registry)
	}
	metrics := obs.NewMetrics(registry)

	reader, err := pcapsrc.NewReader(inputPath,
		pcapsrc.WithMaxBytesRead(cfg.MaxBytesRead),
		pcapsrc.WithReadTimeout(time.Duration(cfg.ReadTimeoutSeconds*float64(time.Second))),
	)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrUnsupportedContainer):
			log.Printf("[%s] %v", runID, err)
			return exitUnsupportedContainer
		default:
			log.Printf("[%s] %v", runID, err)
			return exitSourceError
		}
	}
	defer reader.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src := &decodedSource{reader: reader, metrics: metrics}
	records := &sink.MemoryRecordSink{}

	log.Printf("[%s] extracting %s (window=%vs, top_k_flows=%d, top_k_ports=%d)", runID, inputPath, cfg.WindowSeconds, cfg.TopKFlows, cfg.TopKPorts)
	stats, err := wfe.Extract(ctx, src, records, cfg, metrics)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrEmptyCapture):
			log.Printf("[%s] %v", runID, err)
			return exitEmptyCapture
		case errors.Is(err, model.ErrUnsupportedContainer):
			log.Printf("[%s] %v", runID, err)
			return exitUnsupportedContainer
		case errors.Is(err, model.ErrSourceIO), errors.Is(err, model.ErrSourceLimit):
			log.Printf("[%s] %v", runID, err)
			return exitSourceError
		case errors.Is(err, model.ErrNonMonotonicTimestamp):
			log.Printf("[%s] %v", runID, err)
			return exitSourceError
		case errors.Is(err, model.ErrSinkError):
			log.Printf("[%s] %v", runID, err)
			return exitSourceError
		default:
			log.Printf("[%s] %v", runID, err)
			return exitSourceError
		}
	}
	log.Printf("[%s] windows=%d packets=%d decode_errors=%d nonmonotonic_clamped=%d diversity_caps_frozen=%d",
		runID, stats.WindowsEmitted, stats.PacketsSeen, src.decodeErrors, stats.NonMonotonicClamped, stats.DiversityCapsFrozen)

	writer, err := sink.NewRecordWriter(outputPath)
	if err != nil {
		log.Printf("[%s] %v", runID, err)
		return exitSourceError
	}
	for _, rec := range records.Records {
		if err := writer.Write(rec); err != nil {
			writer.Close()
			log.Printf("[%s] %v", runID, err)
			return exitSourceError
		}
	}
	if err := writer.Close(); err != nil {
		log.Printf("[%s] %v", runID, err)
		return exitSourceError
	}

	rows := bfe.ProcessAll(records.Records, cfg)
	if *featuresOut != "" {
		fw, err := sink.NewFeatureWriter(*featuresOut)
		if err != nil {
			log.Printf("[%s] %v", runID, err)
			return exitSourceError
		}
		for _, row := range rows {
			if err := fw.Write(row); err != nil {
				fw.Close()
				log.Printf("[%s] %v", runID, err)
				return exitSourceError
			}
		}
		if err := fw.Close(); err != nil {
			log.Printf("[%s] %v", runID, err)
			return exitSourceError
		}
	}

	// No trained detector ships with this module (spec §1: the scorer is an
	// external collaborator). NullScorer lets the pipeline run end-to-end
	// for inspection; a real deployment wires in its own model.Scorer here.
	results, err := scorer.Run(scorer.NullScorer{}, rows)
	if err != nil {
		log.Printf("[%s] scorer: %v", runID, err)
	} else {
		anomalies := 0
		for _, r := range results {
			if r.Label == -1 {
				anomalies++
			}
		}
		log.Printf("[%s] scored %d windows, %d flagged anomalous", runID, len(results), anomalies)
	}

	log.Printf("[%s] wrote %s", runID, outputPath)
	return exitOK
}

func serveMetrics(runID, addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	log.Printf("[%s] serving metrics on %s/metrics", runID, addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Printf("[%s] metrics server: %v", runID, err)
	}
}

// decodedSource adapts a pcapsrc.Reader into a wfe.DecodedSource, decoding
// each Packet and folding truncated frames into the decode-error counters
// (spec §4.2) rather than surfacing them — only source-level failures
// propagate as errors.
type decodedSource struct {
	reader       *pcapsrc.Reader
	metrics      *obs.Metrics
	decodeErrors uint64
}

func (s *decodedSource) Next() (model.Decoded, error) {
	pkt, err := s.reader.Next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return model.Decoded{}, io.EOF
		}
		return model.Decoded{}, err
	}
	dec, truncated := decoder.Decode(pkt)
	if truncated {
		s.decodeErrors++
		s.metrics.DecodeErrors.Inc()
	}
	return dec, nil
}
