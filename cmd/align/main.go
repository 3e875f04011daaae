// Command align builds the session time basis for a nidaq recording. It
// extracts the sync line from the raw .bin, detects pulse onsets, and
// interpolates the reference sync timestamps across the stream, writing
// the per-sample time vector as a .npy array. With -pulse-channel it also
// detects stimulus pulses on an analog channel and writes their onset
// times on the new basis.
//
// Usage:
//
//	go run ./cmd/align [flags]
//
// Flags:
//
//	-config         Path to pipeline JSON config (optional)
//	-bin            Raw nidaq .bin recording (or use -mouse/-gate)
//	-mouse          Mouse identifier, resolved under the configured raw root
//	-gate           Gate index for -mouse resolution (default: 0)
//	-sync-times     .npy of reference sync pulse times in seconds (required)
//	-pulse-channel  Analog channel to scan for stimulus pulses (default: off)
//	-out            Output .npy path for the time vector (default: tvec.npy)
package main

import (
	"errors"
	"flag"
	"log"
	"math"

	"github.com/crescent-data/ephys.report/internal/config"
	"github.com/crescent-data/ephys.report/internal/npy"
	"github.com/crescent-data/ephys.report/internal/sglx"
	"github.com/crescent-data/ephys.report/internal/sigproc"
)

func main() {
	configPath := flag.String("config", "", "Path to pipeline JSON config")
	binPath := flag.String("bin", "", "Raw nidaq .bin recording")
	mouse := flag.String("mouse", "", "Mouse identifier, resolved under the configured raw root")
	gate := flag.Int("gate", 0, "Gate index for -mouse resolution")
	syncPath := flag.String("sync-times", "", ".npy of reference sync pulse times (seconds)")
	pulseChannel := flag.Int("pulse-channel", -1, "Analog channel to scan for stimulus pulses")
	outPath := flag.String("out", "tvec.npy", "Output .npy path for the time vector")
	flag.Parse()

	if *syncPath == "" {
		log.Fatal("Error: -sync-times flag is required")
	}
	if *binPath == "" && *mouse == "" {
		log.Fatal("Error: either -bin or -mouse is required")
	}

	cfg := &config.PipelineConfig{}
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	if *binPath == "" {
		resolved, err := sglx.FindNIBin(cfg.GetRawRoot(), *mouse, *gate)
		if err != nil {
			log.Fatalf("Failed to locate nidaq recording: %v", err)
		}
		*binPath = resolved
		log.Printf("Resolved %s gate %d to %s", *mouse, *gate, *binPath)
	}

	rec, err := sglx.Open(*binPath)
	if err != nil {
		log.Fatalf("Failed to open recording: %v", err)
	}
	log.Printf("Opened %s: %d channels, %d samples at %.0f Hz",
		*binPath, rec.NChans(), rec.NSamples(), rec.SampRate())

	syncArr, err := npy.ReadFile(*syncPath)
	if err != nil {
		log.Fatalf("Failed to read sync times: %v", err)
	}

	bit, err := rec.DigitalBit(cfg.GetSyncChannel(), cfg.GetSyncBit())
	if err != nil {
		log.Fatalf("Failed to extract sync line: %v", err)
	}
	// Render the line as a TTL-like trace so pulse highs clear the
	// detection threshold.
	xSync := make([]float64, len(bit))
	for i, b := range bit {
		if b {
			xSync[i] = 5
		}
	}

	tvec, err := sigproc.SyncTimeVector(xSync, syncArr.Data, rec.SampRate())
	if err != nil {
		var mismatch *sigproc.MismatchedEdgesError
		if errors.As(err, &mismatch) {
			if perr := mismatch.WritePlot(*outPath + ".edges.png"); perr == nil {
				log.Printf("Wrote edge diagnostic to %s.edges.png", *outPath)
			}
		}
		log.Fatalf("Failed to build time vector: %v", err)
	}

	if err := npy.WriteFile(*outPath, []int{len(tvec)}, tvec); err != nil {
		log.Fatalf("Failed to write time vector: %v", err)
	}
	log.Printf("Wrote %d-sample time vector spanning [%.3f, %.3f] s to %s",
		len(tvec), tvec[0], tvec[len(tvec)-1], *outPath)

	if *pulseChannel >= 0 {
		trace, err := rec.Analog(*pulseChannel)
		if err != nil {
			log.Fatalf("Failed to read pulse channel: %v", err)
		}
		pulses, err := sigproc.DetectPulses(trace, cfg.GetPulseThreshold(), rec.SampRate(), 0, math.Inf(1))
		if err != nil {
			log.Fatalf("Failed to detect pulses: %v", err)
		}
		onsets := make([]float64, len(pulses))
		for i, p := range pulses {
			onsets[i] = tvec[p.Onset]
		}
		pulsePath := *outPath + ".pulses.npy"
		if err := npy.WriteFile(pulsePath, []int{len(onsets)}, onsets); err != nil {
			log.Fatalf("Failed to write pulse onsets: %v", err)
		}
		log.Printf("Wrote %d pulse onsets (threshold %.2f V) to %s",
			len(onsets), cfg.GetPulseThreshold(), pulsePath)
	}
}
