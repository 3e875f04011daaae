// Command curate loads a sorted session, applies the configured quality
// filters and label policy, re-ranks cells by depth, and writes the result
// to the session database.
//
// Usage:
//
//	go run ./cmd/curate [flags]
//
// Flags:
//
//	-config   Path to pipeline JSON config (optional)
//	-dir      Sorter output directory, comma-separated for multi-probe
//	          sessions (or use -mouse/-gate)
//	-mouse    Mouse identifier, resolved under the configured sorted root
//	-gate     Gate index for -mouse resolution (default: 0)
//	-epochs   Epoch annotation CSV (optional)
//	-filter   Apply the default quality-metric battery (default: true)
//	-notes    Free-form note stored on the session row
//	-version  Print build identification and exit
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/crescent-data/ephys.report/internal/auxdata"
	"github.com/crescent-data/ephys.report/internal/config"
	"github.com/crescent-data/ephys.report/internal/sglx"
	"github.com/crescent-data/ephys.report/internal/sorter"
	"github.com/crescent-data/ephys.report/internal/store"
	"github.com/crescent-data/ephys.report/internal/version"
)

func main() {
	configPath := flag.String("config", "", "Path to pipeline JSON config")
	dirs := flag.String("dir", "", "Sorter output directory, comma-separated for multi-probe")
	mouse := flag.String("mouse", "", "Mouse identifier, resolved under the configured sorted root")
	gate := flag.Int("gate", 0, "Gate index for -mouse resolution")
	epochsPath := flag.String("epochs", "", "Epoch annotation CSV")
	applyFilters := flag.Bool("filter", true, "Apply the default quality-metric battery")
	notes := flag.String("notes", "", "Note stored on the session row")
	showVersion := flag.Bool("version", false, "Print build identification and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	if *dirs == "" && *mouse == "" {
		log.Fatal("Error: either -dir or -mouse is required")
	}

	cfg := &config.PipelineConfig{}
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	policy := sorter.LabelPolicy(cfg.GetLabelPolicy())

	var dirList []string
	if *dirs != "" {
		dirList = strings.Split(*dirs, ",")
	} else {
		var err error
		dirList, err = sglx.FindSorterDirs(cfg.GetSortedRoot(), *mouse, *gate)
		if err != nil {
			log.Fatalf("Failed to locate sorter output: %v", err)
		}
		log.Printf("Resolved %s gate %d to %d probe dirs under %s", *mouse, *gate, len(dirList), cfg.GetSortedRoot())
	}
	info, err := sglx.ParseSessionPath(dirList[0])
	if err != nil {
		log.Fatalf("Failed to parse session path: %v", err)
	}
	log.Printf("Curating %s gate %d (%d probe dirs, policy %s)", info.Mouse, info.Gate, len(dirList), policy)

	spikes, metrics, err := loadSession(dirList, cfg, policy, *applyFilters)
	if err != nil {
		log.Fatalf("Failed to load session: %v", err)
	}
	log.Printf("Loaded %d spikes across %d cells", len(spikes), len(metrics))

	db, err := store.Open(cfg.GetOutputDB())
	if err != nil {
		log.Fatalf("Failed to open session database: %v", err)
	}
	defer db.Close()

	sessionID, err := db.CreateSession(info.Mouse, info.Gate, policy, cfg.GetSampleRate(), *notes)
	if err != nil {
		log.Fatalf("Failed to create session: %v", err)
	}
	if err := db.SaveClusters(sessionID, metrics); err != nil {
		log.Fatalf("Failed to save clusters: %v", err)
	}
	if err := db.SaveSpikes(sessionID, spikes); err != nil {
		log.Fatalf("Failed to save spikes: %v", err)
	}

	if *epochsPath != "" {
		epochs, err := auxdata.LoadEpochs(*epochsPath)
		if err != nil {
			log.Fatalf("Failed to load epochs: %v", err)
		}
		if err := db.SaveEpochs(sessionID, epochs); err != nil {
			log.Fatalf("Failed to save epochs: %v", err)
		}
		log.Printf("Saved %d epochs", len(epochs))
	}

	log.Printf("Session %s written to %s", sessionID, cfg.GetOutputDB())
}

// loadProbe loads one sorter directory and applies the battery with the
// configured thresholds, so pipeline.json overrides take effect.
func loadProbe(dir string, cfg *config.PipelineConfig, policy sorter.LabelPolicy, filter bool) ([]sorter.Spike, []sorter.ClusterMetrics, error) {
	spikes, metrics, err := sorter.LoadSpikes(dir, cfg.GetSampleRate(), policy)
	if err != nil {
		return nil, nil, err
	}
	if filter {
		spikes, metrics = sorter.FilterMetrics(spikes, metrics,
			cfg.GetMinSpikes(), cfg.GetMaxISIViol(), cfg.GetMaxAmpCutoff(), cfg.GetMinPresenceRatio())
	}
	return spikes, metrics, nil
}

// loadSession loads one probe directory directly, or concatenates several
// onto a shared depth-ranked cell id space.
func loadSession(dirs []string, cfg *config.PipelineConfig, policy sorter.LabelPolicy, filter bool) ([]sorter.Spike, []sorter.ClusterMetrics, error) {
	if len(dirs) == 1 {
		return loadProbe(dirs[0], cfg, policy, filter)
	}

	spikesList := make([][]sorter.Spike, 0, len(dirs))
	metricsList := make([][]sorter.ClusterMetrics, 0, len(dirs))
	labels := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		spikes, metrics, err := loadProbe(dir, cfg, policy, filter)
		if err != nil {
			return nil, nil, err
		}
		info, err := sglx.ParseSessionPath(dir)
		if err != nil {
			return nil, nil, err
		}
		label := fmt.Sprintf("imec%d", info.Probe)
		if info.Probe < 0 {
			label = fmt.Sprintf("probe%d", len(labels))
		}
		spikesList = append(spikesList, spikes)
		metricsList = append(metricsList, metrics)
		labels = append(labels, label)
	}
	return sorter.ConcatenateProbes(spikesList, metricsList, labels)
}
