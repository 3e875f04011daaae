package sorter

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/crescent-data/ephys.report/internal/npy"
)

// Fixed relative names inside a sorter output directory.
const (
	FileSpikeSamples     = "spike_times.npy"
	FileSpikeSeconds     = "spike_times_sec.npy" // cache written by LoadSpikeSeconds
	FileClusters         = "spike_clusters.npy"
	FileChannelPositions = "channel_positions.npy"
	FileMetrics          = "metrics.csv"
	FileMetricsFallback  = "waveform_metrics.csv"
	FileCuratedLabels    = "cluster_group.tsv"
	FileSorterLabels     = "cluster_KSLabel.tsv"
)

// requirePath resolves a required file inside dir, failing with
// *MissingRequiredFileError if it is absent.
func requirePath(dir, name string) (string, error) {
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", &MissingRequiredFileError{Path: path, Err: err}
	}
	return path, nil
}

// LoadSpikeSeconds returns every spike time in seconds. The first call
// converts the sorter's sample indices at sampleRate and caches the result
// as spike_times_sec.npy beside the source file; later calls read the cache
// and skip the conversion.
func LoadSpikeSeconds(dir string, sampleRate float64) ([]float64, error) {
	cache := filepath.Join(dir, FileSpikeSeconds)
	if arr, err := npy.ReadFile(cache); err == nil {
		return arr.Data, nil
	}

	if sampleRate <= 0 {
		return nil, fmt.Errorf("load spike times: sample rate must be positive, got %g", sampleRate)
	}
	path, err := requirePath(dir, FileSpikeSamples)
	if err != nil {
		return nil, err
	}
	arr, err := npy.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ts := make([]float64, arr.Len())
	for i, samp := range arr.Data {
		ts[i] = samp / sampleRate
	}
	if err := npy.WriteFile(cache, []int{len(ts)}, ts); err != nil {
		return nil, fmt.Errorf("write spike-seconds cache: %w", err)
	}
	return ts, nil
}

// LoadClusters returns the per-spike cluster assignment.
func LoadClusters(dir string) ([]int, error) {
	path, err := requirePath(dir, FileClusters)
	if err != nil {
		return nil, err
	}
	arr, err := npy.ReadFile(path)
	if err != nil {
		return nil, err
	}
	idx := make([]int, arr.Len())
	for i, v := range arr.Data {
		idx[i] = int(v)
	}
	return idx, nil
}

// LoadChannelDepths returns the depth (second position coordinate, microns)
// of every recording channel, indexed by channel number.
func LoadChannelDepths(dir string) ([]float64, error) {
	path, err := requirePath(dir, FileChannelPositions)
	if err != nil {
		return nil, err
	}
	arr, err := npy.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if arr.Cols() < 2 {
		return nil, fmt.Errorf("%s: expected channel positions with at least 2 columns, got %d", path, arr.Cols())
	}
	return arr.Column(1), nil
}

// LoadMetrics reads the quality-metric table, preferring metrics.csv and
// falling back to waveform_metrics.csv as some sorter versions emit.
func LoadMetrics(dir string) ([]ClusterMetrics, error) {
	path, err := requirePath(dir, FileMetrics)
	if err != nil {
		var fbErr error
		if path, fbErr = requirePath(dir, FileMetricsFallback); fbErr != nil {
			return nil, err // report the canonical name
		}
	}

	rows, header, err := readDelimited(path, ',')
	if err != nil {
		return nil, err
	}
	clusterCol, ok := header["cluster_id"]
	if !ok {
		return nil, fmt.Errorf("%s: no cluster_id column", path)
	}

	metrics := make([]ClusterMetrics, 0, len(rows))
	for _, row := range rows {
		m := ClusterMetrics{CellID: -1}
		m.ClusterID, err = strconv.Atoi(strings.TrimSpace(row[clusterCol]))
		if err != nil {
			return nil, fmt.Errorf("%s: bad cluster_id %q: %w", path, row[clusterCol], err)
		}
		m.PeakChannel = int(floatColumn(row, header, "peak_channel"))
		m.ISIViol = floatColumn(row, header, "isi_viol")
		m.AmplitudeCutoff = floatColumn(row, header, "amplitude_cutoff")
		m.PresenceRatio = floatColumn(row, header, "presence_ratio")
		metrics = append(metrics, m)
	}
	return metrics, nil
}

// LoadClusterLabels reads one of the label TSVs (cluster_group.tsv or
// cluster_KSLabel.tsv) into a cluster_id → label map. The label is taken
// from the first non-cluster_id column.
func LoadClusterLabels(dir, name string) (map[int]string, error) {
	path, err := requirePath(dir, name)
	if err != nil {
		return nil, err
	}
	rows, header, err := readDelimited(path, '\t')
	if err != nil {
		return nil, err
	}
	clusterCol, ok := header["cluster_id"]
	if !ok {
		return nil, fmt.Errorf("%s: no cluster_id column", path)
	}
	labelCol := -1
	for name, col := range header {
		if name != "cluster_id" {
			labelCol = col
			break
		}
	}
	if labelCol < 0 {
		return nil, fmt.Errorf("%s: no label column", path)
	}

	labels := make(map[int]string, len(rows))
	for _, row := range rows {
		id, err := strconv.Atoi(strings.TrimSpace(row[clusterCol]))
		if err != nil {
			return nil, fmt.Errorf("%s: bad cluster_id %q: %w", path, row[clusterCol], err)
		}
		labels[id] = strings.TrimSpace(row[labelCol])
	}
	return labels, nil
}

// readDelimited reads a delimited table, returning the data rows and a
// column-name → index map from the header line.
func readDelimited(path string, comma rune) ([][]string, map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, &MissingRequiredFileError{Path: path, Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = comma
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%s: empty table", path)
	}

	header := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		header[strings.TrimSpace(name)] = i
	}
	return records[1:], header, nil
}

func floatColumn(row []string, header map[string]int, name string) float64 {
	col, ok := header[name]
	if !ok || col >= len(row) {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(row[col]), 64)
	if err != nil {
		return 0
	}
	return v
}
