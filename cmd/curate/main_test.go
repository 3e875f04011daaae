package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crescent-data/ephys.report/internal/config"
	"github.com/crescent-data/ephys.report/internal/npy"
	"github.com/crescent-data/ephys.report/internal/sorter"
)

func ptrInt(v int) *int             { return &v }
func ptrFloat64(v float64) *float64 { return &v }

// writeSorterDir lays out a minimal sorter output directory with two
// curated-good clusters whose amplitude cutoffs straddle 0.03.
func writeSorterDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	samples := []float64{15000, 30000, 45000, 60000}
	require.NoError(t, npy.WriteFile(filepath.Join(dir, sorter.FileSpikeSamples), []int{len(samples)}, samples))

	clusters := []float64{0, 1, 0, 1}
	require.NoError(t, npy.WriteFile(filepath.Join(dir, sorter.FileClusters), []int{len(clusters)}, clusters))

	positions := []float64{16, 20, 48, 60}
	require.NoError(t, npy.WriteFile(filepath.Join(dir, sorter.FileChannelPositions), []int{2, 2}, positions))

	metrics := "cluster_id,peak_channel,isi_viol,amplitude_cutoff,presence_ratio\n" +
		"0,1,0.5,0.05,0.99\n" +
		"1,0,0.5,0.02,0.99\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, sorter.FileMetrics), []byte(metrics), 0o644))

	group := "cluster_id\tgroup\n0\tgood\n1\tgood\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, sorter.FileCuratedLabels), []byte(group), 0o644))

	return dir
}

func TestLoadProbe_ConfigThresholdsApply(t *testing.T) {
	dir := writeSorterDir(t)

	// Relaxed battery except a 0.03 amplitude-cutoff ceiling: only
	// cluster 1 survives, proving the configured thresholds reach the
	// filter instead of the package defaults.
	cfg := &config.PipelineConfig{
		SampleRate:       ptrFloat64(30000),
		MinSpikes:        ptrInt(1),
		MaxISIViol:       ptrFloat64(10),
		MaxAmpCutoff:     ptrFloat64(0.03),
		MinPresenceRatio: ptrFloat64(0.5),
	}
	spikes, metrics, err := loadProbe(dir, cfg, sorter.PolicyCurated, true)
	require.NoError(t, err)
	require.Len(t, metrics, 1)
	assert.Equal(t, 1, metrics[0].ClusterID)
	for _, s := range spikes {
		assert.Equal(t, 1, s.ClusterID)
	}

	// With an empty config the Default* thresholds apply, and the
	// 100-spike floor removes both clusters.
	_, metrics, err = loadProbe(dir, &config.PipelineConfig{SampleRate: ptrFloat64(30000)}, sorter.PolicyCurated, true)
	require.NoError(t, err)
	assert.Empty(t, metrics)

	// Filtering disabled leaves the policy output untouched.
	_, metrics, err = loadProbe(dir, &config.PipelineConfig{SampleRate: ptrFloat64(30000)}, sorter.PolicyCurated, false)
	require.NoError(t, err)
	assert.Len(t, metrics, 2)
}
