package sorter

import (
	"fmt"
)

// GoodLabel is the label value that admits a cluster under either scheme.
const GoodLabel = "good"

// LoadSpikes assembles the spike and cluster-metrics tables from one sorter
// output directory. Spike times are converted to seconds (cached on disk),
// cluster depth is joined through the metrics table's peak channel, and the
// requested label policy decides which clusters are kept. Cell IDs are depth
// ranks over the kept clusters.
func LoadSpikes(dir string, sampleRate float64, policy LabelPolicy) ([]Spike, []ClusterMetrics, error) {
	ts, err := LoadSpikeSeconds(dir, sampleRate)
	if err != nil {
		return nil, nil, err
	}
	idx, err := LoadClusters(dir)
	if err != nil {
		return nil, nil, err
	}
	if len(ts) != len(idx) {
		return nil, nil, fmt.Errorf("%s: %d spike times but %d cluster assignments", dir, len(ts), len(idx))
	}
	depths, err := LoadChannelDepths(dir)
	if err != nil {
		return nil, nil, err
	}
	metrics, err := LoadMetrics(dir)
	if err != nil {
		return nil, nil, err
	}

	// Join depth onto each cluster through its peak channel.
	depthByCluster := make(map[int]float64, len(metrics))
	for i := range metrics {
		if ch := metrics[i].PeakChannel; ch >= 0 && ch < len(depths) {
			metrics[i].Depth = depths[ch]
		}
		depthByCluster[metrics[i].ClusterID] = metrics[i].Depth
	}

	spikes := make([]Spike, len(ts))
	for i := range ts {
		spikes[i] = Spike{
			TS:        ts[i],
			ClusterID: idx[i],
			CellID:    idx[i], // provisional until depth re-ranking
			Depth:     depthByCluster[idx[i]],
		}
	}

	spikes, metrics, err = applyLabelPolicy(dir, spikes, metrics, policy)
	if err != nil {
		return nil, nil, err
	}
	spikes, metrics = ResortByDepth(spikes, metrics)
	return spikes, metrics, nil
}

// LoadFilteredSpikes loads a sorter directory, applies the label policy and
// (optionally) the default quality filters, and re-ranks cell IDs by depth.
func LoadFilteredSpikes(dir string, sampleRate float64, policy LabelPolicy, useFilters bool) ([]Spike, []ClusterMetrics, error) {
	spikes, metrics, err := LoadSpikes(dir, sampleRate, policy)
	if err != nil {
		return nil, nil, err
	}
	if useFilters {
		spikes, metrics = FilterDefaultMetrics(spikes, metrics)
	}
	return spikes, metrics, nil
}

// applyLabelPolicy restricts both tables to clusters admitted by the chosen
// labelling scheme and annotates the metrics rows with the labels read.
func applyLabelPolicy(dir string, spikes []Spike, metrics []ClusterMetrics, policy LabelPolicy) ([]Spike, []ClusterMetrics, error) {
	var curated, fromSorter map[int]string
	var err error

	switch policy {
	case PolicyCurated:
		if curated, err = LoadClusterLabels(dir, FileCuratedLabels); err != nil {
			return nil, nil, err
		}
	case PolicySorter:
		if fromSorter, err = LoadClusterLabels(dir, FileSorterLabels); err != nil {
			return nil, nil, err
		}
	case PolicyIntersect:
		if curated, err = LoadClusterLabels(dir, FileCuratedLabels); err != nil {
			return nil, nil, err
		}
		if fromSorter, err = LoadClusterLabels(dir, FileSorterLabels); err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, &UnknownLabelPolicyError{Policy: policy}
	}

	keep := make(map[int]bool)
	for i := range metrics {
		id := metrics[i].ClusterID
		good := true
		if curated != nil {
			metrics[i].CuratedLabel = curated[id]
			good = good && curated[id] == GoodLabel
		}
		if fromSorter != nil {
			metrics[i].SorterLabel = fromSorter[id]
			good = good && fromSorter[id] == GoodLabel
		}
		keep[id] = good
	}

	return filterClusters(spikes, metrics, func(m ClusterMetrics) bool { return keep[m.ClusterID] })
}

// filterClusters subsets both tables to clusters satisfying keep, returning
// fresh slices.
func filterClusters(spikes []Spike, metrics []ClusterMetrics, keep func(ClusterMetrics) bool) ([]Spike, []ClusterMetrics, error) {
	kept := make(map[int]bool, len(metrics))
	outMetrics := make([]ClusterMetrics, 0, len(metrics))
	for _, m := range metrics {
		if keep(m) {
			kept[m.ClusterID] = true
			outMetrics = append(outMetrics, m)
		}
	}
	outSpikes := make([]Spike, 0, len(spikes))
	for _, s := range spikes {
		if kept[s.ClusterID] {
			outSpikes = append(outSpikes, s)
		}
	}
	return outSpikes, outMetrics, nil
}
