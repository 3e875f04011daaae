package sorter

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// ConcatenateProbes merges independently built per-probe tables into one
// session-wide pair. Every cluster receives a fresh UUID, every row its
// probe label, and cell IDs are re-assigned as one contiguous depth
// ordering across the union of probes (probe-major, then depth). The spike
// side gets its cell ID purely through the UUID join, so any stale cell ID
// carried in is discarded.
func ConcatenateProbes(spikesList [][]Spike, metricsList [][]ClusterMetrics, labels []string) ([]Spike, []ClusterMetrics, error) {
	if len(spikesList) != len(metricsList) || len(spikesList) != len(labels) {
		return nil, nil, fmt.Errorf("concatenate probes: %d spike tables, %d metrics tables, %d labels",
			len(spikesList), len(metricsList), len(labels))
	}

	var allSpikes []Spike
	var allMetrics []ClusterMetrics
	for p := range labels {
		uuidByCluster := make(map[int]string, len(metricsList[p]))
		for _, m := range metricsList[p] {
			m.Probe = labels[p]
			m.UUID = uuid.New().String()
			uuidByCluster[m.ClusterID] = m.UUID
			allMetrics = append(allMetrics, m)
		}
		for _, s := range spikesList[p] {
			s.Probe = labels[p]
			s.UUID = uuidByCluster[s.ClusterID]
			allSpikes = append(allSpikes, s)
		}
	}

	// One contiguous cell ordering over the whole session.
	sort.SliceStable(allMetrics, func(i, j int) bool {
		if allMetrics[i].Probe != allMetrics[j].Probe {
			return allMetrics[i].Probe < allMetrics[j].Probe
		}
		return allMetrics[i].Depth < allMetrics[j].Depth
	})
	cellByUUID := make(map[string]int, len(allMetrics))
	for i := range allMetrics {
		allMetrics[i].CellID = i
		cellByUUID[allMetrics[i].UUID] = i
	}

	// Rebuild spike-side cell IDs solely through the UUID join.
	for i := range allSpikes {
		cell, ok := cellByUUID[allSpikes[i].UUID]
		if !ok {
			return nil, nil, fmt.Errorf("concatenate probes: spike cluster %d on %s has no metrics row",
				allSpikes[i].ClusterID, allSpikes[i].Probe)
		}
		allSpikes[i].CellID = cell
	}
	sort.SliceStable(allSpikes, func(i, j int) bool { return allSpikes[i].TS < allSpikes[j].TS })

	return allSpikes, allMetrics, nil
}
