package sorter

import "sort"

// Default quality thresholds. ISI violations are relaxed relative to the
// common reference values because respiratory-modulated neurons burst.
const (
	DefaultMinSpikes        = 100
	DefaultMaxISIViol       = 2.0
	DefaultMaxAmpCutoff     = 0.1
	DefaultMinPresenceRatio = 0.9
)

// FilterByMetric keeps only the clusters whose metrics satisfy keep, and
// propagates the reduced cluster set to the spike table. Cell IDs are
// re-ranked by depth afterwards, since removing clusters shifts ranks.
func FilterByMetric(spikes []Spike, metrics []ClusterMetrics, keep func(ClusterMetrics) bool) ([]Spike, []ClusterMetrics) {
	outSpikes, outMetrics, _ := filterClusters(spikes, metrics, keep)
	return ResortByDepth(outSpikes, outMetrics)
}

// FilterBySpikeRate drops clusters with fewer than minSpikes spikes in the
// session.
func FilterBySpikeRate(spikes []Spike, metrics []ClusterMetrics, minSpikes int) ([]Spike, []ClusterMetrics) {
	counts := make(map[int]int)
	for _, s := range spikes {
		counts[s.ClusterID]++
	}
	return FilterByMetric(spikes, metrics, func(m ClusterMetrics) bool {
		return counts[m.ClusterID] >= minSpikes
	})
}

// FilterMetrics applies the quality battery with explicit thresholds: at
// least minSpikes spikes, then ISI violations below maxISIViol, amplitude
// cutoff below maxAmpCutoff, presence ratio above minPresenceRatio. The
// steps are independent per-cluster predicates, so the composite is
// idempotent.
func FilterMetrics(spikes []Spike, metrics []ClusterMetrics, minSpikes int, maxISIViol, maxAmpCutoff, minPresenceRatio float64) ([]Spike, []ClusterMetrics) {
	spikes, metrics = FilterBySpikeRate(spikes, metrics, minSpikes)
	spikes, metrics = FilterByMetric(spikes, metrics, func(m ClusterMetrics) bool { return m.ISIViol < maxISIViol })
	spikes, metrics = FilterByMetric(spikes, metrics, func(m ClusterMetrics) bool { return m.AmplitudeCutoff < maxAmpCutoff })
	spikes, metrics = FilterByMetric(spikes, metrics, func(m ClusterMetrics) bool { return m.PresenceRatio > minPresenceRatio })
	return spikes, metrics
}

// FilterDefaultMetrics applies the standard battery with the Default*
// thresholds.
func FilterDefaultMetrics(spikes []Spike, metrics []ClusterMetrics) ([]Spike, []ClusterMetrics) {
	return FilterMetrics(spikes, metrics, DefaultMinSpikes, DefaultMaxISIViol, DefaultMaxAmpCutoff, DefaultMinPresenceRatio)
}

// ResortByDepth recomputes cell IDs as depth ranks: 0-indexed, contiguous,
// ascending by each cluster's mean spike depth. Both tables are returned as
// re-keyed copies; inputs are untouched.
func ResortByDepth(spikes []Spike, metrics []ClusterMetrics) ([]Spike, []ClusterMetrics) {
	sums := make(map[int]float64)
	counts := make(map[int]int)
	for _, s := range spikes {
		sums[s.ClusterID] += s.Depth
		counts[s.ClusterID]++
	}

	type clusterDepth struct {
		id    int
		depth float64
	}
	order := make([]clusterDepth, 0, len(counts))
	for id := range counts {
		order = append(order, clusterDepth{id: id, depth: sums[id] / float64(counts[id])})
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].depth != order[j].depth {
			return order[i].depth < order[j].depth
		}
		return order[i].id < order[j].id
	})

	rank := make(map[int]int, len(order))
	for i, c := range order {
		rank[c.id] = i
	}

	outSpikes := make([]Spike, len(spikes))
	for i, s := range spikes {
		s.CellID = rank[s.ClusterID]
		outSpikes[i] = s
	}
	outMetrics := make([]ClusterMetrics, len(metrics))
	for i, m := range metrics {
		if r, ok := rank[m.ClusterID]; ok {
			m.CellID = r
		} else {
			m.CellID = -1 // cluster has no surviving spikes
		}
		outMetrics[i] = m
	}
	return outSpikes, outMetrics
}
