package sorter

import "sort"

// SpikeTrain is the spike times of one cell over a bounded observation
// window [T0, TStop).
type SpikeTrain struct {
	CellID    int
	ClusterID int
	Depth     float64
	T0        float64
	TStop     float64
	TS        []float64
}

// SpikeTrains slices the spike table into per-cell trains. cellIDs selects
// which cells to extract; nil selects every cell present. Requesting a cell
// that is not in the table fails with *UnknownCellReferenceError. tStop of
// zero runs to the last spike in the table.
func SpikeTrains(spikes []Spike, cellIDs []int, t0, tStop float64) (map[int]SpikeTrain, error) {
	type identity struct {
		clusterID int
		depth     float64
	}
	present := make(map[int]identity)
	seen := make(map[int]bool)
	var maxTS float64
	for _, s := range spikes {
		if !seen[s.CellID] {
			seen[s.CellID] = true
			present[s.CellID] = identity{clusterID: s.ClusterID, depth: s.Depth}
		}
		if s.TS > maxTS {
			maxTS = s.TS
		}
	}
	if tStop == 0 {
		tStop = maxTS
	}

	if cellIDs == nil {
		for id := range present {
			cellIDs = append(cellIDs, id)
		}
		sort.Ints(cellIDs)
	} else {
		for _, id := range cellIDs {
			if !seen[id] {
				return nil, &UnknownCellReferenceError{CellID: id}
			}
		}
	}

	// Identity comes from the full table, so a cell with no spikes in
	// the window still reports its real cluster and depth.
	want := make(map[int]bool, len(cellIDs))
	trains := make(map[int]SpikeTrain, len(cellIDs))
	for _, id := range cellIDs {
		want[id] = true
		trains[id] = SpikeTrain{
			CellID:    id,
			ClusterID: present[id].clusterID,
			Depth:     present[id].depth,
			T0:        t0,
			TStop:     tStop,
		}
	}

	for _, s := range spikes {
		if !want[s.CellID] || s.TS < t0 || s.TS >= tStop {
			continue
		}
		tr := trains[s.CellID]
		tr.TS = append(tr.TS, s.TS)
		trains[s.CellID] = tr
	}
	for id, tr := range trains {
		sort.Float64s(tr.TS)
		trains[id] = tr
	}
	return trains, nil
}
