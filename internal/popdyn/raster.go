// Package popdyn derives population-level representations from aligned
// spike tables: binned rasters, smoothed low-dimensional trajectories and
// trajectory kinematics.
package popdyn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// DefaultRasterStart skips the first seconds of a recording, before the
// probes have settled.
const DefaultRasterStart = 5.0

// Raster is a cells × time-bins spike-count matrix.
type Raster struct {
	Counts  *mat.Dense // one row per cell id
	CellIDs []int
	Bins    []float64 // left bin edges, seconds
	BinSize float64
}

// BinSpikeTrains histograms all spikes into a population raster over
// [startTime, maxTime) at binSize seconds. ts holds every spike time and
// cells the matching cell index; rows cover cell ids 0..max(cells) so the
// raster stays addressable by cell id even for silent cells. A maxTime of
// zero runs to the last spike.
//
// Spikes outside the range are excluded, and the final bin is never
// populated: it spans a partial window, so its counts would read as an
// activity drop.
func BinSpikeTrains(ts []float64, cells []int, startTime, maxTime, binSize float64) (*Raster, error) {
	if len(ts) != len(cells) {
		return nil, fmt.Errorf("bin spike trains: %d spike times but %d cell indices", len(ts), len(cells))
	}
	if binSize <= 0 {
		return nil, fmt.Errorf("bin spike trains: bin size must be positive, got %g", binSize)
	}
	if maxTime == 0 {
		for _, t := range ts {
			if t > maxTime {
				maxTime = t
			}
		}
	}
	if maxTime <= startTime {
		return nil, fmt.Errorf("bin spike trains: empty window [%g, %g)", startTime, maxTime)
	}

	nCells := 0
	for _, c := range cells {
		if c < 0 {
			return nil, fmt.Errorf("bin spike trains: negative cell index %d", c)
		}
		if c+1 > nCells {
			nCells = c + 1
		}
	}
	nBins := int((maxTime - startTime) / binSize)
	if (maxTime-startTime) > float64(nBins)*binSize {
		nBins++
	}
	if nCells == 0 || nBins == 0 {
		return nil, fmt.Errorf("bin spike trains: nothing to bin")
	}

	bins := make([]float64, nBins)
	for i := range bins {
		bins[i] = startTime + float64(i)*binSize
	}

	counts := mat.NewDense(nCells, nBins, nil)
	for i, t := range ts {
		if t <= startTime || t >= maxTime {
			continue
		}
		j := int((t - startTime) / binSize)
		if j >= nBins-1 {
			continue // final partial bin stays empty
		}
		counts.Set(cells[i], j, counts.At(cells[i], j)+1)
	}

	ids := make([]int, nCells)
	for i := range ids {
		ids[i] = i
	}
	return &Raster{Counts: counts, CellIDs: ids, Bins: bins, BinSize: binSize}, nil
}
