package popdyn

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// DefaultRank is the dimensionality of the fitted projection.
const DefaultRank = 10

// Projection is a fitted fixed-rank linear projection: feature means from
// the fit window plus the leading principal directions. It can be reused to
// project any data with the same feature count.
type Projection struct {
	rank    int
	mean    []float64
	vectors *mat.Dense // features × rank
}

// Rank returns the number of retained dimensions.
func (p *Projection) Rank() int { return p.rank }

// fitProjection runs a principal components analysis on data (observations
// in rows, features in columns) and keeps the leading rank directions.
func fitProjection(data *mat.Dense, rank int) (*Projection, error) {
	n, d := data.Dims()
	if n < 2 {
		return nil, fmt.Errorf("projection fit: need at least 2 observations, got %d", n)
	}
	maxRank := d
	if n < d {
		maxRank = n
	}
	if rank > maxRank {
		rank = maxRank
	}
	if rank < 1 {
		return nil, fmt.Errorf("projection fit: rank must be at least 1")
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(data, nil); !ok {
		return nil, fmt.Errorf("projection fit: principal components decomposition failed")
	}
	var vec mat.Dense
	pc.VectorsTo(&vec)

	mean := make([]float64, d)
	col := make([]float64, n)
	for j := 0; j < d; j++ {
		mat.Col(col, j, data)
		mean[j] = stat.Mean(col, nil)
	}

	_, vcols := vec.Dims()
	if rank > vcols {
		rank = vcols
	}
	kept := mat.DenseCopyOf(vec.Slice(0, d, 0, rank))
	return &Projection{rank: rank, mean: mean, vectors: kept}, nil
}

// Project maps data (observations × features) through the fitted transform,
// centering by the fit-window means first.
func (p *Projection) Project(data *mat.Dense) (*mat.Dense, error) {
	n, d := data.Dims()
	if d != len(p.mean) {
		return nil, fmt.Errorf("project: data has %d features, projection was fitted on %d", d, len(p.mean))
	}
	centered := mat.NewDense(n, d, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			centered.Set(i, j, data.At(i, j)-p.mean[j])
		}
	}
	out := mat.NewDense(n, p.rank, nil)
	out.Mul(centered, p.vectors)
	return out, nil
}

// Trajectory is a low-dimensional population trajectory: one row per time
// bin, one column per retained dimension, plus the time basis and the
// fitted transform for reuse on other windows.
type Trajectory struct {
	X    *mat.Dense
	T    []float64
	Proj *Projection
}

// DecomposeRaster smooths a raster along time (Gaussian, sigma in bins),
// clamps undefined and negative values to zero, applies a square-root
// variance-stabilizing transform, fits a rank-dimensional projection on the
// bins within [fitT0, fitTF), and projects the full time range through it.
func DecomposeRaster(r *Raster, fitT0, fitTF, sigma float64, rank int) (*Trajectory, error) {
	nCells, nBins := r.Counts.Dims()
	if rank <= 0 {
		rank = DefaultRank
	}

	// Smooth each cell's rate along time, then stabilize variance.
	stabilized := mat.NewDense(nBins, nCells, nil)
	row := make([]float64, nBins)
	for c := 0; c < nCells; c++ {
		mat.Row(row, c, r.Counts)
		smoothed := GaussianSmooth(row, sigma)
		for t, v := range smoothed {
			if math.IsNaN(v) || v < 0 {
				v = 0
			}
			v = math.Sqrt(v)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				v = 0
			}
			stabilized.Set(t, c, v)
		}
	}

	s0 := sort.SearchFloat64s(r.Bins, fitT0)
	sf := sort.SearchFloat64s(r.Bins, fitTF)
	if sf-s0 < 2 {
		return nil, fmt.Errorf("decompose raster: fit window [%g, %g) covers %d bins, need at least 2", fitT0, fitTF, sf-s0)
	}

	proj, err := fitProjection(mat.DenseCopyOf(stabilized.Slice(s0, sf, 0, nCells)), rank)
	if err != nil {
		return nil, err
	}
	x, err := proj.Project(stabilized)
	if err != nil {
		return nil, err
	}
	return &Trajectory{X: x, T: append([]float64(nil), r.Bins...), Proj: proj}, nil
}

// DecomposeSpikes bins all spikes at binSize and decomposes the resulting
// raster; see DecomposeRaster. The raster starts at DefaultRasterStart and
// runs to the last spike.
func DecomposeSpikes(ts []float64, cells []int, fitT0, fitTF, binSize, sigma float64, rank int) (*Trajectory, error) {
	raster, err := BinSpikeTrains(ts, cells, DefaultRasterStart, 0, binSize)
	if err != nil {
		return nil, err
	}
	return DecomposeRaster(raster, fitT0, fitTF, sigma, rank)
}

// TrajectorySpeed is the Euclidean distance between consecutive trajectory
// points using only the first n dimensions (default 3 when n <= 0). The
// first sample's speed is 0.
func TrajectorySpeed(x *mat.Dense, n int) []float64 {
	rows, cols := x.Dims()
	if n <= 0 {
		n = 3
	}
	if n > cols {
		n = cols
	}
	speed := make([]float64, rows)
	for i := 1; i < rows; i++ {
		var sum float64
		for j := 0; j < n; j++ {
			d := x.At(i, j) - x.At(i-1, j)
			sum += d * d
		}
		speed[i] = math.Sqrt(sum)
	}
	return speed
}
