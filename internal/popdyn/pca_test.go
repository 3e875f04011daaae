package popdyn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// oscillatingRaster builds a 4-cell raster whose activity is dominated by
// one shared slow oscillation, so a low-rank projection captures it.
func oscillatingRaster(nBins int) *Raster {
	nCells := 4
	counts := mat.NewDense(nCells, nBins, nil)
	bins := make([]float64, nBins)
	for t := 0; t < nBins; t++ {
		bins[t] = float64(t) * 0.05
		drive := 5 + 4*math.Sin(2*math.Pi*float64(t)/40)
		for c := 0; c < nCells; c++ {
			counts.Set(c, t, math.Max(0, drive+float64(c)))
		}
	}
	ids := make([]int, nCells)
	for i := range ids {
		ids[i] = i
	}
	return &Raster{Counts: counts, CellIDs: ids, Bins: bins, BinSize: 0.05}
}

func TestDecomposeRaster(t *testing.T) {
	r := oscillatingRaster(200)
	traj, err := DecomposeRaster(r, 1.0, 8.0, 2, 2)
	require.NoError(t, err)

	rows, cols := traj.X.Dims()
	assert.Equal(t, 200, rows, "full time range is projected, not just the fit window")
	assert.Equal(t, 2, cols)
	assert.Equal(t, r.Bins, traj.T)
	assert.Equal(t, 2, traj.Proj.Rank())

	// The leading dimension must carry the oscillation: it should not be
	// constant across time.
	var lo, hi float64 = math.Inf(1), math.Inf(-1)
	for i := 0; i < rows; i++ {
		v := traj.X.At(i, 0)
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	assert.Greater(t, hi-lo, 0.1)
}

func TestDecomposeRaster_RankClampedToCells(t *testing.T) {
	r := oscillatingRaster(100)
	traj, err := DecomposeRaster(r, 0.5, 4.0, 2, DefaultRank)
	require.NoError(t, err)
	assert.LessOrEqual(t, traj.Proj.Rank(), 4)
}

func TestDecomposeRaster_FitWindowTooSmall(t *testing.T) {
	r := oscillatingRaster(100)
	_, err := DecomposeRaster(r, 1.0, 1.0, 2, 2)
	assert.Error(t, err)
}

func TestProjection_ReuseAndFeatureMismatch(t *testing.T) {
	r := oscillatingRaster(150)
	traj, err := DecomposeRaster(r, 0.5, 6.0, 2, 2)
	require.NoError(t, err)

	// Reusing the fitted transform on compatible data works...
	other := mat.NewDense(10, 4, nil)
	out, err := traj.Proj.Project(other)
	require.NoError(t, err)
	_, cols := out.Dims()
	assert.Equal(t, 2, cols)

	// ...but a feature-count mismatch is rejected.
	_, err = traj.Proj.Project(mat.NewDense(10, 7, nil))
	assert.Error(t, err)
}

func TestDecomposeSpikes(t *testing.T) {
	// Two cells firing a regular alternation for 30 seconds.
	var ts []float64
	var cells []int
	for i := 0; i < 3000; i++ {
		ts = append(ts, float64(i)*0.01)
		cells = append(cells, i%2)
	}
	traj, err := DecomposeSpikes(ts, cells, 6, 20, 0.05, 2, 2)
	require.NoError(t, err)
	rows, cols := traj.X.Dims()
	assert.Greater(t, rows, 0)
	assert.Equal(t, 2, cols)
	assert.Equal(t, DefaultRasterStart, traj.T[0])
}

func TestTrajectorySpeed(t *testing.T) {
	t.Run("known two-step distance", func(t *testing.T) {
		x := mat.NewDense(3, 3, []float64{
			0, 0, 0,
			3, 4, 0,
			3, 4, 0,
		})
		speed := TrajectorySpeed(x, 3)
		assert.Equal(t, []float64{0, 5, 0}, speed)
	})

	t.Run("first sample is exactly zero", func(t *testing.T) {
		x := mat.NewDense(2, 4, []float64{1, 2, 3, 4, 5, 6, 7, 8})
		speed := TrajectorySpeed(x, 0) // default dims
		assert.Zero(t, speed[0])
	})

	t.Run("constant trajectory has zero speed", func(t *testing.T) {
		data := make([]float64, 5*3)
		for i := 0; i < 5; i++ {
			copy(data[i*3:], []float64{1, 2, 3})
		}
		speed := TrajectorySpeed(mat.NewDense(5, 3, data), 3)
		for i, v := range speed {
			assert.Zerof(t, v, "speed[%d]", i)
		}
	})

	t.Run("dims clamp to available columns", func(t *testing.T) {
		x := mat.NewDense(2, 2, []float64{0, 0, 1, 1})
		speed := TrajectorySpeed(x, 10)
		assert.InDelta(t, math.Sqrt2, speed[1], 1e-12)
	})
}
