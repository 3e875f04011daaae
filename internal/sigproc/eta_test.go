package sigproc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func etaTestVectors(n int, dt float64) (x, tvec []float64) {
	x = make([]float64, n)
	tvec = make([]float64, n)
	for i := range x {
		tvec[i] = float64(i) * dt
	}
	return x, tvec
}

func TestEventTriggeredAverage_ConstantSignal(t *testing.T) {
	x, tvec := etaTestVectors(200, 0.1)
	for i := range x {
		x[i] = 2.0
	}

	eta, err := EventTriggeredAverage(x, tvec, []float64{5.0, 10.0, 15.0}, 0.5, 0)
	require.NoError(t, err)

	assert.Equal(t, 3, eta.EventsUsed)
	assert.Equal(t, 0, eta.EventsSkipped)
	require.Len(t, eta.Mean, 10) // 5 samples pre + 5 post at dt=0.1
	for j := range eta.Mean {
		assert.InDelta(t, 2.0, eta.Mean[j], 1e-12)
		assert.InDelta(t, 0.0, eta.Std[j], 1e-12)
		assert.InDelta(t, 0.0, eta.SEM[j], 1e-12)
		assert.InDelta(t, eta.Mean[j], eta.Lower[j], 1e-12)
		assert.InDelta(t, eta.Mean[j], eta.Upper[j], 1e-12)
	}
	assert.InDelta(t, -0.5, eta.T[0], 1e-12)
	assert.InDelta(t, 0.5, eta.T[len(eta.T)-1], 1e-12)
}

func TestEventTriggeredAverage_ExcludesOffEndEvents(t *testing.T) {
	x, tvec := etaTestVectors(100, 0.1)
	for i := range x {
		x[i] = 1.0
	}

	// One event too close to the start, one too close to the end, one valid.
	eta, err := EventTriggeredAverage(x, tvec, []float64{0.1, 5.0, 9.9}, 0.5, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 1, eta.EventsUsed)
	assert.Equal(t, 2, eta.EventsSkipped)

	// The skipped events must not drag the mean toward zero.
	for j := range eta.Mean {
		assert.InDelta(t, 1.0, eta.Mean[j], 1e-12)
	}
}

func TestEventTriggeredAverage_SEMAcrossEvents(t *testing.T) {
	x, tvec := etaTestVectors(100, 0.1)
	// Two step levels so snippets around the two events differ.
	for i := range x {
		if i < 50 {
			x[i] = 1
		} else {
			x[i] = 3
		}
	}
	eta, err := EventTriggeredAverage(x, tvec, []float64{2.0, 7.0}, 0.2, 0.2)
	require.NoError(t, err)
	require.Equal(t, 2, eta.EventsUsed)
	for j := range eta.Mean {
		assert.InDelta(t, 2.0, eta.Mean[j], 1e-12)
		assert.InDelta(t, eta.Std[j]/math.Sqrt2, eta.SEM[j], 1e-12)
		assert.Greater(t, eta.Std[j], 0.0)
	}
}

func TestEventTriggeredAverage_Errors(t *testing.T) {
	_, err := EventTriggeredAverage([]float64{1, 2}, []float64{0}, nil, 0.5, 0)
	assert.Error(t, err)

	_, err = EventTriggeredAverage([]float64{1}, []float64{0}, nil, 0.5, 0)
	assert.Error(t, err)
}
