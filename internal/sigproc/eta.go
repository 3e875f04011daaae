package sigproc

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// EventTriggered holds per-offset statistics of a signal aligned to repeated
// event times. All slices share the same length (the window length in
// samples). Lower and Upper are the mean ∓ one standard error.
type EventTriggered struct {
	T     []float64
	Mean  []float64
	Std   []float64
	SEM   []float64
	Lower []float64
	Upper []float64

	// EventsUsed counts the events that contributed; EventsSkipped the
	// events whose window ran off either end of the signal.
	EventsUsed    int
	EventsSkipped int
}

// EventTriggeredAverage extracts a fixed-length snippet of x around each
// event time and averages across events at every offset. x is the
// continuous signal, tvec its time vector (uniformly sampled), events the
// event times in seconds, preWin/postWin the window widths in seconds. A
// postWin of zero mirrors preWin.
//
// Events whose window would run past either end of the signal are excluded
// from the statistics entirely; EventsSkipped reports how many were
// dropped.
func EventTriggeredAverage(x, tvec, events []float64, preWin, postWin float64) (*EventTriggered, error) {
	if len(x) != len(tvec) {
		return nil, fmt.Errorf("event triggered average: signal length %d does not match time vector length %d", len(x), len(tvec))
	}
	if len(tvec) < 2 {
		return nil, fmt.Errorf("event triggered average: time vector too short")
	}
	if postWin == 0 {
		postWin = preWin
	}

	dt := tvec[1] - tvec[0]
	sampsPre := int(preWin / dt)
	sampsPost := int(postWin / dt)
	winLen := sampsPre + sampsPost
	if winLen <= 0 {
		return nil, fmt.Errorf("event triggered average: window spans no samples at dt=%g", dt)
	}

	var snippets [][]float64
	skipped := 0
	for _, ev := range events {
		samp := sort.SearchFloat64s(tvec, ev)
		if samp-sampsPre < 0 || samp+sampsPost > len(x) {
			skipped++
			continue
		}
		snippets = append(snippets, x[samp-sampsPre:samp+sampsPost])
	}

	out := &EventTriggered{
		T:             make([]float64, winLen),
		Mean:          make([]float64, winLen),
		Std:           make([]float64, winLen),
		SEM:           make([]float64, winLen),
		Lower:         make([]float64, winLen),
		Upper:         make([]float64, winLen),
		EventsUsed:    len(snippets),
		EventsSkipped: skipped,
	}
	linspace(out.T, -preWin, postWin)

	if len(snippets) == 0 {
		return out, nil
	}

	col := make([]float64, len(snippets))
	sqrtN := math.Sqrt(float64(len(snippets)))
	for j := 0; j < winLen; j++ {
		for i, snip := range snippets {
			col[i] = snip[j]
		}
		out.Mean[j] = stat.Mean(col, nil)
		if len(col) > 1 {
			out.Std[j] = stat.StdDev(col, nil)
		}
		out.SEM[j] = out.Std[j] / sqrtN
		out.Lower[j] = out.Mean[j] - out.SEM[j]
		out.Upper[j] = out.Mean[j] + out.SEM[j]
	}
	return out, nil
}
