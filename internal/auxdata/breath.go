package auxdata

import (
	"fmt"
	"math"
)

// MaxBreathDuration is the longest plausible single breath in seconds.
// Longer onset/offset pairs are sensor dropouts, not breaths.
const MaxBreathDuration = 1.0

// Breath is one respiration cycle. IBI is the interval since the previous
// kept breath's onset; InstFreq is its reciprocal. Both are NaN for the
// first breath of a session.
type Breath struct {
	Onset    float64
	Offset   float64
	Duration float64
	IBI      float64
	InstFreq float64
}

// BreathTable pairs inhalation onsets with offsets and derives per-breath
// timing. Pairs at or above MaxBreathDuration are dropped before the
// interval columns are computed, so IBI always refers to the previous
// retained breath.
func BreathTable(onsets, offsets []float64) ([]Breath, error) {
	if len(onsets) != len(offsets) {
		return nil, fmt.Errorf("%d breath onsets but %d offsets", len(onsets), len(offsets))
	}

	breaths := make([]Breath, 0, len(onsets))
	for i := range onsets {
		d := offsets[i] - onsets[i]
		if d < 0 {
			return nil, fmt.Errorf("breath %d ends at %g before its onset %g", i, offsets[i], onsets[i])
		}
		if d >= MaxBreathDuration {
			continue
		}
		breaths = append(breaths, Breath{Onset: onsets[i], Offset: offsets[i], Duration: d})
	}

	for i := range breaths {
		if i == 0 {
			breaths[i].IBI = math.NaN()
			breaths[i].InstFreq = math.NaN()
			continue
		}
		ibi := breaths[i].Onset - breaths[i-1].Onset
		breaths[i].IBI = ibi
		breaths[i].InstFreq = 1 / ibi
	}
	return breaths, nil
}
