package sigproc

import (
	"math"
	"sort"
)

// Pulse is one above-threshold excursion of a stimulus drive signal, such as
// the current command sent to a laser or LED.
type Pulse struct {
	Onset     int     // sample index
	Offset    int     // sample index
	Duration  int     // samples
	Amplitude float64 // median level while high

	OnsetSec    float64
	OffsetSec   float64
	DurationSec float64
}

// DetectPulses finds stimulus pulses in raw by threshold crossing and keeps
// those whose duration lies within [minDur, maxDur] seconds. sr is the
// sample rate in Hz. Amplitudes are the median signal level between onset
// and offset, rounded to two decimals; DurationSec is rounded to the
// millisecond.
func DetectPulses(raw []float64, vThresh, sr, minDur, maxDur float64) ([]Pulse, error) {
	edges, err := BinaryOnsets(raw, vThresh)
	if err != nil {
		return nil, err
	}

	minSamp := sr * minDur
	maxSamp := sr * maxDur
	var pulses []Pulse
	for i := range edges.Onsets {
		on, off := edges.Onsets[i], edges.Offsets[i]
		dur := off - on
		if float64(dur) < minSamp || float64(dur) > maxSamp {
			continue
		}
		pulses = append(pulses, Pulse{
			Onset:       on,
			Offset:      off,
			Duration:    dur,
			Amplitude:   math.Round(median(raw[on:off])*100) / 100,
			OnsetSec:    float64(on) / sr,
			OffsetSec:   float64(off) / sr,
			DurationSec: math.Round(float64(dur)/sr*1000) / 1000,
		})
	}
	return pulses, nil
}

// BoolPulses builds a pulse table from a digital line. When activeLow is
// true the line is inverted first, so pulses mark the low state. Amplitude
// is always 1.
func BoolPulses(bit []bool, activeLow bool, sr float64) ([]Pulse, error) {
	f := make([]float64, len(bit))
	for i, v := range bit {
		if v != activeLow {
			f[i] = 1
		}
	}
	edges, err := BinaryOnsets(f, 0.5)
	if err != nil {
		return nil, err
	}
	pulses := make([]Pulse, len(edges.Onsets))
	for i := range edges.Onsets {
		on, off := edges.Onsets[i], edges.Offsets[i]
		pulses[i] = Pulse{
			Onset:       on,
			Offset:      off,
			Duration:    off - on,
			Amplitude:   1,
			OnsetSec:    float64(on) / sr,
			OffsetSec:   float64(off) / sr,
			DurationSec: float64(off-on) / sr,
		}
	}
	return pulses, nil
}

func median(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	s := append([]float64(nil), x...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 0 {
		return (s[mid-1] + s[mid]) / 2
	}
	return s[mid]
}
