package sigproc

import (
	"fmt"
	"sort"
)

// TimestampCountMismatchError reports a disagreement between the number of
// sync pulses detected on the secondary stream and the number of reference
// timestamps supplied by the master clock.
type TimestampCountMismatchError struct {
	Detected int
	Expected int
}

func (e *TimestampCountMismatchError) Error() string {
	return fmt.Sprintf("clock alignment: detected %d sync onsets but %d reference timestamps were provided", e.Detected, e.Expected)
}

// linspace fills dst with n evenly spaced values spanning [a, b] inclusive.
func linspace(dst []float64, a, b float64) {
	n := len(dst)
	switch n {
	case 0:
		return
	case 1:
		dst[0] = a
		return
	}
	step := (b - a) / float64(n-1)
	for i := range dst {
		dst[i] = a + float64(i)*step
	}
	dst[n-1] = b
}

// SyncTimeVector builds an absolute time value for every sample of a
// secondary stream from the sync pulses embedded in it. xSync is the sync
// channel, syncTimestamps the master-clock time of each pulse onset, and sr
// the secondary stream's sample rate in Hz.
//
// Between consecutive onsets times are linearly interpolated across the
// corresponding timestamp interval. Before the first onset and after the
// last one, times are extrapolated at the nominal sample rate. The returned
// vector has len(xSync) entries, equals the reference timestamp exactly at
// each onset sample, and is non-decreasing for monotonic reference
// timestamps.
func SyncTimeVector(xSync []float64, syncTimestamps []float64, sr float64) ([]float64, error) {
	edges, err := BinaryOnsets(xSync, 1)
	if err != nil {
		return nil, err
	}
	ons := edges.Onsets
	if len(ons) != len(syncTimestamps) {
		return nil, &TimestampCountMismatchError{Detected: len(ons), Expected: len(syncTimestamps)}
	}
	if len(ons) == 0 {
		return nil, fmt.Errorf("clock alignment: no sync onsets detected")
	}

	tvec := make([]float64, len(xSync))
	for i := 0; i+1 < len(ons); i++ {
		linspace(tvec[ons[i]:ons[i+1]], syncTimestamps[i], syncTimestamps[i+1])
	}

	// Extrapolate the unanchored head and tail at the nominal rate.
	firstT := syncTimestamps[0] - float64(ons[0])/sr
	linspace(tvec[:ons[0]], firstT, syncTimestamps[0])

	last := len(ons) - 1
	tailLen := len(xSync) - ons[last]
	lastT := syncTimestamps[last] + float64(tailLen)/sr
	linspace(tvec[ons[last]:], syncTimestamps[last], lastT)

	return tvec, nil
}

// RemapTimeBasis maps the signal x, sampled at times xT, onto the time basis
// yT by nearest-preceding-sample lookup (right-open binary search, index
// minus one). Target times earlier than xT[0] take the first sample rather
// than wrapping. Mapping a signal onto its own time basis returns it
// unchanged.
func RemapTimeBasis(x, xT, yT []float64) ([]float64, error) {
	if len(x) != len(xT) {
		return nil, fmt.Errorf("remap time basis: signal length %d does not match its time vector length %d", len(x), len(xT))
	}
	out := make([]float64, len(yT))
	for i, t := range yT {
		idx := sort.Search(len(xT), func(j int) bool { return xT[j] > t }) - 1
		if idx < 0 {
			idx = 0
		}
		out[i] = x[idx]
	}
	return out, nil
}
