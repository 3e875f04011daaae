package sigproc

import "fmt"

// UnlabelledPhase is the label assigned to samples outside every interval.
const UnlabelledPhase = "none"

// TimeLabels is a categorical labelling of a time vector. Label holds the
// phase name per sample and Code a stable integer encoding of each distinct
// label in first-appearance order.
type TimeLabels struct {
	T     []float64
	Label []string
	Code  []int
}

// LabelTimeVector assigns a phase label to every sample of t from parallel
// interval starts, ends and labels. Interval membership is half-open on the
// left: a sample belongs to (start, end], so a sample sitting exactly on a
// shared boundary belongs to the earlier interval. Later intervals in the
// input overwrite earlier overlapping ones.
func LabelTimeVector(t, starts, ends []float64, labels []string) (TimeLabels, error) {
	if len(starts) != len(ends) || len(starts) != len(labels) {
		return TimeLabels{}, fmt.Errorf("label time vector: starts (%d), ends (%d) and labels (%d) must be the same length",
			len(starts), len(ends), len(labels))
	}

	out := TimeLabels{
		T:     append([]float64(nil), t...),
		Label: make([]string, len(t)),
		Code:  make([]int, len(t)),
	}
	for i := range out.Label {
		out.Label[i] = UnlabelledPhase
	}
	for k := range starts {
		for i, ti := range t {
			if ti > starts[k] && ti <= ends[k] {
				out.Label[i] = labels[k]
			}
		}
	}

	// Integer codes in first-appearance order.
	codes := make(map[string]int)
	for i, l := range out.Label {
		c, ok := codes[l]
		if !ok {
			c = len(codes)
			codes[l] = c
		}
		out.Code[i] = c
	}
	return out, nil
}
