// Package auxdata loads the experimenter-maintained side tables of a
// session: behavioral epoch annotations and respiration event tables.
package auxdata

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Epoch is one labelled span of session time. An End of NaN marks an open
// epoch that runs to the end of its recording segment.
type Epoch struct {
	Label string
	Start float64
	End   float64
}

// Open reports whether the epoch has no recorded end time.
func (e Epoch) Open() bool { return math.IsNaN(e.End) }

// LoadEpochs reads an epoch annotation CSV with columns label, start, end.
// An empty end field yields an open epoch.
func LoadEpochs(path string) ([]Epoch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read epoch table: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse epoch table %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("epoch table %s is empty", path)
	}

	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range []string{"label", "start", "end"} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("epoch table %s has no %q column", path, name)
		}
	}

	epochs := make([]Epoch, 0, len(rows)-1)
	for n, row := range rows[1:] {
		ep := Epoch{Label: strings.TrimSpace(row[col["label"]]), End: math.NaN()}
		ep.Start, err = strconv.ParseFloat(row[col["start"]], 64)
		if err != nil {
			return nil, fmt.Errorf("epoch table %s row %d: bad start: %w", path, n+1, err)
		}
		if raw := strings.TrimSpace(row[col["end"]]); raw != "" {
			ep.End, err = strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("epoch table %s row %d: bad end: %w", path, n+1, err)
			}
		}
		epochs = append(epochs, ep)
	}
	sort.SliceStable(epochs, func(i, j int) bool { return epochs[i].Start < epochs[j].Start })
	return epochs, nil
}

// ConcatEpochs merges per-segment epoch tables into one session table on a
// concatenated time basis. segmentEnds gives each segment's duration in
// seconds; epochs of segment k are shifted by the summed durations of the
// segments before it. An open epoch is closed at its own segment's end,
// except in the final segment where it stays open.
func ConcatEpochs(segments [][]Epoch, segmentEnds []float64) ([]Epoch, error) {
	if len(segments) != len(segmentEnds) {
		return nil, fmt.Errorf("%d epoch tables for %d segment durations", len(segments), len(segmentEnds))
	}

	var out []Epoch
	offset := 0.0
	for k, segment := range segments {
		last := k == len(segments)-1
		for _, ep := range segment {
			ep.Start += offset
			switch {
			case ep.Open() && !last:
				ep.End = offset + segmentEnds[k]
			case !ep.Open():
				ep.End += offset
			}
			out = append(out, ep)
		}
		offset += segmentEnds[k]
	}
	return out, nil
}

// Spans splits a session epoch table into the parallel slices the labeling
// step consumes. Open epochs are closed at sessionEnd.
func Spans(epochs []Epoch, sessionEnd float64) (starts, ends []float64, labels []string) {
	starts = make([]float64, len(epochs))
	ends = make([]float64, len(epochs))
	labels = make([]string, len(epochs))
	for i, ep := range epochs {
		starts[i] = ep.Start
		ends[i] = ep.End
		if ep.Open() {
			ends[i] = sessionEnd
		}
		labels[i] = ep.Label
	}
	return starts, ends, labels
}
