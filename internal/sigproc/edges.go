// Package sigproc implements threshold edge detection, clock alignment,
// epoch labelling and event-triggered statistics over sampled signals.
//
// All functions are pure: they take slices, return new slices, and never
// mutate their inputs. Sample indices are int, times are float64 seconds.
package sigproc

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// EdgeSet holds paired rising/falling transitions of a thresholded signal.
// Onsets and Offsets are sample indices, equal length, Offsets[i] > Onsets[i].
type EdgeSet struct {
	Onsets  []int
	Offsets []int
}

// MismatchedEdgesError reports an onset/offset count disagreement after
// boundary correction. Pairing is undefined at that point, so callers must
// abort. The offending signal and threshold are retained so the failure can
// be inspected with WritePlot.
type MismatchedEdgesError struct {
	NumOnsets  int
	NumOffsets int
	Signal     []float64
	Threshold  float64
}

func (e *MismatchedEdgesError) Error() string {
	return fmt.Sprintf("edge detection: %d onsets do not match %d offsets", e.NumOnsets, e.NumOffsets)
}

// WritePlot renders the signal with the threshold overlaid to an image file
// (format chosen by extension, e.g. .png or .svg). Diagnostic hook only;
// detection itself never touches the filesystem.
func (e *MismatchedEdgesError) WritePlot(path string) error {
	p := plot.New()
	p.Title.Text = "mismatched edges"
	p.X.Label.Text = "sample"

	pts := make(plotter.XYs, len(e.Signal))
	for i, v := range e.Signal {
		pts[i].X = float64(i)
		pts[i].Y = v
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("build signal trace: %w", err)
	}
	p.Add(line)

	thresh := plotter.XYs{
		{X: 0, Y: e.Threshold},
		{X: float64(len(e.Signal) - 1), Y: e.Threshold},
	}
	tline, err := plotter.NewLine(thresh)
	if err != nil {
		return fmt.Errorf("build threshold line: %w", err)
	}
	tline.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(tline)

	return p.Save(10*vg.Inch, 4*vg.Inch, path)
}

// BinaryOnsets finds the rising and falling transitions of x around thresh.
// An onset is the index of the last sample at or below the threshold before
// a crossing; an offset is the last sample above it. If the signal starts
// above threshold the unmatched leading offset is dropped; if it ends above
// threshold the unmatched trailing onset is dropped. A remaining count
// mismatch returns *MismatchedEdgesError.
func BinaryOnsets(x []float64, thresh float64) (EdgeSet, error) {
	var ons, offs []int
	for i := 0; i+1 < len(x); i++ {
		if x[i] <= thresh && x[i+1] > thresh {
			ons = append(ons, i)
		} else if x[i] > thresh && x[i+1] <= thresh {
			offs = append(offs, i)
		}
	}

	if len(x) > 0 && x[0] > thresh && len(offs) > 0 {
		offs = offs[1:]
	}
	if len(x) > 0 && x[len(x)-1] > thresh && len(ons) > 0 {
		ons = ons[:len(ons)-1]
	}

	if len(ons) != len(offs) {
		return EdgeSet{}, &MismatchedEdgesError{
			NumOnsets:  len(ons),
			NumOffsets: len(offs),
			Signal:     x,
			Threshold:  thresh,
		}
	}
	return EdgeSet{Onsets: ons, Offsets: offs}, nil
}

// BoolOnsets runs edge detection on a boolean line, such as one extracted
// from a digital channel. True maps to 1, false to 0, threshold 0.5.
func BoolOnsets(x []bool) (EdgeSet, error) {
	f := make([]float64, len(x))
	for i, v := range x {
		if v {
			f[i] = 1
		}
	}
	return BinaryOnsets(f, 0.5)
}
