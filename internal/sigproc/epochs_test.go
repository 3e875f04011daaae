package sigproc

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLabelTimeVector_SharedBoundary(t *testing.T) {
	// A sample on a shared boundary belongs to the interval that ends there.
	got, err := LabelTimeVector(
		[]float64{5, 10, 15},
		[]float64{0, 10},
		[]float64{10, 20},
		[]string{"a", "b"},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "a", "b"}, got.Label); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 0, 1}, got.Code); diff != "" {
		t.Errorf("codes mismatch (-want +got):\n%s", diff)
	}
}

func TestLabelTimeVector_DefaultAndOverwrite(t *testing.T) {
	got, err := LabelTimeVector(
		[]float64{0.5, 1.5, 2.5, 3.5},
		[]float64{1, 2},
		[]float64{3, 3},
		[]string{"baseline", "stim"},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Sample 0.5 stays unlabelled; 2.5 overlaps both intervals and takes
	// the later one.
	want := []string{UnlabelledPhase, "baseline", "stim", UnlabelledPhase}
	if diff := cmp.Diff(want, got.Label); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
	// First-appearance encoding: none=0, baseline=1, stim=2.
	if diff := cmp.Diff([]int{0, 1, 2, 0}, got.Code); diff != "" {
		t.Errorf("codes mismatch (-want +got):\n%s", diff)
	}
}

func TestLabelTimeVector_LengthMismatch(t *testing.T) {
	if _, err := LabelTimeVector([]float64{1}, []float64{0}, []float64{1, 2}, []string{"a"}); err == nil {
		t.Fatal("expected an error for mismatched interval slices")
	}
}
