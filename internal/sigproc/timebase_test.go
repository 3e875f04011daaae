package sigproc

import (
	"errors"
	"math"
	"testing"
)

// syncSignal builds a pulse train whose detected onsets land exactly on the
// requested sample indices.
func syncSignal(n int, onsets []int, width int) []float64 {
	x := make([]float64, n)
	for _, on := range onsets {
		for i := on + 1; i <= on+width && i < n; i++ {
			x[i] = 2
		}
	}
	return x
}

func TestSyncTimeVector_MidpointInterpolation(t *testing.T) {
	x := syncSignal(400, []int{100, 300}, 20)
	tvec, err := SyncTimeVector(x, []float64{10.0, 11.0}, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tvec) != len(x) {
		t.Fatalf("time vector length = %d, want %d", len(tvec), len(x))
	}

	// Exact at the anchors, halfway at the midpoint.
	if tvec[100] != 10.0 {
		t.Errorf("tvec[100] = %v, want exactly 10.0", tvec[100])
	}
	if tvec[300] != 11.0 {
		t.Errorf("tvec[300] = %v, want exactly 11.0", tvec[300])
	}
	if math.Abs(tvec[200]-10.5) > 0.01 {
		t.Errorf("tvec[200] = %v, want ~10.5", tvec[200])
	}

	// Extrapolation at the nominal rate on both ends.
	if math.Abs(tvec[0]-9.0) > 1e-9 {
		t.Errorf("tvec[0] = %v, want 9.0", tvec[0])
	}
	if math.Abs(tvec[399]-12.0) > 1e-9 {
		t.Errorf("tvec[399] = %v, want 12.0", tvec[399])
	}

	for i := 1; i < len(tvec); i++ {
		if tvec[i] < tvec[i-1] {
			t.Fatalf("time vector decreases at sample %d: %v -> %v", i, tvec[i-1], tvec[i])
		}
	}
}

func TestSyncTimeVector_CountMismatch(t *testing.T) {
	x := syncSignal(400, []int{100, 300}, 20)
	_, err := SyncTimeVector(x, []float64{10.0}, 100)
	var mismatch *TimestampCountMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected *TimestampCountMismatchError, got %v", err)
	}
	if mismatch.Detected != 2 || mismatch.Expected != 1 {
		t.Errorf("mismatch = %+v, want detected 2 expected 1", mismatch)
	}
}

func TestSyncTimeVector_NoOnsets(t *testing.T) {
	x := make([]float64, 100)
	if _, err := SyncTimeVector(x, nil, 100); err == nil {
		t.Fatal("expected an error for a flat sync channel")
	}
}

func TestRemapTimeBasis_RoundTrip(t *testing.T) {
	x := []float64{3, 1, 4, 1, 5, 9, 2, 6}
	xT := []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7}
	got, err := RemapTimeBasis(x, xT, xT)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range x {
		if got[i] != x[i] {
			t.Errorf("round trip changed sample %d: got %v, want %v", i, got[i], x[i])
		}
	}
}

func TestRemapTimeBasis_NearestPreceding(t *testing.T) {
	x := []float64{10, 20, 30}
	xT := []float64{0, 1, 2}
	got, err := RemapTimeBasis(x, xT, []float64{0.5, 1.5, 2.5, -1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{10, 20, 30, 10}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRemapTimeBasis_LengthMismatch(t *testing.T) {
	if _, err := RemapTimeBasis([]float64{1}, []float64{1, 2}, []float64{1}); err == nil {
		t.Fatal("expected an error for mismatched signal/time lengths")
	}
}
