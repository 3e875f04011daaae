// Package sorter turns spike-sorter output directories into curated,
// depth-ordered spike and cluster-metrics tables. It reads the sorter's
// array files (via internal/npy) and metric/label tables, applies
// label-based and quality-based inclusion rules, and unifies multiple
// probes into one identifier space.
//
// Tables are copy-on-write: filters return reduced copies and never mutate
// their inputs. cluster IDs are stable within a sorter run; cell IDs are
// depth ranks and are recomputed whenever the cluster set changes; UUIDs
// are assigned at probe concatenation and survive renumbering.
package sorter

import "fmt"

// Spike is one detected spiking event.
type Spike struct {
	TS        float64 // seconds, session time basis
	ClusterID int     // sorter-assigned, stable within one run
	CellID    int     // depth rank, contiguous from 0, recomputed on any row-set change
	Depth     float64 // microns along the probe
	Probe     string  // probe label, set at concatenation
	UUID      string  // cluster UUID, set at concatenation
}

// ClusterMetrics is one row of the sorter's quality-metric table.
type ClusterMetrics struct {
	ClusterID       int
	PeakChannel     int
	Depth           float64 // depth of the peak channel
	ISIViol         float64 // inter-spike-interval violation rate
	AmplitudeCutoff float64
	PresenceRatio   float64
	CuratedLabel    string // manual curation label ("good", "mua", ...)
	SorterLabel     string // the sorter's own label
	Probe           string
	UUID            string
	CellID          int
}

// LabelPolicy selects which cluster labelling scheme admits a cluster.
type LabelPolicy string

const (
	// PolicyCurated keeps clusters marked good by manual curation.
	PolicyCurated LabelPolicy = "curated"
	// PolicySorter keeps clusters the sorter itself marked good.
	PolicySorter LabelPolicy = "sorter"
	// PolicyIntersect keeps clusters marked good under both schemes.
	PolicyIntersect LabelPolicy = "intersect"
)

// UnknownLabelPolicyError rejects an undefined cluster-inclusion policy.
type UnknownLabelPolicyError struct {
	Policy LabelPolicy
}

func (e *UnknownLabelPolicyError) Error() string {
	return fmt.Sprintf("unknown label policy %q (valid: %s, %s, %s)", e.Policy, PolicyCurated, PolicySorter, PolicyIntersect)
}

// MissingRequiredFileError reports an absent sorter-output file. It wraps
// the underlying I/O error, so errors.Is(err, fs.ErrNotExist) holds.
type MissingRequiredFileError struct {
	Path string
	Err  error
}

func (e *MissingRequiredFileError) Error() string {
	return fmt.Sprintf("required sorter file missing: %s: %v", e.Path, e.Err)
}

func (e *MissingRequiredFileError) Unwrap() error { return e.Err }

// UnknownCellReferenceError reports a request for a cell id that is not in
// the current table.
type UnknownCellReferenceError struct {
	CellID int
}

func (e *UnknownCellReferenceError) Error() string {
	return fmt.Sprintf("cell %d is not in the spike table", e.CellID)
}
