// Package config loads the pipeline configuration from JSON. Fields are
// pointers so a partial file only overrides what it names; the Get*
// accessors supply defaults for everything else.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// PipelineConfig is the root configuration for session curation. RawRoot
// and SortedRoot locate the acquisition output on disk; the remaining
// fields tune detection and filtering.
type PipelineConfig struct {
	// Data roots
	RawRoot    *string `json:"raw_root,omitempty"`
	SortedRoot *string `json:"sorted_root,omitempty"`
	OutputDB   *string `json:"output_db,omitempty"`

	// Acquisition params
	SampleRate  *float64 `json:"sample_rate,omitempty"`
	SyncChannel *int     `json:"sync_channel,omitempty"`
	SyncBit     *int     `json:"sync_bit,omitempty"`

	// Curation params
	LabelPolicy      *string  `json:"label_policy,omitempty"`
	MinSpikes        *int     `json:"min_spikes,omitempty"`
	MaxISIViol       *float64 `json:"max_isi_viol,omitempty"`
	MaxAmpCutoff     *float64 `json:"max_amplitude_cutoff,omitempty"`
	MinPresenceRatio *float64 `json:"min_presence_ratio,omitempty"`

	// Pulse detection
	PulseThreshold *float64 `json:"pulse_threshold,omitempty"`
}

// Load reads a PipelineConfig from a JSON file. Fields omitted from the
// file keep their defaults, so partial configs are safe.
func Load(path string) (*PipelineConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &PipelineConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *PipelineConfig) Validate() error {
	if c.SampleRate != nil && *c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %f", *c.SampleRate)
	}
	if c.SyncBit != nil && (*c.SyncBit < 0 || *c.SyncBit > 15) {
		return fmt.Errorf("sync_bit must be a 16-bit line index, got %d", *c.SyncBit)
	}
	if c.LabelPolicy != nil {
		switch *c.LabelPolicy {
		case "curated", "sorter", "intersect":
		default:
			return fmt.Errorf("unknown label_policy %q", *c.LabelPolicy)
		}
	}
	if c.MinSpikes != nil && *c.MinSpikes < 0 {
		return fmt.Errorf("min_spikes must be non-negative, got %d", *c.MinSpikes)
	}
	if c.MinPresenceRatio != nil && (*c.MinPresenceRatio < 0 || *c.MinPresenceRatio > 1) {
		return fmt.Errorf("min_presence_ratio must be between 0 and 1, got %f", *c.MinPresenceRatio)
	}
	return nil
}

// GetRawRoot returns the raw-data root or the default.
func (c *PipelineConfig) GetRawRoot() string {
	if c.RawRoot == nil {
		return "data/raw"
	}
	return *c.RawRoot
}

// GetSortedRoot returns the sorter-output root or the default.
func (c *PipelineConfig) GetSortedRoot() string {
	if c.SortedRoot == nil {
		return "data/sorted"
	}
	return *c.SortedRoot
}

// GetOutputDB returns the session database path or the default.
func (c *PipelineConfig) GetOutputDB() string {
	if c.OutputDB == nil {
		return "sessions.db"
	}
	return *c.OutputDB
}

// GetSampleRate returns the acquisition sample rate in Hz or the default.
func (c *PipelineConfig) GetSampleRate() float64 {
	if c.SampleRate == nil {
		return 30000
	}
	return *c.SampleRate
}

// GetSyncChannel returns the digital word channel carrying the sync line.
func (c *PipelineConfig) GetSyncChannel() int {
	if c.SyncChannel == nil {
		return 0
	}
	return *c.SyncChannel
}

// GetSyncBit returns the sync line's bit index within the digital word.
func (c *PipelineConfig) GetSyncBit() int {
	if c.SyncBit == nil {
		return 0
	}
	return *c.SyncBit
}

// GetLabelPolicy returns the cluster label policy or the default.
func (c *PipelineConfig) GetLabelPolicy() string {
	if c.LabelPolicy == nil {
		return "curated"
	}
	return *c.LabelPolicy
}

// GetMinSpikes returns the minimum spike count for the rate filter.
func (c *PipelineConfig) GetMinSpikes() int {
	if c.MinSpikes == nil {
		return 100
	}
	return *c.MinSpikes
}

// GetMaxISIViol returns the ISI violation ceiling.
func (c *PipelineConfig) GetMaxISIViol() float64 {
	if c.MaxISIViol == nil {
		return 2.0
	}
	return *c.MaxISIViol
}

// GetMaxAmpCutoff returns the amplitude cutoff ceiling.
func (c *PipelineConfig) GetMaxAmpCutoff() float64 {
	if c.MaxAmpCutoff == nil {
		return 0.1
	}
	return *c.MaxAmpCutoff
}

// GetMinPresenceRatio returns the presence ratio floor.
func (c *PipelineConfig) GetMinPresenceRatio() float64 {
	if c.MinPresenceRatio == nil {
		return 0.9
	}
	return *c.MinPresenceRatio
}

// GetPulseThreshold returns the analog pulse threshold in volts.
func (c *PipelineConfig) GetPulseThreshold() float64 {
	if c.PulseThreshold == nil {
		return 2.5
	}
	return *c.PulseThreshold
}
