// Package sglx is a narrow reader for SpikeGLX-style raw recordings: a
// .bin file of interleaved little-endian int16 sample frames plus a
// sibling .meta file of key=value text. Only the handful of operations the
// alignment pipeline needs are exposed; vendor-specific detail stays here.
package sglx

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Meta holds the parsed key=value pairs of a recording's .meta file.
type Meta map[string]string

// MetaPath derives the sibling .meta path for a .bin file.
func MetaPath(binPath string) string {
	return strings.TrimSuffix(binPath, ".bin") + ".meta"
}

// ReadMeta parses the .meta file that accompanies binPath.
func ReadMeta(binPath string) (Meta, error) {
	path := MetaPath(binPath)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read recording metadata: %w", err)
	}
	defer f.Close()

	meta := make(Meta)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		// Some keys carry a leading tilde marking them as private.
		meta[strings.TrimPrefix(strings.TrimSpace(key), "~")] = strings.TrimSpace(val)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read recording metadata %s: %w", path, err)
	}
	return meta, nil
}

func (m Meta) float(keys ...string) (float64, error) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return 0, fmt.Errorf("metadata %s=%q is not numeric: %w", k, v, err)
			}
			return f, nil
		}
	}
	return 0, fmt.Errorf("metadata missing %s", strings.Join(keys, "/"))
}

// SampRate returns the stream's sample rate in Hz, whichever device wrote
// the file.
func (m Meta) SampRate() (float64, error) {
	return m.float("niSampRate", "imSampRate", "sRateHz")
}

// NChans returns the number of saved channels per sample frame.
func (m Meta) NChans() (int, error) {
	v, err := m.float("nSavedChans")
	return int(v), err
}

// FileTimeSecs returns the recording duration reported by the acquisition
// software.
func (m Meta) FileTimeSecs() (float64, error) {
	return m.float("fileTimeSecs")
}

// Int2Volts returns the scale factor from raw counts to volts, derived
// from the device's full-scale input range over the 16-bit code span.
func (m Meta) Int2Volts() (float64, error) {
	rng, err := m.float("niAiRangeMax", "imAiRangeMax")
	if err != nil {
		return 0, err
	}
	return rng / 32768, nil
}
