package sglx

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
)

// SessionInfo identifies a recording session parsed from its on-disk path.
type SessionInfo struct {
	Mouse string
	Gate  int
	Probe int
}

var (
	mouseRe = regexp.MustCompile(`(m\d+-\d+)`)
	gateRe  = regexp.MustCompile(`_g(\d+)`)
	probeRe = regexp.MustCompile(`imec(\d+)`)
)

// ParseSessionPath extracts the mouse identifier, gate index, and probe
// index from a sorted-output directory path. Probe is -1 when the path
// carries no probe component.
func ParseSessionPath(dir string) (SessionInfo, error) {
	info := SessionInfo{Probe: -1}

	m := mouseRe.FindStringSubmatch(dir)
	if m == nil {
		return info, fmt.Errorf("no mouse identifier in path %s", dir)
	}
	info.Mouse = m[1]

	g := gateRe.FindStringSubmatch(dir)
	if g == nil {
		return info, fmt.Errorf("no gate index in path %s", dir)
	}
	fmt.Sscanf(g[1], "%d", &info.Gate)

	if p := probeRe.FindStringSubmatch(dir); p != nil {
		fmt.Sscanf(p[1], "%d", &info.Probe)
	}
	return info, nil
}

// FindNIBin locates the nidaq .bin for a session under the raw-data root.
// The root is supplied explicitly so callers behave identically on every
// host.
func FindNIBin(rawRoot, mouse string, gate int) (string, error) {
	pattern := filepath.Join(rawRoot, mouse, fmt.Sprintf("*_g%d", gate), "*nidq.bin")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", fmt.Errorf("search for nidaq recording: %w", err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no nidaq recording matches %s", pattern)
	}
	if len(matches) > 1 {
		return "", fmt.Errorf("%d nidaq recordings match %s, want exactly one", len(matches), pattern)
	}
	return matches[0], nil
}

// FindSorterDirs locates a session's per-probe sorter output directories
// under the sorted-data root, in probe order.
func FindSorterDirs(sortedRoot, mouse string, gate int) ([]string, error) {
	session := fmt.Sprintf("%s_g%d", mouse, gate)
	pattern := filepath.Join(sortedRoot, mouse, session, session+"_imec*")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("search for sorter output: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no sorter output matches %s", pattern)
	}
	sort.Strings(matches)
	return matches, nil
}
