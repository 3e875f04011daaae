// Package store persists curated session output to sqlite so downstream
// analysis can reload a session without re-reading the sorter directories.
package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"math"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/crescent-data/ephys.report/internal/auxdata"
	"github.com/crescent-data/ephys.report/internal/sorter"
)

type SessionDB struct {
	*sql.DB
}

// schema.sql defines the session, cluster, spike, and epoch tables.
//
//go:embed schema.sql
var schemaSQL string

// Open opens (creating if needed) a session database at path.
func Open(path string) (*SessionDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return nil, fmt.Errorf("failed to initialize session schema: %v", err)
	}
	return &SessionDB{db}, nil
}

// Session is one curated session's identifying row.
type Session struct {
	ID          string
	Mouse       string
	Gate        int
	LabelPolicy string
	SampleRate  float64
	Notes       string
}

// CreateSession inserts a session row and returns its generated id.
func (sdb *SessionDB) CreateSession(mouse string, gate int, policy sorter.LabelPolicy, sampleRate float64, notes string) (string, error) {
	id := uuid.New().String()
	query := `
		INSERT INTO sessions (id, mouse, gate, label_policy, sample_rate, notes)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := sdb.Exec(query, id, mouse, gate, string(policy), sampleRate, notes); err != nil {
		return "", fmt.Errorf("failed to create session: %v", err)
	}
	return id, nil
}

// Sessions lists all stored sessions, newest first.
func (sdb *SessionDB) Sessions() ([]Session, error) {
	rows, err := sdb.Query(`
		SELECT id, mouse, gate, label_policy, sample_rate, COALESCE(notes, '')
		FROM sessions ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %v", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.Mouse, &s.Gate, &s.LabelPolicy, &s.SampleRate, &s.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan session: %v", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SaveClusters writes a session's cluster metric table in one transaction.
func (sdb *SessionDB) SaveClusters(sessionID string, metrics []sorter.ClusterMetrics) error {
	tx, err := sdb.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin cluster insert: %v", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO clusters (session_id, uuid, cell_id, cluster_id, probe, depth,
			peak_channel, isi_viol, amplitude_cutoff, presence_ratio,
			curated_label, sorter_label)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare cluster insert: %v", err)
	}
	defer stmt.Close()

	for _, m := range metrics {
		_, err := stmt.Exec(sessionID, m.UUID, m.CellID, m.ClusterID, m.Probe, m.Depth,
			m.PeakChannel, m.ISIViol, m.AmplitudeCutoff, m.PresenceRatio,
			m.CuratedLabel, m.SorterLabel)
		if err != nil {
			return fmt.Errorf("failed to insert cluster %s: %v", m.UUID, err)
		}
	}
	return tx.Commit()
}

// SaveSpikes writes a session's spike table in one transaction.
func (sdb *SessionDB) SaveSpikes(sessionID string, spikes []sorter.Spike) error {
	tx, err := sdb.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin spike insert: %v", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO spikes (session_id, ts, cell_id, cluster_id, depth, probe, uuid)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare spike insert: %v", err)
	}
	defer stmt.Close()

	for _, s := range spikes {
		if _, err := stmt.Exec(sessionID, s.TS, s.CellID, s.ClusterID, s.Depth, s.Probe, s.UUID); err != nil {
			return fmt.Errorf("failed to insert spike at %g: %v", s.TS, err)
		}
	}
	return tx.Commit()
}

// SaveEpochs writes a session's epoch table. Open epochs store a NULL end.
func (sdb *SessionDB) SaveEpochs(sessionID string, epochs []auxdata.Epoch) error {
	tx, err := sdb.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin epoch insert: %v", err)
	}
	defer tx.Rollback()

	for _, ep := range epochs {
		end := sql.NullFloat64{Float64: ep.End, Valid: !ep.Open()}
		if _, err := tx.Exec(`INSERT INTO epochs (session_id, label, start_ts, end_ts) VALUES (?, ?, ?, ?)`,
			sessionID, ep.Label, ep.Start, end); err != nil {
			return fmt.Errorf("failed to insert epoch %q: %v", ep.Label, err)
		}
	}
	return tx.Commit()
}

// LoadClusters reads a session's cluster metrics ordered by cell id.
func (sdb *SessionDB) LoadClusters(sessionID string) ([]sorter.ClusterMetrics, error) {
	rows, err := sdb.Query(`
		SELECT uuid, cell_id, cluster_id, probe, depth, peak_channel,
			isi_viol, amplitude_cutoff, presence_ratio,
			COALESCE(curated_label, ''), COALESCE(sorter_label, '')
		FROM clusters WHERE session_id = ? ORDER BY cell_id
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query clusters: %v", err)
	}
	defer rows.Close()

	var out []sorter.ClusterMetrics
	for rows.Next() {
		var m sorter.ClusterMetrics
		err := rows.Scan(&m.UUID, &m.CellID, &m.ClusterID, &m.Probe, &m.Depth, &m.PeakChannel,
			&m.ISIViol, &m.AmplitudeCutoff, &m.PresenceRatio, &m.CuratedLabel, &m.SorterLabel)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cluster: %v", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// LoadSpikes reads a session's spike table in time order.
func (sdb *SessionDB) LoadSpikes(sessionID string) ([]sorter.Spike, error) {
	rows, err := sdb.Query(`
		SELECT ts, cell_id, cluster_id, depth, probe, uuid
		FROM spikes WHERE session_id = ? ORDER BY ts
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query spikes: %v", err)
	}
	defer rows.Close()

	var out []sorter.Spike
	for rows.Next() {
		var s sorter.Spike
		if err := rows.Scan(&s.TS, &s.CellID, &s.ClusterID, &s.Depth, &s.Probe, &s.UUID); err != nil {
			return nil, fmt.Errorf("failed to scan spike: %v", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// LoadEpochs reads a session's epoch table ordered by start time. NULL
// ends come back as open epochs.
func (sdb *SessionDB) LoadEpochs(sessionID string) ([]auxdata.Epoch, error) {
	rows, err := sdb.Query(`
		SELECT label, start_ts, end_ts FROM epochs WHERE session_id = ? ORDER BY start_ts
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query epochs: %v", err)
	}
	defer rows.Close()

	var out []auxdata.Epoch
	for rows.Next() {
		var ep auxdata.Epoch
		var end sql.NullFloat64
		if err := rows.Scan(&ep.Label, &ep.Start, &end); err != nil {
			return nil, fmt.Errorf("failed to scan epoch: %v", err)
		}
		if end.Valid {
			ep.End = end.Float64
		} else {
			ep.End = math.NaN()
		}
		out = append(out, ep)
	}
	return out, rows.Err()
}
