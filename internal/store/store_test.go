package store

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crescent-data/ephys.report/internal/auxdata"
	"github.com/crescent-data/ephys.report/internal/sorter"
)

func openTestDB(t *testing.T) *SessionDB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCreateAndListSessions(t *testing.T) {
	db := openTestDB(t)

	id1, err := db.CreateSession("m2023-45", 0, sorter.PolicyCurated, 30000, "first pass")
	require.NoError(t, err)
	id2, err := db.CreateSession("m2023-45", 1, sorter.PolicyIntersect, 30000, "")
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	sessions, err := db.Sessions()
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	for _, s := range sessions {
		assert.Equal(t, "m2023-45", s.Mouse)
	}
}

func TestClusterRoundTrip(t *testing.T) {
	db := openTestDB(t)
	id, err := db.CreateSession("m11-07", 0, sorter.PolicyCurated, 30000, "")
	require.NoError(t, err)

	metrics := []sorter.ClusterMetrics{
		{UUID: "u0", CellID: 0, ClusterID: 3, Probe: "imec0", Depth: 120, PeakChannel: 12,
			ISIViol: 0.5, AmplitudeCutoff: 0.01, PresenceRatio: 0.99,
			CuratedLabel: "good", SorterLabel: "mua"},
		{UUID: "u1", CellID: 1, ClusterID: 1, Probe: "imec0", Depth: 480, PeakChannel: 48,
			ISIViol: 1.1, AmplitudeCutoff: 0.05, PresenceRatio: 0.95,
			CuratedLabel: "good", SorterLabel: "good"},
	}
	require.NoError(t, db.SaveClusters(id, metrics))

	got, err := db.LoadClusters(id)
	require.NoError(t, err)
	assert.Equal(t, metrics, got)
}

func TestSpikeRoundTrip(t *testing.T) {
	db := openTestDB(t)
	id, err := db.CreateSession("m11-07", 0, sorter.PolicyCurated, 30000, "")
	require.NoError(t, err)

	spikes := []sorter.Spike{
		{TS: 0.5, CellID: 1, ClusterID: 1, Depth: 480, Probe: "imec0", UUID: "u1"},
		{TS: 1.25, CellID: 0, ClusterID: 3, Depth: 120, Probe: "imec0", UUID: "u0"},
	}
	// Insert out of time order; load returns time order.
	require.NoError(t, db.SaveSpikes(id, []sorter.Spike{spikes[1], spikes[0]}))

	got, err := db.LoadSpikes(id)
	require.NoError(t, err)
	assert.Equal(t, spikes, got)
}

func TestSpikesScopedToSession(t *testing.T) {
	db := openTestDB(t)
	a, err := db.CreateSession("m11-07", 0, sorter.PolicyCurated, 30000, "")
	require.NoError(t, err)
	b, err := db.CreateSession("m11-07", 1, sorter.PolicyCurated, 30000, "")
	require.NoError(t, err)

	require.NoError(t, db.SaveSpikes(a, []sorter.Spike{{TS: 1, UUID: "ua"}}))
	require.NoError(t, db.SaveSpikes(b, []sorter.Spike{{TS: 2, UUID: "ub"}, {TS: 3, UUID: "ub"}}))

	got, err := db.LoadSpikes(a)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ua", got[0].UUID)
}

func TestEpochRoundTrip(t *testing.T) {
	db := openTestDB(t)
	id, err := db.CreateSession("m11-07", 0, sorter.PolicyCurated, 30000, "")
	require.NoError(t, err)

	epochs := []auxdata.Epoch{
		{Label: "baseline", Start: 0, End: 120},
		{Label: "recovery", Start: 300, End: math.NaN()},
	}
	require.NoError(t, db.SaveEpochs(id, epochs))

	got, err := db.LoadEpochs(id)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, epochs[0], got[0])
	assert.Equal(t, "recovery", got[1].Label)
	// NULL end comes back as an open epoch.
	assert.True(t, got[1].Open())
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	db, err := Open(path)
	require.NoError(t, err)
	id, err := db.CreateSession("m11-07", 0, sorter.PolicyCurated, 30000, "")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Reopening an existing database re-runs the schema harmlessly.
	db2, err := Open(path)
	require.NoError(t, err)
	defer db2.Close()
	sessions, err := db2.Sessions()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, id, sessions[0].ID)
}
