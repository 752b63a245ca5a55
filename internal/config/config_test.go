package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "cluster.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_ParsesReplicaManifest(t *testing.T) {
	path := writeManifest(t, `
pid: 1
peers: [2, 3]
heartbeat_delay: 5
increment_delay: 2
quick_timeout: true
initial_delay_factor: 5
initial_leader:
  pid: 3
  round: 0
`)

	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, uint64(1), c.Pid)
	require.Equal(t, []uint64{2, 3}, c.Peers)
	require.Equal(t, uint64(5), c.HeartbeatDelay)
	require.True(t, c.QuickTimeout)
	require.NotNil(t, c.InitialLeader)
	require.Equal(t, uint64(3), c.InitialLeader.Pid)
}

func TestLoad_RejectsSelfAsPeer(t *testing.T) {
	path := writeManifest(t, `
pid: 1
peers: [1, 2]
heartbeat_delay: 5
increment_delay: 1
`)
	_, err := Load(path)
	require.ErrorContains(t, err, "own peer")
}

func TestLoad_MissingFileWrapsError(t *testing.T) {
	_, err := Load("/nonexistent/cluster.yaml")
	require.Error(t, err)
	require.ErrorContains(t, err, "failed to read cluster manifest")
}

func TestCluster_NewElection_WiresInitialLeader(t *testing.T) {
	c := &Cluster{
		Pid: 1, Peers: []uint64{2, 3}, HeartbeatDelay: 5, IncrementDelay: 2,
		InitialLeader: &InitialLeader{Pid: 3, Round: 7},
	}
	e := c.NewElection()
	require.NotNil(t, e.GetLeader())
	require.Equal(t, uint64(3), e.GetLeader().Pid)
	require.Equal(t, uint32(7), e.GetLeader().Round.N)
	require.False(t, e.IsMajorityConnected())
}

func TestLoadSimManifest_RejectsEmptyPids(t *testing.T) {
	path := writeManifest(t, `
pids: []
heartbeat_delay: 5
increment_delay: 1
`)
	_, err := LoadSimManifest(path)
	require.ErrorContains(t, err, "no pids")
}

func TestSimManifest_ElectionsPeersEveryoneWithEachOther(t *testing.T) {
	m := &SimManifest{Pids: []uint64{1, 2, 3}, HeartbeatDelay: 5, IncrementDelay: 1}
	elections := m.Elections()
	require.Len(t, elections, 3)
	for pid, e := range elections {
		require.Nil(t, e.GetLeader())
		require.Equal(t, pid, e.CurrentBallot().Pid)
	}
}
