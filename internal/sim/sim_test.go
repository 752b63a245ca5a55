package sim

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Max-Meldrum/omnipaxos/internal/ble"
)

// A three-replica cluster that all start believing pid 3 is already
// leader (as a host would after a restart with a persisted leader
// ballot) converges on a strictly higher ballot for the same pid once
// the incumbent's heartbeats go unanswered for a round: every replica's
// majority gate passes with an empty candidate set, each bumps its own
// ballot number past the known leader's and clears it (no event), and
// on the following round close every replica observes the same new
// top ballot and emits it.
func TestCluster_ReconvergesOnRestart(t *testing.T) {
	seed := &ble.Leader{Pid: 3, Round: ble.Ballot{N: 0, Pid: 3}}
	replicas := map[uint64]*ble.BallotLeaderElection{
		1: ble.New([]uint64{2, 3}, 1, 1, 1, false, seed, nil),
		2: ble.New([]uint64{1, 3}, 2, 1, 1, false, seed, nil),
		3: ble.New([]uint64{1, 2}, 3, 1, 1, false, seed, nil),
	}
	c := NewCluster(replicas)

	require.Empty(t, c.Step()) // round 0 close: majority gate fails for all
	require.Empty(t, c.Step()) // round 1 close: incumbent-loss bump, no event

	events := c.Step() // round 2 close: reconvergence
	require.Len(t, events, 3)

	want := ble.Leader{Pid: 3, Round: ble.Ballot{N: 1, Pid: 3}}
	seenBy := map[uint64]bool{}
	for _, ev := range events {
		require.Equal(t, want, ev.Leader)
		seenBy[ev.Observer] = true
	}
	require.Equal(t, map[uint64]bool{1: true, 2: true, 3: true}, seenBy)

	for pid, r := range replicas {
		require.Equal(t, want, *r.GetLeader(), "replica %d", pid)
	}
}

func TestCluster_ReplicaLookup(t *testing.T) {
	replicas := map[uint64]*ble.BallotLeaderElection{
		1: ble.New([]uint64{2}, 1, 5, 1, false, nil, nil),
		2: ble.New([]uint64{1}, 2, 5, 1, false, nil, nil),
	}
	c := NewCluster(replicas)
	require.NotNil(t, c.Replica(1))
	require.Nil(t, c.Replica(99))
}
