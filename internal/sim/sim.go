// Package sim is an in-process, in-memory host for running several
// BallotLeaderElection replicas together for demonstration and testing.
// It is not a network transport — the real spec explicitly delegates that
// to a host application — it exists only to drive the core the way a host
// would: tick every replica, route the messages it emits by value, and
// surface the Leader events it produces.
package sim

import (
	"sort"

	"github.com/Max-Meldrum/omnipaxos/internal/ble"
)

// LeaderEvent pairs a Leader transition with the replica that observed it.
type LeaderEvent struct {
	Observer uint64
	Leader   ble.Leader
}

// Cluster drives N in-process BallotLeaderElection instances in lockstep.
type Cluster struct {
	replicas map[uint64]*ble.BallotLeaderElection
	order    []uint64
}

// NewCluster wires one BallotLeaderElection per entry in replicas, keyed
// by pid.
func NewCluster(replicas map[uint64]*ble.BallotLeaderElection) *Cluster {
	order := make([]uint64, 0, len(replicas))
	for pid := range replicas {
		order = append(order, pid)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	return &Cluster{replicas: replicas, order: order}
}

// Step advances every replica by one tick, in pid order for determinism,
// then delivers every enqueued message to its target replica — repeating
// until no replica has anything left to send. A HeartbeatRequest always
// produces exactly one HeartbeatReply and no further traffic, so every
// message is delivered within two passes and a third pass finds the queues
// empty. It returns the Leader events
// observed this step, in the order their owning replicas ticked.
func (c *Cluster) Step() []LeaderEvent {
	var events []LeaderEvent
	for _, pid := range c.order {
		if l := c.replicas[pid].Tick(); l != nil {
			events = append(events, LeaderEvent{Observer: pid, Leader: *l})
		}
	}
	c.drain()
	return events
}

// drain delivers every currently queued outgoing message to its
// addressed replica, looping until the queues are empty.
func (c *Cluster) drain() {
	for {
		pending := false
		for _, pid := range c.order {
			for _, msg := range c.replicas[pid].TakeOutgoing() {
				pending = true
				if target, ok := c.replicas[msg.To]; ok {
					target.Handle(msg)
				}
			}
		}
		if !pending {
			return
		}
	}
}

// Replica returns the replica owned by pid, or nil if pid is unknown.
func (c *Cluster) Replica(pid uint64) *ble.BallotLeaderElection {
	return c.replicas[pid]
}
