// Package config loads the cluster manifest a BLE demo driver needs to
// construct a BallotLeaderElection instance: the peer set and the delay
// knobs from the constructor parameter table.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Max-Meldrum/omnipaxos/internal/ble"
)

// InitialLeader seeds the believed leader before any round has closed.
type InitialLeader struct {
	Pid   uint64 `yaml:"pid"`
	Round uint32 `yaml:"round"`
}

// Cluster describes one replica's view of its BLE cluster: its own pid,
// the rest of the replicas, and the timing knobs from spec §6.
type Cluster struct {
	Pid                uint64         `yaml:"pid"`
	Peers              []uint64       `yaml:"peers"`
	HeartbeatDelay     uint64         `yaml:"heartbeat_delay"`
	IncrementDelay     uint64         `yaml:"increment_delay"`
	QuickTimeout       bool           `yaml:"quick_timeout"`
	InitialDelayFactor uint64         `yaml:"initial_delay_factor"`
	InitialLeader      *InitialLeader `yaml:"initial_leader"`
}

// Load reads and parses a cluster manifest from path.
func Load(path string) (*Cluster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cluster manifest: %w", err)
	}

	var c Cluster
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse cluster manifest: %w", err)
	}

	for _, p := range c.Peers {
		if p == c.Pid {
			return nil, fmt.Errorf("cluster manifest lists pid %d as its own peer", p)
		}
	}

	return &c, nil
}

// NewElection constructs a BallotLeaderElection from the parsed manifest.
func (c *Cluster) NewElection() *ble.BallotLeaderElection {
	var initialLeader *ble.Leader
	if c.InitialLeader != nil {
		initialLeader = &ble.Leader{
			Pid:   c.InitialLeader.Pid,
			Round: ble.Ballot{N: c.InitialLeader.Round, Pid: c.InitialLeader.Pid},
		}
	}

	var factor *uint64
	if c.InitialDelayFactor != 0 {
		f := c.InitialDelayFactor
		factor = &f
	}

	return ble.New(c.Peers, c.Pid, c.HeartbeatDelay, c.IncrementDelay, c.QuickTimeout, initialLeader, factor)
}

// SimManifest describes a whole cluster for the in-process demo driver:
// every replica's pid plus the timing knobs they all share. Each replica
// is constructed with the rest of Pids as its peer set.
type SimManifest struct {
	Pids               []uint64 `yaml:"pids"`
	HeartbeatDelay     uint64   `yaml:"heartbeat_delay"`
	IncrementDelay     uint64   `yaml:"increment_delay"`
	QuickTimeout       bool     `yaml:"quick_timeout"`
	InitialDelayFactor uint64   `yaml:"initial_delay_factor"`
}

// LoadSimManifest reads and parses a whole-cluster manifest from path.
func LoadSimManifest(path string) (*SimManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cluster manifest: %w", err)
	}

	var m SimManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse cluster manifest: %w", err)
	}
	if len(m.Pids) == 0 {
		return nil, fmt.Errorf("cluster manifest lists no pids")
	}

	return &m, nil
}

// Elections constructs one BallotLeaderElection per pid in the manifest,
// keyed by pid, each peered with every other listed pid.
func (m *SimManifest) Elections() map[uint64]*ble.BallotLeaderElection {
	var factor *uint64
	if m.InitialDelayFactor != 0 {
		f := m.InitialDelayFactor
		factor = &f
	}

	out := make(map[uint64]*ble.BallotLeaderElection, len(m.Pids))
	for _, pid := range m.Pids {
		peers := make([]uint64, 0, len(m.Pids)-1)
		for _, other := range m.Pids {
			if other != pid {
				peers = append(peers, other)
			}
		}
		out[pid] = ble.New(peers, pid, m.HeartbeatDelay, m.IncrementDelay, m.QuickTimeout, nil, factor)
	}
	return out
}
