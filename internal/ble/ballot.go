// Package ble implements the Ballot Leader Election core: a tick-driven,
// message-passing state machine that each Omni-Paxos replica runs locally
// to decide who it believes the current leader is.
package ble

import "fmt"

// Ballot is the totally ordered election token (n, pid). n is this
// replica's ballot number; pid breaks ties and identifies the owner.
// The zero value is the default ballot (0, 0).
type Ballot struct {
	N   uint32
	Pid uint64
}

// Less reports whether b is strictly ordered before other, lexicographic
// on (N, Pid).
func (b Ballot) Less(other Ballot) bool {
	if b.N != other.N {
		return b.N < other.N
	}
	return b.Pid < other.Pid
}

func (b Ballot) String() string {
	return fmt.Sprintf("Ballot(n=%d, pid=%d)", b.N, b.Pid)
}

// maxBallot returns the greatest of the given ballots under Less, or the
// default ballot if the slice is empty.
func maxBallot(ballots []Ballot) Ballot {
	top := Ballot{}
	for i, b := range ballots {
		if i == 0 || top.Less(b) {
			top = b
		}
	}
	return top
}

// Leader is emitted when the BLE decides a new leader ballot. Pid is the
// elected replica's identity, Round is the ballot it was elected under.
type Leader struct {
	Pid   uint64
	Round Ballot
}

func (l Leader) String() string {
	return fmt.Sprintf("Leader(pid=%d, round=%s)", l.Pid, l.Round)
}
