package ble

// ballotEntry is one (ballot, candidate_flag) pair accumulated during a
// heartbeat round. Duplicates are expected (a peer's reply plus the
// replica's own self-push) and order does not matter — leader evaluation
// is a max reduction over this bag.
type ballotEntry struct {
	ballot    Ballot
	candidate bool
}

// BallotLeaderElection is the per-replica election state machine. It is
// single-threaded and cooperative: every method returns in bounded time,
// never blocks, and performs no I/O. If a host drives one instance from
// more than one goroutine it must serialize the calls itself — the type
// holds no internal lock, deliberately, so that it never masquerades as
// safe for concurrent use.
type BallotLeaderElection struct {
	pid   uint64
	peers []uint64

	majority int

	currentBallot     Ballot
	leader            *Ballot
	majorityConnected bool
	ballots           []ballotEntry

	hbRound        uint32
	hbDelay        uint64
	hbCurrentDelay uint64
	incrementDelay uint64

	quickTimeout       bool
	initialDelayFactor uint64

	ticksElapsed uint64
	outgoing     []BLEMessage
}

// New constructs a BallotLeaderElection for one replica.
//
// peers is this replica's view of the rest of the cluster (pid must not
// be among them); hbDelay is the base round period in ticks;
// incrementDelay is the per-stale-reply penalty added to hbDelay;
// quickTimeout, if true, shortens the first rounds to hbDelay/factor
// until a leader is first observed. initialLeader seeds the believed
// leader before any round has closed; initialDelayFactor defaults to 1
// when nil and must be >= 1 otherwise — passing a zero factor is a
// programming error and panics, since it can never arise from network
// input (only from construction-time misconfiguration).
func New(
	peers []uint64,
	pid uint64,
	hbDelay uint64,
	incrementDelay uint64,
	quickTimeout bool,
	initialLeader *Leader,
	initialDelayFactor *uint64,
) *BallotLeaderElection {
	factor := uint64(1)
	if initialDelayFactor != nil {
		if *initialDelayFactor == 0 {
			panic("ble: initialDelayFactor must be >= 1")
		}
		factor = *initialDelayFactor
	}

	n := len(peers) + 1
	e := &BallotLeaderElection{
		pid:                pid,
		peers:              append([]uint64(nil), peers...),
		majority:           n/2 + 1,
		currentBallot:      Ballot{Pid: pid},
		majorityConnected:  true,
		hbDelay:            hbDelay,
		hbCurrentDelay:     hbDelay,
		incrementDelay:     incrementDelay,
		quickTimeout:       quickTimeout,
		initialDelayFactor: factor,
	}
	if quickTimeout {
		e.hbCurrentDelay = hbDelay / factor
	}

	if initialLeader != nil {
		leaderBallot := Ballot{N: initialLeader.Round.N, Pid: initialLeader.Pid}
		e.leader = &leaderBallot
		if initialLeader.Pid == pid {
			e.currentBallot = leaderBallot
			e.majorityConnected = true
		} else {
			e.currentBallot = Ballot{Pid: pid}
			e.majorityConnected = false
		}
	}

	return e
}

// GetLeader returns the currently believed leader, or nil if none.
func (e *BallotLeaderElection) GetLeader() *Leader {
	if e.leader == nil {
		return nil
	}
	l := Leader{Pid: e.leader.Pid, Round: *e.leader}
	return &l
}

// CurrentBallot returns this replica's self-ballot.
func (e *BallotLeaderElection) CurrentBallot() Ballot {
	return e.currentBallot
}

// IsMajorityConnected reports this replica's current majority_connected
// claim: cleared when a round closes without a majority of replies or when
// another replica's ballot is adopted as leader, and set when this replica
// bumps its ballot after losing the incumbent or is itself adopted.
func (e *BallotLeaderElection) IsMajorityConnected() bool {
	return e.majorityConnected
}

// HBRound returns the current heartbeat round number.
func (e *BallotLeaderElection) HBRound() uint32 {
	return e.hbRound
}

// Tick advances time by one step. When enough ticks have accumulated to
// cross the current round's delay, it closes the round and returns the
// newly declared Leader, if any. Non-blocking; performs no I/O.
func (e *BallotLeaderElection) Tick() *Leader {
	e.ticksElapsed++
	if e.ticksElapsed >= e.hbCurrentDelay {
		e.ticksElapsed = 0
		return e.hbTimeout()
	}
	return nil
}

// Handle dispatches an incoming message to request or reply handling. It
// never fails; the transport is trusted for addressing.
func (e *BallotLeaderElection) Handle(m BLEMessage) {
	switch msg := m.Msg.(type) {
	case HeartbeatRequest:
		e.handleRequest(m.From, msg)
	case HeartbeatReply:
		e.handleReply(msg)
	}
}

// SetInitialLeader performs one-shot initialization mirroring the
// constructor's initial-leader branch. It is a programming error to call
// this once a leader is already known (from construction or a prior
// round close), and that precondition violation panics rather than
// returning an error — it cannot arise from network input. It
// deliberately does not reset outgoing or hb_round: this is not a
// general reset operation, only a one-time seed of the leader belief.
func (e *BallotLeaderElection) SetInitialLeader(l Leader) {
	if e.leader != nil {
		panic("ble: SetInitialLeader called with a leader already known")
	}
	leaderBallot := Ballot{N: l.Round.N, Pid: l.Pid}
	e.leader = &leaderBallot
	if l.Pid == e.pid {
		e.currentBallot = leaderBallot
		e.majorityConnected = true
	} else {
		e.currentBallot = Ballot{Pid: e.pid}
		e.majorityConnected = false
	}
	e.quickTimeout = false
}

// TakeOutgoing drains the outbound message queue. Messages are strictly
// FIFO relative to the order the producing operations were invoked.
func (e *BallotLeaderElection) TakeOutgoing() []BLEMessage {
	out := e.outgoing
	e.outgoing = nil
	return out
}

// hbTimeout closes the current round: the self-count gate, leader
// evaluation, and opening the next round.
func (e *BallotLeaderElection) hbTimeout() *Leader {
	var result *Leader
	if len(e.ballots)+1 >= e.majority {
		e.ballots = append(e.ballots, ballotEntry{ballot: e.currentBallot, candidate: e.majorityConnected})
		result = e.checkLeader()
	} else {
		e.ballots = e.ballots[:0]
		e.majorityConnected = false
	}
	e.newHBRound()
	return result
}

// checkLeader evaluates the ballot bag collected this round and decides
// whether the known leader changes. top is the maximum ballot among
// entries whose candidate flag is true, or the default ballot if no such
// entry exists. The known leader is likewise treated as the default
// ballot when none is set, per the comparison rule: this differs from a
// naive Option-vs-Option comparison (see DESIGN.md) by never declaring a
// default-ballot "leader" out of an empty bag and an unset leader.
func (e *BallotLeaderElection) checkLeader() *Leader {
	entries := e.ballots
	e.ballots = nil

	candidates := make([]Ballot, 0, len(entries))
	for _, en := range entries {
		if en.candidate {
			candidates = append(candidates, en.ballot)
		}
	}
	top := maxBallot(candidates)

	known := Ballot{}
	if e.leader != nil {
		known = *e.leader
	}

	switch {
	case top.Less(known):
		// Incumbent failed to heartbeat within this round: bump past it
		// and become a candidate at the next-higher ballot.
		e.currentBallot.N = known.N + 1
		e.leader = nil
		e.majorityConnected = true
		return nil
	case top != known:
		e.quickTimeout = false
		t := top
		e.leader = &t
		e.majorityConnected = top.Pid == e.pid
		return &Leader{Pid: top.Pid, Round: top}
	default:
		return nil
	}
}

// newHBRound computes the effective delay for the round about to open,
// increments hb_round, and enqueues one HeartbeatRequest per peer.
func (e *BallotLeaderElection) newHBRound() {
	if e.quickTimeout {
		e.hbCurrentDelay = e.hbDelay / e.initialDelayFactor
	} else {
		e.hbCurrentDelay = e.hbDelay
	}

	e.hbRound++
	for _, peer := range e.peers {
		e.outgoing = append(e.outgoing, BLEMessage{
			From: e.pid,
			To:   peer,
			Msg:  HeartbeatRequest{Round: e.hbRound},
		})
	}
}

// handleRequest answers a HeartbeatRequest by echoing its round alongside
// this replica's current ballot and connectivity claim.
func (e *BallotLeaderElection) handleRequest(from uint64, req HeartbeatRequest) {
	e.outgoing = append(e.outgoing, BLEMessage{
		From: e.pid,
		To:   from,
		Msg: HeartbeatReply{
			Round:             req.Round,
			Ballot:            e.currentBallot,
			MajorityConnected: e.majorityConnected,
		},
	})
}

// handleReply accumulates an in-round reply, or — if it arrived for a
// stale round — widens hb_delay permanently. Stale replies never poison
// the ballot bag and never abort the current round early.
func (e *BallotLeaderElection) handleReply(rep HeartbeatReply) {
	if rep.Round == e.hbRound {
		e.ballots = append(e.ballots, ballotEntry{ballot: rep.Ballot, candidate: rep.MajorityConnected})
	} else {
		e.hbDelay += e.incrementDelay
	}
}
