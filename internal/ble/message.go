package ble

// HeartbeatMsg is the sum type carried by a BLEMessage: either a request or
// a reply. Dispatch is a single type switch in Handle; this is composition,
// not inheritance.
type HeartbeatMsg interface {
	isHeartbeatMsg()
}

// HeartbeatRequest asks every peer to reply with their current ballot and
// majority-connectivity claim for this round.
type HeartbeatRequest struct {
	Round uint32
}

func (HeartbeatRequest) isHeartbeatMsg() {}

// HeartbeatReply answers a HeartbeatRequest. Round echoes the requester's
// round (not the replier's own hb_round) so the requester can match
// replies to the round it opened.
type HeartbeatReply struct {
	Round             uint32
	Ballot            Ballot
	MajorityConnected bool
}

func (HeartbeatReply) isHeartbeatMsg() {}

// BLEMessage is the envelope exchanged between replicas. Addressing is
// interpreted by the transport; the core only reads From/To, never routes.
type BLEMessage struct {
	From uint64
	To   uint64
	Msg  HeartbeatMsg
}
