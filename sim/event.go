package sim

import "github.com/sirupsen/logrus"

// Event is the interface for all simulation events. Each event has a
// timestamp (in ticks) and an Execute method that advances simulation
// state when invoked.
type Event interface {
	Timestamp() int64
	Execute(*Simulator)
}

// DeliverEvent delivers one frame to a receiving node after the channel
// has decided the frame survives.
type DeliverEvent struct {
	time  int64
	To    *Node
	Frame Frame
}

// Timestamp returns the scheduled delivery time.
func (e *DeliverEvent) Timestamp() int64 {
	return e.time
}

// Execute hands the frame to the receiver.
func (e *DeliverEvent) Execute(s *Simulator) {
	e.To.Receive(e.Frame)
}

// FeedbackEvent is one firing of a node's periodic feedback chain. The
// node re-arms the chain itself after each firing unless it has been
// stopped. Epoch ties the firing to the chain generation that scheduled
// it, so firings left over from a stopped chain do nothing.
type FeedbackEvent struct {
	time  int64
	Node  *Node
	Epoch int
}

// Timestamp returns the scheduled firing time.
func (e *FeedbackEvent) Timestamp() int64 {
	return e.time
}

// Execute sends one feedback frame and re-arms the chain.
func (e *FeedbackEvent) Execute(s *Simulator) {
	if e.Epoch != e.Node.feedbackEpoch {
		return
	}
	e.Node.fireFeedback()
}

// TrafficEvent generates one group data frame from the configured source
// node and re-arms itself at the traffic interval until the frame budget
// or the horizon runs out.
type TrafficEvent struct {
	time   int64
	Source *Node
	Cfg    TrafficConfig
	sent   int
}

// NewTrafficEvent returns the first firing of a group traffic source,
// scheduled at the given tick.
func NewTrafficEvent(at int64, source *Node, cfg TrafficConfig) *TrafficEvent {
	return &TrafficEvent{time: at, Source: source, Cfg: cfg}
}

// Timestamp returns the scheduled generation time.
func (e *TrafficEvent) Timestamp() int64 {
	return e.time
}

// Execute enqueues one group frame and reschedules.
func (e *TrafficEvent) Execute(s *Simulator) {
	payload := make([]byte, e.Cfg.PayloadBytes)
	e.Source.Enqueue(payload, BroadcastID, 0)
	e.sent++
	logrus.Debugf("[tick %07d] traffic: group frame %d/%d", s.Clock, e.sent, e.Cfg.MaxFrames)
	if e.Cfg.MaxFrames > 0 && e.sent >= e.Cfg.MaxFrames {
		return
	}
	interval := e.Cfg.Interval
	if interval < 1 {
		interval = 1
	}
	next := s.Clock + interval
	if next > s.Horizon {
		return
	}
	s.Schedule(&TrafficEvent{time: next, Source: e.Source, Cfg: e.Cfg, sent: e.sent})
}
