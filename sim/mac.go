package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// FrameType discriminates the frame kinds the node demultiplexes.
type FrameType int

const (
	FrameData FrameType = iota
	FrameFeedback
)

// frameOverheadBytes is the fixed per-frame header overhead added to the
// payload when pricing a frame's air time.
const frameOverheadBytes = 36

// Frame is one transmission on the channel. RxSnrDb and RxRssiDb are
// stamped by the channel on delivery and are meaningless before that.
type Frame struct {
	Type    FrameType
	From    StationID
	To      StationID
	Seq     uint32
	TID     uint8
	Payload []byte
	Bits    int
	Mode    Mode

	RxSnrDb  float64
	RxRssiDb float64
}

// Channel decides, per receiver, whether a transmitted frame survives and
// when it is delivered.
type Channel interface {
	Transmit(s *Simulator, from *Node, f Frame)
}

// Node is one station on the link: the MAC-layer glue around a
// RateManager. It enqueues outgoing frames with an adapted mode,
// demultiplexes receptions, accumulates receive-path quality and runs the
// periodic feedback chain.
//
// Feedback targets a single destination: the first peer this node ever
// receives a group-addressed frame from. Later distinct group senders do
// not retarget the chain or add destinations.
type Node struct {
	ID      StationID
	Manager *RateManager

	sim *Simulator
	rx  *RxAccumulator
	cfg FeedbackConfig

	feedbackPeer    StationID
	feedbackStarted bool
	feedbackStopped bool
	feedbackEpoch   int

	seq       uint32
	collector *LinkCollector
}

// NewNode creates a node, registers it with the simulator and wires the
// shared metrics.
func NewNode(s *Simulator, id StationID, mgr *RateManager, cfg FeedbackConfig) *Node {
	n := &Node{
		ID:      id,
		Manager: mgr,
		sim:     s,
		rx:      NewRxAccumulator(cfg),
		cfg:     cfg,
	}
	s.AddNode(n)
	return n
}

// SetCollector attaches optional Prometheus instrumentation to this node
// and its engine.
func (n *Node) SetCollector(c *LinkCollector) {
	n.collector = c
	n.Manager.SetCollector(c)
}

// FeedbackPeer returns the captured feedback destination, or the empty
// ID when no group frame has been received yet.
func (n *Node) FeedbackPeer() StationID {
	return n.feedbackPeer
}

// Enqueue hands one data payload to the channel, addressed to a unicast
// peer or to BroadcastID. The transmission mode is the engine's current
// group selection for group traffic and the per-station data selection
// otherwise.
//
// tid is the QoS traffic identifier: values of 8 or more are a
// programming error; 7 reverts to 0 (best effort), matching stations
// that tag without a QoS association.
func (n *Node) Enqueue(payload []byte, to StationID, tid uint8) {
	if tid >= 8 {
		panic(fmt.Sprintf("Enqueue: invalid tid %d", tid))
	}
	if tid == 7 {
		tid = 0
	}

	var mode Mode
	if to.IsGroup() {
		mode = n.Manager.GroupMode()
	} else {
		if !n.Manager.KnownStation(to) {
			// Ad hoc association shortcut: assume every destination
			// supports the full catalog.
			n.Manager.Station(to).Supported = n.Manager.Catalog().Modes()
		}
		mode = n.Manager.DataMode(to)
	}

	f := Frame{
		Type:    FrameData,
		From:    n.ID,
		To:      to,
		Seq:     n.seq,
		TID:     tid,
		Payload: payload,
		Bits:    (len(payload) + frameOverheadBytes) * 8,
		Mode:    mode,
	}
	n.seq++
	n.sim.Metrics.DataTx++
	n.sim.Channel.Transmit(n.sim, n, f)
}

// Receive demultiplexes one delivered frame.
func (n *Node) Receive(f Frame) {
	switch f.Type {
	case FrameFeedback:
		hdr, _, err := DecodeFeedback(f.Payload)
		if err != nil {
			n.sim.Metrics.MalformedFeedback++
			n.collector.IncMalformed()
			logrus.Warnf("%s: dropping malformed feedback from %s: %v", n.ID, f.From, err)
			return
		}
		n.sim.Metrics.FeedbackRx++
		n.collector.IncFeedbackRx()
		logrus.Infof("[rx feedback] %s <- %s rssi=%.2f snr=%.2f loss=%d total=%d",
			n.ID, f.From, hdr.Rssi, hdr.Snr, hdr.LossPackets, hdr.TotalPackets)
		n.Manager.UpdateInfo(f.From, RxInfo{
			Rssi:         hdr.Rssi,
			Snr:          hdr.Snr,
			LossPackets:  hdr.LossPackets,
			TotalPackets: hdr.TotalPackets,
		})

	case FrameData:
		n.sim.Metrics.DataRx++
		n.rx.Observe(f.RxRssiDb, f.RxSnrDb, f.Seq)
		if f.To.IsGroup() && n.feedbackPeer == "" {
			n.feedbackPeer = f.From
			n.StartPeriodicFeedback()
		}
	}
}

// StartPeriodicFeedback begins the self-re-arming feedback chain: one
// feedback frame immediately, then one every FeedbackConfig.Period ticks.
// Starting an already-started chain is a no-op, so the chain is never
// armed twice. Without a captured destination there is nobody to report
// to and the call is a no-op as well.
func (n *Node) StartPeriodicFeedback() {
	if n.feedbackStarted {
		return
	}
	if n.feedbackPeer == "" {
		logrus.Warnf("%s: StartPeriodicFeedback before any group frame; no destination yet", n.ID)
		return
	}
	n.feedbackStarted = true
	n.feedbackStopped = false
	n.feedbackEpoch++
	n.fireFeedback()
}

// StopPeriodicFeedback halts the chain: an already-scheduled firing still
// executes but sends nothing and does not re-arm. The chain can be
// restarted afterwards.
func (n *Node) StopPeriodicFeedback() {
	n.feedbackStopped = true
	n.feedbackStarted = false
}

// fireFeedback sends one feedback frame to the captured destination and
// re-arms the chain. Firings scheduled before a Stop (or a Stop/Start
// cycle) belong to a stale epoch and are discarded.
func (n *Node) fireFeedback() {
	if n.feedbackStopped || n.feedbackPeer == "" {
		return
	}
	info := n.rx.Snapshot()
	hdr := FeedbackHeader{
		Rssi:         info.Rssi,
		Snr:          info.Snr,
		LossPackets:  info.LossPackets,
		TotalPackets: info.TotalPackets,
	}
	f := Frame{
		Type:    FrameFeedback,
		From:    n.ID,
		To:      n.feedbackPeer,
		Payload: hdr.Append(nil),
		Bits:    FeedbackSize * 8,
		Mode:    n.Manager.Catalog().Mode(0),
	}
	n.sim.Metrics.FeedbackTx++
	n.collector.IncFeedbackTx()
	logrus.Infof("[tx feedback] %s -> %s rssi=%.2f snr=%.2f loss=%d total=%d",
		n.ID, n.feedbackPeer, hdr.Rssi, hdr.Snr, hdr.LossPackets, hdr.TotalPackets)
	n.sim.Channel.Transmit(n.sim, n, f)

	n.sim.Schedule(&FeedbackEvent{
		time:  n.sim.Clock + n.cfg.Period,
		Node:  n,
		Epoch: n.feedbackEpoch,
	})
}
