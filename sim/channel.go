package sim

import (
	"math"
	"math/rand"
)

// TrafficConfig groups group-traffic generation parameters for the
// scenario harness.
type TrafficConfig struct {
	Interval     int64 // ticks between group frames
	PayloadBytes int   // payload size per frame
	MaxFrames    int   // 0 = unbounded until horizon
}

// FadingChannel is a flat-fading broadcast channel: each link has a base
// SNR in dB, jittered per frame by a Gaussian draw, and frames survive
// with the delivery model's probability at the jittered SNR. Delivery is
// scheduled one propagation delay after transmission.
type FadingChannel struct {
	Phy DeliveryModel
	// SigmaDb is the per-frame Gaussian fading stddev in dB.
	SigmaDb float64
	// RssiOffsetDb shifts the stamped signal-strength field relative to
	// the stamped SNR. The stock engine minimizes over signal strength,
	// so the two fields share a dB scale by default.
	RssiOffsetDb float64
	// Delay is the propagation delay in ticks; values below 1 count as 1
	// so delivery never lands on the transmitting tick.
	Delay int64

	baseSnrDb map[StationID]map[StationID]float64
	rng       *rand.Rand
}

// NewFadingChannel returns a channel using the given delivery model and
// the simulator's channel RNG stream.
func NewFadingChannel(phy DeliveryModel, rng *rand.Rand) *FadingChannel {
	return &FadingChannel{
		Phy:       phy,
		baseSnrDb: make(map[StationID]map[StationID]float64),
		rng:       rng,
	}
}

// SetLinkSnr sets the symmetric base SNR in dB for the a<->b link.
func (c *FadingChannel) SetLinkSnr(a, b StationID, db float64) {
	c.setOneWay(a, b, db)
	c.setOneWay(b, a, db)
}

func (c *FadingChannel) setOneWay(from, to StationID, db float64) {
	m, ok := c.baseSnrDb[from]
	if !ok {
		m = make(map[StationID]float64)
		c.baseSnrDb[from] = m
	}
	m[to] = db
}

// LinkSnr returns the base SNR in dB for the from->to link; links never
// configured default to 0 dB (linear 1, the engine's too-poor guard).
func (c *FadingChannel) LinkSnr(from, to StationID) float64 {
	if m, ok := c.baseSnrDb[from]; ok {
		if db, ok := m[to]; ok {
			return db
		}
	}
	return 0
}

func (c *FadingChannel) delay() int64 {
	if c.Delay < 1 {
		return 1
	}
	return c.Delay
}

// Transmit fans the frame out to its receivers, draws per-receiver
// survival and schedules deliveries. A successful unicast data delivery
// also reports the acknowledgment SNR back to the sender's engine, which
// is how StationRecord.LastSnr tracks the direct channel.
func (c *FadingChannel) Transmit(s *Simulator, from *Node, f Frame) {
	for id, node := range s.Nodes {
		if id == from.ID {
			continue
		}
		if !f.To.IsGroup() && id != f.To {
			continue
		}

		snrDb := c.LinkSnr(from.ID, id)
		if c.SigmaDb > 0 {
			snrDb += c.rng.NormFloat64() * c.SigmaDb
		}
		snrLinear := math.Pow(10.0, snrDb/10.0)

		p := c.Phy.DeliveryProbability(f.Mode, snrLinear, f.Bits)
		if c.rng.Float64() > p {
			continue
		}

		rx := f
		rx.RxSnrDb = snrDb
		rx.RxRssiDb = snrDb + c.RssiOffsetDb
		s.Schedule(&DeliverEvent{time: s.Clock + c.delay(), To: node, Frame: rx})

		if f.Type == FrameData && !f.To.IsGroup() {
			from.Manager.ReportDataOk(id, snrLinear)
		}
	}
}
