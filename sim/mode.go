package sim

import "fmt"

// CodeRate enumerates the convolutional coding rates used by the OFDM
// mode set.
type CodeRate int

const (
	CodeRateUndef CodeRate = iota
	CodeRate1_2
	CodeRate2_3
	CodeRate3_4
	CodeRate5_6
)

// Ratio returns the coding rate as a fraction. Undefined code rates count
// as rate 1 (no redundancy), matching uncoded operation.
func (c CodeRate) Ratio() float64 {
	switch c {
	case CodeRate1_2:
		return 1.0 / 2.0
	case CodeRate2_3:
		return 2.0 / 3.0
	case CodeRate3_4:
		return 3.0 / 4.0
	case CodeRate5_6:
		return 5.0 / 6.0
	default:
		return 1.0
	}
}

func (c CodeRate) String() string {
	switch c {
	case CodeRate1_2:
		return "1/2"
	case CodeRate2_3:
		return "2/3"
	case CodeRate3_4:
		return "3/4"
	case CodeRate5_6:
		return "5/6"
	default:
		return "undef"
	}
}

// Mode is one selectable modulation/coding configuration. Modes are
// immutable descriptors created once at catalog construction. CodeIndex
// is the mode's position in the rate ladder and is stored on the
// descriptor rather than derived from the data rate at selection time.
type Mode struct {
	Name      string
	DataRate  int64 // bits/sec
	CodeRate  CodeRate
	PhyRate   int64 // PHY symbol-level rate in bits/sec
	CodeIndex int
}

// RateMbps returns the mode's data rate in Mb/s.
func (m Mode) RateMbps() float64 {
	return float64(m.DataRate) * 1e-6
}

// bitsPerSymbol returns the number of coded bits per OFDM symbol for the
// mode's PHY rate (20 MHz, 4 us symbols).
func (m Mode) bitsPerSymbol() int {
	switch m.PhyRate {
	case 12000000:
		return 48
	case 24000000:
		return 96
	case 48000000:
		return 192
	case 72000000:
		return 288
	default:
		return 48
	}
}

// ModeCatalog holds the ordered set of modes available to the rate
// adaptation engine together with their linear SNR thresholds. Order is
// registration order and is stable for the life of the catalog.
type ModeCatalog struct {
	modes      []Mode
	thresholds []float64
}

// NewModeCatalog returns an empty catalog.
func NewModeCatalog() *ModeCatalog {
	return &ModeCatalog{}
}

// Register appends a mode with its linear SNR threshold.
func (c *ModeCatalog) Register(m Mode, snrThreshold float64) {
	c.modes = append(c.modes, m)
	c.thresholds = append(c.thresholds, snrThreshold)
}

// Len returns the number of registered modes.
func (c *ModeCatalog) Len() int {
	return len(c.modes)
}

// Mode returns the mode at position i in registration order.
func (c *ModeCatalog) Mode(i int) Mode {
	return c.modes[i]
}

// Modes returns the registered modes in registration order. Callers must
// not mutate the returned slice.
func (c *ModeCatalog) Modes() []Mode {
	return c.modes
}

// SnrThreshold returns the linear SNR threshold recorded for m. Looking
// up a mode that was never registered is a programming error, not a
// runtime condition, and panics.
func (c *ModeCatalog) SnrThreshold(m Mode) float64 {
	for i := range c.modes {
		if c.modes[i].Name == m.Name {
			return c.thresholds[i]
		}
	}
	panic(fmt.Sprintf("SnrThreshold: mode %q was never registered", m.Name))
}

// ofdmModes is the 802.11a/g rate ladder: 6..54 Mb/s with the coding rate
// and PHY symbol rate of each step.
var ofdmModes = []Mode{
	{Name: "OfdmRate6Mbps", DataRate: 6000000, CodeRate: CodeRate1_2, PhyRate: 12000000, CodeIndex: 0},
	{Name: "OfdmRate9Mbps", DataRate: 9000000, CodeRate: CodeRate3_4, PhyRate: 12000000, CodeIndex: 1},
	{Name: "OfdmRate12Mbps", DataRate: 12000000, CodeRate: CodeRate1_2, PhyRate: 24000000, CodeIndex: 2},
	{Name: "OfdmRate18Mbps", DataRate: 18000000, CodeRate: CodeRate3_4, PhyRate: 24000000, CodeIndex: 3},
	{Name: "OfdmRate24Mbps", DataRate: 24000000, CodeRate: CodeRate1_2, PhyRate: 48000000, CodeIndex: 4},
	{Name: "OfdmRate36Mbps", DataRate: 36000000, CodeRate: CodeRate3_4, PhyRate: 48000000, CodeIndex: 5},
	{Name: "OfdmRate48Mbps", DataRate: 48000000, CodeRate: CodeRate2_3, PhyRate: 72000000, CodeIndex: 6},
	{Name: "OfdmRate54Mbps", DataRate: 54000000, CodeRate: CodeRate3_4, PhyRate: 72000000, CodeIndex: 7},
}

// DefaultOfdmCatalog registers the eight OFDM modes with thresholds
// computed from the delivery model at the given target bit error rate.
func DefaultOfdmCatalog(phy DeliveryModel, ber float64) *ModeCatalog {
	c := NewModeCatalog()
	for _, m := range ofdmModes {
		c.Register(m, phy.SnrAtBer(m, ber))
	}
	return c
}
