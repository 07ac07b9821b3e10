package sim

// Shared test doubles for the sim package.

// stubDeliveryModel returns a fixed delivery probability per mode name,
// regardless of SNR and frame length. Modes without an entry deliver
// nothing. Thresholds are likewise looked up by name, defaulting to 1.
type stubDeliveryModel struct {
	pdr        map[string]float64
	thresholds map[string]float64
}

func (d stubDeliveryModel) DeliveryProbability(mode Mode, snrLinear float64, bits int) float64 {
	return d.pdr[mode.Name]
}

func (d stubDeliveryModel) SnrAtBer(mode Mode, ber float64) float64 {
	if t, ok := d.thresholds[mode.Name]; ok {
		return t
	}
	return 1
}

// stepDeliveryModel delivers perfectly at or above the mode's threshold
// and not at all below it.
type stepDeliveryModel struct {
	thresholds map[string]float64
}

func (d stepDeliveryModel) DeliveryProbability(mode Mode, snrLinear float64, bits int) float64 {
	if snrLinear >= d.thresholds[mode.Name] {
		return 1
	}
	return 0
}

func (d stepDeliveryModel) SnrAtBer(mode Mode, ber float64) float64 {
	return d.thresholds[mode.Name]
}

// testCatalog registers the eight OFDM modes with the linear SNR
// thresholds {2,5,9,11,15,18,22,25}, increasing with index.
func testCatalog() (*ModeCatalog, stepDeliveryModel) {
	thresholds := []float64{2, 5, 9, 11, 15, 18, 22, 25}
	phy := stepDeliveryModel{thresholds: make(map[string]float64)}
	c := NewModeCatalog()
	for i, m := range ofdmModes {
		phy.thresholds[m.Name] = thresholds[i]
		c.Register(m, thresholds[i])
	}
	return c, phy
}

// captureChannel records every transmitted frame without delivering
// anything.
type captureChannel struct {
	frames []Frame
}

func (c *captureChannel) Transmit(s *Simulator, from *Node, f Frame) {
	c.frames = append(c.frames, f)
}

func (c *captureChannel) feedbackFrames() []Frame {
	var out []Frame
	for _, f := range c.frames {
		if f.Type == FrameFeedback {
			out = append(out, f)
		}
	}
	return out
}
