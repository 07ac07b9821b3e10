package sim

import "math"

// DeliveryModel computes packet delivery probability as a function of
// mode, linear SNR and frame length. Implementations must be pure and
// deterministic; the engine calls them from selection hot paths and
// assumes no side effects.
type DeliveryModel interface {
	// DeliveryProbability returns the probability, in [0,1], that a frame
	// of the given bit length is received correctly at the given mode and
	// linear SNR.
	DeliveryProbability(mode Mode, snrLinear float64, bits int) float64

	// SnrAtBer returns the linear SNR at which the mode's raw bit error
	// rate equals ber. Used to derive per-mode catalog thresholds.
	SnrAtBer(mode Mode, ber float64) float64
}

// ErfcDeliveryModel is the default delivery model: a complementary-error-
// function BER curve per mode, with packet success raised to the frame
// bit length. The curve shape follows the usual AWGN approximation
// ber = 0.5 * erfc(sqrt(ebno * codingGain)) with Eb/N0 obtained from the
// linear SNR scaled by bandwidth over data rate.
type ErfcDeliveryModel struct {
	// BandwidthHz is the channel bandwidth used to convert SNR to Eb/N0.
	// Zero means the 20 MHz default.
	BandwidthHz float64
}

func (m ErfcDeliveryModel) bandwidth() float64 {
	if m.BandwidthHz > 0 {
		return m.BandwidthHz
	}
	return 20e6
}

// ber returns the bit error rate for mode at linear SNR. Eb/N0 falls
// with the data rate, so faster modes need strictly more SNR for the
// same BER.
func (m ErfcDeliveryModel) ber(mode Mode, snrLinear float64) float64 {
	if snrLinear <= 0 {
		return 0.5
	}
	ebno := snrLinear * m.bandwidth() / float64(mode.DataRate)
	ber := 0.5 * math.Erfc(math.Sqrt(ebno/2.0))
	return math.Min(ber, 0.5)
}

// DeliveryProbability returns (1-ber)^bits for the mode's BER at the
// given linear SNR.
func (m ErfcDeliveryModel) DeliveryProbability(mode Mode, snrLinear float64, bits int) float64 {
	if bits <= 0 {
		return 1.0
	}
	ber := m.ber(mode, snrLinear)
	if ber >= 1.0 {
		return 0.0
	}
	return math.Pow(1.0-ber, float64(bits))
}

// SnrAtBer inverts the BER curve by bisection over a wide linear range.
// The curve is monotonically decreasing in SNR, so 60 halvings pin the
// answer well past float precision for any realistic target.
func (m ErfcDeliveryModel) SnrAtBer(mode Mode, ber float64) float64 {
	lo, hi := 1e-6, 1e9
	for i := 0; i < 60; i++ {
		mid := math.Sqrt(lo * hi) // geometric midpoint: the range spans 15 decades
		if m.ber(mode, mid) > ber {
			lo = mid
		} else {
			hi = mid
		}
	}
	return math.Sqrt(lo * hi)
}
