package sim

// FeedbackConfig groups the receive-path accumulation and feedback
// scheduling parameters. Defaults mirror the recognized attribute
// surface of the MAC layer this models.
type FeedbackConfig struct {
	Type       int     `yaml:"type"`       // 0 = EWMA mean, 1 = mean - beta*stddev, 2 = percentile
	Period     int64   `yaml:"period"`     // ticks between periodic feedback transmissions
	Alpha      float64 `yaml:"alpha"`      // EWMA weight for the quality fields
	Beta       float64 `yaml:"beta"`       // stddev weight for type 1 summarization
	Percentile float64 `yaml:"percentile"` // quantile for type 2 summarization, in (0,1)
	Eta        float64 `yaml:"eta"`        // EWMA weight for the loss counter
	Delta      float64 `yaml:"delta"`      // EWMA weight for the total counter
	Rho        float64 `yaml:"rho"`        // loss-ratio ceiling marking a window as lossy
}

// DefaultFeedbackConfig returns the stock feedback parameters.
func DefaultFeedbackConfig() FeedbackConfig {
	return FeedbackConfig{
		Type:       0,
		Period:     100,
		Alpha:      0.5,
		Beta:       0.5,
		Percentile: 0.9,
		Eta:        0.1,
		Delta:      0.1,
		Rho:        0.1,
	}
}

// GroupMinField selects which feedback field the group recomputation
// minimizes over. The stock behavior minimizes the signal-strength field
// even though the feedback carries a separate SNR field; it is kept
// configurable so the alternative can be verified against reference runs.
type GroupMinField string

const (
	GroupMinRssi GroupMinField = "rssi"
	GroupMinSnr  GroupMinField = "snr"
)

// AdaptationConfig groups the rate adaptation engine parameters.
type AdaptationConfig struct {
	Type         int           `yaml:"type"`          // 0 = PER-ceiling scan, 1 = expected-throughput maximization
	BerThreshold float64       `yaml:"ber_threshold"` // target BER for catalog threshold derivation
	PerThreshold float64       `yaml:"per_threshold"` // per-packet loss-rate ceiling for type 0
	GroupMin     GroupMinField `yaml:"group_min"`     // feedback field minimized in group recomputation
}

// DefaultAdaptationConfig returns the stock adaptation parameters.
func DefaultAdaptationConfig() AdaptationConfig {
	return AdaptationConfig{
		Type:         0,
		BerThreshold: 1e-5,
		PerThreshold: 0.001,
		GroupMin:     GroupMinRssi,
	}
}
