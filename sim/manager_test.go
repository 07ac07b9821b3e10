package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const peerA StationID = "02:00:00:00:00:0a"
const peerB StationID = "02:00:00:00:00:0b"

// newTestManager builds an engine over the fixed test catalog and the
// given delivery model.
func newTestManager(t *testing.T, phy DeliveryModel, adaptType int) *RateManager {
	t.Helper()
	catalog, step := testCatalog()
	if phy == nil {
		phy = step
	}
	cfg := DefaultAdaptationConfig()
	cfg.Type = adaptType
	return NewRateManager(cfg, phy, catalog)
}

func TestGroupRateAdaptation_NoSamples_SelectsLowestMode(t *testing.T) {
	// GIVEN engines of both algorithm types with zero samples
	for _, typ := range []int{0, 1} {
		m := newTestManager(t, nil, typ)

		// WHEN the group mode is recomputed
		got := m.GroupRateAdaptation()

		// THEN catalog index 0 is selected deterministically
		assert.Equal(t, "OfdmRate6Mbps", got.Name, "type %d", typ)
	}
}

func TestGroupRateAdaptation_SelectionStaysInCatalog(t *testing.T) {
	// Whatever the samples, the selected mode is one of the catalog's.
	m := newTestManager(t, nil, 0)
	catalog := m.Catalog()
	for _, rssi := range []float64{-10, 0, 3, 10, 20, 40} {
		m.UpdateInfo(peerA, RxInfo{Rssi: rssi})
		got := m.GroupMode()
		found := false
		for _, c := range catalog.Modes() {
			if c.Name == got.Name {
				found = true
			}
		}
		assert.True(t, found, "rssi %v selected %s", rssi, got.Name)
	}
}

func TestUpdateInfo_Idempotent(t *testing.T) {
	// GIVEN one sample ingested twice with identical content
	m := newTestManager(t, nil, 0)
	info := RxInfo{Rssi: 20, Snr: 18, LossPackets: 1, TotalPackets: 10}
	m.UpdateInfo(peerA, info)
	m.UpdateInfo(peerA, info)

	// THEN one live sample remains
	assert.Equal(t, 1, m.SampleCount())
}

func TestUpdateInfo_LastWriteWins(t *testing.T) {
	// GIVEN two conflicting samples for the same peer in sequence
	m := newTestManager(t, nil, 0)
	m.UpdateInfo(peerA, RxInfo{Rssi: 30})
	m.UpdateInfo(peerA, RxInfo{Rssi: 3})

	// THEN only the latest is retained: the group minimum reflects 3 dB
	assert.Equal(t, 1, m.SampleCount())
	assert.InDelta(t, 3.0, m.minSnrDb, 1e-9)
}

func TestGroupRateAdaptation_PoorChannel_RetainsPreviousMode(t *testing.T) {
	// GIVEN a previous selection made at a good SNR (throughput
	// maximization over the step model picks the top of the ladder)
	m := newTestManager(t, nil, 1)
	m.UpdateInfo(peerA, RxInfo{Rssi: 20})
	before := m.GroupMode()
	require.Equal(t, "OfdmRate54Mbps", before.Name)

	// WHEN the reported quality drops to 0 dB (linear 1.0)
	m.UpdateInfo(peerA, RxInfo{Rssi: 0})

	// THEN no mode update occurs this round
	assert.Equal(t, before.Name, m.GroupMode().Name)
}

func TestGroupRateAdaptation_PerCeiling_PinsLowestLossMode(t *testing.T) {
	// GIVEN per-mode delivery probabilities where index 3 has the
	// smallest loss below the 0.001 ceiling
	phy := stubDeliveryModel{pdr: map[string]float64{
		"OfdmRate6Mbps":  0.9990,   // loss 1e-3, not strictly below ceiling
		"OfdmRate9Mbps":  0.9992,   // loss 8e-4
		"OfdmRate12Mbps": 0.99999,  // loss 1e-5
		"OfdmRate18Mbps": 0.999999, // loss 1e-6 <- best
		"OfdmRate24Mbps": 0.9999,   // loss 1e-4
		"OfdmRate36Mbps": 0.5,
		"OfdmRate48Mbps": 0.2,
		"OfdmRate54Mbps": 0.1,
	}}
	m := newTestManager(t, phy, 0)

	// WHEN a single sample at 20 dB triggers adaptation
	m.UpdateInfo(peerA, RxInfo{Rssi: 20})

	// THEN the 18 Mb/s mode is selected
	assert.Equal(t, "OfdmRate18Mbps", m.GroupMode().Name)
	assert.Equal(t, 3, m.GroupMode().CodeIndex)
}

func TestGroupRateAdaptation_PerCeiling_NoCandidate_FallsBack(t *testing.T) {
	// GIVEN delivery probabilities that put every mode above the ceiling
	phy := stubDeliveryModel{pdr: map[string]float64{}}
	m := newTestManager(t, phy, 0)

	// WHEN adaptation runs at a good SNR
	m.UpdateInfo(peerA, RxInfo{Rssi: 20})

	// THEN the lowest-rate mode is the fallback
	assert.Equal(t, "OfdmRate6Mbps", m.GroupMode().Name)
}

func TestGroupRateAdaptation_Throughput_MaximizesExpectedThroughput(t *testing.T) {
	// GIVEN delivery probabilities where 36 Mb/s * 0.9 beats everything
	phy := stubDeliveryModel{pdr: map[string]float64{
		"OfdmRate6Mbps":  1.0,  // 6.0
		"OfdmRate12Mbps": 1.0,  // 12.0
		"OfdmRate24Mbps": 0.9,  // 21.6
		"OfdmRate36Mbps": 0.9,  // 32.4 <- best
		"OfdmRate48Mbps": 0.6,  // 28.8
		"OfdmRate54Mbps": 0.55, // 29.7
	}}
	m := newTestManager(t, phy, 1)

	// WHEN adaptation runs
	m.UpdateInfo(peerA, RxInfo{Rssi: 20})

	// THEN the expected-throughput maximizer wins
	assert.Equal(t, "OfdmRate36Mbps", m.GroupMode().Name)
}

func TestGroupRateAdaptation_Throughput_AllZero_FallsBack(t *testing.T) {
	phy := stubDeliveryModel{pdr: map[string]float64{}}
	m := newTestManager(t, phy, 1)
	m.UpdateInfo(peerA, RxInfo{Rssi: 20})
	assert.Equal(t, "OfdmRate6Mbps", m.GroupMode().Name)
}

func TestGroupRateAdaptation_MinimizesOverSignalStrengthField(t *testing.T) {
	// GIVEN samples whose RSSI and SNR fields disagree
	m := newTestManager(t, nil, 0)
	m.UpdateInfo(peerA, RxInfo{Rssi: 25, Snr: 5})
	m.UpdateInfo(peerB, RxInfo{Rssi: 12, Snr: 30})

	// THEN the stock engine minimizes the signal-strength field
	assert.InDelta(t, 12.0, m.minSnrDb, 1e-9)
}

func TestGroupRateAdaptation_GroupMinSnr_UsesSnrField(t *testing.T) {
	// GIVEN the min-field flipped to SNR for reference verification
	catalog, phy := testCatalog()
	cfg := DefaultAdaptationConfig()
	cfg.GroupMin = GroupMinSnr
	m := NewRateManager(cfg, phy, catalog)

	m.UpdateInfo(peerA, RxInfo{Rssi: 25, Snr: 5})
	m.UpdateInfo(peerB, RxInfo{Rssi: 12, Snr: 30})

	assert.InDelta(t, 5.0, m.minSnrDb, 1e-9)
}

func TestDataMode_MaximizesThroughputAtLastSnr(t *testing.T) {
	// GIVEN a peer whose last measured SNR clears thresholds up to 15
	m := newTestManager(t, nil, 0)
	m.Station(peerA).Supported = m.Catalog().Modes()
	m.ReportDataOk(peerA, 16.0)

	// WHEN the data mode is selected (step model: modes with threshold
	// <= 16 deliver perfectly, the rest not at all)
	got := m.DataMode(peerA)

	// THEN the fastest delivering mode wins: 24 Mb/s (threshold 15)
	assert.Equal(t, "OfdmRate24Mbps", got.Name)
}

func TestDataMode_NothingDelivers_ReturnsDefault(t *testing.T) {
	// GIVEN a peer with last SNR below every threshold
	m := newTestManager(t, nil, 0)
	m.Station(peerA).Supported = m.Catalog().Modes()
	m.ReportDataOk(peerA, 1.0)

	// THEN the transmit path still returns a usable mode
	assert.Equal(t, "OfdmRate6Mbps", m.DataMode(peerA).Name)
}

func TestRtsMode_HighestThresholdBelowLastSnr(t *testing.T) {
	// GIVEN a peer at last SNR 16 over thresholds {2,5,9,11,15,18,22,25}
	m := newTestManager(t, nil, 0)
	m.ReportRtsOk(peerA, 16.0)

	// WHEN the RTS mode is selected
	got := m.RtsMode(peerA)

	// THEN the highest threshold strictly below 16 wins: 15 (24 Mb/s)
	assert.Equal(t, "OfdmRate24Mbps", got.Name)
}

func TestRtsMode_NoThresholdQualifies_ReturnsDefault(t *testing.T) {
	m := newTestManager(t, nil, 0)
	m.ReportRtsOk(peerA, 1.5) // below the lowest threshold of 2
	assert.Equal(t, "OfdmRate6Mbps", m.RtsMode(peerA).Name)
}

func TestReportHandlers_UpdateLastSnr(t *testing.T) {
	// GIVEN successful exchanges reporting SNR
	m := newTestManager(t, nil, 0)
	m.ReportRtsOk(peerA, 7.5)
	assert.Equal(t, 7.5, m.Station(peerA).LastSnr)

	m.ReportDataOk(peerA, 9.25)
	assert.Equal(t, 9.25, m.Station(peerA).LastSnr)

	// WHEN failures are reported
	m.ReportDataFailed(peerA)
	m.ReportRtsFailed(peerA)
	m.ReportRxOk(peerA, 1.0)

	// THEN the record is untouched: rate is not punished on failure
	assert.Equal(t, 9.25, m.Station(peerA).LastSnr)
}

func TestRunningStats_AccumulatePerDecision(t *testing.T) {
	// GIVEN two adaptation rounds at 20 dB with a perfect channel
	phy := stubDeliveryModel{pdr: map[string]float64{"OfdmRate12Mbps": 0.99999}}
	m := newTestManager(t, phy, 0)
	m.UpdateInfo(peerA, RxInfo{Rssi: 20})
	m.UpdateInfo(peerA, RxInfo{Rssi: 22})

	stats := m.Stats()
	require.Equal(t, uint64(2), stats.Count)

	avgSnr, err := stats.AvgMinSnr()
	require.NoError(t, err)
	assert.InDelta(t, 21.0, avgSnr, 1e-9)

	avgRate, err := stats.AvgGroupRateMbps()
	require.NoError(t, err)
	assert.InDelta(t, 12.0, avgRate, 1e-9)

	avgIdx, err := stats.AvgGroupCodeIndex()
	require.NoError(t, err)
	assert.InDelta(t, 2.0, avgIdx, 1e-9)
}

func TestStation_CreatedLazilyAndPersists(t *testing.T) {
	m := newTestManager(t, nil, 0)
	assert.False(t, m.KnownStation(peerA))
	st := m.Station(peerA)
	assert.True(t, m.KnownStation(peerA))
	assert.Same(t, st, m.Station(peerA))
}
