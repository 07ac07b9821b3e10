package sim

import (
	"math"

	"github.com/sirupsen/logrus"
)

// Test frame geometry used by the group scans. The type-0 scan prices a
// 1000-byte payload plus the fixed per-frame overhead through the OFDM
// symbol arithmetic; the type-1 scan and the per-station data selection
// price a flat 1086-byte frame.
const (
	groupTestPayloadBytes  = 1000
	groupTestOverheadBytes = 64
	groupTestTailBits      = 22
	throughputTestBytes    = 1086
)

// sampleEntry pairs a peer address with its live feedback sample. One
// entry per peer, overwritten on each feedback reception.
type sampleEntry struct {
	Peer StationID
	Info RxInfo
}

// RateManager is the rate adaptation engine: it owns the per-station
// records, the live feedback samples and the group-quality aggregate, and
// selects transmission modes for unicast data, RTS control frames and
// group traffic.
//
// All state is touched only from event-loop callbacks; the type takes no
// locks and is not safe for concurrent use.
type RateManager struct {
	cfg     AdaptationConfig
	phy     DeliveryModel
	catalog *ModeCatalog

	stations map[StationID]*StationRecord
	samples  []sampleEntry

	groupMode    Mode
	groupModeSet bool
	minSnrDb     float64

	stats     RunningStats
	collector *LinkCollector
}

// NewRateManager returns an engine using the given delivery model. A nil
// catalog is populated lazily with the default OFDM set the first time
// adaptation runs.
func NewRateManager(cfg AdaptationConfig, phy DeliveryModel, catalog *ModeCatalog) *RateManager {
	return &RateManager{
		cfg:      cfg,
		phy:      phy,
		catalog:  catalog,
		stations: make(map[StationID]*StationRecord),
	}
}

// SetCollector attaches optional Prometheus instrumentation.
func (m *RateManager) SetCollector(c *LinkCollector) {
	m.collector = c
}

// Catalog returns the engine's mode catalog, populating the default OFDM
// set first if none was supplied.
func (m *RateManager) Catalog() *ModeCatalog {
	m.ensureCatalog()
	return m.catalog
}

func (m *RateManager) ensureCatalog() {
	if m.catalog == nil || m.catalog.Len() == 0 {
		m.catalog = DefaultOfdmCatalog(m.phy, m.cfg.BerThreshold)
	}
}

// Station returns the record for peer, creating it on first contact.
// Records live for the life of the engine.
func (m *RateManager) Station(peer StationID) *StationRecord {
	st, ok := m.stations[peer]
	if !ok {
		st = &StationRecord{}
		m.stations[peer] = st
	}
	return st
}

// KnownStation reports whether peer already has a record.
func (m *RateManager) KnownStation(peer StationID) bool {
	_, ok := m.stations[peer]
	return ok
}

// Stats returns the running adaptation statistics.
func (m *RateManager) Stats() *RunningStats {
	return &m.stats
}

// SampleCount returns the number of live feedback samples.
func (m *RateManager) SampleCount() int {
	return len(m.samples)
}

// UpdateInfo ingests one feedback sample for peer: the existing entry is
// overwritten, or a new one appended on first contact. Entries are never
// evicted. Every ingestion triggers a full group recomputation.
func (m *RateManager) UpdateInfo(peer StationID, info RxInfo) {
	found := false
	for i := range m.samples {
		if m.samples[i].Peer == peer {
			m.samples[i].Info = info
			found = true
			break
		}
	}
	if !found {
		m.samples = append(m.samples, sampleEntry{Peer: peer, Info: info})
	}
	logrus.Debugf("UpdateInfo %s: rssi=%.2f snr=%.2f loss=%d total=%d (samples=%d)",
		peer, info.Rssi, info.Snr, info.LossPackets, info.TotalPackets, len(m.samples))
	m.GroupRateAdaptation()
}

// GroupMode returns the cached group mode, computing it first if no
// recomputation has run yet.
func (m *RateManager) GroupMode() Mode {
	if !m.groupModeSet {
		return m.GroupRateAdaptation()
	}
	return m.groupMode
}

// GroupRateAdaptation recomputes the group transmission mode from the
// full current sample set and caches the result.
//
// With no samples the lowest-rate mode is selected. Otherwise the minimum
// of the configured feedback field across samples is taken (dB), and when
// its linear value is at or below 1 the channel is considered too poor to
// re-adapt and the previous selection is retained.
func (m *RateManager) GroupRateAdaptation() Mode {
	m.ensureCatalog()
	if !m.groupModeSet {
		m.groupMode = m.catalog.Mode(0)
		m.groupModeSet = true
	}
	if len(m.samples) == 0 {
		m.groupMode = m.catalog.Mode(0)
		return m.groupMode
	}

	minDb := m.sampleField(m.samples[0].Info)
	for i := 1; i < len(m.samples); i++ {
		if v := m.sampleField(m.samples[i].Info); v < minDb {
			minDb = v
		}
	}
	m.minSnrDb = minDb
	m.stats.SumMinSnr += minDb

	linear := math.Pow(10.0, minDb/10.0)
	if linear <= 1.0 {
		logrus.Debugf("group adaptation: min quality %.2f dB too poor, keeping %s", minDb, m.groupMode.Name)
		return m.groupMode
	}

	switch m.cfg.Type {
	case 1:
		m.groupMode = m.adaptByThroughput(linear)
	default:
		m.groupMode = m.adaptByPerCeiling(linear)
	}

	m.stats.SumGroupRateMbps += m.groupMode.RateMbps()
	m.stats.SumGroupCodeIndex += float64(m.groupMode.CodeIndex)
	m.stats.Count++
	m.collector.ObserveGroupDecision(minDb, m.groupMode)

	logrus.Debugf("group adaptation: min=%.2f dB linear=%.2f -> %s (%.0f Mb/s, index %d)",
		minDb, linear, m.groupMode.Name, m.groupMode.RateMbps(), m.groupMode.CodeIndex)
	return m.groupMode
}

func (m *RateManager) sampleField(info RxInfo) float64 {
	if m.cfg.GroupMin == GroupMinSnr {
		return info.Snr
	}
	return info.Rssi
}

// adaptByPerCeiling scans the catalog in registration order for the mode
// with the smallest frame loss probability that is still strictly below
// the configured ceiling, pricing a fixed test payload through the OFDM
// symbol arithmetic. Later candidates replace the running best only when
// strictly better. When nothing satisfies the ceiling, or the best
// candidate still loses every frame, the lowest-rate mode is selected.
func (m *RateManager) adaptByPerCeiling(snrLinear float64) Mode {
	bestPer := 1.0
	best := m.catalog.Mode(0)
	found := false
	for k := 0; k < m.catalog.Len(); k++ {
		mode := m.catalog.Mode(k)
		nbits := groupTestFrameBits(mode)
		pdr := m.phy.DeliveryProbability(mode, snrLinear, nbits)
		per := 1.0 - pdr
		if per < m.cfg.PerThreshold && per < bestPer {
			bestPer = per
			best = mode
			found = true
		}
	}
	if !found || bestPer == 1.0 {
		return m.catalog.Mode(0)
	}
	return best
}

// adaptByThroughput keeps the mode with the strictly largest expected
// throughput (delivery probability times data rate) for a fixed test
// frame. First-found wins ties; a best of exactly zero falls back to the
// lowest-rate mode.
func (m *RateManager) adaptByThroughput(snrLinear float64) Mode {
	maxTput := 0.0
	best := m.catalog.Mode(0)
	for k := 0; k < m.catalog.Len(); k++ {
		mode := m.catalog.Mode(k)
		pdr := m.phy.DeliveryProbability(mode, snrLinear, throughputTestBytes*8)
		tput := pdr * mode.RateMbps()
		if tput > maxTput {
			maxTput = tput
			best = mode
		}
	}
	if maxTput == 0 {
		return m.catalog.Mode(0)
	}
	return best
}

// groupTestFrameBits prices the type-0 test payload in whole OFDM symbols
// for the mode's coding rate and symbol size.
func groupTestFrameBits(mode Mode) int {
	coderate := mode.CodeRate.Ratio()
	ofdmbits := mode.bitsPerSymbol()
	nSymbols := float64((groupTestPayloadBytes+groupTestOverheadBytes)*8+groupTestTailBits) /
		coderate / float64(ofdmbits)
	return (int(nSymbols) + 1) * ofdmbits
}

// DataMode selects the unicast data mode for peer: the supported mode
// with the highest expected throughput at the peer's last directly
// measured SNR. When no mode delivers anything, the lowest-rate mode is
// returned so the transmit path always has a usable answer.
func (m *RateManager) DataMode(peer StationID) Mode {
	m.ensureCatalog()
	st := m.Station(peer)
	supported := st.Supported
	if len(supported) == 0 {
		supported = m.catalog.Modes()
	}
	maxTput := 0.0
	best := m.catalog.Mode(0)
	for _, mode := range supported {
		pdr := m.phy.DeliveryProbability(mode, st.LastSnr, throughputTestBytes*8)
		tput := pdr * mode.RateMbps()
		if tput > maxTput {
			maxTput = tput
			best = mode
		}
	}
	return best
}

// RtsMode selects the control-frame mode for peer: the catalog mode with
// the highest SNR threshold that remains strictly below the peer's last
// measured SNR, falling back to the lowest-rate mode.
func (m *RateManager) RtsMode(peer StationID) Mode {
	m.ensureCatalog()
	st := m.Station(peer)
	maxThreshold := 0.0
	best := m.catalog.Mode(0)
	for k := 0; k < m.catalog.Len(); k++ {
		mode := m.catalog.Mode(k)
		threshold := m.catalog.SnrThreshold(mode)
		if threshold > maxThreshold && threshold < st.LastSnr {
			maxThreshold = threshold
			best = mode
		}
	}
	return best
}

// ReportRtsOk records the SNR observed in a successful RTS/CTS exchange.
func (m *RateManager) ReportRtsOk(peer StationID, rtsSnr float64) {
	m.Station(peer).LastSnr = rtsSnr
}

// ReportDataOk records the SNR observed in a successful data/ACK exchange.
func (m *RateManager) ReportDataOk(peer StationID, dataSnr float64) {
	m.Station(peer).LastSnr = dataSnr
}

// ReportRtsFailed is a no-op: rate is not punished on failure. Retries
// and backoff belong to the MAC layer.
func (m *RateManager) ReportRtsFailed(peer StationID) {}

// ReportDataFailed is a no-op, as ReportRtsFailed.
func (m *RateManager) ReportDataFailed(peer StationID) {}

// ReportRxOk is a no-op: passive receptions do not update the record.
func (m *RateManager) ReportRxOk(peer StationID, rxSnr float64) {}
