package sim

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// RxInfo is one aggregated receive-path quality report: the payload of an
// outgoing feedback frame on the reporting side, and the live sample kept
// per peer on the ingesting side.
type RxInfo struct {
	Rssi         float64 // dB
	Snr          float64 // dB
	LossPackets  uint32
	TotalPackets uint32
}

// RxAccumulator collects per-frame quality observations on the receive
// path and summarizes them into an RxInfo per feedback period. The
// summarization style is selected by FeedbackConfig.Type:
//
//	0: window mean smoothed with an alpha-weighted EWMA
//	1: window mean minus beta times the window stddev (conservative)
//	2: the configured percentile of the window
//
// Loss is detected from sequence-number gaps. The loss and total counters
// are smoothed with their own EWMA weights (eta, delta); a window whose
// raw loss ratio exceeds rho is reported with its raw counters instead of
// the smoothed ones, so bursts are not averaged away.
type RxAccumulator struct {
	cfg FeedbackConfig

	rssi []float64
	snr  []float64

	ewmaRssi float64
	ewmaSnr  float64
	ewmaInit bool

	lossEwma  float64
	totalEwma float64

	nextSeq uint32
	seqInit bool
	loss    uint32
	total   uint32
}

// NewRxAccumulator returns an accumulator using the given feedback
// parameters.
func NewRxAccumulator(cfg FeedbackConfig) *RxAccumulator {
	return &RxAccumulator{cfg: cfg}
}

// Observe records one received frame: its measured signal strength and
// SNR (dB) and its sequence number. Gaps in the sequence count as lost
// frames in the current window.
func (a *RxAccumulator) Observe(rssiDb, snrDb float64, seq uint32) {
	a.rssi = append(a.rssi, rssiDb)
	a.snr = append(a.snr, snrDb)

	if a.seqInit && seq > a.nextSeq {
		a.loss += seq - a.nextSeq
	}
	a.nextSeq = seq + 1
	a.seqInit = true
	a.total++
}

// Snapshot summarizes the observations since the previous snapshot and
// resets the window. EWMA state persists across snapshots. An empty
// window reproduces the previous smoothed values with zero counters.
func (a *RxAccumulator) Snapshot() RxInfo {
	info := RxInfo{Rssi: a.ewmaRssi, Snr: a.ewmaSnr}

	if len(a.rssi) > 0 {
		r := a.summarize(a.rssi)
		s := a.summarize(a.snr)
		if a.ewmaInit {
			a.ewmaRssi = a.cfg.Alpha*r + (1-a.cfg.Alpha)*a.ewmaRssi
			a.ewmaSnr = a.cfg.Alpha*s + (1-a.cfg.Alpha)*a.ewmaSnr
		} else {
			a.ewmaRssi = r
			a.ewmaSnr = s
			a.ewmaInit = true
		}
		info.Rssi = a.ewmaRssi
		info.Snr = a.ewmaSnr
	}

	a.lossEwma = a.cfg.Eta*float64(a.loss) + (1-a.cfg.Eta)*a.lossEwma
	a.totalEwma = a.cfg.Delta*float64(a.total) + (1-a.cfg.Delta)*a.totalEwma

	lossy := a.total > 0 && float64(a.loss)/float64(a.loss+a.total) > a.cfg.Rho
	if lossy {
		info.LossPackets = a.loss
		info.TotalPackets = a.total
	} else {
		info.LossPackets = uint32(math.Round(a.lossEwma))
		info.TotalPackets = uint32(math.Round(a.totalEwma))
	}

	a.rssi = a.rssi[:0]
	a.snr = a.snr[:0]
	a.loss = 0
	a.total = 0
	return info
}

// summarize reduces one window of samples according to the feedback type.
func (a *RxAccumulator) summarize(window []float64) float64 {
	switch a.cfg.Type {
	case 1:
		mean, std := stat.MeanStdDev(window, nil)
		if math.IsNaN(std) { // single sample
			std = 0
		}
		return mean - a.cfg.Beta*std
	case 2:
		sorted := append([]float64(nil), window...)
		sort.Float64s(sorted)
		return stat.Quantile(a.cfg.Percentile, stat.Empirical, sorted, nil)
	default:
		return stat.Mean(window, nil)
	}
}
