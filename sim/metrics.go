package sim

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// ErrNoSamples reports an average requested before any adaptation
// decision was recorded.
var ErrNoSamples = errors.New("stats: no adaptation samples")

// RunningStats accumulates one entry per group adaptation decision:
// the minimum reported quality across samples (dB, before linear
// conversion), the selected group data rate (Mb/s) and the selected
// group coding index. Sums grow monotonically for the life of the
// engine; averages divide by Count.
type RunningStats struct {
	SumMinSnr         float64
	SumGroupRateMbps  float64
	SumGroupCodeIndex float64
	Count             uint64
}

// AvgMinSnr returns the average minimum reported quality in dB.
func (s *RunningStats) AvgMinSnr() (float64, error) {
	if s.Count == 0 {
		return 0, ErrNoSamples
	}
	return s.SumMinSnr / float64(s.Count), nil
}

// AvgGroupRateMbps returns the average selected group data rate in Mb/s.
func (s *RunningStats) AvgGroupRateMbps() (float64, error) {
	if s.Count == 0 {
		return 0, ErrNoSamples
	}
	return s.SumGroupRateMbps / float64(s.Count), nil
}

// AvgGroupCodeIndex returns the average selected group coding index.
func (s *RunningStats) AvgGroupCodeIndex() (float64, error) {
	if s.Count == 0 {
		return 0, ErrNoSamples
	}
	return s.SumGroupCodeIndex / float64(s.Count), nil
}

// Metrics aggregates simulation-wide counters for final reporting.
type Metrics struct {
	DataTx            int // data frames enqueued
	DataRx            int // data frames delivered
	FeedbackTx        int // feedback frames sent
	FeedbackRx        int // feedback frames ingested
	MalformedFeedback int // feedback frames dropped as truncated
}

// Print displays aggregated metrics at the end of the simulation,
// including the engine's adaptation averages when any decision was made.
func (m *Metrics) Print(stats *RunningStats, clock int64) {
	fmt.Println("=== Simulation Metrics ===")
	fmt.Printf("Simulated ticks      : %d\n", clock)
	fmt.Printf("Data frames tx/rx    : %d/%d\n", m.DataTx, m.DataRx)
	fmt.Printf("Feedback tx/rx       : %d/%d\n", m.FeedbackTx, m.FeedbackRx)
	fmt.Printf("Malformed feedback   : %d\n", m.MalformedFeedback)
	if stats != nil && stats.Count > 0 {
		avgSnr, _ := stats.AvgMinSnr()
		avgRate, _ := stats.AvgGroupRateMbps()
		avgIdx, _ := stats.AvgGroupCodeIndex()
		fmt.Printf("Adaptation decisions : %d\n", stats.Count)
		fmt.Printf("Average min quality  : %.2f dB\n", avgSnr)
		fmt.Printf("Average group rate   : %.2f Mb/s\n", avgRate)
		fmt.Printf("Average code index   : %.2f\n", avgIdx)
	}
}

// LinkCollector bundles Prometheus metrics for a simulation run. All
// methods tolerate a nil receiver so instrumentation can stay optional in
// library use.
type LinkCollector struct {
	GroupRateMbps prometheus.Gauge
	GroupMinSnrDb prometheus.Gauge
	FeedbackTx    prometheus.Counter
	FeedbackRx    prometheus.Counter
	Malformed     prometheus.Counter
}

// NewLinkCollector registers the run's metrics against reg, defaulting to
// the global Prometheus registry when nil.
func NewLinkCollector(reg prometheus.Registerer) (*LinkCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &LinkCollector{
		GroupRateMbps: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "linksim_group_rate_mbps",
			Help: "Currently selected group transmission rate in Mb/s.",
		}),
		GroupMinSnrDb: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "linksim_group_min_quality_db",
			Help: "Minimum reported quality across feedback samples, in dB.",
		}),
		FeedbackTx: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linksim_feedback_tx_total",
			Help: "Total feedback frames transmitted.",
		}),
		FeedbackRx: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linksim_feedback_rx_total",
			Help: "Total feedback frames ingested.",
		}),
		Malformed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linksim_feedback_malformed_total",
			Help: "Total feedback frames dropped as truncated.",
		}),
	}
	for _, col := range []prometheus.Collector{
		c.GroupRateMbps, c.GroupMinSnrDb, c.FeedbackTx, c.FeedbackRx, c.Malformed,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ObserveGroupDecision records one group adaptation outcome.
func (c *LinkCollector) ObserveGroupDecision(minSnrDb float64, selected Mode) {
	if c == nil {
		return
	}
	c.GroupMinSnrDb.Set(minSnrDb)
	c.GroupRateMbps.Set(selected.RateMbps())
}

// IncFeedbackTx counts one transmitted feedback frame.
func (c *LinkCollector) IncFeedbackTx() {
	if c == nil {
		return
	}
	c.FeedbackTx.Inc()
}

// IncFeedbackRx counts one ingested feedback frame.
func (c *LinkCollector) IncFeedbackRx() {
	if c == nil {
		return
	}
	c.FeedbackRx.Inc()
}

// IncMalformed counts one dropped truncated feedback frame.
func (c *LinkCollector) IncMalformed() {
	if c == nil {
		return
	}
	c.Malformed.Inc()
}
