package sim

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunningStats_ZeroCount_ReturnsErrNoSamples(t *testing.T) {
	// GIVEN stats with no recorded decisions
	var s RunningStats

	// THEN every average reports ErrNoSamples instead of dividing by zero
	_, err := s.AvgMinSnr()
	assert.ErrorIs(t, err, ErrNoSamples)
	_, err = s.AvgGroupRateMbps()
	assert.ErrorIs(t, err, ErrNoSamples)
	_, err = s.AvgGroupCodeIndex()
	assert.ErrorIs(t, err, ErrNoSamples)
}

func TestRunningStats_Averages_AreSumOverCount(t *testing.T) {
	s := RunningStats{
		SumMinSnr:         30,
		SumGroupRateMbps:  90,
		SumGroupCodeIndex: 9,
		Count:             3,
	}
	v, err := s.AvgMinSnr()
	require.NoError(t, err)
	assert.Equal(t, 10.0, v)
	v, err = s.AvgGroupRateMbps()
	require.NoError(t, err)
	assert.Equal(t, 30.0, v)
	v, err = s.AvgGroupCodeIndex()
	require.NoError(t, err)
	assert.Equal(t, 3.0, v)
}

func TestLinkCollector_NilReceiverIsSafe(t *testing.T) {
	// Instrumentation is optional: nil collectors must not panic.
	var c *LinkCollector
	c.ObserveGroupDecision(10, Mode{})
	c.IncFeedbackTx()
	c.IncFeedbackRx()
	c.IncMalformed()
}

func TestNewLinkCollector_RegistersAgainstRegistry(t *testing.T) {
	// GIVEN a private registry
	reg := prometheus.NewRegistry()

	// WHEN the collector is built and driven
	c, err := NewLinkCollector(reg)
	require.NoError(t, err)
	c.ObserveGroupDecision(12.5, Mode{DataRate: 24000000})
	c.IncFeedbackTx()

	// THEN the metric families are gatherable
	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["linksim_group_rate_mbps"])
	assert.True(t, names["linksim_feedback_tx_total"])
}

func TestNewLinkCollector_DoubleRegistration_Fails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewLinkCollector(reg)
	require.NoError(t, err)
	_, err = NewLinkCollector(reg)
	assert.Error(t, err)
}
