package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	sim "github.com/linksim/linksim/sim"
)

// Scenario is one fully-specified simulation setup: topology, traffic and
// the feedback/adaptation attribute surfaces. A yaml scenario file
// overrides the flag-built scenario field by field.
type Scenario struct {
	Stations        int     `yaml:"stations"`
	LinkSnrDb       float64 `yaml:"link_snr_db"`
	FadingSigmaDb   float64 `yaml:"fading_sigma_db"`
	TrafficInterval int64   `yaml:"traffic_interval"`
	PayloadBytes    int     `yaml:"payload_bytes"`

	// StationSnrDb optionally pins per-station base SNR in dB, by
	// station index. Missing indices use LinkSnrDb.
	StationSnrDb map[int]float64 `yaml:"station_snr_db"`

	Feedback   sim.FeedbackConfig   `yaml:"feedback"`
	Adaptation sim.AdaptationConfig `yaml:"adaptation"`
}

// LoadFile overlays the yaml scenario at path onto s.
func (s *Scenario) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return fmt.Errorf("parse scenario %s: %w", path, err)
	}
	return nil
}

// stationAddr formats the i-th receiver address; the transmitter is
// index 0.
func stationAddr(i int) sim.StationID {
	return sim.StationID(fmt.Sprintf("02:00:00:00:00:%02x", i))
}

// BuildScenario assembles a simulator from the scenario: one transmitter,
// N receivers, a fading channel and the periodic group traffic source.
// It returns the simulator and the transmitting node.
func BuildScenario(sc *Scenario, horizon, seed int64) (*sim.Simulator, *sim.Node) {
	s := sim.NewSimulator(horizon, seed)

	phy := sim.ErfcDeliveryModel{}
	ch := sim.NewFadingChannel(phy, s.Rng.ForSubsystem(sim.SubsystemChannel))
	ch.SigmaDb = sc.FadingSigmaDb
	s.Channel = ch

	catalog := sim.DefaultOfdmCatalog(phy, sc.Adaptation.BerThreshold)

	tx := sim.NewNode(s, stationAddr(0), sim.NewRateManager(sc.Adaptation, phy, catalog), sc.Feedback)
	for i := 1; i <= sc.Stations; i++ {
		id := stationAddr(i)
		rxMgr := sim.NewRateManager(sc.Adaptation, phy, sim.DefaultOfdmCatalog(phy, sc.Adaptation.BerThreshold))
		sim.NewNode(s, id, rxMgr, sc.Feedback)

		snr := sc.LinkSnrDb
		if v, ok := sc.StationSnrDb[i]; ok {
			snr = v
		}
		ch.SetLinkSnr(tx.ID, id, snr)
	}

	s.Schedule(sim.NewTrafficEvent(0, tx, sim.TrafficConfig{
		Interval:     sc.TrafficInterval,
		PayloadBytes: sc.PayloadBytes,
	}))
	return s, tx
}
