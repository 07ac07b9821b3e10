package cmd

import (
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/linksim/linksim/sim"
)

var (
	// Simulation run controls
	seed     int64  // Seed for the partitioned RNG
	horizon  int64  // Total simulation time (in ticks)
	logLevel string // Log verbosity level

	// Topology and traffic
	stations        int     // Number of receiver stations around the transmitter
	linkSnrDb       float64 // Base link SNR in dB for every link
	fadingSigmaDb   float64 // Per-frame Gaussian fading stddev in dB
	trafficInterval int64   // Ticks between group data frames
	payloadBytes    int     // Group frame payload size

	// Feedback attribute surface
	feedbackType   int
	feedbackPeriod int64
	alpha          float64
	beta           float64
	percentile     float64
	eta            float64
	delta          float64
	rho            float64

	// Adaptation attribute surface
	adaptationType int
	berThreshold   float64
	perThreshold   float64
	groupMinField  string

	scenarioFile string // Optional yaml scenario overriding the flags above
	metricsAddr  string // Optional address serving Prometheus /metrics
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "linksim",
	Short: "Discrete-event simulator for closed-loop wireless link-rate adaptation",
}

// runCmd executes one simulation scenario from CLI flags (and optionally
// a yaml scenario file).
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the link-rate adaptation simulation",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		fbCfg := sim.FeedbackConfig{
			Type:       feedbackType,
			Period:     feedbackPeriod,
			Alpha:      alpha,
			Beta:       beta,
			Percentile: percentile,
			Eta:        eta,
			Delta:      delta,
			Rho:        rho,
		}
		adCfg := sim.AdaptationConfig{
			Type:         adaptationType,
			BerThreshold: berThreshold,
			PerThreshold: perThreshold,
			GroupMin:     sim.GroupMinField(groupMinField),
		}
		scenario := Scenario{
			Stations:        stations,
			LinkSnrDb:       linkSnrDb,
			FadingSigmaDb:   fadingSigmaDb,
			TrafficInterval: trafficInterval,
			PayloadBytes:    payloadBytes,
			Feedback:        fbCfg,
			Adaptation:      adCfg,
		}
		if scenarioFile != "" {
			if err := scenario.LoadFile(scenarioFile); err != nil {
				logrus.Fatalf("unable to read scenario config: %v", err)
			}
		}
		if scenario.Stations < 1 {
			logrus.Fatalf("at least one receiver station is required")
		}

		logrus.Infof("Starting simulation: %d stations, horizon=%d ticks, feedback period=%d, adaptation type=%d",
			scenario.Stations, horizon, scenario.Feedback.Period, scenario.Adaptation.Type)

		s, tx := BuildScenario(&scenario, horizon, seed)

		if metricsAddr != "" {
			collector, err := sim.NewLinkCollector(nil)
			if err != nil {
				logrus.Fatalf("unable to register metrics: %v", err)
			}
			tx.SetCollector(collector)
			go func() {
				http.Handle("/metrics", promhttp.Handler())
				if err := http.ListenAndServe(metricsAddr, nil); err != nil {
					logrus.Errorf("metrics endpoint: %v", err)
				}
			}()
		}

		s.Run()
		s.Metrics.Print(tx.Manager.Stats(), s.Clock)

		if rate, err := tx.Manager.Stats().AvgGroupRateMbps(); err == nil {
			fmt.Printf("Final group mode      : %s (avg %.2f Mb/s)\n", tx.Manager.GroupMode().Name, rate)
		}

		logrus.Info("Simulation complete.")
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for deterministic channel and traffic randomness")
	runCmd.Flags().Int64Var(&horizon, "horizon", 100000, "Total simulation horizon (in ticks)")
	runCmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")

	// Topology and traffic
	runCmd.Flags().IntVar(&stations, "stations", 4, "Number of receiver stations")
	runCmd.Flags().Float64Var(&linkSnrDb, "link-snr-db", 20.0, "Base SNR in dB for every link")
	runCmd.Flags().Float64Var(&fadingSigmaDb, "fading-sigma-db", 2.0, "Per-frame Gaussian fading stddev in dB")
	runCmd.Flags().Int64Var(&trafficInterval, "traffic-interval", 10, "Ticks between group data frames")
	runCmd.Flags().IntVar(&payloadBytes, "payload-bytes", 1000, "Group frame payload size in bytes")

	// Feedback attribute surface
	runCmd.Flags().IntVar(&feedbackType, "feedback-type", 0, "Receive-path summarization (0=EWMA, 1=mean-stddev, 2=percentile)")
	runCmd.Flags().Int64Var(&feedbackPeriod, "feedback-period", 100, "Ticks between periodic feedback frames")
	runCmd.Flags().Float64Var(&alpha, "alpha", 0.5, "EWMA weight for quality fields")
	runCmd.Flags().Float64Var(&beta, "beta", 0.5, "Stddev weight for type-1 summarization")
	runCmd.Flags().Float64Var(&percentile, "percentile", 0.9, "Quantile for type-2 summarization")
	runCmd.Flags().Float64Var(&eta, "eta", 0.1, "EWMA weight for the loss counter")
	runCmd.Flags().Float64Var(&delta, "delta", 0.1, "EWMA weight for the total counter")
	runCmd.Flags().Float64Var(&rho, "rho", 0.1, "Loss-ratio ceiling marking a window as lossy")

	// Adaptation attribute surface
	runCmd.Flags().IntVar(&adaptationType, "type", 0, "Rate adaptation algorithm (0=PER ceiling, 1=expected throughput)")
	runCmd.Flags().Float64Var(&berThreshold, "ber-threshold", 1e-5, "Target BER for catalog threshold derivation")
	runCmd.Flags().Float64Var(&perThreshold, "per-threshold", 0.001, "Per-packet loss-rate ceiling for type 0")
	runCmd.Flags().StringVar(&groupMinField, "group-min-field", "rssi", "Feedback field minimized in group recomputation (rssi or snr)")

	runCmd.Flags().StringVar(&scenarioFile, "scenario", "", "YAML scenario file overriding topology/feedback/adaptation flags")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Address serving Prometheus /metrics (empty = disabled)")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
