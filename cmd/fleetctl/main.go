// fleetctl runs the fleet governance engines offline against yaml
// snapshots: scoring, allocation, correlation analysis, readiness checks and
// lifecycle transition validation. It is the operator's dry-run surface; the
// dashboard backend drives the same engines in-process.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ryanluriea/blaidtrades/internal/config"
	"github.com/ryanluriea/blaidtrades/internal/fleet/allocation"
	"github.com/ryanluriea/blaidtrades/internal/fleet/correlation"
	"github.com/ryanluriea/blaidtrades/internal/fleet/governance"
	"github.com/ryanluriea/blaidtrades/internal/fleet/readiness"
	"github.com/ryanluriea/blaidtrades/internal/metrics"
)

var (
	flagConfig   string
	flagLogLevel string

	log zerolog.Logger
	cfg config.GovernanceConfig
)

func main() {
	root := &cobra.Command{
		Use:           "fleetctl",
		Short:         "Fleet governance and capital allocation toolkit",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup()
		},
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "governance config file (yaml)")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level (trace..error)")

	root.AddCommand(newScoreCmd())
	root.AddCommand(newAllocateCmd())
	root.AddCommand(newCorrelationsCmd())
	root.AddCommand(newReadinessCmd())
	root.AddCommand(newTransitionsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func setup() error {
	level, err := zerolog.ParseLevel(flagLogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", flagLogLevel, err)
	}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
	} else {
		log = zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	}

	cfg = config.Default()
	if flagConfig != "" {
		cfg, err = config.Load(flagConfig)
		if err != nil {
			return err
		}
	}
	return nil
}

// newService builds the offline service: no audit store, no redis, a
// throwaway metrics registry.
func newService(source correlation.ReturnSource) *governance.Service {
	return governance.NewService(governance.Deps{
		Scoring:   cfg.Scoring,
		Allocator: allocation.NewEngine(cfg.Allocation),
		Monitor:   correlation.NewMonitor(source, cfg.Correlation, nil, log),
		Gate:      readiness.NewGate(cfg.Readiness),
		Metrics:   metrics.NewCollectors(prometheus.NewRegistry()),
		Logger:    log,
	})
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
