package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	yaml "gopkg.in/yaml.v3"

	"github.com/ryanluriea/blaidtrades/internal/fleet/allocation"
	"github.com/ryanluriea/blaidtrades/internal/fleet/correlation"
	"github.com/ryanluriea/blaidtrades/internal/fleet/governance"
	"github.com/ryanluriea/blaidtrades/internal/fleet/lifecycle"
	"github.com/ryanluriea/blaidtrades/internal/fleet/readiness"
)

// addInputFlag registers the shared --input flag on a command's flag set.
func addInputFlag(fs *pflag.FlagSet, input *string, usage string) {
	fs.StringVar(input, "input", "", usage)
}

// loadSnapshot reads one yaml snapshot file into the given shape.
func loadSnapshot(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading snapshot %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing snapshot %s: %w", path, err)
	}
	return nil
}

// fleetSnapshot is the input shape for score and allocate.
type fleetSnapshot struct {
	Bots          []governance.BotSnapshot `yaml:"bots"`
	Budget        allocation.AccountBudget `yaml:"budget"`
	CapacityUnits int                      `yaml:"capacity_units"`
}

// staticSource serves returns loaded from a snapshot file.
type staticSource struct {
	series []correlation.BotSeries
}

func (s staticSource) FleetReturns(ctx context.Context, lookbackDays int) ([]correlation.BotSeries, error) {
	return s.series, nil
}

func newScoreCmd() *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score every bot in a fleet snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			var snap fleetSnapshot
			if err := loadSnapshot(input, &snap); err != nil {
				return err
			}
			svc := newService(staticSource{})
			eval := svc.EvaluateFleet(cmd.Context(), snap.Bots, snap.Budget, snap.CapacityUnits)
			return printJSON(eval.Bots)
		},
	}
	addInputFlag(cmd.Flags(), &input, "fleet snapshot file (yaml)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func newAllocateCmd() *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Score the fleet and distribute the account risk budget",
		RunE: func(cmd *cobra.Command, args []string) error {
			var snap fleetSnapshot
			if err := loadSnapshot(input, &snap); err != nil {
				return err
			}
			svc := newService(staticSource{})
			eval := svc.EvaluateFleet(cmd.Context(), snap.Bots, snap.Budget, snap.CapacityUnits)
			return printJSON(eval)
		},
	}
	addInputFlag(cmd.Flags(), &input, "fleet snapshot file (yaml)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func newCorrelationsCmd() *cobra.Command {
	var input string
	var lookback int
	cmd := &cobra.Command{
		Use:   "correlations",
		Short: "Analyze pairwise correlation across a returns snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			var snap struct {
				Bots []correlation.BotSeries `yaml:"bots"`
			}
			if err := loadSnapshot(input, &snap); err != nil {
				return err
			}
			svc := newService(staticSource{series: snap.Bots})
			result, err := svc.RefreshCorrelations(cmd.Context(), lookback, false)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
	addInputFlag(cmd.Flags(), &input, "returns snapshot file (yaml)")
	cmd.Flags().IntVar(&lookback, "lookback", 30, "lookback window in days")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func newReadinessCmd() *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "readiness",
		Short: "Evaluate the live-trading admission gate against a snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			var snap readiness.Input
			if err := loadSnapshot(input, &snap); err != nil {
				return err
			}
			svc := newService(staticSource{})
			result, err := svc.CheckReadiness(cmd.Context(), snap)
			if err != nil {
				return err
			}
			if err := printJSON(result); err != nil {
				return err
			}
			if result.OverallStatus == readiness.StatusBlocked {
				return fmt.Errorf("readiness is BLOCKED (%d blockers)", len(result.Blockers))
			}
			return nil
		},
	}
	addInputFlag(cmd.Flags(), &input, "readiness snapshot file (yaml)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func newTransitionsCmd() *cobra.Command {
	var entityID string
	cmd := &cobra.Command{
		Use:   "transitions <domain> <from> [to]",
		Short: "Validate a lifecycle transition, or list legal targets",
		Long: "With two arguments, lists the legal target states from <from>.\n" +
			"With three, validates <from> -> <to> and prints the event that would be emitted.",
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			domain := lifecycle.Domain(strings.ToUpper(args[0]))
			fleet := lifecycle.NewFleet()
			machine := fleet.Machine(domain)
			if machine == nil {
				return fmt.Errorf("unknown lifecycle domain %q", args[0])
			}
			from := strings.ToUpper(args[1])

			if len(args) == 2 {
				if !machine.Known(from) {
					return fmt.Errorf("unknown %s state %q", domain, from)
				}
				return printJSON(map[string]interface{}{
					"domain":  domain,
					"from":    from,
					"targets": machine.TargetsFrom(from),
				})
			}

			to := strings.ToUpper(args[2])
			result := machine.Validate(from, to)
			out := map[string]interface{}{
				"domain": domain,
				"from":   from,
				"to":     to,
				"valid":  result.Valid,
			}
			if result.Valid {
				out["event"] = lifecycle.ResolveEventName(domain, from, to)
				if entityID != "" {
					out["entity_id"] = entityID
				}
			} else {
				out["reason"] = result.Reason
			}
			return printJSON(out)
		},
	}
	cmd.Flags().StringVar(&entityID, "entity", "", "entity id to echo in the output")
	return cmd
}
