package usage

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/storelens-ai/storelens/apps/cli/deps"
	usageservice "github.com/storelens-ai/storelens/domains/usage/be/service"
)

// Command groups usage metering maintenance operations.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Usage metering maintenance",
	}

	cmd.AddCommand(resetCommand())
	cmd.AddCommand(showCommand())
	return cmd
}

// resetCommand is the monthly cron target: it zeroes every shop's counters.
func resetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Zero every shop's monthly usage counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rt, err := deps.Load(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			reset, err := rt.Meter.ResetAllMonthlyUsage(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "reset usage counters for %d shops\n", reset)
			return nil
		},
	}
}

func showCommand() *cobra.Command {
	var shop string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a shop's usage against its plan limits",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rt, err := deps.Load(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			report, err := rt.Meter.Snapshot(ctx, shop)
			if err != nil {
				return err
			}

			metrics := make([]string, 0, len(report))
			for metric := range report {
				metrics = append(metrics, metric)
			}
			sort.Strings(metrics)

			for _, metric := range metrics {
				decision := report[metric]
				if decision.Limit == usageservice.Unlimited {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: unlimited\n", metric)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d of %d remaining\n", metric, decision.Remaining, decision.Limit)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&shop, "shop", "", "shop domain (required)")
	_ = cmd.MarkFlagRequired("shop")
	return cmd
}
