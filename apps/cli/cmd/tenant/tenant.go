package tenant

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/storelens-ai/storelens/apps/cli/deps"
)

// Command groups shop record management helpers.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Shop record management",
	}

	cmd.AddCommand(setPlanCommand())
	return cmd
}

// setPlanCommand manually provisions a plan, the same write path the billing
// webhook handler uses. Useful for custom deals and support escalations.
func setPlanCommand() *cobra.Command {
	var (
		shop   string
		plan   string
		status string
	)

	cmd := &cobra.Command{
		Use:   "set-plan",
		Short: "Assign a plan to a shop",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rt, err := deps.Load(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			var statusPtr *string
			if status != "" {
				statusPtr = &status
			}

			updated, err := rt.Shops.AssignPlan(ctx, shop, plan, statusPtr)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: plan %q assigned\n", updated.Domain, plan)
			return nil
		},
	}

	cmd.Flags().StringVar(&shop, "shop", "", "shop domain (required)")
	cmd.Flags().StringVar(&plan, "plan", "", "plan name (required)")
	cmd.Flags().StringVar(&status, "status", "", "subscription status (e.g. ACTIVE); empty leaves it unset")
	_ = cmd.MarkFlagRequired("shop")
	_ = cmd.MarkFlagRequired("plan")
	return cmd
}
