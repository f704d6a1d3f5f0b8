package entitlement

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/storelens-ai/storelens/apps/cli/deps"
)

// Command groups entitlement debugging helpers for support.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entitlement",
		Short: "Entitlement inspection",
	}

	cmd.AddCommand(checkCommand())
	return cmd
}

func checkCommand() *cobra.Command {
	var shop string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run the full entitlement chain for a shop",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rt, err := deps.Load(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			if rt.Resolver.IsEntitled(ctx, shop) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: entitled\n", shop)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: not entitled\n", shop)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&shop, "shop", "", "shop domain (required)")
	_ = cmd.MarkFlagRequired("shop")
	return cmd
}
