package migrate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/storelens-ai/storelens/apps/cli/deps"
	"github.com/storelens-ai/storelens/platform/go/persistence"
)

// Command applies the embedded core schema DDL. Idempotent.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the core database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rt, err := deps.Load(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := persistence.ApplyCoreSchema(ctx, rt.Pool); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "core schema applied")
			return nil
		},
	}
}
