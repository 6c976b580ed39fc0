// File: cmd/recover.go
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bigOK666/oba-live-tool/internal/observability"
)

// newRecoverCmd creates the `recover` command.
func newRecoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recover",
		Short: "Dismisses known blocking overlays on the control panel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			session, err := openSession(ctx, appCfg)
			if err != nil {
				return err
			}
			defer session.Close(ctx)

			session.executor.RecoverLive(ctx)
			observability.GetLogger().Info("Recovery pass completed")
			return nil
		},
	}
}
