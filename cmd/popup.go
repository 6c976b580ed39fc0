// File: cmd/popup.go
package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bigOK666/oba-live-tool/internal/observability"
)

// newPopupCmd creates the `popup` command.
func newPopupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "popup <goods-id>",
		Short: "Locates a goods entry by identifier and opens its \"now explaining\" popup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("goods id must be a number, got %q", args[0])
			}

			ctx := cmd.Context()
			logger := observability.GetLogger()

			session, err := openSession(ctx, appCfg)
			if err != nil {
				return err
			}
			defer session.Close(ctx)

			if err := session.executor.PopUp(ctx, id); err != nil {
				return fmt.Errorf("popup of goods %d failed: %w", id, err)
			}
			logger.Info("Popup confirmed", zap.Int64("goods_id", id))
			return nil
		},
	}
}
