// File: cmd/send.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bigOK666/oba-live-tool/internal/observability"
)

// newSendCmd creates the `send` command.
func newSendCmd() *cobra.Command {
	var pin bool

	sendCmd := &cobra.Command{
		Use:   "send <message>",
		Short: "Submits a chat message through the control panel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := args[0]
			ctx := cmd.Context()
			logger := observability.GetLogger()

			session, err := openSession(ctx, appCfg)
			if err != nil {
				return err
			}
			defer session.Close(ctx)

			pinned, err := session.executor.SendMessage(ctx, text, pin)
			if err != nil {
				return fmt.Errorf("sending message failed: %w", err)
			}
			if pin && !pinned {
				// Soft condition: some platforms have no pin control.
				logger.Warn("Message sent but pinning was unavailable")
			}
			logger.Info("Message sent", zap.Bool("pinned", pinned))
			return nil
		},
	}
	sendCmd.Flags().BoolVar(&pin, "pin", false, "pin the message to the top of the chat")
	return sendCmd
}
