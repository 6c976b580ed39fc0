// File: cmd/auto.go
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bigOK666/oba-live-tool/internal/live"
	"github.com/bigOK666/oba-live-tool/internal/observability"
)

// newAutoCmd creates the `auto` command. It runs the tasks enabled in the
// config file until the process receives a signal.
func newAutoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auto",
		Short: "Runs the configured auto-popup and auto-message loops until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			tasks := appCfg.Tasks()

			if !tasks.Popup.Enabled && !tasks.Message.Enabled {
				return fmt.Errorf("no auto tasks enabled; set tasks.popup.enabled or tasks.message.enabled")
			}

			session, err := openSession(ctx, appCfg)
			if err != nil {
				return err
			}
			defer session.Close(ctx)

			g, gctx := errgroup.WithContext(ctx)

			if tasks.Popup.Enabled {
				task, err := live.NewAutoPopupTask(session.executor, tasks.Popup.Goods, live.TaskConfig{
					Interval: tasks.Popup.Interval,
					Jitter:   tasks.Popup.Jitter,
				}, logger)
				if err != nil {
					return err
				}
				g.Go(func() error { return task.Run(gctx) })
			}

			if tasks.Message.Enabled {
				task, err := live.NewAutoMessageTask(session.executor, tasks.Message.Messages,
					tasks.Message.Random, tasks.Message.PinToTop, live.TaskConfig{
						Interval: tasks.Message.Interval,
						Jitter:   tasks.Message.Jitter,
					}, logger)
				if err != nil {
					return err
				}
				g.Go(func() error { return task.Run(gctx) })
			}

			err = g.Wait()
			if errors.Is(err, live.ErrAborted) || errors.Is(err, context.Canceled) {
				logger.Info("Auto tasks stopped by signal.")
				return nil
			}
			return err
		},
	}
}
