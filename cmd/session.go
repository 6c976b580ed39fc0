// File: cmd/session.go
package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/bigOK666/oba-live-tool/internal/browser"
	"github.com/bigOK666/oba-live-tool/internal/config"
	"github.com/bigOK666/oba-live-tool/internal/live"
	"github.com/bigOK666/oba-live-tool/internal/observability"
	"github.com/bigOK666/oba-live-tool/internal/platform"
)

// signalContext returns a context canceled on SIGINT/SIGTERM.
func signalContext() context.Context {
	ctx, _ := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	return ctx
}

// liveSession bundles everything a command needs to drive one panel: the
// browser, the tab showing the control panel, and the executor above it.
type liveSession struct {
	manager  *browser.Manager
	tab      *browser.Tab
	executor *live.Executor
	logger   *zap.Logger
}

// openSession launches the browser, opens the platform's control panel and
// wires the executor for it.
func openSession(ctx context.Context, cfg *config.Config) (*liveSession, error) {
	name := platform.Name(cfg.Session().Platform)
	sel, err := platform.SelectorsFor(name)
	if err != nil {
		return nil, err
	}
	logger := observability.GetLogger()

	manager := browser.NewManager(cfg.Browser(), logger)

	tab, err := manager.OpenTab(ctx, sel.GoodsPanelURL)
	if err != nil {
		shutdownManager(ctx, manager, logger)
		return nil, fmt.Errorf("opening %s control panel: %w", name, err)
	}

	page, err := platform.NewPage(tab.Run, sel, logger)
	if err != nil {
		shutdownManager(ctx, manager, logger)
		return nil, err
	}

	liveCfg := cfg.Live()
	strategy := platform.NewPopupStrategy(sel, platform.StrategyConfig{
		ConfirmWait: liveCfg.PopupConfirmWait,
		ActiveWait:  liveCfg.PopupActiveWait,
		Poll:        liveCfg.PopupPoll,
	}, logger)

	// Config-file overlay selectors extend the platform's built-in list.
	overlays := append([]string{}, sel.Overlays...)
	overlays = append(overlays, liveCfg.Overlays[string(name)]...)

	executor := live.NewExecutor(page, strategy, live.ExecutorConfig{
		Locator: live.LocatorConfig{
			SettleDelay:         liveCfg.SettleDelay,
			StagnationTolerance: liveCfg.StagnationTolerance,
		},
		OverlaySelectors: overlays,
		MessageRate:      rate.Every(liveCfg.MessageInterval),
		MessageBurst:     liveCfg.MessageBurst,
	}, logger.Named(string(name)))

	return &liveSession{
		manager:  manager,
		tab:      tab,
		executor: executor,
		logger:   logger,
	}, nil
}

// Close tears the session down; bounded so a wedged browser cannot hang the
// command exit.
func (s *liveSession) Close(ctx context.Context) {
	shutdownManager(ctx, s.manager, s.logger)
}

// shutdownManager runs after the command context has usually been canceled
// already (signal, deadline), so the shutdown context is detached from it
// and bounded on its own.
func shutdownManager(ctx context.Context, m *browser.Manager, logger *zap.Logger) {
	shutdownCtx, cancel := context.WithTimeout(browser.Detach(ctx), 30*time.Second)
	defer cancel()
	if err := m.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Browser shutdown reported an error", zap.Error(err))
	}
}
