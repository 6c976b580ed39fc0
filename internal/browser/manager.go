// internal/browser/manager.go
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bigOK666/oba-live-tool/internal/config"
)

const shutdownGracePeriod = 15 * time.Second

// Manager owns the Chrome process lifecycle and tab creation. Initialization
// is deferred until the first tab is requested.
type Manager struct {
	logger *zap.Logger
	cfg    config.BrowserConfig

	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	tabs map[string]*Tab
	mu   sync.RWMutex
	wg   sync.WaitGroup // ensures all tabs are closed before the browser goes down

	initOnce sync.Once
	initErr  error
}

// NewManager creates a browser manager. The Chrome process is not launched
// until OpenTab is first called.
func NewManager(cfg config.BrowserConfig, logger *zap.Logger) *Manager {
	m := &Manager{
		logger: logger.Named("browser_manager"),
		cfg:    cfg,
		tabs:   make(map[string]*Tab),
	}
	m.logger.Info("Browser manager created (launch deferred).")
	return m
}

// initialize builds the exec allocator and launches the Chrome instance.
func (m *Manager) initialize(ctx context.Context) error {
	m.initOnce.Do(func() {
		m.logger.Info("Launching browser...",
			zap.Bool("headless", m.cfg.Headless),
			zap.String("user_data_dir", m.cfg.UserDataDir))

		m.allocCtx, m.allocCancel = chromedp.NewExecAllocator(context.Background(), m.allocatorOptions()...)

		ctxOpts := []chromedp.ContextOption{}
		if m.cfg.Debug {
			ctxOpts = append(ctxOpts, chromedp.WithDebugf(m.logger.Sugar().Debugf))
		}
		m.browserCtx, m.browserCancel = chromedp.NewContext(m.allocCtx, ctxOpts...)

		if err := m.launch(ctx); err != nil {
			m.browserCancel()
			m.allocCancel()
			m.initErr = err
			return
		}

		m.logger.Info("Browser manager initialized successfully.")
	})
	return m.initErr
}

// launch runs an empty task against the browser context, which forces the
// Chrome process to start, bounded by the configured launch timeout.
func (m *Manager) launch(ctx context.Context) error {
	timeout := m.cfg.LaunchTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	launchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// chromedp.Run blocks until the process is up, so race it against the
	// launch deadline.
	errChan := make(chan error, 1)
	go func() {
		errChan <- chromedp.Run(m.browserCtx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("failed to launch browser instance: %w", err)
		}
		return nil
	case <-launchCtx.Done():
		return fmt.Errorf("timeout waiting for browser launch: %w", launchCtx.Err())
	}
}

func (m *Manager) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		// Live panels detect the automation banner and degrade, so keep the
		// blink automation flag off.
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-dev-shm-usage", true),
	}
	if m.cfg.Headless {
		opts = append(opts, chromedp.Headless, chromedp.DisableGPU)
	}
	if m.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(m.cfg.ExecPath))
	}
	if m.cfg.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(m.cfg.UserDataDir))
	}
	for _, arg := range m.cfg.Args {
		name, value := parseBrowserArg(arg)
		if name == "" {
			continue
		}
		opts = append(opts, chromedp.Flag(name, value))
	}
	return opts
}

// parseBrowserArg splits a raw command line argument ("--lang=zh-CN" or
// "disable-sync") into a chromedp flag name and value.
func parseBrowserArg(arg string) (string, interface{}) {
	arg = strings.TrimLeft(strings.TrimSpace(arg), "-")
	if arg == "" {
		return "", nil
	}
	if name, value, found := strings.Cut(arg, "="); found {
		return name, value
	}
	return arg, true
}

// OpenTab creates a new tab and navigates it to the given URL.
func (m *Manager) OpenTab(ctx context.Context, url string) (*Tab, error) {
	if err := m.initialize(ctx); err != nil {
		return nil, err
	}

	tab := newTab(m.browserCtx, m.cfg.NavigationTimeout, m.logger)

	m.wg.Add(1) // increment before registering the tab
	tab.onClose = func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.tabs, tab.ID())
		m.wg.Done()
		m.logger.Debug("Tab removed from manager.", zap.String("tab_id", tab.ID()))
	}

	if url != "" {
		if err := tab.Navigate(ctx, url); err != nil {
			tab.Close()
			return nil, fmt.Errorf("failed to open %s: %w", url, err)
		}
	}

	m.mu.Lock()
	m.tabs[tab.ID()] = tab
	m.mu.Unlock()

	m.logger.Info("New tab opened.", zap.String("tab_id", tab.ID()), zap.String("url", url))
	return tab, nil
}

// Shutdown gracefully closes all tabs and the browser process.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("Shutting down browser manager.")

	if m.browserCtx == nil {
		m.logger.Info("Manager never launched, skipping full shutdown sequence.")
		return nil
	}

	m.mu.RLock()
	tabsToClose := make([]*Tab, 0, len(m.tabs))
	for _, t := range m.tabs {
		tabsToClose = append(tabsToClose, t)
	}
	m.mu.RUnlock()

	g, _ := errgroup.WithContext(ctx)
	for _, t := range tabsToClose {
		t := t
		g.Go(func() error {
			t.Close()
			return nil
		})
	}
	_ = g.Wait()

	// Wait for all tab onClose callbacks, bounded by the caller's context.
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		m.logger.Info("All tabs closed gracefully.")
	case <-ctx.Done():
		m.logger.Warn("Timeout waiting for tabs to close. Proceeding with forceful shutdown.", zap.Error(ctx.Err()))
	}

	// chromedp.Cancel waits for the browser to exit cleanly, so bound it.
	var shutdownErr error
	cancelErr := make(chan error, 1)
	go func() {
		cancelErr <- chromedp.Cancel(m.browserCtx)
	}()
	select {
	case err := <-cancelErr:
		if err != nil {
			m.logger.Error("Failed to close browser instance.", zap.Error(err))
			shutdownErr = fmt.Errorf("failed to close browser: %w", err)
		}
	case <-time.After(shutdownGracePeriod):
		m.logger.Warn("Browser did not exit within grace period, killing allocator.")
		m.browserCancel()
	}

	m.allocCancel()
	m.logger.Info("Browser manager shutdown complete.")
	return shutdownErr
}
