// File: cmd/cmd_test.go
package cmd

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bigOK666/oba-live-tool/internal/browser"
	"github.com/bigOK666/oba-live-tool/internal/config"
	"github.com/bigOK666/oba-live-tool/internal/platform"
)

// executeCommandNoPreRun runs the root command with args, with the config
// bootstrap disabled so argument and flag validation can be tested without
// a config file or a browser.
func executeCommandNoPreRun(t *testing.T, args ...string) (string, error) {
	t.Helper()
	savedPreRun := rootCmd.PersistentPreRunE
	rootCmd.PersistentPreRunE = nil
	t.Cleanup(func() { rootCmd.PersistentPreRunE = savedPreRun })

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := executeCommandNoPreRun(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, Version)
}

func TestVersionFlag(t *testing.T) {
	out, err := executeCommandNoPreRun(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, Version)
}

func TestPopupRejectsNonNumericID(t *testing.T) {
	_, err := executeCommandNoPreRun(t, "popup", "first")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "goods id must be a number")
}

func TestPopupRequiresExactlyOneArg(t *testing.T) {
	_, err := executeCommandNoPreRun(t, "popup")
	require.Error(t, err)

	_, err = executeCommandNoPreRun(t, "popup", "1", "2")
	require.Error(t, err)
}

func TestSendRequiresMessage(t *testing.T) {
	_, err := executeCommandNoPreRun(t, "send")
	require.Error(t, err)
}

// The --platform flag binds to platformName, not a package-level
// `platform` identifier, so it cannot shadow the platform package import.
func TestPlatformFlagDefaultIsSupported(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("platform")
	require.NotNil(t, flag)
	assert.Equal(t, "douyin", flag.DefValue)

	_, err := platform.SelectorsFor(platform.Name(flag.DefValue))
	require.NoError(t, err)
}

func TestInitializeConfigEnvOverride(t *testing.T) {
	t.Setenv("OBA_LOGGER_LEVEL", "debug")
	require.NoError(t, initializeConfig())
	assert.Equal(t, "debug", viper.GetString("logger.level"))
}

// Teardown runs after the signal has already canceled the command context;
// the shutdown context is detached from it so cleanup still completes.
func TestShutdownManagerAfterContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := browser.NewManager(config.BrowserConfig{}, zap.NewNop())
	done := make(chan struct{})
	go func() {
		shutdownManager(ctx, m, zap.NewNop())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("shutdown did not complete after the command context was canceled")
	}
}
