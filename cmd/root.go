// -- cmd/root.go --
package cmd

import (
	"fmt"
	"os"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/bigOK666/oba-live-tool/internal/config"
	"github.com/bigOK666/oba-live-tool/internal/observability"
)

var (
	cfgFile      string
	platformName string

	// appCfg is the resolved configuration, populated by PersistentPreRunE
	// before any subcommand runs.
	appCfg *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "oba-live-tool",
	Short: "Drives live-commerce control panels: popup goods, send chat, recover the panel.",
	// Version is dynamically set at build time. See cmd/version.go.
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// This function runs before any command, setting up config and logging.
		if err := initializeConfig(); err != nil {
			return err
		}

		cfg, err := config.NewConfigFromViper(viper.GetViper())
		if err != nil {
			// Initialize a fallback logger so the error gets reported somewhere.
			observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "oba-live-tool"})
			return err
		}
		cfg.SetSessionConfig(config.SessionConfig{Platform: platformName})
		appCfg = cfg

		observability.InitializeLogger(cfg.Logger())
		observability.GetLogger().Info("Starting oba-live-tool",
			zap.String("version", Version),
			zap.String("platform", platformName))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx := signalContext()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Use the logger if available, otherwise fall back to stderr.
		if logger := observability.GetLogger(); logger != nil {
			logger.Error("Command execution failed", zap.Error(err))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		observability.Sync()
		os.Exit(1)
	}
	observability.Sync()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is $HOME/.oba-live-tool/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&platformName, "platform", "p", "douyin", "live platform: douyin, buyin, wxchannel, kuaishou")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(newPopupCmd())
	rootCmd.AddCommand(newSendCmd())
	rootCmd.AddCommand(newRecoverCmd())
	rootCmd.AddCommand(newAutoCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// initializeConfig reads in the config file and OBA_* environment variables.
func initializeConfig() error {
	v := viper.GetViper()
	config.SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home + "/.oba-live-tool")
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("OBA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults/env vars.
	}
	return nil
}
