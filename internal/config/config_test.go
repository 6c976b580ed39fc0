// File: internal/config/config_test.go
package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	// Verify a few key defaults to ensure the mechanism works.
	assert.Equal(t, "info", cfg.Logger().Level)
	assert.Equal(t, "oba-live-tool", cfg.Logger().ServiceName)
	assert.False(t, cfg.Browser().Headless, "panels need a visible, logged-in browser by default")
	assert.Equal(t, 60*time.Second, cfg.Browser().LaunchTimeout)
	assert.Equal(t, time.Second, cfg.Live().SettleDelay)
	assert.Equal(t, 10.0, cfg.Live().StagnationTolerance)
	assert.Equal(t, 2*time.Second, cfg.Live().MessageInterval)
	assert.Equal(t, 1, cfg.Live().MessageBurst)
	assert.False(t, cfg.Tasks().Popup.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Tasks().Message.Interval)
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	t.Run("Core Validation", func(t *testing.T) {
		cfg := NewDefaultConfig()
		assert.NoError(t, cfg.Validate(), "A valid config should not produce a validation error")

		cfgInvalidSettle := *cfg
		cfgInvalidSettle.LiveCfg.SettleDelay = 0
		err := cfgInvalidSettle.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "live.settle_delay must be a positive duration")

		cfgInvalidTolerance := *cfg
		cfgInvalidTolerance.LiveCfg.StagnationTolerance = -1
		err = cfgInvalidTolerance.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "live.stagnation_tolerance must not be negative")

		cfgInvalidBurst := *cfg
		cfgInvalidBurst.LiveCfg.MessageBurst = 0
		err = cfgInvalidBurst.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "live.message_burst must be at least 1")
	})

	t.Run("Popup Task Validation", func(t *testing.T) {
		validPopup := PopupTaskConfig{
			Enabled:  true,
			Interval: 30 * time.Second,
			Goods:    []int64{3, 7},
		}
		assert.NoError(t, validPopup.Validate())

		disabledPopup := validPopup
		disabledPopup.Enabled = false
		disabledPopup.Goods = nil
		assert.NoError(t, disabledPopup.Validate(), "disabled task config should always be valid")

		invalidInterval := validPopup
		invalidInterval.Interval = 0
		err := invalidInterval.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "interval must be a positive duration")

		emptyGoods := validPopup
		emptyGoods.Goods = nil
		err = emptyGoods.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "goods must list at least one identifier")
	})

	t.Run("Message Task Validation", func(t *testing.T) {
		validMsg := MessageTaskConfig{
			Enabled:  true,
			Interval: time.Minute,
			Messages: []string{"welcome"},
		}
		assert.NoError(t, validMsg.Validate())

		emptyMessages := validMsg
		emptyMessages.Messages = nil
		err := emptyMessages.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "messages must list at least one entry")
	})
}

// -- Factory Function Tests --

func TestNewConfigFromViper(t *testing.T) {
	t.Run("Validation Failure", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("live.message_burst", 0) // Intentionally invalid

		cfg, err := NewConfigFromViper(v)
		assert.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "invalid configuration")
		assert.Contains(t, err.Error(), "live.message_burst must be at least 1")
	})

	t.Run("Session Config from Flags", func(t *testing.T) {
		cfg := NewDefaultConfig()
		assert.Empty(t, cfg.Session().Platform)
		cfg.SetSessionConfig(SessionConfig{Platform: "douyin"})
		assert.Equal(t, "douyin", cfg.Session().Platform)
	})
}

// -- Struct and Mapping Tests --

func TestConfigStructureMapping(t *testing.T) {
	yamlInput := `
logger:
  level: debug
  log_file: /var/log/oba.log
browser:
  user_data_dir: /home/op/.oba/chrome
live:
  settle_delay: 750ms
  overlays:
    douyin: ["div.survey-dialog span.close"]
tasks:
  message:
    enabled: true
    messages: ["hello", "check the pinned item"]
    pin_to_top: true
`
	v := viper.New()
	SetDefaults(v) // Set defaults first
	v.SetConfigType("yaml")
	err := v.ReadConfig(bytes.NewBufferString(yamlInput))
	require.NoError(t, err)

	var cfg Config
	err = v.Unmarshal(&cfg)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger().Level)
	assert.Equal(t, "/var/log/oba.log", cfg.Logger().LogFile)
	assert.Equal(t, "/home/op/.oba/chrome", cfg.Browser().UserDataDir)
	assert.Equal(t, 750*time.Millisecond, cfg.Live().SettleDelay)
	require.Contains(t, cfg.Live().Overlays, "douyin")
	assert.Contains(t, cfg.Live().Overlays["douyin"], "div.survey-dialog span.close")
	assert.True(t, cfg.Tasks().Message.Enabled)
	assert.True(t, cfg.Tasks().Message.PinToTop)
	assert.Len(t, cfg.Tasks().Message.Messages, 2)
	// Check a default value was also loaded
	assert.Equal(t, 1, cfg.Live().MessageBurst)
}
