// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Browser() BrowserConfig
	Live() LiveConfig
	Tasks() TasksConfig
	Session() SessionConfig
	SetSessionConfig(sc SessionConfig)

	// Browser Setters
	SetBrowserHeadless(bool)
	SetBrowserUserDataDir(string)

	// Live Setters
	SetLiveSettleDelay(d time.Duration)
	SetLiveStagnationTolerance(f float64)
	SetLiveMessageInterval(d time.Duration)
}

// Config holds the entire application configuration. Access goes through
// the Interface's getter methods; the fields stay exported so viper can
// unmarshal into them.
type Config struct {
	LoggerCfg  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	BrowserCfg BrowserConfig `mapstructure:"browser" yaml:"browser"`
	LiveCfg    LiveConfig    `mapstructure:"live" yaml:"live"`
	TasksCfg   TasksConfig   `mapstructure:"tasks" yaml:"tasks"`
	// SessionCfg gets its marching orders from CLI flags, not the config file.
	SessionCfg SessionConfig `mapstructure:"-" yaml:"-"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig   { return c.LoggerCfg }
func (c *Config) Browser() BrowserConfig { return c.BrowserCfg }
func (c *Config) Live() LiveConfig       { return c.LiveCfg }
func (c *Config) Tasks() TasksConfig     { return c.TasksCfg }
func (c *Config) Session() SessionConfig { return c.SessionCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetSessionConfig(sc SessionConfig) { c.SessionCfg = sc }

// Browser Setters
func (c *Config) SetBrowserHeadless(b bool)        { c.BrowserCfg.Headless = b }
func (c *Config) SetBrowserUserDataDir(dir string) { c.BrowserCfg.UserDataDir = dir }

// Live Setters
func (c *Config) SetLiveSettleDelay(d time.Duration)     { c.LiveCfg.SettleDelay = d }
func (c *Config) SetLiveStagnationTolerance(f float64)   { c.LiveCfg.StagnationTolerance = f }
func (c *Config) SetLiveMessageInterval(d time.Duration) { c.LiveCfg.MessageInterval = d }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the Chrome instance driving the panels.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	ExecPath          string        `mapstructure:"exec_path" yaml:"exec_path"`
	UserDataDir       string        `mapstructure:"user_data_dir" yaml:"user_data_dir"`
	Args              []string      `mapstructure:"args" yaml:"args"`
	Debug             bool          `mapstructure:"debug" yaml:"debug"`
	LaunchTimeout     time.Duration `mapstructure:"launch_timeout" yaml:"launch_timeout"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
}

// LiveConfig tunes the goods-item resolution and command execution.
type LiveConfig struct {
	// SettleDelay is the wait after each scroll before re-reading the list.
	SettleDelay time.Duration `mapstructure:"settle_delay" yaml:"settle_delay"`
	// StagnationTolerance is the scroll-offset band (in pixels) within
	// which two consecutive reads count as "did not move".
	StagnationTolerance float64 `mapstructure:"stagnation_tolerance" yaml:"stagnation_tolerance"`

	// Popup confirmation choreography bounds.
	PopupConfirmWait time.Duration `mapstructure:"popup_confirm_wait" yaml:"popup_confirm_wait"`
	PopupActiveWait  time.Duration `mapstructure:"popup_active_wait" yaml:"popup_active_wait"`
	PopupPoll        time.Duration `mapstructure:"popup_poll" yaml:"popup_poll"`

	// MessageInterval floors the spacing between outbound chat messages.
	MessageInterval time.Duration `mapstructure:"message_interval" yaml:"message_interval"`
	MessageBurst    int           `mapstructure:"message_burst" yaml:"message_burst"`

	// Overlays appends extra dismissal selectors per platform, keyed by
	// platform name.
	Overlays map[string][]string `mapstructure:"overlays" yaml:"overlays"`
}

// TasksConfig configures the background automation loops.
type TasksConfig struct {
	Popup   PopupTaskConfig   `mapstructure:"popup" yaml:"popup"`
	Message MessageTaskConfig `mapstructure:"message" yaml:"message"`
}

// PopupTaskConfig drives the auto-popup rotation.
type PopupTaskConfig struct {
	Enabled  bool          `mapstructure:"enabled" yaml:"enabled"`
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
	Jitter   time.Duration `mapstructure:"jitter" yaml:"jitter"`
	Goods    []int64       `mapstructure:"goods" yaml:"goods"`
}

// MessageTaskConfig drives the auto-message loop.
type MessageTaskConfig struct {
	Enabled  bool          `mapstructure:"enabled" yaml:"enabled"`
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
	Jitter   time.Duration `mapstructure:"jitter" yaml:"jitter"`
	Messages []string      `mapstructure:"messages" yaml:"messages"`
	Random   bool          `mapstructure:"random" yaml:"random"`
	PinToTop bool          `mapstructure:"pin_to_top" yaml:"pin_to_top"`
}

// SessionConfig holds settings populated from CLI flags for a specific run.
type SessionConfig struct {
	Platform string
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "oba-live-tool")
	v.SetDefault("logger.log_file", "oba-live.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	// Live panels require a logged-in cookie jar, so headless stays off
	// and the profile persists in user_data_dir.
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.user_data_dir", "")
	v.SetDefault("browser.debug", false)
	v.SetDefault("browser.launch_timeout", "60s")
	v.SetDefault("browser.navigation_timeout", "90s")

	// -- Live --
	v.SetDefault("live.settle_delay", "1s")
	v.SetDefault("live.stagnation_tolerance", 10.0)
	v.SetDefault("live.popup_confirm_wait", "3s")
	v.SetDefault("live.popup_active_wait", "5s")
	v.SetDefault("live.popup_poll", "200ms")
	v.SetDefault("live.message_interval", "2s")
	v.SetDefault("live.message_burst", 1)

	// -- Tasks --
	v.SetDefault("tasks.popup.enabled", false)
	v.SetDefault("tasks.popup.interval", "30s")
	v.SetDefault("tasks.popup.jitter", "5s")
	v.SetDefault("tasks.message.enabled", false)
	v.SetDefault("tasks.message.interval", "30s")
	v.SetDefault("tasks.message.jitter", "5s")
	v.SetDefault("tasks.message.random", false)
	v.SetDefault("tasks.message.pin_to_top", false)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.LiveCfg.SettleDelay <= 0 {
		return fmt.Errorf("live.settle_delay must be a positive duration")
	}
	if c.LiveCfg.StagnationTolerance < 0 {
		return fmt.Errorf("live.stagnation_tolerance must not be negative")
	}
	if c.LiveCfg.MessageInterval <= 0 {
		return fmt.Errorf("live.message_interval must be a positive duration")
	}
	if c.LiveCfg.MessageBurst < 1 {
		return fmt.Errorf("live.message_burst must be at least 1")
	}
	if err := c.TasksCfg.Popup.Validate(); err != nil {
		return fmt.Errorf("tasks.popup configuration invalid: %w", err)
	}
	if err := c.TasksCfg.Message.Validate(); err != nil {
		return fmt.Errorf("tasks.message configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the popup task settings.
func (p *PopupTaskConfig) Validate() error {
	if !p.Enabled {
		return nil
	}
	if p.Interval <= 0 {
		return fmt.Errorf("interval must be a positive duration")
	}
	if len(p.Goods) == 0 {
		return fmt.Errorf("goods must list at least one identifier")
	}
	return nil
}

// Validate checks the message task settings.
func (m *MessageTaskConfig) Validate() error {
	if !m.Enabled {
		return nil
	}
	if m.Interval <= 0 {
		return fmt.Errorf("interval must be a positive duration")
	}
	if len(m.Messages) == 0 {
		return fmt.Errorf("messages must list at least one entry")
	}
	return nil
}
