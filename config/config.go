// Copyright 2024 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
	"github.com/stratastor/logger"
	"github.com/stratastor/netpanel/internal/constants"
	"github.com/stratastor/netpanel/pkg/errors"
	"gopkg.in/yaml.v3"
)

var (
	instance   *Config
	once       sync.Once
	configPath string // Tracks where the config was loaded from
)

type Config struct {
	Server struct {
		Port           int           `mapstructure:"port" yaml:"port"`
		Host           string        `mapstructure:"host" yaml:"host"`
		LogLevel       string        `mapstructure:"logLevel" yaml:"logLevel"`
		Daemonize      bool          `mapstructure:"daemonize" yaml:"daemonize"`
		StartupTimeout time.Duration `mapstructure:"startupTimeout" yaml:"startupTimeout"`
	} `mapstructure:"server" yaml:"server"`

	Health struct {
		Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
	} `mapstructure:"health" yaml:"health"`

	Logs struct {
		Path      string `mapstructure:"path" yaml:"path"`
		Retention string `mapstructure:"retention" yaml:"retention"`
		Output    string `mapstructure:"output" yaml:"output"` // stdout or file
	} `mapstructure:"logs" yaml:"logs"`

	Logger struct {
		LogLevel     string `mapstructure:"logLevel" yaml:"logLevel"`
		EnableSentry bool   `mapstructure:"enableSentry" yaml:"enableSentry"`
		SentryDSN    string `mapstructure:"sentryDSN" yaml:"sentryDSN"`
	} `mapstructure:"logger" yaml:"logger"`

	Network NetworkConfig `mapstructure:"network" yaml:"network"`

	Environment string `mapstructure:"environment" yaml:"environment"`
}

// NetworkConfig tunes how the agent drives the host's network tools.
type NetworkConfig struct {
	UseSudo        bool          `mapstructure:"useSudo" yaml:"useSudo"`
	CommandTimeout time.Duration `mapstructure:"commandTimeout" yaml:"commandTimeout"`

	// Pause after deleting stale profiles, then poll until NetworkManager
	// stops listing them or settleTimeout elapses.
	SettleDelay    time.Duration `mapstructure:"settleDelay" yaml:"settleDelay"`
	SettleTimeout  time.Duration `mapstructure:"settleTimeout" yaml:"settleTimeout"`
	SettleInterval time.Duration `mapstructure:"settleInterval" yaml:"settleInterval"`

	ProfilePrefix          string        `mapstructure:"profilePrefix" yaml:"profilePrefix"`
	ResolvConfFallbackPath string        `mapstructure:"resolvConfFallbackPath" yaml:"resolvConfFallbackPath"`
	TimesyncdDropInPath    string        `mapstructure:"timesyncdDropInPath" yaml:"timesyncdDropInPath"`
	FirewallLogPath        string        `mapstructure:"firewallLogPath" yaml:"firewallLogPath"`
	NTPProbeTimeout        time.Duration `mapstructure:"ntpProbeTimeout" yaml:"ntpProbeTimeout"`
}

// LoadConfig loads the configuration with precedence rules.
func LoadConfig(configFilePath string) *Config {
	once.Do(func() {
		// Setup basic logger for initialization
		logConfig := logger.Config{
			LogLevel:     "info",
			EnableSentry: false,
			SentryDSN:    "",
		}
		l, err := logger.NewTag(logConfig, "config")
		if err != nil {
			fmt.Printf("Failed to create logger: %v\n", err)
			os.Exit(1)
		}

		// Reset viper to avoid any potential carryover
		viper.Reset()
		viper.SetConfigType("yaml")

		// Determine which config file to use with clear priorities
		systemConfigPath := filepath.Join(GetConfigDir(), constants.ConfigFileName)

		if configFilePath != "" {
			// 1. Priority: Explicit path from command line
			configPath = configFilePath
		} else if envPath := os.Getenv(constants.ConfigEnvVar); envPath != "" {
			// 2. Priority: Environment variable
			configPath = envPath
		} else {
			// 3. Priority: Always default to system-wide config
			configPath = systemConfigPath
		}

		l.Info("Using config file", "path", configPath)

		// Convert to absolute path if possible for consistency
		absPath, err := filepath.Abs(configPath)
		if err == nil {
			configPath = absPath
		}

		// Set config file path for viper
		viper.SetConfigFile(configPath)

		setDefaults()

		// Bind environment variables
		viper.AutomaticEnv()
		viper.SetEnvPrefix(constants.EnvPrefix)
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

		// Try to read the config file
		err = viper.ReadInConfig()

		// Handle missing or invalid config
		if err != nil {
			if isNotFound(err) {
				// File doesn't exist, create a default one
				l.Info("Config file not found, creating default", "path", configPath)

				// Ensure parent directory exists
				if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
					l.Error("Failed to create config directory", "err", err)
				}

				// Use defaults for now
				var cfg Config
				if err := viper.Unmarshal(&cfg); err != nil {
					l.Error("Failed to unmarshal default configuration", "err", err)
				}

				instance = &cfg

				// Save default config
				if err := SaveConfig(configPath); err != nil {
					l.Warn("Failed to save default configuration", "err", err)
				}
			} else {
				// Some other error (parse error, etc.)
				l.Error("Error reading config file", "err", err)

				// Still use defaults
				var cfg Config
				if err := viper.Unmarshal(&cfg); err != nil {
					l.Error("Failed to unmarshal default configuration", "err", err)
				}

				instance = &cfg
			}
		} else {
			// Successfully loaded config
			l.Info("Config file loaded successfully", "path", viper.ConfigFileUsed())
			configPath = viper.ConfigFileUsed()

			var cfg Config
			if err := viper.Unmarshal(&cfg); err != nil {
				l.Error("Failed to parse configuration", "err", err)
				cfg = Config{}
			}
			instance = &cfg
		}

		instance.Network.normalize()

		// Log config values for debugging (redact sensitive data)
		debugCfg := *instance
		if debugCfg.Logger.SentryDSN != "" {
			debugCfg.Logger.SentryDSN = "[REDACTED]"
		}
		l.Debug("Loaded configuration", "config", fmt.Sprintf("%+v", debugCfg))
	})

	return instance
}

func setDefaults() {
	viper.SetDefault("environment", "dev")
	viper.SetDefault("server.port", 8042)
	viper.SetDefault("server.host", "127.0.0.1")
	viper.SetDefault("server.logLevel", "debug")
	viper.SetDefault("server.daemonize", false)
	viper.SetDefault("server.startupTimeout", "15s")
	viper.SetDefault("health.endpoint", constants.APIHealth)
	viper.SetDefault("logs.path", "/var/log/netpanel/netpanel.log")
	viper.SetDefault("logs.retention", "7d")
	viper.SetDefault("logs.output", "stdout")
	viper.SetDefault("logger.logLevel", "info")
	viper.SetDefault("logger.enableSentry", false)
	viper.SetDefault("logger.sentryDSN", "")

	viper.SetDefault("network.useSudo", true)
	viper.SetDefault("network.commandTimeout", "30s")
	viper.SetDefault("network.settleDelay", "1s")
	viper.SetDefault("network.settleTimeout", "5s")
	viper.SetDefault("network.settleInterval", "500ms")
	viper.SetDefault("network.profilePrefix", constants.DefaultConnectionPrefix)
	viper.SetDefault("network.resolvConfFallbackPath", constants.DefaultResolvConfPath)
	viper.SetDefault("network.timesyncdDropInPath", constants.DefaultTimesyncdDropIn)
	viper.SetDefault("network.firewallLogPath", constants.DefaultFirewallLogPath)
	viper.SetDefault("network.ntpProbeTimeout", "3s")
}

func isNotFound(err error) bool {
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		return true
	}
	// SetConfigFile bypasses viper's search, so a missing file surfaces as
	// a plain os error.
	return os.IsNotExist(err)
}

// DefaultNetworkConfig returns the network section with the built-in
// defaults, except that settle waits are zero
func DefaultNetworkConfig() NetworkConfig {
	var n NetworkConfig
	n.UseSudo = true
	n.normalize()
	return n
}

func (n *NetworkConfig) normalize() {
	if n.CommandTimeout <= 0 {
		n.CommandTimeout = 30 * time.Second
	}
	if n.SettleDelay < 0 {
		n.SettleDelay = 0
	}
	if n.SettleInterval <= 0 {
		n.SettleInterval = 500 * time.Millisecond
	}
	if n.SettleTimeout < 0 {
		n.SettleTimeout = 0
	}
	if n.ProfilePrefix == "" {
		n.ProfilePrefix = constants.DefaultConnectionPrefix
	}
	if n.ResolvConfFallbackPath == "" {
		n.ResolvConfFallbackPath = constants.DefaultResolvConfPath
	}
	if n.TimesyncdDropInPath == "" {
		n.TimesyncdDropInPath = constants.DefaultTimesyncdDropIn
	}
	if n.FirewallLogPath == "" {
		n.FirewallLogPath = constants.DefaultFirewallLogPath
	}
	if n.NTPProbeTimeout <= 0 {
		n.NTPProbeTimeout = 3 * time.Second
	}
}

// SaveConfig persists the current configuration to a specified path.
func SaveConfig(path string) error {
	if path == "" {
		path = filepath.Join(GetConfigDir(), constants.ConfigFileName)
	}

	if instance == nil {
		return errors.New(errors.ConfigWriteFailed, "no configuration loaded")
	}

	// Create parent directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, errors.ConfigDirectoryError).WithMetadata("path", path)
	}

	configYAML, err := yaml.Marshal(instance)
	if err != nil {
		return errors.Wrap(err, errors.ConfigMarshalFailed)
	}

	if err := os.WriteFile(path, configYAML, 0644); err != nil {
		return errors.Wrap(err, errors.ConfigWriteFailed).WithMetadata("path", path)
	}

	// Update the tracked config path
	configPath = path

	return nil
}

// Validate rejects settings the server cannot start with
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New(errors.ConfigValidationFailed,
			fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}
	if c.Server.StartupTimeout < 0 {
		return errors.New(errors.ConfigValidationFailed, "server.startupTimeout must not be negative")
	}
	switch c.Logs.Output {
	case "", "stdout", "file":
	default:
		return errors.New(errors.ConfigValidationFailed,
			fmt.Sprintf("logs.output must be stdout or file, got %q", c.Logs.Output))
	}
	return nil
}

// GetLoadedConfigPath returns the path of the currently loaded configuration file.
func GetLoadedConfigPath() string {
	return configPath
}

// GetConfig returns the current configuration instance.
func GetConfig() *Config {
	if instance == nil {
		return LoadConfig("")
	}
	return instance
}

func NewLoggerConfig(cfg *Config) logger.Config {
	if cfg == nil {
		return logger.Config{
			LogLevel:     "info",
			EnableSentry: false,
			SentryDSN:    "",
		}
	}

	return logger.Config{
		LogLevel:     cfg.Logger.LogLevel,
		EnableSentry: cfg.Logger.EnableSentry,
		SentryDSN:    cfg.Logger.SentryDSN,
	}
}
