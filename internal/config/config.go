// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/bethropolis/ered/internal/logger"
)

// Config holds the application's combined configuration.
type Config struct {
	Logger logger.Config `toml:"logger"` // Embed logger config under [logger] table
	Editor EditorConfig  `toml:"editor"` // Editor-specific settings
}

// EditorConfig holds editor-specific settings (spec.md §3.4, §6.1).
type EditorConfig struct {
	// WindowSize is the default scroll window used by the 'z' command
	// when no count is given.
	WindowSize int `toml:"window_size"`

	// WriteHook, if set, is the default write-hook shell filter (ER_WRITE_HOOK).
	WriteHook string `toml:"write_hook"`

	// InplaceExt, if set, is the default -i backup extension.
	InplaceExt string `toml:"inplace_ext"`

	// Visual forces full-screen TUI mode by default (-V / ER_VISUAL=1).
	Visual bool `toml:"visual"`
}

var (
	loadedConfig *Config
	loadOnce     sync.Once
	loadErr      error
)

// NewDefaultConfig creates a Config struct with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Logger: logger.Config{
			LogLevel:    "info",
			LogFilePath: "",
		},
		Editor: EditorConfig{
			WindowSize: DefaultWindowSize,
			InplaceExt: DefaultInplaceExt,
		},
	}
}

// loadFromFile attempts to load configuration from a TOML file.
// It returns the loaded config and an error (nil if file not found or loaded successfully).
func loadFromFile(filePath string, verbose bool) (*Config, error) {
	cfg := &Config{}
	_, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		if verbose {
			logger.Debugf("Config file not found: %s", filePath)
		}
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("error checking config file '%s': %w", filePath, err)
	}

	if verbose {
		logger.Debugf("Attempting to load configuration from: %s", filePath)
	}
	metadata, err := toml.DecodeFile(filePath, cfg)
	if err != nil {
		return cfg, fmt.Errorf("failed to parse config file '%s': %w", filePath, err)
	}
	if len(metadata.Undecoded()) > 0 && verbose {
		logger.Warnf("Config file '%s': Unrecognized keys: %v", filePath, metadata.Undecoded())
	}
	if verbose {
		logger.Infof("Successfully loaded configuration from: %s", filePath)
	}
	return cfg, nil
}

// validate checks config values and resets invalid ones to defaults.
func (c *Config) validate() {
	defaults := NewDefaultConfig()

	if c.Editor.WindowSize <= 0 {
		c.Editor.WindowSize = defaults.Editor.WindowSize
	}
	if c.Logger.LogLevel == "" {
		c.Logger.LogLevel = defaults.Logger.LogLevel
	}
}

// LoadConfig orchestrates loading defaults, file, applying flags, and validation.
// It should be called only once, typically from main.
func LoadConfig(configFilePath string, flags *Flags) (*Config, error) {
	loadOnce.Do(func() {
		verbose := false

		cfg := NewDefaultConfig()

		effectivePath := configFilePath
		if effectivePath == "" {
			configDir, err := os.UserConfigDir()
			if err == nil {
				effectivePath = filepath.Join(configDir, AppName, DefaultConfigFileName)
			} else {
				effectivePath = ""
			}
		}

		if effectivePath != "" {
			fileCfg, err := loadFromFile(effectivePath, verbose)
			if err != nil {
				loadErr = err
			} else if fileCfg != nil {
				if fileCfg.Logger.LogLevel != "" {
					cfg.Logger = fileCfg.Logger
				}
				if fileCfg.Editor.WindowSize > 0 {
					cfg.Editor.WindowSize = fileCfg.Editor.WindowSize
				}
				if fileCfg.Editor.WriteHook != "" {
					cfg.Editor.WriteHook = fileCfg.Editor.WriteHook
				}
				if fileCfg.Editor.InplaceExt != "" {
					cfg.Editor.InplaceExt = fileCfg.Editor.InplaceExt
				}
				cfg.Editor.Visual = cfg.Editor.Visual || fileCfg.Editor.Visual
			}
		}

		if flags != nil {
			flags.ApplyOverrides(cfg, verbose)
		}

		cfg.validate()

		loadedConfig = cfg
	})

	return loadedConfig, loadErr
}

// Get returns the loaded application configuration. Panics if LoadConfig wasn't called.
func Get() *Config {
	if loadedConfig == nil {
		panic("config.Get() called before config.LoadConfig()")
	}
	return loadedConfig
}
