// internal/config/flags.go
package config

import (
	"flag"
	"fmt"
	"strings"

	"github.com/bethropolis/ered/internal/logger"
)

// Flags holds values parsed from command-line flags.
// Use pointers to distinguish between unset flags and zero-value flags.
type Flags struct {
	ConfigFilePath *string
	Version        *bool
	LogLevel       *string
	LogFilePath    *string
	WindowSize     *int
	WriteHook      *string
	InplaceExt     *string
	Visual         *bool
	NoVisual       *bool
	// Logger filter flags
	EnableTags   *string
	DisableTags  *string
	EnablePkgs   *string
	DisablePkgs  *string
	EnableFiles  *string
	DisableFiles *string
	DebugLog     *bool
}

// DefineFlags sets up the command-line flags and associates them with the Flags struct fields.
func (f *Flags) DefineFlags() {
	f.ConfigFilePath = flag.String("config", "", fmt.Sprintf("Path to TOML configuration file (default ~/.config/%s/%s)", AppName, DefaultConfigFileName))
	f.Version = flag.Bool("version", false, "Accepted but has no effect: no version information is printed")
	f.LogLevel = flag.String("loglevel", "", "Log level (debug, info, warn, error) - Overrides config file")
	f.LogFilePath = flag.String("logfile", "", "Path to write log file (use '-' for stderr) - Overrides config file")
	f.WindowSize = flag.Int("windowsize", 0, "Default scroll window size used by 'z' - Overrides config file") // 0 means unset
	f.WriteHook = flag.String("writehook", "", "Default write-hook shell filter (ER_WRITE_HOOK) - Overrides config file")
	f.InplaceExt = flag.String("inplaceext", "", "Default -i backup extension - Overrides config file")
	f.Visual = flag.Bool("V", false, "Force full-screen TUI mode (ER_VISUAL=1)")
	f.NoVisual = flag.Bool("T", false, "Force the line-oriented REPL, overriding ER_VISUAL/config")
	f.EnableTags = flag.String("log-tags", "", "Comma-separated list of tags to enable - Overrides config file")
	f.DisableTags = flag.String("log-disable-tags", "", "Comma-separated list of tags to disable - Overrides config file")
	f.EnablePkgs = flag.String("log-packages", "", "Comma-separated list of packages to enable - Overrides config file")
	f.DisablePkgs = flag.String("log-disable-packages", "", "Comma-separated list of packages to disable - Overrides config file")
	f.EnableFiles = flag.String("log-files", "", "Comma-separated list of files to enable - Overrides config file")
	f.DisableFiles = flag.String("log-disable-files", "", "Comma-separated list of files to disable - Overrides config file")
	f.DebugLog = flag.Bool("debug-log", false, "Enable verbose debug logging for the logger filtering system")
}

// ParseFlags parses the defined command-line flags into the Flags struct.
// It returns the remaining non-flag arguments (e.g., the file path).
func (f *Flags) ParseFlags() []string {
	f.DefineFlags()
	flag.Parse()
	return flag.Args() // Return non-flag arguments
}

// ApplyOverrides updates the Config struct with values from flags *if* they were set.
func (f *Flags) ApplyOverrides(cfg *Config, verbose bool) {
	// Visit only processes flags that were actually set
	flag.Visit(func(fl *flag.Flag) {
		if verbose {
			logger.DebugTagf("config", "Applying flag override: %s", fl.Name)
		}
		switch fl.Name {
		case "loglevel":
			if f.LogLevel != nil && *f.LogLevel != "" {
				if verbose {
					logger.DebugTagf("config", "Setting log level from flag: %s", *f.LogLevel)
				}
				cfg.Logger.LogLevel = *f.LogLevel
			}
		case "logfile":
			if f.LogFilePath != nil { // Empty string is valid ("-")
				if verbose {
					logger.DebugTagf("config", "Setting log file path from flag: %s", *f.LogFilePath)
				}
				cfg.Logger.LogFilePath = *f.LogFilePath
			}
		case "windowsize":
			if f.WindowSize != nil && *f.WindowSize > 0 {
				if verbose {
					logger.DebugTagf("config", "Setting window size from flag: %d", *f.WindowSize)
				}
				cfg.Editor.WindowSize = *f.WindowSize
			}
		case "writehook":
			if f.WriteHook != nil && *f.WriteHook != "" {
				if verbose {
					logger.DebugTagf("config", "Setting write hook from flag: %s", *f.WriteHook)
				}
				cfg.Editor.WriteHook = *f.WriteHook
			}
		case "inplaceext":
			if f.InplaceExt != nil && *f.InplaceExt != "" {
				if verbose {
					logger.DebugTagf("config", "Setting inplace extension from flag: %s", *f.InplaceExt)
				}
				cfg.Editor.InplaceExt = *f.InplaceExt
			}
		case "V":
			if f.Visual != nil && *f.Visual {
				if verbose {
					logger.DebugTagf("config", "Forcing visual mode from flag")
				}
				cfg.Editor.Visual = true
			}
		case "T":
			if f.NoVisual != nil && *f.NoVisual {
				if verbose {
					logger.DebugTagf("config", "Forcing non-visual mode from flag")
				}
				cfg.Editor.Visual = false
			}
		case "log-tags":
			if f.EnableTags != nil && *f.EnableTags != "" {
				tags := splitCommaList(*f.EnableTags)
				if verbose {
					logger.DebugTagf("config", "Setting enabled tags from flag: %v", tags)
				}
				cfg.Logger.EnabledTags = tags
			}
		case "log-disable-tags":
			if f.DisableTags != nil && *f.DisableTags != "" {
				tags := splitCommaList(*f.DisableTags)
				if verbose {
					logger.DebugTagf("config", "Setting disabled tags from flag: %v", tags)
				}
				cfg.Logger.DisabledTags = tags
			}
		case "log-packages":
			if f.EnablePkgs != nil && *f.EnablePkgs != "" {
				pkgs := splitCommaList(*f.EnablePkgs)
				if verbose {
					logger.DebugTagf("config", "Setting enabled packages from flag: %v", pkgs)
				}
				cfg.Logger.EnabledPackages = pkgs
			}
		case "log-disable-packages":
			if f.DisablePkgs != nil && *f.DisablePkgs != "" {
				pkgs := splitCommaList(*f.DisablePkgs)
				if verbose {
					logger.DebugTagf("config", "Setting disabled packages from flag: %v", pkgs)
				}
				cfg.Logger.DisabledPackages = pkgs
			}
		case "log-files":
			if f.EnableFiles != nil && *f.EnableFiles != "" {
				files := splitCommaList(*f.EnableFiles)
				if verbose {
					logger.DebugTagf("config", "Setting enabled files from flag: %v", files)
				}
				cfg.Logger.EnabledFiles = files
			}
		case "log-disable-files":
			if f.DisableFiles != nil && *f.DisableFiles != "" {
				files := splitCommaList(*f.DisableFiles)
				if verbose {
					logger.DebugTagf("config", "Setting disabled files from flag: %v", files)
				}
				cfg.Logger.DisabledFiles = files
			}
		}
	})
}

// Helper function to split comma-separated list (can be moved to util)
func splitCommaList(list string) []string {
	if list == "" {
		return nil
	}
	items := strings.Split(list, ",")
	result := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
