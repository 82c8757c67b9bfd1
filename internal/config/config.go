package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/pflag"

	"github.com/wesm/ftpmanager/internal/store"
	"github.com/wesm/ftpmanager/internal/userdir"
)

// Record variants understood by the tool.
const (
	VariantSessions = "sessions"
	VariantProjects = "projects"
)

const configFileName = "config.json"

var logLevels = []string{"debug", "info", "warn", "error"}

// Config holds all application configuration.
type Config struct {
	DataDir string `json:"-"`

	// AppName selects the editor channel ("Visual Studio Code",
	// "Visual Studio Code - Insiders").
	AppName string `json:"app_name,omitempty"`
	// Variant is the record kind kept in the settings file.
	Variant string `json:"variant,omitempty"`
	// SettingsDir, when set, replaces the editor User directory.
	SettingsDir string `json:"settings_dir,omitempty"`
	FileName    string `json:"file_name,omitempty"`
	// Editor overrides $VISUAL/$EDITOR for the open command.
	Editor   string `json:"editor,omitempty"`
	LogLevel string `json:"log_level,omitempty"`
}

// Default returns a Config with default values.
func Default() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf(
			"determining home directory: %w", err,
		)
	}
	return Config{
		DataDir:  filepath.Join(home, ".ftpmanager"),
		AppName:  "Visual Studio Code",
		Variant:  VariantSessions,
		FileName: userdir.DefaultFileName,
		LogLevel: "warn",
	}, nil
}

// Load builds a Config by layering: defaults < config file < env < flags.
// The provided FlagSet must already be parsed by the caller.
// Only flags that were explicitly set override the lower layers.
func Load(fs *pflag.FlagSet) (Config, error) {
	cfg, err := Default()
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("FTPMANAGER_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if fs != nil {
		if f := fs.Lookup("data-dir"); f != nil && f.Changed {
			cfg.DataDir = f.Value.String()
		}
	}

	if err := cfg.loadFile(); err != nil {
		return cfg, fmt.Errorf("loading config file: %w", err)
	}
	cfg.loadEnv()
	applyFlags(&cfg, fs)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) configPath() string {
	return filepath.Join(c.DataDir, configFileName)
}

func (c *Config) loadFile() error {
	data, err := os.ReadFile(c.configPath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var file Config
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	if file.AppName != "" {
		c.AppName = file.AppName
	}
	if file.Variant != "" {
		c.Variant = file.Variant
	}
	if file.SettingsDir != "" {
		c.SettingsDir = file.SettingsDir
	}
	if file.FileName != "" {
		c.FileName = file.FileName
	}
	if file.Editor != "" {
		c.Editor = file.Editor
	}
	if file.LogLevel != "" {
		c.LogLevel = file.LogLevel
	}
	return nil
}

func (c *Config) loadEnv() {
	if v := os.Getenv("FTPMANAGER_APP_NAME"); v != "" {
		c.AppName = v
	}
	if v := os.Getenv("FTPMANAGER_VARIANT"); v != "" {
		c.Variant = v
	}
	if v := os.Getenv("FTPMANAGER_SETTINGS_DIR"); v != "" {
		c.SettingsDir = v
	}
	if v := os.Getenv("FTPMANAGER_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// RegisterFlags registers the global flags on fs.
// The caller must parse fs before passing it to Load.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("data-dir", "", "Directory holding config.json and debug.log")
	fs.String("app-name", "Visual Studio Code", "Editor name; names containing \"Insiders\" use the insiders settings dir")
	fs.String("variant", VariantSessions, "Record kind: sessions or projects")
	fs.String("settings-dir", "", "Use this directory instead of the editor's User directory")
	fs.String("file", userdir.DefaultFileName, "Settings file name")
	fs.String("log-level", "warn", "Log level: debug, info, warn, error")
	fs.BoolP("verbose", "v", false, "Shorthand for --log-level=debug")
}

// applyFlags copies explicitly-set flags from fs into cfg.
func applyFlags(cfg *Config, fs *pflag.FlagSet) {
	if fs == nil {
		return
	}
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "app-name":
			cfg.AppName = f.Value.String()
		case "variant":
			cfg.Variant = f.Value.String()
		case "settings-dir":
			cfg.SettingsDir = f.Value.String()
		case "file":
			cfg.FileName = f.Value.String()
		case "log-level":
			cfg.LogLevel = f.Value.String()
		}
	})
	// --verbose wins over --log-level regardless of order.
	if f := fs.Lookup("verbose"); f != nil && f.Changed && f.Value.String() == "true" {
		cfg.LogLevel = "debug"
	}
}

// Validate rejects values the rest of the tool cannot act on.
func (c *Config) Validate() error {
	if c.Variant != VariantSessions && c.Variant != VariantProjects {
		return fmt.Errorf(
			"invalid variant %q (want %s or %s)",
			c.Variant, VariantSessions, VariantProjects,
		)
	}
	if !slices.Contains(logLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	if c.FileName == "" || filepath.Base(c.FileName) != c.FileName {
		return fmt.Errorf("invalid settings file name %q", c.FileName)
	}
	return nil
}

// StorePath returns the provider for the settings file location.
func (c *Config) StorePath() store.PathProvider {
	if c.SettingsDir != "" {
		return store.FixedPath(filepath.Join(c.SettingsDir, c.FileName))
	}
	return userdir.Resolver{AppName: c.AppName, FileName: c.FileName}
}

// ResolveDataDir returns the effective data directory by applying
// defaults and environment overrides, without reading any files.
func ResolveDataDir() (string, error) {
	cfg, err := Default()
	if err != nil {
		return "", err
	}
	if v := os.Getenv("FTPMANAGER_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	return cfg.DataDir, nil
}

// settableKeys maps config.json keys to their Config fields.
var settableKeys = map[string]func(*Config) *string{
	"app_name":     func(c *Config) *string { return &c.AppName },
	"variant":      func(c *Config) *string { return &c.Variant },
	"settings_dir": func(c *Config) *string { return &c.SettingsDir },
	"file_name":    func(c *Config) *string { return &c.FileName },
	"editor":       func(c *Config) *string { return &c.Editor },
	"log_level":    func(c *Config) *string { return &c.LogLevel },
}

// SettableKeys lists the keys accepted by SaveSetting, sorted.
func SettableKeys() []string {
	keys := make([]string, 0, len(settableKeys))
	for k := range settableKeys {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// SaveSetting persists one key to the config file, keeping any other
// keys already there, and applies it to c.
func (c *Config) SaveSetting(key, value string) error {
	field, ok := settableKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key %q", key)
	}
	next := *c
	*field(&next) = value
	if err := next.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(c.DataDir, 0o700); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	existing := make(map[string]any)
	data, err := os.ReadFile(c.configPath())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err == nil {
		if err := json.Unmarshal(data, &existing); err != nil {
			return fmt.Errorf(
				"existing config is invalid, cannot update: %w",
				err,
			)
		}
	}

	existing[key] = value
	out, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(c.configPath(), out, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	*c = next
	return nil
}
