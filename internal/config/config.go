// Package config loads agentd configuration from file and environment.
//
// Precedence (highest to lowest):
//  1. Environment variables (AGENTD_*)
//  2. Config file
//  3. Built-in defaults
//
// Config file search order:
//  1. .agentd.yaml in current directory
//  2. ~/.config/agentd/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all agentd configuration.
type Config struct {
	// Static fallback placement
	Session string `yaml:"session"` // fallback session name
	Window  string `yaml:"window"`  // fallback window name

	// State and log layout
	StateDir string `yaml:"state_dir"` // rc files, target files
	LogDir   string `yaml:"log_dir"`   // optional log directory override

	// Execution session
	ExecSessionMode   string `yaml:"exec_session_mode"`   // self, fixed, per-repo
	ExecSession       string `yaml:"exec_session"`        // fixed name / per-repo fallback
	ExecSessionPrefix string `yaml:"exec_session_prefix"` // per-repo name prefix

	// Notification routing
	NotifyShellOnly bool `yaml:"notify_shell_only"` // reroute to shell-friendly pane

	// External scripts (default: looked up on PATH)
	Runner  string `yaml:"runner"`
	Stopper string `yaml:"stopper"`

	// Multiplexer command timeout, Go duration string, e.g. "5s"
	CommandTimeout string `yaml:"command_timeout"`

	// OTEL
	OTELEndpoint string `yaml:"otel_endpoint"`
	OTELHeaders  string `yaml:"otel_headers"` // comma-separated key=value pairs

	// Parsed duration (not from YAML, set after loading)
	CommandTimeoutDuration time.Duration `yaml:"-"`

	// ConfigFile is the path to the config file that was loaded (empty if none).
	ConfigFile string `yaml:"-"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		Session:           "agentd",
		Window:            "cli",
		StateDir:          defaultStateDir(),
		ExecSessionMode:   "self",
		ExecSessionPrefix: "agentd-",
		CommandTimeout:    "5s",
	}
}

// Load reads configuration from file and environment variables.
// Environment variables always override file values.
func Load() (*Config, error) {
	cfg := Defaults()

	// Try to load config file
	if path, data, err := findConfigFile(); err == nil {
		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
		cfg.ConfigFile = path
		mergeFile(cfg, &fileCfg)
	}

	// Environment variables override everything
	mergeEnv(cfg)

	switch cfg.ExecSessionMode {
	case "self", "fixed", "per-repo":
	default:
		return nil, fmt.Errorf("invalid exec_session_mode %q (supported: self, fixed, per-repo)", cfg.ExecSessionMode)
	}

	var err error
	cfg.CommandTimeoutDuration, err = time.ParseDuration(cfg.CommandTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid command timeout %q: %w", cfg.CommandTimeout, err)
	}

	return cfg, nil
}

// defaultStateDir is ~/.agentd, falling back to a relative directory when
// the home directory cannot be resolved.
func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".agentd"
	}
	return filepath.Join(home, ".agentd")
}

// findConfigFile searches for a config file and returns its path and contents.
func findConfigFile() (string, []byte, error) {
	// 1. Current directory
	if data, err := os.ReadFile(".agentd.yaml"); err == nil {
		return ".agentd.yaml", data, nil
	}

	// 2. XDG config dir / ~/.config
	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, ".config", "agentd", "config.yaml")
		if data, err := os.ReadFile(path); err == nil {
			return path, data, nil
		}
	}

	return "", nil, fmt.Errorf("no config file found")
}

// mergeFile applies non-zero file values onto cfg.
func mergeFile(cfg *Config, file *Config) {
	if file.Session != "" {
		cfg.Session = file.Session
	}
	if file.Window != "" {
		cfg.Window = file.Window
	}
	if file.StateDir != "" {
		cfg.StateDir = file.StateDir
	}
	if file.LogDir != "" {
		cfg.LogDir = file.LogDir
	}
	if file.ExecSessionMode != "" {
		cfg.ExecSessionMode = file.ExecSessionMode
	}
	if file.ExecSession != "" {
		cfg.ExecSession = file.ExecSession
	}
	if file.ExecSessionPrefix != "" {
		cfg.ExecSessionPrefix = file.ExecSessionPrefix
	}
	if file.NotifyShellOnly {
		cfg.NotifyShellOnly = file.NotifyShellOnly
	}
	if file.Runner != "" {
		cfg.Runner = file.Runner
	}
	if file.Stopper != "" {
		cfg.Stopper = file.Stopper
	}
	if file.CommandTimeout != "" {
		cfg.CommandTimeout = file.CommandTimeout
	}
	if file.OTELEndpoint != "" {
		cfg.OTELEndpoint = file.OTELEndpoint
	}
	if file.OTELHeaders != "" {
		cfg.OTELHeaders = file.OTELHeaders
	}
}

// mergeEnv applies environment variables onto cfg. Env always wins.
func mergeEnv(cfg *Config) {
	if v := os.Getenv("AGENTD_SESSION"); v != "" {
		cfg.Session = v
	}
	if v := os.Getenv("AGENTD_CLI_WINDOW"); v != "" {
		cfg.Window = v
	}
	if v := os.Getenv("AGENTD_DIR"); v != "" {
		cfg.StateDir = v
	}
	if v := os.Getenv("AGENTD_LOG_DIR"); v != "" {
		cfg.LogDir = v
	}
	if v := os.Getenv("AGENTD_EXEC_SESSION_MODE"); v != "" {
		cfg.ExecSessionMode = v
	}
	if v := os.Getenv("AGENTD_EXEC_SESSION"); v != "" {
		cfg.ExecSession = v
	}
	if v := os.Getenv("AGENTD_EXEC_SESSION_PREFIX"); v != "" {
		cfg.ExecSessionPrefix = v
	}
	if v := os.Getenv("AGENTD_NOTIFY_SHELL_ONLY"); v == "true" || v == "1" {
		cfg.NotifyShellOnly = true
	}
	if v := os.Getenv("AGENTD_RUNNER"); v != "" {
		cfg.Runner = v
	}
	if v := os.Getenv("AGENTD_STOPPER"); v != "" {
		cfg.Stopper = v
	}
	if v := os.Getenv("AGENTD_COMMAND_TIMEOUT"); v != "" {
		cfg.CommandTimeout = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.OTELEndpoint = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"); v != "" {
		cfg.OTELHeaders = v
	}
}
