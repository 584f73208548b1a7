// Package hubconfig is the hub's configuration loader (§6): flag,
// environment, and optional YAML file sources merged with koanf, in that
// order of precedence (flags win, then env, then file, then defaults) —
// the same shape as the teacher's config.Config (flag.StringVar + an
// os.Getenv fallback), generalized from hand-rolled flag/env merging to
// koanf's provider-layering idiom, and extended with optional YAML so an
// operator can pin all four variables in one file.
package hubconfig

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds the hub's runtime configuration (spec.md §6).
type Config struct {
	Port       int
	SharedDir  string
	DataDir    string
	LogLevel   string
	ConfigFile string
}

const (
	defaultPort      = 3000
	defaultSharedDir = "./shared"
	defaultDataDir   = "./data"
	defaultLogLevel  = "info"
)

// Load resolves configuration from (in increasing precedence): built-in
// defaults, an optional YAML file, environment variables (PORT,
// SHARED_DIR, DATA_DIR, LOG_LEVEL), then command-line flags. args is
// typically os.Args[1:].
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("hub", flag.ContinueOnError)
	port := fs.Int("port", 0, "bind port for both request and push transports")
	sharedDir := fs.String("shared-dir", "", "root of sandboxed filesystem and file watcher")
	dataDir := fs.String("data-dir", "", "directory for the database and log files")
	logLevel := fs.String("log-level", "", "log verbosity")
	configFile := fs.String("config", "", "optional YAML config file")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	k := koanf.New(".")

	defaults := map[string]any{
		"port":       defaultPort,
		"shared_dir": defaultSharedDir,
		"data_dir":   defaultDataDir,
		"log_level":  defaultLogLevel,
	}
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if *configFile != "" {
		if err := k.Load(file.Provider(*configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %q: %w", *configFile, err)
		}
	}

	envMap := map[string]string{
		"PORT":       "port",
		"SHARED_DIR": "shared_dir",
		"DATA_DIR":   "data_dir",
		"LOG_LEVEL":  "log_level",
	}
	if err := k.Load(env.ProviderWithValue("", ".", func(key, value string) (string, any) {
		mapped, ok := envMap[key]
		if !ok {
			return "", nil
		}
		return mapped, value
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	flagOverrides := map[string]any{}
	if *port != 0 {
		flagOverrides["port"] = *port
	}
	if *sharedDir != "" {
		flagOverrides["shared_dir"] = *sharedDir
	}
	if *dataDir != "" {
		flagOverrides["data_dir"] = *dataDir
	}
	if *logLevel != "" {
		flagOverrides["log_level"] = *logLevel
	}
	if len(flagOverrides) > 0 {
		if err := k.Load(confmap.Provider(flagOverrides, "."), nil); err != nil {
			return nil, fmt.Errorf("load flag overrides: %w", err)
		}
	}

	portVal := k.Int("port")
	if portVal == 0 {
		// env.ProviderWithValue stores everything as strings; re-parse if needed.
		if s := k.String("port"); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil {
				return nil, fmt.Errorf("invalid port %q: %w", s, err)
			}
			portVal = v
		}
	}

	cfg := &Config{
		Port:       portVal,
		SharedDir:  k.String("shared_dir"),
		DataDir:    k.String("data_dir"),
		LogLevel:   k.String("log_level"),
		ConfigFile: *configFile,
	}
	return cfg, cfg.Validate()
}

// Validate checks configuration values and ensures required directories
// exist, matching the teacher's config.Config.Validate directory-creation
// convention.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.SharedDir == "" {
		return fmt.Errorf("shared dir is required")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data dir is required")
	}

	if err := os.MkdirAll(c.DataDir, 0o750); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := os.MkdirAll(c.SharedDir, 0o750); err != nil {
		return fmt.Errorf("create shared dir: %w", err)
	}
	return nil
}

// DBPath returns the path to the SQLite database file.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "hub.db")
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
