// Package config loads the runtime settings shared by cmd/server and
// cmd/explore: a YAML file over built-in defaults, then THORPLAN_*
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Solver    SolverConfig    `yaml:"solver"`
	Simulator SimulatorConfig `yaml:"simulator"`
	Store     StoreConfig     `yaml:"store"`
	TraceDir  string          `yaml:"trace_dir"`
	HTTPAddr  string          `yaml:"http_addr"`
	LogLevel  string          `yaml:"log_level"`
}

type SolverConfig struct {
	Binary    string        `yaml:"binary"`
	WorkDir   string        `yaml:"work_dir"`
	DomainDir string        `yaml:"domain_dir"`
	Timeout   time.Duration `yaml:"timeout"`
	Attempts  int           `yaml:"attempts"`

	// Search and Weight are passed to ff only when positive.
	Search   int  `yaml:"search"`
	Weight   int  `yaml:"weight"`
	Optimize bool `yaml:"optimize"`

	// UnifiedDomain solves every kind against the single household domain.
	UnifiedDomain bool `yaml:"unified_domain"`
	// CustomDomains keeps hand-edited files in DomainDir instead of
	// rewriting them from the built-in set at startup.
	CustomDomains bool `yaml:"custom_domains"`
}

// UnmarshalYAML accepts timeout as a Go duration ("2500ms") or as bare
// seconds (2, 0.5), matching THORPLAN_SOLVER_TIMEOUT.
func (s *SolverConfig) UnmarshalYAML(node *yaml.Node) error {
	type plain SolverConfig
	if node.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(node.Content); i += 2 {
			v := node.Content[i+1]
			if node.Content[i].Value != "timeout" || v.Kind != yaml.ScalarNode {
				continue
			}
			if v.Tag == "!!int" || v.Tag == "!!float" {
				n, err := strconv.ParseFloat(v.Value, 64)
				if err != nil {
					return fmt.Errorf("solver.timeout: %w", err)
				}
				v.Tag, v.Value = "!!str", time.Duration(n*float64(time.Second)).String()
			}
		}
	}
	return node.Decode((*plain)(s))
}

type SimulatorConfig struct {
	Mode  string `yaml:"mode"`
	URL   string `yaml:"url"`
	Scene string `yaml:"scene"`
}

type StoreConfig struct {
	Kind     string `yaml:"kind"`
	Dir      string `yaml:"dir"`
	Compress bool   `yaml:"compress"`
	DSN      string `yaml:"dsn"`
}

const (
	SimulatorMemory = "memory"
	SimulatorWS     = "ws"

	StoreMemory   = "memory"
	StoreJSONFile = "jsonfile"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

var ErrInvalidConfig = errors.New("invalid config")

// DefaultFile is picked up from the working directory when no path is given.
const DefaultFile = "thorplan.yaml"

// ResolvePath prefers the flag value, then THORPLAN_CONFIG, then DefaultFile
// in the working directory. Empty means built-in defaults.
func ResolvePath(flagValue string) string {
	if v := strings.TrimSpace(flagValue); v != "" {
		return v
	}
	if v := strings.TrimSpace(os.Getenv("THORPLAN_CONFIG")); v != "" {
		return v
	}
	if info, err := os.Stat(DefaultFile); err == nil && !info.IsDir() {
		return "./" + DefaultFile
	}
	return ""
}

func Defaults() Config {
	return Config{
		Solver: SolverConfig{
			Binary:    "ff",
			WorkDir:   "./pddl",
			DomainDir: "./pddl/domains",
			Timeout:   time.Second,
			Attempts:  3,
		},
		Simulator: SimulatorConfig{Mode: SimulatorMemory, Scene: "FloorPlan1"},
		Store:     StoreConfig{Kind: StoreMemory, Dir: "./data"},
		HTTPAddr:  ":8080",
		LogLevel:  "info",
	}
}

// Load reads path when it is non-empty, applies environment overrides and
// validates the result.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	}
	cfg.applyEnv()
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Solver.Binary = stringEnv("THORPLAN_SOLVER_BINARY", c.Solver.Binary)
	c.Solver.WorkDir = stringEnv("THORPLAN_SOLVER_WORK_DIR", c.Solver.WorkDir)
	c.Solver.DomainDir = stringEnv("THORPLAN_SOLVER_DOMAIN_DIR", c.Solver.DomainDir)
	c.Solver.Timeout = durationEnv("THORPLAN_SOLVER_TIMEOUT", c.Solver.Timeout)
	c.Solver.Attempts = intEnv("THORPLAN_SOLVER_ATTEMPTS", c.Solver.Attempts)
	c.Solver.Search = intEnv("THORPLAN_SOLVER_SEARCH", c.Solver.Search)
	c.Solver.Weight = intEnv("THORPLAN_SOLVER_WEIGHT", c.Solver.Weight)
	c.Solver.Optimize = boolEnv("THORPLAN_SOLVER_OPTIMIZE", c.Solver.Optimize)
	c.Solver.UnifiedDomain = boolEnv("THORPLAN_UNIFIED_DOMAIN", c.Solver.UnifiedDomain)
	c.Solver.CustomDomains = boolEnv("THORPLAN_CUSTOM_DOMAINS", c.Solver.CustomDomains)

	c.Simulator.Mode = stringEnv("THORPLAN_SIMULATOR", c.Simulator.Mode)
	c.Simulator.URL = stringEnv("THORPLAN_SIMULATOR_URL", c.Simulator.URL)
	c.Simulator.Scene = stringEnv("THORPLAN_SCENE", c.Simulator.Scene)

	c.Store.Kind = stringEnv("THORPLAN_STORE", c.Store.Kind)
	c.Store.Dir = stringEnv("THORPLAN_STORE_DIR", c.Store.Dir)
	c.Store.Compress = boolEnv("THORPLAN_STORE_COMPRESS", c.Store.Compress)
	c.Store.DSN = stringEnv("THORPLAN_DB_DSN", c.Store.DSN)

	c.TraceDir = stringEnv("THORPLAN_TRACE_DIR", c.TraceDir)
	c.HTTPAddr = stringEnv("THORPLAN_HTTP_ADDR", c.HTTPAddr)
	c.LogLevel = stringEnv("THORPLAN_LOG_LEVEL", c.LogLevel)
}

func (c *Config) Normalize() {
	c.Simulator.Mode = strings.ToLower(strings.TrimSpace(c.Simulator.Mode))
	c.Store.Kind = strings.ToLower(strings.TrimSpace(c.Store.Kind))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.Solver.Attempts < 1 {
		c.Solver.Attempts = 1
	}
}

func (c Config) Validate() error {
	if c.Solver.Timeout <= 0 {
		return fmt.Errorf("%w: solver.timeout must be positive", ErrInvalidConfig)
	}
	switch c.Simulator.Mode {
	case SimulatorMemory:
	case SimulatorWS:
		if c.Simulator.URL == "" {
			return fmt.Errorf("%w: simulator.url is required in ws mode", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown simulator mode %q", ErrInvalidConfig, c.Simulator.Mode)
	}
	switch c.Store.Kind {
	case StoreMemory:
	case StoreJSONFile, StoreSQLite:
		if c.Store.Dir == "" {
			return fmt.Errorf("%w: store.dir is required for %s", ErrInvalidConfig, c.Store.Kind)
		}
	case StorePostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("%w: store.dsn is required for postgres", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store kind %q", ErrInvalidConfig, c.Store.Kind)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return lvl, fmt.Errorf("%w: log level %q", ErrInvalidConfig, s)
	}
	return lvl, nil
}

func stringEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func intEnv(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func boolEnv(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// durationEnv accepts Go durations and bare seconds.
func durationEnv(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(n * float64(time.Second))
	}
	return fallback
}
