package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/binpack/internal/mip"
	"github.com/eugenenazirov/binpack/internal/packing"
	"github.com/eugenenazirov/binpack/internal/storage"
)

const (
	defaultPort           = "8080"
	defaultRateLimitRPS   = 5.0
	defaultRateLimitBurst = 10
	defaultSolveRateRPS   = 1.0
	defaultSolveRateBurst = 2
	defaultBackend        = "native"
	defaultLogLevel       = "info"
	defaultProbeTimeLimit = 100 * time.Second
	defaultCommitNodes    = 2
)

// Warm start modes.
const (
	WarmStartBuiltin = "builtin"
	WarmStartFile    = "file"
	WarmStartFFD     = "ffd"
	WarmStartNone    = "none"
)

var warmStartModes = []string{WarmStartBuiltin, WarmStartFile, WarmStartFFD, WarmStartNone}

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	// Instance
	Sizes     []int
	Capacity  int
	TightBigM bool

	// Warm start
	WarmStartMode string
	WarmStartFile string

	// Solver
	Backend string
	Probe   mip.Params
	Commit  mip.Params
	WorkDir string

	// HTTP
	Port                 string
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	RateLimitRPS         float64
	RateLimitBurst       int
	// Solve limits apply to the routes that run the solver, on top of the
	// request limits.
	SolveRateLimitRPS   float64
	SolveRateLimitBurst int

	LogLevel string
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Port                 string        `yaml:"port"`
	ShutdownGracePeriod  string        `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string        `yaml:"read_header_timeout"`
	WriteTimeout         string        `yaml:"write_timeout"`
	IdleTimeout          string        `yaml:"idle_timeout"`
	EnableRequestLogging *bool         `yaml:"enable_request_logging"`
	RateLimit            yamlRateLimit `yaml:"rate_limit"`
	Instance             yamlInstance  `yaml:"instance"`
	WarmStart            yamlWarmStart `yaml:"warm_start"`
	Solver               yamlSolver    `yaml:"solver"`
	LogLevel             string        `yaml:"log_level"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS        *float64 `yaml:"rps"`
	Burst      *int     `yaml:"burst"`
	SolveRPS   *float64 `yaml:"solve_rps"`
	SolveBurst *int     `yaml:"solve_burst"`
}

type yamlInstance struct {
	Sizes     []int `yaml:"sizes"`
	Capacity  int   `yaml:"capacity"`
	TightBigM *bool `yaml:"tight_big_m"`
}

type yamlWarmStart struct {
	Mode string `yaml:"mode"`
	File string `yaml:"file"`
}

type yamlSolver struct {
	Backend string    `yaml:"backend"`
	WorkDir string    `yaml:"work_dir"`
	Probe   yamlPhase `yaml:"probe"`
	Commit  yamlPhase `yaml:"commit"`
}

type yamlPhase struct {
	Emphasis  *int   `yaml:"emphasis"`
	TimeLimit string `yaml:"time_limit"`
	NodeLimit *int   `yaml:"node_limit"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile      string
	Port            *string
	SizesStr        *string
	Capacity        *int
	TightBigM       *bool
	WarmStartMode   *string
	WarmStartFile   *string
	Backend         *string
	WorkDir         *string
	Emphasis        *int
	ProbeTimeLimit  *time.Duration
	CommitNodeLimit *int
	RateLimitRPS    *float64
	RateLimitBurst  *int
	SolveRateRPS    *float64
	SolveRateBurst  *int
	LogLevel        *string
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	applyEnvConfig(&cfg)

	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, fmt.Errorf("apply YAML config: %w", err)
		}
	}

	if overrides != nil {
		if err := applyCLIOverrides(&cfg, overrides); err != nil {
			return Config{}, err
		}
	}

	// The built-in warm start only fits the built-in instance.
	if cfg.WarmStartMode == WarmStartBuiltin && !slices.Equal(cfg.Sizes, storage.DefaultSizes()) {
		cfg.WarmStartMode = WarmStartFFD
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Sizes:         storage.DefaultSizes(),
		WarmStartMode: WarmStartBuiltin,
		Backend:       defaultBackend,
		Probe: mip.Params{
			Emphasis:  mip.EmphasisFeasibility,
			TimeLimit: defaultProbeTimeLimit,
		},
		Commit: mip.Params{
			Emphasis:  mip.EmphasisFeasibility,
			NodeLimit: defaultCommitNodes,
		},
		Port:                 defaultPort,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         2 * time.Minute,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
		SolveRateLimitRPS:    defaultSolveRateRPS,
		SolveRateLimitBurst:  defaultSolveRateBurst,
		LogLevel:             defaultLogLevel,
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) error {
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}

	durations := []struct {
		raw string
		dst *time.Duration
	}{
		{yamlCfg.ShutdownGracePeriod, &cfg.ShutdownGracePeriod},
		{yamlCfg.ReadHeaderTimeout, &cfg.ReadHeaderTimeout},
		{yamlCfg.WriteTimeout, &cfg.WriteTimeout},
		{yamlCfg.IdleTimeout, &cfg.IdleTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		value, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", d.raw, err)
		}
		*d.dst = value
	}

	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}
	if yamlCfg.RateLimit.RPS != nil {
		cfg.RateLimitRPS = *yamlCfg.RateLimit.RPS
	}
	if yamlCfg.RateLimit.Burst != nil {
		cfg.RateLimitBurst = *yamlCfg.RateLimit.Burst
	}
	if yamlCfg.RateLimit.SolveRPS != nil {
		cfg.SolveRateLimitRPS = *yamlCfg.RateLimit.SolveRPS
	}
	if yamlCfg.RateLimit.SolveBurst != nil {
		cfg.SolveRateLimitBurst = *yamlCfg.RateLimit.SolveBurst
	}

	if len(yamlCfg.Instance.Sizes) > 0 {
		cfg.Sizes = yamlCfg.Instance.Sizes
	}
	if yamlCfg.Instance.Capacity != 0 {
		cfg.Capacity = yamlCfg.Instance.Capacity
	}
	if yamlCfg.Instance.TightBigM != nil {
		cfg.TightBigM = *yamlCfg.Instance.TightBigM
	}

	if yamlCfg.WarmStart.Mode != "" {
		cfg.WarmStartMode = yamlCfg.WarmStart.Mode
	}
	if yamlCfg.WarmStart.File != "" {
		cfg.WarmStartFile = yamlCfg.WarmStart.File
	}

	if yamlCfg.Solver.Backend != "" {
		cfg.Backend = yamlCfg.Solver.Backend
	}
	if yamlCfg.Solver.WorkDir != "" {
		cfg.WorkDir = yamlCfg.Solver.WorkDir
	}
	if err := applyYAMLPhase(&cfg.Probe, yamlCfg.Solver.Probe); err != nil {
		return fmt.Errorf("probe: %w", err)
	}
	if err := applyYAMLPhase(&cfg.Commit, yamlCfg.Solver.Commit); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	return nil
}

func applyYAMLPhase(p *mip.Params, y yamlPhase) error {
	if y.Emphasis != nil {
		p.Emphasis = mip.Emphasis(*y.Emphasis)
	}
	if y.TimeLimit != "" {
		d, err := time.ParseDuration(y.TimeLimit)
		if err != nil {
			return fmt.Errorf("invalid time limit %q: %w", y.TimeLimit, err)
		}
		p.TimeLimit = d
	}
	if y.NodeLimit != nil {
		p.NodeLimit = *y.NodeLimit
	}
	return nil
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.Port = port
	}

	if rawSizes := strings.TrimSpace(os.Getenv("ITEM_SIZES")); rawSizes != "" {
		sizes, err := parseSizes(rawSizes)
		if err == nil {
			cfg.Sizes = sizes
		}
	}

	if capacity := strings.TrimSpace(os.Getenv("BIN_CAPACITY")); capacity != "" {
		if value, err := strconv.Atoi(capacity); err == nil && value > 0 {
			cfg.Capacity = value
		}
	}

	if backend := strings.TrimSpace(os.Getenv("SOLVER_BACKEND")); backend != "" {
		cfg.Backend = backend
	}

	if dir := strings.TrimSpace(os.Getenv("WORK_DIR")); dir != "" {
		cfg.WorkDir = dir
	}

	if mode := strings.TrimSpace(os.Getenv("WARM_START_MODE")); mode != "" {
		cfg.WarmStartMode = mode
	}

	if file := strings.TrimSpace(os.Getenv("WARM_START_FILE")); file != "" {
		cfg.WarmStartFile = file
	}

	if rps := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS")); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.RateLimitRPS = value
		}
	}

	if burst := strings.TrimSpace(os.Getenv("RATE_LIMIT_BURST")); burst != "" {
		if value, err := strconv.Atoi(burst); err == nil && value >= 0 {
			cfg.RateLimitBurst = value
		}
	}

	if rps := strings.TrimSpace(os.Getenv("SOLVE_RATE_LIMIT_RPS")); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.SolveRateLimitRPS = value
		}
	}

	if burst := strings.TrimSpace(os.Getenv("SOLVE_RATE_LIMIT_BURST")); burst != "" {
		if value, err := strconv.Atoi(burst); err == nil && value >= 0 {
			cfg.SolveRateLimitBurst = value
		}
	}

	if level := strings.TrimSpace(os.Getenv("LOG_LEVEL")); level != "" {
		cfg.LogLevel = level
	}
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) error {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}

	if overrides.SizesStr != nil && *overrides.SizesStr != "" {
		sizes, err := parseSizes(*overrides.SizesStr)
		if err != nil {
			return fmt.Errorf("parse item sizes: %w", err)
		}
		cfg.Sizes = sizes
	}

	if overrides.Capacity != nil && *overrides.Capacity > 0 {
		cfg.Capacity = *overrides.Capacity
	}

	if overrides.TightBigM != nil {
		cfg.TightBigM = *overrides.TightBigM
	}

	if overrides.WarmStartMode != nil && *overrides.WarmStartMode != "" {
		cfg.WarmStartMode = *overrides.WarmStartMode
	}

	if overrides.WarmStartFile != nil && *overrides.WarmStartFile != "" {
		cfg.WarmStartFile = *overrides.WarmStartFile
		if overrides.WarmStartMode == nil || *overrides.WarmStartMode == "" {
			cfg.WarmStartMode = WarmStartFile
		}
	}

	if overrides.Backend != nil && *overrides.Backend != "" {
		cfg.Backend = *overrides.Backend
	}

	if overrides.WorkDir != nil && *overrides.WorkDir != "" {
		cfg.WorkDir = *overrides.WorkDir
	}

	if overrides.Emphasis != nil && *overrides.Emphasis >= 0 {
		cfg.Probe.Emphasis = mip.Emphasis(*overrides.Emphasis)
		cfg.Commit.Emphasis = mip.Emphasis(*overrides.Emphasis)
	}

	if overrides.ProbeTimeLimit != nil && *overrides.ProbeTimeLimit > 0 {
		cfg.Probe.TimeLimit = *overrides.ProbeTimeLimit
	}

	if overrides.CommitNodeLimit != nil && *overrides.CommitNodeLimit >= 0 {
		cfg.Commit.NodeLimit = *overrides.CommitNodeLimit
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}

	if overrides.SolveRateRPS != nil && *overrides.SolveRateRPS >= 0 {
		cfg.SolveRateLimitRPS = *overrides.SolveRateRPS
	}

	if overrides.SolveRateBurst != nil && *overrides.SolveRateBurst >= 0 {
		cfg.SolveRateLimitBurst = *overrides.SolveRateBurst
	}

	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = *overrides.LogLevel
	}

	return nil
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 0")
	}
	if cfg.SolveRateLimitRPS < 0 {
		return fmt.Errorf("SOLVE_RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.SolveRateLimitBurst < 0 {
		return fmt.Errorf("SOLVE_RATE_LIMIT_BURST must be >= 0")
	}
	if _, err := packing.ResolveCapacity(cfg.Sizes, cfg.Capacity); err != nil {
		return fmt.Errorf("instance: %w", err)
	}
	if !slices.Contains(warmStartModes, cfg.WarmStartMode) {
		return fmt.Errorf("unknown warm start mode %q (want one of %s)", cfg.WarmStartMode, strings.Join(warmStartModes, ", "))
	}
	if cfg.WarmStartMode == WarmStartFile && cfg.WarmStartFile == "" {
		return fmt.Errorf("warm start mode %q needs a file", WarmStartFile)
	}
	if cfg.Backend == "" {
		return fmt.Errorf("solver backend cannot be empty")
	}
	for _, phase := range []struct {
		name string
		p    mip.Params
	}{{"probe", cfg.Probe}, {"commit", cfg.Commit}} {
		if !phase.p.Emphasis.Valid() {
			return fmt.Errorf("%s emphasis %d out of range", phase.name, phase.p.Emphasis)
		}
		if phase.p.TimeLimit < 0 || phase.p.NodeLimit < 0 {
			return fmt.Errorf("%s limits must be >= 0", phase.name)
		}
	}
	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return nil
}

// parseSizes parses a comma-separated string of item sizes into a slice of integers.
// It validates that all values are positive integers.
func parseSizes(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	sizes := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		value, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", part)
		}
		if value <= 0 {
			return nil, fmt.Errorf("item size must be positive, got %d", value)
		}
		sizes = append(sizes, value)
	}
	if len(sizes) == 0 {
		return nil, fmt.Errorf("no item sizes provided")
	}
	return sizes, nil
}
