package config

// #region imports
import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"reflect"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/bandit"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/catalog"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/decision"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/engine"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/eval"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/features"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/gate"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/logging"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/update"
)

// #endregion

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// EnvPrefix is prepended to environment overrides: AMAS_BANDIT_ALPHA sets bandit.alpha.
const EnvPrefix = "AMAS"

// Store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// #region types

// Config is the process configuration. It is loaded once and not mutated.
type Config struct {
	Bandit     bandit.Config        `mapstructure:"bandit"`
	Guardrails gate.Config          `mapstructure:"guardrails"`
	Reward     engine.RewardWeights `mapstructure:"reward"`
	Features   features.Config      `mapstructure:"features"`
	Estimators update.Config        `mapstructure:"estimators"`
	Mapper     decision.Config      `mapstructure:"mapper"`
	Eval       eval.EvalConfig      `mapstructure:"eval"`
	Catalog    CatalogConfig        `mapstructure:"catalog"`
	Store      StoreConfig          `mapstructure:"store"`
	Logging    logging.LoggerConfig `mapstructure:"logging"`
	Server     ServerConfig         `mapstructure:"server"`
}

// CatalogConfig optionally replaces the built-in action grid.
type CatalogConfig struct {
	Actions []catalog.Action `mapstructure:"actions"`
}

// StoreConfig selects the snapshot backend.
type StoreConfig struct {
	Type        string `mapstructure:"type"`
	SQLitePath  string `mapstructure:"sqlite_path"`
	RedisAddr   string `mapstructure:"redis_addr"`
	RedisDB     int    `mapstructure:"redis_db"`
	RedisPrefix string `mapstructure:"redis_prefix"`
}

// ServerConfig holds listen addresses.
type ServerConfig struct {
	GRPCAddr    string `mapstructure:"grpc_addr"`
	MetricsAddr string `mapstructure:"metrics_addr"` // empty disables the metrics endpoint
}

// Default returns the built-in configuration.
func Default() Config {
	ec := engine.DefaultConfig()
	return Config{
		Bandit:     ec.Bandit,
		Guardrails: ec.Guardrails,
		Reward:     ec.Reward,
		Features:   ec.Features,
		Estimators: ec.Estimators,
		Mapper:     ec.Mapper,
		Eval:       ec.Eval,
		Store: StoreConfig{
			Type:        StoreSQLite,
			SQLitePath:  "amas.db",
			RedisPrefix: "amas:user:",
		},
		Logging: logging.DefaultLoggerConfig(),
		Server: ServerConfig{
			GRPCAddr:    ":50061",
			MetricsAddr: ":9102",
		},
	}
}

// Engine extracts the engine parameters.
func (c Config) Engine() engine.Config {
	return engine.Config{
		Features:   c.Features,
		Estimators: c.Estimators,
		Bandit:     c.Bandit,
		Mapper:     c.Mapper,
		Guardrails: c.Guardrails,
		Eval:       c.Eval,
		Reward:     c.Reward,
	}
}

// BuildCatalog returns the configured catalog, or the built-in grid when no
// override is given.
func (c Config) BuildCatalog() (*catalog.Catalog, error) {
	if len(c.Catalog.Actions) == 0 {
		return catalog.Default(), nil
	}
	return catalog.New(c.Catalog.Actions)
}

// #endregion

// #region load

// Load reads path (optional; a missing file means defaults) and applies
// AMAS_* environment overrides, then validates the result.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, "", reflect.ValueOf(Default()))

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// setDefaults registers every leaf of def under its mapstructure key so that
// AutomaticEnv can override it.
func setDefaults(v *viper.Viper, prefix string, def reflect.Value) {
	t := def.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		key := field.Tag.Get("mapstructure")
		if key == "" || key == "-" {
			continue
		}
		if prefix != "" {
			key = prefix + "." + key
		}
		val := def.Field(i)
		if val.Kind() == reflect.Struct {
			setDefaults(v, key, val)
			continue
		}
		if val.Kind() == reflect.Slice {
			continue
		}
		v.SetDefault(key, val.Interface())
	}
}

// #endregion

// #region validate

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Bandit.Alpha >= 0 && finite(c.Bandit.Alpha), "bandit.alpha must be >= 0, got %v", c.Bandit.Alpha)
	check(c.Bandit.Lambda > 0 && finite(c.Bandit.Lambda), "bandit.lambda must be > 0, got %v", c.Bandit.Lambda)
	check(c.Bandit.ExploreMultiplier >= 1, "bandit.explore_multiplier must be >= 1, got %v", c.Bandit.ExploreMultiplier)

	g := c.Guardrails
	check(g.FatigueThreshold > 0 && g.FatigueThreshold < 1, "guardrails.fatigue_threshold must be in (0,1), got %v", g.FatigueThreshold)
	check(g.MotivationThreshold > -1 && g.MotivationThreshold < 1, "guardrails.motivation_threshold must be in (-1,1), got %v", g.MotivationThreshold)
	check(g.AttentionThreshold > 0 && g.AttentionThreshold < 1, "guardrails.attention_threshold must be in (0,1), got %v", g.AttentionThreshold)
	check(g.FatigueBatchDelta <= 0 && g.AttentionBatchDelta <= 0, "guardrails batch deltas must not grow the batch")
	check(g.MotivationRatioDelta <= 0, "guardrails.motivation_ratio_delta must be <= 0, got %v", g.MotivationRatioDelta)
	check(g.MinBatchSize >= catalog.MinBatchSize, "guardrails.min_batch_size must be >= %d, got %d", catalog.MinBatchSize, g.MinBatchSize)
	check(g.MinNewRatio > 0 && g.MinNewRatio <= 1, "guardrails.min_new_ratio must be in (0,1], got %v", g.MinNewRatio)

	r := c.Reward
	check(r.Accuracy >= 0 && r.Speed >= 0 && r.Fatigue >= 0 && r.Stability >= 0, "reward weights must be non-negative")
	check(r.Accuracy+r.Speed+r.Fatigue+r.Stability > 0, "reward weights must not all be zero")

	f := c.Features
	check(f.ExpectedRTMs > 0 && f.RTStdMs > 0, "features.expected_rt_ms and rt_std_ms must be > 0")
	check(f.MaxRTMs > f.ExpectedRTMs, "features.max_rt_ms must exceed expected_rt_ms")
	check(f.MaxDwellMs > 0 && f.MaxFocusLossMs > 0, "features dwell and focus-loss caps must be > 0")
	check(f.MaxPauseCount > 0 && f.MaxSwitchCount > 0 && f.MaxRetryCount > 0, "features count caps must be > 0")
	check(f.WindowSize >= 1, "features.window_size must be >= 1, got %d", f.WindowSize)

	e := c.Estimators
	check(e.WindowSize >= 1, "estimators.window_size must be >= 1, got %d", e.WindowSize)
	check(unitOpen(e.Attention.Smoothing), "estimators.attention.smoothing must be in (0,1], got %v", e.Attention.Smoothing)
	check(unitOpen(e.Cognitive.ShortAlpha) && unitOpen(e.Cognitive.LongAlpha), "estimators.cognitive alphas must be in (0,1]")
	check(e.Cognitive.ShortWeight >= 0 && e.Cognitive.ShortWeight <= 1, "estimators.cognitive.short_weight must be in [0,1]")
	check(e.Fatigue.DecayRate >= 0, "estimators.fatigue.decay_rate must be >= 0")
	check(e.Fatigue.RestDecayRate >= 0, "estimators.fatigue.rest_decay_rate must be >= 0")
	check(e.Fatigue.RestMinMinutes >= 0 && e.Fatigue.RestMaxMinutes >= e.Fatigue.RestMinMinutes,
		"estimators.fatigue rest window must satisfy 0 <= rest_min_minutes <= rest_max_minutes")
	check(e.Motivation.Retention > 0 && e.Motivation.Retention <= 1, "estimators.motivation.retention must be in (0,1]")

	check(unitOpen(c.Mapper.Smoothing), "mapper.smoothing must be in (0,1], got %v", c.Mapper.Smoothing)
	check(c.Eval.MaxRelativeResidual > 0 && c.Eval.MaxThetaNorm > 0, "eval thresholds must be > 0")

	if _, err := c.BuildCatalog(); err != nil {
		errs = append(errs, err)
	}

	switch c.Store.Type {
	case StoreMemory:
	case StoreSQLite:
		check(c.Store.SQLitePath != "", "store.sqlite_path is required for the sqlite store")
	case StoreRedis:
		check(c.Store.RedisAddr != "", "store.redis_addr is required for the redis store")
	default:
		errs = append(errs, fmt.Errorf("store.type %q is not one of memory, sqlite, redis", c.Store.Type))
	}

	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	check(c.Server.GRPCAddr != "", "server.grpc_addr is required")

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func unitOpen(v float64) bool { return v > 0 && v <= 1 }

// #endregion
