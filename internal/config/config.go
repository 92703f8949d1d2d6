// Package config resolves contractctl settings from built-in defaults, a
// YAML config file, CONTRACTCTL_* environment variables and command line
// flags. Every field is a layering.Optional so an explicit false or empty
// value on a stronger layer still overrides a weaker one.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/goliatone/go-contracts/layering"
)

const (
	// FileName is the config file base name searched for without --config.
	FileName = "contractctl"
	// EnvPrefix prefixes environment overrides (CONTRACTCTL_STORE_BACKEND).
	EnvPrefix = "CONTRACTCTL"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config is the merged CLI configuration.
type Config struct {
	LogLevel      layering.Optional[string]
	JSON          layering.Optional[bool]
	HashAlgorithm layering.Optional[string]
	VerifyHash    layering.Optional[bool]
	Lint          Lint
	Store         Store
	Archive       Archive
	Activity      Activity
}

// Lint selects the lint engine and an optional rules file.
type Lint struct {
	Engine layering.Optional[string]
	Rules  layering.Optional[string]
}

// Store configures draft persistence.
type Store struct {
	Backend  layering.Optional[string]
	Path     layering.Optional[string]
	RedisURL layering.Optional[string]
	Prefix   layering.Optional[string]
	TTL      layering.Optional[time.Duration]
	Codec    layering.Optional[string]
}

// Archive configures the git contract archive.
type Archive struct {
	Dir    layering.Optional[string]
	Author layering.Optional[string]
}

// Activity configures where lifecycle events are recorded besides the debug
// log.
type Activity struct {
	// Log is a JSON lines file written through the go-users sink adapter.
	Log layering.Optional[string]
	// Actor is recorded on every event.
	Actor layering.Optional[string]
}

// Defaults returns the weakest layer.
func Defaults() Config {
	return Config{
		LogLevel:      layering.Set("info"),
		JSON:          layering.Set(false),
		HashAlgorithm: layering.Set("sha256"),
		VerifyHash:    layering.Set(false),
		Lint: Lint{
			Engine: layering.Set("expr"),
		},
		Store: Store{
			Backend: layering.Set(BackendSQLite),
			Path:    layering.Set(".contractctl/drafts.db"),
			Prefix:  layering.Set("contracts:draft:"),
			Codec:   layering.Set("json"),
		},
		Archive: Archive{
			Dir:    layering.Set(".contractctl/archive"),
			Author: layering.Set("contractctl"),
		},
	}
}

// Options controls Load.
type Options struct {
	// File is an explicit config path; it must exist when set.
	File string
	// SearchPaths are scanned for contractctl.yaml when File is empty.
	SearchPaths []string
	// Flags is the strongest layer.
	Flags Config
}

// Result is the merged configuration plus the file it was read from.
type Result struct {
	Config Config
	File   string
	Chain  layering.Chain[Config]
}

// Load merges flags > env > file > defaults.
func Load(opts Options) (Result, error) {
	fileLayer, file, err := readFile(opts.File, opts.SearchPaths)
	if err != nil {
		return Result{}, err
	}
	envLayer, err := readEnv()
	if err != nil {
		return Result{}, err
	}

	chain := layering.NewChain(
		layering.Layer[Config]{Level: layering.LevelDefaults, Source: "defaults", Value: Defaults()},
		layering.Layer[Config]{Level: layering.LevelFile, Source: file, Value: fileLayer},
		layering.Layer[Config]{Level: layering.LevelEnv, Source: EnvPrefix + "_*", Value: envLayer},
		layering.Layer[Config]{Level: layering.LevelFlags, Source: "flags", Value: opts.Flags},
	)
	cfg := chain.Merge()
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	return Result{Config: cfg, File: file, Chain: chain}, nil
}

func readFile(path string, searchPaths []string) (Config, string, error) {
	if path == "" && len(searchPaths) == 0 {
		return Config{}, "", nil
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		for _, dir := range searchPaths {
			v.AddConfigPath(dir)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return Config{}, "", nil
		}
		return Config{}, "", fmt.Errorf("config: read %s: %w", describePath(path), err)
	}
	cfg, err := fromViper(v)
	if err != nil {
		return Config{}, "", fmt.Errorf("config: %s: %w", v.ConfigFileUsed(), err)
	}
	return cfg, v.ConfigFileUsed(), nil
}

func readEnv() (Config, error) {
	v := viper.New()
	for _, key := range keys {
		if err := v.BindEnv(key, EnvName(key)); err != nil {
			return Config{}, fmt.Errorf("config: bind env %s: %w", key, err)
		}
	}
	cfg, err := fromViper(v)
	if err != nil {
		return Config{}, fmt.Errorf("config: environment: %w", err)
	}
	return cfg, nil
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func describePath(path string) string {
	if path == "" {
		return FileName + ".yaml"
	}
	return path
}

// Validate rejects values no command can use.
func (c Config) Validate() error {
	var errs []error
	if level, ok := c.LogLevel.Get(); ok {
		if _, err := ParseLogLevel(level); err != nil {
			errs = append(errs, err)
		}
	}
	if alg, ok := c.HashAlgorithm.Get(); ok && alg != "sha256" && alg != "blake3" {
		errs = append(errs, fmt.Errorf("config: unknown hash_algorithm %q", alg))
	}
	if engine, ok := c.Lint.Engine.Get(); ok && engine != "expr" && engine != "cel" && engine != "js" {
		errs = append(errs, fmt.Errorf("config: unknown lint.engine %q", engine))
	}
	if codec, ok := c.Store.Codec.Get(); ok && codec != "json" && codec != "cbor" {
		errs = append(errs, fmt.Errorf("config: unknown store.codec %q", codec))
	}
	switch backend := c.Store.Backend.Or(""); backend {
	case "", BackendMemory, BackendSQLite:
	case BackendRedis:
		if strings.TrimSpace(c.Store.RedisURL.Or("")) == "" {
			errs = append(errs, fmt.Errorf("config: store.redis_url is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown store.backend %q", backend))
	}
	if ttl, ok := c.Store.TTL.Get(); ok && ttl < 0 {
		errs = append(errs, fmt.Errorf("config: store.ttl must not be negative"))
	}
	return errors.Join(errs...)
}

// ParseLogLevel maps debug, info, warn and error onto slog levels.
func ParseLogLevel(value string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: unknown log_level %q", value)
	}
	return level, nil
}
