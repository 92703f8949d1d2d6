package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/goliatone/go-contracts/layering"
)

// Config keys as written in contractctl.yaml.
const (
	KeyLogLevel      = "log_level"
	KeyJSON          = "json"
	KeyHashAlgorithm = "hash_algorithm"
	KeyVerifyHash    = "verify_hash"
	KeyLintEngine    = "lint.engine"
	KeyLintRules     = "lint.rules"
	KeyStoreBackend  = "store.backend"
	KeyStorePath     = "store.path"
	KeyStoreRedisURL = "store.redis_url"
	KeyStorePrefix   = "store.prefix"
	KeyStoreTTL      = "store.ttl"
	KeyStoreCodec    = "store.codec"
	KeyArchiveDir    = "archive.dir"
	KeyArchiveAuthor = "archive.author"
	KeyActivityLog   = "activity.log"
	KeyActivityActor = "activity.actor"
)

var keys = []string{
	KeyLogLevel, KeyJSON, KeyHashAlgorithm, KeyVerifyHash,
	KeyLintEngine, KeyLintRules,
	KeyStoreBackend, KeyStorePath, KeyStoreRedisURL, KeyStorePrefix, KeyStoreTTL, KeyStoreCodec,
	KeyArchiveDir, KeyArchiveAuthor,
	KeyActivityLog, KeyActivityActor,
}

// fromViper copies only the keys v has a value for.
func fromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	str := func(key string, dst *layering.Optional[string]) {
		if v.IsSet(key) {
			*dst = layering.Set(v.GetString(key))
		}
	}
	boolean := func(key string, dst *layering.Optional[bool]) {
		if v.IsSet(key) {
			*dst = layering.Set(v.GetBool(key))
		}
	}

	str(KeyLogLevel, &cfg.LogLevel)
	boolean(KeyJSON, &cfg.JSON)
	str(KeyHashAlgorithm, &cfg.HashAlgorithm)
	boolean(KeyVerifyHash, &cfg.VerifyHash)
	str(KeyLintEngine, &cfg.Lint.Engine)
	str(KeyLintRules, &cfg.Lint.Rules)
	str(KeyStoreBackend, &cfg.Store.Backend)
	str(KeyStorePath, &cfg.Store.Path)
	str(KeyStoreRedisURL, &cfg.Store.RedisURL)
	str(KeyStorePrefix, &cfg.Store.Prefix)
	str(KeyStoreCodec, &cfg.Store.Codec)
	str(KeyArchiveDir, &cfg.Archive.Dir)
	str(KeyArchiveAuthor, &cfg.Archive.Author)
	str(KeyActivityLog, &cfg.Activity.Log)
	str(KeyActivityActor, &cfg.Activity.Actor)

	if v.IsSet(KeyStoreTTL) {
		raw := v.GetString(KeyStoreTTL)
		ttl := v.GetDuration(KeyStoreTTL)
		if ttl == 0 && raw != "" && raw != "0" && raw != "0s" {
			return Config{}, fmt.Errorf("invalid %s %q", KeyStoreTTL, raw)
		}
		cfg.Store.TTL = layering.Set(ttl)
	}
	return cfg, nil
}
