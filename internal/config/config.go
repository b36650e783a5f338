package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Redis    RedisConfig
	Verifier VerifierConfig
	Auth     AuthConfig
	Replay   ReplayConfig
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
}

type VerifierConfig struct {
	Strict         bool `mapstructure:"strict"`
	MaxMessageSize int  `mapstructure:"max_message_size"`
}

type AuthConfig struct {
	MaxFutureWindowSec int64 `mapstructure:"max_future_window_sec"`
}

type ReplayConfig struct {
	Enabled bool  `mapstructure:"enabled"`
	TTLSec  int64 `mapstructure:"ttl_sec"`
}

func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("redis.addr", "redis:6379")
	v.SetDefault("verifier.strict", false)
	v.SetDefault("verifier.max_message_size", 1<<20)
	v.SetDefault("auth.max_future_window_sec", 300)
	v.SetDefault("replay.enabled", true)
	v.SetDefault("replay.ttl_sec", 86400)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")
	_ = v.ReadInConfig()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicit env bindings
	bindings := map[string]string{
		"server.port":                "PORT",
		"redis.addr":                 "REDIS_ADDR",
		"redis.password":             "REDIS_PASSWORD",
		"verifier.strict":            "VERIFIER_STRICT",
		"verifier.max_message_size":  "VERIFIER_MAX_MESSAGE",
		"auth.max_future_window_sec": "AUTH_MAX_FUTURE_WINDOW",
		"replay.enabled":             "REPLAY_ENABLED",
		"replay.ttl_sec":             "REPLAY_TTL_SEC",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	for _, r := range []struct {
		val  int64
		name string
	}{
		{int64(c.Server.Port), "PORT"},
		{int64(c.Verifier.MaxMessageSize), "VERIFIER_MAX_MESSAGE"},
		{c.Auth.MaxFutureWindowSec, "AUTH_MAX_FUTURE_WINDOW"},
		{c.Replay.TTLSec, "REPLAY_TTL_SEC"},
	} {
		if r.val <= 0 {
			return fmt.Errorf("config %s must be positive, got %d", r.name, r.val)
		}
	}
	if c.Replay.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("required config missing: REDIS_ADDR (replay protection enabled)")
	}
	return nil
}
