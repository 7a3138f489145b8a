package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	DB      DBConfig      `mapstructure:"db"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Gateway GatewayConfig `mapstructure:"gateway"`
	Probe   ProbeConfig   `mapstructure:"probe"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
	// QueryTimeout bounds every store call, including the pool wait.
	QueryTimeout time.Duration `mapstructure:"query_timeout"`
}

type CacheConfig struct {
	// Backend is "redis" or "memory".
	Backend   string        `mapstructure:"backend"`
	Addr      string        `mapstructure:"addr"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	TTL       time.Duration `mapstructure:"ttl"`
	OpTimeout time.Duration `mapstructure:"op_timeout"`
	Key       string        `mapstructure:"key"`
}

type GatewayConfig struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	UpstreamURL     string        `mapstructure:"upstream_url"`
	UpstreamTimeout time.Duration `mapstructure:"upstream_timeout"`
}

type ProbeConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("POSTBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	setDefaults(v)

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	cfg.Cache.Backend = strings.ToLower(strings.TrimSpace(cfg.Cache.Backend))
	cfg.Gateway.UpstreamURL = strings.TrimRight(strings.TrimSpace(cfg.Gateway.UpstreamURL), "/")

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8000")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)

	// AutomaticEnv only resolves keys viper already knows about.
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("db.query_timeout", "3s")

	v.SetDefault("cache.backend", "redis")
	v.SetDefault("cache.addr", "redis:6379")
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.ttl", "30s")
	v.SetDefault("cache.op_timeout", "250ms")
	v.SetDefault("cache.key", "posts:all")

	v.SetDefault("gateway.http_addr", ":8080")
	v.SetDefault("gateway.upstream_url", "")
	v.SetDefault("gateway.upstream_timeout", "5s")

	v.SetDefault("probe.enabled", true)
	v.SetDefault("probe.schedule", "@every 30s")
}

// ValidateAPI checks the settings the posts API process cannot start without.
func (c Config) ValidateAPI() error {
	if strings.TrimSpace(c.DB.DSN) == "" {
		return errors.New("db.dsn is required (POSTBOARD_DB_DSN)")
	}
	if c.DB.QueryTimeout <= 0 {
		return errors.New("db.query_timeout must be positive")
	}
	switch c.Cache.Backend {
	case "redis":
		if strings.TrimSpace(c.Cache.Addr) == "" {
			return errors.New("cache.addr is required for the redis backend")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown cache.backend %q", c.Cache.Backend)
	}
	if c.Cache.TTL <= 0 {
		return errors.New("cache.ttl must be positive")
	}
	if c.Cache.OpTimeout <= 0 {
		return errors.New("cache.op_timeout must be positive")
	}
	if strings.TrimSpace(c.Cache.Key) == "" {
		return errors.New("cache.key is required")
	}
	return nil
}

// ValidateGateway checks the settings the gateway process cannot start without.
func (c Config) ValidateGateway() error {
	if c.Gateway.UpstreamURL == "" {
		return errors.New("gateway.upstream_url is required (POSTBOARD_GATEWAY_UPSTREAM_URL)")
	}
	u, err := url.Parse(c.Gateway.UpstreamURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid gateway.upstream_url %q", c.Gateway.UpstreamURL)
	}
	if c.Gateway.UpstreamTimeout <= 0 {
		return errors.New("gateway.upstream_timeout must be positive")
	}
	return nil
}

// FromEnv loads the file named by POSTBOARD_CONFIG (default
// config/config.yaml), or environment only when POSTBOARD_ENV_ONLY is set.
func FromEnv() (Config, error) {
	path := os.Getenv("POSTBOARD_CONFIG")
	if path == "" {
		path = "config/config.yaml"
	}
	envOnly := false
	if raw := os.Getenv("POSTBOARD_ENV_ONLY"); raw != "" {
		envOnly = strings.EqualFold(raw, "true") || raw == "1"
	}
	return Load(path, envOnly)
}
