package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Cache       CacheConfig       `mapstructure:"cache"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Cluster     ClusterConfig     `mapstructure:"cluster"`
	Probe       ProbeConfig       `mapstructure:"probe"`
	Container   ContainerConfig   `mapstructure:"container"`
	Fallback    FallbackConfig    `mapstructure:"fallback"`
	Log         LogConfig         `mapstructure:"log"`
	Tracing     TracingConfig     `mapstructure:"tracing"`
	UpdateCheck UpdateCheckConfig `mapstructure:"update_check"`

	// file is the config file viper read, empty when running on defaults + env.
	file string
}

type ServerConfig struct {
	Port      string `mapstructure:"port"`
	Env       string `mapstructure:"env"`
	APIPrefix string `mapstructure:"api_prefix"`

	// RawAPIKeys is the comma-separated allow-list as configured.
	RawAPIKeys string `mapstructure:"api_keys"`
	// APIKeys is RawAPIKeys parsed at load time.
	APIKeys []string `mapstructure:"-"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Enabled  bool   `mapstructure:"enabled"`
}

type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type ClusterConfig struct {
	ControllerAddr    string        `mapstructure:"controller_addr"`
	WorkerManagerAddr string        `mapstructure:"worker_manager_addr"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

type ProbeConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// ContainerConfig controls loopback rewriting for env-derived base URLs.
type ContainerConfig struct {
	// Mode is one of auto, on, off.
	Mode       string `mapstructure:"mode"`
	BridgeHost string `mapstructure:"bridge_host"`
}

// FallbackConfig holds the environment-derived connection settings used
// when a model has no stored record.
type FallbackConfig struct {
	EmbeddingModelName string `mapstructure:"embedding_model_name"`
	EmbeddingAPIBase   string `mapstructure:"embedding_api_base"`
	EmbeddingAPIKey    string `mapstructure:"embedding_api_key"`

	// RawLLMModels is the comma-separated LLM_MODEL value.
	RawLLMModels string   `mapstructure:"llm_model"`
	LLMModels    []string `mapstructure:"-"`
	LLMAPIBase   string   `mapstructure:"llm_api_base"`
	LLMAPIKey    string   `mapstructure:"llm_api_key"`

	// Strict requires the requested model to be named by the environment.
	Strict bool `mapstructure:"strict"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Color      bool   `mapstructure:"color"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
}

type UpdateCheckConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Owner   string `mapstructure:"owner"`
	Repo    string `mapstructure:"repo"`
}

// File returns the path of the config file in use, if any.
func (c *Config) File() string {
	return c.file
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig() (*Config, error) {
	// Load .env file if present
	_ = godotenv.Load()

	v := newViper()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	cfg.file = v.ConfigFileUsed()
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// First non-empty variable wins.
	_ = v.BindEnv("fallback.embedding_model_name", "EMBEDDING_MODEL_NAME")
	_ = v.BindEnv("fallback.embedding_api_base", "EMBEDDING_API_BASE", "EMBEDDING_OPENAI_API_BASE")
	_ = v.BindEnv("fallback.embedding_api_key", "EMBEDDING_API_KEY", "EMBEDDING_OPENAI_API_KEY")
	_ = v.BindEnv("fallback.llm_model", "LLM_MODEL")
	_ = v.BindEnv("fallback.llm_api_base", "LLM_API_BASE", "OPENAI_API_BASE")
	_ = v.BindEnv("fallback.llm_api_key", "LLM_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("server.api_keys", "SERVER_API_KEYS", "API_KEYS")

	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.api_prefix", "/api/v2/serve/model")
	v.SetDefault("server.api_keys", "")
	v.SetDefault("database.dsn", "file:model_serve.db?_busy_timeout=5000&_journal_mode=WAL")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("cache.ttl", 10*time.Second)
	v.SetDefault("rate_limit.requests_per_second", 10.0)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("cluster.controller_addr", "http://127.0.0.1:8000")
	v.SetDefault("cluster.worker_manager_addr", "http://127.0.0.1:8000")
	v.SetDefault("cluster.timeout", 30*time.Second)
	v.SetDefault("probe.timeout", 60*time.Second)
	v.SetDefault("container.mode", "auto")
	v.SetDefault("container.bridge_host", "host.docker.internal")
	v.SetDefault("fallback.strict", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.color", true)
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "model-serve")
	v.SetDefault("update_check.enabled", false)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	cfg.Server.APIKeys = ParseList(cfg.Server.RawAPIKeys)
	cfg.Fallback.LLMModels = ParseList(cfg.Fallback.RawLLMModels)

	if !strings.HasPrefix(cfg.Server.APIPrefix, "/") {
		cfg.Server.APIPrefix = "/" + cfg.Server.APIPrefix
	}
	cfg.Server.APIPrefix = strings.TrimRight(cfg.Server.APIPrefix, "/")

	return &cfg, nil
}

// ParseList splits a comma-separated value, trimming entries and dropping empties.
func ParseList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
