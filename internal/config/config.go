package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Batch    BatchConfig    `mapstructure:"batch"`
}

type ServerConfig struct {
	Port         int             `mapstructure:"port"`
	ReadTimeout  time.Duration   `mapstructure:"read_timeout"`
	WriteTimeout time.Duration   `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration   `mapstructure:"idle_timeout"`
	RateLimit    RateLimitConfig `mapstructure:"rate_limit"`
	Auth         AuthConfig      `mapstructure:"auth"`
}

type AuthConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// JWTSecret signs the HS256 operator tokens issued by POST /auth/token.
	JWTSecret        string        `mapstructure:"jwt_secret"`
	TokenTTL         time.Duration `mapstructure:"token_ttl"`
	OperatorUsername string        `mapstructure:"operator_username"`
	// OperatorPasswordHash is a bcrypt hash; plaintext credentials are never stored.
	OperatorPasswordHash string `mapstructure:"operator_password_hash"`
}

type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"`
	Burst   int     `mapstructure:"burst"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
	// MaxConns caps the pgx pool size; zero falls back to the pool default.
	MaxConns int32 `mapstructure:"max_conns"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// SummaryTTL bounds staleness of the cached dashboard summary.
	SummaryTTL time.Duration `mapstructure:"summary_ttl"`
}

type RabbitMQConfig struct {
	// URL empty disables event publishing entirely.
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

type LoggerConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

type MetricsConfig struct {
	Path string `mapstructure:"path"`
}

type BatchConfig struct {
	OverdueSweepSchedule string        `mapstructure:"overdue_sweep_schedule"`
	OverdueSweepTimeout  time.Duration `mapstructure:"overdue_sweep_timeout"`
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.rate_limit.enabled", true)
	v.SetDefault("server.rate_limit.rps", 10.0)
	v.SetDefault("server.rate_limit.burst", 20)
	v.SetDefault("server.auth.enabled", true)
	v.SetDefault("server.auth.token_ttl", 24*time.Hour)
	// Empty defaults keep viper.AutomaticEnv visible to Unmarshal for these keys.
	v.SetDefault("server.auth.jwt_secret", "")
	v.SetDefault("server.auth.operator_username", "")
	v.SetDefault("server.auth.operator_password_hash", "")
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("redis.password", "")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "json")
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.summary_ttl", 5*time.Minute)
	v.SetDefault("rabbitmq.url", "")
	v.SetDefault("rabbitmq.exchange", "lendledger.events")
	v.SetDefault("batch.overdue_sweep_schedule", "0 2 * * *")
	v.SetDefault("batch.overdue_sweep_timeout", 30*time.Minute)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be a valid TCP port, got %d", c.Server.Port)
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}
	if c.Server.Auth.Enabled {
		if c.Server.Auth.JWTSecret == "" {
			return fmt.Errorf("server.auth.jwt_secret is required when auth is enabled")
		}
		if c.Server.Auth.OperatorUsername == "" || c.Server.Auth.OperatorPasswordHash == "" {
			return fmt.Errorf("operator credentials are required when auth is enabled")
		}
	}
	return nil
}
