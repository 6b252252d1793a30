package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const DefaultDevUserID = "00000000-0000-0000-0000-000000000001"

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Auth       AuthConfig
	AI         AIConfig
	Redis      RedisConfig
	Tracing    TracingConfig   `mapstructure:"tracing"`
	CORS       CORSConfig      `mapstructure:"cors"`
	RateLimit  RateLimitConfig `mapstructure:"rate_limit"`
	Log        LogConfig
	Challenges ChallengesConfig

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool `mapstructure:"-"`
}

type ServerConfig struct {
	Name         string
	Port         string
	Mode         string
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Type         string // mysql | sqlite
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	Charset      string
	Path         string // sqlite 文件路径
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	LogSQL       bool   `mapstructure:"log_sql"`
}

// AuthConfig 身份由外部（Supabase）签发的 HS256 JWT 提供
type AuthConfig struct {
	Enabled   bool
	JWTSecret string `mapstructure:"jwt_secret"`
	DevUserID string `mapstructure:"dev_user_id"`
	DevEmail  string `mapstructure:"dev_email"`
}

type AIConfig struct {
	Provider    string // fake | gemini | openai | anthropic
	APIKey      string `mapstructure:"api_key"`
	Model       string
	BaseURL     string `mapstructure:"base_url"`
	MaxTokens   int    `mapstructure:"max_tokens"`
	Temperature float64
	MaxRetries  int           `mapstructure:"max_retries"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type RedisConfig struct {
	Enabled      bool
	Host         string
	Port         int
	Password     string
	DB           int
	ChallengeTTL time.Duration `mapstructure:"challenge_ttl"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxRequests   int  `mapstructure:"max_requests"`
	WindowMinutes int  `mapstructure:"window_minutes"`
}

type LogConfig struct {
	Level string
	File  string
}

type ChallengesConfig struct {
	DefaultActiveLimit int `mapstructure:"default_active_limit"`
	MaxActiveLimit     int `mapstructure:"max_active_limit"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.name", "praxis-backend")
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 90*time.Second)

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.path", "data/praxis.db")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.dev_user_id", DefaultDevUserID)
	v.SetDefault("auth.dev_email", "dev@mock.local")

	v.SetDefault("ai.provider", "fake")
	v.SetDefault("ai.model", "gemini-2.5-flash")
	v.SetDefault("ai.max_tokens", 4096)
	v.SetDefault("ai.temperature", 0.2)
	v.SetDefault("ai.max_retries", 5)
	v.SetDefault("ai.timeout", 60*time.Second)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.challenge_ttl", 5*time.Minute)

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.max_requests", 600)
	v.SetDefault("rate_limit.window_minutes", 1)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "logs/app.log")

	v.SetDefault("challenges.default_active_limit", 3)
	v.SetDefault("challenges.max_active_limit", 10)
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("PRAXIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// 兼容原有部署使用的环境变量名
	v.BindEnv("database.host", "PRAXIS_DATABASE_HOST", "DATABASE_HOST")
	v.BindEnv("database.password", "PRAXIS_DATABASE_PASSWORD", "DATABASE_PASSWORD")
	v.BindEnv("auth.enabled", "PRAXIS_AUTH_ENABLED", "AUTH_ENABLED")
	v.BindEnv("auth.jwt_secret", "PRAXIS_AUTH_JWT_SECRET", "SUPABASE_JWT_SECRET")
	v.BindEnv("auth.dev_user_id", "PRAXIS_AUTH_DEV_USER_ID", "DEV_USER_UUID")
	v.BindEnv("ai.provider", "PRAXIS_AI_PROVIDER", "AI_PROVIDER")
	v.BindEnv("ai.api_key", "PRAXIS_AI_API_KEY", "AI_API_KEY", "GEMINI_API_KEY")
	v.BindEnv("ai.model", "PRAXIS_AI_MODEL", "GEMINI_MODEL")
	v.BindEnv("ai.max_retries", "PRAXIS_AI_MAX_RETRIES", "AI_MAX_RETRIES")
	v.BindEnv("redis.password", "PRAXIS_REDIS_PASSWORD", "REDIS_PASSWORD")
	v.BindEnv("tracing.collector_endpoint", "PRAXIS_TRACING_COLLECTOR_ENDPOINT", "TRACING_COLLECTOR_ENDPOINT")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Type {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("unknown database type %q", c.Database.Type)
	}

	switch c.AI.Provider {
	case "fake":
	case "gemini", "openai", "anthropic":
		if c.AI.APIKey == "" {
			return fmt.Errorf("ai.api_key is required for the %s provider", c.AI.Provider)
		}
	default:
		return fmt.Errorf("unknown AI provider %q", c.AI.Provider)
	}

	// 生产环境校验 JWT Secret 强度
	if c.Server.Mode == "release" && c.Auth.Enabled && len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(c.Auth.JWTSecret))
	}

	if c.Challenges.MaxActiveLimit < 1 || c.Challenges.DefaultActiveLimit < 1 ||
		c.Challenges.DefaultActiveLimit > c.Challenges.MaxActiveLimit {
		return fmt.Errorf("invalid challenges limits: default=%d max=%d",
			c.Challenges.DefaultActiveLimit, c.Challenges.MaxActiveLimit)
	}

	return nil
}
