package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"pass-eligibility-api/internal/features"
)

// EnvPrefix prefixes every environment override, e.g. PASSES_SERVER_PORT.
const EnvPrefix = "PASSES"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Security  SecurityConfig  `mapstructure:"security"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Features  map[string]bool `mapstructure:"features"`
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr is the listen address.
func (c ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// SecurityConfig holds security-related configuration.
type SecurityConfig struct {
	// Max request body size in bytes
	MaxRequestBodySize int64 `mapstructure:"max_request_body_size"`
	// Allowed CORS origins (comma-separated)
	AllowedOrigins string        `mapstructure:"allowed_origins"`
	JWTSecret      string        `mapstructure:"jwt_secret"`
	JWTIssuer      string        `mapstructure:"jwt_issuer"`
	TokenTTL       time.Duration `mapstructure:"token_ttl"`
	BCryptCost     int           `mapstructure:"bcrypt_cost"`
}

// Origins splits AllowedOrigins.
func (c SecurityConfig) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Rate    int  `mapstructure:"rate"`
	Window  int  `mapstructure:"window"` // in seconds
}

// CacheConfig selects the cache backend. An empty RedisAddr uses the
// in-process cache.
type CacheConfig struct {
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	TTL           time.Duration `mapstructure:"ttl"`
}

type TracingConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	ServiceName    string  `mapstructure:"service_name"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	SamplingRate   float64 `mapstructure:"sampling_rate"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("database.path", "./pass_eligibility.db")

	v.SetDefault("security.max_request_body_size", int64(1<<20))
	v.SetDefault("security.allowed_origins", "*")
	v.SetDefault("security.jwt_secret", "")
	v.SetDefault("security.jwt_issuer", "pass-eligibility-api")
	v.SetDefault("security.token_ttl", 12*time.Hour)
	v.SetDefault("security.bcrypt_cost", 12)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.rate", 100)
	v.SetDefault("rate_limit.window", 60)

	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.ttl", 5*time.Minute)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "pass-eligibility-api")
	v.SetDefault("tracing.jaeger_endpoint", "http://localhost:14268/api/traces")
	v.SetDefault("tracing.sampling_rate", 1.0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// registered so that PASSES_FEATURES_<NAME> overrides are picked up
	v.SetDefault("features."+features.FeatureCacheEnabled, false)
	v.SetDefault("features."+features.FeatureEventHooksEnabled, false)
	v.SetDefault("features."+features.FeatureHolyWeekBlackout, false)
}

// LoadConfig loads configuration from defaults, an optional config file
// (yaml, json or toml by extension) and environment variables. Environment
// variables take precedence over config file values.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the settings needed to serve the API.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port == "" {
		errs = append(errs, "server port is required")
	}
	if c.Database.Path == "" {
		errs = append(errs, "database path is required")
	}
	if c.Security.MaxRequestBodySize <= 0 {
		errs = append(errs, "max request body size must be positive")
	}
	for _, origin := range c.Security.Origins() {
		if origin == "*" {
			continue
		}
		if _, err := url.ParseRequestURI(origin); err != nil {
			errs = append(errs, fmt.Sprintf("invalid allowed origin %s", origin))
		}
	}
	if len(c.Security.JWTSecret) < 32 {
		errs = append(errs, "jwt secret must be at least 32 characters")
	}
	if c.Security.TokenTTL <= 0 {
		errs = append(errs, "token ttl must be positive")
	}
	if c.Security.BCryptCost < 4 || c.Security.BCryptCost > 31 {
		errs = append(errs, "bcrypt cost must be between 4 and 31")
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.Rate <= 0 {
			errs = append(errs, "rate limit rate must be positive")
		}
		if c.RateLimit.Window <= 0 {
			errs = append(errs, "rate limit window must be positive")
		}
	}
	if c.Tracing.Enabled && c.Tracing.JaegerEndpoint == "" {
		errs = append(errs, "jaeger endpoint is required when tracing is enabled")
	}
	if c.Tracing.SamplingRate < 0 || c.Tracing.SamplingRate > 1 {
		errs = append(errs, "tracing sampling rate must be between 0 and 1")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
