package config

import (
	"time"

	"github.com/maxviazov/catalog-service/internal/logger"
)

type Config struct {
	App        AppConfig           `mapstructure:"app"`
	Logger     logger.LoggerConfig `mapstructure:"logger" validate:"-"`
	Storage    StorageConfig       `mapstructure:"storage"`
	Postgres   PostgresConfig      `mapstructure:"postgres"`
	Redis      RedisConfig         `mapstructure:"redis"`
	JWT        JWTConfig           `mapstructure:"jwt"`
	Cache      CacheConfig         `mapstructure:"cache"`
	RateLimit  RateLimitConfig     `mapstructure:"rate_limit"`
	Pagination PaginationConfig    `mapstructure:"pagination"`
	CORS       CORSConfig          `mapstructure:"cors"`
}

type AppConfig struct {
	Name            string        `mapstructure:"name"`
	Version         string        `mapstructure:"version"`
	Env             string        `mapstructure:"env"`
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StorageConfig selects the repository backend.
type StorageConfig struct {
	Driver   string `mapstructure:"driver" validate:"oneof=memory postgres"`
	SeedFile string `mapstructure:"seed_file"`
	// DataFile is where the memory driver persists committed changes; empty keeps them in RAM only.
	DataFile string `mapstructure:"data_file"`
	Migrate  bool   `mapstructure:"migrate"`
}

type PostgresConfig struct {
	Host              string `mapstructure:"host"`
	Port              int    `mapstructure:"port"`
	User              string `mapstructure:"user"`
	Password          string `mapstructure:"password"`
	DBName            string `mapstructure:"db"`
	SSLMode           string `mapstructure:"sslmode"`
	MaxConns          int32  `mapstructure:"max_conns"`
	MinConns          int32  `mapstructure:"min_conns"`
	MaxConnLifetime   int    `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   int    `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod int    `mapstructure:"health_check_period"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	SecretKey            string        `mapstructure:"secret_key" validate:"required,min=16"`
	ValidIssuer          string        `mapstructure:"valid_issuer" validate:"required"`
	ValidAudience        string        `mapstructure:"valid_audience" validate:"required"`
	TokenValidity        time.Duration `mapstructure:"token_validity" validate:"gt=0"`
	RefreshTokenValidity time.Duration `mapstructure:"refresh_token_validity" validate:"gt=0"`
	// SuperAdminID is the value of the "id" claim granted the exclusive policies.
	SuperAdminID string `mapstructure:"super_admin_id"`
}

type CacheConfig struct {
	AbsoluteTTL time.Duration `mapstructure:"absolute_ttl" validate:"gt=0"`
	SlidingTTL  time.Duration `mapstructure:"sliding_ttl" validate:"gte=0"`
}

type WindowConfig struct {
	PermitLimit int           `mapstructure:"permit_limit" validate:"min=1"`
	Window      time.Duration `mapstructure:"window" validate:"gt=0"`
}

type RateLimitConfig struct {
	Enabled    bool         `mapstructure:"enabled"`
	Global     WindowConfig `mapstructure:"global"`
	Categories WindowConfig `mapstructure:"categories"`
}

type PaginationConfig struct {
	MaxPageSize int `mapstructure:"max_page_size" validate:"min=1"`
}

type CORSConfig struct {
	AllowOrigins     []string `mapstructure:"allow_origins"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}
