package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the namespace applied to every configuration variable.
const EnvPrefix = "bedfinder"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App           AppConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Provider      ProviderConfig
	Admin         AdminConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BEDFINDER_APP_ENV" required:"true"`
	Port         string `envconfig:"BEDFINDER_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BEDFINDER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BEDFINDER_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type RedisConfig struct {
	URL          string        `envconfig:"BEDFINDER_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BEDFINDER_REDIS_ADDR"`
	Password     string        `envconfig:"BEDFINDER_REDIS_PASSWORD"`
	DB           int           `envconfig:"BEDFINDER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BEDFINDER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BEDFINDER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BEDFINDER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BEDFINDER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BEDFINDER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"BEDFINDER_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"BEDFINDER_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"BEDFINDER_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"BEDFINDER_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"BEDFINDER_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"BEDFINDER_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"BEDFINDER_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"BEDFINDER_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"BEDFINDER_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"BEDFINDER_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginAccountLimit  int           `envconfig:"BEDFINDER_AUTH_RATE_LIMIT_LOGIN_ACCOUNT_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"BEDFINDER_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"BEDFINDER_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"BEDFINDER_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"BEDFINDER_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

// ProviderConfig holds the defaults for the external hospital-data feed.
// Both values can be replaced at runtime through the admin settings
// endpoint; an empty key means the feed is treated as unavailable.
type ProviderConfig struct {
	BaseURL string        `envconfig:"BEDFINDER_PROVIDER_BASE_URL"`
	APIKey  string        `envconfig:"BEDFINDER_PROVIDER_API_KEY"`
	Timeout time.Duration `envconfig:"BEDFINDER_PROVIDER_TIMEOUT" default:"10s"`
}

// AdminConfig seeds the bootstrap administrator account outside prod.
type AdminConfig struct {
	Email    string `envconfig:"BEDFINDER_ADMIN_EMAIL"`
	Username string `envconfig:"BEDFINDER_ADMIN_USERNAME" default:"admin"`
	Password string `envconfig:"BEDFINDER_ADMIN_PASSWORD"`
}
