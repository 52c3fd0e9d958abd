package config

// Environment variable names shared between Load and the tests.
const (
	EnvAppEnv                 = "BEDFINDER_APP_ENV"
	EnvPort                   = "BEDFINDER_APP_PORT"
	EnvLogLevel               = "BEDFINDER_LOG_LEVEL"
	EnvRedisURL               = "BEDFINDER_REDIS_URL"
	EnvJWTSecret              = "BEDFINDER_JWT_SECRET"
	EnvJWTIssuer              = "BEDFINDER_JWT_ISSUER"
	EnvJWTExpMins             = "BEDFINDER_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "BEDFINDER_REFRESH_TOKEN_TTL_MINUTES"
	EnvProviderBaseURL        = "BEDFINDER_PROVIDER_BASE_URL"
	EnvProviderAPIKey         = "BEDFINDER_PROVIDER_API_KEY"
	EnvAdminEmail             = "BEDFINDER_ADMIN_EMAIL"
	EnvAdminUsername          = "BEDFINDER_ADMIN_USERNAME"
	EnvAdminPassword          = "BEDFINDER_ADMIN_PASSWORD"
)
