package config

// EnvPrefix is passed to envconfig.Process; the per-field envconfig tags
// already carry the full variable names, so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv     = "MANDOOB_APP_ENV"
	EnvPort       = "MANDOOB_APP_PORT"
	EnvDBDSN      = "MANDOOB_DB_DSN"
	EnvDBHost     = "MANDOOB_DB_HOST"
	EnvDBUser     = "MANDOOB_DB_USER"
	EnvDBName     = "MANDOOB_DB_NAME"
	EnvRedisURL   = "MANDOOB_REDIS_URL"
	EnvJWTSecret  = "MANDOOB_JWT_SECRET"
	EnvJWTIssuer  = "MANDOOB_JWT_ISSUER"
	EnvJWTExpMins = "MANDOOB_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
