package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// EnvPrefix prefixes every environment variable the server reads.
const EnvPrefix = "SERTIFICA_"

// parseEnv overlays values from SERTIFICA_* environment variables. Unset
// variables leave the current value alone; malformed numbers, booleans or
// durations panic, in line with the other loaders.
func parseEnv(config *Config) {
	envString("HTTP_ADDR", &config.HTTPAddr)
	envString("LOG_LEVEL", &config.LogLevel)
	envString("STORAGE_BACKEND", &config.StorageBackend)
	envString("DATABASE_DSN", &config.DatabaseDSN)
	envString("SECRET_KEY", &config.SecretKey)
	envDuration("SESSION_TOKEN_VALIDITY", &config.SessionTokenValidityDuration)
	envDuration("COOKIE_VALIDITY", &config.CookieValidityDuration)
	envInt("OTP_LENGTH", &config.OTPLength)
	envDuration("OTP_TTL", &config.OTPTTL)
	envInt("MAX_ID_ATTEMPTS", &config.MaxIDAttempts)
	envString("FILESTORE_BACKEND", &config.FileStoreBackend)
	envString("LOCAL_STORE_DIR", &config.LocalStoreDir)
	envInt64("MAX_UPLOAD_BYTES", &config.MaxUploadBytes)
	envString("S3_ROOT_USER", &config.S3RootUser)
	envString("S3_ROOT_PASSWORD", &config.S3RootPassword)
	envString("S3_BUCKET", &config.S3Bucket)
	envString("S3_REGION", &config.S3Region)
	envString("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	envString("NOTIFIER", &config.Notifier)
	envString("SMTP_HOST", &config.SMTPHost)
	envInt("SMTP_PORT", &config.SMTPPort)
	envString("SMTP_USER", &config.SMTPUser)
	envString("SMTP_PASSWORD", &config.SMTPPassword)
	envString("SMTP_FROM", &config.SMTPFrom)
	envBool("SMTP_IMPLICIT_TLS", &config.SMTPImplicitTLS)
	envString("REDIS_URL", &config.RedisURL)
	envInt("OTP_RATE_LIMIT", &config.OTPRateLimit)
	envDuration("OTP_RATE_WINDOW", &config.OTPRateWindow)
	envString("SUPER_ADMIN_EMAIL", &config.SuperAdminEmail)
	envString("SUPER_ADMIN_FIRST_NAME", &config.SuperAdminFirstName)
	envString("SUPER_ADMIN_LAST_NAME", &config.SuperAdminLastName)
	envString("CORS_ALLOWED_ORIGINS", &config.CORSAllowedOrigins)
	envBool("TRUST_PROXY_HEADERS", &config.TrustProxyHeaders)
}

func lookup(name string) (string, bool) {
	return os.LookupEnv(EnvPrefix + name)
}

func envString(name string, dst *string) {
	if v, ok := lookup(name); ok {
		*dst = v
	}
}

func envInt(name string, dst *int) {
	if v, ok := lookup(name); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
		}
		*dst = n
	}
}

func envInt64(name string, dst *int64) {
	if v, ok := lookup(name); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			panic(fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
		}
		*dst = n
	}
}

func envBool(name string, dst *bool) {
	if v, ok := lookup(name); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
		}
		*dst = b
	}
}

func envDuration(name string, dst *time.Duration) {
	if v, ok := lookup(name); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
		}
		*dst = d
	}
}
