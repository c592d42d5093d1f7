package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/chelseaoktaviany/sertifica-app-backend/internal/flagx"
	"github.com/chelseaoktaviany/sertifica-app-backend/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "5m" strings and integer nanoseconds are accepted.
//
// Pointer fields distinguish "absent" from "zero": only keys present in the
// file override the running configuration.
type JsonConfig struct {
	HTTPAddr                     *string         `json:"http_addr"`
	LogLevel                     *string         `json:"log_level"`
	StorageBackend               *string         `json:"storage_backend"`
	DatabaseDSN                  *string         `json:"database_dsn"`
	SecretKey                    *string         `json:"secret_key"`
	SessionTokenValidityDuration *timex.Duration `json:"session_token_validity_duration"`
	CookieValidityDuration       *timex.Duration `json:"cookie_validity_duration"`
	OTPLength                    *int            `json:"otp_length"`
	OTPTTL                       *timex.Duration `json:"otp_ttl"`
	MaxIDAttempts                *int            `json:"max_id_attempts"`
	FileStoreBackend             *string         `json:"filestore_backend"`
	LocalStoreDir                *string         `json:"local_store_dir"`
	MaxUploadBytes               *int64          `json:"max_upload_bytes"`
	S3RootUser                   *string         `json:"s3_root_user"`
	S3RootPassword               *string         `json:"s3_root_password"`
	S3Bucket                     *string         `json:"s3_bucket"`
	S3Region                     *string         `json:"s3_region"`
	S3BaseEndpoint               *string         `json:"s3_base_endpoint"`
	Notifier                     *string         `json:"notifier"`
	SMTPHost                     *string         `json:"smtp_host"`
	SMTPPort                     *int            `json:"smtp_port"`
	SMTPUser                     *string         `json:"smtp_user"`
	SMTPPassword                 *string         `json:"smtp_password"`
	SMTPFrom                     *string         `json:"smtp_from"`
	SMTPImplicitTLS              *bool           `json:"smtp_implicit_tls"`
	RedisURL                     *string         `json:"redis_url"`
	OTPRateLimit                 *int            `json:"otp_rate_limit"`
	OTPRateWindow                *timex.Duration `json:"otp_rate_window"`
	SuperAdminEmail              *string         `json:"super_admin_email"`
	SuperAdminFirstName          *string         `json:"super_admin_first_name"`
	SuperAdminLastName           *string         `json:"super_admin_last_name"`
	CORSAllowedOrigins           *string         `json:"cors_allowed_origins"`
	TrustProxyHeaders            *bool           `json:"trust_proxy_headers"`
}

// parseJson loads configuration values from the JSON file named by the
// -c or -config flag into config. Without the flag nothing happens.
// An unreadable file or invalid JSON panics, matching flag parsing.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigPath(os.Args[1:])

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setValue(&config.HTTPAddr, c.HTTPAddr)
	setValue(&config.LogLevel, c.LogLevel)
	setValue(&config.StorageBackend, c.StorageBackend)
	setValue(&config.DatabaseDSN, c.DatabaseDSN)
	setValue(&config.SecretKey, c.SecretKey)
	setDuration(&config.SessionTokenValidityDuration, c.SessionTokenValidityDuration)
	setDuration(&config.CookieValidityDuration, c.CookieValidityDuration)
	setValue(&config.OTPLength, c.OTPLength)
	setDuration(&config.OTPTTL, c.OTPTTL)
	setValue(&config.MaxIDAttempts, c.MaxIDAttempts)
	setValue(&config.FileStoreBackend, c.FileStoreBackend)
	setValue(&config.LocalStoreDir, c.LocalStoreDir)
	setValue(&config.MaxUploadBytes, c.MaxUploadBytes)
	setValue(&config.S3RootUser, c.S3RootUser)
	setValue(&config.S3RootPassword, c.S3RootPassword)
	setValue(&config.S3Bucket, c.S3Bucket)
	setValue(&config.S3Region, c.S3Region)
	setValue(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setValue(&config.Notifier, c.Notifier)
	setValue(&config.SMTPHost, c.SMTPHost)
	setValue(&config.SMTPPort, c.SMTPPort)
	setValue(&config.SMTPUser, c.SMTPUser)
	setValue(&config.SMTPPassword, c.SMTPPassword)
	setValue(&config.SMTPFrom, c.SMTPFrom)
	setValue(&config.SMTPImplicitTLS, c.SMTPImplicitTLS)
	setValue(&config.RedisURL, c.RedisURL)
	setValue(&config.OTPRateLimit, c.OTPRateLimit)
	setDuration(&config.OTPRateWindow, c.OTPRateWindow)
	setValue(&config.SuperAdminEmail, c.SuperAdminEmail)
	setValue(&config.SuperAdminFirstName, c.SuperAdminFirstName)
	setValue(&config.SuperAdminLastName, c.SuperAdminLastName)
	setValue(&config.CORSAllowedOrigins, c.CORSAllowedOrigins)
	setValue(&config.TrustProxyHeaders, c.TrustProxyHeaders)
}

func setValue[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *timex.Duration) {
	if src != nil {
		*dst = src.Duration
	}
}
