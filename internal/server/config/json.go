package config

import (
	"encoding/json"
	"os"

	"github.com/iudp/ledger/internal/flagx"
	"github.com/iudp/ledger/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations accept
// both "1m" strings and integer nanoseconds via timex.Duration.
type JsonConfig struct {
	EndpointAddrHTTP            string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC            string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	S3AccessKeyID               string         `json:"s3_access_key_id"`
	S3SecretAccessKey           string         `json:"s3_secret_access_key"`
	S3Bucket                    string         `json:"s3_bucket"`
	S3Region                    string         `json:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint"`
	RedisAddr                   string         `json:"redis_addr"`
	RateLimit                   int            `json:"rate_limit"`
	RateLimitWindow             timex.Duration `json:"rate_limit_window"`
	AllowedOrigins              []string       `json:"allowed_origins"`
	LogLevel                    string         `json:"log_level"`
}

// parseJson overlays values from the JSON file named by -c/-config. Only
// fields present with a non-zero value replace the current ones. An unreadable
// file or invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.S3AccessKeyID, c.S3AccessKeyID)
	setString(&config.S3SecretAccessKey, c.S3SecretAccessKey)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.LogLevel, c.LogLevel)

	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RateLimitWindow.Duration > 0 {
		config.RateLimitWindow = c.RateLimitWindow.Duration
	}
	if c.RateLimit > 0 {
		config.RateLimit = c.RateLimit
	}
	if len(c.AllowedOrigins) > 0 {
		config.AllowedOrigins = c.AllowedOrigins
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
