package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// readDotEnv reads KEY=VALUE pairs from path. A missing or unreadable file
// yields an empty map.
func readDotEnv(path string) map[string]string {
	vars, err := godotenv.Read(path)
	if err != nil {
		return map[string]string{}
	}
	return vars
}

// envLookup resolves a variable from the process environment first and the
// .env values second.
func envLookup(dotenv map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
}

// parseEnv overlays configuration from environment variables:
//
//	HTTP_ADDR, GRPC_ADDR, DATABASE_URL, JWT_SECRET, TOKEN_TTL (duration),
//	S3_ACCESS_KEY_ID, S3_SECRET_ACCESS_KEY, S3_BUCKET, S3_REGION, S3_ENDPOINT,
//	REDIS_ADDR, RATE_LIMIT, RATE_LIMIT_WINDOW (duration), CORS_ORIGINS (comma separated), LOG_LEVEL,
//	ALLOW_MASTER_SIGNUP (bool).
//
// Malformed numbers or durations panic, as the other loaders do.
func parseEnv(config *Config, lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				panic(err)
			}
			*dst = d
		}
	}

	str("HTTP_ADDR", &config.EndpointAddrHTTP)
	str("GRPC_ADDR", &config.EndpointAddrGRPC)
	str("DATABASE_URL", &config.DatabaseDSN)
	str("JWT_SECRET", &config.SecretKey)
	dur("TOKEN_TTL", &config.AccessTokenValidityDuration)
	str("S3_ACCESS_KEY_ID", &config.S3AccessKeyID)
	str("S3_SECRET_ACCESS_KEY", &config.S3SecretAccessKey)
	str("S3_BUCKET", &config.S3Bucket)
	str("S3_REGION", &config.S3Region)
	str("S3_ENDPOINT", &config.S3BaseEndpoint)
	str("REDIS_ADDR", &config.RedisAddr)
	str("LOG_LEVEL", &config.LogLevel)
	dur("RATE_LIMIT_WINDOW", &config.RateLimitWindow)

	if v, ok := lookup("RATE_LIMIT"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(err)
		}
		config.RateLimit = n
	}

	if v, ok := lookup("ALLOW_MASTER_SIGNUP"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(err)
		}
		config.AllowMasterSignup = b
	}

	if v, ok := lookup("CORS_ORIGINS"); ok && v != "" {
		config.AllowedOrigins = splitList(v)
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
