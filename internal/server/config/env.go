package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// dotenvFiles are loaded (if present) before the environment is read.
// Variables already set in the process environment take precedence.
var dotenvFiles = []string{".env"}

// parseEnv overlays config with environment variables. Values that fail to
// parse are ignored so a typo in one variable does not discard the rest.
//
//	HTTP_ADDR, DATABASE_DSN, JWT_SECRET, TOKEN_TTL,
//	AWS_REGION, AWS_ACCESS_KEY, AWS_SECRET_KEY, AWS_ENDPOINT,
//	SIMILARITY_THRESHOLD, REFERENCE_IMAGE_PATH, REFERENCE_BUCKET,
//	LIVENESS_COMMAND, LIVENESS_TIMEOUT, MATCH_TIMEOUT,
//	MAX_CONCURRENT_CHECKS, LEDGER_PATH
func parseEnv(config *Config) {
	for _, f := range dotenvFiles {
		if _, err := os.Stat(f); err == nil {
			_ = godotenv.Load(f)
		}
	}

	envString(&config.HTTPAddr, "HTTP_ADDR")
	envString(&config.DatabaseDSN, "DATABASE_DSN")
	envString(&config.SecretKey, "JWT_SECRET")
	envDuration(&config.TokenValidityDuration, "TOKEN_TTL")
	envString(&config.AWSRegion, "AWS_REGION")
	envString(&config.AWSAccessKey, "AWS_ACCESS_KEY")
	envString(&config.AWSSecretKey, "AWS_SECRET_KEY")
	envString(&config.AWSEndpoint, "AWS_ENDPOINT")
	envString(&config.ReferenceImagePath, "REFERENCE_IMAGE_PATH")
	envString(&config.ReferenceBucket, "REFERENCE_BUCKET")
	envString(&config.LivenessCommand, "LIVENESS_COMMAND")
	envDuration(&config.LivenessTimeout, "LIVENESS_TIMEOUT")
	envDuration(&config.MatchTimeout, "MATCH_TIMEOUT")
	envString(&config.LedgerPath, "LEDGER_PATH")

	if v, ok := os.LookupEnv("SIMILARITY_THRESHOLD"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.SimilarityThreshold = f
		}
	}
	if v, ok := os.LookupEnv("MAX_CONCURRENT_CHECKS"); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.MaxConcurrentChecks = n
		}
	}
}

func envString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func envDuration(dst *time.Duration, key string) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
	}
}
