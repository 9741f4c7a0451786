// Package config handles configuration for the attendance server: defaults,
// an optional JSON file, environment variables (optionally from .env) and
// command-line flags, applied in that order.
package config

import "time"

// Config holds runtime settings for the attendance server.
//
// Fields:
//   - HTTPAddr: bind address for the HTTP API.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty selects the in-memory identity
//     store and the JSON-lines ledger file.
//   - SecretKey: HMAC secret for signing session tokens (HS256).
//   - TokenValidityDuration: session token lifetime.
//   - AWSRegion / AWSAccessKey / AWSSecretKey / AWSEndpoint: settings for
//     Rekognition and S3. Empty keys fall back to the default credential chain.
//   - SimilarityThreshold: minimum similarity (0-100) Rekognition reports as a match.
//   - ReferenceImagePath / ReferenceBucket: where reference faces live. A
//     non-empty bucket wins over the path.
//   - LivenessCommand / LivenessTimeout: the external liveness routine.
//   - MatchTimeout: deadline for one face comparison call.
//   - MaxConcurrentChecks: upper bound on in-flight liveness runs and comparisons.
//   - LedgerPath: JSON-lines attendance log file.
//   - MaxBodyBytes: request body limit for the attendance endpoint.
type Config struct {
	HTTPAddr              string
	DatabaseDSN           string
	SecretKey             string
	TokenValidityDuration time.Duration
	AWSRegion             string
	AWSAccessKey          string
	AWSSecretKey          string
	AWSEndpoint           string
	SimilarityThreshold   float64
	ReferenceImagePath    string
	ReferenceBucket       string
	LivenessCommand       string
	LivenessTimeout       time.Duration
	MatchTimeout          time.Duration
	MaxConcurrentChecks   int64
	LedgerPath            string
	MaxBodyBytes          int64
}

// DefaultSecretKey is the development signing secret. The server warns when
// it is still in use.
const DefaultSecretKey = "secretKey"

// LoadDefaults populates Config with development defaults.
// NOTE: the secret key is insecure and must be overridden in production.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":3000"
	c.DatabaseDSN = ""
	c.SecretKey = DefaultSecretKey
	c.TokenValidityDuration = time.Hour
	c.AWSRegion = "us-east-1"
	c.SimilarityThreshold = 80
	c.ReferenceImagePath = "reference.jpg"
	c.LivenessCommand = "python liveness_detection.py"
	c.LivenessTimeout = 2 * time.Minute
	c.MatchTimeout = 30 * time.Second
	c.MaxConcurrentChecks = 4
	c.LedgerPath = "attendance_logs.json"
	c.MaxBodyBytes = 10 << 20
}

// LoadConfig builds a Config from defaults, then overlays the JSON file,
// the environment and finally command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
