package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/attendkeeper/internal/flagx"
	"github.com/dmitrijs2005/attendkeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations
// accept "30s" style strings or integer nanoseconds. Absent fields keep
// whatever value the Config already has.
type JsonConfig struct {
	HTTPAddr              *string         `json:"http_addr"`
	DatabaseDSN           *string         `json:"database_dsn"`
	SecretKey             *string         `json:"secret_key"`
	TokenValidityDuration *timex.Duration `json:"token_validity_duration"`
	AWSRegion             *string         `json:"aws_region"`
	AWSAccessKey          *string         `json:"aws_access_key"`
	AWSSecretKey          *string         `json:"aws_secret_key"`
	AWSEndpoint           *string         `json:"aws_endpoint"`
	SimilarityThreshold   *float64        `json:"similarity_threshold"`
	ReferenceImagePath    *string         `json:"reference_image_path"`
	ReferenceBucket       *string         `json:"reference_bucket"`
	LivenessCommand       *string         `json:"liveness_command"`
	LivenessTimeout       *timex.Duration `json:"liveness_timeout"`
	MatchTimeout          *timex.Duration `json:"match_timeout"`
	MaxConcurrentChecks   *int64          `json:"max_concurrent_checks"`
	LedgerPath            *string         `json:"ledger_path"`
	MaxBodyBytes          *int64          `json:"max_body_bytes"`
}

// parseJson loads the file named by -c/-config into config. Without the flag
// nothing happens. An unreadable file or invalid JSON panics: the server
// must not start on a half-read configuration.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.AWSRegion, c.AWSRegion)
	setString(&config.AWSAccessKey, c.AWSAccessKey)
	setString(&config.AWSSecretKey, c.AWSSecretKey)
	setString(&config.AWSEndpoint, c.AWSEndpoint)
	setString(&config.ReferenceImagePath, c.ReferenceImagePath)
	setString(&config.ReferenceBucket, c.ReferenceBucket)
	setString(&config.LivenessCommand, c.LivenessCommand)
	setString(&config.LedgerPath, c.LedgerPath)

	if c.TokenValidityDuration != nil {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	if c.LivenessTimeout != nil {
		config.LivenessTimeout = c.LivenessTimeout.Duration
	}
	if c.MatchTimeout != nil {
		config.MatchTimeout = c.MatchTimeout.Duration
	}
	if c.SimilarityThreshold != nil {
		config.SimilarityThreshold = *c.SimilarityThreshold
	}
	if c.MaxConcurrentChecks != nil {
		config.MaxConcurrentChecks = *c.MaxConcurrentChecks
	}
	if c.MaxBodyBytes != nil {
		config.MaxBodyBytes = *c.MaxBodyBytes
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
