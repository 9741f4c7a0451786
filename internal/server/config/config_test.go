package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":3000", c.HTTPAddr)
	assert.Equal(t, "", c.DatabaseDSN)
	assert.Equal(t, "secretKey", c.SecretKey)
	assert.Equal(t, time.Hour, c.TokenValidityDuration)
	assert.Equal(t, "us-east-1", c.AWSRegion)
	assert.Equal(t, 80.0, c.SimilarityThreshold)
	assert.Equal(t, "reference.jpg", c.ReferenceImagePath)
	assert.Equal(t, "python liveness_detection.py", c.LivenessCommand)
	assert.Equal(t, 2*time.Minute, c.LivenessTimeout)
	assert.Equal(t, 30*time.Second, c.MatchTimeout)
	assert.Equal(t, int64(4), c.MaxConcurrentChecks)
	assert.Equal(t, "attendance_logs.json", c.LedgerPath)
	assert.Equal(t, int64(10<<20), c.MaxBodyBytes)
}

func TestLoadConfig_FlagsWinOverEnv(t *testing.T) {
	origArgs, origDotenv := os.Args, dotenvFiles
	t.Cleanup(func() { os.Args, dotenvFiles = origArgs, origDotenv })
	dotenvFiles = nil

	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("HTTP_ADDR", ":7000")
	os.Args = []string{"server", "-s", "from-flag"}

	c := LoadConfig()

	assert.Equal(t, "from-flag", c.SecretKey)
	assert.Equal(t, ":7000", c.HTTPAddr)
}
