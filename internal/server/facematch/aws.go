package facematch

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// AWSSettings selects region, credentials and an optional endpoint override
// (LocalStack, MinIO). Empty keys use the SDK's default credential chain.
type AWSSettings struct {
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string
}

// loadDefaultAWSConfig is a seam for tests.
var loadDefaultAWSConfig = config.LoadDefaultConfig

// LoadAWSConfig resolves an aws.Config from s.
func LoadAWSConfig(ctx context.Context, s AWSSettings) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(s.Region)}
	if s.AccessKey != "" && s.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.AccessKey, s.SecretKey, ""),
		))
	}
	return loadDefaultAWSConfig(ctx, opts...)
}

func endpointOverride(endpoint string) *string {
	if endpoint == "" {
		return nil
	}
	return aws.String(endpoint)
}
