// Package awsutil loads the shared AWS configuration used by the S3
// archive, the DynamoDB completion store and the Bedrock responder.
package awsutil

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// Options selects region and credentials. Static keys take precedence over
// a shared profile; with neither, the default credential chain (IAM role
// on ECS) is used.
type Options struct {
	Region    string
	Profile   string
	AccessKey string
	SecretKey string
}

// LoadConfig builds an aws.Config from opts.
func LoadConfig(ctx context.Context, opts Options) (aws.Config, error) {
	loaders := []func(*config.LoadOptions) error{}
	if opts.Region != "" {
		loaders = append(loaders, config.WithRegion(opts.Region))
	}
	switch {
	case opts.AccessKey != "" && opts.SecretKey != "":
		loaders = append(loaders, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	case opts.Profile != "":
		loaders = append(loaders, config.WithSharedConfigProfile(opts.Profile))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading AWS config: %w", err)
	}
	return cfg, nil
}
