package awsutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_StaticCredentials(t *testing.T) {
	ctx := context.Background()
	cfg, err := LoadConfig(ctx, Options{
		Region:    "us-west-2",
		Profile:   "ignored-when-keys-set",
		AccessKey: "AKIDEXAMPLE",
		SecretKey: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "us-west-2", cfg.Region)

	creds, err := cfg.Credentials.Retrieve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "AKIDEXAMPLE", creds.AccessKeyID)
	assert.Equal(t, "secret", creds.SecretAccessKey)
}

func TestLoadConfig_MissingProfileFails(t *testing.T) {
	t.Setenv("AWS_CONFIG_FILE", t.TempDir()+"/config")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", t.TempDir()+"/credentials")

	_, err := LoadConfig(context.Background(), Options{Region: "us-west-2", Profile: "does-not-exist"})
	assert.Error(t, err)
}
