package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of the S3 client the archive needs.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Archive stores documents as JSON objects under bucket/prefix.
type S3Archive struct {
	client S3API
	bucket string
	prefix string
}

// NewS3Archive wraps an S3 client.
func NewS3Archive(client S3API, bucket, prefix string) *S3Archive {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3Archive{client: client, bucket: bucket, prefix: prefix}
}

// NewS3ArchiveFromConfig builds the S3 client from a loaded AWS config.
func NewS3ArchiveFromConfig(cfg aws.Config, bucket, prefix string) *S3Archive {
	return NewS3Archive(s3.NewFromConfig(cfg), bucket, prefix)
}

// Put uploads v as JSON.
func (a *S3Archive) Put(ctx context.Context, key string, v any) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling data: %w", err)
	}

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(a.prefix + key),
		Body:        bytes.NewReader(jsonData),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("putting object to S3 bucket %s: %w", a.bucket, err)
	}
	return nil
}

// Get downloads and decodes the object at key.
func (a *S3Archive) Get(ctx context.Context, key string, target any) error {
	result, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.prefix + key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return ErrNotFound
		}
		return fmt.Errorf("getting object from S3 bucket %s: %w", a.bucket, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return fmt.Errorf("reading S3 object body: %w", err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("unmarshaling S3 data: %w", err)
	}
	return nil
}
