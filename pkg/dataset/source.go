package dataset

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Open resolves a dataset location to a reader. Plain paths open local files;
// s3://bucket/key URLs fetch the object from S3 using the default credential
// chain. The caller owns the returned reader.
func Open(ctx context.Context, location string) (io.ReadCloser, error) {
	if strings.HasPrefix(location, "s3://") {
		return openS3(ctx, location)
	}
	f, err := os.Open(location)
	if err != nil {
		return nil, fmt.Errorf("opening dataset file: %w", err)
	}
	return f, nil
}

func openS3(ctx context.Context, url string) (io.ReadCloser, error) {
	trimmed := strings.TrimPrefix(url, "s3://")
	bucket, key, ok := strings.Cut(trimmed, "/")
	if !ok || bucket == "" || key == "" {
		return nil, fmt.Errorf("malformed S3 URL %q, want s3://bucket/key", url)
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("fetching s3://%s/%s: %w", bucket, key, err)
	}
	return out.Body, nil
}
