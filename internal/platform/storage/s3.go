package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3PhotoStorage uploads listing photos to an S3-compatible bucket and
// returns their public URLs. Works against AWS or MinIO (set BaseEndpoint).
type S3PhotoStorage struct {
	client       *s3.Client
	bucket       string
	region       string
	baseEndpoint string
}

type Options struct {
	Region       string
	Bucket       string
	BaseEndpoint string // empty for real AWS
	AccessKey    string
	SecretKey    string
}

func NewS3PhotoStorage(ctx context.Context, opts Options) (*S3PhotoStorage, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(opts.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &S3PhotoStorage{
		client:       client,
		bucket:       opts.Bucket,
		region:       opts.Region,
		baseEndpoint: strings.TrimSuffix(opts.BaseEndpoint, "/"),
	}, nil
}

// Upload streams the object to the bucket with a public-read ACL and returns
// the URL it will be served from.
func (s *S3PhotoStorage) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
		ACL:         types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object %q: %w", key, err)
	}
	return s.objectURL(key), nil
}

func (s *S3PhotoStorage) objectURL(key string) string {
	if s.baseEndpoint != "" {
		return fmt.Sprintf("%s/%s/%s", s.baseEndpoint, s.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
