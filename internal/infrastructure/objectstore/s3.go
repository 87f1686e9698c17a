package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/basel-ax/promptpix/internal/config"
	"github.com/basel-ax/promptpix/internal/domain"
)

// S3API is the subset of the S3 client the store uses
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Store uploads artifacts to an S3-compatible bucket with public-read visibility
type S3Store struct {
	client  S3API
	bucket  string
	prefix  string
	baseURL string
}

// NewS3Client builds an S3 client from configuration. Static credentials are used when
// configured, otherwise the default AWS credential chain applies.
func NewS3Client(ctx context.Context, cfg config.S3Config, optFns ...func(*s3.Options)) (*s3.Client, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	opts := append([]func(*s3.Options){func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
		// uploads are attempted once
		o.RetryMaxAttempts = 1
	}}, optFns...)

	return s3.NewFromConfig(awsCfg, opts...), nil
}

// NewS3Store creates a store for cfg.Bucket
func NewS3Store(client S3API, cfg config.S3Config) *S3Store {
	return &S3Store{
		client:  client,
		bucket:  cfg.Bucket,
		prefix:  strings.Trim(cfg.KeyPrefix, "/"),
		baseURL: publicBaseURL(cfg),
	}
}

// Put uploads data under a new key and returns its public URL
func (s *S3Store) Put(ctx context.Context, data []byte, contentType string) (string, error) {
	key, err := NewKey(s.prefix, contentType)
	if err != nil {
		return "", &domain.StorageError{Err: err}
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		ACL:           types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", &domain.StorageError{Key: key, Err: err}
	}
	return s.baseURL + "/" + key, nil
}

// List returns every object under the configured prefix
func (s *S3Store) List(ctx context.Context) ([]domain.StoredObject, error) {
	input := &s3.ListObjectsV2Input{Bucket: aws.String(s.bucket)}
	if s.prefix != "" {
		input.Prefix = aws.String(s.prefix + "/")
	}

	var objects []domain.StoredObject
	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, &domain.StorageError{Err: fmt.Errorf("failed to list bucket %s: %w", s.bucket, err)}
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			objects = append(objects, domain.StoredObject{
				Key:          key,
				URL:          s.baseURL + "/" + key,
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}
	return objects, nil
}

func publicBaseURL(cfg config.S3Config) string {
	switch {
	case cfg.PublicBaseURL != "":
		return strings.TrimRight(cfg.PublicBaseURL, "/")
	case cfg.Endpoint != "" && cfg.ForcePathStyle:
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	case cfg.Endpoint != "":
		endpoint := strings.TrimRight(cfg.Endpoint, "/")
		if scheme, host, ok := strings.Cut(endpoint, "://"); ok {
			return scheme + "://" + cfg.Bucket + "." + host
		}
		return "https://" + cfg.Bucket + "." + endpoint
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
}
