package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/tendant/campus-content/pkg/campuscontent"
)

// Config options for the S3 backend
type Config struct {
	Region          string // AWS region
	Bucket          string // S3 bucket name
	AccessKeyID     string // AWS access key ID
	SecretAccessKey string // AWS secret access key
	Endpoint        string // Optional custom endpoint for S3-compatible services
	UsePathStyle    bool   // Use path-style addressing (default: false)
	PresignDuration int    // Duration in seconds for presigned URLs (default: 3600)

	// PublicBaseURL makes GetDownloadURL return {PublicBaseURL}/{key} instead
	// of a presigned URL. Use it for buckets served publicly.
	PublicBaseURL string

	// Server-side encryption options
	EnableSSE    bool   // Enable server-side encryption
	SSEAlgorithm string // SSE algorithm (AES256 or aws:kms)
	SSEKMSKeyID  string // Optional KMS key ID for aws:kms algorithm

	// MinIO/S3-compatible service options
	CreateBucketIfNotExist bool // Create bucket if it doesn't exist
}

// Backend is an S3-compatible implementation of the campuscontent.BlobStore interface
type Backend struct {
	client          *s3.Client
	uploader        *manager.Uploader
	bucket          string
	presignClient   *s3.PresignClient
	presignDuration time.Duration
	config          Config
}

// New creates a new S3-compatible storage backend
func New(ctx context.Context, config Config) (*Backend, error) {
	if config.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}
	if config.Region == "" {
		config.Region = "us-east-1"
	}
	if config.PresignDuration == 0 {
		config.PresignDuration = 3600
	}
	config.PublicBaseURL = strings.TrimSuffix(config.PublicBaseURL, "/")

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(config.Region)}
	if config.AccessKeyID != "" && config.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(config.AccessKeyID, config.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Options []func(*s3.Options)
	if config.Endpoint != "" {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(config.Endpoint)
			o.UsePathStyle = config.UsePathStyle
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Options...)

	backend := &Backend{
		client:          client,
		uploader:        manager.NewUploader(client),
		bucket:          config.Bucket,
		presignClient:   s3.NewPresignClient(client),
		presignDuration: time.Duration(config.PresignDuration) * time.Second,
		config:          config,
	}

	if config.CreateBucketIfNotExist {
		if err := backend.createBucketIfNotExists(ctx); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return backend, nil
}

// createBucketIfNotExists creates the bucket if it doesn't exist
func (b *Backend) createBucketIfNotExists(ctx context.Context) error {
	_, err := b.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(b.bucket),
	})
	if err == nil {
		return nil
	}

	// MinIO reports a missing bucket in several ways
	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) &&
		!strings.Contains(err.Error(), "BadRequest") &&
		!strings.Contains(err.Error(), "NoSuchBucket") {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	createInput := &s3.CreateBucketInput{
		Bucket: aws.String(b.bucket),
	}
	if b.config.Region != "us-east-1" {
		createInput.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(b.config.Region),
		}
	}

	if _, err = b.client.CreateBucket(ctx, createInput); err != nil {
		if strings.Contains(err.Error(), "BucketAlreadyExists") ||
			strings.Contains(err.Error(), "BucketAlreadyOwnedByYou") {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

func (b *Backend) applySSE(input *s3.PutObjectInput) {
	if !b.config.EnableSSE {
		return
	}
	switch b.config.SSEAlgorithm {
	case "AES256":
		input.ServerSideEncryption = types.ServerSideEncryptionAes256
	case "aws:kms":
		input.ServerSideEncryption = types.ServerSideEncryptionAwsKms
		if b.config.SSEKMSKeyID != "" {
			input.SSEKMSKeyId = aws.String(b.config.SSEKMSKeyID)
		}
	}
}

// GetObjectMeta retrieves metadata for an object in S3
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*campuscontent.ObjectMeta, error) {
	result, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("object %s: %w", objectKey, campuscontent.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get object metadata: %w", err)
	}

	contentType := aws.ToString(result.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	metadata := make(map[string]string, len(result.Metadata)+1)
	for k, v := range result.Metadata {
		metadata[k] = v
	}
	metadata["content_type"] = contentType

	return &campuscontent.ObjectMeta{
		Key:         objectKey,
		Size:        aws.ToInt64(result.ContentLength),
		ContentType: contentType,
		UpdatedAt:   aws.ToTime(result.LastModified),
		ETag:        strings.Trim(aws.ToString(result.ETag), "\""),
		Metadata:    metadata,
	}, nil
}

// Upload uploads content directly to S3
func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader) error {
	return b.UploadWithParams(ctx, reader, campuscontent.UploadParams{ObjectKey: objectKey})
}

// UploadWithParams uploads content with additional parameters
func (b *Backend) UploadWithParams(ctx context.Context, reader io.Reader, params campuscontent.UploadParams) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(params.ObjectKey),
		Body:   reader,
	}
	if params.MimeType != "" {
		input.ContentType = aws.String(params.MimeType)
	}
	b.applySSE(input)

	if _, err := b.uploader.Upload(ctx, input); err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}

// GetDownloadURL returns the public URL when configured, otherwise a
// presigned URL for downloading content
func (b *Backend) GetDownloadURL(ctx context.Context, objectKey string, downloadFilename string) (string, error) {
	if b.config.PublicBaseURL != "" {
		return fmt.Sprintf("%s/%s", b.config.PublicBaseURL, objectKey), nil
	}

	input := &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(objectKey),
	}
	if downloadFilename != "" {
		input.ResponseContentDisposition = aws.String(fmt.Sprintf("attachment; filename=\"%s\"", downloadFilename))
	}

	result, err := b.presignClient.PresignGetObject(ctx, input, func(opts *s3.PresignOptions) {
		opts.Expires = b.presignDuration
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned download URL: %w", err)
	}
	return result.URL, nil
}

// Download downloads content directly from S3
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	result, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		var notFound *types.NoSuchKey
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("object %s: %w", objectKey, campuscontent.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to download from S3: %w", err)
	}
	return result.Body, nil
}

// Delete deletes content from S3
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}
