package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"

	"chatrelay/internal/pkg/logx"
)

// s3Client implements Service on top of an S3-compatible bucket.
type s3Client struct {
	cfg      ServiceConfig
	s3Client *s3.Client
	presign  *s3.PresignClient
	uploader *manager.Uploader
	logger   zerolog.Logger
}

// newS3Client initializes the S3 client with a custom endpoint, which is what
// S3-compatible providers need.
func newS3Client(ctx context.Context, cfg ServiceConfig) (*s3Client, error) {
	region := cfg.S3Region
	if region == "" {
		region = "auto"
	}

	sdkCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKeyID,
			cfg.S3SecretAccessKey,
			"",
		)),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("load S3 client configuration: %w", err)
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
		o.UsePathStyle = true
	})

	return &s3Client{
		cfg:      cfg,
		s3Client: client,
		presign:  s3.NewPresignClient(client),
		uploader: manager.NewUploader(client),
		logger:   logx.Component("storage.s3"),
	}, nil
}

func (c *s3Client) Backend() string {
	return "s3"
}

// Save streams body to the bucket; the uploader switches to multipart for large files.
func (c *s3Client) Save(ctx context.Context, name string, body io.Reader, _ int64, contentType string) error {
	key, err := CleanName(name)
	if err != nil {
		return err
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(c.cfg.S3BucketName),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := c.uploader.Upload(ctx, input); err != nil {
		c.logger.Error().Err(err).Str("key", key).Msg("S3 upload failed")
		return fmt.Errorf("upload %s: %w", key, err)
	}

	return nil
}

// Locate checks that the object exists and returns a presigned download URL for it.
func (c *s3Client) Locate(ctx context.Context, name string) (Download, error) {
	key, err := CleanName(name)
	if err != nil {
		return Download{}, err
	}

	head, err := c.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.cfg.S3BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return Download{}, ErrNotFound
		}
		c.logger.Error().Err(err).Str("key", key).Msg("Failed to get S3 object metadata")
		return Download{}, fmt.Errorf("head %s: %w", key, err)
	}

	presigned, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.cfg.S3BucketName),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(PresignedURLDuration))
	if err != nil {
		c.logger.Error().Err(err).Str("key", key).Msg("Failed to generate presigned URL")
		return Download{}, fmt.Errorf("presign %s: %w", key, err)
	}

	return Download{
		URL:         presigned.URL,
		ContentType: aws.ToString(head.ContentType),
	}, nil
}
