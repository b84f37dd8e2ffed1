package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "vehicleinventory/config"
)

var ErrR2NotConfigured = errors.New("missing required R2 settings")

// R2Client uploads objects to a Cloudflare R2 bucket over the S3 API.
type R2Client struct {
	client     *s3.Client
	bucket     string
	publicBase string
}

func NewR2Client(ctx context.Context, cfg appconfig.R2Config) (*R2Client, error) {
	if cfg.Bucket == "" || cfg.AccountID == "" || cfg.PublicURL == "" ||
		cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, ErrR2NotConfigured
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("auto"), // R2 ignores regions but the signer needs one
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load R2 config: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})

	return &R2Client{
		client:     client,
		bucket:     cfg.Bucket,
		publicBase: strings.TrimRight(cfg.PublicURL, "/"),
	}, nil
}

// Upload stores data under key and returns its public URL.
func (c *R2Client) Upload(ctx context.Context, data []byte, key, contentType string) (string, error) {
	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to R2: %w", err)
	}
	return c.PublicURL(key), nil
}

func (c *R2Client) PublicURL(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return c.publicBase + "/" + strings.Join(parts, "/")
}
