// Copyright (c) 2024 ContentJoy
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package provider

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	platformconfig "github.com/contentjoy/content-approval-app-sub001/internal/platform/config"
)

// r2Provider implements BlobProvider for Cloudflare R2 using the AWS S3 SDK
type r2Provider struct {
	s3Client  *s3.Client
	bucket    string
	publicURL string
}

// NewR2Provider creates a new R2 provider from configuration
func NewR2Provider(cfg *platformconfig.R2Config) (BlobProvider, error) {
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, fmt.Errorf("R2_ACCESS_KEY_ID and R2_SECRET_ACCESS_KEY are required")
	}
	if cfg.BucketName == "" {
		return nil, fmt.Errorf("R2_BUCKET_NAME is required")
	}

	// Endpoint format: https://<account-id>.r2.cloudflarestorage.com
	endpoint := cfg.Endpoint
	if endpoint == "" && cfg.AccountID != "" {
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	}
	if endpoint == "" {
		return nil, fmt.Errorf("R2_ENDPOINT or R2_ACCOUNT_ID is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true // R2 requires path-style addressing
	})

	return &r2Provider{
		s3Client:  s3Client,
		bucket:    cfg.BucketName,
		publicURL: cfg.PublicURL,
	}, nil
}

// Put stores the blob under <folder>/<name> and returns the object key as
// the destination file id.
func (r *r2Provider) Put(ctx context.Context, req *PutRequest) (string, error) {
	if len(req.Content) == 0 {
		return "", fmt.Errorf("refusing to store empty blob %s", req.Name)
	}

	key := req.Name
	if req.FolderID != "" {
		key = strings.TrimSuffix(req.FolderID, "/") + "/" + req.Name
	}

	_, err := r.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(req.Content),
		ContentType:   aws.String(req.MimeType),
		ContentLength: aws.Int64(int64(len(req.Content))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to store object in R2: %w", err)
	}

	return key, nil
}
