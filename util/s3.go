// util/s3.go
// Copyright(c) 2025-2026 motionplan contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// If both of these are set they are used as static credentials;
// otherwise the default AWS credential chain applies.
const (
	S3AccessKeyEnv = "MOTIONPLAN_S3_ACCESS_KEY"
	S3SecretKeyEnv = "MOTIONPLAN_S3_SECRET_KEY"
)

type S3Backend struct {
	client *s3.Client
	bucket string
}

func MakeS3Backend(ctx context.Context, bucket string) (*S3Backend, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket name cannot be empty")
	}

	var opts []func(*config.LoadOptions) error
	if ak, sk := os.Getenv(S3AccessKeyEnv), os.Getenv(S3SecretKeyEnv); ak != "" && sk != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(ak, sk, "")))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3://%s: %w", bucket, err)
	}

	return &S3Backend{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
	}, nil
}

func (s *S3Backend) OpenRead(ctx context.Context, path string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return nil, fmt.Errorf("s3://%s/%s: %w", s.bucket, path, err)
	}
	return out.Body, nil
}

func (s *S3Backend) Close() {}
