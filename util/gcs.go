// util/gcs.go
// Copyright(c) 2025-2026 motionplan contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"context"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSCredentialsEnv names the environment variable that may hold service
// account JSON; without it, the bucket is accessed anonymously.
const GCSCredentialsEnv = "MOTIONPLAN_GCS_CREDENTIALS"

type GCSBackend struct {
	client *storage.Client
	bucket *storage.BucketHandle
}

func MakeGCSBackend(ctx context.Context, bucketName string) (*GCSBackend, error) {
	if bucketName == "" {
		return nil, fmt.Errorf("bucket name cannot be empty")
	}

	opt := option.WithoutAuthentication()
	if credsJSON := os.Getenv(GCSCredentialsEnv); credsJSON != "" {
		opt = option.WithCredentialsJSON([]byte(credsJSON))
	}

	client, err := storage.NewClient(ctx, opt)
	if err != nil {
		return nil, fmt.Errorf("gs://%s: %w", bucketName, err)
	}

	return &GCSBackend{
		client: client,
		bucket: client.Bucket(bucketName),
	}, nil
}

func (g *GCSBackend) OpenRead(ctx context.Context, path string) (io.ReadCloser, error) {
	return g.bucket.Object(path).NewReader(ctx)
}

func (g *GCSBackend) Close() {
	g.client.Close()
}
