// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/pdiddy/artifact-engine/pkg/types"
)

// S3 writes exported copies to an S3-compatible bucket. The bucket is
// created on first use when it does not exist; a failed check is retried on
// the next export.
type S3 struct {
	client *minio.Client
	bucket string
	region string
	prefix string
	suffix string

	mu    sync.Mutex // guards ready
	ready bool
}

// NewS3 validates cfg and builds the client. Objects are keyed
// prefix/Name(filename, suffix).
func NewS3(cfg types.S3Config, prefix, suffix string) (*S3, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}

	return &S3{
		client: client,
		bucket: bucket,
		region: region,
		prefix: strings.Trim(prefix, "/"),
		suffix: suffix,
	}, nil
}

// Key returns the object key for filename.
func (s *S3) Key(filename string) string {
	name := Name(filename, s.suffix)
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

func (s *S3) ensureBucket(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return err
		}
	}
	s.ready = true
	return nil
}

// Export uploads doc.Content under Key(doc.Filename).
func (s *S3) Export(ctx context.Context, doc *types.Document) error {
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	content := []byte(doc.Content)
	_, err := s.client.PutObject(ctx, s.bucket, s.Key(doc.Filename), bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType: "text/markdown; charset=utf-8",
	})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", s.Key(doc.Filename), err)
	}
	return nil
}
