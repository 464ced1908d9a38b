package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIO stores artifacts as objects in a MinIO/S3 bucket. Object names are
// the opaque image tokens.
type MinIO struct {
	client *minio.Client
	bucket string
}

// MinIOOptions configures the MinIO backend.
type MinIOOptions struct {
	// Endpoint is the MinIO server address in "host:port" format.
	Endpoint string

	// AccessKey is the access key ID.
	AccessKey string

	// SecretKey is the secret access key.
	SecretKey string

	// Bucket is the bucket holding session artifacts. Created if absent.
	Bucket string

	// UseSSL enables TLS for the connection.
	UseSSL bool
}

// NewMinIO connects to the MinIO server and ensures the artifact bucket
// exists.
func NewMinIO(ctx context.Context, opts MinIOOptions) (*MinIO, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to minio at %s: %w", opts.Endpoint, err)
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", opts.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", opts.Bucket, err)
		}
	}

	return &MinIO{client: client, bucket: opts.Bucket}, nil
}

// Save uploads the artifact as a bucket object.
func (m *MinIO) Save(ctx context.Context, imageID string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := m.client.PutObject(ctx, m.bucket, imageID, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to store object %s: %w", imageID, err)
	}
	return fmt.Sprintf("s3://%s/%s", m.bucket, imageID), nil
}

// Open returns a reader over the stored object.
func (m *MinIO) Open(ctx context.Context, imageID string) (io.ReadCloser, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, imageID, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to open object %s: %w", imageID, err)
	}
	return obj, nil
}

// Delete removes the stored object. Removing an absent object is a no-op in
// S3 semantics, which matches the Storage contract.
func (m *MinIO) Delete(ctx context.Context, imageID string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, imageID, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", imageID, err)
	}
	return nil
}

// Ensure MinIO implements Storage.
var _ Storage = (*MinIO)(nil)
