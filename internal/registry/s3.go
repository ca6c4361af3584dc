package registry

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Options locates the registry document in an S3-compatible store.
type S3Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Object    string
	UseSSL    bool
}

// LoadS3 reads the registry document from an S3-compatible object store.
func LoadS3(ctx context.Context, opts S3Options) (*Registry, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	object, err := client.GetObject(ctx, opts.Bucket, opts.Object, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get registry from S3: %w", err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry data: %w", err)
	}

	reg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("registry object %s/%s: %w", opts.Bucket, opts.Object, err)
	}

	return reg, nil
}
