package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/minio/minio-go/v7"
)

// Publish uploads files to bucket under prefix, keeping their base names.
// It creates the bucket if needed. On failure every object uploaded by this
// call is removed and the first error is returned.
func Publish(ctx context.Context, client Client, bucket, prefix string, files []string) ([]string, error) {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", bucket, err)
		}
	}

	var uploaded []string
	for _, f := range files {
		key := path.Join(prefix, filepath.Base(f))
		if err := putFile(ctx, client, bucket, key, f); err != nil {
			for _, done := range uploaded {
				_ = client.RemoveObject(ctx, bucket, done, minio.RemoveObjectOptions{})
			}
			return nil, err
		}
		uploaded = append(uploaded, key)
	}
	return uploaded, nil
}

func putFile(ctx context.Context, client Client, bucket, key, file string) error {
	fh, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", file, err)
	}
	defer fh.Close()

	info, err := fh.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", file, err)
	}

	contentType := "text/csv"
	if filepath.Ext(file) == ".yaml" {
		contentType = "application/yaml"
	}
	_, err = client.PutObject(ctx, bucket, key, fh, info.Size(), minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("failed to upload %s to %s/%s: %w", file, bucket, key, err)
	}
	return nil
}
