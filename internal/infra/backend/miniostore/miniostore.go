// Package miniostore persists the cache snapshot as a single JSON object in
// a bucket. The snapshot is small (one user's scan history), so the whole
// object is replaced on every WriteAll.
package miniostore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const objectKey = "cache/snapshot.json"

type Backend struct {
	client     *minio.Client
	bucketName string
}

// New connects to MinIO and makes sure the bucket exists.
func New(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*Backend, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, err
		}
	}

	return &Backend{client: cli, bucketName: bucket}, nil
}

func (b *Backend) ReadAll(ctx context.Context) ([][]byte, error) {
	obj, err := b.client.GetObject(ctx, b.bucketName, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, nil // fresh start
		}
		return nil, fmt.Errorf("read snapshot object: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse snapshot object: %w", err)
	}
	blobs := make([][]byte, len(raw))
	for i, r := range raw {
		blobs[i] = []byte(r)
	}
	return blobs, nil
}

func (b *Backend) WriteAll(ctx context.Context, blobs [][]byte) error {
	raw := make([]json.RawMessage, len(blobs))
	for i, blob := range blobs {
		raw[i] = json.RawMessage(blob)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	_, err = b.client.PutObject(ctx, b.bucketName, objectKey,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("write snapshot object: %w", err)
	}
	return nil
}
