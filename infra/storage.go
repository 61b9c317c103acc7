package infra

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/tnqbao/gau-media-service/config"
)

// ErrObjectNotFound is returned by Stat when no object exists under the key.
var ErrObjectNotFound = errors.New("object not found")

type ObjectInfo struct {
	Size        int64
	ContentType string
}

// BlobStore is the key-addressable object storage holding media bytes.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Stat(ctx context.Context, key string) (*ObjectInfo, error)
	PresignedGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	PresignedPut(ctx context.Context, key string, contentType string, ttl time.Duration) (string, error)
	Remove(ctx context.Context, key string) error
}

// InitBlobStore picks the storage backend from STORAGE_BACKEND.
func InitBlobStore(cfg *config.EnvConfig) BlobStore {
	switch cfg.Storage.Backend {
	case "minio":
		client := InitMinioClient(cfg)
		if err := client.EnsureBucket(context.Background()); err != nil {
			log.Fatalf("Failed to ensure MinIO bucket %q: %v", client.Bucket, err)
		}
		return client
	case "s3":
		client, err := NewS3Client(context.Background(), cfg)
		if err != nil {
			log.Fatalf("Failed to initialize S3 client: %v", err)
		}
		return client
	default:
		panic(fmt.Sprintf("unknown storage backend %q, expected minio or s3", cfg.Storage.Backend))
	}
}

// rewritePublicURL swaps the scheme and host of a presigned URL for the
// public endpoint, keeping the signed path and query intact.
func rewritePublicURL(raw, publicEndpoint string) string {
	publicEndpoint = strings.TrimSpace(publicEndpoint)
	if publicEndpoint == "" || strings.TrimSpace(raw) == "" {
		return raw
	}

	target, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	external, err := url.Parse(publicEndpoint)
	if err != nil || external.Scheme == "" || external.Host == "" {
		return raw
	}

	target.Scheme = external.Scheme
	target.Host = external.Host

	if base := strings.TrimSuffix(strings.TrimSpace(external.Path), "/"); base != "" {
		if !strings.HasPrefix(base, "/") {
			base = "/" + base
		}
		target.Path = base + "/" + strings.TrimPrefix(target.Path, "/")
	}

	return target.String()
}
