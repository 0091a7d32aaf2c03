// Package minio guarda las imágenes de animales en un bucket S3/MinIO.
package minio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"hairy-paws/internal/config"

	mclient "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type ImageStore struct {
	client  *mclient.Client
	bucket  string
	baseURL string
}

// New arma el cliente y falla si el bucket no existe.
// El endpoint puede venir con esquema (http/https); Secure se deduce de él.
func New(ctx context.Context, cfg config.S3Config) (*ImageStore, error) {
	const op = "storage/minio/New"

	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, fmt.Errorf("%s: endpoint required", op)
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("%s: bucket required", op)
	}

	endpoint, secure := normalizeEndpoint(cfg.Endpoint)

	client, err := mclient.New(endpoint, &mclient.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return nil, fmt.Errorf("%s: bucket %q does not exist", op, cfg.Bucket)
	}

	return &ImageStore{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: publicBase(cfg, endpoint, secure),
	}, nil
}

func (s *ImageStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if key == "" {
		return "", errors.New("minio: key required")
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, mclient.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("minio: put %s: %w", key, err)
	}
	return s.baseURL + "/" + strings.TrimLeft(key, "/"), nil
}

func normalizeEndpoint(raw string) (string, bool) {
	endpoint := strings.TrimSpace(raw)
	secure := strings.HasPrefix(endpoint, "https://")
	if u, err := url.Parse(endpoint); err == nil && u.Scheme != "" && u.Host != "" {
		endpoint = u.Host
		secure = u.Scheme == "https"
	}
	return endpoint, secure
}

// publicBase: PublicBaseURL si está configurada; si no, path-style sobre el endpoint.
func publicBase(cfg config.S3Config, endpoint string, secure bool) string {
	if base := strings.TrimSpace(cfg.PublicBaseURL); base != "" {
		return strings.TrimRight(base, "/")
	}
	scheme := "http"
	if secure {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s", scheme, endpoint, cfg.Bucket)
}
