package storage

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"nia-content-studio/modules/common/logger"
)

// ErrNoMatch reports a URL that does not point into the configured bucket.
// Callers decide whether that is fatal for their flow.
var ErrNoMatch = errors.New("url does not match storage bucket")

const signedURLTTL = time.Hour

// Service is the object storage gateway. One instance per process, one bucket.
type Service interface {
	Upload(ctx context.Context, data []byte, prefix, ext, contentType string) (string, error)
	Download(ctx context.Context, url string) ([]byte, error)
	SignURL(key string) (string, error)
	PublicURL(key string) string
	KeyFromURL(url string) (string, bool)
	ListKeys(ctx context.Context, prefix string) ([]string, error)
}

type gcsService struct {
	client *gcs.Client
	bucket string
	log    *logger.Logger
}

// New creates the GCS-backed storage service. The credentials file is used
// when it exists; otherwise the client falls back to Application Default
// Credentials.
func New(ctx context.Context, bucket, credentialsFile string, log *logger.Logger) (Service, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		if _, err := os.Stat(credentialsFile); err == nil {
			opts = append(opts, option.WithCredentialsFile(credentialsFile))
		}
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	log.Info("✅ [Storage] Client initialized", "bucket", bucket)
	return &gcsService{client: client, bucket: bucket, log: log}, nil
}

// ObjectKey builds a fresh object key: {prefix}_{random 8 hex}.{ext}.
func ObjectKey(prefix, ext string) string {
	id := uuid.New()
	return fmt.Sprintf("%s_%s.%s", prefix, hex.EncodeToString(id[:])[:8], ext)
}

func (s *gcsService) Upload(ctx context.Context, data []byte, prefix, ext, contentType string) (string, error) {
	key := ObjectKey(prefix, ext)

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close writer for %s: %w", key, err)
	}

	s.log.Info("📤 Object uploaded", "key", key, "bytes", len(data))
	return s.PublicURL(key), nil
}

func (s *gcsService) Download(ctx context.Context, url string) ([]byte, error) {
	key, ok := s.KeyFromURL(url)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoMatch, url)
	}

	r, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open reader for %s: %w", key, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}

	s.log.Info("📥 Object downloaded", "key", key, "bytes", len(data))
	return data, nil
}

// SignURL mints a V4 signed GET URL valid for one hour. URLs are signed fresh
// on every call; nothing is cached.
func (s *gcsService) SignURL(key string) (string, error) {
	url, err := s.client.Bucket(s.bucket).SignedURL(key, &gcs.SignedURLOptions{
		Scheme:  gcs.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(signedURLTTL),
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign url for %s: %w", key, err)
	}
	return url, nil
}

func (s *gcsService) PublicURL(key string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, key)
}

func (s *gcsService) KeyFromURL(url string) (string, bool) {
	prefix := fmt.Sprintf("https://storage.googleapis.com/%s/", s.bucket)
	if len(url) <= len(prefix) || url[:len(prefix)] != prefix {
		return "", false
	}
	return url[len(prefix):], true
}

func (s *gcsService) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &gcs.Query{Prefix: prefix})

	keys := []string{}
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list objects under %s: %w", prefix, err)
		}
		keys = append(keys, attrs.Name)
	}
	return keys, nil
}
