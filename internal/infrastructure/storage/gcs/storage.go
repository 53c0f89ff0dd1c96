package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/domain"
)

type Storage struct {
	client *storage.Client
}

// New builds a client from application default credentials unless a
// service account file is given.
func New(ctx context.Context, credentialsFile string) (*Storage, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &Storage{client: client}, nil
}

func (s *Storage) Close() error {
	return s.client.Close()
}

func (s *Storage) Download(ctx context.Context, bucket, key, localPath string) error {
	r, err := s.client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		return translateError("open object", bucket, key, err)
	}
	defer r.Close()

	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("create local file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return translateError("read object", bucket, key, err)
	}
	return f.Close()
}

func (s *Storage) Upload(ctx context.Context, localPath, bucket, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open local file: %w", err)
	}
	defer f.Close()

	w := s.client.Bucket(bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentTypeFor(key)
	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return translateError("write object", bucket, key, err)
	}
	if err := w.Close(); err != nil {
		return translateError("finalize object", bucket, key, err)
	}
	return nil
}

func (s *Storage) Head(ctx context.Context, bucket, key string) (domain.ObjectInfo, error) {
	attrs, err := s.client.Bucket(bucket).Object(key).Attrs(ctx)
	if err != nil {
		return domain.ObjectInfo{}, translateError("stat object", bucket, key, err)
	}
	return domain.ObjectInfo{Bucket: bucket, Key: key, Size: attrs.Size}, nil
}

func (s *Storage) List(ctx context.Context, bucket, prefix string, fn func(domain.ObjectInfo) error) error {
	it := s.client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return translateError("list objects", bucket, prefix, err)
		}
		if attrs.Name == "" {
			continue
		}
		if err := fn(domain.ObjectInfo{Bucket: bucket, Key: attrs.Name, Size: attrs.Size}); err != nil {
			return err
		}
	}
}

func contentTypeFor(key string) string {
	if strings.HasSuffix(key, ".txt") {
		return "text/plain; charset=utf-8"
	}
	return ""
}

func translateError(op, bucket, key string, err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return domain.WrapError(domain.ErrDocumentNotFound, op, fmt.Errorf("gs://%s/%s: %w", bucket, key, err))
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusNotFound:
			return domain.WrapError(domain.ErrDocumentNotFound, op, err)
		case apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError:
			return domain.WrapError(domain.ErrTemporary, op, err)
		}
	}
	return fmt.Errorf("gcs %s: %w", op, err)
}
