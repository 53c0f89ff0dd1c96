package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/domain"
)

// Storage keeps buckets as directories under basePath.
type Storage struct {
	basePath string
}

func New(basePath string) (*Storage, error) {
	if basePath == "" {
		basePath = "./data/storage"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Storage{basePath: basePath}, nil
}

func (s *Storage) Download(_ context.Context, bucket, key, localPath string) error {
	src, err := s.objectPath(bucket, key)
	if err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return translateError("open object", bucket, key, err)
	}
	defer in.Close()

	return writeFile(localPath, in)
}

func (s *Storage) Upload(_ context.Context, localPath, bucket, key string) error {
	dst, err := s.objectPath(bucket, key)
	if err != nil {
		return err
	}
	in, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open local file: %w", err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}
	return writeFile(dst, in)
}

func (s *Storage) Head(_ context.Context, bucket, key string) (domain.ObjectInfo, error) {
	p, err := s.objectPath(bucket, key)
	if err != nil {
		return domain.ObjectInfo{}, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return domain.ObjectInfo{}, translateError("stat object", bucket, key, err)
	}
	if info.IsDir() {
		return domain.ObjectInfo{}, domain.WrapError(domain.ErrDocumentNotFound, "stat object", fmt.Errorf("%s/%s is a directory", bucket, key))
	}
	return domain.ObjectInfo{Bucket: bucket, Key: key, Size: info.Size()}, nil
}

// List walks the bucket directory in lexical order, like object store listings.
func (s *Storage) List(_ context.Context, bucket, prefix string, fn func(domain.ObjectInfo) error) error {
	root, err := s.bucketPath(bucket)
	if err != nil {
		return err
	}
	if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return fmt.Errorf("walk bucket: %w", walkErr)
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return fmt.Errorf("relative key: %w", err)
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat object: %w", err)
		}
		return fn(domain.ObjectInfo{Bucket: bucket, Key: key, Size: info.Size()})
	})
}

func (s *Storage) bucketPath(bucket string) (string, error) {
	if bucket == "" || strings.ContainsAny(bucket, `/\`) || bucket == "." || bucket == ".." {
		return "", domain.WrapError(domain.ErrInvalidInput, "resolve bucket", fmt.Errorf("invalid bucket %q", bucket))
	}
	return filepath.Join(s.basePath, bucket), nil
}

func (s *Storage) objectPath(bucket, key string) (string, error) {
	root, err := s.bucketPath(bucket)
	if err != nil {
		return "", err
	}
	clean := path.Clean("/" + key)
	if key == "" || clean == "/" {
		return "", domain.WrapError(domain.ErrInvalidInput, "resolve key", fmt.Errorf("invalid key %q", key))
	}
	return filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

func writeFile(dst string, r io.Reader) error {
	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return f.Close()
}

func translateError(op, bucket, key string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return domain.WrapError(domain.ErrDocumentNotFound, op, fmt.Errorf("%s/%s", bucket, key))
	}
	return fmt.Errorf("%s: %w", op, err)
}
