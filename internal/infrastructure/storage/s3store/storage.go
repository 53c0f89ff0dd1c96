package s3store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/domain"
)

type Options struct {
	Region string
	// Endpoint points the client at an S3-compatible server such as MinIO.
	Endpoint     string
	UsePathStyle bool
}

type Storage struct {
	client *s3.Client
}

func New(ctx context.Context, opts Options) (*Storage, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})
	return &Storage{client: client}, nil
}

func (s *Storage) Download(ctx context.Context, bucket, key, localPath string) error {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return translateError("get object", bucket, key, err)
	}
	defer out.Body.Close()

	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("create local file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, out.Body); err != nil {
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

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat local file: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
	})
	if err != nil {
		return translateError("put object", bucket, key, err)
	}
	return nil
}

func (s *Storage) Head(ctx context.Context, bucket, key string) (domain.ObjectInfo, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return domain.ObjectInfo{}, translateError("head object", bucket, key, err)
	}
	return domain.ObjectInfo{Bucket: bucket, Key: key, Size: aws.ToInt64(out.ContentLength)}, nil
}

func (s *Storage) List(ctx context.Context, bucket, prefix string, fn func(domain.ObjectInfo) error) error {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return translateError("list objects", bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			info := domain.ObjectInfo{Bucket: bucket, Key: aws.ToString(obj.Key), Size: aws.ToInt64(obj.Size)}
			if err := fn(info); err != nil {
				return err
			}
		}
	}
	return nil
}

func translateError(op, bucket, key string, err error) error {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) || errors.As(err, &noSuchBucket) {
		return domain.WrapError(domain.ErrDocumentNotFound, op, fmt.Errorf("s3://%s/%s: %w", bucket, key, err))
	}

	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		status := respErr.HTTPStatusCode()
		switch {
		case status == http.StatusNotFound:
			return domain.WrapError(domain.ErrDocumentNotFound, op, err)
		case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
			return domain.WrapError(domain.ErrTemporary, op, err)
		}
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorFault() == smithy.FaultServer {
		return domain.WrapError(domain.ErrTemporary, op, err)
	}
	return fmt.Errorf("s3 %s: %w", op, err)
}
