package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Options configures an S3Store
type S3Options struct {
	Endpoint  string // host:port, e.g. "localhost:9000"
	Bucket    string
	Prefix    string // object name prefix, may be empty
	AccessKey string
	SecretKey string
	Secure    bool
}

// S3Store keeps one object per snapshot in an S3 compatible bucket
type S3Store struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewS3Store connects to the endpoint and creates the bucket if it does not
// exist yet
func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}

	if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
		exists, existsErr := client.BucketExists(ctx, opts.Bucket)
		if existsErr != nil || !exists {
			return nil, fmt.Errorf("create bucket %s: %w", opts.Bucket, err)
		}
	}

	return &S3Store{
		client: client,
		bucket: opts.Bucket,
		prefix: strings.Trim(opts.Prefix, "/"),
	}, nil
}

func (s *S3Store) objectName(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

func (s *S3Store) listPrefix() string {
	if s.prefix == "" {
		return ""
	}
	return s.prefix + "/"
}

func (s *S3Store) Reader(ctx context.Context, name string) (io.ReadCloser, error) {
	object := s.objectName(name)

	// GetObject is lazy, stat first so a missing object is reported here
	if _, err := s.client.StatObject(ctx, s.bucket, object, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("object %s: %w", object, ErrNotFound)
		}
		return nil, fmt.Errorf("s3 stat %s: %w", object, err)
	}

	obj, err := s.client.GetObject(ctx, s.bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("s3 get %s: %w", object, err)
	}
	return obj, nil
}

func (s *S3Store) Writer(ctx context.Context, name string) (io.WriteCloser, error) {
	return &s3Writer{ctx: ctx, store: s, object: s.objectName(name)}, nil
}

func (s *S3Store) Delete(ctx context.Context, name string) error {
	object := s.objectName(name)
	if err := s.client.RemoveObject(ctx, s.bucket, object, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("s3 remove %s: %w", object, err)
	}
	return nil
}

func (s *S3Store) List(ctx context.Context) ([]string, error) {
	prefix := s.listPrefix()
	names := []string{}
	for info := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if info.Err != nil {
			return nil, fmt.Errorf("s3 list: %w", info.Err)
		}
		names = append(names, strings.TrimPrefix(info.Key, prefix))
	}
	slices.Sort(names)
	return names, nil
}

func (s *S3Store) Close() error {
	return nil
}

// s3Writer buffers a snapshot and uploads it on Close
type s3Writer struct {
	ctx    context.Context
	store  *S3Store
	object string
	buf    bytes.Buffer
	closed bool
}

func (w *s3Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, errors.New("write to closed snapshot writer")
	}
	return w.buf.Write(p)
}

func (w *s3Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	_, err := w.store.client.PutObject(w.ctx, w.store.bucket, w.object, bytes.NewReader(w.buf.Bytes()), int64(w.buf.Len()), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("s3 put %s: %w", w.object, err)
	}
	return nil
}

var _ Store = (*S3Store)(nil)
