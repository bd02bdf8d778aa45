// Package photo stores dish photos in S3-compatible object storage.
package photo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// MaxSize is the largest accepted photo in bytes.
const MaxSize = 5 << 20

var (
	ErrDisabled        = errors.New("photo storage is not configured")
	ErrTooLarge        = errors.New("photo exceeds 5 MiB")
	ErrUnsupportedType = errors.New("photo must be JPEG, PNG or WebP")
)

var allowedTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Config holds S3-compatible storage configuration. PublicBaseURL is the
// prefix photos are served from; it defaults to the path-style bucket URL.
type Config struct {
	Endpoint      string
	Bucket        string
	Region        string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
}

func (c Config) Enabled() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

func (c Config) baseURL() string {
	if c.PublicBaseURL != "" {
		return strings.TrimRight(c.PublicBaseURL, "/")
	}
	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://s3.%s.amazonaws.com", c.Region)
	}
	return strings.TrimRight(endpoint, "/") + "/" + c.Bucket
}

type Store struct {
	cfg    Config
	client s3Client
}

// New returns a store. When cfg is incomplete every call fails with
// ErrDisabled.
func New(cfg Config) *Store {
	s := &Store{cfg: cfg}
	if cfg.Enabled() {
		s.client = newS3Client(cfg)
	}
	return s
}

func newS3Client(cfg Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

func (s *Store) Enabled() bool {
	return s.client != nil
}

// Upload stores a photo for dishID and returns its public URL.
func (s *Store) Upload(ctx context.Context, dishID string, r io.Reader) (string, error) {
	if s.client == nil {
		return "", ErrDisabled
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return "", fmt.Errorf("read photo: %w", err)
	}
	if len(data) > MaxSize {
		return "", ErrTooLarge
	}

	mime := mimetype.Detect(data)
	ext, ok := allowedTypes[mime.String()]
	if !ok {
		return "", fmt.Errorf("%w: got %s", ErrUnsupportedType, mime.String())
	}

	key := fmt.Sprintf("dishes/%s/%s.%s", dishID, uuid.NewString(), ext)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(mime.String()),
	})
	if err != nil {
		return "", fmt.Errorf("upload photo: %w", err)
	}
	return s.cfg.baseURL() + "/" + key, nil
}

// Delete removes a photo previously returned by Upload. URLs from elsewhere
// are ignored.
func (s *Store) Delete(ctx context.Context, url string) error {
	if s.client == nil || url == "" {
		return nil
	}
	prefix := s.cfg.baseURL() + "/"
	if !strings.HasPrefix(url, prefix) {
		return nil
	}
	key := strings.TrimPrefix(url, prefix)
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	return nil
}
