// Package s3 implements the S3-compatible object storage adapter used by
// cloud disks such as Cloudflare R2, AWS S3 and MinIO.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// DefaultTimeout bounds every remote call when the disk sets none.
const DefaultTimeout = 10 * time.Second

// ErrMissingCredentials is returned by physical operations on a disk that
// has no access key pair configured.
var ErrMissingCredentials = errors.New("s3 credentials not configured")

// Config holds S3 disk configuration.
type Config struct {
	Name      string
	URL       string // public base URL, e.g. a CDN in front of the bucket
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	PathStyle bool // Use path-style URLs (required for MinIO)
	Timeout   time.Duration
}

// Storage implements the storage.Disk interface using S3-compatible storage.
// The client is built on the first physical operation so that URL synthesis
// works on disks whose credentials are absent.
type Storage struct {
	cfg Config

	mu     sync.Mutex
	client *s3.Client
}

// New creates a new S3 disk adapter without contacting the endpoint.
func New(cfg Config) *Storage {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Storage{cfg: cfg}
}

// Name returns the disk name.
func (s *Storage) Name() string {
	return s.cfg.Name
}

// Kind returns "s3".
func (s *Storage) Kind() string {
	return "s3"
}

// ObjectURL returns {url}/{key} when a public base URL is configured, else
// {endpoint}/{bucket}/{key}.
func (s *Storage) ObjectURL(key, _ string) (string, error) {
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return "", fmt.Errorf("disk %s: empty key", s.cfg.Name)
	}
	if base := strings.TrimRight(s.cfg.URL, "/"); base != "" {
		return base + "/" + key, nil
	}
	endpoint := strings.TrimRight(s.cfg.Endpoint, "/")
	if endpoint != "" && s.cfg.Bucket != "" {
		return endpoint + "/" + s.cfg.Bucket + "/" + key, nil
	}
	return "", fmt.Errorf("disk %s: neither public url nor endpoint and bucket configured", s.cfg.Name)
}

// PutObject uploads a file to S3.
func (s *Storage) PutObject(ctx context.Context, key string, data io.Reader, contentType string, size int64) error {
	client, err := s.getClient(ctx)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
		Body:   data,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}

	if _, err := client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

// GetObject retrieves a file from S3. The timeout keeps running until the
// returned body is closed.
func (s *Storage) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	client, err := s.getClient(ctx)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)

	output, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		cancel()
		if isNotFound(err) {
			return nil, fmt.Errorf("get object %s: %w", key, fs.ErrNotExist)
		}
		return nil, fmt.Errorf("get object: %w", err)
	}
	return &cancelReadCloser{ReadCloser: output.Body, cancel: cancel}, nil
}

// DeleteObject removes a file from S3.
func (s *Storage) DeleteObject(ctx context.Context, key string) error {
	client, err := s.getClient(ctx)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	_, err = client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// CopyObject duplicates src to dst server side.
func (s *Storage) CopyObject(ctx context.Context, src, dst string) error {
	client, err := s.getClient(ctx)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	_, err = client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.cfg.Bucket),
		Key:        aws.String(dst),
		CopySource: aws.String(copySource(s.cfg.Bucket, src)),
	})
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("copy object %s: %w", src, fs.ErrNotExist)
		}
		return fmt.Errorf("copy object: %w", err)
	}
	return nil
}

// ObjectExists checks if an object exists in S3.
func (s *Storage) ObjectExists(ctx context.Context, key string) (bool, error) {
	client, err := s.getClient(ctx)
	if err != nil {
		return false, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	_, err = client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("head object: %w", err)
	}
	return true, nil
}

func (s *Storage) getClient(ctx context.Context) (*s3.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}
	if s.cfg.Bucket == "" {
		return nil, fmt.Errorf("disk %s: bucket name is required", s.cfg.Name)
	}
	if s.cfg.AccessKey == "" || s.cfg.SecretKey == "" {
		return nil, fmt.Errorf("disk %s: %w", s.cfg.Name, ErrMissingCredentials)
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(s.cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.cfg.AccessKey, s.cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	var optFns []func(*s3.Options)
	if s.cfg.Endpoint != "" {
		optFns = append(optFns, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(s.cfg.Endpoint)
		})
	}
	if s.cfg.PathStyle {
		optFns = append(optFns, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	s.client = s3.NewFromConfig(awsCfg, optFns...)
	return s.client, nil
}

func copySource(bucket, key string) string {
	segments := strings.Split(strings.TrimLeft(key, "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return bucket + "/" + strings.Join(segments, "/")
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	var nsk *types.NoSuchKey
	if errors.As(err, &nf) || errors.As(err, &nsk) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "NotFound") || strings.Contains(msg, "NoSuchKey") || strings.Contains(msg, "StatusCode: 404")
}

type cancelReadCloser struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelReadCloser) Close() error {
	defer c.cancel()
	return c.ReadCloser.Close()
}
