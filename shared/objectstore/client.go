package objectstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Objects are streamed in parts of at least this size; the backing store
// rejects smaller parts on all but the final chunk.
const minPartSize = 5 * 1024 * 1024

// Config holds object store connection configuration
type Config struct {
	Endpoint       string
	PublicEndpoint string // endpoint used in returned artifact URLs
	AccessKey      string
	SecretKey      string
	UseSSL         bool
}

// Client is the gateway to the object store. All artifacts written through
// it are addressable by exactly one canonical URL (see FormatURL).
type Client struct {
	mc     *minio.Client
	config *Config
	logger *slog.Logger
}

// NewClient creates a new object store client
func NewClient(config *Config, logger *slog.Logger) (*Client, error) {
	mc, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKey, config.SecretKey, ""),
		Secure: config.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}

	logger.Info("Object store client initialized",
		slog.String("endpoint", config.Endpoint),
		slog.Bool("use_ssl", config.UseSSL),
	)

	if config.PublicEndpoint == "" {
		config.PublicEndpoint = config.Endpoint
	}

	return &Client{
		mc:     mc,
		config: config,
		logger: logger,
	}, nil
}

// EnsureBucket creates the bucket if it does not exist. A concurrent
// creator winning the race is not an error.
func (c *Client) EnsureBucket(ctx context.Context, bucket string) error {
	exists, err := c.mc.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %q: %w", bucket, err)
	}

	if exists {
		return nil
	}

	c.logger.Info("Bucket does not exist, creating",
		slog.String("bucket", bucket),
	)

	if err := c.mc.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		code := minio.ToErrorResponse(err).Code
		if code == "BucketAlreadyOwnedByYou" || code == "BucketAlreadyExists" {
			c.logger.Debug("Bucket created concurrently",
				slog.String("bucket", bucket),
			)
			return nil
		}
		return fmt.Errorf("failed to create bucket %q: %w", bucket, err)
	}

	return nil
}

// Upload writes the object under bucket/key, creating the bucket on demand,
// and returns the canonical artifact URL. Pass size -1 when unknown; the
// object is then streamed in minimum-size parts.
func (c *Client) Upload(ctx context.Context, bucket, key string, reader io.Reader, size int64) (string, error) {
	if err := c.EnsureBucket(ctx, bucket); err != nil {
		return "", err
	}

	c.logger.Info("Uploading object",
		slog.String("bucket", bucket),
		slog.String("key", key),
		slog.Int64("size", size),
	)

	opts := minio.PutObjectOptions{ContentType: "application/octet-stream"}
	if size < 0 {
		opts.PartSize = minPartSize
	}

	info, err := c.mc.PutObject(ctx, bucket, key, reader, size, opts)
	if err != nil {
		return "", fmt.Errorf("failed to upload %s/%s: %w", bucket, key, err)
	}

	c.logger.Debug("Object uploaded",
		slog.String("bucket", bucket),
		slog.String("key", key),
		slog.Int64("bytes", info.Size),
	)

	return FormatURL(c.config.PublicEndpoint, bucket, key), nil
}

// UploadFile uploads a local file under bucket/key and returns the
// canonical artifact URL.
func (c *Client) UploadFile(ctx context.Context, bucket, key, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %q for upload: %w", path, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat %q: %w", path, err)
	}

	return c.Upload(ctx, bucket, key, f, stat.Size())
}

// Download parses the artifact URL, fetches the object and writes it to
// dst. A URL that does not match the canonical pattern is rejected before
// any store call.
func (c *Client) Download(ctx context.Context, url, dst string) error {
	parsed, err := ParseURL(url)
	if err != nil {
		return err
	}

	c.logger.Info("Downloading object",
		slog.String("bucket", parsed.Bucket),
		slog.String("key", parsed.Key),
		slog.String("dst", dst),
	)

	obj, err := c.mc.GetObject(ctx, parsed.Bucket, parsed.Key, minio.GetObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to get %s/%s: %w", parsed.Bucket, parsed.Key, err)
	}
	defer obj.Close()

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %q: %w", dst, err)
	}

	written, err := io.Copy(f, obj)
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to write object to %q: %w", dst, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %q: %w", dst, err)
	}

	if _, err := os.Stat(dst); err != nil {
		return fmt.Errorf("downloaded file missing at %q: %w", dst, err)
	}

	c.logger.Debug("Object downloaded",
		slog.String("dst", dst),
		slog.Int64("bytes", written),
	)

	return nil
}
