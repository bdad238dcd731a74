// Package backup snapshots the database and uploads it to
// S3-compatible storage.
package backup

import (
	"compress/gzip"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Config holds S3-compatible storage configuration.
type Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// Configured reports whether enough settings are present to upload.
func (c Config) Configured() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

type Uploader struct {
	cfg    Config
	db     *sql.DB
	client s3Client
	logger *slog.Logger
}

func NewUploader(cfg Config, db *sql.DB, logger *slog.Logger) *Uploader {
	u := &Uploader{cfg: cfg, db: db, logger: logger}
	if cfg.Configured() {
		u.client = newS3Client(cfg)
	}
	return u
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

// Run takes a consistent snapshot with VACUUM INTO, compresses it, and
// uploads it under a timestamped key. It returns the object key.
func (u *Uploader) Run(ctx context.Context) (string, error) {
	if u.client == nil {
		return "", fmt.Errorf("backup not configured: S3 credentials missing")
	}

	tmpDir, err := os.MkdirTemp("", "tablefinder-backup-")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	snapshot := filepath.Join(tmpDir, "snapshot.db")
	if _, err := u.db.ExecContext(ctx, "VACUUM INTO ?", snapshot); err != nil {
		return "", fmt.Errorf("snapshot database: %w", err)
	}

	archive := snapshot + ".gz"
	if err := gzipFile(snapshot, archive); err != nil {
		return "", fmt.Errorf("compress snapshot: %w", err)
	}

	f, err := os.Open(archive)
	if err != nil {
		return "", fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	key := fmt.Sprintf("backup-%s.db.gz", time.Now().UTC().Format("2006-01-02T150405Z"))
	if _, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(u.cfg.Bucket),
		Key:    aws.String(key),
		Body:   f,
	}); err != nil {
		return "", fmt.Errorf("upload backup: %w", err)
	}

	u.logger.Info("backup uploaded", "bucket", u.cfg.Bucket, "key", key)
	return key, nil
}

func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	zw := gzip.NewWriter(out)
	if _, err := io.Copy(zw, in); err != nil {
		return err
	}
	return zw.Close()
}
