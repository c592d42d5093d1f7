package filestore

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PresignExpiry is the lifetime of generated download links.
const PresignExpiry = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) error {
		_, err := c.PutObject(ctx, in)
		return err
	}

	deleteObject = func(c *s3.Client, ctx context.Context, in *s3.DeleteObjectInput) error {
		_, err := c.DeleteObject(ctx, in)
		return err
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// S3Config is the subset of server settings the S3 store needs.
type S3Config struct {
	Region       string
	AccessKey    string
	SecretKey    string
	Bucket       string
	BaseEndpoint string
}

// S3Store keeps files in an S3-compatible bucket (MinIO in development).
// Downloads go through presigned GET URLs.
type S3Store struct {
	cfg S3Config
	now func() time.Time

	mu      sync.Mutex
	client  *s3.Client
	presign *s3.PresignClient
}

// NewS3Store returns a store for cfg. The AWS client is created on first use.
func NewS3Store(cfg S3Config) *S3Store {
	return &S3Store{cfg: cfg, now: time.Now}
}

func (s *S3Store) clients(ctx context.Context) (*s3.Client, *s3.PresignClient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, s.presign, nil
	}

	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.cfg.AccessKey,
			s.cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	s.client = client
	s.presign = newS3PresignClient(client)
	return s.client, s.presign, nil
}

// Put uploads body under a fresh key below prefix and returns the key.
func (s *S3Store) Put(ctx context.Context, prefix, filename, contentType string, body io.Reader) (string, error) {
	client, _, err := s.clients(ctx)
	if err != nil {
		return "", err
	}

	// the signer hashes the payload, so it must be seekable
	if _, ok := body.(io.ReadSeeker); !ok {
		data, err := io.ReadAll(body)
		if err != nil {
			return "", err
		}
		body = bytes.NewReader(data)
	}

	bucket := s.cfg.Bucket
	key := RandomStorageKey(prefix, filename, s.now())

	in := &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
		Body:   body,
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}

	if err := putObject(client, ctx, in); err != nil {
		return "", err
	}

	return key, nil
}

// URL returns a presigned GET link for ref valid for PresignExpiry.
func (s *S3Store) URL(ctx context.Context, ref string) (string, error) {
	_, presignClient, err := s.clients(ctx)
	if err != nil {
		return "", err
	}

	bucket := s.cfg.Bucket

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &ref,
	}, s3.WithPresignExpires(PresignExpiry))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

// Delete removes ref from the bucket. S3 reports success for missing keys.
func (s *S3Store) Delete(ctx context.Context, ref string) error {
	client, _, err := s.clients(ctx)
	if err != nil {
		return err
	}

	bucket := s.cfg.Bucket
	return deleteObject(client, ctx, &s3.DeleteObjectInput{
		Bucket: &bucket,
		Key:    &ref,
	})
}
