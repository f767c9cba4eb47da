// Package s3 implements the storage client for S3-compatible stores.
// The namespace is flat: object keys contain slashes but there are no
// directories, so Mkdirp succeeds without doing anything and uploads
// never fail for a missing parent.
package s3

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/tarput-io/tarput/internal/storage"
)

// API is the slice of the S3 API the client uses.
type API interface {
	PutObject(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
}

// Config carries what the client needs to talk to one bucket.
type Config struct {
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string

	// BaseEndpoint points at a non-AWS endpoint such as MinIO; empty
	// uses the regular AWS resolution.
	BaseEndpoint string
}

// Client uploads objects into one S3 bucket.
type Client struct {
	api    API
	bucket string
}

// New builds a client from cfg.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3: bucket is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("s3: load config: %w", err)
	}

	api := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &Client{api: api, bucket: cfg.Bucket}, nil
}

// NewWithAPI builds a client over an existing API implementation.
func NewWithAPI(api API, bucket string) *Client {
	return &Client{api: api, bucket: bucket}
}

// Put uploads one object. The leading slash of p is dropped to form the
// object key.
func (c *Client) Put(ctx context.Context, p string, body io.Reader, opts storage.PutOptions) error {
	key := strings.TrimPrefix(p, "/")

	in := &awss3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(opts.Size),
	}
	if opts.ContentType != "" {
		in.ContentType = aws.String(opts.ContentType)
	}
	if len(opts.Headers) > 0 {
		meta := make(map[string]string, len(opts.Headers))
		for k, v := range opts.Headers {
			meta[k] = v
		}
		in.Metadata = meta
	}

	if _, err := c.api.PutObject(ctx, in); err != nil {
		return &storage.Error{Op: "put", Path: p, Err: err}
	}
	return nil
}

// Mkdirp is a no-op: a flat namespace has no directories to create.
func (c *Client) Mkdirp(ctx context.Context, dir string) error {
	return nil
}
