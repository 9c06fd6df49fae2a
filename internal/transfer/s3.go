package transfer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3API is the subset of the S3 client the transfer client uses
type s3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3Client fetches artifacts from s3://bucket/key locators. Credentials
// come from the default AWS chain and are loaded on first use.
type S3Client struct {
	region string

	once    sync.Once
	api     s3API
	initErr error
}

// NewS3Client creates an S3 client. An empty region defers to the AWS
// environment.
func NewS3Client(region string) *S3Client {
	return &S3Client{region: region}
}

func newS3ClientWithAPI(api s3API) *S3Client {
	c := &S3Client{api: api}
	c.once.Do(func() {})
	return c
}

func (c *S3Client) client(ctx context.Context) (s3API, error) {
	c.once.Do(func() {
		var opts []func(*awsconfig.LoadOptions) error
		if c.region != "" {
			opts = append(opts, awsconfig.WithRegion(c.region))
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			c.initErr = fmt.Errorf("failed to load AWS config: %w", err)
			return
		}
		c.api = s3.NewFromConfig(cfg)
	})
	return c.api, c.initErr
}

func parseS3(source string) (bucket, key string, err error) {
	u, err := url.Parse(source)
	if err != nil {
		return "", "", err
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("s3 locator %q must be s3://bucket/key", source)
	}
	return u.Host, key, nil
}

func (c *S3Client) CanHandleProtocol(source string) bool {
	return strings.HasPrefix(strings.ToLower(source), "s3://")
}

func (c *S3Client) Probe(ctx context.Context, source string) (*ProbeResult, error) {
	bucket, key, err := parseS3(source)
	if err != nil {
		return nil, err
	}
	api, err := c.client(ctx)
	if err != nil {
		return nil, err
	}

	out, err := api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}

	h := http.Header{}
	if cd := aws.ToString(out.ContentDisposition); cd != "" {
		h.Set("Content-Disposition", cd)
	}
	if ct := aws.ToString(out.ContentType); ct != "" {
		h.Set("Content-Type", ct)
	}
	return &ProbeResult{URL: source, Header: h}, nil
}

func (c *S3Client) Open(ctx context.Context, source string) (*Response, error) {
	bucket, key, err := parseS3(source)
	if err != nil {
		return nil, err
	}
	api, err := c.client(ctx)
	if err != nil {
		return nil, err
	}

	out, err := api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}

	h := http.Header{}
	if ct := aws.ToString(out.ContentType); ct != "" {
		h.Set("Content-Type", ct)
	}
	if etag := aws.ToString(out.ETag); etag != "" {
		h.Set("ETag", etag)
	}

	length := int64(-1)
	if out.ContentLength != nil {
		length = *out.ContentLength
	}
	return &Response{Body: out.Body, Header: h, ContentLength: length}, nil
}

func (c *S3Client) ReadString(ctx context.Context, source string) (string, error) {
	resp, err := c.Open(ctx, source)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
