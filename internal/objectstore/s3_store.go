package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/book-expert/speechify-service/internal/core"
)

// S3Options configures an S3 client. Endpoint and static keys are optional;
// without keys the default AWS credential chain is used.
type S3Options struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// NewS3Client builds an S3 client from opts.
func NewS3Client(ctx context.Context, opts S3Options) (*s3.Client, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{}

	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}

	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}

		o.UsePathStyle = opts.UsePathStyle
	}), nil
}

// S3Storage implements core.Storage on Amazon S3 and S3-compatible stores.
type S3Storage struct {
	client        *s3.Client
	region        string
	publicBaseURL string
}

// NewS3Storage wraps client. Public URLs are built from publicBaseURL when
// set, otherwise from the virtual-hosted AWS endpoint for region. An empty
// region falls back to the region the client resolved.
func NewS3Storage(client *s3.Client, region, publicBaseURL string) *S3Storage {
	if region == "" {
		region = client.Options().Region
	}

	return &S3Storage{
		client:        client,
		region:        region,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// Bucket returns a handle to the named bucket.
func (s *S3Storage) Bucket(name string) core.Bucket {
	return &s3Bucket{storage: s, name: name}
}

type s3Bucket struct {
	storage *S3Storage
	name    string
}

func (b *s3Bucket) Object(key string) core.Object {
	return &s3Object{bucket: b, key: key}
}

type s3Object struct {
	bucket *s3Bucket
	key    string
}

func (o *s3Object) Upload(ctx context.Context, data []byte, contentType string) error {
	if o.bucket.name == "" {
		return ErrBucketNameEmpty
	}

	_, err := o.bucket.storage.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(o.bucket.name),
		Key:           aws.String(o.key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("failed to put object '%s' to bucket '%s': %w", o.key, o.bucket.name, err)
	}

	return nil
}

func (o *s3Object) MakePublic(ctx context.Context) error {
	if o.bucket.name == "" {
		return ErrBucketNameEmpty
	}

	_, err := o.bucket.storage.client.PutObjectAcl(ctx, &s3.PutObjectAclInput{
		Bucket: aws.String(o.bucket.name),
		Key:    aws.String(o.key),
		ACL:    types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return fmt.Errorf("failed to make object '%s' public: %w", o.key, err)
	}

	return nil
}

func (o *s3Object) PublicURL() string {
	if o.bucket.storage.publicBaseURL != "" {
		return publicURL(o.bucket.storage.publicBaseURL, o.bucket.name, o.key)
	}

	host := "https://" + o.bucket.name + ".s3.amazonaws.com"
	if o.bucket.storage.region != "" {
		host = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", o.bucket.name, o.bucket.storage.region)
	}

	return host + "/" + escapeKeyPath(o.key)
}

// escapeKeyPath escapes each segment of an S3 key, keeping separators.
func escapeKeyPath(key string) string {
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}

	return strings.Join(segments, "/")
}
