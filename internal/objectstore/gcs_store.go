// Package objectstore implements the core.Storage interface on Google Cloud
// Storage, Amazon S3 and NATS JetStream object stores.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/book-expert/speechify-service/internal/core"
)

// DefaultGCSPublicBaseURL serves objects of publicly readable GCS buckets.
const DefaultGCSPublicBaseURL = "https://storage.googleapis.com"

// ErrBucketNameEmpty is returned by uploads into a bucket with no name.
var ErrBucketNameEmpty = errors.New("storage bucket name is not configured")

// GCSStorage implements core.Storage on Google Cloud Storage.
type GCSStorage struct {
	client        *storage.Client
	publicBaseURL string
}

// NewGCSStorage wraps an existing client. An empty publicBaseURL selects
// DefaultGCSPublicBaseURL.
func NewGCSStorage(client *storage.Client, publicBaseURL string) *GCSStorage {
	if publicBaseURL == "" {
		publicBaseURL = DefaultGCSPublicBaseURL
	}

	return &GCSStorage{
		client:        client,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// NewGCSClient creates a client from Application Default Credentials.
func NewGCSClient(ctx context.Context) (*storage.Client, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return client, nil
}

// Close releases the underlying client.
func (g *GCSStorage) Close() error {
	return g.client.Close()
}

// Bucket returns a handle to the named bucket.
func (g *GCSStorage) Bucket(name string) core.Bucket {
	return &gcsBucket{storage: g, name: name}
}

type gcsBucket struct {
	storage *GCSStorage
	name    string
}

func (b *gcsBucket) Object(key string) core.Object {
	return &gcsObject{bucket: b, key: key}
}

type gcsObject struct {
	bucket *gcsBucket
	key    string
}

func (o *gcsObject) handle() (*storage.ObjectHandle, error) {
	if o.bucket.name == "" {
		return nil, ErrBucketNameEmpty
	}

	return o.bucket.storage.client.Bucket(o.bucket.name).Object(o.key), nil
}

func (o *gcsObject) Upload(ctx context.Context, data []byte, contentType string) error {
	handle, err := o.handle()
	if err != nil {
		return err
	}

	writer := handle.NewWriter(ctx)
	writer.ContentType = contentType

	_, err = writer.Write(data)
	if err != nil {
		_ = writer.Close()

		return fmt.Errorf("failed to write object '%s' to bucket '%s': %w", o.key, o.bucket.name, err)
	}

	err = writer.Close()
	if err != nil {
		return fmt.Errorf("failed to finalize object '%s' in bucket '%s': %w", o.key, o.bucket.name, err)
	}

	return nil
}

func (o *gcsObject) MakePublic(ctx context.Context) error {
	handle, err := o.handle()
	if err != nil {
		return err
	}

	err = handle.ACL().Set(ctx, storage.AllUsers, storage.RoleReader)
	if err != nil {
		return fmt.Errorf("failed to make object '%s' public: %w", o.key, err)
	}

	return nil
}

func (o *gcsObject) PublicURL() string {
	return publicURL(o.bucket.storage.publicBaseURL, o.bucket.name, o.key)
}

// publicURL joins base, bucket and an escaped key the way GCS public links
// are formed.
func publicURL(base, bucket, key string) string {
	return base + "/" + bucket + "/" + url.PathEscape(key)
}
