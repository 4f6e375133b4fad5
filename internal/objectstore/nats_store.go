package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"strings"
	"sync"

	"github.com/book-expert/speechify-service/internal/core"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Object metadata keys written by the NATS backend.
const (
	headerContentType = "Content-Type"
	metaVisibility    = "visibility"
	visibilityPublic  = "public"
)

// NatsObjectStore implements core.ObjectStore on one NATS JetStream bucket.
type NatsObjectStore struct {
	jetstreamContext nats.JetStreamContext
	bucket           string
	store            nats.ObjectStore
}

// New creates the bucket, or binds to it when it already exists.
func New(jetstreamContext nats.JetStreamContext, bucketName string) (*NatsObjectStore, error) {
	if bucketName == "" {
		return nil, ErrBucketNameEmpty
	}

	store, err := jetstreamContext.CreateObjectStore(&nats.ObjectStoreConfig{
		Bucket:      bucketName,
		Description: fmt.Sprintf("Storage for the %s bucket.", bucketName),
		TTL:         0,
		MaxBytes:    0,
		Storage:     nats.FileStorage,
		Replicas:    1,
		Placement:   nil,
		Metadata:    nil,
		Compression: false,
	})
	if err != nil {
		if !errors.Is(err, jetstream.ErrBucketExists) && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
			return nil, fmt.Errorf("failed to create object store bucket '%s': %w", bucketName, err)
		}

		store, err = jetstreamContext.ObjectStore(bucketName)
		if err != nil {
			return nil, fmt.Errorf("failed to bind to existing object store bucket '%s': %w", bucketName, err)
		}
	}

	return &NatsObjectStore{
		jetstreamContext: jetstreamContext,
		bucket:           bucketName,
		store:            store,
	}, nil
}

// Download retrieves an object from the NATS object store.
func (n *NatsObjectStore) Download(_ context.Context, key string) ([]byte, error) {
	obj, err := n.store.Get(key)
	if err != nil {
		return nil, fmt.Errorf("failed to get object '%s' from bucket '%s': %w", key, n.bucket, err)
	}

	data, readErr := io.ReadAll(obj)
	closeErr := obj.Close()

	if readErr != nil {
		return nil, fmt.Errorf("failed to read object '%s': %w", key, readErr)
	}

	if closeErr != nil {
		return data, fmt.Errorf("failed to close object '%s': %w", key, closeErr)
	}

	return data, nil
}

// Upload saves an object without a content type.
func (n *NatsObjectStore) Upload(ctx context.Context, key string, data []byte) error {
	return n.put(ctx, key, data, "")
}

func (n *NatsObjectStore) put(_ context.Context, key string, data []byte, contentType string) error {
	var headers nats.Header
	if contentType != "" {
		headers = nats.Header{}
		headers.Set(headerContentType, contentType)
	}

	_, err := n.store.Put(&nats.ObjectMeta{
		Name:        key,
		Description: "",
		Headers:     headers,
		Metadata:    nil,
		Opts:        nil,
	}, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to put object '%s' to bucket '%s': %w", key, n.bucket, err)
	}

	return nil
}

// markPublic records public visibility in the object's metadata. JetStream
// has no ACLs; the gateway serving publicBaseURL honours this flag.
func (n *NatsObjectStore) markPublic(key string) error {
	info, err := n.store.GetInfo(key)
	if err != nil {
		return fmt.Errorf("failed to stat object '%s' in bucket '%s': %w", key, n.bucket, err)
	}

	meta := info.ObjectMeta

	metadata := make(map[string]string, len(meta.Metadata)+1)
	maps.Copy(metadata, meta.Metadata)
	metadata[metaVisibility] = visibilityPublic
	meta.Metadata = metadata

	err = n.store.UpdateMeta(key, &meta)
	if err != nil {
		return fmt.Errorf("failed to make object '%s' public: %w", key, err)
	}

	return nil
}

// NatsStorage implements core.Storage on NATS JetStream object stores,
// opening each bucket on first use.
type NatsStorage struct {
	jetstreamContext nats.JetStreamContext
	publicBaseURL    string

	mu      sync.Mutex
	buckets map[string]*NatsObjectStore
}

// NewNatsStorage creates a NatsStorage whose public URLs are rooted at
// publicBaseURL.
func NewNatsStorage(jetstreamContext nats.JetStreamContext, publicBaseURL string) *NatsStorage {
	return &NatsStorage{
		jetstreamContext: jetstreamContext,
		publicBaseURL:    strings.TrimRight(publicBaseURL, "/"),
		buckets:          make(map[string]*NatsObjectStore),
	}
}

// Open returns the store for bucketName, creating it if needed.
func (s *NatsStorage) Open(bucketName string) (*NatsObjectStore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if store, ok := s.buckets[bucketName]; ok {
		return store, nil
	}

	store, err := New(s.jetstreamContext, bucketName)
	if err != nil {
		return nil, err
	}

	s.buckets[bucketName] = store

	return store, nil
}

// Bucket returns a handle to the named bucket.
func (s *NatsStorage) Bucket(name string) core.Bucket {
	return &natsBucket{storage: s, name: name}
}

type natsBucket struct {
	storage *NatsStorage
	name    string
}

func (b *natsBucket) Object(key string) core.Object {
	return &natsObject{bucket: b, key: key}
}

type natsObject struct {
	bucket *natsBucket
	key    string
}

func (o *natsObject) Upload(ctx context.Context, data []byte, contentType string) error {
	store, err := o.bucket.storage.Open(o.bucket.name)
	if err != nil {
		return err
	}

	return store.put(ctx, o.key, data, contentType)
}

func (o *natsObject) MakePublic(_ context.Context) error {
	store, err := o.bucket.storage.Open(o.bucket.name)
	if err != nil {
		return err
	}

	return store.markPublic(o.key)
}

func (o *natsObject) PublicURL() string {
	return publicURL(o.bucket.storage.publicBaseURL, o.bucket.name, o.key)
}
