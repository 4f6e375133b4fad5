package objectstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/book-expert/speechify-service/internal/config"
	"github.com/book-expert/speechify-service/internal/core"
	"github.com/nats-io/nats.go"
)

// ErrJetStreamRequired is returned when the NATS backend is selected
// without a JetStream context.
var ErrJetStreamRequired = errors.New("nats storage backend requires a JetStream connection")

// Open builds the storage backend cfg selects. The returned close function
// is never nil.
func Open(
	ctx context.Context,
	cfg config.StorageConfig,
	jetstreamContext nats.JetStreamContext,
) (core.Storage, func() error, error) {
	noop := func() error { return nil }

	err := cfg.Validate()
	if err != nil {
		return nil, noop, err
	}

	switch cfg.Backend {
	case config.BackendGCS:
		client, err := NewGCSClient(ctx)
		if err != nil {
			return nil, noop, err
		}

		store := NewGCSStorage(client, cfg.PublicBaseURL)

		return store, store.Close, nil
	case config.BackendS3:
		client, err := NewS3Client(ctx, S3Options{
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			UsePathStyle:    cfg.S3.UsePathStyle,
		})
		if err != nil {
			return nil, noop, err
		}

		return NewS3Storage(client, cfg.S3.Region, cfg.PublicBaseURL), noop, nil
	case config.BackendNATS:
		if jetstreamContext == nil {
			return nil, noop, ErrJetStreamRequired
		}

		return NewNatsStorage(jetstreamContext, cfg.PublicBaseURL), noop, nil
	default:
		return nil, noop, fmt.Errorf("%w: '%s'", config.ErrUnknownBackend, cfg.Backend)
	}
}
