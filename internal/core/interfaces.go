// Package core defines the interfaces that connect the speech pipeline to
// its external collaborators.
package core

import (
	"context"

	"github.com/book-expert/speechify-service/internal/speechify"
)

// VoiceProvider is the subset of the TTS provider API the service uses.
type VoiceProvider interface {
	ListVoices(ctx context.Context) ([]speechify.Voice, error)
	Speech(ctx context.Context, req speechify.SpeechRequest) (*speechify.SpeechResponse, error)
}

// Storage hands out buckets of an object store.
type Storage interface {
	Bucket(name string) Bucket
}

// Bucket hands out handles to objects inside a single bucket.
type Bucket interface {
	Object(key string) Object
}

// Object is a handle to one stored object. Creating a handle performs no I/O.
type Object interface {
	Upload(ctx context.Context, data []byte, contentType string) error
	MakePublic(ctx context.Context) error
	PublicURL() string
}

// ObjectStore is a single-bucket key-value blob store.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
}
