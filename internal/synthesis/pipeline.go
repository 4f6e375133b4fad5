// Package synthesis turns text into a publicly readable MP3 object: it
// resolves the voice, calls the provider, decodes the audio and uploads it.
package synthesis

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/book-expert/logger"
	"github.com/book-expert/speechify-service/internal/core"
	"github.com/book-expert/speechify-service/internal/speechify"
	"github.com/book-expert/speechify-service/internal/voices"
	"github.com/google/uuid"
)

// Fixed synthesis parameters.
const (
	AudioFormat      = "mp3"
	Language         = "en-US"
	Model            = "simba-english"
	AudioContentType = "audio/mpeg"

	objectKeyPrefix = "tts_"
	objectKeySuffix = "." + AudioFormat
)

// Log messages.
const (
	logFmtSynthesisFailed = "Error in Speechify TTS: %v"
	logFmtUploaded        = "Uploaded %s (%d bytes, %d billable characters)"
)

// ErrNoAudioData is returned when the provider answers without a payload.
var ErrNoAudioData = errors.New("No audio data received from Speechify API")

// Error wraps a failure in the synthesis, decode or upload step. Its text
// carries the cause verbatim.
type Error struct {
	Err error
}

func (e *Error) Error() string {
	return "Error generating audio: " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Result describes one uploaded synthesis.
type Result struct {
	ObjectKey          string
	PublicURL          string
	AudioBytes         int
	BillableCharacters int
}

// Pipeline runs text-to-speech requests end to end. All collaborators are
// injected; the pipeline holds no mutable state.
type Pipeline struct {
	accessor *voices.Accessor
	provider core.VoiceProvider
	storage  core.Storage
	bucket   string
	log      *logger.Logger
}

// New creates a Pipeline that uploads into bucket of storage.
func New(provider core.VoiceProvider, storage core.Storage, bucket string, log *logger.Logger) *Pipeline {
	return &Pipeline{
		accessor: voices.NewAccessor(provider, log),
		provider: provider,
		storage:  storage,
		bucket:   bucket,
		log:      log,
	}
}

// NewObjectKey returns a fresh key of the form tts_<uuid>.mp3.
func NewObjectKey() string {
	return objectKeyPrefix + uuid.NewString() + objectKeySuffix
}

// Voices exposes the catalog accessor the pipeline resolves names with.
func (p *Pipeline) Voices() *voices.Accessor {
	return p.accessor
}

// Synthesize speaks text with the named voice and returns the public URL
// of the uploaded MP3.
func (p *Pipeline) Synthesize(ctx context.Context, text, voiceName string) (string, error) {
	result, err := p.SynthesizeDetailed(ctx, text, voiceName)
	if err != nil {
		return "", err
	}

	return result.PublicURL, nil
}

// SynthesizeDetailed is Synthesize returning the full Result.
func (p *Pipeline) SynthesizeDetailed(ctx context.Context, text, voiceName string) (*Result, error) {
	voiceID, err := p.accessor.Resolve(ctx, voiceName)
	if err != nil {
		return nil, err
	}

	resp, err := p.provider.Speech(ctx, NewSpeechRequest(text, voiceID))
	if err != nil {
		return nil, p.fail(err)
	}

	if !resp.HasAudio() {
		return nil, ErrNoAudioData
	}

	audio, err := base64.StdEncoding.DecodeString(*resp.AudioData)
	if err != nil {
		return nil, p.fail(fmt.Errorf("failed to decode audio payload: %w", err))
	}

	key := NewObjectKey()

	object := p.storage.Bucket(p.bucket).Object(key)

	err = object.Upload(ctx, audio, AudioContentType)
	if err != nil {
		return nil, p.fail(err)
	}

	err = object.MakePublic(ctx)
	if err != nil {
		return nil, p.fail(err)
	}

	p.log.Info(logFmtUploaded, key, len(audio), resp.BillableCharactersCount)

	return &Result{
		ObjectKey:          key,
		PublicURL:          object.PublicURL(),
		AudioBytes:         len(audio),
		BillableCharacters: resp.BillableCharactersCount,
	}, nil
}

// NewSpeechRequest builds the provider request with the fixed format,
// language, model and options.
func NewSpeechRequest(text, voiceID string) speechify.SpeechRequest {
	return speechify.SpeechRequest{
		Input:       text,
		VoiceID:     voiceID,
		AudioFormat: AudioFormat,
		Language:    Language,
		Model:       Model,
		Options: speechify.SpeechOptions{
			LoudnessNormalization: false,
			TextNormalization:     true,
		},
	}
}

func (p *Pipeline) fail(err error) error {
	p.log.Error(logFmtSynthesisFailed, err)

	return &Error{Err: err}
}
