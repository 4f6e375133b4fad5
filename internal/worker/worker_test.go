// Package worker_test tests the NATS worker for the speechify-service.
package worker_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/logger"
	"github.com/book-expert/speechify-service/internal/synthesis"
	"github.com/book-expert/speechify-service/internal/worker"
	"github.com/google/uuid"
	"github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSubject    = "test_subject"
	requestTimeout = 5 * time.Second
)

var (
	errMockDownload   = errors.New("mock download error")
	errMockSynthesize = errors.New("Error generating audio: mock failure")
)

// mockObjectStore is a mock implementation of the ObjectStore interface.
type mockObjectStore struct {
	mu                 sync.Mutex
	downloadShouldFail bool
	text               string
	downloadedKey      string
}

func (m *mockObjectStore) Download(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.downloadShouldFail {
		return nil, errMockDownload
	}

	m.downloadedKey = key

	return []byte(m.text), nil
}

func (m *mockObjectStore) Upload(_ context.Context, _ string, _ []byte) error {
	return nil
}

// mockSynthesizer is a mock implementation of the Synthesizer interface.
type mockSynthesizer struct {
	mu         sync.Mutex
	shouldFail bool
	text       string
	voice      string
}

func (m *mockSynthesizer) SynthesizeDetailed(_ context.Context, text, voiceName string) (*synthesis.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shouldFail {
		return nil, errMockSynthesize
	}

	m.text = text
	m.voice = voiceName

	return &synthesis.Result{
		ObjectKey: "tts_fixed.mp3",
		PublicURL: "https://storage.example.com/audio/tts_fixed.mp3",
	}, nil
}

func createTestNatsClient(t *testing.T) *nats.Conn {
	t.Helper()

	opts := test.DefaultTestOptions
	opts.Port = -1 // Use a random port
	server := test.RunServer(&opts)

	natsConnection, err := nats.Connect(server.ClientURL())
	if err != nil {
		t.Fatalf("Failed to connect to test NATS server: %v", err)
	}

	t.Cleanup(func() {
		natsConnection.Close()
		server.Shutdown()
	})

	return natsConnection
}

// startWorker runs a worker until the test ends and returns a connection
// for sending requests.
func startWorker(t *testing.T, store *mockObjectStore, synthesizer *mockSynthesizer) *nats.Conn {
	t.Helper()

	natsConnection := createTestNatsClient(t)

	testLogger, err := logger.New(t.TempDir(), "worker-test.log")
	require.NoError(t, err)

	workerInstance := worker.NewNatsWorker(natsConnection, testSubject, store, synthesizer, testLogger)

	ctx, cancel := context.WithCancel(context.Background())
	errChan := make(chan error, 1)

	go func() {
		errChan <- workerInstance.Run(ctx)
	}()

	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-errChan, "worker.Run should not error on graceful shutdown")
		_ = testLogger.Close()
	})

	require.Eventually(t, func() bool {
		return natsConnection.NumSubscriptions() > 0
	}, requestTimeout, 10*time.Millisecond)

	return natsConnection
}

func newEvent(textKey, voice string) *events.TextProcessedEvent {
	return &events.TextProcessedEvent{
		Header: events.EventHeader{
			Timestamp:  time.Now(),
			WorkflowID: uuid.NewString(),
			EventID:    uuid.NewString(),
			UserID:     "",
			TenantID:   "",
		},
		TextKey:    textKey,
		PageNumber: 3,
		TotalPages: 10,
		Voice:      voice,
	}
}

func request(t *testing.T, natsConnection *nats.Conn, event *events.TextProcessedEvent) *nats.Msg {
	t.Helper()

	eventData, err := json.Marshal(event)
	require.NoError(t, err)

	replyMsg, err := natsConnection.Request(testSubject, eventData, requestTimeout)
	require.NoError(t, err, "Request should succeed and receive a reply")

	return replyMsg
}

func TestMessageHandler_Success(t *testing.T) {
	t.Parallel()

	store := &mockObjectStore{text: "  Hello from the book.  "}
	synthesizer := &mockSynthesizer{}
	natsConnection := startWorker(t, store, synthesizer)

	event := newEvent("text/page-3.txt", "Henry")
	replyMsg := request(t, natsConnection, event)

	assert.Empty(t, replyMsg.Header.Get(worker.HeaderError))

	var replyEvent events.AudioChunkCreatedEvent

	require.NoError(t, json.Unmarshal(replyMsg.Data, &replyEvent))

	store.mu.Lock()
	assert.Equal(t, "text/page-3.txt", store.downloadedKey)
	store.mu.Unlock()

	synthesizer.mu.Lock()
	assert.Equal(t, "Hello from the book.", synthesizer.text)
	assert.Equal(t, "Henry", synthesizer.voice)
	synthesizer.mu.Unlock()

	assert.Equal(t, "https://storage.example.com/audio/tts_fixed.mp3", replyEvent.AudioKey)
	assert.Equal(t, event.Header.WorkflowID, replyEvent.Header.WorkflowID)
	assert.Equal(t, event.PageNumber, replyEvent.PageNumber)
	assert.Equal(t, event.TotalPages, replyEvent.TotalPages)
}

func TestMessageHandler_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		store       *mockObjectStore
		synthesizer *mockSynthesizer
		event       *events.TextProcessedEvent
		wantErr     string
	}{
		{
			name:        "missing text key",
			store:       &mockObjectStore{text: "hi"},
			synthesizer: &mockSynthesizer{},
			event:       newEvent("", "Henry"),
			wantErr:     worker.ErrTextKeyEmpty.Error(),
		},
		{
			name:        "missing voice",
			store:       &mockObjectStore{text: "hi"},
			synthesizer: &mockSynthesizer{},
			event:       newEvent("k", ""),
			wantErr:     worker.ErrVoiceEmpty.Error(),
		},
		{
			name:        "download failure",
			store:       &mockObjectStore{downloadShouldFail: true},
			synthesizer: &mockSynthesizer{},
			event:       newEvent("k", "Henry"),
			wantErr:     "failed to download text data for key 'k': mock download error",
		},
		{
			name:        "blank text",
			store:       &mockObjectStore{text: " \n "},
			synthesizer: &mockSynthesizer{},
			event:       newEvent("k", "Henry"),
			wantErr:     "text cannot be empty: key 'k'",
		},
		{
			name:        "synthesis failure",
			store:       &mockObjectStore{text: "hi"},
			synthesizer: &mockSynthesizer{shouldFail: true},
			event:       newEvent("k", "Henry"),
			wantErr:     "Error generating audio: mock failure",
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			natsConnection := startWorker(t, testCase.store, testCase.synthesizer)

			replyMsg := request(t, natsConnection, testCase.event)
			assert.Empty(t, replyMsg.Data)
			assert.Equal(t, testCase.wantErr, replyMsg.Header.Get(worker.HeaderError))
		})
	}
}
