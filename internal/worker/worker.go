// Package worker provides a NATS worker that turns stored text into public
// speech audio.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/logger"
	"github.com/book-expert/speechify-service/internal/core"
	"github.com/book-expert/speechify-service/internal/synthesis"
	"github.com/nats-io/nats.go"
)

const handleMessageTimeout = 60 * time.Second

// HeaderError carries the failure text on error replies.
const HeaderError = "Speechify-Error"

var (
	// ErrTextKeyEmpty indicates that the event names no text object.
	ErrTextKeyEmpty = errors.New("text key cannot be empty")
	// ErrVoiceEmpty indicates that the event names no voice.
	ErrVoiceEmpty = errors.New("voice cannot be empty")
	// ErrTextEmpty indicates that the referenced text object is blank.
	ErrTextEmpty = errors.New("text cannot be empty")
)

// Synthesizer runs one text-to-speech request end to end.
type Synthesizer interface {
	SynthesizeDetailed(ctx context.Context, text, voiceName string) (*synthesis.Result, error)
}

// NatsWorker listens for TTS jobs on a NATS subject and processes them.
type NatsWorker struct {
	natsConnection *nats.Conn
	subject        string
	store          core.ObjectStore
	synthesizer    Synthesizer
	log            *logger.Logger
}

// NewNatsWorker creates a new instance of a NATS worker. Text named by
// incoming events is read from store.
func NewNatsWorker(
	natsConnection *nats.Conn,
	subject string,
	store core.ObjectStore,
	synthesizer Synthesizer,
	log *logger.Logger,
) *NatsWorker {
	return &NatsWorker{
		natsConnection: natsConnection,
		subject:        subject,
		store:          store,
		synthesizer:    synthesizer,
		log:            log,
	}
}

// Run starts the worker and blocks until ctx is done.
func (w *NatsWorker) Run(ctx context.Context) error {
	sub, err := w.natsConnection.Subscribe(w.subject, w.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", w.subject, err)
	}

	w.log.Info("Listening for speech jobs on subject: %s", w.subject)

	<-ctx.Done()

	drainErr := sub.Drain()
	if drainErr != nil {
		return fmt.Errorf("failed to drain subscription: %w", drainErr)
	}

	return nil
}

func (w *NatsWorker) handleMessage(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handleMessageTimeout)
	defer cancel()

	event, err := parseAndValidateEvent(msg)
	if err != nil {
		w.log.Error("Failed to parse and validate event: %v", err)
		w.respondError(msg, err)

		return
	}

	result, err := w.processJob(ctx, event)
	if err != nil {
		w.log.Error("Failed to process speech job for workflow %s: %v", event.Header.WorkflowID, err)
		w.respondError(msg, err)

		return
	}

	replyEvent := &events.AudioChunkCreatedEvent{
		Header:     event.Header,
		AudioKey:   result.PublicURL,
		PageNumber: event.PageNumber,
		TotalPages: event.TotalPages,
	}

	err = w.publishReplyEvent(msg, replyEvent)
	if err != nil {
		w.log.Error("Failed to publish reply event for workflow %s: %v", event.Header.WorkflowID, err)
	}
}

// processJob downloads the text and runs it through the synthesizer.
func (w *NatsWorker) processJob(ctx context.Context, event *events.TextProcessedEvent) (*synthesis.Result, error) {
	textData, err := w.store.Download(ctx, event.TextKey)
	if err != nil {
		return nil, fmt.Errorf("failed to download text data for key '%s': %w", event.TextKey, err)
	}

	text := strings.TrimSpace(string(textData))
	if text == "" {
		return nil, fmt.Errorf("%w: key '%s'", ErrTextEmpty, event.TextKey)
	}

	result, err := w.synthesizer.SynthesizeDetailed(ctx, text, event.Voice)
	if err != nil {
		return nil, err
	}

	w.log.Info("Workflow %s: %s -> %s", event.Header.WorkflowID, event.TextKey, result.PublicURL)

	return result, nil
}

// publishReplyEvent marshals and responds with the AudioChunkCreatedEvent.
func (w *NatsWorker) publishReplyEvent(msg *nats.Msg, replyEvent *events.AudioChunkCreatedEvent) error {
	replyData, err := json.Marshal(replyEvent)
	if err != nil {
		return fmt.Errorf("failed to marshal reply event: %w", err)
	}

	err = msg.Respond(replyData)
	if err != nil {
		return fmt.Errorf("failed to publish reply event: %w", err)
	}

	return nil
}

// respondError replies with an empty body and the failure in HeaderError.
// Fire-and-forget messages have no reply subject and get no reply.
func (w *NatsWorker) respondError(msg *nats.Msg, cause error) {
	if msg.Reply == "" {
		return
	}

	reply := nats.NewMsg(msg.Reply)
	reply.Header.Set(HeaderError, cause.Error())

	err := msg.RespondMsg(reply)
	if err != nil {
		w.log.Error("Failed to publish error reply: %v", err)
	}
}

func parseAndValidateEvent(msg *nats.Msg) (*events.TextProcessedEvent, error) {
	var event events.TextProcessedEvent

	err := json.Unmarshal(msg.Data, &event)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	if event.TextKey == "" {
		return nil, ErrTextKeyEmpty
	}

	if event.Voice == "" {
		return nil, ErrVoiceEmpty
	}

	return &event, nil
}
