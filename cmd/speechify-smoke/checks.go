package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/book-expert/logger"
	"github.com/book-expert/speechify-service/internal/core"
	"github.com/book-expert/speechify-service/internal/synthesis"
	"github.com/book-expert/speechify-service/internal/voices"
)

const (
	sampleSize = 5
	sampleText = "Hello, this is a test of the Speechify text-to-speech API!"
)

var (
	errNoVoices  = errors.New("no voices returned")
	errNoAudio   = errors.New("no audio data received")
	errNoURL     = errors.New("no audio URL returned")
	errNoStorage = errors.New("storage is not configured")
)

// env holds the collaborators the checks run against. storageErr records
// why pipeline is nil when storage was requested but could not be opened.
type env struct {
	out        io.Writer
	log        *logger.Logger
	provider   core.VoiceProvider
	pipeline   *synthesis.Pipeline
	storageErr error
}

// check is one named smoke test.
type check struct {
	name string
	run  func(ctx context.Context, e *env) error
}

func (e *env) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(e.out, format, args...)
}

// checkVoices fetches the catalog and prints a sample in provider order.
func checkVoices(ctx context.Context, e *env) error {
	catalog, names, err := voices.NewAccessor(e.provider, e.log).FetchOrdered(ctx)
	if err != nil {
		return err
	}

	if len(catalog) == 0 {
		return errNoVoices
	}

	e.printf("Fetched %d voices\n", len(catalog))

	for _, name := range names[:min(sampleSize, len(names))] {
		e.printf("   - %s: %s\n", name, catalog[name])
	}

	if len(names) > sampleSize {
		e.printf("   ... and %d more voices\n", len(names)-sampleSize)
	}

	return nil
}

// checkAPI calls the provider directly with the first listed voice.
func checkAPI(ctx context.Context, e *env) error {
	listed, err := e.provider.ListVoices(ctx)
	if err != nil {
		return fmt.Errorf("failed to list voices: %w", err)
	}

	if len(listed) == 0 {
		return errNoVoices
	}

	voice := listed[0]
	e.printf("   Testing with voice: %s (%s)\n", voice.Name, voice.ID)

	resp, err := e.provider.Speech(ctx, synthesis.NewSpeechRequest(sampleText, voice.ID))
	if err != nil {
		return fmt.Errorf("speech request failed: %w", err)
	}

	if !resp.HasAudio() {
		return errNoAudio
	}

	e.printf("Generated audio data (%d characters)\n", len(*resp.AudioData))
	e.printf("   Audio format: %s\n", resp.AudioFormat)
	e.printf("   Billable characters: %d\n", resp.BillableCharactersCount)

	return nil
}

// speakCheck synthesizes text with voiceName, or with the first voice the
// provider lists when voiceName is empty, and prints the public URL.
func speakCheck(text, voiceName string) func(ctx context.Context, e *env) error {
	return func(ctx context.Context, e *env) error {
		if e.pipeline == nil {
			if e.storageErr != nil {
				return fmt.Errorf("%w: %w", errNoStorage, e.storageErr)
			}

			return errNoStorage
		}

		name := voiceName
		if name == "" {
			_, names, err := e.pipeline.Voices().FetchOrdered(ctx)
			if err != nil {
				return err
			}

			if len(names) == 0 {
				return errNoVoices
			}

			name = names[0]
		}

		e.printf("   Testing with voice: %s\n", name)
		e.printf("   Test text: %s\n", text)

		url, err := e.pipeline.Synthesize(ctx, text, name)
		if err != nil {
			return err
		}

		if url == "" {
			return errNoURL
		}

		e.printf("Generated audio: %s\n", url)

		return nil
	}
}

// filterCheck prints the ids of voices matching criteria.
func filterCheck(criteria voices.Criteria) func(ctx context.Context, e *env) error {
	return func(ctx context.Context, e *env) error {
		listed, err := e.provider.ListVoices(ctx)
		if err != nil {
			return fmt.Errorf("failed to list voices: %w", err)
		}

		ids := voices.Filter(listed, criteria)
		e.printf("%d of %d voices match\n", len(ids), len(listed))

		for _, id := range ids {
			e.printf("   - %s\n", id)
		}

		return nil
	}
}

// runChecks runs every check, prints pass or fail for each and a summary,
// and returns the number of failures.
func runChecks(ctx context.Context, e *env, checks []check) int {
	passed := 0

	for _, c := range checks {
		e.printf("Testing %s...\n", c.name)

		err := c.run(ctx, e)
		if err != nil {
			e.printf("FAIL %s: %v\n\n", c.name, err)

			continue
		}

		e.printf("PASS %s\n\n", c.name)
		passed++
	}

	e.printf("Test Results: %d/%d tests passed\n", passed, len(checks))

	return len(checks) - passed
}
