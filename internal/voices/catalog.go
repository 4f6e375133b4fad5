// Package voices resolves human-readable voice names to provider voice ids
// and filters voice listings by gender, locale and tags.
package voices

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/book-expert/logger"
	"github.com/book-expert/speechify-service/internal/core"
)

const logFmtFetchFailed = "Error fetching Speechify voices: %v"

var (
	// ErrInternal is the only error FetchCatalog reports for provider
	// failures; the cause is logged and never returned.
	ErrInternal = errors.New("An internal error has occurred. Please try again later.")
	// ErrVoiceNotFound matches every NotFoundError.
	ErrVoiceNotFound = errors.New("voice not found")
)

// NotFoundError reports a voice name that is absent from the catalog.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Voice %s not found.", e.Name)
}

// Is lets errors.Is(err, ErrVoiceNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrVoiceNotFound
}

// Catalog maps lower-cased voice names to voice ids.
type Catalog map[string]string

// Lookup finds the id for name, ignoring case.
func (c Catalog) Lookup(name string) (string, bool) {
	id, ok := c[strings.ToLower(name)]
	if !ok || id == "" {
		return "", false
	}

	return id, true
}

// Accessor builds catalogs from a voice provider. The catalog is rebuilt on
// every call; nothing is cached.
type Accessor struct {
	provider core.VoiceProvider
	log      *logger.Logger
}

// NewAccessor creates an Accessor over provider.
func NewAccessor(provider core.VoiceProvider, log *logger.Logger) *Accessor {
	return &Accessor{
		provider: provider,
		log:      log,
	}
}

// FetchCatalog lists the provider's voices and indexes them by lower-cased
// name. When two voices share a name the later one in provider order wins.
func (a *Accessor) FetchCatalog(ctx context.Context) (Catalog, error) {
	catalog, _, err := a.FetchOrdered(ctx)

	return catalog, err
}

// FetchOrdered is FetchCatalog also returning the catalog's names in the
// order the provider first listed them.
func (a *Accessor) FetchOrdered(ctx context.Context) (Catalog, []string, error) {
	voices, err := a.provider.ListVoices(ctx)
	if err != nil {
		a.log.Error(logFmtFetchFailed, err)

		return nil, nil, ErrInternal
	}

	catalog := make(Catalog, len(voices))
	names := make([]string, 0, len(voices))

	for _, voice := range voices {
		name := strings.ToLower(voice.Name)
		if _, seen := catalog[name]; !seen {
			names = append(names, name)
		}

		catalog[name] = voice.ID
	}

	return catalog, names, nil
}

// Resolve returns the id of the voice called name, ignoring case.
// Catalog errors are returned unchanged.
func (a *Accessor) Resolve(ctx context.Context, name string) (string, error) {
	catalog, err := a.FetchCatalog(ctx)
	if err != nil {
		return "", err
	}

	id, ok := catalog.Lookup(name)
	if !ok {
		return "", &NotFoundError{Name: name}
	}

	return id, nil
}
