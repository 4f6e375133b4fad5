package voices

import (
	"slices"
	"strings"

	"github.com/book-expert/speechify-service/internal/speechify"
)

// Criteria narrows a voice listing. Zero-valued fields are not applied.
type Criteria struct {
	// Gender matches the voice's gender ignoring case.
	Gender string
	// Locale must equal, case-sensitively, the locale of at least one
	// language of at least one model of the voice.
	Locale string
	// Tags must all be present on the voice.
	Tags []string
}

// Filter returns the ids of voices matching criteria, in input order.
// Duplicate voices yield duplicate ids.
func Filter(voices []speechify.Voice, criteria Criteria) []string {
	ids := make([]string, 0, len(voices))

	for _, voice := range voices {
		if criteria.matches(voice) {
			ids = append(ids, voice.ID)
		}
	}

	return ids
}

func (c Criteria) matches(voice speechify.Voice) bool {
	if c.Gender != "" && !strings.EqualFold(voice.Gender, c.Gender) {
		return false
	}

	if c.Locale != "" && !supportsLocale(voice, c.Locale) {
		return false
	}

	for _, tag := range c.Tags {
		if !slices.Contains(voice.Tags, tag) {
			return false
		}
	}

	return true
}

func supportsLocale(voice speechify.Voice, locale string) bool {
	for _, model := range voice.Models {
		for _, language := range model.Languages {
			if language.Locale == locale {
				return true
			}
		}
	}

	return false
}
