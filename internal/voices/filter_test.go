package voices_test

import (
	"testing"

	"github.com/book-expert/speechify-service/internal/speechify"
	"github.com/book-expert/speechify-service/internal/voices"
	"github.com/stretchr/testify/assert"
)

func englishModel(locales ...string) speechify.Model {
	languages := make([]speechify.Language, 0, len(locales))
	for _, locale := range locales {
		languages = append(languages, speechify.Language{Locale: locale})
	}

	return speechify.Model{Name: "simba-english", Languages: languages}
}

func sampleVoices() []speechify.Voice {
	return []speechify.Voice{
		{
			ID:     "henry",
			Name:   "Henry",
			Gender: "male",
			Models: []speechify.Model{englishModel("en-US")},
			Tags:   []string{"timbre:deep", "use-case:advertisement"},
		},
		{
			ID:     "ava",
			Name:   "Ava",
			Gender: "Female",
			Models: []speechify.Model{englishModel("en-GB"), {Name: "simba-multilingual", Languages: []speechify.Language{{Locale: "fr-FR"}}}},
			Tags:   []string{"timbre:warm"},
		},
		{
			ID:     "nomodel",
			Name:   "Silent",
			Gender: "male",
		},
	}
}

func TestFilter_NoCriteriaKeepsOrderAndDuplicates(t *testing.T) {
	t.Parallel()

	input := sampleVoices()
	input = append(input, input[0])

	got := voices.Filter(input, voices.Criteria{})
	assert.Equal(t, []string{"henry", "ava", "nomodel", "henry"}, got)
}

func TestFilter_EmptyInput(t *testing.T) {
	t.Parallel()

	assert.Empty(t, voices.Filter(nil, voices.Criteria{Gender: "male"}))
}

func TestFilter_Gender(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		gender string
		want   []string
	}{
		{name: "lower case", gender: "male", want: []string{"henry", "nomodel"}},
		{name: "upper case", gender: "MALE", want: []string{"henry", "nomodel"}},
		{name: "voice field mixed case", gender: "female", want: []string{"ava"}},
		{name: "no match", gender: "neutral", want: []string{}},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			got := voices.Filter(sampleVoices(), voices.Criteria{Gender: testCase.gender})
			assert.Equal(t, testCase.want, got)
		})
	}
}

func TestFilter_GenderOwnValueAlwaysIncludes(t *testing.T) {
	t.Parallel()

	for _, voice := range sampleVoices() {
		got := voices.Filter([]speechify.Voice{voice}, voices.Criteria{Gender: voice.Gender})
		assert.Equal(t, []string{voice.ID}, got)
	}
}

func TestFilter_Locale(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		locale string
		want   []string
	}{
		{name: "first model", locale: "en-US", want: []string{"henry"}},
		{name: "second model", locale: "fr-FR", want: []string{"ava"}},
		{name: "case sensitive", locale: "en-us", want: []string{}},
		{name: "unknown", locale: "de-DE", want: []string{}},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			got := voices.Filter(sampleVoices(), voices.Criteria{Locale: testCase.locale})
			assert.Equal(t, testCase.want, got)
		})
	}
}

func TestFilter_Tags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		tags []string
		want []string
	}{
		{name: "single subset", tags: []string{"timbre:deep"}, want: []string{"henry"}},
		{name: "full set", tags: []string{"use-case:advertisement", "timbre:deep"}, want: []string{"henry"}},
		{name: "one missing", tags: []string{"timbre:deep", "timbre:warm"}, want: []string{}},
		{name: "case sensitive", tags: []string{"Timbre:Deep"}, want: []string{}},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			got := voices.Filter(sampleVoices(), voices.Criteria{Tags: testCase.tags})
			assert.Equal(t, testCase.want, got)
		})
	}
}

func TestFilter_CombinedCriteria(t *testing.T) {
	t.Parallel()

	criteria := voices.Criteria{Gender: "Male", Locale: "en-US", Tags: []string{"timbre:deep"}}
	assert.Equal(t, []string{"henry"}, voices.Filter(sampleVoices(), criteria))

	criteria.Locale = "en-GB"
	assert.Empty(t, voices.Filter(sampleVoices(), criteria))
}
