package speechify

// Voice is a synthetic speaker persona exposed by the Speechify API.
type Voice struct {
	ID     string   `json:"id"`
	Name   string   `json:"display_name"`
	Gender string   `json:"gender"`
	Locale string   `json:"locale,omitempty"`
	Type   string   `json:"type,omitempty"`
	Models []Model  `json:"models"`
	Tags   []string `json:"tags"`
}

// Model is a synthesis engine variant available for a voice.
type Model struct {
	Name      string     `json:"name"`
	Languages []Language `json:"languages"`
}

// Language is a locale supported by a model.
type Language struct {
	Locale       string `json:"locale"`
	PreviewAudio string `json:"preview_audio,omitempty"`
}

// SpeechOptions toggles server-side processing of the input and output.
type SpeechOptions struct {
	LoudnessNormalization bool `json:"loudness_normalization"`
	TextNormalization     bool `json:"text_normalization"`
}

// SpeechRequest is the JSON payload of POST /v1/audio/speech.
type SpeechRequest struct {
	Input       string        `json:"input"`
	VoiceID     string        `json:"voice_id"`
	AudioFormat string        `json:"audio_format"`
	Language    string        `json:"language,omitempty"`
	Model       string        `json:"model,omitempty"`
	Options     SpeechOptions `json:"options"`
}

// SpeechResponse is the decoded body of a successful speech request.
// AudioData is nil when the provider omitted the payload.
type SpeechResponse struct {
	AudioData               *string `json:"audio_data"`
	AudioFormat             string  `json:"audio_format"`
	BillableCharactersCount int     `json:"billable_characters_count"`
}

// HasAudio reports whether the response carries a non-empty audio payload.
func (r *SpeechResponse) HasAudio() bool {
	return r != nil && r.AudioData != nil && *r.AudioData != ""
}

// ErrorResponse is the structured error body returned on non-2xx statuses.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}
