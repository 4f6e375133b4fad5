// Package speechify provides a typed HTTP client for the Speechify
// text-to-speech API.
//
// Only the two operations the service depends on are implemented: listing
// voices and synthesizing speech. Audio is returned base64-encoded and is
// left encoded; decoding belongs to the caller.
package speechify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the public Speechify API endpoint.
const DefaultBaseURL = "https://api.sws.speechify.com"

// API endpoints and paths.
const (
	apiVoices = "/v1/voices"
	apiSpeech = "/v1/audio/speech"
)

// HTTP headers.
const (
	headerContentType   = "Content-Type"
	headerAccept        = "Accept"
	headerAuthorization = "Authorization"
	contentTypeJSON     = "application/json"
	bearerPrefix        = "Bearer "
)

// Error messages.
const (
	errFmtServiceError     = "speechify API error (%s): %s"
	errFmtServiceNonOK     = "speechify API returned non-OK status: %s, body: %s"
	errFmtRequestFailed    = "failed to send request to %s: %w"
	errFmtDecodeResponse   = "failed to decode %s response: %w"
	errFmtCreateRequest    = "failed to create request: %w"
	errFmtMarshalRequest   = "failed to marshal request: %w"
	errFmtReadErrorPayload = "failed to read error body: %w"
)

var (
	// ErrAPIKeyEmpty is returned when a client is built without a token.
	ErrAPIKeyEmpty = errors.New("speechify API key cannot be empty")
	// ErrInputEmpty is returned when a speech request has no input text.
	ErrInputEmpty = errors.New("speech input cannot be empty")
	// ErrVoiceIDEmpty is returned when a speech request has no voice id.
	ErrVoiceIDEmpty = errors.New("voice id cannot be empty")
)

// Client talks to the Speechify REST API. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a Speechify client. An empty baseURL selects
// DefaultBaseURL; a zero timeout leaves the http.Client without one.
func NewClient(apiKey, baseURL string, timeout time.Duration) (*Client, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyEmpty
	}

	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}, nil
}

// ListVoices returns every voice available to the account, in provider order.
func (c *Client) ListVoices(ctx context.Context) ([]Voice, error) {
	var voices []Voice

	err := c.do(ctx, http.MethodGet, apiVoices, nil, &voices)
	if err != nil {
		return nil, err
	}

	return voices, nil
}

// Speech synthesizes req.Input with the given voice. The returned
// AudioData is base64-encoded.
func (c *Client) Speech(ctx context.Context, req SpeechRequest) (*SpeechResponse, error) {
	if req.Input == "" {
		return nil, ErrInputEmpty
	}

	if req.VoiceID == "" {
		return nil, ErrVoiceIDEmpty
	}

	var resp SpeechResponse

	err := c.do(ctx, http.MethodPost, apiSpeech, req, &resp)
	if err != nil {
		return nil, err
	}

	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, target any) error {
	var body io.Reader = http.NoBody

	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf(errFmtMarshalRequest, err)
		}

		body = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf(errFmtCreateRequest, err)
	}

	httpReq.Header.Set(headerAuthorization, bearerPrefix+c.apiKey)
	httpReq.Header.Set(headerAccept, contentTypeJSON)

	if payload != nil {
		httpReq.Header.Set(headerContentType, contentTypeJSON)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf(errFmtRequestFailed, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return parseErrorResponse(resp)
	}

	err = json.NewDecoder(resp.Body).Decode(target)
	if err != nil {
		return fmt.Errorf(errFmtDecodeResponse, path, err)
	}

	return nil
}

// parseErrorResponse prefers the structured JSON error and falls back to
// the raw body so diagnostics are never lost.
func parseErrorResponse(resp *http.Response) error {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf(errFmtReadErrorPayload, err)
	}

	var errorResp ErrorResponse

	if json.Unmarshal(raw, &errorResp) == nil {
		detail := errorResp.Message
		if detail == "" {
			detail = errorResp.Error
		}

		if detail != "" {
			return fmt.Errorf(errFmtServiceError, resp.Status, detail)
		}
	}

	return fmt.Errorf(errFmtServiceNonOK, resp.Status, strings.TrimSpace(string(raw)))
}
