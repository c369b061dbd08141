// Package elevenlabs adapts the teacher's ElevenLabs client into a
// registry provider backing AUDIO_TTS/AUDIO_ASR, per SPEC_FULL.md §4.3.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL  = "https://api.elevenlabs.io"
	defaultTimeout  = 30 * time.Second
	defaultSTTModel = "scribe_v1"
)

// Error is the provider-specific error shape, mirroring the teacher's
// model.ProviderError.
type Error struct {
	Code       string
	Message    string
	Retryable  bool
	StatusCode int
	Cause      error
}

func (e *Error) Error() string { return fmt.Sprintf("elevenlabs: %s: %s", e.Code, e.Message) }
func (e *Error) Unwrap() error { return e.Cause }

type Client struct {
	APIKey                 string
	BaseURL                string
	HTTPClient             *http.Client
	VoiceID                string
	TranscribeModel        string
	TranscribeLanguageCode string
}

type synthesizeRequest struct {
	Text string `json:"text"`
}

func NewClient(apiKey, voiceID string) *Client {
	return &Client{
		APIKey:          strings.TrimSpace(apiKey),
		BaseURL:         defaultBaseURL,
		HTTPClient:      &http.Client{Timeout: defaultTimeout},
		VoiceID:         strings.TrimSpace(voiceID),
		TranscribeModel: defaultSTTModel,
	}
}

type transcribeResponse struct {
	Text       string `json:"text"`
	Transcript string `json:"transcript"`
	Segments   []struct {
		Text    string  `json:"text"`
		Start   float64 `json:"start"`
		StartMS float64 `json:"start_ms"`
	} `json:"segments"`
}

// Synthesize performs text-to-speech, used by handlers/tts.go.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return c.SynthesizeWithVoice(ctx, text, c.VoiceID)
}

// Transcribe performs speech-to-text on raw audio bytes, used by
// handlers/asr.go. relPath only supplies a filename hint for the upload.
func (c *Client) Transcribe(ctx context.Context, relPath string, data []byte) (string, error) {
	apiKey := strings.TrimSpace(c.APIKey)
	if apiKey == "" {
		return "", &Error{Code: "ELEVENLABS_AUTH", Message: "missing ElevenLabs API key"}
	}
	if len(data) == 0 {
		return "", &Error{Code: "ELEVENLABS_FAILED", Message: "transcription input is empty"}
	}

	fileName := strings.TrimSpace(filepath.Base(relPath))
	if fileName == "" || fileName == "." || fileName == string(filepath.Separator) {
		fileName = "audio.wav"
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return "", &Error{Code: "ELEVENLABS_FAILED", Message: "failed to build STT request body", Cause: err}
	}
	if _, err := part.Write(data); err != nil {
		return "", &Error{Code: "ELEVENLABS_FAILED", Message: "failed to write STT input", Cause: err}
	}

	modelName := strings.TrimSpace(c.TranscribeModel)
	if modelName == "" {
		modelName = defaultSTTModel
	}
	if err := writer.WriteField("model_id", modelName); err != nil {
		return "", &Error{Code: "ELEVENLABS_FAILED", Message: "failed to set STT model", Cause: err}
	}
	if lang := strings.TrimSpace(c.TranscribeLanguageCode); lang != "" {
		if err := writer.WriteField("language_code", lang); err != nil {
			return "", &Error{Code: "ELEVENLABS_FAILED", Message: "failed to set STT language", Cause: err}
		}
	}
	if err := writer.Close(); err != nil {
		return "", &Error{Code: "ELEVENLABS_FAILED", Message: "failed to finalize STT request body", Cause: err}
	}

	baseURL := strings.TrimRight(orDefault(c.BaseURL, defaultBaseURL), "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/speech-to-text", bytes.NewReader(body.Bytes()))
	if err != nil {
		return "", &Error{Code: "ELEVENLABS_FAILED", Message: "failed to build STT request", Cause: err}
	}
	req.Header.Set("xi-api-key", apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	httpClient := c.httpClient()
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", &Error{Code: "ELEVENLABS_FAILED", Message: "stt request failed", Retryable: true, Cause: err}
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Code: "ELEVENLABS_FAILED", Message: "failed to read STT response", Retryable: true, StatusCode: resp.StatusCode, Cause: err}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		message := strings.TrimSpace(string(respBytes))
		if message == "" {
			message = fmt.Sprintf("elevenlabs stt returned status %d", resp.StatusCode)
		}
		return "", mapProviderError(resp.StatusCode, message)
	}

	var parsed transcribeResponse
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return "", &Error{Code: "ELEVENLABS_FAILED", Message: "failed to decode STT response", Cause: err}
	}

	if len(parsed.Segments) > 0 {
		lines := make([]string, 0, len(parsed.Segments))
		for _, segment := range parsed.Segments {
			text := strings.TrimSpace(segment.Text)
			if text == "" {
				continue
			}
			startMS := int(segment.StartMS)
			if startMS <= 0 {
				startMS = int(segment.Start * 1000)
			}
			mm := (startMS / 1000) / 60
			ss := (startMS / 1000) % 60
			lines = append(lines, "["+pad2(mm)+":"+pad2(ss)+"] "+text)
		}
		if len(lines) > 0 {
			return strings.Join(lines, "\n"), nil
		}
	}

	text := strings.TrimSpace(parsed.Text)
	if text == "" {
		text = strings.TrimSpace(parsed.Transcript)
	}
	if text == "" {
		return "", &Error{Code: "ELEVENLABS_FAILED", Message: "stt response had no text content"}
	}
	return text, nil
}

func (c *Client) SynthesizeWithVoice(ctx context.Context, text, voiceID string) ([]byte, error) {
	apiKey := strings.TrimSpace(c.APIKey)
	if apiKey == "" {
		return nil, &Error{Code: "ELEVENLABS_AUTH", Message: "missing ElevenLabs API key"}
	}
	voiceID = strings.TrimSpace(voiceID)
	if voiceID == "" {
		return nil, &Error{Code: "ELEVENLABS_FAILED", Message: "voice_id is required"}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &Error{Code: "ELEVENLABS_FAILED", Message: "text is required"}
	}

	payload, err := json.Marshal(synthesizeRequest{Text: text})
	if err != nil {
		return nil, &Error{Code: "ELEVENLABS_FAILED", Message: "failed to marshal TTS request", Cause: err}
	}

	baseURL := strings.TrimRight(orDefault(c.BaseURL, defaultBaseURL), "/")
	reqURL := baseURL + "/v1/text-to-speech/" + url.PathEscape(voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return nil, &Error{Code: "ELEVENLABS_FAILED", Message: "failed to build TTS request", Cause: err}
	}
	req.Header.Set("xi-api-key", apiKey)
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("Content-Type", "application/json")

	httpClient := c.httpClient()
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, &Error{Code: "ELEVENLABS_FAILED", Message: "tts request failed", Retryable: true, Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Code: "ELEVENLABS_FAILED", Message: "failed to read TTS response", Retryable: true, StatusCode: resp.StatusCode, Cause: err}
	}

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return respBody, nil
	}

	message := strings.TrimSpace(string(respBody))
	if message == "" {
		message = fmt.Sprintf("elevenlabs tts returned status %d", resp.StatusCode)
	}
	return nil, mapProviderError(resp.StatusCode, message)
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: defaultTimeout}
}

func orDefault(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}

func mapProviderError(statusCode int, message string) error {
	pe := &Error{Code: "ELEVENLABS_FAILED", Message: message, StatusCode: statusCode}
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		pe.Code = "ELEVENLABS_AUTH"
	case statusCode == http.StatusTooManyRequests:
		pe.Code = "ELEVENLABS_RATE_LIMIT"
		pe.Retryable = true
	case statusCode >= http.StatusInternalServerError:
		pe.Retryable = true
	case statusCode >= http.StatusBadRequest:
		// 4xx other than 401/403/429: not retryable.
	default:
		pe.Retryable = true
	}
	return pe
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
