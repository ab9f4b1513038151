// Package speech synthesizes spoken audio from text.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Defaults matching the hosted backend.
const (
	DefaultBaseURL      = "https://api.elevenlabs.io"
	DefaultVoiceID      = "8EkOjt4xTPGMclNlh1pk"
	DefaultModel        = "eleven_v3"
	DefaultOutputFormat = "mp3_44100_128"
)

// ErrMissingAPIKey is returned when no ElevenLabs key is configured.
var ErrMissingAPIKey = errors.New("eleven labs api key is not configured")

// Synthesizer turns text into audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Config configures an ElevenLabs client. Empty fields take defaults.
type Config struct {
	APIKey       string
	BaseURL      string
	VoiceID      string
	Model        string
	OutputFormat string
	HTTPClient   *http.Client
}

// ElevenLabs is a Synthesizer backed by the ElevenLabs text-to-speech API.
type ElevenLabs struct {
	cfg  Config
	http *http.Client
}

var _ Synthesizer = (*ElevenLabs)(nil)

// NewElevenLabs creates an ElevenLabs client.
func NewElevenLabs(cfg Config) *ElevenLabs {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.VoiceID == "" {
		cfg.VoiceID = DefaultVoiceID
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = DefaultOutputFormat
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &ElevenLabs{cfg: cfg, http: hc}
}

type ttsRequest struct {
	Text         string `json:"text"`
	ModelID      string `json:"model_id"`
	OutputFormat string `json:"output_format"`
}

// Synthesize returns the complete audio for text.
func (e *ElevenLabs) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if e.cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	body, err := json.Marshal(ttsRequest{
		Text:         text,
		ModelID:      e.cfg.Model,
		OutputFormat: e.cfg.OutputFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", strings.TrimRight(e.cfg.BaseURL, "/"), e.cfg.VoiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", e.cfg.APIKey)

	resp, err := e.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("eleven labs api error: %s", strings.TrimSpace(string(data)))
	}
	if len(data) == 0 {
		return nil, errors.New("eleven labs api error: empty audio")
	}
	return data, nil
}
