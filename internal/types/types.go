// Package types provides shared type definitions for the application.
package types

// Session is the signed-in user's identity as persisted locally.
// A nil *Session means the user is not authenticated.
type Session struct {
	Email       string `json:"email"`
	DisplayName string `json:"name,omitempty"`
	AvatarURL   string `json:"picture,omitempty"`
}

// DefaultTargetLanguage is used when no target language has been stored.
const DefaultTargetLanguage = "ja"

// AudioContentType is the content type of synthesized speech.
const AudioContentType = "audio/mpeg"

// APICredential holds the key for one remote provider.
type APICredential struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type"` // "elevenlabs", "gemini", "openai", "openai-compatible"
	BaseURL string `json:"base_url,omitempty"`
	APIKey  string `json:"api_key"`
}

// TranslationProfile configures the translation model used by the backend.
type TranslationProfile struct {
	CredentialID string  `json:"credential_id"`
	Model        string  `json:"model"`
	MaxTokens    int     `json:"max_tokens,omitempty"`
	Temperature  float64 `json:"temperature,omitempty"`
}

// SpeechConfig configures the speech synthesis provider used by the backend.
type SpeechConfig struct {
	CredentialID string `json:"credential_id"`
	VoiceID      string `json:"voice_id,omitempty"`
	Model        string `json:"model,omitempty"`
	OutputFormat string `json:"output_format,omitempty"`
}

// Defaults for translation requests, matching the hosted backend.
const (
	DefaultMaxTokens   = 2048
	DefaultTemperature = 0.1
)

// Usage represents token usage statistics from LLM API calls.
type Usage struct {
	PromptTokens     int  `json:"promptTokens"`
	CompletionTokens int  `json:"completionTokens"`
	TotalTokens      int  `json:"totalTokens"`
	CacheHit         bool `json:"cacheHit"`
}

// User is an account record held by the backend.
type User struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name,omitempty"`
	Image         string `json:"image,omitempty"`
	GoogleID      string `json:"googleId,omitempty"`
	TargetLang    string `json:"targetLanguage"`
	EmailVerified bool   `json:"emailVerified"`
}

// Session converts the account record to the locally persisted session shape.
func (u User) Session() Session {
	return Session{Email: u.Email, DisplayName: u.Name, AvatarURL: u.Image}
}
