// Package config handles application configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.aimuz.me/hober/internal/types"
)

const (
	appName        = "hober"
	configFileName = "config.json"
	socketName     = "hober.sock"

	envCredentialPrefix = "env-"

	defaultBackendAddr    = "127.0.0.1:8787"
	defaultRequestTimeout = 30 * time.Second
	defaultOpenAIModel    = "gpt-4o-mini"
)

// Environment variables that override stored credentials.
const (
	EnvGeminiKey     = "GEMINI_API_KEY"
	EnvElevenLabsKey = "ELEVENLABS_API_KEY"
	EnvOpenAIKey     = "OPENAI_API_KEY"
	EnvGoogleToken   = "HOBER_GOOGLE_TOKEN"
)

// Config represents the application configuration.
type Config struct {
	Credentials []types.APICredential     `json:"credentials,omitempty"`
	Translation *types.TranslationProfile `json:"translation,omitempty"`
	Speech      *types.SpeechConfig       `json:"speech,omitempty"`

	// BackendAddr is where the backend listens; BackendURL is where the
	// background daemon reaches it.
	BackendAddr string `json:"backend_addr,omitempty"`
	BackendURL  string `json:"backend_url,omitempty"`

	SocketPath string `json:"socket_path,omitempty"`
	DataDir    string `json:"data_dir,omitempty"`

	// RequestTimeoutSeconds bounds every bridge and remote call.
	RequestTimeoutSeconds int `json:"request_timeout_seconds,omitempty"`

	// GoogleToken is an OAuth access token used by the signIn message.
	GoogleToken string `json:"-"`

	path string
}

// Load loads configuration from the default config file.
// Returns default config if file doesn't exist.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, fmt.Errorf("get config path: %w", err)
	}
	return LoadFrom(path)
}

// LoadFrom loads configuration from path, applying defaults and
// environment overrides.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg.path = path
	cfg.applyDefaults()
	cfg.applyEnv()
	return cfg, nil
}

// Save persists the configuration to disk.
func (c *Config) Save() error {
	path := c.path
	if path == "" {
		p, err := configPath()
		if err != nil {
			return fmt.Errorf("get config path: %w", err)
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	// Keys taken from the environment never reach the file.
	out := *c
	out.Credentials = slices.DeleteFunc(slices.Clone(c.Credentials), func(x types.APICredential) bool {
		return strings.HasPrefix(x.ID, envCredentialPrefix)
	})

	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// RequestTimeout returns the deadline applied to each request.
func (c *Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func (c *Config) applyDefaults() {
	if c.BackendAddr == "" {
		c.BackendAddr = defaultBackendAddr
	}
	if c.BackendURL == "" {
		c.BackendURL = "http://" + c.BackendAddr
	}
	if c.DataDir == "" {
		c.DataDir = filepath.Join(filepath.Dir(c.path), "data")
	}
	if c.SocketPath == "" {
		c.SocketPath = filepath.Join(c.DataDir, socketName)
	}
	if c.Translation == nil {
		c.Translation = &types.TranslationProfile{Model: "gemini-2.0-flash"}
	}
	if c.Translation.MaxTokens == 0 {
		c.Translation.MaxTokens = types.DefaultMaxTokens
	}
	if c.Translation.Temperature == 0 {
		c.Translation.Temperature = types.DefaultTemperature
	}
	if c.Speech == nil {
		c.Speech = &types.SpeechConfig{}
	}
}

// applyEnv lets API keys come from the environment, which is how the
// hosted backend is provisioned.
func (c *Config) applyEnv() {
	if key := os.Getenv(EnvGeminiKey); key != "" {
		c.Translation.CredentialID = c.upsertEnvCredential("gemini", key)
	}
	if key := os.Getenv(EnvOpenAIKey); key != "" && c.Translation.CredentialID == "" {
		c.Translation.CredentialID = c.upsertEnvCredential("openai", key)
		if strings.HasPrefix(c.Translation.Model, "gemini") {
			c.Translation.Model = defaultOpenAIModel
		}
	}
	if key := os.Getenv(EnvElevenLabsKey); key != "" {
		c.Speech.CredentialID = c.upsertEnvCredential("elevenlabs", key)
	}
	c.GoogleToken = os.Getenv(EnvGoogleToken)
}

func (c *Config) upsertEnvCredential(kind, key string) string {
	id := envCredentialPrefix + kind
	cred := types.APICredential{ID: id, Name: kind + " (env)", Type: kind, APIKey: key}
	idx := slices.IndexFunc(c.Credentials, func(x types.APICredential) bool { return x.ID == id })
	if idx == -1 {
		c.Credentials = append(c.Credentials, cred)
	} else {
		c.Credentials[idx] = cred
	}
	return id
}

func configPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get user config dir: %w", err)
	}
	return filepath.Join(dir, appName, configFileName), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// API Credential Management
// ─────────────────────────────────────────────────────────────────────────────

// GetCredential returns a credential by ID.
func (c *Config) GetCredential(id string) *types.APICredential {
	for i := range c.Credentials {
		if c.Credentials[i].ID == id {
			return &c.Credentials[i]
		}
	}
	return nil
}

// AddCredential adds a new API credential.
func (c *Config) AddCredential(cred types.APICredential) error {
	if err := validateCredential(cred); err != nil {
		return err
	}
	if cred.ID == "" {
		cred.ID = uuid.New().String()
	}

	c.Credentials = append(c.Credentials, cred)
	return c.Save()
}

// RemoveCredential removes a credential by ID.
// Returns error if the credential is in use.
func (c *Config) RemoveCredential(id string) error {
	if c.Translation != nil && c.Translation.CredentialID == id {
		return fmt.Errorf("credential in use by translation profile")
	}
	if c.Speech != nil && c.Speech.CredentialID == id {
		return fmt.Errorf("credential in use by speech config")
	}

	idx := slices.IndexFunc(c.Credentials, func(x types.APICredential) bool {
		return x.ID == id
	})
	if idx == -1 {
		return fmt.Errorf("credential not found: %s", id)
	}

	c.Credentials = slices.Delete(c.Credentials, idx, idx+1)
	return c.Save()
}

// TranslationCredential returns the credential for the translation profile.
func (c *Config) TranslationCredential() *types.APICredential {
	if c.Translation == nil {
		return nil
	}
	return c.GetCredential(c.Translation.CredentialID)
}

// SpeechCredential returns the credential for speech synthesis.
func (c *Config) SpeechCredential() *types.APICredential {
	if c.Speech == nil {
		return nil
	}
	return c.GetCredential(c.Speech.CredentialID)
}

// SetSpeechConfig sets the speech configuration.
func (c *Config) SetSpeechConfig(cfg types.SpeechConfig) error {
	if cfg.CredentialID != "" {
		cred := c.GetCredential(cfg.CredentialID)
		if cred == nil {
			return fmt.Errorf("credential not found: %s", cfg.CredentialID)
		}
		if cred.Type != "elevenlabs" {
			return fmt.Errorf("speech config requires an elevenlabs credential")
		}
	}

	c.Speech = &cfg
	return c.Save()
}

// SetTranslationProfile sets the translation profile.
func (c *Config) SetTranslationProfile(p types.TranslationProfile) error {
	if p.Model == "" {
		return fmt.Errorf("model required")
	}
	if p.CredentialID != "" && c.GetCredential(p.CredentialID) == nil {
		return fmt.Errorf("credential not found: %s", p.CredentialID)
	}
	if p.MaxTokens == 0 {
		p.MaxTokens = types.DefaultMaxTokens
	}
	if p.Temperature == 0 {
		p.Temperature = types.DefaultTemperature
	}

	c.Translation = &p
	return c.Save()
}

func validateCredential(cred types.APICredential) error {
	if cred.Name == "" {
		return fmt.Errorf("credential name required")
	}
	if cred.APIKey == "" {
		return fmt.Errorf("api key required")
	}
	switch cred.Type {
	case "elevenlabs", "gemini", "openai":
	case "openai-compatible":
		if cred.BaseURL == "" {
			return fmt.Errorf("base url required for openai-compatible")
		}
	default:
		return fmt.Errorf("unknown credential type: %q", cred.Type)
	}
	return nil
}
