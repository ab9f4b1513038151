package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.aimuz.me/hober/internal/types"
)

func TestLoadFrom_Defaults(t *testing.T) {
	t.Setenv(EnvGeminiKey, "")
	t.Setenv(EnvOpenAIKey, "")
	t.Setenv(EnvElevenLabsKey, "")

	dir := t.TempDir()
	cfg, err := LoadFrom(filepath.Join(dir, "config.json"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.BackendURL != "http://"+defaultBackendAddr {
		t.Errorf("BackendURL = %q", cfg.BackendURL)
	}
	if cfg.SocketPath != filepath.Join(dir, "data", socketName) {
		t.Errorf("SocketPath = %q", cfg.SocketPath)
	}
	if cfg.RequestTimeout() != defaultRequestTimeout {
		t.Errorf("RequestTimeout() = %v, want %v", cfg.RequestTimeout(), defaultRequestTimeout)
	}
	if cfg.Translation.MaxTokens != types.DefaultMaxTokens {
		t.Errorf("MaxTokens = %d, want %d", cfg.Translation.MaxTokens, types.DefaultMaxTokens)
	}
	if cfg.TranslationCredential() != nil {
		t.Error("expected no translation credential without env or file")
	}
}

func TestLoadFrom_EnvOverrides(t *testing.T) {
	t.Setenv(EnvGeminiKey, "gm-key")
	t.Setenv(EnvOpenAIKey, "")
	t.Setenv(EnvElevenLabsKey, "xi-key")
	t.Setenv(EnvGoogleToken, "ya29.token")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cred := cfg.TranslationCredential(); cred == nil || cred.APIKey != "gm-key" || cred.Type != "gemini" {
		t.Errorf("TranslationCredential() = %+v", cred)
	}
	if cred := cfg.SpeechCredential(); cred == nil || cred.APIKey != "xi-key" {
		t.Errorf("SpeechCredential() = %+v", cred)
	}
	if cfg.GoogleToken != "ya29.token" {
		t.Errorf("GoogleToken = %q", cfg.GoogleToken)
	}
}

func TestLoadFrom_OpenAIEnvModel(t *testing.T) {
	t.Setenv(EnvGeminiKey, "")
	t.Setenv(EnvOpenAIKey, "sk-key")
	t.Setenv(EnvElevenLabsKey, "")
	t.Setenv(EnvGoogleToken, "")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cred := cfg.TranslationCredential(); cred == nil || cred.Type != "openai" {
		t.Errorf("TranslationCredential() = %+v", cred)
	}
	if cfg.Translation.Model != "gpt-4o-mini" {
		t.Errorf("Model = %q, want gpt-4o-mini", cfg.Translation.Model)
	}
}

func TestSave_OmitsEnvCredentials(t *testing.T) {
	t.Setenv(EnvGeminiKey, "gm-key")
	t.Setenv(EnvElevenLabsKey, "")

	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	cfg.RequestTimeoutSeconds = 5

	if err := cfg.AddCredential(types.APICredential{Name: "voice", Type: "elevenlabs", APIKey: "xi-file"}); err != nil {
		t.Fatalf("AddCredential() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved config: %v", err)
	}

	var saved Config
	if err := json.Unmarshal(data, &saved); err != nil {
		t.Fatalf("unmarshal saved config: %v", err)
	}
	if len(saved.Credentials) != 1 {
		t.Fatalf("saved %d credentials, want 1", len(saved.Credentials))
	}
	if saved.Credentials[0].APIKey != "xi-file" {
		t.Errorf("saved credential = %+v", saved.Credentials[0])
	}
	if saved.Credentials[0].ID == "" {
		t.Error("saved credential should have a generated id")
	}
	if saved.RequestTimeoutSeconds != 5 {
		t.Errorf("RequestTimeoutSeconds = %d, want 5", saved.RequestTimeoutSeconds)
	}

	reloaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.RequestTimeout() != 5*time.Second {
		t.Errorf("RequestTimeout() = %v, want 5s", reloaded.RequestTimeout())
	}
}

func TestAddCredential_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cred    types.APICredential
		wantErr bool
	}{
		{
			name: "valid gemini",
			cred: types.APICredential{Name: "g", Type: "gemini", APIKey: "k"},
		},
		{
			name:    "missing key",
			cred:    types.APICredential{Name: "g", Type: "gemini"},
			wantErr: true,
		},
		{
			name:    "compatible without base url",
			cred:    types.APICredential{Name: "c", Type: "openai-compatible", APIKey: "k"},
			wantErr: true,
		},
		{
			name:    "unknown type",
			cred:    types.APICredential{Name: "x", Type: "claude", APIKey: "k"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFrom(filepath.Join(t.TempDir(), "config.json"))
			if err != nil {
				t.Fatalf("LoadFrom() error = %v", err)
			}
			err = cfg.AddCredential(tt.cred)
			if (err != nil) != tt.wantErr {
				t.Errorf("AddCredential() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRemoveCredential_InUse(t *testing.T) {
	t.Setenv(EnvGeminiKey, "")
	t.Setenv(EnvOpenAIKey, "")
	t.Setenv(EnvElevenLabsKey, "")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if err := cfg.AddCredential(types.APICredential{ID: "voice", Name: "voice", Type: "elevenlabs", APIKey: "k"}); err != nil {
		t.Fatalf("AddCredential() error = %v", err)
	}
	if err := cfg.SetSpeechConfig(types.SpeechConfig{CredentialID: "voice"}); err != nil {
		t.Fatalf("SetSpeechConfig() error = %v", err)
	}

	if err := cfg.RemoveCredential("voice"); err == nil {
		t.Error("expected error removing credential used by speech config")
	}

	if err := cfg.SetSpeechConfig(types.SpeechConfig{}); err != nil {
		t.Fatalf("SetSpeechConfig() error = %v", err)
	}
	if err := cfg.RemoveCredential("voice"); err != nil {
		t.Errorf("RemoveCredential() error = %v", err)
	}
}
