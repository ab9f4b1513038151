package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"go.aimuz.me/hober/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := rootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestConfigCommands(t *testing.T) {
	for _, env := range []string{config.EnvGeminiKey, config.EnvOpenAIKey, config.EnvElevenLabsKey, config.EnvGoogleToken} {
		t.Setenv(env, "")
	}
	path := filepath.Join(t.TempDir(), "config.json")

	out, err := execute(t, "-c", path, "config", "credential", "add", "--type", "gemini", "--name", "g", "--key", "gm-secret-1234")
	if err != nil {
		t.Fatalf("credential add error = %v", err)
	}
	id := strings.TrimSpace(out)
	if id == "" {
		t.Fatal("credential add printed no id")
	}

	if _, err := execute(t, "-c", path, "config", "translation", "--credential", id, "--model", "gemini-2.0-flash"); err != nil {
		t.Fatalf("config translation error = %v", err)
	}
	if _, err := execute(t, "-c", path, "config", "speech", "--credential", id); err == nil {
		t.Error("config speech with a gemini credential error = nil")
	}
	if _, err := execute(t, "-c", path, "config", "credential", "remove", id); err == nil {
		t.Error("removing a credential in use error = nil")
	}

	cfg, err := config.LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cred := cfg.TranslationCredential(); cred == nil || cred.APIKey != "gm-secret-1234" {
		t.Errorf("TranslationCredential() = %+v", cred)
	}

	out, err = execute(t, "-c", path, "config", "show")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	if strings.Contains(out, "gm-secret-1234") || !strings.Contains(out, "****1234") {
		t.Errorf("config show did not mask the key:\n%s", out)
	}
	var shown map[string]any
	if err := json.Unmarshal([]byte(out), &shown); err != nil {
		t.Errorf("config show output is not JSON: %v", err)
	}
}

func TestMaskKey(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", "****"},
		{"abcd", "****"},
		{"sk-123456", "****3456"},
	}
	for _, tt := range tests {
		if got := maskKey(tt.in); got != tt.want {
			t.Errorf("maskKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
