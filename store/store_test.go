package store

import (
	"context"
	"testing"

	"go.aimuz.me/hober/internal/types"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Options{InMemory: true})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestItem_Fallback(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	item := DefineItem(s, "k", "fallback")
	got, err := item.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "fallback" {
		t.Errorf("Get() = %q, want %q", got, "fallback")
	}

	if err := item.Set(ctx, "stored"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if got, _ := item.Get(ctx); got != "stored" {
		t.Errorf("Get() = %q, want %q", got, "stored")
	}

	if err := item.Remove(ctx); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if got, _ := item.Get(ctx); got != "fallback" {
		t.Errorf("Get() after Remove = %q, want fallback", got)
	}
}

func TestItem_CanceledContext(t *testing.T) {
	s := openMemory(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := DefineItem(s, "k", 0).Set(ctx, 1); err == nil {
		t.Error("Set() with canceled context should fail")
	}
}

func TestPreferences_TargetLanguage(t *testing.T) {
	p := NewPreferences(openMemory(t))
	ctx := context.Background()

	lang, err := p.TargetLanguage(ctx)
	if err != nil {
		t.Fatalf("TargetLanguage() error = %v", err)
	}
	if lang != "ja" {
		t.Errorf("default TargetLanguage() = %q, want %q", lang, "ja")
	}

	if err := p.SetTargetLanguage(ctx, "fr"); err != nil {
		t.Fatalf("SetTargetLanguage() error = %v", err)
	}
	if lang, _ := p.TargetLanguage(ctx); lang != "fr" {
		t.Errorf("TargetLanguage() = %q, want %q", lang, "fr")
	}
}

func TestPreferences_Session(t *testing.T) {
	p := NewPreferences(openMemory(t))
	ctx := context.Background()

	sess, err := p.Session(ctx)
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if sess != nil {
		t.Fatalf("Session() = %+v, want nil", sess)
	}

	want := types.Session{Email: "a@example.com", DisplayName: "A", AvatarURL: "https://example.com/a.png"}
	if err := p.SaveSession(ctx, want); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}
	sess, err = p.Session(ctx)
	if err != nil || sess == nil || *sess != want {
		t.Fatalf("Session() = %+v, %v, want %+v", sess, err, want)
	}

	if err := p.ClearSession(ctx); err != nil {
		t.Fatalf("ClearSession() error = %v", err)
	}
	if sess, _ := p.Session(ctx); sess != nil {
		t.Errorf("Session() after clear = %+v, want nil", sess)
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(Options{Dir: dir})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := NewPreferences(s).SetTargetLanguage(ctx, "de"); err != nil {
		t.Fatalf("SetTargetLanguage() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	s, err = Open(Options{Dir: dir})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	if lang, _ := NewPreferences(s).TargetLanguage(ctx); lang != "de" {
		t.Errorf("TargetLanguage() after reopen = %q, want %q", lang, "de")
	}
}
