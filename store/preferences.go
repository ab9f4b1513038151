package store

import (
	"context"
	"strings"

	"go.aimuz.me/hober/internal/types"
)

// Storage keys shared by the popup and the background daemon.
const (
	KeyTargetLanguage = "local:targetLanguage"
	KeyUser           = "local:user"
)

// Preferences exposes the session and the target language preference.
type Preferences struct {
	targetLanguage *Item[string]
	user           *Item[*types.Session]
}

// NewPreferences defines the preference items on s.
func NewPreferences(s *Store) *Preferences {
	return &Preferences{
		targetLanguage: DefineItem(s, KeyTargetLanguage, types.DefaultTargetLanguage),
		user:           DefineItem[*types.Session](s, KeyUser, nil),
	}
}

// TargetLanguage returns the stored target language, "ja" when unset.
func (p *Preferences) TargetLanguage(ctx context.Context) (string, error) {
	lang, err := p.targetLanguage.Get(ctx)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(lang) == "" {
		return types.DefaultTargetLanguage, nil
	}
	return lang, nil
}

// SetTargetLanguage stores the target language.
func (p *Preferences) SetTargetLanguage(ctx context.Context, lang string) error {
	return p.targetLanguage.Set(ctx, lang)
}

// Session returns the stored session or nil when signed out.
func (p *Preferences) Session(ctx context.Context) (*types.Session, error) {
	s, err := p.user.Get(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil || s.Email == "" {
		return nil, nil
	}
	return s, nil
}

// SaveSession persists s as the current session.
func (p *Preferences) SaveSession(ctx context.Context, s types.Session) error {
	return p.user.Set(ctx, &s)
}

// ClearSession signs the user out locally.
func (p *Preferences) ClearSession(ctx context.Context) error {
	return p.user.Remove(ctx)
}
