// Package background implements the privileged side of the messaging bridge:
// it owns the session, authorizes speak/translate requests and forwards them
// to the remote backend.
package background

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.aimuz.me/hober/internal/textutil"
	"go.aimuz.me/hober/internal/types"
	"go.aimuz.me/hober/messaging"
)

var (
	// ErrUnauthenticated is returned for remote operations when no session
	// is stored.
	ErrUnauthenticated = errors.New("please log in first")
	// ErrEmptyLanguage is returned when setting an empty target language.
	ErrEmptyLanguage = errors.New("target language is required")
	// ErrNotSupported is returned for sign-in flows without a configured
	// provider.
	ErrNotSupported = errors.New("sign-in method not available")
)

// Sessions persists the signed-in user.
type Sessions interface {
	Session(ctx context.Context) (*types.Session, error)
	SaveSession(ctx context.Context, s types.Session) error
	ClearSession(ctx context.Context) error
}

// Preferences persists user preferences.
type Preferences interface {
	TargetLanguage(ctx context.Context) (string, error)
	SetTargetLanguage(ctx context.Context, lang string) error
}

// Remote performs speech synthesis and translation on behalf of a user.
type Remote interface {
	Synthesize(ctx context.Context, text, userEmail string) ([]byte, error)
	Translate(ctx context.Context, text, targetLanguage, userEmail string) (string, error)
}

// Accounts manages email/password accounts.
type Accounts interface {
	SignUp(ctx context.Context, email, password, name string) error
	SignIn(ctx context.Context, email, password string) (types.Session, error)
}

// LanguageSync records the target language on the signed-in account.
type LanguageSync interface {
	SetTargetLanguage(ctx context.Context, userEmail, lang string) error
}

// Authenticator runs an interactive sign-in flow and returns the resulting
// session.
type Authenticator interface {
	Authenticate(ctx context.Context) (types.Session, error)
}

// Config holds a Proxy's dependencies. Accounts, Languages and Auth are
// optional.
type Config struct {
	Sessions    Sessions
	Preferences Preferences
	Remote      Remote
	Accounts    Accounts
	Languages   LanguageSync
	Auth        Authenticator
	Logger      *slog.Logger
}

// Proxy serves the bridge protocol for the background context.
type Proxy struct {
	sessions Sessions
	prefs    Preferences
	remote   Remote
	accounts Accounts
	langs    LanguageSync
	auth     Authenticator
	log      *slog.Logger
}

var _ messaging.Handler = (*Proxy)(nil)

// NewProxy creates a Proxy.
func NewProxy(cfg Config) *Proxy {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Proxy{
		sessions: cfg.Sessions,
		prefs:    cfg.Preferences,
		remote:   cfg.Remote,
		accounts: cfg.Accounts,
		langs:    cfg.Languages,
		auth:     cfg.Auth,
		log:      log.With("component", "background"),
	}
}

// ─── Speech & translation ──────────────────────────────────────────────────

// GenerateSpeech synthesizes req.Text for the signed-in user.
func (p *Proxy) GenerateSpeech(ctx context.Context, req messaging.GenerateSpeechRequest) (messaging.GenerateSpeechReply, error) {
	session, err := p.requireSession(ctx)
	if err != nil {
		return messaging.GenerateSpeechReply{}, err
	}

	p.log.Info("generate speech", "text", textutil.Truncate(req.Text, 50), "user", session.Email)

	audio, err := p.remote.Synthesize(ctx, req.Text, session.Email)
	if err != nil {
		p.log.Error("generate speech", "error", err)
		return messaging.GenerateSpeechReply{}, fmt.Errorf("generate speech: %w", err)
	}

	return messaging.GenerateSpeechReply{
		Audio:       EncodeAudio(audio),
		ContentType: types.AudioContentType,
	}, nil
}

// TranslateText translates req.Text for the signed-in user.
func (p *Proxy) TranslateText(ctx context.Context, req messaging.TranslateTextRequest) (messaging.TranslateTextReply, error) {
	session, err := p.requireSession(ctx)
	if err != nil {
		return messaging.TranslateTextReply{}, err
	}

	p.log.Info("translate text", "text", textutil.Truncate(req.Text, 50), "to", req.TargetLanguage, "user", session.Email)

	translation, err := p.remote.Translate(ctx, req.Text, req.TargetLanguage, session.Email)
	if err != nil {
		p.log.Error("translate text", "error", err)
		return messaging.TranslateTextReply{}, fmt.Errorf("translate text: %w", err)
	}
	return messaging.TranslateTextReply{Translation: translation}, nil
}

func (p *Proxy) requireSession(ctx context.Context) (*types.Session, error) {
	session, err := p.sessions.Session(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return nil, ErrUnauthenticated
	}
	return session, nil
}

// ─── Preferences ───────────────────────────────────────────────────────────

// GetTargetLanguage returns the stored target language.
func (p *Proxy) GetTargetLanguage(ctx context.Context, _ messaging.GetTargetLanguageRequest) (messaging.GetTargetLanguageReply, error) {
	lang, err := p.prefs.TargetLanguage(ctx)
	if err != nil {
		return messaging.GetTargetLanguageReply{}, fmt.Errorf("get target language: %w", err)
	}
	return messaging.GetTargetLanguageReply{Language: lang}, nil
}

// SetTargetLanguage stores the target language and, when signed in, records
// it on the account. The local preference is authoritative; a failed account
// update is only logged.
func (p *Proxy) SetTargetLanguage(ctx context.Context, req messaging.SetTargetLanguageRequest) (messaging.SetTargetLanguageReply, error) {
	lang := strings.TrimSpace(req.Language)
	if lang == "" {
		return messaging.SetTargetLanguageReply{}, ErrEmptyLanguage
	}
	if err := p.prefs.SetTargetLanguage(ctx, lang); err != nil {
		return messaging.SetTargetLanguageReply{}, fmt.Errorf("set target language: %w", err)
	}
	p.log.Info("target language changed", "language", lang)
	p.syncLanguage(ctx, lang)
	return messaging.SetTargetLanguageReply{Success: true}, nil
}

func (p *Proxy) syncLanguage(ctx context.Context, lang string) {
	if p.langs == nil {
		return
	}
	session, err := p.sessions.Session(ctx)
	if err != nil || session == nil {
		return
	}
	if err := p.langs.SetTargetLanguage(ctx, session.Email, lang); err != nil {
		p.log.Warn("sync target language", "user", session.Email, "error", err)
	}
}

// ─── Session ───────────────────────────────────────────────────────────────

// GetAuthStatus reports the stored session.
func (p *Proxy) GetAuthStatus(ctx context.Context, _ messaging.GetAuthStatusRequest) (messaging.GetAuthStatusReply, error) {
	session, err := p.sessions.Session(ctx)
	if err != nil {
		return messaging.GetAuthStatusReply{}, fmt.Errorf("load session: %w", err)
	}
	return messaging.GetAuthStatusReply{IsAuthenticated: session != nil, User: session}, nil
}

// SignIn runs the configured sign-in flow and stores the session.
func (p *Proxy) SignIn(ctx context.Context, _ messaging.SignInRequest) (messaging.SuccessReply, error) {
	if p.auth == nil {
		return messaging.SuccessReply{}, ErrNotSupported
	}
	session, err := p.auth.Authenticate(ctx)
	if err != nil {
		p.log.Warn("sign in", "error", err)
		return messaging.SuccessReply{}, fmt.Errorf("sign in: %w", err)
	}
	return p.saveSession(ctx, session)
}

// SignOut clears the stored session.
func (p *Proxy) SignOut(ctx context.Context, _ messaging.SignOutRequest) (messaging.SuccessReply, error) {
	if err := p.sessions.ClearSession(ctx); err != nil {
		return messaging.SuccessReply{}, fmt.Errorf("sign out: %w", err)
	}
	p.log.Info("signed out")
	return messaging.SuccessReply{Success: true}, nil
}

// SignInWithEmail verifies email credentials and stores the session.
func (p *Proxy) SignInWithEmail(ctx context.Context, req messaging.SignInWithEmailRequest) (messaging.SuccessReply, error) {
	if p.accounts == nil {
		return messaging.SuccessReply{}, ErrNotSupported
	}
	session, err := p.accounts.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		p.log.Warn("sign in with email", "email", req.Email, "error", err)
		return messaging.SuccessReply{}, err
	}
	return p.saveSession(ctx, session)
}

// SignUpWithEmail creates an account and signs it in.
func (p *Proxy) SignUpWithEmail(ctx context.Context, req messaging.SignUpWithEmailRequest) (messaging.SuccessReply, error) {
	if p.accounts == nil {
		return messaging.SuccessReply{}, ErrNotSupported
	}
	if err := p.accounts.SignUp(ctx, req.Email, req.Password, req.Name); err != nil {
		p.log.Warn("sign up", "email", req.Email, "error", err)
		return messaging.SuccessReply{}, err
	}
	session, err := p.accounts.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return messaging.SuccessReply{}, err
	}
	return p.saveSession(ctx, session)
}

func (p *Proxy) saveSession(ctx context.Context, s types.Session) (messaging.SuccessReply, error) {
	if s.Email == "" {
		return messaging.SuccessReply{}, errors.New("sign in: no email in session")
	}
	if err := p.sessions.SaveSession(ctx, s); err != nil {
		return messaging.SuccessReply{}, fmt.Errorf("save session: %w", err)
	}
	p.log.Info("signed in", "user", s.Email)
	return messaging.SuccessReply{Success: true}, nil
}
