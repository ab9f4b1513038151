// Package app wires the hober components into the processes that run them:
// the remote backend, the background daemon and the page context.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"go.aimuz.me/hober/account"
	"go.aimuz.me/hober/backend"
	"go.aimuz.me/hober/background"
	"go.aimuz.me/hober/config"
	"go.aimuz.me/hober/internal/types"
	"go.aimuz.me/hober/llm"
	"go.aimuz.me/hober/messaging"
	"go.aimuz.me/hober/speech"
	"go.aimuz.me/hober/store"
	"go.aimuz.me/hober/translate"
)

const shutdownTimeout = 5 * time.Second

// ─────────────────────────────────────────────────────────────────────────────
// Backend
// ─────────────────────────────────────────────────────────────────────────────

// Backend is the remote HTTP service process.
type Backend struct {
	cfg      *config.Config
	accounts *account.Store
	server   *backend.Server
	log      *slog.Logger
}

// NewBackend builds the backend from cfg. Missing provider keys do not fail
// startup; the affected requests fail instead.
func NewBackend(cfg *config.Config, log *slog.Logger) (*Backend, error) {
	if log == nil {
		log = slog.Default()
	}

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	accounts, err := account.OpenStore(filepath.Join(cfg.DataDir, "accounts.db"))
	if err != nil {
		return nil, fmt.Errorf("open account store: %w", err)
	}

	httpClient := &http.Client{Timeout: cfg.RequestTimeout()}

	speechCfg := speech.Config{HTTPClient: httpClient}
	if cred := cfg.SpeechCredential(); cred != nil {
		speechCfg.APIKey = cred.APIKey
		speechCfg.BaseURL = cred.BaseURL
	} else {
		log.Warn("no speech credential configured", "env", config.EnvElevenLabsKey)
	}
	if sc := cfg.Speech; sc != nil {
		speechCfg.VoiceID = sc.VoiceID
		speechCfg.Model = sc.Model
		speechCfg.OutputFormat = sc.OutputFormat
	}

	var translator backend.Translator
	if cred := cfg.TranslationCredential(); cred != nil {
		profile := cfg.Translation
		completer, err := llm.New(llm.Config{
			Provider:    cred.Type,
			APIKey:      cred.APIKey,
			BaseURL:     cred.BaseURL,
			Model:       profile.Model,
			MaxTokens:   profile.MaxTokens,
			Temperature: profile.Temperature,
			HTTPClient:  httpClient,
		})
		if err != nil {
			log.Warn("translation disabled", "credential", cred.ID, "error", err)
		} else {
			translator = translate.New(completer, translate.Options{Model: profile.Model, Logger: log})
		}
	} else {
		log.Warn("no translation credential configured", "env", config.EnvGeminiKey)
	}

	server := backend.NewServer(backend.Config{
		Speech:     speech.NewElevenLabs(speechCfg),
		Translator: translator,
		Accounts:   account.NewService(accounts, nil),
		Google:     &account.GoogleVerifier{HTTP: httpClient},
		Logger:     log,
	})

	return &Backend{cfg: cfg, accounts: accounts, server: server, log: log}, nil
}

// Handler returns the HTTP API.
func (b *Backend) Handler() http.Handler { return b.server }

// Run listens on the configured address until ctx is done.
func (b *Backend) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", b.cfg.BackendAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return b.Serve(ctx, ln)
}

// Serve serves the HTTP API on ln until ctx is done.
func (b *Backend) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           b.server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			b.log.Error("shutdown backend", "error", err)
		}
	})
	defer stop()

	b.log.Info("backend listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve backend: %w", err)
	}
	return nil
}

// Close releases the account database.
func (b *Backend) Close() error {
	return b.accounts.Close()
}

// ─────────────────────────────────────────────────────────────────────────────
// Background
// ─────────────────────────────────────────────────────────────────────────────

// Background is the long-lived daemon that owns the session and serves the
// bridge on a Unix socket.
type Background struct {
	cfg   *config.Config
	store *store.Store
	proxy *background.Proxy
	log   *slog.Logger
}

// NewBackground builds the background daemon from cfg.
func NewBackground(cfg *config.Config, log *slog.Logger) (*Background, error) {
	if log == nil {
		log = slog.Default()
	}

	s, err := store.Open(store.Options{Dir: filepath.Join(cfg.DataDir, "store"), Logger: log})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	prefs := store.NewPreferences(s)

	remote := backend.NewClient(cfg.BackendURL, &http.Client{Timeout: cfg.RequestTimeout()})

	proxy := background.NewProxy(background.Config{
		Sessions:    prefs,
		Preferences: prefs,
		Remote:      remote,
		Accounts:    remote,
		Languages:   remote,
		Auth:        tokenAuth{token: cfg.GoogleToken, remote: remote},
		Logger:      log,
	})

	return &Background{cfg: cfg, store: s, proxy: proxy, log: log}, nil
}

// Proxy returns the bridge handler.
func (b *Background) Proxy() *background.Proxy { return b.proxy }

// Run serves the bridge on the configured socket until ctx is done.
func (b *Background) Run(ctx context.Context) error {
	path := b.cfg.SocketPath
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create socket dir: %w", err)
	}
	// A previous daemon that crashed leaves its socket file behind.
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale socket: %w", err)
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	if err := os.Chmod(path, 0600); err != nil {
		ln.Close()
		return fmt.Errorf("chmod socket: %w", err)
	}

	b.log.Info("background listening", "socket", path)
	srv := &messaging.Server{Handler: b.proxy, Logger: b.log}
	return srv.Serve(ctx, ln)
}

// Close releases the preference store.
func (b *Background) Close() error {
	return b.store.Close()
}

// tokenAuth signs in with a Google access token supplied out of band.
type tokenAuth struct {
	token  string
	remote *backend.Client
}

func (a tokenAuth) Authenticate(ctx context.Context) (types.Session, error) {
	if a.token == "" {
		return types.Session{}, fmt.Errorf("no google access token (set %s)", config.EnvGoogleToken)
	}
	return a.remote.SignInWithGoogle(ctx, a.token)
}

// ─────────────────────────────────────────────────────────────────────────────
// Serve
// ─────────────────────────────────────────────────────────────────────────────

// Serve runs the backend and the background daemon together until ctx is
// done or either fails.
func Serve(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	be, err := NewBackend(cfg, log)
	if err != nil {
		return err
	}
	defer be.Close()

	bg, err := NewBackground(cfg, log)
	if err != nil {
		return err
	}
	defer bg.Close()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return be.Run(ctx) })
	g.Go(func() error { return bg.Run(ctx) })
	return g.Wait()
}
