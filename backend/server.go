// Package backend is the remote HTTP service the background context calls for
// speech, translation and accounts, plus a client for it.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"go.aimuz.me/hober/account"
	"go.aimuz.me/hober/internal/types"
	"go.aimuz.me/hober/translate"
)

// maxBodySize caps request bodies.
const maxBodySize = 1 << 20

// Default per-user request budget. A user's limiter is dropped after
// DefaultRateIdle without requests.
const (
	DefaultRateInterval = time.Second
	DefaultRateBurst    = 5
	DefaultRateIdle     = 10 * time.Minute
)

// ErrUnauthorized is returned when a request carries no user email.
var ErrUnauthorized = errors.New("unauthorized: please log in")

// Synthesizer turns text into audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Translator translates text.
type Translator interface {
	Translate(ctx context.Context, req translate.Request) (translate.Result, error)
}

// Accounts manages user accounts.
type Accounts interface {
	SignUp(ctx context.Context, email, password, name string) (types.User, error)
	SignIn(ctx context.Context, email, password string) (types.User, error)
	SignInWithGoogle(ctx context.Context, p account.GoogleProfile) (types.User, error)
	SetTargetLanguage(ctx context.Context, email, lang string) error
}

// TokenVerifier exchanges an OAuth access token for a profile.
type TokenVerifier interface {
	Verify(ctx context.Context, accessToken string) (account.GoogleProfile, error)
}

// Config holds a Server's dependencies. Nil services answer 503.
type Config struct {
	Speech       Synthesizer
	Translator   Translator
	Accounts     Accounts
	Google       TokenVerifier
	RateInterval time.Duration
	RateBurst    int
	RateIdle     time.Duration
	Logger       *slog.Logger
}

// Server serves the backend HTTP API.
type Server struct {
	cfg Config
	log *slog.Logger
	mux *http.ServeMux

	mu       sync.Mutex
	limiters *cache.Cache
}

// NewServer creates a Server.
func NewServer(cfg Config) *Server {
	if cfg.RateInterval <= 0 {
		cfg.RateInterval = DefaultRateInterval
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = DefaultRateBurst
	}
	if cfg.RateIdle <= 0 {
		cfg.RateIdle = DefaultRateIdle
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		cfg:      cfg,
		log:      log.With("component", "backend"),
		mux:      http.NewServeMux(),
		limiters: cache.New(cfg.RateIdle, cfg.RateIdle),
	}
	s.mux.HandleFunc("POST /api/tts", s.handleTTS)
	s.mux.HandleFunc("POST /api/translate", s.handleTranslate)
	s.mux.HandleFunc("POST /api/auth/signup", s.handleSignUp)
	s.mux.HandleFunc("POST /api/auth/signin", s.handleSignIn)
	s.mux.HandleFunc("POST /api/auth/google", s.handleGoogle)
	s.mux.HandleFunc("POST /api/user/language", s.handleLanguage)
	s.mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ─── Wire types ────────────────────────────────────────────────────────────

type ttsRequest struct {
	Text      string `json:"text"`
	UserEmail string `json:"userEmail"`
}

type translateRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"targetLanguage"`
	UserEmail      string `json:"userEmail"`
}

type translateResponse struct {
	Translation string `json:"translation"`
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type signUpResponse struct {
	Success bool   `json:"success"`
	UserID  string `json:"userId"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type googleRequest struct {
	AccessToken string `json:"accessToken"`
}

type userResponse struct {
	Success bool       `json:"success"`
	User    types.User `json:"user"`
}

type languageRequest struct {
	Language  string `json:"language"`
	UserEmail string `json:"userEmail"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ─── Handlers ──────────────────────────────────────────────────────────────

func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	var req ttsRequest
	if !s.decode(w, r, &req) || !s.authorize(w, req.UserEmail) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, errors.New("text is required"))
		return
	}
	if s.cfg.Speech == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("speech is not configured"))
		return
	}

	audio, err := s.cfg.Speech.Synthesize(r.Context(), req.Text)
	if err != nil {
		s.log.Error("synthesize", "user", req.UserEmail, "error", err)
		writeError(w, http.StatusBadGateway, err)
		return
	}

	w.Header().Set("Content-Type", types.AudioContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if !s.decode(w, r, &req) || !s.authorize(w, req.UserEmail) {
		return
	}
	if strings.TrimSpace(req.Text) == "" || strings.TrimSpace(req.TargetLanguage) == "" {
		writeError(w, http.StatusBadRequest, errors.New("text and targetLanguage are required"))
		return
	}
	if s.cfg.Translator == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("translation is not configured"))
		return
	}

	res, err := s.cfg.Translator.Translate(r.Context(), translate.Request{
		Text:           req.Text,
		TargetLanguage: req.TargetLanguage,
	})
	if err != nil {
		s.log.Error("translate", "user", req.UserEmail, "error", err)
		writeError(w, http.StatusBadGateway, err)
		return
	}

	s.log.Info("translate", "user", req.UserEmail, "to", req.TargetLanguage, "tokens", res.Usage.TotalTokens, "cached", res.Usage.CacheHit)
	writeJSON(w, http.StatusOK, translateResponse{Translation: res.Text})
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if !s.decode(w, r, &req) || !s.requireAccounts(w) {
		return
	}
	u, err := s.cfg.Accounts.SignUp(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		writeError(w, accountStatus(err), err)
		return
	}
	s.log.Info("sign up", "user", u.Email)
	writeJSON(w, http.StatusOK, signUpResponse{Success: true, UserID: u.ID})
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if !s.decode(w, r, &req) || !s.requireAccounts(w) {
		return
	}
	u, err := s.cfg.Accounts.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, accountStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{Success: true, User: u})
}

func (s *Server) handleGoogle(w http.ResponseWriter, r *http.Request) {
	var req googleRequest
	if !s.decode(w, r, &req) || !s.requireAccounts(w) {
		return
	}
	if s.cfg.Google == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("google sign-in is not configured"))
		return
	}

	profile, err := s.cfg.Google.Verify(r.Context(), req.AccessToken)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}
	u, err := s.cfg.Accounts.SignInWithGoogle(r.Context(), profile)
	if err != nil {
		writeError(w, accountStatus(err), err)
		return
	}
	s.log.Info("google sign in", "user", u.Email)
	writeJSON(w, http.StatusOK, userResponse{Success: true, User: u})
}

func (s *Server) handleLanguage(w http.ResponseWriter, r *http.Request) {
	var req languageRequest
	if !s.decode(w, r, &req) || !s.authorize(w, req.UserEmail) || !s.requireAccounts(w) {
		return
	}
	lang := strings.TrimSpace(req.Language)
	if lang == "" {
		writeError(w, http.StatusBadRequest, errors.New("language is required"))
		return
	}
	if err := s.cfg.Accounts.SetTargetLanguage(r.Context(), req.UserEmail, lang); err != nil {
		writeError(w, accountStatus(err), err)
		return
	}
	s.log.Info("target language changed", "user", req.UserEmail, "language", lang)
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// ─── Helpers ───────────────────────────────────────────────────────────────

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return false
	}
	return true
}

// authorize rejects requests without a user and applies the per-user limit.
func (s *Server) authorize(w http.ResponseWriter, email string) bool {
	if strings.TrimSpace(email) == "" {
		writeError(w, http.StatusUnauthorized, ErrUnauthorized)
		return false
	}
	if !s.limiter(email).Allow() {
		writeError(w, http.StatusTooManyRequests, errors.New("rate limit exceeded"))
		return false
	}
	return true
}

// limiter returns email's limiter and extends its idle expiry.
func (s *Server) limiter(email string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	var l *rate.Limiter
	if v, ok := s.limiters.Get(email); ok {
		l = v.(*rate.Limiter)
	} else {
		l = rate.NewLimiter(rate.Every(s.cfg.RateInterval), s.cfg.RateBurst)
	}
	s.limiters.Set(email, l, cache.DefaultExpiration)
	return l
}

func (s *Server) requireAccounts(w http.ResponseWriter) bool {
	if s.cfg.Accounts == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("accounts are not configured"))
		return false
	}
	return true
}

func accountStatus(err error) int {
	switch {
	case errors.Is(err, account.ErrUserExists):
		return http.StatusConflict
	case errors.Is(err, account.ErrInvalidCredentials), errors.Is(err, account.ErrUseGoogle):
		return http.StatusUnauthorized
	case errors.Is(err, account.ErrUserNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
