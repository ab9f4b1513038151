// Package account manages backend user accounts: email/password sign-up and
// sign-in, and Google sign-in.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.aimuz.me/hober/internal/types"
)

// Errors surfaced to users verbatim.
var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUseGoogle          = errors.New("please sign in with google")
	ErrUserNotFound       = errors.New("user not found")
)

// Service implements account operations on a Store.
type Service struct {
	store  *Store
	hasher Hasher
}

// NewService creates a Service. A nil hasher uses SHA256Hasher.
func NewService(store *Store, hasher Hasher) *Service {
	if hasher == nil {
		hasher = SHA256Hasher{}
	}
	return &Service{store: store, hasher: hasher}
}

// SignUp creates an email/password account.
func (s *Service) SignUp(ctx context.Context, email, password, name string) (types.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return types.User{}, errors.New("email and password are required")
	}

	existing, err := s.store.byEmail(ctx, email)
	if err != nil {
		return types.User{}, err
	}
	if existing != nil {
		return types.User{}, ErrUserExists
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return types.User{}, fmt.Errorf("hash password: %w", err)
	}

	return s.store.insert(ctx, record{
		User:         types.User{Email: email, Name: name},
		PasswordHash: hash,
	})
}

// SignIn verifies email credentials.
func (s *Service) SignIn(ctx context.Context, email, password string) (types.User, error) {
	r, err := s.store.byEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return types.User{}, err
	}
	if r == nil {
		return types.User{}, ErrInvalidCredentials
	}
	if r.PasswordHash == "" {
		return types.User{}, ErrUseGoogle
	}
	if !s.hasher.Verify(password, r.PasswordHash) {
		return types.User{}, ErrInvalidCredentials
	}
	return r.User, nil
}

// SignInWithGoogle creates or updates the account for a verified Google
// profile. The email is marked verified either way.
func (s *Service) SignInWithGoogle(ctx context.Context, p GoogleProfile) (types.User, error) {
	if p.Email == "" {
		return types.User{}, errors.New("google profile has no email")
	}

	existing, err := s.store.byEmail(ctx, p.Email)
	if err != nil {
		return types.User{}, err
	}
	if existing != nil {
		if err := s.store.updateGoogle(ctx, existing.ID, p); err != nil {
			return types.User{}, err
		}
		u := existing.User
		u.Name, u.Image, u.GoogleID, u.EmailVerified = p.Name, p.Picture, p.Subject, true
		return u, nil
	}

	return s.store.insert(ctx, record{User: types.User{
		Email:         p.Email,
		Name:          p.Name,
		Image:         p.Picture,
		GoogleID:      p.Subject,
		EmailVerified: true,
	}})
}

// SetTargetLanguage records the account's preferred target language.
func (s *Service) SetTargetLanguage(ctx context.Context, email, lang string) error {
	ok, err := s.store.setTargetLanguage(ctx, email, lang)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUserNotFound
	}
	return nil
}
