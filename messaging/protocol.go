// Package messaging implements the typed request/response bridge between the
// page context and the background daemon.
//
// The protocol is a closed set: every request type implements Request[R] for
// exactly one reply type R, and the marker method is unexported so new
// messages can only be added here. Handler has one method per message.
package messaging

import (
	"encoding/json"

	"go.aimuz.me/hober/internal/types"
)

// Name identifies a message on the wire.
type Name string

// Message names.
const (
	NameGenerateSpeech    Name = "generateSpeech"
	NameTranslateText     Name = "translateText"
	NameGetTargetLanguage Name = "getTargetLanguage"
	NameSetTargetLanguage Name = "setTargetLanguage"
	NameGetAuthStatus     Name = "getAuthStatus"
	NameSignIn            Name = "signIn"
	NameSignOut           Name = "signOut"
	NameSignInWithEmail   Name = "signInWithEmail"
	NameSignUpWithEmail   Name = "signUpWithEmail"
)

// Request is a message payload whose success reply has type R.
type Request[R any] interface {
	Message() Name
	reply(R)
}

// ─────────────────────────────────────────────────────────────────────────────
// Speech & Translation
// ─────────────────────────────────────────────────────────────────────────────

type GenerateSpeechRequest struct {
	Text string `json:"text"`
}

type GenerateSpeechReply struct {
	Audio       string `json:"audio"` // base64
	ContentType string `json:"contentType"`
}

type TranslateTextRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"targetLanguage"`
}

type TranslateTextReply struct {
	Translation string `json:"translation"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Settings
// ─────────────────────────────────────────────────────────────────────────────

type GetTargetLanguageRequest struct{}

type GetTargetLanguageReply struct {
	Language string `json:"language"`
}

type SetTargetLanguageRequest struct {
	Language string `json:"language"`
}

type SetTargetLanguageReply struct {
	Success bool `json:"success"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Auth
// ─────────────────────────────────────────────────────────────────────────────

type GetAuthStatusRequest struct{}

type GetAuthStatusReply struct {
	IsAuthenticated bool           `json:"isAuthenticated"`
	User            *types.Session `json:"user"`
}

// SignInRequest starts the OAuth sign-in flow.
type SignInRequest struct{}

type SignOutRequest struct{}

type SignInWithEmailRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignUpWithEmailRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// SuccessReply is shared by the auth messages.
type SuccessReply struct {
	Success bool `json:"success"`
}

func (GenerateSpeechRequest) Message() Name             { return NameGenerateSpeech }
func (GenerateSpeechRequest) reply(GenerateSpeechReply) {}

func (TranslateTextRequest) Message() Name            { return NameTranslateText }
func (TranslateTextRequest) reply(TranslateTextReply) {}

func (GetTargetLanguageRequest) Message() Name                { return NameGetTargetLanguage }
func (GetTargetLanguageRequest) reply(GetTargetLanguageReply) {}

func (SetTargetLanguageRequest) Message() Name                { return NameSetTargetLanguage }
func (SetTargetLanguageRequest) reply(SetTargetLanguageReply) {}

func (GetAuthStatusRequest) Message() Name            { return NameGetAuthStatus }
func (GetAuthStatusRequest) reply(GetAuthStatusReply) {}

func (SignInRequest) Message() Name      { return NameSignIn }
func (SignInRequest) reply(SuccessReply) {}

func (SignOutRequest) Message() Name      { return NameSignOut }
func (SignOutRequest) reply(SuccessReply) {}

func (SignInWithEmailRequest) Message() Name      { return NameSignInWithEmail }
func (SignInWithEmailRequest) reply(SuccessReply) {}

func (SignUpWithEmailRequest) Message() Name      { return NameSignUpWithEmail }
func (SignUpWithEmailRequest) reply(SuccessReply) {}

// ─────────────────────────────────────────────────────────────────────────────
// Wire format
// ─────────────────────────────────────────────────────────────────────────────

// Envelope carries one request across a transport.
type Envelope struct {
	ID      string          `json:"id"`
	Name    Name            `json:"name"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response answers exactly one Envelope. Error is set instead of Result on
// failure.
type Response struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Error is a failed round trip as seen by the caller. The bridge carries only
// the display message, never an error kind.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }
