package messaging

import (
	"context"
	"encoding/json"
	"fmt"
)

// Handler serves every message of the protocol. Implementations live in the
// background context.
type Handler interface {
	GenerateSpeech(ctx context.Context, req GenerateSpeechRequest) (GenerateSpeechReply, error)
	TranslateText(ctx context.Context, req TranslateTextRequest) (TranslateTextReply, error)
	GetTargetLanguage(ctx context.Context, req GetTargetLanguageRequest) (GetTargetLanguageReply, error)
	SetTargetLanguage(ctx context.Context, req SetTargetLanguageRequest) (SetTargetLanguageReply, error)
	GetAuthStatus(ctx context.Context, req GetAuthStatusRequest) (GetAuthStatusReply, error)
	SignIn(ctx context.Context, req SignInRequest) (SuccessReply, error)
	SignOut(ctx context.Context, req SignOutRequest) (SuccessReply, error)
	SignInWithEmail(ctx context.Context, req SignInWithEmailRequest) (SuccessReply, error)
	SignUpWithEmail(ctx context.Context, req SignUpWithEmailRequest) (SuccessReply, error)
}

// Dispatch decodes env, invokes the matching Handler method and encodes its
// outcome. It never returns a Go error: failures travel in Response.Error.
func Dispatch(ctx context.Context, h Handler, env Envelope) Response {
	switch env.Name {
	case NameGenerateSpeech:
		return handle(ctx, env, h.GenerateSpeech)
	case NameTranslateText:
		return handle(ctx, env, h.TranslateText)
	case NameGetTargetLanguage:
		return handle(ctx, env, h.GetTargetLanguage)
	case NameSetTargetLanguage:
		return handle(ctx, env, h.SetTargetLanguage)
	case NameGetAuthStatus:
		return handle(ctx, env, h.GetAuthStatus)
	case NameSignIn:
		return handle(ctx, env, h.SignIn)
	case NameSignOut:
		return handle(ctx, env, h.SignOut)
	case NameSignInWithEmail:
		return handle(ctx, env, h.SignInWithEmail)
	case NameSignUpWithEmail:
		return handle(ctx, env, h.SignUpWithEmail)
	default:
		return errorResponse(env.ID, fmt.Errorf("unknown message: %q", env.Name))
	}
}

// handle ties a request type to its reply type at compile time.
func handle[Q Request[R], R any](ctx context.Context, env Envelope, fn func(context.Context, Q) (R, error)) Response {
	var req Q
	if len(env.Payload) > 0 && string(env.Payload) != "null" {
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			return errorResponse(env.ID, fmt.Errorf("decode %s payload: %w", env.Name, err))
		}
	}

	rep, err := fn(ctx, req)
	if err != nil {
		return errorResponse(env.ID, err)
	}

	data, err := json.Marshal(rep)
	if err != nil {
		return errorResponse(env.ID, fmt.Errorf("encode %s reply: %w", env.Name, err))
	}
	return Response{ID: env.ID, Result: data}
}

func errorResponse(id string, err error) Response {
	msg := err.Error()
	if msg == "" {
		msg = "request failed"
	}
	return Response{ID: id, Error: msg}
}
