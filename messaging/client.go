package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Transport carries one Envelope to the background context and returns its
// Response. A non-nil error means the round trip itself failed.
type Transport interface {
	RoundTrip(ctx context.Context, env Envelope) (Response, error)
}

// Client sends typed messages over a Transport.
type Client struct {
	t Transport
}

// NewClient creates a Client.
func NewClient(t Transport) *Client {
	return &Client{t: t}
}

// Send performs one round trip for req and decodes its reply.
func Send[R any](ctx context.Context, c *Client, req Request[R]) (R, error) {
	var zero R

	payload, err := json.Marshal(req)
	if err != nil {
		return zero, fmt.Errorf("encode %s: %w", req.Message(), err)
	}

	env := Envelope{
		ID:      uuid.NewString(),
		Name:    req.Message(),
		Payload: payload,
	}

	resp, err := c.t.RoundTrip(ctx, env)
	if err != nil {
		return zero, err
	}
	if resp.ID != env.ID {
		return zero, fmt.Errorf("%s: response id %q does not match request %q", env.Name, resp.ID, env.ID)
	}
	if resp.Error != "" {
		return zero, &Error{Message: resp.Error}
	}

	var rep R
	if err := json.Unmarshal(resp.Result, &rep); err != nil {
		return zero, fmt.Errorf("decode %s reply: %w", env.Name, err)
	}
	return rep, nil
}

// GenerateSpeech asks the background daemon to synthesize text.
func (c *Client) GenerateSpeech(ctx context.Context, text string) (GenerateSpeechReply, error) {
	return Send[GenerateSpeechReply](ctx, c, GenerateSpeechRequest{Text: text})
}

// TranslateText asks the background daemon to translate text.
func (c *Client) TranslateText(ctx context.Context, text, targetLanguage string) (TranslateTextReply, error) {
	return Send[TranslateTextReply](ctx, c, TranslateTextRequest{Text: text, TargetLanguage: targetLanguage})
}

func (c *Client) GetTargetLanguage(ctx context.Context) (GetTargetLanguageReply, error) {
	return Send[GetTargetLanguageReply](ctx, c, GetTargetLanguageRequest{})
}

func (c *Client) SetTargetLanguage(ctx context.Context, language string) (SetTargetLanguageReply, error) {
	return Send[SetTargetLanguageReply](ctx, c, SetTargetLanguageRequest{Language: language})
}

func (c *Client) GetAuthStatus(ctx context.Context) (GetAuthStatusReply, error) {
	return Send[GetAuthStatusReply](ctx, c, GetAuthStatusRequest{})
}

func (c *Client) SignIn(ctx context.Context) (SuccessReply, error) {
	return Send[SuccessReply](ctx, c, SignInRequest{})
}

func (c *Client) SignOut(ctx context.Context) (SuccessReply, error) {
	return Send[SuccessReply](ctx, c, SignOutRequest{})
}

func (c *Client) SignInWithEmail(ctx context.Context, email, password string) (SuccessReply, error) {
	return Send[SuccessReply](ctx, c, SignInWithEmailRequest{Email: email, Password: password})
}

func (c *Client) SignUpWithEmail(ctx context.Context, email, password, name string) (SuccessReply, error) {
	return Send[SuccessReply](ctx, c, SignUpWithEmailRequest{Email: email, Password: password, Name: name})
}
