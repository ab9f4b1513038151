package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.aimuz.me/hober/internal/types"
)

// Client calls a backend Server over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Client for the server at baseURL. A nil httpClient uses
// http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// Synthesize returns speech audio for text on behalf of userEmail.
func (c *Client) Synthesize(ctx context.Context, text, userEmail string) ([]byte, error) {
	resp, err := c.post(ctx, "/api/tts", ttsRequest{Text: text, UserEmail: userEmail})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	return audio, nil
}

// Translate translates text into targetLanguage on behalf of userEmail.
func (c *Client) Translate(ctx context.Context, text, targetLanguage, userEmail string) (string, error) {
	var out struct {
		Translation *string `json:"translation"`
	}
	if err := c.call(ctx, "/api/translate", translateRequest{
		Text:           text,
		TargetLanguage: targetLanguage,
		UserEmail:      userEmail,
	}, &out); err != nil {
		return "", err
	}
	if out.Translation == nil || *out.Translation == "" {
		return "", errors.New("translation failed: no translation in response")
	}
	return *out.Translation, nil
}

// SignUp creates an email/password account.
func (c *Client) SignUp(ctx context.Context, email, password, name string) error {
	var out signUpResponse
	return c.call(ctx, "/api/auth/signup", signUpRequest{Email: email, Password: password, Name: name}, &out)
}

// SignIn verifies email credentials and returns the session to store.
func (c *Client) SignIn(ctx context.Context, email, password string) (types.Session, error) {
	var out userResponse
	if err := c.call(ctx, "/api/auth/signin", signInRequest{Email: email, Password: password}, &out); err != nil {
		return types.Session{}, err
	}
	return out.User.Session(), nil
}

// SignInWithGoogle exchanges a Google access token for a session.
func (c *Client) SignInWithGoogle(ctx context.Context, accessToken string) (types.Session, error) {
	var out userResponse
	if err := c.call(ctx, "/api/auth/google", googleRequest{AccessToken: accessToken}, &out); err != nil {
		return types.Session{}, err
	}
	return out.User.Session(), nil
}

// SetTargetLanguage records lang as userEmail's preferred target language.
func (c *Client) SetTargetLanguage(ctx context.Context, userEmail, lang string) error {
	var out successResponse
	return c.call(ctx, "/api/user/language", languageRequest{Language: lang, UserEmail: userEmail}, &out)
}

func (c *Client) call(ctx context.Context, path string, in, out any) error {
	resp, err := c.post(ctx, path, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// post sends in as JSON. Non-2xx responses become errors carrying the
// server's message.
func (c *Client) post(ctx context.Context, path string, in any) (*http.Response, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		var e errorResponse
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			return nil, errors.New(e.Error)
		}
		return nil, fmt.Errorf("backend error: %d - %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return resp, nil
}
