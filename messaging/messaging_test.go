package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"go.aimuz.me/hober/internal/types"
)

// fakeHandler answers every message with canned values.
type fakeHandler struct {
	language string
	calls    atomic.Int32
	err      error
	delay    time.Duration
}

func (f *fakeHandler) hit(ctx context.Context) error {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.err
}

func (f *fakeHandler) GenerateSpeech(ctx context.Context, req GenerateSpeechRequest) (GenerateSpeechReply, error) {
	if err := f.hit(ctx); err != nil {
		return GenerateSpeechReply{}, err
	}
	return GenerateSpeechReply{Audio: "aGk=", ContentType: types.AudioContentType}, nil
}

func (f *fakeHandler) TranslateText(ctx context.Context, req TranslateTextRequest) (TranslateTextReply, error) {
	if err := f.hit(ctx); err != nil {
		return TranslateTextReply{}, err
	}
	return TranslateTextReply{Translation: req.Text + "@" + req.TargetLanguage}, nil
}

func (f *fakeHandler) GetTargetLanguage(ctx context.Context, _ GetTargetLanguageRequest) (GetTargetLanguageReply, error) {
	if err := f.hit(ctx); err != nil {
		return GetTargetLanguageReply{}, err
	}
	return GetTargetLanguageReply{Language: f.language}, nil
}

func (f *fakeHandler) SetTargetLanguage(ctx context.Context, req SetTargetLanguageRequest) (SetTargetLanguageReply, error) {
	if err := f.hit(ctx); err != nil {
		return SetTargetLanguageReply{}, err
	}
	f.language = req.Language
	return SetTargetLanguageReply{Success: true}, nil
}

func (f *fakeHandler) GetAuthStatus(ctx context.Context, _ GetAuthStatusRequest) (GetAuthStatusReply, error) {
	if err := f.hit(ctx); err != nil {
		return GetAuthStatusReply{}, err
	}
	return GetAuthStatusReply{IsAuthenticated: true, User: &types.Session{Email: "a@example.com"}}, nil
}

func (f *fakeHandler) SignIn(ctx context.Context, _ SignInRequest) (SuccessReply, error) {
	return SuccessReply{Success: f.hit(ctx) == nil}, nil
}

func (f *fakeHandler) SignOut(ctx context.Context, _ SignOutRequest) (SuccessReply, error) {
	return SuccessReply{Success: f.hit(ctx) == nil}, nil
}

func (f *fakeHandler) SignInWithEmail(ctx context.Context, req SignInWithEmailRequest) (SuccessReply, error) {
	if err := f.hit(ctx); err != nil {
		return SuccessReply{}, err
	}
	return SuccessReply{Success: req.Email != ""}, nil
}

func (f *fakeHandler) SignUpWithEmail(ctx context.Context, req SignUpWithEmailRequest) (SuccessReply, error) {
	if err := f.hit(ctx); err != nil {
		return SuccessReply{}, err
	}
	return SuccessReply{Success: req.Email != ""}, nil
}

func TestDispatch_UnknownMessage(t *testing.T) {
	resp := Dispatch(context.Background(), &fakeHandler{}, Envelope{ID: "1", Name: "getSubscriptionStatus"})
	if resp.ID != "1" {
		t.Errorf("ID = %q, want %q", resp.ID, "1")
	}
	if resp.Error == "" {
		t.Error("expected error for unknown message")
	}
}

func TestDispatch_MalformedPayload(t *testing.T) {
	h := &fakeHandler{}
	resp := Dispatch(context.Background(), h, Envelope{
		ID:      "1",
		Name:    NameTranslateText,
		Payload: json.RawMessage(`{"text": 42}`),
	})
	if resp.Error == "" {
		t.Error("expected decode error")
	}
	if h.calls.Load() != 0 {
		t.Errorf("handler called %d times, want 0", h.calls.Load())
	}
}

func TestDispatch_WireShapes(t *testing.T) {
	h := &fakeHandler{language: "ja"}
	ctx := context.Background()

	tests := []struct {
		name    string
		env     Envelope
		wantRaw string
	}{
		{
			name:    "generateSpeech",
			env:     Envelope{ID: "a", Name: NameGenerateSpeech, Payload: json.RawMessage(`{"text":"hi"}`)},
			wantRaw: `{"audio":"aGk=","contentType":"audio/mpeg"}`,
		},
		{
			name:    "translateText",
			env:     Envelope{ID: "b", Name: NameTranslateText, Payload: json.RawMessage(`{"text":"hi","targetLanguage":"fr"}`)},
			wantRaw: `{"translation":"hi@fr"}`,
		},
		{
			name:    "getTargetLanguage without payload",
			env:     Envelope{ID: "c", Name: NameGetTargetLanguage},
			wantRaw: `{"language":"ja"}`,
		},
		{
			name:    "getAuthStatus",
			env:     Envelope{ID: "d", Name: NameGetAuthStatus, Payload: json.RawMessage(`null`)},
			wantRaw: `{"isAuthenticated":true,"user":{"email":"a@example.com"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := Dispatch(ctx, h, tt.env)
			if resp.Error != "" {
				t.Fatalf("unexpected error: %s", resp.Error)
			}
			if string(resp.Result) != tt.wantRaw {
				t.Errorf("result = %s, want %s", resp.Result, tt.wantRaw)
			}
		})
	}
}

func TestLocal_RoundTrip(t *testing.T) {
	h := &fakeHandler{language: "ja"}
	c := NewClient(Local{Handler: h})
	ctx := context.Background()

	if _, err := c.SetTargetLanguage(ctx, "fr"); err != nil {
		t.Fatalf("SetTargetLanguage() error = %v", err)
	}
	got, err := c.GetTargetLanguage(ctx)
	if err != nil {
		t.Fatalf("GetTargetLanguage() error = %v", err)
	}
	if got.Language != "fr" {
		t.Errorf("Language = %q, want %q", got.Language, "fr")
	}
}

func TestLocal_ErrorCarriesMessageOnly(t *testing.T) {
	h := &fakeHandler{err: errors.New("please log in first")}
	c := NewClient(Local{Handler: h})

	_, err := c.GenerateSpeech(context.Background(), "hello")
	var bridgeErr *Error
	if !errors.As(err, &bridgeErr) {
		t.Fatalf("error = %T %v, want *Error", err, err)
	}
	if bridgeErr.Message != "please log in first" {
		t.Errorf("Message = %q", bridgeErr.Message)
	}
	if h.calls.Load() != 1 {
		t.Errorf("handler called %d times, want exactly 1", h.calls.Load())
	}
}

// mismatchTransport answers with a different request id.
type mismatchTransport struct{}

func (mismatchTransport) RoundTrip(_ context.Context, env Envelope) (Response, error) {
	return Response{ID: env.ID + "-other", Result: json.RawMessage(`{}`)}, nil
}

func TestSend_RejectsMismatchedResponse(t *testing.T) {
	c := NewClient(mismatchTransport{})
	if _, err := c.GetAuthStatus(context.Background()); err == nil {
		t.Error("expected error for mismatched response id")
	}
}

func startSocketServer(t *testing.T, h Handler) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "b.sock")
	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	srv := &Server{Handler: h}
	go func() { done <- srv.Serve(ctx, ln) }()

	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	})
	return path
}

func TestSocket_RoundTrip(t *testing.T) {
	h := &fakeHandler{language: "ja"}
	c := NewClient(Socket{Path: startSocketServer(t, h)})
	ctx := context.Background()

	rep, err := c.TranslateText(ctx, "hello world", "fr")
	if err != nil {
		t.Fatalf("TranslateText() error = %v", err)
	}
	if rep.Translation != "hello world@fr" {
		t.Errorf("Translation = %q", rep.Translation)
	}

	status, err := c.GetAuthStatus(ctx)
	if err != nil {
		t.Fatalf("GetAuthStatus() error = %v", err)
	}
	if !status.IsAuthenticated || status.User == nil || status.User.Email != "a@example.com" {
		t.Errorf("GetAuthStatus() = %+v", status)
	}
}

func TestSocket_ErrorReply(t *testing.T) {
	h := &fakeHandler{err: errors.New("eleven labs api error: boom")}
	c := NewClient(Socket{Path: startSocketServer(t, h)})

	_, err := c.GenerateSpeech(context.Background(), "hi")
	if err == nil || err.Error() != "eleven labs api error: boom" {
		t.Errorf("error = %v", err)
	}
}

func TestSocket_Deadline(t *testing.T) {
	h := &fakeHandler{delay: time.Second}
	c := NewClient(Socket{Path: startSocketServer(t, h)})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.GenerateSpeech(ctx, "slow")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want deadline exceeded", err)
	}
}

func TestSocket_ConcurrentRequests(t *testing.T) {
	h := &fakeHandler{language: "ja", delay: 20 * time.Millisecond}
	c := NewClient(Socket{Path: startSocketServer(t, h)})
	ctx := context.Background()

	errs := make(chan error, 2)
	go func() { _, err := c.GenerateSpeech(ctx, "a"); errs <- err }()
	go func() { _, err := c.TranslateText(ctx, "b", "fr"); errs <- err }()

	for range 2 {
		if err := <-errs; err != nil {
			t.Errorf("concurrent request error = %v", err)
		}
	}
	if h.calls.Load() != 2 {
		t.Errorf("handler called %d times, want 2", h.calls.Load())
	}
}
