// Package translate turns selected text into a translation with an LLM.
package translate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"go.aimuz.me/hober/internal/types"
	"go.aimuz.me/hober/llm"
)

// ErrNoTranslation is returned when the model answers with nothing.
var ErrNoTranslation = errors.New("no translation received")

// DefaultCacheTTL is how long a translation is memoized.
const DefaultCacheTTL = 24 * time.Hour

// minDetectLength is the shortest text worth running source detection on.
const minDetectLength = 20

// Request is one translation request.
type Request struct {
	Text           string
	TargetLanguage string
}

// Result is a completed translation.
type Result struct {
	Text           string
	SourceLanguage string
	Usage          types.Usage
}

// Options configures a Translator.
type Options struct {
	// Model is part of the cache key.
	Model    string
	CacheTTL time.Duration
	// Detect overrides source language detection. Nil uses DetectLanguage.
	Detect func(text string) (string, bool)
	Logger *slog.Logger
}

// Translator encapsulates translation logic with caching.
// Zero value is not useful; create via New.
type Translator struct {
	completer llm.Completer
	model     string
	cache     *cache.Cache
	detect    func(string) (string, bool)
	log       *slog.Logger
}

// New creates a Translator backed by completer.
func New(completer llm.Completer, opts Options) *Translator {
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	detect := opts.Detect
	if detect == nil {
		detect = DetectLanguage
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Translator{
		completer: completer,
		model:     opts.Model,
		cache:     cache.New(ttl, ttl/2),
		detect:    detect,
		log:       log.With("component", "translate"),
	}
}

// Translate translates req.Text into req.TargetLanguage, with cache lookup.
func (t *Translator) Translate(ctx context.Context, req Request) (Result, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return Result{}, errors.New("text is required")
	}
	if strings.TrimSpace(req.TargetLanguage) == "" {
		return Result{}, errors.New("target language is required")
	}

	key := t.cacheKey(req.TargetLanguage, text)
	if v, ok := t.cache.Get(key); ok {
		res := v.(Result)
		res.Usage.CacheHit = true
		return res, nil
	}

	var source string
	if len(text) >= minDetectLength {
		source, _ = t.detect(text)
	}
	msgs := buildTranslateMessages(text, source, req.TargetLanguage)

	out, usage, err := t.completer.Complete(ctx, msgs)
	if err != nil {
		return Result{}, fmt.Errorf("translate: %w", err)
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return Result{}, ErrNoTranslation
	}

	res := Result{Text: out, SourceLanguage: source, Usage: usage}
	t.cache.Set(key, res, cache.DefaultExpiration)

	t.log.Debug("translated", "from", source, "to", req.TargetLanguage, "tokens", usage.TotalTokens)
	return res, nil
}

func buildTranslateMessages(text, source, target string) []llm.Message {
	var from string
	if source != "" {
		from = LanguageName(source) + " "
	}
	content := fmt.Sprintf(
		"Translate the following %stext to %s. Only return the translation, nothing else. Do not add any explanations or notes.\n\nText to translate:\n%s",
		from, LanguageName(target), text,
	)
	return []llm.Message{{Role: "user", Content: content}}
}

func (t *Translator) cacheKey(target, text string) string {
	h := sha256.New()
	for _, part := range []string{t.model, target, text} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
