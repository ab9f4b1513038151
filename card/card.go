// Package card implements the floating card bound to a text selection: the
// speak/translate actions and their transient state.
package card

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.aimuz.me/hober/internal/textutil"
	"go.aimuz.me/hober/messaging"
)

// Display messages for failures the card detects itself.
const (
	MsgTimeout        = "timeout"
	MsgPlaybackFailed = "failed to play audio"
	MsgSpeechFailed   = "speech failed"
	MsgTranslateFail  = "translation failed"
)

// DefaultTimeout bounds each outbound message.
const DefaultTimeout = 30 * time.Second

// Messenger is the part of the bridge client the card uses.
type Messenger interface {
	GenerateSpeech(ctx context.Context, text string) (messaging.GenerateSpeechReply, error)
	TranslateText(ctx context.Context, text, targetLanguage string) (messaging.TranslateTextReply, error)
	GetTargetLanguage(ctx context.Context) (messaging.GetTargetLanguageReply, error)
}

// Player plays an audio source and returns when playback has ended.
type Player interface {
	Play(ctx context.Context, src AudioSource) error
}

// Clipboard receives copied translations.
type Clipboard interface {
	WriteText(text string) error
}

// Closer owns the selection the card is bound to.
type Closer interface {
	Clear()
}

// Status is the coarse state of a card.
type Status int

const (
	StatusIdle Status = iota
	StatusSpeaking
	StatusTranslating
	StatusTranslationReady
)

func (s Status) String() string {
	switch s {
	case StatusSpeaking:
		return "speaking"
	case StatusTranslating:
		return "translating"
	case StatusTranslationReady:
		return "translation-ready"
	default:
		return "idle"
	}
}

// State is a snapshot of a card. Err is independent of the action flags.
type State struct {
	Speaking    bool
	Translating bool
	Translation string
	Err         string
}

// Status derives the coarse state. A pending translation wins over pending
// speech since both can run at once.
func (s State) Status() Status {
	switch {
	case s.Translating:
		return StatusTranslating
	case s.Speaking:
		return StatusSpeaking
	case s.Translation != "":
		return StatusTranslationReady
	default:
		return StatusIdle
	}
}

// Config holds a card's collaborators.
type Config struct {
	Bridge    Messenger
	Player    Player
	Clipboard Clipboard
	Timeout   time.Duration
	Logger    *slog.Logger
	// OnChange, if set, receives every state change.
	OnChange func(State)
}

// Card is one mounted floating card. It lives as long as its selection.
type Card struct {
	text  string
	owner Closer
	cfg   Config
	log   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	state  State
	closed bool
}

// New mounts a card for text.
func New(text string, owner Closer, cfg Config) *Card {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Card{
		text:   text,
		owner:  owner,
		cfg:    cfg,
		log:    log.With("component", "card"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Text returns the selection the card is bound to.
func (c *Card) Text() string { return c.text }

// State returns the current snapshot.
func (c *Card) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Speak synthesizes the selection and plays it. It returns when playback has
// ended or failed. A call while speech is pending does nothing.
func (c *Card) Speak(ctx context.Context) {
	if !c.begin(func(s *State) *bool { return &s.Speaking }) {
		return
	}

	ctx, stop := c.bind(ctx)
	defer stop()

	c.log.Debug("speak", "text", textutil.Truncate(c.text, 50))

	msgCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	reply, err := c.cfg.Bridge.GenerateSpeech(msgCtx, c.text)
	cancel()
	if err != nil {
		c.log.Warn("generate speech", "error", err)
		c.end(func(s *State) { s.Speaking = false }, failure(err, MsgSpeechFailed))
		return
	}

	src := AudioSource{ContentType: reply.ContentType, Data: reply.Audio}
	if c.cfg.Player == nil {
		c.end(func(s *State) { s.Speaking = false }, MsgPlaybackFailed)
		return
	}
	if err := c.cfg.Player.Play(ctx, src); err != nil {
		c.log.Warn("play audio", "error", err)
		c.end(func(s *State) { s.Speaking = false }, MsgPlaybackFailed)
		return
	}
	c.end(func(s *State) { s.Speaking = false }, "")
}

// Translate looks up the target language and translates the selection. A
// call while a translation is pending does nothing.
func (c *Card) Translate(ctx context.Context) {
	if !c.begin(func(s *State) *bool { return &s.Translating }) {
		return
	}

	ctx, stop := c.bind(ctx)
	defer stop()

	c.log.Debug("translate", "text", textutil.Truncate(c.text, 50))

	// One deadline covers both round trips of this invocation.
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	lang, err := c.cfg.Bridge.GetTargetLanguage(ctx)
	if err != nil {
		c.log.Warn("get target language", "error", err)
		c.end(func(s *State) { s.Translating = false }, failure(err, MsgTranslateFail))
		return
	}

	reply, err := c.cfg.Bridge.TranslateText(ctx, c.text, lang.Language)
	if err != nil {
		c.log.Warn("translate text", "language", lang.Language, "error", err)
		c.end(func(s *State) { s.Translating = false }, failure(err, MsgTranslateFail))
		return
	}

	c.end(func(s *State) {
		s.Translating = false
		s.Translation = reply.Translation
	}, "")
}

// CopyTranslation writes the translation to the clipboard, if there is one.
func (c *Card) CopyTranslation() error {
	translation := c.State().Translation
	if translation == "" || c.cfg.Clipboard == nil {
		return nil
	}
	return c.cfg.Clipboard.WriteText(translation)
}

// Close clears the owning selection and discards all card state. Pending
// actions are canceled and their results dropped.
func (c *Card) Close() {
	c.Unmount()
	if c.owner != nil {
		c.owner.Clear()
	}
}

// Unmount discards the card without touching its selection. It is used when
// the selection itself went away or was replaced.
func (c *Card) Unmount() {
	c.mu.Lock()
	c.closed = true
	c.state = State{}
	c.mu.Unlock()

	c.cancel()
}

// begin sets the busy flag chosen by flag and clears the error. It reports
// false when the flag was already set or the card is closed.
func (c *Card) begin(flag func(*State) *bool) bool {
	c.mu.Lock()
	busy := flag(&c.state)
	if c.closed || *busy {
		c.mu.Unlock()
		return false
	}
	*busy = true
	c.state.Err = ""
	snapshot := c.state
	c.mu.Unlock()

	c.notify(snapshot)
	return true
}

// end applies fn and, when errMsg is non-empty, records the error.
func (c *Card) end(fn func(*State), errMsg string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	fn(&c.state)
	if errMsg != "" {
		c.state.Err = errMsg
	}
	snapshot := c.state
	c.mu.Unlock()

	c.notify(snapshot)
}

func (c *Card) notify(s State) {
	if c.cfg.OnChange != nil {
		c.cfg.OnChange(s)
	}
}

// bind derives a context canceled by either ctx or Close.
func (c *Card) bind(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// failure turns an action error into its display message.
func failure(err error, fallback string) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return MsgTimeout
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
