package app

import (
	"log/slog"
	"sync"
	"time"

	"go.aimuz.me/hober/card"
	"go.aimuz.me/hober/internal/textutil"
	"go.aimuz.me/hober/selection"
)

// PageConfig holds the page context's collaborators.
type PageConfig struct {
	Document  selection.Document
	Bridge    card.Messenger
	Player    card.Player
	Clipboard card.Clipboard
	Timeout   time.Duration
	// Delay is the pointer-up debounce; zero uses the default and a negative
	// value reads the selection immediately.
	Delay  time.Duration
	Logger *slog.Logger
	// OnCard, if set, is called whenever a card is mounted or removed (nil).
	OnCard func(*card.Card, *selection.Point)
}

// Page is the in-page context: it detects selections and mounts one card
// per visible selection.
type Page struct {
	cfg      PageConfig
	detector *selection.Detector
	log      *slog.Logger

	mu      sync.Mutex
	current *card.Card
}

// NewPage wires a selection detector to card mounting.
func NewPage(cfg PageConfig) *Page {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	delay := cfg.Delay
	if delay == 0 {
		delay = selection.DefaultDelay
	}

	p := &Page{
		cfg:      cfg,
		detector: selection.NewDetector(cfg.Document, selection.WithDelay(delay)),
		log:      log.With("component", "page"),
	}
	p.detector.OnChange(p.onSelection)
	return p
}

// Detector returns the page's selection detector, which receives DOM events.
func (p *Page) Detector() *selection.Detector { return p.detector }

// Card returns the mounted card, or nil.
func (p *Page) Card() *card.Card {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *Page) onSelection(s selection.State) {
	p.mu.Lock()
	old := p.current
	var next *card.Card
	switch {
	case !s.Visible:
	case old != nil && old.Text() == s.Text:
		next = old
	default:
		next = card.New(s.Text, p.detector, card.Config{
			Bridge:    p.cfg.Bridge,
			Player:    p.cfg.Player,
			Clipboard: p.cfg.Clipboard,
			Timeout:   p.cfg.Timeout,
			Logger:    p.log,
		})
	}
	p.current = next
	p.mu.Unlock()

	if old == next {
		return
	}
	if old != nil {
		old.Unmount()
	}
	if next != nil {
		p.log.Debug("card mounted", "text", textutil.Truncate(s.Text, 50))
	}
	if p.cfg.OnCard != nil {
		p.cfg.OnCard(next, s.Anchor)
	}
}
