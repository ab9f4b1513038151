// Package selection detects text selections in a page and computes where the
// floating card should be anchored.
package selection

import (
	"strings"
	"sync"
	"time"
)

const (
	// DefaultDelay lets the browser finalize the selection range after
	// pointer-up before it is read.
	DefaultDelay = 10 * time.Millisecond

	// anchorOffset places the card just below the selection.
	anchorOffset = 8
)

// State is a snapshot of the detector.
type State struct {
	Text    string
	Anchor  *Point
	Visible bool
}

// Detector tracks the current selection of one document.
type Detector struct {
	doc   Document
	delay time.Duration

	// notifyMu is held from a state change until its listeners return, so
	// listeners observe changes in the order they were applied.
	notifyMu sync.Mutex

	mu        sync.Mutex
	state     State
	listeners []func(State)
}

// Option configures a Detector.
type Option func(*Detector)

// WithDelay overrides the pointer-up debounce.
func WithDelay(d time.Duration) Option {
	return func(det *Detector) { det.delay = d }
}

// NewDetector creates a Detector observing doc.
func NewDetector(doc Document, opts ...Option) *Detector {
	d := &Detector{doc: doc, delay: DefaultDelay}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// OnChange registers fn to be called after every state change. Listeners
// run one change at a time and must not update the detector themselves.
func (d *Detector) OnChange(fn func(State)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, fn)
}

// State returns the current snapshot.
func (d *Detector) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// PointerUp schedules a read of the selection after the debounce delay.
func (d *Detector) PointerUp() {
	if d.delay <= 0 {
		d.capture()
		return
	}
	time.AfterFunc(d.delay, d.capture)
}

// PointerDown clears the selection unless the event happened inside the
// card's own UI.
func (d *Detector) PointerDown(path []Node) {
	if InsideCard(path) {
		return
	}
	d.Clear()
}

// KeyDown clears the selection on Escape.
func (d *Detector) KeyDown(key string) {
	if key == "Escape" {
		d.Clear()
	}
}

// Clear resets to the empty, invisible state. Calling it again is a no-op.
func (d *Detector) Clear() {
	d.update(func(s *State) bool {
		if !s.Visible && s.Text == "" && s.Anchor == nil {
			return false
		}
		*s = State{}
		return true
	})
}

func (d *Detector) capture() {
	raw, rect, ok := d.doc.Selection()
	text := strings.TrimSpace(raw)
	if !ok || text == "" {
		return
	}

	anchor := Anchor(rect, d.doc.ScrollY())
	d.update(func(s *State) bool {
		*s = State{Text: text, Anchor: &anchor, Visible: true}
		return true
	})
}

// Anchor returns the card position for a selection rectangle: horizontal
// center, just below the bottom edge, in document coordinates.
func Anchor(rect Rect, scrollY float64) Point {
	return Point{
		X: rect.Left + rect.Width/2,
		Y: rect.Bottom() + scrollY + anchorOffset,
	}
}

func (d *Detector) update(fn func(*State) bool) {
	d.notifyMu.Lock()
	defer d.notifyMu.Unlock()

	d.mu.Lock()
	if !fn(&d.state) {
		d.mu.Unlock()
		return
	}
	snapshot := d.state
	listeners := append([]func(State){}, d.listeners...)
	d.mu.Unlock()

	for _, l := range listeners {
		l(snapshot)
	}
}
