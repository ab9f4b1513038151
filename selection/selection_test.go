package selection

import (
	"sync"
	"testing"
	"time"
)

// fakeDocument is a page with a settable selection.
type fakeDocument struct {
	mu      sync.Mutex
	text    string
	rect    Rect
	hasRect bool
	scrollY float64
}

func (f *fakeDocument) Selection() (string, Rect, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.text, f.rect, f.hasRect
}

func (f *fakeDocument) ScrollY() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scrollY
}

func (f *fakeDocument) selectText(text string, rect Rect) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text, f.rect, f.hasRect = text, rect, true
}

func TestPointerUp(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		rect        Rect
		hasRect     bool
		scrollY     float64
		wantVisible bool
		wantText    string
		wantAnchor  Point
	}{
		{
			name:        "selection below the fold",
			text:        "  hello world \n",
			rect:        Rect{Left: 100, Top: 40, Width: 60, Height: 20},
			hasRect:     true,
			scrollY:     300,
			wantVisible: true,
			wantText:    "hello world",
			wantAnchor:  Point{X: 130, Y: 368},
		},
		{
			name:        "no scroll",
			text:        "bonjour",
			rect:        Rect{Left: 0, Top: 0, Width: 10, Height: 12},
			hasRect:     true,
			wantVisible: true,
			wantText:    "bonjour",
			wantAnchor:  Point{X: 5, Y: 20},
		},
		{
			name:    "whitespace only",
			text:    "   \t",
			rect:    Rect{Width: 10, Height: 10},
			hasRect: true,
		},
		{
			name: "no range",
			text: "orphan",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &fakeDocument{text: tt.text, rect: tt.rect, hasRect: tt.hasRect, scrollY: tt.scrollY}
			d := NewDetector(doc, WithDelay(0))

			d.PointerUp()
			got := d.State()

			if got.Visible != tt.wantVisible {
				t.Fatalf("Visible = %v, want %v", got.Visible, tt.wantVisible)
			}
			if !tt.wantVisible {
				if got.Text != "" || got.Anchor != nil {
					t.Errorf("State = %+v, want empty", got)
				}
				return
			}
			if got.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", got.Text, tt.wantText)
			}
			if got.Anchor == nil || *got.Anchor != tt.wantAnchor {
				t.Errorf("Anchor = %v, want %v", got.Anchor, tt.wantAnchor)
			}
		})
	}
}

func TestPointerUp_Debounced(t *testing.T) {
	doc := &fakeDocument{}
	d := NewDetector(doc, WithDelay(20*time.Millisecond))

	changes := make(chan State, 1)
	d.OnChange(func(s State) { changes <- s })

	d.PointerUp()
	// The browser finalizes the range after pointer-up; the detector must
	// read it after the delay, not at event time.
	doc.selectText("late text", Rect{Left: 10, Width: 20, Height: 10})

	select {
	case s := <-changes:
		if s.Text != "late text" {
			t.Errorf("Text = %q, want %q", s.Text, "late text")
		}
	case <-time.After(time.Second):
		t.Fatal("no state change after pointer-up")
	}
}

func TestNewSelectionReplacesOld(t *testing.T) {
	doc := &fakeDocument{}
	d := NewDetector(doc, WithDelay(0))

	doc.selectText("first", Rect{Width: 10, Height: 10})
	d.PointerUp()
	doc.selectText("second", Rect{Left: 50, Width: 10, Height: 10})
	d.PointerUp()

	got := d.State()
	if got.Text != "second" || got.Anchor.X != 55 {
		t.Errorf("State = %+v, want second selection", got)
	}
}

func TestClear_Idempotent(t *testing.T) {
	doc := &fakeDocument{}
	d := NewDetector(doc, WithDelay(0))
	doc.selectText("hello", Rect{Width: 10, Height: 10})
	d.PointerUp()

	var notifications int
	d.OnChange(func(State) { notifications++ })

	d.Clear()
	once := d.State()
	d.Clear()
	twice := d.State()

	if once.Visible || once.Text != "" || once.Anchor != nil {
		t.Errorf("after Clear() = %+v, want empty", once)
	}
	if twice != once {
		t.Errorf("second Clear() = %+v, want %+v", twice, once)
	}
	if notifications != 1 {
		t.Errorf("notifications = %d, want 1", notifications)
	}
}

func TestPointerDown_ComposedPath(t *testing.T) {
	tests := []struct {
		name      string
		path      []Node
		wantClear bool
	}{
		{
			name:      "page content",
			path:      []Node{{Tag: "p"}, {Tag: "body"}, {Tag: "html"}},
			wantClear: true,
		},
		{
			name: "button inside card",
			path: []Node{
				{Tag: "button"},
				{Tag: "div", Attrs: map[string]string{CardAttr: ""}},
				{Tag: "div", ID: RootID},
				{Tag: "HOBER-UI"},
				{Tag: "body"},
			},
		},
		{
			name: "shadow host only",
			path: []Node{{Tag: "hober-ui"}, {Tag: "body"}},
		},
		{
			name: "app root only",
			path: []Node{{Tag: "span"}, {Tag: "div", ID: RootID}},
		},
		{
			name:      "empty path",
			wantClear: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &fakeDocument{}
			d := NewDetector(doc, WithDelay(0))
			doc.selectText("hello", Rect{Width: 10, Height: 10})
			d.PointerUp()

			d.PointerDown(tt.path)

			cleared := !d.State().Visible
			if cleared != tt.wantClear {
				t.Errorf("cleared = %v, want %v", cleared, tt.wantClear)
			}
		})
	}
}

func TestKeyDown(t *testing.T) {
	doc := &fakeDocument{}
	d := NewDetector(doc, WithDelay(0))
	doc.selectText("hello", Rect{Width: 10, Height: 10})
	d.PointerUp()

	d.KeyDown("Enter")
	if !d.State().Visible {
		t.Fatal("Enter should not clear the selection")
	}

	d.KeyDown("Escape")
	if d.State().Visible {
		t.Error("Escape should clear the selection")
	}
}

func TestEscapeDuringSlowListener(t *testing.T) {
	doc := &fakeDocument{}
	d := NewDetector(doc, WithDelay(0))
	doc.selectText("hello", Rect{Width: 10, Height: 10})

	entered := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	var last State
	d.OnChange(func(s State) {
		if s.Visible {
			close(entered)
			<-release
		}
		mu.Lock()
		last = s
		mu.Unlock()
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		d.PointerUp()
	}()
	<-entered
	go func() {
		defer wg.Done()
		d.KeyDown("Escape")
	}()
	// Give Escape time to race the listener that is still handling the
	// visible state.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if got := d.State(); got.Visible || last.Visible {
		t.Errorf("detector visible = %v, last notified visible = %v, want both false", got.Visible, last.Visible)
	}
}
