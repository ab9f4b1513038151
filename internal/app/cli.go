package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.aimuz.me/hober/card"
	"go.aimuz.me/hober/selection"
)

// ErrNoText is returned when there is nothing to speak or translate.
var ErrNoText = errors.New("no text to speak or translate")

// Action is a card action run outside a browser page.
type Action int

const (
	ActionSpeak Action = iota
	ActionTranslate
)

// textDocument is a page whose whole selection is fixed text, such as the
// clipboard contents or standard input.
type textDocument string

func (d textDocument) Selection() (string, selection.Rect, bool) {
	return string(d), selection.Rect{}, d != ""
}

func (textDocument) ScrollY() float64 { return 0 }

// RunAction selects text on a one-shot page, runs action on the card it
// mounts and returns the card's final state. A successful translation is
// copied to cfg.Clipboard when one is set; a copy failure is only logged.
// The card is closed before RunAction returns.
func RunAction(ctx context.Context, text string, action Action, cfg PageConfig) (card.State, error) {
	cfg.Document = textDocument(text)
	cfg.Delay = -1
	page := NewPage(cfg)

	page.Detector().PointerUp()
	c := page.Card()
	if c == nil {
		return card.State{}, ErrNoText
	}
	defer c.Close()

	switch action {
	case ActionSpeak:
		c.Speak(ctx)
	case ActionTranslate:
		c.Translate(ctx)
	default:
		return card.State{}, fmt.Errorf("unknown action %d", action)
	}

	st := c.State()
	if st.Err != "" {
		return st, errors.New(st.Err)
	}
	if action == ActionTranslate && cfg.Clipboard != nil {
		if err := c.CopyTranslation(); err != nil {
			page.log.Warn("copy translation", "error", err)
		}
	}
	return st, nil
}

// InputText picks the text a command acts on: the arguments joined by
// spaces, standard input for a lone "-", or the clipboard when there are no
// arguments.
func InputText(args []string, stdin io.Reader, clipboard func() (string, error)) (string, error) {
	var text string
	switch {
	case len(args) == 1 && args[0] == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	case len(args) > 0:
		text = strings.Join(args, " ")
	default:
		clip, err := clipboard()
		if err != nil {
			return "", fmt.Errorf("read clipboard: %w", err)
		}
		text = clip
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}
