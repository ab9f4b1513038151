package selection

import "strings"

// Markers identifying the card's own UI subtree. The card renders inside an
// isolated (shadow) root, so these are matched against the composed event
// path rather than DOM ancestry.
const (
	CardAttr = "data-hober-card"
	RootID   = "hober-root"
	HostTag  = "hober-ui"
)

// Point is a position in document coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is a bounding rectangle in viewport coordinates.
type Rect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// Bottom returns the bottom edge.
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// Node is one entry of an event's composed path.
type Node struct {
	Tag   string
	ID    string
	Attrs map[string]string
}

// IsCardRoot reports whether n belongs to the card's UI subtree.
func IsCardRoot(n Node) bool {
	if _, ok := n.Attrs[CardAttr]; ok {
		return true
	}
	return n.ID == RootID || strings.EqualFold(n.Tag, HostTag)
}

// InsideCard reports whether any node of the composed path is part of the
// card's UI.
func InsideCard(path []Node) bool {
	for _, n := range path {
		if IsCardRoot(n) {
			return true
		}
	}
	return false
}

// Document is the page the detector observes.
type Document interface {
	// Selection returns the raw selected text and the bounding rectangle of
	// its first range. ok is false when there is no range.
	Selection() (text string, rect Rect, ok bool)
	// ScrollY returns the vertical scroll offset.
	ScrollY() float64
}
