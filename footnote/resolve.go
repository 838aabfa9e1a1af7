package footnote

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"epr/dom"
	"epr/render"
	"epr/text"
)

// noteKeyword is deliberately broad. "note" inside an unrelated id or
// class produces at worst an extra popover, missing a real footnote
// costs more.
var noteKeyword = regexp.MustCompile(`(?i)footnote|endnote|note|fn|nref`)

// markerText matches text that is only a reference marker: bare or
// bracketed numbers, or the classic footnote symbols.
var markerText = regexp.MustCompile(`^(?:\[?[0-9]+\]?|[*†‡§¶]+)$`)

var (
	noteRefTypes = map[string]bool{"noteref": true, "footnote": true, "endnote": true, "note": true, "rearnote": true}
	noteRefRoles = map[string]bool{"doc-noteref": true, "doc-footnote": true, "doc-endnote": true, "note": true}

	noteBodyTypes = map[string]bool{"footnote": true, "endnote": true, "rearnote": true, "note": true}
	noteBodyRoles = map[string]bool{"doc-footnote": true, "doc-endnote": true, "doc-rearnote": true, "note": true}
)

func hasAnyToken(n *html.Node, key string, set map[string]bool) bool {
	for _, tok := range strings.Fields(dom.Attr(n, key)) {
		if set[tok] {
			return true
		}
	}
	return false
}

// IsNoteRef reports whether an anchor reads as a footnote reference:
// semantic type or role, a footnote rel, a note keyword in id or class,
// superscript rendering, or marker-like text.
func IsNoteRef(anchor *html.Node) bool {
	if hasAnyToken(anchor, "epub:type", noteRefTypes) || hasAnyToken(anchor, "role", noteRefRoles) {
		return true
	}
	if dom.HasAttrToken(anchor, "rel", "footnote") {
		return true
	}
	if noteKeyword.MatchString(dom.Attr(anchor, "id")) || noteKeyword.MatchString(dom.Attr(anchor, "class")) {
		return true
	}
	if dom.IsSuperscript(anchor) {
		return true
	}
	return markerText.MatchString(dom.Text(anchor))
}

// IsNoteBody reports whether a fragment target reads as footnote
// content: semantic type or role, a note keyword in id or class, or
// nesting inside an aside or list item.
func IsNoteBody(target *html.Node) bool {
	if hasAnyToken(target, "epub:type", noteBodyTypes) || hasAnyToken(target, "role", noteBodyRoles) {
		return true
	}
	if noteKeyword.MatchString(dom.Attr(target, "id")) || noteKeyword.MatchString(dom.Attr(target, "class")) {
		return true
	}
	for cur := target; cur != nil; cur = cur.Parent {
		if cur.Type == html.ElementNode && (cur.Data == "aside" || cur.Data == "li") {
			return true
		}
	}
	return false
}

// shortNoteRunes is the length at or below which a target's own text is
// treated as a marker instead of the note body.
const shortNoteRunes = 8

// ExtractNote returns the note text for a fragment target. When the
// target holds only a marker the nearest enclosing block wins, that is
// the common "anchor carries the number, the paragraph around it carries
// the note" layout.
func ExtractNote(target *html.Node) string {
	own := dom.Text(target)
	if own != "" && utf8.RuneCountInString(own) > shortNoteRunes && !markerText.MatchString(own) {
		return own
	}
	block := dom.NearestBlock(target)
	if block == nil {
		return own
	}
	blockText := dom.Text(block)
	if utf8.RuneCountInString(blockText) > utf8.RuneCountInString(own)+shortNoteRunes {
		return blockText
	}
	return own
}

// Resolve maps an anchor to its popover text, empty when the anchor does
// not reference footnote content inside the same sub-document.
func Resolve(sub *render.Subdoc, anchor *html.Node, splitter *text.Splitter, maxRunes int) string {
	id, ok := dom.FragmentID(dom.Attr(anchor, "href"), sub.Path)
	if !ok || id == "" {
		return ""
	}
	target, ok := sub.Doc.ByID(id)
	if !ok {
		return ""
	}
	if !IsNoteRef(anchor) && !IsNoteBody(target) {
		return ""
	}
	note := ExtractNote(target)
	if note == "" {
		return ""
	}
	return splitter.Truncate(note, maxRunes)
}

// Rect is an element box in sub-document viewport coordinates.
type Rect struct {
	X, Y, W, H float64
}

// Viewport is the visible size of the sub-document view.
type Viewport struct {
	W, H float64
}

// Placement is a popover position in viewport coordinates.
type Placement struct {
	X, Y  float64
	Above bool
}

// Popover box estimates. The real extent depends on host layout,
// placement only needs a stable approximation to pick a side and clamp.
const (
	popoverWidth  = 320.0
	popoverHeight = 140.0
	popoverMargin = 12.0
	popoverGap    = 6.0
)

// PlacePopover puts the popover below the anchor, flips it above when
// below would overflow the viewport bottom, and clamps it inside the
// viewport margins.
func PlacePopover(anchor Rect, vp Viewport) Placement {
	w := popoverWidth
	if limit := vp.W - 2*popoverMargin; w > limit {
		w = limit
	}
	x := anchor.X + anchor.W/2 - w/2
	if x+w > vp.W-popoverMargin {
		x = vp.W - popoverMargin - w
	}
	if x < popoverMargin {
		x = popoverMargin
	}

	p := Placement{X: x, Y: anchor.Y + anchor.H + popoverGap}
	if p.Y+popoverHeight > vp.H-popoverMargin {
		p.Above = true
		p.Y = anchor.Y - popoverGap - popoverHeight
		if p.Y < popoverMargin {
			p.Y = popoverMargin
		}
	}
	return p
}
