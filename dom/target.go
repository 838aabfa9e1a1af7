package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Target is the classification of an event target: whether any element on
// the ancestor chain is natively interactive, and the nearest enclosing
// anchor when there is one.
type Target struct {
	Interactive bool
	Anchor      *html.Node
}

// formControls are elements with native activation behavior beyond links.
var formControls = map[string]bool{
	"button":   true,
	"input":    true,
	"select":   true,
	"textarea": true,
	"label":    true,
	"summary":  true,
	"audio":    true,
	"video":    true,
	"iframe":   true,
	"embed":    true,
}

// ClassifyTarget walks from n to the root classifying the event target.
// A page-turn tap must not fire on anything the user meant to activate,
// and the footnote controller needs the anchor an event landed in.
func ClassifyTarget(n *html.Node) Target {
	var t Target
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			continue
		}
		switch {
		case cur.Data == "a":
			if t.Anchor == nil {
				t.Anchor = cur
			}
			if Attr(cur, "href") != "" {
				t.Interactive = true
			}
		case formControls[cur.Data]:
			t.Interactive = true
		}
	}
	return t
}

// IsSuperscript reports whether n renders as superscript: the element or
// one of its ancestors is a sup (or styled super), or its entire visible
// content is a single sup wrapper as in <a><sup>1</sup></a>.
func IsSuperscript(n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			continue
		}
		if cur.Data == "sup" {
			return true
		}
		if style := Attr(cur, "style"); strings.Contains(style, "vertical-align") && strings.Contains(style, "super") {
			return true
		}
		if HasAttrToken(cur, "class", "sup") || HasAttrToken(cur, "class", "superscript") {
			return true
		}
	}

	var elem *html.Node
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		switch child.Type {
		case html.TextNode:
			if strings.TrimSpace(child.Data) != "" {
				return false
			}
		case html.ElementNode:
			if elem != nil {
				return false
			}
			elem = child
		}
	}
	return elem != nil && elem.Data == "sup"
}
