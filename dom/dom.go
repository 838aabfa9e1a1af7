// Package dom gives the engine a DOM-like view of sub-document content.
// Trees come from golang.org/x/net/html; everything the interactive
// subsystems need (target classification, fragment lookup, text extraction)
// works on plain *html.Node so it stays testable without any rendering.
package dom

import (
	"bytes"
	"fmt"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"epr/text"
)

// Document is one parsed sub-document with an id index for fragment
// resolution.
type Document struct {
	root  *html.Node
	byID  map[string]*html.Node
	title string
}

// Parse builds a Document from sub-document bytes. Content in legacy
// encodings is converted using the document's own charset declaration.
func Parse(data []byte) (*Document, error) {
	r, err := charset.NewReader(bytes.NewReader(data), "text/html")
	if err != nil {
		return nil, fmt.Errorf("unable to detect content encoding: %w", err)
	}
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("unable to parse content: %w", err)
	}

	d := &Document{root: root, byID: make(map[string]*html.Node)}
	d.index(root)
	return d, nil
}

func (d *Document) index(n *html.Node) {
	if n.Type == html.ElementNode {
		// first occurrence wins, duplicate ids are author errors
		if id := Attr(n, "id"); id != "" {
			if _, dup := d.byID[id]; !dup {
				d.byID[id] = n
			}
		}
		if n.Data == "title" && d.title == "" {
			d.title = Text(n)
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		d.index(child)
	}
}

// Root returns the document root node.
func (d *Document) Root() *html.Node {
	return d.root
}

// ByID resolves a fragment identifier to its element.
func (d *Document) ByID(id string) (*html.Node, bool) {
	n, ok := d.byID[id]
	return n, ok
}

// Title returns the text of the head title element, empty when there is
// none.
func (d *Document) Title() string {
	return d.title
}

// FragmentID extracts the fragment from href when it points inside the
// document stored at docPath. A bare "#id" always qualifies; a relative
// reference qualifies when it resolves back to docPath.
func FragmentID(href, docPath string) (string, bool) {
	ref, frag, found := strings.Cut(href, "#")
	if !found || frag == "" {
		return "", false
	}
	if ref == "" {
		return frag, true
	}
	if docPath == "" {
		return "", false
	}
	if decoded, err := url.QueryUnescape(ref); err == nil {
		ref = decoded
	}
	ref = strings.TrimPrefix(ref, "./")
	if dir := path.Dir(docPath); dir != "." {
		ref = path.Join(dir, ref)
	}
	if ref == docPath {
		return frag, true
	}
	return "", false
}

// Attr returns the value of the named attribute, empty when absent.
func Attr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// HasAttrToken reports whether the space-separated attribute contains the
// token, matching the way class and epub:type attributes are interpreted.
func HasAttrToken(n *html.Node, key, token string) bool {
	for _, v := range strings.Fields(Attr(n, key)) {
		if v == token {
			return true
		}
	}
	return false
}

// IsDescendantOf reports whether n is ancestor or one of its descendants.
func IsDescendantOf(n, ancestor *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur == ancestor {
			return true
		}
	}
	return false
}

// FindElement returns the first element with the given tag in depth first
// order, nil when there is none.
func FindElement(n *html.Node, tag string) *html.Node {
	if n == nil {
		return nil
	}
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := FindElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// SetAttr sets or replaces the named attribute.
func SetAttr(n *html.Node, key, value string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: value})
}

var skipText = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"svg":      true,
	"math":     true,
	"iframe":   true,
	"object":   true,
	"embed":    true,
}

var blockTags = map[string]bool{
	"p":          true,
	"div":        true,
	"li":         true,
	"aside":      true,
	"section":    true,
	"article":    true,
	"blockquote": true,
	"td":         true,
	"th":         true,
	"dd":         true,
	"dt":         true,
	"figcaption": true,
	"footer":     true,
	"header":     true,
	"h1":         true,
	"h2":         true,
	"h3":         true,
	"h4":         true,
	"h5":         true,
	"h6":         true,
}

// Text extracts the readable text of a subtree, whitespace collapsed.
// Script and style content is skipped, block boundaries become spaces.
func Text(n *html.Node) string {
	var sb strings.Builder
	writeText(n, &sb)
	return text.CollapseWhitespace(sb.String())
}

func writeText(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.ElementNode:
		if skipText[n.Data] {
			return
		}
		if n.Data == "br" {
			sb.WriteByte(' ')
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		writeText(child, sb)
	}
	if n.Type == html.ElementNode && blockTags[n.Data] {
		sb.WriteByte(' ')
	}
}

// NearestBlock returns the closest block-level ancestor of n, nil when
// nothing before body qualifies. Body itself never counts: treating the
// whole document as "the enclosing block" would defeat the point of
// preferring local context.
func NearestBlock(n *html.Node) *html.Node {
	for cur := n.Parent; cur != nil; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			continue
		}
		if cur.Data == "body" {
			return nil
		}
		if blockTags[cur.Data] {
			return cur
		}
	}
	return nil
}
