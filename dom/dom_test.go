package dom

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
)

const testDoc = `<!DOCTYPE html>
<html><head><title>  Chapter
  One </title></head>
<body>
  <p id="p1">First <b>bold</b> text.<br/>Second line.</p>
  <p id="p2">Note marker<a id="ref1" href="#fn1"><sup>1</sup></a> in text.</p>
  <ul><li id="item"><span id="inner">inside</span> item text</li></ul>
  <div>
    <button id="btn">Push</button>
    <a id="bare">no href</a>
  </div>
  <aside id="fn1"><a href="#ref1" id="back">1</a> The actual note body.</aside>
  <p id="p3"><span id="styled" style="vertical-align: super">2</span></p>
  <p id="p4"><span id="classed" class="x superscript">3</span></p>
  <script>var invisible = 1;</script>
</body></html>`

func parseDoc(t *testing.T) *Document {
	t.Helper()
	d, err := Parse([]byte(testDoc))
	if err != nil {
		t.Fatalf("unable to parse document: %v", err)
	}
	return d
}

func mustByID(t *testing.T, d *Document, id string) *html.Node {
	t.Helper()
	n, ok := d.ByID(id)
	if !ok {
		t.Fatalf("element %q not found", id)
	}
	return n
}

func TestParse(t *testing.T) {
	d := parseDoc(t)

	if d.Title() != "Chapter One" {
		t.Errorf("expected collapsed title, got %q", d.Title())
	}
	if _, ok := d.ByID("p1"); !ok {
		t.Errorf("expected p1 in the id index")
	}
	if _, ok := d.ByID("absent"); ok {
		t.Errorf("unexpected hit for unknown id")
	}
}

func TestText(t *testing.T) {
	d := parseDoc(t)

	if got := Text(mustByID(t, d, "p1")); got != "First bold text. Second line." {
		t.Errorf("unexpected text %q", got)
	}
	if got := Text(d.Root()); strings.Contains(got, "invisible") {
		t.Errorf("script content leaked into text: %q", got)
	}
	if got := Text(mustByID(t, d, "fn1")); got != "1 The actual note body." {
		t.Errorf("unexpected aside text %q", got)
	}
}

func TestClassifyTarget(t *testing.T) {
	d := parseDoc(t)

	ref := mustByID(t, d, "ref1")
	got := ClassifyTarget(ref.FirstChild) // the sup inside the anchor
	if !got.Interactive || got.Anchor != ref {
		t.Errorf("expected interactive anchor target, got %+v", got)
	}

	if got := ClassifyTarget(mustByID(t, d, "inner")); got.Interactive || got.Anchor != nil {
		t.Errorf("plain text should not classify as interactive, got %+v", got)
	}

	if got := ClassifyTarget(mustByID(t, d, "btn")); !got.Interactive || got.Anchor != nil {
		t.Errorf("button should be interactive without an anchor, got %+v", got)
	}

	// an anchor without href is a named target, not a link
	if got := ClassifyTarget(mustByID(t, d, "bare")); got.Interactive || got.Anchor == nil {
		t.Errorf("bare anchor misclassified: %+v", got)
	}
}

func TestFragmentID(t *testing.T) {
	tests := []struct {
		name    string
		href    string
		docPath string
		want    string
		ok      bool
	}{
		{"bare fragment", "#fn1", "OEBPS/ch01.xhtml", "fn1", true},
		{"same document", "ch01.xhtml#fn1", "OEBPS/ch01.xhtml", "fn1", true},
		{"dot prefix", "./ch01.xhtml#fn1", "OEBPS/ch01.xhtml", "fn1", true},
		{"escaped", "ch%2001.xhtml#z", "OEBPS/ch 01.xhtml", "z", true},
		{"flat layout", "ch01.xhtml#f", "ch01.xhtml", "f", true},
		{"other document", "ch02.xhtml#fn1", "OEBPS/ch01.xhtml", "", false},
		{"parent escape", "../x/ch01.xhtml#fn1", "OEBPS/ch01.xhtml", "", false},
		{"no fragment", "ch01.xhtml", "OEBPS/ch01.xhtml", "", false},
		{"empty fragment", "#", "OEBPS/ch01.xhtml", "", false},
		{"unknown doc path", "ch01.xhtml#f", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FragmentID(tt.href, tt.docPath)
			if got != tt.want || ok != tt.ok {
				t.Errorf("expected (%q, %v), got (%q, %v)", tt.want, tt.ok, got, ok)
			}
		})
	}
}

func TestNearestBlock(t *testing.T) {
	d := parseDoc(t)

	if got := NearestBlock(mustByID(t, d, "inner")); got == nil || got.Data != "li" {
		t.Errorf("expected li, got %v", got)
	}
	if got := NearestBlock(mustByID(t, d, "back")); got == nil || got.Data != "aside" {
		t.Errorf("expected aside, got %v", got)
	}
	// body never counts as the enclosing block
	if got := NearestBlock(mustByID(t, d, "p1")); got != nil {
		t.Errorf("expected no block above a top level paragraph, got %v", got)
	}
}

func TestIsDescendantOf(t *testing.T) {
	d := parseDoc(t)

	item := mustByID(t, d, "item")
	inner := mustByID(t, d, "inner")
	if !IsDescendantOf(inner, item) {
		t.Errorf("inner should be a descendant of item")
	}
	if !IsDescendantOf(item, item) {
		t.Errorf("a node is its own descendant")
	}
	if IsDescendantOf(item, inner) {
		t.Errorf("item is not a descendant of inner")
	}
}

func TestIsSuperscript(t *testing.T) {
	d := parseDoc(t)

	ref := mustByID(t, d, "ref1")
	if !IsSuperscript(ref.FirstChild) {
		t.Errorf("sup element itself should qualify")
	}
	if !IsSuperscript(ref) {
		t.Errorf("anchor wrapping only a sup should qualify")
	}
	if !IsSuperscript(mustByID(t, d, "styled")) {
		t.Errorf("vertical-align style should qualify")
	}
	if !IsSuperscript(mustByID(t, d, "classed")) {
		t.Errorf("superscript class should qualify")
	}
	if IsSuperscript(mustByID(t, d, "p1")) {
		t.Errorf("plain paragraph should not qualify")
	}
}

func TestHasAttrToken(t *testing.T) {
	d := parseDoc(t)

	classed := mustByID(t, d, "classed")
	if !HasAttrToken(classed, "class", "superscript") || !HasAttrToken(classed, "class", "x") {
		t.Errorf("expected both class tokens to match")
	}
	if HasAttrToken(classed, "class", "super") {
		t.Errorf("token match must not be a substring match")
	}
}

func TestFindElement(t *testing.T) {
	d := parseDoc(t)

	if n := FindElement(d.Root(), "title"); n == nil {
		t.Fatalf("expected title element")
	}
	if n := FindElement(d.Root(), "aside"); n == nil || Attr(n, "id") != "fn1" {
		t.Errorf("expected the aside element")
	}
	if n := FindElement(d.Root(), "video"); n != nil {
		t.Errorf("expected no match, got %v", n)
	}
}

func TestSetAttr(t *testing.T) {
	d := parseDoc(t)

	p := mustByID(t, d, "p1")
	SetAttr(p, "class", "quote")
	if Attr(p, "class") != "quote" {
		t.Errorf("expected class set, got %q", Attr(p, "class"))
	}
	SetAttr(p, "class", "quote wide")
	if Attr(p, "class") != "quote wide" {
		t.Errorf("expected class replaced, got %q", Attr(p, "class"))
	}
	if Attr(p, "id") != "p1" {
		t.Errorf("expected id untouched, got %q", Attr(p, "id"))
	}
}
