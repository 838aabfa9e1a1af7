package media

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"testing"

	"go.uber.org/zap"

	"epr/dom"
	"epr/render"
	"epr/styles"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("unable to encode png: %v", err)
	}
	return buf.Bytes()
}

const fitDoc = `<html><body>
<p><img id="wide" src="../images/wide.png"/></p>
<p><img id="small" src="../images/small.png" class="illus"/></p>
<p><img id="classed" src="../images/huge.png" class="plate"/></p>
<p><img id="missing" src="../images/gone.png"/></p>
<p><img id="external" src="http://example.com/x.png"/></p>
<p><img id="inline" src="data:image/png;base64,AAAA"/></p>
</body></html>`

func fitFixture(t *testing.T, viewport int) (*FitHook, *render.Subdoc) {
	t.Helper()
	doc, err := dom.Parse([]byte(fitDoc))
	if err != nil {
		t.Fatalf("unable to parse document: %v", err)
	}
	resources := map[string][]byte{
		"images/wide.png":  pngBytes(t, 1500, 400),
		"images/small.png": pngBytes(t, 200, 100),
		"images/huge.png":  pngBytes(t, 2400, 900),
	}
	sub := &render.Subdoc{
		ID:       "ch01.xhtml",
		Path:     "OEBPS/ch01.xhtml",
		Doc:      doc,
		Viewport: viewport,
		Resources: func(p string) ([]byte, error) {
			data, ok := resources[p]
			if !ok {
				return nil, fmt.Errorf("no resource %s", p)
			}
			return data, nil
		},
	}
	return NewFitHook(zap.NewNop()), sub
}

func TestFitHookMarksWideImages(t *testing.T) {
	hook, sub := fitFixture(t, 1000)
	hook.Bind(sub)

	tests := []struct {
		id   string
		want string
	}{
		{"wide", styles.FitClass},
		{"small", "illus"},
		{"classed", "plate " + styles.FitClass},
		{"missing", ""},
		{"external", ""},
		{"inline", ""},
	}
	for _, tc := range tests {
		n, ok := sub.Doc.ByID(tc.id)
		if !ok {
			t.Fatalf("missing element %s", tc.id)
		}
		if got := dom.Attr(n, "class"); got != tc.want {
			t.Errorf("%s class = %q, want %q", tc.id, got, tc.want)
		}
	}
}

func TestFitHookIdempotent(t *testing.T) {
	hook, sub := fitFixture(t, 1000)
	hook.Bind(sub)
	hook.Bind(sub)

	n, _ := sub.Doc.ByID("wide")
	if got := dom.Attr(n, "class"); got != styles.FitClass {
		t.Errorf("double bind class = %q", got)
	}
}

func TestFitHookWithoutResources(t *testing.T) {
	hook, sub := fitFixture(t, 1000)
	sub.Resources = nil
	hook.Bind(sub)

	n, _ := sub.Doc.ByID("wide")
	if got := dom.Attr(n, "class"); got != "" {
		t.Errorf("markless bind set class %q", got)
	}
}

func TestFitHookWideViewport(t *testing.T) {
	hook, sub := fitFixture(t, 3000)
	hook.Bind(sub)

	for _, id := range []string{"wide", "classed"} {
		n, _ := sub.Doc.ByID(id)
		if dom.HasAttrToken(n, "class", styles.FitClass) {
			t.Errorf("%s marked although it fits", id)
		}
	}
}

func TestResolveImageSrc(t *testing.T) {
	tests := []struct {
		src, doc, want string
	}{
		{"../images/a.png", "OEBPS/text/ch01.xhtml", "OEBPS/images/a.png"},
		{"images/a.png", "ch01.xhtml", "images/a.png"},
		{"/images/a.png", "OEBPS/ch01.xhtml", "images/a.png"},
		{"images/sp%20ace.png", "ch01.xhtml", "images/sp ace.png"},
		{"http://example.com/a.png", "ch01.xhtml", ""},
		{"data:image/png;base64,AA", "ch01.xhtml", ""},
		{"", "ch01.xhtml", ""},
	}
	for _, tc := range tests {
		if got := resolveImageSrc(tc.src, tc.doc); got != tc.want {
			t.Errorf("resolveImageSrc(%q, %q) = %q, want %q", tc.src, tc.doc, got, tc.want)
		}
	}
}
