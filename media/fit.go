package media

import (
	"net/url"
	"path"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"epr/dom"
	"epr/render"
	"epr/styles"
)

// FitHook marks images wider than the sub-document viewport so the
// injected style rules scale them down. Marking happens once per bind;
// the class lives on the tree until the section unloads.
type FitHook struct {
	log *zap.Logger
}

func NewFitHook(log *zap.Logger) *FitHook {
	return &FitHook{log: log.Named("mediafit")}
}

var _ render.Hook = (*FitHook)(nil)

func (h *FitHook) Bind(sub *render.Subdoc) {
	if sub.Resources == nil || sub.Viewport <= 0 {
		return
	}
	marked := 0
	for _, img := range imageElements(sub.Doc.Root()) {
		src := resolveImageSrc(dom.Attr(img, "src"), sub.Path)
		if src == "" {
			continue
		}
		data, err := sub.Resources(src)
		if err != nil {
			h.log.Debug("unable to read image", zap.String("src", src), zap.Error(err))
			continue
		}
		dim, _, err := ProbeSize(data)
		if err != nil {
			// SVG and other unprobeable formats scale on their own
			continue
		}
		if !dim.ExceedsViewport(sub.Viewport) {
			continue
		}
		markFit(img)
		marked++
	}
	if marked > 0 {
		h.log.Debug("images marked for scale-down",
			zap.String("sub", sub.ID), zap.Int("count", marked))
	}
}

func (h *FitHook) Unbind(*render.Subdoc) {}

func imageElements(root *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n == nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "img" {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

// resolveImageSrc turns an img src into an archive path relative to the
// containing document. External and inline sources resolve to empty.
func resolveImageSrc(src, docPath string) string {
	if src == "" || strings.HasPrefix(src, "data:") || strings.Contains(src, "://") {
		return ""
	}
	if decoded, err := url.PathUnescape(src); err == nil {
		src = decoded
	}
	if strings.HasPrefix(src, "/") {
		return path.Clean(strings.TrimPrefix(src, "/"))
	}
	if dir := path.Dir(docPath); dir != "." {
		return path.Join(dir, src)
	}
	return path.Clean(src)
}

func markFit(img *html.Node) {
	if dom.HasAttrToken(img, "class", styles.FitClass) {
		return
	}
	class := dom.Attr(img, "class")
	if class == "" {
		dom.SetAttr(img, "class", styles.FitClass)
		return
	}
	dom.SetAttr(img, "class", class+" "+styles.FitClass)
}
