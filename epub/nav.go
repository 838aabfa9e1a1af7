package epub

import (
	"bytes"
	"net/url"
	"path"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html"
)

// NavPoint is one entry of the navigation tree. Ref keeps the resolved
// archive path of the target with an optional #fragment suffix.
type NavPoint struct {
	Label    string
	Ref      string
	Children []NavPoint
}

// NavTree returns the navigation tree of the book. An EPUB 3 nav document
// is preferred, then the NCX, then a flat listing of the spine so there is
// always something to navigate.
func (c *Container) NavTree() []NavPoint {
	if item, ok := c.findNavDoc(); ok {
		if data, err := c.readFile(item.Href); err == nil {
			if points := parseNavDoc(data, path.Dir(item.Href)); len(points) > 0 {
				return points
			}
		}
	}
	if item, ok := c.findNCX(); ok {
		if data, err := c.readFile(item.Href); err == nil {
			if points := parseNCX(data, path.Dir(item.Href)); len(points) > 0 {
				return points
			}
		}
	}
	return c.spineNav()
}

func (c *Container) findNavDoc() (ManifestItem, bool) {
	for _, id := range c.order {
		if c.manifest[id].HasProperty("nav") {
			return c.manifest[id], true
		}
	}
	return ManifestItem{}, false
}

func (c *Container) findNCX() (ManifestItem, bool) {
	if c.ncxID != "" {
		if item, ok := c.Item(c.ncxID); ok {
			return item, true
		}
	}
	for _, id := range c.order {
		if c.manifest[id].MediaType == "application/x-dtbncx+xml" {
			return c.manifest[id], true
		}
	}
	return ManifestItem{}, false
}

func (c *Container) spineNav() []NavPoint {
	var points []NavPoint
	for _, s := range c.spine {
		if !s.Linear {
			continue
		}
		points = append(points, NavPoint{Label: s.ID, Ref: s.Path})
	}
	return points
}

// resolveNavHref resolves a navigation href against the directory of the
// document it came from, keeping the fragment.
func resolveNavHref(baseDir, href string) string {
	ref, frag, _ := strings.Cut(href, "#")
	if decoded, err := url.QueryUnescape(ref); err == nil {
		ref = decoded
	}
	ref = strings.TrimPrefix(ref, "./")
	if ref != "" && baseDir != "" && baseDir != "." {
		ref = path.Join(baseDir, ref)
	}
	if frag == "" {
		return ref
	}
	return ref + "#" + frag
}

func parseNCX(data []byte, baseDir string) []NavPoint {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil
	}
	root := doc.Root()
	if root == nil || root.Tag != "ncx" {
		return nil
	}
	navMap := root.SelectElement("navMap")
	if navMap == nil {
		return nil
	}
	return parseNavPoints(navMap, baseDir)
}

func parseNavPoints(parent *etree.Element, baseDir string) []NavPoint {
	var points []NavPoint
	for _, el := range parent.ChildElements() {
		if el.Tag != "navPoint" {
			continue
		}
		var p NavPoint
		for _, child := range el.ChildElements() {
			switch child.Tag {
			case "navLabel":
				if text := child.SelectElement("text"); text != nil {
					p.Label = strings.TrimSpace(text.Text())
				}
			case "content":
				p.Ref = resolveNavHref(baseDir, child.SelectAttrValue("src", ""))
			}
		}
		p.Children = parseNavPoints(el, baseDir)
		if p.Label != "" || p.Ref != "" || len(p.Children) > 0 {
			points = append(points, p)
		}
	}
	return points
}

func parseNavDoc(data []byte, baseDir string) []NavPoint {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	nav := findTocNav(doc)
	if nav == nil {
		return nil
	}
	ol := findFirstElement(nav, "ol")
	if ol == nil {
		return nil
	}
	return parseNavList(ol, baseDir)
}

// findTocNav locates the <nav> element carrying the toc type. The html
// parser lowers attribute keys, so both epub:type and a bare type are
// accepted.
func findTocNav(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "nav" {
		for _, attr := range n.Attr {
			if attr.Key != "epub:type" && attr.Key != "type" {
				continue
			}
			for _, v := range strings.Fields(attr.Val) {
				if v == "toc" {
					return n
				}
			}
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findTocNav(child); found != nil {
			return found
		}
	}
	return nil
}

func findFirstElement(n *html.Node, tag string) *html.Node {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode && child.Data == tag {
			return child
		}
		if found := findFirstElement(child, tag); found != nil {
			return found
		}
	}
	return nil
}

func parseNavList(ol *html.Node, baseDir string) []NavPoint {
	var points []NavPoint
	for li := ol.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.Data != "li" {
			continue
		}
		var p NavPoint
		for child := li.FirstChild; child != nil; child = child.NextSibling {
			if child.Type != html.ElementNode {
				continue
			}
			switch child.Data {
			case "a":
				p.Label = nodeText(child)
				for _, attr := range child.Attr {
					if attr.Key == "href" {
						p.Ref = resolveNavHref(baseDir, attr.Val)
					}
				}
			case "span":
				if p.Label == "" {
					p.Label = nodeText(child)
				}
			case "ol":
				p.Children = parseNavList(child, baseDir)
			}
		}
		if p.Label != "" || p.Ref != "" || len(p.Children) > 0 {
			points = append(points, p)
		}
	}
	return points
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
