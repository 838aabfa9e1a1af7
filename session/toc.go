package session

import (
	"strings"

	"epr/render"
	"epr/text"
)

// TOCItem is one row of the flattened navigation tree. TargetRef is what
// navigation passes to the surface verbatim; NormalizedKey is what
// relocation matching compares against, never used to navigate.
type TOCItem struct {
	Label         string
	TargetRef     string
	NormalizedKey string
	Depth         int
}

// NormalizeRef reduces a navigation ref or relocation href to a matching
// key: the in-document fragment goes, as do the leading "./" and
// surrounding slashes.
func NormalizeRef(ref string) string {
	ref, _, _ = strings.Cut(ref, "#")
	ref = strings.TrimPrefix(ref, "./")
	return strings.Trim(ref, "/")
}

// FlattenNav flattens the navigation tree into document order, tracking
// nesting depth.
func FlattenNav(items []render.NavItem) []TOCItem {
	var out []TOCItem
	var walk func(items []render.NavItem, depth int)
	walk = func(items []render.NavItem, depth int) {
		for _, it := range items {
			out = append(out, TOCItem{
				Label:         it.Label,
				TargetRef:     it.Ref,
				NormalizedKey: NormalizeRef(it.Ref),
				Depth:         depth,
			})
			walk(it.Children, depth+1)
		}
	}
	walk(items, 0)
	return out
}

// tocIndex answers "which TOC item is the view in" for relocation hrefs.
// Exact key match first; otherwise the longest stored key that is a
// segment prefix of the href, and failing that the shortest stored key
// the href is a prefix of. The first added occurrence of a duplicate key
// wins, matching document order.
type tocIndex struct {
	items []TOCItem
	trie  *text.PathTrie
}

func newTOCIndex(items []TOCItem) *tocIndex {
	x := &tocIndex{
		items: items,
		trie:  text.NewPathTrie(),
	}
	for i, it := range items {
		if it.NormalizedKey == "" || x.trie.Contains(it.NormalizedKey) {
			continue
		}
		x.trie.Add(it.NormalizedKey, i)
	}
	return x
}

// match returns the index of the TOC item for a relocation href, -1 when
// nothing matches.
func (x *tocIndex) match(href string) int {
	key := NormalizeRef(href)
	if key == "" {
		return -1
	}
	if i, ok := x.trie.Get(key); ok {
		return i
	}
	if i, ok := x.trie.LongestPrefixOf(key); ok {
		return i
	}
	if ext := x.trie.ExtensionsOf(key); len(ext) > 0 {
		return ext[0]
	}
	return -1
}
