package text

import (
	"sort"
	"strings"
)

// PathTrie indexes slash-separated keys and answers prefix queries over whole
// path segments: "ch1/s2" is a segment prefix of "ch1/s2/extra" but not of
// "ch1/s22". Values are small integers (indexes into an external ordered
// sequence).
type PathTrie struct {
	terminal bool
	value    int
	children map[string]*PathTrie
}

// NewPathTrie creates and returns a new PathTrie instance.
func NewPathTrie() *PathTrie {
	return &PathTrie{children: make(map[string]*PathTrie)}
}

func splitSegments(key string) []string {
	key = strings.Trim(key, "/")
	if len(key) == 0 {
		return nil
	}
	return strings.Split(key, "/")
}

// Add stores key with an associated value. Re-adding an existing key only
// updates the value.
func (t *PathTrie) Add(key string, value int) {
	segs := splitSegments(key)
	if len(segs) == 0 {
		return
	}
	node := t
	for _, seg := range segs {
		child := node.children[seg]
		if child == nil {
			child = &PathTrie{children: make(map[string]*PathTrie)}
			node.children[seg] = child
		}
		node = child
	}
	node.terminal = true
	node.value = value
}

// Get returns the value stored for the exact key. Double return: false if the
// key was never added.
func (t *PathTrie) Get(key string) (int, bool) {
	node := t.walk(splitSegments(key))
	if node == nil || !node.terminal {
		return 0, false
	}
	return node.value, true
}

// Contains tests for the inclusion of a particular key.
func (t *PathTrie) Contains(key string) bool {
	_, ok := t.Get(key)
	return ok
}

func (t *PathTrie) walk(segs []string) *PathTrie {
	node := t
	for _, seg := range segs {
		child, ok := node.children[seg]
		if !ok {
			return nil
		}
		node = child
	}
	return node
}

// LongestPrefixOf returns the value of the longest stored key that is a
// segment prefix of path.
func (t *PathTrie) LongestPrefixOf(path string) (int, bool) {
	var (
		value int
		found bool
	)
	node := t
	for _, seg := range splitSegments(path) {
		child, ok := node.children[seg]
		if !ok {
			break
		}
		if child.terminal {
			value = child.value
			found = true
		}
		node = child
	}
	return value, found
}

// ExtensionsOf returns values of all stored keys that have path as their
// segment prefix, shortest keys first; ties break on the smaller value to
// keep results stable in source order.
func (t *PathTrie) ExtensionsOf(path string) []int {
	node := t.walk(splitSegments(path))
	if node == nil {
		return nil
	}

	type hit struct {
		depth int
		value int
	}
	var hits []hit
	var collect func(n *PathTrie, depth int)
	collect = func(n *PathTrie, depth int) {
		if n.terminal {
			hits = append(hits, hit{depth: depth, value: n.value})
		}
		for _, child := range n.children {
			collect(child, depth+1)
		}
	}
	collect(node, 0)

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].depth != hits[j].depth {
			return hits[i].depth < hits[j].depth
		}
		return hits[i].value < hits[j].value
	})
	out := make([]int, len(hits))
	for i, h := range hits {
		out[i] = h.value
	}
	return out
}
