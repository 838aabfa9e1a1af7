package text

import (
	"slices"
	"testing"
)

func TestPathTrieExactMatch(t *testing.T) {
	trie := NewPathTrie()
	trie.Add("ch1", 0)
	trie.Add("ch1/s2", 1)
	trie.Add("ch2", 2)

	tests := []struct {
		key   string
		value int
		ok    bool
	}{
		{"ch1", 0, true},
		{"ch1/s2", 1, true},
		{"ch2", 2, true},
		{"ch1/s2/extra", 0, false},
		{"ch", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := trie.Get(tt.key)
			if ok != tt.ok {
				t.Fatalf("Get(%q) ok = %v, want %v", tt.key, ok, tt.ok)
			}
			if ok && got != tt.value {
				t.Errorf("Get(%q) = %d, want %d", tt.key, got, tt.value)
			}
		})
	}
}

func TestPathTrieLongestPrefix(t *testing.T) {
	trie := NewPathTrie()
	trie.Add("ch1", 0)
	trie.Add("ch1/s2", 1)

	tests := []struct {
		name  string
		path  string
		value int
		ok    bool
	}{
		{"deeper path picks longest key", "ch1/s2/extra", 1, true},
		{"exact terminal counts", "ch1/s2", 1, true},
		{"shallow path picks shallow key", "ch1/s9", 0, true},
		{"segment boundaries only", "ch1x/s2", 0, false},
		{"unrelated path", "intro", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := trie.LongestPrefixOf(tt.path)
			if ok != tt.ok {
				t.Fatalf("LongestPrefixOf(%q) ok = %v, want %v", tt.path, ok, tt.ok)
			}
			if ok && got != tt.value {
				t.Errorf("LongestPrefixOf(%q) = %d, want %d", tt.path, got, tt.value)
			}
		})
	}
}

func TestPathTrieExtensions(t *testing.T) {
	trie := NewPathTrie()
	trie.Add("part1/ch1", 0)
	trie.Add("part1/ch2", 1)
	trie.Add("part1/ch2/s1", 2)
	trie.Add("part2", 3)

	t.Run("shortest extensions first", func(t *testing.T) {
		got := trie.ExtensionsOf("part1")
		want := []int{0, 1, 2}
		if !slices.Equal(got, want) {
			t.Errorf("ExtensionsOf(part1) = %v, want %v", got, want)
		}
	})

	t.Run("exact key is its own extension", func(t *testing.T) {
		got := trie.ExtensionsOf("part2")
		want := []int{3}
		if !slices.Equal(got, want) {
			t.Errorf("ExtensionsOf(part2) = %v, want %v", got, want)
		}
	})

	t.Run("no extensions", func(t *testing.T) {
		if got := trie.ExtensionsOf("part3"); got != nil {
			t.Errorf("ExtensionsOf(part3) = %v, want nil", got)
		}
	})
}

func TestPathTrieAddOverwrites(t *testing.T) {
	trie := NewPathTrie()
	trie.Add("ch1", 5)
	trie.Add("ch1", 7)

	got, ok := trie.Get("ch1")
	if !ok || got != 7 {
		t.Errorf("Get(ch1) = %d, %v; want 7, true", got, ok)
	}
}

func TestPathTrieIgnoresEmptyKey(t *testing.T) {
	trie := NewPathTrie()
	trie.Add("", 1)
	trie.Add("///", 2)

	if trie.Contains("") {
		t.Error("empty key should never be stored")
	}
	if _, ok := trie.LongestPrefixOf("anything"); ok {
		t.Error("trie with only empty keys should match nothing")
	}
}
