package session

import (
	"reflect"
	"testing"

	"epr/render"
)

func TestNormalizeRef(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"OEBPS/ch01.xhtml", "OEBPS/ch01.xhtml"},
		{"OEBPS/ch01.xhtml#sec2", "OEBPS/ch01.xhtml"},
		{"./OEBPS/ch01.xhtml", "OEBPS/ch01.xhtml"},
		{"/OEBPS/ch01.xhtml/", "OEBPS/ch01.xhtml"},
		{"#intro", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := NormalizeRef(c.in); got != c.want {
			t.Errorf("NormalizeRef(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFlattenNav(t *testing.T) {
	nav := []render.NavItem{
		{Label: "Cover", Ref: "cover.xhtml"},
		{Label: "Part I", Ref: "part1.xhtml", Children: []render.NavItem{
			{Label: "Chapter 1", Ref: "ch01.xhtml#start", Children: []render.NavItem{
				{Label: "Section 1.1", Ref: "ch01.xhtml#s1"},
			}},
			{Label: "Chapter 2", Ref: "./ch02.xhtml"},
		}},
		{Label: "Notes", Ref: "notes.xhtml"},
	}
	got := FlattenNav(nav)
	want := []TOCItem{
		{Label: "Cover", TargetRef: "cover.xhtml", NormalizedKey: "cover.xhtml", Depth: 0},
		{Label: "Part I", TargetRef: "part1.xhtml", NormalizedKey: "part1.xhtml", Depth: 0},
		{Label: "Chapter 1", TargetRef: "ch01.xhtml#start", NormalizedKey: "ch01.xhtml", Depth: 1},
		{Label: "Section 1.1", TargetRef: "ch01.xhtml#s1", NormalizedKey: "ch01.xhtml", Depth: 2},
		{Label: "Chapter 2", TargetRef: "./ch02.xhtml", NormalizedKey: "ch02.xhtml", Depth: 1},
		{Label: "Notes", TargetRef: "notes.xhtml", NormalizedKey: "notes.xhtml", Depth: 0},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FlattenNav mismatch\n got %+v\nwant %+v", got, want)
	}
}

func TestFlattenNavEmpty(t *testing.T) {
	if got := FlattenNav(nil); len(got) != 0 {
		t.Errorf("FlattenNav(nil) = %+v, want empty", got)
	}
}

func tocFixture() *tocIndex {
	return newTOCIndex(FlattenNav([]render.NavItem{
		{Label: "Cover", Ref: "cover.xhtml"},
		{Label: "Chapter 1", Ref: "text/ch1"},
		{Label: "Section 2", Ref: "text/ch1/s2"},
		{Label: "Chapter 2", Ref: "text/ch2/index.xhtml"},
		{Label: "Chapter 1 again", Ref: "text/ch1#rep"},
	}))
}

func TestTOCIndexMatch(t *testing.T) {
	x := tocFixture()
	cases := []struct {
		name string
		href string
		want int
	}{
		{"exact", "cover.xhtml", 0},
		{"exact with fragment", "text/ch1#anywhere", 1},
		{"longest stored prefix wins", "text/ch1/s2/extra.xhtml", 2},
		{"shorter prefix when deeper misses", "text/ch1/s9.xhtml", 1},
		{"href prefixes a stored key", "text/ch2", 3},
		{"segment boundaries only", "text/ch10.xhtml", -1},
		{"no match", "other/file.xhtml", -1},
		{"empty href", "", -1},
		{"fragment only", "#frag", -1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := x.match(c.href); got != c.want {
				t.Errorf("match(%q) = %d, want %d", c.href, got, c.want)
			}
		})
	}
}

func TestTOCIndexDuplicateKeyKeepsFirst(t *testing.T) {
	x := tocFixture()
	// "Chapter 1 again" shares the ch1 key; document order wins
	if got := x.match("text/ch1"); got != 1 {
		t.Errorf("match(duplicate key) = %d, want 1", got)
	}
}

func TestTOCIndexSkipsEmptyKeys(t *testing.T) {
	x := newTOCIndex(FlattenNav([]render.NavItem{
		{Label: "Broken", Ref: "#frag-only"},
		{Label: "Chapter", Ref: "ch.xhtml"},
	}))
	if got := x.match("ch.xhtml"); got != 1 {
		t.Errorf("match = %d, want 1", got)
	}
	if got := x.match(""); got != -1 {
		t.Errorf("match(empty) = %d, want -1", got)
	}
}
