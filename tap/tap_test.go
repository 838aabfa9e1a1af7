package tap

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"epr/dom"
	"epr/render"
)

const tapDoc = `<html><body>
<p id="text">Plain paragraph text</p>
<p><a id="link" href="ch02.xhtml">elsewhere</a></p>
<button id="btn">Push</button>
</body></html>`

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }
func (c *fakeClock) AfterFunc(time.Duration, func()) func() {
	return func() {}
}

type fakePager struct{ prev, next int }

func (p *fakePager) GoToPrevious(context.Context) error { p.prev++; return nil }
func (p *fakePager) GoToNext(context.Context) error     { p.next++; return nil }

type fixture struct {
	rec   *Recognizer
	pager *fakePager
	clock *fakeClock
	sub   *render.Subdoc
	doc   *dom.Document
}

func setup(t *testing.T, cfg Config) *fixture {
	t.Helper()
	doc, err := dom.Parse([]byte(tapDoc))
	if err != nil {
		t.Fatalf("unable to parse document: %v", err)
	}
	f := &fixture{
		pager: &fakePager{},
		clock: &fakeClock{now: time.Unix(1000, 0)},
		doc:   doc,
		sub:   &render.Subdoc{ID: "ch01.xhtml", Path: "ch01.xhtml", Doc: doc, Viewport: 1000},
	}
	f.rec = NewRecognizer(zap.NewNop(), f.pager, f.clock, cfg)
	f.rec.Bind(f.sub)
	return f
}

func (f *fixture) target(t *testing.T, id string) *html.Node {
	t.Helper()
	n, ok := f.doc.ByID(id)
	if !ok {
		t.Fatalf("missing element %s", id)
	}
	return n
}

func TestTapZones(t *testing.T) {
	f := setup(t, Config{})
	text := f.target(t, "text")

	tests := []struct {
		x          float64
		prev, next int
	}{
		{100, 1, 0},
		{400, 1, 0}, // boundary belongs to the zone
		{450, 0, 0},
		{500, 0, 0},
		{599, 0, 0},
		{600, 0, 1},
		{900, 0, 1},
	}
	for i, tt := range tests {
		before := *f.pager
		touch := Touch{ID: i, X: tt.x, Y: 300}
		f.rec.TouchStart(f.sub.ID, touch, 1, text)
		f.rec.TouchEnd(f.sub.ID, touch, text)
		if got := f.pager.prev - before.prev; got != tt.prev {
			t.Errorf("x=%v: expected %d previous turns, got %d", tt.x, tt.prev, got)
		}
		if got := f.pager.next - before.next; got != tt.next {
			t.Errorf("x=%v: expected %d next turns, got %d", tt.x, tt.next, got)
		}
	}
}

func TestTapSlowTouchDiscarded(t *testing.T) {
	f := setup(t, Config{})
	text := f.target(t, "text")

	touch := Touch{ID: 1, X: 100, Y: 300}
	f.rec.TouchStart(f.sub.ID, touch, 1, text)
	f.clock.now = f.clock.now.Add(301 * time.Millisecond)
	f.rec.TouchEnd(f.sub.ID, touch, text)
	if f.pager.prev != 0 || f.pager.next != 0 {
		t.Errorf("expected no turn for a slow touch, got %+v", f.pager)
	}
}

func TestTapMovementDiscarded(t *testing.T) {
	f := setup(t, Config{})
	text := f.target(t, "text")

	// drift during the touch reads as a scroll
	f.rec.TouchStart(f.sub.ID, Touch{ID: 1, X: 100, Y: 300}, 1, text)
	f.rec.TouchMove(f.sub.ID, Touch{ID: 1, X: 100, Y: 315}, 1)
	f.rec.TouchEnd(f.sub.ID, Touch{ID: 1, X: 100, Y: 315}, text)
	if f.pager.prev != 0 {
		t.Errorf("expected no turn after drift, got %+v", f.pager)
	}

	// distance between start and end alone disqualifies too
	f.rec.TouchStart(f.sub.ID, Touch{ID: 2, X: 100, Y: 300}, 1, text)
	f.rec.TouchEnd(f.sub.ID, Touch{ID: 2, X: 150, Y: 300}, text)
	if f.pager.prev != 0 {
		t.Errorf("expected no turn for a swipe, got %+v", f.pager)
	}

	// movement inside the threshold still fires
	f.rec.TouchStart(f.sub.ID, Touch{ID: 3, X: 100, Y: 300}, 1, text)
	f.rec.TouchMove(f.sub.ID, Touch{ID: 3, X: 104, Y: 303}, 1)
	f.rec.TouchEnd(f.sub.ID, Touch{ID: 3, X: 104, Y: 303}, text)
	if f.pager.prev != 1 {
		t.Errorf("expected a turn for a steady tap, got %+v", f.pager)
	}
}

func TestTapInteractiveTargets(t *testing.T) {
	f := setup(t, Config{})
	text := f.target(t, "text")

	// a touch starting on a link is a link tap, not a page turn
	link := f.target(t, "link")
	f.rec.TouchStart(f.sub.ID, Touch{ID: 1, X: 100, Y: 300}, 1, link)
	f.rec.TouchEnd(f.sub.ID, Touch{ID: 1, X: 100, Y: 300}, text)
	if f.pager.prev != 0 {
		t.Errorf("expected no turn for a touch starting on a link")
	}

	// ending on an interactive element disqualifies as well
	f.rec.TouchStart(f.sub.ID, Touch{ID: 2, X: 100, Y: 300}, 1, text)
	f.rec.TouchEnd(f.sub.ID, Touch{ID: 2, X: 100, Y: 300}, f.target(t, "btn"))
	if f.pager.prev != 0 {
		t.Errorf("expected no turn for a touch ending on a button")
	}
}

func TestTapMultiTouchDiscarded(t *testing.T) {
	f := setup(t, Config{})
	text := f.target(t, "text")

	f.rec.TouchStart(f.sub.ID, Touch{ID: 1, X: 100, Y: 300}, 1, text)
	f.rec.TouchStart(f.sub.ID, Touch{ID: 2, X: 500, Y: 300}, 2, text)
	f.rec.TouchEnd(f.sub.ID, Touch{ID: 1, X: 100, Y: 300}, text)
	if f.pager.prev != 0 {
		t.Errorf("expected no turn after a second finger landed")
	}

	f.rec.TouchStart(f.sub.ID, Touch{ID: 3, X: 100, Y: 300}, 1, text)
	f.rec.TouchMove(f.sub.ID, Touch{ID: 3, X: 100, Y: 300}, 2)
	f.rec.TouchEnd(f.sub.ID, Touch{ID: 3, X: 100, Y: 300}, text)
	if f.pager.prev != 0 {
		t.Errorf("expected no turn after multi-touch movement")
	}

	// a touch end for a finger that never started the gesture
	f.rec.TouchStart(f.sub.ID, Touch{ID: 4, X: 100, Y: 300}, 1, text)
	f.rec.TouchEnd(f.sub.ID, Touch{ID: 5, X: 100, Y: 300}, text)
	if f.pager.prev != 0 {
		t.Errorf("expected no turn for a foreign touch end")
	}
}

func TestTapCancel(t *testing.T) {
	f := setup(t, Config{})
	text := f.target(t, "text")

	f.rec.TouchStart(f.sub.ID, Touch{ID: 1, X: 100, Y: 300}, 1, text)
	f.rec.TouchCancel(f.sub.ID)
	f.rec.TouchEnd(f.sub.ID, Touch{ID: 1, X: 100, Y: 300}, text)
	if f.pager.prev != 0 {
		t.Errorf("expected no turn after cancellation")
	}
}

func TestTapSelectionBlocks(t *testing.T) {
	selecting := false
	f := setup(t, Config{Selecting: func() bool { return selecting }})
	text := f.target(t, "text")

	f.rec.TouchStart(f.sub.ID, Touch{ID: 1, X: 100, Y: 300}, 1, text)
	selecting = true
	f.rec.TouchEnd(f.sub.ID, Touch{ID: 1, X: 100, Y: 300}, text)
	if f.pager.prev != 0 {
		t.Errorf("expected no turn while text is selected")
	}
}

func TestTapUnfocusedView(t *testing.T) {
	f := setup(t, Config{Focused: func() bool { return false }})
	text := f.target(t, "text")

	f.rec.TouchStart(f.sub.ID, Touch{ID: 1, X: 100, Y: 300}, 1, text)
	f.rec.TouchEnd(f.sub.ID, Touch{ID: 1, X: 100, Y: 300}, text)
	if f.pager.prev != 0 {
		t.Errorf("expected no turn for an unfocused view")
	}
}

func TestTapLifecycle(t *testing.T) {
	f := setup(t, Config{})
	text := f.target(t, "text")

	// events for an unbound sub-document are ignored
	f.rec.TouchStart("ghost", Touch{ID: 1, X: 100, Y: 300}, 1, text)
	f.rec.TouchEnd("ghost", Touch{ID: 1, X: 100, Y: 300}, text)

	// gesture state dies with the binding
	f.rec.TouchStart(f.sub.ID, Touch{ID: 2, X: 100, Y: 300}, 1, text)
	f.rec.Unbind(f.sub)
	f.rec.Bind(f.sub)
	f.rec.TouchEnd(f.sub.ID, Touch{ID: 2, X: 100, Y: 300}, text)
	if f.pager.prev != 0 {
		t.Errorf("expected no turn across a rebind, got %+v", f.pager)
	}
}
