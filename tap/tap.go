// Package tap recognizes tap gestures on rendered sub-documents and
// turns them into page turns. The recognizer is a content hook: gesture
// state is created on bind, scoped to one sub-document and dropped on
// unbind, so no gesture can outlive the content it started on.
//
// Screen geometry splits into three zones by horizontal position: the
// left 40% turns back, the right 40% turns forward and the middle fifth
// is dead so content interaction has room. Anything that looks like
// scrolling, text selection or a link tap never fires.
package tap

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"epr/dom"
	"epr/render"
)

// Zone boundaries as fractions of the sub-document viewport width.
const (
	prevZone = 0.40
	nextZone = 0.60
)

// Pager turns pages. The session engine implements it.
type Pager interface {
	GoToPrevious(ctx context.Context) error
	GoToNext(ctx context.Context) error
}

// Touch is one touch point in sub-document viewport coordinates.
type Touch struct {
	ID int
	X  float64
	Y  float64
}

// Config tunes the recognizer. Focused gates gesture starts, Selecting
// gates firing; nil predicates mean always focused and never selecting.
// Zero bounds fall back to the defaults below.
type Config struct {
	MaxDuration time.Duration
	MaxMovement float64
	Focused     func() bool
	Selecting   func() bool
}

const (
	defaultMaxDuration = 300 * time.Millisecond
	defaultMaxMovement = 10.0
)

type gesture struct {
	id      int
	x, y    float64
	started time.Time
}

type binding struct {
	sub     *render.Subdoc
	pending *gesture
}

// Recognizer implements render.Hook. One gesture is in flight per
// sub-document at most.
type Recognizer struct {
	log   *zap.Logger
	pager Pager
	clock render.Scheduler
	cfg   Config

	mu    sync.Mutex
	bound map[string]*binding
}

var _ render.Hook = (*Recognizer)(nil)

func NewRecognizer(log *zap.Logger, pager Pager, clock render.Scheduler, cfg Config) *Recognizer {
	if cfg.MaxDuration <= 0 {
		cfg.MaxDuration = defaultMaxDuration
	}
	if cfg.MaxMovement <= 0 {
		cfg.MaxMovement = defaultMaxMovement
	}
	if cfg.Focused == nil {
		cfg.Focused = func() bool { return true }
	}
	if cfg.Selecting == nil {
		cfg.Selecting = func() bool { return false }
	}
	return &Recognizer{
		log:   log.Named("tap"),
		pager: pager,
		clock: clock,
		cfg:   cfg,
		bound: make(map[string]*binding),
	}
}

func (r *Recognizer) Bind(sub *render.Subdoc) {
	r.mu.Lock()
	r.bound[sub.ID] = &binding{sub: sub}
	r.mu.Unlock()
}

func (r *Recognizer) Unbind(sub *render.Subdoc) {
	r.mu.Lock()
	delete(r.bound, sub.ID)
	r.mu.Unlock()
}

// TouchStart opens a gesture when a single touch lands on passive
// content while the view is focused.
func (r *Recognizer) TouchStart(subID string, touch Touch, touchCount int, target *html.Node) {
	if !r.cfg.Focused() {
		return
	}
	interactive := target != nil && dom.ClassifyTarget(target).Interactive

	r.mu.Lock()
	defer r.mu.Unlock()
	b := r.bound[subID]
	if b == nil {
		return
	}
	if touchCount != 1 || interactive {
		b.pending = nil
		return
	}
	b.pending = &gesture{id: touch.ID, x: touch.X, y: touch.Y, started: r.clock.Now()}
}

// TouchMove discards the gesture once it starts to look like a scroll.
func (r *Recognizer) TouchMove(subID string, touch Touch, touchCount int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := r.bound[subID]
	if b == nil || b.pending == nil {
		return
	}
	if touchCount != 1 || touch.ID != b.pending.id ||
		math.Hypot(touch.X-b.pending.x, touch.Y-b.pending.y) > r.cfg.MaxMovement {
		b.pending = nil
	}
}

// TouchCancel discards the gesture.
func (r *Recognizer) TouchCancel(subID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b := r.bound[subID]; b != nil {
		b.pending = nil
	}
}

// TouchEnd consumes the gesture and fires a page turn when it qualifies
// as a tap in one of the active zones.
func (r *Recognizer) TouchEnd(subID string, touch Touch, target *html.Node) {
	r.mu.Lock()
	b := r.bound[subID]
	if b == nil || b.pending == nil {
		r.mu.Unlock()
		return
	}
	g := b.pending
	b.pending = nil
	viewport := b.sub.Viewport
	r.mu.Unlock()

	if touch.ID != g.id || viewport <= 0 {
		return
	}
	if r.clock.Now().Sub(g.started) > r.cfg.MaxDuration {
		return
	}
	if math.Hypot(touch.X-g.x, touch.Y-g.y) > r.cfg.MaxMovement {
		return
	}
	if r.cfg.Selecting() {
		return
	}
	if target != nil && dom.ClassifyTarget(target).Interactive {
		return
	}

	ratio := touch.X / float64(viewport)
	switch {
	case ratio <= prevZone:
		r.log.Debug("tap turn", zap.String("sub", subID), zap.Float64("ratio", ratio), zap.String("dir", "prev"))
		if err := r.pager.GoToPrevious(context.Background()); err != nil {
			r.log.Warn("page turn failed", zap.Error(err))
		}
	case ratio >= nextZone:
		r.log.Debug("tap turn", zap.String("sub", subID), zap.Float64("ratio", ratio), zap.String("dir", "next"))
		if err := r.pager.GoToNext(context.Background()); err != nil {
			r.log.Warn("page turn failed", zap.Error(err))
		}
	}
}
