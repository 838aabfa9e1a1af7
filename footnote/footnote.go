// Package footnote shows note content in popovers anchored to their
// references. The controller is a render hook: all gesture and popover
// state lives per bound sub-document and dies with the binding, so a
// mode switch or section unload can never leak a stale popover.
//
// Three trigger paths feed it. Hover shows a popover for mouse pointers
// and hides it when the pointer leaves both the anchor and the popover.
// A long press shows the popover, arms click suppression so the press
// release does not also navigate, and auto-hides after a quiet period.
// Click asks whether a recent long press already consumed the
// activation.
package footnote

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"epr/common"
	"epr/dom"
	"epr/render"
	"epr/styles"
	"epr/text"
)

// suppressionWindow is how long after a long-press popover the click on
// the same anchor is swallowed instead of navigating. Hosts deliver the
// synthetic click within a frame or two of the release, the window only
// needs to outlive that.
const suppressionWindow = 600 * time.Millisecond

// Config carries the tunables; zero values fall back to the defaults
// below.
type Config struct {
	LongPress   time.Duration
	AutoHide    time.Duration
	MaxChars    int
	MaxMovement float64
}

const (
	defaultLongPress   = 450 * time.Millisecond
	defaultAutoHide    = 2 * time.Second
	defaultMaxChars    = 500
	defaultMaxMovement = 10.0
)

type press struct {
	anchor *html.Node
	x, y   float64
	cancel func()
}

type suppression struct {
	anchor *html.Node
	expiry time.Time
}

type binding struct {
	sub        *render.Subdoc
	hover      *html.Node
	pressed    *press
	armed      *suppression
	popover    *html.Node
	cancelHide func()
}

// Controller implements render.Hook over footnote popovers.
type Controller struct {
	log      *zap.Logger
	clock    render.Scheduler
	splitter *text.Splitter
	cfg      Config

	mu    sync.Mutex
	theme common.Theme
	bound map[string]*binding
}

var _ render.Hook = (*Controller)(nil)

func NewController(log *zap.Logger, clock render.Scheduler, splitter *text.Splitter, cfg Config) *Controller {
	if cfg.LongPress <= 0 {
		cfg.LongPress = defaultLongPress
	}
	if cfg.AutoHide <= 0 {
		cfg.AutoHide = defaultAutoHide
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = defaultMaxChars
	}
	if cfg.MaxMovement <= 0 {
		cfg.MaxMovement = defaultMaxMovement
	}
	if clock == nil {
		clock = render.WallClock{}
	}
	return &Controller{
		log:      log.Named("footnote"),
		clock:    clock,
		splitter: splitter,
		cfg:      cfg,
		theme:    common.ThemeLight,
		bound:    make(map[string]*binding),
	}
}

func (c *Controller) Bind(sub *render.Subdoc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bound[sub.ID] = &binding{sub: sub}
}

func (c *Controller) Unbind(sub *render.Subdoc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.bound[sub.ID]
	if b == nil {
		return
	}
	delete(c.bound, sub.ID)
	if b.pressed != nil {
		b.pressed.cancel()
		b.pressed = nil
	}
	b.armed = nil
	c.hideLocked(b)
}

// SetTheme restyles any visible popovers in place. New popovers pick the
// theme up on show.
func (c *Controller) SetTheme(theme common.Theme) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.theme = theme
	for _, b := range c.bound {
		if b.popover != nil {
			dom.SetAttr(b.popover, "class", popoverClass(theme))
		}
	}
}

// PointerEnter handles a pointer entering an anchor element. Only mouse
// pointers hover; touch goes through the press path.
func (c *Controller) PointerEnter(subID, pointerType string, anchor *html.Node, rect Rect, vp Viewport) {
	if pointerType != "mouse" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.bound[subID]
	if b == nil {
		return
	}
	if c.showLocked(b, anchor, rect, vp) {
		b.hover = anchor
	}
}

// PointerLeave hides a hover popover unless the pointer moved into the
// anchor's own subtree or into the popover, so the note stays readable
// while the mouse crosses onto it.
func (c *Controller) PointerLeave(subID string, to *html.Node) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.bound[subID]
	if b == nil || b.hover == nil {
		return
	}
	if to != nil {
		if dom.IsDescendantOf(to, b.hover) {
			return
		}
		if b.popover != nil && dom.IsDescendantOf(to, b.popover) {
			return
		}
	}
	c.hideLocked(b)
}

// PressStart begins long-press tracking on an anchor.
func (c *Controller) PressStart(subID string, anchor *html.Node, x, y float64, rect Rect, vp Viewport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.bound[subID]
	if b == nil {
		return
	}
	if b.pressed != nil {
		b.pressed.cancel()
	}
	cancel := c.clock.AfterFunc(c.cfg.LongPress, func() {
		c.pressFired(subID, anchor, rect, vp)
	})
	b.pressed = &press{anchor: anchor, x: x, y: y, cancel: cancel}
}

// PressMove cancels the pending long press once the finger drifts, the
// user is scrolling or selecting, not holding.
func (c *Controller) PressMove(subID string, x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.bound[subID]
	if b == nil || b.pressed == nil {
		return
	}
	dx, dy := x-b.pressed.x, y-b.pressed.y
	if dx*dx+dy*dy > c.cfg.MaxMovement*c.cfg.MaxMovement {
		b.pressed.cancel()
		b.pressed = nil
	}
}

// PressEnd cancels a long press that has not fired yet. A release after
// firing is the click the suppression window exists for.
func (c *Controller) PressEnd(subID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.bound[subID]
	if b == nil || b.pressed == nil {
		return
	}
	b.pressed.cancel()
	b.pressed = nil
}

func (c *Controller) pressFired(subID string, anchor *html.Node, rect Rect, vp Viewport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.bound[subID]
	if b == nil || b.pressed == nil || b.pressed.anchor != anchor {
		return
	}
	b.pressed = nil
	if !c.showLocked(b, anchor, rect, vp) {
		return
	}
	b.armed = &suppression{anchor: anchor, expiry: c.clock.Now().Add(suppressionWindow)}
	if b.cancelHide != nil {
		b.cancelHide()
	}
	b.cancelHide = c.clock.AfterFunc(c.cfg.AutoHide, func() {
		c.autoHide(subID)
	})
}

func (c *Controller) autoHide(subID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b := c.bound[subID]; b != nil {
		c.hideLocked(b)
	}
}

// Click reports whether an activation on the anchor should be swallowed
// because a long press just showed its popover. The suppression is
// one-shot.
func (c *Controller) Click(subID string, anchor *html.Node) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.bound[subID]
	if b == nil || b.armed == nil || b.armed.anchor != anchor {
		return false
	}
	armed := b.armed
	b.armed = nil
	return c.clock.Now().Before(armed.expiry)
}

// Visible reports whether a popover is showing in the sub-document.
func (c *Controller) Visible(subID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.bound[subID]
	return b != nil && b.popover != nil
}

func (c *Controller) showLocked(b *binding, anchor *html.Node, rect Rect, vp Viewport) bool {
	note := Resolve(b.sub, anchor, c.splitter, c.cfg.MaxChars)
	if note == "" {
		return false
	}
	body := dom.FindElement(b.sub.Doc.Root(), "body")
	if body == nil {
		return false
	}
	if b.popover == nil {
		b.popover = &html.Node{Type: html.ElementNode, Data: "aside"}
		body.AppendChild(b.popover)
	}
	for b.popover.FirstChild != nil {
		b.popover.RemoveChild(b.popover.FirstChild)
	}
	b.popover.AppendChild(&html.Node{Type: html.TextNode, Data: note})

	place := PlacePopover(rect, vp)
	dom.SetAttr(b.popover, "class", popoverClass(c.theme))
	dom.SetAttr(b.popover, "style", fmt.Sprintf("left: %.0fpx; top: %.0fpx;", place.X, place.Y))
	c.log.Debug("footnote shown",
		zap.String("sub", b.sub.ID),
		zap.String("href", dom.Attr(anchor, "href")),
		zap.Bool("above", place.Above))
	return true
}

func (c *Controller) hideLocked(b *binding) {
	if b.cancelHide != nil {
		b.cancelHide()
		b.cancelHide = nil
	}
	b.hover = nil
	if b.popover == nil {
		return
	}
	if b.popover.Parent != nil {
		b.popover.Parent.RemoveChild(b.popover)
	}
	b.popover = nil
}

func popoverClass(theme common.Theme) string {
	return styles.PopoverClass + " " + styles.ThemeClass(theme)
}
