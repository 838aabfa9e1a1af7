// Package render defines the capability surface between the session engine
// and the document rendering collaborator. The engine consumes these
// interfaces only; the reference adapter over real book containers lives in
// render/spineview and deterministic fakes live in the session tests.
package render

import (
	"context"
	"time"

	"epr/dom"
)

// Location is an opaque pointer into a document. The engine stores,
// compares and round-trips it, never interprets it.
type Location string

// Config selects the rendering strategy of a surface. ViewportWidth lives
// on the Host, not here: the same surface configuration applies to any
// container size.
type Config struct {
	Flow   Flow
	Spread Spread
	// viewport width in px from which a spread may engage, zero means
	// the spread setting applies unconditionally
	PaginationThreshold int
}

// Host is the container a surface renders into. The reference adapter only
// needs the viewport geometry; a real rendering engine would also draw
// into it.
type Host interface {
	ViewportWidth() int
}

// NavItem is one node of the navigation tree as the rendering collaborator
// reports it.
type NavItem struct {
	Label    string
	Ref      string
	Children []NavItem
}

// Relocation describes one view position change. Location is the opaque
// pointer to persist; Href and Index identify the current section for
// navigation matching and prefetch anchoring without interpreting the
// pointer.
type Relocation struct {
	Location Location
	Href     string
	Index    int
}

// Engine opens binary book content into document handles.
type Engine interface {
	OpenBinary(ctx context.Context, data []byte) (DocumentHandle, error)
}

// DocumentHandle is an opened book. Handles are single-use: once closed no
// further operation is valid.
type DocumentHandle interface {
	// RenderInto builds the live surface for this handle. At most one
	// surface per handle.
	RenderInto(target Host, cfg Config) (RenderSurface, error)
	// LoadNavigation returns the navigation tree of the book.
	LoadNavigation(ctx context.Context) ([]NavItem, error)
	Close() error
}

// Hook observes the sub-document lifecycle of a surface. Bind runs when a
// content fragment materializes, Unbind before it is torn down. Unbind is
// also delivered for every still-bound fragment when the surface is
// destroyed.
type Hook interface {
	Bind(sub *Subdoc)
	Unbind(sub *Subdoc)
}

// RenderSurface is the live view into one document handle.
type RenderSurface interface {
	// Display shows a location pointer or a navigation ref; the empty
	// target selects the document start.
	Display(ctx context.Context, target string) error
	Prev(ctx context.Context) error
	Next(ctx context.Context) error
	CurrentLocation() Location
	// OnRelocated installs the single relocation callback, replacing any
	// previous one. A nil callback detaches.
	OnRelocated(fn func(Relocation))
	// SectionCount returns the number of content sections in reading
	// order.
	SectionCount() int
	// LoadSection materializes the section with the given index without
	// moving the view. Supports neighbor prefetch in scrolled flow.
	LoadSection(ctx context.Context, index int) error
	// RegisterHook installs the handler for a hook kind, replacing any
	// previous handler of that kind. Already materialized sub-documents
	// are bound immediately.
	RegisterHook(kind HookKind, h Hook)
	// DeregisterHook removes the handler, unbinding it from every bound
	// sub-document first.
	DeregisterHook(kind HookKind)
	// Reconfigure patches the surface configuration in place. Only valid
	// within the same flow; switching flow requires a new surface.
	Reconfigure(cfg Config) error
	Destroy() error
}

// Subdoc is one materialized content fragment with its own content tree.
type Subdoc struct {
	ID       string // stable within the surface
	Path     string // archive path of the content document
	Index    int    // position in reading order
	Doc      *dom.Document
	Viewport int // width in px
	// Resources reads a sibling resource by archive path. Nil when the
	// adapter exposes none; hooks that need resource bytes must tolerate
	// that.
	Resources func(path string) ([]byte, error)
}

// EnvironmentSignal reports the host color scheme. Injected so theme
// resolution never reads ambient globals.
type EnvironmentSignal interface {
	Dark() bool
	// OnChange registers a change callback and returns its cancel.
	OnChange(fn func()) (cancel func())
}

// Scheduler abstracts time so gesture and popover timing is testable.
type Scheduler interface {
	Now() time.Time
	// AfterFunc schedules fn after d and returns a cancel function.
	AfterFunc(d time.Duration, fn func()) (cancel func())
}

// WallClock is the production Scheduler backed by the time package.
type WallClock struct{}

func (WallClock) Now() time.Time { return time.Now() }

func (WallClock) AfterFunc(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}
