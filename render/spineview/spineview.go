// Package spineview is the reference rendering adapter: it implements the
// render capability over opened book containers and deliberately performs
// no text layout. A page is a fixed fraction of a spine section; location
// pointers are the adapter's own sec/<index>@<fraction> strings, opaque to
// everything above it.
package spineview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"epr/epub"
	"epr/render"
)

var (
	ErrBadLocation      = errors.New("malformed location pointer")
	ErrUnknownTarget    = errors.New("display target is not in the reading order")
	ErrSurfaceLive      = errors.New("document already has a live surface")
	ErrSurfaceDestroyed = errors.New("render surface is destroyed")
	ErrDocumentClosed   = errors.New("document handle is closed")
	ErrFlowChange       = errors.New("flow change requires a new surface")
)

// Adapter opens binary book content. Implements render.Engine.
type Adapter struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Adapter {
	return &Adapter{log: log.Named("spineview")}
}

func (a *Adapter) OpenBinary(ctx context.Context, data []byte) (render.DocumentHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	book, err := epub.OpenReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("unable to open book content: %w", err)
	}
	a.log.Debug("document opened",
		zap.String("title", book.Metadata().Title),
		zap.Int("sections", len(book.Spine())))
	return &document{book: book, log: a.log}, nil
}

// document implements render.DocumentHandle over one opened container.
type document struct {
	book *epub.Container
	log  *zap.Logger

	mu      sync.Mutex
	surface *surface
	closed  bool
}

func (d *document) RenderInto(target render.Host, cfg render.Config) (render.RenderSurface, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrDocumentClosed
	}
	if d.surface != nil {
		return nil, ErrSurfaceLive
	}
	d.surface = newSurface(d, target, cfg)
	return d.surface, nil
}

func (d *document) LoadNavigation(ctx context.Context) ([]render.NavItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return nil, ErrDocumentClosed
	}
	return convertNav(d.book.NavTree()), nil
}

func convertNav(points []epub.NavPoint) []render.NavItem {
	if len(points) == 0 {
		return nil
	}
	items := make([]render.NavItem, 0, len(points))
	for _, p := range points {
		items = append(items, render.NavItem{
			Label:    p.Label,
			Ref:      p.Ref,
			Children: convertNav(p.Children),
		})
	}
	return items
}

func (d *document) Close() error {
	d.mu.Lock()
	s := d.surface
	d.surface = nil
	closed := d.closed
	d.closed = true
	d.mu.Unlock()

	if closed {
		return nil
	}
	var errs error
	if s != nil {
		errs = multierr.Append(errs, s.Destroy())
	}
	return multierr.Append(errs, d.book.Close())
}

// dropSurface lets a destroyed surface detach so a later RenderInto can
// build a replacement.
func (d *document) dropSurface(s *surface) {
	d.mu.Lock()
	if d.surface == s {
		d.surface = nil
	}
	d.mu.Unlock()
}
