package spineview

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"epr/dom"
	"epr/render"
)

// sectionSteps is how many single page turns cross one section. Without
// layout a page is simply a fixed slice of the section; a spread consumes
// two slices per turn.
const sectionSteps = 8

type surface struct {
	doc  *document
	host render.Host
	log  *zap.Logger

	mu        sync.Mutex
	cfg       render.Config
	section   int
	fraction  float64
	relocated func(render.Relocation)
	hooks     map[render.HookKind]render.Hook
	bound     map[int]*render.Subdoc
	destroyed bool
}

func newSurface(d *document, host render.Host, cfg render.Config) *surface {
	return &surface{
		doc:   d,
		host:  host,
		log:   d.log.Named("surface"),
		cfg:   cfg,
		hooks: make(map[render.HookKind]render.Hook),
		bound: make(map[int]*render.Subdoc),
	}
}

func (s *surface) Display(ctx context.Context, target string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return ErrSurfaceDestroyed
	}
	s.mu.Unlock()

	idx, frac, err := s.resolveTarget(target)
	if err != nil {
		return err
	}
	if err := s.materialize(ctx, idx); err != nil {
		return err
	}
	s.moveTo(idx, frac)
	return nil
}

// resolveTarget maps a display target to a section index and fraction: the
// empty target is the document start, a location pointer round-trips, and
// anything else is a navigation ref whose fragment lands at the section
// start since there is no layout to do better.
func (s *surface) resolveTarget(target string) (int, float64, error) {
	book := s.doc.book
	if target == "" {
		return 0, 0, nil
	}
	if IsLocation(target) {
		idx, frac, err := ParseLocation(render.Location(target))
		if err != nil {
			return 0, 0, err
		}
		if idx >= len(book.Spine()) {
			return 0, 0, fmt.Errorf("%w: section %d of %d", ErrBadLocation, idx, len(book.Spine()))
		}
		return idx, frac, nil
	}
	ref, _, _ := strings.Cut(target, "#")
	if idx := book.SpineIndexOf(ref); idx >= 0 {
		return idx, 0, nil
	}
	return 0, 0, fmt.Errorf("%w: %s", ErrUnknownTarget, target)
}

func (s *surface) Prev(ctx context.Context) error { return s.turn(ctx, -1) }
func (s *surface) Next(ctx context.Context) error { return s.turn(ctx, +1) }

func (s *surface) turn(ctx context.Context, dir int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return ErrSurfaceDestroyed
	}
	count := len(s.doc.book.Spine())
	step := s.stepLocked()
	idx, frac := s.section, s.fraction
	s.mu.Unlock()

	const eps = 1e-9
	if dir > 0 {
		frac += step
		if frac >= 1-eps {
			idx++
			frac = 0
			if idx >= count {
				// already on the last page, nothing to turn to
				return nil
			}
		}
	} else {
		frac -= step
		if frac < -eps {
			idx--
			frac = 1 - step
			if idx < 0 {
				return nil
			}
		} else if frac < 0 {
			frac = 0
		}
	}

	if err := s.materialize(ctx, idx); err != nil {
		return err
	}
	s.moveTo(idx, frac)
	return nil
}

// stepLocked is the fraction one page turn advances under the current
// configuration.
func (s *surface) stepLocked() float64 {
	step := 1.0 / sectionSteps
	if s.cfg.Flow == render.FlowPaginated && s.spreadActiveLocked() {
		step *= 2
	}
	return step
}

func (s *surface) spreadActiveLocked() bool {
	switch s.cfg.Spread {
	case render.SpreadAlways:
		return true
	case render.SpreadAuto:
		return s.cfg.PaginationThreshold > 0 && s.host.ViewportWidth() >= s.cfg.PaginationThreshold
	}
	return false
}

// moveTo commits a position change: in paginated flow sections other than
// the current one are pruned, then the relocation callback fires. Hook and
// relocation callbacks run outside the surface lock.
func (s *surface) moveTo(idx int, frac float64) {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.section, s.fraction = idx, frac

	var unbinds []*render.Subdoc
	if s.cfg.Flow == render.FlowPaginated {
		for i, sub := range s.bound {
			if i != idx {
				delete(s.bound, i)
				unbinds = append(unbinds, sub)
			}
		}
	}
	hooks := s.hookSnapshotLocked()
	reloc := s.relocationLocked()
	cb := s.relocated
	s.mu.Unlock()

	for _, sub := range unbinds {
		for _, h := range hooks {
			h.Unbind(sub)
		}
	}
	if cb != nil {
		cb(reloc)
	}
}

func (s *surface) relocationLocked() render.Relocation {
	spine := s.doc.book.Spine()
	rel := render.Relocation{
		Location: FormatLocation(s.section, s.fraction),
		Index:    s.section,
	}
	if s.section < len(spine) {
		rel.Href = spine[s.section].Path
	}
	return rel
}

func (s *surface) CurrentLocation() render.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	return FormatLocation(s.section, s.fraction)
}

func (s *surface) OnRelocated(fn func(render.Relocation)) {
	s.mu.Lock()
	s.relocated = fn
	s.mu.Unlock()
}

func (s *surface) SectionCount() int {
	return len(s.doc.book.Spine())
}

func (s *surface) LoadSection(ctx context.Context, index int) error {
	return s.materialize(ctx, index)
}

// materialize loads and parses a section and binds every registered hook
// to it. Safe to race: the first finished load wins, later ones are
// dropped without a second bind.
func (s *surface) materialize(ctx context.Context, idx int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return ErrSurfaceDestroyed
	}
	if _, ok := s.bound[idx]; ok {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	book := s.doc.book
	spine := book.Spine()
	if idx < 0 || idx >= len(spine) {
		return fmt.Errorf("%w: section %d", ErrUnknownTarget, idx)
	}
	data, err := book.ReadResource(spine[idx].Path)
	if err != nil {
		return fmt.Errorf("unable to load section %d: %w", idx, err)
	}
	doc, err := dom.Parse(data)
	if err != nil {
		return fmt.Errorf("unable to parse section %d: %w", idx, err)
	}
	sub := &render.Subdoc{
		ID:        spine[idx].Path,
		Path:      spine[idx].Path,
		Index:     idx,
		Doc:       doc,
		Viewport:  s.host.ViewportWidth(),
		Resources: s.doc.book.ReadResource,
	}

	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return ErrSurfaceDestroyed
	}
	if _, ok := s.bound[idx]; ok {
		s.mu.Unlock()
		return nil
	}
	s.bound[idx] = sub
	hooks := s.hookSnapshotLocked()
	s.mu.Unlock()

	for _, h := range hooks {
		h.Bind(sub)
	}
	s.log.Debug("section materialized", zap.Int("index", idx), zap.String("path", sub.Path), zap.String("title", doc.Title()))
	return nil
}

func (s *surface) hookSnapshotLocked() []render.Hook {
	hooks := make([]render.Hook, 0, len(s.hooks))
	for _, h := range s.hooks {
		hooks = append(hooks, h)
	}
	return hooks
}

func (s *surface) boundSnapshotLocked() []*render.Subdoc {
	subs := make([]*render.Subdoc, 0, len(s.bound))
	for _, sub := range s.bound {
		subs = append(subs, sub)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].Index < subs[j].Index })
	return subs
}

func (s *surface) RegisterHook(kind render.HookKind, h render.Hook) {
	if h == nil {
		return
	}
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	prev := s.hooks[kind]
	s.hooks[kind] = h
	subs := s.boundSnapshotLocked()
	s.mu.Unlock()

	for _, sub := range subs {
		if prev != nil {
			prev.Unbind(sub)
		}
		h.Bind(sub)
	}
}

func (s *surface) DeregisterHook(kind render.HookKind) {
	s.mu.Lock()
	h := s.hooks[kind]
	delete(s.hooks, kind)
	subs := s.boundSnapshotLocked()
	s.mu.Unlock()

	if h == nil {
		return
	}
	for _, sub := range subs {
		h.Unbind(sub)
	}
}

func (s *surface) Reconfigure(cfg render.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return ErrSurfaceDestroyed
	}
	if cfg.Flow != s.cfg.Flow {
		return ErrFlowChange
	}
	s.cfg = cfg
	return nil
}

func (s *surface) Destroy() error {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return nil
	}
	s.destroyed = true
	s.relocated = nil
	hooks := s.hookSnapshotLocked()
	s.hooks = make(map[render.HookKind]render.Hook)
	subs := s.boundSnapshotLocked()
	s.bound = make(map[int]*render.Subdoc)
	s.mu.Unlock()

	for _, h := range hooks {
		for _, sub := range subs {
			h.Unbind(sub)
		}
	}
	s.doc.dropSurface(s)
	return nil
}
