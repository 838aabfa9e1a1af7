// Package session owns the lifecycle of an open book: it opens documents
// through the rendering capability, restores and persists reading
// positions, applies display modes and themes, resolves the current
// table-of-contents item on every relocation, keeps scroll neighbors
// prefetched, and feeds toolbar observers full state snapshots.
//
// At most one document is open per engine. Opening tears the previous
// session down first; background work left over from a closed session is
// discarded by epoch comparison, never cancelled in place.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"text/template"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"epr/common"
	"epr/footnote"
	"epr/media"
	"epr/render"
	"epr/store"
	"epr/styles"
	"epr/tap"
	"epr/text"
)

var (
	// ErrOpenTimeout marks an open attempt that exhausted its time budget.
	ErrOpenTimeout = errors.New("document open timed out")
	// ErrNoSession marks operations that need an open document.
	ErrNoSession = errors.New("no open session")
)

// themeSyncDelay coalesces bursts of environment scheme changes into one
// restyle pass, roughly one paint tick.
const themeSyncDelay = 16 * time.Millisecond

// LocationStore persists last-read positions keyed by document identity.
// store.Store implements it; store.Nop is the no-persistence variant.
type LocationStore interface {
	Location(key string) (string, error)
	SetLocation(key, location string) error
}

// Source is one book to open: raw container bytes plus the identity the
// caller knows about it. Path may be empty for in-memory documents.
type Source struct {
	Data []byte
	Path string
	Meta Metadata
}

// Deps are the capabilities the engine runs against. Renderer and Host
// are required; the rest defaults to inert implementations.
type Deps struct {
	Renderer render.Engine
	Host     render.Host
	Store    LocationStore
	Env      render.EnvironmentSignal
	Clock    render.Scheduler
	Injector *styles.Injector
	Splitter *text.Splitter
}

// Options are the engine tunables, mapped from configuration by the
// caller.
type Options struct {
	OpenTimeout    time.Duration
	DisplayTimeout time.Duration
	TOCTimeout     time.Duration
	ReopenLast     bool
	TitleTemplate  string
	Tap            tap.Config
	Footnotes      footnote.Config
}

const (
	defaultOpenTimeout    = 20 * time.Second
	defaultDisplayTimeout = 8 * time.Second
	defaultTOCTimeout     = 5 * time.Second
)

// ToolbarState is the derived, read-only snapshot toolbar observers get.
// Always recomputed whole, never patched.
type ToolbarState struct {
	CanNavigate  bool
	ChapterTitle string
	SelectedKey  string
	TOC          []TOCItem
}

type liveSession struct {
	doc     render.DocumentHandle
	surface render.RenderSurface
	mode    common.DisplayMode
	source  Source
	key     string
	title   string

	toc      *tocIndex
	selected int

	lastPersisted render.Location

	theme    *themeHook
	fit      *media.FitHook
	notes    *footnote.Controller
	tap      *tap.Recognizer
	prefetch *prefetcher
}

// Engine is the reading session orchestrator. Safe for concurrent use.
type Engine struct {
	log   *zap.Logger
	deps  Deps
	opts  Options
	title *template.Template

	// epoch increments on every session teardown; background work
	// compares it on completion and discards stale results
	epoch atomic.Int64

	// openMu serializes whole open attempts so two concurrent opens
	// cannot interleave their capability calls
	openMu sync.Mutex

	mu        sync.Mutex
	sess      *liveSession
	theme     common.Theme
	resolved  common.Theme
	listeners map[int]func(ToolbarState)
	nextID    int

	themePending atomic.Bool
}

// nullEnv is the environment of last resort: always light, never changes.
type nullEnv struct{}

func (nullEnv) Dark() bool             { return false }
func (nullEnv) OnChange(func()) func() { return func() {} }

func New(log *zap.Logger, deps Deps, opts Options) (*Engine, error) {
	if deps.Renderer == nil {
		return nil, errors.New("unable to build session engine: no renderer")
	}
	if deps.Host == nil {
		return nil, errors.New("unable to build session engine: no host")
	}
	if deps.Store == nil {
		deps.Store = store.Nop{}
	}
	if deps.Env == nil {
		deps.Env = nullEnv{}
	}
	if deps.Clock == nil {
		deps.Clock = render.WallClock{}
	}
	if deps.Injector == nil {
		deps.Injector = styles.NewInjector(log)
	}
	if deps.Splitter == nil {
		deps.Splitter = text.NewSplitter(language.English, log)
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = defaultOpenTimeout
	}
	if opts.DisplayTimeout <= 0 {
		opts.DisplayTimeout = defaultDisplayTimeout
	}
	if opts.TOCTimeout <= 0 {
		opts.TOCTimeout = defaultTOCTimeout
	}
	title, err := parseTitleTemplate(opts.TitleTemplate)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		log:       log.Named("session"),
		deps:      deps,
		opts:      opts,
		title:     title,
		theme:     common.ThemeAuto,
		listeners: make(map[int]func(ToolbarState)),
	}
	e.resolved = e.resolveTheme(common.ThemeAuto)
	deps.Env.OnChange(e.onEnvironmentChange)
	return e, nil
}

// Open loads a book and displays it, tearing down any session open
// before. With an empty preferred location and the reopen option on, the
// stored position is restored; a location that fails to display falls
// back to the document start rather than failing the open.
func (e *Engine) Open(ctx context.Context, src Source, mode common.DisplayMode, preferred render.Location) error {
	e.openMu.Lock()
	defer e.openMu.Unlock()

	if len(src.Data) == 0 {
		return errors.New("unable to open document: no content")
	}
	e.Close()
	epoch := e.epoch.Load()
	start := time.Now()

	octx, ocancel := context.WithTimeout(ctx, e.opts.OpenTimeout)
	doc, err := e.deps.Renderer.OpenBinary(octx, src.Data)
	ocancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = ErrOpenTimeout
		}
		return fmt.Errorf("unable to open document: %w", err)
	}

	surface, err := doc.RenderInto(e.deps.Host, ResolveDisplayMode(mode))
	if err != nil {
		if cerr := doc.Close(); cerr != nil {
			e.log.Warn("unable to close document after failed open", zap.Error(cerr))
		}
		return fmt.Errorf("unable to build render surface: %w", err)
	}

	// navigation gets its own budget; a book without a usable TOC still
	// opens, it just reads without chapter matching
	tctx, tcancel := context.WithTimeout(ctx, e.opts.TOCTimeout)
	nav, err := doc.LoadNavigation(tctx)
	tcancel()
	if err != nil {
		e.log.Warn("unable to load navigation", zap.Error(err))
		nav = nil
	}

	sess := &liveSession{
		doc:      doc,
		surface:  surface,
		mode:     mode,
		source:   src,
		key:      store.KeyFor(src.Path, src.Meta.Title),
		title:    e.displayTitle(src.Meta),
		toc:      newTOCIndex(FlattenNav(nav)),
		selected: -1,
		notes:    footnote.NewController(e.log, e.deps.Clock, e.deps.Splitter, e.opts.Footnotes),
		fit:      media.NewFitHook(e.log),
		prefetch: newPrefetcher(e.log, &e.epoch, e.opts.DisplayTimeout),
	}

	e.mu.Lock()
	sess.theme = newThemeHook(e.deps.Injector, e.resolved)
	sess.notes.SetTheme(e.resolved)
	e.sess = sess
	e.mu.Unlock()

	surface.RegisterHook(render.HookKindTheme, sess.theme)
	surface.RegisterHook(render.HookKindMediaFit, sess.fit)
	surface.RegisterHook(render.HookKindFootnote, sess.notes)
	if !mode.Continuous() {
		// tap page turns exist only in paginated flow; in scrolled flow
		// the hook is simply never installed
		sess.tap = tap.NewRecognizer(e.log, e, e.deps.Clock, e.opts.Tap)
		surface.RegisterHook(render.HookKindTap, sess.tap)
	}
	surface.OnRelocated(func(rel render.Relocation) { e.onRelocated(epoch, rel) })

	target := string(preferred)
	if target == "" && e.opts.ReopenLast {
		loc, err := e.deps.Store.Location(sess.key)
		if err != nil {
			e.log.Warn("unable to read stored location", zap.String("key", sess.key), zap.Error(err))
		} else {
			target = loc
		}
	}
	if err := e.display(ctx, surface, target); err != nil {
		if target == "" {
			e.Close()
			return fmt.Errorf("unable to display document: %w", err)
		}
		e.log.Warn("unable to restore location, falling back to start",
			zap.String("location", target), zap.Error(err))
		if err := e.display(ctx, surface, ""); err != nil {
			e.Close()
			return fmt.Errorf("unable to display document: %w", err)
		}
	}

	e.log.Info("session opened",
		zap.String("title", sess.title),
		zap.Stringer("mode", mode),
		zap.Duration("elapsed", time.Since(start)))
	e.notifyToolbar()
	return nil
}

func (e *Engine) display(ctx context.Context, surface render.RenderSurface, target string) error {
	dctx, cancel := context.WithTimeout(ctx, e.opts.DisplayTimeout)
	defer cancel()
	return surface.Display(dctx, target)
}

// Close tears the open session down: hooks deregistered, surface and
// document destroyed, derived state cleared, epoch bumped, toolbar
// observers told about the empty state. Idempotent; teardown trouble is
// logged, never returned.
func (e *Engine) Close() {
	e.mu.Lock()
	sess := e.sess
	e.sess = nil
	e.mu.Unlock()
	if sess == nil {
		return
	}
	e.epoch.Add(1)

	sess.surface.OnRelocated(nil)
	sess.surface.DeregisterHook(render.HookKindTheme)
	sess.surface.DeregisterHook(render.HookKindMediaFit)
	sess.surface.DeregisterHook(render.HookKindFootnote)
	if sess.tap != nil {
		sess.surface.DeregisterHook(render.HookKindTap)
	}

	err := multierr.Append(sess.surface.Destroy(), sess.doc.Close())
	if err != nil {
		e.log.Warn("session teardown incomplete", zap.Error(err))
	}
	e.log.Info("session closed", zap.String("title", sess.title))
	e.notifyToolbar()
}

// GoToPrevious turns one page back.
func (e *Engine) GoToPrevious(ctx context.Context) error {
	surface, err := e.currentSurface()
	if err != nil {
		return err
	}
	if err := surface.Prev(ctx); err != nil {
		return fmt.Errorf("unable to turn page: %w", err)
	}
	return nil
}

// GoToNext turns one page forward.
func (e *Engine) GoToNext(ctx context.Context) error {
	surface, err := e.currentSurface()
	if err != nil {
		return err
	}
	if err := surface.Next(ctx); err != nil {
		return fmt.Errorf("unable to turn page: %w", err)
	}
	return nil
}

// JumpTo displays an arbitrary navigation target.
func (e *Engine) JumpTo(ctx context.Context, ref string) error {
	surface, err := e.currentSurface()
	if err != nil {
		return err
	}
	if err := e.display(ctx, surface, ref); err != nil {
		return fmt.Errorf("unable to jump to %q: %w", ref, err)
	}
	return nil
}

func (e *Engine) currentSurface() (render.RenderSurface, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil {
		return nil, ErrNoSession
	}
	return e.sess.surface, nil
}

// SetDisplayMode switches the presentation. Within one flow family the
// surface is patched in place and the current location re-displayed;
// across families the book is fully reopened at the captured location.
// Apply trouble never surfaces, the worst case is a logged fallback.
func (e *Engine) SetDisplayMode(ctx context.Context, mode common.DisplayMode) error {
	e.mu.Lock()
	if e.sess == nil {
		e.mu.Unlock()
		return ErrNoSession
	}
	sess := e.sess
	if sess.mode == mode {
		e.mu.Unlock()
		return nil
	}
	cfg := ResolveDisplayMode(mode)
	crossFamily := cfg.Flow != ResolveDisplayMode(sess.mode).Flow
	loc := sess.surface.CurrentLocation()
	src := sess.source
	surface := sess.surface
	if !crossFamily {
		sess.mode = mode
	}
	e.mu.Unlock()

	if crossFamily {
		if err := e.Open(ctx, src, mode, loc); err != nil {
			e.log.Error("unable to reopen for display mode", zap.Stringer("mode", mode), zap.Error(err))
		}
		return nil
	}

	if err := surface.Reconfigure(cfg); err != nil {
		e.log.Warn("unable to patch display mode, reopening", zap.Stringer("mode", mode), zap.Error(err))
		e.mu.Lock()
		stale := e.sess == nil || e.sess.surface != surface
		e.mu.Unlock()
		if !stale {
			if err := e.Open(ctx, src, mode, loc); err != nil {
				e.log.Error("unable to reopen for display mode", zap.Stringer("mode", mode), zap.Error(err))
			}
		}
		return nil
	}
	if err := e.display(ctx, surface, string(loc)); err != nil {
		e.log.Warn("unable to re-display after mode change", zap.Stringer("mode", mode), zap.Error(err))
	}
	e.notifyToolbar()
	return nil
}

// SetAppearanceTheme applies a theme, resolving auto against the host
// environment. Bound sub-documents and live popovers restyle in place
// when the resolved theme actually changes.
func (e *Engine) SetAppearanceTheme(_ context.Context, theme common.Theme) error {
	e.mu.Lock()
	e.theme = theme
	resolved := e.resolveTheme(theme)
	changed := resolved != e.resolved
	e.resolved = resolved
	sess := e.sess
	e.mu.Unlock()

	if !changed {
		return nil
	}
	e.log.Debug("theme resolved", zap.Stringer("theme", resolved))
	if sess != nil {
		sess.theme.restyle(resolved)
		sess.notes.SetTheme(resolved)
	}
	return nil
}

func (e *Engine) resolveTheme(theme common.Theme) common.Theme {
	if theme.Resolved() {
		return theme
	}
	if e.deps.Env.Dark() {
		return common.ThemeDark
	}
	return common.ThemeLight
}

// onEnvironmentChange re-resolves an auto theme after the host scheme
// flips. A pending flag plus a short delay folds change bursts into one
// restyle pass.
func (e *Engine) onEnvironmentChange() {
	if !e.themePending.CompareAndSwap(false, true) {
		return
	}
	e.deps.Clock.AfterFunc(themeSyncDelay, func() {
		e.themePending.Store(false)
		e.mu.Lock()
		theme := e.theme
		e.mu.Unlock()
		if theme.Resolved() {
			return
		}
		if err := e.SetAppearanceTheme(context.Background(), theme); err != nil {
			e.log.Warn("unable to re-sync theme", zap.Error(err))
		}
	})
}

// Theme returns the currently resolved appearance theme.
func (e *Engine) Theme() common.Theme {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resolved
}

// Mode returns the display mode of the open session, or the zero mode
// when nothing is open.
func (e *Engine) Mode() (common.DisplayMode, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil {
		return 0, false
	}
	return e.sess.mode, true
}

// Footnotes returns the footnote controller of the open session, nil
// without one. Hosts deliver pointer and press events straight into it.
func (e *Engine) Footnotes() *footnote.Controller {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil {
		return nil
	}
	return e.sess.notes
}

// Tap returns the tap recognizer of the open session. Nil without one,
// and nil in continuous flow where tap page turns do not exist.
func (e *Engine) Tap() *tap.Recognizer {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil {
		return nil
	}
	return e.sess.tap
}

// CurrentLocation returns the location pointer of the open session,
// empty when nothing is open.
func (e *Engine) CurrentLocation() render.Location {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil {
		return ""
	}
	return e.sess.surface.CurrentLocation()
}

// ToolbarState returns the current snapshot.
func (e *Engine) ToolbarState() ToolbarState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.toolbarLocked()
}

// OnToolbarStateChange registers a toolbar observer and returns its
// cancel. Observers are called synchronously with a full snapshot on
// every relevant mutation.
func (e *Engine) OnToolbarStateChange(fn func(ToolbarState)) (cancel func()) {
	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.listeners[id] = fn
	e.mu.Unlock()
	return func() {
		e.mu.Lock()
		delete(e.listeners, id)
		e.mu.Unlock()
	}
}

func (e *Engine) toolbarLocked() ToolbarState {
	if e.sess == nil {
		return ToolbarState{}
	}
	s := e.sess
	st := ToolbarState{
		CanNavigate:  true,
		ChapterTitle: s.title,
		TOC:          append([]TOCItem(nil), s.toc.items...),
	}
	if s.selected >= 0 && s.selected < len(s.toc.items) {
		st.ChapterTitle = s.toc.items[s.selected].Label
		st.SelectedKey = s.toc.items[s.selected].NormalizedKey
	}
	return st
}

func (e *Engine) notifyToolbar() {
	e.mu.Lock()
	st := e.toolbarLocked()
	fns := make([]func(ToolbarState), 0, len(e.listeners))
	for _, fn := range e.listeners {
		fns = append(fns, fn)
	}
	e.mu.Unlock()
	for _, fn := range fns {
		fn(st)
	}
}

// onRelocated is the surface relocation callback: resolve the TOC item
// for the new position, persist the location if it moved, evaluate
// prefetch, tell the toolbar. Stale callbacks from a closed session are
// dropped by epoch.
func (e *Engine) onRelocated(epoch int64, rel render.Relocation) {
	e.mu.Lock()
	if e.sess == nil || e.epoch.Load() != epoch {
		e.mu.Unlock()
		return
	}
	s := e.sess
	s.selected = s.toc.match(rel.Href)
	var key string
	if rel.Location != "" && rel.Location != s.lastPersisted {
		s.lastPersisted = rel.Location
		key = s.key
	}
	surface := s.surface
	prefetch := s.prefetch
	continuous := s.mode.Continuous()
	e.mu.Unlock()

	if key != "" {
		if err := e.deps.Store.SetLocation(key, string(rel.Location)); err != nil {
			e.log.Warn("unable to persist location", zap.String("key", key), zap.Error(err))
		}
	}
	if continuous {
		prefetch.evaluate(surface, rel.Index)
	}
	e.notifyToolbar()
}
