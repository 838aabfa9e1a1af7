package session

import (
	"sync"

	"epr/common"
	"epr/render"
	"epr/styles"
)

// themeHook injects the palette and user style rules into every bound
// sub-document and can restyle all of them in place when the resolved
// theme changes.
type themeHook struct {
	injector *styles.Injector

	mu    sync.Mutex
	theme common.Theme
	bound map[string]*render.Subdoc
}

func newThemeHook(injector *styles.Injector, theme common.Theme) *themeHook {
	return &themeHook{
		injector: injector,
		theme:    theme,
		bound:    make(map[string]*render.Subdoc),
	}
}

var _ render.Hook = (*themeHook)(nil)

func (h *themeHook) Bind(sub *render.Subdoc) {
	h.mu.Lock()
	h.bound[sub.ID] = sub
	theme := h.theme
	h.mu.Unlock()
	h.injector.Inject(sub.Doc, theme)
}

func (h *themeHook) Unbind(sub *render.Subdoc) {
	h.mu.Lock()
	delete(h.bound, sub.ID)
	h.mu.Unlock()
}

func (h *themeHook) restyle(theme common.Theme) {
	h.mu.Lock()
	h.theme = theme
	subs := make([]*render.Subdoc, 0, len(h.bound))
	for _, sub := range h.bound {
		subs = append(subs, sub)
	}
	h.mu.Unlock()
	for _, sub := range subs {
		h.injector.Inject(sub.Doc, theme)
	}
}
