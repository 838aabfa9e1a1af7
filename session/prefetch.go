package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"epr/render"
)

// prefetcher keeps the immediate neighbors of the current section
// materialized during continuous scroll. One instance per open session;
// the shared epoch counter is its only tie to the engine. A load captures
// the epoch at request time and applies its result only while the epoch
// still matches, so work outliving its session is discarded, not
// cancelled.
type prefetcher struct {
	log     *zap.Logger
	epoch   *atomic.Int64
	timeout time.Duration

	mu       sync.Mutex
	anchor   int
	loaded   map[int]bool
	inflight map[int]bool
}

func newPrefetcher(log *zap.Logger, epoch *atomic.Int64, timeout time.Duration) *prefetcher {
	return &prefetcher{
		log:      log.Named("prefetch"),
		epoch:    epoch,
		timeout:  timeout,
		anchor:   -1,
		loaded:   make(map[int]bool),
		inflight: make(map[int]bool),
	}
}

// evaluate requests background loads of the sections next to index. A
// relocation within the anchored section is a no-op; sections already
// loaded or in flight are skipped.
func (p *prefetcher) evaluate(surface render.RenderSurface, index int) {
	epoch := p.epoch.Load()
	count := surface.SectionCount()

	p.mu.Lock()
	if index == p.anchor {
		p.mu.Unlock()
		return
	}
	p.anchor = index
	// the anchored section is materialized by definition
	p.loaded[index] = true
	var targets []int
	for _, n := range []int{index - 1, index + 1} {
		if n < 0 || n >= count || p.loaded[n] || p.inflight[n] {
			continue
		}
		p.inflight[n] = true
		targets = append(targets, n)
	}
	p.mu.Unlock()

	for _, n := range targets {
		go p.load(surface, n, epoch)
	}
}

func (p *prefetcher) load(surface render.RenderSurface, index int, epoch int64) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	err := surface.LoadSection(ctx, index)

	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inflight, index)
	if p.epoch.Load() != epoch {
		// the session this load belonged to is gone
		return
	}
	if err != nil {
		p.log.Warn("unable to prefetch section", zap.Int("section", index), zap.Error(err))
		return
	}
	p.loaded[index] = true
	p.log.Debug("section prefetched", zap.Int("section", index))
}
