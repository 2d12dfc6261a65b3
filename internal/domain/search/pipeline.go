package search

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Update is one preview-count frame. HasCount is false only before the first
// successful count; a later total failure keeps the last known good value.
type Update struct {
	Count    int    `json:"count"`
	HasCount bool   `json:"has_count"`
	Loading  bool   `json:"loading"`
	Seq      uint64 `json:"seq"`
}

// Pipeline keeps the "N listings match" indicator consistent with the live
// search state without flooding the network.
//
// Mutations schedule a recompute after a quiet period; only the trailing edit
// in a burst fires a request. Every issued request carries a monotonically
// increasing sequence number and the displayed count is bound to the most
// recently issued request, so an older response resolving out of order is
// discarded rather than overwriting a newer one. In-flight requests are never
// aborted, only ignored when stale.
type Pipeline struct {
	counter  Counter
	debounce time.Duration
	notify   func(Update)

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	timer    *time.Timer
	timerGen uint64 // generation of the most recently scheduled timer
	pending  CountRequest
	seq      uint64 // sequence of the most recently issued request
	count    int
	hasCount bool
	loading  bool
}

// NewPipeline creates a preview-count pipeline. notify may be nil; when set
// it is invoked on every state change with the current frame.
func NewPipeline(counter Counter, debounce time.Duration, notify func(Update)) *Pipeline {
	ctx, cancel := context.WithCancel(context.Background())
	return &Pipeline{
		counter:  counter,
		debounce: debounce,
		notify:   notify,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Observe records a state mutation and (re)schedules the trailing-debounce
// recompute. A new mutation within the window cancels and reschedules. Stop on
// an already-expired timer cannot prevent its callback from running, so each
// scheduled timer carries a generation and fire discards superseded ones; a
// burst issues exactly one request.
func (p *Pipeline) Observe(req CountRequest) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pending = req
	if p.timer != nil {
		p.timer.Stop()
	}
	p.timerGen++
	gen := p.timerGen
	p.timer = time.AfterFunc(p.debounce, func() { p.fire(gen) })
}

// Snapshot returns the current frame.
func (p *Pipeline) Snapshot() Update {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frameLocked()
}

// Stop cancels the pending recompute and releases the pipeline. In-flight
// responses arriving afterwards are dropped.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.mu.Unlock()
	p.cancel()
}

func (p *Pipeline) fire(gen uint64) {
	p.mu.Lock()
	if p.ctx.Err() != nil || gen != p.timerGen {
		p.mu.Unlock()
		return
	}
	req := p.pending
	p.seq++
	seq := p.seq
	p.loading = true
	frame := p.frameLocked()
	p.mu.Unlock()

	p.publish(frame)
	go p.execute(seq, req)
}

func (p *Pipeline) execute(seq uint64, req CountRequest) {
	count, err := p.counter.Count(p.ctx, req)
	if err != nil {
		log.Warn().Err(err).Uint64("seq", seq).Msg("primary count endpoint failed, falling back")
		count, err = p.counter.LegacyCount(p.ctx, req)
	}

	p.mu.Lock()
	if seq != p.seq {
		// A newer request has been issued; this response is stale.
		p.mu.Unlock()
		return
	}

	if err != nil {
		// Both endpoints failed: retain the last known good count and just
		// clear the loading indicator.
		log.Warn().Err(err).Uint64("seq", seq).Msg("fallback count endpoint failed, retaining last count")
		p.loading = false
	} else {
		p.count = count
		p.hasCount = true
		p.loading = false
	}
	frame := p.frameLocked()
	p.mu.Unlock()

	p.publish(frame)
}

func (p *Pipeline) frameLocked() Update {
	return Update{
		Count:    p.count,
		HasCount: p.hasCount,
		Loading:  p.loading,
		Seq:      p.seq,
	}
}

func (p *Pipeline) publish(frame Update) {
	if p.notify != nil {
		p.notify(frame)
	}
}
