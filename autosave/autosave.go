// Package autosave gives the form editor an explicit debounced-save
// policy: edits mark the policy dirty, a ticker flushes dirty state
// through the caller's save function. The core stays stateless; whoever
// owns the editing session owns the policy.
package autosave

import (
	"context"
	"sync"
	"time"

	"github.com/formloom/formloom/log"
)

type SaveFunc func(ctx context.Context) error

type Policy struct {
	save     SaveFunc
	interval time.Duration

	mu    sync.Mutex
	dirty bool

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// New starts a policy flushing at most once per interval. Close it when
// the editing session ends.
func New(interval time.Duration, save SaveFunc) *Policy {
	p := &Policy{
		save:     save,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *Policy) run() {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := p.Flush(context.Background()); err != nil {
				// keep the dirty flag so the next tick retries
				log.Warnf("autosave.flush: %s", err)
			}
		case <-p.stop:
			return
		}
	}
}

// MarkDirty records that there are unsaved edits.
func (p *Policy) MarkDirty() {
	p.mu.Lock()
	p.dirty = true
	p.mu.Unlock()
}

// Flush saves now if there are unsaved edits. On failure the policy stays
// dirty so a later flush retries.
func (p *Policy) Flush(ctx context.Context) error {
	p.mu.Lock()
	if !p.dirty {
		p.mu.Unlock()
		return nil
	}
	p.dirty = false
	p.mu.Unlock()

	if err := p.save(ctx); err != nil {
		p.mu.Lock()
		p.dirty = true
		p.mu.Unlock()
		return err
	}
	return nil
}

// Close stops the ticker and performs a final flush. Closing more than
// once is safe.
func (p *Policy) Close() error {
	p.stopOnce.Do(func() { close(p.stop) })
	<-p.done
	return p.Flush(context.Background())
}
