// Package scheduler keeps keyed debounce and interval timers so their
// lifecycle can be tied to the owner that created them.
package scheduler

import (
	"context"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"pkt.systems/pslog"
)

// Func is a scheduled callback. The context is canceled when the entry is
// canceled or the scheduler closes.
type Func func(ctx context.Context)

type entry struct {
	timer    *time.Timer
	cancel   context.CancelFunc
	canceled bool
	repeat   bool
}

// Scheduler runs keyed callbacks after a delay or on a fixed period.
// At most one entry exists per key; scheduling a key again replaces it.
type Scheduler struct {
	mu      sync.Mutex
	entries map[string]*entry
	closed  bool
	wg      sync.WaitGroup
	base    context.Context
	stop    context.CancelFunc
	log     pslog.Logger
}

// New constructs a Scheduler.
func New(logger pslog.Logger) *Scheduler {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	base, stop := context.WithCancel(context.Background())
	return &Scheduler{
		entries: make(map[string]*entry),
		base:    base,
		stop:    stop,
		log:     logger,
	}
}

// ScheduleDebounced runs fn once after delay unless the key is scheduled
// again or canceled first. It reports false when the scheduler is closed.
func (s *Scheduler) ScheduleDebounced(key string, delay time.Duration, fn Func) bool {
	if s == nil || fn == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.cancelLocked(key)
	ctx, cancel := context.WithCancel(s.base)
	e := &entry{cancel: cancel}
	s.wg.Add(1)
	e.timer = time.AfterFunc(delay, func() {
		defer s.wg.Done()
		defer cancel()
		s.mu.Lock()
		if e.canceled {
			s.mu.Unlock()
			return
		}
		if s.entries[key] == e {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		s.invoke(ctx, key, fn)
	})
	s.entries[key] = e
	s.log.Trace("scheduler debounce armed", "key", key, "delay_ms", delay.Milliseconds())
	return true
}

// ScheduleRepeating runs fn every period until the key is canceled. Ticks
// never overlap: a slow callback delays the next tick.
func (s *Scheduler) ScheduleRepeating(key string, period time.Duration, fn Func) bool {
	if s == nil || fn == nil || period <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.cancelLocked(key)
	ctx, cancel := context.WithCancel(s.base)
	e := &entry{cancel: cancel, repeat: true}
	s.entries[key] = e
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if ctx.Err() != nil {
					return
				}
				s.invoke(ctx, key, fn)
			}
		}
	}()
	s.log.Trace("scheduler interval armed", "key", key, "period_ms", period.Milliseconds())
	return true
}

// Cancel stops the entry for key. It reports whether an entry existed.
func (s *Scheduler) Cancel(key string) bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelLocked(key)
}

// CancelAll stops every entry and returns how many were pending.
func (s *Scheduler) CancelAll() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for key := range s.entries {
		if s.cancelLocked(key) {
			count++
		}
	}
	if count > 0 {
		s.log.Debug("scheduler cancel all", "count", count)
	}
	return count
}

// Has reports whether key has a pending entry.
func (s *Scheduler) Has(key string) bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	return ok
}

// Pending returns the keys with pending entries, sorted.
func (s *Scheduler) Pending() []string {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	s.mu.Unlock()
	sort.Strings(keys)
	return keys
}

// Close cancels every entry and waits for running callbacks to return.
// Close must not be called from inside a scheduled callback.
func (s *Scheduler) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for key := range s.entries {
		s.cancelLocked(key)
	}
	s.mu.Unlock()
	s.stop()
	s.wg.Wait()
	s.log.Debug("scheduler closed")
}

func (s *Scheduler) cancelLocked(key string) bool {
	e, ok := s.entries[key]
	if !ok {
		return false
	}
	delete(s.entries, key)
	e.canceled = true
	if e.timer != nil && e.timer.Stop() {
		// The AfterFunc will never run, so release its wait slot here.
		s.wg.Done()
	}
	e.cancel()
	return true
}

func (s *Scheduler) invoke(ctx context.Context, key string, fn Func) {
	defer func() {
		if recovered := recover(); recovered != nil {
			s.log.Error("scheduler callback panic", "key", key, "panic", recovered, "stack", string(debug.Stack()))
		}
	}()
	fn(ctx)
}
